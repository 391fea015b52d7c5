package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
)

// PortalService gives tenant users read access to their own records.
// Reading another tenant's record is refused with ErrForbidden.
type PortalService struct {
	repos *repository.Repositories
	clock Clock
}

func NewPortalService(repos *repository.Repositories, clock Clock) *PortalService {
	return &PortalService{repos: repos, clock: clock}
}

// Today returns the clock's reference day
func (s *PortalService) Today() time.Time {
	return s.clock.Today()
}

func tenantScope(actor Actor) (uint, error) {
	if !actor.IsTenant() || actor.TenantID == nil {
		return 0, fmt.Errorf("%w: portal is only available to tenant accounts", ErrForbidden)
	}
	return *actor.TenantID, nil
}

// scoped forces the tenant filter, ignoring whatever the caller asked for
func scoped(query *repository.ListQuery, tenantID uint) *repository.ListQuery {
	if query == nil {
		query = repository.NewListQuery()
	}
	if query.Filters == nil {
		query.Filters = make(map[string]string)
	}
	query.Filters["tenant_id"] = strconv.FormatUint(uint64(tenantID), 10)
	return query
}

func owns(tenantID, recordTenantID uint, entity string) error {
	if tenantID != recordTenantID {
		return fmt.Errorf("%w: %s belongs to another tenant", ErrForbidden, entity)
	}
	return nil
}

func (s *PortalService) Agreements(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.AgreementResponse, int64, error) {
	tenantID, err := tenantScope(actor)
	if err != nil {
		return nil, 0, err
	}
	query = scoped(query, tenantID)
	query.Filters["exclude_draft"] = "true"
	agreements, total, err := s.repos.Agreement.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	today := s.clock.Today()
	out := make([]models.AgreementResponse, 0, len(agreements))
	for i := range agreements {
		out = append(out, agreements[i].ToResponse(today, models.AgreementStats{}))
	}
	return out, total, nil
}

func (s *PortalService) Agreement(ctx context.Context, actor Actor, id uint) (models.AgreementResponse, error) {
	tenantID, err := tenantScope(actor)
	if err != nil {
		return models.AgreementResponse{}, err
	}
	agreement, err := s.repos.Agreement.FindByID(ctx, id)
	if err != nil {
		return models.AgreementResponse{}, translate(err, "agreement")
	}
	if err := owns(tenantID, agreement.TenantID, "agreement"); err != nil {
		return models.AgreementResponse{}, err
	}
	if agreement.State == models.AgreementStateDraft {
		return models.AgreementResponse{}, fmt.Errorf("%w: agreement", ErrNotFound)
	}
	stats, err := s.repos.Agreement.Stats(ctx, agreement.ID)
	if err != nil {
		return models.AgreementResponse{}, err
	}
	return agreement.ToResponse(s.clock.Today(), *stats), nil
}

func (s *PortalService) Collections(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.Collection, int64, error) {
	tenantID, err := tenantScope(actor)
	if err != nil {
		return nil, 0, err
	}
	query = scoped(query, tenantID)
	query.Filters["exclude_draft"] = "true"
	return s.repos.Collection.List(ctx, query)
}

func (s *PortalService) Invoices(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.Invoice, int64, error) {
	tenantID, err := tenantScope(actor)
	if err != nil {
		return nil, 0, err
	}
	query = scoped(query, tenantID)
	// drafts stay internal
	query.Filters["exclude_draft"] = "true"
	return s.repos.Invoice.List(ctx, query)
}

// Invoice returns one of the tenant's posted invoices
func (s *PortalService) Invoice(ctx context.Context, actor Actor, id uint) (*models.Invoice, error) {
	tenantID, err := tenantScope(actor)
	if err != nil {
		return nil, err
	}
	invoice, err := s.repos.Invoice.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "invoice")
	}
	if err := owns(tenantID, invoice.TenantID, "invoice"); err != nil {
		return nil, err
	}
	if invoice.State == models.InvoiceStateDraft {
		return nil, fmt.Errorf("%w: invoice", ErrNotFound)
	}
	return invoice, nil
}

func (s *PortalService) Dues(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.DueTracker, int64, error) {
	tenantID, err := tenantScope(actor)
	if err != nil {
		return nil, 0, err
	}
	return s.repos.Due.List(ctx, scoped(query, tenantID))
}
