package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

const defaultPaymentTermsDays = 30

// InvoiceService handles invoices, their lines and their payment-derived state
type InvoiceService struct {
	repos    *repository.Repositories
	audit    *AuditService
	notifier *NotificationService
	email    *EmailService
	reports  *ReportService
	worker   *jobs.Worker
	clock    Clock
	currency string
}

func NewInvoiceService(
	repos *repository.Repositories,
	audit *AuditService,
	notifier *NotificationService,
	email *EmailService,
	reports *ReportService,
	worker *jobs.Worker,
	clock Clock,
	currency string,
) *InvoiceService {
	return &InvoiceService{
		repos:    repos,
		audit:    audit,
		notifier: notifier,
		email:    email,
		reports:  reports,
		worker:   worker,
		clock:    clock,
		currency: currency,
	}
}

func (s *InvoiceService) FindByID(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.repos.Invoice.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "invoice")
	}
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, query *repository.ListQuery) ([]models.Invoice, int64, error) {
	return s.repos.Invoice.List(ctx, query)
}

// prepare validates the header and lines and fills what can be derived
func (s *InvoiceService) prepare(ctx context.Context, repos *repository.Repositories, invoice *models.Invoice) error {
	if invoice.InvoiceType == "" {
		invoice.InvoiceType = models.InvoiceTypeRent
	}
	if !models.ValidInvoiceType(invoice.InvoiceType) {
		return validationf("unknown invoice type %q", invoice.InvoiceType)
	}

	terms := defaultPaymentTermsDays
	if invoice.AgreementID != nil {
		agreement, err := repos.Agreement.FindByID(ctx, *invoice.AgreementID)
		if err != nil {
			return translate(err, "agreement")
		}
		if invoice.TenantID != 0 && invoice.TenantID != agreement.TenantID {
			return validationf("agreement %s belongs to another tenant", agreement.Name)
		}
		invoice.TenantID = agreement.TenantID
		roomID, propertyID := agreement.RoomID, agreement.PropertyID
		invoice.RoomID = &roomID
		invoice.PropertyID = &propertyID
		if invoice.Currency == "" {
			invoice.Currency = agreement.Currency
		}
		if agreement.PaymentTermsDays > 0 {
			terms = agreement.PaymentTermsDays
		}
	} else if invoice.RoomID != nil {
		room, err := repos.Room.FindByID(ctx, *invoice.RoomID)
		if err != nil {
			return translate(err, "room")
		}
		propertyID := room.PropertyID
		invoice.PropertyID = &propertyID
	}

	if invoice.TenantID == 0 {
		return validationf("tenant is required")
	}
	if _, err := repos.Tenant.FindByID(ctx, invoice.TenantID); err != nil {
		return translate(err, "tenant")
	}
	if invoice.Currency == "" {
		invoice.Currency = s.currency
	}

	if invoice.InvoiceDate.IsZero() {
		invoice.InvoiceDate = s.clock.Today()
	}
	invoice.InvoiceDate = models.DateOf(invoice.InvoiceDate)
	if invoice.DueDate.IsZero() {
		invoice.DueDate = invoice.InvoiceDate.AddDate(0, 0, terms)
	}
	invoice.DueDate = models.DateOf(invoice.DueDate)
	if invoice.DueDate.Before(invoice.InvoiceDate) {
		return validationf("due date cannot be before the invoice date")
	}
	if invoice.PeriodFrom != nil && invoice.PeriodTo != nil && invoice.PeriodTo.Before(*invoice.PeriodFrom) {
		return validationf("period end cannot be before period start")
	}

	for i := range invoice.Lines {
		line := &invoice.Lines[i]
		line.Description = strings.TrimSpace(line.Description)
		if line.Description == "" {
			return validationf("line %d: description is required", i+1)
		}
		if line.Quantity.IsZero() {
			line.Quantity = decimal.NewFromInt(1)
		}
		if !line.Quantity.IsPositive() {
			return validationf("line %d: quantity must be positive", i+1)
		}
		if line.PriceUnit.IsNegative() {
			return validationf("line %d: unit price cannot be negative", i+1)
		}
	}
	invoice.RecomputeTotals()
	return nil
}

// Create saves a draft invoice with its lines
func (s *InvoiceService) Create(ctx context.Context, actor Actor, invoice *models.Invoice) error {
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		return s.CreateWithin(ctx, tx, actor, invoice)
	})
}

// CreateWithin numbers and stores a draft invoice inside an existing transaction
func (s *InvoiceService) CreateWithin(ctx context.Context, tx *repository.Repositories, actor Actor, invoice *models.Invoice) error {
	invoice.ID = 0
	invoice.State = models.InvoiceStateDraft
	invoice.AmountPaid = decimal.Zero
	invoice.PostedAt = nil
	invoice.SentAt = nil
	if err := s.prepare(ctx, tx, invoice); err != nil {
		return err
	}

	name, err := tx.Sequence.Next(ctx, models.SequenceInvoice, invoice.InvoiceDate.Year())
	if err != nil {
		return err
	}
	invoice.Name = name
	if err := tx.Invoice.Create(ctx, invoice); err != nil {
		return translate(err, "invoice")
	}
	return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityInvoice, invoice.ID,
		fmt.Sprintf("Invoice %s created for %s", invoice.Name, invoice.AmountTotal.StringFixed(2)))
}

// Update rewrites a draft invoice and replaces its lines
func (s *InvoiceService) Update(ctx context.Context, actor Actor, input *models.Invoice) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Invoice.FindByID(ctx, input.ID)
		if err != nil {
			return translate(err, "invoice")
		}
		if !current.IsEditable() {
			return fmt.Errorf("%w: lines can only change while the invoice is draft", ErrInvalidState)
		}
		beforeTotal := current.AmountTotal

		current.TenantID = input.TenantID
		current.AgreementID = input.AgreementID
		current.RoomID = input.RoomID
		current.InvoiceType = input.InvoiceType
		current.InvoiceDate = input.InvoiceDate
		current.DueDate = input.DueDate
		current.PeriodFrom = input.PeriodFrom
		current.PeriodTo = input.PeriodTo
		current.Notes = input.Notes
		current.Lines = input.Lines
		for i := range current.Lines {
			current.Lines[i].ID = 0
			current.Lines[i].InvoiceID = current.ID
		}

		if err := s.prepare(ctx, tx, current); err != nil {
			return err
		}
		if err := tx.Invoice.Update(ctx, current); err != nil {
			return err
		}
		if err := tx.Invoice.ReplaceLines(ctx, current); err != nil {
			return err
		}
		invoice = current
		return s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityInvoice, current.ID).
			Track("amount_total", beforeTotal, current.AmountTotal))
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// Delete removes a draft or cancelled invoice without counted payments
func (s *InvoiceService) Delete(ctx context.Context, actor Actor, id uint) error {
	invoice, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice.State != models.InvoiceStateDraft && invoice.State != models.InvoiceStateCancelled {
		return fmt.Errorf("%w: only draft or cancelled invoices can be deleted", ErrInvalidState)
	}
	if models.SumCountedPayments(invoice.Payments).IsPositive() {
		return preconditionf("invoice %s has posted payments", invoice.Name)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Invoice.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityInvoice, id, fmt.Sprintf("Invoice %s deleted", invoice.Name))
	})
}

// Post confirms a draft invoice. It must carry at least one line.
func (s *InvoiceService) Post(ctx context.Context, actor Actor, id uint) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Invoice.FindByID(ctx, id)
		if err != nil {
			return translate(err, "invoice")
		}
		invoice = current
		return s.PostWithin(ctx, tx, actor, current)
	})
	if err != nil {
		return nil, err
	}
	s.notifyTenant(invoice)
	return invoice, nil
}

// PostWithin posts the invoice inside an existing transaction
func (s *InvoiceService) PostWithin(ctx context.Context, tx *repository.Repositories, actor Actor, invoice *models.Invoice) error {
	if len(invoice.Lines) == 0 {
		return preconditionf("invoice %s has no lines", invoice.Name)
	}
	if err := statemachine.NewInvoiceFSM(invoice).Post(ctx); err != nil {
		return translate(err, "invoice")
	}
	now := s.clock().UTC()
	invoice.PostedAt = &now

	paid, err := tx.Payment.SumCounted(ctx, invoice.ID)
	if err != nil {
		return err
	}
	invoice.RecomputeTotals()
	invoice.ApplyPaidAmount(paid)
	if err := tx.Invoice.Update(ctx, invoice); err != nil {
		return err
	}
	if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityInvoice, invoice.ID).
		Track("state", models.InvoiceStateDraft, invoice.State)); err != nil {
		return err
	}
	return s.audit.Log(ctx, tx, actor, "POST", models.EntityInvoice, invoice.ID,
		fmt.Sprintf("Invoice %s posted", invoice.Name))
}

// Cancel voids a draft or posted invoice that has no payments left
func (s *InvoiceService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Invoice.FindByID(ctx, id)
		if err != nil {
			return translate(err, "invoice")
		}
		invoice = current
		if current.AmountPaid.IsPositive() {
			return preconditionf("invoice %s has payments; cancel them first", current.Name)
		}
		before := current.State
		if err := statemachine.NewInvoiceFSM(current).Cancel(ctx); err != nil {
			return translate(err, "invoice")
		}
		if err := tx.Invoice.Update(ctx, current); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityInvoice, current.ID).
			Track("state", before, current.State)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "CANCEL", models.EntityInvoice, current.ID,
			fmt.Sprintf("Invoice %s cancelled", current.Name))
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// ResetToDraft reopens a cancelled invoice
func (s *InvoiceService) ResetToDraft(ctx context.Context, actor Actor, id uint) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Invoice.FindByID(ctx, id)
		if err != nil {
			return translate(err, "invoice")
		}
		invoice = current
		if err := statemachine.NewInvoiceFSM(current).ResetToDraft(ctx); err != nil {
			return translate(err, "invoice")
		}
		current.PostedAt = nil
		if err := tx.Invoice.Update(ctx, current); err != nil {
			return err
		}
		return s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityInvoice, current.ID).
			Track("state", models.InvoiceStateCancelled, current.State))
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// RecomputePaid sets amount_paid from the counted payments and re-derives the state
func (s *InvoiceService) RecomputePaid(ctx context.Context, tx *repository.Repositories, actor Actor, invoiceID uint) (*models.Invoice, error) {
	invoice, err := tx.Invoice.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, translate(err, "invoice")
	}
	paid, err := tx.Payment.SumCounted(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	beforeState, beforePaid := invoice.State, invoice.AmountPaid
	invoice.ApplyPaidAmount(paid)
	if err := tx.Invoice.Update(ctx, invoice); err != nil {
		return nil, err
	}
	err = s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityInvoice, invoice.ID).
		Track("amount_paid", beforePaid, invoice.AmountPaid).
		Track("state", beforeState, invoice.State))
	return invoice, err
}

// PDF renders the invoice document
func (s *InvoiceService) PDF(ctx context.Context, id uint) ([]byte, string, error) {
	invoice, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := s.reports.InvoicePDF(ctx, invoice)
	if err != nil {
		return nil, "", err
	}
	return pdf, invoiceFilename(invoice), nil
}

// SendByEmail mails the posted invoice with its PDF to the tenant
func (s *InvoiceService) SendByEmail(ctx context.Context, actor Actor, id uint) (*models.Invoice, error) {
	invoice, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.State == models.InvoiceStateDraft || invoice.State == models.InvoiceStateCancelled {
		return nil, preconditionf("only posted invoices can be sent")
	}
	if invoice.Tenant.Email == "" {
		return nil, preconditionf("tenant %s has no email address", invoice.Tenant.Name)
	}
	pdf, err := s.reports.InvoicePDF(ctx, invoice)
	if err != nil {
		return nil, err
	}
	if err := s.email.SendInvoice(ctx, invoice, pdf); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	invoice.SentAt = &now
	if err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Invoice.Update(ctx, invoice); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "SEND", models.EntityInvoice, invoice.ID,
			fmt.Sprintf("Invoice %s emailed to %s", invoice.Name, invoice.Tenant.Email))
	}); err != nil {
		return nil, err
	}
	return invoice, nil
}

// notifyTenant posts an in-app notification to the tenant's portal account, when one exists
func (s *InvoiceService) notifyTenant(invoice *models.Invoice) {
	tenantID := invoice.TenantID
	title := "New invoice"
	message := fmt.Sprintf("Invoice %s for %s %s is due on %s",
		invoice.Name, invoice.AmountTotal.StringFixed(2), invoice.Currency, invoice.DueDate.Format(models.DateLayout))

	dispatch(s.worker, func(ctx context.Context) error {
		user, err := s.repos.User.FindByTenant(ctx, tenantID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil
			}
			return err
		}
		if err := s.notifier.NotifyUser(ctx, user.ID, title, message, models.NotificationTypeInvoicePosted); err != nil {
			logger.Error("Failed to notify tenant of invoice", "invoice", invoice.Name, "error", err)
			return err
		}
		return nil
	})
}
