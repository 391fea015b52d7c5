package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// DueService tracks what tenants owe and chases it
type DueService struct {
	repos      *repository.Repositories
	audit      *AuditService
	activities *ActivityService
	email      *EmailService
	worker     *jobs.Worker
	clock      Clock
	currency   string
}

func NewDueService(
	repos *repository.Repositories,
	audit *AuditService,
	activities *ActivityService,
	email *EmailService,
	worker *jobs.Worker,
	clock Clock,
	currency string,
) *DueService {
	return &DueService{
		repos:      repos,
		audit:      audit,
		activities: activities,
		email:      email,
		worker:     worker,
		clock:      clock,
		currency:   currency,
	}
}

func (s *DueService) FindByID(ctx context.Context, id uint) (*models.DueTracker, error) {
	due, err := s.repos.Due.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "due")
	}
	return due, nil
}

func (s *DueService) List(ctx context.Context, query *repository.ListQuery) ([]models.DueTracker, int64, error) {
	return s.repos.Due.List(ctx, query)
}

// Today is the reference day used for derived fields in responses
func (s *DueService) Today() time.Time {
	return s.clock.Today()
}

// Create records a manual due such as a penalty or utility charge
func (s *DueService) Create(ctx context.Context, actor Actor, due *models.DueTracker) error {
	if !due.AmountDue.IsPositive() {
		return validationf("amount due must be positive")
	}
	if due.DueDate.IsZero() {
		return validationf("due date is required")
	}
	if due.DueType == "" {
		due.DueType = models.DueTypeOther
	}
	if due.Priority == "" {
		due.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(due.Priority) {
		return validationf("unknown priority %q", due.Priority)
	}

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if due.AgreementID != nil {
			agreement, err := tx.Agreement.FindByID(ctx, *due.AgreementID)
			if err != nil {
				return translate(err, "agreement")
			}
			due.TenantID = agreement.TenantID
			due.RoomID = agreement.RoomID
			if due.Currency == "" {
				due.Currency = agreement.Currency
			}
		}
		tenant, err := tx.Tenant.FindByID(ctx, due.TenantID)
		if err != nil {
			return translate(err, "tenant")
		}
		if _, err := tx.Room.FindByID(ctx, due.RoomID); err != nil {
			return translate(err, "room")
		}
		if due.Currency == "" {
			due.Currency = s.currency
		}
		due.ID = 0
		due.DueDate = models.DateOf(due.DueDate)
		due.AmountPaid = decimal.Zero
		due.Name = models.DueName(due.DueType, tenant.Name, due.DueDate)
		due.RefreshStatus(s.clock.Today())
		if err := tx.Due.Create(ctx, due); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityDue, due.ID,
			fmt.Sprintf("Due %s of %s recorded", due.Name, due.AmountDue.StringFixed(2)))
	})
}

// GenerateForAgreement creates the rent due of today's month unless it already exists.
// A payment day falling outside the agreement term yields no due.
func (s *DueService) GenerateForAgreement(ctx context.Context, tx *repository.Repositories, a *models.Agreement, today time.Time) (bool, error) {
	dueDate := models.WithDay(today, a.PaymentDay)
	if dueDate.Before(models.DateOf(a.StartDate)) || dueDate.After(models.DateOf(a.EndDate)) {
		return false, nil
	}
	exists, err := tx.Due.ExistsForDate(ctx, a.ID, dueDate)
	if err != nil || exists {
		return false, err
	}
	agreementID := a.ID
	due := &models.DueTracker{
		Name:        models.DueName(models.DueTypeRent, a.Tenant.Name, dueDate),
		TenantID:    a.TenantID,
		RoomID:      a.RoomID,
		AgreementID: &agreementID,
		DueType:     models.DueTypeRent,
		DueDate:     dueDate,
		AmountDue:   a.RentAmount,
		AmountPaid:  decimal.Zero,
		Currency:    a.Currency,
		Priority:    models.PriorityMedium,
	}
	due.RefreshStatus(today)
	if err := tx.Due.Create(ctx, due); err != nil {
		return false, err
	}
	return true, nil
}

// MarkPaid settles the full amount
func (s *DueService) MarkPaid(ctx context.Context, actor Actor, id uint) (*models.DueTracker, error) {
	return s.mutate(ctx, actor, id, "MARK_PAID", func(d *models.DueTracker) error {
		if !d.IsOpen() {
			return fmt.Errorf("%w: due is %s", ErrInvalidState, d.Status)
		}
		d.AmountPaid = d.AmountDue
		return nil
	})
}

// RecordPayment adds a partial payment to the due
func (s *DueService) RecordPayment(ctx context.Context, actor Actor, id uint, amount decimal.Decimal) (*models.DueTracker, error) {
	return s.mutate(ctx, actor, id, "PAYMENT", func(d *models.DueTracker) error {
		if !d.IsOpen() {
			return fmt.Errorf("%w: due is %s", ErrInvalidState, d.Status)
		}
		if !amount.IsPositive() {
			return validationf("payment amount must be positive")
		}
		if amount.GreaterThan(d.Outstanding()) {
			return validationf("amount %s exceeds the outstanding %s", amount.StringFixed(2), d.Outstanding().StringFixed(2))
		}
		d.AmountPaid = d.AmountPaid.Add(amount)
		return nil
	})
}

// Waive forgives the remaining amount
func (s *DueService) Waive(ctx context.Context, actor Actor, id uint, reason string) (*models.DueTracker, error) {
	return s.mutate(ctx, actor, id, "WAIVE", func(d *models.DueTracker) error {
		if !d.IsOpen() {
			return fmt.Errorf("%w: due is %s", ErrInvalidState, d.Status)
		}
		d.Status = models.DueStatusWaived
		if reason = strings.TrimSpace(reason); reason != "" {
			note := reason
			if d.Notes != nil && *d.Notes != "" {
				note = *d.Notes + "\n" + reason
			}
			d.Notes = &note
		}
		return nil
	})
}

func (s *DueService) mutate(ctx context.Context, actor Actor, id uint, action string, change func(*models.DueTracker) error) (*models.DueTracker, error) {
	var due *models.DueTracker
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		d, err := tx.Due.FindByID(ctx, id)
		if err != nil {
			return translate(err, "due")
		}
		due = d
		beforeStatus, beforePaid := d.Status, d.AmountPaid
		if err := change(d); err != nil {
			return err
		}
		d.RefreshStatus(s.clock.Today())
		if err := tx.Due.Update(ctx, d); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityDue, d.ID).
			Track("status", beforeStatus, d.Status).
			Track("amount_paid", beforePaid, d.AmountPaid)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, action, models.EntityDue, d.ID,
			fmt.Sprintf("Due %s is %s", d.Name, d.Status))
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}

// SendReminder bumps the reminder counters, assigns a follow-up to the property
// manager and emails the tenant when an address is on file
func (s *DueService) SendReminder(ctx context.Context, actor Actor, id uint) (*models.DueTracker, error) {
	today := s.clock.Today()
	var due *models.DueTracker
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		d, err := tx.Due.FindByID(ctx, id)
		if err != nil {
			return translate(err, "due")
		}
		due = d
		if !d.IsOpen() {
			return fmt.Errorf("%w: due is %s", ErrInvalidState, d.Status)
		}
		d.LastReminderDate = &today
		d.ReminderCount++
		if err := tx.Due.Update(ctx, d); err != nil {
			return err
		}

		property, err := tx.Property.FindByID(ctx, d.Room.PropertyID)
		if err != nil {
			return translate(err, "property")
		}
		assignee := property.ManagerID
		if assignee == nil {
			assignee = actor.userRef()
		}
		_, _, err = s.activities.Schedule(ctx, tx, FollowUp{
			Entity:   models.EntityDue,
			EntityID: d.ID,
			Kind:     models.ActivityKindDueReminder,
			Summary:  fmt.Sprintf("Follow up payment: %s", d.Name),
			Note:     fmt.Sprintf("Outstanding %s %s, reminder #%d", d.Outstanding().StringFixed(2), d.Currency, d.ReminderCount),
			UserID:   assignee,
			DueDate:  &today,
		}, false)
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "REMIND", models.EntityDue, d.ID,
			fmt.Sprintf("Reminder #%d sent for %s", d.ReminderCount, d.Name))
	})
	if err != nil {
		return nil, err
	}

	if due.Tenant.Email != "" {
		reminder := *due
		dispatch(s.worker, func(ctx context.Context) error {
			if err := s.email.SendDueReminder(ctx, &reminder, today); err != nil {
				logger.Error("Failed to email due reminder", "due_id", reminder.ID, "error", err)
				return err
			}
			return nil
		})
	}
	return due, nil
}
