package services

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// Sweep names
const (
	SweepInvoices           = "invoices"
	SweepDues               = "dues"
	SweepExpiring           = "expiring"
	SweepCollectionReminder = "collection_reminders"
	SweepOverdue            = "overdue"
)

// Sweeps lists every daily sweep in run order
var Sweeps = []string{SweepInvoices, SweepDues, SweepExpiring, SweepCollectionReminder, SweepOverdue}

// SweepResult counts what one sweep did
type SweepResult struct {
	Sweep    string        `json:"sweep"`
	Day      string        `json:"day"`
	Created  int           `json:"created"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func (r SweepResult) String() string {
	return fmt.Sprintf("%s on %s: %d created, %d skipped, %d failed", r.Sweep, r.Day, r.Created, r.Skipped, r.Failed)
}

// BillingService runs the daily recurring jobs over active agreements.
// Each record is handled in its own transaction and a failure never stops the sweep.
type BillingService struct {
	repos       *repository.Repositories
	invoices    *InvoiceService
	dues        *DueService
	agreements  *AgreementService
	activities  *ActivityService
	notifier    *NotificationService
	clock       Clock
	warningDays int
}

func NewBillingService(
	repos *repository.Repositories,
	invoices *InvoiceService,
	dues *DueService,
	agreements *AgreementService,
	activities *ActivityService,
	notifier *NotificationService,
	clock Clock,
	warningDays int,
) *BillingService {
	if warningDays <= 0 {
		warningDays = 30
	}
	return &BillingService{
		repos:       repos,
		invoices:    invoices,
		dues:        dues,
		agreements:  agreements,
		activities:  activities,
		notifier:    notifier,
		clock:       clock,
		warningDays: warningDays,
	}
}

// Today returns the clock's reference day
func (s *BillingService) Today() time.Time {
	return s.clock.Today()
}

// RunDaily runs every sweep for the clock's day
func (s *BillingService) RunDaily(ctx context.Context) []SweepResult {
	return s.RunAll(ctx, s.clock.Today())
}

// RunAll runs every sweep in order for the given day
func (s *BillingService) RunAll(ctx context.Context, today time.Time) []SweepResult {
	results := make([]SweepResult, 0, len(Sweeps))
	for _, name := range Sweeps {
		result, err := s.Run(ctx, name, today)
		if err != nil {
			s.fail(name, 0, err)
			result.Failed++
		}
		if result.Failed > 0 {
			if err := s.notifier.NotifyAdmins(ctx, "Daily sweep failures", result.String(), models.NotificationTypeSweepFailed); err != nil {
				logger.Error("Failed to notify sweep failures", "sweep", name, "error", err)
			}
		}
		results = append(results, result)
	}
	return results
}

// Run executes one named sweep for the given day
func (s *BillingService) Run(ctx context.Context, sweep string, today time.Time) (SweepResult, error) {
	today = models.DateOf(today)
	start := time.Now()
	var (
		result SweepResult
		err    error
	)
	switch sweep {
	case SweepInvoices:
		result, err = s.GenerateInvoices(ctx, today)
	case SweepDues:
		result, err = s.GenerateDues(ctx, today)
	case SweepExpiring:
		result, err = s.CheckExpiring(ctx, today)
	case SweepCollectionReminder:
		result, err = s.CollectionReminders(ctx, today)
	case SweepOverdue:
		result, err = s.RefreshOverdue(ctx, today)
	default:
		return SweepResult{}, validationf("unknown sweep %q", sweep)
	}
	result.Sweep = sweep
	result.Day = today.Format(models.DateLayout)
	result.Duration = time.Since(start)

	logger.Info("Sweep finished",
		"sweep", sweep,
		"day", result.Day,
		"created", result.Created,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration)
	return result, err
}

func (s *BillingService) fail(sweep string, recordID uint, err error) {
	logger.Error("Sweep record failed", "sweep", sweep, "record_id", recordID, "error", err)
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("sweep", sweep)
		scope.SetExtra("record_id", recordID)
		sentry.CaptureException(err)
	})
}

// eachActive applies fn to every active agreement in its own transaction.
// fn reports whether it created something.
func (s *BillingService) eachActive(ctx context.Context, sweep string, agreements []models.Agreement, fn func(tx *repository.Repositories, a *models.Agreement) (bool, error)) SweepResult {
	var result SweepResult
	for i := range agreements {
		a := &agreements[i]
		var created bool
		err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
			var err error
			created, err = fn(tx, a)
			return err
		})
		switch {
		case err != nil:
			result.Failed++
			s.fail(sweep, a.ID, err)
		case created:
			result.Created++
		default:
			result.Skipped++
		}
	}
	return result
}

// GenerateInvoices creates the monthly rent invoice of every active monthly
// agreement whose invoice day is today, unless one already exists this month
func (s *BillingService) GenerateInvoices(ctx context.Context, today time.Time) (SweepResult, error) {
	agreements, err := s.repos.Agreement.FindActive(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	return s.eachActive(ctx, SweepInvoices, agreements, func(tx *repository.Repositories, a *models.Agreement) (bool, error) {
		return s.generateInvoice(ctx, tx, a, today)
	}), nil
}

func (s *BillingService) generateInvoice(ctx context.Context, tx *repository.Repositories, a *models.Agreement, today time.Time) (bool, error) {
	if !a.AutoGenerateInvoices || a.PaymentFrequency != models.FrequencyMonthly || today.Day() != a.InvoiceDay {
		return false, nil
	}
	periodFrom := models.FirstOfMonth(today)
	periodTo := models.LastOfMonth(today)
	exists, err := tx.Invoice.RentInvoiceExists(ctx, a.ID, periodFrom, today)
	if err != nil || exists {
		return false, err
	}

	terms := a.PaymentTermsDays
	if terms <= 0 {
		terms = defaultPaymentTermsDays
	}
	agreementID := a.ID
	invoice := &models.Invoice{
		TenantID:    a.TenantID,
		AgreementID: &agreementID,
		InvoiceType: models.InvoiceTypeRent,
		InvoiceDate: today,
		DueDate:     today.AddDate(0, 0, terms),
		PeriodFrom:  &periodFrom,
		PeriodTo:    &periodTo,
		Currency:    a.Currency,
		Lines: []models.InvoiceLine{{
			Description: models.MonthlyRentDescription(a.Room.Name, today),
			Quantity:    decimal.NewFromInt(1),
			PriceUnit:   a.RentAmount,
		}},
	}
	if err := s.invoices.CreateWithin(ctx, tx, SystemActor, invoice); err != nil {
		return false, err
	}
	if a.AutoPostInvoices {
		if err := s.invoices.PostWithin(ctx, tx, SystemActor, invoice); err != nil {
			return false, err
		}
	}
	return true, nil
}

// GenerateDues creates this month's rent due for every active agreement
func (s *BillingService) GenerateDues(ctx context.Context, today time.Time) (SweepResult, error) {
	agreements, err := s.repos.Agreement.FindActive(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	return s.eachActive(ctx, SweepDues, agreements, func(tx *repository.Repositories, a *models.Agreement) (bool, error) {
		return s.dues.GenerateForAgreement(ctx, tx, a, today)
	}), nil
}

// CheckExpiring expires agreements past their end date and schedules one
// follow-up for those ending within the warning window
func (s *BillingService) CheckExpiring(ctx context.Context, today time.Time) (SweepResult, error) {
	limit := today.AddDate(0, 0, s.warningDays)
	agreements, err := s.repos.Agreement.FindActiveEndingBy(ctx, limit)
	if err != nil {
		return SweepResult{}, err
	}
	return s.eachActive(ctx, SweepExpiring, agreements, func(tx *repository.Repositories, a *models.Agreement) (bool, error) {
		if a.EndDate.Before(today) {
			if err := s.agreements.ExpireWithin(ctx, tx, SystemActor, a); err != nil {
				return false, err
			}
			return true, nil
		}
		end := a.EndDate
		_, created, err := s.activities.Schedule(ctx, tx, FollowUp{
			Entity:   models.EntityAgreement,
			EntityID: a.ID,
			Kind:     models.ActivityKindAgreementExpiring,
			Summary:  fmt.Sprintf("Agreement %s expires on %s", a.Name, end.Format(models.DateLayout)),
			Note:     fmt.Sprintf("Discuss renewal or exit with %s (%d days left)", a.Tenant.Name, a.DaysRemaining(today)),
			UserID:   s.assignee(ctx, tx, a),
			DueDate:  &end,
		}, true)
		return created, err
	}), nil
}

// CollectionReminders schedules a "collect rent" follow-up on payment day for
// monthly agreements, and daily for daily agreements not yet collected today
func (s *BillingService) CollectionReminders(ctx context.Context, today time.Time) (SweepResult, error) {
	agreements, err := s.repos.Agreement.FindActive(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	return s.eachActive(ctx, SweepCollectionReminder, agreements, func(tx *repository.Repositories, a *models.Agreement) (bool, error) {
		switch a.PaymentFrequency {
		case models.FrequencyMonthly:
			if today.Day() != a.PaymentDay {
				return false, nil
			}
		case models.FrequencyDaily:
			last, err := tx.Collection.LastReceivedRentDate(ctx, a.ID)
			if err != nil {
				return false, err
			}
			if last != nil && !models.DateOf(*last).Before(today) {
				return false, nil
			}
		default:
			return false, nil
		}
		_, created, err := s.activities.Schedule(ctx, tx, FollowUp{
			Entity:   models.EntityAgreement,
			EntityID: a.ID,
			Kind:     models.ActivityKindCollectRent,
			Summary:  fmt.Sprintf("Collect rent from %s - %s", a.Tenant.Name, a.Room.Name),
			Note:     fmt.Sprintf("Rent %s %s", a.RentAmount.StringFixed(2), a.Currency),
			UserID:   s.assignee(ctx, tx, a),
			DueDate:  &today,
		}, true)
		return created, err
	}), nil
}

// RefreshOverdue re-derives open due statuses so past-date dues turn overdue
func (s *BillingService) RefreshOverdue(ctx context.Context, today time.Time) (SweepResult, error) {
	dues, err := s.repos.Due.FindOpen(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	var result SweepResult
	for i := range dues {
		d := &dues[i]
		before := d.Status
		d.RefreshStatus(today)
		if d.Status == before {
			result.Skipped++
			continue
		}
		if err := s.repos.Due.Update(ctx, d); err != nil {
			result.Failed++
			s.fail(SweepOverdue, d.ID, err)
			continue
		}
		result.Created++
	}
	return result, nil
}

// assignee is the property manager, or the first admin when the property has none
func (s *BillingService) assignee(ctx context.Context, tx *repository.Repositories, a *models.Agreement) *uint {
	if a.Property.ManagerID != nil {
		return a.Property.ManagerID
	}
	admins, err := tx.User.FindAdmins(ctx)
	if err != nil || len(admins) == 0 {
		return nil
	}
	id := admins[0].ID
	return &id
}
