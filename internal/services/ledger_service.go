package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// LedgerService keeps the money moving outside tenant billing: landlord
// payouts, staff salaries and incoming bank transfers
type LedgerService struct {
	repos    *repository.Repositories
	audit    *AuditService
	notifier *NotificationService
	worker   *jobs.Worker
	clock    Clock
	currency string
}

func NewLedgerService(
	repos *repository.Repositories,
	audit *AuditService,
	notifier *NotificationService,
	worker *jobs.Worker,
	clock Clock,
	currency string,
) *LedgerService {
	return &LedgerService{
		repos:    repos,
		audit:    audit,
		notifier: notifier,
		worker:   worker,
		clock:    clock,
		currency: currency,
	}
}

// Landlord payments

func (s *LedgerService) FindLandlordPayment(ctx context.Context, id uint) (*models.LandlordPayment, error) {
	payment, err := s.repos.Landlord.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "landlord payment")
	}
	return payment, nil
}

func (s *LedgerService) ListLandlordPayments(ctx context.Context, query *repository.ListQuery) ([]models.LandlordPayment, int64, error) {
	return s.repos.Landlord.List(ctx, query)
}

// CreateLandlordPayment stores a draft payout to the landlord of a property
func (s *LedgerService) CreateLandlordPayment(ctx context.Context, actor Actor, p *models.LandlordPayment) error {
	p.ID = 0
	p.Status = models.LandlordPaymentStatusDraft
	if !p.Amount.IsPositive() {
		return validationf("amount must be positive")
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = models.PaymentMethodBankTransfer
	}
	switch p.PaymentMethod {
	case models.PaymentMethodCash, models.PaymentMethodBankTransfer, models.PaymentMethodCheque:
	default:
		return validationf("unknown payment method %q", p.PaymentMethod)
	}
	if p.PeriodFrom != nil && p.PeriodTo != nil && p.PeriodTo.Before(*p.PeriodFrom) {
		return validationf("period end cannot be before period start")
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = s.clock.Today()
	}
	p.PaymentDate = models.DateOf(p.PaymentDate)
	if p.Currency == "" {
		p.Currency = s.currency
	}

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		landlord, err := tx.Contact.FindByID(ctx, p.LandlordID)
		if err != nil {
			return translate(err, "landlord")
		}
		property, err := tx.Property.FindByID(ctx, p.PropertyID)
		if err != nil {
			return translate(err, "property")
		}
		if p.Name = strings.TrimSpace(p.Name); p.Name == "" {
			p.Name = models.LandlordPaymentName(property.Code, p.PaymentDate)
		}
		if err := tx.Landlord.Create(ctx, p); err != nil {
			return translate(err, "landlord payment")
		}
		p.Landlord = *landlord
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityLandlordPayment, p.ID,
			fmt.Sprintf("Landlord payment %s of %s to %s recorded", p.Name, p.Amount.StringFixed(2), landlord.Name))
	})
}

func (s *LedgerService) PayLandlordPayment(ctx context.Context, actor Actor, id uint) (*models.LandlordPayment, error) {
	return s.landlordTransition(ctx, actor, id, "PAY", func(p *models.LandlordPayment) error {
		return statemachine.NewLandlordPaymentFSM(p).Pay(ctx)
	})
}

func (s *LedgerService) CancelLandlordPayment(ctx context.Context, actor Actor, id uint) (*models.LandlordPayment, error) {
	return s.landlordTransition(ctx, actor, id, "CANCEL", func(p *models.LandlordPayment) error {
		return statemachine.NewLandlordPaymentFSM(p).Cancel(ctx)
	})
}

// DeleteLandlordPayment removes a draft or cancelled payout
func (s *LedgerService) DeleteLandlordPayment(ctx context.Context, actor Actor, id uint) error {
	payment, err := s.FindLandlordPayment(ctx, id)
	if err != nil {
		return err
	}
	if payment.Status == models.LandlordPaymentStatusPaid {
		return fmt.Errorf("%w: paid landlord payments cannot be deleted", ErrInvalidState)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Landlord.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityLandlordPayment, id,
			fmt.Sprintf("Landlord payment %s deleted", payment.Name))
	})
}

func (s *LedgerService) landlordTransition(ctx context.Context, actor Actor, id uint, action string, step func(*models.LandlordPayment) error) (*models.LandlordPayment, error) {
	var payment *models.LandlordPayment
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		p, err := tx.Landlord.FindByID(ctx, id)
		if err != nil {
			return translate(err, "landlord payment")
		}
		payment = p
		before := p.Status
		if err := step(p); err != nil {
			return translate(err, "landlord payment")
		}
		if err := tx.Landlord.Update(ctx, p); err != nil {
			return err
		}
		return s.recordStatus(ctx, tx, actor, models.EntityLandlordPayment, p.ID, p.Name, action, before, p.Status)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Staff salaries

func (s *LedgerService) FindStaffSalary(ctx context.Context, id uint) (*models.StaffSalary, error) {
	salary, err := s.repos.Salary.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "salary")
	}
	return salary, nil
}

func (s *LedgerService) ListStaffSalaries(ctx context.Context, query *repository.ListQuery) ([]models.StaffSalary, int64, error) {
	return s.repos.Salary.List(ctx, query)
}

// CreateStaffSalary stores a draft salary; periods of one employee never overlap
func (s *LedgerService) CreateStaffSalary(ctx context.Context, actor Actor, salary *models.StaffSalary) error {
	salary.ID = 0
	salary.Status = models.StaffSalaryStatusDraft
	salary.ApprovedByID = nil
	salary.PaidAt = nil
	if salary.PeriodFrom.IsZero() || salary.PeriodTo.IsZero() {
		return validationf("salary period is required")
	}
	salary.PeriodFrom = models.DateOf(salary.PeriodFrom)
	salary.PeriodTo = models.DateOf(salary.PeriodTo)
	if salary.PeriodTo.Before(salary.PeriodFrom) {
		return validationf("period end cannot be before period start")
	}
	if salary.BasicSalary.IsNegative() || salary.Commission.IsNegative() || salary.Bonus.IsNegative() {
		return validationf("salary components cannot be negative")
	}
	salary.RecomputeTotal()
	if !salary.TotalAmount.IsPositive() {
		return validationf("salary total must be positive")
	}
	if salary.Currency == "" {
		salary.Currency = s.currency
	}

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		employee, err := tx.User.FindByID(ctx, salary.EmployeeID)
		if err != nil {
			return translate(err, "employee")
		}
		if employee.IsTenant() {
			return validationf("tenant accounts cannot draw a salary")
		}
		if salary.PropertyID != nil {
			if _, err := tx.Property.FindByID(ctx, *salary.PropertyID); err != nil {
				return translate(err, "property")
			}
		}
		overlap, err := tx.Salary.ExistsForPeriod(ctx, salary.EmployeeID, salary.PeriodFrom, salary.PeriodTo, 0)
		if err != nil {
			return err
		}
		if overlap {
			return validationf("%s already has a salary overlapping %s to %s", employee.FullName,
				salary.PeriodFrom.Format(models.DateLayout), salary.PeriodTo.Format(models.DateLayout))
		}
		if salary.Name = strings.TrimSpace(salary.Name); salary.Name == "" {
			salary.Name = models.StaffSalaryName(employee.FullName, salary.PeriodFrom)
		}
		if err := tx.Salary.Create(ctx, salary); err != nil {
			return translate(err, "salary")
		}
		salary.Employee = *employee
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityStaffSalary, salary.ID,
			fmt.Sprintf("Salary %s of %s recorded", salary.Name, salary.TotalAmount.StringFixed(2)))
	})
}

func (s *LedgerService) ApproveStaffSalary(ctx context.Context, actor Actor, id uint) (*models.StaffSalary, error) {
	return s.salaryTransition(ctx, actor, id, "APPROVE", func(salary *models.StaffSalary) error {
		if err := statemachine.NewStaffSalaryFSM(salary).Approve(ctx); err != nil {
			return err
		}
		salary.ApprovedByID = actor.userRef()
		return nil
	})
}

// PayStaffSalary marks an approved salary paid and tells the employee
func (s *LedgerService) PayStaffSalary(ctx context.Context, actor Actor, id uint) (*models.StaffSalary, error) {
	salary, err := s.salaryTransition(ctx, actor, id, "PAY", func(salary *models.StaffSalary) error {
		if err := statemachine.NewStaffSalaryFSM(salary).Pay(ctx); err != nil {
			return err
		}
		now := s.clock().UTC()
		salary.PaidAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s: %s %s paid", salary.Name, salary.TotalAmount.StringFixed(2), salary.Currency)
	dispatch(s.worker, func(ctx context.Context) error {
		if err := s.notifier.NotifyUser(ctx, salary.EmployeeID, "Salary paid", message, models.NotificationTypeSalaryPaid); err != nil {
			logger.Error("Failed to notify salary payment", "salary_id", salary.ID, "error", err)
			return err
		}
		return nil
	})
	return salary, nil
}

// DeleteStaffSalary removes a salary that was never approved
func (s *LedgerService) DeleteStaffSalary(ctx context.Context, actor Actor, id uint) error {
	salary, err := s.FindStaffSalary(ctx, id)
	if err != nil {
		return err
	}
	if salary.Status != models.StaffSalaryStatusDraft {
		return fmt.Errorf("%w: only draft salaries can be deleted", ErrInvalidState)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Salary.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityStaffSalary, id,
			fmt.Sprintf("Salary %s deleted", salary.Name))
	})
}

func (s *LedgerService) salaryTransition(ctx context.Context, actor Actor, id uint, action string, step func(*models.StaffSalary) error) (*models.StaffSalary, error) {
	var salary *models.StaffSalary
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Salary.FindByID(ctx, id)
		if err != nil {
			return translate(err, "salary")
		}
		salary = current
		before := current.Status
		if err := step(current); err != nil {
			return translate(err, "salary")
		}
		if err := tx.Salary.Update(ctx, current); err != nil {
			return err
		}
		return s.recordStatus(ctx, tx, actor, models.EntityStaffSalary, current.ID, current.Name, action, before, current.Status)
	})
	if err != nil {
		return nil, err
	}
	return salary, nil
}

// Bank transfers

func (s *LedgerService) FindBankTransfer(ctx context.Context, id uint) (*models.BankTransfer, error) {
	transfer, err := s.repos.Transfer.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "bank transfer")
	}
	return transfer, nil
}

func (s *LedgerService) ListBankTransfers(ctx context.Context, query *repository.ListQuery) ([]models.BankTransfer, int64, error) {
	return s.repos.Transfer.List(ctx, query)
}

// CreateBankTransfer records a pending transfer. A linked collection supplies the tenant.
func (s *LedgerService) CreateBankTransfer(ctx context.Context, actor Actor, t *models.BankTransfer) error {
	t.ID = 0
	t.Status = models.BankTransferStatusPending
	if !t.Amount.IsPositive() {
		return validationf("amount must be positive")
	}
	t.BankName = strings.TrimSpace(t.BankName)
	t.AccountNumber = strings.TrimSpace(t.AccountNumber)
	if t.TransactionID != nil {
		if trimmed := strings.TrimSpace(*t.TransactionID); trimmed == "" {
			t.TransactionID = nil
		} else {
			t.TransactionID = &trimmed
		}
	}
	if t.Date.IsZero() {
		t.Date = s.clock.Today()
	}
	t.Date = models.DateOf(t.Date)
	if t.Currency == "" {
		t.Currency = s.currency
	}

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if t.CollectionID != nil {
			collection, err := tx.Collection.FindByID(ctx, *t.CollectionID)
			if err != nil {
				return translate(err, "collection")
			}
			if t.TenantID != nil && *t.TenantID != collection.TenantID {
				return validationf("collection %s belongs to another tenant", collection.Name)
			}
			tenantID := collection.TenantID
			t.TenantID = &tenantID
		} else if t.TenantID != nil {
			if _, err := tx.Tenant.FindByID(ctx, *t.TenantID); err != nil {
				return translate(err, "tenant")
			}
		}
		if t.Name = strings.TrimSpace(t.Name); t.Name == "" {
			reference := "MANUAL"
			if t.TransactionID != nil {
				reference = *t.TransactionID
			}
			t.Name = models.BankTransferName(t.Date, reference)
		}
		if err := tx.Transfer.Create(ctx, t); err != nil {
			return translate(err, "bank transfer")
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityBankTransfer, t.ID,
			fmt.Sprintf("Bank transfer %s of %s recorded", t.Name, t.Amount.StringFixed(2)))
	})
}

func (s *LedgerService) VerifyBankTransfer(ctx context.Context, actor Actor, id uint) (*models.BankTransfer, error) {
	return s.transferTransition(ctx, actor, id, "VERIFY", func(_ *repository.Repositories, t *models.BankTransfer) error {
		return statemachine.NewBankTransferFSM(t).Verify(ctx)
	})
}

// ReconcileBankTransfer matches a verified transfer against its collection.
// The collection must have been received and carry the same amount.
func (s *LedgerService) ReconcileBankTransfer(ctx context.Context, actor Actor, id uint) (*models.BankTransfer, error) {
	return s.transferTransition(ctx, actor, id, "RECONCILE", func(tx *repository.Repositories, t *models.BankTransfer) error {
		if err := statemachine.NewBankTransferFSM(t).Reconcile(ctx); err != nil {
			return err
		}
		if t.CollectionID == nil {
			return preconditionf("bank transfer %s is not linked to a collection", t.Name)
		}
		collection, err := tx.Collection.FindByID(ctx, *t.CollectionID)
		if err != nil {
			return translate(err, "collection")
		}
		switch collection.Status {
		case models.CollectionStatusCollected, models.CollectionStatusVerified, models.CollectionStatusDeposited:
		default:
			return preconditionf("collection %s is %s", collection.Name, collection.Status)
		}
		if !collection.AmountCollected.Equal(t.Amount) {
			return preconditionf("transfer amount %s does not match collection amount %s",
				t.Amount.StringFixed(2), collection.AmountCollected.StringFixed(2))
		}
		return nil
	})
}

// DeleteBankTransfer removes a transfer that was never reconciled
func (s *LedgerService) DeleteBankTransfer(ctx context.Context, actor Actor, id uint) error {
	transfer, err := s.FindBankTransfer(ctx, id)
	if err != nil {
		return err
	}
	if transfer.Status == models.BankTransferStatusReconciled {
		return fmt.Errorf("%w: reconciled bank transfers cannot be deleted", ErrInvalidState)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Transfer.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityBankTransfer, id,
			fmt.Sprintf("Bank transfer %s deleted", transfer.Name))
	})
}

func (s *LedgerService) transferTransition(ctx context.Context, actor Actor, id uint, action string, step func(*repository.Repositories, *models.BankTransfer) error) (*models.BankTransfer, error) {
	var transfer *models.BankTransfer
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		t, err := tx.Transfer.FindByID(ctx, id)
		if err != nil {
			return translate(err, "bank transfer")
		}
		transfer = t
		before := t.Status
		if err := step(tx, t); err != nil {
			return translate(err, "bank transfer")
		}
		if err := tx.Transfer.Update(ctx, t); err != nil {
			return err
		}
		return s.recordStatus(ctx, tx, actor, models.EntityBankTransfer, t.ID, t.Name, action, before, t.Status)
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (s *LedgerService) recordStatus(ctx context.Context, tx *repository.Repositories, actor Actor, entity string, id uint, name, action, before, after string) error {
	if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(entity, id).Track("status", before, after)); err != nil {
		return err
	}
	return s.audit.Log(ctx, tx, actor, action, entity, id, fmt.Sprintf("%s is now %s", name, after))
}
