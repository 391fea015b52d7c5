package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
	"github.com/sjperalta/rentdesk-api/internal/storage"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// ExpenseService records property costs and runs their approval flow
type ExpenseService struct {
	repos    *repository.Repositories
	audit    *AuditService
	notifier *NotificationService
	storage  *storage.LocalStorage
	worker   *jobs.Worker
	clock    Clock
	currency string
}

func NewExpenseService(
	repos *repository.Repositories,
	audit *AuditService,
	notifier *NotificationService,
	store *storage.LocalStorage,
	worker *jobs.Worker,
	clock Clock,
	currency string,
) *ExpenseService {
	return &ExpenseService{
		repos:    repos,
		audit:    audit,
		notifier: notifier,
		storage:  store,
		worker:   worker,
		clock:    clock,
		currency: currency,
	}
}

func (s *ExpenseService) FindByID(ctx context.Context, id uint) (*models.Expense, error) {
	expense, err := s.repos.Expense.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "expense")
	}
	return expense, nil
}

func (s *ExpenseService) List(ctx context.Context, query *repository.ListQuery) ([]models.Expense, int64, error) {
	return s.repos.Expense.List(ctx, query)
}

func (s *ExpenseService) validate(ctx context.Context, tx *repository.Repositories, e *models.Expense) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return validationf("description is required")
	}
	if !e.Amount.IsPositive() {
		return validationf("amount must be positive")
	}
	if e.ExpenseType == "" {
		e.ExpenseType = "maintenance"
	}
	if !models.ValidExpenseType(e.ExpenseType) {
		return validationf("unknown expense type %q", e.ExpenseType)
	}
	if e.Category == "" {
		e.Category = models.ExpenseCategoryOperational
	}
	if !models.ValidExpenseCategory(e.Category) {
		return validationf("unknown category %q", e.Category)
	}
	if e.Urgency == "" {
		e.Urgency = models.PriorityMedium
	}
	if !models.ValidPriority(e.Urgency) {
		return validationf("unknown urgency %q", e.Urgency)
	}
	if e.PaymentMethod == "" {
		e.PaymentMethod = models.PaymentMethodCash
	}
	if !models.ValidPaymentMethod(e.PaymentMethod) {
		return validationf("unknown payment method %q", e.PaymentMethod)
	}
	if e.Currency == "" {
		e.Currency = s.currency
	}
	if e.Date.IsZero() {
		e.Date = s.clock.Today()
	}
	e.Date = models.DateOf(e.Date)

	// room implies flat implies property
	if e.RoomID != nil {
		room, err := tx.Room.FindByID(ctx, *e.RoomID)
		if err != nil {
			return translate(err, "room")
		}
		flatID := room.FlatID
		e.FlatID = &flatID
		e.PropertyID = room.PropertyID
	} else if e.FlatID != nil {
		flat, err := tx.Flat.FindByID(ctx, *e.FlatID)
		if err != nil {
			return translate(err, "flat")
		}
		e.PropertyID = flat.PropertyID
	}
	if e.PropertyID == 0 {
		return validationf("property is required")
	}
	if _, err := tx.Property.FindByID(ctx, e.PropertyID); err != nil {
		return translate(err, "property")
	}
	return nil
}

// Create stores a draft expense
func (s *ExpenseService) Create(ctx context.Context, actor Actor, expense *models.Expense) error {
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		expense.ID = 0
		expense.State = models.ExpenseStateDraft
		expense.ApprovedByID = nil
		expense.ApprovalDate = nil
		expense.PaidAt = nil
		if err := s.validate(ctx, tx, expense); err != nil {
			return err
		}
		if err := tx.Expense.Create(ctx, expense); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityExpense, expense.ID,
			fmt.Sprintf("Expense %s of %s recorded", expense.Name, expense.Amount.StringFixed(2)))
	})
}

// Update edits a draft expense
func (s *ExpenseService) Update(ctx context.Context, actor Actor, input *models.Expense) (*models.Expense, error) {
	var expense *models.Expense
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Expense.FindByID(ctx, input.ID)
		if err != nil {
			return translate(err, "expense")
		}
		if !current.IsEditable() {
			return fmt.Errorf("%w: expense is %s", ErrInvalidState, current.State)
		}
		before := *current

		current.Name = input.Name
		current.PropertyID = input.PropertyID
		current.FlatID = input.FlatID
		current.RoomID = input.RoomID
		current.ExpenseType = input.ExpenseType
		current.Category = input.Category
		current.Urgency = input.Urgency
		current.Date = input.Date
		current.Amount = input.Amount
		current.PaymentMethod = input.PaymentMethod
		current.ReferenceNumber = input.ReferenceNumber
		current.Vendor = input.Vendor
		current.Notes = input.Notes

		if err := s.validate(ctx, tx, current); err != nil {
			return err
		}
		if err := tx.Expense.Update(ctx, current); err != nil {
			return err
		}
		expense = current
		return s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityExpense, current.ID).
			Track("amount", before.Amount, current.Amount).
			Track("expense_type", before.ExpenseType, current.ExpenseType).
			Track("vendor", before.Vendor, current.Vendor))
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// Delete removes a draft or rejected expense
func (s *ExpenseService) Delete(ctx context.Context, actor Actor, id uint) error {
	expense, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if expense.State != models.ExpenseStateDraft && expense.State != models.ExpenseStateRejected {
		return fmt.Errorf("%w: only draft or rejected expenses can be deleted", ErrInvalidState)
	}
	if err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Expense.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityExpense, id, fmt.Sprintf("Expense %s deleted", expense.Name))
	}); err != nil {
		return err
	}
	if expense.BillPath != nil {
		_ = s.storage.Delete(*expense.BillPath)
	}
	return nil
}

// Submit sends a draft for approval and tells the admins
func (s *ExpenseService) Submit(ctx context.Context, actor Actor, id uint) (*models.Expense, error) {
	expense, err := s.transition(ctx, actor, id, "SUBMIT", func(e *models.Expense) error {
		if err := statemachine.NewExpenseFSM(e).Submit(ctx); err != nil {
			return err
		}
		e.SubmittedByID = actor.userRef()
		return nil
	})
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("%s: %s %s awaits approval", expense.Name, expense.Amount.StringFixed(2), expense.Currency)
	dispatch(s.worker, func(ctx context.Context) error {
		if err := s.notifier.NotifyAdmins(ctx, "Expense submitted", message, models.NotificationTypeExpenseSubmitted); err != nil {
			logger.Error("Failed to notify expense submission", "expense_id", expense.ID, "error", err)
			return err
		}
		return nil
	})
	return expense, nil
}

// Approve records the approver and approval date
func (s *ExpenseService) Approve(ctx context.Context, actor Actor, id uint) (*models.Expense, error) {
	return s.transition(ctx, actor, id, "APPROVE", func(e *models.Expense) error {
		if err := statemachine.NewExpenseFSM(e).Approve(ctx); err != nil {
			return err
		}
		now := s.clock().UTC()
		e.ApprovedByID = actor.userRef()
		e.ApprovalDate = &now
		return nil
	})
}

// Reject sends a submitted expense back with a reason
func (s *ExpenseService) Reject(ctx context.Context, actor Actor, id uint, reason string) (*models.Expense, error) {
	return s.transition(ctx, actor, id, "REJECT", func(e *models.Expense) error {
		if err := statemachine.NewExpenseFSM(e).Reject(ctx); err != nil {
			return err
		}
		if reason = strings.TrimSpace(reason); reason != "" {
			e.RejectionReason = &reason
		}
		return nil
	})
}

// Pay marks an approved expense as paid
func (s *ExpenseService) Pay(ctx context.Context, actor Actor, id uint) (*models.Expense, error) {
	return s.transition(ctx, actor, id, "PAY", func(e *models.Expense) error {
		if err := statemachine.NewExpenseFSM(e).Pay(ctx); err != nil {
			return err
		}
		now := s.clock().UTC()
		e.PaidByID = actor.userRef()
		e.PaidAt = &now
		return nil
	})
}

// ResetToDraft reopens a rejected expense
func (s *ExpenseService) ResetToDraft(ctx context.Context, actor Actor, id uint) (*models.Expense, error) {
	return s.transition(ctx, actor, id, "RESET", func(e *models.Expense) error {
		if err := statemachine.NewExpenseFSM(e).ResetToDraft(ctx); err != nil {
			return err
		}
		e.ApprovedByID = nil
		e.ApprovalDate = nil
		return nil
	})
}

// CreateBillReference stamps "BILL/{vendor}/{date}" on the expense
func (s *ExpenseService) CreateBillReference(ctx context.Context, actor Actor, id uint) (*models.Expense, error) {
	return s.transition(ctx, actor, id, "BILL_REFERENCE", func(e *models.Expense) error {
		if e.Vendor == nil || strings.TrimSpace(*e.Vendor) == "" {
			return preconditionf("vendor is required to create a bill reference")
		}
		ref := models.BillReferenceFor(strings.TrimSpace(*e.Vendor), e.Date)
		e.BillReference = &ref
		return nil
	})
}

// UploadBill attaches the scanned bill
func (s *ExpenseService) UploadBill(ctx context.Context, actor Actor, id uint, file multipart.File, header *multipart.FileHeader) (*models.Expense, error) {
	expense, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	path, err := s.storage.Upload(file, header, storage.DirExpenseBills)
	if err != nil {
		return nil, validationf("%v", err)
	}
	old := expense.BillPath
	expense.BillPath = &path
	if err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Expense.Update(ctx, expense); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "UPLOAD", models.EntityExpense, expense.ID, "Bill uploaded")
	}); err != nil {
		_ = s.storage.Delete(path)
		return nil, err
	}
	if old != nil {
		_ = s.storage.Delete(*old)
	}
	return expense, nil
}

// BillPath returns the stored bill of the expense
func (s *ExpenseService) BillPath(ctx context.Context, id uint) (string, error) {
	expense, err := s.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if expense.BillPath == nil || !s.storage.Exists(*expense.BillPath) {
		return "", fmt.Errorf("%w: bill", ErrNotFound)
	}
	return s.storage.GetFullPath(*expense.BillPath), nil
}

func (s *ExpenseService) transition(ctx context.Context, actor Actor, id uint, action string, step func(*models.Expense) error) (*models.Expense, error) {
	var expense *models.Expense
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		e, err := tx.Expense.FindByID(ctx, id)
		if err != nil {
			return translate(err, "expense")
		}
		expense = e
		before := e.State
		if err := step(e); err != nil {
			return translate(err, "expense")
		}
		if err := tx.Expense.Update(ctx, e); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityExpense, e.ID).
			Track("state", before, e.State)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, action, models.EntityExpense, e.ID,
			fmt.Sprintf("Expense %s is %s", e.Name, e.State))
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}
