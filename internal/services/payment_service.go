package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// PaymentService handles payments against invoices and the register-payment flow
type PaymentService struct {
	repos       *repository.Repositories
	audit       *AuditService
	invoices    *InvoiceService
	collections *CollectionService
	notifier    *NotificationService
	worker      *jobs.Worker
	clock       Clock
}

func NewPaymentService(
	repos *repository.Repositories,
	audit *AuditService,
	invoices *InvoiceService,
	collections *CollectionService,
	notifier *NotificationService,
	worker *jobs.Worker,
	clock Clock,
) *PaymentService {
	return &PaymentService{
		repos:       repos,
		audit:       audit,
		invoices:    invoices,
		collections: collections,
		notifier:    notifier,
		worker:      worker,
		clock:       clock,
	}
}

// RegisterPaymentInput carries the register-payment form
type RegisterPaymentInput struct {
	Amount        decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod string
	Reference     *string
	Notes         *string
}

func (s *PaymentService) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.repos.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "payment")
	}
	return payment, nil
}

func (s *PaymentService) List(ctx context.Context, query *repository.ListQuery) ([]models.Payment, int64, error) {
	return s.repos.Payment.List(ctx, query)
}

func (s *PaymentService) validate(invoice *models.Invoice, in *RegisterPaymentInput) error {
	if !in.Amount.IsPositive() {
		return validationf("payment amount must be positive")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentMethodCash
	}
	if !models.ValidPaymentMethod(in.PaymentMethod) {
		return validationf("unknown payment method %q", in.PaymentMethod)
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = s.clock.Today()
	}
	in.PaymentDate = models.DateOf(in.PaymentDate)
	if !invoice.AcceptsPayments() {
		return preconditionf("invoice %s is %s and does not accept payments", invoice.Name, invoice.State)
	}
	if in.Amount.GreaterThan(invoice.AmountResidual) {
		return validationf("amount %s exceeds the outstanding %s",
			in.Amount.StringFixed(2), invoice.AmountResidual.StringFixed(2))
	}
	return nil
}

// Create records a draft payment for a posted invoice
func (s *PaymentService) Create(ctx context.Context, actor Actor, invoiceID uint, in RegisterPaymentInput) (*models.Payment, error) {
	var payment *models.Payment
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		invoice, err := tx.Invoice.FindByID(ctx, invoiceID)
		if err != nil {
			return translate(err, "invoice")
		}
		if err := s.validate(invoice, &in); err != nil {
			return err
		}
		payment, err = s.newPayment(ctx, tx, invoice, in)
		if err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityPayment, payment.ID,
			fmt.Sprintf("Payment %s of %s drafted for invoice %s", payment.Name, payment.Amount.StringFixed(2), invoice.Name))
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) newPayment(ctx context.Context, tx *repository.Repositories, invoice *models.Invoice, in RegisterPaymentInput) (*models.Payment, error) {
	name, err := tx.Sequence.Next(ctx, models.SequencePayment, in.PaymentDate.Year())
	if err != nil {
		return nil, err
	}
	payment := &models.Payment{
		Name:          name,
		InvoiceID:     invoice.ID,
		TenantID:      invoice.TenantID,
		Amount:        in.Amount,
		PaymentDate:   in.PaymentDate,
		PaymentMethod: in.PaymentMethod,
		Reference:     in.Reference,
		State:         models.PaymentStateDraft,
	}
	if err := tx.Payment.Create(ctx, payment); err != nil {
		return nil, translate(err, "payment")
	}
	return payment, nil
}

// Post counts a draft payment towards its invoice
func (s *PaymentService) Post(ctx context.Context, actor Actor, id uint) (*models.Payment, error) {
	var payment *models.Payment
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		p, err := tx.Payment.FindByID(ctx, id)
		if err != nil {
			return translate(err, "payment")
		}
		payment = p
		invoice, err := tx.Invoice.FindByID(ctx, p.InvoiceID)
		if err != nil {
			return translate(err, "invoice")
		}
		if !invoice.AcceptsPayments() {
			return preconditionf("invoice %s is %s and does not accept payments", invoice.Name, invoice.State)
		}
		return s.postWithin(ctx, tx, actor, p)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) postWithin(ctx context.Context, tx *repository.Repositories, actor Actor, p *models.Payment) error {
	if err := statemachine.NewPaymentFSM(p).Post(ctx); err != nil {
		return translate(err, "payment")
	}
	if err := s.checkOutstanding(ctx, tx, p); err != nil {
		return err
	}
	now := s.clock().UTC()
	p.PostedAt = &now
	p.PostedByID = actor.userRef()
	if err := tx.Payment.Update(ctx, p); err != nil {
		return err
	}
	if _, err := s.invoices.RecomputePaid(ctx, tx, actor, p.InvoiceID); err != nil {
		return err
	}
	if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityPayment, p.ID).
		Track("state", models.PaymentStateDraft, p.State)); err != nil {
		return err
	}
	return s.audit.Log(ctx, tx, actor, "POST", models.EntityPayment, p.ID,
		fmt.Sprintf("Payment %s posted", p.Name))
}

// checkOutstanding refuses a post that would take the invoice past its total
func (s *PaymentService) checkOutstanding(ctx context.Context, tx *repository.Repositories, p *models.Payment) error {
	invoice, err := tx.Invoice.FindByID(ctx, p.InvoiceID)
	if err != nil {
		return translate(err, "invoice")
	}
	counted, err := tx.Payment.SumCounted(ctx, p.InvoiceID)
	if err != nil {
		return err
	}
	if counted.Add(p.Amount).GreaterThan(invoice.AmountTotal) {
		return validationf("payment %s of %s exceeds the outstanding %s on invoice %s",
			p.Name, p.Amount.StringFixed(2), invoice.AmountTotal.Sub(counted).StringFixed(2), invoice.Name)
	}
	return nil
}

// Cancel voids a draft or posted payment, its open collection, and recomputes the invoice
func (s *PaymentService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Payment, error) {
	var payment *models.Payment
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		p, err := tx.Payment.FindByID(ctx, id)
		if err != nil {
			return translate(err, "payment")
		}
		payment = p
		before := p.State
		if err := statemachine.NewPaymentFSM(p).Cancel(ctx); err != nil {
			return translate(err, "payment")
		}
		if err := tx.Payment.Update(ctx, p); err != nil {
			return err
		}
		if p.CollectionID != nil {
			collection, err := tx.Collection.FindByID(ctx, *p.CollectionID)
			if err != nil && !repository.IsNotFound(err) {
				return err
			}
			if collection != nil && collection.MayCancel() {
				if err := s.collections.cancelWithin(ctx, tx, actor, collection); err != nil {
					return err
				}
			}
		}
		if _, err := s.invoices.RecomputePaid(ctx, tx, actor, p.InvoiceID); err != nil {
			return err
		}
		return s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityPayment, p.ID).
			Track("state", before, p.State))
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Reconcile marks a posted payment as matched with the bank
func (s *PaymentService) Reconcile(ctx context.Context, actor Actor, id uint) (*models.Payment, error) {
	return s.transition(ctx, actor, id, "RECONCILE", func(ctx context.Context, f *statemachine.PaymentFSM) error {
		return f.Reconcile(ctx)
	})
}

// ResetToDraft reopens a cancelled payment
func (s *PaymentService) ResetToDraft(ctx context.Context, actor Actor, id uint) (*models.Payment, error) {
	return s.transition(ctx, actor, id, "RESET", func(ctx context.Context, f *statemachine.PaymentFSM) error {
		return f.ResetToDraft(ctx)
	})
}

func (s *PaymentService) transition(ctx context.Context, actor Actor, id uint, action string, event func(context.Context, *statemachine.PaymentFSM) error) (*models.Payment, error) {
	var payment *models.Payment
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		p, err := tx.Payment.FindByID(ctx, id)
		if err != nil {
			return translate(err, "payment")
		}
		payment = p
		before := p.State
		if err := event(ctx, statemachine.NewPaymentFSM(p)); err != nil {
			return translate(err, "payment")
		}
		if err := tx.Payment.Update(ctx, p); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityPayment, p.ID).
			Track("state", before, p.State)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, action, models.EntityPayment, p.ID,
			fmt.Sprintf("Payment %s moved from %s to %s", p.Name, before, p.State))
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// RegisterPayment creates and posts a payment, then records the matching collected
// collection with a receipt number, all in one transaction
func (s *PaymentService) RegisterPayment(ctx context.Context, actor Actor, invoiceID uint, in RegisterPaymentInput) (*models.Payment, *models.Collection, error) {
	var (
		payment    *models.Payment
		collection *models.Collection
		invoice    *models.Invoice
	)
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		var err error
		invoice, err = tx.Invoice.FindByID(ctx, invoiceID)
		if err != nil {
			return translate(err, "invoice")
		}
		if err := s.validate(invoice, &in); err != nil {
			return err
		}
		if invoice.RoomID == nil {
			return preconditionf("invoice %s is not linked to a room", invoice.Name)
		}

		payment, err = s.newPayment(ctx, tx, invoice, in)
		if err != nil {
			return err
		}
		if err := s.postWithin(ctx, tx, actor, payment); err != nil {
			return err
		}

		collection = &models.Collection{
			TenantID:        invoice.TenantID,
			RoomID:          *invoice.RoomID,
			AgreementID:     invoice.AgreementID,
			InvoiceID:       &invoice.ID,
			CollectionType:  models.CollectionTypeForInvoice(invoice.InvoiceType),
			Date:            in.PaymentDate,
			DueDate:         &invoice.DueDate,
			PeriodFrom:      invoice.PeriodFrom,
			PeriodTo:        invoice.PeriodTo,
			AmountCollected: in.Amount,
			Currency:        invoice.Currency,
			PaymentMethod:   in.PaymentMethod,
			ReferenceNumber: in.Reference,
			Notes:           in.Notes,
		}
		if err := s.collections.createWithin(ctx, tx, actor, collection); err != nil {
			return err
		}
		if err := s.collections.collectWithin(ctx, tx, actor, collection); err != nil {
			return err
		}

		payment.CollectionID = &collection.ID
		return tx.Payment.Update(ctx, payment)
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifyReceived(invoice, payment)
	return payment, collection, nil
}

func (s *PaymentService) notifyReceived(invoice *models.Invoice, payment *models.Payment) {
	title := "Payment registered"
	message := fmt.Sprintf("%s paid %s %s on invoice %s",
		invoice.Tenant.Name, payment.Amount.StringFixed(2), invoice.Currency, invoice.Name)

	dispatch(s.worker, func(ctx context.Context) error {
		var managerID *uint
		if invoice.PropertyID != nil {
			if property, err := s.repos.Property.FindByID(ctx, *invoice.PropertyID); err == nil {
				managerID = property.ManagerID
			}
		}
		if err := s.notifier.NotifyManagerOrAdmins(ctx, managerID, title, message, models.NotificationTypePaymentRegistered); err != nil {
			logger.Error("Failed to notify payment", "payment", payment.Name, "error", err)
			return err
		}
		return nil
	})
}
