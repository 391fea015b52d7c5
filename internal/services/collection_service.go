package services

import (
	"context"
	"fmt"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
)

// CollectionService records cash received from tenants and walks it to the bank
type CollectionService struct {
	repos    *repository.Repositories
	audit    *AuditService
	clock    Clock
	currency string
}

func NewCollectionService(repos *repository.Repositories, audit *AuditService, clock Clock, currency string) *CollectionService {
	return &CollectionService{repos: repos, audit: audit, clock: clock, currency: currency}
}

func (s *CollectionService) FindByID(ctx context.Context, id uint) (*models.Collection, error) {
	collection, err := s.repos.Collection.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "collection")
	}
	return collection, nil
}

func (s *CollectionService) List(ctx context.Context, query *repository.ListQuery) ([]models.Collection, int64, error) {
	return s.repos.Collection.List(ctx, query)
}

func (s *CollectionService) prepare(ctx context.Context, tx *repository.Repositories, c *models.Collection) error {
	if !c.AmountCollected.IsPositive() {
		return validationf("collected amount must be greater than zero")
	}
	if c.LateFee.IsNegative() {
		return validationf("late fee cannot be negative")
	}
	if c.CollectionType == "" {
		c.CollectionType = models.CollectionTypeRent
	}
	if !models.ValidCollectionType(c.CollectionType) {
		return validationf("unknown collection type %q", c.CollectionType)
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = models.PaymentMethodCash
	}
	if !models.ValidPaymentMethod(c.PaymentMethod) {
		return validationf("unknown payment method %q", c.PaymentMethod)
	}
	if c.Date.IsZero() {
		c.Date = s.clock.Today()
	}
	c.Date = models.DateOf(c.Date)
	if c.PeriodFrom != nil && c.PeriodTo != nil && c.PeriodTo.Before(*c.PeriodFrom) {
		return validationf("period end cannot be before period start")
	}

	if c.AgreementID != nil {
		agreement, err := tx.Agreement.FindByID(ctx, *c.AgreementID)
		if err != nil {
			return translate(err, "agreement")
		}
		c.TenantID = agreement.TenantID
		c.RoomID = agreement.RoomID
		if c.Currency == "" {
			c.Currency = agreement.Currency
		}
	}
	if c.RoomID == 0 {
		return validationf("room is required")
	}
	room, err := tx.Room.FindByID(ctx, c.RoomID)
	if err != nil {
		return translate(err, "room")
	}
	tenant, err := tx.Tenant.FindByID(ctx, c.TenantID)
	if err != nil {
		return translate(err, "tenant")
	}
	c.PropertyID = room.PropertyID
	if c.Currency == "" {
		c.Currency = s.currency
	}
	c.Name = models.CollectionName(c.Date, tenant.Name, room.RoomNumber)
	c.Tenant = *tenant
	c.Room = *room
	return nil
}

// Create stores a draft collection
func (s *CollectionService) Create(ctx context.Context, actor Actor, collection *models.Collection) error {
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		return s.createWithin(ctx, tx, actor, collection)
	})
}

func (s *CollectionService) createWithin(ctx context.Context, tx *repository.Repositories, actor Actor, c *models.Collection) error {
	c.ID = 0
	c.Status = models.CollectionStatusDraft
	c.VerifiedByID = nil
	c.VerificationDate = nil
	if err := s.prepare(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Collection.Create(ctx, c); err != nil {
		return translate(err, "collection")
	}
	return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityCollection, c.ID,
		fmt.Sprintf("Collection %s of %s %s recorded", c.Name, c.AmountCollected.StringFixed(2), c.Currency))
}

// Update edits a draft collection
func (s *CollectionService) Update(ctx context.Context, actor Actor, input *models.Collection) (*models.Collection, error) {
	var collection *models.Collection
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Collection.FindByID(ctx, input.ID)
		if err != nil {
			return translate(err, "collection")
		}
		if !current.IsEditable() {
			return fmt.Errorf("%w: collection is %s", ErrInvalidState, current.Status)
		}
		before := *current

		current.TenantID = input.TenantID
		current.RoomID = input.RoomID
		current.AgreementID = input.AgreementID
		current.InvoiceID = input.InvoiceID
		current.CollectionType = input.CollectionType
		current.Date = input.Date
		current.DueDate = input.DueDate
		current.PeriodFrom = input.PeriodFrom
		current.PeriodTo = input.PeriodTo
		current.AmountCollected = input.AmountCollected
		current.LateFee = input.LateFee
		current.PaymentMethod = input.PaymentMethod
		current.ReferenceNumber = input.ReferenceNumber
		current.Notes = input.Notes

		if err := s.prepare(ctx, tx, current); err != nil {
			return err
		}
		if err := tx.Collection.Update(ctx, current); err != nil {
			return err
		}
		collection = current
		return s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityCollection, current.ID).
			Track("amount_collected", before.AmountCollected, current.AmountCollected).
			Track("date", before.Date, current.Date).
			Track("payment_method", before.PaymentMethod, current.PaymentMethod))
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

// Delete removes a draft or cancelled collection
func (s *CollectionService) Delete(ctx context.Context, actor Actor, id uint) error {
	collection, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if collection.Status != models.CollectionStatusDraft && collection.Status != models.CollectionStatusCancelled {
		return fmt.Errorf("%w: only draft or cancelled collections can be deleted", ErrInvalidState)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Collection.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityCollection, id, fmt.Sprintf("Collection %s deleted", collection.Name))
	})
}

// Collect confirms the cash was received and assigns a receipt number
func (s *CollectionService) Collect(ctx context.Context, actor Actor, id uint) (*models.Collection, error) {
	return s.transition(ctx, id, func(tx *repository.Repositories, c *models.Collection) error {
		return s.collectWithin(ctx, tx, actor, c)
	})
}

func (s *CollectionService) collectWithin(ctx context.Context, tx *repository.Repositories, actor Actor, c *models.Collection) error {
	if err := statemachine.NewCollectionFSM(c).Collect(ctx); err != nil {
		return translate(err, "collection")
	}
	if c.ReceiptNumber == nil || *c.ReceiptNumber == "" {
		receipt, err := tx.Sequence.Next(ctx, models.SequenceReceipt, c.Date.Year())
		if err != nil {
			return err
		}
		c.ReceiptNumber = &receipt
	}
	if c.CollectedByID == nil {
		c.CollectedByID = actor.userRef()
	}
	return s.save(ctx, tx, actor, c, models.CollectionStatusDraft, "COLLECT")
}

// Verify records the supervisor check of a collected amount
func (s *CollectionService) Verify(ctx context.Context, actor Actor, id uint) (*models.Collection, error) {
	return s.transition(ctx, id, func(tx *repository.Repositories, c *models.Collection) error {
		if err := statemachine.NewCollectionFSM(c).Verify(ctx); err != nil {
			return translate(err, "collection")
		}
		now := s.clock().UTC()
		c.VerifiedByID = actor.userRef()
		c.VerificationDate = &now
		return s.save(ctx, tx, actor, c, models.CollectionStatusCollected, "VERIFY")
	})
}

// Deposit marks a verified collection as banked
func (s *CollectionService) Deposit(ctx context.Context, actor Actor, id uint) (*models.Collection, error) {
	return s.transition(ctx, id, func(tx *repository.Repositories, c *models.Collection) error {
		if err := statemachine.NewCollectionFSM(c).Deposit(ctx); err != nil {
			return translate(err, "collection")
		}
		return s.save(ctx, tx, actor, c, models.CollectionStatusVerified, "DEPOSIT")
	})
}

// Cancel voids a collection that has not been deposited yet
func (s *CollectionService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Collection, error) {
	return s.transition(ctx, id, func(tx *repository.Repositories, c *models.Collection) error {
		return s.cancelWithin(ctx, tx, actor, c)
	})
}

func (s *CollectionService) cancelWithin(ctx context.Context, tx *repository.Repositories, actor Actor, c *models.Collection) error {
	before := c.Status
	if err := statemachine.NewCollectionFSM(c).Cancel(ctx); err != nil {
		return translate(err, "collection")
	}
	return s.save(ctx, tx, actor, c, before, "CANCEL")
}

func (s *CollectionService) transition(ctx context.Context, id uint, step func(*repository.Repositories, *models.Collection) error) (*models.Collection, error) {
	var collection *models.Collection
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		c, err := tx.Collection.FindByID(ctx, id)
		if err != nil {
			return translate(err, "collection")
		}
		collection = c
		return step(tx, c)
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) save(ctx context.Context, tx *repository.Repositories, actor Actor, c *models.Collection, before, action string) error {
	if err := tx.Collection.Update(ctx, c); err != nil {
		return translate(err, "collection")
	}
	if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityCollection, c.ID).
		Track("status", before, c.Status)); err != nil {
		return err
	}
	return s.audit.Log(ctx, tx, actor, action, models.EntityCollection, c.ID,
		fmt.Sprintf("Collection %s is now %s", c.Name, c.Status))
}
