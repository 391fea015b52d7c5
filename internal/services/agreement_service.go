package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/jobs"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/sjperalta/rentdesk-api/internal/repository"
	"github.com/sjperalta/rentdesk-api/internal/statemachine"
	"github.com/sjperalta/rentdesk-api/pkg/logger"
)

// AgreementService runs the rental agreement lifecycle
type AgreementService struct {
	repos    *repository.Repositories
	audit    *AuditService
	notifier *NotificationService
	worker   *jobs.Worker
	clock    Clock
	currency string
}

func NewAgreementService(repos *repository.Repositories, audit *AuditService, notifier *NotificationService, worker *jobs.Worker, clock Clock, currency string) *AgreementService {
	return &AgreementService{
		repos:    repos,
		audit:    audit,
		notifier: notifier,
		worker:   worker,
		clock:    clock,
		currency: currency,
	}
}

func (s *AgreementService) FindByID(ctx context.Context, id uint) (*models.Agreement, error) {
	agreement, err := s.repos.Agreement.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "agreement")
	}
	return agreement, nil
}

func (s *AgreementService) List(ctx context.Context, query *repository.ListQuery) ([]models.Agreement, int64, error) {
	return s.repos.Agreement.List(ctx, query)
}

// Response renders the agreement with its collection-derived figures
func (s *AgreementService) Response(ctx context.Context, agreement *models.Agreement) (models.AgreementResponse, error) {
	stats := &models.AgreementStats{TotalCollected: decimal.Zero}
	if agreement.ID != 0 {
		var err error
		if stats, err = s.repos.Agreement.Stats(ctx, agreement.ID); err != nil {
			return models.AgreementResponse{}, err
		}
	}
	return agreement.ToResponse(s.clock.Today(), *stats), nil
}

// prepare fills room-derived fields and defaults, then checks every write invariant
func (s *AgreementService) prepare(ctx context.Context, repos *repository.Repositories, a *models.Agreement) error {
	tenant, err := repos.Tenant.FindByID(ctx, a.TenantID)
	if err != nil {
		return translate(err, "tenant")
	}
	if tenant.Status == models.TenantStatusBlacklisted {
		return preconditionf("tenant %s is blacklisted", tenant.Name)
	}
	room, err := repos.Room.FindByID(ctx, a.RoomID)
	if err != nil {
		return translate(err, "room")
	}
	a.FlatID = room.FlatID
	a.PropertyID = room.PropertyID
	a.Tenant = *tenant
	a.Room = *room

	a.StartDate = models.DateOf(a.StartDate)
	a.EndDate = models.DateOf(a.EndDate)
	a.RentAmount, a.DepositAmount = roomRent(room, a.RentAmount, a.DepositAmount)

	if a.AgreementType == "" {
		a.AgreementType = models.AgreementTypeMonthly
	}
	if a.PaymentFrequency == "" {
		a.PaymentFrequency = models.FrequencyMonthly
	}
	if a.PaymentMethod == "" {
		a.PaymentMethod = tenant.PaymentMethod
	}
	if a.Currency == "" {
		a.Currency = s.currency
	}
	if a.PaymentDay == 0 {
		a.PaymentDay = 1
	}
	if a.InvoiceDay == 0 {
		a.InvoiceDay = 1
	}
	if a.NoticePeriodDays == 0 {
		a.NoticePeriodDays = 30
	}
	if a.PaymentTermsDays == 0 {
		a.PaymentTermsDays = 30
	}

	if err := validateAgreementTerms(a); err != nil {
		return err
	}
	return checkOverlap(ctx, repos, a)
}

func validateAgreementTerms(a *models.Agreement) error {
	if a.StartDate.IsZero() || a.EndDate.IsZero() {
		return validationf("start and end dates are required")
	}
	if !a.DatesValid() {
		return validationf("end date %s must be after start date %s",
			a.EndDate.Format(models.DateLayout), a.StartDate.Format(models.DateLayout))
	}
	if !a.RentAmount.IsPositive() {
		return validationf("rent amount must be positive")
	}
	for name, v := range map[string]decimal.Decimal{
		"deposit":       a.DepositAmount,
		"token":         a.TokenAmount,
		"extra charges": a.ExtraCharges,
	} {
		if v.IsNegative() {
			return validationf("%s amount cannot be negative", name)
		}
	}
	if !models.ValidFrequency(a.PaymentFrequency) {
		return validationf("unknown payment frequency %q", a.PaymentFrequency)
	}
	switch a.AgreementType {
	case models.AgreementTypeMonthly, models.AgreementTypeYearly, models.AgreementTypeFixed:
	default:
		return validationf("unknown agreement type %q", a.AgreementType)
	}
	if !models.ValidPaymentMethod(a.PaymentMethod) {
		return validationf("unknown payment method %q", a.PaymentMethod)
	}
	if a.PaymentDay < 1 || a.PaymentDay > 31 {
		return validationf("payment day must be between 1 and 31")
	}
	if a.InvoiceDay < 1 || a.InvoiceDay > 31 {
		return validationf("invoice day must be between 1 and 31")
	}
	if a.PaymentTermsDays < 0 || a.NoticePeriodDays < 0 || a.AdvanceInvoiceDays < 0 {
		return validationf("day counts cannot be negative")
	}
	return nil
}

// checkOverlap rejects a range intersecting another draft or active agreement on the same room
func checkOverlap(ctx context.Context, repos *repository.Repositories, a *models.Agreement) error {
	conflicts, err := repos.Agreement.FindOverlapping(ctx, a.RoomID, a.StartDate, a.EndDate, a.ID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		c := conflicts[0]
		return validationf("room is already booked from %s to %s by agreement %s",
			c.StartDate.Format(models.DateLayout), c.EndDate.Format(models.DateLayout), c.Name)
	}
	return nil
}

// Create saves a draft agreement
func (s *AgreementService) Create(ctx context.Context, actor Actor, agreement *models.Agreement) error {
	agreement.ID = 0
	agreement.State = models.AgreementStateDraft
	agreement.ActivatedAt = nil
	agreement.TerminatedAt = nil
	agreement.CreatedByID = actor.userRef()

	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := s.prepare(ctx, tx, agreement); err != nil {
			return err
		}
		agreement.Name = models.AgreementName(agreement.Tenant.Name, agreement.Room.Name, agreement.StartDate)
		if err := tx.Agreement.Create(ctx, agreement); err != nil {
			return translate(err, "agreement")
		}
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityAgreement, agreement.ID,
			fmt.Sprintf("Agreement %s created", agreement.Name))
	})
}

// Update rewrites the terms of a draft or active agreement. Tenant and room are fixed once active.
func (s *AgreementService) Update(ctx context.Context, actor Actor, input *models.Agreement) (*models.Agreement, error) {
	var agreement *models.Agreement
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Agreement.FindByID(ctx, input.ID)
		if err != nil {
			return translate(err, "agreement")
		}
		if !current.IsEditable() {
			return fmt.Errorf("%w: agreement is %s", ErrInvalidState, current.State)
		}
		if current.State == models.AgreementStateActive &&
			(input.TenantID != current.TenantID || input.RoomID != current.RoomID) {
			return preconditionf("tenant and room cannot change on an active agreement")
		}
		before := *current

		current.TenantID = input.TenantID
		current.RoomID = input.RoomID
		current.AgreementType = input.AgreementType
		current.StartDate = input.StartDate
		current.EndDate = input.EndDate
		current.NoticePeriodDays = input.NoticePeriodDays
		current.RentAmount = input.RentAmount
		current.DepositAmount = input.DepositAmount
		current.TokenAmount = input.TokenAmount
		current.ExtraCharges = input.ExtraCharges
		current.PaymentFrequency = input.PaymentFrequency
		current.PaymentDay = input.PaymentDay
		current.PaymentTermsDays = input.PaymentTermsDays
		current.PaymentMethod = input.PaymentMethod
		current.AutoGenerateInvoices = input.AutoGenerateInvoices
		current.AutoPostInvoices = input.AutoPostInvoices
		current.InvoiceDay = input.InvoiceDay
		current.AdvanceInvoiceDays = input.AdvanceInvoiceDays
		current.ElectricityIncluded = input.ElectricityIncluded
		current.WaterIncluded = input.WaterIncluded
		current.InternetIncluded = input.InternetIncluded
		current.Notes = input.Notes

		if err := s.prepare(ctx, tx, current); err != nil {
			return err
		}
		if current.State == models.AgreementStateDraft {
			current.Name = models.AgreementName(current.Tenant.Name, current.Room.Name, current.StartDate)
		}
		if err := tx.Agreement.Update(ctx, current); err != nil {
			return translate(err, "agreement")
		}
		agreement = current

		return s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityAgreement, current.ID).
			Track("tenant_id", before.TenantID, current.TenantID).
			Track("room_id", before.RoomID, current.RoomID).
			Track("start_date", before.StartDate, current.StartDate).
			Track("end_date", before.EndDate, current.EndDate).
			Track("rent_amount", before.RentAmount, current.RentAmount).
			Track("deposit_amount", before.DepositAmount, current.DepositAmount).
			Track("payment_frequency", before.PaymentFrequency, current.PaymentFrequency).
			Track("payment_day", before.PaymentDay, current.PaymentDay).
			Track("invoice_day", before.InvoiceDay, current.InvoiceDay))
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

// Delete removes a draft or cancelled agreement
func (s *AgreementService) Delete(ctx context.Context, actor Actor, id uint) error {
	agreement, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if agreement.State != models.AgreementStateDraft && agreement.State != models.AgreementStateCancelled {
		return fmt.Errorf("%w: only draft or cancelled agreements can be deleted", ErrInvalidState)
	}
	return s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Agreement.Delete(ctx, id); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "DELETE", models.EntityAgreement, id, fmt.Sprintf("Agreement %s deleted", agreement.Name))
	})
}

// Activate occupies the room, activates the tenant and opens a held deposit in one transaction
func (s *AgreementService) Activate(ctx context.Context, actor Actor, id uint) (*models.Agreement, error) {
	var agreement *models.Agreement
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		a, err := tx.Agreement.FindByID(ctx, id)
		if err != nil {
			return translate(err, "agreement")
		}
		agreement = a
		if !a.MayActivate() {
			return fmt.Errorf("%w: agreement is %s", ErrInvalidState, a.State)
		}
		if err := s.prepare(ctx, tx, a); err != nil {
			return err
		}

		room := &a.Room
		if room.Status == models.RoomStatusOccupied &&
			(room.CurrentAgreementID == nil || *room.CurrentAgreementID != a.ID) {
			return validationf("room %s is already occupied", room.Name)
		}
		tenant := &a.Tenant
		roomBefore, tenantBefore := room.Status, tenant.Status

		if err := statemachine.NewRoomFSM(room).Occupy(ctx, tenant.ID, a.ID); err != nil {
			return translate(err, "room")
		}
		if err := statemachine.NewAgreementFSM(a).Activate(ctx); err != nil {
			return translate(err, "agreement")
		}
		now := s.clock().UTC()
		a.ActivatedAt = &now
		tenant.Status = models.TenantStatusActive
		tenant.CurrentRoomID = &room.ID

		if err := tx.Room.Update(ctx, room); err != nil {
			return err
		}
		if err := tx.Tenant.Update(ctx, tenant); err != nil {
			return err
		}
		if err := tx.Agreement.Update(ctx, a); err != nil {
			return err
		}

		if a.DepositAmount.IsPositive() {
			deposit := &models.Deposit{
				Name:         models.DepositName(tenant.Name, a.StartDate),
				TenantID:     tenant.ID,
				AgreementID:  a.ID,
				Amount:       a.DepositAmount,
				DepositDate:  a.StartDate,
				RefundAmount: decimal.Zero,
				Currency:     a.Currency,
				Status:       models.DepositStatusHeld,
			}
			if err := tx.Deposit.Create(ctx, deposit); err != nil {
				return err
			}
		}

		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityAgreement, a.ID).
			Track("state", models.AgreementStateDraft, a.State)); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityRoom, room.ID).
			Track("status", roomBefore, room.Status).
			Track("current_tenant_id", nil, room.CurrentTenantID).
			Track("current_agreement_id", nil, room.CurrentAgreementID)); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityTenant, tenant.ID).
			Track("status", tenantBefore, tenant.Status)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "ACTIVATE", models.EntityAgreement, a.ID,
			fmt.Sprintf("Agreement %s activated on room %s", a.Name, room.Name))
	})
	if err != nil {
		return nil, err
	}

	s.notifyStaff(agreement, "Agreement activated",
		fmt.Sprintf("%s moved into %s", agreement.Tenant.Name, agreement.Room.Name),
		models.NotificationTypeAgreementActivated)
	return agreement, nil
}

// Terminate ends an active agreement and frees its room; tenant status is left to the caller
func (s *AgreementService) Terminate(ctx context.Context, actor Actor, id uint, reason string) (*models.Agreement, error) {
	var agreement *models.Agreement
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		a, err := tx.Agreement.FindByID(ctx, id)
		if err != nil {
			return translate(err, "agreement")
		}
		agreement = a
		return s.TerminateWithin(ctx, tx, actor, a, reason)
	})
	if err != nil {
		return nil, err
	}
	s.notifyStaff(agreement, "Agreement terminated",
		fmt.Sprintf("%s left %s", agreement.Tenant.Name, agreement.Room.Name),
		models.NotificationTypeAgreementTerminated)
	return agreement, nil
}

// TerminateWithin runs the termination inside an existing transaction
func (s *AgreementService) TerminateWithin(ctx context.Context, tx *repository.Repositories, actor Actor, a *models.Agreement, reason string) error {
	if err := statemachine.NewAgreementFSM(a).Terminate(ctx); err != nil {
		return translate(err, "agreement")
	}
	now := s.clock().UTC()
	a.TerminatedAt = &now
	if err := s.release(ctx, tx, actor, a); err != nil {
		return err
	}
	if err := tx.Agreement.Update(ctx, a); err != nil {
		return err
	}
	if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityAgreement, a.ID).
		Track("state", models.AgreementStateActive, a.State)); err != nil {
		return err
	}
	details := fmt.Sprintf("Agreement %s terminated", a.Name)
	if reason != "" {
		details += ". Reason: " + reason
	}
	return s.audit.Log(ctx, tx, actor, "TERMINATE", models.EntityAgreement, a.ID, details)
}

// ExpireWithin moves an active agreement past its end date to expired and frees the room
func (s *AgreementService) ExpireWithin(ctx context.Context, tx *repository.Repositories, actor Actor, a *models.Agreement) error {
	if err := statemachine.NewAgreementFSM(a).Expire(ctx); err != nil {
		return translate(err, "agreement")
	}
	if err := s.release(ctx, tx, actor, a); err != nil {
		return err
	}
	if err := tx.Agreement.Update(ctx, a); err != nil {
		return err
	}
	if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityAgreement, a.ID).
		Track("state", models.AgreementStateActive, a.State)); err != nil {
		return err
	}
	return s.audit.Log(ctx, tx, actor, "EXPIRE", models.EntityAgreement, a.ID,
		fmt.Sprintf("Agreement %s expired on %s", a.Name, a.EndDate.Format(models.DateLayout)))
}

// Expire is the manual form of ExpireWithin
func (s *AgreementService) Expire(ctx context.Context, actor Actor, id uint) (*models.Agreement, error) {
	var agreement *models.Agreement
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		a, err := tx.Agreement.FindByID(ctx, id)
		if err != nil {
			return translate(err, "agreement")
		}
		agreement = a
		return s.ExpireWithin(ctx, tx, actor, a)
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

// release vacates the room held by the agreement and clears the tenant's current room
func (s *AgreementService) release(ctx context.Context, tx *repository.Repositories, actor Actor, a *models.Agreement) error {
	room, err := tx.Room.FindByID(ctx, a.RoomID)
	if err != nil {
		return translate(err, "room")
	}
	if room.CurrentAgreementID != nil && *room.CurrentAgreementID == a.ID {
		before := room.Status
		if err := statemachine.NewRoomFSM(room).Vacate(ctx); err != nil {
			return translate(err, "room")
		}
		if err := tx.Room.Update(ctx, room); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityRoom, room.ID).
			Track("status", before, room.Status)); err != nil {
			return err
		}
	}

	tenant, err := tx.Tenant.FindByID(ctx, a.TenantID)
	if err != nil {
		return translate(err, "tenant")
	}
	if tenant.CurrentRoomID != nil && *tenant.CurrentRoomID == a.RoomID {
		tenant.CurrentRoomID = nil
		tenant.CurrentRoom = nil
		if err := tx.Tenant.Update(ctx, tenant); err != nil {
			return err
		}
	}
	return nil
}

// Cancel drops a draft agreement
func (s *AgreementService) Cancel(ctx context.Context, actor Actor, id uint) (*models.Agreement, error) {
	var agreement *models.Agreement
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		a, err := tx.Agreement.FindByID(ctx, id)
		if err != nil {
			return translate(err, "agreement")
		}
		agreement = a
		if err := statemachine.NewAgreementFSM(a).Cancel(ctx); err != nil {
			return translate(err, "agreement")
		}
		if err := tx.Agreement.Update(ctx, a); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityAgreement, a.ID).
			Track("state", models.AgreementStateDraft, a.State)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, "CANCEL", models.EntityAgreement, a.ID,
			fmt.Sprintf("Agreement %s cancelled", a.Name))
	})
	if err != nil {
		return nil, err
	}
	return agreement, nil
}

// Renew returns an unsaved draft starting the day after the agreement ends
func (s *AgreementService) Renew(ctx context.Context, id uint) (*models.Agreement, error) {
	agreement, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.State == models.AgreementStateCancelled || agreement.State == models.AgreementStateDraft {
		return nil, fmt.Errorf("%w: cannot renew a %s agreement", ErrInvalidState, agreement.State)
	}
	renewal := agreement.Renewal()
	renewal.Tenant = agreement.Tenant
	renewal.Room = agreement.Room
	renewal.Name = models.AgreementName(agreement.Tenant.Name, agreement.Room.Name, renewal.StartDate)
	return renewal, nil
}

// notifyStaff tells the property manager, or the admins, after commit
func (s *AgreementService) notifyStaff(a *models.Agreement, title, message, kind string) {
	managerID := a.Property.ManagerID
	dispatch(s.worker, func(ctx context.Context) error {
		if err := s.notifier.NotifyManagerOrAdmins(ctx, managerID, title, message, kind); err != nil {
			logger.Error("Failed to notify staff", "agreement_id", a.ID, "error", err)
			return err
		}
		return nil
	})
}
