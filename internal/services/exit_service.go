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

// ExitService settles tenant departures
type ExitService struct {
	repos      *repository.Repositories
	audit      *AuditService
	agreements *AgreementService
	notifier   *NotificationService
	worker     *jobs.Worker
	clock      Clock
}

func NewExitService(
	repos *repository.Repositories,
	audit *AuditService,
	agreements *AgreementService,
	notifier *NotificationService,
	worker *jobs.Worker,
	clock Clock,
) *ExitService {
	return &ExitService{
		repos:      repos,
		audit:      audit,
		agreements: agreements,
		notifier:   notifier,
		worker:     worker,
		clock:      clock,
	}
}

func (s *ExitService) FindByID(ctx context.Context, id uint) (*models.TenantExit, error) {
	exit, err := s.repos.Exit.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "tenant exit")
	}
	return exit, nil
}

func (s *ExitService) List(ctx context.Context, query *repository.ListQuery) ([]models.TenantExit, int64, error) {
	return s.repos.Exit.List(ctx, query)
}

func (s *ExitService) ListDeposits(ctx context.Context, query *repository.ListQuery) ([]models.Deposit, int64, error) {
	return s.repos.Deposit.List(ctx, query)
}

// Prefill returns an unsaved exit for the agreement with the held deposits
// as refund and the open dues as pending amount
func (s *ExitService) Prefill(ctx context.Context, agreementID uint) (*models.TenantExit, error) {
	return s.prefill(ctx, s.repos, agreementID)
}

func (s *ExitService) prefill(ctx context.Context, repos *repository.Repositories, agreementID uint) (*models.TenantExit, error) {
	agreement, err := repos.Agreement.FindByID(ctx, agreementID)
	if err != nil {
		return nil, translate(err, "agreement")
	}
	deposits, err := repos.Deposit.FindHeldByAgreement(ctx, agreementID)
	if err != nil {
		return nil, err
	}
	refund := decimal.Zero
	for _, d := range deposits {
		refund = refund.Add(d.Amount)
	}
	pending, err := repos.Due.SumOutstanding(ctx, agreementID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	exit := &models.TenantExit{
		TenantID:      agreement.TenantID,
		AgreementID:   agreement.ID,
		RoomID:        agreement.RoomID,
		NoticeDate:    &today,
		ExitDate:      today,
		ExitReason:    models.ExitReasonEndOfTerm,
		ExitType:      models.ExitTypeNormal,
		DepositRefund: refund,
		PendingDues:   pending,
		Currency:      agreement.Currency,
		Status:        models.ExitStatusNoticeGiven,
		Tenant:        agreement.Tenant,
		Agreement:     *agreement,
	}
	if agreement.EndDate.Before(today) || agreement.EndDate.Equal(today) {
		exit.ExitDate = agreement.EndDate
	} else {
		exit.ExitReason = models.ExitReasonEarlyTermination
	}
	exit.ComputeSettlement()
	return exit, nil
}

// Create opens an exit on an active agreement. Refund and pending dues are taken
// from the ledger; the caller supplies dates, reason and damages.
func (s *ExitService) Create(ctx context.Context, actor Actor, input *models.TenantExit) (*models.TenantExit, error) {
	var exit *models.TenantExit
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		e, err := s.prefill(ctx, tx, input.AgreementID)
		if err != nil {
			return err
		}
		if e.Agreement.State != models.AgreementStateActive {
			return preconditionf("agreement %s is %s", e.Agreement.Name, e.Agreement.State)
		}
		open, err := tx.Exit.OpenExistsForAgreement(ctx, input.AgreementID)
		if err != nil {
			return err
		}
		if open {
			return preconditionf("agreement %s already has an exit in progress", e.Agreement.Name)
		}

		if !input.ExitDate.IsZero() {
			e.ExitDate = models.DateOf(input.ExitDate)
		}
		if input.NoticeDate != nil {
			notice := models.DateOf(*input.NoticeDate)
			e.NoticeDate = &notice
		}
		if e.NoticeDate != nil && e.ExitDate.Before(*e.NoticeDate) {
			return validationf("exit date cannot be before the notice date")
		}
		if input.ExitReason != "" {
			e.ExitReason = input.ExitReason
		}
		if !models.ValidExitReason(e.ExitReason) {
			return validationf("unknown exit reason %q", e.ExitReason)
		}
		if input.ExitType != "" {
			e.ExitType = input.ExitType
		}
		if !models.ValidExitType(e.ExitType) {
			return validationf("unknown exit type %q", e.ExitType)
		}
		if input.DamagesDeduction.IsNegative() {
			return validationf("damages deduction cannot be negative")
		}
		e.DamagesDeduction = input.DamagesDeduction
		e.DamagesDescription = input.DamagesDescription
		e.Notes = input.Notes
		e.Name = models.ExitName(e.Tenant.Name, e.ExitDate)
		e.ComputeSettlement()

		if err := tx.Exit.Create(ctx, e); err != nil {
			return err
		}
		exit = e
		return s.audit.Log(ctx, tx, actor, "CREATE", models.EntityTenantExit, e.ID,
			fmt.Sprintf("Exit %s opened, settlement %s", e.Name, e.FinalSettlement.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}

	managerID := exit.Agreement.Property.ManagerID
	message := fmt.Sprintf("%s gave notice, leaving on %s", exit.Tenant.Name, exit.ExitDate.Format(models.DateLayout))
	dispatch(s.worker, func(ctx context.Context) error {
		if err := s.notifier.NotifyManagerOrAdmins(ctx, managerID, "Tenant exit", message, models.NotificationTypeTenantExit); err != nil {
			logger.Error("Failed to notify tenant exit", "exit", exit.Name, "error", err)
			return err
		}
		return nil
	})
	return exit, nil
}

// Start moves the exit to in_progress
func (s *ExitService) Start(ctx context.Context, actor Actor, id uint) (*models.TenantExit, error) {
	return s.transition(ctx, actor, id, "START", func(tx *repository.Repositories, e *models.TenantExit) error {
		return statemachine.NewExitFSM(e).Start(ctx)
	})
}

// Complete terminates the agreement, settles the held deposits and deactivates
// the tenant when no other agreement is active
func (s *ExitService) Complete(ctx context.Context, actor Actor, id uint) (*models.TenantExit, error) {
	return s.transition(ctx, actor, id, "COMPLETE", func(tx *repository.Repositories, e *models.TenantExit) error {
		if err := statemachine.NewExitFSM(e).Complete(ctx); err != nil {
			return err
		}
		now := s.clock().UTC()
		e.CompletedAt = &now
		e.CompletedByID = actor.userRef()

		agreement, err := tx.Agreement.FindByID(ctx, e.AgreementID)
		if err != nil {
			return translate(err, "agreement")
		}
		if agreement.State == models.AgreementStateActive {
			reason := fmt.Sprintf("Tenant exit %s (%s)", e.Name, e.ExitReason)
			if err := s.agreements.TerminateWithin(ctx, tx, actor, agreement, reason); err != nil {
				return err
			}
		}

		if err := s.settleDeposits(ctx, tx, actor, e); err != nil {
			return err
		}

		others, err := tx.Agreement.CountActiveForTenant(ctx, e.TenantID, e.AgreementID)
		if err != nil {
			return err
		}
		if others == 0 {
			tenant, err := tx.Tenant.FindByID(ctx, e.TenantID)
			if err != nil {
				return translate(err, "tenant")
			}
			if tenant.Status == models.TenantStatusActive {
				tenant.Status = models.TenantStatusInactive
				tenant.CurrentRoom = nil
				if err := tx.Tenant.Update(ctx, tenant); err != nil {
					return err
				}
				if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityTenant, tenant.ID).
					Track("status", models.TenantStatusActive, tenant.Status)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// settleDeposits spreads the exit's refund over the held deposits in date order
func (s *ExitService) settleDeposits(ctx context.Context, tx *repository.Repositories, actor Actor, e *models.TenantExit) error {
	deposits, err := tx.Deposit.FindHeldByAgreement(ctx, e.AgreementID)
	if err != nil {
		return err
	}
	remaining := e.DepositRefund.Sub(e.DamagesDeduction)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	for i := range deposits {
		d := &deposits[i]
		refund := decimal.Min(remaining, d.Amount)
		d.Settle(refund, e.ExitDate, fmt.Sprintf("Settled by exit %s", e.Name))
		remaining = remaining.Sub(d.RefundAmount)
		if err := tx.Deposit.Update(ctx, d); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityDeposit, d.ID).
			Track("status", models.DepositStatusHeld, d.Status).
			Track("refund_amount", decimal.Zero, d.RefundAmount)); err != nil {
			return err
		}
	}
	return nil
}

// Archive closes a completed exit
func (s *ExitService) Archive(ctx context.Context, actor Actor, id uint) (*models.TenantExit, error) {
	return s.transition(ctx, actor, id, "ARCHIVE", func(tx *repository.Repositories, e *models.TenantExit) error {
		return statemachine.NewExitFSM(e).Archive(ctx)
	})
}

func (s *ExitService) transition(ctx context.Context, actor Actor, id uint, action string, step func(*repository.Repositories, *models.TenantExit) error) (*models.TenantExit, error) {
	var exit *models.TenantExit
	err := s.repos.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		e, err := tx.Exit.FindByID(ctx, id)
		if err != nil {
			return translate(err, "tenant exit")
		}
		exit = e
		before := e.Status
		if err := step(tx, e); err != nil {
			return translate(err, "tenant exit")
		}
		if err := tx.Exit.Update(ctx, e); err != nil {
			return err
		}
		if err := s.audit.RecordChanges(ctx, tx, actor, NewChangeSet(models.EntityTenantExit, e.ID).
			Track("status", before, e.Status)); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, actor, action, models.EntityTenantExit, e.ID,
			fmt.Sprintf("Exit %s is now %s", e.Name, e.Status))
	})
	if err != nil {
		return nil, err
	}
	return exit, nil
}
