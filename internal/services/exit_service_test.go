package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitService_Prefill(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.June, 15))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	_, err := env.svcs.Billing.Run(env.ctx, SweepDues, models.Date(2026, time.June, 1))
	require.NoError(t, err)

	exit, err := env.svcs.Exit.Prefill(env.ctx, agreement.ID)
	require.NoError(t, err)
	assert.Zero(t, exit.ID)
	assert.Equal(t, models.ExitStatusNoticeGiven, exit.Status)
	assert.Equal(t, models.ExitReasonEarlyTermination, exit.ExitReason)
	assert.Equal(t, "2026-06-15", exit.ExitDate.Format(models.DateLayout))
	requireMoney(t, "3000.00", exit.DepositRefund)
	requireMoney(t, "1500.00", exit.PendingDues)
	requireMoney(t, "1500.00", exit.FinalSettlement)

	_, err = env.svcs.Exit.Prefill(env.ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExitService_CompleteSettlesDepositAndFreesRoom(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.June, 15))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	description := "Broken wardrobe"
	exit, err := env.svcs.Exit.Create(env.ctx, SystemActor, &models.TenantExit{
		AgreementID:        agreement.ID,
		ExitDate:           models.Date(2026, time.June, 30),
		DamagesDeduction:   decimal.NewFromInt(500),
		DamagesDescription: &description,
	})
	require.NoError(t, err)
	assert.NotZero(t, exit.ID)
	requireMoney(t, "2500.00", exit.FinalSettlement)

	_, err = env.svcs.Exit.Create(env.ctx, SystemActor, &models.TenantExit{AgreementID: agreement.ID})
	assert.ErrorIs(t, err, ErrPrecondition)

	started, err := env.svcs.Exit.Start(env.ctx, SystemActor, exit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExitStatusInProgress, started.Status)

	completed, err := env.svcs.Exit.Complete(env.ctx, SystemActor, exit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExitStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	reloaded, err := env.svcs.Agreement.FindByID(env.ctx, agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStateTerminated, reloaded.State)

	room, err := env.repos.Room.FindByID(env.ctx, agreement.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusVacant, room.Status)

	tenant, err := env.repos.Tenant.FindByID(env.ctx, agreement.TenantID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusInactive, tenant.Status)

	var deposit models.Deposit
	require.NoError(t, env.db.Where("agreement_id = ?", agreement.ID).First(&deposit).Error)
	assert.Equal(t, models.DepositStatusPartiallyRefunded, deposit.Status)
	requireMoney(t, "2500.00", deposit.RefundAmount)

	archived, err := env.svcs.Exit.Archive(env.ctx, SystemActor, exit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExitStatusArchived, archived.Status)

	_, err = env.svcs.Exit.Start(env.ctx, SystemActor, exit.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestExitService_Create_Validation(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.June, 15))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	notice := models.Date(2026, time.June, 20)

	tests := []struct {
		name string
		exit models.TenantExit
		want error
	}{
		{"exit before notice", models.TenantExit{ExitDate: models.Date(2026, time.June, 10), NoticeDate: &notice}, ErrValidation},
		{"bad reason", models.TenantExit{ExitReason: "bored"}, ErrValidation},
		{"bad type", models.TenantExit{ExitType: "midnight"}, ErrValidation},
		{"negative damages", models.TenantExit{DamagesDeduction: decimal.NewFromInt(-1)}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.exit
			input.AgreementID = agreement.ID
			_, err := env.svcs.Exit.Create(env.ctx, SystemActor, &input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	room := env.newRoom(1000, 0)
	draft := env.draftAgreement(env.newTenant("Draft"), room, models.Date(2026, time.July, 1), models.Date(2026, time.December, 31))
	_, err := env.svcs.Exit.Create(env.ctx, SystemActor, &models.TenantExit{AgreementID: draft.ID})
	assert.ErrorIs(t, err, ErrPrecondition)
}
