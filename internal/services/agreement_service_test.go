package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgreementService_Create_FillsFromRoom(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	room := env.newRoom(1500, 3000)
	tenant := env.newTenant("Ahmed Khan")

	agreement := env.draftAgreement(tenant, room, models.Date(2026, time.March, 1), models.Date(2027, time.February, 28))

	assert.Equal(t, models.AgreementStateDraft, agreement.State)
	assert.Equal(t, room.FlatID, agreement.FlatID)
	assert.Equal(t, room.PropertyID, agreement.PropertyID)
	assert.Equal(t, "AED", agreement.Currency)
	assert.Equal(t, 1, agreement.PaymentDay)
	requireMoney(t, "1500.00", agreement.RentAmount)
	requireMoney(t, "3000.00", agreement.DepositAmount)
	assert.Contains(t, agreement.Name, "Ahmed Khan")
}

func TestAgreementService_Create_RejectsOverlap(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	room := env.newRoom(1500, 0)
	env.draftAgreement(env.newTenant("First"), room, models.Date(2026, time.January, 1), models.Date(2026, time.June, 30))

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"inside", models.Date(2026, time.March, 1), models.Date(2026, time.April, 30), true},
		{"straddles end", models.Date(2026, time.June, 1), models.Date(2026, time.December, 31), true},
		{"touches last day", models.Date(2026, time.June, 30), models.Date(2026, time.July, 31), true},
		{"day after", models.Date(2026, time.July, 1), models.Date(2026, time.December, 31), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agreement := &models.Agreement{
				TenantID:  env.newTenant("Second " + tt.name).ID,
				RoomID:    room.ID,
				StartDate: tt.start,
				EndDate:   tt.end,
			}
			err := env.svcs.Agreement.Create(env.ctx, SystemActor, agreement)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Contains(t, err.Error(), "already booked")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAgreementService_Create_CancelledDoesNotBlock(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	room := env.newRoom(1500, 0)
	first := env.draftAgreement(env.newTenant("First"), room, models.Date(2026, time.March, 1), models.Date(2026, time.August, 31))
	_, err := env.svcs.Agreement.Cancel(env.ctx, SystemActor, first.ID)
	require.NoError(t, err)

	second := env.draftAgreement(env.newTenant("Second"), room, models.Date(2026, time.April, 1), models.Date(2026, time.September, 30))
	assert.NotZero(t, second.ID)
}

func TestAgreementService_Create_Validation(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	room := env.newRoom(0, 0)
	tenant := env.newTenant("Ahmed Khan")

	tests := []struct {
		name   string
		mutate func(a *models.Agreement)
		want   string
	}{
		{"end before start", func(a *models.Agreement) { a.EndDate = a.StartDate.AddDate(0, 0, -1) }, "must be after"},
		{"same day", func(a *models.Agreement) { a.EndDate = a.StartDate }, "must be after"},
		{"no rent", func(a *models.Agreement) {}, "rent amount must be positive"},
		{"negative deposit", func(a *models.Agreement) {
			a.RentAmount = decimal.NewFromInt(1000)
			a.DepositAmount = decimal.NewFromInt(-5)
		}, "deposit amount cannot be negative"},
		{"bad frequency", func(a *models.Agreement) {
			a.RentAmount = decimal.NewFromInt(1000)
			a.PaymentFrequency = "fortnightly"
		}, "unknown payment frequency"},
		{"bad payment day", func(a *models.Agreement) {
			a.RentAmount = decimal.NewFromInt(1000)
			a.PaymentDay = 32
		}, "payment day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agreement := &models.Agreement{
				TenantID:  tenant.ID,
				RoomID:    room.ID,
				StartDate: models.Date(2026, time.March, 1),
				EndDate:   models.Date(2027, time.February, 28),
			}
			tt.mutate(agreement)
			err := env.svcs.Agreement.Create(env.ctx, SystemActor, agreement)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAgreementService_Create_BlacklistedTenant(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	room := env.newRoom(1500, 0)
	tenant := env.newTenant("Banned")
	tenant.Status = models.TenantStatusBlacklisted
	require.NoError(t, env.repos.Tenant.Update(env.ctx, tenant))

	err := env.svcs.Agreement.Create(env.ctx, SystemActor, &models.Agreement{
		TenantID:  tenant.ID,
		RoomID:    room.ID,
		StartDate: models.Date(2026, time.March, 1),
		EndDate:   models.Date(2026, time.December, 31),
	})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestAgreementService_Activate_OccupiesRoomAndHoldsDeposit(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	assert.Equal(t, models.AgreementStateActive, agreement.State)
	require.NotNil(t, agreement.ActivatedAt)
	assert.True(t, env.today.Equal(*agreement.ActivatedAt), "activation stamped from the service clock")

	room, err := env.repos.Room.FindByID(env.ctx, agreement.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusOccupied, room.Status)
	require.NotNil(t, room.CurrentAgreementID)
	assert.Equal(t, agreement.ID, *room.CurrentAgreementID)
	require.NotNil(t, room.CurrentTenantID)
	assert.Equal(t, agreement.TenantID, *room.CurrentTenantID)

	tenant, err := env.repos.Tenant.FindByID(env.ctx, agreement.TenantID)
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusActive, tenant.Status)
	require.NotNil(t, tenant.CurrentRoomID)
	assert.Equal(t, room.ID, *tenant.CurrentRoomID)

	deposits, err := env.repos.Deposit.FindHeldByAgreement(env.ctx, agreement.ID)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	requireMoney(t, "3000.00", deposits[0].Amount)

	_, err = env.svcs.Agreement.Activate(env.ctx, SystemActor, agreement.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAgreementService_Activate_RoomHeldElsewhere(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	room := env.newRoom(1500, 0)
	first := env.draftAgreement(env.newTenant("First"), room, models.Date(2026, time.January, 1), models.Date(2026, time.February, 28))
	second := env.draftAgreement(env.newTenant("Second"), room, models.Date(2026, time.March, 1), models.Date(2026, time.December, 31))

	_, err := env.svcs.Agreement.Activate(env.ctx, SystemActor, first.ID)
	require.NoError(t, err)

	_, err = env.svcs.Agreement.Activate(env.ctx, SystemActor, second.ID)
	assert.ErrorIs(t, err, ErrValidation)

	reloaded, err := env.svcs.Agreement.FindByID(env.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStateDraft, reloaded.State)
}

func TestAgreementService_Terminate_FreesRoom(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	terminated, err := env.svcs.Agreement.Terminate(env.ctx, SystemActor, agreement.ID, "moved out early")
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStateTerminated, terminated.State)
	require.NotNil(t, terminated.TerminatedAt)
	assert.True(t, env.today.Equal(*terminated.TerminatedAt))

	room, err := env.repos.Room.FindByID(env.ctx, agreement.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusVacant, room.Status)
	assert.Nil(t, room.CurrentAgreementID)
	assert.Nil(t, room.CurrentTenantID)

	tenant, err := env.repos.Tenant.FindByID(env.ctx, agreement.TenantID)
	require.NoError(t, err)
	assert.Nil(t, tenant.CurrentRoomID)

	changes, err := env.svcs.Audit.ChangeLog(env.ctx, models.EntityAgreement, agreement.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, changes)
}

func TestAgreementService_Renew(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	room := env.newRoom(1500, 0)
	draft := env.draftAgreement(env.newTenant("Draft"), room, models.Date(2027, time.January, 1), models.Date(2027, time.June, 30))

	_, err := env.svcs.Agreement.Renew(env.ctx, draft.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	active := env.activeAgreement(models.Date(2026, time.March, 1), nil)
	renewal, err := env.svcs.Agreement.Renew(env.ctx, active.ID)
	require.NoError(t, err)
	assert.Zero(t, renewal.ID)
	assert.Equal(t, models.AgreementStateDraft, renewal.State)
	assert.Equal(t, "2027-03-01", renewal.StartDate.Format(models.DateLayout))
}

func TestRoomAction_RefusedWhileAgreementActive(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.March, 1), nil)

	_, err := env.svcs.Property.RoomAction(env.ctx, SystemActor, agreement.RoomID, RoomActionMaintenance)
	assert.ErrorIs(t, err, ErrPrecondition)

	room := env.newRoom(900, 0)
	updated, err := env.svcs.Property.RoomAction(env.ctx, SystemActor, room.ID, RoomActionMaintenance)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusMaintenance, updated.Status)
}
