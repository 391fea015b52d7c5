package services

import (
	"testing"
	"time"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func autoInvoicing(a *models.Agreement) {
	a.AutoGenerateInvoices = true
	a.AutoPostInvoices = true
}

func (e *testEnv) count(model any, query string, args ...any) int64 {
	e.t.Helper()
	var n int64
	require.NoError(e.t, e.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestBillingService_Run_UnknownSweep(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	_, err := env.svcs.Billing.Run(env.ctx, "laundry", env.today)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBillingService_GenerateInvoices_Idempotent(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.February, 1), autoInvoicing)
	manual := env.activeAgreement(models.Date(2026, time.February, 1), nil)

	result, err := env.svcs.Billing.Run(env.ctx, SweepInvoices, env.today)
	require.NoError(t, err)
	assert.Equal(t, SweepInvoices, result.Sweep)
	assert.Equal(t, "2026-03-01", result.Day)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)

	again, err := env.svcs.Billing.Run(env.ctx, SweepInvoices, env.today)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 2, again.Skipped)

	assert.Equal(t, int64(1), env.count(&models.Invoice{}, "agreement_id = ?", agreement.ID))
	assert.Zero(t, env.count(&models.Invoice{}, "agreement_id = ?", manual.ID))

	var invoice models.Invoice
	require.NoError(t, env.db.Preload("Lines").Where("agreement_id = ?", agreement.ID).First(&invoice).Error)
	assert.Equal(t, models.InvoiceStatePosted, invoice.State)
	assert.Equal(t, models.InvoiceTypeRent, invoice.InvoiceType)
	require.NotNil(t, invoice.PeriodFrom)
	require.NotNil(t, invoice.PeriodTo)
	assert.Equal(t, "2026-03-01", invoice.PeriodFrom.Format(models.DateLayout))
	assert.Equal(t, "2026-03-31", invoice.PeriodTo.Format(models.DateLayout))
	require.Len(t, invoice.Lines, 1)
	requireMoney(t, "1500.00", invoice.AmountTotal)

	nextDay, err := env.svcs.Billing.Run(env.ctx, SweepInvoices, models.Date(2026, time.March, 2))
	require.NoError(t, err)
	assert.Zero(t, nextDay.Created)
}

func TestBillingService_GenerateInvoices_CancelledInvoiceIsReplaced(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.February, 1), func(a *models.Agreement) {
		a.AutoGenerateInvoices = true
	})

	result, err := env.svcs.Billing.Run(env.ctx, SweepInvoices, env.today)
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)

	var invoice models.Invoice
	require.NoError(t, env.db.Where("agreement_id = ?", agreement.ID).First(&invoice).Error)
	assert.Equal(t, models.InvoiceStateDraft, invoice.State)
	_, err = env.svcs.Invoice.Cancel(env.ctx, SystemActor, invoice.ID)
	require.NoError(t, err)

	result, err = env.svcs.Billing.Run(env.ctx, SweepInvoices, env.today)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, int64(2), env.count(&models.Invoice{}, "agreement_id = ?", agreement.ID))
}

func TestBillingService_GenerateDues_ThenOverdue(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	agreement := env.activeAgreement(models.Date(2026, time.February, 1), func(a *models.Agreement) {
		a.PaymentDay = 5
	})

	result, err := env.svcs.Billing.Run(env.ctx, SweepDues, env.today)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	again, err := env.svcs.Billing.Run(env.ctx, SweepDues, models.Date(2026, time.March, 20))
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 1, again.Skipped)
	assert.Equal(t, int64(1), env.count(&models.DueTracker{}, "agreement_id = ?", agreement.ID))

	var due models.DueTracker
	require.NoError(t, env.db.Where("agreement_id = ?", agreement.ID).First(&due).Error)
	assert.Equal(t, "2026-03-05", due.DueDate.Format(models.DateLayout))
	assert.Equal(t, models.DueStatusPending, due.Status)
	requireMoney(t, "1500.00", due.AmountDue)

	overdue, err := env.svcs.Billing.Run(env.ctx, SweepOverdue, models.Date(2026, time.March, 6))
	require.NoError(t, err)
	assert.Equal(t, 1, overdue.Created)

	require.NoError(t, env.db.First(&due, due.ID).Error)
	assert.Equal(t, models.DueStatusOverdue, due.Status)

	unchanged, err := env.svcs.Billing.Run(env.ctx, SweepOverdue, models.Date(2026, time.March, 7))
	require.NoError(t, err)
	assert.Zero(t, unchanged.Created)
	assert.Equal(t, 1, unchanged.Skipped)
}

func TestBillingService_GenerateDues_OutsideTermSkipped(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 20))
	starting := env.activeAgreement(models.Date(2026, time.March, 15), func(a *models.Agreement) {
		a.PaymentDay = 1
	})
	ending := env.activeAgreement(models.Date(2025, time.March, 26), func(a *models.Agreement) {
		a.PaymentDay = 28
	})
	within := env.activeAgreement(models.Date(2026, time.January, 1), func(a *models.Agreement) {
		a.PaymentDay = 10
	})

	result, err := env.svcs.Billing.Run(env.ctx, SweepDues, env.today)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Skipped)

	assert.Zero(t, env.count(&models.DueTracker{}, "agreement_id = ?", starting.ID))
	assert.Zero(t, env.count(&models.DueTracker{}, "agreement_id = ?", ending.ID))
	assert.Equal(t, int64(1), env.count(&models.DueTracker{}, "agreement_id = ?", within.ID))
}

func TestBillingService_CheckExpiring(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	ended := env.activeAgreement(models.Date(2025, time.March, 1), nil)
	ending := env.activeAgreement(models.Date(2025, time.April, 1), nil)
	running := env.activeAgreement(models.Date(2026, time.January, 1), nil)

	result, err := env.svcs.Billing.Run(env.ctx, SweepExpiring, env.today)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Failed)

	expired, err := env.svcs.Agreement.FindByID(env.ctx, ended.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AgreementStateExpired, expired.State)
	room, err := env.repos.Room.FindByID(env.ctx, ended.RoomID)
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusVacant, room.Status)

	assert.Equal(t, int64(1), env.count(&models.Activity{}, "entity = ? AND entity_id = ? AND kind = ?",
		models.EntityAgreement, ending.ID, models.ActivityKindAgreementExpiring))
	assert.Zero(t, env.count(&models.Activity{}, "entity_id = ?", running.ID))

	again, err := env.svcs.Billing.Run(env.ctx, SweepExpiring, env.today)
	require.NoError(t, err)
	assert.Zero(t, again.Created)
	assert.Equal(t, 1, again.Skipped)
}

func TestBillingService_RunAll(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 1))
	env.activeAgreement(models.Date(2026, time.February, 1), autoInvoicing)

	results := env.svcs.Billing.RunDaily(env.ctx)
	require.Len(t, results, len(Sweeps))
	for i, r := range results {
		assert.Equal(t, Sweeps[i], r.Sweep)
		assert.Zero(t, r.Failed, r.String())
	}
	assert.Equal(t, 1, results[0].Created)
	assert.Equal(t, 1, results[1].Created)
}
