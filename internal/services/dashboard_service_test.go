package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) datedCollection(a *models.Agreement, date time.Time, amount int64) *models.Collection {
	e.t.Helper()
	agreementID := a.ID
	collection := &models.Collection{AgreementID: &agreementID, Date: date, AmountCollected: decimal.NewFromInt(amount)}
	require.NoError(e.t, e.svcs.Collection.Create(e.ctx, SystemActor, collection))
	return collection
}

func (e *testEnv) paidExpense(room *models.Room, date time.Time, amount int64) *models.Expense {
	e.t.Helper()
	roomID := room.ID
	expense := &models.Expense{Name: "Repairs", RoomID: &roomID, Date: date, Amount: decimal.NewFromInt(amount)}
	require.NoError(e.t, e.svcs.Expense.Create(e.ctx, SystemActor, expense))
	for _, step := range []func() (*models.Expense, error){
		func() (*models.Expense, error) { return e.svcs.Expense.Submit(e.ctx, SystemActor, expense.ID) },
		func() (*models.Expense, error) { return e.svcs.Expense.Approve(e.ctx, SystemActor, expense.ID) },
		func() (*models.Expense, error) { return e.svcs.Expense.Pay(e.ctx, SystemActor, expense.ID) },
	} {
		_, err := step()
		require.NoError(e.t, err)
	}
	return expense
}

func TestDashboardService_Compute(t *testing.T) {
	// Wednesday; the week starts on Monday the 9th
	env := newTestEnv(t, models.Date(2026, time.March, 11))
	agreement := env.activeAgreement(models.Date(2026, time.February, 1), nil)
	env.newRoom(1200, 0)

	env.datedCollection(agreement, models.Date(2026, time.March, 11), 100)
	env.datedCollection(agreement, models.Date(2026, time.March, 10), 200)
	env.datedCollection(agreement, models.Date(2026, time.March, 3), 300)
	env.datedCollection(agreement, models.Date(2026, time.February, 27), 400)
	cancelled := env.datedCollection(agreement, models.Date(2026, time.March, 11), 1000)
	_, err := env.svcs.Collection.Cancel(env.ctx, SystemActor, cancelled.ID)
	require.NoError(t, err)

	room, err := env.svcs.Property.FindRoom(env.ctx, agreement.RoomID)
	require.NoError(t, err)
	env.paidExpense(room, models.Date(2026, time.March, 10), 400)
	env.paidExpense(room, models.Date(2026, time.February, 20), 50)
	unpaid := &models.Expense{Name: "Pending", RoomID: &room.ID, Date: models.Date(2026, time.March, 11), Amount: decimal.NewFromInt(999)}
	require.NoError(t, env.svcs.Expense.Create(env.ctx, SystemActor, unpaid))

	require.NoError(t, env.db.Model(&models.Tenant{}).Where("id = ?", agreement.TenantID).
		Update("created_at", time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)).Error)

	d, err := env.svcs.Dashboard.Compute(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-11", d.Today)
	assert.Equal(t, "AED", d.Currency)
	assert.True(t, env.today.Equal(d.GeneratedAt))

	assert.Equal(t, "2026-03-11", d.TodayFigures.From)
	requireMoney(t, "100.00", d.TodayFigures.Collections)
	assert.Equal(t, int64(1), d.TodayFigures.CollectionsCount)
	requireMoney(t, "0.00", d.TodayFigures.Expenses)
	requireMoney(t, "100.00", d.TodayFigures.Profit)
	assert.Zero(t, d.TodayFigures.NewTenants)

	assert.Equal(t, "2026-03-09", d.WeekFigures.From)
	requireMoney(t, "300.00", d.WeekFigures.Collections)
	assert.Equal(t, int64(2), d.WeekFigures.CollectionsCount)
	requireMoney(t, "400.00", d.WeekFigures.Expenses)
	requireMoney(t, "-100.00", d.WeekFigures.Profit)
	assert.Equal(t, int64(1), d.WeekFigures.NewTenants)

	assert.Equal(t, "2026-03-01", d.MonthFigures.From)
	assert.Equal(t, "2026-03-11", d.MonthFigures.To)
	requireMoney(t, "600.00", d.MonthFigures.Collections)
	assert.Equal(t, int64(3), d.MonthFigures.CollectionsCount)
	requireMoney(t, "400.00", d.MonthFigures.Expenses)
	requireMoney(t, "200.00", d.MonthFigures.Profit)

	assert.Equal(t, int64(2), d.Overall.TotalProperties)
	assert.Equal(t, int64(2), d.Overall.TotalRooms)
	assert.Equal(t, int64(1), d.Overall.OccupiedRooms)
	assert.Equal(t, int64(1), d.Overall.VacantRooms)
	assert.InDelta(t, 0.5, d.Overall.OccupancyRate, 0.0001)
	assert.Equal(t, int64(1), d.Overall.ActiveTenants)

	tenant, err := env.svcs.Tenant.FindByID(env.ctx, agreement.TenantID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.RecentCollections, "• 2026-03-11 - "+tenant.Name+" - 100.00 AED"))
	assert.NotContains(t, d.RecentCollections, "1000.00")
	assert.Contains(t, d.RecentTenants, tenant.Name+" - "+tenant.Mobile+" - active")
}

func TestDashboardService_Empty(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 11))

	d, err := env.svcs.Dashboard.Compute(env.ctx)
	require.NoError(t, err)
	requireMoney(t, "0.00", d.MonthFigures.Collections)
	assert.Zero(t, d.Overall.TotalRooms)
	assert.Zero(t, d.Overall.OccupancyRate)
	assert.Equal(t, "No recent collections", d.RecentCollections)
	assert.Equal(t, "No recent tenants", d.RecentTenants)
}
