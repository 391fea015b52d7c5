package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) newExpense(room *models.Room, amount int64, vendor string) *models.Expense {
	e.t.Helper()
	roomID := room.ID
	expense := &models.Expense{
		Name:   "Plumbing repair",
		RoomID: &roomID,
		Amount: decimal.NewFromInt(amount),
	}
	if vendor != "" {
		expense.Vendor = &vendor
	}
	require.NoError(e.t, e.svcs.Expense.Create(e.ctx, SystemActor, expense))
	return expense
}

func TestExpenseService_Create_ResolvesLocation(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 10))
	room := env.newRoom(1500, 0)
	expense := env.newExpense(room, 250, "")

	assert.Equal(t, models.ExpenseStateDraft, expense.State)
	assert.Equal(t, room.PropertyID, expense.PropertyID)
	require.NotNil(t, expense.FlatID)
	assert.Equal(t, room.FlatID, *expense.FlatID)
	assert.Equal(t, "2026-03-10", expense.Date.Format(models.DateLayout))
	assert.Equal(t, "AED", expense.Currency)

	err := env.svcs.Expense.Create(env.ctx, SystemActor, &models.Expense{Name: "Orphan", Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestExpenseService_ApprovalFlow(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 10))
	admin := &models.User{Email: "admin@example.com", EncryptedPassword: "x", Role: models.RoleAdmin}
	require.NoError(t, env.db.Create(admin).Error)
	expense := env.newExpense(env.newRoom(1500, 0), 250, "")

	_, err := env.svcs.Expense.Approve(env.ctx, SystemActor, expense.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	submitted, err := env.svcs.Expense.Submit(env.ctx, SystemActor, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStateSubmitted, submitted.State)
	assert.Equal(t, int64(1), env.count(&models.Notification{}, "user_id = ?", admin.ID))

	_, err = env.svcs.Expense.Pay(env.ctx, SystemActor, expense.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	approved, err := env.svcs.Expense.Approve(env.ctx, SystemActor, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStateApproved, approved.State)
	require.NotNil(t, approved.ApprovalDate)
	assert.True(t, env.today.Equal(*approved.ApprovalDate))

	paid, err := env.svcs.Expense.Pay(env.ctx, SystemActor, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStatePaid, paid.State)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, env.today.Equal(*paid.PaidAt))

	err = env.svcs.Expense.Delete(env.ctx, SystemActor, expense.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	changes, err := env.svcs.Audit.ChangeLog(env.ctx, models.EntityExpense, expense.ID)
	require.NoError(t, err)
	assert.Len(t, changes, 3)
}

func TestExpenseService_RejectThenReset(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 10))
	expense := env.newExpense(env.newRoom(1500, 0), 90, "")

	_, err := env.svcs.Expense.Submit(env.ctx, SystemActor, expense.ID)
	require.NoError(t, err)
	rejected, err := env.svcs.Expense.Reject(env.ctx, SystemActor, expense.ID, "  duplicate bill ")
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStateRejected, rejected.State)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "duplicate bill", *rejected.RejectionReason)

	reset, err := env.svcs.Expense.ResetToDraft(env.ctx, SystemActor, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStateDraft, reset.State)

	require.NoError(t, env.svcs.Expense.Delete(env.ctx, SystemActor, expense.ID))
	assert.Zero(t, env.count(&models.Expense{}, "id = ?", expense.ID))
	assert.Equal(t, int64(1), env.count(&models.AuditLog{}, "entity = ? AND entity_id = ? AND action = ?",
		models.EntityExpense, expense.ID, "DELETE"))
}

func TestExpenseService_CreateBillReference(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.March, 10))
	room := env.newRoom(1500, 0)

	withoutVendor := env.newExpense(room, 120, "")
	_, err := env.svcs.Expense.CreateBillReference(env.ctx, SystemActor, withoutVendor.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	reloaded, err := env.svcs.Expense.FindByID(env.ctx, withoutVendor.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.BillReference)

	withVendor := env.newExpense(room, 120, "Gulf Plumbing Services")
	stamped, err := env.svcs.Expense.CreateBillReference(env.ctx, SystemActor, withVendor.ID)
	require.NoError(t, err)
	require.NotNil(t, stamped.BillReference)
	assert.Equal(t, "BILL/Gulf Plumb/20260310", *stamped.BillReference)
}
