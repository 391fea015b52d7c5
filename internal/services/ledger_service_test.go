package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) newUser(name, role string) *models.User {
	e.t.Helper()
	user := &models.User{
		Email:             name + "@example.com",
		FullName:          name,
		EncryptedPassword: "x",
		Role:              role,
	}
	require.NoError(e.t, e.db.Create(user).Error)
	return user
}

func TestLedgerService_LandlordPayment(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.April, 5))
	room := env.newRoom(1500, 0)
	landlord := &models.Contact{Name: "Rashid Properties"}
	require.NoError(t, env.db.Create(landlord).Error)

	payment := &models.LandlordPayment{LandlordID: landlord.ID, PropertyID: room.PropertyID, Amount: decimal.NewFromInt(5000)}
	require.NoError(t, env.svcs.Ledger.CreateLandlordPayment(env.ctx, SystemActor, payment))
	assert.Equal(t, models.LandlordPaymentStatusDraft, payment.Status)
	assert.Equal(t, "LLP/T1/20260405", payment.Name)
	assert.Equal(t, models.PaymentMethodBankTransfer, payment.PaymentMethod)
	assert.Equal(t, "AED", payment.Currency)

	err := env.svcs.Ledger.CreateLandlordPayment(env.ctx, SystemActor, &models.LandlordPayment{
		LandlordID: landlord.ID, PropertyID: room.PropertyID, Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, ErrValidation)
	err = env.svcs.Ledger.CreateLandlordPayment(env.ctx, SystemActor, &models.LandlordPayment{
		LandlordID: 9999, PropertyID: room.PropertyID, Amount: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, ErrNotFound)

	paid, err := env.svcs.Ledger.PayLandlordPayment(env.ctx, SystemActor, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LandlordPaymentStatusPaid, paid.Status)
	_, err = env.svcs.Ledger.CancelLandlordPayment(env.ctx, SystemActor, payment.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, env.svcs.Ledger.DeleteLandlordPayment(env.ctx, SystemActor, payment.ID), ErrInvalidState)

	second := &models.LandlordPayment{LandlordID: landlord.ID, PropertyID: room.PropertyID, Amount: decimal.NewFromInt(800)}
	require.NoError(t, env.svcs.Ledger.CreateLandlordPayment(env.ctx, SystemActor, second))
	_, err = env.svcs.Ledger.CancelLandlordPayment(env.ctx, SystemActor, second.ID)
	require.NoError(t, err)
	require.NoError(t, env.svcs.Ledger.DeleteLandlordPayment(env.ctx, SystemActor, second.ID))
	_, err = env.svcs.Ledger.FindLandlordPayment(env.ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	changes, err := env.svcs.Audit.ChangeLog(env.ctx, models.EntityLandlordPayment, payment.ID)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
	assert.Equal(t, int64(1), env.count(&models.AuditLog{}, "entity = ? AND action = ?", models.EntityLandlordPayment, "DELETE"))
}

func TestLedgerService_StaffSalary(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.April, 5))
	admin := env.newUser("admin", models.RoleAdmin)
	employee := env.newUser("sara", models.RoleManager)
	approver := Actor{UserID: admin.ID, Role: models.RoleAdmin}

	salary := &models.StaffSalary{
		EmployeeID:  employee.ID,
		PeriodFrom:  models.Date(2026, time.March, 1),
		PeriodTo:    models.Date(2026, time.March, 31),
		BasicSalary: decimal.NewFromInt(4000),
		Commission:  decimal.NewFromInt(250),
		Bonus:       decimal.NewFromInt(100),
	}
	require.NoError(t, env.svcs.Ledger.CreateStaffSalary(env.ctx, SystemActor, salary))
	assert.Equal(t, "SAL/sara/202603", salary.Name)
	requireMoney(t, "4350", salary.TotalAmount)

	overlapping := &models.StaffSalary{
		EmployeeID:  employee.ID,
		PeriodFrom:  models.Date(2026, time.March, 15),
		PeriodTo:    models.Date(2026, time.April, 14),
		BasicSalary: decimal.NewFromInt(4000),
	}
	assert.ErrorIs(t, env.svcs.Ledger.CreateStaffSalary(env.ctx, SystemActor, overlapping), ErrValidation)

	negative := &models.StaffSalary{
		EmployeeID:  employee.ID,
		PeriodFrom:  models.Date(2026, time.April, 1),
		PeriodTo:    models.Date(2026, time.April, 30),
		BasicSalary: decimal.NewFromInt(4000),
		Bonus:       decimal.NewFromInt(-1),
	}
	assert.ErrorIs(t, env.svcs.Ledger.CreateStaffSalary(env.ctx, SystemActor, negative), ErrValidation)

	tenantUser := env.newUser("tenant", models.RoleTenant)
	err := env.svcs.Ledger.CreateStaffSalary(env.ctx, SystemActor, &models.StaffSalary{
		EmployeeID:  tenantUser.ID,
		PeriodFrom:  models.Date(2026, time.March, 1),
		PeriodTo:    models.Date(2026, time.March, 31),
		BasicSalary: decimal.NewFromInt(100),
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.svcs.Ledger.PayStaffSalary(env.ctx, approver, salary.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	approved, err := env.svcs.Ledger.ApproveStaffSalary(env.ctx, approver, salary.ID)
	require.NoError(t, err)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, admin.ID, *approved.ApprovedByID)
	assert.ErrorIs(t, env.svcs.Ledger.DeleteStaffSalary(env.ctx, approver, salary.ID), ErrInvalidState)

	paid, err := env.svcs.Ledger.PayStaffSalary(env.ctx, approver, salary.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StaffSalaryStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, env.today.Equal(*paid.PaidAt))
	assert.Equal(t, int64(1), env.count(&models.Notification{}, "user_id = ? AND notification_type = ?",
		employee.ID, models.NotificationTypeSalaryPaid))

	changes, err := env.svcs.Audit.ChangeLog(env.ctx, models.EntityStaffSalary, salary.ID)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestLedgerService_BankTransferReconcile(t *testing.T) {
	env := newTestEnv(t, models.Date(2026, time.April, 5))
	agreement := env.activeAgreement(models.Date(2026, time.April, 1), nil)
	collection := env.draftCollection(agreement, 1500)

	reference := "TX-1001"
	transfer := &models.BankTransfer{CollectionID: &collection.ID, Amount: decimal.NewFromInt(1500),
		BankName: " Emirates NBD ", TransactionID: &reference}
	require.NoError(t, env.svcs.Ledger.CreateBankTransfer(env.ctx, SystemActor, transfer))
	assert.Equal(t, "BT/20260405/TX-1001", transfer.Name)
	assert.Equal(t, "Emirates NBD", transfer.BankName)
	require.NotNil(t, transfer.TenantID)
	assert.Equal(t, agreement.TenantID, *transfer.TenantID)

	duplicate := reference
	err := env.svcs.Ledger.CreateBankTransfer(env.ctx, SystemActor, &models.BankTransfer{
		Amount: decimal.NewFromInt(10), TransactionID: &duplicate,
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = env.svcs.Ledger.ReconcileBankTransfer(env.ctx, SystemActor, transfer.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = env.svcs.Ledger.VerifyBankTransfer(env.ctx, SystemActor, transfer.ID)
	require.NoError(t, err)

	// collection still a draft
	_, err = env.svcs.Ledger.ReconcileBankTransfer(env.ctx, SystemActor, transfer.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	_, err = env.svcs.Collection.Collect(env.ctx, SystemActor, collection.ID)
	require.NoError(t, err)

	short := &models.BankTransfer{CollectionID: &collection.ID, Amount: decimal.NewFromInt(1400)}
	require.NoError(t, env.svcs.Ledger.CreateBankTransfer(env.ctx, SystemActor, short))
	assert.Equal(t, "BT/20260405/MANUAL", short.Name)
	_, err = env.svcs.Ledger.VerifyBankTransfer(env.ctx, SystemActor, short.ID)
	require.NoError(t, err)
	_, err = env.svcs.Ledger.ReconcileBankTransfer(env.ctx, SystemActor, short.ID)
	assert.ErrorIs(t, err, ErrPrecondition)

	reconciled, err := env.svcs.Ledger.ReconcileBankTransfer(env.ctx, SystemActor, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BankTransferStatusReconciled, reconciled.Status)
	assert.ErrorIs(t, env.svcs.Ledger.DeleteBankTransfer(env.ctx, SystemActor, transfer.ID), ErrInvalidState)
	require.NoError(t, env.svcs.Ledger.DeleteBankTransfer(env.ctx, SystemActor, short.ID))

	other := env.newTenant("Other Tenant")
	err = env.svcs.Ledger.CreateBankTransfer(env.ctx, SystemActor, &models.BankTransfer{
		CollectionID: &collection.ID, TenantID: &other.ID, Amount: decimal.NewFromInt(1500),
	})
	assert.ErrorIs(t, err, ErrValidation)
}
