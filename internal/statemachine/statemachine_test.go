package statemachine

import (
	"context"
	"testing"

	"github.com/sjperalta/rentdesk-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgreementFSM_Lifecycle(t *testing.T) {
	ctx := context.Background()
	agreement := &models.Agreement{State: models.AgreementStateDraft}

	sm := NewAgreementFSM(agreement)
	assert.True(t, sm.Can("activate"))
	assert.False(t, sm.Can("terminate"))

	require.NoError(t, sm.Activate(ctx))
	assert.Equal(t, models.AgreementStateActive, agreement.State)

	require.NoError(t, sm.Terminate(ctx))
	assert.Equal(t, models.AgreementStateTerminated, agreement.State)
	assert.Equal(t, models.AgreementStateTerminated, sm.Current())
}

func TestAgreementFSM_RejectsInvalidTransitions(t *testing.T) {
	ctx := context.Background()

	active := &models.Agreement{State: models.AgreementStateActive}
	err := NewAgreementFSM(active).Cancel(ctx)
	assert.ErrorIs(t, err, ErrTransition)
	assert.Equal(t, models.AgreementStateActive, active.State)

	draft := &models.Agreement{State: models.AgreementStateDraft}
	assert.ErrorIs(t, NewAgreementFSM(draft).Expire(ctx), ErrTransition)
	require.NoError(t, NewAgreementFSM(draft).Cancel(ctx))
	assert.Equal(t, models.AgreementStateCancelled, draft.State)
}

func TestInvoiceFSM(t *testing.T) {
	ctx := context.Background()
	invoice := &models.Invoice{State: models.InvoiceStateDraft}

	sm := NewInvoiceFSM(invoice)
	require.NoError(t, sm.Post(ctx))
	assert.Equal(t, models.InvoiceStatePosted, invoice.State)

	require.NoError(t, sm.Cancel(ctx))
	assert.Equal(t, models.InvoiceStateCancelled, invoice.State)

	require.NoError(t, sm.ResetToDraft(ctx))
	assert.Equal(t, models.InvoiceStateDraft, invoice.State)

	paid := &models.Invoice{State: models.InvoiceStatePaid}
	assert.ErrorIs(t, NewInvoiceFSM(paid).Cancel(ctx), ErrTransition)
}

func TestPaymentFSM(t *testing.T) {
	ctx := context.Background()
	payment := &models.Payment{State: models.PaymentStateDraft}

	sm := NewPaymentFSM(payment)
	assert.ErrorIs(t, sm.Reconcile(ctx), ErrTransition)
	require.NoError(t, sm.Post(ctx))
	require.NoError(t, sm.Reconcile(ctx))
	assert.Equal(t, models.PaymentStateReconciled, payment.State)
	assert.ErrorIs(t, sm.Cancel(ctx), ErrTransition)
}

func TestCollectionFSM(t *testing.T) {
	ctx := context.Background()
	collection := &models.Collection{Status: models.CollectionStatusDraft}

	sm := NewCollectionFSM(collection)
	require.NoError(t, sm.Collect(ctx))
	require.NoError(t, sm.Verify(ctx))
	require.NoError(t, sm.Deposit(ctx))
	assert.Equal(t, models.CollectionStatusDeposited, collection.Status)

	assert.ErrorIs(t, sm.Cancel(ctx), ErrTransition)
}

func TestExpenseFSM(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		steps   func(sm *ExpenseFSM) error
		want    string
		wantErr bool
	}{
		{
			name: "approve and pay",
			steps: func(sm *ExpenseFSM) error {
				if err := sm.Submit(ctx); err != nil {
					return err
				}
				if err := sm.Approve(ctx); err != nil {
					return err
				}
				return sm.Pay(ctx)
			},
			want: models.ExpenseStatePaid,
		},
		{
			name: "reject then reopen",
			steps: func(sm *ExpenseFSM) error {
				if err := sm.Submit(ctx); err != nil {
					return err
				}
				if err := sm.Reject(ctx); err != nil {
					return err
				}
				return sm.ResetToDraft(ctx)
			},
			want: models.ExpenseStateDraft,
		},
		{
			name:    "pay a draft",
			steps:   func(sm *ExpenseFSM) error { return sm.Pay(ctx) },
			want:    models.ExpenseStateDraft,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expense := &models.Expense{State: models.ExpenseStateDraft}
			err := tt.steps(NewExpenseFSM(expense))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTransition)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, expense.State)
		})
	}
}

func TestExitFSM(t *testing.T) {
	ctx := context.Background()
	exit := &models.TenantExit{Status: models.ExitStatusNoticeGiven}

	sm := NewExitFSM(exit)
	assert.ErrorIs(t, sm.Archive(ctx), ErrTransition)
	require.NoError(t, sm.Complete(ctx))
	require.NoError(t, sm.Archive(ctx))
	assert.Equal(t, models.ExitStatusArchived, exit.Status)
}

func TestRoomFSM_OccupyAndVacate(t *testing.T) {
	ctx := context.Background()
	room := &models.Room{Status: models.RoomStatusVacant}

	sm := NewRoomFSM(room)
	require.NoError(t, sm.Book(ctx))
	require.NoError(t, sm.Occupy(ctx, 7, 11))
	assert.Equal(t, models.RoomStatusOccupied, room.Status)
	require.NotNil(t, room.CurrentTenantID)
	assert.Equal(t, uint(7), *room.CurrentTenantID)
	assert.True(t, room.OccupancyConsistent())

	assert.ErrorIs(t, sm.Occupy(ctx, 8, 12), ErrTransition)

	require.NoError(t, sm.Vacate(ctx))
	assert.Equal(t, models.RoomStatusVacant, room.Status)
	assert.Nil(t, room.CurrentTenantID)
	assert.Nil(t, room.CurrentAgreementID)
	assert.True(t, room.OccupancyConsistent())
}

func TestRoomFSM_Maintenance(t *testing.T) {
	ctx := context.Background()
	room := &models.Room{Status: models.RoomStatusVacant}

	sm := NewRoomFSM(room)
	require.NoError(t, sm.SetMaintenance(ctx))
	assert.ErrorIs(t, sm.Occupy(ctx, 1, 1), ErrTransition)
	require.NoError(t, sm.MarkNotAvailable(ctx))
	assert.Equal(t, models.RoomStatusNotAvailable, room.Status)
	require.NoError(t, sm.Vacate(ctx))
	assert.Equal(t, models.RoomStatusVacant, room.Status)
}

func TestLandlordPaymentFSM(t *testing.T) {
	ctx := context.Background()

	paid := &models.LandlordPayment{Status: models.LandlordPaymentStatusDraft}
	require.NoError(t, NewLandlordPaymentFSM(paid).Pay(ctx))
	assert.Equal(t, models.LandlordPaymentStatusPaid, paid.Status)
	assert.ErrorIs(t, NewLandlordPaymentFSM(paid).Cancel(ctx), ErrTransition)

	cancelled := &models.LandlordPayment{Status: models.LandlordPaymentStatusDraft}
	require.NoError(t, NewLandlordPaymentFSM(cancelled).Cancel(ctx))
	assert.ErrorIs(t, NewLandlordPaymentFSM(cancelled).Pay(ctx), ErrTransition)
	assert.Equal(t, models.LandlordPaymentStatusCancelled, cancelled.Status)
}

func TestStaffSalaryFSM(t *testing.T) {
	ctx := context.Background()
	salary := &models.StaffSalary{Status: models.StaffSalaryStatusDraft}

	sm := NewStaffSalaryFSM(salary)
	assert.ErrorIs(t, sm.Pay(ctx), ErrTransition)
	require.NoError(t, sm.Approve(ctx))
	require.NoError(t, sm.Pay(ctx))
	assert.Equal(t, models.StaffSalaryStatusPaid, salary.Status)
}

func TestBankTransferFSM(t *testing.T) {
	ctx := context.Background()
	transfer := &models.BankTransfer{Status: models.BankTransferStatusPending}

	sm := NewBankTransferFSM(transfer)
	assert.ErrorIs(t, sm.Reconcile(ctx), ErrTransition)
	require.NoError(t, sm.Verify(ctx))
	require.NoError(t, sm.Reconcile(ctx))
	assert.Equal(t, models.BankTransferStatusReconciled, transfer.Status)
	assert.ErrorIs(t, sm.Verify(ctx), ErrTransition)
}
