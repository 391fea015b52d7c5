package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// ExpenseFSM wraps an expense with its approval workflow
type ExpenseFSM struct {
	expense *models.Expense
	fsm     *fsm.FSM
}

// NewExpenseFSM creates a new expense state machine
func NewExpenseFSM(expense *models.Expense) *ExpenseFSM {
	efsm := &ExpenseFSM{
		expense: expense,
	}

	efsm.fsm = fsm.NewFSM(
		expense.State,
		fsm.Events{
			{Name: "submit", Src: []string{models.ExpenseStateDraft}, Dst: models.ExpenseStateSubmitted},
			{Name: "approve", Src: []string{models.ExpenseStateSubmitted}, Dst: models.ExpenseStateApproved},
			{Name: "reject", Src: []string{models.ExpenseStateSubmitted}, Dst: models.ExpenseStateRejected},
			{Name: "pay", Src: []string{models.ExpenseStateApproved}, Dst: models.ExpenseStatePaid},
			{Name: "draft", Src: []string{models.ExpenseStateRejected}, Dst: models.ExpenseStateDraft},
		},
		fsm.Callbacks{},
	)

	return efsm
}

func (e *ExpenseFSM) setState(s string) { e.expense.State = s }

// Submit sends the expense for approval
func (e *ExpenseFSM) Submit(ctx context.Context) error {
	return fire(ctx, e.fsm, e.expense.MaySubmit(), "expense", "submit", e.setState)
}

// Approve approves a submitted expense
func (e *ExpenseFSM) Approve(ctx context.Context) error {
	return fire(ctx, e.fsm, e.expense.MayApprove(), "expense", "approve", e.setState)
}

// Reject rejects a submitted expense
func (e *ExpenseFSM) Reject(ctx context.Context) error {
	return fire(ctx, e.fsm, e.expense.MayReject(), "expense", "reject", e.setState)
}

// Pay marks an approved expense paid
func (e *ExpenseFSM) Pay(ctx context.Context) error {
	return fire(ctx, e.fsm, e.expense.MayPay(), "expense", "pay", e.setState)
}

// ResetToDraft reopens a rejected expense
func (e *ExpenseFSM) ResetToDraft(ctx context.Context) error {
	return fire(ctx, e.fsm, e.expense.MayResetToDraft(), "expense", "draft", e.setState)
}

// Current returns the current state
func (e *ExpenseFSM) Current() string {
	return e.fsm.Current()
}
