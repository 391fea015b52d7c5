package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// PaymentFSM wraps a payment with its state machine
type PaymentFSM struct {
	payment *models.Payment
	fsm     *fsm.FSM
}

// NewPaymentFSM creates a new payment state machine
func NewPaymentFSM(payment *models.Payment) *PaymentFSM {
	pfsm := &PaymentFSM{
		payment: payment,
	}

	pfsm.fsm = fsm.NewFSM(
		payment.State,
		fsm.Events{
			// draft → posted
			{Name: "post", Src: []string{models.PaymentStateDraft}, Dst: models.PaymentStatePosted},

			// posted → reconciled
			{Name: "reconcile", Src: []string{models.PaymentStatePosted}, Dst: models.PaymentStateReconciled},

			// draft/posted → cancelled
			{Name: "cancel", Src: []string{models.PaymentStateDraft, models.PaymentStatePosted}, Dst: models.PaymentStateCancelled},

			// cancelled → draft
			{Name: "draft", Src: []string{models.PaymentStateCancelled}, Dst: models.PaymentStateDraft},
		},
		fsm.Callbacks{},
	)

	return pfsm
}

func (p *PaymentFSM) setState(s string) { p.payment.State = s }

// Post transitions payment to posted state
func (p *PaymentFSM) Post(ctx context.Context) error {
	return fire(ctx, p.fsm, p.payment.MayPost(), "payment", "post", p.setState)
}

// Reconcile transitions payment to reconciled state
func (p *PaymentFSM) Reconcile(ctx context.Context) error {
	return fire(ctx, p.fsm, p.payment.MayReconcile(), "payment", "reconcile", p.setState)
}

// Cancel transitions payment to cancelled state
func (p *PaymentFSM) Cancel(ctx context.Context) error {
	return fire(ctx, p.fsm, p.payment.MayCancel(), "payment", "cancel", p.setState)
}

// ResetToDraft reopens a cancelled payment
func (p *PaymentFSM) ResetToDraft(ctx context.Context) error {
	return fire(ctx, p.fsm, p.payment.MayResetToDraft(), "payment", "draft", p.setState)
}

// Current returns the current state
func (p *PaymentFSM) Current() string {
	return p.fsm.Current()
}

// Can checks if a transition is possible
func (p *PaymentFSM) Can(event string) bool {
	return p.fsm.Can(event)
}
