package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// InvoiceFSM wraps an invoice with its state machine.
// paid and partial are reached through the payment recompute, not through events.
type InvoiceFSM struct {
	invoice *models.Invoice
	fsm     *fsm.FSM
}

// NewInvoiceFSM creates a new invoice state machine
func NewInvoiceFSM(invoice *models.Invoice) *InvoiceFSM {
	ifsm := &InvoiceFSM{
		invoice: invoice,
	}

	ifsm.fsm = fsm.NewFSM(
		invoice.State,
		fsm.Events{
			{Name: "post", Src: []string{models.InvoiceStateDraft}, Dst: models.InvoiceStatePosted},
			{Name: "cancel", Src: []string{models.InvoiceStateDraft, models.InvoiceStatePosted}, Dst: models.InvoiceStateCancelled},
			{Name: "draft", Src: []string{models.InvoiceStateCancelled}, Dst: models.InvoiceStateDraft},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

func (i *InvoiceFSM) setState(s string) { i.invoice.State = s }

// Post transitions invoice to posted state
func (i *InvoiceFSM) Post(ctx context.Context) error {
	return fire(ctx, i.fsm, i.invoice.MayPost(), "invoice", "post", i.setState)
}

// Cancel transitions invoice to cancelled state
func (i *InvoiceFSM) Cancel(ctx context.Context) error {
	return fire(ctx, i.fsm, i.invoice.MayCancel(), "invoice", "cancel", i.setState)
}

// ResetToDraft reopens a cancelled invoice
func (i *InvoiceFSM) ResetToDraft(ctx context.Context) error {
	return fire(ctx, i.fsm, i.invoice.MayResetToDraft(), "invoice", "draft", i.setState)
}

// Current returns the current state
func (i *InvoiceFSM) Current() string {
	return i.fsm.Current()
}

// Can checks if a transition is possible
func (i *InvoiceFSM) Can(event string) bool {
	return i.fsm.Can(event)
}
