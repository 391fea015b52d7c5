package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// AgreementFSM wraps an agreement with its state machine
type AgreementFSM struct {
	agreement *models.Agreement
	fsm       *fsm.FSM
}

// NewAgreementFSM creates a new agreement state machine
func NewAgreementFSM(agreement *models.Agreement) *AgreementFSM {
	afsm := &AgreementFSM{
		agreement: agreement,
	}

	afsm.fsm = fsm.NewFSM(
		agreement.State,
		fsm.Events{
			// draft → active
			{Name: "activate", Src: []string{models.AgreementStateDraft}, Dst: models.AgreementStateActive},

			// active → terminated
			{Name: "terminate", Src: []string{models.AgreementStateActive}, Dst: models.AgreementStateTerminated},

			// active → expired (end date passed)
			{Name: "expire", Src: []string{models.AgreementStateActive}, Dst: models.AgreementStateExpired},

			// draft → cancelled
			{Name: "cancel", Src: []string{models.AgreementStateDraft}, Dst: models.AgreementStateCancelled},
		},
		fsm.Callbacks{},
	)

	return afsm
}

func (a *AgreementFSM) setState(s string) { a.agreement.State = s }

// Activate transitions agreement to active state
func (a *AgreementFSM) Activate(ctx context.Context) error {
	return fire(ctx, a.fsm, a.agreement.MayActivate(), "agreement", "activate", a.setState)
}

// Terminate transitions agreement to terminated state
func (a *AgreementFSM) Terminate(ctx context.Context) error {
	return fire(ctx, a.fsm, a.agreement.MayTerminate(), "agreement", "terminate", a.setState)
}

// Expire transitions agreement to expired state
func (a *AgreementFSM) Expire(ctx context.Context) error {
	return fire(ctx, a.fsm, a.agreement.MayExpire(), "agreement", "expire", a.setState)
}

// Cancel transitions agreement to cancelled state
func (a *AgreementFSM) Cancel(ctx context.Context) error {
	return fire(ctx, a.fsm, a.agreement.MayCancel(), "agreement", "cancel", a.setState)
}

// Current returns the current state
func (a *AgreementFSM) Current() string {
	return a.fsm.Current()
}

// Can checks if a transition is possible
func (a *AgreementFSM) Can(event string) bool {
	return a.fsm.Can(event)
}
