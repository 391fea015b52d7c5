package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// ExitFSM wraps a tenant exit with its settlement workflow
type ExitFSM struct {
	exit *models.TenantExit
	fsm  *fsm.FSM
}

// NewExitFSM creates a new tenant exit state machine
func NewExitFSM(exit *models.TenantExit) *ExitFSM {
	xfsm := &ExitFSM{
		exit: exit,
	}

	xfsm.fsm = fsm.NewFSM(
		exit.Status,
		fsm.Events{
			{Name: "start", Src: []string{models.ExitStatusNoticeGiven}, Dst: models.ExitStatusInProgress},
			{Name: "complete", Src: []string{models.ExitStatusNoticeGiven, models.ExitStatusInProgress}, Dst: models.ExitStatusCompleted},
			{Name: "archive", Src: []string{models.ExitStatusCompleted}, Dst: models.ExitStatusArchived},
		},
		fsm.Callbacks{},
	)

	return xfsm
}

func (x *ExitFSM) setStatus(s string) { x.exit.Status = s }

// Start moves the exit into progress
func (x *ExitFSM) Start(ctx context.Context) error {
	return fire(ctx, x.fsm, x.exit.MayStart(), "tenant exit", "start", x.setStatus)
}

// Complete settles the exit
func (x *ExitFSM) Complete(ctx context.Context) error {
	return fire(ctx, x.fsm, x.exit.MayComplete(), "tenant exit", "complete", x.setStatus)
}

// Archive archives a completed exit
func (x *ExitFSM) Archive(ctx context.Context) error {
	return fire(ctx, x.fsm, x.exit.MayArchive(), "tenant exit", "archive", x.setStatus)
}

// Current returns the current state
func (x *ExitFSM) Current() string {
	return x.fsm.Current()
}
