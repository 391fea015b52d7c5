package statemachine

import (
	"context"

	"github.com/looplab/fsm"
	"github.com/sjperalta/rentdesk-api/internal/models"
)

// CollectionFSM wraps a collection with its state machine
type CollectionFSM struct {
	collection *models.Collection
	fsm        *fsm.FSM
}

// NewCollectionFSM creates a new collection state machine
func NewCollectionFSM(collection *models.Collection) *CollectionFSM {
	cfsm := &CollectionFSM{
		collection: collection,
	}

	cfsm.fsm = fsm.NewFSM(
		collection.Status,
		fsm.Events{
			{Name: "collect", Src: []string{models.CollectionStatusDraft}, Dst: models.CollectionStatusCollected},
			{Name: "verify", Src: []string{models.CollectionStatusCollected}, Dst: models.CollectionStatusVerified},
			{Name: "deposit", Src: []string{models.CollectionStatusVerified}, Dst: models.CollectionStatusDeposited},
			{Name: "cancel", Src: []string{
				models.CollectionStatusDraft,
				models.CollectionStatusCollected,
				models.CollectionStatusVerified,
			}, Dst: models.CollectionStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

func (c *CollectionFSM) setStatus(s string) { c.collection.Status = s }

// Collect transitions collection to collected state
func (c *CollectionFSM) Collect(ctx context.Context) error {
	return fire(ctx, c.fsm, c.collection.MayCollect(), "collection", "collect", c.setStatus)
}

// Verify transitions collection to verified state
func (c *CollectionFSM) Verify(ctx context.Context) error {
	return fire(ctx, c.fsm, c.collection.MayVerify(), "collection", "verify", c.setStatus)
}

// Deposit transitions collection to deposited state
func (c *CollectionFSM) Deposit(ctx context.Context) error {
	return fire(ctx, c.fsm, c.collection.MayDeposit(), "collection", "deposit", c.setStatus)
}

// Cancel transitions collection to cancelled state
func (c *CollectionFSM) Cancel(ctx context.Context) error {
	return fire(ctx, c.fsm, c.collection.MayCancel(), "collection", "cancel", c.setStatus)
}

// Current returns the current state
func (c *CollectionFSM) Current() string {
	return c.fsm.Current()
}
