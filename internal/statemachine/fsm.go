package statemachine

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// ErrTransition is returned when an event is not allowed from the current state
var ErrTransition = errors.New("invalid state transition")

// fire runs event on f once the model guard allows it and stores the new state
func fire(ctx context.Context, f *fsm.FSM, allowed bool, entity, event string, set func(string)) error {
	if !allowed {
		return fmt.Errorf("%w: %s cannot %s in state %s", ErrTransition, entity, event, f.Current())
	}

	if err := f.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			set(f.Current())
			return nil
		}
		return fmt.Errorf("%w: failed to %s %s: %v", ErrTransition, event, entity, err)
	}

	set(f.Current())
	return nil
}
