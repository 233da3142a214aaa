package field

import (
	"fmt"

	"github.com/matthewbaird/inplace/internal/types"
)

// transitions lists the states reachable from each state.
var transitions = map[types.State][]types.State{
	types.StateDisplay:      {types.StateEditing},
	types.StateEditing:      {types.StateSubmitting, types.StateDisplay},
	types.StateSubmitting:   {types.StateDisplay, types.StateErrorDisplay},
	types.StateErrorDisplay: {types.StateSubmitting, types.StateDisplay},
}

// ValidateTransition checks whether moving from current to target is
// allowed. It returns nil if the transition is valid, or a descriptive
// error otherwise.
func ValidateTransition(current, target types.State) error {
	allowed, ok := transitions[current]
	if !ok {
		return fmt.Errorf("unknown current state: %s", current)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("transition from %q to %q is not allowed", current, target)
}
