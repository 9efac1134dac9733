package combo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/keyflow/internal/input/action"
)

// Definition errors
var (
	ErrTooFewTriggers   = errors.New("combo needs at least two triggers")
	ErrDuplicateTrigger = errors.New("duplicate combo trigger")
	ErrInvalidTrigger   = errors.New("invalid combo trigger")
	ErrAmbiguous        = errors.New("ambiguous combo")
)

// Definition is a chord and the action it produces.
type Definition struct {
	// Name identifies the combo in logs and traces.
	Name string

	// Triggers are the bindings that must be held together.
	// A LayerTap binding matches a trigger equal to its tap keycode.
	Triggers []action.Action

	// Output is executed on fire and released after the last trigger.
	Output action.Action
}

// New creates a definition.
func New(name string, output action.Action, triggers ...action.Action) Definition {
	return Definition{Name: name, Triggers: triggers, Output: output}
}

// Validate checks a single definition.
func (d Definition) Validate() error {
	if len(d.Triggers) < 2 {
		return fmt.Errorf("%w: %q has %d", ErrTooFewTriggers, d.Name, len(d.Triggers))
	}
	for i, t := range d.Triggers {
		if t.IsNoOp() || t.IsTransparent() {
			return fmt.Errorf("%w: %q trigger %d is %s", ErrInvalidTrigger, d.Name, i, t)
		}
		if slices.Contains(d.Triggers[:i], t) {
			return fmt.Errorf("%w: %q repeats %s", ErrDuplicateTrigger, d.Name, t)
		}
	}
	return nil
}

// Has reports whether any trigger matches a binding.
func (d Definition) Has(binding action.Action) bool {
	for _, t := range d.Triggers {
		if t.Matches(binding) {
			return true
		}
	}
	return false
}

// sameSet reports whether two definitions have the same trigger set.
func (d Definition) sameSet(o Definition) bool {
	if len(d.Triggers) != len(o.Triggers) {
		return false
	}
	for _, t := range d.Triggers {
		if !slices.Contains(o.Triggers, t) {
			return false
		}
	}
	return true
}

// covers reports whether every binding can be assigned to a distinct
// trigger of the definition.
func (d Definition) covers(bindings []action.Action) bool {
	if len(bindings) > len(d.Triggers) {
		return false
	}
	used := make([]bool, len(d.Triggers))
	return d.assign(bindings, used)
}

func (d Definition) assign(bindings []action.Action, used []bool) bool {
	if len(bindings) == 0 {
		return true
	}
	for i, t := range d.Triggers {
		if used[i] || !t.Matches(bindings[0]) {
			continue
		}
		used[i] = true
		if d.assign(bindings[1:], used) {
			return true
		}
		used[i] = false
	}
	return false
}

// complete reports whether bindings hold exactly every trigger.
func (d Definition) complete(bindings []action.Action) bool {
	return len(bindings) == len(d.Triggers) && d.covers(bindings)
}
