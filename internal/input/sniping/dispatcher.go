// Package sniping keeps the pointer's precision mode in step with the
// active layers.
package sniping

import (
	"github.com/dshills/keyflow/internal/input/layer"
)

// ModeSetter switches the pointer's sniping mode.
type ModeSetter interface {
	SetSnipingEnabled(on bool)
}

// Dispatcher enables sniping while a given layer is active.
// It calls the setter on every stack change, whether or not the
// result flipped.
type Dispatcher struct {
	layer  layer.ID
	setter ModeSetter
}

// NewDispatcher creates a dispatcher for the given layer.
func NewDispatcher(id layer.ID, setter ModeSetter) *Dispatcher {
	return &Dispatcher{layer: id, setter: setter}
}

// Layer returns the layer that enables sniping.
func (d *Dispatcher) Layer() layer.ID {
	return d.layer
}

// Attach subscribes the dispatcher to a stack and applies its current state.
func (d *Dispatcher) Attach(stack *layer.Stack) {
	stack.OnChange(d.HandleChange)
	d.Apply(stack.Active())
}

// HandleChange is a layer.ChangeCallback.
func (d *Dispatcher) HandleChange(ev layer.ChangeEvent) {
	d.Apply(ev.New)
}

// Apply sets sniping from an active layer list and returns the value set.
func (d *Dispatcher) Apply(active []layer.ID) bool {
	on := false
	for _, id := range active {
		if id == d.layer {
			on = true
			break
		}
	}
	if d.setter != nil {
		d.setter.SetSnipingEnabled(on)
	}
	return on
}
