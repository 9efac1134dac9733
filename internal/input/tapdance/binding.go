package tapdance

import (
	"errors"
	"fmt"

	"github.com/dshills/keyflow/internal/input/action"
)

// Binding errors
var (
	ErrInvalidBinding   = errors.New("invalid tap dance binding")
	ErrDuplicateBinding = errors.New("duplicate tap dance binding")
	ErrUnknownBinding   = errors.New("unknown tap dance binding")
)

// Binding is a tap action and a hold action sharing one key.
type Binding struct {
	ID   uint8
	Name string
	Tap  action.Action
	Hold action.Action
}

// TapHold creates an unnamed binding.
func TapHold(tap, hold action.Action) Binding {
	return Binding{Tap: tap, Hold: hold}
}

// ForLayerTap returns the binding an LT action resolves through.
func ForLayerTap(lt action.Action) Binding {
	return Binding{
		Name: lt.String(),
		Tap:  lt.TapKey(),
		Hold: lt.HoldLayer(),
	}
}

// Validate checks that both actions can be executed directly.
func (b Binding) Validate() error {
	for _, a := range []action.Action{b.Tap, b.Hold} {
		switch a.Kind {
		case action.KindTransparent, action.KindTapDance, action.KindLayerTap:
			return fmt.Errorf("%w: %d (%s) cannot use %s", ErrInvalidBinding, b.ID, b.Name, a.Kind)
		}
	}
	return nil
}

// Set holds bindings by id.
type Set struct {
	bindings map[uint8]Binding
	order    []uint8
}

// NewSet validates bindings and indexes them by id.
func NewSet(bindings ...Binding) (*Set, error) {
	s := &Set{bindings: make(map[uint8]Binding, len(bindings))}
	for _, b := range bindings {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		if _, exists := s.bindings[b.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateBinding, b.ID)
		}
		s.bindings[b.ID] = b
		s.order = append(s.order, b.ID)
	}
	return s, nil
}

// Get returns a binding by id.
func (s *Set) Get(id uint8) (Binding, bool) {
	if s == nil {
		return Binding{}, false
	}
	b, ok := s.bindings[id]
	return b, ok
}

// Len returns the number of bindings.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// All returns bindings in registration order.
func (s *Set) All() []Binding {
	if s == nil {
		return nil
	}
	out := make([]Binding, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.bindings[id])
	}
	return out
}
