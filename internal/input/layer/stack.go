package layer

import (
	"slices"

	"github.com/dshills/keyflow/internal/input/action"
)

// ChangeEvent describes an active stack change.
// Old and New are snapshots ordered from base to most recent.
type ChangeEvent struct {
	Old []ID
	New []ID
}

// Contains reports whether the new stack contains id.
func (e ChangeEvent) Contains(id ID) bool {
	return slices.Contains(e.New, id)
}

// Activated reports whether id became active with this change.
func (e ChangeEvent) Activated(id ID) bool {
	return !slices.Contains(e.Old, id) && slices.Contains(e.New, id)
}

// Deactivated reports whether id stopped being active with this change.
func (e ChangeEvent) Deactivated(id ID) bool {
	return slices.Contains(e.Old, id) && !slices.Contains(e.New, id)
}

// ChangeCallback is called after the active stack changes.
type ChangeCallback func(ChangeEvent)

// Stack is the set of active layers ordered by activation recency.
// The base layer is always at the bottom and cannot be removed.
//
// Stack is not safe for concurrent use; it is owned by the event loop.
type Stack struct {
	// active holds layer ids, base first, most recent last.
	active []ID

	// callbacks are notified on every effective change.
	callbacks []ChangeCallback
}

// NewStack creates a stack holding only the base layer.
func NewStack() *Stack {
	return &Stack{
		active: []ID{action.BaseLayer},
	}
}

// OnChange registers a callback for stack changes.
func (s *Stack) OnChange(cb ChangeCallback) {
	s.callbacks = append(s.callbacks, cb)
}

// Activate puts a layer on top of the stack.
// An already active layer moves to the top.
func (s *Stack) Activate(id ID) {
	if id == action.BaseLayer {
		return
	}
	if s.Top() == id {
		return
	}
	old := s.Active()
	s.active = slices.DeleteFunc(s.active, func(a ID) bool { return a == id })
	s.active = append(s.active, id)
	s.notify(old)
}

// Deactivate removes a layer from the stack.
// Deactivating the base layer or an inactive layer does nothing.
func (s *Stack) Deactivate(id ID) {
	if id == action.BaseLayer || !s.Contains(id) {
		return
	}
	old := s.Active()
	s.active = slices.DeleteFunc(s.active, func(a ID) bool { return a == id })
	s.notify(old)
}

// Toggle activates an inactive layer or deactivates an active one.
func (s *Stack) Toggle(id ID) {
	if s.Contains(id) {
		s.Deactivate(id)
		return
	}
	s.Activate(id)
}

// Contains reports whether a layer is active.
func (s *Stack) Contains(id ID) bool {
	return slices.Contains(s.active, id)
}

// Top returns the most recently activated layer.
func (s *Stack) Top() ID {
	return s.active[len(s.active)-1]
}

// Active returns a snapshot of the active layers, base first.
func (s *Stack) Active() []ID {
	return slices.Clone(s.active)
}

// Len returns the number of active layers including the base.
func (s *Stack) Len() int {
	return len(s.active)
}

// Reset drops every layer except the base.
func (s *Stack) Reset() {
	if len(s.active) == 1 {
		return
	}
	old := s.Active()
	s.active = s.active[:1]
	s.notify(old)
}

func (s *Stack) notify(old []ID) {
	ev := ChangeEvent{Old: old, New: s.Active()}
	for _, cb := range s.callbacks {
		if cb != nil {
			cb(ev)
		}
	}
}
