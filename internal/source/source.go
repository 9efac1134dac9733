// Package source feeds raw key and motion events to the runner.
//
// Every source runs on its own goroutine and only sends on a channel;
// the engine is never touched from here. Sources stamp events with the
// time they were read, using an injectable clock.
package source

import (
	"context"
	"fmt"

	"github.com/dshills/keyflow/internal/input/key"
)

// Kind distinguishes event payloads.
type Kind uint8

const (
	KindKey Kind = iota
	KindMotion
)

// Event is one raw input event.
type Event struct {
	Kind   Kind
	Key    key.Event
	Motion key.Motion
}

// KeyEvent wraps a key event.
func KeyEvent(ev key.Event) Event {
	return Event{Kind: KindKey, Key: ev}
}

// MotionEvent wraps a motion sample.
func MotionEvent(m key.Motion) Event {
	return Event{Kind: KindMotion, Motion: m}
}

// String renders the event in the line protocol.
func (e Event) String() string {
	if e.Kind == KindMotion {
		return fmt.Sprintf("M %d %d", e.Motion.DX, e.Motion.DY)
	}
	if e.Key.Pressed {
		return fmt.Sprintf("D %d", e.Key.Pos)
	}
	return fmt.Sprintf("U %d", e.Key.Pos)
}

// Source produces events until ctx is done or input ends.
// Run returns nil at end of input.
type Source interface {
	Run(ctx context.Context, events chan<- Event) error
}

// send delivers ev unless ctx is done first.
func send(ctx context.Context, events chan<- Event, ev Event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
