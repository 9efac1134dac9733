package input

import (
	"fmt"

	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/input/pointer"
)

// Output receives resolved key, button and pointer activity.
// Modifier codes arrive as ordinary KeyDown/KeyUp calls.
type Output interface {
	KeyDown(code key.Code)
	KeyUp(code key.Code)
	ButtonDown(button int)
	ButtonUp(button int)
	Move(m pointer.Movement)
}

// NopOutput discards everything.
type NopOutput struct{}

func (NopOutput) KeyDown(key.Code)      {}
func (NopOutput) KeyUp(key.Code)        {}
func (NopOutput) ButtonDown(int)        {}
func (NopOutput) ButtonUp(int)          {}
func (NopOutput) Move(pointer.Movement) {}

// OutputKind identifies a recorded output call.
type OutputKind uint8

const (
	OutputKeyDown OutputKind = iota
	OutputKeyUp
	OutputButtonDown
	OutputButtonUp
	OutputMove
)

// OutputEvent is one recorded output call.
type OutputEvent struct {
	Kind   OutputKind
	Code   key.Code
	Button int
	Move   pointer.Movement
}

// String renders the event as "+KC_A", "-KC_A", "+BTN1" or "move(1,2,0,0)".
func (e OutputEvent) String() string {
	switch e.Kind {
	case OutputKeyDown:
		return "+" + e.Code.String()
	case OutputKeyUp:
		return "-" + e.Code.String()
	case OutputButtonDown:
		return fmt.Sprintf("+BTN%d", e.Button+1)
	case OutputButtonUp:
		return fmt.Sprintf("-BTN%d", e.Button+1)
	case OutputMove:
		return fmt.Sprintf("move(%d,%d,%d,%d)", e.Move.DX, e.Move.DY, e.Move.Wheel, e.Move.Pan)
	default:
		return "?"
	}
}

// BufferOutput records output calls, optionally forwarding them.
type BufferOutput struct {
	Events []OutputEvent
	Next   Output
}

func (b *BufferOutput) KeyDown(code key.Code) {
	b.Events = append(b.Events, OutputEvent{Kind: OutputKeyDown, Code: code})
	if b.Next != nil {
		b.Next.KeyDown(code)
	}
}

func (b *BufferOutput) KeyUp(code key.Code) {
	b.Events = append(b.Events, OutputEvent{Kind: OutputKeyUp, Code: code})
	if b.Next != nil {
		b.Next.KeyUp(code)
	}
}

func (b *BufferOutput) ButtonDown(button int) {
	b.Events = append(b.Events, OutputEvent{Kind: OutputButtonDown, Button: button})
	if b.Next != nil {
		b.Next.ButtonDown(button)
	}
}

func (b *BufferOutput) ButtonUp(button int) {
	b.Events = append(b.Events, OutputEvent{Kind: OutputButtonUp, Button: button})
	if b.Next != nil {
		b.Next.ButtonUp(button)
	}
}

func (b *BufferOutput) Move(m pointer.Movement) {
	b.Events = append(b.Events, OutputEvent{Kind: OutputMove, Move: m})
	if b.Next != nil {
		b.Next.Move(m)
	}
}

// Strings returns the recorded events rendered with String.
func (b *BufferOutput) Strings() []string {
	out := make([]string, len(b.Events))
	for i, e := range b.Events {
		out[i] = e.String()
	}
	return out
}

// Reset drops recorded events.
func (b *BufferOutput) Reset() {
	b.Events = b.Events[:0]
}
