package key

import (
	"fmt"
	"time"
)

// Position is a physical key index in layout order.
type Position uint8

// Event is a press or release of a physical position.
type Event struct {
	// Pos identifies the physical key.
	Pos Position

	// Pressed is true for key down, false for key up.
	Pressed bool

	// Time is when the matrix scan observed the change.
	Time time.Time
}

// Press creates a key-down event.
func Press(pos Position, at time.Time) Event {
	return Event{Pos: pos, Pressed: true, Time: at}
}

// Release creates a key-up event.
func Release(pos Position, at time.Time) Event {
	return Event{Pos: pos, Pressed: false, Time: at}
}

// String returns a compact representation like "down(12)".
func (e Event) String() string {
	if e.Pressed {
		return fmt.Sprintf("down(%d)", e.Pos)
	}
	return fmt.Sprintf("up(%d)", e.Pos)
}

// Motion is one relative pointer sample, delivered once per polling tick.
type Motion struct {
	DX   int
	DY   int
	Time time.Time
}

// Exceeds returns true if either axis moved more than threshold units.
func (m Motion) Exceeds(threshold int) bool {
	return abs(m.DX) > threshold || abs(m.DY) > threshold
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
