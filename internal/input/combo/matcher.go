package combo

import (
	"fmt"
	"time"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

// DefaultWindow is the default time allowed to complete a combo.
const DefaultWindow = 50 * time.Millisecond

// EmitKind identifies what an Emit asks the caller to do.
type EmitKind uint8

const (
	// EmitKeyPress passes a physical press on to layer resolution.
	EmitKeyPress EmitKind = iota
	// EmitKeyRelease passes a physical release on.
	EmitKeyRelease
	// EmitComboPress executes a combo output.
	EmitComboPress
	// EmitComboRelease releases a combo output.
	EmitComboRelease
)

// String returns the emit kind name.
func (k EmitKind) String() string {
	switch k {
	case EmitKeyPress:
		return "key-press"
	case EmitKeyRelease:
		return "key-release"
	case EmitComboPress:
		return "combo-press"
	case EmitComboRelease:
		return "combo-release"
	default:
		return fmt.Sprintf("emit(%d)", k)
	}
}

// Emit is one instruction produced by the Matcher.
type Emit struct {
	Kind EmitKind

	// Event is the physical event, or for combo emits the event that
	// completed or ended the combo.
	Event key.Event

	// Action is the binding resolved at press time, or the combo output.
	Action action.Action

	// Combo names the combo for combo emits.
	Combo string

	// Replayed is set on presses that were buffered before being passed on.
	Replayed bool
}

type pending struct {
	ev  key.Event
	act action.Action
}

type fired struct {
	def  *Definition
	held map[key.Position]bool
}

// Matcher detects combos in a stream of key events.
// It is not safe for concurrent use.
type Matcher struct {
	defs   []Definition
	window time.Duration

	// buffer holds presses that may still complete a combo, in order.
	buffer []pending

	// fired holds combos whose output is still pressed.
	fired []*fired

	// consumed maps positions to the fired combo that swallowed them.
	consumed map[key.Position]*fired
}

// NewMatcher validates definitions and creates a matcher.
// Definitions with identical trigger sets are rejected. Overlapping sets
// are allowed; the earlier definition wins when both complete.
func NewMatcher(window time.Duration, defs ...Definition) (*Matcher, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	for i, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		for _, prev := range defs[:i] {
			if d.sameSet(prev) {
				return nil, fmt.Errorf("%w: %q and %q share triggers", ErrAmbiguous, prev.Name, d.Name)
			}
		}
	}
	m := &Matcher{
		defs:     make([]Definition, len(defs)),
		window:   window,
		consumed: make(map[key.Position]*fired),
	}
	copy(m.defs, defs)
	return m, nil
}

// Definitions returns the registered combos in order.
func (m *Matcher) Definitions() []Definition {
	defs := make([]Definition, len(m.defs))
	copy(defs, m.defs)
	return defs
}

// Window returns the completion window.
func (m *Matcher) Window() time.Duration {
	return m.window
}

// Pending reports whether presses are buffered.
func (m *Matcher) Pending() bool {
	return len(m.buffer) > 0
}

// Deadline returns when the buffered presses expire.
func (m *Matcher) Deadline() (time.Time, bool) {
	if len(m.buffer) == 0 {
		return time.Time{}, false
	}
	return m.buffer[0].ev.Time.Add(m.window), true
}

// IsMember reports whether a binding is a trigger of any combo.
func (m *Matcher) IsMember(binding action.Action) bool {
	for i := range m.defs {
		if m.defs[i].Has(binding) {
			return true
		}
	}
	return false
}

// Press handles a physical press whose binding resolved to act.
func (m *Matcher) Press(ev key.Event, act action.Action) []Emit {
	out := m.Tick(ev.Time)

	if !m.IsMember(act) {
		out = append(out, m.flush()...)
		return append(out, Emit{Kind: EmitKeyPress, Event: ev, Action: act})
	}

	m.buffer = append(m.buffer, pending{ev: ev, act: act})
	return append(out, m.settle(ev)...)
}

// Release handles a physical release.
func (m *Matcher) Release(ev key.Event) []Emit {
	out := m.Tick(ev.Time)

	if f, ok := m.consumed[ev.Pos]; ok {
		delete(m.consumed, ev.Pos)
		delete(f.held, ev.Pos)
		if len(f.held) == 0 {
			m.dropFired(f)
			out = append(out, m.flush()...)
			out = append(out, Emit{Kind: EmitComboRelease, Event: ev, Action: f.def.Output, Combo: f.def.Name})
		}
		return out
	}

	// Any other release ends the chord so output keeps arrival order.
	out = append(out, m.flush()...)
	return append(out, Emit{Kind: EmitKeyRelease, Event: ev})
}

// Tick replays buffered presses once the window has passed.
func (m *Matcher) Tick(now time.Time) []Emit {
	if len(m.buffer) == 0 {
		return nil
	}
	if now.Sub(m.buffer[0].ev.Time) <= m.window {
		return nil
	}
	return m.flush()
}

// Reset replays buffered presses, then releases every fired combo output.
func (m *Matcher) Reset(now time.Time) []Emit {
	out := m.flush()
	for _, f := range m.fired {
		out = append(out, Emit{
			Kind:   EmitComboRelease,
			Event:  key.Event{Time: now},
			Action: f.def.Output,
			Combo:  f.def.Name,
		})
	}
	m.fired = nil
	clear(m.consumed)
	return out
}

// settle fires a completed combo or replays the oldest presses until the
// buffer can still become a combo.
func (m *Matcher) settle(ev key.Event) []Emit {
	var out []Emit
	for len(m.buffer) > 0 {
		acts := m.bufferedActions()
		if d := m.firstComplete(acts); d != nil {
			return append(out, m.fire(d, ev))
		}
		if m.coverable(acts) {
			return out
		}
		out = append(out, replay(m.buffer[0]))
		m.buffer = m.buffer[1:]
	}
	return out
}

func (m *Matcher) fire(d *Definition, ev key.Event) Emit {
	f := &fired{def: d, held: make(map[key.Position]bool, len(m.buffer))}
	for _, p := range m.buffer {
		f.held[p.ev.Pos] = true
		m.consumed[p.ev.Pos] = f
	}
	m.fired = append(m.fired, f)
	m.buffer = nil
	return Emit{Kind: EmitComboPress, Event: ev, Action: d.Output, Combo: d.Name}
}

func (m *Matcher) dropFired(f *fired) {
	for i, x := range m.fired {
		if x == f {
			m.fired = append(m.fired[:i], m.fired[i+1:]...)
			return
		}
	}
}

func (m *Matcher) flush() []Emit {
	if len(m.buffer) == 0 {
		return nil
	}
	out := make([]Emit, 0, len(m.buffer))
	for _, p := range m.buffer {
		out = append(out, replay(p))
	}
	m.buffer = nil
	return out
}

func (m *Matcher) bufferedActions() []action.Action {
	acts := make([]action.Action, len(m.buffer))
	for i, p := range m.buffer {
		acts[i] = p.act
	}
	return acts
}

func (m *Matcher) firstComplete(acts []action.Action) *Definition {
	for i := range m.defs {
		if m.defs[i].complete(acts) {
			return &m.defs[i]
		}
	}
	return nil
}

func (m *Matcher) coverable(acts []action.Action) bool {
	for i := range m.defs {
		if m.defs[i].covers(acts) {
			return true
		}
	}
	return false
}

func replay(p pending) Emit {
	return Emit{Kind: EmitKeyPress, Event: p.ev, Action: p.act, Replayed: true}
}
