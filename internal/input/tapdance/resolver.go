package tapdance

import (
	"fmt"
	"sort"
	"time"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

// DefaultTerm is the default tapping term.
const DefaultTerm = 200 * time.Millisecond

// State is the phase of one dance.
type State uint8

const (
	// StateIdle means no dance is running.
	StateIdle State = iota
	// StatePressed means the key is down and undecided.
	StatePressed
	// StateWaiting means the key was tapped and the term is still running.
	StateWaiting
	// StateTapFired means the tap action is held.
	StateTapFired
	// StateHoldFired means the hold action is held.
	StateHoldFired
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePressed:
		return "pressed"
	case StateWaiting:
		return "waiting"
	case StateTapFired:
		return "tap-fired"
	case StateHoldFired:
		return "hold-fired"
	default:
		return fmt.Sprintf("state(%d)", s)
	}
}

// Resolution is the outcome of a dance.
type Resolution uint8

const (
	ResolvedTap Resolution = iota
	ResolvedHold
)

// String returns "tap" or "hold".
func (r Resolution) String() string {
	if r == ResolvedHold {
		return "hold"
	}
	return "tap"
}

// Emit asks the caller to press or release an action.
type Emit struct {
	Pos        key.Position
	Action     action.Action
	Pressed    bool
	Resolution Resolution
	Time       time.Time
}

// Config configures resolution timing.
type Config struct {
	// Term is how long a key must be held to resolve hold.
	Term time.Duration

	// PermissiveHold resolves hold when another key is tapped
	// while the dual-role key is held.
	PermissiveHold bool
}

// dance is the state of one position.
type dance struct {
	binding     Binding
	state       State
	count       int
	pressedAt   time.Time
	interrupted bool

	// held is the action to release when the key comes up.
	held action.Action
}

// Resolver runs one dance per position.
// It is not safe for concurrent use.
type Resolver struct {
	config Config
	dances map[key.Position]*dance
}

// NewResolver creates a resolver.
func NewResolver(config Config) *Resolver {
	if config.Term <= 0 {
		config.Term = DefaultTerm
	}
	return &Resolver{
		config: config,
		dances: make(map[key.Position]*dance),
	}
}

// Config returns the resolver configuration.
func (r *Resolver) Config() Config {
	return r.config
}

// State returns the state of the dance at pos.
func (r *Resolver) State(pos key.Position) State {
	if d, ok := r.dances[pos]; ok {
		return d.state
	}
	return StateIdle
}

// Count returns the press count of the dance at pos.
func (r *Resolver) Count(pos key.Position) int {
	if d, ok := r.dances[pos]; ok {
		return d.count
	}
	return 0
}

// Owns reports whether a release at pos belongs to the resolver.
func (r *Resolver) Owns(pos key.Position) bool {
	d, ok := r.dances[pos]
	return ok && d.state != StateWaiting
}

// Undecided reports whether a dance could still resolve hold.
// Callers with permissive hold defer other events while this is true.
func (r *Resolver) Undecided() bool {
	for _, d := range r.dances {
		if d.state == StatePressed && d.count == 1 {
			return true
		}
	}
	return false
}

// Press starts or continues the dance at pos.
// A press within the term of a tapped dance increases its count.
func (r *Resolver) Press(pos key.Position, b Binding, at time.Time) []Emit {
	var out []Emit
	d, ok := r.dances[pos]
	if ok && d.state == StateWaiting && d.binding == b {
		d.count++
	} else {
		out = r.end(pos, at)
		d = &dance{binding: b, count: 1}
		r.dances[pos] = d
	}
	d.state = StatePressed
	d.pressedAt = at
	d.interrupted = false
	return out
}

// Release handles the key at pos going up.
func (r *Resolver) Release(pos key.Position, at time.Time) []Emit {
	d, ok := r.dances[pos]
	if !ok {
		return nil
	}

	switch d.state {
	case StatePressed:
		// Released before resolution: flush the tap so it is never lost.
		d.state = StateWaiting
		return flushTap(pos, d, at)
	case StateTapFired, StateHoldFired:
		out := []Emit{r.release(pos, d, at)}
		delete(r.dances, pos)
		return out
	}
	return nil
}

// Interrupt tells running dances that another key went down.
func (r *Resolver) Interrupt(pos key.Position, at time.Time) []Emit {
	var out []Emit
	for _, p := range r.positions() {
		if p == pos {
			continue
		}
		d := r.dances[p]
		switch d.state {
		case StatePressed:
			d.interrupted = true
			if !r.config.PermissiveHold || d.count > 1 {
				out = append(out, r.resolve(p, d, ResolvedTap, at))
			}
		case StateWaiting:
			delete(r.dances, p)
		}
	}
	return out
}

// NestedTap resolves undecided dances as hold after another key was
// pressed and released while they were held.
func (r *Resolver) NestedTap(at time.Time) []Emit {
	var out []Emit
	for _, p := range r.positions() {
		d := r.dances[p]
		if d.state == StatePressed && d.count == 1 && d.interrupted {
			out = append(out, r.resolve(p, d, ResolvedHold, at))
		}
	}
	return out
}

// Tick resolves dances whose term has passed.
func (r *Resolver) Tick(now time.Time) []Emit {
	var out []Emit
	for _, p := range r.positions() {
		d := r.dances[p]
		if now.Sub(d.pressedAt) < r.config.Term {
			continue
		}
		switch d.state {
		case StatePressed:
			res := ResolvedTap
			if d.count == 1 && (!d.interrupted || r.config.PermissiveHold) {
				res = ResolvedHold
			}
			out = append(out, r.resolve(p, d, res, now))
		case StateWaiting:
			delete(r.dances, p)
		}
	}
	return out
}

// Deadline returns the earliest term expiry of a running dance.
func (r *Resolver) Deadline() (time.Time, bool) {
	var next time.Time
	found := false
	for _, d := range r.dances {
		if d.state != StatePressed && d.state != StateWaiting {
			continue
		}
		t := d.pressedAt.Add(r.config.Term)
		if !found || t.Before(next) {
			next = t
			found = true
		}
	}
	return next, found
}

// Flush ends undecided dances as complete taps. Resolved dances keep
// their held action.
func (r *Resolver) Flush(at time.Time) []Emit {
	var out []Emit
	for _, p := range r.positions() {
		d := r.dances[p]
		if d.state != StatePressed {
			continue
		}
		delete(r.dances, p)
		out = append(out, flushTap(p, d, at)...)
	}
	return out
}

// Reset ends all dances, flushing undecided presses as taps and
// releasing every held action.
func (r *Resolver) Reset(at time.Time) []Emit {
	var out []Emit
	for _, p := range r.positions() {
		out = append(out, r.end(p, at)...)
	}
	return out
}

// end finishes the dance at pos, releasing anything it holds.
// An undecided press is flushed as a tap.
func (r *Resolver) end(pos key.Position, at time.Time) []Emit {
	d, ok := r.dances[pos]
	if !ok {
		return nil
	}
	delete(r.dances, pos)
	switch d.state {
	case StatePressed:
		return flushTap(pos, d, at)
	case StateTapFired, StateHoldFired:
		return []Emit{r.release(pos, d, at)}
	}
	return nil
}

func (r *Resolver) resolve(pos key.Position, d *dance, res Resolution, at time.Time) Emit {
	act := d.binding.Tap
	d.state = StateTapFired
	if res == ResolvedHold {
		act = d.binding.Hold
		d.state = StateHoldFired
	}
	d.held = act
	return Emit{Pos: pos, Action: act, Pressed: true, Resolution: res, Time: at}
}

func (r *Resolver) release(pos key.Position, d *dance, at time.Time) Emit {
	res := ResolvedTap
	if d.state == StateHoldFired {
		res = ResolvedHold
	}
	act := d.held
	d.held = action.None
	d.state = StateIdle
	return Emit{Pos: pos, Action: act, Pressed: false, Resolution: res, Time: at}
}

// positions returns dance positions in order so output is deterministic.
func (r *Resolver) positions() []key.Position {
	ps := make([]key.Position, 0, len(r.dances))
	for p := range r.dances {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}

// flushTap emits a complete tap for a press that never resolved.
func flushTap(pos key.Position, d *dance, at time.Time) []Emit {
	return []Emit{
		{Pos: pos, Action: d.binding.Tap, Pressed: true, Resolution: ResolvedTap, Time: at},
		{Pos: pos, Action: d.binding.Tap, Pressed: false, Resolution: ResolvedTap, Time: at},
	}
}
