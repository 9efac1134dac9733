package tapdance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

var (
	t0      = time.Unix(2000, 0)
	tapX    = action.Key(key.CodeX)
	holdPtr = action.MO(1)
	ptX     = ForLayerTap(action.LT(1, key.CodeX))
)

const (
	posTD    key.Position = 3
	posOther key.Position = 9
)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func newResolver(permissive bool) *Resolver {
	return NewResolver(Config{Term: 200 * time.Millisecond, PermissiveHold: permissive})
}

func press(a action.Action, res Resolution) Emit {
	return Emit{Pos: posTD, Action: a, Pressed: true, Resolution: res}
}

func release(a action.Action, res Resolution) Emit {
	return Emit{Pos: posTD, Action: a, Pressed: false, Resolution: res}
}

// strip removes times so emits compare by content.
func strip(emits []Emit) []Emit {
	out := make([]Emit, len(emits))
	for i, e := range emits {
		e.Time = time.Time{}
		out[i] = e
	}
	return out
}

func TestForLayerTap(t *testing.T) {
	assert.Equal(t, tapX, ptX.Tap)
	assert.Equal(t, holdPtr, ptX.Hold)
	assert.Equal(t, "LT(1, KC_X)", ptX.Name)
}

func TestQuickTapEmitsTapOnly(t *testing.T) {
	r := newResolver(false)

	assert.Empty(t, r.Press(posTD, ptX, at(0)))
	assert.Equal(t, StatePressed, r.State(posTD))

	out := r.Release(posTD, at(50))
	assert.Equal(t, []Emit{press(tapX, ResolvedTap), release(tapX, ResolvedTap)}, strip(out))
	assert.Equal(t, StateWaiting, r.State(posTD))
	assert.False(t, r.Owns(posTD))

	assert.Empty(t, r.Tick(at(300)), "term expiry after a tap emits nothing")
	assert.Equal(t, StateIdle, r.State(posTD))
}

func TestHoldPastTerm(t *testing.T) {
	r := newResolver(false)

	r.Press(posTD, ptX, at(0))
	assert.Empty(t, r.Tick(at(199)))

	out := r.Tick(at(250))
	assert.Equal(t, []Emit{press(holdPtr, ResolvedHold)}, strip(out))
	assert.Equal(t, StateHoldFired, r.State(posTD))
	assert.True(t, r.Owns(posTD))

	out = r.Release(posTD, at(400))
	assert.Equal(t, []Emit{release(holdPtr, ResolvedHold)}, strip(out))
	assert.Equal(t, StateIdle, r.State(posTD))

	assert.Empty(t, r.Release(posTD, at(410)), "release is emitted once")
}

func TestInterruptWithoutPermissiveHoldTaps(t *testing.T) {
	r := newResolver(false)

	r.Press(posTD, ptX, at(0))
	out := r.Interrupt(posOther, at(50))
	assert.Equal(t, []Emit{press(tapX, ResolvedTap)}, strip(out))
	assert.False(t, r.Undecided())

	assert.Empty(t, r.Tick(at(250)), "no hold after interruption")

	out = r.Release(posTD, at(300))
	assert.Equal(t, []Emit{release(tapX, ResolvedTap)}, strip(out))
}

func TestPermissiveHoldNestedTap(t *testing.T) {
	r := newResolver(true)

	r.Press(posTD, ptX, at(0))
	assert.True(t, r.Undecided())

	assert.Empty(t, r.Interrupt(posOther, at(30)))
	assert.True(t, r.Undecided(), "still undecided until the nested key is released")

	out := r.NestedTap(at(60))
	assert.Equal(t, []Emit{press(holdPtr, ResolvedHold)}, strip(out))

	out = r.Release(posTD, at(100))
	assert.Equal(t, []Emit{release(holdPtr, ResolvedHold)}, strip(out))
}

func TestPermissiveHoldTermExpiry(t *testing.T) {
	r := newResolver(true)

	r.Press(posTD, ptX, at(0))
	r.Interrupt(posOther, at(30))

	out := r.Tick(at(200))
	assert.Equal(t, []Emit{press(holdPtr, ResolvedHold)}, strip(out))
}

func TestPermissiveHoldReleaseFirstTaps(t *testing.T) {
	r := newResolver(true)

	r.Press(posTD, ptX, at(0))
	r.Interrupt(posOther, at(30))

	out := r.Release(posTD, at(80))
	assert.Equal(t, []Emit{press(tapX, ResolvedTap), release(tapX, ResolvedTap)}, strip(out))
	assert.Empty(t, r.NestedTap(at(90)))
}

func TestDoubleTapIsTap(t *testing.T) {
	r := newResolver(false)

	r.Press(posTD, ptX, at(0))
	r.Release(posTD, at(40))
	r.Press(posTD, ptX, at(80))
	assert.Equal(t, 2, r.Count(posTD))

	out := r.Tick(at(300))
	assert.Equal(t, []Emit{press(tapX, ResolvedTap)}, strip(out), "count above one never holds")

	out = r.Release(posTD, at(350))
	assert.Equal(t, []Emit{release(tapX, ResolvedTap)}, strip(out))
}

func TestInterruptEndsWaitingDance(t *testing.T) {
	r := newResolver(false)

	r.Press(posTD, ptX, at(0))
	r.Release(posTD, at(40))
	assert.Empty(t, r.Interrupt(posOther, at(60)))
	assert.Equal(t, StateIdle, r.State(posTD))

	r.Press(posTD, ptX, at(80))
	assert.Equal(t, 1, r.Count(posTD), "a new dance starts after interruption")
}

func TestEveryPressResolvesOnce(t *testing.T) {
	// Random-ish schedule of presses, releases, interruptions and ticks.
	type step struct {
		ms   int
		kind string
	}
	schedules := [][]step{
		{{0, "down"}, {10, "up"}},
		{{0, "down"}, {300, "tick"}, {310, "up"}},
		{{0, "down"}, {50, "int"}, {60, "up"}},
		{{0, "down"}, {50, "int"}, {300, "tick"}, {310, "up"}},
		{{0, "down"}, {20, "up"}, {40, "down"}, {60, "up"}, {80, "down"}, {400, "tick"}, {450, "up"}},
		{{0, "down"}, {100, "reset"}},
		{{0, "down"}, {300, "tick"}, {310, "reset"}},
	}

	for _, permissive := range []bool{false, true} {
		for i, sched := range schedules {
			r := newResolver(permissive)
			var out []Emit
			presses := 0
			for _, s := range sched {
				switch s.kind {
				case "down":
					presses++
					out = append(out, r.Press(posTD, ptX, at(s.ms))...)
				case "up":
					out = append(out, r.Release(posTD, at(s.ms))...)
				case "int":
					out = append(out, r.Interrupt(posOther, at(s.ms))...)
				case "tick":
					out = append(out, r.Tick(at(s.ms))...)
				case "reset":
					out = append(out, r.Reset(at(s.ms))...)
				}
			}

			down := 0
			held := map[action.Action]int{}
			for _, e := range out {
				if e.Pressed {
					down++
					held[e.Action]++
					continue
				}
				require.Positive(t, held[e.Action], "schedule %d: release without press", i)
				held[e.Action]--
			}
			assert.Equal(t, presses, down, "schedule %d permissive=%v: one resolution per press", i, permissive)
			for a, n := range held {
				assert.Zero(t, n, "schedule %d: %s left pressed", i, a)
			}
		}
	}
}

func TestDeadline(t *testing.T) {
	r := newResolver(false)
	_, ok := r.Deadline()
	assert.False(t, ok)

	r.Press(posTD, ptX, at(10))
	d, ok := r.Deadline()
	require.True(t, ok)
	assert.Equal(t, at(210), d)
}

func TestNewSet(t *testing.T) {
	s, err := NewSet(
		Binding{ID: 0, Name: "x", Tap: tapX, Hold: holdPtr},
		Binding{ID: 1, Name: "esc", Tap: action.Key(key.CodeEscape), Hold: action.Key(key.CodeLeftCtrl)},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	b, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "esc", b.Name)
	assert.Len(t, s.All(), 2)

	_, err = NewSet(Binding{ID: 0, Tap: tapX, Hold: holdPtr}, Binding{ID: 0, Tap: tapX, Hold: holdPtr})
	assert.ErrorIs(t, err, ErrDuplicateBinding)

	_, err = NewSet(Binding{ID: 0, Tap: action.Trans, Hold: holdPtr})
	assert.ErrorIs(t, err, ErrInvalidBinding)

	var nilSet *Set
	_, ok = nilSet.Get(0)
	assert.False(t, ok)
}

func TestFlushTapsOnlyUndecided(t *testing.T) {
	r := newResolver(true)
	held := TapHold(tapX, holdPtr)

	r.Press(posOther, held, at(0))
	r.Tick(at(250))
	require.Equal(t, StateHoldFired, r.State(posOther))

	r.Press(posTD, ptX, at(260))
	out := r.Flush(at(270))
	assert.Equal(t, []Emit{press(tapX, ResolvedTap), release(tapX, ResolvedTap)}, strip(out))
	assert.Equal(t, StateIdle, r.State(posTD))
	assert.False(t, r.Undecided())

	// The resolved hold is still released exactly once.
	out = r.Release(posOther, at(300))
	require.Len(t, out, 1)
	assert.Equal(t, holdPtr, out[0].Action)
	assert.False(t, out[0].Pressed)
	assert.Empty(t, r.Flush(at(310)))
}
