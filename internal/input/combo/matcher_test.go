package combo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

var (
	kcX = action.Key(key.CodeX)
	kcC = action.Key(key.CodeC)
	kcL = action.Key(key.CodeL)
	kcD = action.Key(key.CodeD)
	kcQ = action.Key(key.CodeQ)

	cut       = New("cut", action.Modified(key.CodeX, key.ModLeftCtrl), kcX, kcC)
	copyCombo = New("copy", action.Modified(key.CodeC, key.ModLeftCtrl), kcC, kcL)
	paste     = New("paste", action.Modified(key.CodeV, key.ModLeftCtrl), kcL, kcD)
)

// positions used by the tests
const (
	posX key.Position = iota + 1
	posC
	posL
	posD
	posQ
)

var t0 = time.Unix(1000, 0)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func newMatcher(t *testing.T, defs ...Definition) *Matcher {
	t.Helper()
	m, err := NewMatcher(50*time.Millisecond, defs...)
	require.NoError(t, err)
	return m
}

func kinds(emits []Emit) []EmitKind {
	out := make([]EmitKind, len(emits))
	for i, e := range emits {
		out[i] = e.Kind
	}
	return out
}

func TestComboFires(t *testing.T) {
	m := newMatcher(t, cut, copyCombo, paste)

	assert.Empty(t, m.Press(key.Press(posX, at(0)), kcX))
	assert.True(t, m.Pending())

	out := m.Press(key.Press(posC, at(20)), kcC)
	require.Len(t, out, 1)
	assert.Equal(t, EmitComboPress, out[0].Kind)
	assert.Equal(t, cut.Output, out[0].Action)
	assert.Equal(t, "cut", out[0].Combo)
	assert.False(t, m.Pending())

	// Constituent releases are suppressed until the last one.
	assert.Empty(t, m.Release(key.Release(posX, at(80))))
	out = m.Release(key.Release(posC, at(90)))
	require.Len(t, out, 1)
	assert.Equal(t, EmitComboRelease, out[0].Kind)
	assert.Equal(t, cut.Output, out[0].Action)

	// Nothing more after the combo is done.
	assert.Empty(t, m.Tick(at(500)))
}

func TestComboMatchesLayerTap(t *testing.T) {
	m := newMatcher(t, cut)
	ptX := action.LT(1, key.CodeX)

	assert.Empty(t, m.Press(key.Press(posX, at(0)), ptX))
	out := m.Press(key.Press(posC, at(10)), kcC)
	require.Len(t, out, 1)
	assert.Equal(t, EmitComboPress, out[0].Kind)
}

func TestComboWindowExpiryReplays(t *testing.T) {
	m := newMatcher(t, cut)

	assert.Empty(t, m.Press(key.Press(posX, at(0)), kcX))
	assert.Empty(t, m.Tick(at(50)), "still within the window")

	out := m.Tick(at(51))
	require.Len(t, out, 1)
	assert.Equal(t, EmitKeyPress, out[0].Kind)
	assert.Equal(t, posX, out[0].Event.Pos)
	assert.Equal(t, kcX, out[0].Action)
	assert.True(t, out[0].Replayed)

	// The release is an ordinary pass-through now.
	out = m.Release(key.Release(posX, at(60)))
	assert.Equal(t, []EmitKind{EmitKeyRelease}, kinds(out))
}

func TestComboLatePressStartsNewWindow(t *testing.T) {
	m := newMatcher(t, cut)

	m.Press(key.Press(posX, at(0)), kcX)
	out := m.Press(key.Press(posC, at(80)), kcC)

	// X expired and replays; C starts a new window.
	require.Len(t, out, 1)
	assert.Equal(t, posX, out[0].Event.Pos)
	assert.True(t, m.Pending())
}

func TestComboNonMemberInterrupts(t *testing.T) {
	m := newMatcher(t, cut)

	m.Press(key.Press(posX, at(0)), kcX)
	out := m.Press(key.Press(posQ, at(10)), kcQ)

	require.Equal(t, []EmitKind{EmitKeyPress, EmitKeyPress}, kinds(out))
	assert.Equal(t, posX, out[0].Event.Pos)
	assert.True(t, out[0].Replayed)
	assert.Equal(t, posQ, out[1].Event.Pos)
	assert.False(t, out[1].Replayed)
	assert.False(t, m.Pending())
}

func TestComboNonMemberPassesThrough(t *testing.T) {
	m := newMatcher(t, cut)

	out := m.Press(key.Press(posQ, at(0)), kcQ)
	assert.Equal(t, []EmitKind{EmitKeyPress}, kinds(out))
	out = m.Release(key.Release(posQ, at(10)))
	assert.Equal(t, []EmitKind{EmitKeyRelease}, kinds(out))
}

func TestComboBufferedReleaseReplays(t *testing.T) {
	m := newMatcher(t, cut)

	m.Press(key.Press(posX, at(0)), kcX)
	out := m.Release(key.Release(posX, at(20)))

	require.Equal(t, []EmitKind{EmitKeyPress, EmitKeyRelease}, kinds(out))
	assert.Equal(t, posX, out[0].Event.Pos)
	assert.Equal(t, posX, out[1].Event.Pos)
}

func TestComboOtherReleaseKeepsOrder(t *testing.T) {
	m := newMatcher(t, cut)

	m.Press(key.Press(posC, at(10)), kcC)
	out := m.Release(key.Release(posQ, at(20)))

	require.Equal(t, []EmitKind{EmitKeyPress, EmitKeyRelease}, kinds(out))
	assert.Equal(t, posC, out[0].Event.Pos)
	assert.Equal(t, posQ, out[1].Event.Pos)
	assert.False(t, m.Pending())

	out = m.Release(key.Release(posC, at(30)))
	assert.Equal(t, []EmitKind{EmitKeyRelease}, kinds(out))
}

func TestComboIncompatiblePressFlushesOldest(t *testing.T) {
	m := newMatcher(t, cut, paste)

	// X then L: no combo has both, so X replays and L waits for D.
	m.Press(key.Press(posX, at(0)), kcX)
	out := m.Press(key.Press(posL, at(10)), kcL)
	require.Len(t, out, 1)
	assert.Equal(t, posX, out[0].Event.Pos)
	assert.True(t, m.Pending())

	out = m.Press(key.Press(posD, at(20)), kcD)
	require.Len(t, out, 1)
	assert.Equal(t, "paste", out[0].Combo)
}

func TestComboOverlapFirstRegisteredWins(t *testing.T) {
	m := newMatcher(t, cut, copyCombo)

	// C belongs to both; X completes cut first.
	m.Press(key.Press(posC, at(0)), kcC)
	out := m.Press(key.Press(posX, at(5)), kcX)
	require.Len(t, out, 1)
	assert.Equal(t, "cut", out[0].Combo)

	// C is consumed by cut, so L alone cannot complete copy.
	out = m.Press(key.Press(posL, at(10)), kcL)
	assert.Empty(t, out)
	out = m.Tick(at(100))
	require.Len(t, out, 1)
	assert.Equal(t, posL, out[0].Event.Pos)
}

func TestComboOutputMayBeLayer(t *testing.T) {
	numbers := New("numbers", action.MO(4), action.MO(2), action.MO(3))
	m := newMatcher(t, numbers)

	m.Press(key.Press(posX, at(0)), action.MO(2))
	out := m.Press(key.Press(posC, at(10)), action.MO(3))
	require.Len(t, out, 1)
	assert.Equal(t, action.MO(4), out[0].Action)
}

func TestComboReset(t *testing.T) {
	m := newMatcher(t, cut, paste)

	m.Press(key.Press(posX, at(0)), kcX)
	m.Press(key.Press(posC, at(10)), kcC)
	m.Press(key.Press(posL, at(20)), kcL)

	out := m.Reset(at(30))
	require.Equal(t, []EmitKind{EmitKeyPress, EmitComboRelease}, kinds(out))
	assert.Equal(t, posL, out[0].Event.Pos)
	assert.True(t, out[0].Replayed)
	assert.Equal(t, cut.Output, out[1].Action)
	assert.False(t, m.Pending())

	// Releases after a reset pass through.
	out = m.Release(key.Release(posX, at(40)))
	assert.Equal(t, []EmitKind{EmitKeyRelease}, kinds(out))
}

func TestComboDeadline(t *testing.T) {
	m := newMatcher(t, cut)

	_, ok := m.Deadline()
	assert.False(t, ok)

	m.Press(key.Press(posX, at(0)), kcX)
	d, ok := m.Deadline()
	assert.True(t, ok)
	assert.Equal(t, at(50), d)
}

func TestNewMatcherRejects(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
		want error
	}{
		{"one trigger", []Definition{New("a", kcQ, kcX)}, ErrTooFewTriggers},
		{"duplicate trigger", []Definition{New("a", kcQ, kcX, kcX)}, ErrDuplicateTrigger},
		{"noop trigger", []Definition{New("a", kcQ, kcX, action.None)}, ErrInvalidTrigger},
		{"same set", []Definition{New("a", kcQ, kcX, kcC), New("b", kcD, kcC, kcX)}, ErrAmbiguous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatcher(0, tt.defs...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewMatcherDefaultWindow(t *testing.T) {
	m, err := NewMatcher(0, cut)
	require.NoError(t, err)
	assert.Equal(t, DefaultWindow, m.Window())
	assert.Len(t, m.Definitions(), 1)
}
