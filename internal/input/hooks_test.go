package input

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

// stubHook records calls and consumes what its predicates match.
type stubHook struct {
	name    string
	order   *[]string
	consume func(*key.Event) bool
	block   func(action.Action, bool) bool
}

func (h stubHook) PreKeyEvent(ev *key.Event) bool {
	if h.order != nil {
		*h.order = append(*h.order, h.name)
	}
	return h.consume != nil && h.consume(ev)
}

func (h stubHook) PreAction(act action.Action, pressed bool) bool {
	return h.block != nil && h.block(act, pressed)
}

func TestHookManagerPriority(t *testing.T) {
	m := NewHookManager()

	var order []string
	require.NoError(t, m.Register("script", HookPriorityNormal, stubHook{name: "script", order: &order}))
	require.NoError(t, m.Register("log", HookPriorityHighest, stubHook{name: "log", order: &order}))
	require.NoError(t, m.Register("late", HookPriorityNormal, stubHook{name: "late", order: &order}))

	ev := key.Press(1, time.Now())
	assert.False(t, m.RunPreKeyEvent(&ev))
	assert.Equal(t, []string{"log", "script", "late"}, order)
	assert.Equal(t, []string{"log", "script", "late"}, m.Names())
}

func TestHookManagerDuplicateName(t *testing.T) {
	m := NewHookManager()

	require.NoError(t, m.Register("lua", HookPriorityNormal, stubHook{}))
	err := m.Register("lua", HookPriorityNormal, stubHook{})
	assert.ErrorIs(t, err, ErrDuplicateHook)
	assert.Len(t, m.Names(), 1)
}

func TestHookManagerConsumeStopsChain(t *testing.T) {
	m := NewHookManager()

	var order []string
	require.NoError(t, m.Register("first", HookPriorityHighest, stubHook{
		name:    "first",
		order:   &order,
		consume: func(*key.Event) bool { return true },
	}))
	require.NoError(t, m.Register("second", HookPriorityNormal, stubHook{name: "second", order: &order}))

	ev := key.Press(1, time.Now())
	assert.True(t, m.RunPreKeyEvent(&ev))
	assert.Equal(t, []string{"first"}, order)
}

func TestHookManagerPreAction(t *testing.T) {
	m := NewHookManager()
	assert.False(t, m.RunPreAction(action.TG(2), true), "no hooks")

	require.NoError(t, m.Register("no-toggle", HookPriorityNormal, stubHook{
		block: func(a action.Action, _ bool) bool { return a.Kind == action.KindToggleLayer },
	}))
	assert.True(t, m.RunPreAction(action.TG(2), true))
	assert.False(t, m.RunPreAction(action.MO(2), true))
}

func TestLoggingHook(t *testing.T) {
	var buf bytes.Buffer
	hook := LoggingHook{Logger: zerolog.New(&buf).Level(zerolog.TraceLevel)}

	ev := key.Press(37, time.Now())
	assert.False(t, hook.PreKeyEvent(&ev))
	assert.False(t, hook.PreAction(action.LT(1, key.CodeX), true))

	out := buf.String()
	assert.Contains(t, out, `"pos":37`)
	assert.Contains(t, out, `"message":"key event"`)
	assert.Contains(t, out, `"action":"LT(1, KC_X)"`)

	buf.Reset()
	quiet := LoggingHook{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}
	quiet.PreKeyEvent(&ev)
	assert.Empty(t, buf.String())
}
