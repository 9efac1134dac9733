package lua

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/keymaps"
)

func TestStateCall(t *testing.T) {
	state := NewState()
	defer state.Close()

	require.NoError(t, state.DoString(`function add(a, b) return a + b, "ok" end`))
	assert.True(t, state.HasFunc("add"))
	assert.False(t, state.HasFunc("missing"))

	ret, err := state.Call("add", glua.LNumber(2), glua.LNumber(3))
	require.NoError(t, err)
	require.Len(t, ret, 2)
	assert.Equal(t, glua.LNumber(5), ret[0])
	assert.Equal(t, glua.LString("ok"), ret[1])

	_, err = state.Call("missing")
	assert.ErrorIs(t, err, ErrNotFunction)

	require.NoError(t, state.DoString(`function boom() error("bad") end`))
	_, err = state.Call("boom")
	assert.ErrorContains(t, err, "bad")

	// The stack is clean after a failed call.
	ret, err = state.Call("add", glua.LNumber(1), glua.LNumber(1))
	require.NoError(t, err)
	assert.Equal(t, glua.LNumber(2), ret[0])
}

func TestStateClosed(t *testing.T) {
	state := NewState()
	require.NoError(t, state.Close())
	require.NoError(t, state.Close())
	assert.True(t, state.IsClosed())

	assert.ErrorIs(t, state.DoString(`x = 1`), ErrStateClosed)
	_, err := state.Call("x")
	assert.ErrorIs(t, err, ErrStateClosed)
	assert.False(t, state.HasFunc("x"))
}

func TestStateTimeout(t *testing.T) {
	state := NewState(WithTimeout(20 * time.Millisecond))
	defer state.Close()

	err := state.DoString(`while true do end`)
	assert.ErrorIs(t, err, ErrExecutionTimeout)

	require.NoError(t, state.DoString(`function spin() while true do end end`))
	_, err = state.Call("spin")
	assert.ErrorIs(t, err, ErrExecutionTimeout)

	// Later calls get a fresh deadline.
	require.NoError(t, state.DoString(`y = 1`))
}

func TestSandbox(t *testing.T) {
	state := NewState()
	defer state.Close()

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "io", "os", "debug", "package"} {
		assert.Equal(t, glua.LTNil, state.L.GetGlobal(name).Type(), name)
	}
	for _, name := range []string{"string", "table", "math", "pairs", "pcall"} {
		assert.NotEqual(t, glua.LTNil, state.L.GetGlobal(name).Type(), name)
	}

	assert.Error(t, state.DoString(`require("os")`))
	assert.Error(t, state.DoString(`io.open("/etc/passwd")`))
}

func TestPrintGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	state := NewState(WithLogger(zerolog.New(&buf)))
	defer state.Close()

	require.NoError(t, state.DoString(`print("hello", 42)`))
	assert.Contains(t, buf.String(), `"message":"hello\t42"`)
	assert.Contains(t, buf.String(), `"source":"print"`)
}

const remapScript = `
swallowed = 0

function on_key(pos, pressed)
  if pos == 51 then
    swallowed = swallowed + 1
    return true
  end
  if pos == 13 then
    return 14
  end
  return false
end

function on_action(expr, pressed)
  return expr == "KC_Y"
end
`

func TestHookKeyEvents(t *testing.T) {
	h, err := LoadString(remapScript)
	require.NoError(t, err)
	defer h.Close()

	ev := key.Press(51, time.Time{})
	assert.True(t, h.PreKeyEvent(&ev))

	ev = key.Press(13, time.Time{})
	assert.False(t, h.PreKeyEvent(&ev))
	assert.Equal(t, key.Position(14), ev.Pos)

	ev = key.Release(2, time.Time{})
	assert.False(t, h.PreKeyEvent(&ev))
	assert.Equal(t, key.Position(2), ev.Pos)

	assert.Equal(t, glua.LNumber(1), h.state.L.GetGlobal("swallowed"))

	assert.True(t, h.PreAction(action.Key(key.CodeY), true))
	assert.False(t, h.PreAction(action.Key(key.CodeA), true))
}

func TestHookWithoutHandlers(t *testing.T) {
	h, err := LoadString(`x = 1`)
	require.NoError(t, err)
	defer h.Close()

	ev := key.Press(1, time.Time{})
	assert.False(t, h.PreKeyEvent(&ev))
	assert.False(t, h.PreAction(action.Key(key.CodeA), true))
}

func TestHookHandlerErrorsPassThrough(t *testing.T) {
	var buf bytes.Buffer
	h, err := LoadString(`
function on_key(pos, pressed) error("nope") end
function on_action(expr, pressed) while true do end end
`, WithHookLogger(zerolog.New(&buf)), WithStateOptions(WithTimeout(10*time.Millisecond)))
	require.NoError(t, err)
	defer h.Close()

	ev := key.Press(1, time.Time{})
	assert.False(t, h.PreKeyEvent(&ev))
	assert.False(t, h.PreAction(action.Key(key.CodeA), true))
	assert.Contains(t, buf.String(), "on_key failed")
	assert.Contains(t, buf.String(), "on_action failed")
}

func TestHookInvalidPosition(t *testing.T) {
	h, err := LoadString(`function on_key(pos, pressed) return 300 end`)
	require.NoError(t, err)
	defer h.Close()

	ev := key.Press(4, time.Time{})
	assert.False(t, h.PreKeyEvent(&ev))
	assert.Equal(t, key.Position(4), ev.Pos)
}

func TestKeyflowModule(t *testing.T) {
	var buf bytes.Buffer
	h, err := LoadString(`
keyflow.log("loaded")
function on_key(pos, pressed)
  local names = keyflow.layers()
  return #names == 2 and names[2] == "pointer"
end
`,
		WithHookLogger(zerolog.New(&buf)),
		WithLayers(func() []string { return []string{"base", "pointer"} }),
	)
	require.NoError(t, err)
	defer h.Close()

	assert.Contains(t, buf.String(), `"message":"loaded"`)
	assert.Contains(t, buf.String(), `"component":"lua-hook"`)

	ev := key.Press(1, time.Time{})
	assert.True(t, h.PreKeyEvent(&ev))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hook.lua")
	require.NoError(t, os.WriteFile(path, []byte(remapScript), 0o644))

	h, err := LoadFile(path)
	require.NoError(t, err)
	defer h.Close()
	assert.True(t, h.hasKey)
	assert.True(t, h.hasAction)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.lua"))
	assert.Error(t, err)

	_, err = LoadString(`function (`)
	assert.Error(t, err)
}

func TestHookDrivesEngine(t *testing.T) {
	km, err := keymaps.Default()
	require.NoError(t, err)

	h, err := LoadString(remapScript)
	require.NoError(t, err)
	defer h.Close()

	hooks := input.NewHookManager()
	require.NoError(t, hooks.Register("lua", input.HookPriorityNormal, h))

	out := &input.BufferOutput{}
	e, err := input.NewEngine(km, out, input.WithHooks(hooks))
	require.NoError(t, err)

	t0 := time.Unix(0, 0)

	// Space is swallowed entirely.
	e.HandleKey(key.Press(51, t0))
	e.HandleKey(key.Release(51, t0.Add(20*time.Millisecond)))
	assert.Empty(t, out.Strings())

	// W is remapped to F.
	e.HandleKey(key.Press(13, t0.Add(time.Second)))
	e.HandleKey(key.Release(13, t0.Add(time.Second+20*time.Millisecond)))
	e.Tick(t0.Add(2 * time.Second))
	assert.Equal(t, []string{"+KC_F", "-KC_F"}, out.Strings())
}
