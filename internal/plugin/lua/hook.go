package lua

import (
	"fmt"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

// Handler names looked up after a script loads.
const (
	KeyHandler    = "on_key"
	ActionHandler = "on_action"
)

// HookOption configures a Hook.
type HookOption func(*hookOptions)

type hookOptions struct {
	logger  zerolog.Logger
	layers  func() []string
	stateOp []StateOption
}

// WithHookLogger sets the logger for script output and handler errors.
func WithHookLogger(logger zerolog.Logger) HookOption {
	return func(o *hookOptions) {
		o.logger = logger
	}
}

// WithLayers sets the function behind keyflow.layers().
func WithLayers(fn func() []string) HookOption {
	return func(o *hookOptions) {
		o.layers = fn
	}
}

// WithStateOptions passes options through to the Lua state.
func WithStateOptions(opts ...StateOption) HookOption {
	return func(o *hookOptions) {
		o.stateOp = append(o.stateOp, opts...)
	}
}

// Hook adapts a Lua script to input.Hook.
type Hook struct {
	state     *State
	logger    zerolog.Logger
	layers    func() []string
	hasKey    bool
	hasAction bool
}

var _ input.Hook = (*Hook)(nil)

// NewHook creates a hook with an empty script.
func NewHook(opts ...HookOption) *Hook {
	o := hookOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With().Str("component", "lua-hook").Logger()

	h := &Hook{
		state:  NewState(append([]StateOption{WithLogger(logger)}, o.stateOp...)...),
		logger: logger,
		layers: o.layers,
	}
	h.state.RegisterModule("keyflow", map[string]lua.LGFunction{
		"log":    h.luaLog,
		"layers": h.luaLayers,
	})
	return h
}

// LoadFile runs a hook script from disk.
func LoadFile(path string, opts ...HookOption) (*Hook, error) {
	h := NewHook(opts...)
	if err := h.state.DoFile(path); err != nil {
		h.Close()
		return nil, fmt.Errorf("load hook script %s: %w", path, err)
	}
	h.refresh()
	return h, nil
}

// LoadString runs a hook script from source.
func LoadString(src string, opts ...HookOption) (*Hook, error) {
	h := NewHook(opts...)
	if err := h.state.DoString(src); err != nil {
		h.Close()
		return nil, fmt.Errorf("load hook script: %w", err)
	}
	h.refresh()
	return h, nil
}

func (h *Hook) refresh() {
	h.hasKey = h.state.HasFunc(KeyHandler)
	h.hasAction = h.state.HasFunc(ActionHandler)
	h.logger.Debug().
		Bool(KeyHandler, h.hasKey).
		Bool(ActionHandler, h.hasAction).
		Msg("hook script loaded")
}

// PreKeyEvent calls on_key(pos, pressed). A true result consumes the
// event; a number moves it to that position.
func (h *Hook) PreKeyEvent(ev *key.Event) bool {
	if !h.hasKey {
		return false
	}
	ret, err := h.state.Call(KeyHandler, lua.LNumber(ev.Pos), lua.LBool(ev.Pressed))
	if err != nil {
		h.logger.Warn().Err(err).Uint8("pos", uint8(ev.Pos)).Msg("on_key failed")
		return false
	}
	if len(ret) == 0 {
		return false
	}
	if n, ok := ret[0].(lua.LNumber); ok {
		if n < 0 || n > 255 || n != lua.LNumber(int(n)) {
			h.logger.Warn().Float64("pos", float64(n)).Msg("on_key returned an invalid position")
			return false
		}
		ev.Pos = key.Position(n)
		return false
	}
	return lua.LVAsBool(ret[0])
}

// PreAction calls on_action(expr, pressed). A true result consumes the
// action.
func (h *Hook) PreAction(act action.Action, pressed bool) bool {
	if !h.hasAction {
		return false
	}
	ret, err := h.state.Call(ActionHandler, lua.LString(act.String()), lua.LBool(pressed))
	if err != nil {
		h.logger.Warn().Err(err).Stringer("action", act).Msg("on_action failed")
		return false
	}
	return len(ret) > 0 && lua.LVAsBool(ret[0])
}

// Close releases the Lua state.
func (h *Hook) Close() error {
	return h.state.Close()
}

func (h *Hook) luaLog(L *lua.LState) int {
	h.logger.Info().Str("source", "script").Msg(L.CheckString(1))
	return 0
}

func (h *Hook) luaLayers(L *lua.LState) int {
	tbl := L.NewTable()
	if h.layers != nil {
		for _, name := range h.layers() {
			tbl.Append(lua.LString(name))
		}
	}
	L.Push(tbl)
	return 1
}
