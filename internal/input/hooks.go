package input

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

// ErrDuplicateHook is returned when a hook name is already registered.
var ErrDuplicateHook = errors.New("hook already registered")

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHighest runs before all other hooks.
	HookPriorityHighest HookPriority = -1000
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
)

// Hook allows interception of raw key events and resolved actions.
type Hook interface {
	// PreKeyEvent is called before a raw key event enters the pipeline.
	// It may rewrite the event. Return true to consume it.
	PreKeyEvent(event *key.Event) bool

	// PreAction is called before a resolved action is executed.
	// Return true to consume the action.
	PreAction(act action.Action, pressed bool) bool
}

type hookEntry struct {
	name     string
	priority HookPriority
	hook     Hook
}

// HookManager runs named hooks in priority order.
type HookManager struct {
	mu    sync.RWMutex
	hooks []hookEntry
}

// NewHookManager creates an empty hook manager.
func NewHookManager() *HookManager {
	return &HookManager{}
}

// Register adds a named hook. Hooks of equal priority run in
// registration order.
func (m *HookManager) Register(name string, priority HookPriority, hook Hook) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.hooks {
		if h.name == name {
			return fmt.Errorf("%w: %q", ErrDuplicateHook, name)
		}
	}
	m.hooks = append(m.hooks, hookEntry{name: name, priority: priority, hook: hook})
	sort.SliceStable(m.hooks, func(i, j int) bool {
		return m.hooks[i].priority < m.hooks[j].priority
	})
	return nil
}

// Names returns hook names in run order.
func (m *HookManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.hooks))
	for i, h := range m.hooks {
		names[i] = h.name
	}
	return names
}

func (m *HookManager) snapshot() []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.hooks) == 0 {
		return nil
	}
	hooks := make([]Hook, len(m.hooks))
	for i, h := range m.hooks {
		hooks[i] = h.hook
	}
	return hooks
}

// RunPreKeyEvent runs PreKeyEvent hooks in priority order.
// Returns true if any hook consumed the event.
func (m *HookManager) RunPreKeyEvent(event *key.Event) bool {
	for _, hook := range m.snapshot() {
		if hook.PreKeyEvent(event) {
			return true
		}
	}
	return false
}

// RunPreAction runs PreAction hooks in priority order.
// Returns true if any hook consumed the action.
func (m *HookManager) RunPreAction(act action.Action, pressed bool) bool {
	for _, hook := range m.snapshot() {
		if hook.PreAction(act, pressed) {
			return true
		}
	}
	return false
}

// LoggingHook logs every key event and executed action at trace level.
// Register it at HookPriorityHighest to see events before other hooks
// rewrite or consume them.
type LoggingHook struct {
	Logger zerolog.Logger
}

// PreKeyEvent logs the key event.
func (h LoggingHook) PreKeyEvent(event *key.Event) bool {
	h.Logger.Trace().Uint8("pos", uint8(event.Pos)).Bool("pressed", event.Pressed).Msg("key event")
	return false
}

// PreAction logs the action.
func (h LoggingHook) PreAction(act action.Action, pressed bool) bool {
	h.Logger.Trace().Stringer("action", act).Bool("pressed", pressed).Msg("action")
	return false
}
