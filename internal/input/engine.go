package input

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/combo"
	"github.com/dshills/keyflow/internal/input/key"
	"github.com/dshills/keyflow/internal/input/layer"
	"github.com/dshills/keyflow/internal/input/pointer"
	"github.com/dshills/keyflow/internal/input/sniping"
	"github.com/dshills/keyflow/internal/input/tapdance"
)

// Engine errors
var (
	ErrNoKeymap        = errors.New("no keymap")
	ErrUnknownTapDance = errors.New("unknown tap dance")
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With().Str("component", "engine").Logger()
	}
}

// WithMetrics sets the metrics the engine records to.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithHooks sets the hook manager.
func WithHooks(h *HookManager) Option {
	return func(e *Engine) {
		if h != nil {
			e.hooks = h
		}
	}
}

// WithLighting sets the collaborator told about automatic pointer layer
// switches.
func WithLighting(l pointer.Lighting) Option {
	return func(e *Engine) {
		e.lighting = l
	}
}

// osmHold is a one-shot modifier key that is physically down.
type osmHold struct {
	mods key.Modifier
	used bool
}

// Engine resolves raw key events and motion samples into output.
//
// Key events pass through hooks, the combo matcher and the tap-hold
// resolver before the remaining presses are resolved against the layer
// stack and executed. Motion samples drive the auto pointer layer and are
// scaled by the pointer device.
//
// Engine is not safe for concurrent use. One goroutine owns it and calls
// HandleKey, HandleMotion and Tick in event order.
type Engine struct {
	keymap *Keymap
	config Config

	logger   zerolog.Logger
	output   Output
	hooks    *HookManager
	metrics  *Metrics
	lighting pointer.Lighting

	table    *layer.Table
	stack    *layer.Stack
	combos   *combo.Matcher
	dances   *tapdance.Resolver
	danceSet *tapdance.Set
	auto     *pointer.AutoLayer
	device   *pointer.Device
	sniper   *sniping.Dispatcher

	// pressed caches the action resolved at press time for the release.
	pressed map[key.Position]action.Action

	// deferred holds events that arrived while a dual-role key was
	// undecided under permissive hold.
	deferred []combo.Emit

	// modCount counts downs per modifier bit.
	modCount [8]int

	// oneShot holds modifiers waiting for the next key.
	oneShot key.Modifier

	osmHeld []*osmHold

	now time.Time
}

// NewEngine creates an engine for a keymap. A nil out discards output.
func NewEngine(km *Keymap, out Output, opts ...Option) (*Engine, error) {
	e := &Engine{
		logger:  zerolog.Nop(),
		output:  out,
		hooks:   NewHookManager(),
		metrics: NewMetrics(nil),
		pressed: make(map[key.Position]action.Action),
	}
	if e.output == nil {
		e.output = NopOutput{}
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Load(km); err != nil {
		return nil, err
	}
	return e, nil
}

// Load validates a keymap and switches the engine to it.
// Anything held under the previous keymap is released first.
func (e *Engine) Load(km *Keymap) error {
	if km == nil || km.Table == nil {
		return ErrNoKeymap
	}
	cfg := km.Config

	matcher, set, err := km.build()
	if err != nil {
		return err
	}

	if e.keymap != nil {
		e.Reset(e.now)
	}

	e.keymap = km
	e.config = cfg
	e.table = km.Table
	e.combos = matcher
	e.danceSet = set
	e.dances = tapdance.NewResolver(tapdance.Config{
		Term:           cfg.TapTerm,
		PermissiveHold: cfg.PermissiveHold,
	})
	e.stack = layer.NewStack()
	e.device = pointer.NewDevice(cfg.Device, e.logger)
	e.auto = pointer.NewAutoLayer(cfg.AutoPointer, e.stack, e.lighting)
	e.stack.OnChange(e.layersChanged)
	e.sniper = nil
	if cfg.AutoSnipe {
		e.sniper = sniping.NewDispatcher(cfg.AutoSnipeLayer, e.device)
		e.sniper.Attach(e.stack)
	}
	e.pressed = make(map[key.Position]action.Action)
	e.deferred = nil
	e.modCount = [8]int{}
	e.oneShot = key.ModNone
	e.osmHeld = nil

	e.logger.Info().
		Str("keymap", km.Name).
		Int("layers", len(km.Table.IDs())).
		Int("combos", len(km.Combos)).
		Int("tap_dances", set.Len()).
		Msg("keymap loaded")
	return nil
}

// validateRefs checks references that span table, combos and config.
func validateRefs(km *Keymap, set *tapdance.Set) error {
	t := km.Table
	for _, id := range t.IDs() {
		l, _ := t.Layer(id)
		for pos, b := range l.Bindings {
			if b.Kind != action.KindTapDance {
				continue
			}
			if _, ok := set.Get(b.TapDance); !ok {
				return fmt.Errorf("%w: TD(%d) on layer %s position %d", ErrUnknownTapDance, b.TapDance, t.Name(id), pos)
			}
		}
	}

	check := func(what string, a action.Action) error {
		if target, ok := a.TargetLayer(); ok {
			if _, exists := t.Layer(target); !exists {
				return fmt.Errorf("%w: %s refers to layer %d", layer.ErrUnknownLayer, what, target)
			}
		}
		if a.Kind == action.KindTapDance {
			if _, ok := set.Get(a.TapDance); !ok {
				return fmt.Errorf("%w: %s uses TD(%d)", ErrUnknownTapDance, what, a.TapDance)
			}
		}
		return nil
	}
	for _, c := range km.Combos {
		if err := check("combo "+c.Name, c.Output); err != nil {
			return err
		}
	}
	for _, b := range set.All() {
		if err := check(fmt.Sprintf("tap dance %d", b.ID), b.Hold); err != nil {
			return err
		}
	}

	cfg := km.Config
	if cfg.AutoPointer.Enabled {
		if _, ok := t.Layer(cfg.AutoPointer.Layer); !ok {
			return fmt.Errorf("%w: auto pointer layer %d", layer.ErrUnknownLayer, cfg.AutoPointer.Layer)
		}
	}
	if cfg.AutoSnipe {
		if _, ok := t.Layer(cfg.AutoSnipeLayer); !ok {
			return fmt.Errorf("%w: auto snipe layer %d", layer.ErrUnknownLayer, cfg.AutoSnipeLayer)
		}
	}
	return nil
}

// Keymap returns the loaded keymap.
func (e *Engine) Keymap() *Keymap {
	return e.keymap
}

// Config returns the active configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Stack returns the active layer stack.
func (e *Engine) Stack() *layer.Stack {
	return e.stack
}

// Device returns the pointer device state.
func (e *Engine) Device() *pointer.Device {
	return e.device
}

// Hooks returns the hook manager.
func (e *Engine) Hooks() *HookManager {
	return e.hooks
}

// ActiveLayerNames returns active layer names, base first.
func (e *Engine) ActiveLayerNames() []string {
	ids := e.stack.Active()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = e.table.Name(id)
	}
	return names
}

// Pending reports whether events are buffered by a combo or a deferred
// dual-role key.
func (e *Engine) Pending() bool {
	return len(e.deferred) > 0 || (e.config.EnableCombos && e.combos.Pending())
}

// HandleKey processes one raw key event.
func (e *Engine) HandleKey(ev key.Event) {
	e.now = ev.Time
	e.metrics.recordKey(ev.Pressed)

	if e.hooks.RunPreKeyEvent(&ev) {
		e.metrics.hookConsumed.Inc()
		return
	}

	e.tick(ev.Time)

	if !e.config.EnableCombos {
		if ev.Pressed {
			e.deliver(combo.Emit{Kind: combo.EmitKeyPress, Event: ev, Action: e.table.Resolve(e.stack, ev.Pos)})
		} else {
			e.deliver(combo.Emit{Kind: combo.EmitKeyRelease, Event: ev})
		}
		return
	}

	if ev.Pressed {
		e.deliverAll(e.combos.Press(ev, e.table.Resolve(e.stack, ev.Pos)))
		return
	}
	e.deliverAll(e.combos.Release(ev))
}

// HandleMotion processes one pointer motion sample.
func (e *Engine) HandleMotion(m key.Motion) {
	e.now = m.Time
	e.metrics.motionSamples.Inc()
	e.tick(m.Time)

	if e.auto.HandleMotion(m) {
		e.metrics.recordPointerLayer(true)
		e.logger.Debug().Msg("auto pointer layer on")
	}
	if mv := e.device.Scale(m); !mv.IsZero() {
		e.output.Move(mv)
	}
}

// Tick advances timers: combo windows, tapping terms and the pointer
// layer timeout.
func (e *Engine) Tick(now time.Time) {
	e.now = now
	e.tick(now)
}

func (e *Engine) tick(now time.Time) {
	if e.config.EnableCombos {
		e.deliverAll(e.combos.Tick(now))
	}
	e.runDances(e.dances.Tick(now))
	if len(e.deferred) > 0 && !e.deferring() {
		e.replayDeferred()
	}
	if e.auto.Tick(now) {
		e.metrics.recordPointerLayer(false)
		e.logger.Debug().Msg("auto pointer layer off")
	}
}

// Reset releases everything still held and returns to the base layer.
// Undecided dual-role keys become taps. Deferred events and presses
// buffered for a combo are replayed in arrival order; buffered presses
// are sent as complete taps.
func (e *Engine) Reset(now time.Time) {
	queue := make([]combo.Emit, 0, len(e.deferred))
	for _, em := range e.deferred {
		if em.Kind == combo.EmitKeyPress {
			em.Action = e.table.Resolve(e.stack, em.Event.Pos)
		}
		queue = append(queue, em)
	}
	e.deferred = nil

	var outputs []action.Action
	for _, em := range e.combos.Reset(now) {
		if em.Kind == combo.EmitComboRelease {
			outputs = append(outputs, em.Action)
			continue
		}
		e.metrics.comboReplays.Inc()
		queue = append(queue, em, combo.Emit{Kind: combo.EmitKeyRelease, Event: key.Release(em.Event.Pos, now)})
	}

	e.runDances(e.dances.Flush(now))
	for _, em := range queue {
		e.apply(em)
		e.runDances(e.dances.Flush(now))
	}
	for _, act := range outputs {
		e.execute(act, false)
	}
	e.runDances(e.dances.Reset(now))

	positions := make([]key.Position, 0, len(e.pressed))
	for pos := range e.pressed {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	for _, pos := range positions {
		act := e.pressed[pos]
		if act.Kind != action.KindLayerTap && act.Kind != action.KindTapDance {
			e.execute(act, false)
		}
	}
	clear(e.pressed)

	e.osmHeld = nil
	e.oneShot = key.ModNone
	for i := range e.modCount {
		for ; e.modCount[i] > 0; e.modCount[i]-- {
			e.output.KeyUp(key.CodeLeftCtrl + key.Code(i))
		}
	}

	e.stack.Reset()
	e.auto.Release()
	e.device.SetDragScrollEnabled(false)
	e.logger.Debug().Msg("engine reset")
}

func (e *Engine) deliverAll(emits []combo.Emit) {
	for _, em := range emits {
		if em.Replayed {
			e.metrics.comboReplays.Inc()
		}
		e.deliver(em)
	}
}

// deliver applies an emit, or defers it while a dual-role key is
// undecided under permissive hold.
func (e *Engine) deliver(em combo.Emit) {
	if !e.deferring() {
		e.apply(em)
		return
	}

	pos := em.Event.Pos
	switch em.Kind {
	case combo.EmitKeyRelease:
		if e.dances.State(pos) == tapdance.StatePressed {
			// The dual-role key came up first and resolves as a tap.
			e.apply(em)
			break
		}
		nested := e.hasDeferred(func(d combo.Emit) bool {
			return d.Kind == combo.EmitKeyPress && d.Event.Pos == pos
		})
		e.pushDeferred(em)
		if nested {
			e.runDances(e.dances.NestedTap(em.Event.Time))
		}
	case combo.EmitComboRelease:
		nested := e.hasDeferred(func(d combo.Emit) bool {
			return d.Kind == combo.EmitComboPress && d.Combo == em.Combo
		})
		e.pushDeferred(em)
		if nested {
			e.runDances(e.dances.NestedTap(em.Event.Time))
		}
	default:
		e.pushDeferred(em)
		e.runDances(e.dances.Interrupt(pos, em.Event.Time))
	}

	if !e.deferring() {
		e.replayDeferred()
	}
}

func (e *Engine) deferring() bool {
	return e.config.PermissiveHold && e.dances.Undecided()
}

func (e *Engine) hasDeferred(match func(combo.Emit) bool) bool {
	for _, d := range e.deferred {
		if match(d) {
			return true
		}
	}
	return false
}

func (e *Engine) pushDeferred(em combo.Emit) {
	e.deferred = append(e.deferred, em)
	e.metrics.deferred.Inc()
}

// replayDeferred delivers deferred events in order. Presses resolve
// against the current stack so they see a layer the hold switched on.
func (e *Engine) replayDeferred() {
	queue := e.deferred
	e.deferred = nil
	for _, em := range queue {
		if em.Kind == combo.EmitKeyPress {
			em.Action = e.table.Resolve(e.stack, em.Event.Pos)
		}
		e.deliver(em)
	}
}

func (e *Engine) apply(em combo.Emit) {
	switch em.Kind {
	case combo.EmitKeyPress:
		e.press(em.Event, em.Action)
	case combo.EmitKeyRelease:
		e.release(em.Event)
	case combo.EmitComboPress:
		e.metrics.comboFires.WithLabelValues(em.Combo).Inc()
		e.logger.Debug().Str("combo", em.Combo).Stringer("output", em.Action).Msg("combo fired")
		e.runDances(e.dances.Interrupt(em.Event.Pos, em.Event.Time))
		e.execute(em.Action, true)
	case combo.EmitComboRelease:
		e.execute(em.Action, false)
	}
}

func (e *Engine) press(ev key.Event, act action.Action) {
	e.runDances(e.dances.Interrupt(ev.Pos, ev.Time))
	e.pressed[ev.Pos] = act

	switch act.Kind {
	case action.KindLayerTap:
		e.runDances(e.dances.Press(ev.Pos, tapdance.ForLayerTap(act), ev.Time))
	case action.KindTapDance:
		b, ok := e.danceSet.Get(act.TapDance)
		if !ok {
			e.logger.Warn().Uint8("id", act.TapDance).Msg("unknown tap dance")
			return
		}
		e.runDances(e.dances.Press(ev.Pos, b, ev.Time))
	default:
		e.execute(act, true)
	}
}

func (e *Engine) release(ev key.Event) {
	act, ok := e.pressed[ev.Pos]
	if !ok {
		return
	}
	delete(e.pressed, ev.Pos)

	switch act.Kind {
	case action.KindLayerTap, action.KindTapDance:
		e.runDances(e.dances.Release(ev.Pos, ev.Time))
	default:
		e.execute(act, false)
	}
}

func (e *Engine) runDances(emits []tapdance.Emit) {
	for _, em := range emits {
		if em.Pressed {
			e.metrics.tapHold.WithLabelValues(em.Resolution.String()).Inc()
			e.logger.Debug().
				Uint8("pos", uint8(em.Pos)).
				Stringer("resolution", em.Resolution).
				Stringer("action", em.Action).
				Msg("tap-hold resolved")
		}
		e.execute(em.Action, em.Pressed)
	}
}

// execute performs a resolved action.
func (e *Engine) execute(act action.Action, pressed bool) {
	if e.hooks.RunPreAction(act, pressed) {
		return
	}
	if pressed {
		e.metrics.actions.WithLabelValues(act.Kind.String()).Inc()
	}

	switch act.Kind {
	case action.KindKey:
		e.executeKey(act, pressed)
	case action.KindLayerTap:
		if tap := act.TapKey(); tap.Kind == action.KindKey {
			e.executeKey(tap, pressed)
		}
	case action.KindMomentaryLayer:
		if pressed {
			e.stack.Activate(act.Layer)
		} else {
			e.stack.Deactivate(act.Layer)
		}
	case action.KindToggleLayer:
		if pressed {
			e.stack.Toggle(act.Layer)
		}
	case action.KindOneShotMod:
		e.executeOneShot(act.Mods, pressed)
	}
}

func (e *Engine) executeKey(act action.Action, pressed bool) {
	code := act.Code
	switch {
	case code.IsDevice():
		e.device.HandleCode(code, pressed, e.mods()|act.Mods)
		return
	case code.IsButton():
		if pressed {
			e.output.ButtonDown(code.Button())
		} else {
			e.output.ButtonUp(code.Button())
		}
		return
	}

	if pressed {
		for _, h := range e.osmHeld {
			h.used = true
		}
		oneShot := e.oneShot
		e.oneShot = key.ModNone

		e.modsDown(act.Mods | oneShot)
		if code != key.CodeNone {
			e.keyDown(code)
		}
		e.modsUp(oneShot &^ act.Mods)
		return
	}

	if code != key.CodeNone {
		e.keyUp(code)
	}
	e.modsUp(act.Mods)
}

func (e *Engine) executeOneShot(mods key.Modifier, pressed bool) {
	if pressed {
		e.osmHeld = append(e.osmHeld, &osmHold{mods: mods})
		e.modsDown(mods)
		return
	}
	for i, h := range e.osmHeld {
		if h.mods != mods {
			continue
		}
		e.osmHeld = append(e.osmHeld[:i], e.osmHeld[i+1:]...)
		e.modsUp(mods)
		if !h.used {
			e.oneShot |= mods
		}
		return
	}
}

func (e *Engine) keyDown(code key.Code) {
	if code.IsModifier() {
		e.modCount[code-key.CodeLeftCtrl]++
	}
	e.output.KeyDown(code)
}

func (e *Engine) keyUp(code key.Code) {
	if code.IsModifier() {
		i := code - key.CodeLeftCtrl
		if e.modCount[i] == 0 {
			return
		}
		e.modCount[i]--
	}
	e.output.KeyUp(code)
}

func (e *Engine) modsDown(mods key.Modifier) {
	for _, bit := range mods.Bits() {
		e.keyDown(bit.Code())
	}
}

func (e *Engine) modsUp(mods key.Modifier) {
	bits := mods.Bits()
	for i := len(bits) - 1; i >= 0; i-- {
		e.keyUp(bits[i].Code())
	}
}

// mods returns the modifiers currently down.
func (e *Engine) mods() key.Modifier {
	var m key.Modifier
	for i, n := range e.modCount {
		if n > 0 {
			m |= 1 << i
		}
	}
	return m
}

func (e *Engine) layersChanged(ev layer.ChangeEvent) {
	e.metrics.recordLayers(len(ev.New))
	if e.auto.Owned() && ev.Deactivated(e.config.AutoPointer.Layer) {
		e.auto.Release()
	}
	if e.logger.GetLevel() <= zerolog.DebugLevel {
		names := make([]string, len(ev.New))
		for i, id := range ev.New {
			names[i] = e.table.Name(id)
		}
		e.logger.Debug().Str("layers", strings.Join(names, ",")).Msg("layers changed")
	}
}
