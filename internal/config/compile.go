package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/combo"
	"github.com/dshills/keyflow/internal/input/layer"
	"github.com/dshills/keyflow/internal/input/tapdance"
)

// pointerLayerName is the layer the pointer settings default to.
const pointerLayerName = "pointer"

// Compile turns a decoded document into a validated keymap.
// Every error wraps ErrInvalidKeymap.
func Compile(doc *Document) (*input.Keymap, error) {
	if doc == nil || len(doc.Layers) == 0 {
		return nil, &CompileError{Section: "layers", Err: layer.ErrNoBaseLayer}
	}

	names := make(map[string]action.LayerID, len(doc.Layers))
	ids := make([]action.LayerID, len(doc.Layers))
	for i, ld := range doc.Layers {
		id := i
		if ld.ID != nil {
			id = *ld.ID
		}
		if id < 0 || id > 255 {
			return nil, &CompileError{Section: "layers", Item: ld.Name, Err: fmt.Errorf("id %d out of range", id)}
		}
		ids[i] = action.LayerID(id)
		if ld.Name != "" {
			names[ld.Name] = ids[i]
		}
	}
	parser := action.NewParser(names)

	layers := make([]layer.Layer, 0, len(doc.Layers))
	for i, ld := range doc.Layers {
		bindings := make([]action.Action, len(ld.Bindings))
		for pos, expr := range ld.Bindings {
			a, err := parser.Parse(expr)
			if err != nil {
				return nil, &CompileError{
					Section: "layers",
					Item:    fmt.Sprintf("%s position %d", ld.Name, pos),
					Err:     err,
				}
			}
			bindings[pos] = a
		}
		layers = append(layers, layer.NewLayer(ids[i], ld.Name, bindings...))
	}
	table, err := layer.NewTable(layers...)
	if err != nil {
		return nil, &CompileError{Section: "layers", Err: err}
	}

	combos := make([]combo.Definition, 0, len(doc.Combos))
	for _, cd := range doc.Combos {
		output, err := parser.Parse(cd.Output)
		if err != nil {
			return nil, &CompileError{Section: "combos", Item: cd.Name, Err: err}
		}
		triggers := make([]action.Action, len(cd.Triggers))
		for i, expr := range cd.Triggers {
			if triggers[i], err = parser.Parse(expr); err != nil {
				return nil, &CompileError{Section: "combos", Item: cd.Name, Err: err}
			}
		}
		def := combo.New(cd.Name, output, triggers...)
		if err := def.Validate(); err != nil {
			return nil, &CompileError{Section: "combos", Item: cd.Name, Err: err}
		}
		combos = append(combos, def)
	}

	dances := make([]tapdance.Binding, 0, len(doc.TapDances))
	for _, td := range doc.TapDances {
		item := strconv.Itoa(td.ID)
		if td.ID < 0 || td.ID > 255 {
			return nil, &CompileError{Section: "tap_dances", Item: item, Err: tapdance.ErrInvalidBinding}
		}
		tap, err := parser.Parse(td.Tap)
		if err != nil {
			return nil, &CompileError{Section: "tap_dances", Item: item, Err: err}
		}
		hold, err := parser.Parse(td.Hold)
		if err != nil {
			return nil, &CompileError{Section: "tap_dances", Item: item, Err: err}
		}
		dances = append(dances, tapdance.Binding{ID: uint8(td.ID), Name: td.Name, Tap: tap, Hold: hold})
	}

	cfg, err := compileConfig(doc, table)
	if err != nil {
		return nil, err
	}

	km := &input.Keymap{
		Name:      doc.Name,
		Table:     table,
		Combos:    combos,
		TapDances: dances,
		Config:    cfg,
	}
	if err := km.Validate(); err != nil {
		return nil, &CompileError{Section: "keymap", Err: err}
	}
	return km, nil
}

// compileConfig applies document settings over the defaults.
func compileConfig(doc *Document, table *layer.Table) (input.Config, error) {
	cfg := input.DefaultConfig()

	t := doc.Timing
	setBool(&cfg.EnableCombos, t.Combos)
	setMillis(&cfg.ComboWindow, t.ComboWindowMS)
	setMillis(&cfg.TapTerm, t.TapTermMS)
	setBool(&cfg.PermissiveHold, t.PermissiveHold)

	p := doc.Pointer
	pointerLayer, found := defaultPointerLayer(table)
	if p.Layer != nil {
		id, err := resolveLayer(table, *p.Layer)
		if err != nil {
			return cfg, &CompileError{Section: "pointer", Item: "layer", Err: err}
		}
		pointerLayer, found = id, true
	}
	cfg.AutoPointer.Layer = pointerLayer
	cfg.AutoPointer.Enabled = found
	setBool(&cfg.AutoPointer.Enabled, p.AutoLayer)
	setInt(&cfg.AutoPointer.Threshold, p.Threshold)
	setMillis(&cfg.AutoPointer.Timeout, p.TimeoutMS)

	cfg.AutoSnipeLayer = pointerLayer
	cfg.AutoSnipe = found
	if p.SnipeLayer != nil {
		id, err := resolveLayer(table, *p.SnipeLayer)
		if err != nil {
			return cfg, &CompileError{Section: "pointer", Item: "snipe_layer", Err: err}
		}
		cfg.AutoSnipeLayer = id
		cfg.AutoSnipe = true
	}
	setBool(&cfg.AutoSnipe, p.AutoSnipe)

	d := p.DPI
	setInt(&cfg.Device.MinDefaultDPI, d.MinDefault)
	setInt(&cfg.Device.DefaultDPIStep, d.DefaultStep)
	setInt(&cfg.Device.DefaultDPISteps, d.DefaultSteps)
	setInt(&cfg.Device.MinSnipingDPI, d.MinSniping)
	setInt(&cfg.Device.SnipingDPIStep, d.SnipingStep)
	setInt(&cfg.Device.SnipingDPISteps, d.SnipingSteps)
	setInt(&cfg.Device.DragScrollBuffer, p.DragScrollBuffer)
	setBool(&cfg.Device.ReverseScroll, p.ReverseScroll)

	return cfg, nil
}

// defaultPointerLayer picks the layer named "pointer", then layer 1.
func defaultPointerLayer(table *layer.Table) (layer.ID, bool) {
	if id, ok := table.Lookup(pointerLayerName); ok {
		return id, true
	}
	if _, ok := table.Layer(1); ok {
		return 1, true
	}
	return 1, false
}

// resolveLayer accepts a layer name or number.
func resolveLayer(table *layer.Table, ref string) (layer.ID, error) {
	if id, ok := table.Lookup(ref); ok {
		return id, nil
	}
	if n, err := strconv.ParseUint(ref, 10, 8); err == nil {
		if _, ok := table.Layer(layer.ID(n)); ok {
			return layer.ID(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", layer.ErrUnknownLayer, ref)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setMillis(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Millisecond
	}
}
