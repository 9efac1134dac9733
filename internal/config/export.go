package config

import (
	"strconv"

	"github.com/dshills/keyflow/internal/input"
	"github.com/dshills/keyflow/internal/input/layer"
)

// FromKeymap renders a compiled keymap back into a document.
// Every setting is written out, so the result documents the effective
// configuration rather than the original file.
func FromKeymap(km *input.Keymap) *Document {
	doc := &Document{Name: km.Name}

	for _, id := range km.Table.IDs() {
		l, _ := km.Table.Layer(id)
		ld := LayerDoc{Name: l.Name, ID: ptr(int(id)), Bindings: make([]string, len(l.Bindings))}
		for pos, b := range l.Bindings {
			ld.Bindings[pos] = b.String()
		}
		doc.Layers = append(doc.Layers, ld)
	}

	for _, c := range km.Combos {
		cd := ComboDoc{Name: c.Name, Output: c.Output.String()}
		for _, t := range c.Triggers {
			cd.Triggers = append(cd.Triggers, t.String())
		}
		doc.Combos = append(doc.Combos, cd)
	}

	for _, td := range km.TapDances {
		doc.TapDances = append(doc.TapDances, TapDanceDoc{
			ID:   int(td.ID),
			Name: td.Name,
			Tap:  td.Tap.String(),
			Hold: td.Hold.String(),
		})
	}

	cfg := km.Config
	doc.Timing = Timing{
		Combos:         ptr(cfg.EnableCombos),
		ComboWindowMS:  ptr(int(cfg.ComboWindow.Milliseconds())),
		TapTermMS:      ptr(int(cfg.TapTerm.Milliseconds())),
		PermissiveHold: ptr(cfg.PermissiveHold),
	}
	dev := cfg.Device
	doc.Pointer = Pointer{
		AutoLayer:  ptr(cfg.AutoPointer.Enabled),
		Layer:      layerRef(km, cfg.AutoPointer.Layer),
		Threshold:  ptr(cfg.AutoPointer.Threshold),
		TimeoutMS:  ptr(int(cfg.AutoPointer.Timeout.Milliseconds())),
		AutoSnipe:  ptr(cfg.AutoSnipe),
		SnipeLayer: layerRef(km, cfg.AutoSnipeLayer),
		DPI: DPI{
			MinDefault:   ptr(dev.MinDefaultDPI),
			DefaultStep:  ptr(dev.DefaultDPIStep),
			DefaultSteps: ptr(dev.DefaultDPISteps),
			MinSniping:   ptr(dev.MinSnipingDPI),
			SnipingStep:  ptr(dev.SnipingDPIStep),
			SnipingSteps: ptr(dev.SnipingDPISteps),
		},
		DragScrollBuffer: ptr(dev.DragScrollBuffer),
		ReverseScroll:    ptr(dev.ReverseScroll),
	}
	return doc
}

// layerRef names a layer, or returns nil when the table lacks it.
func layerRef(km *input.Keymap, id layer.ID) *string {
	l, ok := km.Table.Layer(id)
	if !ok {
		return nil
	}
	if l.Name != "" {
		return &l.Name
	}
	return ptr(strconv.Itoa(int(id)))
}

func ptr[T any](v T) *T {
	return &v
}
