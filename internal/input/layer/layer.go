package layer

import (
	"errors"
	"fmt"

	"github.com/dshills/keyflow/internal/input/action"
	"github.com/dshills/keyflow/internal/input/key"
)

// ID identifies a layer.
type ID = action.LayerID

// Table errors
var (
	ErrNoBaseLayer      = errors.New("no base layer")
	ErrTransparentBase  = errors.New("base layer has a transparent binding")
	ErrSizeMismatch     = errors.New("layer size mismatch")
	ErrDuplicateLayer   = errors.New("duplicate layer")
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrEmptyLayer       = errors.New("layer has no bindings")
	ErrPositionOutRange = errors.New("position out of range")
)

// Layer is a named grid of bindings, one per physical position.
type Layer struct {
	ID       ID
	Name     string
	Bindings []action.Action
}

// NewLayer creates a layer from its bindings.
func NewLayer(id ID, name string, bindings ...action.Action) Layer {
	return Layer{ID: id, Name: name, Bindings: bindings}
}

// Binding returns the action at pos, or Trans when pos is outside the layer.
func (l Layer) Binding(pos key.Position) action.Action {
	if int(pos) >= len(l.Bindings) {
		return action.Trans
	}
	return l.Bindings[pos]
}

// Table is the read-only set of layers.
type Table struct {
	layers map[ID]Layer
	byName map[string]ID
	order  []ID
	size   int
}

// NewTable validates and builds a layer table.
func NewTable(layers ...Layer) (*Table, error) {
	t := &Table{
		layers: make(map[ID]Layer, len(layers)),
		byName: make(map[string]ID, len(layers)),
		order:  make([]ID, 0, len(layers)),
	}

	for _, l := range layers {
		if len(l.Bindings) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyLayer, l.Name)
		}
		if _, exists := t.layers[l.ID]; exists {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateLayer, l.ID)
		}
		if l.Name != "" {
			if _, exists := t.byName[l.Name]; exists {
				return nil, fmt.Errorf("%w: name %q", ErrDuplicateLayer, l.Name)
			}
			t.byName[l.Name] = l.ID
		}
		if t.size == 0 {
			t.size = len(l.Bindings)
		} else if len(l.Bindings) != t.size {
			return nil, fmt.Errorf("%w: layer %q has %d bindings, want %d",
				ErrSizeMismatch, l.Name, len(l.Bindings), t.size)
		}
		t.layers[l.ID] = l
		t.order = append(t.order, l.ID)
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate checks invariants that need the whole table.
func (t *Table) validate() error {
	base, ok := t.layers[action.BaseLayer]
	if !ok {
		return ErrNoBaseLayer
	}
	for pos, b := range base.Bindings {
		if b.IsTransparent() {
			return fmt.Errorf("%w at position %d", ErrTransparentBase, pos)
		}
	}

	for _, id := range t.order {
		for pos, b := range t.layers[id].Bindings {
			if target, ok := b.TargetLayer(); ok {
				if _, exists := t.layers[target]; !exists {
					return fmt.Errorf("%w: layer %d position %d refers to layer %d",
						ErrUnknownLayer, id, pos, target)
				}
			}
		}
	}
	return nil
}

// Size returns the number of positions per layer.
func (t *Table) Size() int {
	return t.size
}

// Layer returns a layer by id.
func (t *Table) Layer(id ID) (Layer, bool) {
	l, ok := t.layers[id]
	return l, ok
}

// Lookup returns a layer id by name.
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the name of a layer, or its number when unnamed.
func (t *Table) Name(id ID) string {
	if l, ok := t.layers[id]; ok && l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%d", id)
}

// IDs returns layer ids in definition order.
func (t *Table) IDs() []ID {
	ids := make([]ID, len(t.order))
	copy(ids, t.order)
	return ids
}

// Names returns the name-to-id map, suitable for an action.Parser.
func (t *Table) Names() map[string]ID {
	names := make(map[string]ID, len(t.byName))
	for k, v := range t.byName {
		names[k] = v
	}
	return names
}

// Binding returns the raw binding of one layer, without fall-through.
func (t *Table) Binding(id ID, pos key.Position) action.Action {
	l, ok := t.layers[id]
	if !ok {
		return action.Trans
	}
	return l.Binding(pos)
}

// Resolve returns the binding for pos under the active stack: the first
// non-transparent binding from the most recent layer down to the base.
func (t *Table) Resolve(stack *Stack, pos key.Position) action.Action {
	active := stack.active
	for i := len(active) - 1; i >= 0; i-- {
		b := t.Binding(active[i], pos)
		if !b.IsTransparent() {
			return b
		}
	}
	// The base layer is fully defined, so this is only reached for positions
	// outside the table.
	return action.None
}

// Find returns every position on a layer bound to act.
func (t *Table) Find(id ID, act action.Action) []key.Position {
	l, ok := t.layers[id]
	if !ok {
		return nil
	}
	var found []key.Position
	for pos, b := range l.Bindings {
		if b == act {
			found = append(found, key.Position(pos))
		}
	}
	return found
}
