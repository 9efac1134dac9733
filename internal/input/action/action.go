package action

import (
	"fmt"
	"strings"

	"github.com/dshills/keyflow/internal/input/key"
)

// LayerID identifies a layer. Layer 0 is the base layer.
type LayerID uint8

// BaseLayer is the always-active bottom layer.
const BaseLayer LayerID = 0

// Kind tags the variant held by an Action.
type Kind uint8

const (
	// KindNoOp does nothing (KC_NO).
	KindNoOp Kind = iota
	// KindTransparent defers to the next lower active layer (KC_TRNS).
	KindTransparent
	// KindKey emits a keycode with modifiers.
	KindKey
	// KindMomentaryLayer activates a layer while held (MO).
	KindMomentaryLayer
	// KindLayerTap taps a keycode or holds a layer (LT).
	KindLayerTap
	// KindOneShotMod applies a modifier to the next key (OSM).
	KindOneShotMod
	// KindToggleLayer flips a layer on press (TG).
	KindToggleLayer
	// KindTapDance references a tap/hold binding (TD).
	KindTapDance
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNoOp:
		return "noop"
	case KindTransparent:
		return "transparent"
	case KindKey:
		return "key"
	case KindMomentaryLayer:
		return "momentary-layer"
	case KindLayerTap:
		return "layer-tap"
	case KindOneShotMod:
		return "one-shot-mod"
	case KindToggleLayer:
		return "toggle-layer"
	case KindTapDance:
		return "tap-dance"
	default:
		return fmt.Sprintf("kind(%d)", k)
	}
}

// Action is a binding's behavior. The zero value is NoOp.
// Only the fields relevant to Kind are set, so Actions compare with ==.
type Action struct {
	Kind     Kind
	Code     key.Code
	Mods     key.Modifier
	Layer    LayerID
	TapDance uint8
}

var (
	// None is KC_NO.
	None = Action{Kind: KindNoOp}
	// Trans is KC_TRNS.
	Trans = Action{Kind: KindTransparent}
)

// Key returns the action for a plain keycode.
// KC_NO and KC_TRNS map to None and Trans.
func Key(code key.Code) Action {
	return Modified(code, key.ModNone)
}

// Modified returns a keycode pressed together with mods, e.g. LCTL(KC_C).
// A modifier-only action such as S(KC_NO) keeps Kind Key with a zero Code.
func Modified(code key.Code, mods key.Modifier) Action {
	switch {
	case code == key.CodeTransparent && mods == key.ModNone:
		return Trans
	case code == key.CodeNone && mods == key.ModNone:
		return None
	}
	return Action{Kind: KindKey, Code: code, Mods: mods}
}

// MO returns a momentary layer action.
func MO(layer LayerID) Action {
	return Action{Kind: KindMomentaryLayer, Layer: layer}
}

// TG returns a toggle layer action.
func TG(layer LayerID) Action {
	return Action{Kind: KindToggleLayer, Layer: layer}
}

// LT returns a layer-tap action: tap sends code, hold activates layer.
func LT(layer LayerID, code key.Code) Action {
	return Action{Kind: KindLayerTap, Layer: layer, Code: code}
}

// OSM returns a one-shot modifier action.
func OSM(mods key.Modifier) Action {
	return Action{Kind: KindOneShotMod, Mods: mods}
}

// TD returns a reference to tap-dance binding id.
func TD(id uint8) Action {
	return Action{Kind: KindTapDance, TapDance: id}
}

// IsTransparent returns true for KC_TRNS.
func (a Action) IsTransparent() bool {
	return a.Kind == KindTransparent
}

// IsNoOp returns true for KC_NO.
func (a Action) IsNoOp() bool {
	return a.Kind == KindNoOp
}

// TargetLayer returns the layer an action switches to, if any.
func (a Action) TargetLayer() (LayerID, bool) {
	switch a.Kind {
	case KindMomentaryLayer, KindToggleLayer, KindLayerTap:
		return a.Layer, true
	}
	return 0, false
}

// TapKey returns the keycode action a LayerTap sends when tapped.
// Other kinds return themselves.
func (a Action) TapKey() Action {
	if a.Kind == KindLayerTap {
		return Key(a.Code)
	}
	return a
}

// HoldLayer returns the momentary layer a LayerTap activates when held.
func (a Action) HoldLayer() Action {
	if a.Kind == KindLayerTap {
		return MO(a.Layer)
	}
	return a
}

// String renders the action in the same grammar Parse accepts.
func (a Action) String() string {
	switch a.Kind {
	case KindNoOp:
		return "KC_NO"
	case KindTransparent:
		return "KC_TRNS"
	case KindKey:
		return wrapMods(a.Code.String(), a.Mods)
	case KindMomentaryLayer:
		return fmt.Sprintf("MO(%d)", a.Layer)
	case KindToggleLayer:
		return fmt.Sprintf("TG(%d)", a.Layer)
	case KindLayerTap:
		return fmt.Sprintf("LT(%d, %s)", a.Layer, a.Code)
	case KindOneShotMod:
		return fmt.Sprintf("OSM(%s)", a.Mods)
	case KindTapDance:
		return fmt.Sprintf("TD(%d)", a.TapDance)
	default:
		return a.Kind.String()
	}
}

// wrapMods nests modifier wrappers so that the lowest bit is outermost.
func wrapMods(inner string, mods key.Modifier) string {
	bits := mods.Bits()
	var sb strings.Builder
	for _, b := range bits {
		sb.WriteString(wrapperNames[b])
		sb.WriteByte('(')
	}
	sb.WriteString(inner)
	sb.WriteString(strings.Repeat(")", len(bits)))
	return sb.String()
}

var wrapperNames = map[key.Modifier]string{
	key.ModLeftCtrl:   "LCTL",
	key.ModLeftShift:  "LSFT",
	key.ModLeftAlt:    "LALT",
	key.ModLeftGUI:    "LGUI",
	key.ModRightCtrl:  "RCTL",
	key.ModRightShift: "RSFT",
	key.ModRightAlt:   "RALT",
	key.ModRightGUI:   "RGUI",
}

// Matches reports whether a resolved binding counts as this combo trigger.
// A layer-tap binding matches the keycode it sends when tapped.
func (a Action) Matches(binding Action) bool {
	if a == binding {
		return true
	}
	return binding.Kind == KindLayerTap && a == binding.TapKey()
}
