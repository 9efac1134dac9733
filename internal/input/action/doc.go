// Package action defines the closed set of things a key binding can do.
//
// An Action is a small immutable value tagged by Kind:
//
//   - NoOp and Transparent: do nothing, or fall through to a lower layer
//   - Key: press a keycode with optional modifiers (LCTL(KC_X))
//   - MomentaryLayer, ToggleLayer: layer switching (MO, TG)
//   - LayerTap: tap for a keycode, hold for a layer (LT)
//   - OneShotMod: a modifier that applies to the next key (OSM)
//   - TapDance: a reference to a tap/hold binding (TD)
//
// Actions are built with the constructor functions in this package or parsed
// from the QMK-style expressions used in keymap files:
//
//	act, err := action.Parse("LT(pointer, KC_X)", layers)
package action
