package key

import (
	"fmt"
	"strings"
)

// Modifier is the HID report modifier byte.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0
)

// Individual modifier bits in report order.
const (
	ModLeftCtrl Modifier = 1 << iota
	ModLeftShift
	ModLeftAlt
	ModLeftGUI
	ModRightCtrl
	ModRightShift
	ModRightAlt
	ModRightGUI
)

// Side-independent masks.
const (
	ModCtrl  = ModLeftCtrl | ModRightCtrl
	ModShift = ModLeftShift | ModRightShift
	ModAlt   = ModLeftAlt | ModRightAlt
	ModGUI   = ModLeftGUI | ModRightGUI
)

// Has returns true if m contains any bit of mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if either Shift is set.
func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// Bits returns the individual modifier bits set in m, lowest first.
func (m Modifier) Bits() []Modifier {
	var bits []Modifier
	for b := ModLeftCtrl; b != 0; b <<= 1 {
		if m&b != 0 {
			bits = append(bits, b)
		}
	}
	return bits
}

// Code returns the modifier keycode for a single modifier bit.
func (m Modifier) Code() Code {
	for i := 0; i < 8; i++ {
		if m == 1<<i {
			return CodeLeftCtrl + Code(i)
		}
	}
	return CodeNone
}

// String returns a representation like "MOD_LCTL|MOD_LSFT".
func (m Modifier) String() string {
	if m == ModNone {
		return "MOD_NONE"
	}
	parts := make([]string, 0, 2)
	for _, b := range m.Bits() {
		parts = append(parts, modifierNames[b])
	}
	return strings.Join(parts, "|")
}

// ModifierFor returns the report bit for a modifier keycode.
func ModifierFor(c Code) Modifier {
	if !c.IsModifier() {
		return ModNone
	}
	return Modifier(1 << (c - CodeLeftCtrl))
}

var modifierNames = map[Modifier]string{
	ModLeftCtrl:   "MOD_LCTL",
	ModLeftShift:  "MOD_LSFT",
	ModLeftAlt:    "MOD_LALT",
	ModLeftGUI:    "MOD_LGUI",
	ModRightCtrl:  "MOD_RCTL",
	ModRightShift: "MOD_RSFT",
	ModRightAlt:   "MOD_RALT",
	ModRightGUI:   "MOD_RGUI",
}

// ParseModifier parses "MOD_LCTL" or a "|"-joined list of modifier names.
func ParseModifier(spec string) (Modifier, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return ModNone, ErrEmptyName
	}

	var mods Modifier
	for _, part := range strings.Split(spec, "|") {
		part = strings.ToUpper(strings.TrimSpace(part))
		found := false
		for bit, name := range modifierNames {
			if name == part {
				mods |= bit
				found = true
				break
			}
		}
		if !found {
			return ModNone, fmt.Errorf("%w: %q", ErrUnknownModifier, part)
		}
	}
	return mods, nil
}
