// Package key provides the low-level vocabulary of the input system.
//
// This package defines the fundamental types shared by every resolver:
//
//   - Code: a HID keyboard usage id, extended with the transparent marker,
//     mouse buttons and Charybdis pointer-device codes
//   - Modifier: the HID modifier byte (left/right Ctrl, Shift, Alt, GUI)
//   - Position: a physical key index in the matrix layout
//   - Event: a single press or release of a physical position
//   - Motion: a relative pointer motion sample
//
// # Code Names
//
// Codes are written with the QMK-style names used by keymap files:
//
//   - Letters and digits: "KC_A", "KC_1"
//   - Punctuation: "KC_COMMA" (alias "KC_COMM"), "KC_SLASH" ("KC_SLSH")
//   - Markers: "XXXXXXX" / "KC_NO", "_______" / "KC_TRNS"
//   - Pointer device: "DPI_MOD", "S_D_MOD", "SNIPING", "DRGSCRL"
package key
