// Package config loads keymap documents.
//
// A keymap document is a TOML or YAML file with five sections:
//
//	name = "handsdownneu"
//
//	[timing]
//	combo_window_ms = 50
//	tap_term_ms = 200
//
//	[pointer]
//	layer = "pointer"
//	threshold = 8
//
//	[[layers]]
//	name = "base"
//	bindings = ["KC_W", "KC_F", ...]
//
//	[[combos]]
//	name = "cut"
//	triggers = ["KC_X", "KC_C"]
//	output = "LCTL(KC_X)"
//
//	[[tap_dances]]
//	id = 0
//	tap = "KC_ESC"
//	hold = "KC_LCTL"
//
// Documents are validated against an embedded JSON schema before they are
// compiled into an input.Keymap. Bindings use the action expression grammar
// of package action; layer arguments may name layers.
//
// Watcher reloads a keymap file when it changes on disk.
package config
