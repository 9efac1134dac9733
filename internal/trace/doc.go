// Package trace records input sessions and replays them.
//
// A trace is the sequence of raw events a session received, each stamped
// with its offset from the first event. Replaying a trace through an
// engine is deterministic: the player drives Tick at a fixed step between
// events instead of following the wall clock, so the same trace always
// produces the same output.
//
// Traces are stored as YAML:
//
//	version: 1
//	id: 0b6c2f0e-...
//	name: cut-combo
//	keymap: handsdownneu
//	created: 2026-01-02T15:04:05Z
//	entries:
//	  - {t: 0, ev: D 37}
//	  - {t: 12, ev: D 38}
//	  - {t: 60, ev: U 37}
package trace
