// Package input resolves keyboard and trackball input for keyflow.
//
// The Engine turns raw key-position events and pointer motion samples into
// key, button and pointer output. It is built from the subpackages:
//
//   - key: keycodes, modifiers, positions and raw events
//   - action: the bindings a position can hold, and their expression syntax
//   - layer: the layer table and the recency-ordered active layer stack
//   - combo: chords of keys that produce a substitute action
//   - tapdance: dual-role keys resolved as tap or hold
//   - pointer: the auto pointer layer and trackball device state
//   - sniping: precision mode driven by the active layers
//
// # Pipeline
//
// Each raw key event passes through:
//
//  1. hooks, which may consume it
//  2. the combo matcher, which buffers possible chords
//  3. the tap-hold resolver, which is told about interrupting presses
//  4. layer resolution and execution, with the pressed action cached per
//     position so the release undoes exactly what the press did
//
// Combos are matched before dual-role keys are resolved, so a key that
// belongs to both resolves as part of the combo when the chord completes.
//
// # Time
//
// The engine never reads a clock. Events carry their time, and Tick
// advances combo windows, tapping terms and the pointer layer timeout.
//
// # Usage
//
//	engine, err := input.NewEngine(keymap, output, input.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	engine.HandleKey(key.Press(12, now))
//	engine.HandleMotion(key.Motion{DX: 9, Time: now})
//	engine.Tick(now)
package input
