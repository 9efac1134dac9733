// Package combo implements chord detection.
//
// A combo is a set of two or more trigger bindings that, pressed together
// within a short window, produce a single substitute action. The Matcher
// sits in front of layer resolution: it buffers presses that could start a
// combo, fires the first registered combo whose triggers are all held, and
// otherwise replays the buffered presses unchanged and in order.
//
// Output is a slice of Emit values for each input; the caller executes them
// in order. The Matcher never reads a clock: time comes from the events and
// from Tick.
package combo
