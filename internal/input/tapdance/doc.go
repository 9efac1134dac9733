// Package tapdance resolves dual-role keys.
//
// A Binding pairs a tap action with a hold action. When its key goes down
// the Resolver starts a dance for that position and decides, from the
// press count, the tapping term and interruption by other keys, which of
// the two to emit:
//
//   - held past the term with a single press and no interruption: hold
//   - released before the term: tap, flushed immediately
//   - interrupted by another key: tap, unless permissive hold is on
//   - pressed more than once in a dance: tap
//
// With permissive hold an interrupted dance stays undecided. The caller
// defers the interrupting events and reports a nested tap with NestedTap,
// which resolves hold; the term expiring also resolves hold, while
// releasing the dual-role key first resolves tap.
//
// Whatever was resolved is released exactly once when the key comes up.
// Layer-tap keys use the same machine through ForLayerTap.
package tapdance
