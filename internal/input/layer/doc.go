// Package layer implements the layer table and the active layer stack.
//
// A Table holds every layer's bindings, one Action per physical position.
// A Stack holds the ids of the active layers ordered by activation recency,
// with the base layer permanently at the bottom. Resolution walks the stack
// from the most recently activated layer down and returns the first binding
// that is not transparent:
//
//	table, err := layer.NewTable(base, pointer, symbol)
//	stack := layer.NewStack()
//	stack.Activate(2)
//	act := table.Resolve(stack, pos)
//
// Tables are validated when built: the base layer must exist and define
// every position, all layers must have the same size, and every layer an
// action refers to must exist.
package layer
