// Package view implements memoized, composable views over store snapshots.
//
// A view is a pure function of the values it reads from its declared
// sources. Each read goes through Memo, which keeps one entry per
// (view name, key) holding the inputs seen last time and the result they
// produced. When every input is Identical to its recorded counterpart the
// cached result is returned as is; otherwise the view recomputes.
//
// Sources are either raw store inputs (CharacterSource, CharmTable, ...)
// or other views. Because a view's output is an input of its dependents,
// a dependent recomputes only when an upstream view actually produced a
// new value, and invalidation follows the graph with no per-view wiring.
//
// Results are shared. Callers must not modify slices returned by a view.
package view
