package store

import (
	"maps"
	"slices"

	"github.com/roach88/sheetview/internal/ir"
)

// AnyTable is the kind-erased view of a Table.
type AnyTable interface {
	Kind() ir.Kind
	Len() int
	IDs() []ir.ID
	Lookup(id ir.ID) (ir.Entity, bool)
}

// Table maps ids to entities of one kind. A Table is never modified after it
// has been published in a State; writers derive a new Table instead.
type Table[E ir.Entity] struct {
	kind ir.Kind
	rows map[ir.ID]E
}

// NewTable builds a table from rows. Later rows win on duplicate ids.
func NewTable[E ir.Entity](kind ir.Kind, rows ...E) *Table[E] {
	t := &Table[E]{kind: kind, rows: make(map[ir.ID]E, len(rows))}
	for _, row := range rows {
		t.rows[row.EntityID()] = row
	}
	return t
}

// Kind reports the entity kind stored in t.
func (t *Table[E]) Kind() ir.Kind { return t.kind }

// Get returns the entity stored under id. A nil table holds nothing.
func (t *Table[E]) Get(id ir.ID) (E, bool) {
	if t == nil {
		var zero E
		return zero, false
	}
	e, ok := t.rows[id]
	return e, ok
}

// Lookup is Get without the element type.
func (t *Table[E]) Lookup(id ir.ID) (ir.Entity, bool) {
	e, ok := t.Get(id)
	if !ok {
		return nil, false
	}
	return e, true
}

// Len returns the number of entities in t.
func (t *Table[E]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// IDs returns every id in ascending order.
func (t *Table[E]) IDs() []ir.ID {
	if t == nil {
		return []ir.ID{}
	}
	return slices.Sorted(maps.Keys(t.rows))
}

// Rows returns every entity ordered by id.
func (t *Table[E]) Rows() []E {
	ids := t.IDs()
	out := make([]E, len(ids))
	for i, id := range ids {
		out[i] = t.rows[id]
	}
	return out
}

// with returns a copy of t that stores e under its id.
func (t *Table[E]) with(e E) *Table[E] {
	next := &Table[E]{kind: t.kind, rows: maps.Clone(t.rows)}
	if next.rows == nil {
		next.rows = make(map[ir.ID]E, 1)
	}
	next.rows[e.EntityID()] = e
	return next
}

// without returns a copy of t lacking id.
func (t *Table[E]) without(id ir.ID) *Table[E] {
	next := &Table[E]{kind: t.kind, rows: maps.Clone(t.rows)}
	delete(next.rows, id)
	return next
}
