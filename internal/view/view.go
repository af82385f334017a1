package view

import (
	"github.com/roach88/sheetview/internal/ir"
)

// Any is a View with its result type erased, as held by a Registry.
type Any interface {
	Name() string
	Deps() []string
	ReadAny(r Reader, key ir.ID) any
}

// View is a named, memoized derivation over upstream sources. The values
// read from its sources are its cache inputs, so a View recomputes only when
// an upstream value changed identity.
type View[R any] struct {
	name string
	deps []string
	read func(r Reader, key ir.ID) R
}

func (v *View[R]) Name() string { return v.name }

// Deps returns the names of the sources v reads, in input order.
func (v *View[R]) Deps() []string { return append([]string(nil), v.deps...) }

// Read returns v's value for key, recomputing only on an input mismatch.
func (v *View[R]) Read(r Reader, key ir.ID) R { return v.read(r, key) }

func (v *View[R]) ReadAny(r Reader, key ir.ID) any { return v.read(r, key) }

// Select1 builds a view over one source.
func Select1[A, R any](name string, a Source[A], fn func(A) R) *View[R] {
	return &View[R]{
		name: name,
		deps: []string{a.Name()},
		read: func(r Reader, key ir.ID) R {
			av := a.Read(r, key)
			return Memo(r.cache, name, key, []any{av}, func() R {
				return fn(av)
			})
		},
	}
}

// Select2 builds a view over two sources.
func Select2[A, B, R any](name string, a Source[A], b Source[B], fn func(A, B) R) *View[R] {
	return &View[R]{
		name: name,
		deps: []string{a.Name(), b.Name()},
		read: func(r Reader, key ir.ID) R {
			av, bv := a.Read(r, key), b.Read(r, key)
			return Memo(r.cache, name, key, []any{av, bv}, func() R {
				return fn(av, bv)
			})
		},
	}
}

// Select3 builds a view over three sources.
func Select3[A, B, C, R any](name string, a Source[A], b Source[B], c Source[C], fn func(A, B, C) R) *View[R] {
	return &View[R]{
		name: name,
		deps: []string{a.Name(), b.Name(), c.Name()},
		read: func(r Reader, key ir.ID) R {
			av, bv, cv := a.Read(r, key), b.Read(r, key), c.Read(r, key)
			return Memo(r.cache, name, key, []any{av, bv, cv}, func() R {
				return fn(av, bv, cv)
			})
		},
	}
}

// Select4 builds a view over four sources.
func Select4[A, B, C, D, R any](name string, a Source[A], b Source[B], c Source[C], d Source[D], fn func(A, B, C, D) R) *View[R] {
	return &View[R]{
		name: name,
		deps: []string{a.Name(), b.Name(), c.Name(), d.Name()},
		read: func(r Reader, key ir.ID) R {
			av, bv, cv, dv := a.Read(r, key), b.Read(r, key), c.Read(r, key), d.Read(r, key)
			return Memo(r.cache, name, key, []any{av, bv, cv, dv}, func() R {
				return fn(av, bv, cv, dv)
			})
		},
	}
}

// SelectAll builds a view over any number of sources of one type. fn
// receives their values in source order.
func SelectAll[T, R any](name string, sources []Source[T], fn func([]T) R) *View[R] {
	deps := make([]string, len(sources))
	for i, s := range sources {
		deps[i] = s.Name()
	}
	return &View[R]{
		name: name,
		deps: deps,
		read: func(r Reader, key ir.ID) R {
			values := make([]T, len(sources))
			inputs := make([]any, len(sources))
			for i, s := range sources {
				values[i] = s.Read(r, key)
				inputs[i] = values[i]
			}
			return Memo(r.cache, name, key, inputs, func() R {
				return fn(values)
			})
		},
	}
}
