package view

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateView indicates two views registered under one name.
	ErrDuplicateView = errors.New("view: duplicate view name")

	// ErrUnknownDependency indicates a view reads a source that is neither a
	// registered view nor a raw store input.
	ErrUnknownDependency = errors.New("view: unknown dependency")

	// ErrCycle indicates views that depend on each other.
	ErrCycle = errors.New("view: dependency cycle")
)

// Registry maps view names to views and owns their dependency graph.
type Registry struct {
	views map[string]Any
	graph *Graph
	order []string
}

// NewRegistry validates views and returns a registry over them. Every
// dependency must name another view in the set or a raw store input, and the
// graph must be acyclic.
func NewRegistry(views ...Any) (*Registry, error) {
	byName := make(map[string]Any, len(views))
	for _, v := range views {
		if _, dup := byName[v.Name()]; dup || IsRawSource(v.Name()) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateView, v.Name())
		}
		byName[v.Name()] = v
	}

	var errs []error
	for _, v := range views {
		for _, d := range v.Deps() {
			if _, ok := byName[d]; !ok && !IsRawSource(d) {
				errs = append(errs, fmt.Errorf("%w: %s reads %q", ErrUnknownDependency, v.Name(), d))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	g := NewGraph(views)
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	return &Registry{views: byName, graph: g, order: order}, nil
}

// MustRegistry is NewRegistry that panics on error, for package-level
// catalogs whose validity is fixed at compile time.
func MustRegistry(views ...Any) *Registry {
	r, err := NewRegistry(views...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the view registered under name.
func (r *Registry) Lookup(name string) (Any, bool) {
	v, ok := r.views[name]
	return v, ok
}

// Names returns every registered view name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.views))
	for n := range r.views {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Order returns views with upstream views first.
func (r *Registry) Order() []string {
	out := make([]string, 0, len(r.views))
	for _, n := range r.order {
		if _, ok := r.views[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Graph returns the dependency graph.
func (r *Registry) Graph() *Graph { return r.graph }
