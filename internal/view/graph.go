package view

import (
	"fmt"
	"slices"
	"strings"
)

// Graph is the dependency graph between views and the raw store inputs they
// read. An edge runs from a view to each of its declared sources.
type Graph struct {
	deps       map[string][]string
	dependents map[string][]string
}

// NewGraph builds the graph for views. Raw sources appear as leaf nodes.
func NewGraph(views []Any) *Graph {
	g := &Graph{
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
	for _, v := range views {
		name := v.Name()
		deps := v.Deps()
		g.deps[name] = deps
		for _, d := range deps {
			if _, ok := g.deps[d]; !ok && IsRawSource(d) {
				g.deps[d] = []string{}
			}
			if !slices.Contains(g.dependents[d], name) {
				g.dependents[d] = append(g.dependents[d], name)
			}
		}
	}
	for _, ds := range g.dependents {
		slices.Sort(ds)
	}
	return g
}

// Nodes returns every node in lexicographic order.
func (g *Graph) Nodes() []string {
	out := make([]string, 0, len(g.deps))
	for n := range g.deps {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Deps returns the direct sources of name in declared order.
func (g *Graph) Deps(name string) []string {
	return slices.Clone(g.deps[name])
}

// Dependents returns the views that read name directly, sorted.
func (g *Graph) Dependents(name string) []string {
	return slices.Clone(g.dependents[name])
}

// Affected returns every view that transitively reads name, sorted. These
// are the views whose inputs may change identity when name does.
func (g *Graph) Affected(name string) []string {
	seen := map[string]bool{}
	queue := []string{name}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, d := range g.dependents[n] {
			if !seen[d] {
				seen[d] = true
				queue = append(queue, d)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Order returns every node with sources before the views that read them.
// Ties are broken lexicographically so the order is deterministic. A cycle
// yields an error naming its members.
func (g *Graph) Order() ([]string, error) {
	pending := make(map[string]int, len(g.deps))
	for n, ds := range g.deps {
		pending[n] = len(ds)
	}

	var ready []string
	for n, c := range pending {
		if c == 0 {
			ready = append(ready, n)
		}
	}
	slices.Sort(ready)

	out := make([]string, 0, len(g.deps))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)

		var next []string
		for _, d := range g.dependents[n] {
			// A view may list the same source twice.
			pending[d] -= count(g.deps[d], n)
			if pending[d] == 0 {
				next = append(next, d)
			}
		}
		ready = append(ready, next...)
		slices.Sort(ready)
	}

	if len(out) != len(g.deps) {
		cycles := g.Cycles()
		if len(cycles) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(cycles[0], " -> "))
		}
		return nil, ErrCycle
	}
	return out, nil
}

func count(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}

// Cycles returns every strongly connected component of more than one node,
// plus self-loops, each as a closed path such as [a b a].
func (g *Graph) Cycles() [][]string {
	var out [][]string
	for _, scc := range tarjanSCC(g.deps, g.Nodes()) {
		if len(scc) == 1 && !slices.Contains(g.deps[scc[0]], scc[0]) {
			continue
		}
		out = append(out, cyclePath(scc, g.deps))
	}
	return out
}

// tarjanSCC finds strongly connected components, visiting nodes in the
// given order so results are deterministic.
func tarjanSCC(edges map[string][]string, nodes []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// cyclePath walks edges inside scc from its smallest member back to itself.
func cyclePath(scc []string, edges map[string][]string) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := slices.Min(scc)
	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		var next string
		for _, w := range edges[current] {
			if members[w] && (w == start || !visited[w]) {
				next = w
				break
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		visited[next] = true
		current = next
	}
}
