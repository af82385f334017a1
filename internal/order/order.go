// Package order holds the sort and set helpers shared by views.
//
// Every helper returns a freshly allocated slice and never reorders its
// input in place, so callers may pass slices that other views still hold.
package order

import (
	"slices"

	"github.com/roach88/sheetview/internal/ir"
)

// Compare orders two sortable entities ascending by their sorting value.
//
// Equal values, and two missing values, compare as 0 so a stable sort keeps
// their input order. An entity with a sorting value sorts before one without.
func Compare(a, b ir.Sortable) int {
	av, aok := a.SortOrder()
	bv, bok := b.SortOrder()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case av < bv:
		return -1
	case av > bv:
		return 1
	}
	return 0
}

// SortStable returns a copy of items sorted with Compare. Ties keep their
// relative input order.
func SortStable[E ir.Sortable](items []E) []E {
	out := make([]E, len(items))
	copy(out, items)
	slices.SortStableFunc(out, func(a, b E) int { return Compare(a, b) })
	return out
}

// DedupeSorted builds a set from values and returns its members in
// lexicographic order. The result depends only on content, never on the
// order values arrived in.
func DedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Flatten concatenates attr(item) for every item, in item order.
func Flatten[E any](items []E, attr func(E) []string) []string {
	var n int
	for _, item := range items {
		n += len(attr(item))
	}
	out := make([]string, 0, n)
	for _, item := range items {
		out = append(out, attr(item)...)
	}
	return out
}

// Pluck collects one string attribute per item, skipping empty values.
func Pluck[E any](items []E, attr func(E) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := attr(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Concat joins lists in the given order into one new slice.
func Concat[E any](lists ...[]E) []E {
	var n int
	for _, l := range lists {
		n += len(l)
	}
	out := make([]E, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
