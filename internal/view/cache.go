package view

import (
	"reflect"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/sheetview/internal/ir"
)

// Observer receives cache events. Implementations must be cheap; they run
// inside view computation.
type Observer interface {
	// Hit is called when a cached result is reused.
	Hit(view string, key ir.ID)

	// Recompute is called before compute runs for a first request or an
	// input mismatch.
	Recompute(view string, key ir.ID)
}

// Stats summarises cache activity since construction or the last Purge.
type Stats struct {
	Hits       int64 `json:"hits"`
	Recomputes int64 `json:"recomputes"`
	Entries    int   `json:"entries"`
}

// Cache holds the last inputs and result per (view name, key).
//
// A Cache is not safe for concurrent use. The engine serializes access.
type Cache struct {
	entries  entryTable
	observer Observer

	hits       int64
	recomputes int64
}

// CacheOption configures a Cache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	maxEntries int
	observer   Observer
}

// WithMaxEntries bounds the cache to n entries, evicting the least recently
// used. n <= 0 keeps the cache unbounded.
func WithMaxEntries(n int) CacheOption {
	return func(c *cacheConfig) {
		c.maxEntries = n
	}
}

// WithObserver registers o for hit and recompute events.
func WithObserver(o Observer) CacheOption {
	return func(c *cacheConfig) {
		c.observer = o
	}
}

// NewCache returns an empty cache. Without options it never evicts.
func NewCache(opts ...CacheOption) *Cache {
	cfg := cacheConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var table entryTable = make(mapTable)
	if cfg.maxEntries > 0 {
		// lru.New only fails for a non-positive size.
		l, err := lru.New[entryKey, *entry](cfg.maxEntries)
		if err == nil {
			table = lruTable{l}
		}
	}
	return &Cache{entries: table, observer: cfg.observer}
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits, Recomputes: c.recomputes, Entries: c.entries.len()}
}

// Purge drops every entry and resets counters.
func (c *Cache) Purge() {
	c.entries.purge()
	c.hits = 0
	c.recomputes = 0
}

// Memo returns the cached result for (viewName, key) when every element of
// inputs is Identical to the one recorded last time, positionally. Otherwise
// it runs compute, records inputs and the result, and returns it.
//
// compute must be pure: it may only use values reachable from inputs.
func Memo[V any](c *Cache, viewName string, key ir.ID, inputs []any, compute func() V) V {
	k := entryKey{view: viewName, key: key}
	if e, ok := c.entries.get(k); ok && sameInputs(e.inputs, inputs) {
		if v, ok := e.result.(V); ok {
			c.hits++
			if c.observer != nil {
				c.observer.Hit(viewName, key)
			}
			return v
		}
	}

	c.recomputes++
	if c.observer != nil {
		c.observer.Recompute(viewName, key)
	}
	v := compute()
	c.entries.put(k, &entry{inputs: slices.Clone(inputs), result: v})
	return v
}

func sameInputs(prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !Identical(prev[i], next[i]) {
			return false
		}
	}
	return true
}

// Identical reports whether a and b are the same reference.
//
// Pointers, maps, channels and funcs compare by pointer. Slices compare by
// data pointer and length, and two empty slices are identical. Other
// comparable values compare with ==. Values that are neither references nor
// comparable are never identical.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		if va.Len() != vb.Len() {
			return false
		}
		if va.Len() == 0 {
			return true
		}
		return va.Pointer() == vb.Pointer()
	}
	if va.Comparable() {
		return a == b
	}
	return false
}

type entryKey struct {
	view string
	key  ir.ID
}

type entry struct {
	inputs []any
	result any
}

type entryTable interface {
	get(k entryKey) (*entry, bool)
	put(k entryKey, e *entry)
	len() int
	purge()
}

type mapTable map[entryKey]*entry

func (m mapTable) get(k entryKey) (*entry, bool) {
	e, ok := m[k]
	return e, ok
}

func (m mapTable) put(k entryKey, e *entry) { m[k] = e }
func (m mapTable) len() int                 { return len(m) }
func (m mapTable) purge()                   { clear(m) }

type lruTable struct {
	l *lru.Cache[entryKey, *entry]
}

func (t lruTable) get(k entryKey) (*entry, bool) { return t.l.Get(k) }
func (t lruTable) put(k entryKey, e *entry)      { t.l.Add(k, e) }
func (t lruTable) len() int                      { return t.l.Len() }
func (t lruTable) purge()                        { t.l.Purge() }
