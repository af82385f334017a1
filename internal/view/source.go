package view

import (
	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// Reader pairs a cache with the State views read from. It is a value; the
// engine builds a fresh one per request.
type Reader struct {
	cache *Cache
	state *store.State
}

var emptyState = store.NewState()

// NewReader returns a Reader over state. A nil state reads as empty and a
// nil cache as a private unbounded one.
func NewReader(cache *Cache, state *store.State) Reader {
	if cache == nil {
		cache = NewCache()
	}
	if state == nil {
		state = emptyState
	}
	return Reader{cache: cache, state: state}
}

// State returns the snapshot r reads from.
func (r Reader) State() *store.State { return r.state }

// Cache returns the cache r memoizes into.
func (r Reader) Cache() *Cache { return r.cache }

// Source is anything readable per key: a raw store input or a View.
type Source[T any] interface {
	Name() string
	Read(r Reader, key ir.ID) T
}

// rawSources names every store input a view may depend on directly.
var rawSources = map[string]struct{}{}

func raw(name string) string {
	rawSources[name] = struct{}{}
	return name
}

// IsRawSource reports whether name is a store input rather than a view.
func IsRawSource(name string) bool {
	_, ok := rawSources[name]
	return ok
}

type characterSource struct{ name string }

func (s characterSource) Name() string { return s.name }

// Read returns the character stored under key, or nil.
func (s characterSource) Read(r Reader, key ir.ID) *ir.Character {
	return r.state.Character(key)
}

// TableSource reads one entity table. The key is ignored.
type TableSource[E ir.Entity] struct {
	name string
	get  func(*store.State) *store.Table[E]
}

func (s TableSource[E]) Name() string { return s.name }

func (s TableSource[E]) Read(r Reader, _ ir.ID) *store.Table[E] {
	return s.get(r.state)
}

// Raw store inputs.
var (
	CharacterSource Source[*ir.Character] = characterSource{name: raw("character")}

	CharmTable = TableSource[*ir.Charm]{
		name: raw("table.charm"),
		get:  func(s *store.State) *store.Table[*ir.Charm] { return s.Charms },
	}
	SpellTable = TableSource[*ir.Spell]{
		name: raw("table.spell"),
		get:  func(s *store.State) *store.Table[*ir.Spell] { return s.Spells },
	}
	WeaponTable = TableSource[*ir.Weapon]{
		name: raw("table.weapon"),
		get:  func(s *store.State) *store.Table[*ir.Weapon] { return s.Weapons },
	}
	MeritTable = TableSource[*ir.Merit]{
		name: raw("table.merit"),
		get:  func(s *store.State) *store.Table[*ir.Merit] { return s.Merits },
	}
)
