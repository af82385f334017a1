package view

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

func testState(t *testing.T) *store.State {
	t.Helper()
	s, err := store.Seed(1,
		&ir.Character{ID: 1, Charms: []ir.ID{5, 6}},
		&ir.Character{ID: 2, Charms: []ir.ID{7}},
		&ir.Charm{ID: 5, Name: "a"},
		&ir.Charm{ID: 6, Name: "b"},
		&ir.Charm{ID: 7, Name: "c"},
	)
	require.NoError(t, err)
	return s
}

// names resolves a character's charm ids to names, counting computations.
func namesView(calls *int) *View[[]string] {
	return Select2("names", CharacterSource, CharmTable,
		func(c *ir.Character, charms *store.Table[*ir.Charm]) []string {
			*calls++
			out := []string{}
			for _, id := range store.ResolveIDs(c, ir.RelCharms) {
				if charm, ok := charms.Get(id); ok {
					out = append(out, charm.Name)
				}
			}
			return out
		})
}

func TestSelect2_ReadsAndMemoizes(t *testing.T) {
	calls := 0
	names := namesView(&calls)
	r := NewReader(NewCache(), testState(t))

	assert.Equal(t, []string{"a", "b"}, names.Read(r, 1))
	assert.Equal(t, []string{"a", "b"}, names.Read(r, 1))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"character", "table.charm"}, names.Deps())
}

func TestSelect_DependentSkipsWhenUpstreamOutputUnchanged(t *testing.T) {
	calls, countCalls := 0, 0
	names := namesView(&calls)
	count := Select1("count", Source[[]string](names), func(ns []string) int {
		countCalls++
		return len(ns)
	})

	cache := NewCache()
	s := store.New(testState(t))

	assert.Equal(t, 2, count.Read(NewReader(cache, s.State()), 1))
	assert.Equal(t, 1, count.Read(NewReader(cache, s.State()), 2))

	// Renaming charm 7 touches the charm table, so names recomputes for both
	// characters. Character 1's output has new identity too, so count
	// recomputes for it as well.
	_, err := s.Apply(store.Mutation{Op: store.OpUpdate, Kind: ir.KindCharm, Entity: &ir.Charm{ID: 7, Name: "z"}})
	require.NoError(t, err)

	assert.Equal(t, 2, count.Read(NewReader(cache, s.State()), 1))
	assert.Equal(t, 1, count.Read(NewReader(cache, s.State()), 2))
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, countCalls)

	// No mutation: nothing recomputes at any level.
	count.Read(NewReader(cache, s.State()), 1)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, countCalls)
}

func TestSelect_UpstreamEmptyOutputDoesNotCascade(t *testing.T) {
	empty := Select1("empty", CharacterSource, func(*ir.Character) []string { return []string{} })
	downstream := 0
	tail := Select1("tail", Source[[]string](empty), func([]string) int { downstream++; return 0 })

	cache := NewCache()
	s := store.New(testState(t))
	tail.Read(NewReader(cache, s.State()), 1)

	_, err := s.Apply(store.Mutation{Op: store.OpUpdate, Kind: ir.KindCharacter, Entity: &ir.Character{ID: 1, Name: "renamed"}})
	require.NoError(t, err)
	tail.Read(NewReader(cache, s.State()), 1)

	assert.Equal(t, 1, downstream, "a fresh empty slice is identical to the previous empty slice")
}

func TestSelectAll_ConcatenatesInSourceOrder(t *testing.T) {
	first := Select1("first", CharacterSource, func(*ir.Character) []int { return []int{1, 2} })
	second := Select1("second", CharacterSource, func(*ir.Character) []int { return []int{3} })
	all := SelectAll("all", []Source[[]int]{second, first}, func(lists [][]int) []int {
		var out []int
		for _, l := range lists {
			out = append(out, l...)
		}
		return out
	})

	r := NewReader(nil, testState(t))
	assert.Equal(t, []int{3, 1, 2}, all.Read(r, 1))
	assert.Equal(t, []string{"second", "first"}, all.Deps())
}

func TestSelect3And4(t *testing.T) {
	r := NewReader(NewCache(), testState(t))
	three := Select3("three", CharacterSource, CharmTable, SpellTable,
		func(c *ir.Character, charms *store.Table[*ir.Charm], spells *store.Table[*ir.Spell]) int {
			return charms.Len() + spells.Len()
		})
	four := Select4("four", CharacterSource, CharmTable, WeaponTable, MeritTable,
		func(c *ir.Character, _ *store.Table[*ir.Charm], w *store.Table[*ir.Weapon], m *store.Table[*ir.Merit]) bool {
			return c != nil && w.Len() == 0 && m.Len() == 0
		})

	assert.Equal(t, 3, three.Read(r, 1))
	assert.True(t, four.Read(r, 1))
	assert.False(t, four.Read(r, 99))
	assert.Equal(t, 4, len(four.Deps()))
}

func TestReader_NilStateReadsEmpty(t *testing.T) {
	calls := 0
	names := namesView(&calls)
	got := names.ReadAny(NewReader(nil, nil), 1)
	assert.Equal(t, []string{}, got)
}

type stubView struct {
	name string
	deps []string
}

func (s stubView) Name() string              { return s.name }
func (s stubView) Deps() []string            { return s.deps }
func (s stubView) ReadAny(Reader, ir.ID) any { return nil }

func TestRegistry_Validates(t *testing.T) {
	tests := []struct {
		name  string
		views []Any
		want  error
	}{
		{
			name:  "duplicate",
			views: []Any{stubView{"a", []string{"character"}}, stubView{"a", nil}},
			want:  ErrDuplicateView,
		},
		{
			name:  "shadows raw source",
			views: []Any{stubView{"table.charm", nil}},
			want:  ErrDuplicateView,
		},
		{
			name:  "unknown dependency",
			views: []Any{stubView{"a", []string{"missing"}}},
			want:  ErrUnknownDependency,
		},
		{
			name:  "cycle",
			views: []Any{stubView{"a", []string{"b"}}, stubView{"b", []string{"a"}}},
			want:  ErrCycle,
		},
		{
			name:  "self loop",
			views: []Any{stubView{"a", []string{"a"}}},
			want:  ErrCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.views...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRegistry_OrderAndGraph(t *testing.T) {
	reg, err := NewRegistry(
		stubView{"union", []string{"native", "spirit"}},
		stubView{"native", []string{"character", "table.charm"}},
		stubView{"spirit", []string{"character", "table.charm"}},
		stubView{"categories", []string{"union"}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"categories", "native", "spirit", "union"}, reg.Names())
	assert.Equal(t, []string{"native", "spirit", "union", "categories"}, reg.Order())

	v, ok := reg.Lookup("native")
	require.True(t, ok)
	assert.Equal(t, "native", v.Name())
	_, ok = reg.Lookup("nope")
	assert.False(t, ok)

	g := reg.Graph()
	assert.Equal(t, []string{"native", "spirit"}, g.Dependents("table.charm"))
	assert.Equal(t, []string{"categories", "native", "spirit", "union"}, g.Affected("character"))
	assert.Equal(t, []string{"categories"}, g.Affected("union"))
	assert.Equal(t, []string{"native", "spirit"}, g.Deps("union"))
	assert.Empty(t, g.Cycles())
}

func TestGraph_CyclePath(t *testing.T) {
	g := NewGraph([]Any{
		stubView{"b", []string{"c"}},
		stubView{"c", []string{"a"}},
		stubView{"a", []string{"b"}},
		stubView{"d", []string{"character"}},
	})

	cycles := g.Cycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0])

	_, err := g.Order()
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")
}
