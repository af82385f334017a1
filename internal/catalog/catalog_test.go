package catalog

import (
	"slices"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/order"
	"github.com/roach88/sheetview/internal/store"
	"github.com/roach88/sheetview/internal/testutil"
	"github.com/roach88/sheetview/internal/view"
)

func sheetState(t *testing.T) *store.State {
	return testutil.SheetState(t)
}

func charmIDs(charms []*ir.Charm) []ir.ID {
	out := make([]ir.ID, len(charms))
	for i, c := range charms {
		out[i] = c.ID
	}
	return out
}

// countingObserver counts recomputations per (view, key).
type countingObserver struct {
	recomputes map[string]map[ir.ID]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{recomputes: map[string]map[ir.ID]int{}}
}

func (o *countingObserver) Hit(string, ir.ID) {}

func (o *countingObserver) Recompute(v string, key ir.ID) {
	if o.recomputes[v] == nil {
		o.recomputes[v] = map[ir.ID]int{}
	}
	o.recomputes[v][key]++
}

func (o *countingObserver) count(v string, key ir.ID) int { return o.recomputes[v][key] }

func TestWorkedScenario(t *testing.T) {
	s, err := store.Seed(1,
		&ir.Character{ID: 1, Charms: []ir.ID{5, 6}, MartialArtsCharms: []ir.ID{}},
		&ir.Charm{ID: 5, Sorting: ir.Sort(2), Categories: []string{"Attack"}},
		&ir.Charm{ID: 6, Sorting: ir.Sort(1), Categories: []string{"Social"}},
	)
	require.NoError(t, err)
	r := view.NewReader(view.NewCache(), s)

	assert.Equal(t, []ir.ID{6, 5}, charmIDs(NativeCharms.Read(r, 1)))
	assert.Equal(t, []string{"Attack", "Defense", "Social"}, Categories.Read(r, 1))
}

func TestBaseViews(t *testing.T) {
	r := view.NewReader(view.NewCache(), sheetState(t))

	assert.Equal(t, []ir.ID{6, 5}, charmIDs(NativeCharms.Read(r, 1)))
	assert.Equal(t, []ir.ID{10, 11}, charmIDs(MartialArtsCharms.Read(r, 1)), "missing sorting keeps list order")
	assert.Equal(t, []ir.ID{12}, charmIDs(Evocations.Read(r, 1)))
	assert.Empty(t, SpiritCharms.Read(r, 1))

	spells := Spells.Read(r, 1)
	require.Len(t, spells, 2)
	assert.Equal(t, "Cirrus Skiff", spells[0].Name)

	merits := Merits.Read(r, 1)
	require.Len(t, merits, 2)
	assert.Equal(t, ir.ID(41), merits[0].ID)

	weapons := Weapons.Read(r, 1)
	require.Len(t, weapons, 1)
	assert.Equal(t, "Daiklave", weapons[0].Name)
}

func TestBaseView_DropsDanglingIDs(t *testing.T) {
	r := view.NewReader(view.NewCache(), sheetState(t))

	assert.Equal(t, []ir.ID{7}, charmIDs(NativeCharms.Read(r, 2)))
}

func TestBaseView_SortStability(t *testing.T) {
	s, err := store.Seed(1,
		&ir.Character{ID: 1, Charms: []ir.ID{11, 14, 10, 12, 13}},
		&ir.Charm{ID: 10, Sorting: ir.Sort(1)},
		&ir.Charm{ID: 11, Sorting: ir.Sort(1)},
		&ir.Charm{ID: 12, Sorting: ir.Sort(3)},
		&ir.Charm{ID: 13},
		&ir.Charm{ID: 14, Sorting: ir.Sort(1)},
	)
	require.NoError(t, err)
	r := view.NewReader(view.NewCache(), s)

	assert.Equal(t, []ir.ID{11, 14, 10, 12, 13}, charmIDs(NativeCharms.Read(r, 1)))
}

func TestMissingCharacter_IdentityResults(t *testing.T) {
	r := view.NewReader(view.NewCache(), sheetState(t))

	for _, name := range []string{NameNativeCharms, NameAllCharms, NameSpells, NameKeywords, NameAbilities} {
		v, ok := Registry().Lookup(name)
		require.True(t, ok, name)
		assert.Empty(t, v.ReadAny(r, 404), name)
	}
	assert.Equal(t, BaselineCategories, Categories.Read(r, 404))

	byType := ByType.Read(r, 404)
	assert.NotNil(t, byType.Native)
	assert.Empty(t, byType.Native)
}

func TestAllCharms_UnionOrder(t *testing.T) {
	r := view.NewReader(view.NewCache(), sheetState(t))

	assert.Equal(t, []ir.ID{6, 5, 10, 11, 12}, charmIDs(AllCharms.Read(r, 1)))
}

func TestAggregates(t *testing.T) {
	r := view.NewReader(view.NewCache(), sheetState(t))

	assert.Equal(t, []string{"martial_arts", "melee"}, Abilities.Read(r, 1))
	assert.Equal(t, []string{"resistance"}, Abilities.Read(r, 2), "no martial arts charms, no martial_arts")
	assert.Equal(t, []string{"Attack", "Defense", "Form", "Social"}, Categories.Read(r, 1))
	assert.Equal(t, []string{"Decisive-only", "Form", "Uniform"}, Keywords.Read(r, 1))
	assert.Equal(t, []string{"Crane"}, MartialArtsStyles.Read(r, 1))
	assert.Equal(t, []string{"Volfer"}, EvocationArtifacts.Read(r, 1))
}

func TestAbilities_MartialArtsOnly(t *testing.T) {
	s, err := store.Seed(1,
		&ir.Character{ID: 1, MartialArtsCharms: []ir.ID{10}},
		&ir.Charm{ID: 10, Style: "Snake"},
	)
	require.NoError(t, err)
	r := view.NewReader(view.NewCache(), s)

	assert.Equal(t, []string{MartialArtsAbility}, Abilities.Read(r, 1))
}

func TestAbilities_SkipsCharmsWithoutAbility(t *testing.T) {
	s, err := store.Seed(1,
		&ir.Character{ID: 1, Charms: []ir.ID{5, 6}},
		&ir.Charm{ID: 5, Ability: "melee"},
		&ir.Charm{ID: 6},
	)
	require.NoError(t, err)
	r := view.NewReader(view.NewCache(), s)

	assert.Equal(t, []string{"melee"}, Abilities.Read(r, 1))
}

func TestAggregate_OrderIndependent(t *testing.T) {
	r := view.NewReader(view.NewCache(), sheetState(t))
	lists := [][]*ir.Charm{
		NativeCharms.Read(r, 1),
		MartialArtsCharms.Read(r, 1),
		Evocations.Read(r, 1),
		SpiritCharms.Read(r, 1),
	}
	categories := func(charms []*ir.Charm) []string {
		values := order.Flatten(charms, func(c *ir.Charm) []string { return c.Categories })
		return order.DedupeSorted(append(values, BaselineCategories...))
	}

	want := Categories.Read(r, 1)
	perms := [][]int{{3, 2, 1, 0}, {1, 0, 3, 2}, {2, 3, 0, 1}}
	for _, p := range perms {
		permuted := make([][]*ir.Charm, len(p))
		for i, j := range p {
			permuted[i] = lists[j]
		}
		assert.Equal(t, want, categories(order.Concat(permuted...)), "permutation %v", p)
	}
}

func TestReferentialStability_UnrelatedMutation(t *testing.T) {
	obs := newCountingObserver()
	cache := view.NewCache(view.WithObserver(obs))
	s := store.New(sheetState(t))

	first := Categories.Read(view.NewReader(cache, s.State()), 1)

	// A weapon change replaces only the weapon table.
	_, err := s.Apply(store.Mutation{Op: store.OpSort, Kind: ir.KindWeapon, EntityID: 30, Sorting: ir.Sort(5)})
	require.NoError(t, err)

	second := Categories.Read(view.NewReader(cache, s.State()), 1)
	assert.Equal(t, 1, obs.count(NameNativeCharms, 1))
	assert.Equal(t, 1, obs.count(NameAllCharms, 1))
	assert.Equal(t, 1, obs.count(NameCategories, 1))
	assert.Same(t, &first[0], &second[0])
}

func TestInvalidation_OnlyMutatedCharacterRecomputes(t *testing.T) {
	obs := newCountingObserver()
	cache := view.NewCache(view.WithObserver(obs))
	s := store.New(sheetState(t))

	NativeCharms.Read(view.NewReader(cache, s.State()), 1)
	NativeCharms.Read(view.NewReader(cache, s.State()), 2)

	// Replace character 1's charm list.
	c := s.State().Character(1).Clone()
	c.Charms = []ir.ID{5}
	_, err := s.Apply(store.Mutation{Op: store.OpUpdate, Kind: ir.KindCharacter, Entity: c})
	require.NoError(t, err)

	got := NativeCharms.Read(view.NewReader(cache, s.State()), 1)
	NativeCharms.Read(view.NewReader(cache, s.State()), 2)

	assert.Equal(t, []ir.ID{5}, charmIDs(got))
	assert.Equal(t, 2, obs.count(NameNativeCharms, 1))
	assert.Equal(t, 1, obs.count(NameNativeCharms, 2))
}

func TestInvalidation_UnionSkipsWhenConstituentsUnchanged(t *testing.T) {
	obs := newCountingObserver()
	cache := view.NewCache(view.WithObserver(obs))
	s := store.New(sheetState(t))

	Keywords.Read(view.NewReader(cache, s.State()), 1)

	// Renaming character 1 gives it a new pointer. Every base view re-runs
	// and returns a new slice, so the union and aggregate follow.
	c := s.State().Character(1).Clone()
	c.Name = "Jade"
	_, err := s.Apply(store.Mutation{Op: store.OpUpdate, Kind: ir.KindCharacter, Entity: c})
	require.NoError(t, err)
	Keywords.Read(view.NewReader(cache, s.State()), 1)
	assert.Equal(t, 2, obs.count(NameNativeCharms, 1))
	assert.Equal(t, 2, obs.count(NameKeywords, 1))

	// A spell mutation touches none of the charm inputs.
	_, err = s.Apply(store.Mutation{Op: store.OpSort, Kind: ir.KindSpell, EntityID: 20, Sorting: ir.Sort(0)})
	require.NoError(t, err)
	Keywords.Read(view.NewReader(cache, s.State()), 1)
	assert.Equal(t, 2, obs.count(NameAllCharms, 1))
	assert.Equal(t, 2, obs.count(NameKeywords, 1))
}

func TestSortMutation_ReordersNativeCharms(t *testing.T) {
	cache := view.NewCache()
	s := store.New(sheetState(t))

	before := NativeCharms.Read(view.NewReader(cache, s.State()), 1)
	_, err := s.Apply(store.Mutation{Op: store.OpSort, Kind: ir.KindCharm, EntityID: 5, Sorting: ir.Sort(0)})
	require.NoError(t, err)
	after := NativeCharms.Read(view.NewReader(cache, s.State()), 1)

	assert.Equal(t, []ir.ID{6, 5}, charmIDs(before))
	assert.Equal(t, []ir.ID{5, 6}, charmIDs(after))
}

func TestRegistry_CoversCatalog(t *testing.T) {
	names := Registry().Names()
	assert.Len(t, names, len(All()))
	assert.True(t, slices.IsSorted(names))

	g := Registry().Graph()
	assert.Equal(t, []string{NameAbilities, NameAllCharms, NameCharmsByType, NameMartialArtsStyles}, g.Dependents(NameMartialArtsCharms))
	assert.Equal(t, []string{NameNativeCharms, NameMartialArtsCharms, NameEvocations, NameSpiritCharms}, g.Deps(NameAllCharms))
	assert.Contains(t, g.Affected("table.charm"), NameKeywords)
	assert.NotContains(t, g.Affected("table.spell"), NameKeywords)
}

func TestDump_Golden(t *testing.T) {
	r := view.NewReader(view.NewCache(), sheetState(t))

	data, err := ir.MarshalCanonical(Dump(r, 1))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "character_1", data)
}

func TestCompact(t *testing.T) {
	r := view.NewReader(nil, sheetState(t))

	assert.Equal(t, []any{ir.ID(6), ir.ID(5)}, Compact(NativeCharms.Read(r, 1)))
	assert.Equal(t, []any{ir.ID(41), ir.ID(40)}, Compact(Merits.Read(r, 1)))
	assert.Equal(t, []any{"Crane"}, Compact(MartialArtsStyles.Read(r, 1)))
	assert.Equal(t, map[string]any{
		"native":       []any{ir.ID(6), ir.ID(5)},
		"martial_arts": []any{ir.ID(10), ir.ID(11)},
		"evocation":    []any{ir.ID(12)},
		"spirit":       []any{},
	}, Compact(ByType.Read(r, 1)))
	assert.Equal(t, 7, Compact(7))
}
