package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetview/internal/ir"
)

func seedState(t *testing.T) *State {
	t.Helper()
	s, err := Seed(1,
		&ir.Character{ID: 1, Name: "Harmonious Jade", Charms: []ir.ID{5, 6}, Spells: []ir.ID{20}},
		&ir.Character{ID: 2, Name: "Swan"},
		&ir.Charm{ID: 5, CharacterID: 1, Name: "Excellent Strike", Ability: "melee", Categories: []string{"Attack"}, Sorting: ir.Sort(2)},
		&ir.Charm{ID: 6, CharacterID: 1, Name: "Dipping Swallow Defense", Ability: "melee", Categories: []string{"Defense"}, Sorting: ir.Sort(1)},
		&ir.Spell{ID: 20, CharacterID: 1, Name: "Death of Obsidian Butterflies", Circle: "terrestrial"},
		&ir.Weapon{ID: 30, CharacterID: 2, Name: "Daiklave", Weight: "medium"},
	)
	require.NoError(t, err)
	return s
}

func TestSeed_DetachesInputs(t *testing.T) {
	in := &ir.Charm{ID: 5, Name: "Excellent Strike", Categories: []string{"Attack"}}
	s, err := Seed(0, in)
	require.NoError(t, err)

	got, ok := s.Charms.Get(5)
	require.True(t, ok)
	assert.NotSame(t, in, got)

	in.Categories[0] = "Mutated"
	assert.Equal(t, []string{"Attack"}, got.Categories)
}

func TestSeed_NormalizesRelationLists(t *testing.T) {
	s, err := Seed(0, &ir.Character{ID: 1})
	require.NoError(t, err)

	c := s.Character(1)
	require.NotNil(t, c)
	for _, rel := range ir.Relations {
		assert.NotNil(t, c.List(rel), "relation %s", rel)
		assert.Empty(t, c.List(rel), "relation %s", rel)
	}
}

type strayEntity struct{}

func (strayEntity) EntityID() ir.ID     { return 1 }
func (strayEntity) EntityKind() ir.Kind { return "stray" }

func TestSeed_UnknownKind(t *testing.T) {
	_, err := Seed(0, strayEntity{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestState_TolerantReads(t *testing.T) {
	s := seedState(t)

	_, ok := s.Get(ir.KindCharm, 999)
	assert.False(t, ok)

	_, ok = s.Get("stray", 5)
	assert.False(t, ok)

	assert.Nil(t, s.Character(999))
	assert.Nil(t, s.Table("stray"))
}

func TestState_EntitiesOrdered(t *testing.T) {
	s := seedState(t)

	var got []string
	for _, e := range s.Entities() {
		got = append(got, string(e.EntityKind()))
	}
	assert.Equal(t, []string{"character", "character", "charm", "charm", "spell", "weapon"}, got)
}

func TestResolveIDs(t *testing.T) {
	s := seedState(t)

	assert.Equal(t, []ir.ID{5, 6}, ResolveIDs(s.Character(1), ir.RelCharms))

	tests := []struct {
		name      string
		character *ir.Character
		rel       ir.Relation
	}{
		{"missing character", nil, ir.RelCharms},
		{"empty list", s.Character(2), ir.RelCharms},
		{"unknown relation", s.Character(1), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveIDs(tt.character, tt.rel)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestReduce_UpdateReplacesOnlyTarget(t *testing.T) {
	prev := seedState(t)

	updated := &ir.Charm{ID: 5, CharacterID: 1, Name: "Excellent Strike", Ability: "melee", Categories: []string{"Attack", "Decisive"}}
	next, err := Reduce(prev, Mutation{Op: OpUpdate, Kind: ir.KindCharm, Entity: updated})
	require.NoError(t, err)

	assert.NotSame(t, prev, next)
	assert.NotSame(t, prev.Charms, next.Charms, "mutated table gets a new map")
	assert.Same(t, prev.Characters, next.Characters)
	assert.Same(t, prev.Spells, next.Spells)
	assert.Same(t, prev.Weapons, next.Weapons)
	assert.Same(t, prev.Merits, next.Merits)

	before6, _ := prev.Charms.Get(6)
	after6, _ := next.Charms.Get(6)
	assert.Same(t, before6, after6, "untouched entity keeps its pointer")

	before5, _ := prev.Charms.Get(5)
	after5, _ := next.Charms.Get(5)
	assert.NotSame(t, before5, after5)
	assert.NotSame(t, updated, after5, "stored entity is a detached copy")
	assert.Equal(t, []string{"Attack"}, before5.Categories, "previous state is unchanged")
	assert.Equal(t, []string{"Attack", "Decisive"}, after5.Categories)
}

func TestReduce_Revision(t *testing.T) {
	prev := seedState(t)

	next, err := Reduce(prev, Mutation{Op: OpSort, Kind: ir.KindCharm, EntityID: 5, Sorting: ir.Sort(9)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.Revision)

	next, err = Reduce(next, Mutation{Seq: 42, Op: OpSort, Kind: ir.KindCharm, EntityID: 5, Sorting: ir.Sort(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), next.Revision)
}

func TestReduce_UpdateMissing(t *testing.T) {
	prev := seedState(t)

	_, err := Reduce(prev, Mutation{Op: OpUpdate, Kind: ir.KindCharm, Entity: &ir.Charm{ID: 99}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReduce_CreateAttachesToOwner(t *testing.T) {
	prev := seedState(t)

	next, err := Reduce(prev, Mutation{
		Op:          OpCreate,
		Kind:        ir.KindCharm,
		Entity:      &ir.Charm{ID: 7, CharacterID: 1, Name: "Iron Whirlwind Attack", Ability: "melee"},
		CharacterID: 1,
		Relation:    ir.RelCharms,
	})
	require.NoError(t, err)

	assert.Equal(t, []ir.ID{5, 6, 7}, next.Character(1).Charms)
	assert.Equal(t, []ir.ID{5, 6}, prev.Character(1).Charms, "previous character is unchanged")
	assert.Same(t, prev.Character(2), next.Character(2))
	assert.Same(t, prev.Spells, next.Spells)
}

func TestReduce_CreateWithoutOwner(t *testing.T) {
	prev := seedState(t)

	next, err := Reduce(prev, Mutation{Op: OpCreate, Kind: ir.KindMerit, Entity: &ir.Merit{ID: 40, Name: "Resources", Rating: 3}})
	require.NoError(t, err)

	_, ok := next.Merits.Get(40)
	assert.True(t, ok)
	assert.Same(t, prev.Characters, next.Characters)
}

func TestReduce_CreateErrors(t *testing.T) {
	prev := seedState(t)

	tests := []struct {
		name string
		m    Mutation
		want error
	}{
		{
			name: "duplicate id",
			m:    Mutation{Op: OpCreate, Kind: ir.KindCharm, Entity: &ir.Charm{ID: 5}},
			want: ErrInvalidMutation,
		},
		{
			name: "missing owner",
			m:    Mutation{Op: OpCreate, Kind: ir.KindCharm, Entity: &ir.Charm{ID: 8}, CharacterID: 77, Relation: ir.RelCharms},
			want: ErrNotFound,
		},
		{
			name: "relation holds another kind",
			m:    Mutation{Op: OpCreate, Kind: ir.KindSpell, Entity: &ir.Spell{ID: 21}, CharacterID: 1, Relation: ir.RelCharms},
			want: ErrInvalidMutation,
		},
		{
			name: "entity kind mismatch",
			m:    Mutation{Op: OpCreate, Kind: ir.KindCharm, Entity: &ir.Spell{ID: 21}},
			want: ErrInvalidMutation,
		},
		{
			name: "missing entity",
			m:    Mutation{Op: OpCreate, Kind: ir.KindCharm},
			want: ErrInvalidMutation,
		},
		{
			name: "unknown kind",
			m:    Mutation{Op: OpDelete, Kind: "stray", EntityID: 1},
			want: ErrUnknownKind,
		},
		{
			name: "unknown op",
			m:    Mutation{Op: "merge", Kind: ir.KindCharm, EntityID: 5},
			want: ErrInvalidMutation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reduce(prev, tt.m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestReduce_DeleteLeavesDanglingID(t *testing.T) {
	prev := seedState(t)

	next, err := Reduce(prev, Mutation{Op: OpDelete, Kind: ir.KindCharm, EntityID: 5})
	require.NoError(t, err)

	_, ok := next.Charms.Get(5)
	assert.False(t, ok)
	assert.Same(t, prev.Characters, next.Characters, "character list still names the deleted id")
	assert.Equal(t, []ir.ID{5, 6}, next.Character(1).Charms)
}

func TestReduce_DeleteDetachesFromOwner(t *testing.T) {
	prev := seedState(t)

	next, err := Reduce(prev, Mutation{Op: OpDelete, Kind: ir.KindCharm, EntityID: 5, CharacterID: 1, Relation: ir.RelCharms})
	require.NoError(t, err)

	assert.Equal(t, []ir.ID{6}, next.Character(1).Charms)
	assert.Equal(t, []ir.ID{5, 6}, prev.Character(1).Charms)
}

func TestReduce_DeleteAbsentIsNoop(t *testing.T) {
	prev := seedState(t)

	next, err := Reduce(prev, Mutation{Op: OpDelete, Kind: ir.KindCharm, EntityID: 999})
	require.NoError(t, err)
	assert.Same(t, prev, next)
}

func TestReduce_SortClonesEntity(t *testing.T) {
	prev := seedState(t)

	next, err := Reduce(prev, Mutation{Op: OpSort, Kind: ir.KindSpell, EntityID: 20, Sorting: ir.Sort(4)})
	require.NoError(t, err)

	before, _ := prev.Spells.Get(20)
	after, _ := next.Spells.Get(20)
	assert.Nil(t, before.Sorting)
	require.NotNil(t, after.Sorting)
	assert.Equal(t, int64(4), *after.Sorting)
	assert.Same(t, prev.Charms, next.Charms)
}

func TestReduce_SortCharacterRejected(t *testing.T) {
	prev := seedState(t)

	_, err := Reduce(prev, Mutation{Op: OpSort, Kind: ir.KindCharacter, EntityID: 1, Sorting: ir.Sort(1)})
	assert.ErrorIs(t, err, ErrInvalidMutation)
}

func TestStore_ApplyPublishes(t *testing.T) {
	s := New(seedState(t))
	before := s.State()

	next, err := s.Apply(Mutation{Op: OpSort, Kind: ir.KindCharm, EntityID: 6, Sorting: ir.Sort(10)})
	require.NoError(t, err)
	assert.Same(t, next, s.State())

	charm, _ := before.Charms.Get(6)
	assert.Equal(t, int64(1), *charm.Sorting, "held state is unaffected")
}

func TestStore_ApplyErrorKeepsState(t *testing.T) {
	s := New(seedState(t))
	before := s.State()

	_, err := s.Apply(Mutation{Op: OpUpdate, Kind: ir.KindCharm, Entity: &ir.Charm{ID: 404}})
	require.Error(t, err)
	assert.Same(t, before, s.State())
}

func TestStore_NilInitial(t *testing.T) {
	s := New(nil)
	require.NotNil(t, s.State())
	assert.Zero(t, s.State().Charms.Len())

	s.Reset(seedState(t))
	assert.Equal(t, 2, s.State().Characters.Len())
}

func TestStore_ConcurrentApply(t *testing.T) {
	s := New(nil)

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id ir.ID) {
			defer wg.Done()
			_, err := s.Apply(Mutation{Op: OpCreate, Kind: ir.KindMerit, Entity: &ir.Merit{ID: id}})
			assert.NoError(t, err)
		}(ir.ID(i))
	}
	wg.Wait()

	assert.Equal(t, 50, s.State().Merits.Len())
	assert.Equal(t, int64(50), s.State().Revision)
}

func TestState_DigestIgnoresRevision(t *testing.T) {
	a := seedState(t)
	b := a.clone()
	b.Revision = 99

	da, err := a.Digest()
	require.NoError(t, err)
	db, err := b.Digest()
	require.NoError(t, err)
	assert.Equal(t, da, db)
}
