package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// createTestJournal opens a fresh journal in a temp dir.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func testState(t *testing.T) *store.State {
	t.Helper()
	s, err := store.Seed(4,
		&ir.Character{ID: 1, Name: "Harmonious Jade", Charms: []ir.ID{5, 6}, Spells: []ir.ID{20}},
		&ir.Charm{ID: 5, CharacterID: 1, Name: "Excellent Strike", Ability: "melee", Categories: []string{"Attack"}, Sorting: ir.Sort(2)},
		&ir.Charm{ID: 6, CharacterID: 1, Name: "Dipping Swallow Defense", Ability: "melee", Keywords: []string{"Uniform"}},
		&ir.Spell{ID: 20, CharacterID: 1, Name: "Death of Obsidian Butterflies", Circle: "terrestrial", Control: true},
		&ir.Weapon{ID: 30, CharacterID: 1, Name: "Daiklave", Weight: "medium", Tags: []string{"lethal", "melee"}},
		&ir.Merit{ID: 40, CharacterID: 1, Name: "Artifact", Rating: 3, Sorting: ir.Sort(-1)},
	)
	require.NoError(t, err)
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		j, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, j.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	j := createTestJournal(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"user_version": "1",
	} {
		got, err := j.pragma(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestClose_NilDB(t *testing.T) {
	j := &Journal{}
	assert.NoError(t, j.Close())
}

func TestAppendMutation_RoundTrip(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	muts := []store.Mutation{
		{ID: "m-1", Seq: 1, Op: store.OpCreate, Kind: ir.KindCharm, Entity: &ir.Charm{ID: 8, CharacterID: 1, Name: "Iron Whirlwind Attack", Categories: []string{"Attack"}, Keywords: []string{}}, CharacterID: 1, Relation: ir.RelCharms},
		{ID: "m-2", Seq: 2, Op: store.OpSort, Kind: ir.KindCharm, EntityID: 8, Sorting: ir.Sort(3)},
		{ID: "m-3", Seq: 3, Op: store.OpSort, Kind: ir.KindCharm, EntityID: 8},
		{ID: "m-4", Seq: 4, Op: store.OpDelete, Kind: ir.KindCharm, EntityID: 8, CharacterID: 1, Relation: ir.RelCharms},
	}
	for _, m := range muts {
		require.NoError(t, j.AppendMutation(ctx, m))
	}

	got, err := j.ReadMutations(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, muts, got)
}

func TestAppendMutation_Idempotent(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()
	m := store.Mutation{ID: "m-1", Seq: 1, Op: store.OpSort, Kind: ir.KindSpell, EntityID: 20, Sorting: ir.Sort(0)}

	require.NoError(t, j.AppendMutation(ctx, m))
	require.NoError(t, j.AppendMutation(ctx, m))

	got, err := j.ReadMutations(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAppendMutation_MissingID(t *testing.T) {
	j := createTestJournal(t)

	err := j.AppendMutation(context.Background(), store.Mutation{Seq: 1, Op: store.OpSort, Kind: ir.KindCharm})
	assert.ErrorContains(t, err, "missing id")
}

func TestReadMutations_OrderAndCursor(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()

	// Written out of order; read back by seq.
	for _, seq := range []int64{3, 1, 2} {
		m := store.Mutation{ID: fmt.Sprintf("m-%d", seq), Seq: seq, Op: store.OpSort, Kind: ir.KindCharm, EntityID: 5}
		require.NoError(t, j.AppendMutation(ctx, m))
	}

	all, err := j.ReadMutations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].Seq, all[1].Seq, all[2].Seq})

	tail, err := j.ReadMutations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "m-3", tail[0].ID)

	head, err := j.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), head)
}

func TestReadMutations_Empty(t *testing.T) {
	j := createTestJournal(t)

	got, err := j.ReadMutations(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	head, err := j.Head(context.Background())
	require.NoError(t, err)
	assert.Zero(t, head)
}

func TestTruncateThrough(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, j.AppendMutation(ctx, store.Mutation{ID: id, Seq: int64(i + 1), Op: store.OpSort, Kind: ir.KindCharm, EntityID: 5}))
	}

	n, err := j.TruncateThrough(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := j.ReadMutations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()
	s := testState(t)

	require.NoError(t, j.SaveSnapshot(ctx, s))

	got, err := j.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.Revision)

	want, err := s.Digest()
	require.NoError(t, err)
	gotDigest, err := got.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, gotDigest)
	assert.Equal(t, s.Entities(), got.Entities())
}

func TestEntities_KeepUnnormalizedText(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()
	decomposed := "Cafe\u0301 <Brawl> & Grapple"

	charm := &ir.Charm{ID: 9, CharacterID: 1, Name: decomposed, Categories: []string{}, Keywords: []string{}}
	require.NoError(t, j.AppendMutation(ctx, store.Mutation{ID: "m-1", Seq: 5, Op: store.OpCreate, Kind: ir.KindCharm, Entity: charm}))
	got, err := j.ReadMutations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, decomposed, got[0].Entity.(*ir.Charm).Name)

	s, err := store.Seed(5, &ir.Merit{ID: 41, Name: decomposed})
	require.NoError(t, err)
	require.NoError(t, j.SaveSnapshot(ctx, s))
	loaded, err := j.LoadSnapshot(ctx)
	require.NoError(t, err)
	merit, ok := loaded.Merits.Get(41)
	require.True(t, ok)
	assert.Equal(t, decomposed, merit.Name)
}

func TestSnapshot_LatestWins(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()
	s := testState(t)
	require.NoError(t, j.SaveSnapshot(ctx, s))

	next, err := store.Reduce(s, store.Mutation{Seq: 9, Op: store.OpSort, Kind: ir.KindCharm, EntityID: 6, Sorting: ir.Sort(1)})
	require.NoError(t, err)
	require.NoError(t, j.SaveSnapshot(ctx, next))
	// Saving the same revision again replaces it.
	require.NoError(t, j.SaveSnapshot(ctx, next))

	got, err := j.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.Revision)
	charm, ok := got.Charms.Get(6)
	require.True(t, ok)
	assert.Equal(t, ir.Sort(1), charm.Sorting)
}

func TestLoadSnapshot_None(t *testing.T) {
	j := createTestJournal(t)

	_, err := j.LoadSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	j := createTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.SaveSnapshot(ctx, testState(t)))

	_, err := j.db.Exec(`UPDATE snapshot_entities SET body = '{"id":40,"character_id":1,"name":"Artifact","rating":5}' WHERE kind = 'merit'`)
	require.NoError(t, err)

	_, err = j.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}
