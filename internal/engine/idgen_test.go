package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
	"github.com/roach88/sheetview/internal/testutil"
)

func TestUUIDv7Generator(t *testing.T) {
	var gen UUIDv7Generator

	id := gen.Generate()
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}$`, id)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_UniqueAcrossGoroutines(t *testing.T) {
	var gen UUIDv7Generator
	const workers, perWorker = 8, 250

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, perWorker)
			for i := range local {
				local[i] = gen.Generate()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestEngine_Apply_AssignsIDsFromGenerator(t *testing.T) {
	j := &memJournal{}
	e := New(nil, WithIDGenerator(testutil.NewSequentialGenerator("m")), WithJournal(j), WithLogger(discardLogger()))
	ctx := context.Background()

	_, err := e.Apply(ctx, store.Mutation{Op: store.OpCreate, Kind: ir.KindMerit, Entity: &ir.Merit{ID: 1}})
	require.NoError(t, err)

	// A caller-supplied id is kept and does not consume one.
	_, err = e.Apply(ctx, store.Mutation{ID: "caller", Op: store.OpCreate, Kind: ir.KindMerit, Entity: &ir.Merit{ID: 2}})
	require.NoError(t, err)

	_, err = e.Apply(ctx, store.Mutation{Op: store.OpCreate, Kind: ir.KindMerit, Entity: &ir.Merit{ID: 3}})
	require.NoError(t, err)

	var ids []string
	for _, m := range j.mutations {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m-1", "caller", "m-2"}, ids)
}

func TestEngine_Apply_DefaultUUIDv7(t *testing.T) {
	j := &memJournal{}
	e := New(nil, WithJournal(j), WithLogger(discardLogger()))

	_, err := e.Apply(context.Background(), store.Mutation{Op: store.OpCreate, Kind: ir.KindMerit, Entity: &ir.Merit{ID: 1}})
	require.NoError(t, err)

	require.Len(t, j.mutations, 1)
	parsed, err := uuid.Parse(j.mutations[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
