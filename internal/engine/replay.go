package engine

import (
	"context"
	"fmt"

	"github.com/roach88/sheetview/internal/store"
)

// Replaying a journal
//
// The journal holds only mutations that applied successfully, each with the
// seq the clock stamped on it. Replay feeds them back through the same
// reduction path as Apply, keeping their ids and seqs, so:
//
//   - The resulting State has the same content digest as the original run.
//   - State.Revision matches the original run.
//   - The clock is advanced past every replayed seq, so new mutations
//     continue the sequence instead of reusing it.
//
// Mutations with a seq at or below the current revision are already part of
// the starting snapshot and are skipped, though the clock still observes
// them. Replayed mutations are not written back to the journal.

// MutationSource yields journaled mutations in seq order.
type MutationSource interface {
	ReadMutations(ctx context.Context, afterSeq int64) ([]store.Mutation, error)
}

// Replay loads every mutation after the current revision from src and
// applies it. It returns the number applied.
func (e *Engine) Replay(ctx context.Context, src MutationSource) (int, error) {
	muts, err := src.ReadMutations(ctx, e.store.State().Revision)
	if err != nil {
		return 0, fmt.Errorf("read journal: %w", err)
	}
	return e.ReplayMutations(ctx, muts)
}

// ReplayMutations applies muts in order, keeping their ids and seqs.
// It stops at the first failure, which means the journal and the starting
// snapshot disagree.
func (e *Engine) ReplayMutations(ctx context.Context, muts []store.Mutation) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	applied := 0
	for _, m := range muts {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		e.clock.Observe(m.Seq)
		if m.Seq <= e.store.State().Revision {
			continue
		}
		if _, err := e.applyLocked(m); err != nil {
			return applied, fmt.Errorf("replay seq %d: %w", m.Seq, err)
		}
		applied++
	}

	e.logger.Info("replay complete",
		"applied", applied,
		"revision", e.store.State().Revision,
	)
	return applied, nil
}
