package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

var (
	// ErrNoSnapshot is returned by LoadSnapshot when none has been saved.
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrCorruptSnapshot is returned when stored rows do not reproduce the
	// digest recorded with the snapshot.
	ErrCorruptSnapshot = errors.New("snapshot digest mismatch")
)

// SaveSnapshot stores every entity of s under s.Revision, replacing any
// snapshot already saved at that revision.
func (j *Journal) SaveSnapshot(ctx context.Context, s *store.State) error {
	digest, err := s.Digest()
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE revision = ?`, s.Revision); err != nil {
		return fmt.Errorf("save snapshot: clear revision %d: %w", s.Revision, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (revision, digest) VALUES (?, ?)`, s.Revision, digest); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_entities (revision, kind, id, body)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save snapshot: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range s.Entities() {
		body, err := marshalEntity(e)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, s.Revision, string(e.EntityKind()), e.EntityID(), body.String); err != nil {
			return fmt.Errorf("save snapshot: %s %d: %w", e.EntityKind(), e.EntityID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot with the highest revision.
// Returns ErrNoSnapshot if none exists.
func (j *Journal) LoadSnapshot(ctx context.Context) (*store.State, error) {
	var (
		revision int64
		digest   string
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT revision, digest FROM snapshots
		ORDER BY revision DESC
		LIMIT 1
	`).Scan(&revision, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, body FROM snapshot_entities
		WHERE revision = ?
		ORDER BY kind COLLATE BINARY ASC, id ASC
	`, revision)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", revision, err)
	}
	defer rows.Close()

	var entities []ir.Entity
	for rows.Next() {
		var kind, body string
		if err := rows.Scan(&kind, &body); err != nil {
			return nil, fmt.Errorf("load snapshot %d: scan: %w", revision, err)
		}
		e, err := unmarshalEntity(ir.Kind(kind), sql.NullString{String: body, Valid: true})
		if err != nil {
			return nil, fmt.Errorf("load snapshot %d: %w", revision, err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot %d: iterate: %w", revision, err)
	}

	s, err := store.Seed(revision, entities...)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", revision, err)
	}
	got, err := s.Digest()
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", revision, err)
	}
	if got != digest {
		return nil, fmt.Errorf("load snapshot %d: %w", revision, ErrCorruptSnapshot)
	}
	return s, nil
}
