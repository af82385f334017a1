package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// AppendMutation records an applied mutation.
// Uses ON CONFLICT DO NOTHING for idempotency - writing the same mutation
// twice is silently ignored.
func (j *Journal) AppendMutation(ctx context.Context, m store.Mutation) error {
	if m.ID == "" {
		return fmt.Errorf("append mutation seq %d: missing id", m.Seq)
	}
	entity, err := marshalEntity(m.Entity)
	if err != nil {
		return fmt.Errorf("append mutation %s: %w", m.ID, err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO mutations
		(id, seq, op, kind, entity_id, entity, character_id, relation, sorting)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		m.ID,
		m.Seq,
		string(m.Op),
		string(m.Kind),
		m.EntityID,
		entity,
		m.CharacterID,
		string(m.Relation),
		nullSorting(m.Sorting),
	)
	if err != nil {
		return fmt.Errorf("append mutation %s: %w", m.ID, err)
	}
	return nil
}

// ReadMutations returns every mutation with seq greater than afterSeq.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if there is nothing to read.
func (j *Journal) ReadMutations(ctx context.Context, afterSeq int64) ([]store.Mutation, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, seq, op, kind, entity_id, entity, character_id, relation, sorting
		FROM mutations
		WHERE seq > ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	mutations := []store.Mutation{}
	for rows.Next() {
		m, err := scanMutation(rows)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutations: %w", err)
	}

	return mutations, nil
}

// TruncateThrough deletes mutations with seq at or below seq. Call it only
// after a snapshot at that revision has been saved.
func (j *Journal) TruncateThrough(ctx context.Context, seq int64) (int64, error) {
	res, err := j.db.ExecContext(ctx, `DELETE FROM mutations WHERE seq <= ?`, seq)
	if err != nil {
		return 0, fmt.Errorf("truncate mutations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("truncate mutations: %w", err)
	}
	return n, nil
}

func scanMutation(rows *sql.Rows) (store.Mutation, error) {
	var (
		m                  store.Mutation
		op, kind, relation string
		entity             sql.NullString
		sorting            sql.NullInt64
	)
	if err := rows.Scan(&m.ID, &m.Seq, &op, &kind, &m.EntityID, &entity, &m.CharacterID, &relation, &sorting); err != nil {
		return store.Mutation{}, fmt.Errorf("scan mutation: %w", err)
	}

	m.Op = store.Op(op)
	m.Kind = ir.Kind(kind)
	m.Relation = ir.Relation(relation)
	m.Sorting = sortingPtr(sorting)

	e, err := unmarshalEntity(m.Kind, entity)
	if err != nil {
		return store.Mutation{}, fmt.Errorf("scan mutation %s: %w", m.ID, err)
	}
	m.Entity = e
	return m, nil
}
