package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/sheetview/internal/ir"
)

// marshalEntity encodes an entity as JSON TEXT for storage. Strings are
// stored as given; normalization is left to digests. A nil entity is
// stored as NULL.
func marshalEntity(e ir.Entity) (sql.NullString, error) {
	if e == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal %s %d: %w", e.EntityKind(), e.EntityID(), err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalEntity decodes stored JSON into a fresh entity of kind.
func unmarshalEntity(kind ir.Kind, data sql.NullString) (ir.Entity, error) {
	if !data.Valid {
		return nil, nil
	}
	e, err := ir.NewEntity(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data.String), e); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
	}
	return e, nil
}

func nullSorting(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func sortingPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return ir.Sort(v.Int64)
}
