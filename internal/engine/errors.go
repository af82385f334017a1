package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// ErrUnknownView is returned by RequestView for a name not in the registry.
var ErrUnknownView = errors.New("unknown view")

// MutationError reports a mutation the engine could not apply or record.
//
// The wrapped error is one of the store sentinels (store.ErrNotFound,
// store.ErrInvalidMutation, store.ErrUnknownKind) or a journal failure, and
// is reachable with errors.Is.
type MutationError struct {
	// Seq is the logical clock value stamped on the mutation.
	Seq int64

	// MutationID correlates the failure with logs and the journal.
	MutationID string

	Op   store.Op
	Kind ir.Kind

	Err error
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation %s (seq=%d, %s %s): %v", e.MutationID, e.Seq, e.Op, e.Kind, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// AsMutationError returns the *MutationError in err's chain, if any.
func AsMutationError(err error) (*MutationError, bool) {
	var me *MutationError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}

// IsNotFound returns true if err reports a mutation against an absent
// entity or owner.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
