package harness

import "github.com/roach88/sheetview/internal/ir"

// Trace event types.
const (
	EventRequest  = "request"
	EventMutation = "mutation"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Type string `json:"type"`

	// Seq is the mutation's seq, or the revision a request observed.
	Seq int64 `json:"seq"`

	// Request fields.
	View       string `json:"view,omitempty"`
	Character  ir.ID  `json:"character,omitempty"`
	Value      any    `json:"value,omitempty"`
	Recomputed bool   `json:"recomputed,omitempty"`

	// Mutation fields.
	MutationID string `json:"mutation_id,omitempty"`
	Op         string `json:"op,omitempty"`
	Kind       string `json:"kind,omitempty"`
	EntityID   ir.ID  `json:"entity_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every step in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Revision is the final State.Revision.
	Revision int64 `json:"revision"`

	// Digest is the final state's content digest.
	Digest string `json:"digest"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
