package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions evaluates every assertion and returns the failure
// messages, empty if all pass.
func EvaluateAssertions(final *store.State, counter *recomputeCounter, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertRecomputeCount:
			err = assertRecomputeCount(counter, a)
		case AssertFinalState:
			err = assertFinalState(final, a)
		case AssertRevision:
			err = assertRevision(final, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func assertRecomputeCount(counter *recomputeCounter, a Assertion) error {
	got := counter.total(a.View)
	target := a.View
	if a.Character != 0 {
		got = counter.count(a.View, a.Character)
		target = fmt.Sprintf("%s(%d)", a.View, a.Character)
	}
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRecomputeCount,
		Expected: fmt.Sprintf("%s recomputed %d times", target, a.Count),
		Actual:   fmt.Sprintf("%d times", got),
	}
}

func assertRevision(final *store.State, a Assertion) error {
	if final.Revision == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRevision,
		Expected: fmt.Sprintf("revision %d", a.Count),
		Actual:   fmt.Sprintf("revision %d", final.Revision),
	}
}

// assertFinalState checks a subset of one entity's fields. Fields not named
// in Expect are ignored.
func assertFinalState(final *store.State, a Assertion) error {
	e, ok := final.Get(ir.Kind(a.Kind), a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%s %d with %v", a.Kind, a.ID, a.Expect),
			Actual:   "entity not found",
		}
	}

	fields, err := entityFields(e)
	if err != nil {
		return err
	}
	for key, want := range a.Expect {
		if msg := compareValue(want, fields[key]); msg != "" {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s %d field %s", a.Kind, a.ID, key),
				Actual:   msg,
			}
		}
	}
	return nil
}

// entityFields returns e's JSON fields. Numbers stay json.Number so
// canonical comparison accepts them.
func entityFields(e ir.Entity) (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s %d: %w", e.EntityKind(), e.EntityID(), err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode %s %d: %w", e.EntityKind(), e.EntityID(), err)
	}
	return fields, nil
}

// compareIDs checks that a compacted view value is exactly the id list
// expected. Returns "" on match.
func compareIDs(expected []ir.ID, actual any) string {
	list, ok := actual.([]any)
	if !ok {
		return fmt.Sprintf("expected ids %v, value is not an entity list: %v", expected, actual)
	}
	got := make([]ir.ID, 0, len(list))
	for _, v := range list {
		id, ok := v.(ir.ID)
		if !ok {
			return fmt.Sprintf("expected ids %v, value is not an entity list: %v", expected, actual)
		}
		got = append(got, id)
	}
	if len(got) != len(expected) {
		return fmt.Sprintf("ids = %v, expected %v", got, expected)
	}
	for i := range got {
		if got[i] != expected[i] {
			return fmt.Sprintf("ids = %v, expected %v", got, expected)
		}
	}
	return ""
}

// compareValue compares expected and actual by canonical JSON, so YAML ints
// match int64 ids and key order never matters. Returns "" on match.
func compareValue(expected, actual any) string {
	want, err := ir.MarshalCanonical(expected)
	if err != nil {
		return fmt.Sprintf("expected value: %v", err)
	}
	got, err := ir.MarshalCanonical(actual)
	if err != nil {
		return fmt.Sprintf("actual value: %v", err)
	}
	if !bytes.Equal(want, got) {
		return fmt.Sprintf("value = %s, expected %s", got, want)
	}
	return ""
}
