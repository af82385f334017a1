package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sheetview/internal/ir"
)

// goldenDir is where goldie keeps this package's trace files. Refresh them
// with `go test ./internal/harness -update`.
const goldenDir = "testdata/golden"

// canonical returns the fields of e that belong to its event type.
func (e TraceEvent) canonical() map[string]any {
	m := map[string]any{"type": e.Type, "seq": e.Seq}
	switch e.Type {
	case EventRequest:
		m["view"] = e.View
		m["character"] = e.Character
		m["value"] = e.Value
		m["recomputed"] = e.Recomputed
	case EventMutation:
		m["mutation_id"] = e.MutationID
		m["op"] = e.Op
		m["kind"] = e.Kind
		m["entity_id"] = e.EntityID
		if e.Error != "" {
			m["error"] = e.Error
		}
	}
	return m
}

// Canonical encodes a run as canonical JSON: the scenario name, every trace
// event and the final revision. Two runs of the same scenario encode to the
// same bytes.
func Canonical(scenarioName string, result *Result) ([]byte, error) {
	events := make([]any, 0, len(result.Trace))
	for _, e := range result.Trace {
		events = append(events, e.canonical())
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         events,
		"revision":      result.Revision,
	})
}

// RunWithGolden runs scenario and checks its trace against
// testdata/golden/<name>.golden.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()
	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden fails t when the canonical trace of result differs from the
// golden file for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()
	data, err := Canonical(scenarioName, result)
	if err != nil {
		return err
	}
	goldie.New(t, goldie.WithFixtureDir(goldenDir), goldie.WithNameSuffix(".golden")).
		Assert(t, scenarioName, data)
	return nil
}
