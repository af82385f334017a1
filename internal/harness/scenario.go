package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
)

// Scenario defines a view scenario: a fixture, a flow of requests and
// mutations, and assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fixture is the CUE or JSON document seeding the store. Relative
	// paths are resolved against the scenario file's directory.
	Fixture string `yaml:"fixture"`

	// Flow contains the steps in execution order.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final state and cache counters.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is either a view request or a mutation.
type Step struct {
	// Request names the view to read.
	Request string `yaml:"request,omitempty"`

	// Character is the key for Request.
	Character ir.ID `yaml:"character,omitempty"`

	// ExpectIDs is the expected entity id list, in order.
	ExpectIDs []ir.ID `yaml:"expect_ids,omitempty"`

	// Expect is the expected compacted value (see catalog.Compact).
	Expect any `yaml:"expect,omitempty"`

	// Recomputed, if set, checks whether the request ran the view's
	// computation rather than reusing the cached result.
	Recomputed *bool `yaml:"recomputed,omitempty"`

	// Mutate is the mutation to apply.
	Mutate *MutateStep `yaml:"mutate,omitempty"`

	// ExpectError names the store error Mutate must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// MutateStep is the YAML form of store.Mutation.
type MutateStep struct {
	Op        string `yaml:"op"`
	Kind      string `yaml:"kind"`
	ID        ir.ID  `yaml:"id,omitempty"`
	Character ir.ID  `yaml:"character,omitempty"`
	Relation  string `yaml:"relation,omitempty"`
	Sorting   *int64 `yaml:"sorting,omitempty"`

	// Entity is the full record for create and update, decoded into the
	// type named by Kind.
	Entity yaml.Node `yaml:"entity,omitempty"`
}

// Assertion validates the final state or cache counters.
type Assertion struct {
	// Type specifies the assertion type:
	// - "recompute_count": View (and optionally Character) recomputed Count times
	// - "final_state": entity Kind/ID has the Expect field values
	// - "revision": final revision equals Count
	Type string `yaml:"type"`

	View      string `yaml:"view,omitempty"`
	Character ir.ID  `yaml:"character,omitempty"`
	Count     int64  `yaml:"count,omitempty"`

	Kind   string         `yaml:"kind,omitempty"`
	ID     ir.ID          `yaml:"id,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertRecomputeCount = "recompute_count"
	AssertFinalState     = "final_state"
	AssertRevision       = "revision"
)

// Expected error names for Step.ExpectError.
var expectErrors = map[string]error{
	"not_found":    store.ErrNotFound,
	"invalid":      store.ErrInvalidMutation,
	"unknown_kind": store.ErrUnknownKind,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the fixture relative to the scenario file
	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Fixture paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "expect_id:" vs "expect_ids:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that all required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Fixture == "" {
		return fmt.Errorf("fixture is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must have at least one step")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step) error {
	switch {
	case step.Request != "" && step.Mutate != nil:
		return fmt.Errorf("flow[%d]: request and mutate are mutually exclusive", index)
	case step.Request != "":
		if step.ExpectError != "" {
			return fmt.Errorf("flow[%d]: expect_error applies to mutate steps only", index)
		}
	case step.Mutate != nil:
		if step.ExpectIDs != nil || step.Expect != nil || step.Recomputed != nil {
			return fmt.Errorf("flow[%d]: expect_ids, expect and recomputed apply to request steps only", index)
		}
		if step.Mutate.Op == "" {
			return fmt.Errorf("flow[%d]: mutate.op is required", index)
		}
		if step.Mutate.Kind == "" {
			return fmt.Errorf("flow[%d]: mutate.kind is required", index)
		}
		if step.ExpectError != "" {
			if _, ok := expectErrors[step.ExpectError]; !ok {
				return fmt.Errorf("flow[%d]: unknown expect_error %q", index, step.ExpectError)
			}
		}
	default:
		return fmt.Errorf("flow[%d]: one of request or mutate is required", index)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRecomputeCount:
		if a.View == "" {
			return fmt.Errorf("assertions[%d]: view is required for recompute_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for recompute_count", index)
		}
	case AssertFinalState:
		if a.Kind == "" || a.ID == 0 {
			return fmt.Errorf("assertions[%d]: kind and id are required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRevision:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// Mutation converts the step into a store.Mutation.
func (m *MutateStep) Mutation() (store.Mutation, error) {
	out := store.Mutation{
		Op:          store.Op(m.Op),
		Kind:        ir.Kind(m.Kind),
		EntityID:    m.ID,
		CharacterID: m.Character,
		Relation:    ir.Relation(m.Relation),
		Sorting:     m.Sorting,
	}
	if m.Entity.Kind == 0 {
		return out, nil
	}

	e, err := ir.NewEntity(out.Kind)
	if err != nil {
		return store.Mutation{}, err
	}
	if err := m.Entity.Decode(e); err != nil {
		return store.Mutation{}, fmt.Errorf("decode entity: %w", err)
	}
	out.Entity = e
	return out, nil
}
