package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/sheetview/internal/catalog"
	"github.com/roach88/sheetview/internal/engine"
	"github.com/roach88/sheetview/internal/fixture"
	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
	"github.com/roach88/sheetview/internal/testutil"
	"github.com/roach88/sheetview/internal/view"
)

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic id generator and a fresh cache.
type Harness struct {
	engine  *engine.Engine
	counter *recomputeCounter
	ids     *testutil.SequentialGenerator
}

// Run executes a scenario and returns the result.
//
// Each scenario starts from its fixture with a fresh engine, so scenarios
// are isolated and reproducible.
//
// Execution flow:
// 1. Load the fixture into a new store
// 2. Execute flow steps, checking each step's expectations
// 3. Evaluate assertions against the final state and cache counters
//
// The returned error reports a scenario that could not run at all; failed
// expectations are recorded in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	doc, err := fixture.Load(scenario.Fixture)
	if err != nil {
		return nil, err
	}
	state, err := doc.State()
	if err != nil {
		return nil, fmt.Errorf("fixture state: %w", err)
	}

	counter := newRecomputeCounter()
	h := &Harness{
		engine: engine.New(store.New(state),
			engine.WithLogger(testutil.DiscardLogger()),
			engine.WithCacheOptions(view.WithObserver(counter)),
		),
		counter: counter,
		ids:     testutil.NewSequentialGenerator("m"),
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	final := h.engine.State()
	for _, msg := range EvaluateAssertions(final, counter, scenario.Assertions) {
		result.AddError(msg)
	}

	result.Revision = final.Revision
	digest, err := final.Digest()
	if err != nil {
		return nil, err
	}
	result.Digest = digest
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	if step.Mutate != nil {
		return h.executeMutation(ctx, index, step, result)
	}
	return h.executeRequest(index, step, result)
}

func (h *Harness) executeRequest(index int, step Step, result *Result) error {
	before := h.counter.count(step.Request, step.Character)
	value, err := h.engine.RequestView(step.Request, step.Character)
	if err != nil {
		return err
	}
	recomputed := h.counter.count(step.Request, step.Character) > before

	compact := catalog.Compact(value)
	result.Trace = append(result.Trace, TraceEvent{
		Type:       EventRequest,
		Seq:        h.engine.State().Revision,
		View:       step.Request,
		Character:  step.Character,
		Value:      compact,
		Recomputed: recomputed,
	})

	if step.ExpectIDs != nil {
		if msg := compareIDs(step.ExpectIDs, compact); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s(%d): %s", index, step.Request, step.Character, msg))
		}
	}
	if step.Expect != nil {
		if msg := compareValue(step.Expect, compact); msg != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s(%d): %s", index, step.Request, step.Character, msg))
		}
	}
	if step.Recomputed != nil && *step.Recomputed != recomputed {
		result.AddError(fmt.Sprintf("flow[%d] %s(%d): recomputed = %t, expected %t",
			index, step.Request, step.Character, recomputed, *step.Recomputed))
	}
	return nil
}

func (h *Harness) executeMutation(ctx context.Context, index int, step Step, result *Result) error {
	m, err := step.Mutate.Mutation()
	if err != nil {
		return err
	}

	m.ID = h.ids.Generate()

	event := TraceEvent{
		Type:       EventMutation,
		MutationID: m.ID,
		Op:         string(m.Op),
		Kind:       string(m.Kind),
		EntityID:   m.TargetID(),
	}

	_, applyErr := h.engine.Apply(ctx, m)
	event.Seq = h.engine.Clock().Current()
	if applyErr != nil {
		if _, ok := engine.AsMutationError(applyErr); !ok {
			return applyErr
		}
		event.Error = errorName(applyErr)
	}
	result.Trace = append(result.Trace, event)

	switch {
	case step.ExpectError == "" && applyErr != nil:
		result.AddError(fmt.Sprintf("flow[%d] %s %s %d: unexpected error: %v", index, m.Op, m.Kind, m.TargetID(), applyErr))
	case step.ExpectError != "" && applyErr == nil:
		result.AddError(fmt.Sprintf("flow[%d] %s %s %d: expected %s, mutation applied", index, m.Op, m.Kind, m.TargetID(), step.ExpectError))
	case step.ExpectError != "" && !errors.Is(applyErr, expectErrors[step.ExpectError]):
		result.AddError(fmt.Sprintf("flow[%d] %s %s %d: expected %s, got: %v", index, m.Op, m.Kind, m.TargetID(), step.ExpectError, applyErr))
	}
	return nil
}

// errorName maps a mutation error to its expect_error name.
func errorName(err error) string {
	for name, target := range expectErrors {
		if errors.Is(err, target) {
			return name
		}
	}
	return "error"
}

// recomputeCounter is a view.Observer counting recomputations.
// The engine calls it while holding its mutex.
type recomputeCounter struct {
	byKey map[string]map[ir.ID]int64
}

func newRecomputeCounter() *recomputeCounter {
	return &recomputeCounter{byKey: make(map[string]map[ir.ID]int64)}
}

func (c *recomputeCounter) Hit(string, ir.ID) {}

func (c *recomputeCounter) Recompute(name string, key ir.ID) {
	if c.byKey[name] == nil {
		c.byKey[name] = make(map[ir.ID]int64)
	}
	c.byKey[name][key]++
}

func (c *recomputeCounter) count(name string, key ir.ID) int64 {
	return c.byKey[name][key]
}

func (c *recomputeCounter) total(name string) int64 {
	var n int64
	for _, v := range c.byKey[name] {
		n += v
	}
	return n
}
