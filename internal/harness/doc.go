// Package harness runs view scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	fixture: ../fixtures/sheet.cue
//	flow:
//	  - request: charms.native
//	    character: 1
//	    expect_ids: [6, 5]
//	    recomputed: true
//	  - mutate:
//	      op: sort
//	      kind: charm
//	      id: 5
//	      sorting: 0
//	  - mutate:
//	      op: sort
//	      kind: charm
//	      id: 404
//	    expect_error: not_found
//	  - request: charms.abilities
//	    character: 1
//	    expect: [martial_arts, melee]
//	assertions:
//	  - type: recompute_count
//	    view: charms.native
//	    character: 1
//	    count: 2
//	  - type: final_state
//	    kind: charm
//	    id: 5
//	    expect: { sorting: 0 }
//	  - type: revision
//	    count: 2
//
// The fixture path is resolved relative to the scenario file and loaded with
// internal/fixture.
//
// # Steps
//
//   - request: reads a view through the engine. expect_ids compares an
//     entity list by id, expect compares the compacted value, and
//     recomputed checks whether this request ran the view's computation.
//   - mutate: applies one mutation. expect_error names the store error the
//     mutation must fail with (not_found, invalid, unknown_kind).
//
// # Assertion Types
//
//   - recompute_count: total recomputations of a view, optionally for one
//     character
//   - final_state: subset match on one entity's fields after the flow
//   - revision: the final State.Revision
//
// # Deterministic Testing
//
// Every run starts from the fixture with a fresh engine, a sequential
// mutation id generator and a fresh view cache, so traces are identical
// across runs and can be compared against golden files.
package harness
