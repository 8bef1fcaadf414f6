// Package harness provides conformance testing for the intrinsic
// evaluator.
//
// The harness loads layout tables, sets up a memory arena, dispatches a
// sequence of intrinsic calls, and validates the resulting trace as an
// executable contract test.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	layouts:
//	  - path/to/layouts.cue
//	setup:
//	  - name: buf
//	    size: 16
//	    align: 8
//	    bytes: [1, 2, 3, 4]
//	calls:
//	  - intrinsic: ctpop
//	    types: [u32]
//	    args:
//	      - { int: 255, type: u32 }
//	    dest: u32
//	    expect:
//	      outcome: handled
//	      int: 8
//	assertions:
//	  - type: trace_count
//	    intrinsic: ctpop
//	    count: 1
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: an intrinsic appears in the trace, optionally with
//     a specific outcome
//   - trace_order: intrinsics appear in the given order
//   - trace_count: an intrinsic appears exactly N times
//
// # Deterministic Testing
//
// All scenarios execute with a deterministic clock and a fixed session
// token to ensure reproducible traces for golden snapshot comparison.
//
// The harness uses:
//   - Fixed session tokens (from scenario.session_token or a default)
//   - A deterministic logical clock (testutil.DeterministicClock)
//   - An in-memory SQLite trace store (isolated per scenario)
//   - A fresh memory arena, so allocation addresses repeat across runs
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/ctpop.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
