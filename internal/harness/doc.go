// Package harness provides scenario testing for life tables.
//
// The harness compiles a table directory, plays one fully determined run
// through the engine and checks the resulting trajectory against the
// scenario's assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	tables: ../tables          # relative to the scenario file
//	config: ../relive.yaml     # optional, defaults apply otherwise
//	seed: 7
//	run_id: test-run-short     # optional
//	talents: [1001]
//	stats: { charm: 1, intelligence: 2, strength: 5, money: 2 }
//	statistics:                # optional starting progress
//	  finished_games: 3
//	  achievements: [1]
//	assertions:
//	  - type: trace_contains
//	    kind: event
//	    id: 10003
//	    age: 1
//	  - type: final_state
//	    expect: { max_age: 2, overall: 39 }
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_contains: an event, talent or achievement occurs (optionally at an age)
//   - trace_order: ids of one kind occur in the given order
//   - trace_count: an id occurs exactly N times
//   - final_state: summary and final stat values
//   - final_condition: a condition holds against the end-of-run variables
//
// # Deterministic Testing
//
// Scenarios run with an explicit seed and a fixed run id, so the same
// scenario always yields a byte-identical run record. RunWithGolden compares
// the trajectory against testdata/golden/{name}.golden.
package harness
