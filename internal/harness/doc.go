// Package harness runs scripted asynchronous scenarios on a virtual clock
// and checks what settled, when and in which order.
//
// # Scenario Format
//
// Scenarios are YAML files, validated against an embedded CUE schema and
// then decoded strictly (unknown keys are errors):
//
//	name: init_then_segment
//	description: "Init segment loads before the first media segment"
//	duration: 3
//	run_id: run-0001
//	fixtures:
//	  https://cdn.example/init.mp4: "<init/>"
//	steps:
//	  - label: init
//	    tick: 0
//	    delay: 500ms
//	    fetch: https://cdn.example/init.mp4
//	  - label: seg0
//	    after: init
//	    delay: 1s
//	    resolve: "<segment position=\"0\"/>"
//	assertions:
//	  - type: settled_order
//	    labels: [init, seg0]
//	  - type: settled_at
//	    label: init
//	    at: 1s
//
// A step starts from onTick(tick) or when the step named by after settles.
// It waits delay of virtual time and then settles with exactly one outcome:
// resolve, reject, fetch (served from fixtures, else the configured
// Fetcher) or invoke (a registered handler, else a strict-mock rejection).
//
// # Assertion Types
//
//   - status: final status of a step (pending, resolved, rejected, unscheduled)
//   - settled_order: steps settled in the listed order
//   - settled_count: total number of settlements
//   - settled_at: virtual time at which a settlement was observed
//   - value_matches: resolved value, structurally when both sides are markup
//   - carryover: number of ticks that exhausted their settle budget
//
// # Timing
//
// Settlements are observed when the loop drains, which happens after each
// settle round and after the clock advances past a tick. A step with a
// 500ms delay scheduled on tick 0 is therefore observed at 1s.
//
// # Deterministic Testing
//
// Every run uses a fresh virtual clock and loop. With a fixed run_id the
// trace is byte-identical across runs and is compared against golden files
// with RunWithGolden.
package harness
