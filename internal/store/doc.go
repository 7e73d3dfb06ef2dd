// Package store provides SQLite-backed history of scenario runs.
//
// Each run is one row in runs plus its trace in run_events:
//   - runs: run ID, scenario name, pass flag, final statuses, driver report
//     and assertion failures (JSON columns in canonical form)
//   - run_events: the trace, one row per event, keyed by (run_id, seq)
//
// Writes are idempotent: writing a run ID that already exists is a no-op.
//
// All ordering uses seq, never timestamps, so listing and reading are
// deterministic:
//   - runs: ORDER BY seq ASC, id COLLATE BINARY ASC
//   - run_events: ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
