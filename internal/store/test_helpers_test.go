package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/playtest/internal/harness"
	"github.com/roach88/playtest/internal/timeline"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestResult creates a run result with a small two-step trace.
func createTestResult(runID, scenario string) *harness.Result {
	tick := 0
	r := harness.NewResult(scenario, runID)
	r.Trace = []harness.TraceEvent{
		{Type: harness.EventScheduled, Label: "init", Tick: &tick, At: "0s", Seq: 1},
		{Type: harness.EventResolved, Label: "init", At: "1s", Seq: 2, Value: "<init/>"},
		{Type: harness.EventScheduled, Label: "seg", After: "init", At: "1s", Seq: 3},
		{Type: harness.EventRejected, Label: "seg", At: "2s", Seq: 4, Error: "fetch failed"},
	}
	r.Statuses = map[string]string{"init": "resolved", "seg": "rejected", "tail": "pending"}
	r.Report = timeline.Report{Ticks: 3, TimersFired: 2, TasksRun: 9}
	return r
}
