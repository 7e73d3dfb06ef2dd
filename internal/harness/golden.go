package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/playtest/internal/canon"
)

// TraceSnapshot captures the observable outcome of a scenario run.
// It is serialized with canonical JSON so the same run always produces the
// same golden bytes.
type TraceSnapshot struct {
	ScenarioName string            `json:"scenario_name"`
	RunID        string            `json:"run_id"`
	Trace        []TraceEvent      `json:"trace"`
	Statuses     map[string]string `json:"statuses"`
	Carryovers   []int             `json:"carryovers,omitempty"`
}

// NewTraceSnapshot builds the snapshot of result under name.
func NewTraceSnapshot(name string, result *Result) TraceSnapshot {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		Trace:        result.Trace,
		Statuses:     result.Statuses,
		Carryovers:   result.Report.Carryovers,
	}
	if snapshot.Trace == nil {
		snapshot.Trace = []TraceEvent{}
	}
	if snapshot.Statuses == nil {
		snapshot.Statuses = map[string]string{}
	}
	return snapshot
}

// Marshal returns the snapshot as indented canonical JSON.
func (s TraceSnapshot) Marshal() ([]byte, error) {
	return canon.MarshalIndent(s)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario could not run. A snapshot mismatch fails t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the golden file for
// name without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := NewTraceSnapshot(name, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)

	return nil
}
