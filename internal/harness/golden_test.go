package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDemo(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("../../testdata/scenarios", name+".yaml"))
	require.NoError(t, err, "failed to load scenario %s", name)
	return scenario
}

// TestDemoScenarios runs the shared demo scenarios and compares each
// trace against its golden file.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -run TestDemoScenarios -update
func TestDemoScenarios(t *testing.T) {
	tests := []struct {
		name   string
		events int
	}{
		{name: "init_then_segment", events: 4},
		{name: "failures_and_pending", events: 5},
		{name: "settle_carryover", events: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario := loadDemo(t, tt.name)
			assert.Equal(t, tt.name, scenario.Name)
			assert.NotEmpty(t, scenario.Description)
			assert.NotEmpty(t, scenario.RunID)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.True(t, result.Pass, "scenario should pass: errors=%v", result.Errors)
			assert.Len(t, result.Trace, tt.events)
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario := loadDemo(t, "init_then_segment")

	result, err := Run(scenario)
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, "init_then_segment", result))
}

func TestTraceSnapshot_CanonicalJSON(t *testing.T) {
	result := NewResult("snap", "run-x")
	result.Trace = append(result.Trace,
		TraceEvent{Type: EventScheduled, Label: "a", Tick: intPtr(0), At: "0s", Seq: 1},
		TraceEvent{Type: EventResolved, Label: "a", At: "1s", Seq: 2, Value: `<a b="1"/>`},
	)
	result.Statuses["a"] = "resolved"

	data, err := NewTraceSnapshot("snap", result).Marshal()
	require.NoError(t, err)

	want := `{
  "run_id": "run-x",
  "scenario_name": "snap",
  "statuses": {
    "a": "resolved"
  },
  "trace": [
    {
      "at": "0s",
      "label": "a",
      "seq": 1,
      "tick": 0,
      "type": "scheduled"
    },
    {
      "at": "1s",
      "label": "a",
      "seq": 2,
      "type": "resolved",
      "value": "<a b=\"1\"/>"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestTraceSnapshot_EmptyRun(t *testing.T) {
	data, err := NewTraceSnapshot("empty", &Result{RunID: "r"}).Marshal()
	require.NoError(t, err)

	assert.Contains(t, string(data), `"trace": []`)
	assert.Contains(t, string(data), `"statuses": {}`)
	assert.NotContains(t, string(data), "carryovers")
}

func TestTraceSnapshot_Deterministic(t *testing.T) {
	scenario := loadDemo(t, "settle_carryover")

	var outputs []string
	for range 3 {
		result, err := Run(scenario)
		require.NoError(t, err)
		data, err := NewTraceSnapshot(scenario.Name, result).Marshal()
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
	assert.True(t, strings.HasPrefix(outputs[0], "{\n  \"carryovers\": [\n    1\n  ],"))
}
