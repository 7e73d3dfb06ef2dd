package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run of asynchronous work on the virtual loop.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Duration is the number of simulated seconds to drive.
	Duration int `yaml:"duration"`

	// SettleRounds overrides the driver's settle budget per tick.
	// Nil keeps the default.
	SettleRounds *int `yaml:"settle_rounds,omitempty"`

	// RunID is an optional fixed run ID for deterministic traces.
	RunID string `yaml:"run_id,omitempty"`

	// Fixtures maps URIs to bodies served to fetch steps instead of the
	// network.
	Fixtures map[string]string `yaml:"fixtures,omitempty"`

	// Steps are the asynchronous operations to schedule.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the run.
	Assertions []Assertion `yaml:"assertions"`
}

// Step schedules one asynchronous operation. It starts either from the
// tick callback of a given tick or when another step settles, waits Delay
// of virtual time, then settles with its outcome.
type Step struct {
	Label string `yaml:"label"`

	// Tick schedules the step from onTick(Tick).
	Tick *int `yaml:"tick,omitempty"`

	// After schedules the step when the named step settles.
	After string `yaml:"after,omitempty"`

	// Delay is the virtual time between scheduling and the outcome.
	Delay Duration `yaml:"delay,omitempty"`

	// Exactly one outcome is set.
	Resolve *string `yaml:"resolve,omitempty"`
	Reject  *string `yaml:"reject,omitempty"`
	Fetch   string  `yaml:"fetch,omitempty"`
	Invoke  string  `yaml:"invoke,omitempty"`

	// Args are passed to the Invoke handler.
	Args []any `yaml:"args,omitempty"`
}

// Outcome names which outcome field the step uses.
func (s Step) Outcome() string {
	switch {
	case s.Resolve != nil:
		return OutcomeResolve
	case s.Reject != nil:
		return OutcomeReject
	case s.Fetch != "":
		return OutcomeFetch
	case s.Invoke != "":
		return OutcomeInvoke
	}
	return ""
}

// Step outcomes.
const (
	OutcomeResolve = "resolve"
	OutcomeReject  = "reject"
	OutcomeFetch   = "fetch"
	OutcomeInvoke  = "invoke"
)

// Assertion validates the run's trace or final statuses.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Label is the step under test (status, settled_at, value_matches).
	Label string `yaml:"label,omitempty"`

	// Labels is the expected settlement order (settled_order).
	Labels []string `yaml:"labels,omitempty"`

	// Expect is the expected status (status) or value (value_matches).
	Expect string `yaml:"expect,omitempty"`

	// Count is the expected number (settled_count, carryover).
	Count int `yaml:"count,omitempty"`

	// At is the expected settlement time (settled_at).
	At Duration `yaml:"at,omitempty"`
}

// Assertion type constants.
const (
	AssertStatus       = "status"
	AssertSettledOrder = "settled_order"
	AssertSettledCount = "settled_count"
	AssertSettledAt    = "settled_at"
	AssertValueMatches = "value_matches"
	AssertCarryover    = "carryover"
)

// Duration is a time.Duration written as a Go duration string ("500ms",
// "1m30s") in scenario files.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string like \"500ms\"", value.Line)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	if parsed < 0 {
		return fmt.Errorf("line %d: duration %q is negative", value.Line, s)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// String returns the Go duration string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// LoadScenario reads, schema-validates and parses a scenario file.
// Unknown fields (typos) and semantic mistakes are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(path, data)
}

// ParseScenario is LoadScenario over in-memory YAML. filename is used in
// error positions only.
func ParseScenario(filename string, data []byte) (*Scenario, error) {
	if err := ValidateSchema(filename, data); err != nil {
		return nil, err
	}

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

// validateScenario checks rules the schema cannot express.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Duration < 0 {
		return fmt.Errorf("duration must be non-negative")
	}
	if s.SettleRounds != nil && *s.SettleRounds < 0 {
		return fmt.Errorf("settle_rounds must be non-negative")
	}

	labels := make(map[string]int, len(s.Steps))
	for i, step := range s.Steps {
		if step.Label == "" {
			return fmt.Errorf("steps[%d]: label is required", i)
		}
		if prev, dup := labels[step.Label]; dup {
			return fmt.Errorf("steps[%d]: label %q already used by steps[%d]", i, step.Label, prev)
		}
		labels[step.Label] = i

		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, step := range s.Steps {
		if step.After == "" {
			continue
		}
		if _, ok := labels[step.After]; !ok {
			return fmt.Errorf("steps[%d]: after references unknown step %q", i, step.After)
		}
	}
	if cycle := findAfterCycle(s.Steps); cycle != "" {
		return fmt.Errorf("steps: after cycle through %q", cycle)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, labels); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step) error {
	if (step.Tick == nil) == (step.After == "") {
		return fmt.Errorf("steps[%d] %q: exactly one of tick or after is required", i, step.Label)
	}
	if step.Tick != nil && *step.Tick < 0 {
		return fmt.Errorf("steps[%d] %q: tick must be non-negative", i, step.Label)
	}

	outcomes := 0
	for _, set := range []bool{step.Resolve != nil, step.Reject != nil, step.Fetch != "", step.Invoke != ""} {
		if set {
			outcomes++
		}
	}
	if outcomes != 1 {
		return fmt.Errorf("steps[%d] %q: exactly one of resolve, reject, fetch or invoke is required", i, step.Label)
	}
	if len(step.Args) > 0 && step.Invoke == "" {
		return fmt.Errorf("steps[%d] %q: args are only valid with invoke", i, step.Label)
	}
	return nil
}

// findAfterCycle returns a label on an after-cycle, or "" if there is none.
// Each step has at most one parent, so following parents suffices.
func findAfterCycle(steps []Step) string {
	parent := make(map[string]string, len(steps))
	for _, s := range steps {
		if s.After != "" {
			parent[s.Label] = s.After
		}
	}
	for _, s := range steps {
		seen := map[string]bool{}
		for cur := s.Label; cur != ""; cur = parent[cur] {
			if seen[cur] {
				return cur
			}
			seen[cur] = true
		}
	}
	return ""
}

func validateAssertion(index int, a Assertion, labels map[string]int) error {
	requireLabel := func(label string) error {
		if label == "" {
			return fmt.Errorf("assertions[%d]: label is required for %s", index, a.Type)
		}
		if _, ok := labels[label]; !ok {
			return fmt.Errorf("assertions[%d]: unknown step %q", index, label)
		}
		return nil
	}

	switch a.Type {
	case AssertStatus:
		if err := requireLabel(a.Label); err != nil {
			return err
		}
		switch a.Expect {
		case "pending", "resolved", "rejected", StatusUnscheduled:
		default:
			return fmt.Errorf("assertions[%d]: status must be pending, resolved, rejected or %s, got %q", index, StatusUnscheduled, a.Expect)
		}
	case AssertSettledOrder:
		if len(a.Labels) == 0 {
			return fmt.Errorf("assertions[%d]: labels list is required for settled_order", index)
		}
		for _, l := range a.Labels {
			if err := requireLabel(l); err != nil {
				return err
			}
		}
	case AssertSettledCount, AssertCarryover:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSettledAt:
		if err := requireLabel(a.Label); err != nil {
			return err
		}
	case AssertValueMatches:
		if err := requireLabel(a.Label); err != nil {
			return err
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
