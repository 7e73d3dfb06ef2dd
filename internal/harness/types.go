package harness

import "github.com/roach88/playtest/internal/timeline"

// Trace event types.
const (
	EventScheduled = "scheduled"
	EventResolved  = "resolved"
	EventRejected  = "rejected"
)

// StatusUnscheduled is reported for steps that never started: their tick
// lies beyond the duration, or the step they follow never settled.
const StatusUnscheduled = "unscheduled"

// TraceEvent records one step transition on the virtual loop.
type TraceEvent struct {
	Type  string `json:"type"`
	Label string `json:"label"`

	// Tick is set on scheduled events started from a tick callback.
	Tick *int `json:"tick,omitempty"`

	// After is set on scheduled events started by another step settling.
	After string `json:"after,omitempty"`

	// At is the virtual time of the transition as a duration string.
	At string `json:"at"`

	Seq int64 `json:"seq"`

	// Value and Error carry the outcome of resolved and rejected events.
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Settled reports whether the event is a settlement.
func (e TraceEvent) Settled() bool {
	return e.Type == EventResolved || e.Type == EventRejected
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	RunID    string `json:"run_id"`
	Scenario string `json:"scenario"`

	// Trace holds step transitions in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Statuses maps each step label to pending, resolved, rejected or
	// unscheduled at the end of the run.
	Statuses map[string]string `json:"statuses"`

	// Report is the driver's summary, including carryover ticks.
	Report timeline.Report `json:"report"`

	// Errors holds failed assertion messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with empty collections.
func NewResult(scenario, runID string) *Result {
	return &Result{
		Pass:     true,
		RunID:    runID,
		Scenario: scenario,
		Trace:    []TraceEvent{},
		Statuses: make(map[string]string),
	}
}

// AddError records a failed assertion and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Settlement returns the settlement event for label, if any.
func (r *Result) Settlement(label string) (TraceEvent, bool) {
	for _, e := range r.Trace {
		if e.Label == label && e.Settled() {
			return e, true
		}
	}
	return TraceEvent{}, false
}
