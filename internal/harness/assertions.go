package harness

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/playtest/internal/tree"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, event := range e.Trace {
		if event.Settled() {
			fmt.Fprintf(&buf, "  [%d] %s %s at %s\n", i+1, event.Label, event.Type, event.At)
		}
	}

	return buf.String()
}

// assertStatus checks a step's final status.
func assertStatus(result *Result, assertion Assertion) error {
	got, ok := result.Statuses[assertion.Label]
	if !ok {
		got = StatusUnscheduled
	}
	if got == assertion.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertStatus,
		Expected: fmt.Sprintf("%s to be %s", assertion.Label, assertion.Expect),
		Actual:   got,
		Trace:    result.Trace,
	}
}

// assertSettledOrder checks that the listed steps settled in the given order.
// Other settlements may be interleaved.
func assertSettledOrder(result *Result, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range result.Trace {
		if event.Settled() && positions[event.Label] == 0 {
			positions[event.Label] = i + 1
		}
	}

	for _, label := range assertion.Labels {
		if positions[label] == 0 {
			return &AssertionError{
				Type:     AssertSettledOrder,
				Expected: fmt.Sprintf("all steps settled: %v", assertion.Labels),
				Actual:   fmt.Sprintf("%s never settled", label),
				Trace:    result.Trace,
			}
		}
	}

	for i := 1; i < len(assertion.Labels); i++ {
		prev, curr := assertion.Labels[i-1], assertion.Labels[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertSettledOrder,
				Expected: fmt.Sprintf("settled in order: %v", assertion.Labels),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: result.Trace,
			}
		}
	}
	return nil
}

// assertSettledCount checks the number of settlements in the trace.
func assertSettledCount(result *Result, assertion Assertion) error {
	count := 0
	for _, event := range result.Trace {
		if event.Settled() {
			count++
		}
	}
	if count == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertSettledCount,
		Expected: fmt.Sprintf("%d settlements", assertion.Count),
		Actual:   fmt.Sprintf("%d settlements", count),
		Trace:    result.Trace,
	}
}

// assertSettledAt checks the virtual time at which a step's settlement was
// observed.
func assertSettledAt(result *Result, assertion Assertion) error {
	want := time.Duration(assertion.At).String()
	event, ok := result.Settlement(assertion.Label)
	if !ok {
		return &AssertionError{
			Type:     AssertSettledAt,
			Expected: fmt.Sprintf("%s settled at %s", assertion.Label, want),
			Actual:   "never settled",
			Trace:    result.Trace,
		}
	}
	if event.At == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertSettledAt,
		Expected: fmt.Sprintf("%s settled at %s", assertion.Label, want),
		Actual:   fmt.Sprintf("settled at %s", event.At),
		Trace:    result.Trace,
	}
}

// assertValueMatches checks a resolved step's value. When both sides parse
// as markup they are compared structurally, so formatting differences do not
// matter; otherwise the strings must be equal.
func assertValueMatches(result *Result, assertion Assertion) error {
	event, ok := result.Settlement(assertion.Label)
	if !ok || event.Type != EventResolved {
		actual := "never settled"
		if ok {
			actual = fmt.Sprintf("rejected: %s", event.Error)
		}
		return &AssertionError{
			Type:     AssertValueMatches,
			Expected: fmt.Sprintf("%s resolved", assertion.Label),
			Actual:   actual,
			Trace:    result.Trace,
		}
	}

	actualTree, aerr := tree.ParseString(event.Value)
	expectedTree, eerr := tree.ParseString(assertion.Expect)
	if aerr == nil && eerr == nil {
		cmp := tree.Compare(actualTree, expectedTree)
		if cmp.Pass {
			return nil
		}
		return &AssertionError{
			Type:     AssertValueMatches,
			Expected: fmt.Sprintf("%s value to match %s", assertion.Label, tree.Serialize(expectedTree)),
			Actual:   cmp.Message,
			Trace:    result.Trace,
		}
	}

	if event.Value == assertion.Expect {
		return nil
	}
	return &AssertionError{
		Type:     AssertValueMatches,
		Expected: fmt.Sprintf("%s value %q", assertion.Label, assertion.Expect),
		Actual:   fmt.Sprintf("%q", event.Value),
		Trace:    result.Trace,
	}
}

// assertCarryover checks how many ticks exhausted their settle budget.
func assertCarryover(result *Result, assertion Assertion) error {
	got := len(result.Report.Carryovers)
	if got == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCarryover,
		Expected: fmt.Sprintf("%d carryover ticks", assertion.Count),
		Actual:   fmt.Sprintf("%d carryover ticks %v", got, result.Report.Carryovers),
		Trace:    result.Trace,
	}
}

// EvaluateAssertions checks all assertions against result and returns the
// failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStatus:
			err = assertStatus(result, assertion)
		case AssertSettledOrder:
			err = assertSettledOrder(result, assertion)
		case AssertSettledCount:
			err = assertSettledCount(result, assertion)
		case AssertSettledAt:
			err = assertSettledAt(result, assertion)
		case AssertValueMatches:
			err = assertValueMatches(result, assertion)
		case AssertCarryover:
			err = assertCarryover(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// SettledLabels returns the labels of settled steps in settlement order.
func SettledLabels(result *Result) []string {
	labels := []string{}
	for _, event := range result.Trace {
		if event.Settled() && !slices.Contains(labels, event.Label) {
			labels = append(labels, event.Label)
		}
	}
	return labels
}
