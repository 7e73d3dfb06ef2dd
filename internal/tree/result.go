package tree

import "fmt"

// Result is the outcome of a structural assertion, ready for a test
// framework to render.
type Result struct {
	Pass       bool        `json:"pass"`
	Message    string      `json:"message"`
	Divergence *Divergence `json:"divergence,omitempty"`
}

// Compare diffs actual against expected and packages the outcome.
// The message always embeds both sides; on failure it also names the
// divergence and where it was found.
func Compare(actual, expected Value) Result {
	a, e := Serialize(actual), Serialize(expected)

	d := Diff(actual, expected)
	if d == nil {
		return Result{
			Pass:    true,
			Message: fmt.Sprintf("Expected %s not to match %s.", a, e),
		}
	}

	return Result{
		Pass:       false,
		Message:    fmt.Sprintf("Expected %s to match %s. The difference was in %s at %s", a, e, d.Error(), d.Path),
		Divergence: d,
	}
}
