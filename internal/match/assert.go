package match

import (
	"fmt"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/playtest/internal/tree"
)

type tHelper interface {
	Helper()
}

// Equal asserts that actual equals expected under the Default registry.
// On failure it reports a go-cmp diff.
func Equal(t assert.TestingT, expected, actual any, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	return EqualWith(t, Default, expected, actual, msgAndArgs...)
}

// EqualWith is Equal with an explicit registry.
func EqualWith(t assert.TestingT, r *Registry, expected, actual any, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	diff := r.Diff(actual, expected)
	if diff == "" {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("Not equal (-expected +actual):\n%s", diff), msgAndArgs...)
}

// MatchesNode asserts that actual has the same structure as expected.
// The failure message names the first divergence and embeds both trees.
func MatchesNode(t assert.TestingT, actual, expected tree.Value, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	r := tree.Compare(actual, expected)
	if r.Pass {
		return true
	}
	return assert.Fail(t, r.Message, msgAndArgs...)
}

// MatchesMarkup is MatchesNode with expected given as markup.
func MatchesMarkup(t assert.TestingT, actual tree.Value, expected string, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	want, err := tree.ParseString(expected)
	if err != nil {
		return assert.Fail(t, fmt.Sprintf("expected markup does not parse: %v", err), msgAndArgs...)
	}
	return MatchesNode(t, actual, want, msgAndArgs...)
}
