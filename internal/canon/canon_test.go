package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Basic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", int64(-100), "-100"},
		{"max int64", int64(9223372036854775807), "9223372036854775807"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"array", []int{1, 2, 3}, "[1,2,3]"},
		{"no html escaping", "<S t='0'/> & more", `"<S t='0'/> & more"`},
		{"control characters", "a\tb\nc\x01", `"a\tb\nc\u0001"`},
		{"quote and backslash", `say "\"`, `"say \"\\\""`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshal_SortedKeys(t *testing.T) {
	out, err := Marshal(map[string]any{
		"zebra": 1,
		"alpha": map[string]any{"b": 1, "a": 2},
		"beta":  3,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"a":2,"b":1},"beta":3,"zebra":1}`, string(out))
}

func TestMarshal_UTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before
	// U+E000 in UTF-16 but after it in UTF-8.
	out, err := Marshal(map[string]int{
		"\uE000":     1,
		"\U00010000": 2,
	})

	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(out))
}

func TestMarshal_StructTags(t *testing.T) {
	type event struct {
		Type  string `json:"type"`
		Label string `json:"label,omitempty"`
		Seq   int64  `json:"seq"`
	}

	out, err := Marshal(event{Type: "scheduled", Seq: 3})

	require.NoError(t, err)
	assert.Equal(t, `{"seq":3,"type":"scheduled"}`, string(out))
}

func TestMarshal_NFC(t *testing.T) {
	decomposed := "e\u0301"
	out, err := Marshal(decomposed)

	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(out))
}

func TestMarshal_Rejects(t *testing.T) {
	_, err := Marshal(map[string]any{"a": nil})
	assert.ErrorIs(t, err, ErrNull)

	_, err = Marshal([]any{1.5})
	assert.ErrorIs(t, err, ErrFloat)

	var nilSlice []string
	_, err = Marshal(nilSlice)
	assert.ErrorIs(t, err, ErrNull, "nil slices encode as null")

	_, err = Marshal(make(chan int))
	assert.Error(t, err)
}

func TestMarshalIndent(t *testing.T) {
	out, err := MarshalIndent(map[string]any{"b": []int{1}, "a": "x"})

	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"x\",\n  \"b\": [\n    1\n  ]\n}\n", string(out))
}

func TestEqual(t *testing.T) {
	eq, err := Equal(map[string]int{"a": 1, "b": 2}, map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = Equal([]int{1, 2}, []int{2, 1})
	require.NoError(t, err)
	assert.False(t, eq)
}

func TestMarshal_Deterministic(t *testing.T) {
	v := map[string]any{"k3": 3, "k1": 1, "k2": map[string]any{"y": true, "x": false}}

	first, err := Marshal(v)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
