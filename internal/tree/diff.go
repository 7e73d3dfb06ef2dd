package tree

import (
	"fmt"
	"strconv"
	"strings"
)

// Reason identifies which comparison step found a divergence.
type Reason string

const (
	// ReasonNodeKind: one side is an element and the other is not, or one
	// side is nil and the other is not.
	ReasonNodeKind Reason = "node_kind"

	// ReasonText: two text leaves differ.
	ReasonText Reason = "text"

	// ReasonTag: element tags differ.
	ReasonTag Reason = "tag"

	// ReasonAttrCount: elements carry a different number of attributes.
	ReasonAttrCount Reason = "attr_count"

	// ReasonAttr: attributes at the same position differ in name or value.
	ReasonAttr Reason = "attr"

	// ReasonChildCount: elements have a different number of children.
	ReasonChildCount Reason = "child_count"
)

// Divergence describes the first point where two trees differ.
type Divergence struct {
	Reason Reason `json:"reason"`

	// Detail is a human-readable explanation, e.g. "attribute #1 differs".
	Detail string `json:"detail"`

	// Path locates the divergence from the root, e.g. "/MPD/Period[0]/@id".
	Path string `json:"path"`

	// Actual and Expected are the serialized forms of both sides at the
	// divergence point.
	Actual   string `json:"actual"`
	Expected string `json:"expected"`
}

// Error implements error so a divergence can be returned or wrapped.
func (d *Divergence) Error() string {
	return fmt.Sprintf("%s vs %s: %s", d.Actual, d.Expected, d.Detail)
}

// Diff compares actual against expected and returns the first divergence,
// or nil if the trees are structurally equal.
func Diff(actual, expected Value) *Divergence {
	return diff(actual, expected, "/"+stepName(expected))
}

func diff(actual, expected Value, path string) *Divergence {
	an, aIsNode := asNode(actual)
	en, eIsNode := asNode(expected)

	if aIsNode != eIsNode {
		return diverge(ReasonNodeKind, "one is an element, one isn't", path, actual, expected)
	}

	if !aIsNode {
		if isNil(actual) != isNil(expected) {
			return diverge(ReasonNodeKind, "one is nil, one isn't", path, actual, expected)
		}
		if textOf(actual) != textOf(expected) {
			return diverge(ReasonText, "text content differs", path, actual, expected)
		}
		return nil
	}

	if an.Tag != en.Tag {
		return diverge(ReasonTag, "tag differs", path, actual, expected)
	}

	if len(an.Attrs) != len(en.Attrs) {
		return &Divergence{
			Reason:   ReasonAttrCount,
			Detail:   fmt.Sprintf("attribute count differs (%d vs %d)", len(an.Attrs), len(en.Attrs)),
			Path:     path,
			Actual:   Serialize(actual),
			Expected: Serialize(expected),
		}
	}

	for i := range an.Attrs {
		a, e := an.Attrs[i], en.Attrs[i]
		if a == e {
			continue
		}
		return &Divergence{
			Reason:   ReasonAttr,
			Detail:   fmt.Sprintf("attribute #%d differs", i),
			Path:     path + "/@" + e.Name,
			Actual:   attrString(a),
			Expected: attrString(e),
		}
	}

	if len(an.Children) != len(en.Children) {
		return &Divergence{
			Reason:   ReasonChildCount,
			Detail:   fmt.Sprintf("child count differs (%d vs %d)", len(an.Children), len(en.Children)),
			Path:     path,
			Actual:   Serialize(actual),
			Expected: Serialize(expected),
		}
	}

	for i := range an.Children {
		step := stepName(en.Children[i]) + "[" + strconv.Itoa(i) + "]"
		if d := diff(an.Children[i], en.Children[i], path+"/"+step); d != nil {
			return d
		}
	}

	return nil
}

func diverge(reason Reason, detail, path string, actual, expected Value) *Divergence {
	return &Divergence{
		Reason:   reason,
		Detail:   detail,
		Path:     path,
		Actual:   Serialize(actual),
		Expected: Serialize(expected),
	}
}

// stepName names v within a path: its tag for elements, text() otherwise.
func stepName(v Value) string {
	if n, ok := asNode(v); ok {
		return n.Tag
	}
	return "text()"
}

func attrString(a Attr) string {
	var b strings.Builder
	serializeAttr(&b, a)
	return b.String()
}
