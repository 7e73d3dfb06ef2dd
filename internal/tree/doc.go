// Package tree compares markup trees structurally and explains the first
// place they differ.
//
// A Value is either an element (*Node) or a text leaf (Text). Diff walks two
// values depth-first, left to right, and stops at the first divergence:
//
//  1. one side is an element and the other is not
//  2. two text leaves with different content
//  3. elements with different tags
//  4. elements with a different number of attributes
//  5. attributes compared pairwise in document order (name, then value)
//  6. elements with a different number of children
//  7. the first child pair that diverges
//
// Attributes are compared by position, so two elements carrying the same
// attributes in a different order diverge at the first mismatched position.
//
// Trees are usually built from markup with ParseString, which keeps
// namespace prefixes and attribute order as written:
//
//	actual, _ := tree.ParseString(`<SegmentTemplate media="$Number$.mp4" startNumber="1"/>`)
//	expected := tree.E("SegmentTemplate", tree.A("media", "$Number$.mp4", "startNumber", "1"))
//	if d := tree.Diff(actual, expected); d != nil {
//	    fmt.Println(d)
//	}
package tree
