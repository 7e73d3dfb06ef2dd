package tree

import (
	"encoding/xml"
	"strings"
)

// Value is an element or a text leaf.
type Value interface {
	// valueMarker restricts implementers to this package.
	valueMarker()
}

// Text is a character-data leaf.
type Text string

func (Text) valueMarker() {}

// Attr is a single attribute. Name keeps its namespace prefix as written,
// e.g. "xlink:href".
type Attr struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Node is an element with a tag, attributes in document order and children.
type Node struct {
	Tag      string  `json:"tag"`
	Attrs    []Attr  `json:"attrs,omitempty"`
	Children []Value `json:"-"`
}

func (*Node) valueMarker() {}

// E builds an element. Children may be *Node or Text values.
func E(tag string, attrs []Attr, children ...Value) *Node {
	return &Node{Tag: tag, Attrs: attrs, Children: children}
}

// A builds an attribute list from name/value pairs.
// Panics on an odd number of arguments.
func A(pairs ...string) []Attr {
	if len(pairs)%2 != 0 {
		panic("tree: A requires name/value pairs")
	}
	attrs := make([]Attr, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		attrs = append(attrs, Attr{Name: pairs[i], Value: pairs[i+1]})
	}
	return attrs
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Text returns the concatenated text of all descendant leaves.
func (n *Node) Text() string {
	var b strings.Builder
	collectText(&b, n)
	return b.String()
}

func collectText(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case Text:
		b.WriteString(string(t))
	case *Node:
		if t == nil {
			return
		}
		for _, c := range t.Children {
			collectText(b, c)
		}
	}
}

// Serialize renders v as markup. Elements without children are written in
// self-closing form. A nil value renders as the empty string.
func Serialize(v Value) string {
	var b strings.Builder
	serialize(&b, v)
	return b.String()
}

func serialize(b *strings.Builder, v Value) {
	switch t := v.(type) {
	case Text:
		escape(b, string(t))
	case *Node:
		if t == nil {
			return
		}
		b.WriteByte('<')
		b.WriteString(t.Tag)
		for _, a := range t.Attrs {
			b.WriteByte(' ')
			serializeAttr(b, a)
		}
		if len(t.Children) == 0 {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for _, c := range t.Children {
			serialize(b, c)
		}
		b.WriteString("</")
		b.WriteString(t.Tag)
		b.WriteByte('>')
	}
}

func serializeAttr(b *strings.Builder, a Attr) {
	b.WriteString(a.Name)
	b.WriteString(`="`)
	escape(b, a.Value)
	b.WriteByte('"')
}

func escape(b *strings.Builder, s string) {
	// strings.Builder writes never fail.
	_ = xml.EscapeText(b, []byte(s))
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return Serialize(n)
}

// asNode reports whether v is a non-nil element.
func asNode(v Value) (*Node, bool) {
	n, ok := v.(*Node)
	if !ok || n == nil {
		return nil, false
	}
	return n, true
}

// isNil reports whether v is absent: a nil Value or a nil *Node.
func isNil(v Value) bool {
	if v == nil {
		return true
	}
	n, ok := v.(*Node)
	return ok && n == nil
}

// textOf returns the character content of a non-element value.
func textOf(v Value) string {
	if t, ok := v.(Text); ok {
		return string(t)
	}
	return ""
}
