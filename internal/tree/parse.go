package tree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseOption configures ParseXML.
type ParseOption func(*parseConfig)

type parseConfig struct {
	keepWhitespace bool
}

// KeepWhitespace keeps text leaves that contain only whitespace.
// By default they are dropped so indentation does not count as children.
func KeepWhitespace() ParseOption {
	return func(c *parseConfig) {
		c.keepWhitespace = true
	}
}

// ParseError reports malformed markup.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("tree: line %d: %s", e.Line, e.Message)
	}
	return "tree: " + e.Message
}

// ParseXML reads a single root element from r.
//
// Namespace prefixes are kept as written ("xlink:href", "cenc:pssh") and
// attributes stay in document order. Comments, processing instructions and
// directives are skipped. Adjacent character data is merged into one Text.
func ParseXML(r io.Reader, opts ...ParseOption) (*Node, error) {
	cfg := parseConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	dec := xml.NewDecoder(r)
	var (
		root  *Node
		stack []*Node
	)

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapSyntax(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: qualified(t.Name)}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: qualified(a.Name), Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &ParseError{Line: line(dec), Message: fmt.Sprintf("second root element <%s>", n.Tag)}
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			name := qualified(t.Name)
			if len(stack) == 0 {
				return nil, &ParseError{Line: line(dec), Message: fmt.Sprintf("unexpected </%s>", name)}
			}
			top := stack[len(stack)-1]
			if top.Tag != name {
				return nil, &ParseError{
					Line:    line(dec),
					Message: fmt.Sprintf("element <%s> closed by </%s>", top.Tag, name),
				}
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, &ParseError{Line: line(dec), Message: "text outside root element"}
				}
				continue
			}
			appendText(stack[len(stack)-1], string(t))
		}
	}

	if root == nil {
		return nil, &ParseError{Message: "no root element"}
	}
	if len(stack) > 0 {
		return nil, &ParseError{Message: fmt.Sprintf("unclosed element <%s>", stack[len(stack)-1].Tag)}
	}

	if !cfg.keepWhitespace {
		dropWhitespace(root)
	}
	return root, nil
}

// ParseString is ParseXML over a string.
func ParseString(s string, opts ...ParseOption) (*Node, error) {
	return ParseXML(strings.NewReader(s), opts...)
}

// MustParse is ParseString but panics on error. Intended for test fixtures.
func MustParse(s string, opts ...ParseOption) *Node {
	n, err := ParseString(s, opts...)
	if err != nil {
		panic(err)
	}
	return n
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func appendText(n *Node, s string) {
	if last := len(n.Children) - 1; last >= 0 {
		if prev, ok := n.Children[last].(Text); ok {
			n.Children[last] = prev + Text(s)
			return
		}
	}
	n.Children = append(n.Children, Text(s))
}

func dropWhitespace(n *Node) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		switch t := c.(type) {
		case Text:
			if strings.TrimSpace(string(t)) == "" {
				continue
			}
		case *Node:
			dropWhitespace(t)
		}
		kept = append(kept, c)
	}
	n.Children = kept
}

func line(dec *xml.Decoder) int {
	l, _ := dec.InputPos()
	return l
}

func wrapSyntax(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Line: se.Line, Message: se.Msg}
	}
	return fmt.Errorf("tree: read markup: %w", err)
}
