// Package statetree is the self-describing tree format used for presets and
// module auxiliary state. A Node has a tag, ordered string attributes, child
// nodes and optional text. Trees are written as UTF-8 XML; binary payloads
// are stored base64-encoded so the container stays text-safe.
package statetree

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// Attr is a single name/value attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of a state tree.
type Node struct {
	Tag      string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// New returns an empty node with the given tag.
func New(tag string) *Node {
	return &Node{Tag: tag}
}

// Set stores an attribute, replacing any existing value.
func (n *Node) Set(name, value string) *Node {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return n
		}
	}

	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})

	return n
}

// SetInt stores an integer attribute.
func (n *Node) SetInt(name string, v int64) *Node {
	return n.Set(name, strconv.FormatInt(v, 10))
}

// SetFloat stores a float attribute with round-trip precision.
func (n *Node) SetFloat(name string, v float64) *Node {
	return n.Set(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// SetBool stores "1" or "0".
func (n *Node) SetBool(name string, v bool) *Node {
	if v {
		return n.Set(name, "1")
	}

	return n.Set(name, "0")
}

// Get returns the raw attribute value.
func (n *Node) Get(name string) (string, bool) {
	if n == nil {
		return "", false
	}

	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// String returns the attribute value or def when missing.
func (n *Node) String(name, def string) string {
	if v, ok := n.Get(name); ok {
		return v
	}

	return def
}

// Int parses an integer attribute.
func (n *Node) Int(name string) (int64, error) {
	v, ok := n.Get(name)
	if !ok {
		return 0, fmt.Errorf("statetree: <%s> missing attribute %q", n.tag(), name)
	}

	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("statetree: <%s> attribute %q: %w", n.tag(), name, err)
	}

	return i, nil
}

// IntOr returns the integer attribute or def when missing or malformed.
func (n *Node) IntOr(name string, def int64) int64 {
	i, err := n.Int(name)
	if err != nil {
		return def
	}

	return i
}

// Float parses a float attribute.
func (n *Node) Float(name string) (float64, error) {
	v, ok := n.Get(name)
	if !ok {
		return 0, fmt.Errorf("statetree: <%s> missing attribute %q", n.tag(), name)
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("statetree: <%s> attribute %q: %w", n.tag(), name, err)
	}

	return f, nil
}

// FloatOr returns the float attribute or def when missing or malformed.
func (n *Node) FloatOr(name string, def float64) float64 {
	f, err := n.Float(name)
	if err != nil {
		return def
	}

	return f
}

// BoolOr returns the boolean attribute or def. Accepts 1/0/true/false.
func (n *Node) BoolOr(name string, def bool) bool {
	v, ok := n.Get(name)
	if !ok {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}

	return b
}

// Add appends children and returns n.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}

	return n
}

// AddNew appends a fresh child with the given tag and returns the child.
func (n *Node) AddNew(tag string) *Node {
	c := New(tag)
	n.Children = append(n.Children, c)

	return c
}

// Child returns the first child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}

	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}

	return nil
}

// ChildrenNamed returns all direct children with the given tag.
func (n *Node) ChildrenNamed(tag string) []*Node {
	if n == nil {
		return nil
	}

	var out []*Node

	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}

	return out
}

// SetBlob stores data as base64 text on n.
func (n *Node) SetBlob(data []byte) *Node {
	n.Text = base64.StdEncoding.EncodeToString(data)
	return n
}

// Blob decodes the base64 text of n.
func (n *Node) Blob() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(n.Text)
	if err != nil {
		return nil, fmt.Errorf("statetree: <%s> blob: %w", n.tag(), err)
	}

	return data, nil
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := &Node{Tag: n.Tag, Text: n.Text}
	c.Attrs = append([]Attr(nil), n.Attrs...)

	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}

	return c
}

// Equal reports whether a and b have the same tag, attributes (in order),
// text and children.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Tag != b.Tag || a.Text != b.Text || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}

	for i := range a.Attrs {
		if a.Attrs[i] != b.Attrs[i] {
			return false
		}
	}

	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}

	return true
}

func (n *Node) tag() string {
	if n == nil {
		return "nil"
	}

	return n.Tag
}
