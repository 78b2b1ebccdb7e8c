package statetree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoRoot = errors.New("statetree: document has no root element")

// Encode writes n as an indented XML document.
func Encode(w io.Writer, n *Node) error {
	if n == nil {
		return errNoRoot
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := encodeNode(enc, n); err != nil {
		return err
	}

	if err := enc.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")

	return err
}

// Marshal returns n as XML bytes.
func Marshal(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, n); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeNode(enc *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Tag}}
	for _, a := range n.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}

	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("statetree: encode <%s>: %w", n.Tag, err)
	}

	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}

	for _, c := range n.Children {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

// Decode reads one XML document and returns its root node. Comments,
// processing instructions and whitespace between elements are ignored.
//
// A node's text is the character data before its first child element, kept
// verbatim. Text that is only whitespace decodes as empty.
func Decode(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)

	type frame struct {
		node     *Node
		text     strings.Builder
		sawChild bool
	}

	var (
		root  *Node
		stack []*frame
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("statetree: decode: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Tag: t.Name.Local}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("statetree: decode: multiple root elements")
				}

				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.node.Children = append(parent.node.Children, n)
				parent.sawChild = true
			}

			stack = append(stack, &frame{node: n})
		case xml.CharData:
			if len(stack) > 0 && !stack[len(stack)-1].sawChild {
				stack[len(stack)-1].text.Write(t)
			}
		case xml.EndElement:
			f := stack[len(stack)-1]
			if text := f.text.String(); strings.TrimSpace(text) != "" {
				f.node.Text = text
			}

			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, errNoRoot
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("statetree: decode: unclosed element <%s>", stack[len(stack)-1].node.Tag)
	}

	return root, nil
}

// Unmarshal parses XML bytes into a tree.
func Unmarshal(data []byte) (*Node, error) {
	return Decode(bytes.NewReader(data))
}
