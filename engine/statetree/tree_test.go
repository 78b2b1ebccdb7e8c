package statetree

import (
	"bytes"
	"strings"
	"testing"
)

func sampleTree() *Node {
	root := New("Root").SetInt("version", 3)
	mod := root.AddNew("module").Set("type", "vco").SetFloat("gain", 0.1)
	mod.AddNew("blob").SetBlob([]byte{0, 1, 2, 0xff, '<', '&'})
	root.AddNew("empty")

	return root
}

func TestXMLRoundTrip(t *testing.T) {
	t.Parallel()

	want := sampleTree()

	data, err := Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !Equal(got, want) {
		t.Fatalf("round trip mismatch:\n%s", data)
	}

	blob, err := got.Child("module").Child("blob").Blob()
	if err != nil {
		t.Fatalf("Blob: %v", err)
	}

	if !bytes.Equal(blob, []byte{0, 1, 2, 0xff, '<', '&'}) {
		t.Fatalf("blob = %v", blob)
	}
}

func TestTextRoundTripsVerbatim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tree *Node
	}{
		{name: "leaf", tree: &Node{Tag: "note", Text: "  padded line\n"}},
		{name: "with children", tree: &Node{
			Tag:      "outer",
			Text:     "\tlead ",
			Children: []*Node{{Tag: "inner", Text: " x "}, New("empty")},
		}},
		{name: "whitespace only", tree: &Node{
			Tag:      "outer",
			Children: []*Node{New("a"), New("b")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := Marshal(tt.tree)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}

			if !Equal(got, tt.tree) {
				t.Fatalf("round trip mismatch: got %+v\n%s", got, data)
			}
		})
	}
}

func TestAttributeAccessors(t *testing.T) {
	t.Parallel()

	n := New("x").SetInt("i", -7).SetFloat("f", 0.1).SetBool("b", true).Set("s", "hi")

	if v, err := n.Int("i"); err != nil || v != -7 {
		t.Fatalf("Int = %d, %v", v, err)
	}

	if v := n.FloatOr("f", 0); v != 0.1 {
		t.Fatalf("FloatOr = %v, want 0.1", v)
	}

	if !n.BoolOr("b", false) {
		t.Fatal("BoolOr should be true")
	}

	if n.String("missing", "def") != "def" {
		t.Fatal("String default not returned")
	}

	if _, err := n.Int("s"); err == nil {
		t.Fatal("expected parse error for non-integer attribute")
	}

	if n.IntOr("missing", 42) != 42 {
		t.Fatal("IntOr default not returned")
	}

	n.Set("s", "again")

	if len(n.Attrs) != 4 {
		t.Fatalf("Set must replace existing attribute, have %d attrs", len(n.Attrs))
	}
}

func TestDecodeIgnoresUnknownContent(t *testing.T) {
	t.Parallel()

	doc := `<?xml version="1.0"?>
<!-- saved by a newer build -->
<Root version="2" extra="yes">
  <future><nested/></future>
  <module type="vca"/>
</Root>`

	n, err := Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if n.Child("module").String("type", "") != "vca" {
		t.Fatal("module child not decoded")
	}

	if len(n.ChildrenNamed("future")) != 1 {
		t.Fatal("unknown elements should be kept, not rejected")
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "not xml", doc: "{json}"},
		{name: "unclosed", doc: "<Root><a>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Unmarshal([]byte(tt.doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	a := sampleTree()
	b := a.Clone()
	b.Child("module").Set("type", "lfo")

	if a.Child("module").String("type", "") != "vco" {
		t.Fatal("Clone shares children with the original")
	}
}
