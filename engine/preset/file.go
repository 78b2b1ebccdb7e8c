package preset

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-modular/engine/graph"
	"github.com/cwbudde/algo-modular/engine/statetree"
)

// Encode writes the processor's patch as XML.
func Encode(w io.Writer, p *graph.Processor) error {
	return statetree.Encode(w, Serialize(p))
}

// Decode reads an XML patch and loads it. A document that does not parse
// leaves the graph untouched.
func Decode(r io.Reader, p *graph.Processor) (LoadReport, error) {
	root, err := statetree.Decode(r)
	if err != nil {
		return LoadReport{}, fmt.Errorf("preset: parse: %w", err)
	}

	return Deserialize(p, root)
}

// SaveFile writes the patch to path through a temporary file in the same
// directory, so an interrupted save never truncates an existing preset.
func SaveFile(path string, p *graph.Processor) error {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".preset-*")
	if err != nil {
		return fmt.Errorf("preset: save %s: %w", path, err)
	}

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("preset: save %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("preset: save %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("preset: save %s: %w", path, err)
	}

	return nil
}

// LoadFile loads the patch stored at path.
func LoadFile(path string, p *graph.Processor) (LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadReport{}, fmt.Errorf("preset: load: %w", err)
	}
	defer f.Close()

	return Decode(f, p)
}
