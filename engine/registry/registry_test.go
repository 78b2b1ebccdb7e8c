package registry

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-modular/engine/module"
)

func dummyFactory() (module.Module, error) {
	return nil, nil
}

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("stores lowercase keys", func(t *testing.T) {
		t.Parallel()

		r := New()
		if err := r.Register("VCO", dummyFactory); err != nil {
			t.Fatalf("Register returned unexpected error: %v", err)
		}

		if got := r.Names(); len(got) != 1 || got[0] != "vco" {
			t.Fatalf("Names() = %v", got)
		}
	})

	t.Run("rejects empty type", func(t *testing.T) {
		t.Parallel()

		if err := New().Register("  ", dummyFactory); err == nil {
			t.Fatal("expected error for empty type")
		}
	})

	t.Run("rejects nil factory", func(t *testing.T) {
		t.Parallel()

		if err := New().Register("vco", nil); err == nil {
			t.Fatal("expected error for nil factory")
		}
	})

	t.Run("rejects duplicate case-insensitively", func(t *testing.T) {
		t.Parallel()

		r := New()
		_ = r.Register("vco", dummyFactory)

		err := r.Register("Vco", dummyFactory)
		if !errors.Is(err, ErrDuplicateType) {
			t.Fatalf("err = %v, want ErrDuplicateType", err)
		}
	})

	t.Run("MustRegister panics on duplicate", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.MustRegister("vca", dummyFactory)

		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()

		r.MustRegister("vca", dummyFactory)
	})
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r := New()
	r.MustRegister("audioin", dummyFactory)
	r.MustRegister("step_sequencer", dummyFactory)

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{query: "audioin", want: "audioin", found: true},
		{query: "AudioIn", want: "audioin", found: true},
		{query: "Audio In", want: "audioin", found: true},
		{query: "audio-in", want: "audioin", found: true},
		{query: "Step Sequencer", want: "step_sequencer", found: true},
		{query: "stepsequencer", want: "step_sequencer", found: true},
		{query: "", found: false},
		{query: "reverb", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()

			name, f, ok := r.Lookup(tt.query)
			if ok != tt.found {
				t.Fatalf("Lookup(%q) found=%v, want %v", tt.query, ok, tt.found)
			}

			if ok && (name != tt.want || f == nil) {
				t.Fatalf("Lookup(%q) = %q", tt.query, name)
			}
		})
	}
}
