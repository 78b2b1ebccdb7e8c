package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/cwbudde/algo-modular/engine/graph"
	"github.com/cwbudde/algo-modular/engine/registry"
	"github.com/cwbudde/algo-modular/engine/transport"
	"github.com/cwbudde/algo-modular/internal/testutil"
	"github.com/cwbudde/algo-modular/modules"
)

func TestDefaultPatchPlays(t *testing.T) {
	t.Parallel()

	r := registry.New()
	modules.MustRegister(r)

	p := graph.New(
		graph.WithRegistry(r),
		graph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		graph.WithHardwareChannels(2, 2),
	)
	defer p.Close()

	if err := defaultPatch(p); err != nil {
		t.Fatalf("defaultPatch: %v", err)
	}

	if got := len(p.ConnectionsInfo()); got != 7 {
		t.Fatalf("connections = %d, want 7", got)
	}

	st := transport.Default()
	st.Playing = true

	out := testutil.Buffers(2, 4800)
	p.ProcessBlock(st, nil, out, nil, nil)

	testutil.RequireFinite(t, out[0])

	if testutil.Peak(out[0]) == 0 {
		t.Fatal("default patch is silent while playing")
	}
}
