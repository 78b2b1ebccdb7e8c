package device

import (
	"io"
	"log/slog"
	"math"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-modular/engine/graph"
	"github.com/cwbudde/algo-modular/engine/registry"
	"github.com/cwbudde/algo-modular/engine/transport"
	"github.com/cwbudde/algo-modular/modules"
)

func newRenderer(t *testing.T, patch func(p *graph.Processor) error) (*Renderer, *transport.Controller) {
	t.Helper()

	r := registry.New()
	modules.MustRegister(r)

	p := graph.New(
		graph.WithRegistry(r),
		graph.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		graph.WithSampleRate(48000),
		graph.WithBlockSize(256),
		graph.WithHardwareChannels(2, 2),
	)
	t.Cleanup(func() { _ = p.Close() })

	if err := patch(p); err != nil {
		t.Fatalf("patch: %v", err)
	}

	ctl := transport.NewController()

	return NewRenderer(p, ctl, 2, 2, 256), ctl
}

func float32Buffers(channels, frames int, v float32) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
		for i := range out[ch] {
			out[ch][i] = v
		}
	}

	return out
}

func TestRenderSplitsAndAdvances(t *testing.T) {
	t.Parallel()

	r, ctl := newRenderer(t, func(p *graph.Processor) error {
		id, err := p.AddModule(modules.TypeVCO)
		if err != nil {
			return err
		}

		return p.Connect(id, 0, graph.OutputID, 1)
	})

	ctl.Play()

	out := float32Buffers(2, 960, 0.5)
	r.Render(nil, out)

	if r.Blocks() != 1 {
		t.Fatalf("Blocks() = %d, want 1", r.Blocks())
	}

	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("unpatched channel sample %d = %v", i, v)
		}
	}

	var peak float32
	for _, v := range out[1] {
		peak = max(peak, v)
	}

	if peak < 0.7 || peak > 0.81 {
		t.Fatalf("oscillator peak = %v, want about 0.8", peak)
	}

	st := ctl.Begin()
	if math.Abs(st.PositionSeconds-0.02) > 1e-12 || math.Abs(st.PositionBeats-0.04) > 1e-12 {
		t.Fatalf("transport at %v s / %v beats, want 0.02 / 0.04", st.PositionSeconds, st.PositionBeats)
	}
}

func TestRenderInputsAndClipping(t *testing.T) {
	t.Parallel()

	r, _ := newRenderer(t, func(p *graph.Processor) error {
		id, err := p.AddModule(modules.TypeAudioIn)
		if err != nil {
			return err
		}

		p.Module(id).Params().Get("gain").Set(2)

		return p.Connect(id, 0, graph.OutputID, 0)
	})

	out := float32Buffers(2, 64, 0)
	r.Render(float32Buffers(2, 64, 1), out)

	for i, v := range out[0] {
		if v != 1 {
			t.Fatalf("sample %d = %v, want clamped 1", i, v)
		}
	}

	if r.Clipped() != 64 {
		t.Fatalf("Clipped() = %d, want 64", r.Clipped())
	}
}

func TestRenderMIDI(t *testing.T) {
	t.Parallel()

	r, ctl := newRenderer(t, func(p *graph.Processor) error {
		cv, err := p.AddModule(modules.TypeMIDICV)
		if err != nil {
			return err
		}

		if _, err := p.AddModule(modules.TypeClock); err != nil {
			return err
		}

		return p.Connect(cv, 1, graph.OutputID, 0)
	})

	var statuses []byte
	r.OnMIDI(func(msg gomidi.Message) { statuses = append(statuses, msg[0]) })

	if !r.SendMIDI(gomidi.NoteOn(0, 60, 100)) {
		t.Fatal("SendMIDI rejected a note")
	}

	if r.SendMIDI(gomidi.Message{0xf0, 1, 2, 3, 0xf7}) {
		t.Fatal("long messages must be rejected")
	}

	ctl.Play()

	out := float32Buffers(2, 128, 0)
	r.Render(nil, out)

	if out[0][0] != 1 || out[0][127] != 1 {
		t.Fatal("queued note should open the gate from the first sample")
	}

	if len(statuses) == 0 || statuses[0] != 0xFA {
		t.Fatalf("clock output = %x, want start first", statuses)
	}

	if r.MIDISent() != uint64(len(statuses)) {
		t.Fatalf("MIDISent() = %d, want %d", r.MIDISent(), len(statuses))
	}
}
