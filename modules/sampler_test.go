package modules

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-modular/internal/testutil"
)

func writeRamp(t *testing.T, n int) string {
	t.Helper()

	ramp := make([]float64, n)
	for i := range ramp {
		ramp[i] = float64(i) / float64(n)
	}

	path := filepath.Join(t.TempDir(), "ramp.wav")
	if err := WriteWAV(path, 1000, ramp); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	return path
}

func TestWAVRoundTrip(t *testing.T) {
	t.Parallel()

	path := writeRamp(t, 100)

	s, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}

	if s.SampleRate != 1000 || s.Channels != 1 || len(s.Data) != 100 {
		t.Fatalf("decoded %v Hz, %d ch, %d frames", s.SampleRate, s.Channels, len(s.Data))
	}

	if math.Abs(s.Duration()-0.1) > 1e-12 {
		t.Fatalf("Duration() = %v", s.Duration())
	}

	for i, v := range s.Data {
		if math.Abs(v-float64(i)/100) > 1e-3 {
			t.Fatalf("sample %d = %v", i, v)
		}
	}

	bogus := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(bogus, []byte("not a wav file at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadWAV(bogus); err == nil {
		t.Fatal("invalid file should fail to load")
	}
}

func TestSamplerPlayback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		loop bool
		at   int
		want float64
	}{
		{name: "plays ramp", at: 50, want: 0.5},
		{name: "stops at end", at: 120, want: 0},
		{name: "loops", loop: true, at: 105, want: 0.05},
	}

	path := writeRamp(t, 100)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewSampler()
			if tt.loop {
				m.Param("loop").Set(1)
			}

			if err := m.Load(path); err != nil {
				t.Fatalf("Load: %v", err)
			}

			prepare(t, m, 1000, 150)

			blk := testutil.ModuleBlock(m, 150, 0)
			copy(blk.In[0], testutil.Gate(150, 0, 5))
			m.Process(blk)

			if got := blk.Out[0][tt.at]; math.Abs(got-tt.want) > 1e-3 {
				t.Fatalf("out[%d] = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestSamplerLoopsShortSampleAtHighSpeed(t *testing.T) {
	t.Parallel()

	m := NewSampler()
	m.Param("loop").Set(1)
	m.Param("speed").Set(3)

	if err := m.Load(writeRamp(t, 2)); err != nil {
		t.Fatal(err)
	}

	prepare(t, m, 1000, 16)

	blk := testutil.ModuleBlock(m, 16, 0)
	copy(blk.In[0], testutil.DC(1, 16))
	m.Process(blk)

	testutil.RequireFinite(t, blk.Out[0])

	for i, got := range blk.Out[0] {
		want := 0.0
		if i%2 == 1 {
			want = 0.5
		}

		if math.Abs(got-want) > 1e-3 {
			t.Fatalf("out[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestSamplerWaitsForTrigger(t *testing.T) {
	t.Parallel()

	m := NewSampler()
	if err := m.Load(writeRamp(t, 10)); err != nil {
		t.Fatal(err)
	}

	prepare(t, m, 1000, 32)

	blk := testutil.ModuleBlock(m, 32)
	m.Process(blk)

	testutil.RequireSilent(t, blk.Out[0])
}

func TestSamplerState(t *testing.T) {
	t.Parallel()

	if NewSampler().ExtraState() != nil {
		t.Fatal("empty sampler should have no auxiliary state")
	}

	src := NewSampler()
	path := writeRamp(t, 10)
	_ = src.Load(path)

	dst := NewSampler()
	if err := dst.SetExtraState(src.ExtraState()); err != nil {
		t.Fatalf("SetExtraState: %v", err)
	}

	if dst.Path() != path || dst.Sample() == nil {
		t.Fatalf("restored path %q, sample %v", dst.Path(), dst.Sample())
	}

	missing := filepath.Join(t.TempDir(), "missing.wav")
	if err := dst.Load(missing); err == nil {
		t.Fatal("missing file should fail")
	}

	if dst.Path() != missing || dst.Sample() == nil {
		t.Fatal("failed load must remember the path and keep the previous sample")
	}
}
