package moog

import (
	"math"
	"testing"
)

func run(f *Filter, freq float64, n int) (tailPeak float64) {
	for i := range n {
		x := 1.0
		if freq > 0 {
			x = math.Sin(2 * math.Pi * freq * float64(i) / f.SampleRate())
		}

		y := f.ProcessSample(x)
		if i >= n/2 {
			tailPeak = max(tailPeak, math.Abs(y))
		}
	}

	return tailPeak
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sr   float64
		opts []Option
	}{
		{name: "zero rate", sr: 0},
		{name: "nan rate", sr: math.NaN()},
		{name: "cutoff above limit", sr: 48000, opts: []Option{WithCutoffHz(30000)}},
		{name: "cutoff below limit", sr: 48000, opts: []Option{WithCutoffHz(0.5)}},
		{name: "negative resonance", sr: 48000, opts: []Option{WithResonance(-1)}},
		{name: "resonance above limit", sr: 48000, opts: []Option{WithResonance(5)}},
		{name: "drive", sr: 48000, opts: []Option{WithDrive(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.sr, tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLowPassResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		freq     float64
		min, max float64
	}{
		{name: "passes DC", freq: 0, min: 0.99, max: 1.01},
		{name: "attenuates highs", freq: 12000, min: 0, max: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := New(48000, WithCutoffHz(500))
			if err != nil {
				t.Fatal(err)
			}

			if p := run(f, tt.freq, 9600); p < tt.min || p > tt.max {
				t.Fatalf("tail peak = %v, want in [%v, %v]", p, tt.min, tt.max)
			}
		})
	}
}

func TestResonanceStaysBounded(t *testing.T) {
	t.Parallel()

	f, err := New(48000, WithCutoffHz(2000), WithResonance(MaxResonance))
	if err != nil {
		t.Fatal(err)
	}

	for i := range 48000 {
		x := 0.0
		if i == 0 {
			x = 1
		}

		if y := f.ProcessSample(x); math.IsNaN(y) || math.Abs(y) > 100 {
			t.Fatalf("sample %d = %v", i, y)
		}
	}
}

func TestTuneClamps(t *testing.T) {
	t.Parallel()

	f, err := New(1000)
	if err != nil {
		t.Fatal(err)
	}

	f.Tune(1e6, 10)

	if f.CutoffHz() != 450 || f.Resonance() != MaxResonance {
		t.Fatalf("cutoff %v resonance %v, want 450 and %v", f.CutoffHz(), f.Resonance(), MaxResonance)
	}

	f.Tune(-5, -1)

	if f.CutoffHz() != minCutoffHz || f.Resonance() != 0 {
		t.Fatalf("cutoff %v resonance %v, want %v and 0", f.CutoffHz(), f.Resonance(), minCutoffHz)
	}

	f.Tune(math.NaN(), math.Inf(1))

	if f.CutoffHz() != minCutoffHz || f.Resonance() != 0 {
		t.Fatal("non-finite Tune changed the settings")
	}
}

func TestNonFiniteInputIsSilenced(t *testing.T) {
	t.Parallel()

	f, err := New(48000)
	if err != nil {
		t.Fatal(err)
	}

	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if y := f.ProcessSample(x); y != 0 {
			t.Fatalf("ProcessSample(%v) = %v, want 0", x, y)
		}
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	f, err := New(48000, WithCutoffHz(5000))
	if err != nil {
		t.Fatal(err)
	}

	for range 100 {
		f.ProcessSample(1)
	}

	f.Reset()

	if y := f.ProcessSample(0); y != 0 {
		t.Fatalf("after Reset = %v, want 0", y)
	}
}
