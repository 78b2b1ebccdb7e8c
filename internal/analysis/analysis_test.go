package analysis

import (
	"errors"
	"math"
	"testing"
)

func sine(freq, sampleRate, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}

	return out
}

func TestHann(t *testing.T) {
	t.Parallel()

	sym := Hann(5, false)
	if sym[0] != 0 || sym[4] > 1e-15 || math.Abs(sym[2]-1) > 1e-15 {
		t.Fatalf("symmetric Hann = %v", sym)
	}

	per := Hann(4, true)
	if per[0] != 0 || math.Abs(per[2]-1) > 1e-15 {
		t.Fatalf("periodic Hann = %v", per)
	}

	if g := CoherentGain(Hann(1024, true)); math.Abs(g-0.5) > 1e-12 {
		t.Fatalf("CoherentGain = %v, want 0.5", g)
	}

	if Hann(0, true) != nil {
		t.Fatal("zero size should return nil")
	}
}

func TestAnalyzerPeak(t *testing.T) {
	t.Parallel()

	const (
		size = 1024
		sr   = 48000.0
		bin  = 64
	)

	a, err := NewAnalyzer(size)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	freq := a.BinFrequency(bin, sr)
	dst := make([]float64, a.Bins())

	if err := a.PowerDB(dst, sine(freq, sr, 1, size)); err != nil {
		t.Fatalf("PowerDB: %v", err)
	}

	if math.Abs(dst[bin]) > 0.1 {
		t.Fatalf("full-scale bin level = %.3f dB, want 0", dst[bin])
	}

	if dst[bin+10] > -60 {
		t.Fatalf("distant bin level = %.3f dB, want < -60", dst[bin+10])
	}

	for k, v := range dst {
		if v < FloorDB || math.IsNaN(v) {
			t.Fatalf("bin %d = %v below floor", k, v)
		}
	}
}

func TestAnalyzerRejectsBadSizes(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 8, 100, 1000} {
		if _, err := NewAnalyzer(n); !errors.Is(err, ErrFrameSize) {
			t.Fatalf("NewAnalyzer(%d) err = %v, want ErrFrameSize", n, err)
		}
	}

	a, _ := NewAnalyzer(16)
	if err := a.PowerDB(make([]float64, 4), make([]float64, 16)); err == nil {
		t.Fatal("short dst should fail")
	}
}

func TestGoertzelAmplitude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		signal float64
		target float64
		want   float64
	}{
		{name: "on target", signal: 1000, target: 1000, want: 0.5},
		{name: "off target", signal: 3000, target: 1000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g, err := NewGoertzel(tt.target, 48000)
			if err != nil {
				t.Fatal(err)
			}

			g.Process(sine(tt.signal, 48000, 0.5, 4800))

			if got := g.Amplitude(); math.Abs(got-tt.want) > 0.01 {
				t.Fatalf("Amplitude() = %v, want %v", got, tt.want)
			}

			g.Reset()

			if g.Amplitude() != 0 {
				t.Fatal("Reset should clear state")
			}
		})
	}

	if _, err := NewGoertzel(30000, 48000); err == nil {
		t.Fatal("frequency above Nyquist should fail")
	}
}
