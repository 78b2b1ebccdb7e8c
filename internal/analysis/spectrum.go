package analysis

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// FloorDB is the lowest level PowerDB reports.
const FloorDB = -120.0

// ErrFrameSize is returned for frame sizes that are not a power of two
// of at least 16.
var ErrFrameSize = errors.New("analysis: frame size must be a power of two >= 16")

// Analyzer computes windowed power spectra of fixed-size frames. All
// buffers are allocated by NewAnalyzer; PowerDB does not allocate.
type Analyzer struct {
	size   int
	plan   *algofft.Plan[complex128]
	window []float64
	norm   float64

	buf   []complex128
	re    []float64
	im    []float64
	power []float64
}

// NewAnalyzer returns an analyzer for frames of size samples.
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 16 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrFrameSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("analysis: NewPlan64: %w", err)
	}

	window := Hann(size, true)
	amp := CoherentGain(window) * float64(size) / 2
	bins := size/2 + 1

	return &Analyzer{
		size:   size,
		plan:   plan,
		window: window,
		norm:   amp * amp,
		buf:    make([]complex128, size),
		re:     make([]float64, bins),
		im:     make([]float64, bins),
		power:  make([]float64, bins),
	}, nil
}

// Size returns the frame size.
func (a *Analyzer) Size() int { return a.size }

// Bins returns the number of bins PowerDB writes.
func (a *Analyzer) Bins() int { return a.size/2 + 1 }

// BinFrequency returns the centre frequency of bin k.
func (a *Analyzer) BinFrequency(k int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(a.size)
}

// PowerDB windows frame, transforms it and writes the level of each bin in
// dB relative to a full-scale sinusoid into dst. frame must hold Size()
// samples and dst at least Bins().
func (a *Analyzer) PowerDB(dst, frame []float64) error {
	if len(frame) < a.size || len(dst) < a.Bins() {
		return fmt.Errorf("analysis: short buffers: frame %d dst %d", len(frame), len(dst))
	}

	for i, w := range a.window {
		a.buf[i] = complex(frame[i]*w, 0)
	}

	if err := a.plan.Forward(a.buf, a.buf); err != nil {
		return err
	}

	for k := range a.re {
		a.re[k] = real(a.buf[k])
		a.im[k] = imag(a.buf[k])
	}

	vecmath.Power(a.power, a.re, a.im)

	for k, p := range a.power {
		db := 10 * math.Log10(p/a.norm)
		if math.IsNaN(db) || db < FloorDB {
			db = FloorDB
		}

		dst[k] = db
	}

	return nil
}
