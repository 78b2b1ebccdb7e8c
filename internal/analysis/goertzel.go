package analysis

import (
	"fmt"
	"math"
)

// Goertzel evaluates a single DFT bin incrementally.
type Goertzel struct {
	coeff  float64
	s1, s2 float64
	n      int
}

// NewGoertzel returns a detector for frequency at sampleRate. frequency
// must lie in [0, sampleRate/2].
func NewGoertzel(frequency, sampleRate float64) (*Goertzel, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}

	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	return &Goertzel{coeff: 2 * math.Cos(2*math.Pi*frequency/sampleRate)}, nil
}

// Process feeds samples to the detector.
func (g *Goertzel) Process(samples []float64) {
	for _, x := range samples {
		s0 := x + g.coeff*g.s1 - g.s2
		g.s2, g.s1 = g.s1, s0
	}

	g.n += len(samples)
}

// Amplitude returns the estimated amplitude of the target sinusoid over
// every sample processed since the last Reset.
func (g *Goertzel) Amplitude() float64 {
	if g.n == 0 {
		return 0
	}

	p := g.s1*g.s1 + g.s2*g.s2 - g.coeff*g.s1*g.s2

	return 2 * math.Sqrt(max(p, 0)) / float64(g.n)
}

// Reset clears the accumulated state.
func (g *Goertzel) Reset() {
	g.s1, g.s2, g.n = 0, 0, 0
}
