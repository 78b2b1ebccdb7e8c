// Package testutil holds signal generators, block builders and tolerance
// assertions shared by the engine and module tests.
package testutil

import "math"

// DeterministicSine generates a sine wave starting at phase zero.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Gate generates a 0/1 signal that is high on [on, off).
func Gate(length, on, off int) []float64 {
	out := make([]float64, length)
	for i := max(on, 0); i < min(off, length); i++ {
		out[i] = 1
	}

	return out
}

// Pulses generates a pulse train with one width-sample pulse every period
// samples, starting at sample zero.
func Pulses(length, period, width int) []float64 {
	out := make([]float64, length)
	if period <= 0 {
		return out
	}

	for i := range out {
		if i%period < width {
			out[i] = 1
		}
	}

	return out
}

// Buffers allocates channels zeroed slices of frames samples.
func Buffers(channels, frames int) [][]float64 {
	out := make([][]float64, channels)
	for i := range out {
		out[i] = make([]float64, frames)
	}

	return out
}

// RisingEdges returns the sample indices where sig crosses threshold
// upwards. A signal that starts above threshold counts as an edge at 0.
func RisingEdges(sig []float64, threshold float64) []int {
	var edges []int

	prev := false
	for i, v := range sig {
		high := v > threshold
		if high && !prev {
			edges = append(edges, i)
		}

		prev = high
	}

	return edges
}
