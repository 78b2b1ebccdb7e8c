package analysis

import "math"

// Hann returns size Hann coefficients. The periodic form is the one to use
// for FFT framing; the symmetric form is for filter design.
func Hann(size int, periodic bool) []float64 {
	if size <= 0 {
		return nil
	}

	if size == 1 {
		return []float64{1}
	}

	denom := float64(size - 1)
	if periodic {
		denom = float64(size)
	}

	out := make([]float64, size)
	for i := range out {
		out[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/denom)
	}

	return out
}

// CoherentGain returns the mean of coeffs, the amplitude scale a window
// applies to a bin-centred sinusoid.
func CoherentGain(coeffs []float64) float64 {
	if len(coeffs) == 0 {
		return 0
	}

	var sum float64
	for _, c := range coeffs {
		sum += c
	}

	return sum / float64(len(coeffs))
}
