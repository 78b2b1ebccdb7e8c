//go:build !fastmath

package modules

import "math"

// voltsToRatio converts a V/oct offset to a frequency ratio.
func voltsToRatio(volts float64) float64 {
	return math.Exp2(volts)
}
