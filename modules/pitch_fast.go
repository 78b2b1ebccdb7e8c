//go:build fastmath

package modules

import (
	"github.com/meko-christian/algo-approx"
)

const ln2 = 0.693147180559945309417232121458

// voltsToRatio converts a V/oct offset to a frequency ratio using the fast
// exponential approximation.
func voltsToRatio(volts float64) float64 {
	return approx.FastExp(volts * ln2)
}
