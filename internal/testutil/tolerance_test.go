package testutil

import "testing"

func TestRequireHelpersPass(t *testing.T) {
	t.Parallel()

	RequireSliceNearlyEqual(t, []float64{1, 2}, []float64{1.0005, 2}, 1e-3)
	RequireFinite(t, []float64{0, -1, 1e300})
	RequireSilent(t, make([]float64, 4))

	if Peak([]float64{0.5, -2, 1}) != 2 {
		t.Fatal("Peak should use absolute values")
	}
}
