package delay

import (
	"math"
	"testing"
)

func TestNewRejectsBadSizes(t *testing.T) {
	t.Parallel()

	if _, err := New(0); err == nil {
		t.Fatal("New(0) should fail")
	}

	for _, tc := range []struct{ seconds, rate float64 }{{0, 48000}, {1, 0}, {math.NaN(), 48000}, {-1, 48000}} {
		if _, err := ForDuration(tc.seconds, tc.rate); err == nil {
			t.Fatalf("ForDuration(%v, %v) should fail", tc.seconds, tc.rate)
		}
	}
}

func TestReadIntegerDelay(t *testing.T) {
	t.Parallel()

	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := range 20 {
		d.Write(float64(i))
	}

	for delay := 1; delay <= 8; delay++ {
		if got, want := d.Read(delay), float64(20-delay); got != want {
			t.Fatalf("Read(%d) = %v, want %v", delay, got, want)
		}
	}
}

func TestReadFractional(t *testing.T) {
	t.Parallel()

	d, err := ForDuration(0.01, 1000)
	if err != nil {
		t.Fatal(err)
	}

	if d.Len() != 13 || d.MaxDelay() != 10 {
		t.Fatalf("Len = %d, MaxDelay = %v", d.Len(), d.MaxDelay())
	}

	// A ramp is reproduced exactly by cubic Hermite interpolation.
	for i := range 13 {
		d.Write(float64(i))
	}

	tests := []struct {
		delay float64
		want  float64
	}{
		{delay: 1, want: 12},
		{delay: 2.5, want: 10.5},
		{delay: 4.25, want: 8.75},
		{delay: 50, want: 3},
		{delay: -3, want: 12},
	}

	for _, tt := range tests {
		if got := d.ReadFractional(tt.delay); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("ReadFractional(%v) = %v, want %v", tt.delay, got, tt.want)
		}
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	d, _ := New(4)
	d.Write(1)
	d.Write(2)
	d.Reset()

	for delay := range 4 {
		if d.Read(delay) != 0 {
			t.Fatalf("Read(%d) after Reset = %v", delay, d.Read(delay))
		}
	}
}
