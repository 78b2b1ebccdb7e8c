// Package delay provides a circular delay line with fractional reads.
package delay

import (
	"fmt"
	"math"
)

// guard is the number of extra samples a line keeps so that a cubic read
// at the longest requested delay still has its neighbours.
const guard = 3

// Line is a circular delay line. It is not safe for concurrent use.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line holding size samples.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay: size must be > 0: %d", size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// ForDuration returns a line that supports fractional reads of up to
// seconds at sampleRate.
func ForDuration(seconds, sampleRate float64) (*Line, error) {
	if !(seconds > 0) || !(sampleRate > 0) || math.IsInf(seconds*sampleRate, 0) {
		return nil, fmt.Errorf("delay: invalid duration %v s at %v Hz", seconds, sampleRate)
	}

	return New(int(math.Ceil(seconds*sampleRate)) + guard)
}

// Len returns the buffer size in samples.
func (d *Line) Len() int { return len(d.buffer) }

// MaxDelay is the longest delay ReadFractional honours.
func (d *Line) MaxDelay() float64 { return float64(max(len(d.buffer)-guard, 0)) }

// Write appends one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos == len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples ago; Read(1) is the most
// recent one.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	delay %= size

	if delay < 0 {
		delay += size
	}

	pos := d.writePos - delay
	if pos < 0 {
		pos += size
	}

	return d.buffer[pos]
}

// ReadFractional reads between samples with cubic Hermite interpolation.
// delay is clamped to [1, MaxDelay]; at one sample the newer neighbour does
// not exist yet and the nearest sample stands in for it.
func (d *Line) ReadFractional(delay float64) float64 {
	delay = min(max(delay, 1), d.MaxDelay())

	p := int(delay)
	t := delay - float64(p)
	x0 := d.Read(p)

	xm1 := x0
	if p > 1 {
		xm1 = d.Read(p - 1)
	}

	return hermite4(t, xm1, x0, d.Read(p+1), d.Read(p+2))
}

// Reset clears the line.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}

// hermite4 interpolates between x0 and x1 at t in [0, 1).
func hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + x0
}
