package modules

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-modular/internal/dsp/delay"
)

const (
	echoMaxDelay = 2.0
	echoName     = "echo"
)

var echoMagic = [4]byte{'E', 'C', 'H', 'O'}

var errEchoState = errors.New("echo: malformed state")

// Echo is a mono feedback delay that implements module.Hosted. It stands
// in for a third-party processor: its settings live only in its binary
// state.
type Echo struct {
	delay    atomic.Uint64
	feedback atomic.Uint64
	mix      atomic.Uint64

	// audio-thread owned
	line *delay.Line
	sr   float64
}

// NewEcho returns a 250 ms echo.
func NewEcho() *Echo {
	e := &Echo{}
	e.Set(0.25, 0.4, 0.3)

	return e
}

// Set changes the delay time in seconds, the feedback and the wet mix.
// Values are clamped to their valid ranges.
func (e *Echo) Set(delay, feedback, mix float64) {
	e.delay.Store(math.Float64bits(min(max(delay, 0.001), echoMaxDelay)))
	e.feedback.Store(math.Float64bits(min(max(feedback, 0), 0.95)))
	e.mix.Store(math.Float64bits(min(max(mix, 0), 1)))
}

// Settings returns the values last passed to Set or SetState.
func (e *Echo) Settings() (delay, feedback, mix float64) {
	return math.Float64frombits(e.delay.Load()),
		math.Float64frombits(e.feedback.Load()),
		math.Float64frombits(e.mix.Load())
}

// Name implements module.Hosted.
func (e *Echo) Name() string { return echoName }

// Channels implements module.Hosted.
func (e *Echo) Channels() (in, out int) { return 1, 1 }

// Prepare implements module.Hosted.
func (e *Echo) Prepare(sampleRate float64, _ int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("echo: sample rate must be > 0: %v", sampleRate)
	}

	line, err := delay.ForDuration(echoMaxDelay, sampleRate)
	if err != nil {
		return fmt.Errorf("echo: %w", err)
	}

	e.sr = sampleRate
	e.line = line

	return nil
}

// Process implements module.Hosted.
func (e *Echo) Process(in, out [][]float64, frames int) {
	seconds, feedback, mix := e.Settings()
	d := seconds * e.sr

	src, dst := in[0], out[0]

	for i := range frames {
		wet := e.line.ReadFractional(d)
		e.line.Write(src[i] + feedback*wet)
		dst[i] = (1-mix)*src[i] + mix*wet
	}
}

// State implements module.Hosted.
func (e *Echo) State() ([]byte, error) {
	var buf bytes.Buffer

	delay, feedback, mix := e.Settings()
	buf.Write(echoMagic[:])

	if err := binary.Write(&buf, binary.LittleEndian, [3]float64{delay, feedback, mix}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// SetState implements module.Hosted.
func (e *Echo) SetState(data []byte) error {
	if len(data) != len(echoMagic)+3*8 || !bytes.Equal(data[:4], echoMagic[:]) {
		return errEchoState
	}

	var v [3]float64
	if err := binary.Read(bytes.NewReader(data[4:]), binary.LittleEndian, &v); err != nil {
		return fmt.Errorf("%w: %w", errEchoState, err)
	}

	e.Set(v[0], v[1], v[2])

	return nil
}
