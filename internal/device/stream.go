package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	pa "github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-modular/engine/caps"
)

// ErrNoDevice is returned when the driver reports no default output.
var ErrNoDevice = errors.New("device: no default output device")

// Initialize starts the PortAudio driver. Every successful call must be
// paired with Terminate.
func Initialize() error {
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("device: initialize: %w", err)
	}

	return nil
}

// Terminate shuts the driver down.
func Terminate() error {
	return pa.Terminate()
}

// Query describes the default devices in the form the capability cache
// expects. Input channels come from the default input device, if any.
func Query() (caps.Device, error) {
	out, err := pa.DefaultOutputDevice()
	if err != nil || out == nil {
		return caps.Device{}, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	dev := caps.Device{
		Name:              out.Name,
		Outputs:           out.MaxOutputChannels,
		DefaultSampleRate: out.DefaultSampleRate,
	}

	if in, err := pa.DefaultInputDevice(); err == nil && in != nil {
		dev.Inputs = in.MaxInputChannels
	}

	return dev, nil
}

// Stream is an open PortAudio stream rendering through a Renderer.
type Stream struct {
	r      *Renderer
	stream *pa.Stream
	logger *slog.Logger
}

// Open opens the default duplex stream (output only when inputs is 0).
func Open(r *Renderer, inputs, outputs int, logger *slog.Logger) (*Stream, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stream, err := pa.OpenDefaultStream(inputs, outputs, r.sampleRate, r.maxFrames, r.Render)
	if err != nil {
		return nil, fmt.Errorf("device: open stream: %w", err)
	}

	return &Stream{r: r, stream: stream, logger: logger.With("component", "device")}, nil
}

// Run starts the stream, blocks until ctx is done, then stops and closes
// it. It returns nil on a clean shutdown.
func (s *Stream) Run(ctx context.Context) error {
	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		return fmt.Errorf("device: start: %w", err)
	}

	info := s.stream.Info()
	s.logger.Info("stream started",
		"sample_rate", info.SampleRate,
		"output_latency", info.OutputLatency,
		"input_latency", info.InputLatency)

	<-ctx.Done()

	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()

	s.logger.Info("stream stopped",
		"blocks", s.r.Blocks(), "clipped", s.r.Clipped(), "midi_out", s.r.MIDISent())

	return errors.Join(stopErr, closeErr)
}
