package graph

import (
	"log/slog"
	"time"

	"github.com/cwbudde/algo-modular/engine/caps"
	"github.com/cwbudde/algo-modular/engine/registry"
)

// Config holds processor settings.
type Config struct {
	SampleRate      float64
	BlockSize       int
	HardwareInputs  int
	HardwareOutputs int
	FaultCapacity   int
	MIDICapacity    int
	CloseTimeout    time.Duration
	Logger          *slog.Logger
	Registry        *registry.Registry
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the defaults. Hardware channel counts come from the
// capability cache.
func DefaultConfig() Config {
	dev := caps.Get().Device

	return Config{
		SampleRate:      48000,
		BlockSize:       512,
		HardwareInputs:  dev.Inputs,
		HardwareOutputs: dev.Outputs,
		FaultCapacity:   64,
		MIDICapacity:    256,
		CloseTimeout:    500 * time.Millisecond,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the largest block processed in one pass.
func WithBlockSize(blockSize int) Option {
	return func(cfg *Config) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithHardwareChannels sets the hardware input and output channel counts.
func WithHardwareChannels(inputs, outputs int) Option {
	return func(cfg *Config) {
		if inputs >= 0 {
			cfg.HardwareInputs = inputs
		}

		if outputs >= 0 {
			cfg.HardwareOutputs = outputs
		}
	}
}

// WithFaultCapacity sets how many module faults are buffered between drains.
func WithFaultCapacity(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.FaultCapacity = n
		}
	}
}

// WithMIDICapacity sets the per-block MIDI event capacity.
func WithMIDICapacity(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.MIDICapacity = n
		}
	}
}

// WithCloseTimeout bounds how long removing a module waits for its
// background workers.
func WithCloseTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.CloseTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

// WithRegistry sets the module factory table. The default is
// registry.Default.
func WithRegistry(r *registry.Registry) Option {
	return func(cfg *Config) {
		if r != nil {
			cfg.Registry = r
		}
	}
}

func applyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
