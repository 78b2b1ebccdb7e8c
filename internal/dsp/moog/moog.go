// Package moog implements a nonlinear four-stage Moog ladder low-pass
// filter using Huovilainen's tuning and resonance compensation.
//
// Construction and the Set methods validate their arguments. Tune is the
// per-sample entry point for modulated cutoff: it clamps instead of
// failing and does not allocate.
package moog

import (
	"fmt"
	"math"
)

const (
	// MaxResonance is the feedback amount at which the ladder self-oscillates.
	MaxResonance = 4.0

	defaultCutoffHz = 1000.0
	minCutoffHz     = 1.0
	maxCutoffRatio  = 0.45 // of the sample rate

	minDrive       = 0.1
	maxDrive       = 24.0
	thermalVoltage = 5.0
	stateLimit     = 32.0
)

// Option configures New.
type Option func(*Filter) error

// WithCutoffHz sets the initial cutoff.
func WithCutoffHz(hz float64) Option {
	return func(f *Filter) error { return f.SetCutoffHz(hz) }
}

// WithResonance sets the initial feedback in [0, MaxResonance].
func WithResonance(r float64) Option {
	return func(f *Filter) error { return f.SetResonance(r) }
}

// WithDrive sets the input drive in [0.1, 24].
func WithDrive(drive float64) Option {
	return func(f *Filter) error { return f.SetDrive(drive) }
}

// Filter is one channel of ladder state.
type Filter struct {
	sampleRate float64
	cutoffHz   float64
	resonance  float64
	drive      float64

	coefficient float64
	feedback    float64
	driveScale  float64
	outputScale float64

	stage      [4]float64
	tanhStage  [3]float64
	prevOutput float64
}

// New returns a filter at 1 kHz with no resonance.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("moog: sample rate must be > 0 and finite: %v", sampleRate)
	}

	f := &Filter{sampleRate: sampleRate, cutoffHz: defaultCutoffHz, drive: 1}
	f.rebuild()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// CutoffHz returns the cutoff in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Resonance returns the feedback amount.
func (f *Filter) Resonance() float64 { return f.resonance }

// SetCutoffHz sets the cutoff. It must lie in [1 Hz, 0.45·sampleRate].
func (f *Filter) SetCutoffHz(hz float64) error {
	if err := checkRange(hz, minCutoffHz, maxCutoffRatio*f.sampleRate, "cutoff"); err != nil {
		return err
	}

	f.cutoffHz = hz
	f.rebuild()

	return nil
}

// SetResonance sets the feedback amount in [0, MaxResonance].
func (f *Filter) SetResonance(r float64) error {
	if err := checkRange(r, 0, MaxResonance, "resonance"); err != nil {
		return err
	}

	f.resonance = r
	f.rebuild()

	return nil
}

// SetDrive sets the input drive in [0.1, 24].
func (f *Filter) SetDrive(drive float64) error {
	if err := checkRange(drive, minDrive, maxDrive, "drive"); err != nil {
		return err
	}

	f.drive = drive
	f.driveScale = 0.5 * drive / thermalVoltage

	return nil
}

// Tune sets cutoff and resonance, clamping both into range. Non-finite
// values keep the current setting.
func (f *Filter) Tune(cutoffHz, resonance float64) {
	if isFinite(cutoffHz) {
		f.cutoffHz = min(max(cutoffHz, minCutoffHz), maxCutoffRatio*f.sampleRate)
	}

	if isFinite(resonance) {
		f.resonance = min(max(resonance, 0), MaxResonance)
	}

	f.rebuild()
}

// Reset clears the ladder state.
func (f *Filter) Reset() {
	f.stage = [4]float64{}
	f.tanhStage = [3]float64{}
	f.prevOutput = 0
}

// ProcessSample filters one sample. Non-finite input is treated as silence.
func (f *Filter) ProcessSample(x float64) float64 {
	if !isFinite(x) {
		x = 0
	}

	s := &f.stage
	k := f.driveScale
	g := f.coefficient

	fb := 0.5 * (s[3] + f.prevOutput)
	in := math.Tanh(k * (x - f.feedback*fb))

	t0 := math.Tanh(k * s[0])
	t1 := math.Tanh(k * s[1])
	t2 := math.Tanh(k * s[2])
	t3 := math.Tanh(k * s[3])

	s[0] = clipState(s[0] + g*(in-t0))
	f.tanhStage[0] = math.Tanh(k * s[0])

	s[1] = clipState(s[1] + g*(f.tanhStage[0]-t1))
	f.tanhStage[1] = math.Tanh(k * s[1])

	s[2] = clipState(s[2] + g*(f.tanhStage[1]-t2))
	f.tanhStage[2] = math.Tanh(k * s[2])

	s[3] = clipState(s[3] + g*(f.tanhStage[2]-t3))
	f.prevOutput = s[3]

	out := f.outputScale * s[3]
	if !isFinite(out) {
		return 0
	}

	return out
}

// ProcessTo filters src into dst, which must be at least as long.
func (f *Filter) ProcessTo(dst, src []float64) {
	if len(src) == 0 {
		return
	}

	_ = dst[len(src)-1]

	for i, x := range src {
		dst[i] = f.ProcessSample(x)
	}
}

func (f *Filter) rebuild() {
	fc := f.cutoffHz / f.sampleRate

	tuning := max(1.8730*fc*fc*fc+0.4955*fc*fc-0.6490*fc+0.9988, 0)
	f.coefficient = 2 * thermalVoltage * (1 - math.Exp(-2*math.Pi*tuning*fc))

	comp := max(-3.9364*fc*fc+1.8409*fc+0.9968, 0)
	f.feedback = f.resonance * comp

	f.driveScale = 0.5 * f.drive / thermalVoltage

	// Feedback thins the passband; boost it back toward unity.
	gain := math.Pow(10, f.resonance/20)
	f.outputScale = gain * gain / (1 + 0.5*f.resonance)
}

func checkRange(v, lo, hi float64, name string) error {
	if !isFinite(v) {
		return fmt.Errorf("moog: %s must be finite: %v", name, v)
	}

	if v < lo || v > hi {
		return fmt.Errorf("moog: %s must be in [%g, %g]: %v", name, lo, hi, v)
	}

	return nil
}

func clipState(v float64) float64 {
	return min(max(v, -stateLimit), stateLimit)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
