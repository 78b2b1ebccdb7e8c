package modules

import (
	"math"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
)

// Waveforms offered by VCO and LFO.
var waveforms = []string{"sine", "saw", "square", "triangle"}

const (
	waveSine = iota
	waveSaw
	waveSquare
	waveTriangle
)

// VCO is an oscillator whose frequency follows a V/oct pitch input.
type VCO struct {
	module.Base

	phase float64
}

// NewVCO returns a VCO at 440 Hz.
func NewVCO() *VCO {
	m := &VCO{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("Pitch").MonoOut("Out").Build(),
			param.NewSet(
				param.Float("frequency", "Frequency", 20, 20000, 440).WithUnit("Hz"),
				param.Choice("waveform", "Waveform", waveforms, waveSine),
				param.Float("level", "Level", 0, 1, 0.8),
			),
		),
	}
	m.Route("frequency", "Pitch", 0)

	return m
}

// Prepare implements module.Module.
func (m *VCO) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.phase = 0

	return nil
}

// Process implements module.Module.
func (m *VCO) Process(blk *module.Block) {
	out := blk.Out[0]
	pitch := m.Modulation(blk, "frequency")
	base := m.Param("frequency").Value()
	wave := m.Param("waveform").Int()
	level := m.Param("level").Value()
	nyquist := m.SampleRate() / 2
	inc := base / m.SampleRate()

	for i := range out {
		if pitch != nil {
			f := min(base*voltsToRatio(pitch[i]), nyquist)
			inc = f / m.SampleRate()

			if i == len(out)-1 {
				m.Publish("frequency", f)
			}
		}

		out[i] = level * shape(wave, m.phase)

		m.phase += inc
		m.phase -= math.Floor(m.phase)
	}
}

// shape evaluates waveform wave at phase in [0, 1).
func shape(wave int, phase float64) float64 {
	switch wave {
	case waveSaw:
		return 2*phase - 1
	case waveSquare:
		if phase < 0.5 {
			return 1
		}

		return -1
	case waveTriangle:
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
