package modules

import (
	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/internal/dsp/moog"
)

// VCF is a resonant four-pole Moog ladder low-pass. The cutoff CV is a
// V/oct offset; resonance 1 self-oscillates.
type VCF struct {
	module.Base

	ladder *moog.Filter
}

// NewVCF returns a filter at 1 kHz.
func NewVCF() *VCF {
	m := &VCF{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("In").MonoIn("Cutoff CV").MonoOut("Out").Build(),
			param.NewSet(
				param.Float("cutoff", "Cutoff", 20, 20000, 1000).WithUnit("Hz"),
				param.Float("resonance", "Resonance", 0, 1, 0.2),
			),
		),
	}
	m.Route("cutoff", "Cutoff CV", 0)

	return m
}

// Prepare implements module.Module.
func (m *VCF) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	ladder, err := moog.New(sampleRate)
	if err != nil {
		return err
	}

	m.ladder = ladder

	return nil
}

// Process implements module.Module.
func (m *VCF) Process(blk *module.Block) {
	in, out := blk.In[0], blk.Out[0]
	cv := m.Modulation(blk, "cutoff")
	cutoff := m.Param("cutoff").Value()
	res := m.Param("resonance").Value() * moog.MaxResonance

	if cv == nil {
		m.ladder.Tune(cutoff, res)
		m.ladder.ProcessTo(out, in)

		return
	}

	for i, x := range in {
		fc := cutoff * voltsToRatio(cv[i])
		m.ladder.Tune(fc, res)

		if i == len(in)-1 {
			m.Publish("cutoff", fc)
		}

		out[i] = m.ladder.ProcessSample(x)
	}
}
