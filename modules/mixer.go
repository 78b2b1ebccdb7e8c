package modules

import (
	"strconv"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
)

const mixerChannels = 4

// Mixer sums four mono inputs with individual gains.
type Mixer struct {
	module.Base

	gains   [mixerChannels]*param.Param
	scratch []float64
}

// NewMixer returns a mixer with every gain at unity.
func NewMixer() *Mixer {
	b := bus.NewBuilder()
	params := make([]*param.Param, 0, mixerChannels)

	for i := 1; i <= mixerChannels; i++ {
		n := strconv.Itoa(i)
		b.MonoIn("In " + n)
		params = append(params, param.Float("gain"+n, "Gain "+n, 0, 2, 1))
	}

	m := &Mixer{Base: module.NewBase(b.MonoOut("Out").Build(), param.NewSet(params...))}
	copy(m.gains[:], params)

	return m
}

// Prepare implements module.Module.
func (m *Mixer) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.scratch = make([]float64, maxBlockSize)

	return nil
}

// Process implements module.Module.
func (m *Mixer) Process(blk *module.Block) {
	out := blk.Out[0]
	clear(out)

	tmp := m.scratch[:len(out)]

	for ch, g := range m.gains {
		if !blk.IsConnected(ch) {
			continue
		}

		vecmath.ScaleBlock(tmp, blk.In[ch], g.Value())
		vecmath.AddBlockInPlace(out, tmp)
	}
}
