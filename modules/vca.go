package modules

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
)

// VCA scales its input by the gain parameter, or by the CV input when one
// is connected.
type VCA struct {
	module.Base
}

// NewVCA returns a VCA at unity gain.
func NewVCA() *VCA {
	m := &VCA{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("In").MonoIn("CV").MonoOut("Out").Build(),
			param.NewSet(param.Float("gain", "Gain", 0, 1, 1)),
		),
	}
	m.Route("gain", "CV", 0)

	return m
}

// Process implements module.Module.
func (m *VCA) Process(blk *module.Block) {
	in, out := blk.In[0], blk.Out[0]

	cv := m.Modulation(blk, "gain")
	if cv == nil {
		vecmath.ScaleBlock(out, in, m.Param("gain").Value())
		return
	}

	vecmath.MulBlock(out, in, cv)

	if n := len(cv); n > 0 {
		m.Publish("gain", cv[n-1])
	}
}
