package modules

import (
	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
)

type envStage int

const (
	stageIdle envStage = iota
	stageAttack
	stageDecay
	stageSustain
	stageRelease
)

// ADSR is a linear envelope generator driven by a gate input. A gate is
// high above 0.5.
type ADSR struct {
	module.Base

	stage envStage
	level float64
	gate  bool
}

// NewADSR returns an envelope with short attack and medium release.
func NewADSR() *ADSR {
	return &ADSR{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("Gate").MonoOut("Env").Build(),
			param.NewSet(
				param.Float("attack", "Attack", 0.001, 10, 0.01).WithUnit("s"),
				param.Float("decay", "Decay", 0.001, 10, 0.1).WithUnit("s"),
				param.Float("sustain", "Sustain", 0, 1, 0.7),
				param.Float("release", "Release", 0.001, 10, 0.3).WithUnit("s"),
			),
		),
	}
}

// Prepare implements module.Module.
func (m *ADSR) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.stage, m.level, m.gate = stageIdle, 0, false

	return nil
}

// Process implements module.Module.
func (m *ADSR) Process(blk *module.Block) {
	gate, out := blk.In[0], blk.Out[0]
	sr := m.SampleRate()
	attack := 1 / (m.Param("attack").Value() * sr)
	decay := 1 / (m.Param("decay").Value() * sr)
	sustain := m.Param("sustain").Value()
	release := 1 / (m.Param("release").Value() * sr)

	for i := range out {
		high := gate[i] > 0.5
		if high && !m.gate {
			m.stage = stageAttack
		} else if !high && m.gate {
			m.stage = stageRelease
		}

		m.gate = high

		switch m.stage {
		case stageAttack:
			m.level += attack
			if m.level >= 1 {
				m.level = 1
				m.stage = stageDecay
			}
		case stageDecay:
			m.level -= decay
			if m.level <= sustain {
				m.level = sustain
				m.stage = stageSustain
			}
		case stageSustain:
			m.level = sustain
		case stageRelease:
			m.level -= release
			if m.level <= 0 {
				m.level = 0
				m.stage = stageIdle
			}
		case stageIdle:
			m.level = 0
		}

		out[i] = m.level
	}
}
