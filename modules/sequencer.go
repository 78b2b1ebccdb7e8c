package modules

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/statetree"
	"github.com/cwbudde/algo-modular/engine/transport"
)

// SequencerSteps is the number of steps of a Sequencer.
const SequencerSteps = 16

// clockedGateSeconds is the gate length at gatelength 1 in clocked mode.
const clockedGateSeconds = 0.1

const (
	tagSteps = "steps"
	tagStep  = "step"
)

type seqStep struct {
	value atomic.Uint64
	gate  atomic.Bool
}

// Sequencer is a 16-step CV/gate sequencer. Without a clock input it
// follows the transport position, one step per division; pausing holds the
// position and stopping rewinds it. With a clock connected, each rising
// edge advances one step.
type Sequencer struct {
	module.Base

	steps [SequencerSteps]seqStep

	current   atomic.Int32
	clockHigh bool
	gateLeft  int
}

// NewSequencer returns a sequencer with all gates on and values at 0 V.
func NewSequencer() *Sequencer {
	m := &Sequencer{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("Clock").MonoOut("CV").MonoOut("Gate").Build(),
			param.NewSet(
				param.Int("length", "Length", 1, SequencerSteps, SequencerSteps),
				param.Int("division", "Division", 0, len(transport.Divisions)-1, 3),
				param.Float("gatelength", "Gate Length", 0.05, 1, 0.5),
			),
		),
	}

	m.current.Store(-1)

	for i := range m.steps {
		m.steps[i].gate.Store(true)
	}

	return m
}

// Prepare implements module.Module.
func (m *Sequencer) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.current.Store(-1)
	m.clockHigh, m.gateLeft = false, 0

	return nil
}

// SetStep sets the value (volts) and gate of step i. It is safe to call
// while the sequencer is running.
func (m *Sequencer) SetStep(i int, value float64, gate bool) error {
	if i < 0 || i >= SequencerSteps {
		return fmt.Errorf("sequencer: step %d out of range", i)
	}

	m.steps[i].value.Store(math.Float64bits(value))
	m.steps[i].gate.Store(gate)

	return nil
}

// Step returns the value and gate of step i.
func (m *Sequencer) Step(i int) (value float64, gate bool) {
	if i < 0 || i >= SequencerSteps {
		return 0, false
	}

	return math.Float64frombits(m.steps[i].value.Load()), m.steps[i].gate.Load()
}

// Current returns the step being played, or -1 before the first step.
func (m *Sequencer) Current() int { return int(m.current.Load()) }

// Process implements module.Module.
func (m *Sequencer) Process(blk *module.Block) {
	if blk.IsConnected(0) {
		m.processClocked(blk)
		return
	}

	cv, gate := blk.Out[0], blk.Out[1]
	st := m.Timing()
	length := m.Param("length").Int()
	div := transport.Divisions[m.Param("division").Int()]
	gateLen := m.Param("gatelength").Value()

	if !st.Playing {
		if st.LastCommand == transport.CommandStop {
			m.current.Store(-1)
		}

		m.hold(cv, gate)

		return
	}

	step := st.BeatsPerSample(m.SampleRate())
	cur := m.Current()

	for i := range cv {
		pos := (st.PositionBeats + float64(i)*step) / div
		idx := int(math.Floor(pos))
		cur = idx % length

		v, on := m.Step(cur)
		cv[i] = v
		gate[i] = 0

		if on && pos-float64(idx) < gateLen {
			gate[i] = 1
		}
	}

	m.current.Store(int32(cur))
}

func (m *Sequencer) processClocked(blk *module.Block) {
	clock, cv, gate := blk.In[0], blk.Out[0], blk.Out[1]
	st := m.Timing()
	length := m.Param("length").Int()
	gateSamples := int(m.Param("gatelength").Value() * clockedGateSeconds * m.SampleRate())

	cur := int(m.current.Load())
	if !st.Playing && st.LastCommand == transport.CommandStop {
		cur = -1
	}

	for i := range cv {
		high := clock[i] > 0.5
		if high && !m.clockHigh {
			cur = (cur + 1) % length
			m.gateLeft = gateSamples
		}

		m.clockHigh = high

		v, on := m.Step(max(cur, 0))
		cv[i] = v
		gate[i] = 0

		if cur >= 0 && on && m.gateLeft > 0 {
			gate[i] = 1
		}

		if m.gateLeft > 0 {
			m.gateLeft--
		}
	}

	m.current.Store(int32(cur))
}

func (m *Sequencer) hold(cv, gate []float64) {
	v, _ := m.Step(max(m.Current(), 0))

	for i := range cv {
		cv[i] = v
	}

	clear(gate)
}

// ExtraState stores every step.
func (m *Sequencer) ExtraState() *statetree.Node {
	root := statetree.New(tagSteps)

	for i := range m.steps {
		v, g := m.Step(i)
		root.AddNew(tagStep).SetInt("index", int64(i)).SetFloat("value", v).SetBool("gate", g)
	}

	return root
}

// SetExtraState restores steps. Entries with a bad index are skipped.
func (m *Sequencer) SetExtraState(n *statetree.Node) error {
	if n == nil || n.Tag != tagSteps {
		return nil
	}

	for _, s := range n.ChildrenNamed(tagStep) {
		idx, err := s.Int("index")
		if err != nil || idx < 0 || idx >= SequencerSteps {
			continue
		}

		_ = m.SetStep(int(idx), s.FloatOr("value", 0), s.BoolOr("gate", true))
	}

	return nil
}
