package modules

import (
	"math"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/transport"
)

// MIDI real-time status bytes.
const (
	midiClock    = 0xF8
	midiStart    = 0xFA
	midiContinue = 0xFB
	midiStop     = 0xFC
)

const (
	clockPPQ          = 24
	clockPulseSeconds = 0.005
)

// Clock is the tempo master. While enabled it overrides the transport BPM
// for every block, and while the transport plays it emits a gate pulse per
// division plus 24 ppqn MIDI clock.
type Clock struct {
	module.Base

	playing   bool
	lastDiv   int64
	lastTick  int64
	pulseLeft int
}

// NewClock returns an enabled clock at 120 BPM emitting quarter notes.
func NewClock() *Clock {
	return &Clock{
		Base: module.NewBase(
			bus.NewBuilder().MIDI().MonoOut("Pulse").Build(),
			param.NewSet(
				param.Float("bpm", "Tempo", transport.MinBPM, transport.MaxBPM, transport.DefaultBPM).WithUnit("BPM"),
				param.Bool("enabled", "Enabled", true),
				param.Int("division", "Division", 0, len(transport.Divisions)-1, 2),
			),
		),
		lastDiv:  -1,
		lastTick: -1,
	}
}

// Prepare implements module.Module.
func (m *Clock) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.playing, m.lastDiv, m.lastTick, m.pulseLeft = false, -1, -1, 0

	return nil
}

// ApplyTempo implements module.TempoAuthority.
func (m *Clock) ApplyTempo(st *transport.State) bool {
	if !m.Param("enabled").Bool() {
		return false
	}

	st.BPM = transport.ClampBPM(m.Param("bpm").Value())

	return true
}

// Process implements module.Module.
func (m *Clock) Process(blk *module.Block) {
	out := blk.Out[0]
	st := m.Timing()

	m.transition(blk, st)

	if !st.Playing {
		clear(out)
		return
	}

	div := transport.Divisions[m.Param("division").Int()]
	step := st.BeatsPerSample(m.SampleRate())
	pulse := max(int(clockPulseSeconds*m.SampleRate()), 1)

	for i := range out {
		pos := st.PositionBeats + float64(i)*step

		if d := int64(math.Floor(pos / div)); d != m.lastDiv {
			m.lastDiv = d
			m.pulseLeft = pulse
		}

		if t := int64(math.Floor(pos * clockPPQ)); t != m.lastTick {
			m.lastTick = t
			blk.MIDIOut.Add(i, []byte{midiClock})
		}

		if m.pulseLeft > 0 {
			out[i] = 1
			m.pulseLeft--
		} else {
			out[i] = 0
		}
	}
}

func (m *Clock) transition(blk *module.Block, st transport.State) {
	switch {
	case st.Playing && !m.playing:
		status := byte(midiContinue)
		if st.PositionBeats == 0 {
			status = midiStart
		}

		blk.MIDIOut.Add(0, []byte{status})
	case !st.Playing && m.playing:
		blk.MIDIOut.Add(0, []byte{midiStop})
	}

	if !st.Playing && st.LastCommand == transport.CommandStop {
		m.lastDiv, m.lastTick = -1, -1
	}

	m.playing = st.Playing
}
