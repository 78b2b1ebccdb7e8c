package modules

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
)

const maxHeldNotes = 16

// MIDICV turns note messages into V/oct pitch, gate and velocity signals.
// The most recently pressed held note wins. Pitch is 0 V at middle C.
type MIDICV struct {
	module.Base

	held     [maxHeldNotes]uint8
	nHeld    int
	pitch    float64
	velocity float64
}

// NewMIDICV returns a converter listening on all channels.
func NewMIDICV() *MIDICV {
	return &MIDICV{
		Base: module.NewBase(
			bus.NewBuilder().MIDI().
				MonoOut("Pitch").MonoOut("Gate").MonoOut("Velocity").
				Build(),
			param.NewSet(
				param.Int("transpose", "Transpose", -24, 24, 0).WithUnit("st"),
				param.Int("channel", "Channel", 0, 16, 0),
			),
		),
	}
}

// Prepare implements module.Module.
func (m *MIDICV) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.nHeld, m.pitch, m.velocity = 0, 0, 0

	return nil
}

// Process implements module.Module.
func (m *MIDICV) Process(blk *module.Block) {
	pitchOut, gateOut, velOut := blk.Out[0], blk.Out[1], blk.Out[2]
	transpose := float64(m.Param("transpose").Int())
	listen := m.Param("channel").Int()

	next := 0

	for i := range pitchOut {
		for next < blk.MIDI.Len() && blk.MIDI.At(next).Offset <= i {
			m.handle(blk.MIDI.At(next).Message(), listen)
			next++
		}

		gate := 0.0
		if m.nHeld > 0 {
			gate = 1
		}

		pitchOut[i] = m.pitch + transpose/12
		gateOut[i] = gate
		velOut[i] = m.velocity
	}

	for ; next < blk.MIDI.Len(); next++ {
		m.handle(blk.MIDI.At(next).Message(), listen)
	}
}

func (m *MIDICV) handle(msg gomidi.Message, listen int) {
	var ch, key, vel uint8

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		if listen == 0 || int(ch)+1 == listen {
			m.press(key, vel)
		}
	case msg.GetNoteEnd(&ch, &key):
		if listen == 0 || int(ch)+1 == listen {
			m.release(key)
		}
	}
}

func (m *MIDICV) press(key, vel uint8) {
	m.release(key)

	if m.nHeld == maxHeldNotes {
		copy(m.held[:], m.held[1:])
		m.nHeld--
	}

	m.held[m.nHeld] = key
	m.nHeld++
	m.pitch = float64(int(key)-60) / 12
	m.velocity = float64(vel) / 127
}

func (m *MIDICV) release(key uint8) {
	for i := 0; i < m.nHeld; i++ {
		if m.held[i] != key {
			continue
		}

		copy(m.held[i:], m.held[i+1:m.nHeld])
		m.nHeld--

		if m.nHeld > 0 {
			m.pitch = float64(int(m.held[m.nHeld-1])-60) / 12
		}

		return
	}
}
