package testutil

import (
	"github.com/cwbudde/algo-modular/engine/midi"
	"github.com/cwbudde/algo-modular/engine/module"
)

// Block builds a module.Block for layout-sized buffers of frames samples,
// the way the graph would hand it to Process. Inputs listed in connected
// are marked connected; MIDI buffers are attached when midiCap > 0.
func Block(inputs, outputs, frames, midiCap int, connected ...int) *module.Block {
	blk := &module.Block{
		In:        Buffers(inputs, frames),
		Out:       Buffers(outputs, frames),
		Connected: make([]bool, inputs),
		Frames:    frames,
	}

	for _, ch := range connected {
		if ch >= 0 && ch < inputs {
			blk.Connected[ch] = true
		}
	}

	if midiCap > 0 {
		blk.MIDI = midi.NewBuffer(midiCap)
		blk.MIDIOut = midi.NewBuffer(midiCap)
	}

	return blk
}

// ModuleBlock is Block sized from m's layout.
func ModuleBlock(m module.Module, frames int, connected ...int) *module.Block {
	l := m.Layout()

	midiCap := 0
	if l.MIDI {
		midiCap = 256
	}

	return Block(l.NumInputs(), l.NumOutputs(), frames, midiCap, connected...)
}
