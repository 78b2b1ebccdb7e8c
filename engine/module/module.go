// Package module defines the contract every processing unit satisfies to be
// hosted by the graph, plus an embeddable Base that implements the common
// parts of it.
package module

import (
	"time"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/midi"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/statetree"
	"github.com/cwbudde/algo-modular/engine/transport"
)

// Block is the per-call view of a module's bus buffers. In and Out are
// flat channel lists as numbered by bus.Layout; each slice has Frames
// samples. Connected reports, per input channel, whether any edge feeds it.
//
// MIDI holds the incoming events of the block and MIDIOut collects events
// for the host; both are nil unless the layout asks for MIDI. MIDIOut is
// shared by every MIDI module of the block.
type Block struct {
	In        [][]float64
	Out       [][]float64
	Connected []bool
	MIDI      *midi.Buffer
	MIDIOut   *midi.Buffer
	Frames    int
}

// Input returns input channel flat, or nil when out of range.
func (b *Block) Input(flat int) []float64 {
	if flat < 0 || flat >= len(b.In) {
		return nil
	}

	return b.In[flat]
}

// Output returns output channel flat, or nil when out of range.
func (b *Block) Output(flat int) []float64 {
	if flat < 0 || flat >= len(b.Out) {
		return nil
	}

	return b.Out[flat]
}

// IsConnected reports whether input channel flat has at least one source.
func (b *Block) IsConnected(flat int) bool {
	return flat >= 0 && flat < len(b.Connected) && b.Connected[flat]
}

// Routing names the input bus and channel whose signal drives a parameter.
type Routing struct {
	Bus     int
	Channel int
}

// Module is one unit of audio/CV/control processing.
//
// Process runs on the audio thread: it must not allocate, lock or block.
// Everything else runs on control goroutines.
type Module interface {
	Layout() bus.Layout
	Prepare(sampleRate float64, maxBlockSize int) error
	Process(blk *Block)
	Params() *param.Set
	ParamRouting(paramID string) (Routing, bool)
	ExtraState() *statetree.Node
	SetExtraState(n *statetree.Node) error
	SetTiming(st transport.State)
}

// InputMapper is implemented by modules fed from hardware inputs. The graph
// wires hardware channel InputMapping()[i] to the module's input channel i;
// negative entries leave that input silent.
type InputMapper interface {
	InputMapping() []int
	SetInputMapping(channels []int)
}

// TempoAuthority is implemented by modules that may override the block
// tempo. ApplyTempo runs on the audio thread before timing is broadcast and
// reports whether it changed st.
type TempoAuthority interface {
	ApplyTempo(st *transport.State) bool
}

// Worker is implemented by modules that own background goroutines. Close
// signals them to exit and waits at most timeout; it is never called on the
// audio thread.
type Worker interface {
	Close(timeout time.Duration) error
}

// Diagnoser is implemented by modules with a diagnostic dump.
type Diagnoser interface {
	Diagnostics() string
}

// Hosted is an already-instantiated processor owned by a plugin host. The
// hosted module type adapts one to Module; its opaque state travels as a
// binary blob in auxiliary state.
type Hosted interface {
	Name() string
	Channels() (in, out int)
	Prepare(sampleRate float64, maxBlockSize int) error
	Process(in, out [][]float64, frames int)
	State() ([]byte, error)
	SetState(data []byte) error
}
