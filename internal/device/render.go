package device

import (
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/cwbudde/algo-modular/engine/graph"
	"github.com/cwbudde/algo-modular/engine/midi"
	"github.com/cwbudde/algo-modular/engine/rtqueue"
	"github.com/cwbudde/algo-modular/engine/transport"
)

type midiMessage struct {
	data [midi.MaxMessageLen]byte
	n    int
}

// Renderer turns device callbacks into processor blocks. Render belongs to
// the audio thread; SendMIDI and the counters may be used from anywhere.
type Renderer struct {
	proc       *graph.Processor
	ctl        *transport.Controller
	sampleRate float64
	maxFrames  int

	in, out         [][]float64
	inView, outView [][]float64
	midiIn, midiOut *midi.Buffer
	pending         *rtqueue.Queue[midiMessage]

	blocks   atomic.Uint64
	clipped  atomic.Uint64
	midiSent atomic.Uint64
	onMIDI   func(gomidi.Message)
}

// NewRenderer returns a renderer for a device with the given channel counts
// and largest callback size.
func NewRenderer(p *graph.Processor, ctl *transport.Controller, inputs, outputs, maxFrames int) *Renderer {
	cfg := p.Config()

	r := &Renderer{
		proc:       p,
		ctl:        ctl,
		sampleRate: cfg.SampleRate,
		maxFrames:  maxFrames,
		in:         alloc(inputs, maxFrames),
		out:        alloc(outputs, maxFrames),
		inView:     make([][]float64, inputs),
		outView:    make([][]float64, outputs),
		midiIn:     midi.NewBuffer(cfg.MIDICapacity),
		midiOut:    midi.NewBuffer(cfg.MIDICapacity),
		pending:    rtqueue.NewQueue[midiMessage](cfg.MIDICapacity),
	}

	return r
}

// OnMIDI installs fn to receive every message the graph emits. fn runs on
// the audio thread and must not block. Call before the stream starts.
func (r *Renderer) OnMIDI(fn func(gomidi.Message)) { r.onMIDI = fn }

// SendMIDI queues msg for the start of the next block. It returns false when
// the queue is full or the message is too long.
func (r *Renderer) SendMIDI(msg gomidi.Message) bool {
	if len(msg) == 0 || len(msg) > midi.MaxMessageLen {
		return false
	}

	var m midiMessage
	m.n = copy(m.data[:], msg)

	return r.pending.Push(m)
}

// Blocks returns the number of callbacks rendered.
func (r *Renderer) Blocks() uint64 { return r.blocks.Load() }

// Clipped returns how many output samples were clamped to [-1, 1].
func (r *Renderer) Clipped() uint64 { return r.clipped.Load() }

// MIDISent returns how many messages the graph has emitted.
func (r *Renderer) MIDISent() uint64 { return r.midiSent.Load() }

// Render processes one device callback. Callbacks longer than the
// renderer's block size are split.
func (r *Renderer) Render(in, out [][]float32) {
	frames := 0
	if len(out) > 0 {
		frames = len(out[0])
	} else if len(in) > 0 {
		frames = len(in[0])
	}

	for offset := 0; offset < frames; offset += r.maxFrames {
		n := min(r.maxFrames, frames-offset)
		r.renderChunk(in, out, offset, n)
	}

	r.blocks.Add(1)
}

func (r *Renderer) renderChunk(in, out [][]float32, offset, n int) {
	for ch := range r.inView {
		buf := r.in[ch][:n]
		if ch < len(in) {
			for i, v := range in[ch][offset : offset+n] {
				buf[i] = float64(v)
			}
		} else {
			clear(buf)
		}

		r.inView[ch] = buf
	}

	for ch := range r.outView {
		r.outView[ch] = r.out[ch][:n]
	}

	r.midiIn.Clear()

	for {
		m, ok := r.pending.Pop()
		if !ok {
			break
		}

		r.midiIn.Add(0, gomidi.Message(m.data[:m.n]))
	}

	st := r.ctl.Begin()
	rendered := r.proc.ProcessBlock(st, r.inView, r.outView, r.midiIn, r.midiOut)
	r.ctl.Advance(rendered, n, r.sampleRate)

	for i := range r.midiOut.Len() {
		r.midiSent.Add(1)

		if r.onMIDI != nil {
			r.onMIDI(r.midiOut.At(i).Message())
		}
	}

	for ch := range out {
		dst := out[ch][offset : offset+n]
		if ch >= len(r.outView) {
			clear(dst)
			continue
		}

		for i, v := range r.outView[ch] {
			if v > 1 || v < -1 {
				r.clipped.Add(1)
				v = min(max(v, -1), 1)
			}

			dst[i] = float32(v)
		}
	}
}

func alloc(channels, frames int) [][]float64 {
	out := make([][]float64, channels)
	for i := range out {
		out[i] = make([]float64, frames)
	}

	return out
}
