package graph

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modular/engine/midi"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/transport"
)

// ProcessBlock renders one block. It must only be called from the audio
// goroutine, one call at a time.
//
// in holds the hardware input channels and out receives the hardware
// output; frames is the length of the output channels. midiIn carries the
// incoming events and midiOut, when not nil, receives events emitted by
// modules. Blocks longer than the configured block size are rendered in
// several passes; each pass hands modules a position advanced by the
// frames already rendered.
//
// The transport state is reset, offered to tempo authority modules, then
// handed to every module before any of them processes. The returned state
// is the one the block was rendered with. A panic in tempo or timing code
// is recorded as a fault like one in Process: a failing authority is
// skipped and a module whose timing failed is silent for that pass.
func (p *Processor) ProcessBlock(st transport.State, in, out [][]float64, midiIn, midiOut *midi.Buffer) transport.State {
	p.active.Add(1)
	defer p.active.Add(-1)

	midiOut.Clear()

	frames := blockFrames(in, out)

	pl := p.plan.Load()
	if pl == nil || frames == 0 {
		for _, ch := range out {
			clear(ch)
		}

		return st
	}

	st.TempoFromModule = false
	block := p.blocks.Add(1)

	for _, i := range pl.authorities {
		if p.applyTempo(pl, &pl.steps[i], &st, block) {
			st.TempoFromModule = true
			break
		}
	}

	bps := st.BeatsPerSample(pl.sampleRate)

	for offset := 0; offset < frames; offset += pl.maxFrames {
		n := min(pl.maxFrames, frames-offset)

		sub := st
		if st.Playing && offset > 0 {
			sub.PositionSeconds += float64(offset) / pl.sampleRate
			sub.PositionBeats += float64(offset) * bps
		}

		for i := range pl.steps {
			p.setTiming(pl, &pl.steps[i], sub, block)
		}

		pl.midiIn.CopyWindow(midiIn, offset, n)
		pl.midiOut.Clear()

		for i := range pl.steps {
			p.runStep(pl, &pl.steps[i], in, offset, n, block)
		}

		for c, ch := range out {
			dst := ch[offset : offset+n]
			if c >= len(pl.output) {
				clear(dst)
				continue
			}

			gatherInto(pl, dst, pl.output[c], in, offset, n)
		}

		if midiOut != nil {
			midiOut.AppendShifted(pl.midiOut, offset)
		}
	}

	return st
}

// Blocks returns the number of blocks rendered.
func (p *Processor) Blocks() uint64 { return p.blocks.Load() }

func (p *Processor) runStep(pl *plan, s *step, in [][]float64, offset, n int, block uint64) {
	blk := &s.block
	blk.Frames = n

	for ch := range s.inFull {
		blk.In[ch] = s.inFull[ch][:n]
		gatherInto(pl, blk.In[ch], s.gather[ch], in, offset, n)
	}

	for ch := range s.outFull {
		blk.Out[ch] = s.outFull[ch][:n]
	}

	if s.muted {
		module.ClearOutputs(blk)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			module.ClearOutputs(blk)
			p.recordFault(stepFault(pl, s, StageProcess, r, block))
		}
	}()

	s.mod.Process(blk)
}

// applyTempo offers st to the authority at s. st is only updated when the
// call returns normally.
func (p *Processor) applyTempo(pl *plan, s *step, st *transport.State, block uint64) (changed bool) {
	defer func() {
		if r := recover(); r != nil {
			changed = false
			p.recordFault(stepFault(pl, s, StageTempo, r, block))
		}
	}()

	next := *st
	if !s.mod.(module.TempoAuthority).ApplyTempo(&next) {
		return false
	}

	*st = next

	return true
}

func (p *Processor) setTiming(pl *plan, s *step, st transport.State, block uint64) {
	s.muted = false

	defer func() {
		if r := recover(); r != nil {
			s.muted = true
			p.recordFault(stepFault(pl, s, StageTiming, r, block))
		}
	}()

	s.mod.SetTiming(st)
}

func stepFault(pl *plan, s *step, stage string, v any, block uint64) Fault {
	return Fault{
		Module:     s.logical,
		Type:       s.typeName,
		Stage:      stage,
		Value:      v,
		Block:      block,
		Generation: pl.generation,
	}
}

// gatherInto sums every source into dst.
func gatherInto(pl *plan, dst []float64, sources []source, in [][]float64, offset, n int) {
	if len(sources) == 0 {
		clear(dst)
		return
	}

	copy(dst, sourceData(pl, sources[0], in, offset, n))

	for _, src := range sources[1:] {
		vecmath.AddBlockInPlace(dst, sourceData(pl, src, in, offset, n))
	}
}

func sourceData(pl *plan, src source, in [][]float64, offset, n int) []float64 {
	if src.buf != nil {
		return src.buf[:n]
	}

	if src.hw < len(in) && len(in[src.hw]) >= offset+n {
		return in[src.hw][offset : offset+n]
	}

	return pl.silence[:n]
}

func blockFrames(in, out [][]float64) int {
	if len(out) > 0 {
		return len(out[0])
	}

	if len(in) > 0 {
		return len(in[0])
	}

	return 0
}
