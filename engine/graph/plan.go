package graph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-modular/engine/midi"
	"github.com/cwbudde/algo-modular/engine/module"
)

var errCyclicPlan = errors.New("graph: edges contain a cycle")

// source is one contribution to an input channel: an upstream output
// buffer, or hardware input channel hw when buf is nil.
type source struct {
	buf []float64
	hw  int
}

// step is one module in execution order. block and its slice headers are
// scratch space owned by the audio thread once the plan is published.
type step struct {
	logical  LogicalID
	typeName string
	mod      module.Module

	inFull  [][]float64
	outFull [][]float64
	gather  [][]source
	block   module.Block
	muted   bool
}

// plan is an immutable execution snapshot. Control goroutines build a new
// one on every commit and never touch a published plan again.
type plan struct {
	generation  uint64
	sampleRate  float64
	maxFrames   int
	steps       []step
	authorities []int
	output      [][]source
	silence     []float64
	midiIn      *midi.Buffer
	midiOut     *midi.Buffer
}

func (p *Processor) commitLocked() error {
	order, err := p.topoOrder()
	if err != nil {
		p.logger.Error("commit failed", "err", err)
		return err
	}

	frames := p.cfg.BlockSize
	pl := &plan{
		sampleRate: p.cfg.SampleRate,
		maxFrames:  frames,
		steps:      make([]step, len(order)),
		output:     make([][]source, p.cfg.HardwareOutputs),
		silence:    make([]float64, frames),
		midiIn:     midi.NewBuffer(p.cfg.MIDICapacity),
		midiOut:    midi.NewBuffer(p.cfg.MIDICapacity),
	}

	index := make(map[NodeID]int, len(order))

	for i, nid := range order {
		n := p.nodes[nid]
		index[nid] = i

		s := &pl.steps[i]
		s.logical = n.logical
		s.typeName = n.typeName
		s.mod = n.mod
		s.inFull = makeChannels(n.layout.NumInputs(), frames)
		s.outFull = makeChannels(n.layout.NumOutputs(), frames)
		s.gather = make([][]source, n.layout.NumInputs())
		s.block = module.Block{
			In:        make([][]float64, len(s.inFull)),
			Out:       make([][]float64, len(s.outFull)),
			Connected: make([]bool, len(s.inFull)),
		}

		if n.layout.MIDI {
			s.block.MIDI = pl.midiIn
			s.block.MIDIOut = pl.midiOut
		}

		if _, ok := n.mod.(module.TempoAuthority); ok {
			pl.authorities = append(pl.authorities, i)
		}
	}

	for _, e := range p.edges {
		var src source

		switch e.src {
		case nodeInput:
			src = source{hw: e.srcCh}
		default:
			i, ok := index[e.src]
			if !ok {
				continue
			}

			src = source{buf: pl.steps[i].outFull[e.srcCh]}
		}

		if e.dst == nodeOutput {
			if e.dstCh < len(pl.output) {
				pl.output[e.dstCh] = append(pl.output[e.dstCh], src)
			}

			continue
		}

		i, ok := index[e.dst]
		if !ok {
			continue
		}

		s := &pl.steps[i]
		s.gather[e.dstCh] = append(s.gather[e.dstCh], src)
		s.block.Connected[e.dstCh] = true
	}

	pl.generation = p.generation.Add(1)
	p.plan.Store(pl)

	p.logger.Debug("plan published", "generation", pl.generation, "steps", len(pl.steps), "edges", len(p.edges))

	return nil
}

// topoOrder sorts module nodes with Kahn's algorithm. Ties keep creation
// order so that equal graphs always run in the same order.
func (p *Processor) topoOrder() ([]NodeID, error) {
	indegree := make(map[NodeID]int, len(p.order))
	outgoing := make(map[NodeID][]NodeID, len(p.order))

	for _, nid := range p.order {
		indegree[nid] = 0
	}

	for _, e := range p.edges {
		if e.src == nodeInput || e.dst == nodeOutput {
			continue
		}

		if _, ok := indegree[e.dst]; !ok {
			continue
		}

		outgoing[e.src] = append(outgoing[e.src], e.dst)
		indegree[e.dst]++
	}

	queue := make([]NodeID, 0, len(p.order))

	for _, nid := range p.order {
		if indegree[nid] == 0 {
			queue = append(queue, nid)
		}
	}

	order := make([]NodeID, 0, len(p.order))
	for len(queue) > 0 {
		nid := queue[0]
		queue = queue[1:]

		order = append(order, nid)

		for _, next := range outgoing[nid] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(p.order) {
		return nil, fmt.Errorf("%w: %d of %d nodes ordered", errCyclicPlan, len(order), len(p.order))
	}

	return order, nil
}

func makeChannels(n, frames int) [][]float64 {
	chans := make([][]float64, n)
	for i := range chans {
		chans[i] = make([]float64, frames)
	}

	return chans
}
