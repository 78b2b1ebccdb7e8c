package modules

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/statetree"
)

const tagSample = "sample"

// Sampler plays a WAV file from the start on every rising edge of its
// trigger input. The file is decoded on the control side and swapped in
// atomically; the audio thread never touches the file system.
type Sampler struct {
	module.Base

	mu   sync.Mutex
	path string

	sample atomic.Pointer[Sample]

	// audio-thread owned
	current  *Sample
	pos      float64
	playing  bool
	trigHigh bool
}

// NewSampler returns a sampler with no sample loaded.
func NewSampler() *Sampler {
	return &Sampler{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("Trigger").MonoOut("Out").Build(),
			param.NewSet(
				param.Float("gain", "Gain", 0, 2, 1),
				param.Float("speed", "Speed", 0.25, 4, 1),
				param.Bool("loop", "Loop", false),
			),
		),
	}
}

// Load decodes path and makes it the active sample. On failure the
// previous sample stays active but the path is remembered for saving.
func (m *Sampler) Load(path string) error {
	m.mu.Lock()
	m.path = path
	m.mu.Unlock()

	s, err := LoadWAV(path)
	if err != nil {
		return err
	}

	m.sample.Store(s)

	return nil
}

// Sample returns the active sample or nil.
func (m *Sampler) Sample() *Sample { return m.sample.Load() }

// Path returns the path of the last Load.
func (m *Sampler) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.path
}

// Prepare implements module.Module.
func (m *Sampler) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.current, m.pos, m.playing, m.trigHigh = nil, 0, false, false

	return nil
}

// Process implements module.Module.
func (m *Sampler) Process(blk *module.Block) {
	trig, out := blk.In[0], blk.Out[0]

	if s := m.sample.Load(); s != m.current {
		m.current, m.pos, m.playing = s, 0, false
	}

	s := m.current
	if s == nil || len(s.Data) == 0 {
		clear(out)
		return
	}

	gain := m.Param("gain").Value()
	loop := m.Param("loop").Bool()
	inc := m.Param("speed").Value() * s.SampleRate / m.SampleRate()
	last := float64(len(s.Data) - 1)

	for i := range out {
		high := trig[i] > 0.5
		if high && !m.trigHigh {
			m.pos, m.playing = 0, true
		}

		m.trigHigh = high

		if !m.playing {
			out[i] = 0
			continue
		}

		idx := int(m.pos)
		frac := m.pos - float64(idx)
		next := s.Data[min(idx+1, len(s.Data)-1)]
		out[i] = gain * (s.Data[idx] + frac*(next-s.Data[idx]))

		m.pos += inc
		if m.pos > last {
			if loop {
				m.pos = math.Mod(m.pos, last+1)
			} else {
				m.playing = false
			}
		}
	}
}

// ExtraState stores the sample path.
func (m *Sampler) ExtraState() *statetree.Node {
	path := m.Path()
	if path == "" {
		return nil
	}

	return statetree.New(tagSample).Set("path", path)
}

// SetExtraState loads the sample named in n.
func (m *Sampler) SetExtraState(n *statetree.Node) error {
	if n == nil || n.Tag != tagSample {
		return nil
	}

	path := n.String("path", "")
	if path == "" {
		return nil
	}

	return m.Load(path)
}
