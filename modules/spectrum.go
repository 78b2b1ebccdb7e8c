package modules

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/rtqueue"
	"github.com/cwbudde/algo-modular/internal/analysis"
)

const (
	spectrumFrame    = 1024
	spectrumHop      = spectrumFrame / 2
	spectrumChunk    = 256
	spectrumSlots    = 64
	spectrumInterval = 10 * time.Millisecond
)

// ErrCloseTimeout is returned by worker modules whose goroutine did not exit
// in time.
var ErrCloseTimeout = errors.New("modules: worker did not stop in time")

type chunk struct {
	data [spectrumChunk]float64
	n    int
}

// Spectrum passes its input through and analyses it on a background
// goroutine. The audio thread only copies samples into a lock-free ring.
type Spectrum struct {
	module.Base

	ring *rtqueue.Ring[chunk]
	bins atomic.Pointer[[]float64]

	start     sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}

	// worker owned
	analyzer *analysis.Analyzer
	frame    []float64
	fill     int
	levels   []float64
}

// NewSpectrum returns an analyser with a 1024-point frame.
func NewSpectrum() *Spectrum {
	a, err := analysis.NewAnalyzer(spectrumFrame)
	if err != nil {
		panic(err)
	}

	return &Spectrum{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("In").MonoOut("Thru").Build(),
			param.NewSet(param.Float("smoothing", "Smoothing", 0, 0.99, 0.5)),
		),
		ring:     rtqueue.NewRing[chunk](spectrumSlots),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		analyzer: a,
		frame:    make([]float64, spectrumFrame),
		levels:   make([]float64, a.Bins()),
	}
}

// Prepare implements module.Module and starts the worker on first use.
func (m *Spectrum) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.start.Do(func() {
		m.started.Store(true)
		go m.run()
	})

	return nil
}

// Process implements module.Module.
func (m *Spectrum) Process(blk *module.Block) {
	in := blk.In[0]
	copy(blk.Out[0], in)

	for len(in) > 0 {
		c, ok := m.ring.Reserve()
		if !ok {
			return
		}

		c.n = copy(c.data[:], in)
		m.ring.Commit()
		in = in[c.n:]
	}
}

// Bins returns the latest smoothed levels in dB, one per FFT bin, or nil
// before the first frame. The slice must not be modified.
func (m *Spectrum) Bins() []float64 {
	if p := m.bins.Load(); p != nil {
		return *p
	}

	return nil
}

// BinFrequency returns the centre frequency of bin k.
func (m *Spectrum) BinFrequency(k int) float64 {
	return m.analyzer.BinFrequency(k, m.SampleRate())
}

// Dropped returns how many chunks were lost because the worker fell behind.
func (m *Spectrum) Dropped() uint64 { return m.ring.Dropped() }

// Diagnostics implements module.Diagnoser.
func (m *Spectrum) Diagnostics() string {
	return fmt.Sprintf("frame=%d queued=%d dropped=%d", spectrumFrame, m.ring.Len(), m.ring.Dropped())
}

// Close implements module.Worker.
func (m *Spectrum) Close(timeout time.Duration) error {
	m.closeOnce.Do(func() { close(m.stop) })

	if !m.started.Load() {
		return nil
	}

	select {
	case <-m.done:
		return nil
	case <-time.After(timeout):
		return ErrCloseTimeout
	}
}

func (m *Spectrum) run() {
	defer close(m.done)

	ticker := time.NewTicker(spectrumInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.drain()
		}
	}
}

func (m *Spectrum) drain() {
	for {
		c, ok := m.ring.Peek()
		if !ok {
			return
		}

		src := c.data[:c.n]
		for len(src) > 0 {
			n := copy(m.frame[m.fill:], src)
			m.fill += n
			src = src[n:]

			if m.fill == spectrumFrame {
				m.analyse()
				copy(m.frame, m.frame[spectrumHop:])
				m.fill = spectrumFrame - spectrumHop
			}
		}

		m.ring.Release()
	}
}

func (m *Spectrum) analyse() {
	cur := make([]float64, len(m.levels))
	if err := m.analyzer.PowerDB(cur, m.frame); err != nil {
		return
	}

	alpha := m.Param("smoothing").Value()
	first := m.bins.Load() == nil

	for k, v := range cur {
		if !first {
			v = alpha*m.levels[k] + (1-alpha)*v
		}

		m.levels[k] = v
		cur[k] = v
	}

	m.bins.Store(&cur)
}
