package graph

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/registry"
	"github.com/cwbudde/algo-modular/engine/transport"
)

// constSource writes its level parameter to its single output.
type constSource struct {
	module.Base
}

func newConstSource() (module.Module, error) {
	return &constSource{
		Base: module.NewBase(
			bus.NewBuilder().MonoOut("Out").Build(),
			param.NewSet(param.Float("level", "Level", -10, 10, 1)),
		),
	}, nil
}

func (m *constSource) Process(blk *module.Block) {
	v := m.Param("level").Value()
	for i := range blk.Out[0] {
		blk.Out[0][i] = v
	}
}

// thru copies its input, scaled by gain.
type thru struct {
	module.Base
}

func newThru() (module.Module, error) {
	return &thru{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("In").MonoOut("Out").Build(),
			param.NewSet(param.Float("gain", "Gain", 0, 4, 1)),
		),
	}, nil
}

func (m *thru) Process(blk *module.Block) {
	g := m.Param("gain").Value()
	for i, v := range blk.In[0] {
		blk.Out[0][i] = v * g
	}
}

// timingWatch checks that timing arrived before processing in every block.
type timingWatch struct {
	module.Base

	processed  atomic.Uint64
	stale      atomic.Uint64
	lastBPM    atomic.Uint64
	seenBefore uint64
}

func newTimingWatch() (module.Module, error) {
	return &timingWatch{
		Base: module.NewBase(bus.NewBuilder().MonoIn("In").MonoOut("Out").Build(), nil),
	}, nil
}

func (m *timingWatch) Process(blk *module.Block) {
	v := m.TimingVersion()
	if v == m.seenBefore {
		m.stale.Add(1)
	}

	m.seenBefore = v
	m.lastBPM.Store(uint64(m.Timing().BPM))
	m.processed.Add(1)

	copy(blk.Out[0], blk.In[0])
}

type panicky struct {
	module.Base
}

func newPanicky() (module.Module, error) {
	return &panicky{Base: module.NewBase(bus.NewBuilder().MonoOut("Out").Build(), nil)}, nil
}

func (m *panicky) Process(blk *module.Block) {
	blk.Out[0][0] = 99
	panic("boom")
}

// hwIn passes mapped hardware channels through.
type hwIn struct {
	module.Base

	mapping []int
}

func newHWIn() (module.Module, error) {
	return &hwIn{
		Base: module.NewBase(bus.NewBuilder().Input("Hardware", 2).Output("Out", 2).Build(), nil),
	}, nil
}

func (m *hwIn) Process(blk *module.Block) {
	for ch := range blk.Out {
		copy(blk.Out[ch], blk.In[ch])
	}
}

func (m *hwIn) InputMapping() []int         { return m.mapping }
func (m *hwIn) SetInputMapping(chans []int) { m.mapping = chans }

type tempo struct {
	module.Base
}

func newTempo() (module.Module, error) {
	return &tempo{
		Base: module.NewBase(bus.NewBuilder().MonoOut("Out").Build(),
			param.NewSet(param.Float("bpm", "BPM", 20, 999, 90))),
	}, nil
}

func (m *tempo) Process(*module.Block) {}

func (m *tempo) ApplyTempo(st *transport.State) bool {
	st.BPM = m.Param("bpm").Value()
	return true
}

// brokenTempo panics when asked for a tempo.
type brokenTempo struct {
	module.Base

	overrides map[string]float64
}

func newBrokenTempo() (module.Module, error) {
	return &brokenTempo{Base: module.NewBase(bus.NewBuilder().MonoOut("Out").Build(), nil)}, nil
}

func (m *brokenTempo) Process(*module.Block) {}

func (m *brokenTempo) ApplyTempo(st *transport.State) bool {
	st.BPM = 300
	m.overrides["bpm"] = st.BPM

	return true
}

// brokenTiming panics when handed the transport.
type brokenTiming struct {
	module.Base
}

func newBrokenTiming() (module.Module, error) {
	return &brokenTiming{Base: module.NewBase(bus.NewBuilder().MonoOut("Out").Build(), nil)}, nil
}

func (m *brokenTiming) SetTiming(transport.State) { panic("timing") }

func (m *brokenTiming) Process(blk *module.Block) {
	for i := range blk.Out[0] {
		blk.Out[0][i] = 1
	}
}

// timeline records the transport position seen by every Process call.
type timeline struct {
	module.Base

	beats   []float64
	seconds []float64
}

func newTimeline() (module.Module, error) {
	return &timeline{Base: module.NewBase(bus.NewBuilder().MonoOut("Out").Build(), nil)}, nil
}

func (m *timeline) Process(*module.Block) {
	st := m.Timing()
	m.beats = append(m.beats, st.PositionBeats)
	m.seconds = append(m.seconds, st.PositionSeconds)
}

type worker struct {
	module.Base

	closed *atomic.Int32
}

var workerCloses atomic.Int32

func newWorker() (module.Module, error) {
	return &worker{
		Base:   module.NewBase(bus.NewBuilder().MonoOut("Out").Build(), nil),
		closed: &workerCloses,
	}, nil
}

func (m *worker) Process(*module.Block) {}

func (m *worker) Close(time.Duration) error {
	m.closed.Add(1)
	return nil
}

func testRegistry() *registry.Registry {
	r := registry.New()
	r.MustRegister("source", newConstSource)
	r.MustRegister("thru", newThru)
	r.MustRegister("timing watch", newTimingWatch)
	r.MustRegister("panicky", newPanicky)
	r.MustRegister("audio in", newHWIn)
	r.MustRegister("tempo", newTempo)
	r.MustRegister("worker", newWorker)
	r.MustRegister("broken tempo", newBrokenTempo)
	r.MustRegister("broken timing", newBrokenTiming)
	r.MustRegister("timeline", newTimeline)

	return r
}

func newTestProcessor(opts ...Option) *Processor {
	base := []Option{
		WithRegistry(testRegistry()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBlockSize(64),
		WithHardwareChannels(2, 2),
	}

	return New(append(base, opts...)...)
}

func mustAdd(p *Processor, typeName string) LogicalID {
	id, err := p.AddModule(typeName)
	if err != nil {
		panic(err)
	}

	return id
}

func stereo(frames int) [][]float64 {
	return [][]float64{make([]float64, frames), make([]float64, frames)}
}
