package modules

import (
	"math"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/transport"
)

// LFO is a low-frequency modulation source. With sync on, one cycle lasts
// one transport division and the phase follows the song position.
type LFO struct {
	module.Base

	phase float64
}

// NewLFO returns a free-running 1 Hz sine LFO.
func NewLFO() *LFO {
	m := &LFO{
		Base: module.NewBase(
			bus.NewBuilder().MonoIn("Rate CV").MonoOut("Out").Build(),
			param.NewSet(
				param.Float("rate", "Rate", 0.01, 50, 1).WithUnit("Hz"),
				param.Float("depth", "Depth", 0, 1, 1),
				param.Choice("waveform", "Waveform", waveforms, waveSine),
				param.Bool("sync", "Tempo Sync", false),
			),
		),
	}
	m.Route("rate", "Rate CV", 0)

	return m
}

// Prepare implements module.Module.
func (m *LFO) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.phase = 0

	return nil
}

// Process implements module.Module.
func (m *LFO) Process(blk *module.Block) {
	out := blk.Out[0]
	depth := m.Param("depth").Value()
	wave := m.Param("waveform").Int()

	if m.Param("sync").Bool() {
		m.processSynced(out, depth, wave)
		return
	}

	cv := m.Modulation(blk, "rate")
	rate := m.Param("rate").Value()
	sr := m.SampleRate()

	for i := range out {
		r := rate
		if cv != nil {
			r = rate * voltsToRatio(cv[i])
		}

		out[i] = depth * shape(wave, m.phase)

		m.phase += r / sr
		m.phase -= math.Floor(m.phase)
	}

	if cv != nil && len(cv) > 0 {
		m.Publish("rate", rate*voltsToRatio(cv[len(cv)-1]))
	}
}

func (m *LFO) processSynced(out []float64, depth float64, wave int) {
	st := m.Timing()
	cycle := st.DivisionBeats()
	step := st.BeatsPerSample(m.SampleRate()) / cycle
	phase := st.PositionBeats / cycle

	if !st.Playing {
		step = 0
	}

	for i := range out {
		p := phase + float64(i)*step
		out[i] = depth * shape(wave, p-math.Floor(p))
	}

	m.phase = phase - math.Floor(phase)
}

// CycleSeconds returns the duration of one synced cycle at the given state.
func CycleSeconds(st transport.State) float64 {
	return st.DivisionBeats() * 60 / transport.ClampBPM(st.BPM)
}
