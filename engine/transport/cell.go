package transport

import (
	"math"
	"sync/atomic"
)

// Cell publishes a State from one writer to any number of readers.
//
// Store never waits. Load retries while a Store is in flight, so a reader on
// the writer's own goroutine never retries. Concurrent Stores are not allowed.
type Cell struct {
	seq atomic.Uint64

	playing         atomic.Bool
	bpm             atomic.Uint64
	beats           atomic.Uint64
	seconds         atomic.Uint64
	division        atomic.Int32
	command         atomic.Int32
	tempoFromModule atomic.Bool
}

// Store publishes s.
func (c *Cell) Store(s State) {
	c.seq.Add(1)
	c.playing.Store(s.Playing)
	c.bpm.Store(math.Float64bits(s.BPM))
	c.beats.Store(math.Float64bits(s.PositionBeats))
	c.seconds.Store(math.Float64bits(s.PositionSeconds))
	c.division.Store(s.DivisionIndex)
	c.command.Store(int32(s.LastCommand))
	c.tempoFromModule.Store(s.TempoFromModule)
	c.seq.Add(1)
}

// Load returns the most recently published State. A Cell that was never
// stored returns the zero State.
func (c *Cell) Load() State {
	for {
		before := c.seq.Load()
		if before&1 == 1 {
			continue
		}

		s := State{
			Playing:         c.playing.Load(),
			BPM:             math.Float64frombits(c.bpm.Load()),
			PositionBeats:   math.Float64frombits(c.beats.Load()),
			PositionSeconds: math.Float64frombits(c.seconds.Load()),
			DivisionIndex:   c.division.Load(),
			LastCommand:     Command(c.command.Load()),
			TempoFromModule: c.tempoFromModule.Load(),
		}

		if c.seq.Load() == before {
			return s
		}
	}
}

// Version returns the number of completed Stores.
func (c *Cell) Version() uint64 {
	return c.seq.Load() / 2
}
