package transport

import (
	"math"
	"sync/atomic"
)

const noCommand = -1

// Controller owns the authoritative transport state. Play, Pause, Stop,
// SetBPM and SetDivision may be called from any goroutine; Begin and Advance
// belong to the audio thread.
type Controller struct {
	pending  atomic.Int32
	bpm      atomic.Uint64
	division atomic.Int32

	// audio-thread owned
	state State
}

// NewController returns a stopped controller at DefaultBPM.
func NewController() *Controller {
	c := &Controller{state: Default()}
	c.pending.Store(noCommand)
	c.bpm.Store(math.Float64bits(DefaultBPM))

	return c
}

// Play requests playback from the current position.
func (c *Controller) Play() { c.pending.Store(int32(CommandPlay)) }

// Pause requests a halt that preserves the song position.
func (c *Controller) Pause() { c.pending.Store(int32(CommandPause)) }

// Stop requests a halt that rewinds the song position to zero.
func (c *Controller) Stop() { c.pending.Store(int32(CommandStop)) }

// SetBPM sets the user tempo. The value is clamped to [MinBPM, MaxBPM].
func (c *Controller) SetBPM(bpm float64) {
	c.bpm.Store(math.Float64bits(ClampBPM(bpm)))
}

// BPM returns the user tempo.
func (c *Controller) BPM() float64 {
	return math.Float64frombits(c.bpm.Load())
}

// SetDivision selects the global clock division index.
func (c *Controller) SetDivision(index int32) {
	c.division.Store(index)
}

// Begin applies pending control changes and returns the state for the
// block about to render. TempoFromModule is always cleared.
func (c *Controller) Begin() State {
	if cmd := c.pending.Swap(noCommand); cmd != noCommand {
		c.apply(Command(cmd))
	}

	c.state.BPM = c.BPM()
	c.state.DivisionIndex = c.division.Load()
	c.state.TempoFromModule = false

	return c.state
}

// Advance moves the song position forward by frames if the block played.
// The tempo actually used for the block (which a module may have
// overridden) is passed in rendered.
func (c *Controller) Advance(rendered State, frames int, sampleRate float64) {
	if !rendered.Playing || frames <= 0 || sampleRate <= 0 {
		return
	}

	seconds := float64(frames) / sampleRate
	c.state.PositionSeconds += seconds
	c.state.PositionBeats += seconds * rendered.BPM / 60
}

func (c *Controller) apply(cmd Command) {
	c.state.LastCommand = cmd

	switch cmd {
	case CommandPlay:
		c.state.Playing = true
	case CommandPause:
		c.state.Playing = false
	case CommandStop:
		c.state.Playing = false
		c.state.PositionBeats = 0
		c.state.PositionSeconds = 0
	}
}
