package transport

import (
	"fmt"
	"math"
)

// Tempo limits accepted by the engine.
const (
	MinBPM     = 20.0
	MaxBPM     = 999.0
	DefaultBPM = 120.0
)

// Command is the most recent transport command issued by the user.
type Command int32

const (
	CommandStop Command = iota
	CommandPlay
	CommandPause
)

// String returns the lower-case command name.
func (c Command) String() string {
	switch c {
	case CommandStop:
		return "stop"
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	default:
		return fmt.Sprintf("command(%d)", int32(c))
	}
}

// State is the transport value handed to every module once per block.
// It is copied, never shared.
type State struct {
	Playing         bool
	BPM             float64
	PositionBeats   float64
	PositionSeconds float64
	DivisionIndex   int32
	LastCommand     Command

	// TempoFromModule is set when a tempo-authority module overrode BPM
	// for the current block. It is cleared at the start of every block.
	TempoFromModule bool
}

// Default returns a stopped transport at the default tempo.
func Default() State {
	return State{BPM: DefaultBPM, LastCommand: CommandStop}
}

// ClampBPM limits bpm to [MinBPM, MaxBPM]. Non-finite input yields DefaultBPM.
func ClampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return DefaultBPM
	}

	if bpm < MinBPM {
		return MinBPM
	}

	if bpm > MaxBPM {
		return MaxBPM
	}

	return bpm
}

// BeatsPerSample returns how far the song position moves per sample.
func (s State) BeatsPerSample(sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}

	return s.BPM / 60 / sampleRate
}

// Divisions maps DivisionIndex to a note length in beats.
var Divisions = [...]float64{4, 2, 1, 0.5, 0.25, 0.125, 0.0625}

// DivisionBeats returns the beat length of the current global division.
// Out-of-range indices fall back to one beat.
func (s State) DivisionBeats() float64 {
	if s.DivisionIndex < 0 || int(s.DivisionIndex) >= len(Divisions) {
		return 1
	}

	return Divisions[s.DivisionIndex]
}
