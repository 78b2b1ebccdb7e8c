package modules

import (
	"testing"

	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/transport"
)

func prepare(t *testing.T, m module.Module, sampleRate float64, maxBlock int) {
	t.Helper()

	if err := m.Prepare(sampleRate, maxBlock); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
}

func playing(bpm, positionBeats float64, division int32) transport.State {
	return transport.State{
		Playing:       true,
		BPM:           bpm,
		PositionBeats: positionBeats,
		DivisionIndex: division,
		LastCommand:   transport.CommandPlay,
	}
}
