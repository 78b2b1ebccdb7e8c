package transport

import (
	"math"
	"sync"
	"testing"
)

func TestClampBPM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "in range", in: 133, want: 133},
		{name: "below minimum", in: 5, want: MinBPM},
		{name: "above maximum", in: 5000, want: MaxBPM},
		{name: "NaN", in: math.NaN(), want: DefaultBPM},
		{name: "Inf", in: math.Inf(1), want: DefaultBPM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ClampBPM(tt.in); got != tt.want {
				t.Fatalf("ClampBPM(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestControllerCommands(t *testing.T) {
	t.Parallel()

	t.Run("play advances position", func(t *testing.T) {
		t.Parallel()

		c := NewController()
		c.SetBPM(120)
		c.Play()

		st := c.Begin()
		if !st.Playing || st.LastCommand != CommandPlay {
			t.Fatalf("expected playing after Play, got %+v", st)
		}

		c.Advance(st, 48000, 48000)

		st = c.Begin()
		if math.Abs(st.PositionSeconds-1) > 1e-12 {
			t.Fatalf("PositionSeconds = %v, want 1", st.PositionSeconds)
		}

		if math.Abs(st.PositionBeats-2) > 1e-12 {
			t.Fatalf("PositionBeats = %v, want 2", st.PositionBeats)
		}
	})

	t.Run("pause preserves position and stop resets it", func(t *testing.T) {
		t.Parallel()

		c := NewController()
		c.Play()
		st := c.Begin()
		c.Advance(st, 24000, 48000)

		c.Pause()
		st = c.Begin()
		if st.Playing || st.LastCommand != CommandPause {
			t.Fatalf("expected paused, got %+v", st)
		}

		if st.PositionSeconds == 0 {
			t.Fatal("pause must preserve the song position")
		}

		c.Advance(st, 24000, 48000)
		if again := c.Begin(); again.PositionSeconds != st.PositionSeconds {
			t.Fatal("paused transport must not advance")
		}

		c.Stop()
		st = c.Begin()
		if st.PositionSeconds != 0 || st.PositionBeats != 0 {
			t.Fatalf("stop must rewind, got %+v", st)
		}
	})

	t.Run("tempo override flag is cleared every block", func(t *testing.T) {
		t.Parallel()

		c := NewController()
		st := c.Begin()
		st.TempoFromModule = true
		st.BPM = 90
		c.Advance(st, 128, 48000)

		if next := c.Begin(); next.TempoFromModule || next.BPM != DefaultBPM {
			t.Fatalf("expected fresh user tempo, got %+v", next)
		}
	})
}

func TestDivisionBeats(t *testing.T) {
	t.Parallel()

	if got := (State{DivisionIndex: 2}).DivisionBeats(); got != 1 {
		t.Fatalf("DivisionBeats = %v, want 1", got)
	}

	if got := (State{DivisionIndex: 99}).DivisionBeats(); got != 1 {
		t.Fatalf("out of range DivisionBeats = %v, want 1", got)
	}
}

func TestCellRoundTrip(t *testing.T) {
	t.Parallel()

	var c Cell

	want := State{
		Playing:         true,
		BPM:             97.5,
		PositionBeats:   12.25,
		PositionSeconds: 7.5,
		DivisionIndex:   3,
		LastCommand:     CommandPlay,
		TempoFromModule: true,
	}
	c.Store(want)

	if got := c.Load(); got != want {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}

	if c.Version() != 1 {
		t.Fatalf("Version() = %d, want 1", c.Version())
	}
}

func TestCellConcurrentReadersSeeWholeStates(t *testing.T) {
	t.Parallel()

	var c Cell

	const writes = 20000

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := 1; i <= writes; i++ {
			v := float64(i)
			c.Store(State{BPM: v, PositionBeats: v, PositionSeconds: v})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < writes; i++ {
				s := c.Load()
				if s.BPM != s.PositionBeats || s.BPM != s.PositionSeconds {
					t.Errorf("torn read: %+v", s)
					return
				}
			}
		}()
	}

	wg.Wait()
}
