package modules

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-modular/engine/arena"
	"github.com/cwbudde/algo-modular/engine/statetree"
	"github.com/cwbudde/algo-modular/internal/testutil"
)

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}

		time.Sleep(5 * time.Millisecond)
	}
}

func TestSpectrumFindsTone(t *testing.T) {
	t.Parallel()

	const (
		sr    = 48000.0
		block = 512
		bin   = 32
	)

	m := NewSpectrum()
	t.Cleanup(func() { _ = m.Close(time.Second) })

	prepare(t, m, sr, block)

	freq := m.BinFrequency(bin)
	sig := testutil.DeterministicSine(freq, sr, 1, 16*block)

	for off := 0; off < len(sig); off += block {
		blk := testutil.ModuleBlock(m, block, 0)
		copy(blk.In[0], sig[off:off+block])
		m.Process(blk)

		testutil.RequireSliceNearlyEqual(t, blk.Out[0], blk.In[0], 0)
	}

	eventually(t, "spectrum frames", func() bool { return m.Bins() != nil })

	bins := m.Bins()
	peak := 0

	for k, v := range bins {
		if v > bins[peak] {
			peak = k
		}
	}

	if peak != bin {
		t.Fatalf("peak bin = %d, want %d", peak, bin)
	}

	if !strings.Contains(m.Diagnostics(), "frame=1024") {
		t.Fatalf("Diagnostics() = %q", m.Diagnostics())
	}
}

func TestSpectrumClose(t *testing.T) {
	t.Parallel()

	idle := NewSpectrum()
	if err := idle.Close(time.Millisecond); err != nil {
		t.Fatalf("closing an unstarted worker: %v", err)
	}

	m := NewSpectrum()
	prepare(t, m, 48000, 64)

	if err := m.Close(time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := m.Close(time.Second); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestBouncerSimulation(t *testing.T) {
	t.Parallel()

	m := newBouncer(false)
	prepare(t, m, 1000, 100)

	if !m.Spawn(0.5, 0.1, 0, 0) {
		t.Fatal("Spawn rejected")
	}

	for range 100 {
		m.tick(0.01)
		if m.events.Len() > 0 {
			break
		}
	}

	if m.events.Len() == 0 {
		t.Fatal("body never reached the floor")
	}

	bodies := m.Bodies()
	if len(bodies) != 1 || bodies[0].Handle.IsZero() || bodies[0].VY <= 0 {
		t.Fatalf("after bounce: %+v", bodies)
	}

	blk := testutil.ModuleBlock(m, 100)
	m.Process(blk)

	testutil.RequireFinite(t, blk.Out[0])

	if testutil.Peak(blk.Out[0]) == 0 {
		t.Fatal("bounce should be audible")
	}

	h := bodies[0].Handle
	m.Destroy(h)
	m.Destroy(h)
	m.Destroy(arena.Handle{Index: 9, Generation: 3})
	m.tick(0.01)

	if len(m.Bodies()) != 0 {
		t.Fatalf("bodies after destroy: %+v", m.Bodies())
	}
}

func TestBouncerState(t *testing.T) {
	t.Parallel()

	src := newBouncer(false)
	src.Spawn(0.2, 0.9, 0.1, 0)
	src.Spawn(0.8, 0.5, -0.1, 0)
	src.tick(0.001)

	dst := newBouncer(false)
	dst.Spawn(0.5, 0.5, 0, 0)
	dst.tick(0.001)

	if err := dst.SetExtraState(src.ExtraState()); err != nil {
		t.Fatalf("SetExtraState: %v", err)
	}

	if len(dst.Bodies()) != 2 {
		t.Fatalf("restored bodies visible before tick: %d", len(dst.Bodies()))
	}

	dst.tick(0)

	got := dst.Bodies()
	if len(got) != 2 {
		t.Fatalf("bodies after tick = %d, want 2", len(got))
	}

	for i, b := range got {
		if b.Handle.IsZero() {
			t.Fatalf("body %d has no handle", i)
		}
	}

	if math.Abs(got[0].X+got[1].X-1) > 1e-9 {
		t.Fatalf("positions not restored: %+v", got)
	}
}

func TestBouncerRestoreAppliesInOneTick(t *testing.T) {
	t.Parallel()

	first := newBouncer(false)
	first.Spawn(0.1, 0.9, 0, 0)
	first.Spawn(0.2, 0.9, 0, 0)
	first.Spawn(0.3, 0.9, 0, 0)
	first.tick(0)

	second := newBouncer(false)
	second.Spawn(0.7, 0.4, 0, 0)
	second.tick(0)

	m := newBouncer(false)

	if err := m.SetExtraState(first.ExtraState()); err != nil {
		t.Fatal(err)
	}

	if err := m.SetExtraState(second.ExtraState()); err != nil {
		t.Fatal(err)
	}

	m.tick(0)

	got := m.Bodies()
	if len(got) != 1 || math.Abs(got[0].X-0.7) > 1e-9 {
		t.Fatalf("bodies after restore = %+v, want the single body of the last state", got)
	}

	m.tick(0)

	if len(m.Bodies()) != 1 {
		t.Fatalf("restored body lost on a later tick: %+v", m.Bodies())
	}
}

func TestBouncerRejectsOversizedState(t *testing.T) {
	t.Parallel()

	n := statetree.New(tagBodies)
	for range maxBodies + 1 {
		n.AddNew(tagBody)
	}

	m := newBouncer(false)
	if err := m.SetExtraState(n); err == nil {
		t.Fatal("expected error for too many bodies")
	}

	m.tick(0)

	if len(m.Bodies()) != 0 {
		t.Fatalf("rejected state must not apply: %+v", m.Bodies())
	}
}

func TestBouncerWorker(t *testing.T) {
	t.Parallel()

	m := NewBouncer()
	prepare(t, m, 48000, 64)

	m.Spawn(0.5, 0.5, 0, 0)
	eventually(t, "worker tick", func() bool { return len(m.Bodies()) == 1 })

	if err := m.Close(time.Second); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
