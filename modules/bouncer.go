package modules

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-modular/engine/arena"
	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/rtqueue"
	"github.com/cwbudde/algo-modular/engine/statetree"
)

const (
	maxBodies       = 64
	bouncerVoices   = 8
	bouncerTick     = 10 * time.Millisecond
	bounceRestSpeed = 0.05

	tagBodies = "bodies"
	tagBody   = "body"
)

// Body is a snapshot of one simulated ball. Positions are in a unit box
// with the floor at Y=0.
type Body struct {
	Handle arena.Handle
	X, Y   float64
	VX, VY float64
}

type spawnRequest struct {
	x, y, vx, vy float64
}

type bounceEvent struct {
	speed float64
	x     float64
}

type voice struct {
	amp   float64
	phase float64
	inc   float64
}

// Bouncer simulates balls falling in a box and renders a click whenever one
// hits the floor. Spawn and Destroy may be called from any goroutine; the
// simulation runs on its own worker and hands bounce events to the audio
// thread through a lock-free ring.
type Bouncer struct {
	module.Base

	spawns  *rtqueue.Queue[spawnRequest]
	destroy *rtqueue.Queue[arena.Handle]
	restore atomic.Pointer[[]Body]
	events  *rtqueue.Ring[bounceEvent]

	snapshot atomic.Pointer[[]Body]

	autoStart bool
	start     sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}

	// worker owned
	bodies *arena.Arena[Body]
	seen   map[arena.Handle]struct{}

	// audio-thread owned
	voices [bouncerVoices]voice
	next   int
}

// NewBouncer returns an empty box whose worker starts on Prepare.
func NewBouncer() *Bouncer { return newBouncer(true) }

func newBouncer(autoStart bool) *Bouncer {
	return &Bouncer{
		Base: module.NewBase(
			bus.NewBuilder().MonoOut("Out").Build(),
			param.NewSet(
				param.Float("gravity", "Gravity", 0.1, 30, 9.81),
				param.Float("restitution", "Restitution", 0, 0.99, 0.7),
				param.Float("decay", "Click Decay", 0.001, 1, 0.05).WithUnit("s"),
				param.Float("level", "Level", 0, 1, 0.5),
			),
		),
		spawns:    rtqueue.NewQueue[spawnRequest](maxBodies),
		destroy:   rtqueue.NewQueue[arena.Handle](maxBodies),
		events:    rtqueue.NewRing[bounceEvent](maxBodies),
		autoStart: autoStart,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		bodies:    arena.New[Body](maxBodies),
		seen:      make(map[arena.Handle]struct{}, maxBodies),
	}
}

// Prepare implements module.Module.
func (m *Bouncer) Prepare(sampleRate float64, maxBlockSize int) error {
	if err := m.Base.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}

	m.voices = [bouncerVoices]voice{}

	if m.autoStart {
		m.start.Do(func() {
			m.started.Store(true)
			go m.run()
		})
	}

	return nil
}

// Spawn requests a new body. It returns false when the request queue is
// full.
func (m *Bouncer) Spawn(x, y, vx, vy float64) bool {
	return m.spawns.Push(spawnRequest{x: x, y: y, vx: vx, vy: vy})
}

// Destroy requests removal of the body with handle h. Repeated requests
// for the same body within one tick are coalesced; stale handles are
// ignored.
func (m *Bouncer) Destroy(h arena.Handle) bool {
	return m.destroy.Push(h)
}

// Bodies returns the body list as of the last worker tick.
func (m *Bouncer) Bodies() []Body {
	if p := m.snapshot.Load(); p != nil {
		return *p
	}

	return nil
}

// Diagnostics implements module.Diagnoser.
func (m *Bouncer) Diagnostics() string {
	return fmt.Sprintf("bodies=%d spawnDropped=%d eventsDropped=%d",
		len(m.Bodies()), m.spawns.Dropped(), m.events.Dropped())
}

// Process implements module.Module.
func (m *Bouncer) Process(blk *module.Block) {
	out := blk.Out[0]
	sr := m.SampleRate()

	for {
		ev, ok := m.events.Pop()
		if !ok {
			break
		}

		v := &m.voices[m.next]
		m.next = (m.next + 1) % bouncerVoices
		v.amp = min(ev.speed/5, 1)
		v.phase = 0
		v.inc = (600 + 1200*ev.x) / sr
	}

	level := m.Param("level").Value()
	decay := math.Exp(-1 / (m.Param("decay").Value() * sr))

	for i := range out {
		var sum float64

		for k := range m.voices {
			v := &m.voices[k]
			if v.amp < 1e-5 {
				continue
			}

			sum += v.amp * math.Sin(2*math.Pi*v.phase)
			v.phase += v.inc
			v.phase -= math.Floor(v.phase)
			v.amp *= decay
		}

		out[i] = level * sum
	}
}

// Close implements module.Worker.
func (m *Bouncer) Close(timeout time.Duration) error {
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

func (m *Bouncer) run() {
	defer close(m.done)

	ticker := time.NewTicker(bouncerTick)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.tick(bouncerTick.Seconds())
		}
	}
}

// tick applies pending requests, advances the simulation by dt seconds and
// publishes a new snapshot.
func (m *Bouncer) tick(dt float64) {
	if list := m.restore.Swap(nil); list != nil {
		m.bodies.Clear()

		for _, b := range *list {
			b.Handle = arena.Handle{}
			m.bodies.Insert(b)
		}
	}

	for {
		req, ok := m.spawns.Pop()
		if !ok {
			break
		}

		m.bodies.Insert(Body{X: req.x, Y: req.y, VX: req.vx, VY: req.vy})
	}

	rtqueue.DrainDistinct(m.destroy, m.seen, func(h arena.Handle) {
		m.bodies.Remove(h)
	})

	gravity := m.Param("gravity").Value()
	restitution := m.Param("restitution").Value()

	m.bodies.Each(func(_ arena.Handle, b *Body) {
		b.VY -= gravity * dt
		b.X += b.VX * dt
		b.Y += b.VY * dt

		if b.X < 0 || b.X > 1 {
			b.X = min(max(b.X, 0), 1)
			b.VX = -b.VX
		}

		if b.Y <= 0 {
			speed := -b.VY
			b.Y = 0
			b.VY = speed * restitution

			if speed > bounceRestSpeed {
				m.events.Push(bounceEvent{speed: speed, x: b.X})
			} else {
				b.VY = 0
			}
		}
	})

	m.publish()
}

func (m *Bouncer) publish() {
	list := make([]Body, 0, m.bodies.Len())
	m.bodies.Each(func(h arena.Handle, b *Body) {
		c := *b
		c.Handle = h
		list = append(list, c)
	})

	m.snapshot.Store(&list)
}

// ExtraState stores the current bodies.
func (m *Bouncer) ExtraState() *statetree.Node {
	root := statetree.New(tagBodies)

	for _, b := range m.Bodies() {
		root.AddNew(tagBody).
			SetFloat("x", b.X).SetFloat("y", b.Y).
			SetFloat("vx", b.VX).SetFloat("vy", b.VY)
	}

	return root
}

// SetExtraState replaces the bodies with those in n on the next tick. The
// whole list is applied by a single tick; a later call before that tick
// supersedes it.
func (m *Bouncer) SetExtraState(n *statetree.Node) error {
	if n == nil || n.Tag != tagBodies {
		return nil
	}

	entries := n.ChildrenNamed(tagBody)
	if len(entries) > maxBodies {
		return fmt.Errorf("bouncer: too many bodies (%d, max %d)", len(entries), maxBodies)
	}

	pending := make([]Body, 0, len(entries))

	for _, c := range entries {
		pending = append(pending, Body{
			X: c.FloatOr("x", 0.5), Y: c.FloatOr("y", 1),
			VX: c.FloatOr("vx", 0), VY: c.FloatOr("vy", 0),
		})
	}

	m.restore.Store(&pending)

	// Handles are assigned on the next tick.
	shown := slices.Clone(pending)
	m.snapshot.Store(&shown)

	return nil
}
