package module

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/param"
	"github.com/cwbudde/algo-modular/engine/statetree"
	"github.com/cwbudde/algo-modular/engine/transport"
)

type route struct {
	Routing
	flat int
	last atomic.Uint64
	live atomic.Bool
}

// Base implements the bookkeeping parts of Module. Concrete modules embed it
// and provide Process; they override Prepare, ExtraState and SetExtraState
// as needed.
type Base struct {
	layout bus.Layout
	params *param.Set
	routes map[string]*route
	timing transport.Cell

	sampleRate   float64
	maxBlockSize int
}

// NewBase validates layout and returns a Base. An inconsistent layout panics.
func NewBase(layout bus.Layout, params *param.Set) Base {
	if params == nil {
		params = param.NewSet()
	}

	return Base{
		layout: bus.MustValidate(layout),
		params: params,
		routes: make(map[string]*route),
	}
}

// Route declares that input channel ch of bus busName modulates paramID.
// Unknown parameters or buses panic at construction.
func (b *Base) Route(paramID, busName string, ch int) {
	if b.params.Get(paramID) == nil {
		panic(fmt.Sprintf("module: route for unknown parameter %q", paramID))
	}

	busIndex := b.layout.BusIndex(bus.Input, busName)
	if busIndex < 0 {
		panic(fmt.Sprintf("module: route for %q names unknown input bus %q", paramID, busName))
	}

	flat, ok := b.layout.Channel(bus.Input, busIndex, ch)
	if !ok {
		panic(fmt.Sprintf("module: route for %q: channel %d not on bus %q", paramID, ch, busName))
	}

	b.routes[paramID] = &route{Routing: Routing{Bus: busIndex, Channel: ch}, flat: flat}
}

// Layout implements Module.
func (b *Base) Layout() bus.Layout { return b.layout }

// Params implements Module.
func (b *Base) Params() *param.Set { return b.params }

// Param is shorthand for Params().Get(id).
func (b *Base) Param(id string) *param.Param { return b.params.Get(id) }

// ParamRouting implements Module.
func (b *Base) ParamRouting(paramID string) (Routing, bool) {
	r, ok := b.routes[paramID]
	if !ok {
		return Routing{}, false
	}

	return r.Routing, true
}

// Modulation returns the input channel routed to paramID when something is
// connected to it, or nil. Modules use this rather than indexing In directly
// so that what they read always matches what ParamRouting reports.
func (b *Base) Modulation(blk *Block, paramID string) []float64 {
	r, ok := b.routes[paramID]
	if !ok {
		return nil
	}

	if !blk.IsConnected(r.flat) {
		r.live.Store(false)
		return nil
	}

	return blk.Input(r.flat)
}

// Publish records the effective (modulated) value of paramID for display.
func (b *Base) Publish(paramID string, v float64) {
	if r, ok := b.routes[paramID]; ok {
		r.last.Store(math.Float64bits(v))
		r.live.Store(true)
	}
}

// Modulated returns the last published effective value of paramID and
// whether modulation was active in the most recent block.
func (b *Base) Modulated(paramID string) (float64, bool) {
	r, ok := b.routes[paramID]
	if !ok || !r.live.Load() {
		return 0, false
	}

	return math.Float64frombits(r.last.Load()), true
}

// Prepare implements Module. Embedders that override it call it first.
func (b *Base) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("module: sample rate must be > 0: %v", sampleRate)
	}

	if maxBlockSize <= 0 {
		return fmt.Errorf("module: block size must be > 0: %d", maxBlockSize)
	}

	b.sampleRate = sampleRate
	b.maxBlockSize = maxBlockSize

	return nil
}

// SampleRate returns the rate passed to the last Prepare.
func (b *Base) SampleRate() float64 { return b.sampleRate }

// MaxBlockSize returns the block size passed to the last Prepare.
func (b *Base) MaxBlockSize() int { return b.maxBlockSize }

// ExtraState implements Module; Base has none.
func (b *Base) ExtraState() *statetree.Node { return nil }

// SetExtraState implements Module; Base ignores it.
func (b *Base) SetExtraState(*statetree.Node) error { return nil }

// SetTiming implements Module. It is wait-free.
func (b *Base) SetTiming(st transport.State) { b.timing.Store(st) }

// Timing returns the transport state of the current block.
func (b *Base) Timing() transport.State { return b.timing.Load() }

// TimingVersion returns how many times SetTiming has been called.
func (b *Base) TimingVersion() uint64 { return b.timing.Version() }

// ClearOutputs zeroes every output channel of blk.
func ClearOutputs(blk *Block) {
	for _, ch := range blk.Out {
		for i := range ch {
			ch[i] = 0
		}
	}
}
