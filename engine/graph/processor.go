package graph

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-modular/engine/bus"
	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/registry"
	"github.com/cwbudde/algo-modular/engine/rtqueue"
	"github.com/cwbudde/algo-modular/internal/logging"
)

type node struct {
	id       NodeID
	logical  LogicalID
	typeName string
	mod      module.Module
	layout   bus.Layout
}

// Processor is the processing graph together with its logical id layer.
//
// Mutating and query methods may be called from any non-audio goroutine.
// ProcessBlock is called from a single audio goroutine.
type Processor struct {
	cfg     Config
	logger  *slog.Logger
	reg     *registry.Registry
	session uuid.UUID

	mu          sync.Mutex
	nodes       map[NodeID]*node
	order       []NodeID
	byLogical   map[LogicalID]NodeID
	edges       []edge
	nextLogical LogicalID
	nextNode    NodeID

	plan       atomic.Pointer[plan]
	generation atomic.Uint64
	active     atomic.Int32
	blocks     atomic.Uint64

	faults     *rtqueue.Ring[Fault]
	faultTotal atomic.Uint64
	drainMu    sync.Mutex
	limiter    *logging.Limiter

	// reportedDrops is owned by the maintenance goroutine.
	reportedDrops uint64
}

// New returns an empty processor with the internal nodes published.
func New(opts ...Option) *Processor {
	cfg := applyOptions(opts...)
	if cfg.Registry == nil {
		cfg.Registry = registry.Default
	}

	p := &Processor{
		cfg:         cfg,
		reg:         cfg.Registry,
		session:     uuid.New(),
		nodes:       make(map[NodeID]*node),
		byLogical:   make(map[LogicalID]NodeID),
		nextLogical: 1,
		nextNode:    firstModuleNode,
		faults:      rtqueue.NewRing[Fault](cfg.FaultCapacity),
		limiter:     logging.NewLimiter(time.Second),
	}
	p.logger = logging.Component(cfg.Logger, "graph").With("session", p.session.String())

	p.mu.Lock()
	if err := p.commitLocked(); err != nil {
		p.logger.Error("initial commit failed", "err", err)
	}
	p.mu.Unlock()

	return p
}

// SessionID identifies this processor instance in logs and saved presets.
func (p *Processor) SessionID() uuid.UUID { return p.session }

// Config returns the active configuration.
func (p *Processor) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.cfg
}

// Logger returns the processor's component logger.
func (p *Processor) Logger() *slog.Logger { return p.logger }

// Registry returns the factory table modules are created from.
func (p *Processor) Registry() *registry.Registry { return p.reg }

// Generation returns the number of plans published so far.
func (p *Processor) Generation() uint64 { return p.generation.Load() }

// Batch runs fn with the graph locked and commits exactly once afterwards,
// whether or not fn fails. Mutations made through tx before a failure stay
// in effect.
func (p *Processor) Batch(fn func(tx *Tx) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := fn(&Tx{p: p})

	if cerr := p.commitLocked(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}

// AddModule creates a module of the named type and returns its logical id.
// An unknown type is logged and returns 0 with ErrUnknownType.
func (p *Processor) AddModule(typeName string) (LogicalID, error) {
	var id LogicalID

	err := p.Batch(func(tx *Tx) error {
		var err error

		id, err = tx.AddModule(typeName)

		return err
	})

	return id, err
}

// RemoveModule removes the module and every edge touching it. It reports
// whether the module existed.
func (p *Processor) RemoveModule(id LogicalID) bool {
	removed := false

	_ = p.Batch(func(tx *Tx) error {
		removed = tx.RemoveModule(id)
		return nil
	})

	return removed
}

// Connect adds an edge from output channel srcCh of src to input channel
// dstCh of dst, or to hardware output channel dstCh when dst is OutputID.
// A rejected edge is logged and leaves the edge set unchanged.
func (p *Processor) Connect(src LogicalID, srcCh int, dst LogicalID, dstCh int) error {
	return p.Batch(func(tx *Tx) error {
		return tx.Connect(src, srcCh, dst, dstCh)
	})
}

// Disconnect removes an edge. It returns ErrNoSuchEdge if it did not exist.
func (p *Processor) Disconnect(src LogicalID, srcCh int, dst LogicalID, dstCh int) error {
	return p.Batch(func(tx *Tx) error {
		return tx.Disconnect(src, srcCh, dst, dstCh)
	})
}

// SetInputMapping rewires which hardware input channels feed module id:
// hardware channel channels[i] feeds the module's input channel i, and a
// negative entry leaves that channel silent. The old and new edges swap
// inside one commit.
func (p *Processor) SetInputMapping(id LogicalID, channels []int) error {
	return p.Batch(func(tx *Tx) error {
		return tx.SetInputMapping(id, channels)
	})
}

// Clear removes every module and edge. Logical ids are not reused
// afterwards.
func (p *Processor) Clear() {
	_ = p.Batch(func(tx *Tx) error {
		tx.Clear()
		return nil
	})
}

// Commit recomputes the execution order and publishes it.
func (p *Processor) Commit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.commitLocked()
}

// PrepareToPlay re-prepares every module for a new sample rate or block
// size and republishes the plan. Audio processing is paused while modules
// are prepared; blocks rendered meanwhile are silent.
func (p *Processor) PrepareToPlay(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 || blockSize <= 0 {
		return fmt.Errorf("graph: invalid prepare %v Hz / %d frames", sampleRate, blockSize)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.plan.Store(nil)
	p.quiesce()

	p.cfg.SampleRate = sampleRate
	p.cfg.BlockSize = blockSize

	var firstErr error

	for _, id := range p.order {
		n := p.nodes[id]
		if err := n.mod.Prepare(sampleRate, blockSize); err != nil {
			p.logger.Error("prepare failed", "module", n.logical, "type", n.typeName, "err", err)

			if firstErr == nil {
				firstErr = fmt.Errorf("graph: prepare %s %d: %w", n.typeName, n.logical, err)
			}
		}
	}

	if err := p.commitLocked(); err != nil && firstErr == nil {
		firstErr = err
	}

	p.logger.Info("prepared", "sample_rate", sampleRate, "block_size", blockSize, "modules", len(p.order))

	return firstErr
}

// Close removes every module, stopping their background workers, and
// publishes an empty plan.
func (p *Processor) Close() error {
	p.Clear()
	return nil
}

// quiesce waits until no ProcessBlock call is in flight. Callers have
// already unpublished the plan, so new blocks render silence.
func (p *Processor) quiesce() {
	for p.active.Load() != 0 {
		time.Sleep(50 * time.Microsecond)
	}
}

func (p *Processor) liveNode(id LogicalID) (*node, error) {
	nid, ok := p.byLogical[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, id)
	}

	return p.nodes[nid], nil
}

func (p *Processor) hasEdge(e edge) bool {
	return slices.Contains(p.edges, e)
}
