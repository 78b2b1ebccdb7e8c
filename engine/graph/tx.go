package graph

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-modular/engine/module"
	"github.com/cwbudde/algo-modular/engine/statetree"
)

// Tx is the mutation surface available inside Processor.Batch. Nothing
// done through it reaches the audio thread until the batch commits.
type Tx struct {
	p *Processor
}

// AddModule creates a module of the named type and assigns it the next
// logical id.
func (tx *Tx) AddModule(typeName string) (LogicalID, error) {
	p := tx.p

	name, factory, ok := p.reg.Lookup(typeName)
	if !ok {
		p.logger.Warn("unknown module type", "type", typeName)
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}

	mod, err := factory()
	if err != nil {
		p.logger.Warn("module factory failed", "type", name, "err", err)
		return 0, fmt.Errorf("graph: create %s: %w", name, err)
	}

	if mod == nil {
		return 0, fmt.Errorf("graph: factory for %s returned no module", name)
	}

	if err := mod.Prepare(p.cfg.SampleRate, p.cfg.BlockSize); err != nil {
		return 0, fmt.Errorf("graph: prepare %s: %w", name, err)
	}

	n := &node{
		id:       p.nextNode,
		logical:  p.nextLogical,
		typeName: name,
		mod:      mod,
		layout:   mod.Layout(),
	}
	p.nextNode++
	p.nextLogical++

	p.nodes[n.id] = n
	p.order = append(p.order, n.id)
	p.byLogical[n.logical] = n.id

	if mapper, ok := mod.(module.InputMapper); ok {
		tx.applyMapping(n, mapper, defaultMapping(n.layout.NumInputs(), p.cfg.HardwareInputs))
	}

	p.logger.Debug("module added", "module", n.logical, "type", name, "node", n.id)

	return n.logical, nil
}

// RemoveModule removes the module and its edges, then stops its workers.
func (tx *Tx) RemoveModule(id LogicalID) bool {
	p := tx.p

	nid, ok := p.byLogical[id]
	if !ok {
		return false
	}

	n := p.nodes[nid]

	p.edges = slices.DeleteFunc(p.edges, func(e edge) bool {
		return e.src == nid || e.dst == nid
	})

	delete(p.nodes, nid)
	delete(p.byLogical, id)
	p.order = slices.DeleteFunc(p.order, func(x NodeID) bool { return x == nid })

	tx.closeModule(n)

	p.logger.Debug("module removed", "module", id, "type", n.typeName)

	return true
}

// Clear removes every module and edge.
func (tx *Tx) Clear() {
	p := tx.p

	for _, nid := range p.order {
		tx.closeModule(p.nodes[nid])
	}

	clear(p.nodes)
	clear(p.byLogical)
	p.order = p.order[:0]
	p.edges = p.edges[:0]
}

// ReserveIDs advances the next logical id past floor.
func (tx *Tx) ReserveIDs(floor LogicalID) {
	if floor != OutputID && floor >= tx.p.nextLogical {
		tx.p.nextLogical = floor + 1
	}
}

// NextID returns the id the next AddModule will assign.
func (tx *Tx) NextID() LogicalID { return tx.p.nextLogical }

// Reassign moves module from to logical id to. Edges follow the module.
func (tx *Tx) Reassign(from, to LogicalID) error {
	p := tx.p

	if from == to {
		if _, ok := p.byLogical[from]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownModule, from)
		}

		return nil
	}

	if to == 0 || to == OutputID {
		return fmt.Errorf("graph: invalid logical id %d", uint32(to))
	}

	nid, ok := p.byLogical[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownModule, from)
	}

	if _, taken := p.byLogical[to]; taken {
		return fmt.Errorf("%w: %s", ErrIDInUse, to)
	}

	delete(p.byLogical, from)
	p.byLogical[to] = nid
	p.nodes[nid].logical = to
	tx.ReserveIDs(to)

	return nil
}

// Module returns the module for id, or nil.
func (tx *Tx) Module(id LogicalID) module.Module {
	n, err := tx.p.liveNode(id)
	if err != nil {
		return nil
	}

	return n.mod
}

// SetExtraState hands tree to the module's auxiliary state hook and, for
// hardware input modules, rewires the restored mapping. Mapping entries the
// current hardware cannot serve are left silent.
func (tx *Tx) SetExtraState(id LogicalID, tree *statetree.Node) error {
	n, err := tx.p.liveNode(id)
	if err != nil {
		return err
	}

	if err := n.mod.SetExtraState(tree); err != nil {
		return fmt.Errorf("graph: restore %s %s: %w", n.typeName, id, err)
	}

	if mapper, ok := n.mod.(module.InputMapper); ok {
		channels := slices.Clone(mapper.InputMapping())
		for i, ch := range channels {
			if ch >= tx.p.cfg.HardwareInputs {
				channels[i] = -1
			}
		}

		tx.applyMapping(n, mapper, channels)
	}

	return nil
}

// Connect adds an edge after validating both endpoints.
func (tx *Tx) Connect(src LogicalID, srcCh int, dst LogicalID, dstCh int) error {
	p := tx.p

	e, err := tx.resolve(src, srcCh, dst, dstCh)
	if err == nil && p.hasEdge(e) {
		err = ErrDuplicateEdge
	}

	if err == nil && e.dst != nodeOutput && (e.src == e.dst || tx.reaches(e.dst, e.src)) {
		err = ErrCycle
	}

	if err != nil {
		p.logger.Warn("connect rejected",
			"src", src, "src_channel", srcCh, "dst", dst, "dst_channel", dstCh, "err", err)

		return fmt.Errorf("graph: connect %s:%d -> %s:%d: %w", src, srcCh, dst, dstCh, err)
	}

	p.edges = append(p.edges, e)

	return nil
}

// Disconnect removes an edge.
func (tx *Tx) Disconnect(src LogicalID, srcCh int, dst LogicalID, dstCh int) error {
	p := tx.p

	e, err := tx.resolve(src, srcCh, dst, dstCh)
	if err == nil {
		i := slices.Index(p.edges, e)
		if i < 0 {
			err = ErrNoSuchEdge
		} else {
			p.edges = slices.Delete(p.edges, i, i+1)
		}
	}

	if err != nil {
		p.logger.Warn("disconnect rejected",
			"src", src, "src_channel", srcCh, "dst", dst, "dst_channel", dstCh, "err", err)

		return fmt.Errorf("graph: disconnect %s:%d -> %s:%d: %w", src, srcCh, dst, dstCh, err)
	}

	return nil
}

// SetInputMapping validates channels and rewires the hardware edges of a
// hardware input module.
func (tx *Tx) SetInputMapping(id LogicalID, channels []int) error {
	n, err := tx.p.liveNode(id)
	if err != nil {
		return err
	}

	mapper, ok := n.mod.(module.InputMapper)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNotInputModule, n.typeName, id)
	}

	if len(channels) > n.layout.NumInputs() {
		return fmt.Errorf("%w: %d mapped channels for %d inputs",
			ErrChannelRange, len(channels), n.layout.NumInputs())
	}

	for _, ch := range channels {
		if ch >= tx.p.cfg.HardwareInputs {
			return fmt.Errorf("%w: hardware input %d of %d", ErrChannelRange, ch, tx.p.cfg.HardwareInputs)
		}
	}

	tx.applyMapping(n, mapper, slices.Clone(channels))

	return nil
}

func (tx *Tx) applyMapping(n *node, mapper module.InputMapper, channels []int) {
	p := tx.p

	p.edges = slices.DeleteFunc(p.edges, func(e edge) bool {
		return e.src == nodeInput && e.dst == n.id
	})

	for i, ch := range channels {
		if ch >= 0 {
			p.edges = append(p.edges, edge{src: nodeInput, srcCh: ch, dst: n.id, dstCh: i})
		}
	}

	mapper.SetInputMapping(channels)
}

func (tx *Tx) resolve(src LogicalID, srcCh int, dst LogicalID, dstCh int) (edge, error) {
	p := tx.p

	if src == OutputID {
		return edge{}, fmt.Errorf("%w: output is not a source", ErrUnknownModule)
	}

	sn, err := p.liveNode(src)
	if err != nil {
		return edge{}, err
	}

	if srcCh < 0 || srcCh >= sn.layout.NumOutputs() {
		return edge{}, fmt.Errorf("%w: source channel %d of %d", ErrChannelRange, srcCh, sn.layout.NumOutputs())
	}

	if dst == OutputID {
		if dstCh < 0 || dstCh >= p.cfg.HardwareOutputs {
			return edge{}, fmt.Errorf("%w: output channel %d of %d", ErrChannelRange, dstCh, p.cfg.HardwareOutputs)
		}

		return edge{src: sn.id, srcCh: srcCh, dst: nodeOutput, dstCh: dstCh}, nil
	}

	dn, err := p.liveNode(dst)
	if err != nil {
		return edge{}, err
	}

	if dstCh < 0 || dstCh >= dn.layout.NumInputs() {
		return edge{}, fmt.Errorf("%w: destination channel %d of %d", ErrChannelRange, dstCh, dn.layout.NumInputs())
	}

	if _, ok := dn.mod.(module.InputMapper); ok {
		return edge{}, ErrReservedInput
	}

	return edge{src: sn.id, srcCh: srcCh, dst: dn.id, dstCh: dstCh}, nil
}

// reaches reports whether a path of module edges leads from one node to
// another.
func (tx *Tx) reaches(from, to NodeID) bool {
	seen := map[NodeID]bool{from: true}
	stack := []NodeID{from}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == to {
			return true
		}

		for _, e := range tx.p.edges {
			if e.src == cur && !seen[e.dst] {
				seen[e.dst] = true
				stack = append(stack, e.dst)
			}
		}
	}

	return false
}

func (tx *Tx) closeModule(n *node) {
	w, ok := n.mod.(module.Worker)
	if !ok {
		return
	}

	if err := w.Close(tx.p.cfg.CloseTimeout); err != nil {
		tx.p.logger.Warn("module worker did not stop", "module", n.logical, "type", n.typeName, "err", err)
	}
}

func defaultMapping(moduleInputs, hardwareInputs int) []int {
	n := min(moduleInputs, hardwareInputs)
	channels := make([]int, n)

	for i := range channels {
		channels[i] = i
	}

	return channels
}
