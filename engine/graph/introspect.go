package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/cwbudde/algo-modular/engine/module"
)

// ModuleInfo describes one live module.
type ModuleInfo struct {
	ID      LogicalID
	Node    NodeID
	Type    string
	Inputs  int
	Outputs int
	Module  module.Module
}

// Topology is a consistent view of modules and connections.
type Topology struct {
	Modules     []ModuleInfo
	Connections []Connection
}

// Topology returns modules sorted by logical id and the connections
// between them in insertion order. Edges touching internal nodes other than
// the hardware output are not connections.
func (p *Processor) Topology() Topology {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Topology{Modules: p.modulesLocked(), Connections: p.connectionsLocked()}
}

// ModulesInfo returns the live modules sorted by logical id.
func (p *Processor) ModulesInfo() []ModuleInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.modulesLocked()
}

// ConnectionsInfo returns the connections in insertion order.
func (p *Processor) ConnectionsInfo() []Connection {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.connectionsLocked()
}

// Module returns the module for id, or nil.
func (p *Processor) Module(id LogicalID) module.Module {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.liveNode(id)
	if err != nil {
		return nil
	}

	return n.mod
}

// ModuleType returns the registered type name for id, or "".
func (p *Processor) ModuleType(id LogicalID) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.liveNode(id)
	if err != nil {
		return ""
	}

	return n.typeName
}

// NodeIDForLogical returns the runtime handle for id, or 0.
func (p *Processor) NodeIDForLogical(id LogicalID) NodeID {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.byLogical[id]
}

// LogicalIDForNode returns the logical id for a runtime handle, or 0 for
// unknown and internal nodes.
func (p *Processor) LogicalIDForNode(nid NodeID) LogicalID {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n, ok := p.nodes[nid]; ok {
		return n.logical
	}

	return 0
}

// Dump returns a human-readable description of the graph state.
func (p *Processor) Dump() string {
	p.mu.Lock()
	mods := p.modulesLocked()
	conns := p.connectionsLocked()
	internal := 0

	for _, e := range p.edges {
		if e.src == nodeInput {
			internal++
		}
	}

	cfg := p.cfg
	p.mu.Unlock()

	var b strings.Builder

	fmt.Fprintf(&b, "session %s generation %d blocks %d faults %d\n",
		p.session, p.Generation(), p.Blocks(), p.FaultCount())
	fmt.Fprintf(&b, "rate %g Hz, block %d, hardware %d in / %d out\n",
		cfg.SampleRate, cfg.BlockSize, cfg.HardwareInputs, cfg.HardwareOutputs)
	fmt.Fprintf(&b, "modules (%d):\n", len(mods))

	for _, m := range mods {
		fmt.Fprintf(&b, "  %s %s node=%d in=%d out=%d\n", m.ID, m.Type, m.Node, m.Inputs, m.Outputs)

		if d, ok := m.Module.(module.Diagnoser); ok {
			for line := range strings.SplitSeq(strings.TrimRight(d.Diagnostics(), "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}

	fmt.Fprintf(&b, "connections (%d, %d hardware input):\n", len(conns), internal)

	for _, c := range conns {
		fmt.Fprintf(&b, "  %s:%d -> %s:%d\n", c.Src, c.SrcChannel, c.Dst, c.DstChannel)
	}

	return b.String()
}

func (p *Processor) modulesLocked() []ModuleInfo {
	out := make([]ModuleInfo, 0, len(p.order))

	for _, nid := range p.order {
		n := p.nodes[nid]
		out = append(out, ModuleInfo{
			ID:      n.logical,
			Node:    n.id,
			Type:    n.typeName,
			Inputs:  n.layout.NumInputs(),
			Outputs: n.layout.NumOutputs(),
			Module:  n.mod,
		})
	}

	slices.SortFunc(out, func(a, b ModuleInfo) int { return cmp.Compare(a.ID, b.ID) })

	return out
}

func (p *Processor) connectionsLocked() []Connection {
	out := make([]Connection, 0, len(p.edges))

	for _, e := range p.edges {
		src, ok := p.nodes[e.src]
		if !ok {
			continue
		}

		c := Connection{Src: src.logical, SrcChannel: e.srcCh, DstChannel: e.dstCh}

		if e.dst == nodeOutput {
			c.Dst = OutputID
		} else {
			dst, ok := p.nodes[e.dst]
			if !ok {
				continue
			}

			c.Dst = dst.logical
		}

		out = append(out, c)
	}

	return out
}
