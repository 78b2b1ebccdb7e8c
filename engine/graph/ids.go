package graph

import (
	"strconv"
)

// LogicalID is the stable, saved identity of a module. Zero means none.
type LogicalID uint32

// OutputID addresses the hardware output node as a connection destination.
const OutputID LogicalID = ^LogicalID(0)

// String returns the decimal id, or "output" for OutputID.
func (id LogicalID) String() string {
	if id == OutputID {
		return "output"
	}

	return strconv.FormatUint(uint64(id), 10)
}

// ParseLogicalID parses a decimal id or "output".
func ParseLogicalID(s string) (LogicalID, error) {
	if s == "output" {
		return OutputID, nil
	}

	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}

	return LogicalID(v), nil
}

// NodeID is the runtime handle of a node. Zero is the null handle.
type NodeID uint64

const (
	nodeInput NodeID = iota + 1
	nodeOutput
	nodeMIDI

	firstModuleNode
)

// Connection is one edge as seen from outside the graph.
type Connection struct {
	Src        LogicalID
	SrcChannel int
	Dst        LogicalID
	DstChannel int
}

type edge struct {
	src   NodeID
	srcCh int
	dst   NodeID
	dstCh int
}
