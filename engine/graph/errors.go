package graph

import "errors"

var (
	// ErrUnknownType is returned when no factory matches a type name.
	ErrUnknownType = errors.New("graph: unknown module type")
	// ErrUnknownModule is returned for a logical id that is not live.
	ErrUnknownModule = errors.New("graph: unknown module")
	// ErrChannelRange is returned for a channel outside a bus layout.
	ErrChannelRange = errors.New("graph: channel out of range")
	// ErrCycle is returned when a connection would close a loop.
	ErrCycle = errors.New("graph: connection would create a cycle")
	// ErrDuplicateEdge is returned when the edge already exists.
	ErrDuplicateEdge = errors.New("graph: duplicate connection")
	// ErrNoSuchEdge is returned when disconnecting an absent edge.
	ErrNoSuchEdge = errors.New("graph: no such connection")
	// ErrIDInUse is returned when reassigning to a taken logical id.
	ErrIDInUse = errors.New("graph: logical id in use")
	// ErrReservedInput is returned when connecting into inputs fed by
	// hardware channel mapping.
	ErrReservedInput = errors.New("graph: input is reserved for hardware mapping")
	// ErrNotInputModule is returned when remapping a module that has no
	// hardware input mapping.
	ErrNotInputModule = errors.New("graph: module has no hardware input mapping")
)
