// Package graph hosts modules in a directed acyclic processing graph.
//
// A Processor owns the nodes and edges. Control goroutines mutate them under
// a mutex and publish an immutable execution plan through an atomic
// pointer; the audio thread loads that pointer once per block and never
// locks, allocates or blocks. A plan that has been replaced stays valid for
// as long as a block still uses it.
//
// Modules are addressed from outside by LogicalID, a stable identity that
// is saved in presets. NodeID is the runtime handle behind it and may be
// reissued when a patch is reloaded.
//
// Three internal nodes are always present: the hardware input, the hardware
// output and the MIDI pass-through. Only the hardware output is addressable,
// through the OutputID sentinel.
package graph
