// Package bus declares the named input and output buses of a module and maps
// bus-relative channels onto the flat channel numbering used by graph edges.
package bus

import (
	"errors"
	"fmt"
)

// Direction of a bus relative to its module.
type Direction int

const (
	Input Direction = iota
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	if d == Output {
		return "output"
	}

	return "input"
}

// Bus is a named group of one or more channels.
type Bus struct {
	Name     string
	Channels int
}

// Layout is the complete bus declaration of a module. Channels are numbered
// flat across buses in declaration order: the first channel of the second
// input bus follows the last channel of the first input bus.
type Layout struct {
	Inputs  []Bus
	Outputs []Bus

	// MIDI is set when the module consumes the block MIDI buffer.
	MIDI bool
}

var (
	errEmptyName    = errors.New("bus: empty bus name")
	errNoChannels   = errors.New("bus: bus must have at least one channel")
	errDuplicateBus = errors.New("bus: duplicate bus name")
)

// NumInputs returns the total input channel count.
func (l Layout) NumInputs() int { return total(l.Inputs) }

// NumOutputs returns the total output channel count.
func (l Layout) NumOutputs() int { return total(l.Outputs) }

// Buses returns the buses for the given direction.
func (l Layout) Buses(dir Direction) []Bus {
	if dir == Output {
		return l.Outputs
	}

	return l.Inputs
}

// Channel returns the flat channel index of channel ch on bus busIndex.
func (l Layout) Channel(dir Direction, busIndex, ch int) (int, bool) {
	buses := l.Buses(dir)
	if busIndex < 0 || busIndex >= len(buses) {
		return 0, false
	}

	if ch < 0 || ch >= buses[busIndex].Channels {
		return 0, false
	}

	flat := 0
	for i := 0; i < busIndex; i++ {
		flat += buses[i].Channels
	}

	return flat + ch, true
}

// Locate converts a flat channel index back to (busIndex, channel).
func (l Layout) Locate(dir Direction, flat int) (busIndex, ch int, ok bool) {
	if flat < 0 {
		return 0, 0, false
	}

	for i, b := range l.Buses(dir) {
		if flat < b.Channels {
			return i, flat, true
		}

		flat -= b.Channels
	}

	return 0, 0, false
}

// BusIndex returns the index of the named bus, or -1.
func (l Layout) BusIndex(dir Direction, name string) int {
	for i, b := range l.Buses(dir) {
		if b.Name == name {
			return i
		}
	}

	return -1
}

// Validate reports inconsistent declarations.
func (l Layout) Validate() error {
	for _, dir := range []Direction{Input, Output} {
		seen := make(map[string]struct{})

		for i, b := range l.Buses(dir) {
			if b.Name == "" {
				return fmt.Errorf("%w: %s bus %d", errEmptyName, dir, i)
			}

			if b.Channels < 1 {
				return fmt.Errorf("%w: %s bus %q", errNoChannels, dir, b.Name)
			}

			if _, dup := seen[b.Name]; dup {
				return fmt.Errorf("%w: %s bus %q", errDuplicateBus, dir, b.Name)
			}

			seen[b.Name] = struct{}{}
		}
	}

	return nil
}

// MustValidate panics if l is inconsistent. Module constructors call it so
// that a bad declaration fails when the module type is first built.
func MustValidate(l Layout) Layout {
	if err := l.Validate(); err != nil {
		panic(err.Error())
	}

	return l
}

func total(buses []Bus) int {
	n := 0
	for _, b := range buses {
		n += b.Channels
	}

	return n
}
