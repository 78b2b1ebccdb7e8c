// Package caps is the process-wide capability cache.
//
// Hardware and driver capabilities are queried exactly once, at startup,
// and published as an immutable Snapshot. Every consumer, on any goroutine,
// reads capabilities through Get; nothing else in the module queries the
// CPU or the audio driver for them.
package caps

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// Device describes the audio device the engine runs on.
type Device struct {
	Name              string
	Inputs            int
	Outputs           int
	DefaultSampleRate float64
}

// Snapshot is the immutable capability set.
type Snapshot struct {
	CPU    cpu.Features
	Device Device
}

// SIMD returns a short description of the usable vector extensions.
func (s Snapshot) SIMD() string {
	if s.CPU.ForceGeneric {
		return "generic"
	}

	var ext []string

	for _, f := range []struct {
		on   bool
		name string
	}{
		{s.CPU.HasSSE2, "sse2"},
		{s.CPU.HasAVX, "avx"},
		{s.CPU.HasAVX2, "avx2"},
		{s.CPU.HasAVX512, "avx512"},
		{s.CPU.HasNEON, "neon"},
	} {
		if f.on {
			ext = append(ext, f.name)
		}
	}

	if len(ext) == 0 {
		return "generic"
	}

	return strings.Join(ext, ",")
}

// String implements fmt.Stringer.
func (s Snapshot) String() string {
	return fmt.Sprintf("arch=%s simd=%s device=%q in=%d out=%d rate=%g",
		s.CPU.Architecture, s.SIMD(), s.Device.Name,
		s.Device.Inputs, s.Device.Outputs, s.Device.DefaultSampleRate)
}

// DefaultDevice is used when no device was reported before first use.
var DefaultDevice = Device{Name: "none", Inputs: 2, Outputs: 2, DefaultSampleRate: 48000}

var (
	once    sync.Once
	current atomic.Pointer[Snapshot]
)

// Init records the device capabilities and detects CPU features. Only the
// first call to Init or Get initialises the cache; Init reports whether it
// was that call.
func Init(dev Device) bool {
	initialised := false

	once.Do(func() {
		store(dev)

		initialised = true
	})

	return initialised
}

// Get returns the cached capabilities, initialising them with DefaultDevice
// if Init was never called.
func Get() Snapshot {
	once.Do(func() { store(DefaultDevice) })

	return *current.Load()
}

func store(dev Device) {
	if dev.Inputs < 0 {
		dev.Inputs = 0
	}

	if dev.Outputs < 0 {
		dev.Outputs = 0
	}

	current.Store(&Snapshot{CPU: cpu.DetectFeatures(), Device: dev})
}
