// Package rtqueue provides bounded lock-free queues for passing data between
// the audio thread and worker goroutines. Slots are preallocated; neither
// side allocates after construction.
//
// When a queue is full the newest item is rejected and counted in Dropped.
package rtqueue

import (
	"sync/atomic"
)

// Ring is a single-producer single-consumer queue.
//
// The producer either calls Push or the Reserve/Commit pair; the consumer
// either calls Pop or the Peek/Release pair. Reserve and Peek hand out a
// pointer into the ring so that large values are filled and read in place.
type Ring[T any] struct {
	slots []T
	mask  uint64

	head    atomic.Uint64 // next slot to read
	tail    atomic.Uint64 // next slot to write
	dropped atomic.Uint64
}

// NewRing returns a ring holding at least capacity items. The capacity is
// rounded up to a power of two.
func NewRing[T any](capacity int) *Ring[T] {
	size := nextPowerOf2(capacity)

	return &Ring[T]{
		slots: make([]T, size),
		mask:  uint64(size - 1),
	}
}

// Reserve returns the slot the next Commit will publish, or false when the
// ring is full. A failed Reserve counts as a dropped item.
func (r *Ring[T]) Reserve() (*T, bool) {
	tail := r.tail.Load()
	if tail-r.head.Load() == uint64(len(r.slots)) {
		r.dropped.Add(1)
		return nil, false
	}

	return &r.slots[tail&r.mask], true
}

// Commit publishes the slot returned by the last successful Reserve.
func (r *Ring[T]) Commit() {
	r.tail.Add(1)
}

// Push copies v into the ring. It returns false when the ring is full.
func (r *Ring[T]) Push(v T) bool {
	slot, ok := r.Reserve()
	if !ok {
		return false
	}

	*slot = v
	r.Commit()

	return true
}

// Peek returns the oldest unread slot, or false when the ring is empty. The
// slot stays valid until Release.
func (r *Ring[T]) Peek() (*T, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return nil, false
	}

	return &r.slots[head&r.mask], true
}

// Release frees the slot returned by the last successful Peek.
func (r *Ring[T]) Release() {
	r.head.Add(1)
}

// Pop removes and returns the oldest item.
func (r *Ring[T]) Pop() (T, bool) {
	slot, ok := r.Peek()
	if !ok {
		var zero T
		return zero, false
	}

	v := *slot
	r.Release()

	return v, true
}

// Len returns the number of unread items. It is exact only when called from
// the producer or the consumer while the other side is idle.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.slots) }

// Dropped returns how many items were rejected because the ring was full.
func (r *Ring[T]) Dropped() uint64 { return r.dropped.Load() }

func nextPowerOf2(n int) int {
	if n < 2 {
		return 2
	}

	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
