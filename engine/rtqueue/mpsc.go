package rtqueue

import (
	"sync/atomic"
)

type cell[T any] struct {
	seq atomic.Uint64
	val T
}

// Queue is a bounded multi-producer queue with a single consumer. Producers
// on any goroutine, including the audio thread, never block.
type Queue[T any] struct {
	cells []cell[T]
	mask  uint64

	enqueue atomic.Uint64
	dequeue atomic.Uint64
	dropped atomic.Uint64
}

// NewQueue returns a queue holding at least capacity items, rounded up to a
// power of two.
func NewQueue[T any](capacity int) *Queue[T] {
	size := nextPowerOf2(capacity)
	q := &Queue[T]{
		cells: make([]cell[T], size),
		mask:  uint64(size - 1),
	}

	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}

	return q
}

// Push adds v. It returns false when the queue is full.
func (q *Queue[T]) Push(v T) bool {
	pos := q.enqueue.Load()

	for {
		c := &q.cells[pos&q.mask]
		seq := c.seq.Load()

		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				c.val = v
				c.seq.Store(pos + 1)

				return true
			}

			pos = q.enqueue.Load()
		case diff < 0:
			q.dropped.Add(1)
			return false
		default:
			pos = q.enqueue.Load()
		}
	}
}

// Pop removes the oldest item. Only one goroutine may call Pop.
func (q *Queue[T]) Pop() (T, bool) {
	pos := q.dequeue.Load()
	c := &q.cells[pos&q.mask]

	if c.seq.Load() != pos+1 {
		var zero T
		return zero, false
	}

	v := c.val

	var zero T
	c.val = zero

	q.dequeue.Store(pos + 1)
	c.seq.Store(pos + q.mask + 1)

	return v, true
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int { return len(q.cells) }

// Dropped returns how many pushes failed because the queue was full.
func (q *Queue[T]) Dropped() uint64 { return q.dropped.Load() }

// DrainDistinct pops every queued item and calls fn once per distinct value
// in arrival order. seen is scratch space owned by the caller; it is cleared
// on return.
func DrainDistinct[T comparable](q *Queue[T], seen map[T]struct{}, fn func(T)) int {
	n := 0

	for {
		v, ok := q.Pop()
		if !ok {
			break
		}

		if _, dup := seen[v]; dup {
			continue
		}

		seen[v] = struct{}{}
		fn(v)
		n++
	}

	clear(seen)

	return n
}
