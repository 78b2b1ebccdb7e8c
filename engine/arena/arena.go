// Package arena stores objects addressed by generation-checked handles.
//
// A handle stays valid until its object is removed. After that the slot may
// be reused, but the old handle no longer resolves because the slot
// generation has moved on. Components that need a back-reference to an
// object whose lifetime they do not own hold a Handle, never a pointer.
//
// An Arena is not safe for concurrent use; it belongs to one goroutine.
package arena

// Handle identifies one object in an Arena. The zero Handle is never valid.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.Generation == 0 }

// Pack encodes h in a single word, for queues and audio-thread events.
func (h Handle) Pack() uint64 {
	return uint64(h.Generation)<<32 | uint64(h.Index)
}

// Unpack reverses Pack.
func Unpack(v uint64) Handle {
	return Handle{Index: uint32(v), Generation: uint32(v >> 32)}
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Arena is a fixed-capacity object store.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// New returns an arena holding at most capacity objects.
func New[T any](capacity int) *Arena[T] {
	a := &Arena[T]{
		slots: make([]slot[T], capacity),
		free:  make([]uint32, 0, capacity),
	}

	for i := capacity - 1; i >= 0; i-- {
		a.free = append(a.free, uint32(i))
	}

	return a
}

// Insert stores v and returns its handle. It returns false when full.
func (a *Arena[T]) Insert(v T) (Handle, bool) {
	if len(a.free) == 0 {
		return Handle{}, false
	}

	idx := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]

	s := &a.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}

	s.value = v
	s.live = true
	a.live++

	return Handle{Index: idx, Generation: s.gen}, true
}

// Get returns a pointer to the object for h, or false when h is stale.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	s := a.lookup(h)
	if s == nil {
		return nil, false
	}

	return &s.value, true
}

// Remove deletes the object for h. Removing a stale handle is a no-op that
// returns false, so removing the same handle twice is safe.
func (a *Arena[T]) Remove(h Handle) bool {
	s := a.lookup(h)
	if s == nil {
		return false
	}

	var zero T

	s.value = zero
	s.live = false
	a.live--
	a.free = append(a.free, h.Index)

	return true
}

// Len returns the number of live objects.
func (a *Arena[T]) Len() int { return a.live }

// Cap returns the arena capacity.
func (a *Arena[T]) Cap() int { return len(a.slots) }

// Each calls fn for every live object in slot order. fn must not insert or
// remove.
func (a *Arena[T]) Each(fn func(Handle, *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(Handle{Index: uint32(i), Generation: s.gen}, &s.value)
		}
	}
}

// Clear removes every object. Outstanding handles become stale.
func (a *Arena[T]) Clear() {
	for i := range a.slots {
		if a.slots[i].live {
			a.Remove(Handle{Index: uint32(i), Generation: a.slots[i].gen})
		}
	}
}

func (a *Arena[T]) lookup(h Handle) *slot[T] {
	if h.IsZero() || int(h.Index) >= len(a.slots) {
		return nil
	}

	s := &a.slots[h.Index]
	if !s.live || s.gen != h.Generation {
		return nil
	}

	return s
}
