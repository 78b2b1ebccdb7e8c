// Package midi holds the per-block MIDI buffer handed to modules. Storage is
// preallocated so that filling and reading it on the audio thread never
// allocates. Messages are gomidi channel messages of at most three bytes.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MaxMessageLen is the largest message the buffer stores inline.
const MaxMessageLen = 3

// Event is one timestamped message inside a block.
type Event struct {
	// Offset is the sample position of the event within the block.
	Offset int

	data [MaxMessageLen]byte
	n    uint8
}

// Message returns the event bytes as a gomidi message. The returned slice
// aliases the buffer and is valid until the buffer is cleared.
func (e *Event) Message() gomidi.Message {
	return gomidi.Message(e.data[:e.n])
}

// Buffer is a fixed-capacity list of events for one block.
type Buffer struct {
	events  []Event
	dropped uint64
}

// NewBuffer returns a buffer that holds up to capacity events.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 256
	}

	return &Buffer{events: make([]Event, 0, capacity)}
}

// Add appends msg at offset, keeping events ordered by offset. It returns
// false when the buffer is full or the message is empty or longer than
// MaxMessageLen.
func (b *Buffer) Add(offset int, msg gomidi.Message) bool {
	if len(msg) == 0 || len(msg) > MaxMessageLen {
		return false
	}

	if len(b.events) == cap(b.events) {
		b.dropped++
		return false
	}

	b.events = b.events[:len(b.events)+1]
	i := len(b.events) - 1

	for i > 0 && b.events[i-1].Offset > offset {
		b.events[i] = b.events[i-1]
		i--
	}

	e := &b.events[i]
	e.Offset = offset
	e.n = uint8(copy(e.data[:], msg))

	return true
}

// Clear empties the buffer without releasing storage.
func (b *Buffer) Clear() {
	if b == nil {
		return
	}

	b.events = b.events[:0]
}

// Len returns the number of events.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}

	return len(b.events)
}

// At returns event i.
func (b *Buffer) At(i int) *Event {
	return &b.events[i]
}

// Dropped returns how many events were rejected because the buffer was full.
func (b *Buffer) Dropped() uint64 {
	if b == nil {
		return 0
	}

	return b.dropped
}

// CopyFrom replaces the contents of b with those of src, truncating to
// b's capacity.
func (b *Buffer) CopyFrom(src *Buffer) {
	b.events = b.events[:0]
	if src == nil {
		return
	}

	n := len(src.events)
	if n > cap(b.events) {
		b.dropped += uint64(n - cap(b.events))
		n = cap(b.events)
	}

	b.events = append(b.events, src.events[:n]...)
}

// CopyWindow replaces the contents of b with the events of src whose offset
// lies in [start, start+n), shifted so that start becomes offset zero.
func (b *Buffer) CopyWindow(src *Buffer, start, n int) {
	b.events = b.events[:0]

	for i := range src.Len() {
		e := src.events[i]
		if e.Offset < start {
			continue
		}

		if e.Offset >= start+n {
			break
		}

		if len(b.events) == cap(b.events) {
			b.dropped++
			continue
		}

		e.Offset -= start
		b.events = append(b.events, e)
	}
}

// AppendShifted adds every event of src to b with shift added to its
// offset. Ordering is kept as long as shift places src after b's events.
func (b *Buffer) AppendShifted(src *Buffer, shift int) {
	for i := range src.Len() {
		e := src.events[i]
		e.Offset += shift
		b.Add(e.Offset, e.Message())
	}
}
