package midi

import (
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestBufferKeepsOffsetOrder(t *testing.T) {
	t.Parallel()

	b := NewBuffer(8)
	b.Add(10, gomidi.NoteOn(0, 60, 100))
	b.Add(2, gomidi.NoteOn(0, 64, 100))
	b.Add(10, gomidi.NoteOff(0, 60))
	b.Add(5, gomidi.ControlChange(0, 1, 64))

	wantOffsets := []int{2, 5, 10, 10}
	if b.Len() != len(wantOffsets) {
		t.Fatalf("Len() = %d, want %d", b.Len(), len(wantOffsets))
	}

	for i, want := range wantOffsets {
		if got := b.At(i).Offset; got != want {
			t.Fatalf("event %d offset = %d, want %d", i, got, want)
		}
	}

	var ch, key, vel uint8
	if !b.At(2).Message().GetNoteStart(&ch, &key, &vel) || key != 60 {
		t.Fatal("equal offsets must keep insertion order")
	}

	if !b.At(3).Message().GetNoteEnd(&ch, &key) || key != 60 {
		t.Fatal("note off should follow note on at the same offset")
	}
}

func TestBufferCapacity(t *testing.T) {
	t.Parallel()

	b := NewBuffer(1)
	if !b.Add(0, gomidi.NoteOn(0, 1, 1)) {
		t.Fatal("first add should succeed")
	}

	if b.Add(0, gomidi.NoteOn(0, 2, 1)) {
		t.Fatal("add beyond capacity should fail")
	}

	if b.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", b.Dropped())
	}

	if b.Add(0, gomidi.Message{0xf0, 1, 2, 3, 0xf7}) {
		t.Fatal("messages longer than three bytes are rejected")
	}

	b.Clear()

	if b.Len() != 0 {
		t.Fatal("Clear should empty the buffer")
	}
}

func TestBufferCopyFrom(t *testing.T) {
	t.Parallel()

	src := NewBuffer(4)
	src.Add(0, gomidi.NoteOn(1, 60, 90))
	src.Add(3, gomidi.NoteOff(1, 60))

	dst := NewBuffer(1)
	dst.CopyFrom(src)

	if dst.Len() != 1 || dst.Dropped() != 1 {
		t.Fatalf("CopyFrom truncation: len=%d dropped=%d", dst.Len(), dst.Dropped())
	}

	var nilBuf *Buffer
	if nilBuf.Len() != 0 {
		t.Fatal("nil buffer must report zero length")
	}
}

func TestBufferWindows(t *testing.T) {
	t.Parallel()

	src := NewBuffer(8)
	src.Add(1, gomidi.NoteOn(0, 60, 90))
	src.Add(64, gomidi.NoteOn(0, 62, 90))
	src.Add(100, gomidi.NoteOff(0, 60))

	win := NewBuffer(8)
	win.CopyWindow(src, 64, 64)

	if win.Len() != 2 || win.At(0).Offset != 0 || win.At(1).Offset != 36 {
		t.Fatalf("window offsets wrong: len=%d", win.Len())
	}

	out := NewBuffer(8)
	out.AppendShifted(win, 64)

	if out.Len() != 2 || out.At(1).Offset != 100 {
		t.Fatal("AppendShifted did not restore offsets")
	}

	var ch, key uint8
	if !out.At(1).Message().GetNoteEnd(&ch, &key) || key != 60 {
		t.Fatal("AppendShifted altered message bytes")
	}
}
