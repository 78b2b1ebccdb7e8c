package arena

import "testing"

func TestInsertGetRemove(t *testing.T) {
	t.Parallel()

	a := New[string](2)

	h1, ok := a.Insert("one")
	if !ok {
		t.Fatal("Insert failed")
	}

	h2, _ := a.Insert("two")

	if _, ok := a.Insert("three"); ok {
		t.Fatal("Insert into full arena should fail")
	}

	if v, ok := a.Get(h2); !ok || *v != "two" {
		t.Fatalf("Get(h2) = %v,%v", v, ok)
	}

	if !a.Remove(h1) {
		t.Fatal("first Remove should succeed")
	}

	if a.Remove(h1) {
		t.Fatal("second Remove of the same handle must be a no-op")
	}

	if a.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", a.Len())
	}
}

func TestStaleHandleAfterReuse(t *testing.T) {
	t.Parallel()

	a := New[int](1)

	old, _ := a.Insert(1)
	a.Remove(old)

	fresh, _ := a.Insert(2)
	if fresh.Index != old.Index {
		t.Fatalf("slot not reused: %v vs %v", fresh, old)
	}

	if _, ok := a.Get(old); ok {
		t.Fatal("stale handle resolved after slot reuse")
	}

	if a.Remove(old) {
		t.Fatal("stale handle removed the new object")
	}

	if v, ok := a.Get(fresh); !ok || *v != 2 {
		t.Fatal("fresh handle lost its object")
	}
}

func TestPackRoundTrip(t *testing.T) {
	t.Parallel()

	h := Handle{Index: 12, Generation: 7}
	if got := Unpack(h.Pack()); got != h {
		t.Fatalf("Unpack(Pack()) = %v, want %v", got, h)
	}

	if !(Handle{}).IsZero() {
		t.Fatal("zero handle must report IsZero")
	}
}

func TestEachAndClear(t *testing.T) {
	t.Parallel()

	a := New[int](4)
	for i := range 3 {
		a.Insert(i * 10)
	}

	sum := 0
	a.Each(func(_ Handle, v *int) { sum += *v })

	if sum != 30 {
		t.Fatalf("Each sum = %d, want 30", sum)
	}

	a.Clear()

	if a.Len() != 0 {
		t.Fatalf("Len() after Clear = %d", a.Len())
	}
}
