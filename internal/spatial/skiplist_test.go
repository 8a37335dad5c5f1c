package spatial

import "testing"

func TestOrderedListInsertAscending(t *testing.T) {
	l := NewOrderedList[string](1)
	l.Insert(OrderedKey{Primary: 3}, "c")
	l.Insert(OrderedKey{Primary: 1}, "a")
	l.Insert(OrderedKey{Primary: 2}, "b")

	got := l.PopAll()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOrderedListTieBreakOwnerThenSeq(t *testing.T) {
	l := NewOrderedList[string](1)
	l.Insert(OrderedKey{Primary: 1, Owner: "2", Seq: 1}, "owner2")
	l.Insert(OrderedKey{Primary: 1, Owner: "1", Seq: 2}, "owner1-seq2")
	l.Insert(OrderedKey{Primary: 1, Owner: "1", Seq: 1}, "owner1-seq1")

	got := l.PopAll()
	want := []string{"owner1-seq1", "owner1-seq2", "owner2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestPopPrimaryLessEqual(t *testing.T) {
	l := NewOrderedList[int](1)
	l.Insert(OrderedKey{Primary: 1}, 1)
	l.Insert(OrderedKey{Primary: 2}, 2)
	l.Insert(OrderedKey{Primary: 3}, 3)

	got := l.PopPrimaryLessEqual(2)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("PopPrimaryLessEqual(2) = %v, want [1 2]", got)
	}
	if l.Len() != 1 {
		t.Fatalf("Len() after drain = %d, want 1", l.Len())
	}
	remaining, ok := l.PeekMin()
	if !ok || remaining != 3 {
		t.Fatalf("PeekMin() = %v, %v, want 3, true", remaining, ok)
	}
}

func TestOrderedListLenAndEmpty(t *testing.T) {
	l := NewOrderedList[int](1)
	if l.Len() != 0 {
		t.Fatalf("Len() on empty list = %d, want 0", l.Len())
	}
	if _, ok := l.PeekMin(); ok {
		t.Fatal("PeekMin() on empty list returned ok=true")
	}
	if got := l.PopPrimaryLessEqual(100); len(got) != 0 {
		t.Fatalf("PopPrimaryLessEqual on empty list = %v, want empty", got)
	}
}
