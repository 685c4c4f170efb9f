package zone

import "testing"

func TestTreeInsertFindDuplicate(t *testing.T) {
	tr := NewTree[int]()
	if _, err := tr.Insert("example.com.", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tr.Insert("example.com.", 2); err != ErrDuplicateKey {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	h, ok := tr.Find("example.com.")
	if !ok || h.Value() != 1 {
		t.Fatalf("expected to find value 1, got %v ok=%v", h.Value(), ok)
	}
}

func TestTreeCanonicalTraversal(t *testing.T) {
	tr := NewTree[string]()
	names := []string{
		"z.example.com.", "a.example.com.", "example.com.",
		"m.example.com.", "b.a.example.com.",
	}
	for _, n := range names {
		if _, err := tr.Insert(n, n); err != nil {
			t.Fatalf("insert %s: %v", n, err)
		}
	}

	var got []string
	tr.Walk(func(h Handle[string]) bool {
		got = append(got, h.Value())
		return true
	})

	for i := 0; i < len(got)-1; i++ {
		if !Less(got[i], got[i+1]) {
			t.Fatalf("traversal not canonically ordered: %v", got)
		}
	}
	if len(got) != len(names) {
		t.Fatalf("expected %d entries, got %d", len(names), len(got))
	}
}

func TestTreeDeleteAndReinsert(t *testing.T) {
	tr := NewTree[int]()
	for i, n := range []string{"a.com.", "b.com.", "c.com.", "d.com.", "e.com."} {
		if _, err := tr.Insert(n, i); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if !tr.Delete("c.com.") {
		t.Fatalf("expected delete to succeed")
	}
	if tr.Delete("c.com.") {
		t.Fatalf("expected second delete to report false")
	}
	if _, ok := tr.Find("c.com."); ok {
		t.Fatalf("did not expect to find deleted key")
	}
	if tr.Size() != 4 {
		t.Fatalf("expected size 4, got %d", tr.Size())
	}
	if _, err := tr.Insert("c.com.", 99); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
}

// TestTreeDeletePreservesOtherHandles fetches a handle's successor,
// deletes a two-children node, and confirms the previously fetched
// handle still resolves to its own key/value rather than whatever got
// relocated into the deleted node's slot.
func TestTreeDeletePreservesOtherHandles(t *testing.T) {
	tr := NewTree[string]()
	// Build a small tree where "b" ends up with two children and its
	// in-order successor ("c") is fetched as a handle before deleting "b".
	for _, n := range []string{"b.example.", "a.example.", "d.example.", "c.example.", "e.example."} {
		if _, err := tr.Insert(n, n); err != nil {
			t.Fatalf("insert %s: %v", n, err)
		}
	}

	hb, ok := tr.Find("b.example.")
	if !ok {
		t.Fatalf("expected to find b.example.")
	}
	next, ok := tr.Next(hb)
	if !ok {
		t.Fatalf("expected a successor to b.example.")
	}
	wantKey, wantVal := next.Key(), next.Value()

	tr.Delete("b.example.")

	if next.Key() != wantKey || next.Value() != wantVal {
		t.Fatalf("handle corrupted by unrelated delete: got (%s,%s), want (%s,%s)",
			next.Key(), next.Value(), wantKey, wantVal)
	}
}

func TestTreeNextWrap(t *testing.T) {
	tr := NewTree[int]()
	tr.Insert("a.com.", 1)
	tr.Insert("b.com.", 2)
	first, _ := tr.First()
	last, _ := tr.Last()
	if wrapped := tr.NextWrap(last); wrapped.Key() != first.Key() {
		t.Fatalf("expected NextWrap of last to be first, got %s", wrapped.Key())
	}
}

func TestTreeWalkReverse(t *testing.T) {
	tr := NewTree[int]()
	for i, n := range []string{"a.com.", "b.com.", "c.com."} {
		tr.Insert(n, i)
	}
	var got []string
	tr.WalkReverse(func(h Handle[int]) bool {
		got = append(got, h.Key())
		return true
	})
	want := []string{"c.com.", "b.com.", "a.com."}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
