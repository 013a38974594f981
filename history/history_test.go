package history

import (
	"testing"

	"github.com/hazyhaar/atelier/sitedoc"
)

func docWithName(name string) sitedoc.Document {
	return sitedoc.New(sitedoc.Manifest{Name: name})
}

func name(d sitedoc.Document) string {
	return d.Manifest.Name
}

func TestNew_SeedsOneEntry(t *testing.T) {
	s := New(docWithName("seed"), 0)
	if s.Len() != 1 {
		t.Fatalf("len: got %d, want 1", s.Len())
	}
	if s.Cursor() != 0 {
		t.Fatalf("cursor: got %d, want 0", s.Cursor())
	}
	if s.CanUndo() {
		t.Fatal("CanUndo on a fresh stack")
	}
	if s.CanRedo() {
		t.Fatal("CanRedo on a fresh stack")
	}
}

func TestUndo_AfterPush_ReturnsPreviousTop(t *testing.T) {
	s := New(docWithName("A"), 0)
	s.Push(docWithName("B"))

	got := s.Undo()
	if name(got) != "A" {
		t.Fatalf("undo: got %q, want A", name(got))
	}
	if name(s.Current()) != "A" {
		t.Fatalf("current after undo: got %q", name(s.Current()))
	}
}

func TestPushAfterUndo_TruncatesForwardHistory(t *testing.T) {
	s := New(docWithName("A"), 0)
	s.Push(docWithName("B"))
	s.Push(docWithName("C"))
	if s.Cursor() != 2 {
		t.Fatalf("cursor: got %d, want 2", s.Cursor())
	}

	s.Undo()
	s.Push(docWithName("D"))

	if s.Len() != 3 {
		t.Fatalf("len after truncating push: got %d, want 3", s.Len())
	}
	want := []string{"A", "B", "D"}
	s.Undo()
	s.Undo()
	for i, w := range want {
		if name(s.Current()) != w {
			t.Fatalf("entry %d: got %q, want %q", i, name(s.Current()), w)
		}
		s.Redo()
	}
	if s.CanRedo() {
		t.Fatal("redo branch should be gone")
	}
}

func TestUndo_AtBottom_IsNoOp(t *testing.T) {
	s := New(docWithName("only"), 0)
	got := s.Undo()
	if name(got) != "only" {
		t.Fatalf("undo at bottom: got %q", name(got))
	}
	if s.Cursor() != 0 {
		t.Fatalf("cursor moved: %d", s.Cursor())
	}
}

func TestRedo_AtTop_IsNoOp(t *testing.T) {
	s := New(docWithName("A"), 0)
	s.Push(docWithName("B"))
	got := s.Redo()
	if name(got) != "B" {
		t.Fatalf("redo at top: got %q", name(got))
	}
	if s.Cursor() != 1 {
		t.Fatalf("cursor moved: %d", s.Cursor())
	}
}

func TestUndoRedo_Walk(t *testing.T) {
	s := New(docWithName("A"), 0)
	s.Push(docWithName("B"))
	s.Push(docWithName("C"))

	if name(s.Undo()) != "B" {
		t.Fatal("first undo should land on B")
	}
	if name(s.Undo()) != "A" {
		t.Fatal("second undo should land on A")
	}
	if name(s.Redo()) != "B" {
		t.Fatal("redo should land on B")
	}
	if name(s.Redo()) != "C" {
		t.Fatal("redo should land on C")
	}
}

func TestPush_EvictsOldestPastCap(t *testing.T) {
	s := New(docWithName("0"), 3)
	s.Push(docWithName("1"))
	s.Push(docWithName("2"))
	s.Push(docWithName("3")) // evicts "0"

	if s.Len() != 3 {
		t.Fatalf("len: got %d, want 3", s.Len())
	}
	s.Undo()
	s.Undo()
	if name(s.Current()) != "1" {
		t.Fatalf("oldest surviving entry: got %q, want 1", name(s.Current()))
	}
	if s.CanUndo() {
		t.Fatal("entry 0 should have been evicted")
	}
}

func TestCapBelowOne_FallsBackToDefault(t *testing.T) {
	s := New(docWithName("x"), -5)
	for i := 0; i < DefaultCap+10; i++ {
		s.Push(docWithName("n"))
	}
	if s.Len() != DefaultCap {
		t.Fatalf("len: got %d, want %d", s.Len(), DefaultCap)
	}
}
