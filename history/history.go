// Package history implements the linear undo/redo stack of document
// snapshots. Entries are full sitedoc.Document values, no diffing; the
// stack length is capped and the oldest entry evicted past the cap.
package history

import "github.com/hazyhaar/atelier/sitedoc"

// DefaultCap bounds the stack when the caller passes no explicit cap.
const DefaultCap = 100

// Stack is a linear undo/redo sequence. The cursor always points at a
// valid entry. Documents are immutable by convention, so the stack stores
// exactly what it is handed.
type Stack struct {
	entries []sitedoc.Document
	cursor  int
	max     int
}

// New seeds a one-entry stack with the session's opening document,
// cursor 0. A cap below 1 falls back to DefaultCap.
func New(doc sitedoc.Document, max int) *Stack {
	if max < 1 {
		max = DefaultCap
	}
	return &Stack{
		entries: []sitedoc.Document{doc},
		cursor:  0,
		max:     max,
	}
}

// Push inserts doc after the cursor and moves the cursor onto it. Any
// forward entries (the redo branch) are discarded first. When the stack
// would exceed its cap the oldest entry is evicted.
func (s *Stack) Push(doc sitedoc.Document) {
	s.entries = append(s.entries[:s.cursor+1], doc)
	if len(s.entries) > s.max {
		s.entries = s.entries[1:]
	}
	s.cursor = len(s.entries) - 1
}

// Undo steps the cursor back one entry and returns the document there.
// At the bottom of the stack, it returns the current document unchanged.
func (s *Stack) Undo() sitedoc.Document {
	if s.cursor > 0 {
		s.cursor--
	}
	return s.entries[s.cursor]
}

// Redo steps the cursor forward one entry and returns the document there.
// At the top of the stack, it returns the current document unchanged.
func (s *Stack) Redo() sitedoc.Document {
	if s.cursor < len(s.entries)-1 {
		s.cursor++
	}
	return s.entries[s.cursor]
}

// CanUndo reports whether an Undo would move the cursor.
func (s *Stack) CanUndo() bool {
	return s.cursor > 0
}

// CanRedo reports whether a Redo would move the cursor.
func (s *Stack) CanRedo() bool {
	return s.cursor < len(s.entries)-1
}

// Current returns the document at the cursor.
func (s *Stack) Current() sitedoc.Document {
	return s.entries[s.cursor]
}

// Len returns the number of entries.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Cursor returns the cursor index.
func (s *Stack) Cursor() int {
	return s.cursor
}
