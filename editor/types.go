// CLAUDE:SUMMARY Editor wire types: selection, session state snapshot, feed events, drop targets.
package editor

import (
	"context"

	"github.com/hazyhaar/atelier/canvas"
	"github.com/hazyhaar/atelier/dropzone"
	"github.com/hazyhaar/atelier/pagetree"
	"github.com/hazyhaar/atelier/sitedoc"
)

// Selection kinds. A component is a tracked node; a section is a top-level
// component; an element is an untracked node inside a component.
const (
	KindComponent = "component"
	KindSection   = "section"
	KindElement   = "element"
)

// Selection is the transient UI selection. It is never part of the
// document; it is re-derived from surface events or explicit palette
// actions and dropped when the session closes.
type Selection struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// State is the host-side snapshot the UI renders its chrome from.
type State struct {
	SessionID  string               `json:"sessionId"`
	ProjectID  string               `json:"projectId"`
	ActivePage string               `json:"activePage"`
	Pages      []sitedoc.PageInfo   `json:"pages"`
	Components []pagetree.Component `json:"components"`
	Selection  Selection            `json:"selection"`
	CanUndo    bool                 `json:"canUndo"`
	CanRedo    bool                 `json:"canRedo"`
	Clipboard  bool                 `json:"clipboard"`
	Generation uint64               `json:"generation"`
}

// DropTarget is the resolved insertion point for a drag hover, with the
// highlight bar the UI draws at the prospective splice position.
type DropTarget struct {
	Index int          `json:"index"`
	Bar   dropzone.Bar `json:"bar"`
}

// Feed event types pushed to UI subscribers.
const (
	EventSelection = "selection"
	EventDocument  = "document"
	EventHistory   = "history"
	EventDrag      = "drag"
	EventNotice    = "notice"
)

// Event is one type-discriminated message on a session's UI feed.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Surfacer is the live-preview contract a session drives. canvas.Surface
// implements it; a session whose service has no surface factory runs
// headless and every preview interaction degrades to a no-op.
type Surfacer interface {
	Mount(ctx context.Context, in canvas.ComposeInput) (uint64, error)
	MeasureBoxes(ctx context.Context) ([]dropzone.Box, error)
	SetSelection(ctx context.Context, componentID string) (bool, error)
	SetViewport(ctx context.Context, width, height int) error
	PrintPDF(ctx context.Context) ([]byte, error)
	Generation() uint64
	Events() <-chan canvas.Envelope
	Close()
}

// SurfaceFactory creates one Surfacer per session, typically a page of the
// shared headless browser.
type SurfaceFactory func(ctx context.Context) (Surfacer, error)
