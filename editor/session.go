// CLAUDE:SUMMARY Per-project editing session: document + history + sheet + surface, serialized ops, event pump.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/atelier/animate"
	"github.com/hazyhaar/atelier/canvas"
	"github.com/hazyhaar/atelier/dropzone"
	"github.com/hazyhaar/atelier/history"
	"github.com/hazyhaar/atelier/idgen"
	"github.com/hazyhaar/atelier/pagetree"
	"github.com/hazyhaar/atelier/services"
	"github.com/hazyhaar/atelier/sitedoc"
	"github.com/hazyhaar/atelier/store"
	"github.com/hazyhaar/atelier/stylepatch"
)

// Session owns one project's editing state: the current document, the
// undo/redo stack, the structured stylesheet, the clipboard and the live
// surface. Every operation is serialized by the session mutex; the surface
// reports intent through the event pump and never mutates session state.
type Session struct {
	ID        string
	ProjectID string

	svc    *Service
	logger *slog.Logger

	mu        sync.Mutex
	doc       sitedoc.Document
	hist      *history.Stack
	baseCSS   string
	sheet     *stylepatch.Sheet
	anims     []animate.Descriptor
	selection Selection
	clipboard string
	dragging  string
	closed    bool

	surface Surfacer
	feed    *Feed

	styleCh   chan stylePatch
	flushCh   chan chan struct{}
	styleDone chan struct{}

	lastUsed atomic.Int64
	cancel   context.CancelFunc
}

// newSession builds a session around an opened document and starts its
// background loops. doc content is already normalized.
func newSession(ctx context.Context, svc *Service, projectID string, doc sitedoc.Document, anims []animate.Descriptor, surface Surfacer) *Session {
	id := idgen.Prefixed("ses_", idgen.Default)()
	base, _ := stylepatch.Split(doc.Shared.CSS)

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ID:        id,
		ProjectID: projectID,
		svc:       svc,
		logger:    svc.logger.With("session", id, "project", projectID),
		doc:       doc,
		hist:      history.New(doc, svc.cfg.HistoryCap),
		baseCSS:   base,
		sheet:     stylepatch.Parse(doc.Shared.CSS),
		anims:     anims,
		surface:   surface,
		feed:      NewFeed(svc.cfg.FeedBuffer, svc.logger),
		styleCh:   make(chan stylePatch, svc.cfg.DebounceMax),
		flushCh:   make(chan chan struct{}),
		styleDone: make(chan struct{}),
		cancel:    cancel,
	}
	s.touch()

	go s.styleLoop(sctx)
	if surface != nil {
		go s.pump(sctx)
	}
	return s
}

func (s *Session) touch() {
	s.lastUsed.Store(time.Now().UnixMilli())
}

// IdleSince returns the last time an operation touched the session.
func (s *Session) IdleSince() time.Time {
	return time.UnixMilli(s.lastUsed.Load())
}

// Feed returns the session's UI event feed.
func (s *Session) Feed() *Feed { return s.feed }

// close tears the session down. Idempotent; called by the service.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	if s.surface != nil {
		s.surface.Close()
	}
	s.feed.Close()
}

func (s *Session) checkOpen() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// --- Document plumbing (lock held) ---

// pageMarkup returns the active page's normalized markup.
func (s *Session) pageMarkup() string {
	return sitedoc.DecodeContent(s.doc.PageContent(s.doc.ActivePageID))
}

// commit installs a new document: push onto history, recompute membership
// dependent state, remount the surface and tell the feed.
func (s *Session) commit(ctx context.Context, doc sitedoc.Document, op, componentID, detail string) {
	s.doc = doc
	s.hist.Push(doc)

	if s.selection.ID != "" && !pagetree.Has(s.pageMarkup(), s.selection.ID) {
		s.selection = Selection{}
	}

	s.remount(ctx)
	s.feed.Broadcast(Event{Type: EventDocument, Payload: map[string]any{
		"op": op, "componentId": componentID,
	}})
	s.logEdit(ctx, op, componentID, detail)
}

// remount rebuilds the live preview from scratch. Full teardown, no DOM
// diffing; a failed mount degrades to a notice, never a broken document.
func (s *Session) remount(ctx context.Context) {
	if s.surface == nil {
		return
	}
	in := canvas.ComposeInput{
		Title:     s.doc.Manifest.Name,
		PageHTML:  s.pageMarkup(),
		CSS:       s.doc.Shared.CSS,
		JS:        s.doc.Shared.JS,
		Keyframes: animate.Render(s.anims),
		Runtime:   true,
	}
	if _, err := s.surface.Mount(ctx, in); err != nil {
		s.logger.Warn("remount failed", "error", err)
		s.feed.Broadcast(Event{Type: EventNotice, Payload: map[string]string{
			"level": "warn", "text": "preview update failed",
		}})
		return
	}
	if s.selection.ID != "" {
		if _, err := s.surface.SetSelection(ctx, s.selection.ID); err != nil {
			s.logger.Debug("selection re-sync failed", "error", err)
		}
	}
}

// logEdit appends to the project edit log, best effort.
func (s *Session) logEdit(ctx context.Context, op, componentID, detail string) {
	err := s.svc.store.AppendEdit(ctx, &store.EditLogEntry{
		ID:          idgen.Prefixed("evt_", idgen.Default)(),
		ProjectID:   s.ProjectID,
		SessionID:   s.ID,
		Op:          op,
		ComponentID: componentID,
		PageID:      s.doc.ActivePageID,
		Detail:      detail,
	})
	if err != nil {
		s.logger.Warn("edit log append failed", "op", op, "error", err)
	}
}

// --- Operations ---

// State snapshots the session for the UI.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	var gen uint64
	if s.surface != nil {
		gen = s.surface.Generation()
	}
	return State{
		SessionID:  s.ID,
		ProjectID:  s.ProjectID,
		ActivePage: s.doc.ActivePageID,
		Pages:      append([]sitedoc.PageInfo(nil), s.doc.Manifest.Pages...),
		Components: pagetree.Components(s.pageMarkup()),
		Selection:  s.selection,
		CanUndo:    s.hist.CanUndo(),
		CanRedo:    s.hist.CanRedo(),
		Clipboard:  s.clipboard != "",
		Generation: gen,
	}
}

// OpenPage switches the active page. An unknown page id still resolves
// through the document fallback chain at render time, so this never fails;
// it only repoints the session and remounts.
func (s *Session) OpenPage(ctx context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch()

	s.doc = s.doc.WithActivePage(pageID)
	s.hist.Push(s.doc)
	s.selection = Selection{}
	s.remount(ctx)
	s.feed.Broadcast(Event{Type: EventDocument, Payload: map[string]any{
		"op": "open-page", "pageId": pageID,
	}})
	return nil
}

// Components lists the active page's tracked components in document order.
func (s *Session) Components() []pagetree.Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pagetree.Components(s.pageMarkup())
}

// InsertComponent asks the generate collaborator for a fragment of the
// given palette type and splices it at the insertion index.
func (s *Session) InsertComponent(ctx context.Context, componentType string, atIndex int) (string, error) {
	res, err := s.svc.collab.Generate(ctx, services.GenerateRequest{
		ComponentType: componentType,
		ProjectID:     s.ProjectID,
	})
	if err != nil {
		s.notifyCollaborator(err)
		return "", fmt.Errorf("editor: insert %s: %w", componentType, err)
	}
	if res == nil || res.Markup == "" {
		return "", ErrGenerateDisabled
	}
	return s.insertMarkup(ctx, res.Markup, atIndex)
}

// insertMarkup splices an already-sanitized fragment into the active page.
func (s *Session) insertMarkup(ctx context.Context, fragment string, atIndex int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	s.touch()

	markup := s.pageMarkup()
	next, err := pagetree.Insert(markup, fragment, atIndex)
	if err != nil {
		return "", fmt.Errorf("editor: insert: %w", err)
	}
	if next == markup {
		return "", nil
	}

	id := insertedID(fragment)
	s.commit(ctx, s.doc.WithPageContent(s.doc.ActivePageID, next), "insert", id,
		fmt.Sprintf(`{"index":%d}`, atIndex))
	return id, nil
}

// insertedID pulls the top-level component id out of a fragment.
func insertedID(fragment string) string {
	comps := pagetree.Components(fragment)
	if len(comps) == 0 {
		return ""
	}
	return comps[0].ID
}

// DropTarget resolves a drag-hover pointer position into an insertion
// index plus the highlight bar to draw. Headless sessions resolve to an
// append with an empty bar.
func (s *Session) DropTarget(ctx context.Context, pointerY float64) (DropTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return DropTarget{}, err
	}
	s.touch()

	boxes := s.measure(ctx)
	idx := dropzone.Resolve(pointerY, boxes)
	return DropTarget{
		Index: idx,
		Bar:   dropzone.Highlight(idx, boxes, float64(s.svc.cfg.ViewportWidth)),
	}, nil
}

// DropComponent turns a completed drag gesture into a structural edit:
// pointer position → insertion index → generate → insert.
func (s *Session) DropComponent(ctx context.Context, componentType string, pointerY float64) (string, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return "", err
	}
	boxes := s.measure(ctx)
	s.mu.Unlock()

	idx := dropzone.Resolve(pointerY, boxes)
	return s.InsertComponent(ctx, componentType, idx)
}

// measure reads live component geometry, falling back to an empty list
// when there is no surface or measurement fails (drop degrades to append
// or prepend, never an error).
func (s *Session) measure(ctx context.Context) []dropzone.Box {
	if s.surface == nil {
		return nil
	}
	boxes, err := s.surface.MeasureBoxes(ctx)
	if err != nil {
		s.logger.Debug("measure failed", "error", err)
		return nil
	}
	return boxes
}

// DeleteComponent removes a component by id. Unknown ids are a silent
// no-op: the document is left untouched and no history entry is made.
func (s *Session) DeleteComponent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch()

	markup := s.pageMarkup()
	next := pagetree.Delete(markup, id)
	if next == markup {
		return nil
	}

	s.sheet.Remove(id)
	doc := s.doc.WithPageContent(s.doc.ActivePageID, next)
	doc = doc.WithShared(sitedoc.SharedAssets{
		CSS: stylepatch.Compose(s.baseCSS, s.sheet),
		JS:  doc.Shared.JS,
	})
	s.commit(ctx, doc, "delete", id, "")

	if err := s.svc.store.DeleteAnimationsForTarget(ctx, s.ProjectID, id); err != nil {
		s.logger.Warn("delete animations", "target", id, "error", err)
	}
	s.anims = dropAnimsForTarget(s.anims, id)
	return nil
}

func dropAnimsForTarget(list []animate.Descriptor, targetID string) []animate.Descriptor {
	out := list[:0]
	for _, d := range list {
		if d.TargetID != targetID {
			out = append(out, d)
		}
	}
	return out
}

// DuplicateComponent copies a component, mints fresh ids for the copy and
// places it directly after the original. Unknown ids are a silent no-op.
func (s *Session) DuplicateComponent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch()

	markup := s.pageMarkup()
	next := pagetree.Duplicate(markup, id, idgen.Component())
	if next == markup {
		return nil
	}
	s.commit(ctx, s.doc.WithPageContent(s.doc.ActivePageID, next), "duplicate", id, "")
	return nil
}

// CopyComponent snapshots a component's serialized subtree onto the
// session clipboard. Unknown ids clear nothing and report false.
func (s *Session) CopyComponent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	frag, ok := pagetree.Extract(s.pageMarkup(), id)
	if !ok {
		return false
	}
	s.clipboard = frag
	return true
}

// PasteComponent appends the clipboard snapshot at the end of the active
// page with freshly minted ids.
func (s *Session) PasteComponent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch()

	if s.clipboard == "" {
		return ErrNothingCopied
	}
	markup := s.pageMarkup()
	next := pagetree.PasteFragment(markup, s.clipboard, idgen.Component())
	if next == markup {
		return nil
	}
	s.commit(ctx, s.doc.WithPageContent(s.doc.ActivePageID, next), "paste", "", "")
	return nil
}

// ApplyStyles queues a property-panel edit for the debounce window. The
// patch lands as one history entry per flushed batch.
func (s *Session) ApplyStyles(componentID string, props map[string]string, breakpoint string) error {
	s.mu.Lock()
	err := s.checkOpen()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	bp, ok := stylepatch.ParseBreakpoint(breakpoint)
	if !ok {
		return fmt.Errorf("editor: unknown breakpoint %q", breakpoint)
	}
	s.touch()

	cp := make(map[string]string, len(props))
	for k, v := range props {
		cp[k] = v
	}
	// The loop may stop between the open check and the send; never wedge
	// on a buffer nothing drains anymore.
	select {
	case s.styleCh <- stylePatch{ComponentID: componentID, Props: cp, Breakpoint: bp}:
		return nil
	case <-s.styleDone:
		return ErrSessionClosed
	}
}

// FlushStyles forces any buffered style patches through immediately and
// waits for them to land. The UI calls this before save and export.
func (s *Session) FlushStyles() {
	done := make(chan struct{})
	select {
	case s.flushCh <- done:
		<-done
	case <-s.styleDone:
		// Loop stopped; nothing buffered can land anymore.
	}
}

// styleLoop is the debounce pump: patches arrive on styleCh, the window
// timer or a full buffer flushes them as one batch.
func (s *Session) styleLoop(ctx context.Context) {
	defer close(s.styleDone)
	deb := newDebouncer(s.svc.cfg.DebounceWindow, s.svc.cfg.DebounceMax, func(patches []stylePatch) {
		s.applyPatches(ctx, patches)
	})
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-s.styleCh:
			deb.add(p)
		case <-deb.timerC():
			deb.flush()
		case done := <-s.flushCh:
			// Drain anything racing ahead of the flush request.
			for {
				select {
				case p := <-s.styleCh:
					deb.add(p)
					continue
				default:
				}
				break
			}
			deb.flush()
			close(done)
		}
	}
}

// applyPatches lands a coalesced batch: update the rule map, recompose
// shared CSS, push one history entry, remount.
func (s *Session) applyPatches(ctx context.Context, patches []stylePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	ids := make([]string, 0, len(patches))
	for _, p := range patches {
		s.sheet.Apply(p.ComponentID, p.Props, p.Breakpoint)
		ids = append(ids, p.ComponentID)
	}

	doc := s.doc.WithShared(sitedoc.SharedAssets{
		CSS: stylepatch.Compose(s.baseCSS, s.sheet),
		JS:  s.doc.Shared.JS,
	})
	detail, _ := json.Marshal(map[string]any{"components": ids})
	s.commit(ctx, doc, "style", "", string(detail))
}

// Undo steps the document back one history entry. At the stack bottom it
// is a no-op returning the unchanged state.
func (s *Session) Undo(ctx context.Context) State {
	return s.step(ctx, true)
}

// Redo steps the document forward one history entry. At the stack top it
// is a no-op returning the unchanged state.
func (s *Session) Redo(ctx context.Context) State {
	return s.step(ctx, false)
}

func (s *Session) step(ctx context.Context, back bool) State {
	s.mu.Lock()
	s.touch()

	moved := back && s.hist.CanUndo() || !back && s.hist.CanRedo()
	if back {
		s.doc = s.hist.Undo()
	} else {
		s.doc = s.hist.Redo()
	}

	if moved {
		// Stylesheet state rides inside the snapshot; re-derive the rule map
		// from the full shared CSS so Parse can find the managed region.
		s.baseCSS, _ = stylepatch.Split(s.doc.Shared.CSS)
		s.sheet = stylepatch.Parse(s.doc.Shared.CSS)
		if s.selection.ID != "" && !pagetree.Has(s.pageMarkup(), s.selection.ID) {
			s.selection = Selection{}
		}
		s.remount(ctx)
		s.feed.Broadcast(Event{Type: EventHistory, Payload: map[string]any{
			"canUndo": s.hist.CanUndo(), "canRedo": s.hist.CanRedo(),
		}})
	}
	s.mu.Unlock()
	return s.State()
}

// Select sets the host-side selection and syncs the surface's visual
// selection class without a remount. An empty id clears the selection.
func (s *Session) Select(ctx context.Context, id, kind string) (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return Selection{}, err
	}
	s.touch()

	if id != "" && !pagetree.Has(s.pageMarkup(), id) {
		return s.selection, ErrStale
	}
	if kind == "" {
		kind = KindComponent
	}
	path, _ := s.doc.PagePath(s.doc.ActivePageID)
	s.selection = Selection{ID: id, Kind: kind, Path: path}
	if id == "" {
		s.selection = Selection{}
	}

	if s.surface != nil {
		if _, err := s.surface.SetSelection(ctx, id); err != nil {
			s.logger.Debug("surface selection sync failed", "error", err)
		}
	}
	s.feed.Broadcast(Event{Type: EventSelection, Payload: s.selection})
	return s.selection, nil
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Document returns the current document snapshot.
func (s *Session) Document() sitedoc.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// --- Surface event pump ---

// pump drains surface envelopes and folds them into session state. Stale
// envelopes were already dropped by generation; membership against the
// current page is re-checked here, the host's half of the contract.
func (s *Session) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-s.surface.Events():
			if !ok {
				return
			}
			s.handleEnvelope(ctx, env)
		}
	}
}

func (s *Session) handleEnvelope(ctx context.Context, env canvas.Envelope) {
	switch env.Type {
	case canvas.EventReady:
		s.logger.Debug("surface ready", "gen", env.Gen)

	case canvas.EventClick:
		var p canvas.ClickPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.logger.Debug("click payload discarded", "error", err)
			return
		}
		s.mu.Lock()
		if !pagetree.Has(s.pageMarkup(), p.ComponentID) {
			s.mu.Unlock()
			s.logger.Debug("stale click dropped", "component", p.ComponentID)
			return
		}
		path, _ := s.doc.PagePath(s.doc.ActivePageID)
		s.selection = Selection{ID: p.ComponentID, Kind: KindComponent, Path: path}
		sel := s.selection
		s.mu.Unlock()
		s.feed.Broadcast(Event{Type: EventSelection, Payload: sel})

	case canvas.EventDragStart:
		var p canvas.DragStartPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		s.mu.Lock()
		s.dragging = p.ComponentID
		s.mu.Unlock()
		s.feed.Broadcast(Event{Type: EventDrag, Payload: map[string]string{
			"phase": "start", "componentId": p.ComponentID,
		}})

	case canvas.EventDragEnd:
		s.mu.Lock()
		s.dragging = ""
		s.mu.Unlock()
		s.feed.Broadcast(Event{Type: EventDrag, Payload: map[string]string{
			"phase": "end",
		}})

	default:
		s.logger.Debug("unknown envelope type dropped", "type", env.Type)
	}
}

// notifyCollaborator surfaces a collaborator failure to the UI as a
// transient notice. Document and history state are untouched.
func (s *Session) notifyCollaborator(err error) {
	s.feed.Broadcast(Event{Type: EventNotice, Payload: map[string]string{
		"level": "error", "text": err.Error(),
	}})
}
