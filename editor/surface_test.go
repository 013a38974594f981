package editor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/atelier/canvas"
	"github.com/hazyhaar/atelier/dbopen"
	"github.com/hazyhaar/atelier/dropzone"
	"github.com/hazyhaar/atelier/services"
	"github.com/hazyhaar/atelier/store"
)

// fakeSurface records mounts and replays scripted geometry and envelopes.
type fakeSurface struct {
	mu        sync.Mutex
	mounts    []canvas.ComposeInput
	selects   []string
	boxes     []dropzone.Box
	gen       uint64
	events    chan canvas.Envelope
	closeOnce sync.Once
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{events: make(chan canvas.Envelope, 16)}
}

func (f *fakeSurface) Mount(_ context.Context, in canvas.ComposeInput) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.mounts = append(f.mounts, in)
	return f.gen, nil
}

func (f *fakeSurface) MeasureBoxes(context.Context) ([]dropzone.Box, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.boxes, nil
}

func (f *fakeSurface) SetSelection(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects = append(f.selects, id)
	return true, nil
}

func (f *fakeSurface) SetViewport(context.Context, int, int) error { return nil }

func (f *fakeSurface) PrintPDF(context.Context) ([]byte, error) {
	return []byte("%PDF-1.4 fake page"), nil
}

func (f *fakeSurface) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeSurface) Events() <-chan canvas.Envelope { return f.events }

func (f *fakeSurface) Close() { f.closeOnce.Do(func() { close(f.events) }) }

func (f *fakeSurface) mountCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.mounts)
}

func (f *fakeSurface) emit(typ string, payload any) {
	raw, _ := json.Marshal(payload)
	f.events <- canvas.Envelope{V: canvas.ProtocolVersion, Gen: f.Generation(), Type: typ, Payload: raw}
}

func newSurfacedService(t *testing.T) (*Service, *fakeSurface) {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if err := store.ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	router := services.New()
	router.RegisterLocal(services.ServiceGenerate, services.DefaultGenerateHandler(testIDs("cmp")))
	router.RegisterLocal(services.ServiceSave, services.NoopHandler())
	router.RegisterLocal(services.ServiceExport, services.NoopHandler())

	fs := newFakeSurface()
	svc := New(store.NewStore(db), services.NewCollaborators(router, nil),
		func(context.Context) (Surfacer, error) { return fs, nil },
		Config{DebounceWindow: 200 * time.Millisecond})
	t.Cleanup(svc.Close)
	return svc, fs
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSurface_RemountOnEveryEdit(t *testing.T) {
	svc, fs := newSurfacedService(t)
	s := openTestSession(t, svc)
	ctx := context.Background()

	before := fs.mountCount()
	if _, err := s.InsertComponent(ctx, "footer", 99); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if fs.mountCount() != before+1 {
		t.Fatalf("insert must remount exactly once: got %d mounts, want %d", fs.mountCount(), before+1)
	}

	// The mounted document is self-contained: runtime on, CSS inlined.
	fs.mu.Lock()
	last := fs.mounts[len(fs.mounts)-1]
	fs.mu.Unlock()
	if !last.Runtime {
		t.Fatal("editing mounts must include the interaction runtime")
	}
	if last.CSS == "" {
		t.Fatal("editing mounts must carry the shared CSS")
	}
}

func TestSurface_ClickEnvelopeSelects(t *testing.T) {
	svc, fs := newSurfacedService(t)
	s := openTestSession(t, svc)
	id := s.Components()[0].ID

	feed := s.Feed().Subscribe()
	defer s.Feed().Unsubscribe(feed)

	fs.emit(canvas.EventClick, canvas.ClickPayload{ComponentID: id, ComponentType: "hero"})
	waitFor(t, "selection from click", func() bool { return s.Selection().ID == id })

	select {
	case raw := <-feed:
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			t.Fatalf("decode feed event: %v", err)
		}
		if evt.Type != EventSelection {
			t.Fatalf("feed event type: got %q, want %q", evt.Type, EventSelection)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no selection event on the feed")
	}
}

func TestSurface_StaleClickDropped(t *testing.T) {
	svc, fs := newSurfacedService(t)
	s := openTestSession(t, svc)

	// A click for a component no longer on the page must not select.
	fs.emit(canvas.EventClick, canvas.ClickPayload{ComponentID: "cmp-departed"})
	fs.emit(canvas.EventDragStart, canvas.DragStartPayload{ComponentID: "probe"})
	waitFor(t, "drag marker after stale click", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dragging == "probe"
	})
	if sel := s.Selection(); sel.ID != "" {
		t.Fatalf("stale click must be dropped, selection is %+v", sel)
	}
}

func TestSurface_DragLifecycle(t *testing.T) {
	svc, fs := newSurfacedService(t)
	s := openTestSession(t, svc)
	id := s.Components()[0].ID

	fs.emit(canvas.EventDragStart, canvas.DragStartPayload{ComponentID: id})
	waitFor(t, "drag start", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dragging == id
	})

	fs.emit(canvas.EventDragEnd, struct{}{})
	waitFor(t, "drag end", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.dragging == ""
	})
}

func TestSurface_DropBetweenComponents(t *testing.T) {
	svc, fs := newSurfacedService(t)
	s := openTestSession(t, svc)
	ctx := context.Background()

	idB, err := s.InsertComponent(ctx, "text", 99)
	if err != nil {
		t.Fatalf("insert B: %v", err)
	}
	idC, err := s.InsertComponent(ctx, "cta", 99)
	if err != nil {
		t.Fatalf("insert C: %v", err)
	}
	comps := s.Components()
	idA := comps[0].ID

	// Midpoints 100, 200, 300.
	fs.mu.Lock()
	fs.boxes = []dropzone.Box{
		{ID: idA, Top: 75, Height: 50},
		{ID: idB, Top: 175, Height: 50},
		{ID: idC, Top: 275, Height: 50},
	}
	fs.mu.Unlock()

	target, err := s.DropTarget(ctx, 150)
	if err != nil {
		t.Fatalf("drop target: %v", err)
	}
	if target.Index != 1 {
		t.Fatalf("drop at y=150: got index %d, want 1", target.Index)
	}

	id, err := s.DropComponent(ctx, "image", 150)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	comps = s.Components()
	if len(comps) != 4 {
		t.Fatalf("after drop: got %d components, want 4", len(comps))
	}
	if comps[1].ID != id {
		t.Fatalf("dropped component must land between %s and %s, order is [%s %s %s %s]",
			idA, idB, comps[0].ID, comps[1].ID, comps[2].ID, comps[3].ID)
	}
}

func TestSurface_SelectSyncsWithoutRemount(t *testing.T) {
	svc, fs := newSurfacedService(t)
	s := openTestSession(t, svc)
	id := s.Components()[0].ID

	before := fs.mountCount()
	if _, err := s.Select(context.Background(), id, KindComponent); err != nil {
		t.Fatalf("select: %v", err)
	}
	if fs.mountCount() != before {
		t.Fatal("selection-only changes must not remount the surface")
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.selects) == 0 || fs.selects[len(fs.selects)-1] != id {
		t.Fatalf("surface selection sync missing, calls: %v", fs.selects)
	}
}

func TestSurface_ExportPDFPrintsRuntimeFree(t *testing.T) {
	svc, fs := newSurfacedService(t)
	s := openTestSession(t, svc)

	data, err := s.ExportPDF(context.Background())
	if err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("pdf export produced no bytes")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	// Second-to-last mount printed the page, last restored the editor view.
	if len(fs.mounts) < 2 {
		t.Fatalf("expected print and restore mounts, got %d", len(fs.mounts))
	}
	printMount := fs.mounts[len(fs.mounts)-2]
	if printMount.Runtime {
		t.Fatal("print mounts must not carry the editing runtime")
	}
	if !fs.mounts[len(fs.mounts)-1].Runtime {
		t.Fatal("the editor view must be restored with its runtime after printing")
	}
}
