// CLAUDE:SUMMARY Session persistence surface: save, revisions, exports, recommendations, animation CRUD.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/atelier/animate"
	"github.com/hazyhaar/atelier/canvas"
	"github.com/hazyhaar/atelier/export"
	"github.com/hazyhaar/atelier/idgen"
	"github.com/hazyhaar/atelier/pagetree"
	"github.com/hazyhaar/atelier/services"
	"github.com/hazyhaar/atelier/sitedoc"
	"github.com/hazyhaar/atelier/store"
	"github.com/hazyhaar/atelier/stylepatch"
)

// pageSlugs lists the slugs to print, manifest order, falling back to the
// active page when the manifest is empty.
func pageSlugs(doc sitedoc.Document) []string {
	if len(doc.Manifest.Pages) == 0 {
		return []string{doc.ActivePageID}
	}
	out := make([]string, 0, len(doc.Manifest.Pages))
	for _, p := range doc.Manifest.Pages {
		out = append(out, p.Slug)
	}
	return out
}

// Save flushes pending style edits and persists the current document to
// the project row, then notifies the save collaborator. A collaborator
// failure is reported but does not undo the local write.
func (s *Session) Save(ctx context.Context) error {
	s.FlushStyles()

	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.touch()
	doc := s.doc
	s.mu.Unlock()

	raw, err := MarshalDocument(doc)
	if err != nil {
		return err
	}
	p := &store.Project{
		ID:           s.ProjectID,
		Name:         doc.Manifest.Name,
		DocumentJSON: raw,
		ActivePage:   doc.ActivePageID,
	}
	if err := s.svc.store.UpdateProject(ctx, p); err != nil {
		return fmt.Errorf("editor: save project: %w", err)
	}
	s.logEdit(ctx, "save", "", "")

	if _, err := s.svc.collab.Save(ctx, services.SaveRequest{
		ProjectID:    s.ProjectID,
		Name:         doc.Manifest.Name,
		DocumentJSON: json.RawMessage(raw),
	}); err != nil {
		s.notifyCollaborator(err)
		return fmt.Errorf("editor: save collaborator: %w", err)
	}

	s.feed.Broadcast(Event{Type: EventNotice, Payload: map[string]string{
		"level": "info", "text": "saved",
	}})
	return nil
}

// SaveRevision records a named restore point of the current document.
func (s *Session) SaveRevision(ctx context.Context, label string) (*store.Revision, error) {
	s.FlushStyles()

	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.touch()
	doc := s.doc
	s.mu.Unlock()

	raw, err := MarshalDocument(doc)
	if err != nil {
		return nil, err
	}
	if label == "" {
		label = time.Now().Format("2006-01-02 15:04")
	}
	rev := &store.Revision{
		ID:           idgen.Prefixed("rev_", idgen.Default)(),
		ProjectID:    s.ProjectID,
		Label:        label,
		DocumentJSON: raw,
	}
	if err := s.svc.store.InsertRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("editor: save revision: %w", err)
	}
	s.logEdit(ctx, "revision", "", fmt.Sprintf(`{"label":%q}`, label))
	return rev, nil
}

// ListRevisions returns the project's restore points, newest first.
func (s *Session) ListRevisions(ctx context.Context) ([]*store.Revision, error) {
	return s.svc.store.ListRevisions(ctx, s.ProjectID)
}

// RestoreRevision loads a restore point and installs it as a regular edit,
// so restoring is itself undoable. A revision that has been deleted since
// the list was fetched yields ErrStale.
func (s *Session) RestoreRevision(ctx context.Context, revisionID string) error {
	rev, err := s.svc.store.GetRevision(ctx, revisionID)
	if err != nil {
		return fmt.Errorf("editor: load revision: %w", err)
	}
	if rev == nil || rev.ProjectID != s.ProjectID {
		return ErrStale
	}
	doc, err := UnmarshalDocument(rev.DocumentJSON)
	if err != nil {
		return fmt.Errorf("editor: decode revision %s: %w", revisionID, err)
	}
	doc = normalize(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch()

	if doc.ActivePageID == "" {
		doc = doc.WithActivePage(s.doc.ActivePageID)
	}
	s.baseCSS, _ = stylepatch.Split(doc.Shared.CSS)
	s.sheet = stylepatch.Parse(doc.Shared.CSS)
	s.selection = Selection{}
	s.commit(ctx, doc, "restore", "", fmt.Sprintf(`{"revision":%q}`, revisionID))
	return nil
}

// EditHistory lists the project's append-only edit log, newest first.
func (s *Session) EditHistory(ctx context.Context, limit int) ([]*store.EditLogEntry, error) {
	return s.svc.store.ListEdits(ctx, s.ProjectID, limit)
}

// ExportZip flushes styles and archives the current document. The artifact
// is also offered to the export collaborator for uploading.
func (s *Session) ExportZip(ctx context.Context) ([]byte, error) {
	s.FlushStyles()

	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()

	data, err := export.Archive(doc)
	if err != nil {
		return nil, err
	}
	if _, err := s.svc.collab.Export(ctx, services.ExportRequest{
		ProjectID: s.ProjectID,
		Format:    "zip",
		Filename:  s.ProjectID + ".zip",
		Data:      data,
	}); err != nil {
		s.notifyCollaborator(err)
	}
	s.logEdit(ctx, "export", "", `{"format":"zip"}`)
	return data, nil
}

// ExportPDF prints every page runtime-free through the live surface and
// merges the results. The active page is remounted with its editing
// runtime afterwards.
func (s *Session) ExportPDF(ctx context.Context) ([]byte, error) {
	s.FlushStyles()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if s.surface == nil {
		return nil, ErrPreviewUnavailable
	}
	s.touch()

	var printed [][]byte
	slugs := pageSlugs(s.doc)
	for _, slug := range slugs {
		in := canvas.ComposeInput{
			Title:     s.doc.Manifest.Name,
			PageHTML:  s.doc.PageContent(slug),
			CSS:       s.doc.Shared.CSS,
			JS:        s.doc.Shared.JS,
			Keyframes: animate.Render(s.anims),
			Runtime:   false,
		}
		if _, err := s.surface.Mount(ctx, in); err != nil {
			s.remount(ctx)
			return nil, fmt.Errorf("editor: export pdf mount %s: %w", slug, err)
		}
		data, err := s.surface.PrintPDF(ctx)
		if err != nil {
			s.remount(ctx)
			return nil, fmt.Errorf("editor: export pdf print %s: %w", slug, err)
		}
		printed = append(printed, data)
	}
	s.remount(ctx)

	merged, err := export.MergePDF(printed)
	if err != nil {
		return nil, err
	}
	s.logEdit(ctx, "export", "", `{"format":"pdf"}`)
	return merged, nil
}

// Recommend asks the recommend collaborator for suggestions on the active
// page.
func (s *Session) Recommend(ctx context.Context) (*services.RecommendResult, error) {
	s.mu.Lock()
	pageID := s.doc.ActivePageID
	markup := s.pageMarkup()
	s.mu.Unlock()

	res, err := s.svc.collab.RecommendPage(ctx, s.ProjectID, pageID, markup)
	if err != nil {
		s.notifyCollaborator(err)
		return nil, fmt.Errorf("editor: recommend: %w", err)
	}
	if res == nil {
		res = &services.RecommendResult{}
	}
	return res, nil
}

// --- Animations ---

// Animations returns the session's in-memory descriptor list.
func (s *Session) Animations() []animate.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]animate.Descriptor(nil), s.anims...)
}

// AddAnimation persists a descriptor for a component and injects it into
// the preview. The target must exist on the active page.
func (s *Session) AddAnimation(ctx context.Context, d animate.Descriptor) (animate.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return d, err
	}
	s.touch()

	if d.TargetID == "" || !pagetree.Has(s.pageMarkup(), d.TargetID) {
		return d, ErrStale
	}
	if d.ID == "" {
		d.ID = idgen.Prefixed("anim_", idgen.Default)()
	}
	d = animate.Normalize(d)

	row, err := encodeAnimation(s.ProjectID, d)
	if err != nil {
		return d, err
	}
	if err := s.svc.store.InsertAnimation(ctx, row); err != nil {
		return d, fmt.Errorf("editor: add animation: %w", err)
	}
	s.anims = append(s.anims, d)
	s.remount(ctx)
	s.logEdit(ctx, "animate", d.TargetID, fmt.Sprintf(`{"animation":%q}`, d.ID))
	return d, nil
}

// UpdateAnimation replaces a persisted descriptor.
func (s *Session) UpdateAnimation(ctx context.Context, d animate.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch()

	idx := -1
	for i := range s.anims {
		if s.anims[i].ID == d.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrStale
	}
	d = animate.Normalize(d)
	row, err := encodeAnimation(s.ProjectID, d)
	if err != nil {
		return err
	}
	if err := s.svc.store.UpdateAnimation(ctx, row); err != nil {
		return fmt.Errorf("editor: update animation: %w", err)
	}
	s.anims[idx] = d
	s.remount(ctx)
	return nil
}

// DeleteAnimation removes a descriptor from the store and the preview.
func (s *Session) DeleteAnimation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.touch()

	if err := s.svc.store.DeleteAnimation(ctx, id); err != nil {
		return fmt.Errorf("editor: delete animation: %w", err)
	}
	out := s.anims[:0]
	for _, d := range s.anims {
		if d.ID != id {
			out = append(out, d)
		}
	}
	s.anims = out
	s.remount(ctx)
	return nil
}
