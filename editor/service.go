// CLAUDE:SUMMARY Editor service: project CRUD, session registry, idle reaper, document (de)serialization.
// Package editor orchestrates editing sessions. A Service owns the project
// store and the collaborator surface; each open project gets a Session
// that owns its document, history stack, stylesheet and live preview.
package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hazyhaar/atelier/animate"
	"github.com/hazyhaar/atelier/idgen"
	"github.com/hazyhaar/atelier/services"
	"github.com/hazyhaar/atelier/sitedoc"
	"github.com/hazyhaar/atelier/store"
)

// Service is the editing orchestrator.
type Service struct {
	store      *store.Store
	collab     *services.Collaborators
	newSurface SurfaceFactory
	cfg        Config
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	cancel context.CancelFunc
}

// New creates a Service. factory may be nil, in which case sessions run
// headless: no live preview, drops resolve to appends, exports that need
// the browser fail with ErrPreviewUnavailable.
func New(st *store.Store, collab *services.Collaborators, factory SurfaceFactory, cfg Config) *Service {
	cfg.defaults()
	return &Service{
		store:      st,
		collab:     collab,
		newSurface: factory,
		cfg:        cfg,
		logger:     cfg.Logger,
		sessions:   make(map[string]*Session),
	}
}

// Start launches the idle-session reaper. It returns immediately; the
// reaper stops when ctx is cancelled or Close is called.
func (svc *Service) Start(ctx context.Context) {
	rctx, cancel := context.WithCancel(ctx)
	svc.cancel = cancel
	go svc.reapLoop(rctx)
}

// Close shuts every session down.
func (svc *Service) Close() {
	if svc.cancel != nil {
		svc.cancel()
	}
	svc.mu.Lock()
	open := make([]*Session, 0, len(svc.sessions))
	for _, s := range svc.sessions {
		open = append(open, s)
	}
	svc.sessions = make(map[string]*Session)
	svc.mu.Unlock()

	for _, s := range open {
		s.close()
	}
}

func (svc *Service) reapLoop(ctx context.Context) {
	ticker := time.NewTicker(svc.cfg.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-svc.cfg.SessionTTL)
			svc.mu.Lock()
			var stale []*Session
			for id, s := range svc.sessions {
				if s.IdleSince().Before(cutoff) {
					stale = append(stale, s)
					delete(svc.sessions, id)
				}
			}
			svc.mu.Unlock()
			for _, s := range stale {
				svc.logger.Info("reaping idle session", "session", s.ID, "project", s.ProjectID)
				s.close()
			}
		}
	}
}

// --- Projects ---

// starterPage is the seed markup for a freshly created project.
const starterPage = `<section component-id="%s" component-type="hero" class="hero">
  <h1>%s</h1>
  <p>Drag components from the palette to start building.</p>
</section>`

// starterCSS gives a new project readable defaults before any style patch.
const starterCSS = `body { margin: 0; font-family: system-ui, sans-serif; color: #1f2937; }
.hero { padding: 64px 24px; text-align: center; }`

// CreateProject seeds a new project with a single home page and persists it.
func (svc *Service) CreateProject(ctx context.Context, name string) (*store.Project, error) {
	if name == "" {
		name = "Untitled site"
	}
	projectID := idgen.Prefixed("prj_", idgen.Default)()

	doc := sitedoc.New(sitedoc.Manifest{
		ProjectID: projectID,
		Name:      name,
		Pages:     []sitedoc.PageInfo{{Slug: "home", Title: name, Path: "pages/home.html"}},
	})
	doc = doc.WithFile(sitedoc.FileRecord{
		Path:    "pages/home.html",
		Content: fmt.Sprintf(starterPage, idgen.Component()(), escapeTitle(name)),
	})
	doc = doc.WithShared(sitedoc.SharedAssets{CSS: starterCSS})
	doc = doc.WithActivePage("home")

	raw, err := MarshalDocument(doc)
	if err != nil {
		return nil, err
	}
	p := &store.Project{
		ID:           projectID,
		Name:         name,
		DocumentJSON: raw,
		ActivePage:   "home",
	}
	if err := svc.store.InsertProject(ctx, p); err != nil {
		return nil, fmt.Errorf("editor: create project: %w", err)
	}
	return p, nil
}

func escapeTitle(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// ListProjects returns all projects, most recently touched first.
func (svc *Service) ListProjects(ctx context.Context) ([]*store.Project, error) {
	return svc.store.ListProjects(ctx)
}

// GetProject loads one project or ErrProjectNotFound.
func (svc *Service) GetProject(ctx context.Context, id string) (*store.Project, error) {
	p, err := svc.store.GetProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("editor: load project: %w", err)
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

// DeleteProject removes a project and closes any session editing it.
func (svc *Service) DeleteProject(ctx context.Context, id string) error {
	svc.mu.Lock()
	var doomed []*Session
	for sid, s := range svc.sessions {
		if s.ProjectID == id {
			doomed = append(doomed, s)
			delete(svc.sessions, sid)
		}
	}
	svc.mu.Unlock()
	for _, s := range doomed {
		s.close()
	}
	return svc.store.DeleteProject(ctx, id)
}

// --- Sessions ---

// OpenSession loads a project's document, creates its surface and mounts
// the active page. The returned session is registered until closed or
// reaped.
func (svc *Service) OpenSession(ctx context.Context, projectID string) (*Session, error) {
	p, err := svc.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	doc, err := UnmarshalDocument(p.DocumentJSON)
	if err != nil {
		return nil, fmt.Errorf("editor: decode project %s: %w", projectID, err)
	}
	doc = normalize(doc)
	if p.ActivePage != "" {
		doc = doc.WithActivePage(p.ActivePage)
	}

	anims, err := svc.loadAnimations(ctx, projectID)
	if err != nil {
		svc.logger.Warn("load animations failed", "project", projectID, "error", err)
	}

	var surface Surfacer
	if svc.newSurface != nil {
		surface, err = svc.newSurface(ctx)
		if err != nil {
			svc.logger.Warn("surface creation failed, session runs headless",
				"project", projectID, "error", err)
			surface = nil
		}
	}

	s := newSession(ctx, svc, projectID, doc, anims, surface)

	svc.mu.Lock()
	svc.sessions[s.ID] = s
	svc.mu.Unlock()

	s.mu.Lock()
	s.remount(ctx)
	s.mu.Unlock()

	svc.logger.Info("session opened", "session", s.ID, "project", projectID,
		"headless", surface == nil)
	return s, nil
}

// Session resolves a session id.
func (svc *Service) Session(id string) (*Session, error) {
	svc.mu.Lock()
	s, ok := svc.sessions[id]
	svc.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// CloseSession tears a session down and forgets it.
func (svc *Service) CloseSession(id string) error {
	svc.mu.Lock()
	s, ok := svc.sessions[id]
	delete(svc.sessions, id)
	svc.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	return nil
}

// loadAnimations decodes a project's persisted descriptors.
func (svc *Service) loadAnimations(ctx context.Context, projectID string) ([]animate.Descriptor, error) {
	rows, err := svc.store.ListAnimations(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]animate.Descriptor, 0, len(rows))
	for _, row := range rows {
		d, err := decodeAnimation(row)
		if err != nil {
			svc.logger.Warn("skipping undecodable animation", "id", row.ID, "error", err)
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// --- Document codec ---

// MarshalDocument serializes a document for the store.
func MarshalDocument(doc sitedoc.Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("editor: marshal document: %w", err)
	}
	return string(raw), nil
}

// UnmarshalDocument is the inverse of MarshalDocument.
func UnmarshalDocument(raw string) (sitedoc.Document, error) {
	var doc sitedoc.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return sitedoc.Document{}, err
	}
	if doc.Files == nil {
		doc.Files = make(map[string]sitedoc.FileRecord)
	}
	return doc, nil
}

// normalize runs the encoding heuristic over every file so structural work
// always sees plain text. Generation services hand content back base64
// wrapped often enough that this runs on every open.
func normalize(doc sitedoc.Document) sitedoc.Document {
	out := doc.Clone()
	for path, rec := range out.Files {
		rec.Content = sitedoc.DecodeContent(rec.Content)
		out.Files[path] = rec
	}
	out.Shared.CSS = sitedoc.DecodeContent(out.Shared.CSS)
	out.Shared.JS = sitedoc.DecodeContent(out.Shared.JS)
	return out
}

func decodeAnimation(row *store.Animation) (animate.Descriptor, error) {
	d := animate.Descriptor{
		ID:       row.ID,
		TargetID: row.TargetID,
		Type:     row.AnimType,
		Trigger:  row.Trigger,
		Enabled:  row.Enabled,
	}
	if row.PropertiesJSON != "" {
		if err := json.Unmarshal([]byte(row.PropertiesJSON), &d.Properties); err != nil {
			return d, err
		}
	}
	if row.TimingJSON != "" {
		if err := json.Unmarshal([]byte(row.TimingJSON), &d.Timing); err != nil {
			return d, err
		}
	}
	return animate.Normalize(d), nil
}

func encodeAnimation(projectID string, d animate.Descriptor) (*store.Animation, error) {
	props, err := json.Marshal(d.Properties)
	if err != nil {
		return nil, fmt.Errorf("editor: encode animation: %w", err)
	}
	timing, err := json.Marshal(d.Timing)
	if err != nil {
		return nil, fmt.Errorf("editor: encode animation: %w", err)
	}
	return &store.Animation{
		ID:             d.ID,
		ProjectID:      projectID,
		TargetID:       d.TargetID,
		AnimType:       d.Type,
		Trigger:        d.Trigger,
		PropertiesJSON: string(props),
		TimingJSON:     string(timing),
		Enabled:        d.Enabled,
	}, nil
}
