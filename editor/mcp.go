// CLAUDE:SUMMARY MCP tool surface: the editing operation set exposed for agent-driven sessions.
package editor

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/atelier/kit"
)

// RegisterMCP registers the editing operation set on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerListProjects(srv)
	svc.registerCreateProject(srv)
	svc.registerOpenSession(srv)
	svc.registerSessionState(srv)
	svc.registerOpenPage(srv)
	svc.registerListComponents(srv)
	svc.registerInsertComponent(srv)
	svc.registerDropComponent(srv)
	svc.registerDeleteComponent(srv)
	svc.registerDuplicateComponent(srv)
	svc.registerCopyComponent(srv)
	svc.registerPasteComponent(srv)
	svc.registerApplyStyles(srv)
	svc.registerUndo(srv)
	svc.registerRedo(srv)
	svc.registerSelect(srv)
	svc.registerSave(srv)
	svc.registerRecommend(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// decodeInto builds the standard decode function: unmarshal arguments into
// a fresh request and carry the session id into the context when present.
func decodeInto[T any](sessionID func(*T) string) func(*mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	return func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		p := new(T)
		if err := json.Unmarshal(r.Params.Arguments, p); err != nil {
			return nil, err
		}
		res := &kit.MCPDecodeResult{Request: p}
		if sessionID != nil {
			if id := sessionID(p); id != "" {
				res.EnrichCtx = func(ctx context.Context) context.Context {
					return kit.WithSessionID(ctx, id)
				}
			}
		}
		return res, nil
	}
}

var sessionProp = map[string]any{"type": "string", "description": "Session ID returned by atelier_open_session"}

func (svc *Service) registerListProjects(srv *mcp.Server) {
	type req struct{}

	tool := &mcp.Tool{
		Name:        "atelier_list_projects",
		Description: "List all website projects",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return svc.ListProjects(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req](nil))
}

func (svc *Service) registerCreateProject(srv *mcp.Server) {
	type req struct {
		Name string `json:"name"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_create_project",
		Description: "Create a new website project seeded with a home page",
		InputSchema: inputSchema(map[string]any{
			"name": map[string]any{"type": "string", "description": "Project name"},
		}, []string{"name"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.CreateProject(ctx, p.Name)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req](nil))
}

func (svc *Service) registerOpenSession(srv *mcp.Server) {
	type req struct {
		ProjectID string `json:"project_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_open_session",
		Description: "Open an editing session on a project and mount its live preview",
		InputSchema: inputSchema(map[string]any{
			"project_id": map[string]any{"type": "string", "description": "Project ID"},
		}, []string{"project_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.OpenSession(ctx, p.ProjectID)
		if err != nil {
			return nil, err
		}
		return s.State(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto[req](nil))
}

func (svc *Service) registerSessionState(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_session_state",
		Description: "Snapshot a session: pages, components, selection, undo/redo availability",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		return s.State(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerOpenPage(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
		PageID    string `json:"page_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_open_page",
		Description: "Switch the session's active page and rebuild the preview",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
			"page_id":    map[string]any{"type": "string", "description": "Page slug, e.g. home"},
		}, []string{"session_id", "page_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		if err := s.OpenPage(ctx, p.PageID); err != nil {
			return nil, err
		}
		return s.State(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerListComponents(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_list_components",
		Description: "List tracked components of the active page in document order",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		return s.Components(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerInsertComponent(srv *mcp.Server) {
	type req struct {
		SessionID     string `json:"session_id"`
		ComponentType string `json:"component_type"`
		Index         int    `json:"index"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_insert_component",
		Description: "Generate a component of the given palette type and insert it at an index",
		InputSchema: inputSchema(map[string]any{
			"session_id":     sessionProp,
			"component_type": map[string]any{"type": "string", "description": "Palette type: hero, navbar, text, image, gallery, cta, form, footer, container"},
			"index":          map[string]any{"type": "integer", "description": "Insertion index among tracked components; past-the-end appends"},
		}, []string{"session_id", "component_type"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		id, err := s.InsertComponent(ctx, p.ComponentType, p.Index)
		if err != nil {
			return nil, err
		}
		return map[string]string{"component_id": id}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerDropComponent(srv *mcp.Server) {
	type req struct {
		SessionID     string  `json:"session_id"`
		ComponentType string  `json:"component_type"`
		PointerY      float64 `json:"pointer_y"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_drop_component",
		Description: "Drop a component at a pointer position; the insertion index is resolved against live component geometry",
		InputSchema: inputSchema(map[string]any{
			"session_id":     sessionProp,
			"component_type": map[string]any{"type": "string", "description": "Palette type"},
			"pointer_y":      map[string]any{"type": "number", "description": "Pointer y relative to the preview document"},
		}, []string{"session_id", "component_type", "pointer_y"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		id, err := s.DropComponent(ctx, p.ComponentType, p.PointerY)
		if err != nil {
			return nil, err
		}
		return map[string]string{"component_id": id}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerDeleteComponent(srv *mcp.Server) {
	type req struct {
		SessionID   string `json:"session_id"`
		ComponentID string `json:"component_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_delete_component",
		Description: "Delete a component by id; unknown ids are a no-op",
		InputSchema: inputSchema(map[string]any{
			"session_id":   sessionProp,
			"component_id": map[string]any{"type": "string", "description": "Component ID"},
		}, []string{"session_id", "component_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		if err := s.DeleteComponent(ctx, p.ComponentID); err != nil {
			return nil, err
		}
		return s.State(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerDuplicateComponent(srv *mcp.Server) {
	type req struct {
		SessionID   string `json:"session_id"`
		ComponentID string `json:"component_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_duplicate_component",
		Description: "Duplicate a component in place with freshly minted ids",
		InputSchema: inputSchema(map[string]any{
			"session_id":   sessionProp,
			"component_id": map[string]any{"type": "string", "description": "Component ID"},
		}, []string{"session_id", "component_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		if err := s.DuplicateComponent(ctx, p.ComponentID); err != nil {
			return nil, err
		}
		return s.State(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerCopyComponent(srv *mcp.Server) {
	type req struct {
		SessionID   string `json:"session_id"`
		ComponentID string `json:"component_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_copy_component",
		Description: "Snapshot a component onto the session clipboard",
		InputSchema: inputSchema(map[string]any{
			"session_id":   sessionProp,
			"component_id": map[string]any{"type": "string", "description": "Component ID"},
		}, []string{"session_id", "component_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"copied": s.CopyComponent(p.ComponentID)}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerPasteComponent(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_paste_component",
		Description: "Paste the clipboard snapshot at the end of the active page",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		if err := s.PasteComponent(ctx); err != nil {
			return nil, err
		}
		return s.State(), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerApplyStyles(srv *mcp.Server) {
	type req struct {
		SessionID   string            `json:"session_id"`
		ComponentID string            `json:"component_id"`
		Props       map[string]string `json:"props"`
		Breakpoint  string            `json:"breakpoint"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_apply_styles",
		Description: "Apply CSS properties to a component, optionally scoped to the tablet or mobile breakpoint",
		InputSchema: inputSchema(map[string]any{
			"session_id":   sessionProp,
			"component_id": map[string]any{"type": "string", "description": "Component ID"},
			"props":        map[string]any{"type": "object", "description": "CSS property map, e.g. {\"color\": \"#fff\"}"},
			"breakpoint":   map[string]any{"type": "string", "description": "base, tablet or mobile; empty means base"},
		}, []string{"session_id", "component_id", "props"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		if err := s.ApplyStyles(p.ComponentID, p.Props, p.Breakpoint); err != nil {
			return nil, err
		}
		// Agents expect the patch to be visible on the next read.
		s.FlushStyles()
		return map[string]string{"status": "applied"}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerUndo(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_undo",
		Description: "Step the document back one history entry; a no-op at the stack bottom",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		return s.Undo(ctx), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerRedo(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_redo",
		Description: "Step the document forward one history entry; a no-op at the stack top",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		return s.Redo(ctx), nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerSelect(srv *mcp.Server) {
	type req struct {
		SessionID   string `json:"session_id"`
		ComponentID string `json:"component_id"`
		Kind        string `json:"kind"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_select",
		Description: "Select a component (empty id clears the selection) and sync the preview highlight",
		InputSchema: inputSchema(map[string]any{
			"session_id":   sessionProp,
			"component_id": map[string]any{"type": "string", "description": "Component ID, empty to clear"},
			"kind":         map[string]any{"type": "string", "description": "component, section or element"},
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		return s.Select(ctx, p.ComponentID, p.Kind)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerSave(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_save",
		Description: "Persist the session's document to the project store",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		if err := s.Save(ctx); err != nil {
			return nil, err
		}
		return map[string]string{"status": "saved"}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}

func (svc *Service) registerRecommend(srv *mcp.Server) {
	type req struct {
		SessionID string `json:"session_id"`
	}

	tool := &mcp.Tool{
		Name:        "atelier_recommend",
		Description: "Ask the recommend collaborator for suggestions on the active page",
		InputSchema: inputSchema(map[string]any{
			"session_id": sessionProp,
		}, []string{"session_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		s, err := svc.Session(p.SessionID)
		if err != nil {
			return nil, err
		}
		return s.Recommend(ctx)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeInto(func(p *req) string { return p.SessionID }))
}
