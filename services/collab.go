// CLAUDE:SUMMARY Typed collaborator surface: generate, save, export and recommend calls with markup sanitization.

package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/atelier/pagetree"
)

// Service names the editor calls through the router. Each can be rebound to
// a remote collaborator via the collaborators table; generate and recommend
// ship with local defaults, save and export default to noop.
const (
	ServiceGenerate  = "generate"
	ServiceSave      = "save"
	ServiceExport    = "export"
	ServiceRecommend = "recommend"
)

// SaveRequest notifies a save collaborator that a project was persisted.
type SaveRequest struct {
	ProjectID    string          `json:"projectId"`
	Name         string          `json:"name"`
	DocumentJSON json.RawMessage `json:"document"`
}

// SaveResult is the collaborator's acknowledgement.
type SaveResult struct {
	Location string `json:"location,omitempty"`
}

// ExportRequest hands a finished export artifact to an export collaborator,
// typically an uploader for a hosting target.
type ExportRequest struct {
	ProjectID string `json:"projectId"`
	Format    string `json:"format"`
	Filename  string `json:"filename"`
	Data      []byte `json:"data"`
}

// ExportResult reports where the artifact ended up.
type ExportResult struct {
	URL string `json:"url,omitempty"`
}

var markupPolicy = newMarkupPolicy()

// newMarkupPolicy builds the sanitization policy for markup that enters a
// document from outside the editor (generate collaborators, paste). Scripts,
// event handlers and inline styles are stripped; styling flows through the
// shared stylesheet instead. Component identity attributes survive so edits
// keep addressing the fragment.
func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs(pagetree.IDAttr, pagetree.TypeAttr).Globally()
	p.AllowAttrs("class").Globally()
	p.AllowElements("nav", "header", "footer", "main")
	p.AllowElements("form", "fieldset", "label", "input", "button", "textarea", "select", "option")
	p.AllowAttrs("type", "name", "placeholder", "value", "rows", "cols").OnElements("input", "textarea", "select", "button")
	p.AllowAttrs("for").OnElements("label")
	return p
}

// SanitizeMarkup strips unsafe markup while keeping component identity
// attributes intact. Safe for concurrent use.
func SanitizeMarkup(markup string) string {
	return strings.TrimSpace(markupPolicy.Sanitize(markup))
}

// NoopHandler acknowledges a call without doing anything. Registered as
// the local default for save and export so a deployment without those
// collaborators still works.
func NoopHandler() Handler {
	return func(context.Context, []byte) ([]byte, error) {
		return []byte("{}"), nil
	}
}

// Collaborators is the typed surface the editor talks to. It wraps the
// router with request/response codecs and sanitizes any markup a
// collaborator hands back before it can reach a document.
type Collaborators struct {
	router *Router
	logger *slog.Logger
}

// NewCollaborators wraps a router.
func NewCollaborators(router *Router, logger *slog.Logger) *Collaborators {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collaborators{router: router, logger: logger}
}

// Generate asks the generate collaborator for a component fragment.
// Returns (nil, nil) when the service is bound to noop.
func (c *Collaborators) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var res GenerateResult
	ok, err := c.call(ctx, ServiceGenerate, req, &res)
	if err != nil || !ok {
		return nil, err
	}
	res.Markup = SanitizeMarkup(res.Markup)
	return &res, nil
}

// Save notifies the save collaborator after a project write.
// Returns (nil, nil) when the service is bound to noop.
func (c *Collaborators) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	var res SaveResult
	ok, err := c.call(ctx, ServiceSave, req, &res)
	if err != nil || !ok {
		return nil, err
	}
	return &res, nil
}

// Export hands an export artifact to the export collaborator.
// Returns (nil, nil) when the service is bound to noop.
func (c *Collaborators) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	var res ExportResult
	ok, err := c.call(ctx, ServiceExport, req, &res)
	if err != nil || !ok {
		return nil, err
	}
	return &res, nil
}

// Recommend asks the recommend collaborator for suggestions on a page.
// Returns (nil, nil) when the service is bound to noop.
func (c *Collaborators) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResult, error) {
	var res RecommendResult
	ok, err := c.call(ctx, ServiceRecommend, req, &res)
	if err != nil || !ok {
		return nil, err
	}
	return &res, nil
}

// RecommendPage converts page HTML to markdown and asks for suggestions.
func (c *Collaborators) RecommendPage(ctx context.Context, projectID, pageID, pageHTML string) (*RecommendResult, error) {
	md, err := PageMarkdown(pageHTML)
	if err != nil {
		return nil, &CollaboratorError{Service: ServiceRecommend, Cause: err}
	}
	return c.Recommend(ctx, RecommendRequest{ProjectID: projectID, PageID: pageID, Markdown: md})
}

// call marshals req, dispatches through the router and unmarshals into res.
// The bool reports whether the collaborator produced a response; noop
// bindings yield (false, nil).
func (c *Collaborators) call(ctx context.Context, service string, req, res any) (bool, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return false, &CollaboratorError{Service: service, Cause: err}
	}
	out, err := c.router.Call(ctx, service, payload)
	if err != nil {
		return false, &CollaboratorError{Service: service, Cause: err}
	}
	if out == nil {
		c.logger.Debug("collaborator produced no response", "service", service)
		return false, nil
	}
	if err := json.Unmarshal(out, res); err != nil {
		return false, &CollaboratorError{Service: service, Cause: err}
	}
	return true, nil
}
