// CLAUDE:SUMMARY In-memory document model for a multi-page site: files, shared assets, manifest, page resolution.
// Package sitedoc defines the in-memory representation of a site under
// edit: a set of files, shared CSS/JS, and a manifest. Documents are
// immutable by convention; every mutation helper returns a new Document
// and never touches the receiver's maps.
package sitedoc

import (
	"sort"
	"strings"
)

// FileType classifies a FileRecord's content.
type FileType string

const (
	TypeHTML  FileType = "html"
	TypeCSS   FileType = "css"
	TypeJS    FileType = "js"
	TypeJSON  FileType = "json"
	TypeOther FileType = "other"
)

// TypeForPath infers a FileType from a file path extension.
func TypeForPath(path string) FileType {
	switch {
	case strings.HasSuffix(path, ".html"), strings.HasSuffix(path, ".htm"):
		return TypeHTML
	case strings.HasSuffix(path, ".css"):
		return TypeCSS
	case strings.HasSuffix(path, ".js"):
		return TypeJS
	case strings.HasSuffix(path, ".json"):
		return TypeJSON
	default:
		return TypeOther
	}
}

// FileRecord is one logical file of the site. Content may be a full HTML
// document, a fragment, or base64-encoded text; callers normalize through
// DecodeContent before structural work.
type FileRecord struct {
	Path    string   `json:"path"`
	Content string   `json:"content"`
	Type    FileType `json:"type"`
}

// SharedAssets hold the site-wide CSS and JS injected into every page.
type SharedAssets struct {
	CSS string `json:"css"`
	JS  string `json:"js"`
}

// PageInfo describes one page in the manifest.
type PageInfo struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Manifest carries document-level metadata.
type Manifest struct {
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	Pages     []PageInfo `json:"pages"`
	UpdatedAt int64      `json:"updated_at"`
}

// Document is a full snapshot of a site under edit. Exactly one FileRecord
// exists per logical page path (pages/<slug>.html).
type Document struct {
	Files        map[string]FileRecord `json:"files"`
	Shared       SharedAssets          `json:"shared"`
	Manifest     Manifest              `json:"manifest"`
	ActivePageID string                `json:"active_page_id"`
}

// New creates a Document with an initialised file map.
func New(manifest Manifest) Document {
	return Document{
		Files:    make(map[string]FileRecord),
		Manifest: manifest,
	}
}

// Clone deep-copies the document. History snapshots depend on this: a
// cloned document shares no mutable state with its origin.
func (d Document) Clone() Document {
	out := d
	out.Files = make(map[string]FileRecord, len(d.Files))
	for k, v := range d.Files {
		out.Files[k] = v
	}
	out.Manifest.Pages = append([]PageInfo(nil), d.Manifest.Pages...)
	return out
}

// PagePath resolves the file key for a page id via the fallback chain:
// pages/<slug>.html → pages/home.html → index.html → home.html → the
// first HTML-typed file in path order. The second return is false when
// nothing resolves.
func (d Document) PagePath(pageID string) (string, bool) {
	candidates := []string{
		"pages/" + pageID + ".html",
		"pages/home.html",
		"index.html",
		"home.html",
	}
	for _, c := range candidates {
		if _, ok := d.Files[c]; ok {
			return c, true
		}
	}

	// Fall back to the first HTML file. Map iteration order is random, so
	// sort the keys for a stable pick.
	keys := make([]string, 0, len(d.Files))
	for k := range d.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if d.Files[k].Type == TypeHTML {
			return k, true
		}
	}
	return "", false
}

// PageContent returns the raw stored markup for a page id, resolving
// through the PagePath fallback chain. It returns "" when no candidate
// exists; it never fails. Callers render an empty state on "".
func (d Document) PageContent(pageID string) string {
	path, ok := d.PagePath(pageID)
	if !ok {
		return ""
	}
	return d.Files[path].Content
}

// WithPageContent returns a new Document with the resolved page's content
// replaced. When no path resolves, a fresh pages/<slug>.html record is
// created so first-edit-on-empty-document still lands somewhere addressable.
func (d Document) WithPageContent(pageID, markup string) Document {
	out := d.Clone()
	path, ok := d.PagePath(pageID)
	if !ok {
		path = "pages/" + pageID + ".html"
	}
	rec, exists := out.Files[path]
	if !exists {
		rec = FileRecord{Path: path, Type: TypeHTML}
	}
	rec.Content = markup
	out.Files[path] = rec
	return out
}

// WithFile returns a new Document containing the given record, replacing
// any previous record at the same path.
func (d Document) WithFile(rec FileRecord) Document {
	out := d.Clone()
	if rec.Type == "" {
		rec.Type = TypeForPath(rec.Path)
	}
	out.Files[rec.Path] = rec
	return out
}

// WithShared returns a new Document with the shared assets replaced.
func (d Document) WithShared(shared SharedAssets) Document {
	out := d.Clone()
	out.Shared = shared
	return out
}

// WithActivePage returns a new Document pointing at another page.
func (d Document) WithActivePage(pageID string) Document {
	out := d.Clone()
	out.ActivePageID = pageID
	return out
}

// Paths returns all file paths in sorted order.
func (d Document) Paths() []string {
	keys := make([]string, 0, len(d.Files))
	for k := range d.Files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
