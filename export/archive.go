// CLAUDE:SUMMARY Site export: zip archive of all files with shared assets and manifest.
// Package export turns a finished document into portable artifacts: a zip
// archive of the site files and a merged PDF of its printed pages.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hazyhaar/atelier/sitedoc"
)

// Shared asset paths inside the archive. Pages are stored at their
// document paths unchanged.
const (
	CSSPath      = "assets/site.css"
	JSPath       = "assets/site.js"
	ManifestPath = "manifest.json"
)

// Archive writes the document as a zip: every file at its own path with
// content normalized through the encoding heuristic, shared CSS and JS
// under assets/, and the manifest as JSON. Output bytes are deterministic
// for a given document.
func Archive(doc sitedoc.Document) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	write := func(path string, data []byte) error {
		w, err := zw.Create(path)
		if err != nil {
			return fmt.Errorf("export: create %s: %w", path, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("export: write %s: %w", path, err)
		}
		return nil
	}

	for _, path := range doc.Paths() {
		rec := doc.Files[path]
		if err := write(path, []byte(sitedoc.DecodeContent(rec.Content))); err != nil {
			return nil, err
		}
	}
	if doc.Shared.CSS != "" {
		if err := write(CSSPath, []byte(doc.Shared.CSS)); err != nil {
			return nil, err
		}
	}
	if doc.Shared.JS != "" {
		if err := write(JSPath, []byte(doc.Shared.JS)); err != nil {
			return nil, err
		}
	}

	manifest, err := json.MarshalIndent(doc.Manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal manifest: %w", err)
	}
	if err := write(ManifestPath, manifest); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("export: close archive: %w", err)
	}
	return buf.Bytes(), nil
}
