// CLAUDE:SUMMARY Merges per-page printed PDFs into one document with pdfcpu.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrNoPages is returned when a PDF merge is asked for zero pages.
var ErrNoPages = errors.New("export: no pages to merge")

// MergePDF concatenates per-page PDFs, in order, into one document. The
// inputs come from the browser's print pipeline, one per site page.
func MergePDF(pages [][]byte) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	if len(pages) == 1 {
		return pages[0], nil
	}

	readers := make([]io.ReadSeeker, len(pages))
	for i, p := range pages {
		readers[i] = bytes.NewReader(p)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, nil); err != nil {
		return nil, fmt.Errorf("export: merge pdf: %w", err)
	}
	return out.Bytes(), nil
}
