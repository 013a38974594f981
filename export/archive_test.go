package export

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/hazyhaar/atelier/sitedoc"
)

func TestArchive_ContainsEveryFileAndAssets(t *testing.T) {
	doc := sitedoc.New(sitedoc.Manifest{ProjectID: "prj_1", Name: "Demo"})
	doc = doc.WithFile(sitedoc.FileRecord{Path: "pages/home.html", Content: "<section component-id=\"a\">hi</section>"})
	doc = doc.WithFile(sitedoc.FileRecord{Path: "pages/about.html", Content: "<p>about</p>"})
	doc = doc.WithShared(sitedoc.SharedAssets{CSS: "body { margin: 0; }", JS: "console.log('hi')"})

	data, err := Archive(doc)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}

	want := map[string]bool{
		"pages/home.html":  false,
		"pages/about.html": false,
		CSSPath:            false,
		JSPath:             false,
		ManifestPath:       false,
	}
	for _, f := range zr.File {
		if _, ok := want[f.Name]; !ok {
			t.Fatalf("unexpected archive entry %s", f.Name)
		}
		want[f.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("archive missing %s", name)
		}
	}
}

func TestArchive_DecodesEncodedContent(t *testing.T) {
	page := "<section component-id=\"a\"><h1>Encoded page content that is long enough to trip the heuristic</h1></section>"
	doc := sitedoc.New(sitedoc.Manifest{Name: "enc"})
	doc = doc.WithFile(sitedoc.FileRecord{Path: "pages/home.html", Content: sitedoc.EncodeContent(page)})

	data, err := Archive(doc)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "pages/home.html" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		got, _ := io.ReadAll(rc)
		rc.Close()
		if string(got) != page {
			t.Fatalf("archived page: got %q, want %q", got, page)
		}
		return
	}
	t.Fatal("archive missing pages/home.html")
}

func TestMergePDF_EmptyAndSingle(t *testing.T) {
	if _, err := MergePDF(nil); err != ErrNoPages {
		t.Fatalf("merge empty: got %v, want ErrNoPages", err)
	}
	one := []byte("%PDF-1.4 fake")
	got, err := MergePDF([][]byte{one})
	if err != nil {
		t.Fatalf("merge single: %v", err)
	}
	if !bytes.Equal(got, one) {
		t.Fatal("merge single: content altered")
	}
}
