// CLAUDE:SUMMARY Composes a self-contained preview document: page markup + inlined CSS, keyframes, runtime.
package canvas

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/hazyhaar/atelier/pagetree"
)

//go:embed runtime.js
var runtimeJS string

// chromeCSS styles the editing affordances the runtime toggles. It ships
// with every preview mount and is stripped from exports along with the
// runtime.
const chromeCSS = `.atelier-selected { outline: 2px solid #3b82f6; outline-offset: 2px; }
.atelier-hovered { outline: 1px dashed #93c5fd; outline-offset: 2px; }
.atelier-dragging { opacity: 0.5; }`

// ComposeInput carries everything one preview document is built from.
type ComposeInput struct {
	Title      string
	PageHTML   string // page markup; a full document is reduced to its body
	CSS        string // shared CSS, style sheet already rendered in
	JS         string // shared user JS
	Keyframes  string // enabled animation keyframes
	Generation uint64
	Runtime    bool // include interaction runtime + chrome styling
}

// Compose builds a fully self-contained HTML document: no external asset
// may decide whether the preview renders. Script and style payloads are
// inlined in a fixed order so the output is deterministic for a given
// input.
func Compose(in ComposeInput) string {
	body := pagetree.BodyContent(in.PageHTML)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	if in.Title != "" {
		b.WriteString("<title>" + escapeText(in.Title) + "</title>\n")
	}
	if in.CSS != "" {
		b.WriteString("<style>\n" + escapeStyle(in.CSS) + "\n</style>\n")
	}
	if in.Keyframes != "" {
		b.WriteString("<style>\n" + escapeStyle(in.Keyframes) + "\n</style>\n")
	}
	if in.Runtime {
		b.WriteString("<style>\n" + chromeCSS + "\n</style>\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n")
	if in.Runtime {
		b.WriteString("<script>window.__ATELIER_GEN = " + strconv.FormatUint(in.Generation, 10) + ";</script>\n")
		b.WriteString("<script>\n" + runtimeJS + "\n</script>\n")
	}
	if in.JS != "" {
		b.WriteString("<script>\n" + escapeScript(in.JS) + "\n</script>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// escapeStyle keeps inlined CSS from closing its own style block.
func escapeStyle(s string) string {
	return strings.ReplaceAll(s, "</style", "<\\/style")
}

// escapeScript keeps inlined JS from closing its own script block.
func escapeScript(s string) string {
	return strings.ReplaceAll(s, "</script", "<\\/script")
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
