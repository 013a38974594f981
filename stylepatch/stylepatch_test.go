package stylepatch

import (
	"strings"
	"testing"
)

func TestApply_MobileRendersMediaBlock(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "#fff"}, Mobile)

	out := s.Render()
	want := "@media (max-width: 768px) {\n  [component-id=\"X\"] { color: #fff; }\n}"
	if out != want {
		t.Fatalf("render: got %q, want %q", out, want)
	}
}

func TestApply_ReplacesByKeyNotAppends(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "red"}, Base)
	s.Apply("X", map[string]string{"color": "blue"}, Base)

	out := s.Render()
	if n := strings.Count(out, `[component-id="X"]`); n != 1 {
		t.Fatalf("rule count: got %d, want 1\n%s", n, out)
	}
	if !strings.Contains(out, "color: blue;") || strings.Contains(out, "color: red;") {
		t.Fatalf("value not replaced: %q", out)
	}
}

func TestApply_MergeKeepsFirstSetOrder(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"padding": "4px"}, Base)
	s.Apply("X", map[string]string{"color": "#fff"}, Base)

	want := `[component-id="X"] { padding: 4px; color: #fff; }`
	if out := s.Render(); out != want {
		t.Fatalf("merged rule: got %q, want %q", out, want)
	}
}

func TestApply_BatchPropsInNameOrder(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"margin": "0", "color": "red"}, Base)

	want := `[component-id="X"] { color: red; margin: 0; }`
	if out := s.Render(); out != want {
		t.Fatalf("batch rule: got %q, want %q", out, want)
	}
}

func TestApply_EmptyPropsClearsRule(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "red"}, Base)
	s.Apply("X", nil, Base)

	if out := s.Render(); out != "" {
		t.Fatalf("cleared sheet renders: %q", out)
	}
}

func TestApply_SkipsDelimiterInjection(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "red; } body { display: none"}, Base)
	if s.Len() != 0 {
		t.Fatalf("delimiter-bearing value accepted: %q", s.Render())
	}
}

func TestRender_SectionOrder(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "red"}, Base)
	s.Apply("Y", map[string]string{"margin": "0"}, Base)
	s.Apply("X", map[string]string{"color": "green"}, Tablet)
	s.Apply("X", map[string]string{"color": "#fff"}, Mobile)

	want := `[component-id="X"] { color: red; }
[component-id="Y"] { margin: 0; }

@media (max-width: 1024px) {
  [component-id="X"] { color: green; }
}

@media (max-width: 768px) {
  [component-id="X"] { color: #fff; }
}`
	if out := s.Render(); out != want {
		t.Fatalf("render order:\n got %q\nwant %q", out, want)
	}
}

func TestRemove_DropsAllBreakpoints(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "red"}, Base)
	s.Apply("X", map[string]string{"color": "green"}, Tablet)
	s.Apply("Y", map[string]string{"margin": "0"}, Base)

	s.Remove("X")

	out := s.Render()
	if strings.Contains(out, `"X"`) {
		t.Fatalf("removed component still rendered: %q", out)
	}
	if !strings.Contains(out, `"Y"`) {
		t.Fatalf("unrelated rule lost: %q", out)
	}
}

func TestCompose_EmptySheetLeavesBaseUntouched(t *testing.T) {
	var s Sheet
	base := "body { font-family: serif }"
	if out := Compose(base, &s); out != base {
		t.Fatalf("compose with empty sheet: got %q, want %q", out, base)
	}
}

func TestComposeParse_RoundTrip(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "red"}, Base)
	s.Apply("X", map[string]string{"color": "green"}, Tablet)
	s.Apply("Y", map[string]string{"background": "url(http://e.x/a.png)"}, Mobile)

	base := "body { font-family: serif }"
	css := Compose(base, &s)

	gotBase, managed := Split(css)
	if gotBase != base {
		t.Fatalf("split base: got %q, want %q", gotBase, base)
	}
	if managed == "" {
		t.Fatalf("split managed region empty: %q", css)
	}

	back := Parse(css)
	if back.Render() != s.Render() {
		t.Fatalf("round trip:\n got %q\nwant %q", back.Render(), s.Render())
	}
}

func TestParse_NoMarkerIsEmptySheet(t *testing.T) {
	s := Parse("body { color: red }\n[component-id=\"X\"] { color: blue; }")
	if s.Len() != 0 {
		t.Fatalf("css without marker parsed rules: %q", s.Render())
	}
}

func TestParseBreakpoint(t *testing.T) {
	cases := []struct {
		in     string
		want   Breakpoint
		wantOK bool
	}{
		{"", Base, true},
		{"base", Base, true},
		{"tablet", Tablet, true},
		{"mobile", Mobile, true},
		{"desktop", Base, false},
	}
	for _, tc := range cases {
		got, ok := ParseBreakpoint(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("parse %q: got %v/%v, want %v/%v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestRule_ReturnsCopy(t *testing.T) {
	var s Sheet
	s.Apply("X", map[string]string{"color": "red"}, Base)

	props, ok := s.Rule("X", Base)
	if !ok || len(props) != 1 {
		t.Fatalf("rule lookup: got %v %v", props, ok)
	}
	props[0].Value = "hacked"

	again, _ := s.Rule("X", Base)
	if again[0].Value != "red" {
		t.Fatalf("rule not copied: %v", again)
	}
}
