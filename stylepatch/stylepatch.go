// CLAUDE:SUMMARY Structured per-component CSS rule map with breakpoint buckets and deterministic rendering.
// Package stylepatch holds property-panel edits as a structured rule map
// instead of raw stylesheet text. Rules are keyed by component id and
// breakpoint and replaced in place on re-apply, so repeated edits to the
// same control never append duplicate rules.
//
// The sheet renders into a managed region appended after the document's own
// CSS; that region uses a fixed grammar the package can read back (see
// Parse), which is how undo and project reload recover the structured form.
// The user's base CSS above the marker is never parsed or touched.
package stylepatch

import (
	"sort"
	"strings"
)

// Breakpoint selects which media bucket a rule lands in.
type Breakpoint string

const (
	Base   Breakpoint = "base"
	Tablet Breakpoint = "tablet"
	Mobile Breakpoint = "mobile"
)

const (
	tabletQuery = "@media (max-width: 1024px)"
	mobileQuery = "@media (max-width: 768px)"
)

// Marker separates the document's own CSS from the managed region.
const Marker = "/* atelier:styles */"

// ParseBreakpoint maps a wire value to a Breakpoint. The empty string is
// the base bucket.
func ParseBreakpoint(s string) (Breakpoint, bool) {
	switch Breakpoint(s) {
	case "", Base:
		return Base, true
	case Tablet:
		return Tablet, true
	case Mobile:
		return Mobile, true
	}
	return Base, false
}

// Prop is one CSS declaration.
type Prop struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type ruleKey struct {
	id string
	bp Breakpoint
}

// Sheet is an ordered rule map. The zero value is ready to use.
type Sheet struct {
	keys  []ruleKey
	rules map[ruleKey][]Prop
}

// Len reports how many rules the sheet holds across all breakpoints.
func (s *Sheet) Len() int { return len(s.keys) }

// Apply sets props on the rule for (componentID, bp), replacing values of
// properties already present in place and appending new ones in name order.
// An empty props map clears the rule. Names or values containing rule
// delimiters are skipped.
func (s *Sheet) Apply(componentID string, props map[string]string, bp Breakpoint) {
	if componentID == "" {
		return
	}
	key := ruleKey{id: componentID, bp: bp}
	if len(props) == 0 {
		s.drop(key)
		return
	}

	clean := make(map[string]string, len(props))
	names := make([]string, 0, len(props))
	for name, val := range props {
		name, val = strings.TrimSpace(name), strings.TrimSpace(val)
		if name == "" || val == "" || hasDelimiter(name) || hasDelimiter(val) {
			continue
		}
		clean[name] = val
		names = append(names, name)
	}
	if len(clean) == 0 {
		return
	}
	sort.Strings(names)

	existing := s.rule(key)
	merged := make([]Prop, 0, len(existing)+len(names))
	for _, p := range existing {
		if val, ok := clean[p.Name]; ok {
			p.Value = val
			delete(clean, p.Name)
		}
		merged = append(merged, p)
	}
	for _, name := range names {
		if val, ok := clean[name]; ok {
			merged = append(merged, Prop{Name: name, Value: val})
		}
	}
	s.set(key, merged)
}

// Remove drops every rule for componentID, at all breakpoints. Called when
// the component itself is deleted from the page.
func (s *Sheet) Remove(componentID string) {
	for _, bp := range []Breakpoint{Base, Tablet, Mobile} {
		s.drop(ruleKey{id: componentID, bp: bp})
	}
}

// Rule returns the declarations for (componentID, bp) in render order.
func (s *Sheet) Rule(componentID string, bp Breakpoint) ([]Prop, bool) {
	props := s.rule(ruleKey{id: componentID, bp: bp})
	if props == nil {
		return nil, false
	}
	out := make([]Prop, len(props))
	copy(out, props)
	return out, true
}

// Render emits the managed region: base rules first in first-set order,
// then the tablet media block, then the mobile one. Empty sheets render to
// the empty string.
func (s *Sheet) Render() string {
	if len(s.keys) == 0 {
		return ""
	}
	var b strings.Builder
	for _, key := range s.keys {
		if key.bp != Base {
			continue
		}
		b.WriteString(ruleText(key.id, s.rules[key]))
		b.WriteString("\n")
	}
	s.renderMedia(&b, Tablet, tabletQuery)
	s.renderMedia(&b, Mobile, mobileQuery)
	return strings.TrimRight(b.String(), "\n")
}

func (s *Sheet) renderMedia(b *strings.Builder, bp Breakpoint, query string) {
	var lines []string
	for _, key := range s.keys {
		if key.bp != bp {
			continue
		}
		lines = append(lines, "  "+ruleText(key.id, s.rules[key]))
	}
	if len(lines) == 0 {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(query + " {\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n}\n")
}

// Compose appends the rendered sheet to base CSS under the marker. An empty
// sheet returns base untouched, so documents without panel edits carry no
// managed region at all.
func Compose(base string, s *Sheet) string {
	rendered := s.Render()
	if rendered == "" {
		return base
	}
	base = strings.TrimRight(base, "\n")
	if base == "" {
		return Marker + "\n" + rendered
	}
	return base + "\n\n" + Marker + "\n" + rendered
}

func ruleText(id string, props []Prop) string {
	var b strings.Builder
	b.WriteString(`[component-id="` + id + `"] { `)
	for _, p := range props {
		b.WriteString(p.Name + ": " + p.Value + "; ")
	}
	b.WriteString("}")
	return b.String()
}

func hasDelimiter(s string) bool {
	return strings.ContainsAny(s, "{};\n")
}

func (s *Sheet) rule(key ruleKey) []Prop {
	if s.rules == nil {
		return nil
	}
	return s.rules[key]
}

func (s *Sheet) set(key ruleKey, props []Prop) {
	if s.rules == nil {
		s.rules = make(map[ruleKey][]Prop)
	}
	if _, ok := s.rules[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.rules[key] = props
}

func (s *Sheet) drop(key ruleKey) {
	if s.rules == nil {
		return
	}
	if _, ok := s.rules[key]; !ok {
		return
	}
	delete(s.rules, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}
