package stylepatch

import "strings"

// Split separates shared CSS into the user-owned base and the managed
// region. CSS without a marker is all base.
func Split(css string) (base, managed string) {
	idx := strings.Index(css, Marker)
	if idx < 0 {
		return css, ""
	}
	base = strings.TrimRight(css[:idx], "\n")
	managed = strings.TrimLeft(css[idx+len(Marker):], "\n")
	return base, managed
}

// Parse recovers a Sheet from shared CSS previously written by Compose.
// Only the managed region below the marker is read; it follows the fixed
// grammar Render emits, and lines that do not fit it are skipped. CSS with
// no marker yields an empty sheet.
func Parse(css string) *Sheet {
	s := &Sheet{}
	_, managed := Split(css)
	if managed == "" {
		return s
	}

	bp := Base
	for _, line := range strings.Split(managed, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "@media"):
			switch {
			case strings.Contains(line, "1024"):
				bp = Tablet
			case strings.Contains(line, "768"):
				bp = Mobile
			}
		case line == "}":
			bp = Base
		case strings.HasPrefix(line, `[component-id="`):
			if id, props, ok := parseRule(line); ok {
				s.set(ruleKey{id: id, bp: bp}, props)
			}
		}
	}
	return s
}

func parseRule(line string) (string, []Prop, bool) {
	rest := strings.TrimPrefix(line, `[component-id="`)
	end := strings.Index(rest, `"]`)
	if end < 0 {
		return "", nil, false
	}
	id := rest[:end]

	lbrace := strings.Index(rest, "{")
	rbrace := strings.LastIndex(rest, "}")
	if lbrace < 0 || rbrace < lbrace {
		return "", nil, false
	}

	var props []Prop
	for _, decl := range strings.Split(rest[lbrace+1:rbrace], ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name, val = strings.TrimSpace(name), strings.TrimSpace(val)
		if name == "" || val == "" {
			continue
		}
		props = append(props, Prop{Name: name, Value: val})
	}
	if id == "" || len(props) == 0 {
		return "", nil, false
	}
	return id, props, true
}
