// Package animate models per-project animation descriptors and renders the
// enabled ones to CSS keyframes for preview injection. Descriptors live
// next to the document, not inside it: they are persisted in the store and
// deliberately not versioned by the undo history.
package animate

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultDuration is used when a descriptor carries no duration.
const DefaultDuration = 0.6

// Range is a property's start and end value.
type Range struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Timing shapes the animation shorthand. Repeat 0 means once; a negative
// Repeat loops forever. Yoyo alternates direction on each repeat.
type Timing struct {
	Duration float64 `json:"duration"`
	Delay    float64 `json:"delay"`
	Ease     string  `json:"ease"`
	Repeat   int     `json:"repeat"`
	Yoyo     bool    `json:"yoyo"`
}

// Descriptor is one animation bound to a component.
type Descriptor struct {
	ID         string           `json:"id"`
	TargetID   string           `json:"targetId"`
	Type       string           `json:"type"`
	Trigger    string           `json:"trigger"`
	Properties map[string]Range `json:"properties"`
	Timing     Timing           `json:"timing"`
	Enabled    bool             `json:"enabled"`
}

// Preset returns the property ranges for a palette animation type. Callers
// use it to fill a descriptor created with a bare type name.
func Preset(typ string) (map[string]Range, bool) {
	switch typ {
	case "fade-in":
		return map[string]Range{
			"opacity": {From: "0", To: "1"},
		}, true
	case "slide-up":
		return map[string]Range{
			"opacity":   {From: "0", To: "1"},
			"transform": {From: "translateY(32px)", To: "translateY(0)"},
		}, true
	case "scale-in":
		return map[string]Range{
			"opacity":   {From: "0", To: "1"},
			"transform": {From: "scale(0.92)", To: "scale(1)"},
		}, true
	}
	return nil, false
}

// Normalize fills defaults: preset properties for a known bare type, ease
// and duration fallbacks, repeat floor of one.
func Normalize(d Descriptor) Descriptor {
	if len(d.Properties) == 0 {
		if props, ok := Preset(d.Type); ok {
			d.Properties = props
		}
	}
	if d.Timing.Duration <= 0 {
		d.Timing.Duration = DefaultDuration
	}
	if d.Timing.Ease == "" {
		d.Timing.Ease = "ease"
	}
	if d.Timing.Repeat == 0 {
		d.Timing.Repeat = 1
	}
	if d.Trigger == "" {
		d.Trigger = "load"
	}
	return d
}

// Render emits keyframes plus one binding rule per enabled descriptor, in
// list order. Hover-triggered descriptors bind behind :hover; every other
// trigger plays on mount, which is what a preview can show. Disabled or
// empty descriptors render nothing.
func Render(list []Descriptor) string {
	var b strings.Builder
	for _, d := range list {
		if !d.Enabled || d.TargetID == "" {
			continue
		}
		d = Normalize(d)
		if len(d.Properties) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		renderOne(&b, d)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderOne(b *strings.Builder, d Descriptor) {
	name := "atelier-anim-" + cssIdent(d.ID)

	names := make([]string, 0, len(d.Properties))
	for prop := range d.Properties {
		names = append(names, prop)
	}
	sort.Strings(names)

	b.WriteString("@keyframes " + name + " {\n")
	b.WriteString("  from { ")
	for _, prop := range names {
		b.WriteString(prop + ": " + d.Properties[prop].From + "; ")
	}
	b.WriteString("}\n  to { ")
	for _, prop := range names {
		b.WriteString(prop + ": " + d.Properties[prop].To + "; ")
	}
	b.WriteString("}\n}\n")

	selector := `[component-id="` + d.TargetID + `"]`
	if d.Trigger == "hover" {
		selector += ":hover"
	}

	repeat := "1"
	switch {
	case d.Timing.Repeat < 0:
		repeat = "infinite"
	case d.Timing.Repeat > 0:
		repeat = strconv.Itoa(d.Timing.Repeat)
	}
	direction := "normal"
	if d.Timing.Yoyo {
		direction = "alternate"
	}

	b.WriteString(selector + " { animation: " + name + " " +
		seconds(d.Timing.Duration) + " " + d.Timing.Ease + " " +
		seconds(d.Timing.Delay) + " " + repeat + " " + direction + " both; }\n")
}

func seconds(f float64) string {
	if f < 0 {
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64) + "s"
}

// cssIdent strips anything that cannot appear in a keyframes name.
func cssIdent(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}
