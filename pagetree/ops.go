package pagetree

import (
	"strings"

	"golang.org/x/net/html"
)

// Insert splices fragment into markup at component index atIndex and
// returns the new markup. Indexes are in document order over tracked
// components: atIndex <= 0 prepends to the content, atIndex >= Count
// appends after the last component, anything else lands directly after
// the component at atIndex-1.
//
// A page with zero tracked components takes the fragment as a plain
// prefix, whatever atIndex says. If the fragment carries a component id
// already present on the page, Insert returns the input unchanged with
// ErrDuplicateID.
func Insert(markup, fragment string, atIndex int) (string, error) {
	t, err := parse(markup)
	if err != nil {
		return markup, nil
	}

	nodes, err := parseFragment(fragment)
	if err != nil {
		return markup, nil
	}
	for _, n := range nodes {
		var dup error
		walk(n, func(el *html.Node) {
			if id, ok := attrVal(el, IDAttr); ok && id != "" {
				if _, exists := t.index[id]; exists {
					dup = ErrDuplicateID
				}
			}
		})
		if dup != nil {
			return markup, dup
		}
	}

	if len(t.comps) == 0 {
		return fragment + markup, nil
	}

	switch {
	case atIndex <= 0:
		anchor := t.root.FirstChild
		for _, n := range nodes {
			if anchor != nil {
				t.root.InsertBefore(n, anchor)
			} else {
				t.root.AppendChild(n)
			}
		}
	case atIndex >= len(t.comps):
		after := t.comps[len(t.comps)-1]
		for _, n := range nodes {
			insertAfter(after, n)
			after = n
		}
	default:
		after := t.comps[atIndex-1]
		for _, n := range nodes {
			insertAfter(after, n)
			after = n
		}
	}

	out, err := t.serialize()
	if err != nil {
		return markup, nil
	}
	return out, nil
}

// Delete removes the component with the given id and returns the new
// markup. An unknown id returns the input byte-for-byte.
func Delete(markup, id string) string {
	t, err := parse(markup)
	if err != nil {
		return markup
	}
	n, ok := t.index[id]
	if !ok || n.Parent == nil {
		return markup
	}
	n.Parent.RemoveChild(n)
	out, err := t.serialize()
	if err != nil {
		return markup
	}
	return out
}

// Duplicate deep-copies the component with the given id, re-mints every
// component id inside the copy via newID, and places the copy directly
// after the original. An unknown id returns the input byte-for-byte.
func Duplicate(markup, id string, newID func() string) string {
	t, err := parse(markup)
	if err != nil {
		return markup
	}
	n, ok := t.index[id]
	if !ok || n.Parent == nil {
		return markup
	}
	cp := cloneSubtree(n)
	t.remint(cp, newID)
	insertAfter(n, cp)
	out, err := t.serialize()
	if err != nil {
		return markup
	}
	return out
}

// PasteFragment appends fragment at the end of the content with every
// component id inside it re-minted via newID, so a snapshot taken by a
// copy can be pasted any number of times, on any page, without id
// collisions.
func PasteFragment(markup, fragment string, newID func() string) string {
	t, err := parse(markup)
	if err != nil {
		return markup
	}
	nodes, err := parseFragment(fragment)
	if err != nil {
		return markup
	}
	if len(nodes) == 0 {
		return markup
	}
	for _, n := range nodes {
		t.remint(n, newID)
		t.root.AppendChild(n)
	}
	out, err := t.serialize()
	if err != nil {
		return markup
	}
	return out
}

// Extract returns the serialized subtree of the component with the given
// id, for clipboard snapshots. ok is false when the id is not on the page.
func Extract(markup, id string) (string, bool) {
	t, err := parse(markup)
	if err != nil {
		return "", false
	}
	n, ok := t.index[id]
	if !ok {
		return "", false
	}
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", false
	}
	return b.String(), true
}

// Components lists the tracked components of markup in document order.
func Components(markup string) []Component {
	t, err := parse(markup)
	if err != nil {
		return nil
	}
	out := make([]Component, 0, len(t.comps))
	for _, n := range t.comps {
		id, _ := attrVal(n, IDAttr)
		c := Component{ID: id, Tag: n.Data, Type: n.Data}
		if typ, ok := attrVal(n, TypeAttr); ok && typ != "" {
			c.Type = typ
		}
		out = append(out, c)
	}
	return out
}

// Count reports how many tracked components markup holds.
func Count(markup string) int {
	t, err := parse(markup)
	if err != nil {
		return 0
	}
	return len(t.comps)
}

// Has reports whether the component id is present on the page.
func Has(markup, id string) bool {
	t, err := parse(markup)
	if err != nil {
		return false
	}
	_, ok := t.index[id]
	return ok
}

// remint assigns fresh, page-unique ids to every component node in n's
// subtree, registering each in the index so later mints in the same
// operation cannot collide.
func (t *tree) remint(n *html.Node, newID func() string) {
	walk(n, func(el *html.Node) {
		if _, ok := attrVal(el, IDAttr); !ok {
			return
		}
		id := t.mintUnique(newID)
		setAttr(el, IDAttr, id)
		t.index[id] = el
	})
}

func (t *tree) mintUnique(newID func() string) string {
	for i := 0; i < 8; i++ {
		id := newID()
		if id == "" {
			continue
		}
		if _, exists := t.index[id]; !exists {
			return id
		}
	}
	return newID()
}
