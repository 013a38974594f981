// CLAUDE:SUMMARY Node-tree backbone for page markup: parse, component arena + id index, serialize.
// Package pagetree performs structural edits on page markup. Markup is
// parsed into a node tree with an index of component nodes (nodes carrying
// a component-id attribute, in document order); edits are tree operations;
// the tree is serialized back to markup only at the operation boundary.
//
// The failure contract matters as much as the operations: an edit that
// targets an unknown component id returns the input string unchanged,
// byte-for-byte. Callers treat that as a silent no-op, never an error.
package pagetree

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IDAttr is the attribute that marks a node as a tracked component.
const IDAttr = "component-id"

// TypeAttr optionally names the component's palette type ("hero", "footer").
const TypeAttr = "component-type"

// ErrDuplicateID is returned when an inserted fragment carries a
// component id already present on the page.
var ErrDuplicateID = errors.New("pagetree: duplicate component id")

// Component describes one tracked node.
type Component struct {
	ID   string `json:"id"`
	Tag  string `json:"tag"`
	Type string `json:"type"` // component-type attribute, or the tag name
}

// tree is the parsed form of one page's markup. root is the node whose
// children make up the editable content region: the <body> element for a
// full document, a synthetic container for a fragment.
type tree struct {
	doc  *html.Node // render target: document node, or synthetic container
	root *html.Node
	full bool

	comps []*html.Node          // document order
	index map[string]*html.Node // component-id → node
}

func isFullDocument(markup string) bool {
	lower := strings.ToLower(markup)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype")
}

// parse builds a tree from markup. Fragments are parsed in body context so
// top-level siblings survive; full documents keep their doctype and head.
func parse(markup string) (*tree, error) {
	t := &tree{index: make(map[string]*html.Node)}

	if isFullDocument(markup) {
		doc, err := html.Parse(strings.NewReader(markup))
		if err != nil {
			return nil, err
		}
		t.doc = doc
		t.full = true
		t.root = findBody(doc)
		if t.root == nil {
			t.root = doc
		}
	} else {
		container := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		nodes, err := html.ParseFragment(strings.NewReader(markup), container)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			container.AppendChild(n)
		}
		t.doc = container
		t.root = container
	}

	t.reindex()
	return t, nil
}

// parseFragment parses a markup fragment into its top-level nodes.
func parseFragment(fragment string) ([]*html.Node, error) {
	container := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(fragment), container)
}

// reindex rebuilds the component arena and id index in document order.
func (t *tree) reindex() {
	t.comps = t.comps[:0]
	clear(t.index)
	walk(t.root, func(n *html.Node) {
		if id, ok := attrVal(n, IDAttr); ok && id != "" {
			t.comps = append(t.comps, n)
			if _, dup := t.index[id]; !dup {
				t.index[id] = n
			}
		}
	})
}

// serialize renders the tree back to markup. Full documents render from
// the document node (doctype included); fragments render each top-level
// child in order.
func (t *tree) serialize() (string, error) {
	var b strings.Builder
	if t.full {
		if err := html.Render(&b, t.doc); err != nil {
			return "", err
		}
		return b.String(), nil
	}
	for c := t.doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// BodyContent returns the editable content region of markup: the inner
// body for a full document, the markup itself for a fragment. Used when a
// stored page must be re-wrapped in a different document shell.
func BodyContent(markup string) string {
	if !isFullDocument(markup) {
		return markup
	}
	t, err := parse(markup)
	if err != nil || t.root == nil {
		return markup
	}
	var b strings.Builder
	for c := t.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return markup
		}
	}
	return b.String()
}

// walk runs fn over n's subtree in document order, elements only.
func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)
	return body
}

func attrVal(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// cloneSubtree deep-copies a node and its descendants. Parent and sibling
// links of the copy are nil so it can be inserted anywhere.
func cloneSubtree(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneSubtree(child))
	}
	return c
}

// insertAfter places n as ref's next sibling.
func insertAfter(ref, n *html.Node) {
	if ref.Parent == nil {
		return
	}
	if ref.NextSibling != nil {
		ref.Parent.InsertBefore(n, ref.NextSibling)
	} else {
		ref.Parent.AppendChild(n)
	}
}

// prepend places n as root's first child.
func prepend(root, n *html.Node) {
	if root.FirstChild != nil {
		root.InsertBefore(n, root.FirstChild)
	} else {
		root.AppendChild(n)
	}
}
