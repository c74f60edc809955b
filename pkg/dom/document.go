// Package dom provides a small, mutable document model over golang.org/x/net/html.
//
// It exposes the subset of the browser DOM that form filling needs: element
// queries in document order, form-control properties (value, checked,
// selected, disabled, readOnly), synthetic event dispatch with bubbling, and
// rendering the mutated tree back to HTML.
//
// Example usage:
//
//	doc, err := dom.ParseString(`<form><input name="email"></form>`)
//	if err != nil {
//	    return err
//	}
//	el := doc.ByName("email")
//	el.SetValue("a@b.com")
//	doc.Dispatch(dom.Event{Type: "change", Target: el, Bubbles: true})
//	fmt.Println(doc.Render())
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed HTML document with listener bookkeeping.
type Document struct {
	root      *html.Node
	listeners map[*html.Node]map[string][]Listener
	events    []Event
}

// Parse parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{
		root:      root,
		listeners: make(map[*html.Node]map[string][]Listener),
	}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// Elements returns every element whose tag is one of tags, in document order.
// With no tags it returns every element.
func (d *Document) Elements(tags ...string) []*Element {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}

	var out []*Element
	d.walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && (len(want) == 0 || want[n.Data]) {
			out = append(out, d.wrap(n))
		}
		return true
	})
	return out
}

// Forms returns all <form> elements.
func (d *Document) Forms() []*Element {
	return d.Elements("form")
}

// ByName returns the first element whose name attribute equals name exactly.
func (d *Document) ByName(name string) *Element {
	return d.first(func(n *html.Node) bool {
		v, ok := attr(n, "name")
		return ok && v == name
	})
}

// ByID returns the first element whose id attribute equals id exactly.
func (d *Document) ByID(id string) *Element {
	return d.first(func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id
	})
}

// ControlByName returns the first input, select or textarea whose name
// attribute equals name exactly. Other named elements such as <meta>,
// <form> and <iframe> are ignored.
func (d *Document) ControlByName(name string) *Element {
	return d.first(func(n *html.Node) bool {
		v, ok := attr(n, "name")
		return ok && v == name && isControl(n)
	})
}

// ControlByID is ControlByName for the id attribute.
func (d *Document) ControlByID(id string) *Element {
	return d.first(func(n *html.Node) bool {
		v, ok := attr(n, "id")
		return ok && v == id && isControl(n)
	})
}

func isControl(n *html.Node) bool {
	switch n.Data {
	case "input", "select", "textarea":
		return true
	}
	return false
}

// LabelFor returns the first <label> whose for attribute references id.
func (d *Document) LabelFor(id string) *Element {
	if id == "" {
		return nil
	}
	return d.first(func(n *html.Node) bool {
		if n.Data != "label" {
			return false
		}
		v, ok := attr(n, "for")
		return ok && v == id
	})
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() string {
	t := d.first(func(n *html.Node) bool { return n.Data == "title" })
	if t == nil {
		return ""
	}
	return t.Text()
}

// Description returns the content of <meta name="description">.
func (d *Document) Description() string {
	m := d.first(func(n *html.Node) bool {
		if n.Data != "meta" {
			return false
		}
		v, _ := attr(n, "name")
		return strings.EqualFold(v, "description")
	})
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m.Attr("content"))
}

// Render serializes the current tree back to HTML.
func (d *Document) Render() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	return &Element{node: n, doc: d}
}

func (d *Document) first(match func(*html.Node) bool) *Element {
	var found *html.Node
	d.walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return d.wrap(found)
}

// walk visits n and its descendants depth-first until visit returns false.
func (d *Document) walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !d.walk(c, visit) {
			return false
		}
	}
	return true
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}
