package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element is a handle on an element node of a Document.
// Two handles on the same node compare equal through Same.
type Element struct {
	node *html.Node
	doc  *Document
}

// Option is one <option> of a <select>.
type Option struct {
	Value    string
	Text     string
	Selected bool
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node {
	return e.node
}

// Same reports whether e and other refer to the same node.
func (e *Element) Same(other *Element) bool {
	return e != nil && other != nil && e.node == other.node
}

// Tag returns the lower-cased tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the attribute value, or "" when absent.
func (e *Element) Attr(key string) string {
	v, _ := attr(e.node, key)
	return v
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(key string) bool {
	_, ok := attr(e.node, key)
	return ok
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(key, val string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			e.node.Attr[i].Val = val
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes an attribute if present.
func (e *Element) RemoveAttr(key string) {
	kept := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			continue
		}
		kept = append(kept, a)
	}
	e.node.Attr = kept
}

// Name returns the name attribute.
func (e *Element) Name() string { return e.Attr("name") }

// ID returns the id attribute.
func (e *Element) ID() string { return e.Attr("id") }

// Type returns the lower-cased type attribute. Inputs default to "text"
// and buttons to "submit", as browsers do.
func (e *Element) Type() string {
	t := strings.ToLower(strings.TrimSpace(e.Attr("type")))
	if t != "" {
		return t
	}
	switch e.node.DataAtom {
	case atom.Input:
		return "text"
	case atom.Button:
		return "submit"
	}
	return ""
}

// Disabled reports the disabled attribute, including inheritance from a
// disabled ancestor <fieldset>.
func (e *Element) Disabled() bool {
	if e.HasAttr("disabled") {
		return true
	}
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.Fieldset {
			if _, ok := attr(p, "disabled"); ok {
				return true
			}
		}
	}
	return false
}

// ReadOnly reports the readonly attribute.
func (e *Element) ReadOnly() bool {
	return e.HasAttr("readonly")
}

// Value returns the control's current value: the value attribute for
// inputs, the text for textareas and the selected option's value for selects.
func (e *Element) Value() string {
	switch e.node.DataAtom {
	case atom.Textarea:
		return rawText(e.node)
	case atom.Select:
		opts := e.Options()
		for _, o := range opts {
			if o.Selected {
				return o.Value
			}
		}
		if len(opts) > 0 && !e.HasAttr("multiple") {
			return opts[0].Value
		}
		return ""
	default:
		return e.Attr("value")
	}
}

// SetValue assigns the control's value. For selects it selects the first
// option whose value equals v and reports whether one was found.
func (e *Element) SetValue(v string) bool {
	switch e.node.DataAtom {
	case atom.Textarea:
		for c := e.node.FirstChild; c != nil; {
			next := c.NextSibling
			e.node.RemoveChild(c)
			c = next
		}
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: v})
		return true
	case atom.Select:
		for i, o := range e.Options() {
			if o.Value == v {
				e.SelectOption(i)
				return true
			}
		}
		return false
	default:
		e.SetAttr("value", v)
		return true
	}
}

// Checked reports the checked state of a checkbox or radio.
func (e *Element) Checked() bool {
	return e.HasAttr("checked")
}

// SetChecked sets the checked state. Checking a radio unchecks the other
// radios of its group.
func (e *Element) SetChecked(checked bool) {
	if !checked {
		e.RemoveAttr("checked")
		return
	}
	e.SetAttr("checked", "")
	if e.Type() != "radio" || e.Name() == "" {
		return
	}
	scope := e.Closest("form")
	var root *html.Node
	if scope != nil {
		root = scope.node
	} else {
		root = e.doc.root
	}
	e.doc.walk(root, func(n *html.Node) bool {
		if n == e.node || n.Type != html.ElementNode || n.DataAtom != atom.Input {
			return true
		}
		other := e.doc.wrap(n)
		if other.Type() == "radio" && other.Name() == e.Name() {
			other.RemoveAttr("checked")
		}
		return true
	})
}

// Options returns the <option> children of a select, including those
// nested in <optgroup>.
func (e *Element) Options() []Option {
	var out []Option
	for _, n := range e.optionNodes() {
		text := collapse(rawText(n))
		val, ok := attr(n, "value")
		if !ok {
			val = text
		}
		_, sel := attr(n, "selected")
		out = append(out, Option{Value: val, Text: text, Selected: sel})
	}
	return out
}

// SelectOption marks the i-th option selected and clears the others.
func (e *Element) SelectOption(i int) {
	for j, n := range e.optionNodes() {
		opt := e.doc.wrap(n)
		if j == i {
			opt.SetAttr("selected", "")
		} else {
			opt.RemoveAttr("selected")
		}
	}
}

func (e *Element) optionNodes() []*html.Node {
	var out []*html.Node
	e.doc.walk(e.node, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Option {
			out = append(out, n)
			return true
		}
		return true
	})
	return out
}

// Text returns the whitespace-collapsed text content.
func (e *Element) Text() string {
	return collapse(rawText(e.node))
}

// TextSkipping returns the collapsed text content, leaving out the
// subtrees of descendants for which skip returns true.
func (e *Element) TextSkipping(skip func(*Element) bool) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
				b.WriteByte(' ')
			case html.ElementNode:
				if skip(e.doc.wrap(c)) {
					continue
				}
				visit(c)
			}
		}
	}
	visit(e.node)
	return collapse(b.String())
}

// Parent returns the parent element, or nil at the top of the tree.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// PreviousElementSibling returns the closest preceding sibling element.
func (e *Element) PreviousElementSibling() *Element {
	for s := e.node.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return e.doc.wrap(s)
		}
	}
	return nil
}

// Closest returns the nearest ancestor with the given tag, excluding e.
func (e *Element) Closest(tag string) *Element {
	tag = strings.ToLower(tag)
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return e.doc.wrap(p)
		}
	}
	return nil
}

func rawText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				b.WriteString(c.Data)
			case html.ElementNode:
				if c.DataAtom == atom.Script || c.DataAtom == atom.Style {
					continue
				}
				visit(c)
			}
		}
	}
	visit(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
