package scan

import (
	"github.com/entrhq/formpilot/pkg/dom"
)

// maxSiblingLabelLen bounds the text of a preceding sibling that may act as
// a label.
const maxSiblingLabelLen = 100

// LabelStrategy resolves a caption for a control, returning "" when it has
// none to offer.
type LabelStrategy func(doc *dom.Document, el *dom.Element) string

// LabelStrategies are tried in order; the first non-empty caption wins.
var LabelStrategies = []LabelStrategy{
	ExplicitLabel,
	WrappingLabel,
	PrecedingSiblingLabel,
}

// ResolveLabel returns the first caption produced by strategies.
func ResolveLabel(doc *dom.Document, el *dom.Element, strategies []LabelStrategy) string {
	for _, s := range strategies {
		if text := s(doc, el); text != "" {
			return text
		}
	}
	return ""
}

// ExplicitLabel finds a <label for="..."> bound to the element's id.
func ExplicitLabel(doc *dom.Document, el *dom.Element) string {
	label := doc.LabelFor(el.ID())
	if label == nil {
		return ""
	}
	return labelText(label)
}

// WrappingLabel uses a <label> ancestor that contains the control.
func WrappingLabel(_ *dom.Document, el *dom.Element) string {
	label := el.Closest("label")
	if label == nil {
		return ""
	}
	return labelText(label)
}

// labelLikeTags are sibling elements whose text commonly captions a control.
var labelLikeTags = map[string]bool{
	"label":  true,
	"span":   true,
	"strong": true,
	"b":      true,
	"p":      true,
	"div":    true,
	"td":     true,
	"th":     true,
	"legend": true,
}

// PrecedingSiblingLabel uses the previous element sibling when it is
// label-like and its text is short.
func PrecedingSiblingLabel(_ *dom.Document, el *dom.Element) string {
	prev := el.PreviousElementSibling()
	if prev == nil || !labelLikeTags[prev.Tag()] {
		return ""
	}
	text := labelText(prev)
	if len(text) >= maxSiblingLabelLen {
		return ""
	}
	return text
}

// labelText is the caption text without the text of nested controls
// (select options, textarea contents, button captions).
func labelText(label *dom.Element) string {
	return label.TextSkipping(func(e *dom.Element) bool {
		switch e.Tag() {
		case "select", "textarea", "button", "script", "style":
			return true
		}
		return false
	})
}
