// Package scan discovers fillable form controls in a document and describes
// them as field descriptors.
package scan

import (
	"strings"

	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
)

// controlTags are the elements considered during a scan.
var controlTags = []string{"input", "select", "textarea", "button"}

// Scanner reads a document and produces a ScanResult.
type Scanner struct {
	doc    *dom.Document
	labels []LabelStrategy
	logger *logging.Logger
}

// NewScanner creates a scanner over doc using the default label strategies.
func NewScanner(doc *dom.Document, logger *logging.Logger) *Scanner {
	return &Scanner{
		doc:    doc,
		labels: LabelStrategies,
		logger: logging.OrDiscard(logger, "scan"),
	}
}

// Scan describes every fillable control in document order.
// It never panics: an internal failure yields an empty result.
func (s *Scanner) Scan() (result field.ScanResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("scan aborted: %v", r)
			result = field.ScanResult{Fields: []field.FieldDescriptor{}}
		}
	}()

	if s.doc == nil {
		return field.ScanResult{Fields: []field.FieldDescriptor{}}
	}

	fields := []field.FieldDescriptor{}
	var serialized strings.Builder
	fillable := false

	for _, el := range s.doc.Elements(controlTags...) {
		desc, ok := s.describe(el)
		if !ok {
			continue
		}
		if desc.Kind.Fillable() {
			fillable = true
		}
		fields = append(fields, desc)
		serialized.WriteString(Serialize(desc))
	}

	result = field.ScanResult{
		HasFillableForms: fillable,
		FormCount:        len(s.doc.Forms()),
		FieldCount:       len(fields),
		Fields:           fields,
		SerializedForAI:  serialized.String(),
	}
	s.logger.Debugf("scanned %d forms, %d fields", result.FormCount, result.FieldCount)
	return result
}

// describe builds the descriptor for el, or reports false when el is not
// a fillable control.
func (s *Scanner) describe(el *dom.Element) (field.FieldDescriptor, bool) {
	kind, ok := KindOf(el)
	if !ok {
		return field.FieldDescriptor{}, false
	}
	if el.Disabled() || el.ReadOnly() {
		return field.FieldDescriptor{}, false
	}

	desc := field.FieldDescriptor{
		Kind: kind,
		Name: el.Name(),
		ID:   el.ID(),
	}
	if el.Tag() == "input" {
		desc.InputType = el.Type()
	}

	switch kind {
	case field.KindText, field.KindTextarea:
		desc.Placeholder = strings.TrimSpace(el.Attr("placeholder"))
		desc.Value = el.Value()
	case field.KindCheckbox, field.KindRadio:
		desc.Checked = el.Checked()
	case field.KindSelect:
		desc.Value = el.Value()
		for _, o := range el.Options() {
			desc.Options = append(desc.Options, o.Text)
			if o.Selected {
				desc.Selected = true
			}
		}
	case field.KindSubmit:
		desc.Value = submitText(el)
	case field.KindButton:
		desc.Value = el.Attr("value")
	}

	desc.Label = ResolveLabel(s.doc, el, s.labels)
	return desc, true
}

// KindOf classifies a control element. It reports false for hidden inputs
// and non-submit <button> elements, which are not fields at all. Button-like
// and file inputs are reported with kinds that are not Fillable.
func KindOf(el *dom.Element) (field.Kind, bool) {
	switch el.Tag() {
	case "select":
		return field.KindSelect, true
	case "textarea":
		return field.KindTextarea, true
	case "button":
		if el.Type() == "submit" {
			return field.KindSubmit, true
		}
		return "", false
	case "input":
		switch el.Type() {
		case "hidden":
			return "", false
		case "button", "reset", "image":
			return field.KindButton, true
		case "file":
			return field.KindFile, true
		case "checkbox":
			return field.KindCheckbox, true
		case "radio":
			return field.KindRadio, true
		case "submit":
			return field.KindSubmit, true
		default:
			return field.KindText, true
		}
	}
	return "", false
}

func submitText(el *dom.Element) string {
	if el.Tag() == "input" {
		return el.Attr("value")
	}
	return el.Text()
}
