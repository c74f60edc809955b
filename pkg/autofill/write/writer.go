// Package write applies a field value map to a document.
package write

import (
	"sort"
	"strings"

	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
)

// Applied describes one completed write so it can be replayed elsewhere,
// for example against a live browser page.
type Applied struct {
	Identifier string     `json:"identifier"`
	Kind       field.Kind `json:"kind"`
	// Selector is a tag-qualified CSS attribute selector, such as
	// select[name="country"]. It may match several elements; the first
	// match is the target.
	Selector string `json:"selector"`
	// Value is the final value for text, textarea and select controls.
	Value string `json:"value,omitempty"`
	// OptionIndex is the selected option of a select.
	OptionIndex int `json:"optionIndex"`
	// Checked is the final state of checkbox and radio controls.
	Checked bool `json:"checked,omitempty"`
}

// Result lists what happened to each entry of a value map.
type Result struct {
	Filled   []string  `json:"filled"`
	Unfilled []string  `json:"unfilled"`
	Applied  []Applied `json:"applied"`
}

// Writer mutates a document's controls.
type Writer struct {
	doc    *dom.Document
	kinds  map[string]field.Kind
	logger *logging.Logger
}

// NewWriter creates a writer for doc. Only identifiers of the scanned,
// fillable fields are written, and each write dispatches on the kind fixed
// by the scan. The first field wins when several share an identifier.
func NewWriter(doc *dom.Document, fields []field.FieldDescriptor, logger *logging.Logger) *Writer {
	kinds := make(map[string]field.Kind, len(fields))
	for _, f := range fields {
		id := f.Identifier()
		if id == "" || !f.Kind.Fillable() {
			continue
		}
		if _, seen := kinds[id]; !seen {
			kinds[id] = f.Kind
		}
	}
	return &Writer{doc: doc, kinds: kinds, logger: logging.OrDiscard(logger, "write")}
}

// Write applies values in sorted identifier order. It never fails: entries
// that cannot be applied are reported in Result.Unfilled.
func (w *Writer) Write(values field.ValueMap) Result {
	res := Result{Filled: []string{}, Unfilled: []string{}}
	if w.doc == nil {
		for _, id := range sortedKeys(values) {
			res.Unfilled = append(res.Unfilled, id)
		}
		return res
	}

	for _, id := range sortedKeys(values) {
		applied, ok := w.apply(id, values[id])
		if !ok {
			res.Unfilled = append(res.Unfilled, id)
			continue
		}
		res.Filled = append(res.Filled, id)
		res.Applied = append(res.Applied, applied)
	}
	w.logger.Debugf("filled %d of %d fields", len(res.Filled), len(values))
	return res
}

func (w *Writer) apply(id, value string) (Applied, bool) {
	kind, ok := w.kinds[id]
	if !ok {
		w.logger.Debugf("%q is not a scanned field", id)
		return Applied{}, false
	}
	el, selector := w.resolve(id, kind)
	if el == nil {
		w.logger.Debugf("no %s control for %q", kind.Tag(), id)
		return Applied{}, false
	}
	if el.Disabled() {
		return Applied{}, false
	}
	if (kind == field.KindText || kind == field.KindTextarea) && el.ReadOnly() {
		return Applied{}, false
	}

	a := Applied{Identifier: id, Kind: kind, Selector: selector}
	switch kind {
	case field.KindCheckbox, field.KindRadio:
		a.Checked = Truthy(value)
		el.SetChecked(a.Checked)
	case field.KindSelect:
		i := MatchOption(el.Options(), value)
		if i < 0 {
			w.logger.Debugf("no option of %q matches %q", id, value)
			return Applied{}, false
		}
		el.SelectOption(i)
		a.OptionIndex = i
		a.Value = el.Options()[i].Value
	default:
		el.SetValue(value)
		a.Value = value
	}

	w.doc.Dispatch(dom.Event{Type: "input", Target: el, Bubbles: true})
	w.doc.Dispatch(dom.Event{Type: "change", Target: el, Bubbles: true})
	return a, true
}

// resolve finds the form control by exact name, then by id. The control
// must carry the tag the scanned kind was established on.
func (w *Writer) resolve(id string, kind field.Kind) (*dom.Element, string) {
	if el := w.doc.ControlByName(id); el != nil && el.Tag() == kind.Tag() {
		return el, attrSelector(kind.Tag(), "name", id)
	}
	if el := w.doc.ControlByID(id); el != nil && el.Tag() == kind.Tag() {
		return el, attrSelector(kind.Tag(), "id", id)
	}
	return nil, ""
}

// Truthy reports whether v is "true", "1" or "yes" in any case.
func Truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// MatchOption returns the index of the option matching v, or -1. An exact
// case-insensitive match on value or text beats a substring match.
func MatchOption(opts []dom.Option, v string) int {
	want := strings.ToLower(strings.TrimSpace(v))
	for i, o := range opts {
		if strings.ToLower(o.Value) == want || strings.ToLower(o.Text) == want {
			return i
		}
	}
	if want == "" {
		return -1
	}
	for i, o := range opts {
		val, text := strings.ToLower(o.Value), strings.ToLower(o.Text)
		if (val != "" && strings.Contains(val, want)) || (text != "" && strings.Contains(text, want)) {
			return i
		}
	}
	return -1
}

func attrSelector(tag, attr, val string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return tag + "[" + attr + `="` + r.Replace(val) + `"]`
}

func sortedKeys(m field.ValueMap) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
