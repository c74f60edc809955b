package write

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/autofill/scan"
	"github.com/entrhq/formpilot/pkg/dom"
)

const page = `<html><body><form id="signup">
  <input name="name">
  <input id="email" type="email">
  <textarea name="bio">old</textarea>
  <input type="checkbox" name="terms">
  <input type="checkbox" name="news" checked>
  <select name="country">
    <option value="">Choose…</option>
    <option value="ca">Canada</option>
    <option value="us">United States</option>
    <option value="usm">US Minor Outlying Islands</option>
  </select>
  <input name="token" type="hidden" value="t">
  <input name="ro" readonly value="fixed">
  <input name="off" disabled>
  <input type="file" name="cv">
  <button name="go">Go</button>
</form></body></html>`

func mustDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	return doc
}

// scanned builds a writer over the fields a scan of doc reports.
func scanned(doc *dom.Document) *Writer {
	return NewWriter(doc, scan.NewScanner(doc, nil).Scan().Fields, nil)
}

func TestWrite(t *testing.T) {
	doc := mustDoc(t)
	res := scanned(doc).Write(field.ValueMap{
		"name":    "Jane",
		"email":   "jane@doe.io",
		"bio":     "Hello <b>there</b>",
		"terms":   "Yes",
		"news":    "nope",
		"country": "united states",
		"token":   "x",
		"ro":      "x",
		"off":     "x",
		"cv":      "x",
		"go":      "x",
		"missing": "x",
	})

	assert.Equal(t, []string{"bio", "country", "email", "name", "news", "terms"}, res.Filled)
	assert.Equal(t, []string{"cv", "go", "missing", "off", "ro", "token"}, res.Unfilled)

	assert.Equal(t, "Jane", doc.ByName("name").Value())
	assert.Equal(t, "jane@doe.io", doc.ByID("email").Value())
	assert.Equal(t, "Hello <b>there</b>", doc.ByName("bio").Value())
	assert.True(t, doc.ByName("terms").Checked())
	assert.False(t, doc.ByName("news").Checked())
	assert.Equal(t, "us", doc.ByName("country").Value())
	assert.Equal(t, "t", doc.ByName("token").Value())
	assert.Equal(t, "fixed", doc.ByName("ro").Value())

	require.Len(t, res.Applied, 6)
	country := res.Applied[1]
	assert.Equal(t, Applied{Identifier: "country", Kind: field.KindSelect, Selector: `select[name="country"]`, Value: "us", OptionIndex: 2}, country)
	assert.Equal(t, `input[id="email"]`, res.Applied[2].Selector)
	assert.Equal(t, `textarea[name="bio"]`, res.Applied[0].Selector)
	assert.Equal(t, Applied{Identifier: "terms", Kind: field.KindCheckbox, Selector: `input[name="terms"]`, Checked: true}, res.Applied[5])
}

func TestWrite_DispatchesInputThenChange(t *testing.T) {
	doc := mustDoc(t)
	var seen []string
	form := doc.ByID("signup")
	doc.AddEventListener(form, "input", func(ev dom.Event, _ *dom.Element) { seen = append(seen, "input:"+ev.Target.Name()) })
	doc.AddEventListener(form, "change", func(ev dom.Event, _ *dom.Element) { seen = append(seen, "change:"+ev.Target.Name()) })

	scanned(doc).Write(field.ValueMap{"name": "Jane", "missing": "x"})

	assert.Equal(t, []string{"input:name", "change:name"}, seen)
	events := doc.Events()
	require.Len(t, events, 2)
	assert.True(t, events[0].Bubbles)
	assert.True(t, events[1].Bubbles)
}

func TestWrite_Idempotent(t *testing.T) {
	values := field.ValueMap{"name": "Jane", "terms": "1", "country": "ca", "bio": "hi"}

	once := mustDoc(t)
	scanned(once).Write(values)

	twice := mustDoc(t)
	w := scanned(twice)
	first := w.Write(values)
	second := w.Write(values)

	assert.Equal(t, once.Render(), twice.Render())
	assert.Equal(t, first, second)
}

func TestWrite_SelectWithoutMatchIsUnfilled(t *testing.T) {
	doc := mustDoc(t)
	res := scanned(doc).Write(field.ValueMap{"country": "Narnia"})

	assert.Empty(t, res.Filled)
	assert.Equal(t, []string{"country"}, res.Unfilled)
	assert.Equal(t, "", doc.ByName("country").Value())
	assert.Empty(t, doc.Events())
}

func TestWrite_IgnoresNamedNonControls(t *testing.T) {
	doc, err := dom.ParseString(`<html><head><meta name="description" content="About us"></head><body>
<form name="contact">
  <textarea name="description"></textarea>
  <input name="contact">
</form></body></html>`)
	require.NoError(t, err)

	res := scanned(doc).Write(field.ValueMap{"description": "hello", "contact": "me"})

	assert.Equal(t, []string{"contact", "description"}, res.Filled)
	assert.Empty(t, res.Unfilled)
	assert.Equal(t, "hello", doc.ControlByName("description").Value())
	assert.Equal(t, "me", doc.ControlByName("contact").Value())
	assert.Equal(t, "About us", doc.Description())
	require.Len(t, res.Applied, 2)
	assert.Equal(t, `input[name="contact"]`, res.Applied[0].Selector)
	assert.Equal(t, `textarea[name="description"]`, res.Applied[1].Selector)
}

func TestWrite_DispatchesOnScannedKind(t *testing.T) {
	doc, err := dom.ParseString(`<form><input name="size"><input name="extra"><input type="checkbox" name="gift"></form>`)
	require.NoError(t, err)

	w := NewWriter(doc, []field.FieldDescriptor{
		{Kind: field.KindSelect, Name: "size"},
		{Kind: field.KindCheckbox, Name: "gift"},
		{Kind: field.KindText, Name: "gift"},
	}, nil)
	res := w.Write(field.ValueMap{"size": "L", "extra": "x", "gift": "yes"})

	assert.Equal(t, []string{"gift"}, res.Filled)
	assert.Equal(t, []string{"extra", "size"}, res.Unfilled)
	assert.Equal(t, "", doc.ControlByName("size").Value())
	assert.Equal(t, "", doc.ControlByName("extra").Value())
	assert.True(t, doc.ControlByName("gift").Checked())
	assert.Equal(t, field.KindCheckbox, res.Applied[0].Kind)
}

func TestWrite_NilDocument(t *testing.T) {
	res := NewWriter(nil, nil, nil).Write(field.ValueMap{"b": "1", "a": "2"})
	assert.Empty(t, res.Filled)
	assert.Equal(t, []string{"a", "b"}, res.Unfilled)
}

func TestTruthy(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "1", "yes", " Yes "} {
		assert.True(t, Truthy(v), v)
	}
	for _, v := range []string{"", "false", "0", "no", "on", "checked", "y"} {
		assert.False(t, Truthy(v), v)
	}
}

func TestMatchOption_ExactBeatsPartial(t *testing.T) {
	opts := []dom.Option{
		{Value: "usm", Text: "US Minor Outlying Islands"},
		{Value: "us", Text: "United States"},
	}
	assert.Equal(t, 1, MatchOption(opts, "US"))
	assert.Equal(t, 0, MatchOption(opts, "minor"))
	assert.Equal(t, 1, MatchOption(opts, "united states"))
	assert.Equal(t, -1, MatchOption(opts, "Mexico"))
	assert.Equal(t, -1, MatchOption(opts, ""))
}
