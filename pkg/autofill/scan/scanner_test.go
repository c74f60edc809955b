package scan

import (
	"fmt"
	"strings"
	"testing"

	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestScan_DiscardsHiddenDisabledAndReadOnly(t *testing.T) {
	doc := parse(t, `<form>
		<input type="hidden" name="csrf" value="t">
		<input name="first">
		<input name="ro" readonly>
		<input name="off" disabled>
		<button type="button">Toggle</button>
		<button type="submit" name="go">Send</button>
		<input type="file" name="cv">
		<textarea name="bio"></textarea>
		<select name="size"><option>S</option></select>
	</form>`)

	res := NewScanner(doc, nil).Scan()

	require.True(t, res.HasFillableForms)
	assert.Equal(t, 1, res.FormCount)
	assert.Equal(t, 5, res.FieldCount)
	var ids []string
	for _, f := range res.Fields {
		ids = append(ids, f.Identifier())
	}
	assert.Equal(t, []string{"first", "go", "cv", "bio", "size"}, ids)
	assert.Equal(t, field.KindSubmit, res.Fields[1].Kind)
	assert.Equal(t, field.KindFile, res.Fields[2].Kind)
}

func TestScan_ButtonLikeInputsAreCountedButNotFillable(t *testing.T) {
	doc := parse(t, `<form>
		<input name="name">
		<input type="file" name="cv">
		<input type="button" name="preview" value="Preview">
		<input type="reset">
		<input type="image" src="go.png">
	</form>`)

	res := NewScanner(doc, nil).Scan()

	assert.Equal(t, 5, res.FieldCount)
	kinds := make([]field.Kind, 0, len(res.Fields))
	for _, f := range res.Fields {
		kinds = append(kinds, f.Kind)
	}
	assert.Equal(t, []field.Kind{field.KindText, field.KindFile, field.KindButton, field.KindButton, field.KindButton}, kinds)
	assert.Equal(t, "Preview", res.Fields[2].Value)
	assert.Contains(t, res.SerializedForAI, `<input type="file" name="cv" value="">`)
	assert.Contains(t, res.SerializedForAI, `<input type="button" name="preview" value="Preview">`)

	only := NewScanner(parse(t, `<form><input type="file" name="cv"><input type="reset"></form>`), nil).Scan()
	assert.Equal(t, 2, only.FieldCount)
	assert.False(t, only.HasFillableForms)
}

func TestScan_FieldCountMatchesControls(t *testing.T) {
	for n := 0; n <= 6; n++ {
		t.Run(fmt.Sprintf("%d controls", n), func(t *testing.T) {
			var b strings.Builder
			b.WriteString("<form>")
			for i := 0; i < n; i++ {
				switch i % 4 {
				case 0:
					fmt.Fprintf(&b, `<input name="f%d">`, i)
				case 1:
					fmt.Fprintf(&b, `<select name="f%d"><option>a</option></select>`, i)
				case 2:
					fmt.Fprintf(&b, `<textarea name="f%d"></textarea>`, i)
				default:
					fmt.Fprintf(&b, `<input type="file" name="f%d">`, i)
				}
				// Noise that must not be counted.
				fmt.Fprintf(&b, `<input type="hidden" name="h%d"><input name="d%d" disabled>`, i, i)
			}
			b.WriteString("</form>")

			res := NewScanner(parse(t, b.String()), nil).Scan()
			assert.Equal(t, n, res.FieldCount)
			assert.Equal(t, n > 0, res.HasFillableForms)
		})
	}
}

func TestScan_CapturesStateByKind(t *testing.T) {
	doc := parse(t, `
		<input name="email" type="email" placeholder="you@example.com" value="x@y.z">
		<input name="tos" type="checkbox" checked placeholder="ignored">
		<input name="plan" type="radio">
		<select name="country"><option value="us">USA</option><option value="ca" selected>Canada</option></select>
		<textarea name="bio" placeholder="About you">hi</textarea>`)

	res := NewScanner(doc, nil).Scan()
	require.Len(t, res.Fields, 5)

	email := res.Fields[0]
	assert.Equal(t, field.KindText, email.Kind)
	assert.Equal(t, "email", email.InputType)
	assert.Equal(t, "you@example.com", email.Placeholder)
	assert.Equal(t, "x@y.z", email.Value)

	tos := res.Fields[1]
	assert.Equal(t, field.KindCheckbox, tos.Kind)
	assert.True(t, tos.Checked)
	assert.Empty(t, tos.Placeholder)

	assert.False(t, res.Fields[2].Checked)

	country := res.Fields[3]
	assert.Equal(t, "ca", country.Value)
	assert.True(t, country.Selected)
	assert.Equal(t, []string{"USA", "Canada"}, country.Options)

	bio := res.Fields[4]
	assert.Equal(t, field.KindTextarea, bio.Kind)
	assert.Equal(t, "About you", bio.Placeholder)
	assert.Equal(t, "hi", bio.Value)

	assert.Equal(t, 0, res.FormCount)
}

func TestScan_Serialization(t *testing.T) {
	doc := parse(t, `<form>
		<label for="e">Email address</label><input id="e" name="email" type="email" placeholder="you@x">
		<input name="tos" type="checkbox">
	</form>`)

	res := NewScanner(doc, nil).Scan()
	want := "<label>Email address</label>\n" +
		`<input type="email" name="email" id="e" placeholder="you@x" value="">` + "\n" +
		`<input type="checkbox" name="tos" checked="false">` + "\n"
	assert.Equal(t, want, res.SerializedForAI)
}

func TestScan_EmptyAndNilDocument(t *testing.T) {
	res := NewScanner(parse(t, `<p>nothing here</p>`), nil).Scan()
	assert.False(t, res.HasFillableForms)
	assert.Equal(t, 0, res.FieldCount)
	assert.NotNil(t, res.Fields)

	res = NewScanner(nil, nil).Scan()
	assert.False(t, res.HasFillableForms)
	assert.Empty(t, res.Fields)
}

func TestScan_OnlySubmitIsNotFillable(t *testing.T) {
	res := NewScanner(parse(t, `<form><button>Go</button></form>`), nil).Scan()
	assert.False(t, res.HasFillableForms)
	assert.Equal(t, 1, res.FieldCount)
}
