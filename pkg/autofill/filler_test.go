package autofill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/autofill/generate"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/kv"
	"github.com/entrhq/formpilot/pkg/profile"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type staticProfile struct {
	values *field.ProfileValues
	err    error
}

func (s staticProfile) FieldValues(context.Context) (*field.ProfileValues, error) {
	return s.values, s.err
}

type mockGenerator struct {
	reply  string
	err    error
	calls  int
	inputs []generate.PromptInput
	hook   func()
}

func (m *mockGenerator) GenerateFor(_ context.Context, in generate.PromptInput) (string, error) {
	m.calls++
	m.inputs = append(m.inputs, in)
	if m.hook != nil {
		m.hook()
	}
	return m.reply, m.err
}

func pv(pairs ...string) *field.ProfileValues {
	v := field.NewProfileValues()
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v
}

func mustDoc(t *testing.T, s string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(s)
	require.NoError(t, err)
	return doc
}

func TestFillForms_ProfileOnly(t *testing.T) {
	doc := mustDoc(t, `<form><input name="email"></form>`)
	gen := &mockGenerator{}
	f := NewFiller(staticProfile{values: pv("email", "a@b.com")}, gen)

	report := f.FillForms(context.Background(), doc, "", Options{UseProfileData: true})

	assert.True(t, report.Success)
	assert.Equal(t, field.SourceProfile, report.DataSource)
	assert.Equal(t, []string{"email"}, report.FilledFields)
	assert.Equal(t, 1, report.FieldCount)
	assert.Equal(t, 1, report.FormCount)
	assert.Equal(t, "a@b.com", doc.ByName("email").Value())
	assert.Equal(t, 0, gen.calls)
}

func TestFillForms_ProfileStoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := profile.NewStore(kv.NewMemoryStore())
	p, err := store.Create(ctx, profile.Input{Name: "Me", Data: profile.Data{Email: "a@b.com"}})
	require.NoError(t, err)
	require.NoError(t, store.SetActive(ctx, p.ID))

	doc := mustDoc(t, `<form><input name="email"><button type="submit">Send</button></form>`)
	report := NewFiller(store, nil).FillForms(ctx, doc, "", Options{UseProfileData: true})

	assert.True(t, report.Success)
	assert.Equal(t, field.SourceProfile, report.DataSource)
	assert.Equal(t, []string{"email"}, report.FilledFields)
}

func TestFillForms_NoForms(t *testing.T) {
	gen := &mockGenerator{}
	report := NewFiller(nil, gen).FillForms(context.Background(), mustDoc(t, `<p>hello</p>`), "fill it", Options{})

	assert.False(t, report.Success)
	assert.Equal(t, field.KindNoFormsDetected, report.ErrorKind)
	assert.Equal(t, field.ErrNoFormsDetected.Error(), report.Error)
	assert.Equal(t, 0, report.FieldCount)
	assert.NotNil(t, report.FilledFields)
	assert.Equal(t, 0, gen.calls)

	report = NewFiller(nil, gen).FillForms(context.Background(), nil, "", Options{})
	assert.Equal(t, field.KindNoFormsDetected, report.ErrorKind)
}

func TestFillForms_NoFields(t *testing.T) {
	f := NewFiller(nil, &mockGenerator{})

	report := f.FillForms(context.Background(), mustDoc(t, `<form><input type="hidden" name="t"></form>`), "", Options{})
	assert.Equal(t, field.KindNoFieldsDetected, report.ErrorKind)
	assert.Equal(t, 1, report.FormCount)

	report = f.FillForms(context.Background(), mustDoc(t, `<form><button type="submit">Go</button></form>`), "", Options{})
	assert.Equal(t, field.KindNoFieldsDetected, report.ErrorKind)
	assert.Equal(t, 1, report.FieldCount)
}

func TestFillForms_AIOnly(t *testing.T) {
	doc := mustDoc(t, `<html><head><title>Join</title></head><body><form><input name="name"></form></body></html>`)
	gen := &mockGenerator{reply: "```json\n{\"name\":\"Jane\"}\n```"}

	var events []string
	doc.AddEventListener(nil, "input", func(ev dom.Event, _ *dom.Element) { events = append(events, "input") })
	doc.AddEventListener(nil, "change", func(ev dom.Event, _ *dom.Element) { events = append(events, "change") })

	out := NewFiller(nil, gen).Fill(context.Background(), doc, "keep it short", Options{})

	require.True(t, out.Report.Success, out.Report.Error)
	assert.Equal(t, field.SourceAI, out.Report.DataSource)
	assert.Equal(t, []string{"name"}, out.Report.FilledFields)
	assert.Equal(t, "Jane", doc.ByName("name").Value())
	assert.Equal(t, []string{"input", "change"}, events)
	require.Len(t, out.Writes.Applied, 1)
	assert.Equal(t, `input[name="name"]`, out.Writes.Applied[0].Selector)

	require.Len(t, gen.inputs, 1)
	assert.Equal(t, "Join", gen.inputs[0].Title)
	assert.Equal(t, "keep it short", gen.inputs[0].Instructions)
	assert.Contains(t, gen.inputs[0].Fields, `name="name"`)
}

func TestFillForms_SuccessWithZeroFilled(t *testing.T) {
	doc := mustDoc(t, `<form><input name="name"></form>`)
	gen := &mockGenerator{reply: `{"unrelated": "x"}`}

	report := NewFiller(nil, gen).FillForms(context.Background(), doc, "", Options{})
	assert.True(t, report.Success)
	assert.Empty(t, report.FilledFields)
	assert.Equal(t, []string{"unrelated"}, report.UnfilledFields)
}

func TestFillForms_AIErrors(t *testing.T) {
	page := `<form><input name="name"></form>`
	tests := []struct {
		name string
		gen  *mockGenerator
		want field.ErrorKind
	}{
		{"service failure", &mockGenerator{err: errors.New("generate: failed after 3 attempts: 429")}, field.KindAIServiceUnavailable},
		{"missing credential", &mockGenerator{err: &generate.ConfigurationError{Message: "no API key configured"}}, field.KindConfigurationError},
		{"unparseable reply", &mockGenerator{reply: "Sorry, I cannot help with that."}, field.KindAIResponseUnparseable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, page)
			report := NewFiller(nil, tt.gen).FillForms(context.Background(), doc, "", Options{})
			assert.False(t, report.Success)
			assert.Equal(t, tt.want, report.ErrorKind)
			assert.NotEmpty(t, report.Error)
			assert.Equal(t, 1, report.FieldCount)
			assert.Equal(t, "", doc.ByName("name").Value())
		})
	}

	report := NewFiller(nil, nil).FillForms(context.Background(), mustDoc(t, page), "", Options{})
	assert.Equal(t, field.KindConfigurationError, report.ErrorKind)
}

func TestFillForms_EmptyProfile(t *testing.T) {
	page := `<form><input name="email"></form>`

	gen := &mockGenerator{reply: `{"email":"ai@b.com"}`}
	report := NewFiller(staticProfile{values: pv()}, gen).
		FillForms(context.Background(), mustDoc(t, page), "", Options{UseProfileData: true})
	assert.True(t, report.Success)
	assert.Equal(t, field.SourceAI, report.DataSource)
	assert.Equal(t, 1, gen.calls)

	gen = &mockGenerator{}
	report = NewFiller(staticProfile{values: pv()}, gen).
		FillForms(context.Background(), mustDoc(t, page), "", Options{UseProfileData: true, FallbackToAI: Bool(false)})
	assert.False(t, report.Success)
	assert.Equal(t, field.KindNoProfileData, report.ErrorKind)
	assert.Equal(t, 0, gen.calls)
}

func TestFillForms_ProfileWithoutMatches(t *testing.T) {
	page := `<form><input name="q"></form>`
	values := staticProfile{values: pv("company", "Acme")}

	report := NewFiller(values, &mockGenerator{}).
		FillForms(context.Background(), mustDoc(t, page), "", Options{UseProfileData: true, FallbackToAI: Bool(false)})
	assert.Equal(t, field.KindNoProfileData, report.ErrorKind)

	gen := &mockGenerator{reply: `{"q":"search"}`}
	report = NewFiller(values, gen).
		FillForms(context.Background(), mustDoc(t, page), "", Options{UseProfileData: true})
	assert.True(t, report.Success)
	assert.Equal(t, field.SourceAI, report.DataSource)
}

func TestFillForms_ProfileReadError(t *testing.T) {
	report := NewFiller(staticProfile{err: errors.New("disk on fire")}, &mockGenerator{}).
		FillForms(context.Background(), mustDoc(t, `<form><input name="email"></form>`), "", Options{UseProfileData: true})
	assert.False(t, report.Success)
	assert.Equal(t, field.KindInternal, report.ErrorKind)
	assert.Contains(t, report.Error, "disk on fire")
}

func TestFillForms_Hybrid(t *testing.T) {
	page := `<form><input name="email"><input name="nickname"></form>`
	gen := &mockGenerator{reply: `{"email":"ai@x.com","nickname":"JJ"}`}
	doc := mustDoc(t, page)

	report := NewFiller(staticProfile{values: pv("email", "me@x.com")}, gen).
		FillForms(context.Background(), doc, "", Options{UseProfileData: true})

	assert.True(t, report.Success)
	assert.Equal(t, field.SourceHybrid, report.DataSource)
	assert.Equal(t, []string{"email", "nickname"}, report.FilledFields)
	assert.Equal(t, "me@x.com", doc.ByName("email").Value(), "profile values win over AI values")
	assert.Equal(t, "JJ", doc.ByName("nickname").Value())
}

func TestFillForms_HybridDegradesToProfile(t *testing.T) {
	page := `<form><input name="email"><input name="nickname"></form>`
	doc := mustDoc(t, page)

	report := NewFiller(staticProfile{values: pv("email", "me@x.com")}, &mockGenerator{err: errors.New("timeout")}).
		FillForms(context.Background(), doc, "", Options{UseProfileData: true})

	assert.True(t, report.Success)
	assert.Equal(t, field.SourceProfile, report.DataSource)
	assert.Equal(t, []string{"email"}, report.FilledFields)
}

func TestFillForms_FullyMappedSkipsAI(t *testing.T) {
	gen := &mockGenerator{}
	report := NewFiller(staticProfile{values: pv("email", "me@x.com")}, gen).
		FillForms(context.Background(), mustDoc(t, `<form><input name="email"><button type="submit">Go</button></form>`), "", Options{UseProfileData: true})

	assert.Equal(t, field.SourceProfile, report.DataSource)
	assert.Equal(t, 0, gen.calls)
}

func TestFillForms_SanitizesAIValues(t *testing.T) {
	doc := mustDoc(t, `<form><input name="name"><textarea name="bio"></textarea></form>`)
	gen := &mockGenerator{reply: `{"name":"<script>alert(1)</script>Jane","bio":"Tom &amp; <b>Jerry</b>"}`}

	NewFiller(nil, gen).FillForms(context.Background(), doc, "", Options{})
	assert.Equal(t, "Jane", doc.ByName("name").Value())
	assert.Equal(t, "Tom & Jerry", doc.ByName("bio").Value())

	doc = mustDoc(t, `<form><input name="name"></form>`)
	gen = &mockGenerator{reply: `{"name":"<i>raw</i>"}`}
	NewFiller(nil, gen, WithSanitize(false)).FillForms(context.Background(), doc, "", Options{})
	assert.Equal(t, "<i>raw</i>", doc.ByName("name").Value())
}

func TestFillForms_RejectsOverlappingFill(t *testing.T) {
	doc := mustDoc(t, `<form><input name="name"></form>`)
	gen := &mockGenerator{reply: `{"name":"Jane"}`}
	f := NewFiller(nil, gen)

	var inner field.FillReport
	gen.hook = func() {
		inner = f.FillForms(context.Background(), doc, "", Options{})
	}

	outer := f.FillForms(context.Background(), doc, "", Options{})
	assert.True(t, outer.Success)
	assert.False(t, inner.Success)
	assert.Equal(t, field.KindFillInProgress, inner.ErrorKind)
	assert.Equal(t, 1, gen.calls)

	again := f.FillForms(context.Background(), doc, "", Options{})
	assert.True(t, again.Success, "the guard is released after a fill")
}

func TestFillForms_RecoversPanics(t *testing.T) {
	gen := &mockGenerator{hook: func() { panic("boom") }}
	report := NewFiller(nil, gen).FillForms(context.Background(), mustDoc(t, `<form><input name="name"></form>`), "", Options{})

	assert.False(t, report.Success)
	assert.Equal(t, field.KindInternal, report.ErrorKind)
	assert.Contains(t, report.Error, "boom")
	assert.Equal(t, 1, report.FieldCount)

	report = NewFiller(nil, &mockGenerator{reply: `{"name":"x"}`}).FillForms(context.Background(), mustDoc(t, `<form><input name="name"></form>`), "", Options{})
	assert.True(t, report.Success)
}
