// Package autofill fills the forms of a document from the active profile,
// from a generative-AI model, or from both.
//
// Example usage:
//
//	doc, _ := dom.Parse(r)
//	filler := autofill.NewFiller(profiles, generator, autofill.WithLogger(logger))
//	report := filler.FillForms(ctx, doc, "use a Canadian address", autofill.Options{UseProfileData: true})
//	if !report.Success {
//	    log.Println(report.Error)
//	}
package autofill

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/semaphore"

	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/autofill/generate"
	"github.com/entrhq/formpilot/pkg/autofill/mapper"
	"github.com/entrhq/formpilot/pkg/autofill/parse"
	"github.com/entrhq/formpilot/pkg/autofill/scan"
	"github.com/entrhq/formpilot/pkg/autofill/write"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
)

// ProfileSource supplies the active profile's values.
type ProfileSource interface {
	FieldValues(ctx context.Context) (*field.ProfileValues, error)
}

// ValueGenerator produces a raw AI reply for a prompt input.
type ValueGenerator interface {
	GenerateFor(ctx context.Context, in generate.PromptInput) (string, error)
}

// Options select the data source of a fill.
type Options struct {
	// UseProfileData tries the active profile before the AI.
	UseProfileData bool
	// FallbackToAI lets the AI supply values the profile could not. Nil
	// means true.
	FallbackToAI *bool
}

func (o Options) fallback() bool {
	return o.FallbackToAI == nil || *o.FallbackToAI
}

// Bool returns a pointer to b, for Options.FallbackToAI.
func Bool(b bool) *bool { return &b }

// Outcome is a report plus the writes that produced it.
type Outcome struct {
	Report field.FillReport
	Writes write.Result
}

// Filler runs the scan, resolve and write pipeline. A Filler admits one
// fill at a time; construct one per page.
type Filler struct {
	profiles  ProfileSource
	generator ValueGenerator
	logger    *logging.Logger
	policy    *bluemonday.Policy
	sem       *semaphore.Weighted
}

// Option configures a Filler.
type Option func(*Filler)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Filler) { f.logger = l }
}

// WithSanitize toggles markup stripping of AI-provided values.
func WithSanitize(enabled bool) Option {
	return func(f *Filler) {
		if enabled {
			f.policy = bluemonday.StrictPolicy()
		} else {
			f.policy = nil
		}
	}
}

// NewFiller creates a Filler. Either source may be nil, in which case the
// corresponding path reports that it has no data.
func NewFiller(profiles ProfileSource, generator ValueGenerator, opts ...Option) *Filler {
	f := &Filler{
		profiles:  profiles,
		generator: generator,
		policy:    bluemonday.StrictPolicy(),
		sem:       semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.OrDiscard(f.logger, "autofill")
	return f
}

// FillForms fills doc and reports the outcome. It never panics and never
// returns an error: failures are reported in the FillReport.
func (f *Filler) FillForms(ctx context.Context, doc *dom.Document, instructions string, opts Options) field.FillReport {
	return f.Fill(ctx, doc, instructions, opts).Report
}

// Fill is FillForms that also returns the applied writes.
func (f *Filler) Fill(ctx context.Context, doc *dom.Document, instructions string, opts Options) (out Outcome) {
	if !f.sem.TryAcquire(1) {
		return Outcome{Report: failure(field.KindFillInProgress, field.ErrFillInProgress, field.ScanResult{})}
	}
	defer f.sem.Release(1)

	var scanned field.ScanResult
	defer func() {
		if r := recover(); r != nil {
			f.logger.Errorf("fill panicked: %v", r)
			out = Outcome{Report: failure(field.KindInternal, fmt.Errorf("internal error: %v", r), scanned)}
		}
	}()

	scanned = scan.NewScanner(doc, f.logger.With("scan")).Scan()
	f.logger.Infof("scanned %d fields in %d forms", scanned.FieldCount, scanned.FormCount)
	switch {
	case scanned.FieldCount == 0 && scanned.FormCount == 0:
		return Outcome{Report: failure(field.KindNoFormsDetected, field.ErrNoFormsDetected, scanned)}
	case scanned.FieldCount == 0, !scanned.HasFillableForms:
		return Outcome{Report: failure(field.KindNoFieldsDetected, field.ErrNoFieldsDetected, scanned)}
	}

	values, source, kind, err := f.resolve(ctx, doc, scanned, instructions, opts)
	if err != nil {
		return Outcome{Report: failure(kind, err, scanned)}
	}

	res := write.NewWriter(doc, scanned.Fields, f.logger.With("write")).Write(values)
	f.logger.Infof("filled %d fields from %s, %d unfilled", len(res.Filled), source, len(res.Unfilled))
	return Outcome{
		Report: field.FillReport{
			Success:        true,
			FilledFields:   res.Filled,
			UnfilledFields: res.Unfilled,
			FieldCount:     scanned.FieldCount,
			FormCount:      scanned.FormCount,
			DataSource:     source,
		},
		Writes: res,
	}
}

// resolve produces the value map and its source.
func (f *Filler) resolve(ctx context.Context, doc *dom.Document, scanned field.ScanResult, instructions string, opts Options) (field.ValueMap, field.DataSource, field.ErrorKind, error) {
	if !opts.UseProfileData {
		values, kind, err := f.fromAI(ctx, doc, scanned, instructions)
		return values, field.SourceAI, kind, err
	}

	profileValues, err := f.profileValues(ctx)
	if err != nil {
		return nil, "", field.KindInternal, fmt.Errorf("read profile: %w", err)
	}

	mapped := mapper.Map(scanned.Fields, profileValues)
	if len(mapped) == 0 {
		if !opts.fallback() {
			return nil, "", field.KindNoProfileData, field.ErrNoProfileData
		}
		f.logger.Infof("profile has no matching values (%d keys), using AI", profileValues.Len())
		values, kind, err := f.fromAI(ctx, doc, scanned, instructions)
		return values, field.SourceAI, kind, err
	}

	if !opts.fallback() || !hasUnmapped(scanned.Fields, mapped) {
		return mapped, field.SourceProfile, "", nil
	}

	aiValues, _, err := f.fromAI(ctx, doc, scanned, instructions)
	if err != nil {
		f.logger.Warnf("AI fallback failed, filling from profile only: %v", err)
		return mapped, field.SourceProfile, "", nil
	}
	mapped.Merge(aiValues)
	return mapped, field.SourceHybrid, "", nil
}

func (f *Filler) profileValues(ctx context.Context) (*field.ProfileValues, error) {
	if f.profiles == nil {
		return field.NewProfileValues(), nil
	}
	return f.profiles.FieldValues(ctx)
}

func (f *Filler) fromAI(ctx context.Context, doc *dom.Document, scanned field.ScanResult, instructions string) (field.ValueMap, field.ErrorKind, error) {
	if f.generator == nil {
		return nil, field.KindConfigurationError, &generate.ConfigurationError{Message: "no AI generator configured"}
	}

	text, err := f.generator.GenerateFor(ctx, generate.PromptInput{
		Title:        doc.Title(),
		Instructions: instructions,
		Fields:       scanned.SerializedForAI,
	})
	if err != nil {
		var cfgErr *generate.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, field.KindConfigurationError, err
		}
		return nil, field.KindAIServiceUnavailable, fmt.Errorf("%w: %v", field.ErrAIServiceUnavailable, err)
	}

	values := parse.Parse(text)
	if values == nil {
		f.logger.Debugf("unparseable AI reply: %q", text)
		return nil, field.KindAIResponseUnparseable, field.ErrAIResponseUnparseable
	}
	return f.sanitize(values), "", nil
}

// sanitize strips markup from AI-provided values.
func (f *Filler) sanitize(values field.ValueMap) field.ValueMap {
	if f.policy == nil {
		return values
	}
	out := make(field.ValueMap, len(values))
	for k, v := range values {
		out[k] = html.UnescapeString(f.policy.Sanitize(v))
	}
	return out
}

// hasUnmapped reports whether an addressable fillable field received no
// profile value.
func hasUnmapped(fields []field.FieldDescriptor, mapped field.ValueMap) bool {
	for _, fd := range fields {
		if !fd.Kind.Fillable() || fd.Identifier() == "" {
			continue
		}
		if _, ok := mapped[fd.Identifier()]; !ok {
			return true
		}
	}
	return false
}

func failure(kind field.ErrorKind, err error, scanned field.ScanResult) field.FillReport {
	return field.FillReport{
		Success:      false,
		Error:        err.Error(),
		ErrorKind:    kind,
		FilledFields: []string{},
		FieldCount:   scanned.FieldCount,
		FormCount:    scanned.FormCount,
	}
}
