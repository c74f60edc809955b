package browser

import (
	"context"
	"fmt"

	"github.com/entrhq/formpilot/pkg/autofill"
	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/autofill/write"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
)

// Page is the live page a fill is replayed onto. *Session implements it.
type Page interface {
	Content() (string, error)
	URL() string
	Fill(selector, value string) error
	SetChecked(selector string, checked bool) error
	SelectIndex(selector string, index int) error
	DispatchEvent(selector, typ string) error
}

// SitePolicy decides whether a page may be filled. *config.SitesSection
// implements it.
type SitePolicy interface {
	IsAllowed(hostOrURL string) bool
}

// Pipeline runs a fill against a document snapshot. *autofill.Filler
// implements it.
type Pipeline interface {
	Fill(ctx context.Context, doc *dom.Document, instructions string, opts autofill.Options) autofill.Outcome
}

// ReplayError records a write that could not be replayed.
type ReplayError struct {
	Identifier string
	Err        error
}

func (e ReplayError) Error() string {
	return fmt.Sprintf("replay %s: %v", e.Identifier, e.Err)
}

// Result is the report of a live-page fill.
type Result struct {
	Report field.FillReport
	// Snapshot is the filled document as HTML.
	Snapshot string
	Failed   []ReplayError
}

// Filler fills live pages.
type Filler struct {
	pipeline Pipeline
	policy   SitePolicy
	logger   *logging.Logger
}

// NewFiller creates a live-page filler. A nil policy allows every site.
func NewFiller(pipeline Pipeline, policy SitePolicy, logger *logging.Logger) *Filler {
	return &Filler{
		pipeline: pipeline,
		policy:   policy,
		logger:   logging.OrDiscard(logger, "browser"),
	}
}

// FillPage snapshots page, fills the snapshot and replays the writes.
// Writes that fail to replay move from the filled to the unfilled list.
// The returned error is non-nil only when the page could not be read or
// the site policy rejects it; pipeline failures are in Result.Report.
func (f *Filler) FillPage(ctx context.Context, page Page, instructions string, opts autofill.Options) (*Result, error) {
	url := page.URL()
	if f.policy != nil && !f.policy.IsAllowed(url) {
		return nil, fmt.Errorf("%w: %s", ErrSiteNotAllowed, url)
	}

	content, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("browser: failed to read page content: %w", err)
	}
	doc, err := dom.ParseString(content)
	if err != nil {
		return nil, fmt.Errorf("browser: failed to parse page content: %w", err)
	}

	out := f.pipeline.Fill(ctx, doc, instructions, opts)
	res := &Result{Report: out.Report, Snapshot: doc.Render()}
	if !out.Report.Success {
		return res, nil
	}

	res.Failed = Replay(ctx, page, out.Writes.Applied)
	if len(res.Failed) > 0 {
		res.Report = withReplayFailures(res.Report, res.Failed)
		for _, rf := range res.Failed {
			f.logger.Warnf("%v", rf)
		}
	}
	f.logger.Infof("replayed %d of %d writes on %s", len(out.Writes.Applied)-len(res.Failed), len(out.Writes.Applied), url)
	return res, nil
}

// Replay applies writes to page in order. It stops early when ctx is
// done, reporting the remaining writes as failed.
func Replay(ctx context.Context, page Page, applied []write.Applied) []ReplayError {
	var failed []ReplayError
	for i, a := range applied {
		if err := ctx.Err(); err != nil {
			for _, rest := range applied[i:] {
				failed = append(failed, ReplayError{Identifier: rest.Identifier, Err: err})
			}
			break
		}
		if err := replayOne(page, a); err != nil {
			failed = append(failed, ReplayError{Identifier: a.Identifier, Err: err})
		}
	}
	return failed
}

func replayOne(page Page, a write.Applied) error {
	switch a.Kind {
	case field.KindCheckbox, field.KindRadio:
		return page.SetChecked(a.Selector, a.Checked)
	case field.KindSelect:
		return page.SelectIndex(a.Selector, a.OptionIndex)
	case field.KindText, field.KindTextarea:
		if err := page.Fill(a.Selector, a.Value); err != nil {
			return err
		}
		// Fill only emits input.
		return page.DispatchEvent(a.Selector, "change")
	default:
		return fmt.Errorf("unsupported kind %q", a.Kind)
	}
}

func withReplayFailures(r field.FillReport, failed []ReplayError) field.FillReport {
	bad := make(map[string]bool, len(failed))
	for _, f := range failed {
		bad[f.Identifier] = true
	}
	filled := make([]string, 0, len(r.FilledFields))
	unfilled := append([]string{}, r.UnfilledFields...)
	for _, id := range r.FilledFields {
		if bad[id] {
			unfilled = append(unfilled, id)
			continue
		}
		filled = append(filled, id)
	}
	r.FilledFields = filled
	r.UnfilledFields = unfilled
	return r
}
