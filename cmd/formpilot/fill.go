package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/formpilot/pkg/autofill"
	"github.com/entrhq/formpilot/pkg/autofill/field"
	"github.com/entrhq/formpilot/pkg/browser"
	"github.com/entrhq/formpilot/pkg/config"
	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/profile"
)

type fillOptions struct {
	file         string
	url          string
	out          string
	instructions string
	profile      string
	noProfile    bool
	noAIFallback bool
	headed       bool
	jsonReport   bool
}

// errFillFailed is returned after a failed fill's report has been printed.
var errFillFailed = errors.New("fill failed")

func newFillCmd(global *globalOptions) *cobra.Command {
	opts := &fillOptions{}
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill the forms of an HTML file or a live page",
		Long: `Fill the forms of an HTML file (--file) or of a page opened in a
headless Chromium (--url).

With --file the filled HTML is written to --out, or to stdout. The fill
report is printed to stderr.`,
		Example: `  formpilot fill --file signup.html --out filled.html
  formpilot fill --file signup.html --profile work --no-ai-fallback
  formpilot fill --url https://example.com/signup -i "use a Canadian address"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.file, "file", "", "HTML file to fill")
	f.StringVar(&opts.url, "url", "", "page to open and fill in a browser")
	f.StringVarP(&opts.out, "out", "o", "", "write the filled HTML here instead of stdout")
	f.StringVarP(&opts.instructions, "instructions", "i", "", "free-text instructions for the AI")
	f.StringVar(&opts.profile, "profile", "", "profile name or id to use instead of the active profile")
	f.BoolVar(&opts.noProfile, "no-profile", false, "use AI-generated values only")
	f.BoolVar(&opts.noAIFallback, "no-ai-fallback", false, "use profile data only and never call the AI")
	f.BoolVar(&opts.headed, "headed", false, "show the browser window (with --url)")
	f.BoolVar(&opts.jsonReport, "json", false, "print the report as JSON")
	cmd.MarkFlagsMutuallyExclusive("file", "url")
	cmd.MarkFlagsOneRequired("file", "url")
	cmd.MarkFlagsMutuallyExclusive("no-profile", "no-ai-fallback")
	return cmd
}

func runFill(cmd *cobra.Command, global *globalOptions, opts *fillOptions) error {
	ctx := cmd.Context()
	a, err := openApp(cmd, global)
	if err != nil {
		return err
	}
	defer a.close()

	settings := a.cfg.Autofill().Snapshot()
	fillOpts := opts.resolve(settings)

	var source autofill.ProfileSource = a.profiles
	if opts.profile != "" {
		p, err := resolveProfile(ctx, a.profiles, opts.profile)
		if err != nil {
			return err
		}
		source = staticProfile{values: profile.Project(p.Data)}
	}

	gen, err := a.newGenerator(ctx)
	if err != nil {
		return err
	}
	filler := autofill.NewFiller(source, gen,
		autofill.WithLogger(a.logger.With("autofill")),
		autofill.WithSanitize(settings.SanitizeAIValues),
	)

	var (
		report field.FillReport
		filled string
	)
	if opts.file != "" {
		report, filled, err = fillFile(ctx, filler, opts, fillOpts)
	} else {
		report, filled, err = fillURL(cmd, a, filler, opts, fillOpts)
	}
	if err != nil {
		return err
	}

	if err := printReport(cmd.ErrOrStderr(), report, opts.jsonReport); err != nil {
		return err
	}
	if !report.Success {
		return fmt.Errorf("%w: %s", errFillFailed, report.ErrorKind)
	}
	if opts.file != "" || opts.out != "" {
		return writeOutput(cmd.OutOrStdout(), opts.out, filled)
	}
	return nil
}

// resolve applies the command-line overrides to the configured
// defaults. --no-ai-fallback selects the profile path even when the config
// turns profile data off, so the AI is never called.
func (o *fillOptions) resolve(settings config.AutofillSettings) autofill.Options {
	useProfile := settings.UseProfileData && !o.noProfile
	if o.noAIFallback {
		useProfile = true
	}
	return autofill.Options{
		UseProfileData: useProfile,
		FallbackToAI:   autofill.Bool(settings.FallbackToAI && !o.noAIFallback),
	}
}

func fillFile(ctx context.Context, filler *autofill.Filler, opts *fillOptions, fillOpts autofill.Options) (field.FillReport, string, error) {
	f, err := os.Open(opts.file)
	if err != nil {
		return field.FillReport{}, "", fmt.Errorf("failed to open %s: %w", opts.file, err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return field.FillReport{}, "", fmt.Errorf("failed to parse %s: %w", opts.file, err)
	}
	report := filler.FillForms(ctx, doc, opts.instructions, fillOpts)
	return report, doc.Render(), nil
}

func fillURL(cmd *cobra.Command, a *app, filler *autofill.Filler, opts *fillOptions, fillOpts autofill.Options) (field.FillReport, string, error) {
	ctx := cmd.Context()
	if !a.cfg.Sites().IsAllowed(opts.url) {
		return field.FillReport{}, "", fmt.Errorf("%w: %s", browser.ErrSiteNotAllowed, opts.url)
	}

	manager := browser.NewSessionManager(a.logger.With("browser"))
	defer func() {
		if err := manager.Shutdown(); err != nil {
			a.logger.Warnf("browser shutdown: %v", err)
		}
	}()

	session, err := manager.StartSession("fill", browser.SessionOptions{Headless: !opts.headed})
	if err != nil {
		return field.FillReport{}, "", err
	}
	if err := session.Navigate(opts.url, browser.NavigateOptions{WaitUntil: "load"}); err != nil {
		return field.FillReport{}, "", err
	}

	res, err := browser.NewFiller(filler, a.cfg.Sites(), a.logger).FillPage(ctx, session, opts.instructions, fillOpts)
	if err != nil {
		return field.FillReport{}, "", err
	}

	if opts.headed && res.Report.Success {
		fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("Review the page, then press Enter to close the browser."))
		_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	}
	return res.Report, res.Snapshot, nil
}

func printReport(w io.Writer, report field.FillReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err := fmt.Fprintln(w, renderReport(report))
	return err
}

func writeOutput(stdout io.Writer, path, content string) error {
	if path == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// staticProfile serves a fixed projection of one profile.
type staticProfile struct {
	values *field.ProfileValues
}

func (s staticProfile) FieldValues(context.Context) (*field.ProfileValues, error) {
	return s.values, nil
}
