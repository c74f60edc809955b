package main

import (
	"fmt"
	"strings"

	"github.com/entrhq/formpilot/pkg/autofill/field"
)

// renderReport formats a fill report for the terminal.
func renderReport(r field.FillReport) string {
	var b strings.Builder
	if r.Success {
		b.WriteString(successStyle.Render(fmt.Sprintf("✓ Filled %d of %d fields", len(r.FilledFields), r.FieldCount)))
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Fill failed (%s)", r.ErrorKind)))
		b.WriteString("\n")
		b.WriteString(r.Error)
	}
	b.WriteString("\n")

	if r.DataSource != "" {
		b.WriteString(mutedStyle.Render("source: ") + string(r.DataSource) + "\n")
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("forms: %d  fields: %d", r.FormCount, r.FieldCount)))
	if len(r.FilledFields) > 0 {
		b.WriteString("\n" + mutedStyle.Render("filled: ") + strings.Join(r.FilledFields, ", "))
	}
	if len(r.UnfilledFields) > 0 {
		b.WriteString("\n" + mutedStyle.Render("unfilled: ") + strings.Join(r.UnfilledFields, ", "))
	}
	return reportBoxStyle.Render(b.String())
}
