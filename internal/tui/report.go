package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/tui/ui"
)

const labelWidth = 19

// Report renders run results and plans as styled terminal text.
type Report struct {
	styles ui.Styles
	caser  cases.Caser
}

// NewReport creates a Report with the default styles.
func NewReport() *Report {
	return &Report{
		styles: ui.DefaultStyles(),
		caser:  cases.Title(language.English),
	}
}

// Results writes one line per step followed by the outcome counts.
func (r *Report) Results(w io.Writer, results []reconcile.Result, elapsed time.Duration) error {
	var b strings.Builder
	for _, res := range results {
		b.WriteString(r.line(r.outcomeStyle(res.Outcome), res.Outcome.String(), res.Name, string(res.Kind), res.Reason))
	}

	s := reconcile.Summarize(results)
	b.WriteString("\n")
	summary := fmt.Sprintf("%s: %d applied, %d already satisfied, %d skipped, %d failed in %s",
		english.Plural(s.Total, "step", ""), s.Applied, s.AlreadySatisfied, s.Skipped, s.Failed,
		elapsed.Round(time.Millisecond))
	if s.HasFailures() {
		b.WriteString(r.styles.Error.Render(summary))
	} else {
		b.WriteString(r.styles.Success.Render(summary))
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Plan writes the probe-only view of each step.
func (r *Report) Plan(w io.Writer, entries []reconcile.PlanEntry) error {
	var b strings.Builder
	pending := 0
	for _, e := range entries {
		style := r.styles.Muted
		if e.Status == reconcile.Unsatisfied {
			style = r.styles.Warning
			pending++
		}
		b.WriteString(r.line(style, e.Status.String(), e.Name, string(e.Kind), e.Reason))
	}
	b.WriteString("\n")
	b.WriteString(r.styles.Info.Render(fmt.Sprintf("%s to apply, %d already satisfied",
		english.Plural(pending, "step", ""), len(entries)-pending)))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Report) line(style lipgloss.Style, label, name, kind, reason string) string {
	cell := style.Width(labelWidth).Render(r.caser.String(strings.ReplaceAll(label, "-", " ")))
	out := cell + " " + name + " " + r.styles.Muted.Render("("+kind+")")
	if reason != "" {
		out += "  " + r.styles.Muted.Render(reason)
	}
	return out + "\n"
}

func (r *Report) outcomeStyle(o reconcile.Outcome) lipgloss.Style {
	switch o {
	case reconcile.OutcomeApplied:
		return r.styles.Success
	case reconcile.OutcomeSkipped:
		return r.styles.Warning
	case reconcile.OutcomeFailed:
		return r.styles.Error
	default:
		return r.styles.Muted
	}
}
