package app

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/jumpstart/internal/tui"
	"github.com/felixgeelhaar/jumpstart/internal/tui/ui"
)

// PrintResults writes the run report as styled text.
func (j *Jumpstart) PrintResults(report *RunReport) error {
	return tui.NewReport().Results(j.out, report.Results, report.Duration)
}

// PrintPlan writes the plan as styled text.
func (j *Jumpstart) PrintPlan(plan *PlanReport) error {
	if err := tui.NewReport().Plan(j.out, plan.Entries); err != nil {
		return err
	}
	if plan.Pending() > 0 {
		_, err := fmt.Fprintln(j.out, "\nRun 'jumpstart apply' to reconcile these steps.")
		return err
	}
	return nil
}

// PrintSecrets writes one ✓/✗ line per credential reference.
func (j *Jumpstart) PrintSecrets(checks []SecretCheck) error {
	styles := ui.DefaultStyles()
	if len(checks) == 0 {
		_, err := fmt.Fprintln(j.out, styles.Muted.Render("No credential references found."))
		return err
	}
	for _, c := range checks {
		mark := styles.Success.Render("✓")
		detail := ""
		if !c.OK {
			mark = styles.Error.Render("✗")
			detail = "  " + styles.Muted.Render(c.Error)
		}
		line := lipgloss.JoinHorizontal(lipgloss.Top, mark, " ", c.Step, " ", styles.Muted.Render(c.Alias+" → "+c.Ref))
		if _, err := fmt.Fprintln(j.out, line+detail); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func (j *Jumpstart) WriteJSON(v any) error {
	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
