package main

import (
	"context"

	"github.com/spf13/cobra"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan [documents...]",
	Short: "Show which steps would be applied",
	Long: `Plan loads every document and probes each step without changing anything.

Setup steps without a marker always show as unsatisfied, since there is no
way to observe them.

Examples:
  jumpstart plan
  jumpstart plan config/folders.yaml --json`,
	RunE:              runPlan,
	ValidArgsFunction: completeDocuments,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().BoolVar(&planJSON, "json", false, "Output plan as JSON")
}

func runPlan(cmd *cobra.Command, args []string) error {
	jumpstart, err := newApp(cmd)
	if err != nil {
		return err
	}

	plan, err := jumpstart.Plan(context.Background(), runOptions(args))
	if err != nil {
		return err
	}

	if planJSON {
		return jumpstart.WriteJSON(plan)
	}
	return jumpstart.PrintPlan(plan)
}
