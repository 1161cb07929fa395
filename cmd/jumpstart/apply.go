package main

import (
	"github.com/spf13/cobra"
)

var applyJSON bool

var applyCmd = &cobra.Command{
	Use:   "apply [documents...]",
	Short: "Reconcile the workstation with the configuration",
	Long: `Apply loads every document, then probes and applies each step in order.

Every document is parsed before anything runs: a malformed document stops the
run with no side effects. Once running, a failed step is recorded and the run
moves on to the next one.

Exit codes:
  0 - The run completed (individual steps may have failed)
  1 - Configuration could not be loaded

Examples:
  jumpstart apply
  jumpstart apply config/applications.yaml config/folders.yaml
  jumpstart apply --json`,
	RunE:              runApply,
	ValidArgsFunction: completeDocuments,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyJSON, "json", false, "Output results as JSON")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	jumpstart, err := newApp(cmd)
	if err != nil {
		return err
	}

	report, err := jumpstart.Apply(ctx, runOptions(args))
	if err != nil {
		return err
	}

	if applyJSON {
		return jumpstart.WriteJSON(report)
	}
	return jumpstart.PrintResults(report)
}
