package main

import (
	"fmt"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate [documents...]",
	Short: "Validate configuration without applying",
	Long: `Validate parses every document and reports the first error, without
probing or changing anything. It is meant for CI.

Exit codes:
  0 - Valid configuration
  1 - A document is missing or malformed

Examples:
  jumpstart validate
  jumpstart validate config/application-setup.yaml
  jumpstart validate --json`,
	RunE:              runValidate,
	ValidArgsFunction: completeDocuments,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output results as JSON")
}

type validationOutput struct {
	Valid     bool           `json:"valid"`
	Documents []string       `json:"documents,omitempty"`
	Steps     []stepOutput   `json:"steps,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type stepOutput struct {
	Name string    `json:"name"`
	Kind step.Kind `json:"kind"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	jumpstart, err := newApp(cmd)
	if err != nil {
		return err
	}

	docs, steps, err := jumpstart.Validate(runOptions(args))
	if validateJSON {
		out := validationOutput{Valid: err == nil, Documents: docs}
		if err != nil {
			out.Error = formatError(err)
		} else {
			out.Counts = make(map[string]int)
			for _, s := range steps {
				out.Steps = append(out.Steps, stepOutput{Name: s.Name(), Kind: s.Kind()})
				out.Counts[string(s.Kind())]++
			}
		}
		if writeErr := jumpstart.WriteJSON(out); writeErr != nil {
			return writeErr
		}
		return err
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s valid, %s\n",
		english.Plural(len(docs), "document", ""), english.Plural(len(steps), "step", ""))
	return err
}
