package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var secretsJSON bool

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Inspect credential references",
}

var secretsCheckCmd = &cobra.Command{
	Use:   "check [documents...]",
	Short: "Resolve every credential reference without printing values",
	Long: `Check resolves each credential reference used by automated setup steps
and reports whether it is reachable. Values are never printed.

Exit codes:
  0 - Every reference resolved
  1 - A document could not be loaded, or a reference is unavailable

Examples:
  jumpstart secrets check
  jumpstart secrets check config/application-setup.yaml`,
	RunE:              runSecretsCheck,
	ValidArgsFunction: completeDocuments,
}

var errSecretsUnavailable = errors.New("some credentials are unavailable")

func init() {
	rootCmd.AddCommand(secretsCmd)
	secretsCmd.AddCommand(secretsCheckCmd)

	secretsCheckCmd.Flags().BoolVar(&secretsJSON, "json", false, "Output results as JSON")
}

func runSecretsCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	jumpstart, err := newApp(cmd)
	if err != nil {
		return err
	}

	checks, err := jumpstart.CheckSecrets(ctx, runOptions(args))
	if err != nil {
		return err
	}

	if secretsJSON {
		err = jumpstart.WriteJSON(checks)
	} else {
		err = jumpstart.PrintSecrets(checks)
	}
	if err != nil {
		return err
	}
	for _, c := range checks {
		if !c.OK {
			return errSecretsUnavailable
		}
	}
	return nil
}
