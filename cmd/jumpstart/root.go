package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/jumpstart/internal/adapters/logging"
	"github.com/felixgeelhaar/jumpstart/internal/app"
	"github.com/felixgeelhaar/jumpstart/internal/domain/config"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/tui"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	logFormat string
	yesFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "jumpstart",
	Short: "Declarative, idempotent workstation setup",
	Long: `Jumpstart reads configuration documents describing the desired state of a
workstation, probes what is already in place, and applies only the difference.

Steps run strictly in document order. Packages, folders and synced files are
fully automatic; setup steps may pull credentials from a vault or pause for
the operator.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultManifest, "manifest listing the documents to load")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "acquire administrator privileges without asking")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the run logger from the global flags. Logs go to stderr
// so --json output on stdout stays parseable.
func newLogger(w io.Writer) (ports.Logger, error) {
	level := ports.LevelWarn
	if verbose {
		level = ports.LevelDebug
	}
	switch logFormat {
	case "text":
		return logging.NewConsoleLogger(
			logging.WithOutput(w),
			logging.WithLevel(level),
			logging.WithColor(tui.IsTerminal(os.Stderr)),
		), nil
	case "json":
		return logging.NewConsoleLogger(
			logging.WithOutput(w),
			logging.WithLevel(level),
			logging.WithJSONFormat(true),
		), nil
	default:
		return nil, fmt.Errorf("unknown --log-format %q (expected text or json)", logFormat)
	}
}

// newApp creates the application for a command.
func newApp(cmd *cobra.Command) (*app.Jumpstart, error) {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return app.New(cmd.OutOrStdout(), app.WithLogger(logger)), nil
}

// runOptions turns positional document arguments and global flags into
// app.RunOptions.
func runOptions(args []string) app.RunOptions {
	return app.NewRunOptions(cfgFile).
		WithDocuments(args...).
		WithAssumeYes(yesFlag)
}

// signalContext is cancelled on SIGINT or SIGTERM. Steps that have not
// started by then are recorded as skipped.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Underlying != nil && (verbose || userErr.Code == config.ErrCodeConfigMalformed) {
			msg += fmt.Sprintf(": %v", userErr.Underlying)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tHuman-readable lines",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// completeDocuments completes positional document arguments.
func completeDocuments(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"yaml", "yml", "toml", "json", "jsonc"}, cobra.ShellCompDirectiveFilterFileExt
}
