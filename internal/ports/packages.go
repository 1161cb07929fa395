package ports

import "context"

// PackageManager is the package manager the Package step kind reconciles
// against. Only the two operations below are required of it.
type PackageManager interface {
	// Name identifies the manager in logs and results (e.g. "brew").
	Name() string

	// Installed reports whether identifier is in the installed set.
	// hint selects the sub-namespace (for Homebrew: "formula" or "cask").
	Installed(ctx context.Context, identifier, hint string) (bool, error)

	// Install installs identifier. A non-zero exit is reported through the
	// result, not the error; the error is reserved for failing to run at all.
	Install(ctx context.Context, identifier, hint string) (CommandResult, error)
}
