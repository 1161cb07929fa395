// Package app wires the loader, handlers and driver into the operations the
// command line exposes.
package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/jumpstart/internal/adapters/brew"
	"github.com/felixgeelhaar/jumpstart/internal/adapters/command"
	"github.com/felixgeelhaar/jumpstart/internal/adapters/filesystem"
	"github.com/felixgeelhaar/jumpstart/internal/adapters/logging"
	"github.com/felixgeelhaar/jumpstart/internal/adapters/privilege"
	"github.com/felixgeelhaar/jumpstart/internal/adapters/vault"
	"github.com/felixgeelhaar/jumpstart/internal/domain/config"
	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/provider/filesync"
	"github.com/felixgeelhaar/jumpstart/internal/provider/folder"
	"github.com/felixgeelhaar/jumpstart/internal/provider/packages"
	"github.com/felixgeelhaar/jumpstart/internal/provider/setup"
	"github.com/felixgeelhaar/jumpstart/internal/tui"
)

// DefaultAgeDir holds age-encrypted items when the manifest names none.
const DefaultAgeDir = "~/.jumpstart/secrets"

// Jumpstart is the application orchestrator.
type Jumpstart struct {
	runner      ports.CommandRunner
	fs          ports.FileSystem
	prompter    ports.Prompter
	packages    ports.PackageManager
	credentials credential.Provider
	logger      ports.Logger
	out         io.Writer
	now         func() time.Time
	newID       func() string
}

// Option configures a Jumpstart.
type Option func(*Jumpstart)

// WithCommandRunner replaces the process runner.
func WithCommandRunner(r ports.CommandRunner) Option {
	return func(j *Jumpstart) { j.runner = r }
}

// WithFileSystem replaces the filesystem.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(j *Jumpstart) { j.fs = fs }
}

// WithPrompter replaces the operator prompt.
func WithPrompter(p ports.Prompter) Option {
	return func(j *Jumpstart) { j.prompter = p }
}

// WithPackageManager replaces the brew-backed package manager.
func WithPackageManager(m ports.PackageManager) Option {
	return func(j *Jumpstart) { j.packages = m }
}

// WithCredentials replaces the vault router built from the manifest.
func WithCredentials(p credential.Provider) Option {
	return func(j *Jumpstart) { j.credentials = p }
}

// WithLogger sets the run logger.
func WithLogger(l ports.Logger) Option {
	return func(j *Jumpstart) { j.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(j *Jumpstart) { j.now = now }
}

// WithRunID fixes the run id generator.
func WithRunID(newID func() string) Option {
	return func(j *Jumpstart) { j.newID = newID }
}

// New creates a Jumpstart backed by the real system.
func New(out io.Writer, opts ...Option) *Jumpstart {
	j := &Jumpstart{
		runner: command.NewRealRunner(),
		fs:     filesystem.NewRealFileSystem(),
		logger: logging.NewNopLogger(),
		out:    out,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.prompter == nil {
		j.prompter = tui.NewPrompter()
	}
	if j.packages == nil {
		j.packages = brew.New(j.runner)
	}
	return j
}

// Documents resolves the document list: explicit paths win over the
// manifest's list. The manifest is optional when paths are given.
func (j *Jumpstart) Documents(opts RunOptions) ([]string, *config.Manifest, error) {
	loader := config.NewLoader(config.WithFileSystem(j.fs))
	manifest, err := loader.LoadManifest(opts.ManifestPath)
	if err != nil {
		if len(opts.Documents) > 0 && config.IsUserError(err, config.ErrCodeConfigNotFound) {
			return opts.Documents, &config.Manifest{}, nil
		}
		return nil, nil, err
	}
	if len(opts.Documents) > 0 {
		return opts.Documents, manifest, nil
	}
	docs := manifest.DocumentPaths()
	if len(docs) == 0 {
		return nil, nil, &config.UserError{
			Code:       config.ErrCodeManifestInvalid,
			Message:    "no documents to load",
			Context:    opts.ManifestPath,
			Suggestion: "List documents in the manifest or pass them as arguments.",
		}
	}
	return docs, manifest, nil
}

// Validate loads every document and returns the descriptors.
func (j *Jumpstart) Validate(opts RunOptions) ([]string, []step.Descriptor, error) {
	docs, _, err := j.Documents(opts)
	if err != nil {
		return nil, nil, err
	}
	steps, err := config.NewLoader(config.WithFileSystem(j.fs)).LoadAll(docs)
	if err != nil {
		return nil, nil, err
	}
	return docs, steps, nil
}

// Apply loads every document, then reconciles each step in order. Step
// failures are reported in the RunReport; only load errors are returned.
func (j *Jumpstart) Apply(ctx context.Context, opts RunOptions) (*RunReport, error) {
	docs, manifest, err := j.Documents(opts)
	if err != nil {
		return nil, err
	}
	steps, err := config.NewLoader(config.WithFileSystem(j.fs)).LoadAll(docs)
	if err != nil {
		return nil, err
	}

	runID := j.newID()
	log := j.logger.With(ports.F("run_id", runID))
	ctx = ports.ContextWithLogger(ctx, log)
	log.Info(ctx, "run started", ports.F("documents", len(docs)), ports.F("steps", len(steps)))

	driverOpts := []reconcile.DriverOption{reconcile.WithLogger(log), reconcile.WithClock(j.now)}
	if manifest.Privilege {
		if handle := j.acquirePrivilege(ctx, log, opts.AssumeYes); handle != nil {
			defer func() {
				if err := handle.Release(context.WithoutCancel(ctx)); err != nil {
					log.Warn(ctx, "privilege release failed", ports.Err(err))
				}
			}()
			driverOpts = append(driverOpts, reconcile.WithElevator(handle))
		}
	}

	started := j.now()
	driver := reconcile.NewDriver(j.registry(manifest), driverOpts...)
	results := driver.Run(ctx, steps)

	report := &RunReport{
		RunID:     runID,
		StartedAt: started,
		Duration:  j.now().Sub(started),
		Documents: docs,
		Results:   results,
		Summary:   reconcile.Summarize(results),
	}
	log.Info(ctx, "run finished",
		ports.F("applied", report.Summary.Applied),
		ports.F("already_satisfied", report.Summary.AlreadySatisfied),
		ports.F("skipped", report.Summary.Skipped),
		ports.F("failed", report.Summary.Failed))
	return report, nil
}

// Plan loads every document and probes each step without applying.
func (j *Jumpstart) Plan(ctx context.Context, opts RunOptions) (*PlanReport, error) {
	docs, manifest, err := j.Documents(opts)
	if err != nil {
		return nil, err
	}
	steps, err := config.NewLoader(config.WithFileSystem(j.fs)).LoadAll(docs)
	if err != nil {
		return nil, err
	}

	runID := j.newID()
	log := j.logger.With(ports.F("run_id", runID))
	driver := reconcile.NewDriver(j.registry(manifest), reconcile.WithLogger(log), reconcile.WithClock(j.now))
	return &PlanReport{
		RunID:     runID,
		Documents: docs,
		Entries:   driver.Plan(ports.ContextWithLogger(ctx, log), steps),
	}, nil
}

func (j *Jumpstart) acquirePrivilege(ctx context.Context, log ports.Logger, assumeYes bool) *privilege.Handle {
	if !assumeYes {
		resp, err := j.prompter.Wait(ctx, ports.Prompt{
			Title:        "Administrator privileges",
			Instructions: "Some steps install software that needs sudo.",
			Action:       "Press Enter to authenticate (or 's' to continue without)",
		})
		if err != nil || resp == ports.PromptSkip {
			log.Warn(ctx, "continuing without administrator privileges", ports.Err(err))
			return nil
		}
	}
	handle, err := privilege.Acquire(ctx, j.runner)
	if err != nil {
		log.Warn(ctx, "continuing without administrator privileges", ports.Err(err))
		return nil
	}
	return handle
}

// registry binds one handler to each step kind.
func (j *Jumpstart) registry(manifest *config.Manifest) *reconcile.Registry {
	reg := reconcile.NewRegistry()
	reg.Register(step.KindPackage, packages.New(j.packages))
	reg.Register(step.KindFolder, folder.New(j.fs))
	reg.Register(step.KindFileSync, filesync.New(j.fs, filesync.WithLifecycle(filesystem.NewBackupLifecycle(j.fs))))
	reg.Register(step.KindAutomatedSetup, setup.NewAutomated(j.runner, j.fs, j.credentialProvider(manifest)))
	reg.Register(step.KindInteractiveSetup, setup.NewInteractive(j.runner, j.fs, j.prompter))
	return reg
}

func (j *Jumpstart) credentialProvider(manifest *config.Manifest) credential.Provider {
	if j.credentials != nil {
		return j.credentials
	}
	ageDir := manifest.Vault.AgeDir
	if ageDir == "" {
		ageDir = DefaultAgeDir
	}
	session := vault.NewSession(j.runner, j.prompter.Interactive())
	return vault.NewRouter().
		Register(credential.BackendOnePassword, vault.NewOnePassword(j.runner, session)).
		Register(credential.BackendAge, vault.NewAge(j.fs, ageDir, manifest.Vault.AgeIdentity)).
		Register(credential.BackendEnv, vault.NewEnv())
}

// CheckSecrets resolves every credential reference once and reports whether
// it is reachable. Values are discarded immediately.
func (j *Jumpstart) CheckSecrets(ctx context.Context, opts RunOptions) ([]SecretCheck, error) {
	docs, manifest, err := j.Documents(opts)
	if err != nil {
		return nil, err
	}
	steps, err := config.NewLoader(config.WithFileSystem(j.fs)).LoadAll(docs)
	if err != nil {
		return nil, err
	}

	provider := j.credentialProvider(manifest)
	seen := make(map[string]SecretCheck)
	var checks []SecretCheck
	for _, d := range steps {
		auto, err := step.As[*step.AutomatedSetup](d)
		if err != nil {
			continue
		}
		for _, c := range auto.Credentials() {
			check := SecretCheck{Step: auto.Name(), Alias: c.Alias, Ref: c.Ref.String()}
			if prev, ok := seen[check.Ref]; ok {
				check.OK, check.Error = prev.OK, prev.Error
				checks = append(checks, check)
				continue
			}
			secret, err := provider.Resolve(ctx, c.Ref)
			switch {
			case err == nil && secret.Empty():
				check.Error = credential.Unavailable(c.Ref, "value is empty").Error()
			case err == nil:
				check.OK = true
			case errors.Is(err, credential.ErrUnavailable):
				check.Error = err.Error()
			default:
				check.Error = credential.Unavailable(c.Ref, err.Error()).Error()
			}
			seen[check.Ref] = check
			checks = append(checks, check)
		}
	}
	return checks, nil
}
