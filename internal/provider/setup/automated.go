package setup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/jumpstart/internal/domain/credential"
	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
	"github.com/felixgeelhaar/jumpstart/internal/provider/commandutil"
)

// ErrActionRejected is returned when the target action of an automated setup
// fails after its credentials were resolved.
var ErrActionRejected = errors.New("action rejected")

const secretFileMode = 0o600

// Automated runs automated-setup steps.
type Automated struct {
	runner      ports.CommandRunner
	fs          ports.FileSystem
	credentials credential.Provider
	now         func() time.Time
}

// NewAutomated creates an Automated handler.
func NewAutomated(runner ports.CommandRunner, fs ports.FileSystem, creds credential.Provider) *Automated {
	return &Automated{runner: runner, fs: fs, credentials: creds, now: time.Now}
}

// Probe reports Satisfied when the step's marker exists.
func (a *Automated) Probe(_ context.Context, d step.Descriptor) (reconcile.Status, error) {
	s, err := step.As[*step.AutomatedSetup](d)
	if err != nil {
		return reconcile.Unsatisfied, err
	}
	return markerStatus(a.fs, s.Marker()), nil
}

// Apply resolves the step's credentials, then runs its action. Every failure
// reason is redacted against the resolved secrets.
func (a *Automated) Apply(ctx context.Context, d step.Descriptor) reconcile.Result {
	s, err := step.As[*step.AutomatedSetup](d)
	if err != nil {
		return reconcile.Failed(err)
	}

	for _, bin := range s.Requires() {
		if !a.runner.LookPath(bin) {
			return reconcile.Skipped(fmt.Sprintf("%s is not installed", bin))
		}
	}
	if s.BundleID() != "" {
		installed, err := appInstalled(ctx, a.runner, s.BundleID())
		if err != nil {
			return reconcile.Failedf("check %s is installed: %v", s.BundleID(), err)
		}
		if !installed {
			return reconcile.Skipped(fmt.Sprintf("%s is not installed", s.BundleID()))
		}
	}

	secrets := &secretSet{byAlias: make(map[string]credential.Secret, len(s.Credentials()))}
	for _, c := range s.Credentials() {
		v, err := a.credentials.Resolve(ctx, c.Ref)
		if err != nil {
			if c.Optional {
				return reconcile.Skipped(fmt.Sprintf("optional credential %s is unavailable", c.Ref))
			}
			if !errors.Is(err, credential.ErrUnavailable) {
				err = credential.Unavailable(c.Ref, err.Error())
			}
			return redactedFailure(credential.ErrUnavailable, err, secrets)
		}
		secrets.byAlias[c.Alias] = v
	}

	actions := s.Actions()
	done := make([]string, 0, len(actions))
	for _, action := range actions {
		if err := a.run(ctx, action, secrets); err != nil {
			return redactedFailure(ErrActionRejected, fmt.Errorf("%w: %w", ErrActionRejected, err), secrets)
		}
		done = append(done, action.Type)
	}
	if err := writeMarker(a.fs, s.Marker(), a.now()); err != nil {
		return redactedFailure(ErrActionRejected, fmt.Errorf("%w: %w", ErrActionRejected, err), secrets)
	}
	return reconcile.Applied(strings.Join(done, ", ") + " completed")
}

// redactedFailure builds a failed result whose reason and error carry no
// secret value. The original error chain is dropped so its messages cannot
// leak; only sentinel is kept for errors.Is.
func redactedFailure(sentinel, err error, secrets *secretSet) reconcile.Result {
	reason := secrets.redact(err.Error())
	return reconcile.Result{
		Outcome: reconcile.OutcomeFailed,
		Reason:  reason,
		Err:     &redactedError{sentinel: sentinel, msg: reason},
	}
}

type redactedError struct {
	sentinel error
	msg      string
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.sentinel }

func (a *Automated) run(ctx context.Context, action step.Action, secrets *secretSet) error {
	mode := os.FileMode(action.Mode)
	if mode == 0 {
		mode = secretFileMode
	}
	switch action.Type {
	case step.ActionWriteFile:
		content, err := secrets.render(action.Path, action.Template)
		if err != nil {
			return err
		}
		return a.write(ports.ExpandPath(action.Path), []byte(content), mode)
	case step.ActionWriteINI:
		return a.writeINI(ports.ExpandPath(action.Path), action.Entries, mode, secrets)
	case step.ActionCommand:
		return a.command(ctx, action, secrets)
	default:
		return fmt.Errorf("unknown action %q", action.Type)
	}
}

// write puts data straight at path; secret-bearing content never goes
// through a temporary file.
func (a *Automated) write(path string, data []byte, mode os.FileMode) error {
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := a.fs.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeINI sets each entry in the INI file at path, keeping other content.
func (a *Automated) writeINI(path string, entries []step.INIEntry, mode os.FileMode, secrets *secretSet) error {
	cfg := ini.Empty()
	if a.fs.Exists(path) {
		data, err := a.fs.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if cfg, err = ini.Load(data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	for _, e := range entries {
		value, err := secrets.render(e.Section+"."+e.Key, e.Value)
		if err != nil {
			return err
		}
		cfg.Section(e.Section).Key(e.Key).SetValue(value)
	}
	var buf bytes.Buffer
	if _, err := cfg.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return a.write(path, buf.Bytes(), mode)
}

// command runs the action's command. Args are passed through untouched;
// secrets reach the command only through its rendered stdin.
func (a *Automated) command(ctx context.Context, action step.Action, secrets *secretSet) error {
	var (
		result ports.CommandResult
		err    error
	)
	if action.Stdin != "" {
		input, rerr := secrets.render("stdin", action.Stdin)
		if rerr != nil {
			return rerr
		}
		result, err = a.runner.RunWithInput(ctx, input, action.Command, action.Args...)
	} else {
		result, err = a.runner.Run(ctx, action.Command, action.Args...)
	}
	if err != nil {
		return commandutil.Wrap(action.Command, err)
	}
	if !result.Success() {
		return fmt.Errorf("%s exited %d: %s", action.Command, result.ExitCode, result.Diagnostic())
	}
	return nil
}

var _ reconcile.Handler = (*Automated)(nil)
