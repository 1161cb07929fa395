// Package reconcile drives ordered step descriptors towards their desired
// state: probe each one, apply what is not satisfied, record the outcome.
package reconcile

import "errors"

// Status is the observed state of a step.
type Status string

const (
	// Satisfied means observed state already matches desired state.
	Satisfied Status = "satisfied"
	// Unsatisfied means the step needs to be applied.
	Unsatisfied Status = "unsatisfied"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Outcome is the final classification of one step in a run.
type Outcome string

const (
	// OutcomeApplied means the step changed the system.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadySatisfied means the probe found nothing to do.
	OutcomeAlreadySatisfied Outcome = "already-satisfied"
	// OutcomeSkipped means the step was not attempted.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the step was attempted and did not succeed.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	return string(o)
}

// Errors classifying step problems.
var (
	// ErrProbeFailed wraps errors raised while observing state. The driver
	// treats the step as Unsatisfied.
	ErrProbeFailed = errors.New("probe failed")
	// ErrExecutionFailed wraps errors raised while applying a step.
	ErrExecutionFailed = errors.New("execution failed")
	// ErrNoHandler is returned when no handler is registered for a kind.
	ErrNoHandler = errors.New("no handler registered for step kind")
)
