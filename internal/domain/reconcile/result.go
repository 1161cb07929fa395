package reconcile

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
)

// Result is the outcome of reconciling one descriptor.
type Result struct {
	Index    int           `json:"index"`
	Name     string        `json:"name"`
	Kind     step.Kind     `json:"kind"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration_ns"`
}

// Applied builds an applied result.
func Applied(reason string) Result {
	return Result{Outcome: OutcomeApplied, Reason: reason}
}

// Skipped builds a skipped result.
func Skipped(reason string) Result {
	return Result{Outcome: OutcomeSkipped, Reason: reason}
}

// Failed builds a failed result. The reason is err's message, so callers
// must redact secrets before wrapping.
func Failed(err error) Result {
	return Result{Outcome: OutcomeFailed, Reason: err.Error(), Err: err}
}

// Failedf builds a failed result whose error wraps ErrExecutionFailed. The
// reason is the formatted message without the sentinel prefix.
func Failedf(format string, args ...any) Result {
	reason := fmt.Sprintf(format, args...)
	return Result{
		Outcome: OutcomeFailed,
		Reason:  reason,
		Err:     fmt.Errorf("%w: %s", ErrExecutionFailed, reason),
	}
}

// Summary counts outcomes across a run.
type Summary struct {
	Total            int `json:"total"`
	Applied          int `json:"applied"`
	AlreadySatisfied int `json:"already_satisfied"`
	Skipped          int `json:"skipped"`
	Failed           int `json:"failed"`
}

// Summarize counts the outcomes in results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeApplied:
			s.Applied++
		case OutcomeAlreadySatisfied:
			s.AlreadySatisfied++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
	}
	return s
}

// HasFailures reports whether any step failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// PlanEntry is the probe-only view of one descriptor.
type PlanEntry struct {
	Index  int       `json:"index"`
	Name   string    `json:"name"`
	Kind   step.Kind `json:"kind"`
	Status Status    `json:"status"`
	Reason string    `json:"reason,omitempty"`
}
