package app

import (
	"time"

	"github.com/felixgeelhaar/jumpstart/internal/domain/reconcile"
)

// RunOptions configures apply, plan and secrets check.
type RunOptions struct {
	// ManifestPath is the jumpstart.yaml to read. It may be missing when
	// Documents is set.
	ManifestPath string
	// Documents overrides the manifest's document list.
	Documents []string
	// AssumeYes acquires privileges without asking first.
	AssumeYes bool
}

// NewRunOptions creates options for the given manifest.
func NewRunOptions(manifestPath string) RunOptions {
	return RunOptions{ManifestPath: manifestPath}
}

// WithDocuments overrides the manifest's document list.
func (o RunOptions) WithDocuments(docs ...string) RunOptions {
	o.Documents = docs
	return o
}

// WithAssumeYes skips the privilege confirmation.
func (o RunOptions) WithAssumeYes(yes bool) RunOptions {
	o.AssumeYes = yes
	return o
}

// RunReport is the outcome of one apply run.
type RunReport struct {
	RunID     string             `json:"run_id"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration_ns"`
	Documents []string           `json:"documents"`
	Results   []reconcile.Result `json:"results"`
	Summary   reconcile.Summary  `json:"summary"`
}

// PlanReport is the probe-only view of a run.
type PlanReport struct {
	RunID     string                `json:"run_id"`
	Documents []string              `json:"documents"`
	Entries   []reconcile.PlanEntry `json:"entries"`
}

// Pending returns the number of steps that would be applied.
func (p PlanReport) Pending() int {
	n := 0
	for _, e := range p.Entries {
		if e.Status == reconcile.Unsatisfied {
			n++
		}
	}
	return n
}

// SecretCheck is the resolution status of one credential reference.
// It never carries the resolved value.
type SecretCheck struct {
	Step  string `json:"step"`
	Alias string `json:"alias"`
	Ref   string `json:"ref"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
