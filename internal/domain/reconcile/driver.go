package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/jumpstart/internal/domain/step"
	"github.com/felixgeelhaar/jumpstart/internal/ports"
)

// Elevator keeps a privilege grant fresh while steps are applied.
type Elevator interface {
	Refresh(ctx context.Context) error
}

// Driver reconciles descriptors strictly in order, one at a time.
type Driver struct {
	registry *Registry
	logger   ports.Logger
	elevator Elevator
	now      func() time.Time
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(l ports.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// WithElevator refreshes e before every apply.
func WithElevator(e Elevator) DriverOption {
	return func(d *Driver) { d.elevator = e }
}

// WithClock overrides the clock used for durations.
func WithClock(now func() time.Time) DriverOption {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates a Driver dispatching through registry.
func NewDriver(registry *Registry, opts ...DriverOption) *Driver {
	d := &Driver{registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) log(ctx context.Context) ports.Logger {
	if d.logger != nil {
		return d.logger
	}
	if l := ports.LoggerFromContext(ctx); l != nil {
		return l
	}
	return nopLogger{}
}

// Run reconciles every descriptor and returns one result per descriptor, in
// input order. A failing step never stops the run. Once ctx is cancelled the
// remaining steps are recorded as skipped.
func (d *Driver) Run(ctx context.Context, steps []step.Descriptor) []Result {
	results := make([]Result, 0, len(steps))
	for i, desc := range steps {
		results = append(results, d.runOne(ctx, i, desc))
	}
	return results
}

func (d *Driver) runOne(ctx context.Context, index int, desc step.Descriptor) Result {
	log := d.log(ctx).With(
		ports.F("step", desc.Name()),
		ports.F("kind", desc.Kind().String()),
		ports.F("index", index),
	)
	start := d.now()
	finish := func(r Result) Result {
		r.Index = index
		r.Name = desc.Name()
		r.Kind = desc.Kind()
		r.Duration = d.now().Sub(start)
		d.report(ctx, log, r)
		return r
	}

	if ctx.Err() != nil {
		return finish(Skipped("run cancelled"))
	}

	h, err := d.registry.Get(desc.Kind())
	if err != nil {
		return finish(Failed(err))
	}

	status, err := h.Probe(ctx, desc)
	if err != nil {
		log.Warn(ctx, "probe failed, treating as unsatisfied", ports.Err(fmt.Errorf("%w: %w", ErrProbeFailed, err)))
		status = Unsatisfied
	}
	if status == Satisfied {
		return finish(Result{Outcome: OutcomeAlreadySatisfied})
	}

	if d.elevator != nil {
		if err := d.elevator.Refresh(ctx); err != nil {
			log.Warn(ctx, "privilege refresh failed", ports.Err(err))
		}
	}

	log.Debug(ctx, "applying")
	r := h.Apply(ctx, desc)
	if r.Outcome == "" {
		r = Failedf("handler returned no outcome")
	}
	if r.Outcome == OutcomeFailed && r.Err != nil && !errors.Is(r.Err, ErrExecutionFailed) {
		r.Err = fmt.Errorf("%w: %w", ErrExecutionFailed, r.Err)
	}
	return finish(r)
}

func (d *Driver) report(ctx context.Context, log ports.Logger, r Result) {
	fields := []ports.Field{ports.F("outcome", r.Outcome.String())}
	if r.Reason != "" {
		fields = append(fields, ports.F("reason", r.Reason))
	}
	switch r.Outcome {
	case OutcomeFailed:
		log.Error(ctx, "step failed", fields...)
	case OutcomeSkipped:
		log.Warn(ctx, "step skipped", fields...)
	default:
		log.Info(ctx, "step done", fields...)
	}
}

// Plan probes every descriptor without applying anything.
func (d *Driver) Plan(ctx context.Context, steps []step.Descriptor) []PlanEntry {
	entries := make([]PlanEntry, 0, len(steps))
	for i, desc := range steps {
		e := PlanEntry{Index: i, Name: desc.Name(), Kind: desc.Kind(), Status: Unsatisfied}
		h, err := d.registry.Get(desc.Kind())
		switch {
		case err != nil:
			e.Reason = err.Error()
		default:
			status, err := h.Probe(ctx, desc)
			if err != nil {
				e.Reason = fmt.Errorf("%w: %w", ErrProbeFailed, err).Error()
			} else {
				e.Status = status
			}
		}
		entries = append(entries, e)
	}
	return entries
}

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...ports.Field) {}
func (nopLogger) Info(context.Context, string, ...ports.Field) {}
func (nopLogger) Warn(context.Context, string, ...ports.Field) {}
func (nopLogger) Error(context.Context, string, ...ports.Field) {}
func (l nopLogger) With(...ports.Field) ports.Logger { return l }
func (nopLogger) Level() ports.Level { return ports.LevelError }
