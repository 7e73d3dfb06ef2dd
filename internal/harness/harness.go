package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/playtest/internal/async"
	"github.com/roach88/playtest/internal/testutil"
	"github.com/roach88/playtest/internal/timeline"
	"github.com/roach88/playtest/internal/vclock"
)

// Fetcher retrieves the body behind a URI for fetch steps.
// Implemented by *testutil.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Option configures a run.
type Option func(*config)

type config struct {
	ctx      context.Context
	fetcher  Fetcher
	handlers map[string]testutil.Func
	logger   *slog.Logger
	runIDs   testutil.RunIDGenerator
}

// WithContext sets the context passed to fetch steps.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithFetcher sets the fetcher used by fetch steps whose URI is not among
// the scenario's fixtures.
//
// Default: *testutil.Fetcher over http.DefaultClient.
func WithFetcher(f Fetcher) Option {
	return func(c *config) {
		c.fetcher = f
	}
}

// WithHandler installs the handler for invoke steps naming name. Invoke
// steps without a handler reject with *testutil.UnstubbedCallError.
func WithHandler(name string, fn testutil.Func) Option {
	return func(c *config) {
		c.handlers[name] = fn
	}
}

// WithLogger sets the logger for the run, the loop and the driver.
//
// Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRunIDs sets the run ID generator used when the scenario has no fixed
// run_id.
//
// Default: testutil.UUIDv7RunIDs.
func WithRunIDs(g testutil.RunIDGenerator) Option {
	return func(c *config) {
		c.runIDs = g
	}
}

// runner holds the state of one scenario run.
type runner struct {
	scenario *Scenario
	cfg      config
	clock    *vclock.Clock
	loop     *async.Loop
	seq      testutil.Sequence
	mock     *testutil.StrictMock
	result   *Result

	byTick   map[int][]Step
	children map[string][]Step
	tracked  map[string]*async.Tracked[string]
}

// Run executes a scenario on a fresh virtual clock and loop and returns the
// result with assertions evaluated.
//
// Execution flow:
//  1. build clock, loop and driver (settle rounds from the scenario)
//  2. drive Duration ticks; onTick(t) schedules the steps for tick t
//  3. each step waits its delay, then settles with its outcome; steps
//     following it are scheduled when it settles
//  4. collect final statuses and evaluate assertions
//
// A returned error means the run itself could not complete (precondition
// failure, runaway microtask chain); assertion failures are reported in the
// Result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		ctx:      context.Background(),
		fetcher:  &testutil.Fetcher{Client: http.DefaultClient},
		handlers: make(map[string]testutil.Func),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		runIDs:   testutil.UUIDv7RunIDs{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	runID := scenario.RunID
	if runID == "" {
		runID = cfg.runIDs.Generate()
	}
	logger := cfg.logger.With("scenario", scenario.Name, "run_id", runID)
	cfg.logger = logger

	clock := vclock.New()
	loop := async.NewLoop(clock, async.WithLogger(logger))
	defer loop.Reset()

	r := &runner{
		scenario: scenario,
		cfg:      cfg,
		clock:    clock,
		loop:     loop,
		mock:     testutil.NewStrictMock(),
		result:   NewResult(scenario.Name, runID),
		byTick:   make(map[int][]Step),
		children: make(map[string][]Step),
		tracked:  make(map[string]*async.Tracked[string]),
	}
	for name, fn := range cfg.handlers {
		r.mock.Override(name, fn)
	}
	for _, step := range scenario.Steps {
		if step.Tick != nil {
			r.byTick[*step.Tick] = append(r.byTick[*step.Tick], step)
		} else {
			r.children[step.After] = append(r.children[step.After], step)
		}
	}

	driverOpts := []timeline.Option{timeline.WithLogger(logger)}
	if scenario.SettleRounds != nil {
		driverOpts = append(driverOpts, timeline.WithSettleRounds(*scenario.SettleRounds))
	}
	driver := timeline.New(clock, loop, driverOpts...)

	logger.Debug("scenario started", "duration", scenario.Duration, "steps", len(scenario.Steps))

	report, err := driver.Run(scenario.Duration, func(tick int) error {
		for _, step := range r.byTick[tick] {
			r.schedule(step, &tick, "")
		}
		return nil
	})
	r.result.Report = report
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	for _, step := range scenario.Steps {
		if t, ok := r.tracked[step.Label]; ok {
			r.result.Statuses[step.Label] = t.Status().String()
		} else {
			r.result.Statuses[step.Label] = StatusUnscheduled
		}
	}

	for _, msg := range EvaluateAssertions(r.result, scenario.Assertions) {
		r.result.AddError(msg)
	}

	logger.Debug("scenario finished", "pass", r.result.Pass, "events", len(r.result.Trace))
	return r.result, nil
}

// schedule starts step: records the scheduled event, waits its delay on the
// virtual clock, then settles with its outcome.
func (r *runner) schedule(step Step, tick *int, after string) {
	event := TraceEvent{
		Type:  EventScheduled,
		Label: step.Label,
		After: after,
		At:    r.clock.Now().String(),
		Seq:   r.seq.Next(),
	}
	if tick != nil {
		t := *tick
		event.Tick = &t
	}
	r.result.Trace = append(r.result.Trace, event)
	r.cfg.logger.Debug("step scheduled", "label", step.Label, "delay", step.Delay.String(), "at", event.At)

	p := async.Chain(async.Delay(r.loop, time.Duration(step.Delay)), func(struct{}) *async.Promise[string] {
		return r.outcome(step)
	})
	r.tracked[step.Label] = async.Track(p)

	async.Observe(p, func(value string, err error) {
		r.settled(step, value, err)
	})
}

// outcome produces the step's settled promise once its delay has elapsed.
func (r *runner) outcome(step Step) *async.Promise[string] {
	switch step.Outcome() {
	case OutcomeResolve:
		return async.Resolved(r.loop, *step.Resolve)
	case OutcomeReject:
		return async.Rejected[string](r.loop, errors.New(*step.Reject))
	case OutcomeFetch:
		body, err := r.fetch(step.Fetch)
		if err != nil {
			return async.Rejected[string](r.loop, err)
		}
		return async.Resolved(r.loop, string(body))
	case OutcomeInvoke:
		v, err := r.mock.Call(step.Invoke, step.Args...)
		if err != nil {
			return async.Rejected[string](r.loop, err)
		}
		return async.Resolved(r.loop, stringify(v))
	}
	return async.Rejected[string](r.loop, fmt.Errorf("step %q has no outcome", step.Label))
}

func (r *runner) fetch(uri string) ([]byte, error) {
	if body, ok := r.scenario.Fixtures[uri]; ok {
		if body == "" {
			return nil, &testutil.FetchError{URI: uri, Status: http.StatusOK, Err: testutil.ErrEmptyBody}
		}
		return []byte(body), nil
	}
	return r.cfg.fetcher.Fetch(r.cfg.ctx, uri)
}

// settled records the settlement of step and schedules the steps that
// follow it.
func (r *runner) settled(step Step, value string, err error) {
	event := TraceEvent{
		Type:  EventResolved,
		Label: step.Label,
		At:    r.clock.Now().String(),
		Seq:   r.seq.Next(),
		Value: value,
	}
	if err != nil {
		event.Type = EventRejected
		event.Value = ""
		event.Error = err.Error()
	}
	r.result.Trace = append(r.result.Trace, event)
	r.cfg.logger.Debug("step settled", "label", step.Label, "type", event.Type, "at", event.At)

	for _, child := range r.children[step.Label] {
		r.schedule(child, nil, step.Label)
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
