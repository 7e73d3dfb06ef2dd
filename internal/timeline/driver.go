package timeline

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"
)

const (
	// DefaultSettleRounds is the number of (fire due timers, drain queue)
	// rounds run before each tick. Six rounds has been enough for the
	// promise chains playback code builds between two tick boundaries.
	DefaultSettleRounds = 6

	// DefaultTickSize is the simulated time covered by one tick.
	DefaultTickSize = time.Second
)

// Clock is the controllable clock the driver advances.
// Implemented by *vclock.Clock; *vclock.WallClock reports Controllable()
// == false and is refused.
type Clock interface {
	// Tick advances the clock by d, firing due timers. Returns the number
	// of timers fired.
	Tick(d time.Duration) int

	// Due returns the number of timers whose deadline has been reached but
	// which have not fired.
	Due() int

	// Controllable reports whether the clock only moves when told to.
	Controllable() bool
}

// Flusher synchronously drains queued asynchronous work.
// Implemented by *async.Loop.
type Flusher interface {
	Flush() (int, error)
}

// TickFunc is called once per tick, before the clock advances past it.
// Returning an error aborts the run.
type TickFunc func(tick int) error

// Report summarizes a completed run.
type Report struct {
	// Ticks is the number of ticks completed.
	Ticks int `json:"ticks"`

	// TimersFired counts timers fired across settle and advance phases.
	TimersFired int `json:"timers_fired"`

	// TasksRun counts microtasks drained.
	TasksRun int `json:"tasks_run"`

	// Carryovers lists ticks where due timers remained after the settle
	// budget was spent.
	Carryovers []int `json:"carryovers,omitempty"`
}

// Driver advances a Clock and drains a Flusher in lockstep.
type Driver struct {
	clock        Clock
	queue        Flusher
	settleRounds int
	tickSize     time.Duration
	logger       *slog.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithSettleRounds sets the number of settle rounds per tick.
//
// Default: 6 (DefaultSettleRounds). Values below zero are treated as zero.
func WithSettleRounds(n int) Option {
	return func(d *Driver) {
		if n < 0 {
			n = 0
		}
		d.settleRounds = n
	}
}

// WithTickSize sets the simulated time covered by one tick.
//
// Default: one second (DefaultTickSize). Run rejects sizes of zero or below.
func WithTickSize(size time.Duration) Option {
	return func(d *Driver) {
		d.tickSize = size
	}
}

// WithLogger sets the logger used to flag carryovers.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// New creates a driver over clock and queue.
// Preconditions are checked by Run, not here, so a misconfigured driver
// still fails loudly at the point of use.
func New(clock Clock, queue Flusher, opts ...Option) *Driver {
	d := &Driver{
		clock:        clock,
		queue:        queue,
		settleRounds: DefaultSettleRounds,
		tickSize:     DefaultTickSize,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run simulates seconds ticks. For each tick t in [0, seconds):
//
//  1. settle: settleRounds times, fire already-due timers then drain
//  2. flag a carryover if timers are still due
//  3. call onTick(t) if non-nil
//  4. advance the clock by one tick and drain
//
// On return, all work due within the window that does not itself schedule
// beyond it has completed. Work that is still pending is left in place.
func (d *Driver) Run(seconds int, onTick TickFunc) (Report, error) {
	var report Report

	if err := d.checkPreconditions(seconds); err != nil {
		return report, err
	}

	for tick := 0; tick < seconds; tick++ {
		for round := 0; round < d.settleRounds; round++ {
			report.TimersFired += d.clock.Tick(0)
			n, err := d.queue.Flush()
			report.TasksRun += n
			if err != nil {
				return report, &TickError{Tick: tick, Phase: "settle", Err: err}
			}
		}

		if due := d.clock.Due(); due > 0 {
			report.Carryovers = append(report.Carryovers, tick)
			d.logger.Warn("settle budget exhausted with work still due",
				"tick", tick,
				"due_timers", due,
				"settle_rounds", d.settleRounds,
			)
		}

		if onTick != nil {
			if err := onTick(tick); err != nil {
				return report, &TickError{Tick: tick, Phase: "on_tick", Err: err}
			}
		}

		report.TimersFired += d.clock.Tick(d.tickSize)
		n, err := d.queue.Flush()
		report.TasksRun += n
		if err != nil {
			return report, &TickError{Tick: tick, Phase: "advance", Err: err}
		}

		report.Ticks++
		d.logger.Debug("tick complete", "tick", tick, "timers_fired", report.TimersFired, "tasks_run", report.TasksRun)
	}

	return report, nil
}

func (d *Driver) checkPreconditions(seconds int) error {
	if d.clock == nil {
		return &PreconditionError{Code: ErrCodeNilClock, Message: "driver has no clock"}
	}
	if d.queue == nil {
		return &PreconditionError{Code: ErrCodeNilQueue, Message: "driver has no queue to flush"}
	}
	if !d.clock.Controllable() {
		return &PreconditionError{
			Code:    ErrCodeUncontrolledClock,
			Message: fmt.Sprintf("clock %T is not controllable; install a fake clock before driving time", d.clock),
		}
	}
	if d.tickSize <= 0 {
		return &PreconditionError{
			Code:    ErrCodeInvalidTickSize,
			Message: fmt.Sprintf("tick size must be positive, got %v", d.tickSize),
		}
	}
	if seconds < 0 {
		return &PreconditionError{
			Code:    ErrCodeNegativeDuration,
			Message: fmt.Sprintf("duration must be non-negative, got %d", seconds),
		}
	}
	return nil
}

// MustRun is Run but fails the test immediately on any error.
func MustRun(t testing.TB, d *Driver, seconds int, onTick TickFunc) Report {
	t.Helper()
	report, err := d.Run(seconds, onTick)
	if err != nil {
		t.Fatalf("fake event loop: %v", err)
	}
	return report
}
