package async

import (
	"io"
	"log/slog"

	"github.com/roach88/playtest/internal/vclock"
)

// DefaultMaxDrainSteps bounds the number of microtasks a single Flush runs.
const DefaultMaxDrainSteps = 10000

// Loop is the scenario-scoped event loop: a microtask queue plus the clock
// that timed work is scheduled on.
//
// Thread-safety model: the loop is meant to be driven from the test
// goroutine. Enqueue is safe from any goroutine, but Flush must not be
// called concurrently with itself.
type Loop struct {
	clock    *vclock.Clock
	queue    *taskQueue
	maxSteps int
	logger   *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxDrainSteps sets the per-Flush microtask quota.
//
// Default: 10000 steps (DefaultMaxDrainSteps). Values of zero or below
// keep the default.
func WithMaxDrainSteps(n int) Option {
	return func(l *Loop) {
		if n <= 0 {
			n = DefaultMaxDrainSteps
		}
		l.maxSteps = n
	}
}

// WithLogger sets the logger used for drain diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a loop that schedules timed work on clock.
func NewLoop(clock *vclock.Clock, opts ...Option) *Loop {
	if clock == nil {
		panic("async: NewLoop called with nil clock")
	}

	l := &Loop{
		clock:    clock,
		queue:    newTaskQueue(),
		maxSteps: DefaultMaxDrainSteps,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Clock returns the clock timed work is scheduled on.
func (l *Loop) Clock() *vclock.Clock {
	return l.clock
}

// Enqueue adds a microtask to the back of the queue.
// It runs on the next Flush, after everything queued before it.
func (l *Loop) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	l.queue.enqueue(fn)
}

// Pending returns the number of queued microtasks.
func (l *Loop) Pending() int {
	return l.queue.len()
}

// Flush drains the microtask queue in FIFO order, including microtasks
// queued by the ones it runs, until the queue is empty. It does not advance
// the clock, so timers stay pending.
//
// Returns the number of microtasks run. If the quota is exceeded the
// remaining tasks stay queued and a *DrainLimitError is returned.
func (l *Loop) Flush() (int, error) {
	steps := 0
	for {
		fn, ok := l.queue.tryDequeue()
		if !ok {
			return steps, nil
		}
		if steps >= l.maxSteps {
			// Back to the front so the next Flush resumes in order.
			l.requeueFront(fn)
			remaining := l.queue.len()
			l.logger.Warn("microtask drain quota exceeded",
				"steps", steps,
				"limit", l.maxSteps,
				"remaining", remaining,
			)
			return steps, &DrainLimitError{Steps: steps, Limit: l.maxSteps, Remaining: remaining}
		}
		fn()
		steps++
	}
}

// Reset drops queued microtasks and resets the clock. Call it when a
// scenario ends so no work leaks into the next one.
func (l *Loop) Reset() {
	l.queue.clear()
	l.clock.Reset()
}

func (l *Loop) requeueFront(fn func()) {
	q := l.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append([]func(){fn}, q.tasks...)
}
