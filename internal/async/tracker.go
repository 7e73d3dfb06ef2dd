package async

import "sync/atomic"

// Status is the observable state of an asynchronous computation.
type Status int32

const (
	// StatusPending means the computation has not settled.
	StatusPending Status = iota
	// StatusResolved means the computation succeeded.
	StatusResolved
	// StatusRejected means the computation failed.
	StatusRejected
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ParseStatus converts a status name back to a Status.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "pending":
		return StatusPending, true
	case "resolved":
		return StatusResolved, true
	case "rejected":
		return StatusRejected, true
	}
	return 0, false
}

// Tracked pairs a promise with an observable status. The status is updated
// by a completion observer, so it changes when the loop drains the
// observer's microtask, not at the instant the promise settles.
type Tracked[T any] struct {
	// Promise is the original promise, unchanged.
	Promise *Promise[T]

	status atomic.Int32
}

// Track starts observing p. The returned handle reports StatusPending until
// p settles and its observer runs, then StatusResolved or StatusRejected.
// The transition happens at most once.
func Track[T any](p *Promise[T]) *Tracked[T] {
	t := &Tracked[T]{Promise: p}
	Observe(p, func(_ T, err error) {
		next := StatusResolved
		if err != nil {
			next = StatusRejected
		}
		t.status.CompareAndSwap(int32(StatusPending), int32(next))
	})
	return t
}

// Status returns the tracked status.
func (t *Tracked[T]) Status() Status {
	return Status(t.status.Load())
}
