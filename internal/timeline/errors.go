package timeline

import (
	"errors"
	"fmt"
)

// PreconditionCode categorizes precondition failures.
type PreconditionCode string

const (
	// ErrCodeNilClock indicates the driver has no clock.
	ErrCodeNilClock PreconditionCode = "NIL_CLOCK"

	// ErrCodeNilQueue indicates the driver has no queue to flush.
	ErrCodeNilQueue PreconditionCode = "NIL_QUEUE"

	// ErrCodeUncontrolledClock indicates the clock advances on its own.
	ErrCodeUncontrolledClock PreconditionCode = "UNCONTROLLED_CLOCK"

	// ErrCodeNegativeDuration indicates a negative tick count.
	ErrCodeNegativeDuration PreconditionCode = "NEGATIVE_DURATION"

	// ErrCodeInvalidTickSize indicates a tick that does not move time forward.
	ErrCodeInvalidTickSize PreconditionCode = "INVALID_TICK_SIZE"
)

// PreconditionError is returned before any tick runs when the driver
// cannot provide its ordering guarantees.
type PreconditionError struct {
	Code    PreconditionCode
	Message string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsPreconditionError reports whether err is, or wraps, a PreconditionError.
func IsPreconditionError(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// TickError wraps a failure that happened while running a tick.
type TickError struct {
	// Tick is the zero-based tick index.
	Tick int

	// Phase is "settle", "on_tick" or "advance".
	Phase string

	Err error
}

// Error implements the error interface.
func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d (%s): %v", e.Tick, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *TickError) Unwrap() error {
	return e.Err
}
