package async

import (
	"errors"
	"fmt"
)

// DrainLimitError is returned by Loop.Flush when a single drain runs more
// microtasks than the loop's quota allows. It usually means a reaction keeps
// re-queuing itself.
type DrainLimitError struct {
	// Steps is the number of microtasks run before giving up.
	Steps int

	// Limit is the configured quota.
	Limit int

	// Remaining is the number of microtasks still queued.
	Remaining int
}

// Error implements the error interface.
func (e *DrainLimitError) Error() string {
	return fmt.Sprintf("microtask drain exceeded %d steps (%d still queued)", e.Limit, e.Remaining)
}

// IsDrainLimit reports whether err is, or wraps, a DrainLimitError.
func IsDrainLimit(err error) bool {
	var de *DrainLimitError
	return errors.As(err, &de)
}
