package vclock

import "time"

// Timer is a pending callback registered with Clock.AfterFunc.
// The interface mirrors the parts of *time.Timer the harness needs.
type Timer struct {
	clock    *Clock
	fn       func()
	deadline time.Duration
	seq      int64
	fired    bool
	stopped  bool
}

// Deadline returns the elapsed virtual time at which the timer fires.
func (t *Timer) Deadline() time.Duration {
	return t.deadline
}

// Stop prevents the timer from firing. It returns false if the timer has
// already fired or been stopped.
func (t *Timer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return c.remove(t)
}
