package vclock

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Clock is a simulated clock for a single test scenario.
//
// Thread-safety: all methods are safe for concurrent use, but timer
// callbacks run on the goroutine that calls Tick. The clock lock is never
// held while a callback runs, so callbacks may schedule or stop timers.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int64
	timers []*Timer // sorted by (deadline, seq)
}

// New creates a clock at elapsed time zero with no timers.
func New() *Clock {
	return &Clock{}
}

// Now returns the elapsed virtual time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules fn to run once the clock has advanced by d.
// A non-positive d makes the timer due immediately; it still only fires
// on the next Tick.
func (c *Clock) AfterFunc(d time.Duration, fn func()) *Timer {
	if fn == nil {
		panic("vclock: AfterFunc called with nil func")
	}
	if d < 0 {
		d = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &Timer{
		clock:    c,
		fn:       fn,
		deadline: c.now + d,
		seq:      c.seq,
	}
	c.insert(t)
	return t
}

// Tick advances the clock by d and fires every timer whose deadline falls
// inside the window, including timers scheduled by callbacks during this
// call. Returns the number of timers fired.
//
// Tick(0) fires only timers that are already due.
//
// Panics if d is negative: virtual time never moves backward.
func (c *Clock) Tick(d time.Duration) int {
	if d < 0 {
		panic(fmt.Sprintf("vclock: negative advance %s", d))
	}

	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	fired := 0
	for {
		c.mu.Lock()
		if len(c.timers) == 0 || c.timers[0].deadline > target {
			c.now = target
			c.mu.Unlock()
			return fired
		}

		t := c.timers[0]
		c.timers[0] = nil
		c.timers = c.timers[1:]
		t.fired = true
		if t.deadline > c.now {
			c.now = t.deadline
		}
		c.mu.Unlock()

		t.fn()
		fired++
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Due returns the number of pending timers whose deadline has been reached.
func (c *Clock) Due() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.timers {
		if t.deadline > c.now {
			break
		}
		n++
	}
	return n
}

// Controllable reports that this clock only moves when told to.
func (c *Clock) Controllable() bool {
	return true
}

// Reset drops every pending timer and rewinds the clock to zero.
// Used between scenarios; this is the only way time goes back.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.timers {
		t.stopped = true
	}
	c.timers = nil
	c.now = 0
	c.seq = 0
}

// insert places t in deadline order. Caller holds c.mu.
func (c *Clock) insert(t *Timer) {
	i, _ := slices.BinarySearchFunc(c.timers, t, compareTimers)
	c.timers = slices.Insert(c.timers, i, t)
}

// remove takes t out of the pending list. Caller holds c.mu.
func (c *Clock) remove(t *Timer) bool {
	i := slices.Index(c.timers, t)
	if i < 0 {
		return false
	}
	c.timers = slices.Delete(c.timers, i, i+1)
	return true
}

func compareTimers(a, b *Timer) int {
	switch {
	case a.deadline < b.deadline:
		return -1
	case a.deadline > b.deadline:
		return 1
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	}
	return 0
}
