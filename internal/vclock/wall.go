package vclock

import "time"

// WallClock drives real time. It exists so code written against the
// harness clock surface can run outside a scenario, and so drivers can
// detect and refuse an uncontrolled clock.
type WallClock struct {
	start time.Time
}

// NewWallClock returns a wall clock whose elapsed time starts now.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// Now returns real elapsed time since the clock was created.
func (w *WallClock) Now() time.Duration {
	return time.Since(w.start)
}

// Tick sleeps for d. Real timers fire on their own goroutines, so the
// number of timers fired by this call is always reported as zero.
func (w *WallClock) Tick(d time.Duration) int {
	time.Sleep(d)
	return 0
}

// Due always reports zero; a wall clock cannot see pending timers.
func (w *WallClock) Due() int {
	return 0
}

// Controllable reports false: time passes whether or not Tick is called.
func (w *WallClock) Controllable() bool {
	return false
}
