// Package vclock provides the controllable clock behind the virtual-time
// test harness.
//
// Time is an elapsed duration since the clock was created. It moves only
// when Tick is called and never moves backward. Timers registered with
// AfterFunc fire during Tick in deadline order; timers sharing a deadline
// fire in the order they were scheduled.
//
// WallClock is the uncontrolled counterpart. It satisfies the same surface
// but reports Controllable() == false so drivers can refuse it.
package vclock
