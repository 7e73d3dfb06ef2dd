// Package timeline drives a controllable clock and a microtask queue in
// lockstep so tests can simulate seconds of playback without waiting.
//
// For each simulated second the driver first settles: it repeatedly fires
// already-due timers and drains the queue, a fixed number of rounds. Then it
// hands the tick index to the caller's TickFunc, advances the clock by one
// tick and drains once more. Work scheduled inside a tick therefore settles
// inside that same tick instead of bleeding into the next one.
//
// The settle budget is a tunable safety margin, not a proof. Chains that
// alternate between zero-delay timers and reactions more times than the
// budget allows carry over into the next tick; the driver logs each
// carryover and records it in the Report rather than failing.
package timeline
