// Package async models the host's asynchronous primitive for virtual-time
// tests: a Loop that owns a FIFO microtask queue and a controllable clock,
// promises whose reactions run as microtasks, and a status tracker for
// observing pending work without blocking.
//
// Nothing in this package runs on its own. Reactions only execute when the
// queue is drained with Loop.Flush, and delayed work only becomes due when
// the loop's clock is advanced. This keeps scenarios single-threaded and
// reproducible:
//
//	clock := vclock.New()
//	loop := async.NewLoop(clock)
//	p := async.Delay(loop, 500*time.Millisecond)
//	tracked := async.Track(p)
//
//	clock.Tick(time.Second) // timer fires, p resolves
//	loop.Flush()            // reactions run, tracked.Status() == StatusResolved
package async
