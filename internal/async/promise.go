package async

import (
	"errors"
	"sync"
	"time"
)

// Promise is a single-assignment asynchronous result bound to a Loop.
//
// A promise settles at most once, either resolved with a value or rejected
// with an error. Reactions registered with Then, Catch, Chain or Observe run
// as microtasks on the loop, never synchronously inside Resolve or Reject.
type Promise[T any] struct {
	loop *Loop

	mu        sync.Mutex
	status    Status
	value     T
	err       error
	reactions []func()
}

// NewPromise creates a pending promise and runs executor synchronously with
// its resolve and reject functions. Only the first call to either has any
// effect. A panic in executor is not recovered.
func NewPromise[T any](loop *Loop, executor func(resolve func(T), reject func(error))) *Promise[T] {
	p := newPending[T](loop)
	if executor != nil {
		executor(p.resolve, p.reject)
	}
	return p
}

// Resolved returns a promise already resolved with v.
func Resolved[T any](loop *Loop, v T) *Promise[T] {
	p := newPending[T](loop)
	p.resolve(v)
	return p
}

// Rejected returns a promise already rejected with err.
func Rejected[T any](loop *Loop, err error) *Promise[T] {
	p := newPending[T](loop)
	p.reject(err)
	return p
}

// Delay returns a promise that resolves once the loop's clock has advanced
// by d.
func Delay(loop *Loop, d time.Duration) *Promise[struct{}] {
	p := newPending[struct{}](loop)
	loop.clock.AfterFunc(d, func() { p.resolve(struct{}{}) })
	return p
}

// Loop returns the loop the promise schedules its reactions on.
func (p *Promise[T]) Loop() *Loop {
	return p.loop
}

// Settled reports whether the promise has resolved or rejected.
func (p *Promise[T]) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status != StatusPending
}

// Value returns the resolved value, or the zero value if the promise is
// pending or rejected.
func (p *Promise[T]) Value() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Err returns the rejection error, or nil if the promise is pending or
// resolved.
func (p *Promise[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Then returns a promise for the result of calling onResolve with p's
// value. A rejection of p, or an error from onResolve, rejects the result.
func Then[T, U any](p *Promise[T], onResolve func(T) (U, error)) *Promise[U] {
	next := newPending[U](p.loop)
	p.react(func(v T, err error) {
		if err != nil {
			next.reject(err)
			return
		}
		u, herr := onResolve(v)
		if herr != nil {
			next.reject(herr)
			return
		}
		next.resolve(u)
	})
	return next
}

// Catch returns a promise that follows p, except that a rejection is passed
// to onReject, whose result settles the returned promise.
func Catch[T any](p *Promise[T], onReject func(error) (T, error)) *Promise[T] {
	next := newPending[T](p.loop)
	p.react(func(v T, err error) {
		if err == nil {
			next.resolve(v)
			return
		}
		recovered, herr := onReject(err)
		if herr != nil {
			next.reject(herr)
			return
		}
		next.resolve(recovered)
	})
	return next
}

// Chain returns a promise that adopts the promise produced by onResolve.
// Adoption costs one extra microtask hop, the same as returning a promise
// from a reaction in the host environment.
func Chain[T, U any](p *Promise[T], onResolve func(T) *Promise[U]) *Promise[U] {
	next := newPending[U](p.loop)
	p.react(func(v T, err error) {
		if err != nil {
			next.reject(err)
			return
		}
		inner := onResolve(v)
		if inner == nil {
			next.reject(errors.New("async: Chain reaction returned nil promise"))
			return
		}
		inner.react(func(u U, ierr error) {
			if ierr != nil {
				next.reject(ierr)
				return
			}
			next.resolve(u)
		})
	})
	return next
}

// Observe registers fn to run once p settles. Unlike Then it creates no
// derived promise, so nothing propagates past fn and a rejection observed
// here is considered handled.
func Observe[T any](p *Promise[T], fn func(T, error)) {
	p.react(fn)
}

func newPending[T any](loop *Loop) *Promise[T] {
	if loop == nil {
		panic("async: promise created without a loop")
	}
	return &Promise[T]{loop: loop, status: StatusPending}
}

func (p *Promise[T]) resolve(v T) {
	p.settle(StatusResolved, v, nil)
}

func (p *Promise[T]) reject(err error) {
	if err == nil {
		err = errors.New("async: rejected with nil error")
	}
	var zero T
	p.settle(StatusRejected, zero, err)
}

func (p *Promise[T]) settle(status Status, v T, err error) {
	p.mu.Lock()
	if p.status != StatusPending {
		p.mu.Unlock()
		return
	}
	p.status = status
	p.value = v
	p.err = err
	reactions := p.reactions
	p.reactions = nil
	p.mu.Unlock()

	for _, r := range reactions {
		p.loop.Enqueue(r)
	}
}

// react registers fn as a reaction. If p has already settled, fn is queued
// immediately; otherwise it is queued when p settles.
func (p *Promise[T]) react(fn func(T, error)) {
	task := func() {
		p.mu.Lock()
		v, err := p.value, p.err
		p.mu.Unlock()
		fn(v, err)
	}

	p.mu.Lock()
	if p.status == StatusPending {
		p.reactions = append(p.reactions, task)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.loop.Enqueue(task)
}
