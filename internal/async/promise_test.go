package async

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/playtest/internal/vclock"
)

func newTestLoop(t *testing.T, opts ...Option) *Loop {
	t.Helper()
	loop := NewLoop(vclock.New(), opts...)
	t.Cleanup(loop.Reset)
	return loop
}

func flush(t *testing.T, loop *Loop) int {
	t.Helper()
	n, err := loop.Flush()
	require.NoError(t, err)
	return n
}

func TestPromise_ReactionsWaitForFlush(t *testing.T) {
	loop := newTestLoop(t)
	ran := false

	p := Resolved(loop, 42)
	Then(p, func(v int) (struct{}, error) {
		ran = true
		return struct{}{}, nil
	})

	assert.False(t, ran, "reaction must not run synchronously")
	assert.Equal(t, 1, loop.Pending())

	flush(t, loop)
	assert.True(t, ran)
}

func TestPromise_ThenPassesValue(t *testing.T) {
	loop := newTestLoop(t)

	p := Then(Resolved(loop, 21), func(v int) (string, error) {
		return strconv.Itoa(v * 2), nil
	})
	flush(t, loop)

	require.True(t, p.Settled())
	assert.Equal(t, "42", p.Value())
	assert.NoError(t, p.Err())
}

func TestPromise_ThenPropagatesRejection(t *testing.T) {
	loop := newTestLoop(t)
	boom := errors.New("boom")
	called := false

	p := Then(Rejected[int](loop, boom), func(v int) (int, error) {
		called = true
		return v, nil
	})
	flush(t, loop)

	assert.False(t, called)
	assert.ErrorIs(t, p.Err(), boom)
}

func TestPromise_HandlerErrorRejects(t *testing.T) {
	loop := newTestLoop(t)
	boom := errors.New("handler failed")

	p := Then(Resolved(loop, 1), func(int) (int, error) { return 0, boom })
	flush(t, loop)

	assert.ErrorIs(t, p.Err(), boom)
}

func TestPromise_CatchRecovers(t *testing.T) {
	loop := newTestLoop(t)

	p := Catch(Rejected[string](loop, errors.New("404")), func(err error) (string, error) {
		return "fallback after " + err.Error(), nil
	})
	flush(t, loop)

	assert.Equal(t, "fallback after 404", p.Value())
	assert.NoError(t, p.Err())
}

func TestPromise_CatchPassesThroughValue(t *testing.T) {
	loop := newTestLoop(t)

	p := Catch(Resolved(loop, "ok"), func(err error) (string, error) {
		t.Fatal("onReject must not run for a resolved promise")
		return "", nil
	})
	flush(t, loop)

	assert.Equal(t, "ok", p.Value())
}

func TestPromise_SettlesOnce(t *testing.T) {
	loop := newTestLoop(t)

	p := NewPromise(loop, func(resolve func(int), reject func(error)) {
		resolve(1)
		resolve(2)
		reject(errors.New("late"))
	})

	assert.True(t, p.Settled())
	assert.Equal(t, 1, p.Value())
	assert.NoError(t, p.Err())
}

func TestPromise_ReactionsRunFIFO(t *testing.T) {
	loop := newTestLoop(t)
	var order []string

	a := Resolved(loop, "a")
	b := Resolved(loop, "b")
	Observe(a, func(v string, _ error) { order = append(order, v+"1") })
	Observe(b, func(v string, _ error) { order = append(order, v+"1") })
	Observe(a, func(v string, _ error) { order = append(order, v+"2") })

	flush(t, loop)

	assert.Equal(t, []string{"a1", "b1", "a2"}, order)
}

func TestPromise_NestedReactionsDrainInOneFlush(t *testing.T) {
	loop := newTestLoop(t)

	p := Resolved(loop, 0)
	for i := 0; i < 20; i++ {
		p = Then(p, func(v int) (int, error) { return v + 1, nil })
	}

	n := flush(t, loop)

	assert.Equal(t, 20, n)
	assert.Equal(t, 20, p.Value())
}

func TestPromise_ChainAdoptsInnerPromise(t *testing.T) {
	loop := newTestLoop(t)

	p := Chain(Resolved(loop, 2), func(v int) *Promise[int] {
		return Then(Delay(loop, time.Second), func(struct{}) (int, error) { return v * 10, nil })
	})

	flush(t, loop)
	assert.False(t, p.Settled(), "inner promise still waiting on the clock")

	loop.Clock().Tick(time.Second)
	flush(t, loop)

	assert.Equal(t, 20, p.Value())
}

func TestPromise_ChainNilInnerRejects(t *testing.T) {
	loop := newTestLoop(t)

	p := Chain(Resolved(loop, 1), func(int) *Promise[int] { return nil })
	flush(t, loop)

	assert.Error(t, p.Err())
}

func TestDelay_ResolvesAfterClockAdvance(t *testing.T) {
	loop := newTestLoop(t)

	p := Delay(loop, 500*time.Millisecond)

	loop.Clock().Tick(499 * time.Millisecond)
	assert.False(t, p.Settled())

	loop.Clock().Tick(time.Millisecond)
	assert.True(t, p.Settled())
}

func TestLoop_FlushDoesNotAdvanceClock(t *testing.T) {
	loop := newTestLoop(t)
	p := Delay(loop, 0)

	flush(t, loop)
	assert.False(t, p.Settled(), "zero delay still needs a clock tick")

	loop.Clock().Tick(0)
	assert.True(t, p.Settled())
}

func TestLoop_DrainLimit(t *testing.T) {
	loop := newTestLoop(t, WithMaxDrainSteps(10))

	var again func()
	again = func() { loop.Enqueue(again) }
	loop.Enqueue(again)

	n, err := loop.Flush()

	require.Error(t, err)
	assert.True(t, IsDrainLimit(err))
	assert.Equal(t, 10, n)

	var de *DrainLimitError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 10, de.Limit)
	assert.Equal(t, 1, de.Remaining)
	assert.Equal(t, 1, loop.Pending(), "unrun work stays queued")
}

func TestLoop_NonPositiveDrainLimitKeepsDefault(t *testing.T) {
	for _, n := range []int{0, -5} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			loop := newTestLoop(t, WithMaxDrainSteps(n))
			assert.Equal(t, DefaultMaxDrainSteps, loop.maxSteps)

			ran := 0
			for range 3 {
				loop.Enqueue(func() { ran++ })
			}
			assert.Equal(t, 3, flush(t, loop))
			assert.Equal(t, 3, ran)
		})
	}
}

func TestLoop_ResetDropsWork(t *testing.T) {
	loop := NewLoop(vclock.New())
	ran := false

	loop.Enqueue(func() { ran = true })
	Delay(loop, time.Second)
	loop.Reset()

	n, err := loop.Flush()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, ran)
	assert.Equal(t, 0, loop.Clock().Pending())
}

func TestLoop_EnqueueNilIgnored(t *testing.T) {
	loop := newTestLoop(t)
	loop.Enqueue(nil)
	assert.Equal(t, 0, loop.Pending())
}
