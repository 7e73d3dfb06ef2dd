package async

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_PendingUntilSettledAndDrained(t *testing.T) {
	loop := newTestLoop(t)

	tracked := Track(Delay(loop, time.Second))
	assert.Equal(t, StatusPending, tracked.Status())

	loop.Clock().Tick(time.Second)
	assert.True(t, tracked.Promise.Settled())
	assert.Equal(t, StatusPending, tracked.Status(), "observer has not been drained yet")

	flush(t, loop)
	assert.Equal(t, StatusResolved, tracked.Status())
}

func TestTrack_Rejected(t *testing.T) {
	loop := newTestLoop(t)

	tracked := Track(Rejected[int](loop, errors.New("bad segment")))
	flush(t, loop)

	assert.Equal(t, StatusRejected, tracked.Status())
}

func TestTrack_DoesNotAlterOutcome(t *testing.T) {
	loop := newTestLoop(t)
	boom := errors.New("boom")

	p := Rejected[string](loop, boom)
	tracked := Track(p)
	recovered := Catch(p, func(err error) (string, error) { return "handled " + err.Error(), nil })
	flush(t, loop)

	assert.Same(t, p, tracked.Promise)
	assert.ErrorIs(t, p.Err(), boom)
	assert.Equal(t, "handled boom", recovered.Value())
}

func TestTrack_TransitionsOnce(t *testing.T) {
	loop := newTestLoop(t)

	var resolve func(int)
	var reject func(error)
	p := NewPromise(loop, func(res func(int), rej func(error)) {
		resolve, reject = res, rej
	})
	tracked := Track(p)

	resolve(1)
	flush(t, loop)
	assert.Equal(t, StatusResolved, tracked.Status())

	reject(errors.New("too late"))
	flush(t, loop)
	assert.Equal(t, StatusResolved, tracked.Status())
}

func TestTrack_NeverSettles(t *testing.T) {
	loop := newTestLoop(t)

	tracked := Track(Delay(loop, time.Hour))
	loop.Clock().Tick(time.Minute)
	flush(t, loop)

	assert.Equal(t, StatusPending, tracked.Status())
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusResolved, "resolved"},
		{StatusRejected, "rejected"},
		{Status(42), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("rejected")
	assert.True(t, ok)
	assert.Equal(t, StatusRejected, s)

	_, ok = ParseStatus("done")
	assert.False(t, ok)
}
