package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func newRegistry(t *testing.T, config Config) *Registry {
	t.Helper()

	r, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestScheduleAt_FiresOnceAndSelfRemoves(t *testing.T) {
	r := newRegistry(t, Config{})

	var calls atomic.Int32
	_, err := r.ScheduleAt("start", time.Now().Add(50*time.Millisecond), func(context.Context) {
		calls.Add(1)
	})
	require.NoError(t, err)
	assert.True(t, r.Has("start"))

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, waitFor, tick)
	assert.False(t, r.Has("start"), "fired one-shot must leave the registry")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduleAt_PastTimeFiresImmediately(t *testing.T) {
	r := newRegistry(t, Config{})

	fired := make(chan struct{})
	_, err := r.ScheduleAt("late", time.Now().Add(-time.Minute), func(context.Context) {
		close(fired)
	})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(waitFor):
		t.Fatal("past one-shot did not fire")
	}
}

func TestSchedule_ReplacesByName(t *testing.T) {
	r := newRegistry(t, Config{})

	var first, second atomic.Int32
	_, err := r.ScheduleAfter("complete", 80*time.Millisecond, func(context.Context) { first.Add(1) })
	require.NoError(t, err)
	_, err = r.ScheduleAfter("complete", 120*time.Millisecond, func(context.Context) { second.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, []string{"complete"}, r.Names())

	assert.Eventually(t, func() bool { return second.Load() == 1 }, waitFor, tick)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load(), "replaced job must not fire")
	assert.Equal(t, int32(1), second.Load())
}

func TestSchedule_EmptyName(t *testing.T) {
	r := newRegistry(t, Config{})

	_, err := r.ScheduleAfter("", time.Second, func(context.Context) {})

	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestCancel(t *testing.T) {
	r := newRegistry(t, Config{})

	var calls atomic.Int32
	_, err := r.ScheduleAfter("end", 50*time.Millisecond, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)

	assert.True(t, r.Cancel("end"))
	assert.False(t, r.Cancel("end"))
	assert.False(t, r.Cancel("never-scheduled"))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.Empty(t, r.Names())
}

func TestCancelAll_FromInsideCallback(t *testing.T) {
	r := newRegistry(t, Config{})

	var other atomic.Int32
	_, err := r.ScheduleAfter("end", 200*time.Millisecond, func(context.Context) { other.Add(1) })
	require.NoError(t, err)

	done := make(chan struct{})
	_, err = r.ScheduleAfter("complete", 20*time.Millisecond, func(context.Context) {
		r.CancelAll()
		close(done)
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("CancelAll inside a callback did not return")
	}

	assert.Empty(t, r.Names())
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), other.Load())
}

func TestScheduleEvery(t *testing.T) {
	var fired sync.Map
	r := newRegistry(t, Config{OnFire: func(name string) { fired.Store(name, true) }})

	var calls atomic.Int32
	_, err := r.ScheduleEvery("heartbeat", 20*time.Millisecond, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, waitFor, tick)
	assert.True(t, r.Has("heartbeat"), "recurring jobs stay registered")

	_, ok := fired.Load("heartbeat")
	assert.True(t, ok)

	r.Cancel("heartbeat")
	settled := calls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.LessOrEqual(t, calls.Load(), settled+1)
}

func TestPanicHandler(t *testing.T) {
	got := make(chan any, 1)
	r := newRegistry(t, Config{PanicHandler: func(name string, recovered any) {
		got <- recovered
	}})

	_, err := r.ScheduleAfter("boom", 10*time.Millisecond, func(context.Context) {
		panic("engine exploded")
	})
	require.NoError(t, err)

	select {
	case recovered := <-got:
		assert.Equal(t, "engine exploded", recovered)
	case <-time.After(waitFor):
		t.Fatal("panic handler not called")
	}
}

func TestNextRun_UsesInjectedClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	r := newRegistry(t, Config{Clock: clock})

	_, err := r.ScheduleAfter("complete", 5*time.Second, func(context.Context) {})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		next, ok := r.NextRun("complete")
		return ok && next.Equal(start.Add(5*time.Second))
	}, waitFor, tick)

	_, ok := r.NextRun("missing")
	assert.False(t, ok)
}

func TestClose_StopsScheduler(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	var calls atomic.Int32
	_, err = r.ScheduleAfter("end", 50*time.Millisecond, func(context.Context) { calls.Add(1) })
	require.NoError(t, err)

	require.NoError(t, r.Close())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
