package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-service-auth/ratelimit"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func allowN(t *testing.T, l ratelimit.Limiter, key string, n int) int {
	t.Helper()
	admitted := 0
	for i := 0; i < n; i++ {
		ok, err := l.Allow(context.Background(), key)
		require.NoError(t, err)
		if ok {
			admitted++
		}
	}
	return admitted
}

func TestMemory_RejectsAttemptOverLimit(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewMemory(ratelimit.WithNowFunc(clock.Now))

	require.Equal(t, ratelimit.DefaultMaxAttempts, allowN(t, l, "10.0.0.1", ratelimit.DefaultMaxAttempts))

	ok, err := l.Allow(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.False(t, ok)

	// Other keys are unaffected.
	ok, err = l.Allow(context.Background(), "10.0.0.2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemory_WindowSlides(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewMemory(ratelimit.WithNowFunc(clock.Now), ratelimit.WithWindow(time.Minute, 3))

	require.Equal(t, 2, allowN(t, l, "k", 2))
	clock.Advance(30 * time.Second)
	require.Equal(t, 1, allowN(t, l, "k", 2))

	// The first two attempts leave the window exactly one minute later.
	clock.Advance(29 * time.Second)
	require.Equal(t, 0, allowN(t, l, "k", 1))
	clock.Advance(time.Second)
	require.Equal(t, 2, allowN(t, l, "k", 3))
}

func TestMemory_RejectedAttemptsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewMemory(ratelimit.WithNowFunc(clock.Now), ratelimit.WithWindow(time.Minute, 2))

	require.Equal(t, 2, allowN(t, l, "k", 2))

	// Hammering while blocked must not extend the block.
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		require.Equal(t, 0, allowN(t, l, "k", 1))
	}
	clock.Advance(10 * time.Second)
	require.Equal(t, 2, allowN(t, l, "k", 2))
}

func TestMemory_Sweep(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewMemory(ratelimit.WithNowFunc(clock.Now), ratelimit.WithSweepInterval(0))

	allowN(t, l, "stale", 1)
	clock.Advance(45 * time.Second)
	allowN(t, l, "fresh", 1)
	require.Equal(t, 2, l.Len())

	clock.Advance(15 * time.Second)
	require.Equal(t, 1, l.Sweep(clock.Now()))
	require.Equal(t, 1, l.Len())

	// A swept key starts with an empty window.
	require.Equal(t, ratelimit.DefaultMaxAttempts, allowN(t, l, "stale", ratelimit.DefaultMaxAttempts+1))
}

func TestMemory_SweepRunsOnAllowWhenDue(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewMemory(ratelimit.WithNowFunc(clock.Now), ratelimit.WithSweepInterval(5*time.Minute))

	for _, key := range []string{"a", "b", "c"} {
		allowN(t, l, key, 1)
	}
	require.Equal(t, 3, l.Len())

	clock.Advance(5 * time.Minute)
	allowN(t, l, "d", 1)
	require.Equal(t, 1, l.Len())
}

func TestMemory_ConcurrentCallersNeverExceedLimit(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewMemory(ratelimit.WithNowFunc(clock.Now))

	const callers = 100
	var admitted atomic.Int32
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			ok, err := l.Allow(context.Background(), "shared")
			if err == nil && ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(ratelimit.DefaultMaxAttempts), admitted.Load())
}

func TestMemory_ConcurrentSweepKeepsAdmissions(t *testing.T) {
	clock := newFakeClock()
	l := ratelimit.NewMemory(ratelimit.WithNowFunc(clock.Now), ratelimit.WithSweepInterval(0))

	const callers = 50
	var admitted atomic.Int32
	var wg sync.WaitGroup
	wg.Add(callers + 1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			l.Sweep(clock.Now())
		}
	}()
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			ok, err := l.Allow(context.Background(), "shared")
			if err == nil && ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	// Admissions recorded before a sweep survive it, so the total stays at the limit.
	require.Equal(t, int32(ratelimit.DefaultMaxAttempts), admitted.Load())
}

func TestMemory_RunStopsOnCancel(t *testing.T) {
	l := ratelimit.NewMemory(ratelimit.WithSweepInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
