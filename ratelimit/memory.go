package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// window holds one key's recent attempt timestamps, oldest first. A window
// removed by Sweep is marked dead so a caller that fetched it just before the
// sweep retries against a fresh one instead of appending to an orphan.
type window struct {
	mu     sync.Mutex
	stamps []time.Time
	dead   bool
}

// prune drops timestamps at least length old.
func (w *window) prune(now time.Time, length time.Duration) {
	keep := 0
	for keep < len(w.stamps) && now.Sub(w.stamps[keep]) >= length {
		keep++
	}
	w.stamps = w.stamps[keep:]
}

// Memory is an in-process sliding-window limiter. The key table lock is only
// held to find or create a window; pruning and appending happen under that
// window's own lock, so callers with different keys never contend.
//
// Limits apply per process: behind a load balancer the same caller can reach
// N attempts on every instance. Use the redisstore package to share windows.
type Memory struct {
	mu            sync.Mutex
	windows       map[string]*window
	length        time.Duration
	maxAttempts   int
	sweepInterval time.Duration
	lastSweep     time.Time
	nowFunc       func() time.Time
}

var _ Limiter = (*Memory)(nil)

// MemoryOption configures a Memory limiter.
type MemoryOption func(*Memory)

// WithWindow sets the window length and the attempts allowed within it.
func WithWindow(length time.Duration, maxAttempts int) MemoryOption {
	return func(m *Memory) {
		m.length = length
		m.maxAttempts = maxAttempts
	}
}

// WithSweepInterval sets how often idle keys are dropped.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(m *Memory) {
		m.sweepInterval = interval
	}
}

// WithNowFunc sets the clock, for tests.
func WithNowFunc(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.nowFunc = now
	}
}

// NewMemory creates a limiter with the default window unless overridden.
func NewMemory(options ...MemoryOption) *Memory {
	m := &Memory{
		windows:       make(map[string]*window),
		length:        DefaultWindow,
		maxAttempts:   DefaultMaxAttempts,
		sweepInterval: DefaultSweepInterval,
		nowFunc:       time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	m.lastSweep = m.nowFunc()
	return m
}

// Allow prunes key's window, rejects if it already holds maxAttempts
// timestamps, and otherwise records now.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	for {
		w := m.window(key)

		w.mu.Lock()
		if w.dead {
			w.mu.Unlock()
			continue
		}
		now := m.nowFunc()
		w.prune(now, m.length)
		if len(w.stamps) >= m.maxAttempts {
			w.mu.Unlock()
			return false, nil
		}
		w.stamps = append(w.stamps, now)
		w.mu.Unlock()
		return true, nil
	}
}

// window returns key's window, creating it if needed, and runs the periodic
// sweep when it is due.
func (m *Memory) window(key string) *window {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	if m.sweepInterval > 0 && now.Sub(m.lastSweep) >= m.sweepInterval {
		m.sweepLocked(now)
	}

	w, ok := m.windows[key]
	if !ok {
		w = &window{}
		m.windows[key] = w
	}
	return w
}

// Sweep removes every key whose newest attempt is already outside the window
// and returns how many were removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now)
}

func (m *Memory) sweepLocked(now time.Time) int {
	m.lastSweep = now
	removed := 0
	for key, w := range m.windows {
		w.mu.Lock()
		if len(w.stamps) == 0 || now.Sub(w.stamps[len(w.stamps)-1]) >= m.length {
			w.dead = true
			delete(m.windows, key)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Run sweeps on every tick of the sweep interval until ctx is done, so idle
// processes release stale keys too.
func (m *Memory) Run(ctx context.Context) {
	if m.sweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.Sweep(m.nowFunc()); removed > 0 {
				log.Debug().Int("removed", removed).Msg("rate limiter sweep")
			}
		}
	}
}
