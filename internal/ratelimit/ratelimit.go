package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
	// Reset drops the current window for key.
	Reset(ctx context.Context, key string) error
}

// MemoryLimiter is a process-local fixed window limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*memoryWindow
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryLimiter(now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{now: now, windows: make(map[string]*memoryWindow)}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		m.windows[key] = w
		m.sweep(now)
	}
	w.count++

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   w.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}, nil
}

func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// sweep drops expired windows. Called with mu held.
func (m *MemoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}

// AttemptThrottle adapts a Limiter to a fixed limit and window per key.
type AttemptThrottle struct {
	limiter Limiter
	limit   int
	window  time.Duration
}

func NewAttemptThrottle(limiter Limiter, limit int, window time.Duration) *AttemptThrottle {
	if window <= 0 {
		window = time.Minute
	}
	return &AttemptThrottle{limiter: limiter, limit: limit, window: window}
}

// Allow records an attempt for key and reports whether it is within the limit.
func (t *AttemptThrottle) Allow(ctx context.Context, key string) (bool, error) {
	decision, err := t.limiter.Allow(ctx, key, t.limit, t.window)
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

// Reset forgets the attempts recorded for key.
func (t *AttemptThrottle) Reset(ctx context.Context, key string) error {
	return t.limiter.Reset(ctx, key)
}
