package limiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count int
	start time.Time
}

// MemoryLimiter keeps one window per key in process memory. Every API
// instance counts on its own.
type MemoryLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	Now func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) (*MemoryLimiter, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		Now:     time.Now,
	}, nil
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || now.Sub(b.start) >= l.window {
		b = &bucket{start: now}
		l.buckets[key] = b
	}

	if b.count >= l.limit {
		return false, nil
	}

	b.count++
	return true, nil
}
