package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// RedisLimiter shares its windows across API instances through one counter
// key per client and window.
type RedisLimiter struct {
	client rueidis.Client
	prefix string
	limit  int
	window time.Duration

	Now func() time.Time
}

func NewRedisLimiter(client rueidis.Client, prefix string, limit int, window time.Duration) (*RedisLimiter, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		Now:    time.Now,
	}, nil
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	counterKey := r.counterKey(key)

	results := r.client.DoMulti(ctx,
		r.client.B().Incr().Key(counterKey).Build(),
		r.client.B().Expire().Key(counterKey).Seconds(r.ttlSeconds()).Build(),
	)

	count, err := results[0].AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate counter: %w", err)
	}
	if err := results[1].Error(); err != nil {
		return false, fmt.Errorf("failed to expire rate counter: %w", err)
	}

	return count <= int64(r.limit), nil
}

func (r *RedisLimiter) counterKey(key string) string {
	slot := r.Now().UnixNano() / int64(r.window)
	return fmt.Sprintf("%s:%s:%d", r.prefix, key, slot)
}

// ttlSeconds outlives the window so a counter never vanishes mid-window.
func (r *RedisLimiter) ttlSeconds() int64 {
	return int64(r.window/time.Second) + 1
}
