// Package redisstore is a sliding-window rate limiter backed by Redis, so
// every instance behind a load balancer shares one window per key.
package redisstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-service-auth/ratelimit"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Each key is a sorted set of attempt ids scored by their time in
// milliseconds. Pruning, counting and recording run as one script so
// concurrent callers on any instance cannot overshoot the limit. The key
// expires one window after its newest attempt, which stands in for a sweep.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// Config holds the Redis client and window settings. Zero Window and
// MaxAttempts fall back to the ratelimit defaults.
type Config struct {
	Client      *redis.Client
	KeyPrefix   string
	Window      time.Duration
	MaxAttempts int
	NowFunc     func() time.Time
}

// Limiter implements ratelimit.Limiter over a shared Redis.
type Limiter struct {
	client      *redis.Client
	keyPrefix   string
	window      time.Duration
	maxAttempts int
	nowFunc     func() time.Time
}

var _ ratelimit.Limiter = (*Limiter)(nil)

func New(cfg Config) (*Limiter, error) {
	if cfg.Client == nil {
		return nil, errors.New("[redisstore.New] redis client is required")
	}
	l := &Limiter{
		client:      cfg.Client,
		keyPrefix:   cfg.KeyPrefix,
		window:      cfg.Window,
		maxAttempts: cfg.MaxAttempts,
		nowFunc:     cfg.NowFunc,
	}
	if l.window <= 0 {
		l.window = ratelimit.DefaultWindow
	}
	if l.maxAttempts <= 0 {
		l.maxAttempts = ratelimit.DefaultMaxAttempts
	}
	if l.nowFunc == nil {
		l.nowFunc = time.Now
	}
	return l, nil
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	admitted, err := allowScript.Run(ctx, l.client,
		[]string{l.keyPrefix + key},
		l.nowFunc().UnixMilli(),
		l.window.Milliseconds(),
		l.maxAttempts,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, errors.Wrap(err, "[Limiter.Allow] allowScript.Run")
	}
	return admitted == 1, nil
}

// Ping checks that the backing Redis is reachable.
func (l *Limiter) Ping(ctx context.Context) error {
	if err := l.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "[Limiter.Ping]")
	}
	return nil
}
