package filters

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
)

// Redis rate limiter defaults.
const (
	DefaultRedisPrefix  = "avroute:ratelimit:"
	DefaultRedisWindow  = time.Second
	DefaultRedisTimeout = 100 * time.Millisecond

	globalRateLimitKey = "global"
)

// incrementWithExpiryScript increments a counter and sets its expiry when
// the counter is created.
// KEYS[1] = key
// ARGV[1] = expiration in seconds
var incrementWithExpiryScript = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// RedisRateLimiter is a fixed window rate limit filter backed by Redis, so
// the limit is shared by every instance using the same Redis.
//
// When Redis is unreachable the request is let through.
type RedisRateLimiter struct {
	client    redis.Scripter
	prefix    string
	limit     int64
	window    time.Duration
	timeout   time.Duration
	keyHeader string
	logger    observability.Logger
	now       func() time.Time
}

// RedisRateLimitOption is a functional option for the Redis rate limiter.
type RedisRateLimitOption func(*RedisRateLimiter)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisRateLimitOption {
	return func(rl *RedisRateLimiter) {
		if prefix != "" {
			rl.prefix = prefix
		}
	}
}

// WithRedisWindow sets the window length. It is truncated to whole seconds
// with a minimum of one second.
func WithRedisWindow(window time.Duration) RedisRateLimitOption {
	return func(rl *RedisRateLimiter) {
		if window > 0 {
			rl.window = window
		}
	}
}

// WithRedisKeyHeader keeps one counter per value of the named header.
func WithRedisKeyHeader(name string) RedisRateLimitOption {
	return func(rl *RedisRateLimiter) {
		rl.keyHeader = name
	}
}

// WithRedisTimeout bounds each Redis round trip.
func WithRedisTimeout(timeout time.Duration) RedisRateLimitOption {
	return func(rl *RedisRateLimiter) {
		if timeout > 0 {
			rl.timeout = timeout
		}
	}
}

// WithRedisLogger sets the logger.
func WithRedisLogger(logger observability.Logger) RedisRateLimitOption {
	return func(rl *RedisRateLimiter) {
		rl.logger = logger
	}
}

// NewRedisRateLimiter creates a filter admitting limit requests per window.
func NewRedisRateLimiter(client redis.Scripter, limit int, opts ...RedisRateLimitOption) *RedisRateLimiter {
	rl := &RedisRateLimiter{
		client:  client,
		prefix:  DefaultRedisPrefix,
		limit:   int64(limit),
		window:  DefaultRedisWindow,
		timeout: DefaultRedisTimeout,
		logger:  observability.NopLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(rl)
	}

	if rl.window < time.Second {
		rl.window = time.Second
	}

	return rl
}

// Allow increments the counter for key and reports whether it is still
// within the limit.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	count, err := incrementWithExpiryScript.Run(ctx, rl.client,
		[]string{rl.windowKey(key)},
		int64(rl.window/time.Second),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return count <= rl.limit, nil
}

// windowKey returns the Redis key for key in the current window.
func (rl *RedisRateLimiter) windowKey(key string) string {
	if key == "" {
		key = globalRateLimitKey
	}
	windowStart := rl.now().Unix() / int64(rl.window/time.Second)
	return rl.prefix + key + ":" + strconv.FormatInt(windowStart, 10)
}

// Apply implements router.Filter.
func (rl *RedisRateLimiter) Apply(req *router.Request, _ *router.Response, _ *router.Params) router.Outcome {
	var key string
	if rl.keyHeader != "" {
		key = req.Header(rl.keyHeader)
	}

	allowed, err := rl.Allow(req.Context(), key)
	if err != nil {
		rl.logger.Error("rate limit check failed, allowing request",
			observability.String("key", key),
			observability.Error(err),
		)
		return router.Continue()
	}

	if !allowed {
		rl.logger.Warn("rate limit exceeded",
			observability.String("key", key),
			observability.String("path", req.Path),
		)
		return router.Abort(http.StatusTooManyRequests, BodyTooManyRequests)
	}
	return router.Continue()
}
