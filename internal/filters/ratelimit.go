package filters

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
)

// Rate limiter defaults.
const (
	// DefaultClientTTL is how long an idle per-key limiter is kept.
	DefaultClientTTL = 10 * time.Minute

	// MinCleanupInterval is the minimum interval between cleanups.
	MinCleanupInterval = 10 * time.Second

	// MaxCleanupInterval is the maximum interval between cleanups.
	MaxCleanupInterval = time.Minute

	// BodyTooManyRequests is the body of a 429 rejection.
	BodyTooManyRequests = "Too Many Requests"
)

// clientEntry holds a limiter and its last access time for TTL cleanup.
type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter is a token bucket filter. It limits globally, or per value of
// a request header when a key header is configured.
type RateLimiter struct {
	limiter   *rate.Limiter
	keyHeader string
	clients   map[string]*clientEntry
	mu        sync.Mutex
	rps       float64
	burst     int
	logger    observability.Logger
	clientTTL time.Duration
	stopCh    chan struct{}
	stopped   bool
}

// RateLimitOption is a functional option for configuring the rate limiter.
type RateLimitOption func(*RateLimiter)

// WithKeyHeader keeps one bucket per value of the named header. Requests
// without the header share one bucket.
func WithKeyHeader(name string) RateLimitOption {
	return func(rl *RateLimiter) {
		rl.keyHeader = name
	}
}

// WithClientTTL sets how long an idle per-key bucket is kept.
func WithClientTTL(ttl time.Duration) RateLimitOption {
	return func(rl *RateLimiter) {
		if ttl > 0 {
			rl.clientTTL = ttl
		}
	}
}

// WithRateLimitLogger sets the logger for the rate limiter.
func WithRateLimitLogger(logger observability.Logger) RateLimitOption {
	return func(rl *RateLimiter) {
		rl.logger = logger
	}
}

// NewRateLimiter creates a rate limiting filter allowing rps requests per
// second with the given burst.
func NewRateLimiter(rps float64, burst int, opts ...RateLimitOption) *RateLimiter {
	rl := &RateLimiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		clients:   make(map[string]*clientEntry),
		rps:       rps,
		burst:     burst,
		logger:    observability.NopLogger(),
		clientTTL: DefaultClientTTL,
		stopCh:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(rl)
	}

	return rl
}

// Allow reports whether a request with the given key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.keyHeader == "" {
		return rl.limiter.Allow()
	}
	return rl.allowKey(key, time.Now())
}

func (rl *RateLimiter) allowKey(key string, now time.Time) bool {
	rl.mu.Lock()
	entry, exists := rl.clients[key]
	if !exists {
		entry = &clientEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
		}
		rl.clients[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// Apply implements router.Filter.
func (rl *RateLimiter) Apply(req *router.Request, _ *router.Response, _ *router.Params) router.Outcome {
	var key string
	if rl.keyHeader != "" {
		key = req.Header(rl.keyHeader)
	}

	if !rl.Allow(key) {
		rl.logger.Warn("rate limit exceeded",
			observability.String("key", key),
			observability.String("path", req.Path),
		)
		return router.Abort(http.StatusTooManyRequests, BodyTooManyRequests)
	}
	return router.Continue()
}

// CleanupOldClients removes per-key limiters idle for longer than maxAge.
func (rl *RateLimiter) CleanupOldClients(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range rl.clients {
		if now.Sub(entry.lastAccess) > maxAge {
			delete(rl.clients, key)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.Debug("cleaned up expired rate limiter entries",
			observability.Int("removed", removed),
			observability.Int("remaining", len(rl.clients)),
		)
	}
}

// StartAutoCleanup periodically drops idle per-key limiters until Stop is
// called.
func (rl *RateLimiter) StartAutoCleanup() {
	rl.mu.Lock()
	if rl.stopped || rl.keyHeader == "" {
		rl.mu.Unlock()
		return
	}
	ttl := rl.clientTTL
	rl.mu.Unlock()

	interval := ttl / 2
	if interval > MaxCleanupInterval {
		interval = MaxCleanupInterval
	}
	if interval < MinCleanupInterval {
		interval = MinCleanupInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.CleanupOldClients(ttl)
			case <-rl.stopCh:
				return
			}
		}
	}()
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.stopped {
		rl.stopped = true
		close(rl.stopCh)
	}
}

// clientCount returns the number of tracked keys.
func (rl *RateLimiter) clientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}
