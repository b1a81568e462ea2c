package filters

import (
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
)

// Circuit breaker defaults.
const (
	DefaultBreakerThreshold = 5
	DefaultBreakerTimeout   = 30 * time.Second

	// BodyServiceUnavailable is the body written while the breaker is open.
	BodyServiceUnavailable = "Service Unavailable"
)

// Breaker wraps a handler with a circuit breaker. Handler errors and panics
// count as failures; once the breaker trips, requests are answered with 503
// without calling the handler until the timeout elapses.
type Breaker struct {
	cb        *gobreaker.CircuitBreaker
	next      router.Handler
	logger    observability.Logger
	threshold int
	timeout   time.Duration
}

// BreakerOption is a functional option for configuring the breaker.
type BreakerOption func(*Breaker)

// WithBreakerLogger sets the logger for the breaker.
func WithBreakerLogger(logger observability.Logger) BreakerOption {
	return func(b *Breaker) {
		b.logger = logger
	}
}

// WithBreakerThreshold sets the number of requests in a window before the
// failure ratio is considered.
func WithBreakerThreshold(threshold int) BreakerOption {
	return func(b *Breaker) {
		if threshold > 0 {
			b.threshold = threshold
		}
	}
}

// WithBreakerTimeout sets how long the breaker stays open.
func WithBreakerTimeout(timeout time.Duration) BreakerOption {
	return func(b *Breaker) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

// NewBreaker wraps next in a breaker named name.
func NewBreaker(name string, next router.Handler, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		next:      next,
		logger:    observability.NopLogger(),
		threshold: DefaultBreakerThreshold,
		timeout:   DefaultBreakerTimeout,
	}

	for _, opt := range opts {
		opt(b)
	}

	threshold := safeIntToUint32(b.threshold)

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    b.timeout,
		Timeout:     b.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Info("circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})

	return b
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Handle implements router.Handler.
func (b *Breaker) Handle(req *router.Request, res *router.Response, params *router.Params) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Handle(req, res, params)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn("circuit breaker open",
			observability.String("name", b.cb.Name()),
			observability.String("path", req.Path),
		)
		res.Finalize(http.StatusServiceUnavailable, BodyServiceUnavailable)
		return nil
	}

	return err
}

// safeIntToUint32 converts n to uint32, clamping to the valid range.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}
