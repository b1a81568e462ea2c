package config

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/avroute/internal/util"
)

// Filter defaults.
const (
	DefaultRateLimitRPS       = 5
	DefaultRateLimitBurst     = 10
	DefaultRateLimitKeyHeader = "X-Client-ID"
	DefaultRateLimitClientTTL = 10 * time.Minute
	DefaultRedisPrefix        = "avroute:ratelimit:"
	DefaultRedisWindow        = time.Second
	DefaultAPIKeyHeader       = "X-API-Key"
	DefaultBreakerThreshold   = 5
	DefaultBreakerTimeout     = 30 * time.Second

	minJWTSecretLength = 32
)

// FiltersConfig configures the built-in filters used by the application
// routes.
type FiltersConfig struct {
	RateLimit RateLimitConfig `yaml:"rateLimit" json:"rateLimit"`
	APIKey    APIKeyConfig    `yaml:"apiKey" json:"apiKey"`
	Breaker   BreakerConfig   `yaml:"breaker" json:"breaker"`
	JWT       JWTConfig       `yaml:"jwt" json:"jwt"`
}

// RateLimitConfig configures request rate limiting. When Redis.Address is
// set the limit is a fixed window shared through Redis; otherwise a local
// token bucket is used.
type RateLimitConfig struct {
	RequestsPerSecond float64     `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int         `yaml:"burst" json:"burst"`
	KeyHeader         string      `yaml:"keyHeader" json:"keyHeader"`
	ClientTTL         Duration    `yaml:"clientTTL" json:"clientTTL"`
	Redis             RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the Redis backed rate limiter.
type RedisConfig struct {
	Address  string   `yaml:"address" json:"address"`
	Password string   `yaml:"password" json:"-"`
	DB       int      `yaml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" json:"prefix"`
	Limit    int      `yaml:"limit" json:"limit"`
	Window   Duration `yaml:"window" json:"window"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Address != ""
}

// APIKeyConfig configures the API key filter. Keys holds bcrypt hashes; the
// filter is not installed when it is empty.
type APIKeyConfig struct {
	Header string   `yaml:"header" json:"header"`
	Keys   []string `yaml:"keys" json:"-"`
}

// BreakerConfig configures the circuit breaker wrapping breaker protected
// handlers.
type BreakerConfig struct {
	Threshold int      `yaml:"threshold" json:"threshold"`
	Timeout   Duration `yaml:"timeout" json:"timeout"`
}

// JWTConfig configures bearer token validation. The filter is not installed
// when Secret is empty.
type JWTConfig struct {
	Secret   string `yaml:"secret" json:"-"`
	Issuer   string `yaml:"issuer" json:"issuer"`
	Audience string `yaml:"audience" json:"audience"`
}

// Enabled reports whether a signing secret is configured.
func (c JWTConfig) Enabled() bool {
	return c.Secret != ""
}

func defaultFiltersConfig() FiltersConfig {
	return FiltersConfig{
		RateLimit: RateLimitConfig{
			RequestsPerSecond: DefaultRateLimitRPS,
			Burst:             DefaultRateLimitBurst,
			KeyHeader:         DefaultRateLimitKeyHeader,
			ClientTTL:         Duration(DefaultRateLimitClientTTL),
			Redis: RedisConfig{
				Prefix: DefaultRedisPrefix,
				Limit:  DefaultRateLimitBurst,
				Window: Duration(DefaultRedisWindow),
			},
		},
		APIKey: APIKeyConfig{
			Header: DefaultAPIKeyHeader,
		},
		Breaker: BreakerConfig{
			Threshold: DefaultBreakerThreshold,
			Timeout:   Duration(DefaultBreakerTimeout),
		},
	}
}

func (c *Config) validateFilters() error {
	rl := c.Filters.RateLimit
	if rl.RequestsPerSecond <= 0 {
		return util.NewConfigError("filters.rateLimit.requestsPerSecond", "must be positive")
	}
	if rl.Burst <= 0 {
		return util.NewConfigError("filters.rateLimit.burst", "must be positive")
	}
	if rl.KeyHeader != "" {
		if err := util.ValidateHeaderName(rl.KeyHeader); err != nil {
			return util.NewConfigErrorWithCause("filters.rateLimit.keyHeader", "invalid header", err)
		}
	}
	if err := util.ValidateDuration(rl.ClientTTL.Duration()); err != nil {
		return util.NewConfigErrorWithCause("filters.rateLimit.clientTTL", "invalid duration", err)
	}
	if rl.Redis.Enabled() {
		if rl.Redis.Limit <= 0 {
			return util.NewConfigError("filters.rateLimit.redis.limit", "must be positive")
		}
		if rl.Redis.Window.Duration() < time.Second {
			return util.NewConfigError("filters.rateLimit.redis.window", "must be at least 1s")
		}
	}

	if err := util.ValidateHeaderName(c.Filters.APIKey.Header); err != nil {
		return util.NewConfigErrorWithCause("filters.apiKey.header", "invalid header", err)
	}
	for i, key := range c.Filters.APIKey.Keys {
		if _, err := bcrypt.Cost([]byte(key)); err != nil {
			return util.NewConfigErrorWithCause(fmt.Sprintf("filters.apiKey.keys[%d]", i), "not a bcrypt hash", err)
		}
	}

	if c.Filters.JWT.Enabled() && len(c.Filters.JWT.Secret) < minJWTSecretLength {
		return util.NewConfigError("filters.jwt.secret",
			fmt.Sprintf("must be at least %d bytes", minJWTSecretLength))
	}

	if c.Filters.Breaker.Threshold <= 0 {
		return util.NewConfigError("filters.breaker.threshold", "must be positive")
	}
	if err := util.ValidatePositiveDuration(c.Filters.Breaker.Timeout.Duration()); err != nil {
		return util.NewConfigErrorWithCause("filters.breaker.timeout", "invalid duration", err)
	}
	return nil
}
