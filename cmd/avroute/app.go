package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/avroute/internal/config"
	"github.com/vyrodovalexey/avroute/internal/filters"
	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
	"github.com/vyrodovalexey/avroute/internal/server"
)

// application holds all application components.
type application struct {
	config      *config.Config
	registry    *router.Registry
	server      *server.Server
	metrics     *observability.Metrics
	tracer      *observability.Tracer
	rateLimiter *filters.RateLimiter
	redisClient *redis.Client
}

// routeFilters are the filters shared by the demo routes.
type routeFilters struct {
	rateLimit router.Filter
	apiKey    *filters.APIKey
	jwt       *filters.JWT
	breaker   []filters.BreakerOption
}

// newApplication wires the registry, tracer, metrics and server. Nothing
// is bound until the server starts.
func newApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	metrics := observability.NewMetrics("avroute")
	metrics.SetBuildInfo(version, gitCommit, buildTime)

	tracer, err := initTracer(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	app := &application{
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}

	rf, err := app.initFilters(cfg.Filters, logger)
	if err != nil {
		app.close()
		return nil, err
	}

	reg := router.NewRegistry()
	if err := registerRoutes(reg, cfg, rf, logger); err != nil {
		app.close()
		return nil, err
	}
	app.registry = reg

	srv, err := server.New(cfg, reg,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithTracer(tracer),
		server.WithVersion(version),
	)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	app.server = srv

	return app, nil
}

// initFilters builds the rate limiter, the breaker settings and the optional
// API key and JWT filters from cfg.
func (app *application) initFilters(cfg config.FiltersConfig, logger observability.Logger) (routeFilters, error) {
	rl := cfg.RateLimit

	app.rateLimiter = filters.NewRateLimiter(rl.RequestsPerSecond, rl.Burst,
		filters.WithKeyHeader(rl.KeyHeader),
		filters.WithClientTTL(rl.ClientTTL.Duration()),
		filters.WithRateLimitLogger(logger),
	)

	rf := routeFilters{
		rateLimit: app.rateLimiter,
		breaker: []filters.BreakerOption{
			filters.WithBreakerThreshold(cfg.Breaker.Threshold),
			filters.WithBreakerTimeout(cfg.Breaker.Timeout.Duration()),
			filters.WithBreakerLogger(logger),
		},
	}

	if rl.Redis.Enabled() {
		app.redisClient = redis.NewClient(&redis.Options{
			Addr:     rl.Redis.Address,
			Password: rl.Redis.Password,
			DB:       rl.Redis.DB,
		})
		rf.rateLimit = filters.NewRedisRateLimiter(app.redisClient, rl.Redis.Limit,
			filters.WithRedisPrefix(rl.Redis.Prefix),
			filters.WithRedisWindow(rl.Redis.Window.Duration()),
			filters.WithRedisKeyHeader(rl.KeyHeader),
			filters.WithRedisLogger(logger),
		)
		logger.Info("using redis rate limiter",
			observability.String("address", rl.Redis.Address),
			observability.Int("limit", rl.Redis.Limit),
		)
	}

	if len(cfg.APIKey.Keys) > 0 {
		apiKey, err := filters.NewAPIKey(cfg.APIKey.Keys,
			filters.WithAPIKeyHeader(cfg.APIKey.Header),
			filters.WithAPIKeyLogger(logger),
		)
		if err != nil {
			return routeFilters{}, fmt.Errorf("failed to build api key filter: %w", err)
		}
		rf.apiKey = apiKey
	}

	if cfg.JWT.Enabled() {
		j, err := filters.NewJWT(cfg.JWT.Secret,
			filters.WithJWTIssuer(cfg.JWT.Issuer),
			filters.WithJWTAudience(cfg.JWT.Audience),
			filters.WithJWTLogger(logger),
		)
		if err != nil {
			return routeFilters{}, fmt.Errorf("failed to build jwt filter: %w", err)
		}
		rf.jwt = j
	}

	return rf, nil
}

// close releases the filter resources. It is safe to call on a partially
// built application.
func (app *application) close() error {
	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}
	if app.redisClient != nil {
		return app.redisClient.Close()
	}
	return nil
}

// initTracer initializes the tracer.
func initTracer(cfg config.TracingConfig) (*observability.Tracer, error) {
	return observability.NewTracer(observability.TracerConfig{
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.SamplingRate,
		Enabled:      cfg.Enabled,
	})
}
