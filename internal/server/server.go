package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avroute/internal/config"
	"github.com/vyrodovalexey/avroute/internal/dispatch"
	"github.com/vyrodovalexey/avroute/internal/health"
	"github.com/vyrodovalexey/avroute/internal/middleware"
	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
	"github.com/vyrodovalexey/avroute/internal/static"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race conditions
var ginModeOnce sync.Once

// ErrAlreadyRunning is returned by Start while the server is running.
var ErrAlreadyRunning = errors.New("server already running")

const (
	readHeaderTimeout = 10 * time.Second
	maxHeaderBytes    = 1 << 20 // 1 MB

	opsReadTimeout  = 10 * time.Second
	opsWriteTimeout = 10 * time.Second
)

// Server serves a route registry over HTTP. Start and Stop may be called
// repeatedly; the registry is frozen on the first Start.
type Server struct {
	cfg        *config.Config
	registry   *router.Registry
	dispatcher *dispatch.Dispatcher
	engine     *gin.Engine
	handler    http.Handler
	logger     observability.Logger
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	checker    *health.Checker
	version    string

	// mu serializes Start and Stop and guards the listeners.
	mu      sync.Mutex
	running atomic.Bool
	http    *listener
	ops     *listener
}

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithLogger sets the logger for the server and its dispatcher.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics the dispatcher records into and the
// operations listener exposes.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(tracer *observability.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// WithVersion sets the version reported by the health endpoint.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a server for reg. A nil cfg uses the defaults.
func New(cfg *config.Config, reg *router.Registry, opts ...Option) (*Server, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		registry: reg,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = observability.NewMetrics("avroute")
	}
	if err := registerCollectors(s.metrics.Registry()); err != nil {
		return nil, err
	}

	dispatchOpts := []dispatch.Option{
		dispatch.WithLogger(s.logger),
		dispatch.WithMetrics(s.metrics),
		dispatch.WithStaticOptions(static.WithDefaultContentType(cfg.Static.DefaultContentType)),
	}
	if s.tracer != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithTracer(s.tracer))
	}
	s.dispatcher = dispatch.New(reg, dispatchOpts...)

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s.engine = gin.New()
	s.engine.NoRoute(s.handleRequest)

	s.handler = middleware.Chain(s.engine,
		middleware.Recovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		securityHeaders(cfg.Server.SecurityHeaders),
		middleware.BodyLimit(cfg.Server.MaxRequestBodySize, s.logger),
	)

	s.checker = health.NewChecker(s.version)
	s.checker.RegisterCheck("listener", func() health.Check {
		if s.IsRunning() {
			return health.Healthy()
		}
		return health.Unhealthy("not running")
	})

	return s, nil
}

// registerCollectors adds the process-wide router and middleware collectors
// to registry. Registering twice is not an error.
func registerCollectors(registry *prometheus.Registry) error {
	collectors := append(router.Collectors(), middleware.Collectors()...)
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return fmt.Errorf("failed to register collector: %w", err)
			}
		}
	}
	return nil
}

// securityHeaders returns the security headers middleware, or nil when
// disabled.
func securityHeaders(cfg config.SecurityHeadersConfig) middleware.Middleware {
	if !cfg.Enabled {
		return nil
	}
	return middleware.SecurityHeaders(middleware.MergeSecurityHeaders(cfg.Headers))
}

// Start freezes the registry, opens the static mounts and binds the
// listeners. It returns once the sockets are bound.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return ErrAlreadyRunning
	}

	if err := s.dispatcher.Init(); err != nil {
		return fmt.Errorf("failed to initialize routes: %w", err)
	}

	ctx := context.Background()
	srv := s.cfg.Server

	httpListener := newListener("http", &http.Server{
		Addr:              srv.ListenAddress(),
		Handler:           s.handler,
		ReadTimeout:       srv.ReadTimeout.Duration(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      srv.WriteTimeout.Duration(),
		IdleTimeout:       srv.IdleTimeout.Duration(),
		MaxHeaderBytes:    maxHeaderBytes,
	}, s.logger)
	if err := httpListener.start(ctx); err != nil {
		return err
	}

	var opsListener *listener
	if s.cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
		s.checker.Register(mux)

		opsListener = newListener("metrics", &http.Server{
			Addr:              s.cfg.Metrics.ListenAddress(),
			Handler:           mux,
			ReadTimeout:       opsReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      opsWriteTimeout,
		}, s.logger)
		if err := opsListener.start(ctx); err != nil {
			_ = httpListener.stop(ctx)
			return err
		}
	}

	s.http = httpListener
	s.ops = opsListener
	s.running.Store(true)

	s.logger.Info("server started",
		observability.String("address", httpListener.addr()),
		observability.Int("endpoints", len(s.registry.Endpoints())),
		observability.Int("static_mounts", len(s.registry.StaticMounts())),
	)

	return nil
}

// Stop gracefully stops the listeners. It is a no-op when the server is
// not running. Once it returns the port can be bound again.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return nil
	}
	s.running.Store(false)

	var errs []error
	if s.ops != nil {
		if err := s.ops.stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.http.stop(ctx); err != nil {
		errs = append(errs, err)
	}

	s.http = nil
	s.ops = nil

	s.logger.Info("server stopped")

	return errors.Join(errs...)
}

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Addr returns the bound address of the HTTP listener, or the configured
// address when the server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http != nil {
		return s.http.addr()
	}
	return s.cfg.Server.ListenAddress()
}

// MetricsAddr returns the bound address of the operations listener, or ""
// when it is not running.
func (s *Server) MetricsAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ops != nil {
		return s.ops.addr()
	}
	return ""
}

// DirectRequest dispatches a request without a connection. It works whether
// or not the server is running.
func (s *Server) DirectRequest(
	method, target string,
	body *string,
	headers map[string]string,
) dispatch.SimulatedResponse {
	return s.dispatcher.DirectRequest(method, target, body, headers)
}

// Dispatcher returns the dispatcher behind the server.
func (s *Server) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

// Handler returns the HTTP handler the listener serves.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Health returns the health checker exposed on the operations listener.
func (s *Server) Health() *health.Checker {
	return s.checker
}
