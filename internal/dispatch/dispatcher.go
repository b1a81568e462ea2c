package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
	"github.com/vyrodovalexey/avroute/internal/static"
	"github.com/vyrodovalexey/avroute/internal/util"
)

// SpanName is the name of the span recorded for each dispatch.
const SpanName = "avroute.dispatch"

// mount is a static mount resolved to its file server. A nil server means
// the directory could not be opened and every lookup is a miss.
type mount struct {
	prefix string
	server *static.FileServer
}

// Dispatcher resolves requests against a frozen registry. It is safe for
// concurrent use.
type Dispatcher struct {
	registry   *router.Registry
	logger     observability.Logger
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	staticOpts []static.Option

	initOnce  sync.Once
	initErr   error
	endpoints []*router.Endpoint
	mounts    []mount
}

// Option is a functional option for configuring the dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for the dispatcher.
func WithLogger(logger observability.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics the dispatcher records into.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(tracer *observability.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// WithStaticOptions sets options applied to every static file server.
func WithStaticOptions(opts ...static.Option) Option {
	return func(d *Dispatcher) {
		d.staticOpts = append(d.staticOpts, opts...)
	}
}

// New creates a dispatcher for reg. The registry is frozen on first use.
func New(reg *router.Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: reg,
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.metrics == nil {
		d.metrics = observability.NewMetrics("avroute")
	}
	if d.tracer == nil {
		d.tracer, _ = observability.NewTracer(observability.TracerConfig{})
	}

	return d
}

// Init freezes the registry and opens the static mounts. It runs once; a
// mount whose directory cannot be opened is reported in the error and
// answers every request with 404.
func (d *Dispatcher) Init() error {
	d.initOnce.Do(func() {
		d.registry.Freeze()
		d.endpoints = d.registry.Endpoints()

		opts := append([]static.Option{static.WithLogger(d.logger)}, d.staticOpts...)

		var errs []error
		for _, m := range d.registry.StaticMounts() {
			server, err := static.New(m.Prefix, m.Dir, opts...)
			if err != nil {
				d.logger.Error("failed to open static mount",
					observability.String("prefix", m.Prefix),
					observability.String("dir", m.Dir),
					observability.Error(err),
				)
				errs = append(errs, fmt.Errorf("static mount %s: %w", m.Prefix, err))
			}
			d.mounts = append(d.mounts, mount{prefix: m.Prefix, server: server})
		}

		sort.SliceStable(d.mounts, func(i, j int) bool {
			return len(d.mounts[i].prefix) > len(d.mounts[j].prefix)
		})

		d.initErr = errors.Join(errs...)
	})
	return d.initErr
}

// Metrics returns the metrics the dispatcher records into.
func (d *Dispatcher) Metrics() *observability.Metrics {
	return d.metrics
}

// Dispatch runs req through the pipeline and returns the final response.
// It never panics and never returns nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req *router.Request) *router.Response {
	_ = d.Init()

	start := time.Now()

	req = req.WithContext(ctx)
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	ctx = observability.ContextWithRequestID(ctx, req.ID)
	ctx = observability.ExtractTraceContext(ctx, req.Headers)

	ctx, span := d.tracer.StartSpan(ctx, SpanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
			attribute.String("request.id", req.ID),
		),
	)
	defer span.End()

	ctx = observability.ContextWithSpan(ctx, span)
	req = req.WithContext(ctx)

	res := router.NewResponse()
	route, err := d.dispatch(req, res)

	duration := time.Since(start)
	d.metrics.RecordRequest(req.Method, route, res.Status(), duration)

	span.SetAttributes(
		attribute.String("http.route", route),
		attribute.Int("http.response.status_code", res.Status()),
	)
	if res.Status() >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(res.Status()))
		if err != nil {
			span.RecordError(err)
		}
	}

	d.logger.WithContext(ctx).Debug("request dispatched",
		observability.String("method", req.Method),
		observability.String("path", req.Path),
		observability.String("route", route),
		observability.Int("status", res.Status()),
		observability.Duration("duration", duration),
	)

	return res
}

// dispatch fills res and returns the route label and the error, if any,
// that produced a non-handler response.
func (d *Dispatcher) dispatch(req *router.Request, res *router.Response) (string, error) {
	if m, ok := d.matchStatic(req.Path); ok {
		return d.serveStatic(m, req, res)
	}

	var (
		pathMatched bool
		endpoint    *router.Endpoint
		captures    []string
	)
	for _, e := range d.endpoints {
		c, ok := e.Pattern.Match(req.Path)
		if !ok {
			continue
		}
		pathMatched = true
		if e.Method == req.Method {
			endpoint = e
			captures = c
			break
		}
	}

	if !pathMatched {
		err := util.NewRouteNotFoundError(req.Method, req.Path)
		d.finalizeError(res, err)
		return observability.UnmatchedRoute, err
	}
	if endpoint == nil {
		err := util.NewMethodNotAllowedError(req.Method, req.Path)
		d.finalizeError(res, err)
		return observability.UnmatchedRoute, err
	}

	route := endpoint.Route()
	params := router.MergeParams(captures, req.RawQuery)

	if out := d.applyFilters(endpoint, req, res, params); out.Aborted() {
		err := util.NewFilterRejectedError(route, out.Status(), out.Body())
		d.metrics.RecordFilterRejection(route, out.Status())
		d.logger.WithContext(req.Context()).Debug("request rejected by filter",
			observability.String("route", route),
			observability.Int("status", out.Status()),
		)
		d.finalizeError(res, err)
		return route, err
	}

	if err := d.invoke(endpoint, req, res, params); err != nil {
		d.finalizeError(res, err)
		return route, err
	}

	return route, nil
}

// applyFilters runs the endpoint's filter chain. A panicking filter aborts
// the request with 500.
func (d *Dispatcher) applyFilters(
	e *router.Endpoint,
	req *router.Request,
	res *router.Response,
	params *router.Params,
) (out router.Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.WithContext(req.Context()).Error("filter panic recovered",
				observability.String("route", e.Route()),
				observability.Any("error", recovered),
				observability.String("stack", string(debug.Stack())),
			)
			out = router.Abort(http.StatusInternalServerError, util.BodyInternalError)
		}
	}()

	return router.ApplyFilters(e.Filters(), req, res, params)
}

// invoke calls the endpoint handler, turning an error or a panic into a
// HandlerFailureError.
func (d *Dispatcher) invoke(
	e *router.Endpoint,
	req *router.Request,
	res *router.Response,
	params *router.Params,
) (err error) {
	route := e.Route()

	defer func() {
		if recovered := recover(); recovered != nil {
			stack := debug.Stack()

			d.logger.WithContext(req.Context()).Error("handler panic recovered",
				observability.String("route", route),
				observability.String("method", req.Method),
				observability.String("path", req.Path),
				observability.Any("error", recovered),
				observability.String("stack", string(stack)),
			)
			d.metrics.RecordHandlerFailure(route, observability.FailureKindPanic)

			err = util.NewHandlerPanicError(route, recovered)
		}
	}()

	if herr := e.Handler.Handle(req, res, params); herr != nil {
		d.logger.WithContext(req.Context()).Error("handler failed",
			observability.String("route", route),
			observability.String("method", req.Method),
			observability.String("path", req.Path),
			observability.Error(herr),
		)
		d.metrics.RecordHandlerFailure(route, observability.FailureKindError)
		return util.NewHandlerFailureError(route, herr)
	}

	return nil
}

// matchStatic returns the mount with the longest prefix matching path.
func (d *Dispatcher) matchStatic(path string) (mount, bool) {
	for _, m := range d.mounts {
		if static.MatchesPrefix(m.prefix, path) {
			return m, true
		}
	}
	return mount{}, false
}

func (d *Dispatcher) serveStatic(m mount, req *router.Request, res *router.Response) (string, error) {
	route := observability.StaticRoute(m.prefix)

	if req.Method != http.MethodGet {
		err := util.NewMethodNotAllowedError(req.Method, req.Path)
		d.finalizeError(res, err)
		return route, err
	}

	var err error
	if m.server == nil {
		err = util.NewStaticFileNotFoundError(req.Path, "mount unavailable", nil)
		d.finalizeError(res, err)
	} else {
		err = m.server.Serve(req.Path, res)
	}

	result := observability.StaticResultServed
	if err != nil {
		result = observability.StaticResultNotFound
	}
	d.metrics.RecordStaticRequest(m.prefix, result)

	return route, err
}

// finalizeError replaces whatever is in res with the response for err.
func (d *Dispatcher) finalizeError(res *router.Response, err error) {
	status, body := util.StatusFor(err)
	res.Finalize(status, body)
}
