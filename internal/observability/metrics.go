package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute is the route label for requests that matched neither an
// endpoint nor a static mount, ensuring bounded cardinality.
const UnmatchedRoute = "unmatched"

// StaticRoute returns the route label used for a static mount.
func StaticRoute(prefix string) string {
	return "static:" + prefix
}

// Handler failure kinds.
const (
	FailureKindError = "error"
	FailureKindPanic = "panic"
)

// Static lookup results.
const (
	StaticResultServed   = "served"
	StaticResultNotFound = "not_found"
)

// Metrics holds the Prometheus metrics of the dispatch pipeline.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	filterRejections *prometheus.CounterVec
	handlerFailures  *prometheus.CounterVec
	staticRequests   *prometheus.CounterVec
	buildInfo        *prometheus.GaugeVec
	startTime        prometheus.Gauge
	registry         *prometheus.Registry
}

// NewMetrics creates a new Metrics instance backed by its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "avroute"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of dispatched requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Dispatch duration in seconds",
			Buckets: []float64{
				.0001, .0005, .001, .005, .01,
				.025, .05, .1, .25, .5, 1,
			},
		},
		[]string{"method", "route"},
	)

	m.filterRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_rejections_total",
			Help:      "Total number of requests aborted by a filter",
		},
		[]string{"route", "status"},
	)

	m.handlerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_failures_total",
			Help: "Total number of handler errors " +
				"and panics",
		},
		[]string{"route", "kind"},
	)

	m.staticRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "static_requests_total",
			Help:      "Total number of static file lookups",
		},
		[]string{"prefix", "result"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Start time in unix seconds",
		},
	)

	m.registerCollectors()

	m.startTime.SetToCurrentTime()

	return m
}

// registerCollectors registers all metric collectors with the
// Prometheus registry.
func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.filterRejections,
		m.handlerFailures,
		m.staticRequests,
		m.buildInfo,
		m.startTime,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{},
		),
	)
}

// RecordRequest records a completed dispatch. The route parameter must be
// the endpoint pattern or a static label, never the raw path.
func (m *Metrics) RecordRequest(
	method, route string,
	status int,
	duration time.Duration,
) {
	m.requestsTotal.WithLabelValues(
		method, route, strconv.Itoa(status),
	).Inc()
	m.requestDuration.WithLabelValues(
		method, route,
	).Observe(duration.Seconds())
}

// RecordFilterRejection records a request aborted by a filter.
func (m *Metrics) RecordFilterRejection(route string, status int) {
	m.filterRejections.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// RecordHandlerFailure records a handler error or panic.
func (m *Metrics) RecordHandlerFailure(route, kind string) {
	m.handlerFailures.WithLabelValues(route, kind).Inc()
}

// RecordStaticRequest records the result of a static file lookup.
func (m *Metrics) RecordStaticRequest(prefix, result string) {
	m.staticRequests.WithLabelValues(prefix, result).Inc()
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(
	version, commit, buildTime string,
) {
	m.buildInfo.WithLabelValues(
		version, commit, buildTime,
	).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
