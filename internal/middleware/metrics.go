package middleware

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MiddlewareMetrics holds Prometheus metrics for middleware
// operations.
type MiddlewareMetrics struct {
	bodyLimitRejected prometheus.Counter
	panicsRecovered   prometheus.Counter
}

var (
	middlewareMetrics     *MiddlewareMetrics
	middlewareMetricsOnce sync.Once
)

// GetMiddlewareMetrics returns the singleton middleware metrics
// instance.
func GetMiddlewareMetrics() *MiddlewareMetrics {
	middlewareMetricsOnce.Do(func() {
		middlewareMetrics = &MiddlewareMetrics{
			bodyLimitRejected: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "avroute",
					Subsystem: "middleware",
					Name:      "body_limit_rejected_total",
					Help: "Total number of requests " +
						"rejected due to body size limit",
				},
			),
			panicsRecovered: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "avroute",
					Subsystem: "middleware",
					Name:      "panics_recovered_total",
					Help: "Total number of panics " +
						"recovered",
				},
			),
		}
	})
	return middlewareMetrics
}

// Collectors returns the middleware collectors for registration.
func Collectors() []prometheus.Collector {
	m := GetMiddlewareMetrics()
	return []prometheus.Collector{
		m.bodyLimitRejected,
		m.panicsRecovered,
	}
}
