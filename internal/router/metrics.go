package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// patternCacheMetrics contains Prometheus metrics for the pattern compile
// cache.
type patternCacheMetrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge
}

var (
	patternCacheMetricsInstance *patternCacheMetrics
	patternCacheMetricsOnce     sync.Once
)

// getPatternCacheMetrics returns the singleton pattern cache metrics
// instance.
func getPatternCacheMetrics() *patternCacheMetrics {
	patternCacheMetricsOnce.Do(func() {
		patternCacheMetricsInstance = &patternCacheMetrics{
			cacheHits: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "avroute",
					Subsystem: "router",
					Name:      "pattern_cache_hits_total",
					Help:      "Total number of pattern cache hits",
				},
			),
			cacheMisses: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "avroute",
					Subsystem: "router",
					Name:      "pattern_cache_misses_total",
					Help:      "Total number of pattern cache misses",
				},
			),
			cacheEvictions: prometheus.NewCounter(
				prometheus.CounterOpts{
					Namespace: "avroute",
					Subsystem: "router",
					Name:      "pattern_cache_evictions_total",
					Help:      "Total number of pattern cache evictions",
				},
			),
			cacheSize: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "avroute",
					Subsystem: "router",
					Name:      "pattern_cache_size",
					Help:      "Current number of entries in the pattern cache",
				},
			),
		}
	})
	return patternCacheMetricsInstance
}

// Collectors returns the router's process-wide collectors so they can be
// registered on a metrics registry.
func Collectors() []prometheus.Collector {
	m := getPatternCacheMetrics()
	return []prometheus.Collector{
		m.cacheHits,
		m.cacheMisses,
		m.cacheEvictions,
		m.cacheSize,
	}
}
