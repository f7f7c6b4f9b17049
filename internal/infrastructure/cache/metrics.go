package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	backendPrimary  = "primary"
	backendFallback = "fallback"
)

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetcare_cache_hits_total",
			Help: "The total number of cache hits by backend",
		},
		[]string{"backend"},
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetcare_cache_misses_total",
			Help: "The total number of cache misses by backend",
		},
		[]string{"backend"},
	)

	cacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vetcare_cache_errors_total",
			Help: "The total number of swallowed primary backend errors by operation",
		},
		[]string{"operation"},
	)

	cacheInvalidations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vetcare_cache_invalidations_total",
			Help: "The total number of keys removed by pattern invalidation",
		},
	)

	cacheConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vetcare_cache_connected",
			Help: "Whether the primary cache backend is connected (1) or not (0)",
		},
	)

	fallbackSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vetcare_cache_fallback_entries",
			Help: "The current number of entries in the in-process fallback store",
		},
	)
)

func init() {
	prometheus.MustRegister(cacheHits)
	prometheus.MustRegister(cacheMisses)
	prometheus.MustRegister(cacheErrors)
	prometheus.MustRegister(cacheInvalidations)
	prometheus.MustRegister(cacheConnected)
	prometheus.MustRegister(fallbackSize)
}
