package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "songo_cache_hits_total",
			Help: "Total number of chart data cache hits.",
		},
	)

	cacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "songo_cache_misses_total",
			Help: "Total number of chart data cache misses.",
		},
	)

	cacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songo_cache_errors_total",
			Help: "Total number of cache store errors by operation.",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(cacheHitsTotal, cacheMissesTotal, cacheErrorsTotal)
}
