package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	chartQueryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songo_chart_query_duration_seconds",
			Help:    "Chart data request latency by database type and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"db_type", "status"},
	)

	rawQueryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songo_raw_query_duration_seconds",
			Help:    "Raw SQL execution latency by database type and outcome.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"db_type", "status"},
	)
)

func init() {
	prometheus.MustRegister(chartQueryDurationSeconds, rawQueryDurationSeconds)
}

func observeChartQuery(dbType, status string, elapsed time.Duration) {
	chartQueryDurationSeconds.WithLabelValues(dbType, status).Observe(elapsed.Seconds())
}

func observeRawQuery(dbType, status string, elapsed time.Duration) {
	rawQueryDurationSeconds.WithLabelValues(dbType, status).Observe(elapsed.Seconds())
}
