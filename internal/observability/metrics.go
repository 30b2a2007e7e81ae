// Package observability holds the Prometheus metrics exposed on the
// /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects the counters and histograms for the flower pipeline
// and the HTTP surface.
type Metrics struct {
	TasksClaimedTotal   prometheus.Counter
	TasksCompletedTotal prometheus.Counter
	TasksRetriedTotal   prometheus.Counter
	TasksFailedTotal    prometheus.Counter

	StageDuration *prometheus.HistogramVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use their own
// registry so parallel tests never collide.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TasksClaimedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "flower_tasks_claimed_total",
			Help: "Total number of flower tasks claimed by the dispatcher",
		}),
		TasksCompletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "flower_tasks_completed_total",
			Help: "Total number of flower tasks completed",
		}),
		TasksRetriedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "flower_tasks_retried_total",
			Help: "Total number of flower tasks returned to pending for retry",
		}),
		TasksFailedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "flower_tasks_failed_total",
			Help: "Total number of flower tasks that exhausted their retries",
		}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flower_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "task_cache_hits_total",
			Help: "Total number of task status cache hits",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "task_cache_misses_total",
			Help: "Total number of task status cache misses",
		}),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
