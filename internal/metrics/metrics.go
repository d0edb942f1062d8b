// Package metrics exposes the Prometheus instrumentation for the sync
// engine: log-processing counters, push-attempt counters, and the
// watermark-lag gauge, all reachable on /metrics via internal/httpapi.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LogsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "binlogsync_logs_processed_total",
		Help: "The total number of change logs processed by the state-machine driver",
	}, []string{"kind", "outcome"})

	PushAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "binlogsync_push_attempts_total",
		Help: "The total number of MSS push attempts",
	}, []string{"kind", "result"})

	WatermarkLagSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "binlogsync_watermark_lag_seconds",
		Help: "Seconds between now and the last advanced watermark",
	})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "binlogsync_run_duration_seconds",
		Help:    "Time taken for a full binlog sync run",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	LockAcquireFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "binlogsync_lock_acquire_failures_total",
		Help: "The total number of failed distributed lock acquisitions",
	}, []string{"key"})
)
