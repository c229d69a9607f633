// Package metrics provides Prometheus instrumentation for audiosplit.
//
// All collectors are registered with the default registry via promauto and
// are prefixed with "audiosplit_". Mount promhttp.Handler() to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Split job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosplit_jobs_total",
			Help: "Total number of finished split jobs by final status",
		},
		[]string{"status"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audiosplit_jobs_in_progress",
			Help: "Number of split jobs currently running",
		},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audiosplit_job_duration_seconds",
			Help:    "Wall time of split jobs in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

// Transcoder metrics
var (
	SegmentsWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiosplit_segments_written_total",
			Help: "Total number of segment files written",
		},
	)

	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audiosplit_transcode_duration_seconds",
			Help:    "Duration of individual ffmpeg segment invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ProbeFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audiosplit_probe_fallbacks_total",
			Help: "Number of times the metadata probe yielded no duration and the format query was used",
		},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiosplit_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiosplit_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
