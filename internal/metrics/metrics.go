package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts render and parse operations by outcome.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convcom_messages_total",
			Help: "Total number of commit messages rendered or parsed",
		},
		[]string{"operation", "status"},
	)

	// MessageBytes tracks the size of canonical commit messages.
	MessageBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convcom_message_bytes",
			Help:    "Size of canonical commit messages in bytes",
			Buckets: prometheus.ExponentialBuckets(32, 4, 7),
		},
		[]string{"operation"},
	)

	// JobsTotal counts queued jobs processed by outcome.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convcom_jobs_total",
			Help: "Total number of queued jobs processed",
		},
		[]string{"status"},
	)

	// WorkersActive tracks the number of workers currently processing a job.
	WorkersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "convcom_workers_active",
			Help: "Number of active workers",
		},
	)

	// WorkersTotal tracks the total number of workers.
	WorkersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "convcom_workers_total",
			Help: "Total number of workers",
		},
	)

	// WebhookDeliveries counts webhook delivery attempts.
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convcom_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"status"},
	)

	// HTTPRequests counts total HTTP requests.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convcom_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration tracks HTTP request duration.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convcom_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path"},
	)
)
