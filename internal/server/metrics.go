package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	extractionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idscan_extraction_requests_total",
			Help: "Total number of extraction requests",
		},
		[]string{"type", "status"}, // type: image, pdf, websocket_image; status: success, error, recapture
	)

	extractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idscan_extraction_duration_seconds",
			Help:    "Extraction processing duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"type"},
	)

	extractionFieldCount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idscan_extraction_fields",
			Help:    "Number of fields extracted per page",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"type"},
	)

	verificationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idscan_verification_requests_total",
			Help: "Total number of verification requests",
		},
		[]string{"overall_status"},
	)

	qualityGateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idscan_quality_gate_decisions_total",
			Help: "Quality gate decisions by verdict",
		},
		[]string{"decision"},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "idscan_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1 << 10, 10 << 10, 100 << 10, 1 << 20, 10 << 20, 50 << 20},
		},
	)

	rateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "idscan_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiting",
		},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "idscan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idscan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // sent, received
	)
)
