// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Handshake results used as the "result" label of WSHandshakes.
const (
	HandshakeAccepted = "accepted"
	HandshakeRejected = "rejected"
	HandshakeTimeout  = "timeout"
	HandshakeAborted  = "aborted"
)

// Upload notice results used as the "result" label of UploadNotices.
const (
	NoticeAccepted  = "accepted"
	NoticeInvalid   = "invalid"
	NoticeQueueFull = "queue_full"
)

var (
	// WebSocket Gateway Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of authenticated WebSocket connections",
		},
	)

	WSHandshakes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_handshakes_total",
			Help: "Total number of WebSocket handshakes by result",
		},
		[]string{"result"}, // accepted, rejected, timeout, aborted
	)

	WSEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_received_total",
			Help: "Total number of inbound WebSocket events by type",
		},
		[]string{"event"},
	)

	WSEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_dropped_total",
			Help: "Total number of inbound WebSocket events dropped",
		},
		[]string{"reason"}, // malformed, empty_payload, unknown_type, rate_limited, unauthenticated
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages queued for delivery",
		},
	)

	WSSlowConsumers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_slow_consumers_total",
			Help: "Total number of connections detached because their send queue was full",
		},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_broadcast_dropped_total",
			Help: "Total number of broadcasts rejected because the hub queue was full",
		},
	)

	// Token Verifier Metrics
	VerificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auth_verification_duration_seconds",
			Help:    "Socket credential verification duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"strategy", "outcome"},
	)

	SocketTokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_socket_tokens_issued_total",
			Help: "Total number of socket credentials issued",
		},
		[]string{"issuer"},
	)

	// Upload Notice Metrics
	UploadNotices = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_notices_total",
			Help: "Total number of upload-completion notices by source and result",
		},
		[]string{"source", "result"},
	)

	UploadImages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_notice_images_total",
			Help: "Total number of image descriptors broadcast from upload notices",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordHandshake counts a finished websocket handshake.
func RecordHandshake(result string) {
	WSHandshakes.WithLabelValues(result).Inc()
}

// RecordVerification records how long a credential check took and how it ended.
// outcome is "ok" or a rejection reason.
func RecordVerification(strategy, outcome string, duration time.Duration) {
	VerificationDuration.WithLabelValues(strategy, outcome).Observe(duration.Seconds())
}

// RecordEventReceived counts an inbound event by its declared type.
func RecordEventReceived(event string) {
	WSEventsReceived.WithLabelValues(event).Inc()
}

// RecordEventDropped counts a dropped inbound event.
func RecordEventDropped(reason string) {
	WSEventsDropped.WithLabelValues(reason).Inc()
}

// RecordUploadNotice counts an upload notice and, when accepted, its images.
func RecordUploadNotice(source, result string, images int) {
	UploadNotices.WithLabelValues(source, result).Inc()
	if result == NoticeAccepted {
		UploadImages.Add(float64(images))
	}
}

// RecordCircuitBreakerTransition records a breaker state change. state is the
// numeric value of the new state (0=closed, 1=half-open, 2=open).
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// NATSPublishes counts upload notices published to the bus by result
// (ok, error, breaker_open).
var NATSPublishes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nats_publish_total",
		Help: "Total number of upload notices published to NATS",
	},
	[]string{"result"},
)

// RecordNATSPublish counts one publish attempt.
func RecordNATSPublish(result string) {
	NATSPublishes.WithLabelValues(result).Inc()
}
