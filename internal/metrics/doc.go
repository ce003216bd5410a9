// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package metrics provides Prometheus metrics for the Photobeam gateway.

All collectors are registered on the default registry through promauto and
exposed at /metrics:

	curl http://localhost:5001/metrics

# Available Metrics

WebSocket Gateway:
  - websocket_connections: Authenticated connections (gauge)
  - websocket_handshakes_total: Handshakes (counter)
    Labels: result (accepted, rejected, timeout, aborted)
  - websocket_events_received_total: Inbound events (counter)
    Labels: event
  - websocket_events_dropped_total: Dropped inbound events (counter)
    Labels: reason
  - websocket_messages_sent_total: Messages queued to clients (counter)
  - websocket_slow_consumers_total: Connections detached for a full queue (counter)
  - websocket_broadcast_dropped_total: Broadcasts refused by a full hub queue (counter)

Token Verifier:
  - auth_verification_duration_seconds: Verification latency (histogram)
    Labels: strategy, outcome
  - auth_socket_tokens_issued_total: Issued socket credentials (counter)
    Labels: issuer

Upload Notices:
  - upload_notices_total: Notices (counter)
    Labels: source (http, nats), result (accepted, invalid, queue_full)
  - upload_notice_images_total: Descriptors broadcast (counter)

Circuit Breakers:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_state_transitions_total: Transitions (counter)
    Labels: name, from_state, to_state

HTTP API:
  - api_requests_total, api_request_duration_seconds
    Labels: method, endpoint (chi route pattern), status_code
  - api_active_requests: In-flight requests (gauge)
*/
package metrics
