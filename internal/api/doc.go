// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package api provides the gateway's HTTP surface on a chi router.

Routes:

	GET  {gateway.path}                     websocket upgrade (default /ws)
	GET  /api/v1/health/live                liveness
	GET  /api/v1/health/ready               503 until the hub loop runs
	GET  /api/v1/health/performance         request latency window
	GET  /api/v1/session-token              socket credential for a web session
	GET  /api/session-token                 same, bare {"token": ...} body
	POST /api/v1/internal/upload-notices    collaborator upload notice
	GET  /metrics                           Prometheus

The session token routes are mounted only when an issuer is configured, and
the upload-notice route only when COLLABORATOR_KEY is set. Upload
notices require the X-Collaborator-Key header.

Responses other than /metrics, the websocket and the bare token route use the
APIResponse envelope:

	{
	  "success": false,
	  "error": {"code": "VALIDATION_FAILED", "message": "...", "request_id": "..."},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 0}
	}

Middleware order is RequestID, RealIP, Recoverer and CORS globally, then a
per-group httprate limit, APISecurityHeaders and Prometheus metrics.
*/
package api
