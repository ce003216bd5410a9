// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package middleware provides chi-compatible HTTP middleware shared by the
gateway's routes.

  - RequestID: assigns or propagates X-Request-ID and seeds the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    chi route pattern
  - PerformanceMonitor: in-memory sliding window of request latencies, served
    at /api/v1/health/performance

Route patterns are read after the router has matched, so the middleware must
be installed with chi's Use or With rather than wrapped around the router.

The websocket endpoint is not wrapped by the sampling middleware: a socket's
lifetime is not a request latency.
*/
package middleware
