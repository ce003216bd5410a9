// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/photobeam/internal/middleware"
)

// ReadinessStatus is the body of the readiness probe.
type ReadinessStatus struct {
	Ready       bool    `json:"ready"`
	HubRunning  bool    `json:"hub_running"`
	Connections int     `json:"connections"`
	Transport   string  `json:"notice_transport"`
	Uptime      float64 `json:"uptime"`
}

// PerformanceReport is the body of the performance endpoint.
type PerformanceReport struct {
	Endpoints []middleware.EndpointStats `json:"endpoints"`
	Recent    []middleware.RequestSample `json:"recent"`
}

// maxRecentSamples caps the recent query parameter.
const maxRecentSamples = 100

// HealthLive reports that the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady returns 200 once the broadcast loop is running and 503 before
// that. The body always carries the current connection count.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	running := h.hub.Running()
	status := ReadinessStatus{
		Ready:       running,
		HubRunning:  running,
		Connections: h.hub.ClientCount(),
		Transport:   h.transport,
		Uptime:      time.Since(h.startTime).Seconds(),
	}

	code := http.StatusOK
	if !running {
		code = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).SuccessWithStatus(code, status)
}

// HealthPerformance returns latency statistics for the HTTP API.
// ?recent=N adds the N newest samples (at most 100).
func (h *Handler) HealthPerformance(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	recent := 0
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			rw.BadRequest("recent must be a non-negative integer")
			return
		}
		recent = min(n, maxRecentSamples)
	}

	rw.Success(PerformanceReport{
		Endpoints: h.perfMon.Stats(),
		Recent:    h.perfMon.Recent(recent),
	})
}
