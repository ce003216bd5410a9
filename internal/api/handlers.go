// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/middleware"
	"github.com/tomtom215/photobeam/internal/models"
)

// UploadNotifier accepts upload-completion notices. It is the NATS publisher
// when the bus is enabled and the local hub otherwise.
type UploadNotifier interface {
	NotifyUpload(ctx context.Context, notice *models.UploadNotice) error
}

// HubStatus reports the broadcast loop's state for readiness probes.
type HubStatus interface {
	Running() bool
	ClientCount() int
}

// SessionAuthenticator authenticates the caller of the socket token endpoint.
type SessionAuthenticator interface {
	Authenticate(r *http.Request) (auth.Identity, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: liveness, readiness and performance
//   - handlers_session_token.go: socket token issuance
//   - handlers_upload_notice.go: collaborator upload notices
type Handler struct {
	hub       HubStatus
	notifier  UploadNotifier
	issuer    auth.Issuer
	sessions  SessionAuthenticator
	perfMon   *middleware.PerformanceMonitor
	transport string
	startTime time.Time
}

// HandlerOption configures optional Handler dependencies.
type HandlerOption func(*Handler)

// WithTokenIssuer enables the socket token endpoint.
func WithTokenIssuer(issuer auth.Issuer, sessions SessionAuthenticator) HandlerOption {
	return func(h *Handler) {
		if issuer != nil && sessions != nil {
			h.issuer = issuer
			h.sessions = sessions
		}
	}
}

// WithPerformanceMonitor exposes the monitor's window on the performance endpoint.
func WithPerformanceMonitor(pm *middleware.PerformanceMonitor) HandlerOption {
	return func(h *Handler) {
		h.perfMon = pm
	}
}

// WithNoticeTransport names where upload notices go ("hub" or "nats"),
// reported by the readiness probe.
func WithNoticeTransport(name string) HandlerOption {
	return func(h *Handler) {
		h.transport = name
	}
}

// NewHandler creates the API handler. hub and notifier are required.
func NewHandler(hub HubStatus, notifier UploadNotifier, opts ...HandlerOption) *Handler {
	h := &Handler{
		hub:       hub,
		notifier:  notifier,
		transport: "hub",
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.perfMon == nil {
		h.perfMon = middleware.NewPerformanceMonitor(1000)
	}
	return h
}

// TokenEndpointEnabled reports whether the socket token endpoint is mounted.
func (h *Handler) TokenEndpointEnabled() bool {
	return h.issuer != nil
}

// PerformanceMonitor returns the monitor the router installs as middleware.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}
