// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/photobeam/internal/config"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/middleware"
)

// Router wires the HTTP API and the websocket endpoint onto one chi router.
type Router struct {
	handler         *Handler
	chiMiddleware   *ChiMiddleware
	gateway         http.Handler
	gatewayPath     string
	collaboratorKey string
}

// NewRouter creates a router. gateway is mounted at gatewayPath; an empty
// path falls back to /ws.
func NewRouter(handler *Handler, gateway http.Handler, gatewayPath string, sec config.SecurityConfig) *Router {
	if gatewayPath == "" {
		gatewayPath = "/ws"
	}
	return &Router{
		handler:         handler,
		chiMiddleware:   NewChiMiddleware(ChiMiddlewareConfigFromSecurity(sec)),
		gateway:         gateway,
		gatewayPath:     gatewayPath,
		collaboratorKey: sec.CollaboratorKey,
	}
}

// SetupChi configures all routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).MethodNotAllowed()
	})

	// Websocket upgrades. The hijacked connection must not pass through
	// response-wrapping middleware.
	if router.gateway != nil {
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitWebSocket)).
			Get(router.gatewayPath, router.gateway.ServeHTTP)
	}

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/performance", router.handler.HealthPerformance)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.handler.PerformanceMonitor().Middleware)

		if router.handler.TokenEndpointEnabled() {
			r.With(router.chiMiddleware.RateLimitCustom(RateLimitToken)).
				Get("/session-token", router.handler.SessionToken)
		}

		if router.collaboratorKey != "" {
			r.With(RequireCollaboratorKey(router.collaboratorKey)).
				Post("/internal/upload-notices", router.handler.UploadNotice)
		}
	})

	if router.handler.TokenEndpointEnabled() {
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitCustom(RateLimitToken))
			r.Use(APISecurityHeaders())
			r.Use(middleware.PrometheusMetrics)
			r.Get("/api/session-token", router.handler.LegacySessionToken)
		})
	}

	r.Handle("/metrics", promhttp.Handler())

	logging.Info().
		Str("ws_path", router.gatewayPath).
		Bool("session_token", router.handler.TokenEndpointEnabled()).
		Bool("upload_notices", router.collaboratorKey != "").
		Msg("HTTP routes configured")

	return r
}
