// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package websocket

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/config"
	"github.com/tomtom215/photobeam/internal/logging"
)

// CredentialVerifier turns a handshake credential into an identity.
// *auth.TokenVerifier is the production implementation.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (auth.Identity, error)
}

// Gateway is the websocket endpoint. It upgrades allowed origins, runs the
// credential handshake for each connection and hands authenticated
// connections to the hub.
type Gateway struct {
	cfg      config.GatewayConfig
	verifier CredentialVerifier
	hub      *Hub
	registry *Registry
	upgrader websocket.Upgrader

	anyOrigin bool
	origins   map[string]bool
}

// NewGateway creates a gateway. Zero values in cfg fall back to defaults.
func NewGateway(cfg config.GatewayConfig, verifier CredentialVerifier, hub *Hub) *Gateway {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 512 * 1024
	}
	if cfg.CredentialQuery == "" {
		cfg.CredentialQuery = "token"
	}
	if cfg.CredentialCookie == "" {
		cfg.CredentialCookie = "socket_token"
	}

	g := &Gateway{
		cfg:      cfg,
		verifier: verifier,
		hub:      hub,
		registry: hub.Registry(),
		origins:  make(map[string]bool, len(cfg.AllowedOrigins)),
	}
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			g.anyOrigin = true
			continue
		}
		if origin != "" {
			g.origins[strings.ToLower(origin)] = true
		}
	}

	g.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      g.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return g
}

// ServeHTTP upgrades the request and starts the connection's handshake.
// The credential is read from the upgrade request only.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credential := g.extractCredential(r)

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error response.
		logging.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New().String()
	// The request context ends when ServeHTTP returns; keep its values only.
	ctx := logging.ContextWithConnID(context.WithoutCancel(r.Context()), id)
	client := newClient(ctx, g, conn, id)

	go client.readPump()
	go client.handshake(credential)
}

// checkOrigin accepts only configured origins. Browsers always send Origin
// on websocket upgrades, so a missing header is rejected as well.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if g.anyOrigin || g.origins[strings.ToLower(strings.TrimRight(origin, "/"))] {
		return true
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// extractCredential reads the query parameter, then the Authorization
// header, then the credential cookie.
func (g *Gateway) extractCredential(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get(g.cfg.CredentialQuery)); token != "" {
		return token
	}
	if token := auth.BearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(g.cfg.CredentialCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func (g *Gateway) newLimiter() *rate.Limiter {
	if g.cfg.EventRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := g.cfg.EventBurst
	if burst < 1 {
		burst = int(g.cfg.EventRate) + 1
	}
	return rate.NewLimiter(rate.Limit(g.cfg.EventRate), burst)
}

// sanitizeLogValue escapes control characters so client-supplied values
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
