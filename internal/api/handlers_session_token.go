// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
)

// SocketToken is a short-lived credential for the websocket handshake.
type SocketToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Issuer    string    `json:"issuer,omitempty"`
}

// errTokenEndpointDisabled is returned by issueSocketToken when no issuer is configured.
var errTokenEndpointDisabled = errors.New("socket token endpoint disabled")

// SessionToken issues a socket credential to a caller holding a valid web
// session, wrapped in the standard envelope.
func (h *Handler) SessionToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	token, status, err := h.issueSocketToken(r)
	if err != nil {
		writeTokenError(rw, status)
		return
	}
	rw.Success(token)
}

// LegacySessionToken serves web clients that read {"token": ...} from the
// top level of the body.
func (h *Handler) LegacySessionToken(w http.ResponseWriter, r *http.Request) {
	token, status, err := h.issueSocketToken(r)
	if err != nil {
		writeTokenError(NewResponseWriter(w, r), status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(token); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to encode socket token")
	}
}

func writeTokenError(rw *ResponseWriter, status int) {
	switch status {
	case http.StatusUnauthorized:
		rw.Unauthorized("Valid session required")
	case http.StatusNotFound:
		rw.NotFound("Socket token endpoint is not enabled")
	default:
		rw.InternalError("Failed to issue socket token")
	}
}

// issueSocketToken authenticates the session and mints a token. The returned
// status is meaningful only when err is non-nil.
func (h *Handler) issueSocketToken(r *http.Request) (*SocketToken, int, error) {
	if h.issuer == nil || h.sessions == nil {
		return nil, http.StatusNotFound, errTokenEndpointDisabled
	}

	log := logging.Ctx(r.Context())

	identity, err := h.sessions.Authenticate(r)
	if err != nil {
		log.Debug().
			Str("reason", auth.RejectionReason(err)).
			Msg("Socket token request without valid session")
		return nil, http.StatusUnauthorized, err
	}

	token, expiresAt, err := h.issuer.Issue(r.Context(), identity)
	if err != nil {
		log.Error().
			Err(err).
			Str("issuer", h.issuer.Name()).
			Str("subject", identity.Subject()).
			Msg("Failed to issue socket token")
		return nil, http.StatusInternalServerError, err
	}

	metrics.SocketTokensIssued.WithLabelValues(h.issuer.Name()).Inc()
	log.Info().
		Str("issuer", h.issuer.Name()).
		Str("subject", identity.Subject()).
		Time("expires_at", expiresAt).
		Msg("Socket token issued")

	return &SocketToken{
		Token:     token,
		ExpiresAt: expiresAt,
		Issuer:    h.issuer.Name(),
	}, http.StatusOK, nil
}
