// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
)

// NextAuth session cookie names. The __Secure- variant is used by the web app
// when served over https; both are sent so either deployment matches.
const (
	sessionCookieName       = "next-auth.session-token"
	secureSessionCookieName = "__Secure-next-auth.session-token"

	// maxSessionBody caps the session response read.
	maxSessionBody = 64 << 10
)

// SessionLookupConfig configures a SessionLookupStrategy.
type SessionLookupConfig struct {
	// URL is the web app session endpoint, e.g. http://web:3000/api/auth/session.
	URL string

	// Timeout bounds one lookup. Defaults to 5s.
	Timeout time.Duration

	// BreakerThreshold is the number of consecutive failures that opens the
	// circuit. Defaults to 5.
	BreakerThreshold uint32

	// BreakerTimeout is how long the circuit stays open before a probe.
	// Defaults to 30s.
	BreakerTimeout time.Duration

	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// sessionResponse is the NextAuth /api/auth/session body.
type sessionResponse struct {
	User *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	Expires string `json:"expires"`
}

// SessionLookupStrategy treats the credential as a NextAuth session token and
// asks the web app who it belongs to.
//
// Lookups run through a circuit breaker. Rejections by the web app (no user,
// 401, 403) count as successful calls; only transport failures and unexpected
// responses trip the breaker.
type SessionLookupStrategy struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[Identity]
}

// NewSessionLookupStrategy creates a session lookup strategy.
func NewSessionLookupStrategy(cfg SessionLookupConfig) (*SessionLookupStrategy, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("session lookup URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BreakerThreshold == 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	threshold := cfg.BreakerThreshold
	settings := gobreaker.Settings{
		Name:        "session-lookup",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrInvalidCredential) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &SessionLookupStrategy{
		url:     cfg.URL,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker[Identity](settings),
	}, nil
}

// Name implements Strategy.
func (s *SessionLookupStrategy) Name() string {
	return "session"
}

// State returns the circuit breaker state.
func (s *SessionLookupStrategy) State() gobreaker.State {
	return s.breaker.State()
}

// Verify implements Strategy.
func (s *SessionLookupStrategy) Verify(ctx context.Context, credential string) (Identity, error) {
	if !validCookieValue(credential) {
		return Identity{}, fmt.Errorf("%w: session token has characters not allowed in a cookie", ErrInvalidCredential)
	}
	identity, err := s.breaker.Execute(func() (Identity, error) {
		return s.lookup(ctx, credential)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Identity{}, fmt.Errorf("%w: session lookup unavailable: %v", ErrVerificationFailed, err)
	}
	return identity, err
}

// validCookieValue rejects tokens that would split or corrupt the Cookie
// header.
func validCookieValue(credential string) bool {
	return !strings.ContainsFunc(credential, func(r rune) bool {
		return r == ';' || r == ',' || r == '"' || r == '\\' || unicode.IsSpace(r) || unicode.IsControl(r)
	})
}

func (s *SessionLookupStrategy) lookup(ctx context.Context, credential string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: build session request: %v", ErrVerificationFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cookie", sessionCookieName+"="+credential+"; "+secureSessionCookieName+"="+credential)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Identity{}, ctx.Err()
		}
		return Identity{}, fmt.Errorf("%w: session lookup: %v", ErrVerificationFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Identity{}, fmt.Errorf("%w: session rejected with status %d", ErrInvalidCredential, resp.StatusCode)
	default:
		return Identity{}, fmt.Errorf("%w: session lookup returned status %d", ErrVerificationFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSessionBody))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: read session response: %v", ErrVerificationFailed, err)
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return Identity{}, fmt.Errorf("%w: decode session response: %v", ErrVerificationFailed, err)
	}
	if session.User == nil {
		return Identity{}, fmt.Errorf("%w: no active session", ErrInvalidCredential)
	}

	identity := Identity{ID: session.User.ID, Email: session.User.Email, Name: session.User.Name}
	if identity.ID == "" {
		identity.ID = identity.Email
	}
	if !identity.Valid() {
		return Identity{}, fmt.Errorf("%w: session user has no id or email", ErrVerificationFailed)
	}
	return identity, nil
}
