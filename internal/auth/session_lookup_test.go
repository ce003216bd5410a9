// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

func newSessionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionLookup_Responses(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantIdentity Identity
		wantErr      error
	}{
		{
			name:         "active session",
			status:       http.StatusOK,
			body:         `{"user":{"id":"u-1","email":"alice@example.com","name":"Alice"},"expires":"2030-01-01T00:00:00.000Z"}`,
			wantIdentity: alice,
		},
		{
			name:         "user without id",
			status:       http.StatusOK,
			body:         `{"user":{"email":"bob@example.com","name":"Bob"}}`,
			wantIdentity: Identity{ID: "bob@example.com", Email: "bob@example.com", Name: "Bob"},
		},
		{name: "no session", status: http.StatusOK, body: `{}`, wantErr: ErrInvalidCredential},
		{name: "unauthorized", status: http.StatusUnauthorized, body: ``, wantErr: ErrInvalidCredential},
		{name: "forbidden", status: http.StatusForbidden, body: ``, wantErr: ErrInvalidCredential},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantErr: ErrVerificationFailed},
		{name: "malformed body", status: http.StatusOK, body: `<html>`, wantErr: ErrVerificationFailed},
		{name: "user without id or email", status: http.StatusOK, body: `{"user":{"name":"x"}}`, wantErr: ErrVerificationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			s, err := NewSessionLookupStrategy(SessionLookupConfig{URL: srv.URL})
			if err != nil {
				t.Fatalf("NewSessionLookupStrategy() error = %v", err)
			}

			identity, err := s.Verify(context.Background(), "session-token")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() unexpected error = %v", err)
			}
			if identity != tt.wantIdentity {
				t.Errorf("identity = %+v, want %+v", identity, tt.wantIdentity)
			}
		})
	}
}

func TestSessionLookup_SendsSessionCookies(t *testing.T) {
	var gotPlain, gotSecure string
	srv := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookieName); err == nil {
			gotPlain = c.Value
		}
		if c, err := r.Cookie(secureSessionCookieName); err == nil {
			gotSecure = c.Value
		}
		_, _ = w.Write([]byte(`{"user":{"id":"u-1","email":"alice@example.com","name":"Alice"}}`))
	})

	s, _ := NewSessionLookupStrategy(SessionLookupConfig{URL: srv.URL})
	if _, err := s.Verify(context.Background(), "abc123"); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if gotPlain != "abc123" || gotSecure != "abc123" {
		t.Errorf("cookies = %q / %q, want both abc123", gotPlain, gotSecure)
	}
}

func TestSessionLookup_RejectsCookieBreakingTokens(t *testing.T) {
	var hits atomic.Int32
	srv := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"user":{"id":"u-1","email":"alice@example.com"}}`))
	})
	s, _ := NewSessionLookupStrategy(SessionLookupConfig{URL: srv.URL})

	tests := []struct {
		name       string
		credential string
	}{
		{"semicolon", "abc; admin=1"},
		{"bare semicolon", "abc;admin=1"},
		{"space", "abc def"},
		{"tab", "abc\tdef"},
		{"newline", "abc\r\nX-Injected: 1"},
		{"nul", "abc\x00"},
		{"comma", "abc,def"},
		{"quote", `abc"def`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(context.Background(), tt.credential)
			if !errors.Is(err, ErrInvalidCredential) {
				t.Fatalf("Verify() error = %v, want ErrInvalidCredential", err)
			}
		})
	}

	if hits.Load() != 0 {
		t.Errorf("server hits = %d, want 0", hits.Load())
	}
	if s.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", s.State())
	}

	// JWE session tokens use base64url segments joined by dots.
	if _, err := s.Verify(context.Background(), "eyJhbGciOiJkaXIifQ..aGVsbG8.d29ybGQ-_x.dGFn"); err != nil {
		t.Errorf("Verify() on a well-formed token error = %v", err)
	}
}

func TestSessionLookup_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s, _ := NewSessionLookupStrategy(SessionLookupConfig{URL: url, Timeout: time.Second})
	_, err := s.Verify(context.Background(), "token")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("Verify() error = %v, want ErrVerificationFailed", err)
	}
}

func TestSessionLookup_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	s, _ := NewSessionLookupStrategy(SessionLookupConfig{
		URL:              srv.URL,
		BreakerThreshold: 2,
		BreakerTimeout:   time.Minute,
	})

	for i := 0; i < 2; i++ {
		if _, err := s.Verify(context.Background(), "token"); !errors.Is(err, ErrVerificationFailed) {
			t.Fatalf("Verify() #%d error = %v, want ErrVerificationFailed", i, err)
		}
	}
	if s.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", s.State())
	}

	_, err := s.Verify(context.Background(), "token")
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("Verify() with open breaker error = %v, want ErrVerificationFailed", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 (open breaker must not call out)", hits.Load())
	}
}

func TestSessionLookup_RejectionsDoNotTripBreaker(t *testing.T) {
	srv := newSessionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	s, _ := NewSessionLookupStrategy(SessionLookupConfig{URL: srv.URL, BreakerThreshold: 1})
	for i := 0; i < 5; i++ {
		if _, err := s.Verify(context.Background(), "token"); !errors.Is(err, ErrInvalidCredential) {
			t.Fatalf("Verify() #%d error = %v, want ErrInvalidCredential", i, err)
		}
	}
	if s.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", s.State())
	}
}

func TestNewSessionLookupStrategy_RequiresURL(t *testing.T) {
	if _, err := NewSessionLookupStrategy(SessionLookupConfig{}); err == nil {
		t.Error("NewSessionLookupStrategy() expected error for empty URL")
	}
}
