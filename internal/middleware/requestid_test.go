// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tomtom215/photobeam/internal/logging"
)

// captureIDs serves through RequestID and returns the ids the handler saw.
func captureIDs(t *testing.T, header string) (requestID, correlationID string, rec *httptest.ResponseRecorder) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return requestID, correlationID, rec
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantKeep bool
	}{
		{"generated when absent", "", false},
		{"upstream id kept", "proxy-abc-123", true},
		{"blank replaced", "   ", false},
		{"oversized replaced", strings.Repeat("x", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestID, correlationID, rec := captureIDs(t, tt.header)

			if requestID == "" {
				t.Fatal("request id missing from context")
			}
			if correlationID == "" {
				t.Error("correlation id missing from context")
			}
			if got := rec.Header().Get(RequestIDHeader); got != requestID {
				t.Errorf("response header = %q, context = %q", got, requestID)
			}
			if tt.wantKeep && requestID != tt.header {
				t.Errorf("request id = %q, want %q", requestID, tt.header)
			}
			if !tt.wantKeep && requestID == tt.header {
				t.Errorf("request id %q should have been replaced", requestID)
			}
		})
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, _, _ := captureIDs(t, "")
		if seen[id] {
			t.Fatalf("duplicate request id %s", id)
		}
		seen[id] = true
	}
}
