// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/metrics"
	"github.com/tomtom215/photobeam/internal/models"
	"github.com/tomtom215/photobeam/internal/websocket"
)

const testSessionSecret = "session-secret-for-api-tests"

type fakeHub struct {
	running bool
	clients int
}

func (h *fakeHub) Running() bool    { return h.running }
func (h *fakeHub) ClientCount() int { return h.clients }

// recordingNotifier records notices; err, when set, is returned instead.
type recordingNotifier struct {
	mu      sync.Mutex
	err     error
	notices []*models.UploadNotice
}

func (n *recordingNotifier) NotifyUpload(_ context.Context, notice *models.UploadNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) received() []*models.UploadNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*models.UploadNotice(nil), n.notices...)
}

func postNotice(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/internal/upload-notices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.UploadNotice(rec, req)
	return rec
}

const validNoticeBody = `{"images":[
	{"secure_url":"https://cdn.example.com/t/2.jpg","asset_folder":"t","display_name":"second"},
	{"secure_url":"https://cdn.example.com/t/1.jpg","asset_folder":"t","display_name":"first"}
]}`

func TestUploadNotice_Accepted(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewHandler(&fakeHub{running: true}, notifier)

	accepted := metrics.UploadNotices.WithLabelValues(models.NoticeSourceHTTP, metrics.NoticeAccepted)
	before := testutil.ToFloat64(accepted)

	rec := postNotice(t, h, validNoticeBody)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var data UploadNoticeAccepted
	env := decodeEnvelope(t, rec, &data)
	if !env.Success || data.Images != 2 || data.Transport != "hub" || data.ID == "" {
		t.Errorf("response = %+v %+v", env, data)
	}

	got := notifier.received()
	if len(got) != 1 {
		t.Fatalf("notifier got %d notices, want 1", len(got))
	}
	if got[0].ID != data.ID || got[0].Source != models.NoticeSourceHTTP || got[0].PublishedAt.IsZero() {
		t.Errorf("notice not stamped: %+v", got[0])
	}
	if got[0].Images[0].DisplayName != "second" || got[0].Images[1].DisplayName != "first" {
		t.Errorf("image order changed: %+v", got[0].Images)
	}
	if d := testutil.ToFloat64(accepted) - before; d != 1 {
		t.Errorf("accepted delta = %v, want 1", d)
	}
}

func TestUploadNotice_SourceIsForced(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewHandler(&fakeHub{}, notifier)

	body := `{"id":"caller-id","source":"nats","images":[{"secure_url":"https://cdn.example.com/a.jpg","asset_folder":"f","display_name":"a"}]}`
	if rec := postNotice(t, h, body); rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	got := notifier.received()[0]
	if got.Source != models.NoticeSourceHTTP {
		t.Errorf("source = %s, want http", got.Source)
	}
	if got.ID != "caller-id" {
		t.Errorf("caller id not kept: %s", got.ID)
	}
}

func TestUploadNotice_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"not json", `images please`, ErrCodeBadRequest},
		{"empty list", `{"images":[]}`, ErrCodeValidationFailed},
		{"no images field", `{}`, ErrCodeValidationFailed},
		{"relative url", `{"images":[{"secure_url":"/a.jpg","asset_folder":"f","display_name":"a"}]}`, ErrCodeValidationFailed},
		{"missing url", `{"images":[{"asset_folder":"f","display_name":"a"}]}`, ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			rec := postNotice(t, NewHandler(&fakeHub{}, notifier), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			env := decodeEnvelope(t, rec, nil)
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want %s", env.Error, tt.wantCode)
			}
			if len(notifier.received()) != 0 {
				t.Error("rejected notice reached the notifier")
			}
		})
	}
}

func TestUploadNotice_DeliveryFailures(t *testing.T) {
	queueFull := metrics.UploadNotices.WithLabelValues(models.NoticeSourceHTTP, metrics.NoticeQueueFull)

	tests := []struct {
		name          string
		err           error
		wantQueueFull float64
	}{
		{"queue full", websocket.ErrBroadcastQueueFull, 1},
		{"wrapped queue full", errors.Join(errors.New("hub"), websocket.ErrBroadcastQueueFull), 1},
		{"publish failure", errors.New("nats: connection closed"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(queueFull)
			rec := postNotice(t, NewHandler(&fakeHub{}, &recordingNotifier{err: tt.err}), validNoticeBody)

			if rec.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", rec.Code)
			}
			env := decodeEnvelope(t, rec, nil)
			if env.Error == nil || env.Error.Code != ErrCodeServiceUnavailable {
				t.Errorf("error = %+v", env.Error)
			}
			if d := testutil.ToFloat64(queueFull) - before; d != tt.wantQueueFull {
				t.Errorf("queue_full delta = %v, want %v", d, tt.wantQueueFull)
			}
		})
	}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&fakeHub{}, &recordingNotifier{}).HealthLive(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var data map[string]interface{}
	decodeEnvelope(t, rec, &data)
	if rec.Code != http.StatusOK || data["alive"] != true {
		t.Errorf("status = %d data = %v", rec.Code, data)
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		hub        *fakeHub
		wantStatus int
	}{
		{"hub not running", &fakeHub{running: false, clients: 0}, http.StatusServiceUnavailable},
		{"hub running", &fakeHub{running: true, clients: 3}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.hub, &recordingNotifier{}, WithNoticeTransport("nats"))
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var status ReadinessStatus
			decodeEnvelope(t, rec, &status)
			if status.Ready != tt.hub.running || status.Connections != tt.hub.clients || status.Transport != "nats" {
				t.Errorf("status = %+v", status)
			}
		})
	}
}

func TestHealthPerformance(t *testing.T) {
	h := NewHandler(&fakeHub{}, &recordingNotifier{})

	tests := []struct {
		query      string
		wantStatus int
	}{
		{"", http.StatusOK},
		{"?recent=5", http.StatusOK},
		{"?recent=100000", http.StatusOK},
		{"?recent=abc", http.StatusBadRequest},
		{"?recent=-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.HealthPerformance(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health/performance"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// tokenHandler builds a handler whose socket tokens are JWTs.
func tokenHandler(t *testing.T) (*Handler, *auth.JWTStrategy) {
	t.Helper()
	strategy, err := auth.NewJWTStrategy(testSessionSecret, 5*time.Minute)
	if err != nil {
		t.Fatalf("NewJWTStrategy() error = %v", err)
	}
	sessions, err := auth.NewSessionAuthenticator(testSessionSecret, "auth_token")
	if err != nil {
		t.Fatalf("NewSessionAuthenticator() error = %v", err)
	}
	return NewHandler(&fakeHub{}, &recordingNotifier{}, WithTokenIssuer(strategy, sessions)), strategy
}

func sessionCookie(t *testing.T, secret string) *http.Cookie {
	t.Helper()
	claims := &auth.SessionClaims{
		UserID: "u-1",
		Email:  "alice@example.com",
		Name:   "Alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return &http.Cookie{Name: "auth_token", Value: signed}
}

func TestSessionToken_Issues(t *testing.T) {
	h, strategy := tokenHandler(t)
	issued := metrics.SocketTokensIssued.WithLabelValues("jwt")
	before := testutil.ToFloat64(issued)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session-token", nil)
	req.AddCookie(sessionCookie(t, testSessionSecret))
	rec := httptest.NewRecorder()
	h.SessionToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var token SocketToken
	decodeEnvelope(t, rec, &token)
	if token.Token == "" || token.Issuer != "jwt" || !token.ExpiresAt.After(time.Now()) {
		t.Fatalf("token = %+v", token)
	}

	identity, err := strategy.Verify(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if identity.ID != "u-1" || identity.Email != "alice@example.com" {
		t.Errorf("identity = %+v", identity)
	}
	if d := testutil.ToFloat64(issued) - before; d != 1 {
		t.Errorf("issued delta = %v, want 1", d)
	}
}

func TestSessionToken_Rejected(t *testing.T) {
	h, _ := tokenHandler(t)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no session", nil},
		{"wrong secret", sessionCookie(t, "some-other-secret")},
		{"garbage", &http.Cookie{Name: "auth_token", Value: "not-a-jwt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/session-token", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.SessionToken(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestSessionToken_Disabled(t *testing.T) {
	h := NewHandler(&fakeHub{}, &recordingNotifier{}, WithTokenIssuer(nil, nil))
	if h.TokenEndpointEnabled() {
		t.Fatal("endpoint should be disabled without an issuer")
	}
	rec := httptest.NewRecorder()
	h.SessionToken(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLegacySessionToken_BareBody(t *testing.T) {
	h, _ := tokenHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/session-token", nil)
	req.AddCookie(sessionCookie(t, testSessionSecret))
	rec := httptest.NewRecorder()
	h.LegacySessionToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body does not decode: %v", err)
	}
	if tok, _ := body["token"].(string); tok == "" {
		t.Errorf("top-level token missing: %v", body)
	}
	if _, ok := body["success"]; ok {
		t.Error("legacy body must not be wrapped in the envelope")
	}
}
