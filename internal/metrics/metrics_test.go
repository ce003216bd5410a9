// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordHandshake(t *testing.T) {
	results := []string{HandshakeAccepted, HandshakeRejected, HandshakeTimeout, HandshakeAborted}

	for _, result := range results {
		t.Run(result, func(t *testing.T) {
			before := testutil.ToFloat64(WSHandshakes.WithLabelValues(result))
			RecordHandshake(result)
			after := testutil.ToFloat64(WSHandshakes.WithLabelValues(result))
			if after-before != 1 {
				t.Errorf("handshake %s delta = %v, want 1", result, after-before)
			}
		})
	}
}

func TestRecordVerification(t *testing.T) {
	observer := VerificationDuration.WithLabelValues("jwt", "ok")
	before := histogramCount(t, observer)

	RecordVerification("jwt", "ok", 3*time.Millisecond)
	RecordVerification("jwt", "ok", 7*time.Millisecond)

	if got := histogramCount(t, observer) - before; got != 2 {
		t.Errorf("sample count delta = %d, want 2", got)
	}
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	h, ok := o.(prometheus.Histogram)
	if !ok {
		t.Fatalf("observer is %T, want prometheus.Histogram", o)
	}
	var m dto.Metric
	if err := h.Write(&m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecordEvents(t *testing.T) {
	recvBefore := testutil.ToFloat64(WSEventsReceived.WithLabelValues("message"))
	dropBefore := testutil.ToFloat64(WSEventsDropped.WithLabelValues("rate_limited"))

	RecordEventReceived("message")
	RecordEventDropped("rate_limited")
	RecordEventDropped("rate_limited")

	if d := testutil.ToFloat64(WSEventsReceived.WithLabelValues("message")) - recvBefore; d != 1 {
		t.Errorf("received delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(WSEventsDropped.WithLabelValues("rate_limited")) - dropBefore; d != 2 {
		t.Errorf("dropped delta = %v, want 2", d)
	}
}

func TestRecordUploadNotice(t *testing.T) {
	imagesBefore := testutil.ToFloat64(UploadImages)
	acceptedBefore := testutil.ToFloat64(UploadNotices.WithLabelValues("http", NoticeAccepted))

	RecordUploadNotice("http", NoticeAccepted, 3)
	RecordUploadNotice("http", NoticeInvalid, 5)

	if d := testutil.ToFloat64(UploadImages) - imagesBefore; d != 3 {
		t.Errorf("images delta = %v, want 3 (invalid notices are not counted)", d)
	}
	if d := testutil.ToFloat64(UploadNotices.WithLabelValues("http", NoticeAccepted)) - acceptedBefore; d != 1 {
		t.Errorf("accepted delta = %v, want 1", d)
	}
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	RecordCircuitBreakerTransition("session-lookup", "closed", "open", 2)

	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("session-lookup")); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}

	RecordCircuitBreakerTransition("session-lookup", "open", "half-open", 1)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("session-lookup")); got != 1 {
		t.Errorf("state = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CircuitBreakerTransitions.WithLabelValues("session-lookup", "closed", "open")); got < 1 {
		t.Errorf("transition count = %v, want >= 1", got)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health/live", "200"))
	RecordAPIRequest("GET", "/api/v1/health/live", "200", time.Millisecond)
	if d := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/health/live", "200")) - before; d != 1 {
		t.Errorf("request delta = %v, want 1", d)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestMetricLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer,
		"websocket_handshakes_total", "auth_verification_duration_seconds", "upload_notices_total")
	if err != nil {
		t.Fatalf("GatherAndLint failed: %v", err)
	}
	for _, p := range problems {
		t.Logf("metric lint problem: %s: %s", p.Metric, p.Text)
	}
}

func TestRecordNATSPublish(t *testing.T) {
	for _, result := range []string{"ok", "error", "breaker_open"} {
		before := testutil.ToFloat64(NATSPublishes.WithLabelValues(result))
		RecordNATSPublish(result)
		if d := testutil.ToFloat64(NATSPublishes.WithLabelValues(result)) - before; d != 1 {
			t.Errorf("publish %s delta = %v, want 1", result, d)
		}
	}
}
