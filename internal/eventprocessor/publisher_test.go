// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/photobeam/internal/config"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/models"
)

// recordingPublisher is a message.Publisher that records or fails.
type recordingPublisher struct {
	mu       sync.Mutex
	err      error
	topics   []string
	messages []*message.Message
	closed   int
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for _, msg := range msgs {
		p.topics = append(p.topics, topic)
		p.messages = append(p.messages, msg)
	}
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func (p *recordingPublisher) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func TestNoticePublisher_Publish(t *testing.T) {
	rec := &recordingPublisher{}
	pub := newNoticePublisher(rec, "photobeam.uploads.completed", DefaultCircuitBreakerConfig("test-publish"))

	ctx := logging.ContextWithCorrelationID(context.Background(), "corr-1")
	notice := models.NewUploadNotice(testImages("a", "b"), models.NoticeSourceHTTP)

	if err := pub.NotifyUpload(ctx, notice); err != nil {
		t.Fatalf("NotifyUpload() error = %v", err)
	}
	if rec.calls() != 1 {
		t.Fatalf("published %d messages, want 1", rec.calls())
	}

	msg := rec.messages[0]
	if rec.topics[0] != "photobeam.uploads.completed" {
		t.Errorf("topic = %s", rec.topics[0])
	}
	if msg.UUID != notice.ID {
		t.Errorf("UUID = %s, want notice id %s", msg.UUID, notice.ID)
	}
	if msg.Metadata.Get(MetadataSource) != models.NoticeSourceHTTP {
		t.Errorf("source metadata = %q", msg.Metadata.Get(MetadataSource))
	}
	if msg.Metadata.Get(MetadataCorrelationID) != "corr-1" {
		t.Errorf("correlation metadata = %q", msg.Metadata.Get(MetadataCorrelationID))
	}

	decoded, err := UnmarshalNotice(msg.Payload)
	if err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	if decoded.Images[0].DisplayName != "a" || decoded.Images[1].DisplayName != "b" {
		t.Errorf("image order changed: %+v", decoded.Images)
	}
}

func TestNoticePublisher_InvalidNoticeNotPublished(t *testing.T) {
	rec := &recordingPublisher{}
	pub := newNoticePublisher(rec, "s", DefaultCircuitBreakerConfig("test-invalid"))

	err := pub.NotifyUpload(context.Background(), &models.UploadNotice{ID: "n-1"})
	if !errors.Is(err, ErrInvalidNotice) {
		t.Errorf("NotifyUpload() error = %v, want ErrInvalidNotice", err)
	}
	if rec.calls() != 0 {
		t.Error("invalid notice should not be published")
	}
}

func TestNoticePublisher_BreakerOpens(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("nats: connection closed")}
	cbCfg := DefaultCircuitBreakerConfig("test-breaker")
	cbCfg.FailureThreshold = 2
	cbCfg.Timeout = time.Minute
	pub := newNoticePublisher(rec, "s", cbCfg)

	notice := models.NewUploadNotice(testImages("a"), models.NoticeSourceHTTP)
	for i := 0; i < 2; i++ {
		if err := pub.NotifyUpload(context.Background(), notice); err == nil {
			t.Fatalf("attempt %d should fail", i)
		}
	}
	if pub.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %s, want open", pub.State())
	}

	// Recovered transport is not tried while the breaker is open.
	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	err := pub.NotifyUpload(context.Background(), notice)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("NotifyUpload() error = %v, want ErrOpenState", err)
	}
	if rec.calls() != 0 {
		t.Error("open breaker should not reach the publisher")
	}
}

func TestNoticePublisher_Close(t *testing.T) {
	rec := &recordingPublisher{}
	pub := newNoticePublisher(rec, "s", DefaultCircuitBreakerConfig("test-close"))

	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if rec.closed != 1 {
		t.Errorf("underlying Close called %d times, want 1", rec.closed)
	}

	notice := models.NewUploadNotice(testImages("a"), models.NoticeSourceHTTP)
	if err := pub.NotifyUpload(context.Background(), notice); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("NotifyUpload() after Close = %v, want ErrPublisherClosed", err)
	}
}

func TestNewNoticePublisher_RequiresSubject(t *testing.T) {
	_, err := NewNoticePublisher(config.NATSConfig{URL: "nats://127.0.0.1:4222"}, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewNoticePublisher() error = %v, want ErrInvalidConfig", err)
	}
}

func TestCircuitBreaker_CancellationIsNotFailure(t *testing.T) {
	cb := NewCircuitBreaker[struct{}](CircuitBreakerConfig{Name: "test-cancel", FailureThreshold: 1, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (struct{}, error) { return struct{}{}, context.Canceled })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %s, want closed", cb.State())
	}

	_, _ = cb.Execute(func() (struct{}, error) { return struct{}{}, errors.New("down") })
	if cb.State() != gobreaker.StateOpen {
		t.Errorf("State() = %s, want open", cb.State())
	}
}
