// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/photobeam/internal/config"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
	"github.com/tomtom215/photobeam/internal/models"
)

// Metadata keys set on published notices.
const (
	MetadataSource        = "source"
	MetadataCorrelationID = "correlation_id"
)

// connectionOptions returns the NATS options shared by publisher and
// subscriber: retry the first connect, reconnect per cfg, log transitions.
func connectionOptions(cfg config.NATSConfig, role string, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("photobeam-" + role),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"role": role,
				"url":  nc.ConnectedUrl(),
			})
		}),
	}
}

// NoticePublisher publishes upload notices to the bus behind a circuit
// breaker. It satisfies the same NotifyUpload contract as the websocket hub,
// so the HTTP collaborator endpoint can use either.
type NoticePublisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	subject   string

	mu     sync.RWMutex
	closed bool
}

// NewNoticePublisher connects a core NATS publisher to cfg.URL.
func NewNoticePublisher(cfg config.NATSConfig, logger watermill.LoggerAdapter) (*NoticePublisher, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = NewWatermillLogger("nats-publisher")
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: connectionOptions(cfg, "publisher", logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return newNoticePublisher(pub, cfg.Subject, DefaultCircuitBreakerConfig("nats-publisher")), nil
}

func newNoticePublisher(pub message.Publisher, subject string, cbCfg CircuitBreakerConfig) *NoticePublisher {
	return &NoticePublisher{
		publisher: pub,
		breaker:   NewCircuitBreaker[struct{}](cbCfg),
		subject:   subject,
	}
}

// NotifyUpload publishes notice. Delivery to sockets happens in every
// instance's UploadBridge.
func (p *NoticePublisher) NotifyUpload(ctx context.Context, notice *models.UploadNotice) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	payload, err := MarshalNotice(notice)
	if err != nil {
		return err
	}

	msg := message.NewMessage(notice.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataSource, notice.Source)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(p.subject, msg)
	})
	switch {
	case err == nil:
		metrics.RecordNATSPublish("ok")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordNATSPublish("breaker_open")
		return fmt.Errorf("publish notice %s: %w", notice.ID, err)
	default:
		metrics.RecordNATSPublish("error")
		return fmt.Errorf("publish notice %s: %w", notice.ID, err)
	}

	logging.Ctx(ctx).Debug().
		Str("notice_id", notice.ID).
		Str("subject", p.subject).
		Int("images", len(notice.Images)).
		Msg("upload notice published")
	return nil
}

// State returns the breaker state.
func (p *NoticePublisher) State() gobreaker.State {
	return p.breaker.State()
}

// Close closes the underlying publisher. It is safe to call more than once.
func (p *NoticePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}
