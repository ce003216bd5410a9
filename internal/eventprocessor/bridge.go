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

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
	"github.com/tomtom215/photobeam/internal/models"
	"github.com/tomtom215/photobeam/internal/websocket"
)

// UploadBroadcaster delivers a notice to connected sockets.
// *websocket.Hub is the production implementation.
type UploadBroadcaster interface {
	NotifyUpload(ctx context.Context, notice *models.UploadNotice) error
}

// UploadBridge consumes upload notices from the bus and hands them to the
// local broadcaster. It is a suture service.
//
// Every message is acked: core NATS has no redelivery, and a notice that
// could not be broadcast is counted and logged instead.
type UploadBridge struct {
	subscriber  message.Subscriber
	subject     string
	broadcaster UploadBroadcaster

	readyOnce sync.Once
	ready     chan struct{}
}

// NewUploadBridge creates a bridge from subject to broadcaster.
func NewUploadBridge(subscriber message.Subscriber, subject string, broadcaster UploadBroadcaster) *UploadBridge {
	return &UploadBridge{
		subscriber:  subscriber,
		subject:     subject,
		broadcaster: broadcaster,
		ready:       make(chan struct{}),
	}
}

// Ready is closed once the first subscription is established.
func (b *UploadBridge) Ready() <-chan struct{} {
	return b.ready
}

// Serve subscribes and forwards notices until ctx is canceled. A closed
// subscription returns an error so the supervisor restarts the bridge.
func (b *UploadBridge) Serve(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, b.subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.subject, err)
	}
	b.readyOnce.Do(func() { close(b.ready) })

	logging.Info().Str("component", "nats-bridge").Str("subject", b.subject).Msg("upload bridge subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSubscriptionClosed
			}
			b.handle(ctx, msg)
		}
	}
}

func (b *UploadBridge) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	if id := msg.Metadata.Get(MetadataCorrelationID); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	} else {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	log := logging.Ctx(ctx)

	notice, err := UnmarshalNotice(msg.Payload)
	if err != nil {
		metrics.RecordUploadNotice(models.NoticeSourceNATS, metrics.NoticeInvalid, 0)
		log.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping invalid upload notice")
		return
	}
	notice.Stamp(models.NoticeSourceNATS)

	if err := b.broadcaster.NotifyUpload(ctx, notice); err != nil {
		result := metrics.NoticeInvalid
		if errors.Is(err, websocket.ErrBroadcastQueueFull) {
			result = metrics.NoticeQueueFull
		}
		metrics.RecordUploadNotice(models.NoticeSourceNATS, result, 0)
		log.Error().Err(err).Str("notice_id", notice.ID).Msg("upload notice not broadcast")
		return
	}
	metrics.RecordUploadNotice(models.NoticeSourceNATS, metrics.NoticeAccepted, len(notice.Images))
}

// String implements fmt.Stringer for supervisor logs.
func (b *UploadBridge) String() string {
	return "nats-upload-bridge"
}
