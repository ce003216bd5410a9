// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package websocket

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
	"github.com/tomtom215/photobeam/internal/models"
)

// ErrBroadcastQueueFull is returned when the hub cannot accept another event.
var ErrBroadcastQueueFull = errors.New("broadcast queue full")

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful path (SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// DefaultBroadcastBuffer is the broadcast queue size used when none is configured.
const DefaultBroadcastBuffer = 256

// RecipientFilter selects which identities receive a dispatch.
type RecipientFilter func(auth.Identity) bool

type dispatch struct {
	eventType string
	payload   []byte
	filter    RecipientFilter
}

// Hub fans events out to every authenticated connection in the registry.
//
// All dispatches pass through one goroutine (RunWithContext), which gives
// each connection the events in the order Dispatch was called. Order across
// connections is unspecified.
type Hub struct {
	registry  *Registry
	broadcast chan dispatch
	filter    RecipientFilter
	running   atomic.Bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithRecipientFilter sets a hub-wide filter applied to every dispatch. The
// default is nil: every connection receives every event.
func WithRecipientFilter(filter RecipientFilter) HubOption {
	return func(h *Hub) {
		h.filter = filter
	}
}

// WithBroadcastBuffer sets the broadcast queue size.
func WithBroadcastBuffer(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.broadcast = make(chan dispatch, size)
		}
	}
}

// NewHub creates a hub delivering to the connections in registry.
func NewHub(registry *Registry, opts ...HubOption) *Hub {
	h := &Hub{
		registry:  registry,
		broadcast: make(chan dispatch, DefaultBroadcastBuffer),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry returns the registry the hub delivers to.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Running reports whether the dispatch loop is active.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// ClientCount returns the number of authenticated connections.
func (h *Hub) ClientCount() int {
	return h.registry.Count()
}

// RunWithContext runs the dispatch loop until ctx is done. On shutdown every
// connection is detached, which makes its writer send a close frame.
// It is designed to run under suture supervision.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.running.Store(true)
	defer h.running.Store(false)

	logging.Info().Str("component", "websocket-hub").Msg("websocket hub started")

	for {
		// Shutdown takes priority over pending dispatches.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d dispatch) {
	filter := d.filter
	if filter == nil {
		filter = h.filter
	}

	delivered, slow := h.registry.fanOut(d.payload, filter)
	metrics.WSMessagesSent.Add(float64(delivered))

	for _, client := range slow {
		if h.registry.Detach(client.id) {
			metrics.WSSlowConsumers.Inc()
			logging.Warn().
				Str("conn_id", client.id).
				Str("event", d.eventType).
				Msg("websocket client too slow, disconnecting")
		}
		client.closeTransport()
	}

	logging.Debug().
		Str("event", d.eventType).
		Int("delivered", delivered).
		Int("evicted", len(slow)).
		Msg("event dispatched")
}

func (h *Hub) shutdown(ctx context.Context) {
	clients := h.registry.detachAll()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// Dispatch queues msg for every authenticated connection, the sender included.
func (h *Hub) Dispatch(msg Message) error {
	return h.DispatchTo(msg, nil)
}

// DispatchTo queues msg for the connections whose identity passes filter.
// A nil filter falls back to the hub-wide filter. The message is encoded once
// here, so encoding errors surface to the caller.
func (h *Hub) DispatchTo(msg Message, filter RecipientFilter) error {
	payload, err := MarshalMessage(msg)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", msg.Type, err)
	}

	select {
	case h.broadcast <- dispatch{eventType: msg.Type, payload: payload, filter: filter}:
		return nil
	default:
		metrics.BroadcastDropped.Inc()
		logging.Warn().Str("event", msg.Type).Msg("broadcast channel full, dropping event")
		return ErrBroadcastQueueFull
	}
}

// BroadcastChat relays a chat payload verbatim as a message-server event.
func (h *Hub) BroadcastChat(data interface{}) error {
	return h.Dispatch(Message{Type: EventMessageServer, Data: data})
}

// BroadcastProcessStatus announces processed images. path is relayed
// verbatim.
func (h *Hub) BroadcastProcessStatus(path interface{}) error {
	return h.Dispatch(Message{
		Type: EventProcessStatus,
		Data: ProcessStatus{Success: true, Message: ProcessedMessage, Path: path},
	})
}

// NotifyUpload broadcasts an upload-completion notice. The image descriptors
// are delivered in the order received.
func (h *Hub) NotifyUpload(ctx context.Context, notice *models.UploadNotice) error {
	if notice == nil || len(notice.Images) == 0 {
		return fmt.Errorf("upload notice has no images")
	}
	if err := h.BroadcastProcessStatus(notice.Images); err != nil {
		return err
	}

	logging.Ctx(ctx).Info().
		Str("notice_id", notice.ID).
		Str("source", notice.Source).
		Int("images", len(notice.Images)).
		Int("clients", h.ClientCount()).
		Msg("upload notice broadcast")
	return nil
}
