// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/photobeam/internal/auth"
	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxEventNameLen  = 64
	maxLoggedPayload = 2048
)

// Close codes sent when a handshake is rejected.
const (
	CloseUnauthorized     = 4401
	CloseHandshakeTimeout = 4408
)

// ConnState is the lifecycle state of one connection.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticated
	StateClosed
	StateRejected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Client is one websocket connection.
//
// The reader goroutine starts right after the upgrade and owns teardown. The
// writer goroutine starts only once the handshake has attached an identity.
// State transitions happen under mu; the lock order is Client.mu, then
// Registry.mu.
type Client struct {
	id      string
	conn    *websocket.Conn
	gateway *Gateway
	send    chan []byte
	limiter *rate.Limiter
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    ConnState
	identity auth.Identity
}

func newClient(ctx context.Context, g *Gateway, conn *websocket.Conn, id string) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		id:      id,
		conn:    conn,
		gateway: g,
		send:    make(chan []byte, g.cfg.SendBuffer),
		limiter: g.newLimiter(),
		log:     logging.With().Str("component", "websocket").Str("conn_id", id).Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// State returns the current lifecycle state.
func (c *Client) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// handshake verifies the credential taken from the upgrade request, then
// either attaches the connection or rejects it. A transport close while
// verification is in flight cancels it.
func (c *Client) handshake(credential string) {
	ctx, cancel := context.WithTimeout(c.ctx, c.gateway.cfg.HandshakeTimeout)
	defer cancel()

	identity, err := c.gateway.verifier.Verify(ctx, credential)
	if err != nil {
		c.reject(err)
		return
	}
	c.authenticate(identity)
}

// authenticate moves a Connecting client to Authenticated. A result that
// arrives after the connection closed is discarded.
func (c *Client) authenticate(identity auth.Identity) bool {
	c.mu.Lock()
	if c.state != StateConnecting {
		state := c.state
		c.mu.Unlock()
		metrics.RecordHandshake(metrics.HandshakeAborted)
		c.log.Debug().Str("state", state.String()).Msg("verification result discarded, connection no longer connecting")
		return false
	}
	// The queue is private until Attach, so welcome is always the first frame.
	c.queueWelcome(identity)
	c.gateway.registry.Attach(c, identity)
	c.identity = identity
	c.state = StateAuthenticated
	c.mu.Unlock()

	metrics.RecordHandshake(metrics.HandshakeAccepted)
	go c.writePump()

	c.log.Info().
		Str("user_id", identity.ID).
		Str("email", logging.RedactEmail(identity.Email)).
		Int("total_clients", c.gateway.registry.Count()).
		Msg("websocket client authenticated")
	return true
}

// reject moves a Connecting client to Rejected and closes the transport with
// the rejection reason.
func (c *Client) reject(err error) {
	c.mu.Lock()
	if c.state != StateConnecting {
		c.mu.Unlock()
		metrics.RecordHandshake(metrics.HandshakeAborted)
		return
	}
	c.state = StateRejected
	c.mu.Unlock()

	reason := auth.RejectionReason(err)
	code := CloseUnauthorized
	result := metrics.HandshakeRejected
	if errors.Is(err, auth.ErrVerificationTimeout) {
		code = CloseHandshakeTimeout
		result = metrics.HandshakeTimeout
	}
	metrics.RecordHandshake(result)

	c.log.Info().Str("reason", reason).Int("close_code", code).Msg("websocket handshake rejected")

	msg := websocket.FormatCloseMessage(code, reason)
	if werr := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); werr != nil {
		c.log.Debug().Err(werr).Msg("failed to write rejection close frame")
	}
	c.closeTransport()
}

// teardown runs when the reader exits. An authenticated connection is
// detached before the lock is released, so no dispatch reaches it afterwards.
func (c *Client) teardown() {
	c.cancel()

	c.mu.Lock()
	prev := c.state
	switch prev {
	case StateAuthenticated:
		c.gateway.registry.Detach(c.id)
		c.state = StateClosed
	case StateConnecting:
		c.state = StateClosed
	}
	c.mu.Unlock()

	c.closeTransport()

	if prev == StateAuthenticated {
		c.log.Info().Int("total_clients", c.gateway.registry.Count()).Msg("websocket client disconnected")
	}
}

func (c *Client) closeTransport() {
	if c.conn != nil {
		_ = c.conn.Close() // best-effort; the reader or writer may already have closed it
	}
}

// readPump reads frames until the transport fails. Frames are handled inline,
// so events from one connection are processed one at a time.
func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(c.gateway.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		c.handleFrame(data)
	}
}

// writePump writes queued payloads and keepalive pings. It exits when the
// registry closes the queue or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeTransport()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug().Err(err).Msg("failed to write websocket message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queueWelcome puts the welcome event on the outbound queue. It must run
// before the client is attached.
func (c *Client) queueWelcome(identity auth.Identity) {
	payload, err := MarshalMessage(Message{Type: EventWelcome, Data: WelcomeData{ConnID: c.id, Identity: identity}})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode welcome")
		return
	}
	select {
	case c.send <- payload:
	default:
		c.log.Warn().Msg("welcome not queued, send buffer full")
	}
}

// sendDirect queues msg for this connection only.
func (c *Client) sendDirect(msg Message) {
	payload, err := MarshalMessage(msg)
	if err != nil {
		c.log.Error().Err(err).Str("event", msg.Type).Msg("failed to encode message")
		return
	}
	if !c.gateway.registry.SendTo(c.id, payload) {
		c.log.Debug().Str("event", msg.Type).Msg("direct message not queued")
	}
}

// nack drops an event and tells the client why. The connection stays open.
func (c *Client) nack(event, reason string) {
	if len(event) > maxEventNameLen {
		event = event[:maxEventNameLen]
	}
	metrics.RecordEventDropped(reason)
	c.log.Warn().Str("event", event).Str("reason", reason).Msg("websocket event dropped")
	c.sendDirect(Message{Type: EventError, Data: NackData{Event: event, Reason: reason}})
}

func (c *Client) handleFrame(data []byte) {
	c.mu.Lock()
	state, identity := c.state, c.identity
	c.mu.Unlock()

	if state != StateAuthenticated {
		metrics.RecordEventDropped("unauthenticated")
		c.log.Debug().Str("state", state.String()).Msg("frame received before authentication, dropped")
		return
	}

	var ev inboundEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		c.nack("", ReasonMalformed)
		return
	}
	if ev.Type == "" {
		c.nack("", ReasonMissingType)
		return
	}
	if !c.limiter.Allow() {
		c.nack(ev.Type, ReasonRateLimited)
		return
	}

	handler, ok := eventHandlers[ev.Type]
	if !ok {
		c.nack(ev.Type, ReasonUnknownType)
		return
	}
	if handler.needsData && isEmptyPayload(ev.Data) {
		c.nack(ev.Type, ReasonEmptyData)
		return
	}

	metrics.RecordEventReceived(ev.Type)
	if err := handler.handle(c, identity, ev); err != nil {
		if errors.Is(err, ErrBroadcastQueueFull) {
			c.nack(ev.Type, ReasonBusy)
			return
		}
		c.log.Error().Err(err).Str("event", ev.Type).Msg("websocket event handler failed")
	}
}

type eventHandler struct {
	needsData bool
	handle    func(c *Client, identity auth.Identity, ev inboundEvent) error
}

// eventHandlers is the handler set active for authenticated connections.
var eventHandlers = map[string]eventHandler{
	EventMessage:     {needsData: true, handle: handleChat},
	EventTeamMessage: {needsData: true, handle: handleTeamMessage},
	EventUploadImage: {needsData: true, handle: handleUploadImage},
	EventPing:        {needsData: false, handle: handlePing},
}

func handleChat(c *Client, _ auth.Identity, ev inboundEvent) error {
	return c.gateway.hub.BroadcastChat(ev.Data)
}

func handleTeamMessage(c *Client, identity auth.Identity, ev inboundEvent) error {
	event := c.log.Info().
		Str("user_id", identity.ID).
		Str("name", identity.Name).
		Int("bytes", len(ev.Data))
	if len(ev.Data) <= maxLoggedPayload {
		event = event.RawJSON("data", ev.Data)
	}
	event.Msg("team message")
	return nil
}

func handleUploadImage(c *Client, _ auth.Identity, ev inboundEvent) error {
	return c.gateway.hub.BroadcastProcessStatus(ev.Data)
}

func handlePing(c *Client, _ auth.Identity, _ inboundEvent) error {
	c.sendDirect(Message{Type: EventPong})
	return nil
}
