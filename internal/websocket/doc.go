// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package websocket is the authenticated real-time gateway.

Key Components:

  - Gateway: the /ws handler. Upgrades allowed origins and runs the credential
    handshake for each connection.
  - Registry: connection id to identity map. The only shared mutable state.
  - Hub: serialized fan-out of events to every authenticated connection.
  - Client: one connection, with a reader and (once authenticated) a writer.

Connection Lifecycle:

	Connecting ──verify ok──> Authenticated ──transport close──> Closed
	     │
	     ├──verify failed──> Rejected (close 4401, or 4408 on timeout)
	     └──transport close──> Closed (late verification result discarded)

The credential is read from the upgrade request only: the token query
parameter, then an Authorization Bearer header, then the socket_token cookie.
Nothing a client sends before the handshake completes is processed.

Events:

Every frame is JSON {"type": ..., "data": ...}.

	inbound        outbound
	message        message-server to every connection, data verbatim
	team-message   logged only
	upload-image   process-status to every connection, data as path
	ping           pong to the sender

A malformed frame, an empty payload, an unknown type or a rate-limited event
is dropped and answered with {"type":"error","data":{"event","reason"}}. The
connection stays open.

Broadcast:

Hub.Dispatch reaches every authenticated connection, the sender included.
DispatchTo and WithRecipientFilter restrict delivery by identity. A client
whose outbound queue is full is disconnected rather than allowed to stall
the others.

Usage Example:

	registry := websocket.NewRegistry()
	hub := websocket.NewHub(registry, websocket.WithBroadcastBuffer(cfg.Gateway.BroadcastBuffer))
	go hub.RunWithContext(ctx)

	r.Handle("/ws", websocket.NewGateway(cfg.Gateway, components.Verifier, hub))

	_ = hub.NotifyUpload(ctx, notice)

Configuration:

  - writeWait: 10 seconds per frame
  - pongWait: 60 seconds without a pong closes the connection
  - pingPeriod: 54 seconds
  - WS_MAX_MESSAGE_SIZE: inbound frame limit (512 KB)
  - WS_HANDSHAKE_TIMEOUT: verification deadline (10s)
*/
package websocket
