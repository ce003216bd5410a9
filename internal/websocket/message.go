// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package websocket

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/tomtom215/photobeam/internal/auth"
)

// Inbound event types, sent by authenticated clients.
const (
	EventMessage     = "message"
	EventTeamMessage = "team-message"
	EventUploadImage = "upload-image"
	EventPing        = "ping"
)

// Outbound event types.
const (
	EventMessageServer = "message-server"
	EventProcessStatus = "process-status"
	EventWelcome       = "welcome"
	EventPong          = "pong"
	EventError         = "error"
)

// ProcessedMessage is the fixed text of a process-status event.
const ProcessedMessage = "Image processed successfully!"

// Message is the envelope of every frame the gateway writes.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// inboundEvent is the envelope of every frame a client writes. Data is kept
// raw so it can be re-broadcast verbatim.
type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ProcessStatus is the payload of a process-status event. Path carries the
// uploaded image descriptors exactly as they were received.
type ProcessStatus struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Path    interface{} `json:"path"`
}

// WelcomeData is sent to a client right after its handshake succeeds.
type WelcomeData struct {
	ConnID   string        `json:"conn_id"`
	Identity auth.Identity `json:"identity"`
}

// NackData tells a client that one of its events was dropped.
type NackData struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// Nack reasons.
const (
	ReasonMalformed   = "malformed event"
	ReasonMissingType = "missing event type"
	ReasonUnknownType = "unknown event type"
	ReasonEmptyData   = "empty payload"
	ReasonRateLimited = "rate limited"
	ReasonBusy        = "server busy"
)

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// isEmptyPayload reports whether raw carries nothing worth relaying: it is
// absent, null, "", [] or {}.
func isEmptyPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}

	var v interface{}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return true
	}
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	default:
		return false
	}
}
