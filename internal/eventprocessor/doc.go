// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

// Package eventprocessor carries upload-completion notices between gateway
// instances over NATS, using Watermill.
//
// # Data Flow
//
//	collaborator ──POST /api/v1/internal/upload-notices──> NoticePublisher
//	                                                           │
//	                                          nats.subject (core NATS)
//	                                                           │
//	                      ┌────────────────────────────────────┼──────────────┐
//	                      ▼                                    ▼              ▼
//	                UploadBridge (instance 1)            UploadBridge (2)    ...
//	                      │
//	                      ▼
//	              websocket.Hub.NotifyUpload ──> process-status to every socket
//
// Notices are published on a plain subject with no queue group, so each
// instance receives each notice once and delivers it to the sockets it holds.
// Nothing is persisted; a notice published while an instance is disconnected
// is not replayed to it.
//
// # Components
//
//   - NoticePublisher: validates, encodes and publishes a notice behind a
//     gobreaker circuit breaker. It has the same NotifyUpload method as the
//     hub, so the HTTP endpoint is indifferent to which one it holds.
//   - UploadBridge: suture service that subscribes to the subject, validates
//     each payload and calls the local hub. Invalid payloads are counted and
//     dropped.
//   - EmbeddedServer: optional in-process nats-server (NATS_EMBEDDED=true).
//   - WatermillLogger: watermill.LoggerAdapter on the zerolog logger.
//
// # Payload
//
// The message payload is the JSON upload notice:
//
//	{
//	  "id": "6f1c...",
//	  "images": [
//	    {"secure_url": "https://...", "asset_folder": "team-7", "display_name": "beach"}
//	  ],
//	  "published_at": "2026-01-01T12:00:00Z",
//	  "source": "http"
//	}
//
// The images array is forwarded to sockets in the order received.
package eventprocessor
