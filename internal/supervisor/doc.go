// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package supervisor runs the gateway's long-lived services under a suture v4
tree.

	root ("photobeam")
	├── messaging-layer
	│   ├── HubService ("websocket-hub")
	│   └── UploadBridge ("nats-upload-bridge", when NATS is enabled)
	└── api-layer
	    └── HTTPServerService ("http-server")

A crashed service is restarted with backoff inside its own layer; the HTTP
server keeps answering health probes while the messaging layer recovers, and
the readiness probe reports 503 until the hub loop is running again.

Supervisor events are logged through sutureslog on the zerolog-backed slog
adapter:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(newServer, 10*time.Second))
	err = tree.Serve(ctx)
*/
package supervisor
