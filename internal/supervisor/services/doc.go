// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package services adapts the gateway's long-running components to
suture.Service.

  - HubService: the websocket broadcast loop (messaging layer)
  - HTTPServerService: the chi router behind net/http (api layer)

The NATS upload bridge implements suture.Service itself and is added to the
messaging layer directly.

Each Serve returns ctx.Err() on a requested shutdown and a wrapped error on
failure, which suture treats as a restart.
*/
package services
