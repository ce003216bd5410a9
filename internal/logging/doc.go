// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

// Package logging provides the zerolog-based global logger used by every
// Photobeam package.
//
// Initialize once at startup, then log through the level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("conn_id", id).Msg("websocket client authenticated")
//	logging.Ctx(ctx).Warn().Err(err).Msg("upload notice rejected")
//
// Always terminate an event chain with Msg or Send, otherwise nothing is written.
//
// Context helpers carry a correlation ID, an HTTP request ID and a websocket
// connection ID; Ctx adds whichever of them are present. NewSlogLogger bridges
// the global logger to log/slog for the supervisor tree. Bearer credentials
// must pass through RedactCredential before they reach a log field.
package logging
