// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

// Package models defines the payloads exchanged with Photobeam's trusted
// collaborators.
//
// UploadNotice is accepted by the HTTP upload-notice endpoint, travels over
// NATS between gateway instances, and ends up as the path of a process-status
// socket event. Validation tags are evaluated by internal/validation.
package models
