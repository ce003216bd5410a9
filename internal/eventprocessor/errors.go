// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package eventprocessor

import "errors"

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrInvalidNotice is returned when a bus payload is not a valid upload notice.
var ErrInvalidNotice = errors.New("invalid upload notice")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrSubscriptionClosed is returned by UploadBridge.Serve when the
// subscriber closes its message channel.
var ErrSubscriptionClosed = errors.New("subscription closed")
