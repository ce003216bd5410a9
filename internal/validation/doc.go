// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared by the HTTP handlers and the NATS
// upload subscriber, so a notice is held to the same rules whichever path it
// arrives on. Errors are reported against JSON field paths such as
// images[2].secure_url.
//
// Custom tags:
//   - httpurl: absolute http or https URL with a host
//
// Example:
//
//	if verr := validation.ValidateStruct(&notice); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    rw.ValidationError(apiErr.Message, apiErr.Details)
//	    return
//	}
package validation
