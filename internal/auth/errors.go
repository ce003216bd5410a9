// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"errors"
)

// Rejection sentinels. Every error returned by TokenVerifier.Verify wraps
// exactly one of these.
var (
	// ErrMissingCredential is returned for an empty or whitespace credential.
	// The strategy is never called in that case.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential means the credential was well formed but is not
	// (or is no longer) accepted by the authority.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrVerificationFailed covers authority-side failures: unreachable
	// endpoints, malformed responses, storage errors, an open circuit.
	ErrVerificationFailed = errors.New("verification error")

	// ErrVerificationTimeout is returned when the verification deadline passes.
	ErrVerificationTimeout = errors.New("verification timeout")

	// ErrVerificationCanceled is returned when the caller gave up, typically
	// because the connection closed mid-handshake.
	ErrVerificationCanceled = errors.New("verification canceled")
)

// rejections is ordered so the most specific sentinel wins when an error
// chain carries more than one.
var rejections = []error{
	ErrMissingCredential,
	ErrVerificationTimeout,
	ErrVerificationCanceled,
	ErrVerificationFailed,
	ErrInvalidCredential,
}

// RejectionReason returns the stable reason string for a verification error.
// It returns "" for nil and "verification error" for errors that wrap none of
// the rejection sentinels.
func RejectionReason(err error) string {
	if err == nil {
		return ""
	}
	for _, sentinel := range rejections {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrVerificationFailed.Error()
}

// isRejection reports whether err already wraps one of the sentinels.
func isRejection(err error) bool {
	for _, sentinel := range rejections {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
