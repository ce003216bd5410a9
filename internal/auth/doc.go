// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

/*
Package auth verifies the credentials presented on websocket handshakes and
issues the short-lived socket tokens the web app hands to its clients.

# Verifier

TokenVerifier is the only type the gateway talks to. It wraps one Strategy,
selected by AUTH_MODE:

	jwt      HS256 socket tokens signed with an HKDF-derived key
	session  NextAuth session lookup against SESSION_URL, behind a circuit breaker
	store    opaque tokens held in Badger with a TTL
	static   fixed token|id|email|name entries (development only)
	chain    the strategies listed in AUTH_CHAIN, first success wins

Every error returned by Verify wraps one of the rejection sentinels:

	ErrMissingCredential     "missing credential"
	ErrInvalidCredential     "invalid credential"
	ErrVerificationFailed    "verification error"
	ErrVerificationTimeout   "verification timeout"
	ErrVerificationCanceled  "verification canceled"

RejectionReason maps an error to its reason string, which the gateway sends
in the close frame.

# Issuing

JWTStrategy and TokenStore also implement Issuer. The API layer authenticates
the caller with SessionAuthenticator (the web app's session JWT) and asks the
issuer for a socket token:

	components, err := auth.NewFromConfig(cfg.Auth, cfg.Gateway.HandshakeTimeout)
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to configure auth")
	}
	defer components.Close()

	identity, err := components.Verifier.Verify(ctx, credential)
*/
package auth
