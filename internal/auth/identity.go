// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"context"
	"time"
)

// Identity is the verified result of a credential. It is immutable once
// attached to a connection.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Valid reports whether the identity names a user. An identity needs an id or
// an email; the name is informational.
func (i Identity) Valid() bool {
	return i.ID != "" || i.Email != ""
}

// Subject returns the stable user key: the id, or the email when no id is set.
func (i Identity) Subject() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Email
}

// Strategy verifies a credential against one identity authority.
//
// Implementations return an error wrapping ErrInvalidCredential for a
// credential the authority rejects and ErrVerificationFailed for failures of
// the authority itself. Any other error is treated as a verification error by
// TokenVerifier. Strategies should honor ctx cancellation.
type Strategy interface {
	Name() string
	Verify(ctx context.Context, credential string) (Identity, error)
}

// Issuer mints short-lived socket credentials for an already authenticated
// HTTP session.
type Issuer interface {
	Name() string
	Issue(ctx context.Context, identity Identity) (token string, expiresAt time.Time, err error)
}
