// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const (
	// SocketTokenAudience is the aud claim carried by every socket token. It
	// keeps an HTTP session JWT from being replayed against the gateway.
	SocketTokenAudience = "photobeam-socket"

	socketKeySalt = "photobeam-socket-token-v1"
	socketKeyInfo = "hs256-signing-key"
	socketKeySize = 32
)

// SocketClaims are the claims of a socket token. The subject is the user id.
type SocketClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTStrategy verifies and issues HS256 socket tokens.
//
// The signing key is derived from the configured secret with HKDF-SHA256 so a
// socket token can never be mistaken for a session JWT signed with the raw
// secret, and vice versa.
type JWTStrategy struct {
	key    []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTStrategy derives the socket signing key from secret. ttl bounds the
// lifetime of issued tokens.
func NewJWTStrategy(secret string, ttl time.Duration) (*JWTStrategy, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required for socket tokens")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("socket token ttl must be positive, got %s", ttl)
	}

	key, err := deriveSocketKey(secret)
	if err != nil {
		return nil, err
	}

	return &JWTStrategy{
		key: key,
		ttl: ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(SocketTokenAudience),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}, nil
}

func deriveSocketKey(secret string) ([]byte, error) {
	reader := hkdf.New(sha256.New, []byte(secret), []byte(socketKeySalt), []byte(socketKeyInfo))

	key := make([]byte, socketKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to read HKDF output: %w", err)
	}
	return key, nil
}

// Name implements Strategy and Issuer.
func (s *JWTStrategy) Name() string {
	return "jwt"
}

// Issue signs a socket token for identity.
func (s *JWTStrategy) Issue(_ context.Context, identity Identity) (string, time.Time, error) {
	if !identity.Valid() {
		return "", time.Time{}, fmt.Errorf("cannot issue a socket token without id or email")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &SocketClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject(),
			Audience:  jwt.ClaimStrings{SocketTokenAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign socket token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify implements Strategy. Every parse or validation failure, including
// expiry, is an invalid credential; there is no remote authority to fail.
func (s *JWTStrategy) Verify(_ context.Context, credential string) (Identity, error) {
	claims := &SocketClaims{}
	token, err := s.parser.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: socket token expired", ErrInvalidCredential)
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidCredential
	}

	identity := Identity{ID: claims.Subject, Email: claims.Email, Name: claims.Name}
	if !identity.Valid() {
		return Identity{}, fmt.Errorf("%w: socket token has no subject", ErrInvalidCredential)
	}
	return identity, nil
}
