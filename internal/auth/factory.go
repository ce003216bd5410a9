// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/photobeam/internal/config"
	"github.com/tomtom215/photobeam/internal/logging"
)

// Components is the auth wiring built from configuration.
type Components struct {
	// Verifier checks socket credentials at handshake time.
	Verifier *TokenVerifier

	// Issuer mints socket tokens. Nil when no configured strategy can issue
	// tokens or no session secret is set.
	Issuer Issuer

	// Sessions authenticates callers of the socket token endpoint. Nil
	// whenever Issuer is nil.
	Sessions *SessionAuthenticator

	db *badger.DB
}

// Close releases the token store, if one was opened.
func (c *Components) Close() error {
	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close token store: %w", err)
	}
	c.db = nil
	return nil
}

// NewFromConfig builds the verifier strategy selected by cfg.Mode, bounded by
// handshakeTimeout, and the issuer for the socket token endpoint.
//
// The issuer is the first strategy in cfg.Strategies() that can issue tokens
// (jwt or store).
func NewFromConfig(cfg config.AuthConfig, handshakeTimeout time.Duration) (*Components, error) {
	c := &Components{}

	built := make([]Strategy, 0, len(cfg.Strategies()))
	for _, name := range cfg.Strategies() {
		s, err := c.buildStrategy(name, cfg)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("auth strategy %s: %w", name, err)
		}
		built = append(built, s)

		if issuer, ok := s.(Issuer); ok && c.Issuer == nil {
			c.Issuer = issuer
		}
	}

	var strategy Strategy
	if cfg.Mode == "chain" {
		chain, err := NewChainStrategy(built...)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		strategy = chain
	} else {
		if len(built) != 1 {
			_ = c.Close()
			return nil, fmt.Errorf("auth mode %q must name exactly one strategy", cfg.Mode)
		}
		strategy = built[0]
	}
	c.Verifier = NewTokenVerifier(strategy, handshakeTimeout)

	if c.Issuer != nil {
		if cfg.JWTSecret == "" {
			logging.Warn().
				Str("issuer", c.Issuer.Name()).
				Msg("JWT_SECRET not set, socket token endpoint disabled")
			c.Issuer = nil
		} else {
			sessions, err := NewSessionAuthenticator(cfg.JWTSecret, cfg.SessionCookie)
			if err != nil {
				_ = c.Close()
				return nil, err
			}
			c.Sessions = sessions
		}
	}

	logging.Info().
		Str("mode", cfg.Mode).
		Str("strategy", strategy.Name()).
		Bool("issuer", c.Issuer != nil).
		Dur("handshake_timeout", handshakeTimeout).
		Msg("socket token verifier configured")

	return c, nil
}

func (c *Components) buildStrategy(name string, cfg config.AuthConfig) (Strategy, error) {
	switch name {
	case "jwt":
		return NewJWTStrategy(cfg.JWTSecret, cfg.SocketTokenTTL)

	case "session":
		return NewSessionLookupStrategy(SessionLookupConfig{
			URL:              cfg.SessionURL,
			Timeout:          cfg.SessionTimeout,
			BreakerThreshold: cfg.BreakerThreshold,
			BreakerTimeout:   cfg.BreakerTimeout,
		})

	case "store":
		if c.db == nil {
			db, err := OpenTokenDB(cfg.StorePath, cfg.StoreInMemory)
			if err != nil {
				return nil, err
			}
			c.db = db
		}
		return NewTokenStore(c.db, cfg.SocketTokenTTL), nil

	case "static":
		tokens := make([]config.StaticToken, 0, len(cfg.StaticTokens))
		for i, entry := range cfg.StaticTokens {
			st, err := config.ParseStaticToken(entry)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			tokens = append(tokens, st)
		}
		return NewStaticStrategy(tokens)

	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
