// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/photobeam/internal/logging"
)

const (
	socketTokenKeyPrefix = "socket_token:"
	socketTokenBytes     = 32
)

// storedToken is the value kept under a token key.
type storedToken struct {
	Identity  Identity  `json:"identity"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OpenTokenDB opens the Badger database backing a TokenStore. With inMemory
// true, path is ignored and nothing touches disk.
func OpenTokenDB(path string, inMemory bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{}).WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}
	return db, nil
}

// TokenStore issues opaque socket tokens and verifies them against Badger.
//
// Only the SHA-256 of a token is stored, so a copy of the database does not
// leak usable credentials. Entries carry a Badger TTL and an explicit expiry;
// either one ending makes the token invalid. Tokens are not consumed on use.
type TokenStore struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// NewTokenStore wraps db. The caller owns db and closes it.
func NewTokenStore(db *badger.DB, ttl time.Duration) *TokenStore {
	return &TokenStore{db: db, ttl: ttl, now: time.Now}
}

func tokenKey(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(socketTokenKeyPrefix + hex.EncodeToString(sum[:]))
}

// Name implements Strategy and Issuer.
func (s *TokenStore) Name() string {
	return "store"
}

// Issue generates a random token for identity and stores it with the TTL.
func (s *TokenStore) Issue(_ context.Context, identity Identity) (string, time.Time, error) {
	if !identity.Valid() {
		return "", time.Time{}, fmt.Errorf("cannot issue a socket token without id or email")
	}

	raw := make([]byte, socketTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, fmt.Errorf("generate socket token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := s.now()
	record := storedToken{Identity: identity, IssuedAt: now.UTC(), ExpiresAt: now.Add(s.ttl).UTC()}
	data, err := json.Marshal(record)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshal socket token: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(tokenKey(token), data).WithTTL(s.ttl))
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("store socket token: %w", err)
	}
	return token, record.ExpiresAt, nil
}

// Verify implements Strategy.
func (s *TokenStore) Verify(_ context.Context, credential string) (Identity, error) {
	var record storedToken

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(credential))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Identity{}, fmt.Errorf("%w: unknown socket token", ErrInvalidCredential)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("%w: token store: %v", ErrVerificationFailed, err)
	}

	if !s.now().Before(record.ExpiresAt) {
		return Identity{}, fmt.Errorf("%w: socket token expired", ErrInvalidCredential)
	}
	return record.Identity, nil
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Info().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}
