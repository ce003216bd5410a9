// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/tomtom215/photobeam/internal/config"
)

type staticEntry struct {
	digest   [sha256.Size]byte
	identity Identity
}

// StaticStrategy accepts a fixed set of configured tokens. Meant for local
// development and tests.
type StaticStrategy struct {
	entries []staticEntry
}

// NewStaticStrategy builds a strategy from parsed static token entries.
func NewStaticStrategy(tokens []config.StaticToken) (*StaticStrategy, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("static strategy needs at least one token")
	}

	entries := make([]staticEntry, 0, len(tokens))
	for _, t := range tokens {
		entries = append(entries, staticEntry{
			digest:   sha256.Sum256([]byte(t.Token)),
			identity: Identity{ID: t.ID, Email: t.Email, Name: t.Name},
		})
	}
	return &StaticStrategy{entries: entries}, nil
}

// Name implements Strategy.
func (s *StaticStrategy) Name() string {
	return "static"
}

// Verify compares digests in constant time and scans every entry, so timing
// does not reveal which token (if any) matched.
func (s *StaticStrategy) Verify(_ context.Context, credential string) (Identity, error) {
	digest := sha256.Sum256([]byte(credential))

	var (
		found   Identity
		matched int
	)
	for i := range s.entries {
		if subtle.ConstantTimeCompare(digest[:], s.entries[i].digest[:]) == 1 {
			found = s.entries[i].identity
			matched = 1
		}
	}
	if matched == 0 {
		return Identity{}, ErrInvalidCredential
	}
	return found, nil
}
