// Photobeam - Real-time Team Photo Sharing Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/photobeam

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ChainStrategy tries strategies in order and returns the first identity.
//
// When nothing succeeds the result is a verification error if any strategy
// failed for authority reasons, and an invalid credential otherwise. A
// credential that is simply not a socket JWT must not hide the fact that the
// session lookup behind it was unreachable.
type ChainStrategy struct {
	strategies []Strategy
}

// NewChainStrategy composes strategies. Order matters: put cheap local checks
// before remote lookups.
func NewChainStrategy(strategies ...Strategy) (*ChainStrategy, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("chain strategy needs at least one strategy")
	}
	return &ChainStrategy{strategies: strategies}, nil
}

// Name implements Strategy.
func (c *ChainStrategy) Name() string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Verify implements Strategy.
func (c *ChainStrategy) Verify(ctx context.Context, credential string) (Identity, error) {
	var failure error

	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return Identity{}, err
		}

		identity, err := s.Verify(ctx, credential)
		if err == nil {
			return identity, nil
		}
		if errors.Is(err, ErrInvalidCredential) {
			continue
		}
		if failure == nil {
			failure = fmt.Errorf("%s: %w", s.Name(), err)
		}
	}

	if failure != nil {
		if !isRejection(failure) {
			return Identity{}, fmt.Errorf("%w: %v", ErrVerificationFailed, failure)
		}
		return Identity{}, failure
	}
	return Identity{}, ErrInvalidCredential
}
