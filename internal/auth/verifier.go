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
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/photobeam/internal/logging"
	"github.com/tomtom215/photobeam/internal/metrics"
)

// Verification outcome labels for metrics.
const (
	outcomeOK       = "ok"
	outcomeMissing  = "missing"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
	outcomeTimeout  = "timeout"
	outcomeCanceled = "canceled"
)

// TokenVerifier is the single entry point the gateway uses to turn a
// credential into an Identity.
//
// It wraps a Strategy with the rules every strategy shares:
//   - empty or whitespace credentials are rejected without calling the strategy
//   - the call is bounded by the configured timeout, even if the strategy
//     ignores its context
//   - strategy errors are normalized onto the rejection sentinels
//   - every outcome is logged and recorded in metrics
//
// TokenVerifier has no other side effects and is safe for concurrent use.
type TokenVerifier struct {
	strategy Strategy
	timeout  time.Duration
}

// NewTokenVerifier creates a verifier around strategy. A timeout of zero
// leaves the call bounded only by the caller's context.
func NewTokenVerifier(strategy Strategy, timeout time.Duration) *TokenVerifier {
	return &TokenVerifier{strategy: strategy, timeout: timeout}
}

// Name returns the underlying strategy name.
func (v *TokenVerifier) Name() string {
	return v.strategy.Name()
}

type verifyResult struct {
	identity Identity
	err      error
}

// Verify validates credential and returns the identity it stands for.
func (v *TokenVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	start := time.Now()

	credential = strings.TrimSpace(credential)
	if credential == "" {
		v.finish(ctx, start, credential, ErrMissingCredential)
		return Identity{}, ErrMissingCredential
	}

	vctx, cancel := ctx, context.CancelFunc(func() {})
	if v.timeout > 0 {
		vctx, cancel = context.WithTimeout(ctx, v.timeout)
	}
	defer cancel()

	done := make(chan verifyResult, 1)
	go func() {
		identity, err := v.strategy.Verify(vctx, credential)
		done <- verifyResult{identity: identity, err: err}
	}()

	var res verifyResult
	select {
	case res = <-done:
	case <-vctx.Done():
		res.err = vctx.Err()
	}

	err := v.classify(ctx, vctx, res)
	v.finish(ctx, start, credential, err)
	if err != nil {
		return Identity{}, err
	}
	return res.identity, nil
}

// classify maps a raw strategy result onto the rejection sentinels.
func (v *TokenVerifier) classify(parent, vctx context.Context, res verifyResult) error {
	if res.err == nil {
		if !res.identity.Valid() {
			return fmt.Errorf("%w: %s returned an identity without id or email", ErrVerificationFailed, v.strategy.Name())
		}
		return nil
	}

	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return fmt.Errorf("%w: %v", ErrVerificationCanceled, res.err)
	case errors.Is(res.err, ErrInvalidCredential):
		return res.err
	case parent.Err() != nil, errors.Is(vctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %s did not answer in time", ErrVerificationTimeout, v.strategy.Name())
	case isRejection(res.err):
		return res.err
	case errors.Is(res.err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrVerificationTimeout, res.err)
	default:
		return fmt.Errorf("%w: %v", ErrVerificationFailed, res.err)
	}
}

func (v *TokenVerifier) finish(ctx context.Context, start time.Time, credential string, err error) {
	name := v.strategy.Name()
	elapsed := time.Since(start)
	outcome := outcomeFor(err)
	metrics.RecordVerification(name, outcome, elapsed)

	logger := logging.Ctx(ctx)
	if outcome == outcomeOK {
		logger.Debug().Str("strategy", name).Dur("duration", elapsed).Msg("credential verified")
		return
	}

	var event *zerolog.Event
	msg := "credential rejected"
	switch outcome {
	case outcomeError:
		event, msg = logger.Error(), "credential verification failed"
	case outcomeTimeout:
		event, msg = logger.Warn(), "credential verification timed out"
	default:
		event = logger.Debug().Str("outcome", outcome)
	}
	event.Err(err).
		Str("strategy", name).
		Str("credential", logging.RedactCredential(credential)).
		Dur("duration", elapsed).
		Msg(msg)
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrMissingCredential):
		return outcomeMissing
	case errors.Is(err, ErrVerificationTimeout):
		return outcomeTimeout
	case errors.Is(err, ErrVerificationCanceled):
		return outcomeCanceled
	case errors.Is(err, ErrInvalidCredential):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
