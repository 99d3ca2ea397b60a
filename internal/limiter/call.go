// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package limiter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/metrics"
)

// FetchFunc performs one network call against the service. It reports a
// rate-limit signal as *RateLimitedError and a transport or 5xx failure as
// *BackendError (or any net.Error); anything else is treated as unexpected.
type FetchFunc func(ctx context.Context) error

// Outcome is the terminal state of a Call.
type Outcome string

const (
	OutcomeSuccess            Outcome = "success"
	OutcomeRateLimitExceeded  Outcome = "rate_limit_exceeded"
	OutcomeBackendUnavailable Outcome = "backend_unavailable"
	OutcomeTimedOut           Outcome = "timed_out"
	OutcomeFailed             Outcome = "failed"
)

// CallResult describes how a Call ended. Attempts counts fetch invocations,
// each of which spent one token. Delays lists every wait taken between
// attempts, in order.
type CallResult struct {
	Outcome  Outcome
	Attempts int
	Delays   []time.Duration
	Err      error
}

// Call acquires a token, invokes fn and interprets the result, retrying
// rate-limit and backend failures within policy. Every retry acquires a
// fresh token. A *RefusedError ends the call as OutcomeBackendUnavailable
// without a retry. Errors fn returns that match no known shape end the call
// with OutcomeFailed and are passed through unchanged.
func (l *Limiter) Call(ctx context.Context, fn FetchFunc, policy RetryPolicy) CallResult {
	policy = policy.normalized()

	var (
		res             CallResult
		rateLimitHits   int
		backendFailures int
	)

	for {
		if err := l.AcquireTokenTimeout(ctx, policy.AcquireTimeout); err != nil {
			return l.finish(res, OutcomeTimedOut, err)
		}
		res.Attempts++

		err := fn(ctx)
		if err == nil {
			l.recordSuccess()
			return l.finish(res, OutcomeSuccess, nil)
		}

		var (
			delay   time.Duration
			limited *RateLimitedError
			refused *RefusedError
		)
		switch {
		case ctx.Err() != nil:
			// The caller gave up mid-fetch; the token stays spent.
			return l.finish(res, OutcomeTimedOut, l.timedOut(err))

		case errors.As(err, &refused):
			return l.finish(res, OutcomeBackendUnavailable,
				fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, l.service, err))

		case errors.As(err, &limited):
			rateLimitHits++
			d, exhausted := l.recordRateLimit(limited, policy, rateLimitHits)
			if exhausted {
				return l.finish(res, OutcomeRateLimitExceeded,
					fmt.Errorf("%w: %s after %d attempts: %w", ErrRateLimitExceeded, l.service, res.Attempts, err))
			}
			delay = d

		case IsBackendFailure(err):
			backendFailures++
			metrics.RecordBackendFailure(l.service)
			if backendFailures > policy.MaxRetries {
				return l.finish(res, OutcomeBackendUnavailable,
					fmt.Errorf("%w: %s after %d attempts: %w", ErrBackendUnavailable, l.service, res.Attempts, err))
			}
			delay = policy.BackendRetryDelay
			logging.Ctx(ctx).Debug().
				Err(err).
				Str("service", l.service).
				Int("attempt", res.Attempts).
				Dur("delay", delay).
				Msg("Backend failure, retrying")

		default:
			return l.finish(res, OutcomeFailed, err)
		}

		res.Delays = append(res.Delays, delay)
		if err := sleepContext(ctx, delay); err != nil {
			return l.finish(res, OutcomeTimedOut, l.timedOut(err))
		}
	}
}

func (l *Limiter) finish(res CallResult, outcome Outcome, err error) CallResult {
	res.Outcome = outcome
	res.Err = err
	metrics.RecordCallOutcome(l.service, string(outcome), res.Attempts)
	return res
}

// IsBackendFailure reports whether err is a transport or 5xx failure.
func IsBackendFailure(err error) bool {
	var backend *BackendError
	if errors.As(err, &backend) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// sleepContext waits for d or until ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
