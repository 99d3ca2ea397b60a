// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package limiter

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimedOut is returned when a caller deadline or cancellation ends a
	// token or backoff wait. It carries no quota penalty.
	ErrTimedOut = errors.New("timed out waiting for service quota")

	// ErrRateLimitExceeded is returned once the rate-limit retry budget is spent.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrBackendUnavailable is returned once the backend retry budget is spent.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrUnknownService is returned by the Registry for unconfigured services.
	ErrUnknownService = errors.New("unknown service")
)

// RateLimitedError is the 429-class signal a fetch function returns. When
// HasRetryAfter is set, RetryAfter replaces the computed backoff delay.
type RateLimitedError struct {
	RetryAfter    time.Duration
	HasRetryAfter bool
}

func (e *RateLimitedError) Error() string {
	if e.HasRetryAfter {
		return fmt.Sprintf("rate limited by service (retry after %s)", e.RetryAfter)
	}
	return "rate limited by service"
}

// RateLimited builds a 429 signal without a Retry-After hint.
func RateLimited() error {
	return &RateLimitedError{}
}

// RateLimitedAfter builds a 429 signal carrying a Retry-After hint.
func RateLimitedAfter(d time.Duration) error {
	return &RateLimitedError{RetryAfter: d, HasRetryAfter: true}
}

// BackendError is a transport or 5xx failure. StatusCode is 0 for transport
// errors.
type BackendError struct {
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("backend returned HTTP %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("backend returned HTTP %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("backend transport failure: %v", e.Err)
	default:
		return "backend failure"
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// RefusedError is returned by a fetch function that declined to contact the
// service at all, for example because a circuit breaker rejected it. Call
// ends with OutcomeBackendUnavailable at once instead of retrying, since a
// retry would spend another token on a call that is not made.
type RefusedError struct {
	Err error
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("fetch refused: %v", e.Err)
}

func (e *RefusedError) Unwrap() error {
	return e.Err
}
