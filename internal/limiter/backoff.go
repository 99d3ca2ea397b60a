// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package limiter

import (
	"time"

	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/metrics"
)

// RetryPolicy bounds the retries Call performs.
type RetryPolicy struct {
	// MaxRetries is how many retries follow the first attempt, for rate-limit
	// and backend failures alike.
	MaxRetries int

	// BaseDelay is the first exponential backoff delay.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff delay.
	MaxDelay time.Duration

	// BackendRetryDelay is the fixed delay between backend failure retries.
	BackendRetryDelay time.Duration

	// AcquireTimeout bounds each token wait. Zero waits until ctx ends.
	AcquireTimeout time.Duration
}

// DefaultRetryPolicy returns 3 retries, 1s doubling to 60s, 500ms between
// backend retries.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          60 * time.Second,
		BackendRetryDelay: 500 * time.Millisecond,
	}
}

// normalized fills zero delays from the defaults. MaxRetries of zero is kept:
// it means a single attempt.
func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.BackendRetryDelay < 0 {
		p.BackendRetryDelay = 0
	}
	return p
}

// BackoffState is the adaptive rate-limit state of one service. It is read
// and written only under the owning Limiter's mutex.
type BackoffState struct {
	ConsecutiveFailures int
	CurrentDelay        time.Duration
}

// nextBackoff doubles current, bounded below by base and above by limit.
func nextBackoff(current, base, limit time.Duration) time.Duration {
	next := current * 2
	if next < base {
		next = base
	}
	if next > limit {
		next = limit
	}
	return next
}

// recordSuccess clears the backoff state.
func (l *Limiter) recordSuccess() {
	l.mu.Lock()
	hadFailures := l.backoff.ConsecutiveFailures > 0
	l.backoff = BackoffState{}
	l.mu.Unlock()

	if hadFailures {
		metrics.RecordBackoffReset(l.service)
		logging.Debug().Str("service", l.service).Msg("Backoff reset after successful call")
	}
}

// recordRateLimit charges one 429 against the service and returns the delay
// before the next attempt. callHits is the number of 429s this call has seen;
// exhausted is set once either it or the shared counter passes MaxRetries.
// A Retry-After hint replaces the delay, but CurrentDelay still advances as
// for any other failure.
func (l *Limiter) recordRateLimit(sig *RateLimitedError, policy RetryPolicy, callHits int) (time.Duration, bool) {
	l.mu.Lock()
	l.backoff.ConsecutiveFailures++
	failures := l.backoff.ConsecutiveFailures
	exhausted := failures > policy.MaxRetries || callHits > policy.MaxRetries

	var delay time.Duration
	if !exhausted {
		l.backoff.CurrentDelay = nextBackoff(l.backoff.CurrentDelay, policy.BaseDelay, policy.MaxDelay)
		delay = l.backoff.CurrentDelay
		if sig.HasRetryAfter {
			delay = sig.RetryAfter
		}
	}
	l.mu.Unlock()

	metrics.RecordRateLimitHit(l.service, sig.HasRetryAfter, delay, failures)
	l.warnEvery.Do(func() {
		logging.Warn().
			Str("service", l.service).
			Int("consecutive_failures", failures).
			Dur("delay", delay).
			Bool("retry_after", sig.HasRetryAfter).
			Bool("exhausted", exhausted).
			Msg("Rate limited by service")
	})
	return delay, exhausted
}
