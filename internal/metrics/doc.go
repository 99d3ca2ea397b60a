// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

/*
Package metrics provides Prometheus instrumentation for the acquisition gate.

All collectors are registered with the default registry through promauto and are
exposed by the diagnostics server at /metrics:

	curl http://localhost:8686/metrics

# Available Metrics

Quality decisions:
  - tunegate_quality_decisions_total (counter)
    Labels: profile, result (accept, upgrade, reject), reason

Token buckets, one label value per configured service:
  - tunegate_limiter_tokens_acquired_total (counter)
  - tunegate_limiter_token_wait_seconds (histogram)
  - tunegate_limiter_token_timeouts_total (counter)
  - tunegate_limiter_tokens_available (gauge)
  - tunegate_limiter_waiters (gauge)

Backoff and retries:
  - tunegate_rate_limit_hits_total (counter)
    Labels: service, retry_after
  - tunegate_backoff_delay_seconds (histogram)
  - tunegate_backoff_consecutive_failures (gauge)
  - tunegate_backend_failures_total (counter)
  - tunegate_limiter_calls_total (counter)
    Labels: service, outcome
  - tunegate_limiter_call_attempts (histogram)

Acquisitions:
  - tunegate_acquisition_duration_seconds (histogram)
    Labels: service, outcome
  - tunegate_acquisition_upgrades_total (counter)

Circuit breakers:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures (gauge)
  - circuit_breaker_state_transitions_total (counter)

Diagnostics API:
  - api_requests_total, api_request_duration_seconds, api_active_requests

# Usage

Record helpers keep label handling in one place:

	metrics.RecordTokenAcquired("spotify", waited)
	metrics.RecordRateLimitHit("spotify", true, 5*time.Second, 2)

# Thread Safety

All collectors are safe for concurrent use.
*/
package metrics
