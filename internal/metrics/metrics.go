// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quality Decision Metrics
	QualityDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_quality_decisions_total",
			Help: "Total number of quality decisions by result",
		},
		[]string{"profile", "result", "reason"}, // result: "accept", "upgrade", "reject"
	)

	// Token Bucket Metrics
	TokenAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_limiter_tokens_acquired_total",
			Help: "Total number of tokens granted by service limiters",
		},
		[]string{"service"},
	)

	TokenWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunegate_limiter_token_wait_seconds",
			Help:    "Time callers spent suspended waiting for a token",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service"},
	)

	TokenTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_limiter_token_timeouts_total",
			Help: "Total number of token waits abandoned on deadline or cancellation",
		},
		[]string{"service"},
	)

	LimiterTokens = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tunegate_limiter_tokens_available",
			Help: "Tokens currently available in the service bucket",
		},
		[]string{"service"},
	)

	LimiterWaiters = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tunegate_limiter_waiters",
			Help: "Callers currently queued for a token",
		},
		[]string{"service"},
	)

	// Backoff Metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_rate_limit_hits_total",
			Help: "Total number of rate-limit signals (HTTP 429) received from services",
		},
		[]string{"service", "retry_after"}, // retry_after: "true", "false"
	)

	BackoffDelay = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunegate_backoff_delay_seconds",
			Help:    "Delay applied before retrying a rate-limited call",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32, 60, 120},
		},
		[]string{"service"},
	)

	BackoffConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tunegate_backoff_consecutive_failures",
			Help: "Consecutive rate-limit failures recorded for the service",
		},
		[]string{"service"},
	)

	BackendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_backend_failures_total",
			Help: "Total number of transport or 5xx failures from services",
		},
		[]string{"service"},
	)

	// Call and Acquisition Metrics
	CallOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_limiter_calls_total",
			Help: "Total number of limited calls by terminal outcome",
		},
		[]string{"service", "outcome"},
	)

	CallAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunegate_limiter_call_attempts",
			Help:    "Number of fetch attempts made per limited call",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 8},
		},
		[]string{"service"},
	)

	AcquisitionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tunegate_acquisition_duration_seconds",
			Help:    "End-to-end duration of accepted acquisition attempts",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "outcome"},
	)

	AcquisitionUpgrades = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_acquisition_upgrades_total",
			Help: "Total number of accepted acquisitions that replace an existing file",
		},
		[]string{"service", "outcome"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tunegate_events_published_total",
			Help: "Total number of acquisition result events published",
		},
		[]string{"status"}, // "ok", "error"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)
)

// RecordDecision records one quality decision.
func RecordDecision(profile string, accepted, isUpgrade bool, reason string) {
	result := "reject"
	switch {
	case accepted && isUpgrade:
		result = "upgrade"
	case accepted:
		result = "accept"
	}
	QualityDecisions.WithLabelValues(profile, result, reason).Inc()
}

// RecordTokenAcquired records a granted token and how long the caller waited.
func RecordTokenAcquired(service string, waited time.Duration) {
	TokenAcquisitions.WithLabelValues(service).Inc()
	TokenWaitDuration.WithLabelValues(service).Observe(waited.Seconds())
}

// RecordTokenTimeout records an abandoned token wait.
func RecordTokenTimeout(service string) {
	TokenTimeouts.WithLabelValues(service).Inc()
}

// RecordRateLimitHit records a 429 signal and the delay chosen for it.
func RecordRateLimitHit(service string, hasRetryAfter bool, delay time.Duration, consecutiveFailures int) {
	RateLimitHits.WithLabelValues(service, strconv.FormatBool(hasRetryAfter)).Inc()
	BackoffConsecutiveFailures.WithLabelValues(service).Set(float64(consecutiveFailures))
	if delay > 0 {
		BackoffDelay.WithLabelValues(service).Observe(delay.Seconds())
	}
}

// RecordBackoffReset clears the failure gauge after a successful call.
func RecordBackoffReset(service string) {
	BackoffConsecutiveFailures.WithLabelValues(service).Set(0)
}

// RecordBackendFailure records a transport or 5xx failure.
func RecordBackendFailure(service string) {
	BackendFailures.WithLabelValues(service).Inc()
}

// RecordCallOutcome records the terminal outcome of a limited call.
func RecordCallOutcome(service, outcome string, attempts int) {
	CallOutcomes.WithLabelValues(service, outcome).Inc()
	CallAttempts.WithLabelValues(service).Observe(float64(attempts))
}

// RecordAcquisition records an accepted acquisition attempt.
func RecordAcquisition(service, outcome string, isUpgrade bool, duration time.Duration) {
	AcquisitionDuration.WithLabelValues(service, outcome).Observe(duration.Seconds())
	if isUpgrade {
		AcquisitionUpgrades.WithLabelValues(service, outcome).Inc()
	}
}

// SetLimiterState publishes a point-in-time view of a service limiter.
func SetLimiterState(service string, tokens float64, waiters, consecutiveFailures int) {
	LimiterTokens.WithLabelValues(service).Set(tokens)
	LimiterWaiters.WithLabelValues(service).Set(float64(waiters))
	BackoffConsecutiveFailures.WithLabelValues(service).Set(float64(consecutiveFailures))
}

// RecordEventPublished records an event publish attempt.
func RecordEventPublished(err error) {
	if err != nil {
		EventsPublished.WithLabelValues("error").Inc()
		return
	}
	EventsPublished.WithLabelValues("ok").Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
