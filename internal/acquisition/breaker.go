// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package acquisition

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/metrics"
)

// BreakerConfig configures the per-service circuit breakers.
type BreakerConfig struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval resets the closed-state counts; zero never resets.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// MinRequests is the sample size required before the ratio is considered.
	MinRequests uint32

	// FailureRatio opens the breaker once backend failures reach it.
	FailureRatio float64
}

// DefaultBreakerConfig returns 3 half-open trial requests, a 1 minute window, a 2
// minute open period and a 60% failure ratio over at least 10 requests.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      2 * time.Minute,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerSet holds one circuit breaker per service. Only backend failures
// count against a breaker; rate-limit signals are the limiter's concern.
type BreakerSet struct {
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerSet creates a closed breaker for each service.
func NewBreakerSet(services []string, cfg BreakerConfig) *BreakerSet {
	set := &BreakerSet{breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}], len(services))}
	for _, service := range services {
		set.breakers[service] = newBreaker(service, cfg)
	}
	return set
}

func newBreaker(service string, cfg BreakerConfig) *gobreaker.CircuitBreaker[struct{}] {
	name := "service-" + service

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			trip := ratio >= cfg.FailureRatio
			if trip {
				logging.Warn().
					Str("service", service).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: func(err error) bool {
			return err == nil || !limiter.IsBackendFailure(err)
		},

		// A fetch the caller abandoned says nothing about the service.
		IsExcluded: func(err error) bool {
			var abandoned *abandonedError
			return errors.As(err, &abandoned)
		},
	})
}

// abandonedError marks a fetch that failed after the caller's context ended.
// It only travels through the breaker; wrap unwraps it again.
type abandonedError struct {
	err error
}

func (e *abandonedError) Error() string { return e.err.Error() }

func (e *abandonedError) Unwrap() error { return e.err }

// stateValue maps breaker states onto the circuit_breaker_state gauge.
func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State returns the breaker state for service. Services without a breaker
// report closed.
func (b *BreakerSet) State(service string) gobreaker.State {
	if b == nil {
		return gobreaker.StateClosed
	}
	cb, ok := b.breakers[service]
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}

// States returns every breaker state keyed by service.
func (b *BreakerSet) States() map[string]string {
	out := make(map[string]string)
	if b == nil {
		return out
	}
	for service, cb := range b.breakers {
		out[service] = cb.State().String()
	}
	return out
}

// wrap runs each fetch attempt through the service breaker. A breaker
// rejection is returned as *limiter.RefusedError so the call ends without
// spending more tokens. Fetches that fail after ctx has ended are not
// counted against the service.
func (b *BreakerSet) wrap(service string, fetch limiter.FetchFunc) limiter.FetchFunc {
	if b == nil {
		return fetch
	}
	cb, ok := b.breakers[service]
	if !ok {
		return fetch
	}
	name := cb.Name()

	return func(ctx context.Context) error {
		_, err := cb.Execute(func() (struct{}, error) {
			err := fetch(ctx)
			if err != nil && ctx.Err() != nil {
				return struct{}{}, &abandonedError{err: err}
			}
			return struct{}{}, err
		})

		var abandoned *abandonedError
		switch {
		case err == nil:
			metrics.CircuitBreakerRequests.WithLabelValues(name, "success").Inc()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			return nil
		case errors.As(err, &abandoned):
			return abandoned.err
		case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected").Inc()
			return &limiter.RefusedError{Err: err}
		default:
			if limiter.IsBackendFailure(err) {
				metrics.CircuitBreakerRequests.WithLabelValues(name, "failure").Inc()
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(float64(cb.Counts().ConsecutiveFailures))
			}
			return err
		}
	}
}
