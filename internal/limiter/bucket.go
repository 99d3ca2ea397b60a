// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package limiter

import (
	"container/list"
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/tunegate/internal/metrics"
)

// Config holds the parameters of one service limiter.
type Config struct {
	// Capacity is the bucket size, i.e. the largest burst the service allows.
	Capacity int

	// RefillPerSecond is the sustained token rate.
	RefillPerSecond float64

	// Retry is the default policy handed out by Policy.
	Retry RetryPolicy
}

// waiter is one suspended AcquireToken caller. ready is buffered so a
// notification is never lost between the head check and the select.
type waiter struct {
	ready chan struct{}
}

// Limiter is the token bucket and backoff state for one external service.
// All state is guarded by mu, which is held only for arithmetic and never
// across a wait or a fetch.
//
// Tokens refill lazily on access. Waiters are served strictly in arrival
// order: only the queue head may take a token, and the fast path is closed
// while anyone is queued.
type Limiter struct {
	service  string
	capacity float64
	refill   float64
	policy   RetryPolicy

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	backoff    BackoffState
	waiters    *list.List

	// warnEvery throttles rate-limit warnings for this service.
	warnEvery rate.Sometimes
}

// NewLimiter creates a limiter for service with a full bucket.
func NewLimiter(service string, cfg Config) (*Limiter, error) {
	if service == "" {
		return nil, fmt.Errorf("limiter: service id is required")
	}
	if cfg.Capacity < 1 {
		return nil, fmt.Errorf("limiter %s: capacity must be at least 1, got %d", service, cfg.Capacity)
	}
	if cfg.RefillPerSecond <= 0 || math.IsNaN(cfg.RefillPerSecond) || math.IsInf(cfg.RefillPerSecond, 0) {
		return nil, fmt.Errorf("limiter %s: refill rate must be positive, got %v", service, cfg.RefillPerSecond)
	}

	return &Limiter{
		service:    service,
		capacity:   float64(cfg.Capacity),
		refill:     cfg.RefillPerSecond,
		policy:     cfg.Retry.normalized(),
		tokens:     float64(cfg.Capacity),
		lastRefill: time.Now(),
		waiters:    list.New(),
		warnEvery:  rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}, nil
}

// Service returns the service id this limiter guards.
func (l *Limiter) Service() string {
	return l.service
}

// Policy returns the limiter's default retry policy.
func (l *Limiter) Policy() RetryPolicy {
	return l.policy
}

// AcquireToken takes one token, suspending until one accrues if the bucket
// is empty. If ctx ends first the wait is abandoned, no token is taken and
// an error wrapping ErrTimedOut is returned.
func (l *Limiter) AcquireToken(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return l.timedOut(err)
	}

	start := time.Now()
	l.mu.Lock()
	l.refillLocked(start)
	if l.waiters.Len() == 0 && l.tokens >= 1 {
		l.tokens--
		l.mu.Unlock()
		metrics.RecordTokenAcquired(l.service, 0)
		return nil
	}
	w := &waiter{ready: make(chan struct{}, 1)}
	elem := l.waiters.PushBack(w)
	l.mu.Unlock()

	if err := l.wait(ctx, elem, w); err != nil {
		metrics.RecordTokenTimeout(l.service)
		return l.timedOut(err)
	}
	metrics.RecordTokenAcquired(l.service, time.Since(start))
	return nil
}

// AcquireTokenTimeout is AcquireToken bounded by timeout. A timeout of zero
// or less waits until ctx ends.
func (l *Limiter) AcquireTokenTimeout(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		return l.AcquireToken(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return l.AcquireToken(ctx)
}

// TryAcquire takes a token only if one is available right now and nobody is
// queued ahead.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked(time.Now())
	if l.waiters.Len() > 0 || l.tokens < 1 {
		return false
	}
	l.tokens--
	metrics.RecordTokenAcquired(l.service, 0)
	return true
}

// wait parks the caller until it is the queue head and a token is available.
func (l *Limiter) wait(ctx context.Context, elem *list.Element, w *waiter) error {
	for {
		delay := time.Duration(-1)

		l.mu.Lock()
		if l.waiters.Front() == elem {
			l.refillLocked(time.Now())
			if l.tokens >= 1 {
				l.tokens--
				l.waiters.Remove(elem)
				l.notifyHeadLocked()
				l.mu.Unlock()
				return nil
			}
			delay = l.untilNextTokenLocked()
		}
		l.mu.Unlock()

		// Only the head sleeps on the clock; everyone else waits to be promoted.
		var timer *time.Timer
		var tick <-chan time.Time
		if delay >= 0 {
			timer = time.NewTimer(delay)
			tick = timer.C
		}

		select {
		case <-w.ready:
		case <-tick:
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			l.mu.Lock()
			wasHead := l.waiters.Front() == elem
			l.waiters.Remove(elem)
			if wasHead {
				l.notifyHeadLocked()
			}
			l.mu.Unlock()
			return ctx.Err()
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// notifyHeadLocked wakes the current queue head, if any.
func (l *Limiter) notifyHeadLocked() {
	front := l.waiters.Front()
	if front == nil {
		return
	}
	select {
	case front.Value.(*waiter).ready <- struct{}{}:
	default:
	}
}

func (l *Limiter) refillLocked(now time.Time) {
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	l.tokens = math.Min(l.capacity, l.tokens+elapsed*l.refill)
	l.lastRefill = now
}

func (l *Limiter) untilNextTokenLocked() time.Duration {
	need := 1 - l.tokens
	if need <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(need / l.refill * float64(time.Second)))
}

func (l *Limiter) timedOut(cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrTimedOut, l.service, cause)
}

// Snapshot is a read-only view of a limiter.
type Snapshot struct {
	Service             string        `json:"service"`
	Capacity            int           `json:"capacity"`
	RefillPerSecond     float64       `json:"refill_per_second"`
	Tokens              float64       `json:"tokens"`
	Waiters             int           `json:"waiters"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	CurrentDelay        time.Duration `json:"current_delay_ns"`
	MaxRetries          int           `json:"max_retries"`
}

// Snapshot reports the current state. The refill is computed on the side and
// not written back.
func (l *Limiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokens := l.tokens
	if elapsed := time.Since(l.lastRefill).Seconds(); elapsed > 0 {
		tokens = math.Min(l.capacity, tokens+elapsed*l.refill)
	}
	return Snapshot{
		Service:             l.service,
		Capacity:            int(l.capacity),
		RefillPerSecond:     l.refill,
		Tokens:              tokens,
		Waiters:             l.waiters.Len(),
		ConsecutiveFailures: l.backoff.ConsecutiveFailures,
		CurrentDelay:        l.backoff.CurrentDelay,
		MaxRetries:          l.policy.MaxRetries,
	}
}
