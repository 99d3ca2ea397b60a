// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/metrics"
	"github.com/tomtom215/tunegate/internal/quality"
)

// ErrNoFetchFunc is returned in AcquisitionResult.Err when an accepted
// request carries no fetch function.
var ErrNoFetchFunc = errors.New("acquisition request has no fetch function")

// AttemptRequest is one candidate presented to the gate.
type AttemptRequest struct {
	Profile   *quality.Profile
	Candidate quality.TierID

	// Existing is the tier already in the library, nil for a first fetch.
	Existing *quality.TierID

	ServiceID string
	Fetch     limiter.FetchFunc
}

// Controller composes the decision engine with the service limiters.
type Controller struct {
	registry  *limiter.Registry
	breakers  *BreakerSet
	publisher ResultPublisher
}

// Option configures a Controller.
type Option func(*Controller)

// WithBreakers guards each service with a circuit breaker.
func WithBreakers(b *BreakerSet) Option {
	return func(c *Controller) { c.breakers = b }
}

// WithPublisher publishes every result, accepted or not.
func WithPublisher(p ResultPublisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// NewController creates a controller over the given limiter registry.
func NewController(registry *limiter.Registry, opts ...Option) *Controller {
	c := &Controller{registry: registry}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attempt decides whether the candidate is worth fetching and, if so, runs
// the fetch through the service limiter. A rejected candidate never touches
// the limiter and spends no quota.
func (c *Controller) Attempt(ctx context.Context, req AttemptRequest) AcquisitionResult {
	start := time.Now()
	attemptID := uuid.NewString()
	ctx = logging.ContextWithAttemptID(ctx, attemptID)

	res := AcquisitionResult{
		AttemptID: attemptID,
		Service:   req.ServiceID,
		Candidate: req.Candidate,
		Existing:  req.Existing,
	}
	if req.Profile != nil {
		res.Profile = req.Profile.Name()
	}

	decision := quality.Decide(req.Profile, req.Candidate, req.Existing)
	metrics.RecordDecision(res.Profile, decision.Accepted, decision.IsUpgrade, string(decision.Reason))
	res.Accepted = decision.Accepted
	res.IsUpgrade = decision.IsUpgrade
	res.RejectReason = decision.Reason

	if !decision.Accepted {
		logging.Ctx(ctx).Debug().
			Str("profile", res.Profile).
			Int("candidate", int(req.Candidate)).
			Str("reason", string(decision.Reason)).
			Msg("Candidate rejected")
		return c.complete(ctx, res, start)
	}

	res.FetchOutcome, res.AttemptsMade, res.Err = c.fetch(ctx, req)
	metrics.RecordAcquisition(res.Service, string(res.FetchOutcome), res.IsUpgrade, time.Since(start))

	event := logging.Ctx(ctx).Info()
	if res.FetchOutcome != limiter.OutcomeSuccess {
		event = logging.Ctx(ctx).Warn().Err(res.Err)
	}
	event.
		Str("service", res.Service).
		Str("profile", res.Profile).
		Int("candidate", int(req.Candidate)).
		Bool("is_upgrade", res.IsUpgrade).
		Str("outcome", string(res.FetchOutcome)).
		Int("attempts", res.AttemptsMade).
		Msg("Acquisition finished")

	return c.complete(ctx, res, start)
}

func (c *Controller) fetch(ctx context.Context, req AttemptRequest) (limiter.Outcome, int, error) {
	lim, err := c.registry.Get(req.ServiceID)
	if err != nil {
		return limiter.OutcomeFailed, 0, err
	}
	if req.Fetch == nil {
		return limiter.OutcomeFailed, 0, ErrNoFetchFunc
	}

	// An open breaker short-circuits before any token is spent.
	if c.breakers.State(lim.Service()) == gobreaker.StateOpen {
		return limiter.OutcomeBackendUnavailable, 0,
			fmt.Errorf("%w: %s: %w", limiter.ErrBackendUnavailable, lim.Service(), gobreaker.ErrOpenState)
	}

	call := lim.Call(ctx, c.breakers.wrap(lim.Service(), req.Fetch), lim.Policy())
	return call.Outcome, call.Attempts, call.Err
}

func (c *Controller) complete(ctx context.Context, res AcquisitionResult, start time.Time) AcquisitionResult {
	res.Duration = time.Since(start)
	if c.publisher != nil {
		if err := c.publisher.PublishResult(ctx, res); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish acquisition result")
		}
	}
	return res
}

// Registry exposes the limiter registry for diagnostics.
func (c *Controller) Registry() *limiter.Registry {
	return c.registry
}

// Breakers exposes the breaker set for diagnostics; it may be nil.
func (c *Controller) Breakers() *BreakerSet {
	return c.breakers
}
