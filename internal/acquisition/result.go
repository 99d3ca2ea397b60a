// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package acquisition

import (
	"time"

	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/quality"
)

// OutcomeNone is the FetchOutcome of a rejected candidate: nothing was fetched.
const OutcomeNone limiter.Outcome = ""

// AcquisitionResult is what Attempt reports back to the orchestration layer.
//
// A rejected candidate has Accepted=false, a RejectReason, FetchOutcome
// OutcomeNone and AttemptsMade=0. An accepted candidate carries the limiter's
// terminal outcome; AttemptsMade is the number of tokens spent.
type AcquisitionResult struct {
	AttemptID string
	Service   string
	Profile   string
	Candidate quality.TierID
	Existing  *quality.TierID

	Accepted     bool
	IsUpgrade    bool
	RejectReason quality.RejectReason

	FetchOutcome limiter.Outcome
	AttemptsMade int
	Duration     time.Duration

	// Err is set for every fetch outcome other than success. For
	// OutcomeFailed it wraps the fetch function's own error.
	Err error
}

// Succeeded reports whether the candidate was accepted and fetched.
func (r AcquisitionResult) Succeeded() bool {
	return r.Accepted && r.FetchOutcome == limiter.OutcomeSuccess
}

// Retryable reports whether requeueing the candidate later makes sense.
func (r AcquisitionResult) Retryable() bool {
	switch r.FetchOutcome {
	case limiter.OutcomeRateLimitExceeded, limiter.OutcomeBackendUnavailable, limiter.OutcomeTimedOut:
		return true
	default:
		return false
	}
}
