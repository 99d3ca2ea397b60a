// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package quality

// NotRanked is returned by Rank for tiers the profile does not allow.
const NotRanked = -1

// RejectReason names why Decide refused a candidate.
type RejectReason string

const (
	ReasonNone             RejectReason = ""
	ReasonNotAllowed       RejectReason = "not-allowed"
	ReasonUpgradesDisabled RejectReason = "upgrades-disabled"
	ReasonCutoffMet        RejectReason = "cutoff-already-met"
	ReasonNotImprovement   RejectReason = "not-an-improvement"
)

// Decision is the outcome of Decide: either an acceptance (with IsUpgrade
// telling a replacement from a first fetch) or a rejection with a reason.
type Decision struct {
	Accepted  bool         `json:"accepted"`
	IsUpgrade bool         `json:"is_upgrade"`
	Reason    RejectReason `json:"reason,omitempty"`
}

// Accept builds an accepting decision.
func Accept(isUpgrade bool) Decision {
	return Decision{Accepted: true, IsUpgrade: isUpgrade}
}

// Reject builds a rejecting decision.
func Reject(reason RejectReason) Decision {
	return Decision{Reason: reason}
}

func (d Decision) String() string {
	switch {
	case d.Accepted && d.IsUpgrade:
		return "accept(upgrade)"
	case d.Accepted:
		return "accept"
	default:
		return "reject(" + string(d.Reason) + ")"
	}
}

// IsAllowed reports whether id is an allowed leaf whose enclosing groups are
// all allowed. Ids absent from the profile are simply not allowed.
func IsAllowed(p *Profile, id TierID) bool {
	if p == nil {
		return false
	}
	_, ok := p.rank[id]
	return ok
}

// Rank returns the profile-relative position of id, 0 being most preferred,
// or NotRanked when the tier is not allowed.
func Rank(p *Profile, id TierID) int {
	if p == nil {
		return NotRanked
	}
	r, ok := p.rank[id]
	if !ok {
		return NotRanked
	}
	return r
}

// IsCutoffMet reports whether current is allowed and at least as good as the
// profile cutoff. Lower rank is better, so "met" means rank <= cutoff rank.
func IsCutoffMet(p *Profile, current TierID) bool {
	if !IsAllowed(p, current) {
		return false
	}
	return Rank(p, current) <= Rank(p, p.cutoff)
}

// Decide evaluates a candidate against a profile. existing is nil when the
// library has no file yet. Rules run in a fixed order and the first match
// wins; the cutoff check must precede the improvement check.
func Decide(p *Profile, candidate TierID, existing *TierID) Decision {
	if !IsAllowed(p, candidate) {
		return Reject(ReasonNotAllowed)
	}
	if existing == nil {
		return Accept(false)
	}
	if !p.upgradeAllowed {
		return Reject(ReasonUpgradesDisabled)
	}
	current := *existing
	if IsCutoffMet(p, current) {
		return Reject(ReasonCutoffMet)
	}
	// A disallowed existing tier has rank NotRanked (-1), which no candidate
	// rank is below, so it is never replaced through this rule.
	if Rank(p, candidate) < Rank(p, current) {
		return Accept(true)
	}
	return Reject(ReasonNotImprovement)
}

// Existing is a convenience for passing an existing tier to Decide.
func Existing(id TierID) *TierID {
	return &id
}
