// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/tunegate/internal/acquisition"
	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/quality"
	"github.com/tomtom215/tunegate/internal/store"
	"github.com/tomtom215/tunegate/internal/validation"
)

// Handler serves the read-only diagnostics endpoints.
type Handler struct {
	registry *limiter.Registry
	breakers *acquisition.BreakerSet
	profiles store.ProfileStore
	table    *quality.TierTable
	started  time.Time
}

// NewHandler creates a handler over the controller's limiters and breakers.
func NewHandler(controller *acquisition.Controller, profiles store.ProfileStore, table *quality.TierTable) *Handler {
	return &Handler{
		registry: controller.Registry(),
		breakers: controller.Breakers(),
		profiles: profiles,
		table:    table,
		started:  time.Now(),
	}
}

// HealthLive reports that the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// HealthReady reports whether the profile store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.profiles.List(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Profile store is not available", err)
		return
	}
	respondData(w, map[string]string{"status": "ready"})
}

// LimiterView is a limiter snapshot plus its breaker state.
type LimiterView struct {
	limiter.Snapshot
	BreakerState string `json:"breaker_state"`
}

func (h *Handler) limiterView(l *limiter.Limiter) LimiterView {
	return LimiterView{
		Snapshot:     l.Snapshot(),
		BreakerState: h.breakers.State(l.Service()).String(),
	}
}

// Limiters lists every service limiter.
func (h *Handler) Limiters(w http.ResponseWriter, r *http.Request) {
	services := h.registry.Services()
	views := make([]LimiterView, 0, len(services))
	for _, service := range services {
		l, err := h.registry.Get(service)
		if err != nil {
			continue
		}
		views = append(views, h.limiterView(l))
	}
	respondData(w, views)
}

// Limiter returns one service limiter.
func (h *Handler) Limiter(w http.ResponseWriter, r *http.Request) {
	l, err := h.registry.Get(chi.URLParam(r, "service"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, "UNKNOWN_SERVICE", err.Error(), nil)
		return
	}
	respondData(w, h.limiterView(l))
}

// Tiers lists the quality tier catalog.
func (h *Handler) Tiers(w http.ResponseWriter, r *http.Request) {
	respondData(w, h.table.All())
}

// ProfileView is a profile document plus its allowed tiers in rank order.
type ProfileView struct {
	quality.ProfileDocument
	AllowedTiers []quality.TierID `json:"allowed_tiers"`
}

func profileView(p *quality.Profile) ProfileView {
	return ProfileView{ProfileDocument: p.Document(), AllowedTiers: p.AllowedTiers()}
}

// Profiles lists every stored profile.
func (h *Handler) Profiles(w http.ResponseWriter, r *http.Request) {
	list, err := h.profiles.List(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_ERROR", "Failed to list profiles", err)
		return
	}
	views := make([]ProfileView, len(list))
	for i, p := range list {
		views[i] = profileView(p)
	}
	respondData(w, views)
}

// Profile returns one profile by name.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	respondData(w, profileView(p))
}

func (h *Handler) loadProfile(w http.ResponseWriter, r *http.Request) (*quality.Profile, bool) {
	name := chi.URLParam(r, "name")
	p, err := h.profiles.Get(r.Context(), name)
	if errors.Is(err, store.ErrProfileNotFound) {
		respondError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", fmt.Sprintf("Profile %q not found", name), nil)
		return nil, false
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_ERROR", "Failed to load profile", err)
		return nil, false
	}
	return p, true
}

// DecideQuery holds the dry-run decide parameters. Tiers are given by id
// or by catalog name.
type DecideQuery struct {
	Candidate string `json:"candidate" validate:"required"`
	Existing  string `json:"existing"`
}

// DecideView is the dry-run verdict.
type DecideView struct {
	Profile   string               `json:"profile"`
	Candidate quality.Tier         `json:"candidate"`
	Existing  *quality.Tier        `json:"existing,omitempty"`
	Accepted  bool                 `json:"accepted"`
	IsUpgrade bool                 `json:"is_upgrade"`
	Reason    quality.RejectReason `json:"reason,omitempty"`
	Rank      int                  `json:"candidate_rank"`
	CutoffMet bool                 `json:"cutoff_met"`
}

// Decide runs the decision engine without touching any limiter.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	q := DecideQuery{
		Candidate: r.URL.Query().Get("candidate"),
		Existing:  r.URL.Query().Get("existing"),
	}
	if err := validation.ValidateStruct(&q); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}

	candidate, err := h.resolveTier(q.Candidate)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "UNKNOWN_TIER", err.Error(), nil)
		return
	}
	view := DecideView{
		Profile:   p.Name(),
		Candidate: candidate,
		Rank:      quality.Rank(p, candidate.ID),
	}

	var existing *quality.TierID
	if q.Existing != "" {
		tier, err := h.resolveTier(q.Existing)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "UNKNOWN_TIER", err.Error(), nil)
			return
		}
		existing = quality.Existing(tier.ID)
		view.Existing = &tier
		view.CutoffMet = quality.IsCutoffMet(p, tier.ID)
	}

	d := quality.Decide(p, candidate.ID, existing)
	view.Accepted = d.Accepted
	view.IsUpgrade = d.IsUpgrade
	view.Reason = d.Reason
	respondData(w, view)
}

// resolveTier maps a query value to a tier. A numeric id outside the catalog
// resolves to a bare tier so the engine can report it as not allowed; only
// names must match the catalog.
func (h *Handler) resolveTier(s string) (quality.Tier, error) {
	if id, err := strconv.Atoi(s); err == nil {
		if t, ok := h.table.Lookup(quality.TierID(id)); ok {
			return t, nil
		}
		return quality.Tier{ID: quality.TierID(id)}, nil
	}
	if t, ok := h.table.ByName(s); ok {
		return t, nil
	}
	return quality.Tier{}, fmt.Errorf("%w: %q", quality.ErrUnknownTier, s)
}
