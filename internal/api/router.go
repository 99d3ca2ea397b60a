// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the diagnostics routes.
func NewRouter(h *Handler, cfg MiddlewareConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cfg.corsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.rateLimit())
		r.Use(prometheusMetrics)

		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		r.Get("/limiters", h.Limiters)
		r.Get("/limiters/{service}", h.Limiter)

		r.Get("/tiers", h.Tiers)

		r.Get("/profiles", h.Profiles)
		r.Get("/profiles/{name}", h.Profile)
		r.Get("/profiles/{name}/decide", h.Decide)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
