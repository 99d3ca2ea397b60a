// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

// Package main runs the tunegate acquisition gate.
//
// Startup order:
//
//  1. Configuration: koanf defaults, then config.yaml, then TUNEGATE_* env
//  2. Logging: zerolog from the logging section
//  3. Profiles: open the store, seed presets, apply configured definitions
//  4. Limiters: one token bucket per configured service
//  5. Acquisition: circuit breakers, result events and the controller
//  6. Supervisor tree: event log, limiter reporter and the diagnostics API
//
// SIGINT and SIGTERM cancel the tree; each service gets the configured
// shutdown timeout before it is reported as unstopped.
//
// The binary serves diagnostics only. Acquisitions run through
// acquisition.Controller.Attempt in the orchestration layer that embeds the
// controller, so the event log service stays idle here.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/tunegate/internal/acquisition"
	"github.com/tomtom215/tunegate/internal/api"
	"github.com/tomtom215/tunegate/internal/config"
	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/quality"
	"github.com/tomtom215/tunegate/internal/supervisor"
	"github.com/tomtom215/tunegate/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingOptions())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Tunegate stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("store", cfg.Store.Type).
		Int("services", len(cfg.Services)).
		Bool("breakers", cfg.Breaker.Enabled).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting tunegate")

	table := quality.DefaultTierTable()

	profiles, err := openProfiles(ctx, cfg, table)
	if err != nil {
		return err
	}
	defer func() {
		if err := profiles.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close profile store")
		}
	}()

	registry, err := limiter.NewRegistry(cfg.LimiterConfigs())
	if err != nil {
		return fmt.Errorf("build limiters: %w", err)
	}

	var opts []acquisition.Option
	if cfg.Breaker.Enabled {
		opts = append(opts, acquisition.WithBreakers(
			acquisition.NewBreakerSet(registry.Services(), cfg.BreakerSettings()),
		))
	}
	var events *acquisition.EventPublisher
	if cfg.Events.Enabled {
		events = acquisition.NewEventPublisher(cfg.Events.Buffer)
		defer func() { _ = events.Close() }()
		opts = append(opts, acquisition.WithPublisher(events))
	}
	controller := acquisition.NewController(registry, opts...)

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if events != nil {
		tree.AddEventService(services.NewEventLogService(events))
	}
	tree.AddMonitoringService(services.NewLimiterReporterService(registry, 5*time.Second))

	if cfg.Server.Enabled {
		router := api.NewRouter(api.NewHandler(controller, profiles, table), api.MiddlewareConfig{
			CORSAllowedOrigins: cfg.Server.CORSOrigins,
			RateLimitRequests:  cfg.Server.RateLimitRequests,
			RateLimitWindow:    cfg.Server.RateLimitWindow,
		})
		server := &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           router,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	// The channel receives exactly one value and is never closed.
	treeErr := <-errCh
	if errors.Is(treeErr, context.Canceled) {
		treeErr = nil
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return treeErr
}
