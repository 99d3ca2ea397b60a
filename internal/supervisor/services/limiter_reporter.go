// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/metrics"
)

// SnapshotSource is satisfied by *limiter.Registry.
type SnapshotSource interface {
	Snapshots() []limiter.Snapshot
}

// LimiterReporterService copies limiter state into the Prometheus gauges on
// a fixed interval. Token counts only change when someone acquires, so the
// gauges would otherwise go stale while a service is idle and refilling.
type LimiterReporterService struct {
	source   SnapshotSource
	interval time.Duration
}

// NewLimiterReporterService reports every interval (5s when non-positive).
func NewLimiterReporterService(source SnapshotSource, interval time.Duration) *LimiterReporterService {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &LimiterReporterService{source: source, interval: interval}
}

// Serve reports once immediately and then on every tick until ctx ends.
func (s *LimiterReporterService) Serve(ctx context.Context) error {
	s.report()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.report()
		}
	}
}

func (s *LimiterReporterService) report() {
	for _, snap := range s.source.Snapshots() {
		metrics.SetLimiterState(snap.Service, snap.Tokens, snap.Waiters, snap.ConsecutiveFailures)
	}
}

func (s *LimiterReporterService) String() string {
	return "limiter-reporter"
}
