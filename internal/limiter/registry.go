// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package limiter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/tunegate/internal/logging"
)

// Registry holds one Limiter per service. It is built once at startup and
// never changes afterwards, so lookups need no locking.
type Registry struct {
	limiters map[string]*Limiter
	services []string
}

// NewRegistry creates a limiter for every configured service.
func NewRegistry(configs map[string]Config) (*Registry, error) {
	r := &Registry{limiters: make(map[string]*Limiter, len(configs))}

	for name, cfg := range configs {
		id := normalizeService(name)
		if _, dup := r.limiters[id]; dup {
			return nil, fmt.Errorf("limiter: service %q configured twice", id)
		}
		l, err := NewLimiter(id, cfg)
		if err != nil {
			return nil, err
		}
		r.limiters[id] = l
		r.services = append(r.services, id)

		logging.Info().
			Str("service", id).
			Int("capacity", cfg.Capacity).
			Float64("refill_per_second", cfg.RefillPerSecond).
			Int("max_retries", l.policy.MaxRetries).
			Msg("Service limiter registered")
	}
	sort.Strings(r.services)
	return r, nil
}

// Get returns the limiter for service.
func (r *Registry) Get(service string) (*Limiter, error) {
	l, ok := r.limiters[normalizeService(service)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	return l, nil
}

// Services returns the registered service ids, sorted.
func (r *Registry) Services() []string {
	out := make([]string, len(r.services))
	copy(out, r.services)
	return out
}

// Snapshots returns a snapshot of every limiter, ordered by service id.
func (r *Registry) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(r.services))
	for _, id := range r.services {
		out = append(out, r.limiters[id].Snapshot())
	}
	return out
}

func normalizeService(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
