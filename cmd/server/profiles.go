// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/tunegate/internal/config"
	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/quality"
	"github.com/tomtom215/tunegate/internal/store"
)

// openProfiles opens the configured store, seeds the missing presets and
// upserts the configured definitions. Definitions win over presets of the
// same name.
func openProfiles(ctx context.Context, cfg *config.Config, table *quality.TierTable) (store.ProfileStore, error) {
	profiles, err := store.Open(table, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}

	if cfg.Profiles.SeedPresets {
		if err := store.SeedPresets(ctx, profiles, table, cfg.Profiles.Presets); err != nil {
			_ = profiles.Close()
			return nil, fmt.Errorf("seed presets: %w", err)
		}
	}

	for _, doc := range cfg.Profiles.Definitions {
		p, err := profiles.Put(ctx, doc)
		if err != nil {
			_ = profiles.Close()
			return nil, fmt.Errorf("store profile %q: %w", doc.Name, err)
		}
		logging.Info().
			Str("profile", p.Name()).
			Int("profile_id", p.ID()).
			Msg("Profile definition applied")
	}

	return profiles, nil
}
