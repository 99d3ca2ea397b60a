// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package config

import (
	"fmt"

	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/quality"
	"github.com/tomtom215/tunegate/internal/validation"
)

// Validate checks field rules first, then rules spanning several fields.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	validators := []func() error{
		c.validateLogging,
		c.validateStore,
		c.validateServices,
		c.validateProfiles,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Type == "badger" && !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when store.type=badger")
	}
	return nil
}

func (c *Config) validateServices() error {
	for name, s := range c.Services {
		if s.BaseDelay > 0 && s.MaxDelay > 0 && s.MaxDelay < s.BaseDelay {
			return fmt.Errorf("services.%s.max_delay (%s) is below base_delay (%s)", name, s.MaxDelay, s.BaseDelay)
		}
	}
	return nil
}

func (c *Config) validateProfiles() error {
	for _, name := range c.Profiles.Presets {
		if _, ok := quality.Presets[name]; !ok {
			return fmt.Errorf("profiles.presets: unknown preset %q (valid: %v)", name, quality.PresetNames())
		}
	}

	seen := make(map[string]struct{}, len(c.Profiles.Definitions))
	for i, doc := range c.Profiles.Definitions {
		if doc.Name == "" {
			return fmt.Errorf("profiles.definitions[%d].name is required", i)
		}
		if _, dup := seen[doc.Name]; dup {
			return fmt.Errorf("profiles.definitions: %q defined twice", doc.Name)
		}
		seen[doc.Name] = struct{}{}
	}
	return nil
}
