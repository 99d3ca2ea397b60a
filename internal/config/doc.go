// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

/*
Package config loads Tunegate configuration with Koanf v2.

# Sources

Three layers are merged, later ones winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: TUNEGATE_CONFIG, else config.yaml, config.yml,
    /etc/tunegate/config.yaml, /etc/tunegate/config.yml
 3. Environment variables prefixed TUNEGATE_, with "__" separating levels

# Example

	logging:
	  level: info
	  format: json
	server:
	  port: 8686
	store:
	  type: badger
	  path: /data/tunegate
	services:
	  spotify:
	    capacity: 10
	    refill_per_second: 2
	    max_retries: 3
	    base_delay: 1s
	    max_delay: 60s
	  musicbrainz:
	    capacity: 1
	    refill_per_second: 1
	profiles:
	  seed_presets: true
	  definitions:
	    - name: vinyl-rips
	      upgrade_allowed: true
	      cutoff: 6
	      items:
	        - tier: 6
	          allowed: true
	        - tier: 4
	          allowed: true

The same service tuned from the environment:

	TUNEGATE_SERVICES__SPOTIFY__CAPACITY=20
	TUNEGATE_SERVICES__SPOTIFY__ACQUIRE_TIMEOUT=30s

# Validation

Field rules are struct tags checked by go-playground/validator (see package
validation). Validate then checks rules spanning fields: a badger store
needs a path, max_delay may not be below base_delay, preset names must
exist and profile definitions need unique names. Profile trees themselves
are validated by the store when they are written.
*/
package config
