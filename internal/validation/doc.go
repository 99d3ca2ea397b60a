// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

// Package validation wraps go-playground/validator v10 with a shared
// instance, a service_id rule, and messages keyed by the configuration or
// JSON field name.
//
//	type DecideRequest struct {
//	    Candidate int    `json:"candidate" validate:"gte=0"`
//	    Service   string `json:"service" validate:"omitempty,service_id"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    // err is *validation.Error; err.Error() joins every message
//	}
package validation
