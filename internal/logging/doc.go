// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

// Package logging provides centralized zerolog-based structured logging.
//
// # Overview
//
// The package provides:
//   - A process-wide zerolog logger (JSON by default, console optional)
//   - Context-aware logging with correlation and attempt ID propagation
//   - An slog.Handler adapter for the suture supervisor (via sutureslog)
//   - A watermill.LoggerAdapter for the in-process event bus
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("service", "spotify").Msg("Limiter registered")
//	logging.Ctx(ctx).Warn().Dur("delay", d).Msg("Rate limited, backing off")
//
// Always terminate event chains with Msg or Send; an unterminated chain is
// never written.
//
// # Thread Safety
//
// All functions are safe for concurrent use. Init may be called again to
// reconfigure the global logger.
package logging
