// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

/*
Package api serves the read-only diagnostics HTTP surface on a chi router.

# Endpoints

	GET /api/v1/health/live                  process liveness
	GET /api/v1/health/ready                 profile store reachable
	GET /api/v1/limiters                     every service limiter snapshot
	GET /api/v1/limiters/{service}           one limiter snapshot
	GET /api/v1/tiers                        quality tier catalog
	GET /api/v1/profiles                     stored quality profiles
	GET /api/v1/profiles/{name}              one profile
	GET /api/v1/profiles/{name}/decide       dry-run decision (?candidate=&existing=)
	GET /metrics                             Prometheus metrics

Decide only evaluates the quality engine; it never acquires a token. Tiers
may be given by id (6) or by catalog name (FLAC, MP3-320).

Every JSON response uses the same envelope:

	{"status":"success","data":...,"metadata":{"timestamp":"..."}}
	{"status":"error","data":null,"metadata":{...},"error":{"code":"...","message":"..."}}

The /api/v1 routes are rate limited per client IP with go-chi/httprate and
CORS is handled by go-chi/cors with no origins allowed unless configured.
*/
package api
