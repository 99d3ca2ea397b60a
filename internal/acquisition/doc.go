// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

// Package acquisition is the single entry point callers use to fetch a file.
//
// Controller.Attempt first asks the quality engine whether the candidate is
// worth having under the target profile. Rejections return at once and never
// consume quota. Accepted candidates are fetched through the service's token
// bucket limiter, optionally behind a circuit breaker, and the result is
// tagged with IsUpgrade so callers can tell a replacement from a first fetch.
//
// Every result is also published as a JSON ResultEvent on the in-process
// "acquisition.results" topic when a publisher is configured.
package acquisition
