// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

/*
Package limiter throttles and retries calls to quota-limited external services.

Each service (spotify, deezer, musicbrainz, ...) gets one Limiter holding a
token bucket and an adaptive backoff state. Limiters are created once at
startup by NewRegistry and shared by every caller for the life of the process.

# Token Bucket

Tokens refill lazily when the bucket is touched, at RefillPerSecond up to
Capacity. AcquireToken takes a token immediately when one is available and
nobody is queued; otherwise the caller joins a FIFO queue and suspends until
it reaches the head and a token accrues. Cancelling the context removes the
caller from the queue without touching the bucket.

# Retry Protocol

Call wraps a FetchFunc:

	res := lim.Call(ctx, func(ctx context.Context) error {
	    resp, err := client.Do(req.WithContext(ctx))
	    if err != nil {
	        return err
	    }
	    defer resp.Body.Close()
	    return limiter.ClassifyResponse(resp)
	}, lim.Policy())

A *RateLimitedError (HTTP 429) bumps the service's consecutive failure count
and waits 1s, 2s, 4s, ... capped at MaxDelay, or exactly the Retry-After
value when the service sent one. A *BackendError or net.Error (5xx or
transport) leaves the backoff state alone and waits BackendRetryDelay. Both
give up after MaxRetries retries. A success resets the backoff state. Every
attempt, including retries, spends a fresh token.

# Thread Safety

A Limiter's mutex is held only for token and backoff arithmetic, never while
waiting or while the fetch runs. Different services never contend.
*/
package limiter
