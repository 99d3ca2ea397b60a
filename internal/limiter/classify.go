// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package limiter

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ClassifyResponse maps an HTTP response onto the failure shapes Call
// understands: 429 becomes *RateLimitedError (with Retry-After when the
// header parses), 5xx becomes *BackendError, other 4xx a plain error, and
// anything below 400 nil. It does not read or close the body.
func ClassifyResponse(resp *http.Response) error {
	if resp == nil {
		return &BackendError{Err: fmt.Errorf("no response")}
	}

	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		if d, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			return RateLimitedAfter(d)
		}
		return RateLimited()
	case code >= 500:
		return &BackendError{StatusCode: code}
	case code >= 400:
		return fmt.Errorf("unexpected HTTP status %d", code)
	default:
		return nil
	}
}

// ParseRetryAfter reads a Retry-After value in delta-seconds or HTTP-date
// form (RFC 9110). Dates in the past yield zero.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
