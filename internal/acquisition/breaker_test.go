// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package acquisition

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tunegate/internal/limiter"
)

func TestBreakerSet_NilIsPassThrough(t *testing.T) {
	var set *BreakerSet

	if set.State("spotify") != gobreaker.StateClosed {
		t.Error("nil set should report closed")
	}
	if len(set.States()) != 0 {
		t.Error("nil set should have no states")
	}

	want := errors.New("boom")
	fetch := set.wrap("spotify", func(ctx context.Context) error { return want })
	if err := fetch(context.Background()); !errors.Is(err, want) {
		t.Errorf("wrap changed error: %v", err)
	}
}

func TestBreakerSet_OnlyBackendFailuresCount(t *testing.T) {
	set := NewBreakerSet([]string{"deezer"}, BreakerConfig{
		MaxRequests:  1,
		Timeout:      time.Minute,
		MinRequests:  3,
		FailureRatio: 0.5,
	})
	wrapped := func(err error) error {
		return set.wrap("deezer", func(ctx context.Context) error { return err })(context.Background())
	}

	for range 5 {
		_ = wrapped(limiter.RateLimited())
		_ = wrapped(errors.New("not found"))
	}
	if got := set.State("deezer"); got != gobreaker.StateClosed {
		t.Fatalf("state = %s after non-backend errors, want closed", got)
	}

	// Ten successes so far; ten failures bring the ratio to 0.5.
	for range 12 {
		_ = wrapped(&limiter.BackendError{StatusCode: 500})
	}
	if got := set.State("deezer"); got != gobreaker.StateOpen {
		t.Fatalf("state = %s after backend failures, want open", got)
	}

	err := wrapped(nil)
	var refused *limiter.RefusedError
	if !errors.As(err, &refused) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("open breaker rejection = %v, want refusal wrapping ErrOpenState", err)
	}
	if got := set.States()["deezer"]; got != "open" {
		t.Errorf("States()[deezer] = %q", got)
	}
}

func TestBreakerSet_AbandonedFetchesAreNotCounted(t *testing.T) {
	set := NewBreakerSet([]string{"deezer"}, BreakerConfig{
		MaxRequests:  1,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	})

	for range 4 {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		err := set.wrap("deezer", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})(ctx)
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("abandoned fetch error = %v, want the context error", err)
		}
	}
	if got := set.State("deezer"); got != gobreaker.StateClosed {
		t.Fatalf("state = %s after abandoned fetches, want closed", got)
	}

	// A transport error seen after the caller gave up is not held against the service either.
	ctx, cancel := context.WithCancel(context.Background())
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection reset")}
	_ = set.wrap("deezer", func(context.Context) error {
		cancel()
		return dial
	})(ctx)
	_ = set.wrap("deezer", func(context.Context) error { return dial })(context.Background())
	if got := set.State("deezer"); got != gobreaker.StateClosed {
		t.Errorf("state = %s after one counted failure, want closed", got)
	}
}

func TestBreakerSet_HalfOpenRejectionIsRefusal(t *testing.T) {
	set := NewBreakerSet([]string{"deezer"}, BreakerConfig{
		MaxRequests:  1,
		Timeout:      20 * time.Millisecond,
		MinRequests:  1,
		FailureRatio: 0.5,
	})
	_ = set.wrap("deezer", func(context.Context) error { return &limiter.BackendError{StatusCode: 502} })(context.Background())
	if got := set.State("deezer"); got != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", got)
	}
	time.Sleep(40 * time.Millisecond)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- set.wrap("deezer", func(context.Context) error {
			close(entered)
			<-release
			return nil
		})(context.Background())
	}()
	<-entered

	var calls atomic.Int32
	err := set.wrap("deezer", func(context.Context) error {
		calls.Add(1)
		return nil
	})(context.Background())
	close(release)

	var refused *limiter.RefusedError
	if !errors.As(err, &refused) || !errors.Is(err, gobreaker.ErrTooManyRequests) {
		t.Errorf("half-open rejection = %v, want refusal wrapping ErrTooManyRequests", err)
	}
	if calls.Load() != 0 {
		t.Errorf("rejected fetch ran %d times", calls.Load())
	}
	if err := <-done; err != nil {
		t.Errorf("trial request failed: %v", err)
	}
	if got := set.State("deezer"); got != gobreaker.StateClosed {
		t.Errorf("state = %s after successful trial, want closed", got)
	}
}

func TestBreakerSet_UnknownServiceIsUnguarded(t *testing.T) {
	set := NewBreakerSet([]string{"deezer"}, DefaultBreakerConfig())
	err := set.wrap("spotify", func(ctx context.Context) error { return nil })(context.Background())
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStateValue(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tt := range tests {
		if got := stateValue(tt.state); got != tt.want {
			t.Errorf("stateValue(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
