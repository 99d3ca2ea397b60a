// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/tunegate/internal/acquisition"
	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/quality"
	"github.com/tomtom215/tunegate/internal/store"
)

type testEnv struct {
	router   http.Handler
	registry *limiter.Registry
}

func newTestEnv(t *testing.T, cfg MiddlewareConfig) *testEnv {
	t.Helper()

	table := quality.DefaultTierTable()
	profiles := store.NewMemoryStore(table)
	_, err := profiles.Put(context.Background(), quality.ProfileDocument{
		Name:           "flac-first",
		UpgradeAllowed: true,
		Cutoff:         quality.FLAC,
		Items: []quality.ItemDocument{
			quality.Leaf(quality.FLAC, true),
			quality.Leaf(quality.MP3320, true),
			quality.Leaf(quality.MP3192, false),
		},
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	reg, err := limiter.NewRegistry(map[string]limiter.Config{
		"spotify":     {Capacity: 10, RefillPerSecond: 2},
		"musicbrainz": {Capacity: 1, RefillPerSecond: 1},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	breakers := acquisition.NewBreakerSet(reg.Services(), acquisition.DefaultBreakerConfig())
	controller := acquisition.NewController(reg, acquisition.WithBreakers(breakers))

	return &testEnv{
		router:   NewRouter(NewHandler(controller, profiles, table), cfg),
		registry: reg,
	}
}

func (e *testEnv) get(t *testing.T, path string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var resp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec, resp
}

// decodeData re-decodes resp.Data into out.
func decodeData(t *testing.T, resp Response, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{})

	for _, path := range []string{"/api/v1/health/live", "/api/v1/health/ready"} {
		rec, resp := env.get(t, path)
		if rec.Code != http.StatusOK || resp.Status != "success" {
			t.Errorf("%s = %d %+v", path, rec.Code, resp)
		}
	}
}

func TestLimiters(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{})
	l, _ := env.registry.Get("musicbrainz")
	if !l.TryAcquire() {
		t.Fatal("TryAcquire failed on a full bucket")
	}

	rec, resp := env.get(t, "/api/v1/limiters")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var views []LimiterView
	decodeData(t, resp, &views)
	if len(views) != 2 || views[0].Service != "musicbrainz" || views[1].Service != "spotify" {
		t.Fatalf("views = %+v", views)
	}
	if views[0].Tokens >= 1 {
		t.Errorf("musicbrainz tokens = %v, want < 1 after acquire", views[0].Tokens)
	}
	if views[1].BreakerState != "closed" {
		t.Errorf("breaker state = %q", views[1].BreakerState)
	}

	rec, resp = env.get(t, "/api/v1/limiters/Spotify")
	var one LimiterView
	decodeData(t, resp, &one)
	if rec.Code != http.StatusOK || one.Capacity != 10 {
		t.Errorf("single limiter = %d %+v", rec.Code, one)
	}

	rec, resp = env.get(t, "/api/v1/limiters/tidal")
	if rec.Code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != "UNKNOWN_SERVICE" {
		t.Errorf("unknown service = %d %+v", rec.Code, resp.Error)
	}
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{})

	rec, resp := env.get(t, "/api/v1/profiles")
	var list []ProfileView
	decodeData(t, resp, &list)
	if rec.Code != http.StatusOK || len(list) != 1 {
		t.Fatalf("profiles = %d %+v", rec.Code, list)
	}
	if got := list[0].AllowedTiers; len(got) != 2 || got[0] != quality.FLAC {
		t.Errorf("allowed tiers = %v", got)
	}

	rec, _ = env.get(t, "/api/v1/profiles/FLAC-FIRST")
	if rec.Code != http.StatusOK {
		t.Errorf("profile by name = %d", rec.Code)
	}

	rec, resp = env.get(t, "/api/v1/profiles/nope")
	if rec.Code != http.StatusNotFound || resp.Error.Code != "PROFILE_NOT_FOUND" {
		t.Errorf("missing profile = %d %+v", rec.Code, resp.Error)
	}
}

func TestTiers(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{})
	_, resp := env.get(t, "/api/v1/tiers")
	var tiers []quality.Tier
	decodeData(t, resp, &tiers)
	if len(tiers) != quality.DefaultTierTable().Len() || tiers[0].ID != quality.Unknown {
		t.Errorf("tiers = %+v", tiers)
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		status    int
		accepted  bool
		isUpgrade bool
		reason    quality.RejectReason
		errCode   string
	}{
		{name: "first fetch by id", query: "candidate=4", status: 200, accepted: true},
		{name: "upgrade by name", query: "candidate=flac&existing=MP3-320", status: 200, accepted: true, isUpgrade: true},
		{name: "cutoff met", query: "candidate=6&existing=6", status: 200, reason: quality.ReasonCutoffMet},
		{name: "disallowed", query: "candidate=MP3-192", status: 200, reason: quality.ReasonNotAllowed},
		{name: "missing candidate", query: "", status: 400, errCode: "VALIDATION_ERROR"},
		{name: "tier id outside catalog", query: "candidate=99", status: 200, reason: quality.ReasonNotAllowed},
		{name: "existing id outside catalog", query: "candidate=6&existing=99", status: 200, reason: quality.ReasonNotImprovement},
		{name: "unknown existing name", query: "candidate=6&existing=cassette", status: 400, errCode: "UNKNOWN_TIER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, MiddlewareConfig{})
			rec, resp := env.get(t, "/api/v1/profiles/flac-first/decide?"+tt.query)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.errCode != "" {
				if resp.Error == nil || resp.Error.Code != tt.errCode {
					t.Errorf("error = %+v, want %s", resp.Error, tt.errCode)
				}
				return
			}

			var view DecideView
			decodeData(t, resp, &view)
			if view.Accepted != tt.accepted || view.IsUpgrade != tt.isUpgrade || view.Reason != tt.reason {
				t.Errorf("decision = %+v", view)
			}
		})
	}
}

func TestDecide_DoesNotTouchLimiters(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{})
	l, _ := env.registry.Get("musicbrainz")

	for range 5 {
		env.get(t, "/api/v1/profiles/flac-first/decide?candidate=6")
	}
	if !l.TryAcquire() {
		t.Error("dry-run decide spent a token")
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	codes := make([]int, 3)
	for i := range codes {
		rec, _ := env.get(t, "/api/v1/health/live")
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 200 429]", codes)
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{CORSAllowedOrigins: []string{"https://ui.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/limiters", nil)
	req.Header.Set("Origin", "https://ui.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://ui.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, MiddlewareConfig{})
	env.get(t, "/api/v1/health/live")

	rec, _ := env.get(t, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing API request counter")
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
}
