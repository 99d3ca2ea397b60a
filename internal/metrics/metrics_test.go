// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestRecordDecision(t *testing.T) {
	tests := []struct {
		name       string
		accepted   bool
		isUpgrade  bool
		reason     string
		wantResult string
	}{
		{"first fetch", true, false, "", "accept"},
		{"upgrade", true, true, "", "upgrade"},
		{"rejected", false, false, "cutoff-already-met", "reject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := QualityDecisions.WithLabelValues("metrics-test", tt.wantResult, tt.reason)
			before := testutil.ToFloat64(c)

			RecordDecision("metrics-test", tt.accepted, tt.isUpgrade, tt.reason)

			if got := testutil.ToFloat64(c); got != before+1 {
				t.Errorf("counter = %v, want %v", got, before+1)
			}
		})
	}
}

func TestRecordTokenAcquired(t *testing.T) {
	service := "metrics-token-test"
	before := testutil.ToFloat64(TokenAcquisitions.WithLabelValues(service))

	RecordTokenAcquired(service, 250*time.Millisecond)
	RecordTokenAcquired(service, 0)

	if got := testutil.ToFloat64(TokenAcquisitions.WithLabelValues(service)); got != before+2 {
		t.Errorf("tokens acquired = %v, want %v", got, before+2)
	}

	hist, ok := TokenWaitDuration.WithLabelValues(service).(interface{ Write(*dto.Metric) error })
	if !ok {
		t.Fatal("histogram does not expose Write")
	}
	var m dto.Metric
	if err := hist.Write(&m); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if m.GetHistogram().GetSampleCount() < 2 {
		t.Errorf("sample count = %d, want >= 2", m.GetHistogram().GetSampleCount())
	}
	if sum := m.GetHistogram().GetSampleSum(); sum < 0.25 {
		t.Errorf("sample sum = %v, want >= 0.25", sum)
	}
}

func TestRecordRateLimitHit(t *testing.T) {
	service := "metrics-429-test"

	RecordRateLimitHit(service, false, time.Second, 1)
	RecordRateLimitHit(service, true, 5*time.Second, 2)

	if got := testutil.ToFloat64(RateLimitHits.WithLabelValues(service, "true")); got != 1 {
		t.Errorf("retry_after=true hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(RateLimitHits.WithLabelValues(service, "false")); got != 1 {
		t.Errorf("retry_after=false hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(BackoffConsecutiveFailures.WithLabelValues(service)); got != 2 {
		t.Errorf("consecutive failures = %v, want 2", got)
	}

	RecordBackoffReset(service)
	if got := testutil.ToFloat64(BackoffConsecutiveFailures.WithLabelValues(service)); got != 0 {
		t.Errorf("consecutive failures after reset = %v, want 0", got)
	}
}

func TestSetLimiterState(t *testing.T) {
	service := "metrics-state-test"
	SetLimiterState(service, 7.5, 3, 1)

	if got := testutil.ToFloat64(LimiterTokens.WithLabelValues(service)); got != 7.5 {
		t.Errorf("tokens = %v", got)
	}
	if got := testutil.ToFloat64(LimiterWaiters.WithLabelValues(service)); got != 3 {
		t.Errorf("waiters = %v", got)
	}
}

func TestRecordCallOutcomeAndAcquisition(t *testing.T) {
	service := "metrics-call-test"
	RecordCallOutcome(service, "success", 1)
	RecordCallOutcome(service, "rate_limit_exceeded", 4)
	RecordBackendFailure(service)
	RecordTokenTimeout(service)

	if got := testutil.ToFloat64(CallOutcomes.WithLabelValues(service, "rate_limit_exceeded")); got != 1 {
		t.Errorf("rate_limit_exceeded outcomes = %v", got)
	}
	if got := testutil.ToFloat64(BackendFailures.WithLabelValues(service)); got != 1 {
		t.Errorf("backend failures = %v", got)
	}
	if got := testutil.ToFloat64(TokenTimeouts.WithLabelValues(service)); got != 1 {
		t.Errorf("token timeouts = %v", got)
	}

	RecordAcquisition(service, "success", true, 100*time.Millisecond)
	RecordAcquisition(service, "success", false, 100*time.Millisecond)
	if got := testutil.ToFloat64(AcquisitionUpgrades.WithLabelValues(service, "success")); got != 1 {
		t.Errorf("upgrades = %v, want 1", got)
	}
}

func TestRecordEventPublished(t *testing.T) {
	okBefore := testutil.ToFloat64(EventsPublished.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(EventsPublished.WithLabelValues("error"))

	RecordEventPublished(nil)
	RecordEventPublished(errors.New("closed"))

	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("ok")); got != okBefore+1 {
		t.Errorf("ok = %v", got)
	}
	if got := testutil.ToFloat64(EventsPublished.WithLabelValues("error")); got != errBefore+1 {
		t.Errorf("error = %v", got)
	}
}

func TestTrackActiveRequest_Concurrent(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			TrackActiveRequest(true)
			RecordAPIRequest("GET", "/api/v1/limiters", "200", time.Millisecond)
			TrackActiveRequest(false)
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active requests = %v, want %v", got, before)
	}
}
