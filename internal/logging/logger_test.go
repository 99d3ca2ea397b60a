// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// captureLogs swaps the global logger for one writing into a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger()
	prevLevel := zerolog.GlobalLevel()
	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	t.Cleanup(func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if idx := strings.LastIndex(line, "\n"); idx >= 0 {
		line = line[idx+1:]
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q: %v", line, err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if ValidLevel("bogus") || !ValidLevel("warn") {
		t.Error("ValidLevel mismatch")
	}
}

func TestInit_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	t.Cleanup(func() { SetLogger(prev); zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	Init(Config{Level: "debug", Format: "json", Output: &buf})
	Info().Str("service", "spotify").Msg("Limiter registered")

	entry := decodeLine(t, &buf)
	if entry["message"] != "Limiter registered" || entry["service"] != "spotify" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry should carry a timestamp")
	}
}

func TestCtx_AddsIDs(t *testing.T) {
	buf := captureLogs(t)

	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	ctx = ContextWithAttemptID(ctx, "attempt-1")
	Ctx(ctx).Info().Msg("fetch")

	entry := decodeLine(t, buf)
	if entry["correlation_id"] != "abc12345" {
		t.Errorf("correlation_id = %v", entry["correlation_id"])
	}
	if entry["attempt_id"] != "attempt-1" {
		t.Errorf("attempt_id = %v", entry["attempt_id"])
	}
}

func TestContextWithNewCorrelationID_KeepsExisting(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "keep")
	if got := CorrelationIDFromContext(ContextWithNewCorrelationID(ctx)); got != "keep" {
		t.Errorf("correlation ID replaced: %q", got)
	}

	fresh := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background()))
	if len(fresh) != 8 {
		t.Errorf("generated ID %q should be 8 chars", fresh)
	}
}

func TestSlogHandler(t *testing.T) {
	buf := captureLogs(t)

	logger := NewSlogLogger().With("supervisor", "tunegate").WithGroup("event")
	logger.Warn("service failed", slog.Int("restarts", 2), slog.Any("err", errors.New("boom")))

	entry := decodeLine(t, buf)
	if entry["level"] != "warn" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["event.restarts"] != float64(2) {
		t.Errorf("event.restarts = %v", entry["event.restarts"])
	}
	if entry["supervisor"] != "tunegate" {
		t.Errorf("attr added before WithGroup should stay ungrouped: %v", entry)
	}
	if entry["event.err"] != "boom" {
		t.Errorf("event.err = %v", entry["event.err"])
	}
}

func TestWatermillAdapter(t *testing.T) {
	buf := captureLogs(t)

	adapter := NewWatermillAdapter().With(watermill.LogFields{"topic": "acquisition.results"})
	adapter.Error("publish failed", errors.New("closed"), watermill.LogFields{"uuid": "m1"})

	entry := decodeLine(t, buf)
	if entry["topic"] != "acquisition.results" || entry["uuid"] != "m1" {
		t.Errorf("fields missing: %v", entry)
	}
	if entry["error"] != "closed" || entry["component"] != "events" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
