// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/tunegate/internal/acquisition"
	"github.com/tomtom215/tunegate/internal/limiter"
	"github.com/tomtom215/tunegate/internal/logging"
)

// ResultSubscriber is satisfied by *acquisition.EventPublisher.
type ResultSubscriber interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// EventLogService writes one structured log line per acquisition result
// event. Undecodable messages are logged and acked so they are not redelivered.
type EventLogService struct {
	subscriber ResultSubscriber
	handled    atomic.Int64
	malformed  atomic.Int64
}

// NewEventLogService consumes results from subscriber.
func NewEventLogService(subscriber ResultSubscriber) *EventLogService {
	return &EventLogService{subscriber: subscriber}
}

// Serve implements suture.Service. When the publisher closes the stream the
// service exits with suture.ErrDoNotRestart.
func (s *EventLogService) Serve(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", acquisition.ResultsTopic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Info().Str("topic", acquisition.ResultsTopic).Msg("Result stream closed")
				return suture.ErrDoNotRestart
			}
			s.handle(msg)
		}
	}
}

func (s *EventLogService) handle(msg *message.Message) {
	defer msg.Ack()

	ev, err := acquisition.DecodeResultEvent(msg)
	if err != nil {
		s.malformed.Add(1)
		logging.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping malformed result event")
		return
	}
	s.handled.Add(1)

	event := logging.Debug()
	if ev.Accepted && ev.Outcome != string(limiter.OutcomeSuccess) {
		event = logging.Info()
	}
	event = event.
		Str("attempt_id", ev.AttemptID).
		Str("service", ev.Service).
		Str("profile", ev.Profile).
		Int("candidate_tier", ev.Candidate).
		Bool("accepted", ev.Accepted).
		Bool("is_upgrade", ev.IsUpgrade).
		Int("attempts", ev.Attempts).
		Int64("duration_ms", ev.DurationMS)
	if ev.Existing != nil {
		event = event.Int("existing_tier", *ev.Existing)
	}
	if ev.RejectReason != "" {
		event = event.Str("reject_reason", ev.RejectReason)
	}
	if ev.Outcome != "" {
		event = event.Str("outcome", ev.Outcome)
	}
	if ev.Error != "" {
		event = event.Str("error", ev.Error)
	}
	if id := msg.Metadata.Get("correlation_id"); id != "" {
		event = event.Str("correlation_id", id)
	}
	event.Msg("Acquisition result")
}

// Handled returns how many events were decoded and logged.
func (s *EventLogService) Handled() int64 {
	return s.handled.Load()
}

// Malformed returns how many events failed to decode.
func (s *EventLogService) Malformed() int64 {
	return s.malformed.Load()
}

func (s *EventLogService) String() string {
	return "event-log"
}
