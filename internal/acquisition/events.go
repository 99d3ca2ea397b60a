// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package acquisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/metrics"
)

// ResultsTopic carries one ResultEvent per Attempt call.
const ResultsTopic = "acquisition.results"

// ResultEvent is the wire form of an AcquisitionResult.
type ResultEvent struct {
	AttemptID    string    `json:"attempt_id"`
	Service      string    `json:"service"`
	Profile      string    `json:"profile"`
	Candidate    int       `json:"candidate_tier"`
	Existing     *int      `json:"existing_tier,omitempty"`
	Accepted     bool      `json:"accepted"`
	IsUpgrade    bool      `json:"is_upgrade"`
	RejectReason string    `json:"reject_reason,omitempty"`
	Outcome      string    `json:"fetch_outcome,omitempty"`
	Attempts     int       `json:"attempts_made"`
	DurationMS   int64     `json:"duration_ms"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewResultEvent converts a result for publishing.
func NewResultEvent(r AcquisitionResult) ResultEvent {
	ev := ResultEvent{
		AttemptID:    r.AttemptID,
		Service:      r.Service,
		Profile:      r.Profile,
		Candidate:    int(r.Candidate),
		Accepted:     r.Accepted,
		IsUpgrade:    r.IsUpgrade,
		RejectReason: string(r.RejectReason),
		Outcome:      string(r.FetchOutcome),
		Attempts:     r.AttemptsMade,
		DurationMS:   r.Duration.Milliseconds(),
		Timestamp:    time.Now().UTC(),
	}
	if r.Existing != nil {
		existing := int(*r.Existing)
		ev.Existing = &existing
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	return ev
}

// DecodeResultEvent parses a message published on ResultsTopic.
func DecodeResultEvent(msg *message.Message) (ResultEvent, error) {
	var ev ResultEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ResultEvent{}, fmt.Errorf("decode result event %s: %w", msg.UUID, err)
	}
	return ev, nil
}

// ResultPublisher receives every AcquisitionResult the controller produces.
type ResultPublisher interface {
	PublishResult(ctx context.Context, r AcquisitionResult) error
}

// EventPublisher publishes results on an in-process watermill GoChannel.
// Subscribers that fall behind are not waited for.
type EventPublisher struct {
	pubsub *gochannel.GoChannel
	topic  string

	mu     sync.RWMutex
	closed bool
}

// NewEventPublisher creates the in-process pub/sub. buffer is the per
// subscriber output channel size.
func NewEventPublisher(buffer int64) *EventPublisher {
	return &EventPublisher{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: buffer,
		}, logging.NewWatermillAdapter()),
		topic: ResultsTopic,
	}
}

// PublishResult serializes r and publishes it on ResultsTopic.
func (p *EventPublisher) PublishResult(ctx context.Context, r AcquisitionResult) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("event publisher is closed")
	}

	data, err := json.Marshal(NewResultEvent(r))
	if err != nil {
		metrics.RecordEventPublished(err)
		return fmt.Errorf("serialize result event: %w", err)
	}

	msg := message.NewMessage(r.AttemptID, data)
	msg.Metadata.Set("service", r.Service)
	msg.Metadata.Set("profile", r.Profile)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}

	err = p.pubsub.Publish(p.topic, msg)
	metrics.RecordEventPublished(err)
	return err
}

// Subscribe returns a channel of result messages. Each message must be
// acked. The channel closes when ctx ends or the publisher is closed.
func (p *EventPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return p.pubsub.Subscribe(ctx, p.topic)
}

// Close shuts down the pub/sub and closes every subscriber channel.
func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.pubsub.Close()
}
