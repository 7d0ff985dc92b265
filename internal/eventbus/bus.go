// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package eventbus carries scored events and spill findings between the
// pipeline stages over an in-process Watermill pub/sub. Producers publish
// serialized events; the forwarder fans them out to WebSocket subscribers.
package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/spill-sentinel/sentinel/internal/models"
)

// Topics.
const (
	// TopicStreamEvents carries every scored report.
	TopicStreamEvents = "stream.events"

	// TopicSpillFindings carries completed oil spill findings.
	TopicSpillFindings = "spill.findings"
)

// Bus is the in-process event bus.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// New creates the bus.
func New() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 256},
			NewLoggerAdapter(),
		),
	}
}

// PublishStreamEvent publishes one scored report.
func (b *Bus) PublishStreamEvent(event *models.StreamEvent) error {
	return b.publish(TopicStreamEvents, event)
}

// PublishFinding publishes one completed spill finding.
func (b *Bus) PublishFinding(finding *models.OilSpillFinding) error {
	return b.publish(TopicSpillFindings, finding)
}

func (b *Bus) publish(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := message.NewMessage(uuid.NewString(), data)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

// Subscribe returns a channel of messages for a topic. Subscriptions are
// not persistent; subscribe before publishing.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
