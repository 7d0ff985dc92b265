// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
)

// Broadcaster fans a serialized event out to connected subscribers.
// Satisfied by the WebSocket hub.
type Broadcaster interface {
	BroadcastRaw(data []byte)
}

// Forwarder subscribes to both bus topics and hands every payload to the
// broadcaster. It is the only bridge between the pipeline and the
// WebSocket hub.
type Forwarder struct {
	bus         *Bus
	broadcaster Broadcaster
}

// NewForwarder creates a forwarder.
func NewForwarder(bus *Bus, broadcaster Broadcaster) *Forwarder {
	return &Forwarder{bus: bus, broadcaster: broadcaster}
}

// RunWithContext forwards until the context ends.
//
// The in-memory bus does not persist: events published before these
// subscriptions land are dropped. The window is confined to startup, where
// no websocket subscriber is connected yet, so a frame lost there had no
// audience anyway.
func (f *Forwarder) RunWithContext(ctx context.Context) error {
	events, err := f.bus.Subscribe(ctx, TopicStreamEvents)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicStreamEvents, err)
	}
	findings, err := f.bus.Subscribe(ctx, TopicSpillFindings)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicSpillFindings, err)
	}

	logging.Info().Str("component", "forwarder").Msg("broadcast forwarder started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "forwarder").Msg("broadcast forwarder stopped")
			return ctx.Err()
		case msg, ok := <-events:
			if !ok {
				return fmt.Errorf("%s subscription closed", TopicStreamEvents)
			}
			f.forward(TopicStreamEvents, msg)
		case msg, ok := <-findings:
			if !ok {
				return fmt.Errorf("%s subscription closed", TopicSpillFindings)
			}
			f.forward(TopicSpillFindings, msg)
		}
	}
}

func (f *Forwarder) forward(topic string, msg *message.Message) {
	f.broadcaster.BroadcastRaw(msg.Payload)
	metrics.BroadcastsSent.WithLabelValues(topic).Inc()
	msg.Ack()
}
