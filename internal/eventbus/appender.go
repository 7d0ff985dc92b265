// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/models"
)

// EventArchiver persists anomaly events. Satisfied by the badger store.
type EventArchiver interface {
	SaveEvent(ctx context.Context, event *models.StreamEvent) error
}

// Appender subscribes to the stream topic and archives anomalous events,
// giving the report API scoring history independent of whether an
// escalation produced imagery. Normal events pass through unarchived.
type Appender struct {
	bus      *Bus
	archiver EventArchiver
}

// NewAppender creates an appender.
func NewAppender(bus *Bus, archiver EventArchiver) *Appender {
	return &Appender{bus: bus, archiver: archiver}
}

// RunWithContext archives until the context ends.
//
// The in-memory bus does not persist: events published before this
// subscription lands are dropped. The window is confined to startup and the
// archive is best-effort history, so the gap is accepted rather than gated.
func (a *Appender) RunWithContext(ctx context.Context) error {
	events, err := a.bus.Subscribe(ctx, TopicStreamEvents)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicStreamEvents, err)
	}

	logging.Info().Str("component", "appender").Msg("event appender started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "appender").Msg("event appender stopped")
			return ctx.Err()
		case msg, ok := <-events:
			if !ok {
				return fmt.Errorf("%s subscription closed", TopicStreamEvents)
			}
			a.append(ctx, msg)
		}
	}
}

// append archives one anomalous event. A bad payload or a failed write is
// logged and acked; the archive is best-effort history, not the record of
// truth.
func (a *Appender) append(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var event models.StreamEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logging.Warn().Err(err).Msg("unparsable stream event, not archived")
		return
	}
	if !event.AnomalyResult.Anomaly {
		return
	}

	if err := a.archiver.SaveEvent(ctx, &event); err != nil {
		logging.Error().Err(err).
			Int64("mmsi", event.AISData.MMSI).
			Msg("failed to archive anomaly event")
	}
}
