// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package store

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/spill-sentinel/sentinel/internal/metrics"
	"github.com/spill-sentinel/sentinel/internal/models"
)

// eventPrefix namespaces the anomaly event archive, kept separate from
// spill reports: an archived event is scoring history, a report is a
// completed escalation.
const eventPrefix = "event:"

// DefaultEventTTL bounds how long archived anomaly events live. Badger
// expires them lazily; value log GC reclaims the space.
const DefaultEventTTL = 7 * 24 * time.Hour

func eventKey(mmsi int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%012d:%s", eventPrefix, mmsi, id))
}

// SaveEvent archives one anomalous stream event with a TTL.
func (s *Store) SaveEvent(ctx context.Context, event *models.StreamEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		metrics.StoreErrors.Inc()
		return fmt.Errorf("marshal event: %w", err)
	}

	ttl := s.eventTTL
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(eventKey(event.AISData.MMSI, uuid.NewString()), value).
			WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		metrics.StoreErrors.Inc()
		return fmt.Errorf("store event: %w", err)
	}

	metrics.StoreWrites.Inc()
	return nil
}

// ListEvents returns up to limit archived anomaly events.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]*models.StreamEvent, error) {
	return s.listEvents(ctx, []byte(eventPrefix), limit)
}

// ListEventsByMMSI returns one vessel's archived anomaly events.
func (s *Store) ListEventsByMMSI(ctx context.Context, mmsi int64, limit int) ([]*models.StreamEvent, error) {
	prefix := []byte(fmt.Sprintf("%s%012d:", eventPrefix, mmsi))
	return s.listEvents(ctx, prefix, limit)
}

func (s *Store) listEvents(ctx context.Context, prefix []byte, limit int) ([]*models.StreamEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	var events []*models.StreamEvent
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(events) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var event models.StreamEvent
				if err := json.Unmarshal(val, &event); err != nil {
					return err
				}
				events = append(events, &event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}
