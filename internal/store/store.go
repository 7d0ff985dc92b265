// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package store persists completed spill reports in BadgerDB, keyed by MMSI
// so a vessel's escalation history reads back with one prefix scan.
package store

import (
	"context"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
	"github.com/spill-sentinel/sentinel/internal/models"
)

// reportPrefix namespaces report keys.
const reportPrefix = "report:"

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = fmt.Errorf("report not found")

// defaultListLimit caps listings when no limit is given.
const defaultListLimit = 100

// Store is the spill report store.
type Store struct {
	db       *badger.DB
	eventTTL time.Duration
}

// Open opens (or creates) the store at the configured path.
func Open(cfg config.StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}
	return &Store{db: db, eventTTL: cfg.EventTTL}, nil
}

// reportKey builds "report:<zero-padded mmsi>:<id>". Zero padding keeps the
// per-vessel prefix scan exact.
func reportKey(mmsi int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%012d:%s", reportPrefix, mmsi, id))
}

// SaveReport persists one report, assigning ID and timestamp when unset.
func (s *Store) SaveReport(ctx context.Context, report *models.SpillReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(report)
	if err != nil {
		metrics.StoreErrors.Inc()
		return fmt.Errorf("marshal report: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(report.MMSI, report.ID), value)
	})
	if err != nil {
		metrics.StoreErrors.Inc()
		return fmt.Errorf("store report: %w", err)
	}

	metrics.StoreWrites.Inc()
	logging.Debug().
		Int64("mmsi", report.MMSI).
		Str("report_id", report.ID).
		Msg("spill report stored")
	return nil
}

// GetReport fetches a single report.
func (s *Store) GetReport(ctx context.Context, mmsi int64, id string) (*models.SpillReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var report models.SpillReport
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(reportKey(mmsi, id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return &report, nil
}

// ListReports returns up to limit reports across all vessels.
func (s *Store) ListReports(ctx context.Context, limit int) ([]*models.SpillReport, error) {
	return s.list(ctx, []byte(reportPrefix), limit)
}

// ListByMMSI returns up to limit reports for one vessel.
func (s *Store) ListByMMSI(ctx context.Context, mmsi int64, limit int) ([]*models.SpillReport, error) {
	prefix := []byte(fmt.Sprintf("%s%012d:", reportPrefix, mmsi))
	return s.list(ctx, prefix, limit)
}

func (s *Store) list(ctx context.Context, prefix []byte, limit int) ([]*models.SpillReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	reports := make([]*models.SpillReport, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(reports) < limit; it.Next() {
			var report models.SpillReport
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &report)
			})
			if err != nil {
				return err
			}
			reports = append(reports, &report)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msgf(format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Trace().Str("component", "badger").Msgf(format, args...)
}
