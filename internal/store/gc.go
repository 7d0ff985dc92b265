// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package store

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/spill-sentinel/sentinel/internal/logging"
)

// gcDiscardRatio is badger's recommended value log rewrite threshold.
const gcDiscardRatio = 0.5

// GC periodically reclaims value log space, including entries freed by
// expired event TTLs. Badger never runs value log GC on its own.
type GC struct {
	store    *Store
	interval time.Duration
}

// NewGC creates the garbage collection runner.
func NewGC(store *Store, interval time.Duration) *GC {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GC{store: store, interval: interval}
}

// RunWithContext runs GC cycles until the context ends. A failed cycle is
// logged and retried at the next tick.
func (g *GC) RunWithContext(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.runOnce(); err != nil {
				logging.Warn().Err(err).Msg("store gc cycle failed")
			}
		}
	}
}

// runOnce rewrites value log files until badger reports nothing left to
// reclaim. In-memory stores have no value log; badger rejects the call and
// that is fine.
func (g *GC) runOnce() error {
	start := time.Now()
	for {
		err := g.store.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	logging.Debug().Dur("elapsed", time.Since(start)).Msg("store gc cycle complete")
	return nil
}
