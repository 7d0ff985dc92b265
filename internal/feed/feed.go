// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package feed ingests AIS vessel reports from the upstream provider, either
// by polling an HTTP endpoint or by subscribing to the push WebSocket feed.
// Reports outside the configured bounding box are discarded; the rest are
// paced into the streaming queue.
package feed

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
	"github.com/spill-sentinel/sentinel/internal/models"
)

// Sink receives admitted vessel reports. Satisfied by the streaming queue.
type Sink interface {
	Put(ctx context.Context, report models.VesselReport) error
}

// admitter applies the bounding box filter and pacing shared by both
// fetchers.
type admitter struct {
	bbox    config.BoundingBox
	sink    Sink
	limiter *rate.Limiter
	mode    string
}

func newAdmitter(cfg config.FeedConfig, sink Sink, mode string) *admitter {
	limit := rate.Inf
	if cfg.EnqueueDelay > 0 {
		limit = rate.Every(cfg.EnqueueDelay)
	}
	return &admitter{
		bbox:    cfg.BBox,
		sink:    sink,
		limiter: rate.NewLimiter(limit, 1),
		mode:    mode,
	}
}

// admit filters one report and, if it passes, waits for the pacing token and
// enqueues it. Returns an error only when the context ends; filtered reports
// are not errors.
func (a *admitter) admit(ctx context.Context, report models.VesselReport) error {
	metrics.ReportsFetched.WithLabelValues(a.mode).Inc()

	if !report.HasPosition() || !a.bbox.Contains(*report.Latitude, *report.Longitude) {
		metrics.ReportsFiltered.Inc()
		logging.Debug().Int64("mmsi", report.MMSI).Msg("report outside region of interest")
		return nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	report.Normalize()
	return a.sink.Put(ctx, report)
}
