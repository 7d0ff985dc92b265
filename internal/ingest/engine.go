// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package ingest runs the scoring engine: drain the streaming queue, build
// features, score, publish the verdict, and hand anomalies to escalation.
package ingest

import (
	"context"
	"time"

	"github.com/spill-sentinel/sentinel/internal/features"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
	"github.com/spill-sentinel/sentinel/internal/models"
	"github.com/spill-sentinel/sentinel/internal/queue"
	"github.com/spill-sentinel/sentinel/internal/scorer"
)

// EventPublisher emits scored events. Satisfied by the event bus.
type EventPublisher interface {
	PublishStreamEvent(event *models.StreamEvent) error
}

// Engine scores vessel reports as they arrive.
type Engine struct {
	reports     *queue.Queue[models.VesselReport]
	escalations *queue.Queue[models.EscalationTask]
	builder     *features.Builder
	scorer      scorer.Scorer
	spill       scorer.SpillScorer
	publisher   EventPublisher
	getTimeout  time.Duration
}

// Config wires the engine's collaborators.
type Config struct {
	Reports     *queue.Queue[models.VesselReport]
	Escalations *queue.Queue[models.EscalationTask]
	Builder     *features.Builder
	Scorer      scorer.Scorer
	Spill       scorer.SpillScorer
	Publisher   EventPublisher
	GetTimeout  time.Duration
}

// NewEngine creates the scoring engine.
func NewEngine(cfg Config) *Engine {
	getTimeout := cfg.GetTimeout
	if getTimeout <= 0 {
		getTimeout = 5 * time.Second
	}
	return &Engine{
		reports:     cfg.Reports,
		escalations: cfg.Escalations,
		builder:     cfg.Builder,
		scorer:      cfg.Scorer,
		spill:       cfg.Spill,
		publisher:   cfg.Publisher,
		getTimeout:  getTimeout,
	}
}

// RunWithContext consumes the streaming queue until the context ends. An
// empty queue is just a timed-out poll; the loop keeps going.
func (e *Engine) RunWithContext(ctx context.Context) error {
	logging.Info().Str("component", "ingest").Msg("scoring engine started")

	for {
		report, ok, err := e.reports.Get(ctx, e.getTimeout)
		if err != nil {
			logging.Info().Str("component", "ingest").Msg("scoring engine stopped")
			return err
		}
		if !ok {
			continue
		}
		e.process(ctx, report)
	}
}

// process scores one report. Reports the model cannot consume are skipped;
// a skip is a counted, logged non-event, never a crash.
func (e *Engine) process(ctx context.Context, report models.VesselReport) {
	vec, err := e.builder.Build(&report)
	if err != nil {
		metrics.ReportsSkipped.WithLabelValues("missing_field").Inc()
		logging.Debug().Err(err).Int64("mmsi", report.MMSI).Msg("report skipped")
		return
	}

	start := time.Now()
	probability, err := e.scorer.Score(ctx, vec)
	if err != nil {
		metrics.ReportsSkipped.WithLabelValues("inference").Inc()
		logging.Warn().Err(err).Int64("mmsi", report.MMSI).Msg("anomaly inference failed")
		return
	}

	// The companion model answers for the same vector; a verdict without
	// both halves is never broadcast.
	spillProbability, err := e.spill.SpillProbability(ctx, vec)
	if err != nil {
		metrics.ReportsSkipped.WithLabelValues("inference").Inc()
		logging.Warn().Err(err).Int64("mmsi", report.MMSI).Msg("oil spill inference failed")
		return
	}
	metrics.ScoreDuration.Observe(time.Since(start).Seconds())
	metrics.ReportsScored.Inc()

	verdict := scorer.Verdict(&report, probability, spillProbability)
	event := &models.StreamEvent{AISData: report, AnomalyResult: verdict}
	if err := e.publisher.PublishStreamEvent(event); err != nil {
		logging.Error().Err(err).Int64("mmsi", report.MMSI).Msg("failed to publish stream event")
	}

	logging.Debug().
		Int64("mmsi", report.MMSI).
		Float64("probability", probability).
		Float64("spill_probability", spillProbability).
		Bool("anomaly", verdict.Anomaly).
		Msg("report scored")

	if !verdict.Anomaly {
		return
	}
	metrics.AnomaliesDetected.Inc()

	task := models.EscalationTask{Report: report, Verdict: verdict, Features: vec}
	if e.escalations.TryPut(task) {
		metrics.EscalationsStarted.Inc()
		return
	}

	// Reject-new: the freshest anomaly loses when escalation is saturated.
	metrics.EscalationsDropped.Inc()
	logging.Warn().
		Int64("mmsi", report.MMSI).
		Float64("probability", probability).
		Msg("escalation queue full, dropping anomaly escalation")
}
