// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package escalation

import (
	"context"
	"sync"
	"time"

	"github.com/spill-sentinel/sentinel/internal/features"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
	"github.com/spill-sentinel/sentinel/internal/models"
	"github.com/spill-sentinel/sentinel/internal/queue"
)

// ReportSaver persists completed spill reports. Satisfied by the badger
// store.
type ReportSaver interface {
	SaveReport(ctx context.Context, report *models.SpillReport) error
}

// FindingPublisher emits completed findings. Satisfied by the event bus.
type FindingPublisher interface {
	PublishFinding(finding *models.OilSpillFinding) error
}

// Pool runs the escalation workers. Each worker drains the escalation
// queue: fetch imagery, classify, attribute, persist, publish. An
// escalation without imagery ends quietly; nothing is persisted or
// published for it.
type Pool struct {
	queue      *queue.Queue[models.EscalationTask]
	imagery    ImageryClient
	analyzer   Analyzer
	explainer  *Explainer
	saver      ReportSaver
	publisher  FindingPublisher
	workers    int
	getTimeout time.Duration
	now        func() time.Time
}

// PoolConfig wires the pool's collaborators.
type PoolConfig struct {
	Queue      *queue.Queue[models.EscalationTask]
	Imagery    ImageryClient
	Analyzer   Analyzer
	Explainer  *Explainer
	Saver      ReportSaver
	Publisher  FindingPublisher
	Workers    int
	GetTimeout time.Duration
}

// NewPool creates the worker pool.
func NewPool(cfg PoolConfig) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	getTimeout := cfg.GetTimeout
	if getTimeout <= 0 {
		getTimeout = 5 * time.Second
	}
	return &Pool{
		queue:      cfg.Queue,
		imagery:    cfg.Imagery,
		analyzer:   cfg.Analyzer,
		explainer:  cfg.Explainer,
		saver:      cfg.Saver,
		publisher:  cfg.Publisher,
		workers:    workers,
		getTimeout: getTimeout,
		now:        time.Now,
	}
}

// RunWithContext runs the workers until the context ends.
func (p *Pool) RunWithContext(ctx context.Context) error {
	logging.Info().
		Str("component", "escalation").
		Int("workers", p.workers).
		Msg("escalation pool started")

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.runWorker(ctx, worker)
		}(i)
	}
	wg.Wait()

	logging.Info().Str("component", "escalation").Msg("escalation pool stopped")
	return ctx.Err()
}

func (p *Pool) runWorker(ctx context.Context, worker int) {
	for {
		task, ok, err := p.queue.Get(ctx, p.getTimeout)
		if err != nil {
			return
		}
		if !ok {
			continue
		}
		p.process(ctx, worker, task)
	}
}

// process runs one escalation end to end. Failures are logged and the task
// abandoned; the next anomaly for the vessel gets a fresh chance.
func (p *Pool) process(ctx context.Context, worker int, task models.EscalationTask) {
	start := p.now()
	log := logging.With().
		Str("component", "escalation").
		Int("worker", worker).
		Int64("mmsi", task.Report.MMSI).
		Logger()

	defer func() {
		metrics.EscalationDuration.Observe(p.now().Sub(start).Seconds())
	}()

	if !task.Report.HasPosition() {
		log.Warn().Msg("escalation task without position, skipping")
		return
	}

	anchor := p.now().UTC()
	if t, err := features.ParseReportTime(task.Report.Timestamp); err == nil {
		anchor = t
	}

	imagery, err := p.imagery.Fetch(ctx, *task.Report.Latitude, *task.Report.Longitude, anchor)
	if err != nil {
		log.Warn().Err(err).Msg("sar imagery fetch failed")
		return
	}
	if imagery == nil {
		metrics.EscalationsNoImagery.Inc()
		log.Info().Msg("no sar scene in lookback window")
		return
	}

	class, confidence, err := p.analyzer.Classify(ctx, imagery.SARImage)
	if err != nil {
		log.Warn().Err(err).Msg("scene classification failed")
		return
	}

	// Attribution runs on the vector the anomaly was scored with, carried
	// in the task.
	attributions := task.Attributions
	if attributions == nil && p.explainer != nil {
		var attrErr error
		if attributions, attrErr = p.explainer.Explain(ctx, task.Features); attrErr != nil {
			log.Debug().Err(attrErr).Msg("attribution failed")
			attributions = nil
		}
	}

	prediction := models.OilSpillPrediction{
		PredictedClass:      class,
		AnnotatedImage:      imagery.AnnotatedImage,
		OilSpillArea:        imagery.OilSpillArea,
		SARImage:            imagery.SARImage,
		FeatureAttributions: attributions,
	}

	report := &models.SpillReport{
		MMSI:          task.Report.MMSI,
		AISData:       task.Report,
		AnomalyResult: task.Verdict,
		SARPrediction: prediction,
	}
	if err := p.saver.SaveReport(ctx, report); err != nil {
		log.Error().Err(err).Msg("failed to persist spill report")
		return
	}

	finding := &models.OilSpillFinding{
		MMSI:               task.Report.MMSI,
		OilSpillPrediction: prediction,
	}
	if err := p.publisher.PublishFinding(finding); err != nil {
		log.Error().Err(err).Msg("failed to publish finding")
		return
	}

	log.Info().
		Int("class", class).
		Float64("confidence", confidence).
		Float64("area", imagery.OilSpillArea).
		Msg("escalation complete")
}
