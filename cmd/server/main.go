// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package main is the entry point for the sentinel server.
//
// The sentinel ingests AIS position reports, scores each one with a
// pretrained BiLSTM anomaly model, and escalates anomalous vessels into a
// SAR imagery pipeline that looks for oil spills near the vessel's
// position. Scored events and completed findings are broadcast to
// websocket subscribers and findings are persisted for the report API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from defaults, config.yaml, and
//     environment variables (Koanf v2)
//  2. Report store: BadgerDB for completed spill reports
//  3. Model artifacts: RobustScaler, label encoders, and the three ONNX
//     sessions (anomaly BiLSTM, oil spill probability, SAR scene classifier)
//  4. Event bus and websocket hub for fan-out
//  5. AIS fetcher: HTTP polling feed or aisstream.io push feed
//  6. Scoring engine and escalation worker pool
//  7. HTTP server: health probes, report API, metrics, /ws
//
// Everything long-running is supervised by a suture tree; a dropped feed
// connection or a crashed worker restarts with backoff without taking the
// rest of the process down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (FEED_MODE, FEED_URL, MODEL_DIR, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops the fetcher and drains in-flight scoring
//   - Closes websocket subscribers
//   - Waits for the HTTP server to finish (10s timeout)
//
// # Example Usage
//
// Polling feed:
//
//	export FEED_MODE=poll
//	export FEED_URL=https://ais.example.com/latest
//	export FEED_API_KEY=your-api-key
//	export MODEL_DIR=/models
//	./sentinel
//
// Push feed via aisstream.io:
//
//	export FEED_MODE=stream
//	export FEED_URL=wss://stream.aisstream.io/v0/stream
//	export FEED_API_KEY=your-api-key
//	./sentinel
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spill-sentinel/sentinel/internal/api"
	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/escalation"
	"github.com/spill-sentinel/sentinel/internal/eventbus"
	"github.com/spill-sentinel/sentinel/internal/feed"
	"github.com/spill-sentinel/sentinel/internal/features"
	"github.com/spill-sentinel/sentinel/internal/ingest"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/models"
	"github.com/spill-sentinel/sentinel/internal/queue"
	"github.com/spill-sentinel/sentinel/internal/scorer"
	"github.com/spill-sentinel/sentinel/internal/store"
	"github.com/spill-sentinel/sentinel/internal/supervisor"
	"github.com/spill-sentinel/sentinel/internal/supervisor/services"
	ws "github.com/spill-sentinel/sentinel/internal/websocket"
)

const (
	scalerFile        = "scaler.json"
	encoderFile       = "label_encoder.json"
	anomalyModelFile  = "anomaly_bilstm.onnx"
	oilSpillModelFile = "oilspill_prob.onnx"
	sarModelFile      = "sar_oilspill.onnx"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("feed_mode", cfg.Feed.Mode).
		Str("model_dir", cfg.Model.Dir).
		Str("store_path", cfg.Store.Path).
		Msg("Starting sentinel")

	// Report store.
	reportStore, err := store.Open(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open report store")
	}
	defer func() {
		if err := reportStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing report store")
		}
	}()

	// Model artifacts. The feature pipeline must match what the models
	// were trained against, so any load failure here is fatal.
	scaler, err := features.LoadScaler(filepath.Join(cfg.Model.Dir, scalerFile))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load scaler")
	}
	encoders, err := features.LoadEncoders(filepath.Join(cfg.Model.Dir, encoderFile))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load label encoders")
	}
	builder := features.NewBuilder(scaler, encoders)

	anomalyScorer, err := scorer.NewBiLSTMScorer(
		filepath.Join(cfg.Model.Dir, anomalyModelFile), cfg.Model.ONNXLibPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load anomaly model")
	}
	defer anomalyScorer.Close()

	spillModel, err := scorer.NewSpillModel(
		filepath.Join(cfg.Model.Dir, oilSpillModelFile), cfg.Model.ONNXLibPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load oil spill model")
	}
	defer spillModel.Close()

	analyzer, err := escalation.NewONNXAnalyzer(
		filepath.Join(cfg.Model.Dir, sarModelFile), cfg.Model.ONNXLibPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load sar scene model")
	}
	defer analyzer.Close()

	logging.Info().Msg("Model artifacts loaded")

	// Fan-out plumbing.
	bus := eventbus.New()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()
	hub := ws.NewHub()
	forwarder := eventbus.NewForwarder(bus, hub)
	appender := eventbus.NewAppender(bus, reportStore)

	// Pipeline queues.
	reports := queue.New[models.VesselReport]("stream", cfg.Pipeline.StreamQueueCapacity)
	escalations := queue.New[models.EscalationTask]("escalation", cfg.Pipeline.EscalationQueueCapacity)
	defer reports.Close()
	defer escalations.Close()

	engine := ingest.NewEngine(ingest.Config{
		Reports:     reports,
		Escalations: escalations,
		Builder:     builder,
		Scorer:      anomalyScorer,
		Spill:       spillModel,
		Publisher:   bus,
		GetTimeout:  cfg.Pipeline.QueueGetTimeout,
	})

	pool := escalation.NewPool(escalation.PoolConfig{
		Queue:      escalations,
		Imagery:    escalation.NewSARClient(cfg.SAR),
		Analyzer:   analyzer,
		Explainer:  escalation.NewExplainer(anomalyScorer),
		Saver:      reportStore,
		Publisher:  bus,
		Workers:    cfg.Pipeline.EscalationWorkers,
		GetTimeout: cfg.Pipeline.QueueGetTimeout,
	})

	// AIS fetcher, selected by feed mode.
	var fetcher services.ContextRunner
	switch cfg.Feed.Mode {
	case config.FeedModeStream:
		fetcher = feed.NewStreamFetcher(cfg.Feed, reports)
	default:
		fetcher = feed.NewPollFetcher(cfg.Feed, reports)
	}

	handler := api.NewHandler(hub, reportStore)
	router := api.NewRouter(cfg.Server, handler)
	server := api.NewHTTPServer(cfg.Server, router)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewRunnerService("store-gc", store.NewGC(reportStore, cfg.Store.GCInterval)))
	tree.AddFeedService(services.NewRunnerService("ais-fetcher", fetcher))
	tree.AddPipelineService(services.NewRunnerService("websocket-hub", hub))
	tree.AddPipelineService(services.NewRunnerService("scoring-engine", engine))
	tree.AddPipelineService(services.NewRunnerService("escalation-pool", pool))
	tree.AddPipelineService(services.NewRunnerService("event-forwarder", forwarder))
	tree.AddPipelineService(services.NewRunnerService("event-appender", appender))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Sentinel stopped gracefully")
}
