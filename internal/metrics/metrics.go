// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package metrics defines the Prometheus instrumentation for the pipeline:
// feed ingestion, scoring, escalation, broadcasting and persistence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Feed metrics
	ReportsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_reports_fetched_total",
			Help: "Total AIS reports received from the feed before filtering",
		},
		[]string{"mode"},
	)

	ReportsFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ais_reports_filtered_total",
			Help: "Total AIS reports discarded by the bounding box filter",
		},
	)

	FeedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ais_feed_errors_total",
			Help: "Total feed fetch or decode failures",
		},
		[]string{"mode"},
	)

	// Scoring metrics
	ReportsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reports_scored_total",
			Help: "Total vessel reports scored by the anomaly model",
		},
	)

	ReportsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_skipped_total",
			Help: "Total vessel reports skipped before scoring",
		},
		[]string{"reason"},
	)

	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "anomaly_score_duration_seconds",
			Help:    "Duration of a single anomaly model inference",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	AnomaliesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total reports classified as anomalous",
		},
	)

	// Escalation metrics
	EscalationsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escalations_started_total",
			Help: "Total anomaly escalations accepted into the escalation queue",
		},
	)

	EscalationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escalations_dropped_total",
			Help: "Total escalations rejected because the escalation queue was full",
		},
	)

	EscalationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "escalation_duration_seconds",
			Help:    "End-to-end duration of one escalation (imagery + classification)",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	EscalationsNoImagery = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escalations_no_imagery_total",
			Help: "Total escalations that found no SAR scene in the lookback window",
		},
	)

	SARRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sar_request_errors_total",
			Help: "Total SAR imagery request failures",
		},
		[]string{"kind"},
	)

	// Queue metrics
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipeline_queue_depth",
			Help: "Current number of items waiting in a pipeline queue",
		},
		[]string{"queue"},
	)

	// Broadcast metrics
	BroadcastsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcasts_sent_total",
			Help: "Total messages handed to the WebSocket hub",
		},
		[]string{"topic"},
	)

	WSClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Current number of connected WebSocket subscribers",
		},
	)

	// Store metrics
	StoreWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "spill_reports_stored_total",
			Help: "Total spill reports persisted to the report store",
		},
	)

	StoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total report store failures",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)
