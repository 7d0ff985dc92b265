// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package models

import "time"

// FeatureVector is the scaled model input derived from one vessel report.
type FeatureVector [7]float32

// AnomalyVerdict is the scorer's decision for one vessel report: the anomaly
// model's answer plus the companion oil spill probability computed over the
// same feature vector.
type AnomalyVerdict struct {
	Anomaly             bool    `json:"anomaly"`
	Probability         float64 `json:"anomaly_probability"`
	OilSpill            bool    `json:"oilspill"`
	OilSpillProbability float64 `json:"oilspill_probability"`
	MMSI                int64   `json:"mmsi"`
	Timestamp           string  `json:"timestamp"`
}

// StreamEvent is the first of the two broadcast message shapes: every scored
// report goes out to subscribers in this form, anomalous or not.
type StreamEvent struct {
	AISData       VesselReport   `json:"ais_data"`
	AnomalyResult AnomalyVerdict `json:"anomaly_result"`
}

// EscalationTask carries an anomalous report into the escalation pipeline,
// together with the feature vector it was scored on.
type EscalationTask struct {
	Report   VesselReport
	Verdict  AnomalyVerdict
	Features FeatureVector

	// Attributions maps feature names to their contribution to the anomaly
	// probability, computed at escalation time.
	Attributions map[string]float64
}

// OilSpillPrediction is the imaging pipeline's result for one escalation.
// JSON keys mirror the classifier service contract, spaces included.
type OilSpillPrediction struct {
	PredictedClass      int                `json:"Predicted Class"`
	AnnotatedImage      string             `json:"Annotated_image"`
	OilSpillArea        float64            `json:"Oilspill_Area"`
	SARImage            string             `json:"SAR_image,omitempty"`
	SARMask             string             `json:"SAR_mask,omitempty"`
	FeatureAttributions map[string]float64 `json:"Feature_Attributions,omitempty"`
}

// OilSpillFinding is the second broadcast message shape, emitted only when an
// escalation completed with imagery.
type OilSpillFinding struct {
	MMSI               int64              `json:"mmsi"`
	OilSpillPrediction OilSpillPrediction `json:"oil_spill_prediction"`
}

// SpillReport is the persisted record of a completed escalation.
type SpillReport struct {
	ID            string             `json:"id"`
	MMSI          int64              `json:"MMSI"`
	AISData       VesselReport       `json:"ais_data"`
	AnomalyResult AnomalyVerdict     `json:"anomaly_result"`
	SARPrediction OilSpillPrediction `json:"sar_prediction"`
	Timestamp     time.Time          `json:"timestamp"`
}
