// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package scorer runs the pretrained models over feature vectors: the BiLSTM
// anomaly model and the companion oil spill probability model. Both consume
// the same scaled vector, and both answers land in one verdict.
package scorer

import (
	"context"

	"github.com/spill-sentinel/sentinel/internal/features"
	"github.com/spill-sentinel/sentinel/internal/models"
)

// AnomalyThreshold is the fitted decision threshold: a report is anomalous
// when its probability strictly exceeds this value.
const AnomalyThreshold = 0.32

// SpillThreshold turns the companion model's sigmoid output into the
// oilspill flag.
const SpillThreshold = 0.5

// Scorer produces an anomaly probability in [0, 1] for one feature vector.
type Scorer interface {
	Score(ctx context.Context, vec features.Vector) (float64, error)
}

// SpillScorer produces an oil spill probability in [0, 1] for one feature
// vector.
type SpillScorer interface {
	SpillProbability(ctx context.Context, vec features.Vector) (float64, error)
}

// Classify applies the anomaly decision threshold to a probability.
func Classify(probability float64) bool {
	return probability > AnomalyThreshold
}

// ClassifySpill applies the spill decision threshold to a probability.
func ClassifySpill(probability float64) bool {
	return probability > SpillThreshold
}

// Verdict builds the merged verdict for a scored report.
func Verdict(report *models.VesselReport, probability, spillProbability float64) models.AnomalyVerdict {
	return models.AnomalyVerdict{
		Anomaly:             Classify(probability),
		Probability:         probability,
		OilSpill:            ClassifySpill(spillProbability),
		OilSpillProbability: spillProbability,
		MMSI:                report.MMSI,
		Timestamp:           report.Timestamp,
	}
}
