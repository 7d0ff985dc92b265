// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package escalation

import (
	"context"

	"github.com/spill-sentinel/sentinel/internal/features"
	"github.com/spill-sentinel/sentinel/internal/scorer"
)

// Explainer computes per-feature attributions for an anomaly decision by
// perturbation: each feature is reset to its scaled median (zero) in turn
// and the probability drop is credited to that feature. Positive values
// pushed the report toward anomalous.
type Explainer struct {
	scorer scorer.Scorer
}

// NewExplainer wraps a scorer for attribution.
func NewExplainer(s scorer.Scorer) *Explainer {
	return &Explainer{scorer: s}
}

// Explain returns the attribution map for one feature vector.
func (e *Explainer) Explain(ctx context.Context, vec features.Vector) (map[string]float64, error) {
	base, err := e.scorer.Score(ctx, vec)
	if err != nil {
		return nil, err
	}

	attributions := make(map[string]float64, features.VectorSize)
	for i := 0; i < features.VectorSize; i++ {
		perturbed := vec
		perturbed[i] = 0
		p, err := e.scorer.Score(ctx, perturbed)
		if err != nil {
			return nil, err
		}
		attributions[features.Names[i]] = base - p
	}
	return attributions, nil
}
