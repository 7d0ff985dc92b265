// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package scorer

import (
	"context"

	"github.com/spill-sentinel/sentinel/internal/features"
)

// SpillModel runs the companion oil spill probability model over the same
// feature vector the anomaly model scores. Its answer is merged into every
// verdict, anomalous or not.
type SpillModel struct {
	s *vectorSession
}

// NewSpillModel loads the oil spill model and creates an inference session.
func NewSpillModel(modelPath, libPath string) (*SpillModel, error) {
	s, err := newVectorSession("oil spill", modelPath, libPath)
	if err != nil {
		return nil, err
	}
	return &SpillModel{s: s}, nil
}

// SpillProbability runs one oil spill inference.
func (m *SpillModel) SpillProbability(ctx context.Context, vec features.Vector) (float64, error) {
	return m.s.run(ctx, vec)
}

// Close releases the session resources.
func (m *SpillModel) Close() error {
	return m.s.close()
}
