// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package features

import (
	"fmt"

	"github.com/spill-sentinel/sentinel/internal/models"
)

// VectorSize is the model input width.
const VectorSize = 7

// Feature names in model input order. The mapping from feed fields follows
// the training pipeline: SPEED becomes SOG_mean, COURSE becomes COG_mean,
// and so on.
const (
	NameSOG       = "SOG_mean"
	NameCOG       = "COG_mean"
	NameLat       = "LAT_mean"
	NameLon       = "LON_mean"
	NameHeading   = "Heading_mean_heading"
	NameStatus    = "Status_mode"
	NameTimeOfDay = "TimeOfDay_mode"
)

// Names lists the features in model input order.
var Names = [VectorSize]string{
	NameSOG, NameCOG, NameLat, NameLon, NameHeading, NameStatus, NameTimeOfDay,
}

// Vector is a scaled model input. It aliases the models type so pipeline
// stages can hand vectors around without conversion.
type Vector = models.FeatureVector

// Builder assembles scaled feature vectors from vessel reports.
type Builder struct {
	scaler   *RobustScaler
	encoders *Encoders
}

// NewBuilder wires the fitted artifacts into a builder.
func NewBuilder(scaler *RobustScaler, encoders *Encoders) *Builder {
	return &Builder{scaler: scaler, encoders: encoders}
}

// Build maps a report onto the model features, encodes the categoricals and
// applies the robust scaler. Reports missing any numeric model input are
// rejected; categorical gaps fall back to the Unknown class instead.
func (b *Builder) Build(report *models.VesselReport) (Vector, error) {
	raw, err := rawVector(report, b.encoders)
	if err != nil {
		return Vector{}, err
	}
	return b.scaler.Transform(raw), nil
}

// rawVector builds the unscaled vector.
func rawVector(report *models.VesselReport, encoders *Encoders) (Vector, error) {
	numerics := []struct {
		name  string
		value *float64
	}{
		{NameSOG, report.Speed},
		{NameCOG, report.Course},
		{NameLat, report.Latitude},
		{NameLon, report.Longitude},
		{NameHeading, report.Heading},
	}

	var vec Vector
	for i, n := range numerics {
		if n.value == nil {
			return Vector{}, fmt.Errorf("report %d: missing %s", report.MMSI, n.name)
		}
		vec[i] = float32(*n.value)
	}

	vec[5] = float32(encoders.Status.Encode(report.NavStatus()))
	vec[6] = float32(encoders.TimeOfDay.Encode(TimeOfDay(report.Timestamp)))
	return vec, nil
}
