// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package features

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// RobustScaler holds the per-feature center and scale fitted during
// training. The JSON keys match the exported sklearn parameters.
type RobustScaler struct {
	Medians []float64 `json:"center"`
	IQRs    []float64 `json:"scale"`
}

// LoadScaler reads scaler parameters from a JSON artifact.
func LoadScaler(path string) (*RobustScaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler artifact: %w", err)
	}

	var s RobustScaler
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scaler artifact %s: %w", path, err)
	}
	if len(s.Medians) != VectorSize || len(s.IQRs) != VectorSize {
		return nil, fmt.Errorf("scaler artifact %s has %d/%d parameters, want %d",
			path, len(s.Medians), len(s.IQRs), VectorSize)
	}
	return &s, nil
}

// Transform applies (x - center) / scale per feature. A zero scale leaves
// the centered value unscaled rather than dividing by zero.
func (s *RobustScaler) Transform(vec Vector) Vector {
	var out Vector
	for i := range vec {
		centered := float64(vec[i]) - s.Medians[i]
		if s.IQRs[i] != 0 {
			centered /= s.IQRs[i]
		}
		out[i] = float32(centered)
	}
	return out
}

// LabelEncoder maps a categorical value to the integer index it held in the
// training vocabulary. Unseen values encode as the "Unknown" class.
type LabelEncoder struct {
	indices map[string]int
	unknown int
}

// NewLabelEncoder builds an encoder from an ordered class list. The list
// must contain the "Unknown" class; refusing to guess an index for values
// the model never saw is what keeps inference deterministic.
func NewLabelEncoder(column string, classes []string) (*LabelEncoder, error) {
	enc := &LabelEncoder{indices: make(map[string]int, len(classes)), unknown: -1}
	for i, class := range classes {
		enc.indices[class] = i
		if class == BucketUnknown {
			enc.unknown = i
		}
	}
	if enc.unknown < 0 {
		return nil, fmt.Errorf("label encoder %s: vocabulary lacks the %q class", column, BucketUnknown)
	}
	return enc, nil
}

// Encode returns the class index, or the Unknown index for unseen values.
func (e *LabelEncoder) Encode(value string) int {
	if idx, ok := e.indices[value]; ok {
		return idx
	}
	return e.unknown
}

// Classes returns the vocabulary size.
func (e *LabelEncoder) Classes() int {
	return len(e.indices)
}

// Encoders bundles the two categorical encoders the model needs.
type Encoders struct {
	Status    *LabelEncoder
	TimeOfDay *LabelEncoder
}

// LoadEncoders reads the label encoder artifact, a JSON object mapping each
// categorical column to its ordered class list:
//
//	{"Status_mode": ["0", "1", ..., "Unknown"],
//	 "TimeOfDay_mode": ["Afternoon", "Evening", "Morning", "Night", "Unknown"]}
func LoadEncoders(path string) (*Encoders, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label encoder artifact: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse label encoder artifact %s: %w", path, err)
	}

	status, ok := raw[NameStatus]
	if !ok {
		return nil, fmt.Errorf("label encoder artifact %s: missing column %s", path, NameStatus)
	}
	timeOfDay, ok := raw[NameTimeOfDay]
	if !ok {
		return nil, fmt.Errorf("label encoder artifact %s: missing column %s", path, NameTimeOfDay)
	}

	statusEnc, err := NewLabelEncoder(NameStatus, status)
	if err != nil {
		return nil, err
	}
	todEnc, err := NewLabelEncoder(NameTimeOfDay, timeOfDay)
	if err != nil {
		return nil, err
	}

	return &Encoders{Status: statusEnc, TimeOfDay: todEnc}, nil
}
