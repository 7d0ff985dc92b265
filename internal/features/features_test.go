// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package features

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spill-sentinel/sentinel/internal/models"
)

func TestBucketHourBoundaries(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{5, BucketMorning},
		{11, BucketMorning},
		{12, BucketAfternoon},
		{16, BucketAfternoon},
		{17, BucketEvening},
		{20, BucketEvening},
		{21, BucketNight},
		{4, BucketNight},
		{0, BucketNight},
		{23, BucketNight},
	}
	for _, tt := range tests {
		if got := BucketHour(tt.hour); got != tt.want {
			t.Errorf("BucketHour(%d) = %q, want %q", tt.hour, got, tt.want)
		}
	}
}

func TestTimeOfDayParsesBothFormats(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want string
	}{
		{"poll format morning", "2025-03-14 09:30:00 UTC", BucketMorning},
		{"poll format evening", "2025-03-14 18:00:00 UTC", BucketEvening},
		{"epoch seconds", "1741942800", BucketHour(14)}, // 2025-03-14T09:00:00-05? fixed below
		{"garbage", "not-a-time", BucketUnknown},
		{"empty", "", BucketUnknown},
	}
	// Recompute the epoch expectation from the same parser to avoid a
	// timezone-dependent literal.
	parsed, err := ParseReportTime("1741942800")
	if err != nil {
		t.Fatalf("epoch parse: %v", err)
	}
	tests[2].want = BucketHour(parsed.Hour())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeOfDay(tt.ts); got != tt.want {
				t.Errorf("TimeOfDay(%q) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

func TestLabelEncoderRequiresUnknown(t *testing.T) {
	if _, err := NewLabelEncoder("Status_mode", []string{"0", "1", "5"}); err == nil {
		t.Error("encoder without Unknown class should fail")
	}

	enc, err := NewLabelEncoder("Status_mode", []string{"0", "1", "5", "Unknown"})
	if err != nil {
		t.Fatalf("NewLabelEncoder: %v", err)
	}
	if got := enc.Encode("5"); got != 2 {
		t.Errorf("Encode(5) = %d, want 2", got)
	}
	if got := enc.Encode("15"); got != 3 {
		t.Errorf("unseen value should encode as Unknown index 3, got %d", got)
	}
}

func TestRobustScalerTransform(t *testing.T) {
	s := &RobustScaler{
		Medians: []float64{10, 180, 22, -90, 180, 2, 1},
		IQRs:    []float64{5, 90, 4, 10, 90, 3, 0},
	}

	in := Vector{15, 270, 22, -100, 90, 5, 3}
	out := s.Transform(in)

	want := Vector{1, 1, 0, -1, -1, 1, 2} // zero IQR leaves the centered value
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("feature %d = %v, want %v", i, out[i], want[i])
		}
	}
}

func writeArtifacts(t *testing.T) (scalerPath, encoderPath string) {
	t.Helper()
	dir := t.TempDir()

	scalerPath = filepath.Join(dir, "scaler.json")
	scaler := `{"center":[0,0,0,0,0,0,0],"scale":[1,1,1,1,1,1,1]}`
	if err := os.WriteFile(scalerPath, []byte(scaler), 0o600); err != nil {
		t.Fatal(err)
	}

	encoderPath = filepath.Join(dir, "label_encoder.json")
	encoder := `{
		"Status_mode": ["0", "1", "5", "8", "Unknown"],
		"TimeOfDay_mode": ["Afternoon", "Evening", "Morning", "Night", "Unknown"]
	}`
	if err := os.WriteFile(encoderPath, []byte(encoder), 0o600); err != nil {
		t.Fatal(err)
	}
	return scalerPath, encoderPath
}

func TestLoadArtifacts(t *testing.T) {
	scalerPath, encoderPath := writeArtifacts(t)

	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		t.Fatalf("LoadScaler: %v", err)
	}
	if len(scaler.Medians) != VectorSize {
		t.Errorf("medians = %d", len(scaler.Medians))
	}

	encoders, err := LoadEncoders(encoderPath)
	if err != nil {
		t.Fatalf("LoadEncoders: %v", err)
	}
	if encoders.Status.Classes() != 5 || encoders.TimeOfDay.Classes() != 5 {
		t.Errorf("class counts = %d/%d", encoders.Status.Classes(), encoders.TimeOfDay.Classes())
	}
}

func TestLoadEncodersRejectsMissingUnknown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label_encoder.json")
	bad := `{"Status_mode": ["0", "1"], "TimeOfDay_mode": ["Morning", "Unknown"]}`
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadEncoders(path); err == nil {
		t.Error("expected error for vocabulary without Unknown")
	}
}

func TestLoadScalerRejectsWrongWidth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scaler.json")
	if err := os.WriteFile(path, []byte(`{"center":[1,2],"scale":[1,2]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScaler(path); err == nil {
		t.Error("expected error for wrong parameter count")
	}
}

func TestBuilderBuildsOrderedVector(t *testing.T) {
	scalerPath, encoderPath := writeArtifacts(t)
	scaler, _ := LoadScaler(scalerPath)
	encoders, err := LoadEncoders(encoderPath)
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(scaler, encoders)

	report := &models.VesselReport{
		MMSI:      367001234,
		Timestamp: "2025-03-14 09:30:00 UTC",
		Latitude:  models.Float64(21.5),
		Longitude: models.Float64(-91.25),
		Course:    models.Float64(180),
		Speed:     models.Float64(12.5),
		Heading:   models.Float64(181),
		NavStat:   models.Float64(5),
	}

	vec, err := b.Build(report)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Identity scaler: values pass through in feed order, categoricals encoded.
	want := Vector{12.5, 180, 21.5, -91.25, 181, 2, 2} // NAVSTAT "5" -> 2, Morning -> 2
	if vec != want {
		t.Errorf("vector = %v, want %v", vec, want)
	}
}

func TestBuilderRejectsMissingNumeric(t *testing.T) {
	scalerPath, encoderPath := writeArtifacts(t)
	scaler, _ := LoadScaler(scalerPath)
	encoders, _ := LoadEncoders(encoderPath)
	b := NewBuilder(scaler, encoders)

	report := &models.VesselReport{
		MMSI:      1,
		Timestamp: "2025-03-14 09:30:00 UTC",
		Latitude:  models.Float64(21.5),
		Longitude: models.Float64(-91.25),
		Course:    models.Float64(180),
		// Speed missing
		Heading: models.Float64(181),
	}
	if _, err := b.Build(report); err == nil {
		t.Error("expected error for missing SPEED")
	}
}

func TestBuilderUnknownCategoricals(t *testing.T) {
	scalerPath, encoderPath := writeArtifacts(t)
	scaler, _ := LoadScaler(scalerPath)
	encoders, _ := LoadEncoders(encoderPath)
	b := NewBuilder(scaler, encoders)

	report := &models.VesselReport{
		MMSI:      1,
		Timestamp: "garbled",
		Latitude:  models.Float64(21.5),
		Longitude: models.Float64(-91.25),
		Course:    models.Float64(180),
		Speed:     models.Float64(0),
		Heading:   models.Float64(181),
		// NavStat missing
	}
	vec, err := b.Build(report)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if vec[5] != 4 {
		t.Errorf("missing NAVSTAT should encode Unknown (4), got %v", vec[5])
	}
	if vec[6] != 4 {
		t.Errorf("garbled timestamp should encode Unknown (4), got %v", vec[6])
	}
}
