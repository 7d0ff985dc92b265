// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package models

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestVesselReportDecodesFeedEntry(t *testing.T) {
	raw := `{
		"MMSI": 367001234,
		"TIMESTAMP": "2025-03-14 09:30:00 UTC",
		"LATITUDE": 21.5,
		"LONGITUDE": -91.25,
		"COURSE": 180.0,
		"SPEED": 12.3,
		"HEADING": 181,
		"NAVSTAT": 0,
		"NAME": "GULF TRADER",
		"ECA": true
	}`

	var r VesselReport
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.MMSI != 367001234 {
		t.Errorf("MMSI = %d", r.MMSI)
	}
	if r.Latitude == nil || *r.Latitude != 21.5 {
		t.Errorf("Latitude = %v", r.Latitude)
	}
	if r.Speed == nil || *r.Speed != 12.3 {
		t.Errorf("Speed = %v", r.Speed)
	}
	if r.Draught != nil {
		t.Errorf("absent DRAUGHT should stay nil, got %v", *r.Draught)
	}
	if !r.ECA {
		t.Error("ECA should be true")
	}
}

func TestNormalizeFillsUnknown(t *testing.T) {
	r := VesselReport{MMSI: 1, Name: "KNOWN"}
	r.Normalize()

	if r.Name != "KNOWN" {
		t.Errorf("Name overwritten: %q", r.Name)
	}
	for name, got := range map[string]string{
		"IMO": r.IMO, "CALLSIGN": r.Callsign, "TYPE": r.Type,
		"DESTINATION": r.Destination, "ZONE": r.Zone, "SRC": r.Src,
	} {
		if got != UnknownValue {
			t.Errorf("%s = %q, want %q", name, got, UnknownValue)
		}
	}
}

func TestNavStatus(t *testing.T) {
	r := VesselReport{}
	if got := r.NavStatus(); got != "Unknown" {
		t.Errorf("missing NAVSTAT = %q, want Unknown", got)
	}
	r.NavStat = Float64(5)
	if got := r.NavStatus(); got != "5" {
		t.Errorf("NAVSTAT 5 = %q", got)
	}
}

func TestStreamEventWireShape(t *testing.T) {
	lat := 21.5
	event := StreamEvent{
		AISData: VesselReport{MMSI: 367001234, Latitude: &lat},
		AnomalyResult: AnomalyVerdict{
			Anomaly:             true,
			Probability:         0.87,
			OilSpill:            true,
			OilSpillProbability: 0.61,
			MMSI:                367001234,
			Timestamp:           "2025-03-14 09:30:00 UTC",
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	keys := []string{
		`"ais_data"`, `"anomaly_result"`,
		`"anomaly":true`, `"anomaly_probability":0.87`,
		`"oilspill":true`, `"oilspill_probability":0.61`,
	}
	for _, key := range keys {
		if !strings.Contains(out, key) {
			t.Errorf("wire shape missing %s in %s", key, out)
		}
	}
}

func TestOilSpillFindingWireShape(t *testing.T) {
	finding := OilSpillFinding{
		MMSI: 367001234,
		OilSpillPrediction: OilSpillPrediction{
			PredictedClass: 1,
			AnnotatedImage: "aGVsbG8=",
			OilSpillArea:   420.5,
		},
	}

	data, err := json.Marshal(finding)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, key := range []string{`"mmsi"`, `"oil_spill_prediction"`, `"Predicted Class":1`, `"Annotated_image"`, `"Oilspill_Area":420.5`} {
		if !strings.Contains(out, key) {
			t.Errorf("wire shape missing %s in %s", key, out)
		}
	}
	if strings.Contains(out, `"SAR_image"`) {
		t.Error("empty SAR_image should be omitted")
	}
}
