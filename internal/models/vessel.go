// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package models holds the domain types shared across the pipeline: vessel
// reports as they arrive from the AIS feeds, anomaly verdicts produced by the
// scorer, and the escalation artifacts broadcast to subscribers and persisted.
package models

import "strconv"

// UnknownValue fills descriptive string fields the feed did not supply.
const UnknownValue = "unknown"

// VesselReport is a single AIS position report. JSON tags match the upstream
// feed field names so raw feed entries decode directly into this type.
//
// The seven fields the anomaly model consumes (Speed, Course, Latitude,
// Longitude, Heading, NavStat, Timestamp) use pointers so a missing value is
// distinguishable from a zero value. Descriptive tail fields are informational
// only and default to "unknown" after Normalize.
type VesselReport struct {
	MMSI      int64    `json:"MMSI"`
	Timestamp string   `json:"TIMESTAMP"`
	Latitude  *float64 `json:"LATITUDE"`
	Longitude *float64 `json:"LONGITUDE"`
	Course    *float64 `json:"COURSE"`
	Speed     *float64 `json:"SPEED"`
	Heading   *float64 `json:"HEADING"`
	NavStat   *float64 `json:"NAVSTAT"`

	IMO               string   `json:"IMO"`
	Name              string   `json:"NAME"`
	Callsign          string   `json:"CALLSIGN"`
	Type              string   `json:"TYPE"`
	A                 *float64 `json:"A"`
	B                 *float64 `json:"B"`
	C                 *float64 `json:"C"`
	D                 *float64 `json:"D"`
	Draught           *float64 `json:"DRAUGHT"`
	Destination       string   `json:"DESTINATION"`
	Locode            string   `json:"LOCODE"`
	ETAAIS            string   `json:"ETA_AIS"`
	ETA               string   `json:"ETA"`
	Src               string   `json:"SRC"`
	Zone              string   `json:"ZONE"`
	ECA               bool     `json:"ECA"`
	DistanceRemaining *float64 `json:"DISTANCE_REMAINING"`
	ETAPredicted      string   `json:"ETA_PREDICTED"`
}

// Normalize fills absent descriptive fields with UnknownValue. The
// model-required pointer fields are left untouched; the feature builder
// decides how to treat those.
func (r *VesselReport) Normalize() {
	for _, f := range []*string{
		&r.IMO, &r.Name, &r.Callsign, &r.Type, &r.Destination, &r.Locode,
		&r.ETAAIS, &r.ETA, &r.Src, &r.Zone, &r.ETAPredicted,
	} {
		if *f == "" {
			*f = UnknownValue
		}
	}
}

// HasPosition reports whether both coordinates are present.
func (r *VesselReport) HasPosition() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// NavStatus returns the navigational status as the categorical string the
// label encoder expects, or "Unknown" when absent.
func (r *VesselReport) NavStatus() string {
	if r.NavStat == nil {
		return "Unknown"
	}
	return strconv.Itoa(int(*r.NavStat))
}

// Float64 returns a pointer to v. Convenience for building reports in tests
// and feed adapters.
func Float64(v float64) *float64 {
	return &v
}
