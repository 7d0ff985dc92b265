// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package features turns a raw vessel report into the scaled seven-feature
// vector the anomaly model was trained on.
package features

import (
	"fmt"
	"strconv"
	"time"
)

// Time-of-day buckets. These are the categorical values the label encoder
// was fitted on, plus the fallback for unparsable timestamps.
const (
	BucketMorning   = "Morning"
	BucketAfternoon = "Afternoon"
	BucketEvening   = "Evening"
	BucketNight     = "Night"
	BucketUnknown   = "Unknown"
)

// reportTimeLayout is the poll feed's timestamp format, e.g.
// "2025-03-14 09:30:00 UTC".
const reportTimeLayout = "2006-01-02 15:04:05 MST"

// ParseReportTime parses a feed timestamp. The poll feed sends formatted
// strings, the push feed epoch seconds; both are accepted.
func ParseReportTime(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(reportTimeLayout, ts); err == nil {
		return t, nil
	}
	if secs, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", ts)
}

// BucketHour maps an hour of day to its bucket.
// Morning [5,12), Afternoon [12,17), Evening [17,21), Night otherwise.
func BucketHour(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return BucketMorning
	case hour >= 12 && hour < 17:
		return BucketAfternoon
	case hour >= 17 && hour < 21:
		return BucketEvening
	default:
		return BucketNight
	}
}

// TimeOfDay buckets a feed timestamp, falling back to BucketUnknown when the
// timestamp cannot be parsed. A bad clock must not cost us the report.
func TimeOfDay(ts string) string {
	t, err := ParseReportTime(ts)
	if err != nil {
		return BucketUnknown
	}
	return BucketHour(t.Hour())
}
