// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Feed.Mode != FeedModePoll {
		t.Errorf("feed.mode = %q", cfg.Feed.Mode)
	}
	if cfg.Feed.PollInterval != 120*time.Second {
		t.Errorf("feed.poll_interval = %v", cfg.Feed.PollInterval)
	}
	if cfg.Feed.EnqueueDelay != 500*time.Millisecond {
		t.Errorf("feed.enqueue_delay = %v", cfg.Feed.EnqueueDelay)
	}
	bbox := cfg.Feed.BBox
	if bbox.LatMin != 15 || bbox.LatMax != 30 || bbox.LonMin != -100 || bbox.LonMax != -80 {
		t.Errorf("default bbox = %+v", bbox)
	}
	if cfg.Pipeline.StreamQueueCapacity != 512 {
		t.Errorf("stream queue capacity = %d", cfg.Pipeline.StreamQueueCapacity)
	}
	if cfg.Pipeline.QueueGetTimeout != 5*time.Second {
		t.Errorf("queue get timeout = %v", cfg.Pipeline.QueueGetTimeout)
	}
	if cfg.SAR.LookbackDays != 30 {
		t.Errorf("sar lookback = %d", cfg.SAR.LookbackDays)
	}
}

func TestBoundingBoxContainsInclusive(t *testing.T) {
	b := BoundingBox{LatMin: 15, LatMax: 30, LonMin: -100, LonMax: -80}

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"interior", 22, -90, true},
		{"lat min edge", 15, -90, true},
		{"lat max edge", 30, -90, true},
		{"lon min edge", 22, -100, true},
		{"lon max edge", 22, -80, true},
		{"corner", 15, -100, true},
		{"below lat", 14.999, -90, false},
		{"above lat", 30.001, -90, false},
		{"west of box", 22, -100.001, false},
		{"east of box", 22, -79.999, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
feed:
  url: https://file.example/ais
  mode: poll
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("FEED_API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feed.URL != "https://file.example/ais" {
		t.Errorf("feed.url = %q", cfg.Feed.URL)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("env should override file: port = %d", cfg.Server.Port)
	}
	if cfg.Feed.APIKey != "secret" {
		t.Errorf("feed.api_key = %q", cfg.Feed.APIKey)
	}
	// Defaults survive underneath both layers.
	if cfg.Pipeline.EscalationWorkers != 2 {
		t.Errorf("escalation workers = %d", cfg.Pipeline.EscalationWorkers)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing feed url", func(c *Config) { c.Feed.URL = "" }},
		{"bad feed mode", func(c *Config) { c.Feed.Mode = "carrier-pigeon" }},
		{"inverted lat range", func(c *Config) { c.Feed.BBox.LatMin = 40 }},
		{"lat out of range", func(c *Config) { c.Feed.BBox.LatMax = 95 }},
		{"lon out of range", func(c *Config) { c.Feed.BBox.LonMin = -200 }},
		{"zero workers", func(c *Config) { c.Pipeline.EscalationWorkers = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero lookback", func(c *Config) { c.SAR.LookbackDays = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Feed.URL = "https://example.test/ais"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := defaultConfig()
	cfg.Feed.URL = "https://example.test/ais"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
