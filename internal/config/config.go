// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package config loads layered configuration with koanf.
// Precedence: environment variables > YAML config file > built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Feed modes.
const (
	FeedModePoll   = "poll"
	FeedModeStream = "stream"
)

// Config is the root configuration.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Server     ServerConfig     `koanf:"server"`
	Feed       FeedConfig       `koanf:"feed"`
	Model      ModelConfig      `koanf:"model"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	SAR        SARConfig        `koanf:"sar"`
	Store      StoreConfig      `koanf:"store"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// LoggingConfig configures the global zerolog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig configures the HTTP/WebSocket server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BoundingBox is the inclusive geographic region of interest.
type BoundingBox struct {
	LatMin float64 `koanf:"lat_min"`
	LatMax float64 `koanf:"lat_max"`
	LonMin float64 `koanf:"lon_min"`
	LonMax float64 `koanf:"lon_max"`
}

// Contains reports whether the coordinate lies inside the box.
// Boundary values count as inside.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// FeedConfig configures the AIS report source.
type FeedConfig struct {
	// Mode selects the fetcher: "poll" for the HTTP polling feed,
	// "stream" for the push WebSocket feed.
	Mode   string `koanf:"mode"`
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`

	// PollInterval is the delay between polling cycles.
	PollInterval time.Duration `koanf:"poll_interval"`

	// EnqueueDelay paces report admission into the streaming queue.
	EnqueueDelay time.Duration `koanf:"enqueue_delay"`

	BBox BoundingBox `koanf:"bbox"`
}

// ModelConfig locates the pretrained artifacts.
type ModelConfig struct {
	// Dir holds scaler.json, label_encoder.json, anomaly_bilstm.onnx,
	// oilspill_prob.onnx and sar_oilspill.onnx.
	Dir string `koanf:"dir"`

	// ONNXLibPath points at the onnxruntime shared library.
	ONNXLibPath string `koanf:"onnx_lib_path"`
}

// PipelineConfig sizes the queues and worker pool.
type PipelineConfig struct {
	StreamQueueCapacity     int           `koanf:"stream_queue_capacity"`
	EscalationQueueCapacity int           `koanf:"escalation_queue_capacity"`
	EscalationWorkers       int           `koanf:"escalation_workers"`
	QueueGetTimeout         time.Duration `koanf:"queue_get_timeout"`
}

// SARConfig configures the SAR imagery collaborator.
type SARConfig struct {
	URL          string        `koanf:"url"`
	Timeout      time.Duration `koanf:"timeout"`
	LookbackDays int           `koanf:"lookback_days"`
}

// StoreConfig configures the badger report store.
type StoreConfig struct {
	Path string `koanf:"path"`

	// EventTTL bounds the anomaly event archive.
	EventTTL time.Duration `koanf:"event_ttl"`

	// GCInterval paces badger value log garbage collection.
	GCInterval time.Duration `koanf:"gc_interval"`

	// InMemory is used by tests; the on-disk path is ignored when set.
	InMemory bool `koanf:"in_memory"`
}

// SupervisorConfig holds suture failure parameters.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// defaultConfig returns the built-in defaults. The bounding box defaults to
// the Gulf of Mexico region the system was first deployed for.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Feed: FeedConfig{
			Mode:         FeedModePoll,
			URL:          "",
			APIKey:       "",
			PollInterval: 120 * time.Second,
			EnqueueDelay: 500 * time.Millisecond,
			BBox: BoundingBox{
				LatMin: 15,
				LatMax: 30,
				LonMin: -100,
				LonMax: -80,
			},
		},
		Model: ModelConfig{
			Dir:         "models",
			ONNXLibPath: "",
		},
		Pipeline: PipelineConfig{
			StreamQueueCapacity:     512,
			EscalationQueueCapacity: 256,
			EscalationWorkers:       2,
			QueueGetTimeout:         5 * time.Second,
		},
		SAR: SARConfig{
			URL:          "",
			Timeout:      60 * time.Second,
			LookbackDays: 30,
		},
		Store: StoreConfig{
			Path:       "/data/sentinel",
			EventTTL:   7 * 24 * time.Hour,
			GCInterval: 10 * time.Minute,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Validate checks configuration invariants after loading.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Feed.Mode != FeedModePoll && c.Feed.Mode != FeedModeStream {
		return fmt.Errorf("feed.mode %q must be %q or %q", c.Feed.Mode, FeedModePoll, FeedModeStream)
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.PollInterval <= 0 {
		return fmt.Errorf("feed.poll_interval must be positive")
	}
	b := c.Feed.BBox
	if b.LatMin > b.LatMax {
		return fmt.Errorf("feed.bbox latitude range inverted: %v > %v", b.LatMin, b.LatMax)
	}
	if b.LonMin > b.LonMax {
		return fmt.Errorf("feed.bbox longitude range inverted: %v > %v", b.LonMin, b.LonMax)
	}
	if b.LatMin < -90 || b.LatMax > 90 {
		return fmt.Errorf("feed.bbox latitude out of range")
	}
	if b.LonMin < -180 || b.LonMax > 180 {
		return fmt.Errorf("feed.bbox longitude out of range")
	}
	if c.Pipeline.StreamQueueCapacity < 1 {
		return fmt.Errorf("pipeline.stream_queue_capacity must be positive")
	}
	if c.Pipeline.EscalationQueueCapacity < 1 {
		return fmt.Errorf("pipeline.escalation_queue_capacity must be positive")
	}
	if c.Pipeline.EscalationWorkers < 1 {
		return fmt.Errorf("pipeline.escalation_workers must be positive")
	}
	if c.SAR.LookbackDays < 1 {
		return fmt.Errorf("sar.lookback_days must be positive")
	}
	return nil
}
