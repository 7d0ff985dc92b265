// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sentinel/config.yaml",
	"/etc/sentinel/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration in three layers:
//
//  1. Defaults from defaultConfig
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names to config paths. Only listed
// variables are honored; anything else in the environment is ignored.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"feed_mode":          "feed.mode",
	"feed_url":           "feed.url",
	"feed_api_key":       "feed.api_key",
	"feed_poll_interval": "feed.poll_interval",
	"feed_enqueue_delay": "feed.enqueue_delay",
	"feed_bbox_lat_min":  "feed.bbox.lat_min",
	"feed_bbox_lat_max":  "feed.bbox.lat_max",
	"feed_bbox_lon_min":  "feed.bbox.lon_min",
	"feed_bbox_lon_max":  "feed.bbox.lon_max",

	"model_dir":     "model.dir",
	"onnx_lib_path": "model.onnx_lib_path",

	"stream_queue_capacity":     "pipeline.stream_queue_capacity",
	"escalation_queue_capacity": "pipeline.escalation_queue_capacity",
	"escalation_workers":        "pipeline.escalation_workers",

	"sar_url":           "sar.url",
	"sar_timeout":       "sar.timeout",
	"sar_lookback_days": "sar.lookback_days",

	"store_path":        "store.path",
	"store_event_ttl":   "store.event_ttl",
	"store_gc_interval": "store.gc_interval",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Returning "" drops the variable.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
