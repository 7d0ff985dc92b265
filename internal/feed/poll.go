// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
	"github.com/spill-sentinel/sentinel/internal/models"
)

// maxPollBody caps the poll response size.
const maxPollBody = 32 << 20 // 32 MB

// PollFetcher pulls the vessel feed on a fixed interval.
type PollFetcher struct {
	client   *http.Client
	url      string
	apiKey   string
	interval time.Duration
	admit    *admitter
}

// NewPollFetcher creates a polling fetcher feeding the sink.
func NewPollFetcher(cfg config.FeedConfig, sink Sink) *PollFetcher {
	return &PollFetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		interval: cfg.PollInterval,
		admit:    newAdmitter(cfg, sink, config.FeedModePoll),
	}
}

// RunWithContext polls until the context ends. Fetch failures are logged and
// retried on the next tick; only context cancellation stops the loop.
func (f *PollFetcher) RunWithContext(ctx context.Context) error {
	logging.Info().
		Str("component", "feed-poll").
		Dur("interval", f.interval).
		Msg("poll fetcher started")

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	// First poll immediately rather than waiting out a full interval.
	if err := f.pollOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.FeedErrors.WithLabelValues(config.FeedModePoll).Inc()
		logging.Warn().Err(err).Msg("poll cycle failed")
	}

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", "feed-poll").Msg("poll fetcher stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := f.pollOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				metrics.FeedErrors.WithLabelValues(config.FeedModePoll).Inc()
				logging.Warn().Err(err).Msg("poll cycle failed")
			}
		}
	}
}

// pollOnce fetches one batch and admits each entry.
func (f *PollFetcher) pollOnce(ctx context.Context) error {
	entries, err := f.fetch(ctx)
	if err != nil {
		return err
	}

	admitted := 0
	for _, entry := range entries {
		report, err := decodeEntry(entry)
		if err != nil {
			logging.Debug().Err(err).Msg("skipping malformed feed entry")
			continue
		}
		if err := f.admit.admit(ctx, report); err != nil {
			return err
		}
		admitted++
	}

	logging.Debug().
		Int("entries", len(entries)).
		Int("admitted", admitted).
		Msg("poll cycle complete")
	return nil
}

// fetch performs the HTTP request and returns the raw feed entries.
func (f *PollFetcher) fetch(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}
	if f.apiKey != "" {
		req.Header.Set("X-API-Key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPollBody))
	if err != nil {
		return nil, fmt.Errorf("read poll response: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	return entries, nil
}

// decodeEntry unwraps one feed entry. Some provider responses nest the
// position record under an "AIS" key; both layouts are accepted.
func decodeEntry(entry json.RawMessage) (models.VesselReport, error) {
	var wrapper struct {
		AIS *json.RawMessage `json:"AIS"`
	}
	if err := json.Unmarshal(entry, &wrapper); err == nil && wrapper.AIS != nil {
		entry = *wrapper.AIS
	}

	var report models.VesselReport
	if err := json.Unmarshal(entry, &report); err != nil {
		return models.VesselReport{}, fmt.Errorf("decode feed entry: %w", err)
	}
	return report, nil
}
