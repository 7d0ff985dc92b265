// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package escalation turns anomalous vessel reports into oil spill
// findings: fetch recent SAR imagery around the vessel, classify it, and
// persist plus publish the result.
package escalation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
)

// DefaultLookbackDays is the imagery search window when none is configured.
const DefaultLookbackDays = 30

// Imagery is the SAR service's response for one scene request. An empty
// SARImage means no scene covered the window; that is a normal outcome, not
// an error.
type Imagery struct {
	SARImage       string  `json:"SAR_image"`
	AnnotatedImage string  `json:"Annotated_sar_image"`
	OilSpillArea   float64 `json:"OilSpill_Area"`
}

// ImageryClient fetches the most recent SAR scene near a position.
type ImageryClient interface {
	Fetch(ctx context.Context, lat, lon float64, at time.Time) (*Imagery, error)
}

// imageryRequest is the SAR service request body.
type imageryRequest struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

// SARClient calls the SAR imagery service over HTTP behind a circuit
// breaker, so a dead imagery backend fails escalations fast instead of
// tying up workers in timeouts.
type SARClient struct {
	client       *http.Client
	url          string
	lookbackDays int
	breaker      *gobreaker.CircuitBreaker[*Imagery]
}

// NewSARClient creates the imagery client.
func NewSARClient(cfg config.SARConfig) *SARClient {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "sar-imagery",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &SARClient{
		client:       &http.Client{Timeout: timeout},
		url:          cfg.URL,
		lookbackDays: lookback,
		breaker:      gobreaker.NewCircuitBreaker[*Imagery](settings),
	}
}

// Fetch requests the latest scene within the lookback window ending at the
// report time. Returns (nil, nil) when no scene exists.
func (c *SARClient) Fetch(ctx context.Context, lat, lon float64, at time.Time) (*Imagery, error) {
	imagery, err := c.breaker.Execute(func() (*Imagery, error) {
		return c.fetch(ctx, lat, lon, at)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		metrics.SARRequestErrors.WithLabelValues("breaker_open").Inc()
		return nil, fmt.Errorf("sar imagery unavailable: %w", err)
	}
	return imagery, err
}

func (c *SARClient) fetch(ctx context.Context, lat, lon float64, at time.Time) (*Imagery, error) {
	end := at.UTC()
	start := end.AddDate(0, 0, -c.lookbackDays)

	body, err := json.Marshal(imageryRequest{
		Latitude:  lat,
		Longitude: lon,
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal imagery request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build imagery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.SARRequestErrors.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("fetch sar imagery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// The service reports "no scene" as 404.
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		metrics.SARRequestErrors.WithLabelValues("status").Inc()
		return nil, fmt.Errorf("sar imagery: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		metrics.SARRequestErrors.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("read imagery response: %w", err)
	}

	var imagery Imagery
	if err := json.Unmarshal(data, &imagery); err != nil {
		metrics.SARRequestErrors.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("decode imagery response: %w", err)
	}
	if imagery.SARImage == "" {
		return nil, nil
	}
	return &imagery, nil
}
