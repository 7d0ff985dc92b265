// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/metrics"
	"github.com/spill-sentinel/sentinel/internal/models"
)

// positionReportType is the only message type we subscribe to.
const positionReportType = "PositionReport"

// subscription is the handshake sent right after connecting to the push
// feed. BoundingBoxes uses [lat, lon] corner pairs per the provider contract.
type subscription struct {
	APIKey             string        `json:"APIKEY"`
	BoundingBoxes      [][][]float64 `json:"BoundingBoxes"`
	FilterMessageTypes []string      `json:"FilterMessageTypes"`
}

// envelope is the push feed's outer message shape.
type envelope struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI     int64  `json:"MMSI"`
		ShipName string `json:"ShipName"`
	} `json:"MetaData"`
	Message struct {
		PositionReport *positionReport `json:"PositionReport"`
	} `json:"Message"`
}

// positionReport is the push feed's position payload.
type positionReport struct {
	UserID             int64   `json:"UserID"`
	Sog                float64 `json:"Sog"`
	Cog                float64 `json:"Cog"`
	Latitude           float64 `json:"Latitude"`
	Longitude          float64 `json:"Longitude"`
	TrueHeading        float64 `json:"TrueHeading"`
	NavigationalStatus float64 `json:"NavigationalStatus"`
	Timestamp          int     `json:"Timestamp"`
}

// StreamFetcher subscribes to the push WebSocket feed. A broken connection
// surfaces as an error so the supervisor reconnects with backoff.
type StreamFetcher struct {
	url    string
	apiKey string
	bbox   config.BoundingBox
	admit  *admitter
	dialer *websocket.Dialer
	now    func() time.Time
}

// NewStreamFetcher creates a push-feed fetcher feeding the sink.
func NewStreamFetcher(cfg config.FeedConfig, sink Sink) *StreamFetcher {
	return &StreamFetcher{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		bbox:   cfg.BBox,
		admit:  newAdmitter(cfg, sink, config.FeedModeStream),
		dialer: websocket.DefaultDialer,
		now:    time.Now,
	}
}

// RunWithContext connects, subscribes and pumps reports until the context
// ends or the connection drops.
func (f *StreamFetcher) RunWithContext(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		metrics.FeedErrors.WithLabelValues(config.FeedModeStream).Inc()
		return fmt.Errorf("dial push feed: %w", err)
	}
	defer conn.Close()

	if err := f.subscribe(conn); err != nil {
		metrics.FeedErrors.WithLabelValues(config.FeedModeStream).Inc()
		return err
	}

	logging.Info().
		Str("component", "feed-stream").
		Msg("subscribed to push feed")

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logging.Info().Str("component", "feed-stream").Msg("stream fetcher stopped")
				return ctx.Err()
			}
			metrics.FeedErrors.WithLabelValues(config.FeedModeStream).Inc()
			return fmt.Errorf("read push feed: %w", err)
		}

		report, ok := f.decode(data)
		if !ok {
			continue
		}
		if err := f.admit.admit(ctx, report); err != nil {
			return err
		}
	}
}

// subscribe sends the handshake.
func (f *StreamFetcher) subscribe(conn *websocket.Conn) error {
	sub := subscription{
		APIKey: f.apiKey,
		BoundingBoxes: [][][]float64{{
			{f.bbox.LatMin, f.bbox.LonMin},
			{f.bbox.LatMax, f.bbox.LonMax},
		}},
		FilterMessageTypes: []string{positionReportType},
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	return nil
}

// decode converts one push message to a vessel report. Non-position
// messages and malformed payloads are skipped.
func (f *StreamFetcher) decode(data []byte) (models.VesselReport, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logging.Debug().Err(err).Msg("skipping malformed push message")
		return models.VesselReport{}, false
	}
	if env.MessageType != positionReportType || env.Message.PositionReport == nil {
		return models.VesselReport{}, false
	}

	pr := env.Message.PositionReport
	mmsi := env.MetaData.MMSI
	if mmsi == 0 {
		mmsi = pr.UserID
	}

	report := models.VesselReport{
		MMSI:      mmsi,
		Timestamp: strconv.FormatInt(f.now().UTC().Unix(), 10),
		Latitude:  models.Float64(pr.Latitude),
		Longitude: models.Float64(pr.Longitude),
		Course:    models.Float64(pr.Cog),
		Speed:     models.Float64(pr.Sog),
		Heading:   models.Float64(pr.TrueHeading),
		NavStat:   models.Float64(pr.NavigationalStatus),
		Name:      env.MetaData.ShipName,
		Src:       "push-feed",
	}
	return report, true
}
