// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"

	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/models"
	"github.com/spill-sentinel/sentinel/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// memoryStore serves canned reports and events.
type memoryStore struct {
	reports []*models.SpillReport
	events  []*models.StreamEvent
	err     error
}

func (m *memoryStore) ListReports(_ context.Context, limit int) ([]*models.SpillReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.reports) > limit {
		return m.reports[:limit], nil
	}
	return m.reports, nil
}

func (m *memoryStore) ListByMMSI(_ context.Context, mmsi int64, limit int) ([]*models.SpillReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.SpillReport
	for _, r := range m.reports {
		if r.MMSI == mmsi && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) ListEvents(_ context.Context, limit int) ([]*models.StreamEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.events) > limit {
		return m.events[:limit], nil
	}
	return m.events, nil
}

func (m *memoryStore) ListEventsByMMSI(_ context.Context, mmsi int64, limit int) ([]*models.StreamEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.StreamEvent
	for _, e := range m.events {
		if e.AISData.MMSI == mmsi && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	}
}

func spill(id string, mmsi int64) *models.SpillReport {
	return &models.SpillReport{
		ID:   id,
		MMSI: mmsi,
		SARPrediction: models.OilSpillPrediction{
			PredictedClass: 1,
			OilSpillArea:   12.5,
		},
	}
}

func TestHealthEndpoints(t *testing.T) {
	handler := NewHandler(websocket.NewHub(), &memoryStore{})
	router := NewRouter(testServerConfig(), handler)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
		var status healthStatus
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("%s body: %v", path, err)
		}
		if status.Status == "" {
			t.Errorf("%s returned empty status", path)
		}
	}
}

func TestReadyFailsWithoutStore(t *testing.T) {
	handler := NewHandler(websocket.NewHub(), nil)
	router := NewRouter(testServerConfig(), handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestReportsListing(t *testing.T) {
	store := &memoryStore{reports: []*models.SpillReport{
		spill("a", 100), spill("b", 200), spill("c", 100),
	}}
	handler := NewHandler(websocket.NewHub(), store)
	router := NewRouter(testServerConfig(), handler)

	tests := []struct {
		name      string
		target    string
		wantCode  int
		wantCount int
	}{
		{"all", "/api/v1/reports", http.StatusOK, 3},
		{"by mmsi", "/api/v1/reports?mmsi=100", http.StatusOK, 2},
		{"limited", "/api/v1/reports?limit=1", http.StatusOK, 1},
		{"unknown mmsi", "/api/v1/reports?mmsi=999", http.StatusOK, 0},
		{"bad mmsi", "/api/v1/reports?mmsi=ship", http.StatusBadRequest, 0},
		{"bad limit", "/api/v1/reports?limit=-3", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var reports []*models.SpillReport
			if err := json.Unmarshal(rec.Body.Bytes(), &reports); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(reports) != tt.wantCount {
				t.Errorf("got %d reports, want %d", len(reports), tt.wantCount)
			}
		})
	}
}

func TestAnomaliesListing(t *testing.T) {
	store := &memoryStore{events: []*models.StreamEvent{
		{AISData: models.VesselReport{MMSI: 100}, AnomalyResult: models.AnomalyVerdict{Anomaly: true, MMSI: 100}},
		{AISData: models.VesselReport{MMSI: 200}, AnomalyResult: models.AnomalyVerdict{Anomaly: true, MMSI: 200}},
	}}
	handler := NewHandler(websocket.NewHub(), store)
	router := NewRouter(testServerConfig(), handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/anomalies?mmsi=200", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var events []*models.StreamEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].AISData.MMSI != 200 {
		t.Errorf("events = %+v", events)
	}
}

func TestReportsEmptyListIsJSONArray(t *testing.T) {
	handler := NewHandler(websocket.NewHub(), &memoryStore{})
	router := NewRouter(testServerConfig(), handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestWebSocketSubscription(t *testing.T) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = hub.RunWithContext(ctx)
	}()

	handler := NewHandler(hub, &memoryStore{})
	server := httptest.NewServer(NewRouter(testServerConfig(), handler))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("handshake status = %d", resp.StatusCode)
	}

	deadline := time.After(2 * time.Second)
	for hub.GetClientCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	frame := []byte(`{"ais_data":{"MMSI":1},"anomaly_result":{"anomaly":true,"anomaly_probability":0.9,"oilspill":false,"oilspill_probability":0.2,"mmsi":1,"timestamp":"0"}}`)
	hub.BroadcastRaw(frame)

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, got, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(frame) {
		t.Errorf("frame = %s", got)
	}

	cancel()
	select {
	case <-hubDone:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
}
