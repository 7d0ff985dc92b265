// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package api provides the HTTP surface: health probes, the spill report
// API, Prometheus metrics, and the websocket subscription endpoint.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gorilla "github.com/gorilla/websocket"

	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/models"
	"github.com/spill-sentinel/sentinel/internal/websocket"
)

const defaultReportLimit = 100

// ReportStore is the read side of the spill report store.
type ReportStore interface {
	ListReports(ctx context.Context, limit int) ([]*models.SpillReport, error)
	ListByMMSI(ctx context.Context, mmsi int64, limit int) ([]*models.SpillReport, error)
	ListEvents(ctx context.Context, limit int) ([]*models.StreamEvent, error)
	ListEventsByMMSI(ctx context.Context, mmsi int64, limit int) ([]*models.StreamEvent, error)
}

// Handler serves the HTTP endpoints.
type Handler struct {
	hub       *websocket.Hub
	store     ReportStore
	startTime time.Time
}

// NewHandler creates a Handler. The hub and store may be nil in degraded
// configurations; affected endpoints answer 503.
func NewHandler(hub *websocket.Hub, store ReportStore) *Handler {
	return &Handler{
		hub:       hub,
		store:     store,
		startTime: time.Now(),
	}
}

// healthStatus is the payload for the health endpoints.
type healthStatus struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Subscribers   int     `json:"subscribers"`
}

// Health reports liveness. The process answering at all is the check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	subscribers := 0
	if h.hub != nil {
		subscribers = h.hub.GetClientCount()
	}
	respondJSON(w, http.StatusOK, healthStatus{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Subscribers:   subscribers,
	})
}

// Ready reports readiness: the store and hub must both be wired.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	respondJSON(w, http.StatusOK, healthStatus{
		Status:        "ready",
		UptimeSeconds: time.Since(h.startTime).Seconds(),
		Subscribers:   h.hub.GetClientCount(),
	})
}

// listParams holds the shared query parameters of the listing endpoints.
type listParams struct {
	mmsi    int64
	hasMMSI bool
	limit   int
}

func parseListParams(r *http.Request) (listParams, error) {
	params := listParams{limit: defaultReportLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return params, fmt.Errorf("invalid limit")
		}
		params.limit = n
	}
	if raw := r.URL.Query().Get("mmsi"); raw != "" {
		mmsi, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || mmsi < 0 {
			return params, fmt.Errorf("invalid mmsi")
		}
		params.mmsi = mmsi
		params.hasMMSI = true
	}
	return params, nil
}

// Reports lists persisted spill reports. An mmsi query parameter restricts
// the listing to one vessel.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	params, err := parseListParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var reports []*models.SpillReport
	if params.hasMMSI {
		reports, err = h.store.ListByMMSI(r.Context(), params.mmsi, params.limit)
	} else {
		reports, err = h.store.ListReports(r.Context(), params.limit)
	}
	if err != nil {
		logging.Error().Err(err).Msg("report listing failed")
		respondError(w, http.StatusInternalServerError, "report listing failed")
		return
	}

	if reports == nil {
		reports = []*models.SpillReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

// Anomalies lists archived anomalous stream events, the scoring history
// behind the spill reports.
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "report store unavailable")
		return
	}
	params, err := parseListParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var events []*models.StreamEvent
	if params.hasMMSI {
		events, err = h.store.ListEventsByMMSI(r.Context(), params.mmsi, params.limit)
	} else {
		events, err = h.store.ListEvents(r.Context(), params.limit)
	}
	if err != nil {
		logging.Error().Err(err).Msg("anomaly listing failed")
		respondError(w, http.StatusInternalServerError, "anomaly listing failed")
		return
	}

	if events == nil {
		events = []*models.StreamEvent{}
	}
	respondJSON(w, http.StatusOK, events)
}

// WebSocket upgrades the connection and registers it with the hub. The
// subscription is fire-and-forget; clients only receive.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket service unavailable")
		return
	}

	upgrader := gorilla.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		// Subscribers are read-only and carry no credentials, so any
		// origin may connect.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()

	logging.Debug().
		Uint64("client_id", client.ID()).
		Str("remote", r.RemoteAddr).
		Msg("websocket subscriber connected")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
