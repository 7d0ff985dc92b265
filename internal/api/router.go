// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spill-sentinel/sentinel/internal/config"
	"github.com/spill-sentinel/sentinel/internal/middleware"
)

// NewRouter builds the HTTP routing tree.
//
// Health probes and /metrics stay outside the rate limiter so monitoring
// keeps working while the API is saturated. The websocket endpoint is also
// exempt: a subscription is one long-lived request, not request traffic.
func NewRouter(cfg config.ServerConfig, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Get("/healthz", handler.Health)
	r.Get("/readyz", handler.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/ws", handler.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		reqs, window := cfg.RateLimitReqs, cfg.RateLimitWindow
		if reqs <= 0 {
			reqs = 100
		}
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.LimitByIP(reqs, window))

		r.Get("/reports", handler.Reports)
		r.Get("/anomalies", handler.Anomalies)
	})

	return r
}
