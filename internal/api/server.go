// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package api

import (
	"net/http"
	"time"

	"github.com/spill-sentinel/sentinel/internal/config"
)

// NewHTTPServer builds the http.Server for the API surface.
//
// WriteTimeout is deliberately zero: the websocket endpoint holds its
// connection open indefinitely and a server-level write timeout would sever
// subscribers. Per-write deadlines are enforced by the hub's write pump.
func NewHTTPServer(cfg config.ServerConfig, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
