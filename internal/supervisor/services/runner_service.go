// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

// Package services wraps pipeline components as suture services.
package services

import (
	"context"
)

// ContextRunner matches the RunWithContext method shared by the websocket
// hub, scoring engine, escalation pool, forwarder, and feed fetchers. The
// interface keeps this package free of imports from the components it
// supervises.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service.
//
// RunWithContext already implements the suture.Service pattern, so the
// wrapper simply delegates and provides a name for logging. A non-context
// error return, a dropped upstream websocket for example, makes suture
// restart the runner with backoff.
//
// Example usage:
//
//	hub := websocket.NewHub()
//	svc := services.NewRunnerService("websocket-hub", hub)
//	tree.AddPipelineService(svc)
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService creates a new runner service wrapper.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
	}
}

// Serve implements suture.Service.
func (s *RunnerService) Serve(ctx context.Context) error {
	return s.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging. Suture uses this to identify
// the service in log messages.
func (s *RunnerService) String() string {
	return s.name
}
