// Spill Sentinel - AIS Anomaly Detection and Oil Spill Escalation
// Copyright 2026 Spill Sentinel Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/spill-sentinel/sentinel

package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/spill-sentinel/sentinel/internal/features"
	"github.com/spill-sentinel/sentinel/internal/logging"
	"github.com/spill-sentinel/sentinel/internal/models"
	"github.com/spill-sentinel/sentinel/internal/queue"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// fixedScorer maps MMSI-independent vectors to canned probabilities per
// speed value, making scenarios easy to stage. It serves as both models.
type fixedScorer struct {
	bySpeed      map[float32]float64
	spillBySpeed map[float32]float64
}

func (f *fixedScorer) Score(_ context.Context, vec features.Vector) (float64, error) {
	if p, ok := f.bySpeed[vec[0]]; ok {
		return p, nil
	}
	return 0.0, nil
}

func (f *fixedScorer) SpillProbability(_ context.Context, vec features.Vector) (float64, error) {
	if p, ok := f.spillBySpeed[vec[0]]; ok {
		return p, nil
	}
	return 0.0, nil
}

// failingSpill stages a companion model outage.
type failingSpill struct{}

func (failingSpill) SpillProbability(context.Context, features.Vector) (float64, error) {
	return 0, errors.New("session gone")
}

// capturePublisher records published events.
type capturePublisher struct {
	mu     sync.Mutex
	events []*models.StreamEvent
}

func (c *capturePublisher) PublishStreamEvent(e *models.StreamEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) snapshot() []*models.StreamEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.StreamEvent, len(c.events))
	copy(out, c.events)
	return out
}

func testBuilder(t *testing.T) *features.Builder {
	t.Helper()
	scaler := &features.RobustScaler{
		Medians: []float64{0, 0, 0, 0, 0, 0, 0},
		IQRs:    []float64{1, 1, 1, 1, 1, 1, 1},
	}
	status, err := features.NewLabelEncoder("Status_mode", []string{"0", "5", "Unknown"})
	if err != nil {
		t.Fatal(err)
	}
	tod, err := features.NewLabelEncoder("TimeOfDay_mode",
		[]string{"Afternoon", "Evening", "Morning", "Night", "Unknown"})
	if err != nil {
		t.Fatal(err)
	}
	return features.NewBuilder(scaler, &features.Encoders{Status: status, TimeOfDay: tod})
}

func report(mmsi int64, speed float64) models.VesselReport {
	return models.VesselReport{
		MMSI:      mmsi,
		Timestamp: "2025-03-14 09:30:00 UTC",
		Latitude:  models.Float64(21.5),
		Longitude: models.Float64(-91.25),
		Course:    models.Float64(180),
		Speed:     models.Float64(speed),
		Heading:   models.Float64(181),
		NavStat:   models.Float64(0),
	}
}

func newTestEngine(t *testing.T, sc *fixedScorer, escCap int) (*Engine, *queue.Queue[models.VesselReport], *queue.Queue[models.EscalationTask], *capturePublisher) {
	t.Helper()
	reports := queue.New[models.VesselReport]("test-reports", 16)
	escalations := queue.New[models.EscalationTask]("test-escalations", escCap)
	pub := &capturePublisher{}
	engine := NewEngine(Config{
		Reports:     reports,
		Escalations: escalations,
		Builder:     testBuilder(t),
		Scorer:      sc,
		Spill:       sc,
		Publisher:   pub,
		GetTimeout:  20 * time.Millisecond,
	})
	return engine, reports, escalations, pub
}

func TestAnomalyIsPublishedAndEscalated(t *testing.T) {
	sc := &fixedScorer{
		bySpeed:      map[float32]float64{42: 0.9},
		spillBySpeed: map[float32]float64{42: 0.8},
	}
	engine, _, escalations, pub := newTestEngine(t, sc, 4)

	engine.process(context.Background(), report(367001234, 42))

	events := pub.snapshot()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	verdict := events[0].AnomalyResult
	if !verdict.Anomaly || verdict.Probability != 0.9 {
		t.Errorf("verdict = %+v", verdict)
	}
	if !verdict.OilSpill || verdict.OilSpillProbability != 0.8 {
		t.Errorf("spill half = %+v", verdict)
	}
	if events[0].AISData.MMSI != 367001234 {
		t.Errorf("event MMSI = %d", events[0].AISData.MMSI)
	}

	task, ok, err := escalations.Get(context.Background(), time.Second)
	if err != nil || !ok {
		t.Fatalf("no escalation task: ok=%v err=%v", ok, err)
	}
	if task.Report.MMSI != 367001234 || !task.Verdict.Anomaly {
		t.Errorf("task = %+v", task)
	}
	// The identity scaler passes the raw speed through as the first feature.
	if task.Features[0] != 42 {
		t.Errorf("task features = %v, want the scored vector", task.Features)
	}
}

func TestStreamEventCarriesSpillResult(t *testing.T) {
	sc := &fixedScorer{
		bySpeed:      map[float32]float64{42: 0.9},
		spillBySpeed: map[float32]float64{42: 0.75},
	}
	engine, _, _, pub := newTestEngine(t, sc, 4)

	engine.process(context.Background(), report(1, 42))

	events := pub.snapshot()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	data, err := json.Marshal(events[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, key := range []string{`"anomaly":true`, `"anomaly_probability":0.9`, `"oilspill":true`, `"oilspill_probability":0.75`} {
		if !strings.Contains(out, key) {
			t.Errorf("broadcast shape missing %s in %s", key, out)
		}
	}
}

func TestSpillInferenceFailureSkipsReport(t *testing.T) {
	sc := &fixedScorer{bySpeed: map[float32]float64{42: 0.9}}
	engine, _, escalations, pub := newTestEngine(t, sc, 4)
	engine.spill = failingSpill{}

	engine.process(context.Background(), report(1, 42))

	if len(pub.snapshot()) != 0 {
		t.Error("half-scored report must not be published")
	}
	if escalations.Len() != 0 {
		t.Error("half-scored report must not be escalated")
	}
}

func TestNormalReportIsPublishedNotEscalated(t *testing.T) {
	sc := &fixedScorer{bySpeed: map[float32]float64{10: 0.1}}
	engine, _, escalations, pub := newTestEngine(t, sc, 4)

	engine.process(context.Background(), report(100, 10))

	if len(pub.snapshot()) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.snapshot()))
	}
	if pub.snapshot()[0].AnomalyResult.Anomaly {
		t.Error("0.1 should not be anomalous")
	}
	if escalations.Len() != 0 {
		t.Errorf("escalations queued = %d, want 0", escalations.Len())
	}
}

func TestThresholdBoundary(t *testing.T) {
	sc := &fixedScorer{bySpeed: map[float32]float64{1: 0.32, 2: 0.3201}}
	engine, _, escalations, pub := newTestEngine(t, sc, 4)

	engine.process(context.Background(), report(1, 1)) // exactly threshold
	engine.process(context.Background(), report(2, 2)) // just above

	events := pub.snapshot()
	if len(events) != 2 {
		t.Fatalf("published %d events", len(events))
	}
	if events[0].AnomalyResult.Anomaly {
		t.Error("p == 0.32 must not be anomalous")
	}
	if !events[1].AnomalyResult.Anomaly {
		t.Error("p > 0.32 must be anomalous")
	}
	if escalations.Len() != 1 {
		t.Errorf("escalations = %d, want 1", escalations.Len())
	}
}

func TestUnscorableReportIsSkipped(t *testing.T) {
	sc := &fixedScorer{bySpeed: map[float32]float64{}}
	engine, _, escalations, pub := newTestEngine(t, sc, 4)

	broken := report(1, 1)
	broken.Speed = nil
	engine.process(context.Background(), broken)

	if len(pub.snapshot()) != 0 {
		t.Error("skipped report must not be published")
	}
	if escalations.Len() != 0 {
		t.Error("skipped report must not be escalated")
	}
}

func TestEscalationQueueFullDropsNewest(t *testing.T) {
	sc := &fixedScorer{bySpeed: map[float32]float64{42: 0.9}}
	engine, _, escalations, pub := newTestEngine(t, sc, 1)

	engine.process(context.Background(), report(1, 42))
	engine.process(context.Background(), report(2, 42)) // queue full, dropped

	if len(pub.snapshot()) != 2 {
		t.Fatalf("published %d events, want 2 (drop only affects escalation)", len(pub.snapshot()))
	}
	if escalations.Len() != 1 {
		t.Fatalf("escalations = %d, want 1", escalations.Len())
	}
	task, _, _ := escalations.Get(context.Background(), time.Second)
	if task.Report.MMSI != 1 {
		t.Errorf("surviving escalation MMSI = %d, want the first anomaly", task.Report.MMSI)
	}
}

func TestRunWithContextDrainsAndStops(t *testing.T) {
	sc := &fixedScorer{bySpeed: map[float32]float64{42: 0.9, 10: 0.1}}
	engine, reports, _, pub := newTestEngine(t, sc, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- engine.RunWithContext(ctx) }()

	for _, r := range []models.VesselReport{report(1, 42), report(2, 10)} {
		if err := reports.Put(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(2 * time.Second)
	for len(pub.snapshot()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("engine processed %d reports", len(pub.snapshot()))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}
