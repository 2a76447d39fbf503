package tracker

import (
	"context"
	"math"
	"testing"

	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/geom"
	"github.com/rallycore/rallycore/kalman"
)

func detAt(x, y float64, ts geom.Time, conf float32) detectfilter.Detection {
	rect, _ := geom.NewRect(x-0.01, y-0.01, x+0.01, y+0.01)
	return detectfilter.Detection{
		BBox:       rect,
		Confidence: conf,
		ClassID:    detectfilter.BallClassID,
		Timestamp:  ts,
	}
}

func TestStepBirthsTrackFromConfidentDetection(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	ts := geom.FromSeconds(0, 1000)
	res, err := tr.Step(context.Background(), []detectfilter.Detection{detAt(0.5, 0.5, ts, 0.9)}, ts)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(res.Tracks) != 1 {
		t.Fatalf("expected 1 track born, got %d", len(res.Tracks))
	}
	if res.Stats.Born != 1 {
		t.Errorf("Stats.Born = %d, want 1", res.Stats.Born)
	}
}

func TestStepDoesNotBirthBelowBirthConfidence(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	ts := geom.FromSeconds(0, 1000)
	res, err := tr.Step(context.Background(), []detectfilter.Detection{detAt(0.5, 0.5, ts, 0.1)}, ts)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(res.Tracks) != 0 {
		t.Errorf("expected no track born below birth confidence, got %d", len(res.Tracks))
	}
}

func TestStepTracksMovingDetectionAcrossFrames(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	cfg := DefaultConfig()

	x := 0.1
	var id uint64
	for i := 0; i < 10; i++ {
		ts := geom.FromSeconds(float64(i)*0.033, 1_000_000)
		res, err := tr.Step(context.Background(), []detectfilter.Detection{detAt(x, 0.5, ts, 0.9)}, ts)
		if err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if len(res.Tracks) != 1 {
			t.Fatalf("Step %d: expected exactly 1 track, got %d", i, len(res.Tracks))
		}
		if i == 0 {
			id = res.Tracks[0].ID
		} else if res.Tracks[0].ID != id {
			t.Errorf("Step %d: track id changed from %d to %d, expected continuity", i, id, res.Tracks[0].ID)
		}
		x += 0.02
	}

	final := tr.tracks[id]
	if final.Misses != 0 {
		t.Errorf("expected Misses=0 after continuous association, got %d", final.Misses)
	}
	if len(final.History()) == 0 {
		t.Error("expected non-empty history after several updates")
	}
	if len(final.History()) > cfg.HistoryCap {
		t.Errorf("history length %d exceeds HistoryCap %d", len(final.History()), cfg.HistoryCap)
	}
}

func TestStepDropsTrackAfterMaxMisses(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMisses = 3
	tr := NewTracker(cfg)

	ts := geom.FromSeconds(0, 1000)
	res, _ := tr.Step(context.Background(), []detectfilter.Detection{detAt(0.5, 0.5, ts, 0.9)}, ts)
	if len(res.Tracks) != 1 {
		t.Fatalf("expected 1 track born, got %d", len(res.Tracks))
	}

	for i := 1; i <= 3; i++ {
		ts = geom.FromSeconds(float64(i)*0.033, 1000)
		res, err := tr.Step(context.Background(), nil, ts)
		if err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if i < 3 {
			if len(res.Tracks) != 1 {
				t.Errorf("Step %d: expected track still coasting, got %d tracks", i, len(res.Tracks))
			}
		} else {
			if len(res.Tracks) != 0 {
				t.Errorf("Step %d: expected track dropped after MaxMisses, got %d tracks", i, len(res.Tracks))
			}
			if res.Stats.Dropped != 1 {
				t.Errorf("Stats.Dropped = %d, want 1", res.Stats.Dropped)
			}
		}
	}
}

func TestStepRejectsNonMonotonicTime(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	t0 := geom.FromSeconds(1.0, 1000)
	if _, err := tr.Step(context.Background(), nil, t0); err != nil {
		t.Fatalf("first Step: %v", err)
	}
	_, err := tr.Step(context.Background(), nil, geom.FromSeconds(0.5, 1000))
	if err != ErrNonMonotonicTime {
		t.Errorf("expected ErrNonMonotonicTime, got %v", err)
	}
}

func TestStepSceneCutDropsAllTracks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDt = 1.0
	tr := NewTracker(cfg)

	ts := geom.FromSeconds(0, 1000)
	res, _ := tr.Step(context.Background(), []detectfilter.Detection{detAt(0.5, 0.5, ts, 0.9)}, ts)
	if len(res.Tracks) != 1 {
		t.Fatalf("expected 1 track born, got %d", len(res.Tracks))
	}

	ts2 := geom.FromSeconds(10, 1000) // far beyond MaxDt
	res2, err := tr.Step(context.Background(), nil, ts2)
	if err != nil {
		t.Fatalf("Step after scene cut: %v", err)
	}
	if !res2.Stats.SceneCut {
		t.Error("expected SceneCut=true for a large dt jump")
	}
	if len(res2.Tracks) != 0 {
		t.Errorf("expected all tracks dropped on scene cut, got %d", len(res2.Tracks))
	}
}

func TestStepAssociatesTwoTracksToNearestDetections(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	ts0 := geom.FromSeconds(0, 1000)
	_, err := tr.Step(context.Background(), []detectfilter.Detection{
		detAt(0.1, 0.1, ts0, 0.9),
		detAt(0.9, 0.9, ts0, 0.9),
	}, ts0)
	if err != nil {
		t.Fatalf("birth step: %v", err)
	}

	ts1 := geom.FromSeconds(0.033, 1000)
	res, err := tr.Step(context.Background(), []detectfilter.Detection{
		detAt(0.11, 0.11, ts1, 0.9),
		detAt(0.91, 0.91, ts1, 0.9),
	}, ts1)
	if err != nil {
		t.Fatalf("associate step: %v", err)
	}
	if len(res.Tracks) != 2 {
		t.Fatalf("expected 2 live tracks, got %d", len(res.Tracks))
	}
	if res.Stats.Matched != 2 {
		t.Errorf("Stats.Matched = %d, want 2", res.Stats.Matched)
	}
}

func TestCostMatrixRejectsExactGateBoundary(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewTracker(cfg)

	px, py := 0.1, 0.5
	track := &Track{ID: 1, State: kalman.NewState(px, py, cfg.InitialUncertainty)}

	// With a diagonal P and diagonal R, the innovation covariance S is
	// diagonal too: Sxx = InitialUncertainty + RMeas. Placing the
	// detection delta away on the x axis alone makes its squared
	// Mahalanobis distance exactly GateThreshold.
	sxx := cfg.InitialUncertainty + cfg.Noise.RMeas
	delta := math.Sqrt(cfg.GateThreshold * sxx)

	ts := geom.FromSeconds(0, 1000)
	atBoundary := []detectfilter.Detection{detAt(px+delta, py, ts, 0.9)}
	entries := tr.costMatrix(context.Background(), []*Track{track}, atBoundary)
	if len(entries) != 1 {
		t.Fatalf("expected 1 cost entry, got %d", len(entries))
	}
	if !math.IsInf(entries[0].cost, 1) {
		t.Errorf("detection exactly at GateThreshold should be rejected (cost=+Inf), got %v", entries[0].cost)
	}

	justInside := []detectfilter.Detection{detAt(px+delta*0.999, py, ts, 0.9)}
	entries2 := tr.costMatrix(context.Background(), []*Track{track}, justInside)
	if math.IsInf(entries2[0].cost, 1) {
		t.Error("detection just inside GateThreshold should be accepted, got +Inf")
	}
}
