// Package tracker maintains a set of ball candidate tracks across frames,
// using a constant-velocity Kalman filter per track and gated nearest-
// neighbor data association between predicted track positions and the
// current frame's detections.
package tracker

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/geom"
	"github.com/rallycore/rallycore/kalman"
)

// StepStats reports what happened to the track population during one Step.
type StepStats struct {
	Matched  int
	Coasted  int
	Born     int
	Dropped  int
	SceneCut bool
}

// StepResult is Tracker.Step's return value.
type StepResult struct {
	// Tracks holds every track alive after this step, in ascending ID
	// order. Entries are owned by Tracker; treat them as read-only.
	Tracks []*Track
	Stats  StepStats
}

// Tracker owns the live track population and advances it one frame at a
// time. A Tracker is not safe for concurrent use by multiple goroutines;
// Step itself parallelizes its internal per-track work.
type Tracker struct {
	cfg Config

	mu      sync.Mutex
	tracks  map[uint64]*Track
	nextID  uint64
	started bool
	lastT   geom.Time
}

// NewTracker creates a Tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		tracks: make(map[uint64]*Track),
	}
}

// Step advances every alive track by dt (computed from the previous call's
// timestamp) and associates them with this frame's detections.
//
// ts must strictly increase between calls; otherwise Step returns
// ErrNonMonotonicTime and leaves the tracker's state untouched. A dt larger
// than the configured MaxDt (a scene cut) drops every existing track before
// processing detections as births.
func (tr *Tracker) Step(ctx context.Context, detections []detectfilter.Detection, ts geom.Time) (StepResult, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	var stats StepStats

	if tr.started {
		dt := ts.Sub(tr.lastT)
		if dt <= 0 {
			return StepResult{}, ErrNonMonotonicTime
		}
		if dt > tr.cfg.MaxDt {
			tr.tracks = make(map[uint64]*Track)
			stats.SceneCut = true
		} else {
			tr.predictAll(ctx, dt)
		}
	}
	tr.started = true
	tr.lastT = ts

	alive := tr.aliveSorted()
	assignments, unmatchedTracks, unmatchedDets := tr.associate(ctx, alive, detections)

	for trackID, detIdx := range assignments {
		t := tr.tracks[trackID]
		tr.update(t, detections[detIdx])
		stats.Matched++
		if !t.Confirmed && t.Age > tr.cfg.MaxAgeWithoutProjectile {
			delete(tr.tracks, trackID)
			stats.Dropped++
		}
	}
	for _, trackID := range unmatchedTracks {
		dropped := tr.coast(tr.tracks[trackID])
		stats.Coasted++
		if dropped {
			stats.Dropped++
		}
	}
	for _, detIdx := range unmatchedDets {
		d := detections[detIdx]
		if d.Confidence >= tr.cfg.BirthConf {
			tr.birth(d)
			stats.Born++
		}
	}

	return StepResult{Tracks: tr.aliveSorted(), Stats: stats}, nil
}

func (tr *Tracker) aliveSorted() []*Track {
	out := make([]*Track, 0, len(tr.tracks))
	for _, t := range tr.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// predictAll advances every track's Kalman state by dt. Tracks are
// independent of each other, so the fan-out runs across a bounded worker
// pool rather than one goroutine per track.
func (tr *Tracker) predictAll(ctx context.Context, dt float64) {
	tracks := tr.aliveSorted()
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)))
	for _, t := range tracks {
		t := t
		g.Go(func() error {
			t.State.Predict(dt, tr.cfg.Noise)
			t.Age++
			return nil
		})
	}
	_ = g.Wait() // predict never errors; Wait only serializes completion
}

// costEntry is one finite candidate pairing in the gated cost matrix.
type costEntry struct {
	trackID    uint64
	detIdx     int
	cost       float64
	confidence float32
}

// associate builds the gated cost matrix and runs greedy minimum-cost
// assignment: repeatedly take the lowest-cost remaining pairing, commit it,
// and remove its row and column, until no finite-cost pairing remains.
func (tr *Tracker) associate(ctx context.Context, tracks []*Track, detections []detectfilter.Detection) (assignments map[uint64]int, unmatchedTracks []uint64, unmatchedDets []int) {
	assignments = make(map[uint64]int)

	if len(tracks) == 0 || len(detections) == 0 {
		for _, t := range tracks {
			unmatchedTracks = append(unmatchedTracks, t.ID)
		}
		for i := range detections {
			unmatchedDets = append(unmatchedDets, i)
		}
		return assignments, unmatchedTracks, unmatchedDets
	}

	entries := tr.costMatrix(ctx, tracks, detections)

	rowTaken := make(map[uint64]bool, len(tracks))
	colTaken := make(map[int]bool, len(detections))

	for {
		bestIdx := -1
		for i, e := range entries {
			if rowTaken[e.trackID] || colTaken[e.detIdx] {
				continue
			}
			if math.IsInf(e.cost, 1) {
				continue
			}
			if bestIdx == -1 || better(e, entries[bestIdx]) {
				bestIdx = i
			}
		}
		if bestIdx == -1 {
			break
		}
		best := entries[bestIdx]
		assignments[best.trackID] = best.detIdx
		rowTaken[best.trackID] = true
		colTaken[best.detIdx] = true
	}

	for _, t := range tracks {
		if !rowTaken[t.ID] {
			unmatchedTracks = append(unmatchedTracks, t.ID)
		}
	}
	for i := range detections {
		if !colTaken[i] {
			unmatchedDets = append(unmatchedDets, i)
		}
	}
	return assignments, unmatchedTracks, unmatchedDets
}

// better reports whether a should be preferred over b when both are tied
// for lowest remaining cost: higher detection confidence wins, then lower
// track id.
func better(a, b costEntry) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.confidence != b.confidence {
		return a.confidence > b.confidence
	}
	return a.trackID < b.trackID
}

// costMatrix fills one costEntry per (track, detection) pair; a pair whose
// Mahalanobis distance is at or beyond the gate gets cost +Inf. Each
// track's row is independent of the others, so rows fill concurrently.
func (tr *Tracker) costMatrix(ctx context.Context, tracks []*Track, detections []detectfilter.Detection) []costEntry {
	rows := make([][]costEntry, len(tracks))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.GOMAXPROCS(0)))
	for ri, t := range tracks {
		ri, t := ri, t
		g.Go(func() error {
			innovation := t.State.Innovation(tr.cfg.Noise)
			row := make([]costEntry, 0, len(detections))
			for di, d := range detections {
				center := d.Center()
				dist := t.State.MahalanobisDistance(center.X, center.Y, innovation)
				cost := dist
				if dist >= tr.cfg.GateThreshold {
					cost = math.Inf(1)
				}
				row = append(row, costEntry{trackID: t.ID, detIdx: di, cost: cost, confidence: d.Confidence})
			}
			rows[ri] = row
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, r := range rows {
		total += len(r)
	}
	out := make([]costEntry, 0, total)
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func (tr *Tracker) update(t *Track, d detectfilter.Detection) {
	center := d.Center()
	t.State.Update(center.X, center.Y, tr.cfg.Noise)
	t.appendHistory(TrackPoint{Center: center, Timestamp: d.Timestamp}, tr.cfg.HistoryCap)
	t.Misses = 0
	t.LastUpdate = d.Timestamp
}

// coast advances an unmatched track's miss counter and drops it if it has
// exceeded its miss or unconfirmed-age budget. Returns true if dropped.
func (tr *Tracker) coast(t *Track) bool {
	t.Misses++
	if t.Misses >= tr.cfg.MaxMisses {
		delete(tr.tracks, t.ID)
		return true
	}
	if !t.Confirmed && t.Age > tr.cfg.MaxAgeWithoutProjectile {
		delete(tr.tracks, t.ID)
		return true
	}
	return false
}

func (tr *Tracker) birth(d detectfilter.Detection) {
	tr.nextID++
	center := d.Center()
	state := kalman.NewState(center.X, center.Y, tr.cfg.InitialUncertainty)
	t := &Track{
		ID:         tr.nextID,
		State:      state,
		Age:        1,
		LastUpdate: d.Timestamp,
	}
	t.appendHistory(TrackPoint{Center: center, Timestamp: d.Timestamp}, tr.cfg.HistoryCap)
	tr.tracks[t.ID] = t
}
