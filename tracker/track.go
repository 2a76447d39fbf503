package tracker

import (
	"github.com/rallycore/rallycore/geom"
	"github.com/rallycore/rallycore/kalman"
)

// TrackPoint is one observed or coasted position in a track's history.
type TrackPoint struct {
	Center    geom.Vec2
	Timestamp geom.Time
}

// Track is one ball candidate the tracker is following across frames. A
// *Track is only ever mutated by the owning Tracker; callers that receive
// one from Step should treat it as a read-only snapshot.
type Track struct {
	ID    uint64
	State *kalman.State

	history []TrackPoint

	Age        uint32
	Misses     uint32
	LastUpdate geom.Time

	Confirmed      bool
	everProjectile bool
}

// History returns the track's bounded point history, oldest first. The
// returned slice must not be retained past the current frame; Tracker may
// reuse or mutate its backing array on the next Step.
func (t *Track) History() []TrackPoint {
	return t.history
}

// Alive reports whether the track has not yet exceeded the tracker's miss
// budget. Dropped tracks are removed from the tracker entirely, so this is
// mostly useful for tests inspecting a Track in isolation.
func (t *Track) Alive(maxMisses uint32) bool {
	return t.Misses < maxMisses
}

func (t *Track) appendHistory(p TrackPoint, cap int) {
	t.history = append(t.history, p)
	if len(t.history) > cap {
		t.history = t.history[len(t.history)-cap:]
	}
}

// ObserveVerdict records whether a physics evaluation of this track's
// current window found projectile motion, then re-checks confirmation.
// Confirmation is one-way: once Confirmed is true it never reverts, even if
// a later window fails the physics check.
func (t *Track) ObserveVerdict(isProjectile bool, minConfirm int) {
	if isProjectile {
		t.everProjectile = true
	}
	if !t.Confirmed && len(t.history) >= minConfirm && t.everProjectile {
		t.Confirmed = true
	}
}
