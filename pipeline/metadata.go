package pipeline

import (
	"github.com/rallycore/rallycore/classify"
	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/geom"
	"github.com/rallycore/rallycore/physics"
	"github.com/rallycore/rallycore/rally"
	"github.com/rallycore/rallycore/segment"
	"github.com/rallycore/rallycore/telemetry"
)

// HistoryPoint is one point of a track's recent history, as exposed in a
// MetadataRecord (a narrower view than tracker.TrackPoint — no internal
// Kalman state).
type HistoryPoint struct {
	X, Y float64
	T    geom.Time
}

// TrackSummary is one track's contribution to a MetadataRecord.
type TrackSummary struct {
	ID            uint64
	RecentHistory []HistoryPoint
	Class         classify.Class
	Physics       physics.Verdict
}

// MetadataRecord is the per-frame debug/analytics contract: the single
// thing any downstream consumer (debug visualization, a JSONL writer) ever
// sees out of a run. The core never draws anything itself.
type MetadataRecord struct {
	T          geom.Time
	Detections []detectfilter.Detection
	Tracks     []TrackSummary
	RallyState rally.State
}

// RunOutput is pipeline.Run's successful result.
type RunOutput struct {
	Segments []segment.Segment
	// Metadata holds one record per frame that was not skipped for a
	// non-monotonic timestamp, in the same order frames were processed.
	Metadata []MetadataRecord
	Stats    telemetry.ProcessingStats
}
