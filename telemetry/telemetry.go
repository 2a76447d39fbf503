// Package telemetry holds the structured-event callback type and the
// per-run statistics the pipeline orchestrator aggregates as it processes
// frames. The core never logs to a singleton; everything here is either
// returned to the caller or fed through a callback the caller supplies.
package telemetry

import "time"

// EventFunc receives one structured event per notable occurrence during a
// run (frame_skipped, scene_cut, track_dropped, rally_start, rally_end).
// args follow log/slog's alternating key/value convention, so a caller can
// hand this straight to an slog.Logger's Info method.
type EventFunc func(msg string, args ...any)

// StageTimings accumulates wall-clock time spent in each pipeline stage
// across a run, so a slow max_frame_time can be attributed to a stage
// instead of just the frame as a whole.
type StageTimings struct {
	Detect   time.Duration
	Filter   time.Duration
	Track    time.Duration
	Physics  time.Duration
	Classify time.Duration
	Decide   time.Duration
	Segment  time.Duration
}

// ProcessingStats reports totals for one completed or cancelled run.
type ProcessingStats struct {
	RunID string

	FramesIn                  int
	FramesOut                 int
	FramesSkippedNonMonotonic int
	SceneCuts                 int

	DetectionsRaw  int
	DetectionsKept int

	TracksBorn      int
	TracksConfirmed int
	TracksDropped   int

	RalliesDetected int

	// Cancelled is true if the run ended because the caller's context was
	// cancelled rather than because the decoder reached end of stream.
	Cancelled bool

	ProcessingDuration time.Duration
	AvgFrameTime       time.Duration
	StageTotals        StageTimings
}
