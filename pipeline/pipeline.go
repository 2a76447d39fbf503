package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rallycore/rallycore/classify"
	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/geom"
	"github.com/rallycore/rallycore/physics"
	"github.com/rallycore/rallycore/rally"
	"github.com/rallycore/rallycore/rallyconfig"
	"github.com/rallycore/rallycore/segment"
	"github.com/rallycore/rallycore/telemetry"
	"github.com/rallycore/rallycore/tracker"
)

// eventTimeDenom is the rational denominator used to turn a rally event's
// float64-seconds timestamp (rally.Event.Time) back into a geom.Time for
// the segment builder. Microsecond precision is ample for hysteresis
// windows measured in fractions of a second.
const eventTimeDenom int64 = 1_000_000

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithEventFunc attaches a structured-event callback, invoked for every
// notable occurrence during a run (frame_skipped, scene_cut,
// track_dropped, rally_start, rally_end).
func WithEventFunc(fn telemetry.EventFunc) Option {
	return func(o *Orchestrator) { o.eventFunc = fn }
}

// WithMetrics attaches a Prometheus exporter: Run reports one
// Observe(frameDuration, sceneCut) per processed frame and one
// ObserveRally() per rally ended.
func WithMetrics(exp *telemetry.PrometheusExporter) Option {
	return func(o *Orchestrator) { o.metrics = exp }
}

// Orchestrator drives DetectionFilter, Tracker, PhysicsGate, Classifier,
// RallyDecider, and SegmentBuilder across a Decoder's frame stream. Frames
// are pulled on demand rather than paced by a ticker; the tracker's state
// still carries serially from one frame to the next.
//
// Run is not safe to call twice concurrently on the same Orchestrator;
// Subscribe is safe to call before Run starts.
type Orchestrator struct {
	cfg       *rallyconfig.Config
	eventFunc telemetry.EventFunc
	metrics   *telemetry.PrometheusExporter

	mu          sync.RWMutex
	subscribers []chan MetadataRecord
}

// NewOrchestrator creates an Orchestrator for one run. cfg must not be nil;
// use rallyconfig.Default() for tuned defaults.
func NewOrchestrator(cfg *rallyconfig.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{cfg: cfg}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe returns a channel receiving every MetadataRecord Run produces,
// for a live debug consumer. The channel is closed when Run returns. A slow
// subscriber drops frames rather than blocking the run: a best-effort
// broadcast, not a guaranteed delivery.
func (o *Orchestrator) Subscribe() <-chan MetadataRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan MetadataRecord, 16)
	o.subscribers = append(o.subscribers, ch)
	return ch
}

func (o *Orchestrator) publish(rec MetadataRecord) {
	o.mu.RLock()
	subs := o.subscribers
	o.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- rec:
		default:
		}
	}
}

func (o *Orchestrator) closeSubscribers() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, ch := range o.subscribers {
		close(ch)
	}
	o.subscribers = nil
}

func (o *Orchestrator) emit(msg string, args ...any) {
	if o.eventFunc != nil {
		o.eventFunc(msg, args...)
	}
}

func (o *Orchestrator) observeFrame(d time.Duration, sceneCut bool) {
	if o.metrics != nil {
		o.metrics.Observe(d, sceneCut)
	}
}

func (o *Orchestrator) observeRally() {
	if o.metrics != nil {
		o.metrics.ObserveRally()
	}
}

// Run consumes decoder's frames in presentation order, driving them
// through detector and every pipeline stage, until the decoder reaches end
// of stream or ctx is cancelled.
//
// Cancellation is not reported as an error: on cancel the orchestrator
// emits a synthetic rally end at the last processed timestamp if a rally
// was in progress, flushes the segment builder, and returns the partial
// result with Stats.Cancelled set — the same "no in-flight frame left
// half-processed" contract whether the run ends by exhaustion or by
// cancellation. A decoder or detector error is the only case Run reports
// as a non-nil error; it aborts the run immediately.
func (o *Orchestrator) Run(ctx context.Context, decoder Decoder, detector Detector) (RunOutput, error) {
	defer o.closeSubscribers()

	runStart := time.Now()

	trackerCfg := o.cfg.TrackerConfig()
	tr := tracker.NewTracker(trackerCfg)
	physicsCfg := o.cfg.PhysicsConfig()
	classifierCfg := o.cfg.ClassifierConfig()
	decider := rally.NewDecider(o.cfg.RallyConfig())
	builder := segment.NewBuilder(o.cfg.SegmentConfig(), decoder.Duration())
	filterCfg := o.cfg.DetectFilterConfig()

	stats := telemetry.ProcessingStats{RunID: uuid.NewString()}
	var metadata []MetadataRecord
	var lastFiltered []detectfilter.Detection
	var lastTs geom.Time
	haveFrame := false

	finish := func(cancelled bool) RunOutput {
		if haveFrame {
			if ev := decider.ForceEnd(lastTs.Seconds()); ev != nil {
				builder.End(lastTs)
				stats.RalliesDetected++
				o.observeRally()
				o.emit("rally_end", "time", lastTs.Seconds(), "reason", "shutdown")
			}
			builder.Flush(lastTs)
		}
		stats.Cancelled = cancelled
		stats.ProcessingDuration = time.Since(runStart)
		if stats.FramesOut > 0 {
			stats.AvgFrameTime = stats.ProcessingDuration / time.Duration(stats.FramesOut)
		}
		return RunOutput{Segments: builder.Segments(), Metadata: metadata, Stats: stats}
	}

frameLoop:
	for {
		select {
		case <-ctx.Done():
			return finish(true), nil
		default:
		}

		ts, img, err := decoder.NextFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break frameLoop
			}
			return RunOutput{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		stats.FramesIn++
		frameStart := time.Now()

		t0 := time.Now()
		raw, err := detector.Detect(ctx, img)
		if err != nil {
			return RunOutput{}, fmt.Errorf("%w: detecting on frame at %s: %v", ErrDetectFailed, ts, err)
		}
		stats.StageTotals.Detect += time.Since(t0)

		t1 := time.Now()
		dets, filterStats := detectfilter.Filter(raw, lastFiltered, ts, filterCfg)
		stats.StageTotals.Filter += time.Since(t1)
		stats.DetectionsRaw += filterStats.Raw
		stats.DetectionsKept += filterStats.Kept
		lastFiltered = dets

		t2 := time.Now()
		step, err := tr.Step(ctx, dets, ts)
		stats.StageTotals.Track += time.Since(t2)
		if err != nil {
			stats.FramesSkippedNonMonotonic++
			o.emit("frame_skipped", "time", ts.Seconds(), "reason", err.Error())
			continue
		}
		stats.TracksBorn += step.Stats.Born
		stats.TracksDropped += step.Stats.Dropped
		if step.Stats.SceneCut {
			stats.SceneCuts++
			o.emit("scene_cut", "time", ts.Seconds())
			if haveFrame {
				if ev := decider.ForceEnd(lastTs.Seconds()); ev != nil {
					builder.End(lastTs)
					stats.RalliesDetected++
					o.observeRally()
					o.emit("rally_end", "time", lastTs.Seconds(), "reason", "scene_cut")
				}
			}
		}
		for i := 0; i < step.Stats.Dropped; i++ {
			o.emit("track_dropped", "time", ts.Seconds())
		}

		anyProjectile := false
		anyActiveTrack := false
		t3 := time.Now()
		summaries := make([]TrackSummary, 0, len(step.Tracks))
		for _, tk := range step.Tracks {
			window := sampleWindow(tk.History())
			verdict := physics.Evaluate(window, physicsCfg)
			wasConfirmed := tk.Confirmed
			tk.ObserveVerdict(verdict.IsProjectile, trackerCfg.MinConfirm)
			if !wasConfirmed && tk.Confirmed {
				stats.TracksConfirmed++
			}
			if tk.Confirmed {
				anyActiveTrack = true
				if verdict.IsProjectile {
					anyProjectile = true
				}
			}
			cls := classify.Classify(window, verdict, classifierCfg)
			summaries = append(summaries, TrackSummary{
				ID:            tk.ID,
				RecentHistory: historyPoints(tk.History()),
				Class:         cls.Class,
				Physics:       verdict,
			})
		}
		stats.StageTotals.Physics += time.Since(t3)

		t4 := time.Now()
		event := decider.Step(ts.Seconds(), anyProjectile, anyActiveTrack)
		stats.StageTotals.Decide += time.Since(t4)

		t5 := time.Now()
		if event != nil {
			switch event.Kind {
			case rally.RallyStart:
				builder.Start(geom.FromSeconds(event.Time, eventTimeDenom))
				o.emit("rally_start", "time", event.Time)
			case rally.RallyEnd:
				builder.End(geom.FromSeconds(event.Time, eventTimeDenom))
				stats.RalliesDetected++
				o.observeRally()
				o.emit("rally_end", "time", event.Time, "reason", "hysteresis")
			}
		}
		stats.StageTotals.Segment += time.Since(t5)

		record := MetadataRecord{T: ts, Detections: dets, Tracks: summaries, RallyState: decider.State()}
		metadata = append(metadata, record)
		o.publish(record)
		o.observeFrame(time.Since(frameStart), step.Stats.SceneCut)

		stats.FramesOut++
		lastTs = ts
		haveFrame = true
	}

	return finish(false), nil
}

func sampleWindow(history []tracker.TrackPoint) []physics.Sample {
	out := make([]physics.Sample, len(history))
	for i, p := range history {
		out[i] = physics.Sample{X: p.Center.X, Y: p.Center.Y, T: p.Timestamp.Seconds()}
	}
	return out
}

func historyPoints(history []tracker.TrackPoint) []HistoryPoint {
	out := make([]HistoryPoint, len(history))
	for i, p := range history {
		out[i] = HistoryPoint{X: p.Center.X, Y: p.Center.Y, T: p.Timestamp}
	}
	return out
}
