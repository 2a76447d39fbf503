// Package segment accumulates rally start/end events into a sorted,
// merged, padded list of output intervals.
package segment

import "github.com/rallycore/rallycore/geom"

// Segment is one output interval, end exclusive.
type Segment struct {
	Start geom.Time
	End   geom.Time
}

// Duration returns End - Start in seconds.
func (s Segment) Duration() float64 {
	return s.End.Sub(s.Start)
}

// Builder accumulates RallyStart/RallyEnd events into a sorted, merged,
// padded, duration-clamped list of segments. Not safe for concurrent use.
type Builder struct {
	cfg      Config
	duration geom.Time

	committed []Segment
	pending   *Segment
}

// NewBuilder creates a Builder. duration clamps every output segment's end
// and is typically the decoder's reported video duration.
func NewBuilder(cfg Config, duration geom.Time) *Builder {
	return &Builder{cfg: cfg, duration: duration}
}

// Start opens a new pending segment at t, pre-padded. A Start while a
// segment is already pending replaces it: callers are expected to pair
// every Start with exactly one End, via the rally decider's own
// start-before-end ordering guarantee.
func (b *Builder) Start(t geom.Time) {
	start := t.Add(-b.cfg.PrePad)
	b.pending = &Segment{Start: start}
}

// End closes the pending segment at u, post-padded, and merges it into the
// previous committed segment if its (unclamped) start falls within
// merge_gap of the previous segment's end. Clamping to [0, duration]
// happens later, in Segments. An End with no pending segment is a no-op.
func (b *Builder) End(u geom.Time) {
	if b.pending == nil {
		return
	}
	seg := Segment{Start: b.pending.Start, End: u.Add(b.cfg.PostPad)}
	b.pending = nil
	b.commit(seg)
}

// Pending returns the in-progress segment's start time, for metadata
// consumers that want to show a rally as already underway. The second
// return value is false if no segment is open.
func (b *Builder) Pending() (geom.Time, bool) {
	if b.pending == nil {
		return geom.Time{}, false
	}
	return b.pending.Start, true
}

// Flush closes any still-pending segment at t, for orchestrator shutdown
// paths that reach end-of-stream or cancellation without a matching rally
// end event.
func (b *Builder) Flush(t geom.Time) {
	if b.pending != nil {
		b.End(t)
	}
}

func (b *Builder) commit(seg Segment) {
	if len(b.committed) > 0 {
		prev := &b.committed[len(b.committed)-1]
		if seg.Start.Sub(prev.End) <= b.cfg.MergeGap {
			if seg.End.Sub(prev.End) > 0 {
				prev.End = seg.End
			}
			return
		}
	}
	b.committed = append(b.committed, seg)
}

// Segments returns the final output list: clamped to [0, duration],
// filtered to segments meeting min_duration, sorted by start and pairwise
// disjoint. Safe to call at any point; does not include a still-open
// pending segment.
func (b *Builder) Segments() []Segment {
	out := make([]Segment, 0, len(b.committed))
	zero := geom.NewTime(0, 1)
	for _, seg := range b.committed {
		if seg.Start.Sub(zero) < 0 {
			seg.Start = zero
		}
		if seg.End.Sub(b.duration) > 0 {
			seg.End = b.duration
		}
		if seg.Duration() < b.cfg.MinDuration {
			continue
		}
		out = append(out, seg)
	}
	return out
}
