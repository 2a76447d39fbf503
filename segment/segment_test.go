package segment

import (
	"testing"

	"github.com/rallycore/rallycore/geom"
)

func sec(s float64) geom.Time {
	return geom.FromSeconds(s, 1_000_000)
}

func TestBuilderSingleRallyPadded(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBuilder(cfg, sec(20))

	b.Start(sec(5))
	b.End(sec(12))

	segs := b.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d: %+v", len(segs), segs)
	}
	if got := segs[0].Start.Seconds(); got < 4.4 || got > 4.6 {
		t.Errorf("Start = %v, want ~4.5", got)
	}
	if got := segs[0].End.Seconds(); got < 12.4 || got > 12.6 {
		t.Errorf("End = %v, want ~12.5", got)
	}
}

func TestBuilderMergesCloseSegments(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeGap = 1.0
	b := NewBuilder(cfg, sec(20))

	b.Start(sec(5))
	b.End(sec(8)) // -> [4.5, 8.5]

	b.Start(sec(8.3))
	b.End(sec(11)) // -> [7.8, 11.5]; 7.8 - 8.5 < 1.0 so merges

	segs := b.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected segments to merge into 1, got %d: %+v", len(segs), segs)
	}
	if got := segs[0].Start.Seconds(); got < 4.4 || got > 4.6 {
		t.Errorf("merged Start = %v, want ~4.5", got)
	}
	if got := segs[0].End.Seconds(); got < 11.4 || got > 11.6 {
		t.Errorf("merged End = %v, want ~11.5", got)
	}
}

func TestBuilderDiscardsBelowMinDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinDuration = 2.0
	cfg.PrePad = 0
	cfg.PostPad = 0
	b := NewBuilder(cfg, sec(20))

	b.Start(sec(5))
	b.End(sec(5.5)) // duration 0.5s < 2.0 min

	segs := b.Segments()
	if len(segs) != 0 {
		t.Errorf("expected short segment discarded, got %+v", segs)
	}
}

func TestBuilderClampsToDuration(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBuilder(cfg, sec(10))

	b.Start(sec(9.8))
	b.End(sec(10.2)) // post-padded end would be 10.7, beyond duration 10

	segs := b.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if got := segs[0].End.Seconds(); got != 10 {
		t.Errorf("End = %v, want clamped to 10", got)
	}
}

func TestBuilderClampsStartToZero(t *testing.T) {
	cfg := DefaultConfig()
	b := NewBuilder(cfg, sec(20))

	b.Start(sec(0.1)) // pre-padded start would be -0.4
	b.End(sec(5))

	segs := b.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if got := segs[0].Start.Seconds(); got != 0 {
		t.Errorf("Start = %v, want clamped to 0", got)
	}
}

func TestBuilderOutputSortedAndDisjoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeGap = 0.1
	b := NewBuilder(cfg, sec(100))

	b.Start(sec(1))
	b.End(sec(3))
	b.Start(sec(10))
	b.End(sec(12))
	b.Start(sec(20))
	b.End(sec(22))

	segs := b.Segments()
	if len(segs) != 3 {
		t.Fatalf("expected 3 disjoint segments, got %d", len(segs))
	}
	for i := 1; i < len(segs); i++ {
		if segs[i-1].End.Sub(segs[i].Start) > 0 {
			t.Errorf("segments %d and %d overlap: %+v, %+v", i-1, i, segs[i-1], segs[i])
		}
	}
}

func TestBuilderPendingAccessor(t *testing.T) {
	b := NewBuilder(DefaultConfig(), sec(20))
	if _, ok := b.Pending(); ok {
		t.Error("expected no pending segment before Start")
	}
	b.Start(sec(5))
	start, ok := b.Pending()
	if !ok {
		t.Fatal("expected a pending segment after Start")
	}
	if got := start.Seconds(); got < 4.4 || got > 4.6 {
		t.Errorf("Pending start = %v, want ~4.5", got)
	}
}

func TestBuilderFlushClosesPendingOnCancellation(t *testing.T) {
	b := NewBuilder(DefaultConfig(), sec(20))
	b.Start(sec(5))
	b.Flush(sec(7))

	if _, ok := b.Pending(); ok {
		t.Error("expected no pending segment after Flush")
	}
	segs := b.Segments()
	if len(segs) != 1 {
		t.Fatalf("expected Flush to commit the pending segment, got %d", len(segs))
	}
}
