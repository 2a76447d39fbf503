package detectfilter

import (
	"math"
	"sort"

	"github.com/rallycore/rallycore/geom"
)

// FilterStats reports, for one call to Filter, how many raw detections were
// removed at each stage. Feeds ProcessingStats in the pipeline package.
type FilterStats struct {
	Raw              int
	DroppedInvalid   int
	DroppedConfClass int
	DroppedArea      int
	SuppressedStatic int
	SuppressedNMS    int
	Kept             int
}

// Filter reduces raw detector output to the set of plausible ball
// detections for one frame. It never fails; it always returns a (possibly
// empty) slice. lastFrameDetections is the previous frame's post-filter
// output, used for static suppression; pass nil for the first frame.
func Filter(raw []RawDetection, lastFrameDetections []Detection, ts geom.Time, cfg Config) ([]Detection, FilterStats) {
	stats := FilterStats{Raw: len(raw)}

	candidates := make([]Detection, 0, len(raw))
	for _, r := range raw {
		d, ok := normalize(r, ts)
		if !ok {
			stats.DroppedInvalid++
			continue
		}
		if d.Confidence < cfg.MinConfidence || d.ClassID != BallClassID {
			stats.DroppedConfClass++
			continue
		}
		area := d.BBox.Area()
		if area < cfg.MinArea || area > cfg.MaxArea {
			stats.DroppedArea++
			continue
		}
		candidates = append(candidates, d)
	}

	survivors := make([]Detection, 0, len(candidates))
	for _, d := range candidates {
		if isStatic(d, lastFrameDetections, cfg) {
			stats.SuppressedStatic++
			continue
		}
		survivors = append(survivors, d)
	}

	kept := nonMaxSuppress(survivors, cfg.NMSIoU)
	stats.SuppressedNMS = len(survivors) - len(kept)
	stats.Kept = len(kept)

	return kept, stats
}

// normalize converts a RawDetection into a Detection, rejecting NaN
// coordinates, negative confidence, or a bbox outside the unit square.
func normalize(r RawDetection, ts geom.Time) (Detection, bool) {
	b := r.BBoxNormalized
	if math.IsNaN(b.X0) || math.IsNaN(b.Y0) || math.IsNaN(b.X1) || math.IsNaN(b.Y1) {
		return Detection{}, false
	}
	if math.IsNaN(float64(r.Confidence)) || r.Confidence < 0 {
		return Detection{}, false
	}
	rect, ok := geom.NewRect(b.X0, b.Y0, b.X1, b.Y1)
	if !ok {
		return Detection{}, false
	}
	return Detection{
		BBox:       rect,
		Confidence: r.Confidence,
		ClassID:    r.ClassID,
		Timestamp:  ts,
		ModelTag:   r.ModelTag,
	}, true
}

// isStatic suppresses detections that match a prior-frame detection in
// both IoU and center displacement — painted lines, net anchors, stationary
// props.
func isStatic(d Detection, lastFrame []Detection, cfg Config) bool {
	for _, prev := range lastFrame {
		if d.BBox.IoU(prev.BBox) < cfg.StaticIoU {
			continue
		}
		if d.Center().Dist(prev.Center()) < cfg.StaticEps {
			return true
		}
	}
	return false
}

// nonMaxSuppress greedily keeps the highest-confidence detection in each
// IoU-overlapping cluster.
func nonMaxSuppress(dets []Detection, iouThreshold float64) []Detection {
	if len(dets) <= 1 {
		return dets
	}

	ordered := make([]Detection, len(dets))
	copy(ordered, dets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	kept := make([]Detection, 0, len(ordered))
	suppressed := make([]bool, len(ordered))
	for i := range ordered {
		if suppressed[i] {
			continue
		}
		kept = append(kept, ordered[i])
		for j := i + 1; j < len(ordered); j++ {
			if suppressed[j] {
				continue
			}
			if ordered[i].BBox.IoU(ordered[j].BBox) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
