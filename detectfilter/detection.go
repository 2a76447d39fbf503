// Package detectfilter normalizes and filters raw per-frame detector output
// into the plausible ball detections a single frame contributes to the
// tracker.
package detectfilter

import "github.com/rallycore/rallycore/geom"

// BallClassID is the detector class id this core treats as "ball". Any
// other class id is dropped in step 1 of Filter.
const BallClassID uint16 = 0

// RawDetection is the black-box detector's output for one candidate box,
// before normalization or filtering.
type RawDetection struct {
	BBoxNormalized geom.Rect
	Confidence     float32
	ClassID        uint16
	// ModelTag is opaque per-model metadata (e.g. which detector variant
	// produced this box) carried through to Detection unchanged. The core
	// never branches on it.
	ModelTag string
}

// Detection is a normalized, validated detection for one frame.
type Detection struct {
	BBox       geom.Rect
	Confidence float32
	ClassID    uint16
	Timestamp  geom.Time
	ModelTag   string
}

// Center returns the bounding box center.
func (d Detection) Center() geom.Vec2 {
	return d.BBox.Center()
}
