// Package pipeline wires DetectionFilter, Tracker, PhysicsGate, Classifier,
// RallyDecider, and SegmentBuilder into the single-pass, frame-at-a-time
// orchestrator that is the core's one entrypoint.
package pipeline

import (
	"context"
	"io"

	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/geom"
)

// Image is an opaque per-frame payload produced by a Decoder and consumed
// by a Detector. The pipeline never inspects it; only the Decoder/Detector
// pair implementation agrees on its concrete type.
type Image any

// Decoder yields decoded frames in presentation-time order.
//
// NextFrame returns io.EOF (wrapped or bare, checked with errors.Is) once
// the stream is exhausted; any other error aborts the run.
type Decoder interface {
	NextFrame(ctx context.Context) (geom.Time, Image, error)
	// Duration reports the video's total duration, used to clamp
	// SegmentBuilder's output.
	Duration() geom.Time
}

// Detector is the black-box object-detection model: a pure function from
// an Image to a list of raw candidate boxes. May be slow; may run on an
// accelerator.
type Detector interface {
	Detect(ctx context.Context, img Image) ([]detectfilter.RawDetection, error)
}

// ErrEndOfStream is an alias for io.EOF, named for readability at Decoder
// call sites. Decoder implementations may return either.
var ErrEndOfStream = io.EOF
