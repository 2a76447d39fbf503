// Package mock provides in-memory Decoder and Detector fakes for tests and
// the CLI's fixture-driven demo mode: a fixed, pre-scripted sequence of
// frames and their raw detections, with no real decoding or inference
// behind them.
package mock

import (
	"context"
	"fmt"
	"io"

	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/geom"
	"github.com/rallycore/rallycore/pipeline"
)

// frameIndex is the pipeline.Image concrete type Decoder hands to
// Detector: an opaque index into the shared Fixture, looked back up by
// Detector.Detect. Real decoders would hand over decoded pixel data
// instead; the core never distinguishes the two.
type frameIndex int

// FrameFixture is one scripted frame: its presentation timestamp and the
// raw detections the black-box detector would have produced for it.
type FrameFixture struct {
	Time       geom.Time
	Detections []detectfilter.RawDetection
}

// Fixture is a complete scripted video: its frames in presentation order
// plus a reported duration for SegmentBuilder's clamping.
type Fixture struct {
	Frames   []FrameFixture
	Duration geom.Time
}

// Decoder replays a Fixture's frames in order, implementing
// pipeline.Decoder.
type Decoder struct {
	fixture Fixture
	idx     int
}

// NewDecoder creates a Decoder over fixture.
func NewDecoder(fixture Fixture) *Decoder {
	return &Decoder{fixture: fixture}
}

// NextFrame returns the next scripted frame, or io.EOF once the fixture is
// exhausted.
func (d *Decoder) NextFrame(ctx context.Context) (geom.Time, pipeline.Image, error) {
	if d.idx >= len(d.fixture.Frames) {
		return geom.Time{}, nil, io.EOF
	}
	frame := d.fixture.Frames[d.idx]
	img := frameIndex(d.idx)
	d.idx++
	return frame.Time, img, nil
}

// Duration returns the fixture's reported duration.
func (d *Decoder) Duration() geom.Time {
	return d.fixture.Duration
}

// Detector looks up the raw detections scripted for the frame index a
// paired Decoder produced, implementing pipeline.Detector.
type Detector struct {
	fixture Fixture
}

// NewDetector creates a Detector over the same fixture passed to a
// Decoder. Detector and Decoder must share a Fixture value (or two
// fixtures with identical frame ordering) to stay in sync.
func NewDetector(fixture Fixture) *Detector {
	return &Detector{fixture: fixture}
}

// Detect returns the raw detections scripted for img's frame index.
func (det *Detector) Detect(ctx context.Context, img pipeline.Image) ([]detectfilter.RawDetection, error) {
	idx, ok := img.(frameIndex)
	if !ok {
		return nil, fmt.Errorf("mock: detector given an image of type %T, not produced by mock.Decoder", img)
	}
	if int(idx) < 0 || int(idx) >= len(det.fixture.Frames) {
		return nil, fmt.Errorf("mock: frame index %d out of range [0,%d)", idx, len(det.fixture.Frames))
	}
	return det.fixture.Frames[idx].Detections, nil
}
