package mock

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rallycore/rallycore/detectfilter"
	"github.com/rallycore/rallycore/geom"
)

// jsonDetection is one detection as it appears in a JSONL fixture line.
type jsonDetection struct {
	X0         float64 `json:"x0"`
	Y0         float64 `json:"y0"`
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	Confidence float32 `json:"confidence"`
	ClassID    uint16  `json:"class_id"`
	ModelTag   string  `json:"model_tag"`
}

// jsonFrame is one line of a JSONL fixture: a frame timestamp as an exact
// rational plus its scripted raw detections.
type jsonFrame struct {
	TNum       int64           `json:"t_num"`
	TDen       int64           `json:"t_den"`
	Detections []jsonDetection `json:"detections"`
}

// LoadJSONL reads a fixture from a file of one JSON object per line, in
// frame order. The fixture's duration is taken to be the last frame's
// timestamp, since a JSONL fixture has no independent notion of trailing
// dead air past its last scripted frame.
func LoadJSONL(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("mock: opening fixture: %w", err)
	}
	defer f.Close()

	var fixture Fixture
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var jf jsonFrame
		if err := json.Unmarshal([]byte(line), &jf); err != nil {
			return Fixture{}, fmt.Errorf("mock: fixture line %d: %w", lineNo, err)
		}

		frame := FrameFixture{
			Time:       geom.NewTime(jf.TNum, jf.TDen),
			Detections: make([]detectfilter.RawDetection, len(jf.Detections)),
		}
		for i, d := range jf.Detections {
			rect, ok := geom.NewRect(d.X0, d.Y0, d.X1, d.Y1)
			if !ok {
				return Fixture{}, fmt.Errorf("mock: fixture line %d: detection %d has an invalid bbox", lineNo, i)
			}
			frame.Detections[i] = detectfilter.RawDetection{
				BBoxNormalized: rect,
				Confidence:     d.Confidence,
				ClassID:        d.ClassID,
				ModelTag:       d.ModelTag,
			}
		}
		fixture.Frames = append(fixture.Frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return Fixture{}, fmt.Errorf("mock: reading fixture: %w", err)
	}
	if len(fixture.Frames) > 0 {
		fixture.Duration = fixture.Frames[len(fixture.Frames)-1].Time
	}
	return fixture, nil
}
