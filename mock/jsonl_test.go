package mock

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixtureFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadJSONLParsesFramesInOrder(t *testing.T) {
	content := `{"t_num":0,"t_den":30,"detections":[{"x0":0.1,"y0":0.1,"x1":0.15,"y1":0.15,"confidence":0.9,"class_id":0}]}
{"t_num":30,"t_den":30,"detections":[]}
`
	path := writeFixtureFile(t, content)

	fixture, err := LoadJSONL(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixture.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(fixture.Frames))
	}
	if len(fixture.Frames[0].Detections) != 1 {
		t.Errorf("expected 1 detection in frame 0, got %d", len(fixture.Frames[0].Detections))
	}
	if len(fixture.Frames[1].Detections) != 0 {
		t.Errorf("expected 0 detections in frame 1, got %d", len(fixture.Frames[1].Detections))
	}
	if fixture.Duration.Seconds() != 1 {
		t.Errorf("duration = %v, want 1 (last frame's timestamp)", fixture.Duration.Seconds())
	}
}

func TestLoadJSONLSkipsBlankLines(t *testing.T) {
	content := "{\"t_num\":0,\"t_den\":30,\"detections\":[]}\n\n{\"t_num\":30,\"t_den\":30,\"detections\":[]}\n"
	path := writeFixtureFile(t, content)

	fixture, err := LoadJSONL(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fixture.Frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(fixture.Frames))
	}
}

func TestLoadJSONLRejectsInvalidBBox(t *testing.T) {
	content := `{"t_num":0,"t_den":30,"detections":[{"x0":0.5,"y0":0.1,"x1":0.1,"y1":0.9,"confidence":0.9,"class_id":0}]}
`
	path := writeFixtureFile(t, content)

	if _, err := LoadJSONL(path); err == nil {
		t.Error("expected error for an invalid bbox (x1 < x0)")
	}
}

func TestLoadJSONLRejectsMalformedJSON(t *testing.T) {
	path := writeFixtureFile(t, "not json\n")
	if _, err := LoadJSONL(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestLoadJSONLMissingFile(t *testing.T) {
	if _, err := LoadJSONL("/nonexistent/fixture.jsonl"); err == nil {
		t.Error("expected error for a missing file")
	}
}
