package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusExporterObserveIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	exp := NewPrometheusExporter(reg)

	exp.Observe(10*time.Millisecond, false)
	exp.Observe(20*time.Millisecond, true)
	exp.ObserveRally()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	counts := map[string]float64{}
	for _, fam := range families {
		switch fam.GetName() {
		case "rallycore_frames_processed_total":
			counts["frames"] = fam.Metric[0].GetCounter().GetValue()
		case "rallycore_scene_cuts_total":
			counts["scene_cuts"] = fam.Metric[0].GetCounter().GetValue()
		case "rallycore_rallies_emitted_total":
			counts["rallies"] = fam.Metric[0].GetCounter().GetValue()
		case "rallycore_frame_duration_seconds":
			counts["frame_duration_count"] = float64(fam.Metric[0].GetHistogram().GetSampleCount())
		}
	}

	if counts["frames"] != 2 {
		t.Errorf("frames_processed = %v, want 2", counts["frames"])
	}
	if counts["scene_cuts"] != 1 {
		t.Errorf("scene_cuts = %v, want 1", counts["scene_cuts"])
	}
	if counts["rallies"] != 1 {
		t.Errorf("rallies_emitted = %v, want 1", counts["rallies"])
	}
	if counts["frame_duration_count"] != 2 {
		t.Errorf("frame_duration sample count = %v, want 2", counts["frame_duration_count"])
	}
}

func TestPrometheusExporterHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	exp := NewPrometheusExporter(reg)
	exp.Observe(5*time.Millisecond, false)

	srv := httptest.NewServer(exp.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "rallycore_frames_processed_total") {
		t.Errorf("expected exposition body to contain rallycore_frames_processed_total, got: %s", body)
	}
}

func TestNewPrometheusExporterNilRegistryUsesDefault(t *testing.T) {
	exp := NewPrometheusExporter(nil)
	if exp.gatherer == nil {
		t.Fatal("expected a non-nil gatherer when reg is nil")
	}
}
