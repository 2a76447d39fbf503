package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusExporter mirrors a run's ProcessingStats as Prometheus metrics.
// It is purely ambient observability: the pipeline package never imports
// prometheus directly, only a caller wiring an exporter through this
// package does.
type PrometheusExporter struct {
	gatherer prometheus.Gatherer

	framesProcessed prometheus.Counter
	ralliesEmitted  prometheus.Counter
	sceneCuts       prometheus.Counter
	frameDuration   prometheus.Histogram
}

// NewPrometheusExporter registers its metrics against reg. Pass a fresh
// prometheus.NewRegistry() for an isolated registry, or nil to use the
// default global registry.
func NewPrometheusExporter(reg *prometheus.Registry) *PrometheusExporter {
	var registerer prometheus.Registerer = prometheus.DefaultRegisterer
	gatherer := prometheus.Gatherer(prometheus.DefaultGatherer)
	if reg != nil {
		registerer = reg
		gatherer = reg
	}
	factory := promauto.With(registerer)
	return &PrometheusExporter{
		gatherer: gatherer,
		framesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rallycore_frames_processed_total",
			Help: "Frames successfully processed by the pipeline.",
		}),
		ralliesEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rallycore_rallies_emitted_total",
			Help: "Rally end events emitted by the rally decider.",
		}),
		sceneCuts: factory.NewCounter(prometheus.CounterOpts{
			Name: "rallycore_scene_cuts_total",
			Help: "Scene discontinuities (dt > max_dt) observed.",
		}),
		frameDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rallycore_frame_duration_seconds",
			Help:    "Per-frame processing duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Observe records one frame's contribution to the exported metrics.
func (e *PrometheusExporter) Observe(frameDuration time.Duration, sceneCut bool) {
	e.framesProcessed.Inc()
	e.frameDuration.Observe(frameDuration.Seconds())
	if sceneCut {
		e.sceneCuts.Inc()
	}
}

// ObserveRally increments the rallies-emitted counter. Called once per
// RallyEnd event the pipeline produces.
func (e *PrometheusExporter) ObserveRally() {
	e.ralliesEmitted.Inc()
}

// Handler returns an http.Handler serving the registered metrics in the
// Prometheus exposition format, for the CLI to mount at e.g. /metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{})
}
