// Package main provides the CLI wrapper for rallycore: it runs the
// detection pipeline against a scripted JSONL fixture of per-frame
// detections and prints the rally segments it finds.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rallycore/rallycore/mock"
	"github.com/rallycore/rallycore/pipeline"
	"github.com/rallycore/rallycore/rallyconfig"
	"github.com/rallycore/rallycore/telemetry"
)

var version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to TOML configuration file")
	fixturePath := flag.String("fixture", "", "Path to a JSONL fixture of per-frame detections")
	showVersion := flag.Bool("version", false, "Show version information")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	metricsAddr := flag.String("metrics-addr", "", "Address to serve Prometheus metrics on (e.g. :9090); disabled if empty")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rallycore - volleyball rally-segment detection\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -fixture detections.jsonl [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -fixture match.jsonl                 # Run with default thresholds\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -fixture match.jsonl -config rallycore.toml\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -fixture match.jsonl -verbose        # Log every stage event\n", os.Args[0])
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("rallycore version %s\n", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
	slog.SetDefault(logger)

	if *fixturePath == "" {
		slog.Error("a -fixture path is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := rallyconfig.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	if *verbose {
		slog.Debug("configuration loaded",
			"min_conf", cfg.Detection.MinConf,
			"history_cap", cfg.Tracker.HistoryCap,
			"r2_min", cfg.Physics.R2Min,
			"w_start", cfg.Rally.WStart,
			"pre_pad", cfg.Segment.PrePad,
		)
	}

	fixture, err := mock.LoadJSONL(*fixturePath)
	if err != nil {
		slog.Error("failed to load fixture", "path", *fixturePath, "err", err)
		os.Exit(1)
	}
	slog.Info("fixture loaded", "frames", len(fixture.Frames), "duration", fixture.Duration.Seconds())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := []pipeline.Option{pipeline.WithEventFunc(func(msg string, args ...any) {
		slog.Debug(msg, args...)
	})}

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		exporter := telemetry.NewPrometheusExporter(reg)
		opts = append(opts, pipeline.WithMetrics(exporter))

		mux := http.NewServeMux()
		mux.Handle("/metrics", exporter.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "err", err)
			}
		}()
		defer srv.Close()
		slog.Info("serving prometheus metrics", "addr", *metricsAddr, "path", "/metrics")
	}

	orch := pipeline.NewOrchestrator(cfg, opts...)

	start := time.Now()
	out, err := orch.Run(ctx, mock.NewDecoder(fixture), mock.NewDetector(fixture))
	if err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}

	slog.Info("run complete",
		"duration", time.Since(start),
		"frames_in", out.Stats.FramesIn,
		"frames_out", out.Stats.FramesOut,
		"rallies", out.Stats.RalliesDetected,
		"cancelled", out.Stats.Cancelled,
	)

	for i, seg := range out.Segments {
		fmt.Printf("segment %d: %.2fs -> %.2fs (%.2fs)\n", i, seg.Start.Seconds(), seg.End.Seconds(), seg.Duration())
	}
}
