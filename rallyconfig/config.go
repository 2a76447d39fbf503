// Package rallyconfig provides TOML configuration loading for rallycore.
//
// The configuration file supports one table per pipeline stage:
//
//	[detection]
//	min_conf = 0.35
//	nms_iou = 0.5
//	static_iou = 0.9
//	static_eps = 0.0025
//
//	[tracker]
//	history_cap = 30
//	max_misses = 8
//	max_age = 45
//	birth_conf = 0.4
//	gate_threshold = 9.21
//	q_pos = 0.00001
//	q_vel = 0.0001
//	r_meas = 0.001
//
//	[physics]
//	r2_min = 0.85
//	a_min = 0.05
//	a_max = 20.0
//	max_jump = 0.25
//
//	[rally]
//	w_start = 0.6
//	w_end = 1.5
//	w_rejoin = 0.5
//	start_ratio = 0.5
//	end_ratio = 0.2
//	cooldown_idle = 1.0
//
//	[segment]
//	pre_pad = 0.5
//	post_pad = 0.5
//	merge_gap = 1.0
//	min_duration = 1.0
//
// Example usage:
//
//	cfg, err := rallyconfig.Load("rallycore.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("min confidence: %v\n", cfg.Detection.MinConf)
package rallyconfig

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the complete configuration for a rallycore pipeline run.
type Config struct {
	Detection  DetectionConfig  `toml:"detection"`
	Tracker    TrackerConfig    `toml:"tracker"`
	Physics    PhysicsConfig    `toml:"physics"`
	Classifier ClassifierConfig `toml:"classifier"`
	Rally      RallyConfig      `toml:"rally"`
	Segment    SegmentConfig    `toml:"segment"`
}

// DetectionConfig holds DetectionFilter thresholds.
type DetectionConfig struct {
	MinConf   float64 `toml:"min_conf"`
	MinArea   float64 `toml:"min_area"`
	MaxArea   float64 `toml:"max_area"`
	NMSIoU    float64 `toml:"nms_iou"`
	StaticIoU float64 `toml:"static_iou"`
	StaticEps float64 `toml:"static_eps"`
}

// TrackerConfig holds Tracker lifecycle, gating, and noise-model thresholds.
type TrackerConfig struct {
	HistoryCap         int     `toml:"history_cap"`
	MaxMisses          int     `toml:"max_misses"`
	MaxAge             int     `toml:"max_age"`
	BirthConf          float64 `toml:"birth_conf"`
	GateThreshold      float64 `toml:"gate_threshold"`
	QPos               float64 `toml:"q_pos"`
	QVel               float64 `toml:"q_vel"`
	RMeas              float64 `toml:"r_meas"`
	InitialUncertainty float64 `toml:"initial_uncertainty"`
	MaxDt              float64 `toml:"max_dt"`
	MinConfirm         int     `toml:"min_confirm"`
}

// PhysicsConfig holds PhysicsGate thresholds.
type PhysicsConfig struct {
	MinWindow        int     `toml:"min_window"`
	R2Min            float64 `toml:"r2_min"`
	ExpectedCurvSign int     `toml:"expected_curv_sign"`
	AMin             float64 `toml:"a_min"`
	AMax             float64 `toml:"a_max"`
	MaxJump          float64 `toml:"max_jump"`
	VelocityCVMax    float64 `toml:"velocity_cv_max"`
}

// ClassifierConfig holds MovementClassifier thresholds.
type ClassifierConfig struct {
	StaticPath      float64 `toml:"static_path"`
	StaticMinSpan   float64 `toml:"static_min_span"`
	AirborneMinSpan float64 `toml:"airborne_min_span"`
	RollRatio       float64 `toml:"roll_ratio"`
	RollSpeedMin    float64 `toml:"roll_speed_min"`
}

// RallyConfig holds RallyDecider window sizes and hysteresis ratios.
type RallyConfig struct {
	WStart       float64 `toml:"w_start"`
	WEnd         float64 `toml:"w_end"`
	WRejoin      float64 `toml:"w_rejoin"`
	StartRatio   float64 `toml:"start_ratio"`
	EndRatio     float64 `toml:"end_ratio"`
	CooldownIdle float64 `toml:"cooldown_idle"`
}

// SegmentConfig holds SegmentBuilder padding and merge thresholds.
type SegmentConfig struct {
	PrePad      float64 `toml:"pre_pad"`
	PostPad     float64 `toml:"post_pad"`
	MergeGap    float64 `toml:"merge_gap"`
	MinDuration float64 `toml:"min_duration"`
}

// Default returns the default configuration, mirroring the tuned defaults
// each stage's own DefaultConfig exposes.
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			MinConf:   0.35,
			MinArea:   0.00005,
			MaxArea:   0.02,
			NMSIoU:    0.5,
			StaticIoU: 0.9,
			StaticEps: 0.0025,
		},
		Tracker: TrackerConfig{
			HistoryCap:         30,
			MaxMisses:          8,
			MaxAge:             45,
			BirthConf:          0.4,
			GateThreshold:      9.21,
			QPos:               1e-5,
			QVel:               1e-4,
			RMeas:              1e-3,
			InitialUncertainty: 0.05,
			MaxDt:              0.5,
			MinConfirm:         6,
		},
		Physics: PhysicsConfig{
			MinWindow:        8,
			R2Min:            0.85,
			ExpectedCurvSign: 1,
			AMin:             0.05,
			AMax:             20.0,
			MaxJump:          0.25,
			VelocityCVMax:    1.0,
		},
		Classifier: ClassifierConfig{
			StaticPath:      0.01,
			StaticMinSpan:   0.3,
			AirborneMinSpan: 0.2,
			RollRatio:       0.15,
			RollSpeedMin:    0.05,
		},
		Rally: RallyConfig{
			WStart:       0.6,
			WEnd:         1.5,
			WRejoin:      0.5,
			StartRatio:   0.5,
			EndRatio:     0.2,
			CooldownIdle: 1.0,
		},
		Segment: SegmentConfig{
			PrePad:      0.5,
			PostPad:     0.5,
			MergeGap:    1.0,
			MinDuration: 1.0,
		},
	}
}

// Load reads and parses a TOML configuration file.
// If the file does not exist, it returns the default configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Detection.MinConf < 0 || c.Detection.MinConf > 1 {
		return fmt.Errorf("detection.min_conf must be in [0,1], got %f", c.Detection.MinConf)
	}
	if c.Detection.MinArea <= 0 || c.Detection.MaxArea <= c.Detection.MinArea {
		return fmt.Errorf("detection.max_area must exceed detection.min_area > 0")
	}
	if c.Tracker.HistoryCap <= 0 {
		return fmt.Errorf("tracker.history_cap must be positive, got %d", c.Tracker.HistoryCap)
	}
	if c.Tracker.MaxMisses <= 0 {
		return fmt.Errorf("tracker.max_misses must be positive, got %d", c.Tracker.MaxMisses)
	}
	if c.Tracker.GateThreshold <= 0 {
		return fmt.Errorf("tracker.gate_threshold must be positive, got %f", c.Tracker.GateThreshold)
	}
	if c.Physics.MinWindow < 3 {
		return fmt.Errorf("physics.min_window must be at least 3, got %d", c.Physics.MinWindow)
	}
	if c.Physics.R2Min < 0 || c.Physics.R2Min > 1 {
		return fmt.Errorf("physics.r2_min must be in [0,1], got %f", c.Physics.R2Min)
	}
	if c.Physics.AMax <= c.Physics.AMin {
		return fmt.Errorf("physics.a_max must exceed physics.a_min")
	}
	if c.Rally.StartRatio <= 0 || c.Rally.StartRatio > 1 {
		return fmt.Errorf("rally.start_ratio must be in (0,1], got %f", c.Rally.StartRatio)
	}
	if c.Rally.EndRatio < 0 || c.Rally.EndRatio > 1 {
		return fmt.Errorf("rally.end_ratio must be in [0,1], got %f", c.Rally.EndRatio)
	}
	if c.Segment.MinDuration < 0 {
		return fmt.Errorf("segment.min_duration must be non-negative, got %f", c.Segment.MinDuration)
	}
	return nil
}
