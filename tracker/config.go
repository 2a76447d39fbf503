package tracker

import "github.com/rallycore/rallycore/kalman"

// Config holds the tracker's gating, lifecycle, and noise-model thresholds.
// Zero-value Config is invalid; use DefaultConfig.
type Config struct {
	Noise              kalman.NoiseModel
	InitialUncertainty float64

	GateThreshold float64
	BirthConf     float32

	MaxMisses               uint32
	MaxAgeWithoutProjectile uint32
	MinConfirm              int
	HistoryCap              int

	MaxDt float64
}

// DefaultConfig returns thresholds reflecting a 30fps source and a ball
// roughly 1-3% of frame width.
func DefaultConfig() Config {
	return Config{
		Noise: kalman.NoiseModel{
			QPos:  1e-5,
			QVel:  1e-4,
			RMeas: 1e-3,
		},
		InitialUncertainty:      0.05,
		GateThreshold:           9.21, // chi-squared, 2 dof, ~99% confidence
		BirthConf:               0.4,
		MaxMisses:               8,
		MaxAgeWithoutProjectile: 45,
		MinConfirm:              6,
		HistoryCap:              30,
		MaxDt:                   0.5,
	}
}
