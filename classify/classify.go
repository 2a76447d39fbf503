// Package classify assigns a discrete movement label to a track from
// kinematic features over the same window the physics gate evaluates.
package classify

import (
	"math"

	"github.com/rallycore/rallycore/physics"
	"gonum.org/v1/gonum/stat"
)

// Class is a track's discrete movement label.
type Class int

const (
	Static Class = iota
	Carried
	Rolling
	Airborne
)

func (c Class) String() string {
	switch c {
	case Static:
		return "static"
	case Carried:
		return "carried"
	case Rolling:
		return "rolling"
	case Airborne:
		return "airborne"
	default:
		return "unknown"
	}
}

// Config holds the classifier's decision thresholds.
type Config struct {
	StaticPath     float64
	StaticMinSpan  float64
	AirborneMinSpan float64
	RollRatio      float64
	RollSpeedMin   float64
}

// DefaultConfig returns thresholds reflecting typical camera framing.
func DefaultConfig() Config {
	return Config{
		StaticPath:      0.01,
		StaticMinSpan:   0.3,
		AirborneMinSpan: 0.2,
		RollRatio:       0.15,
		RollSpeedMin:    0.05,
	}
}

// Result is the classifier's per-track output.
type Result struct {
	Class      Class
	Confidence float64
}

// Classify evaluates the decision rule, first hit wins. verdict is the
// physics gate's result already computed over the same window.
func Classify(window []physics.Sample, verdict physics.Verdict, cfg Config) Result {
	if len(window) < 2 {
		return Result{Class: Static, Confidence: 1}
	}

	span := window[len(window)-1].T - window[0].T
	pathLength := totalPathLength(window)
	speed := averageSpeed(window, span)
	varX, varY := xyVariance(window)

	if pathLength < cfg.StaticPath && span >= cfg.StaticMinSpan {
		margin := 1 - pathLength/cfg.StaticPath
		return Result{Class: Static, Confidence: clamp01(margin)}
	}

	if verdict.IsProjectile && span >= cfg.AirborneMinSpan {
		return Result{Class: Airborne, Confidence: clamp01(verdict.Confidence)}
	}

	verticalScore := verticalMotionScore(varX, varY)
	if verticalScore < cfg.RollRatio && speed > cfg.RollSpeedMin {
		margin := clamp01(1 - verticalScore/cfg.RollRatio)
		return Result{Class: Rolling, Confidence: margin}
	}

	// Carried: moves, but not ballistic and not purely lateral.
	return Result{Class: Carried, Confidence: clamp01(speed / (speed + cfg.RollSpeedMin))}
}

func totalPathLength(window []physics.Sample) float64 {
	total := 0.0
	for i := 1; i < len(window); i++ {
		total += math.Hypot(window[i].X-window[i-1].X, window[i].Y-window[i-1].Y)
	}
	return total
}

func averageSpeed(window []physics.Sample, span float64) float64 {
	if span <= 0 {
		return 0
	}
	return totalPathLength(window) / span
}

func xyVariance(window []physics.Sample) (varX, varY float64) {
	xs := make([]float64, len(window))
	ys := make([]float64, len(window))
	for i, s := range window {
		xs[i] = s.X
		ys[i] = s.Y
	}
	_, varX = stat.MeanVariance(xs, nil)
	_, varY = stat.MeanVariance(ys, nil)
	return varX, varY
}

// verticalMotionScore is the variance of y normalized by the variance of x;
// a low score means motion is mostly horizontal.
func verticalMotionScore(varX, varY float64) float64 {
	if varX <= 1e-12 {
		if varY <= 1e-12 {
			return 0
		}
		return math.Inf(1)
	}
	return varY / varX
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
