// Package physics decides whether a track's recent history is consistent
// with gravity-driven parabolic motion. It is stateless and deterministic:
// the same window always yields the same Verdict.
package physics

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CurvatureSign is the sign of a fitted quadratic's leading coefficient.
type CurvatureSign int

const (
	CurvatureNegative CurvatureSign = -1
	CurvatureZero     CurvatureSign = 0
	CurvaturePositive CurvatureSign = 1
)

// Sample is one (x, y, t) observation in a physics evaluation window. t is
// seconds, not required to start at zero — Evaluate translates internally.
type Sample struct {
	X, Y, T float64
}

// Verdict is PhysicsGate's output for one window.
type Verdict struct {
	IsProjectile  bool
	RSquared      float64
	CurvatureSign CurvatureSign
	Confidence    float64
	// Degenerate is true when the fit matrix was singular (collinear t) or
	// the window was too short — counted as not-projectile, not an error.
	Degenerate bool
}

// Config holds the physics gate's decision thresholds.
type Config struct {
	MinWindow        int
	R2Min            float64
	ExpectedCurvSign CurvatureSign
	AMin, AMax       float64
	MaxJump          float64
	VelocityCVMax    float64
}

// DefaultConfig returns thresholds reflecting typical camera framing, with
// the image-y-grows-downward convention made explicit: a real projectile
// under gravity, rendered in image coordinates with y growing downward,
// has a positive quadratic coefficient.
func DefaultConfig() Config {
	return Config{
		MinWindow:        8,
		R2Min:            0.85,
		ExpectedCurvSign: CurvaturePositive,
		AMin:             0.05,
		AMax:             20.0,
		MaxJump:          0.25,
		VelocityCVMax:    1.0,
	}
}

// errDegenerate is returned by fitQuadratic when the design matrix is
// singular; it never escapes Evaluate, which treats it as a degenerate,
// non-projectile verdict rather than a fatal error.
var errDegenerate = errors.New("physics: degenerate fit matrix")

// Evaluate runs the parabolic-motion check over window, which must be in
// presentation-time order. Window length < 3 always yields a degenerate,
// non-projectile verdict.
func Evaluate(window []Sample, cfg Config) Verdict {
	n := len(window)
	if n < 3 || n < cfg.MinWindow {
		return Verdict{Degenerate: true}
	}

	t0 := window[0].T
	ts := make([]float64, n)
	ys := make([]float64, n)
	xs := make([]float64, n)
	for i, s := range window {
		ts[i] = s.T - t0
		ys[i] = s.Y
		xs[i] = s.X
	}

	a, b, c, err := fitQuadratic(ts, ys)
	if err != nil {
		return Verdict{Degenerate: true}
	}

	yHat := make([]float64, n)
	for i, t := range ts {
		yHat[i] = a*t*t + b*t + c
	}
	r2 := rSquared(ys, yHat)
	if math.IsNaN(r2) {
		return Verdict{Degenerate: true}
	}

	curv := curvatureSign(a)
	velOK, velScore := velocityConsistent(xs, ys, ts, cfg)
	jumpOK, jumpScore := noDiscontinuousJumps(xs, ys, cfg)
	accelOK, accelScore := accelBounded(a, cfg)

	r2Score := clamp01(r2)
	signScore := 0.0
	if curv == cfg.ExpectedCurvSign {
		signScore = 1.0
	}

	isProjectile := r2 >= cfg.R2Min && curv == cfg.ExpectedCurvSign && velOK && jumpOK && accelOK

	confidence := (r2Score + signScore + velScore + jumpScore + accelScore) / 5

	return Verdict{
		IsProjectile:  isProjectile,
		RSquared:      r2,
		CurvatureSign: curv,
		Confidence:    confidence,
	}
}

// fitQuadratic fits y = a*t^2 + b*t + c by ordinary least squares via the
// normal equations X^T X beta = X^T y, solved with gonum/mat. Returns
// errDegenerate if X^T X is singular (collinear t).
func fitQuadratic(t, y []float64) (a, b, c float64, err error) {
	n := len(t)
	design := mat.NewDense(n, 3, nil)
	for i := range t {
		design.Set(i, 0, t[i]*t[i])
		design.Set(i, 1, t[i])
		design.Set(i, 2, 1)
	}
	yVec := mat.NewVecDense(n, y)

	var xtx mat.Dense
	xtx.Mul(design.T(), design)

	var xty mat.VecDense
	xty.MulVec(design.T(), yVec)

	var xtxInv mat.Dense
	if invErr := xtxInv.Inverse(&xtx); invErr != nil {
		return 0, 0, 0, errDegenerate
	}

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	return beta.AtVec(0), beta.AtVec(1), beta.AtVec(2), nil
}

func curvatureSign(a float64) CurvatureSign {
	switch {
	case a > 1e-9:
		return CurvaturePositive
	case a < -1e-9:
		return CurvatureNegative
	default:
		return CurvatureZero
	}
}

// velocityConsistent checks the coefficient of variation of per-step speed
// stays within a band.
func velocityConsistent(xs, ys, ts []float64, cfg Config) (bool, float64) {
	if len(xs) < 2 {
		return false, 0
	}
	speeds := make([]float64, 0, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		dt := ts[i] - ts[i-1]
		if dt <= 0 {
			continue
		}
		dx := xs[i] - xs[i-1]
		dy := ys[i] - ys[i-1]
		speeds = append(speeds, math.Hypot(dx, dy)/dt)
	}
	if len(speeds) == 0 {
		return false, 0
	}
	mean := stat.Mean(speeds, nil)
	if mean <= 0 {
		return false, 0
	}
	cv := stat.StdDev(speeds, nil) / mean
	ok := cv <= cfg.VelocityCVMax
	score := clamp01(1 - cv/cfg.VelocityCVMax)
	return ok, score
}

// noDiscontinuousJumps checks max step-to-step displacement stays under
// max_jump.
func noDiscontinuousJumps(xs, ys []float64, cfg Config) (bool, float64) {
	maxStep := 0.0
	for i := 1; i < len(xs); i++ {
		d := math.Hypot(xs[i]-xs[i-1], ys[i]-ys[i-1])
		if d > maxStep {
			maxStep = d
		}
	}
	ok := maxStep < cfg.MaxJump
	score := clamp01(1 - maxStep/cfg.MaxJump)
	return ok, score
}

// accelBounded checks |a| falls inside [a_min, a_max].
func accelBounded(a float64, cfg Config) (bool, float64) {
	mag := math.Abs(a)
	ok := mag >= cfg.AMin && mag <= cfg.AMax
	if !ok {
		return false, 0
	}
	mid := (cfg.AMin + cfg.AMax) / 2
	spread := (cfg.AMax - cfg.AMin) / 2
	if spread <= 0 {
		return true, 1
	}
	score := clamp01(1 - math.Abs(mag-mid)/spread)
	return true, score
}

// rSquared computes the coefficient of determination in the standard way:
// 1 - SSres/SStot, over the sample mean of the observed values.
func rSquared(observed, predicted []float64) float64 {
	mean := stat.Mean(observed, nil)
	var ssRes, ssTot float64
	for i, y := range observed {
		ssRes += (y - predicted[i]) * (y - predicted[i])
		ssTot += (y - mean) * (y - mean)
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
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
