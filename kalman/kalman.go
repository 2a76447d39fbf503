// Package kalman implements a constant-velocity Kalman filter primitive for
// tracking a 2D point. State is [x, y, vx, vy]; measurements are [x, y].
// All linear algebra runs on gonum/mat.
package kalman

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// State is a constant-velocity Kalman filter's position/velocity estimate
// and covariance for a single track.
type State struct {
	// X is the 4x1 state vector [x, y, vx, vy].
	X *mat.VecDense
	// P is the 4x4 state covariance.
	P *mat.Dense
}

// NoiseModel holds the process and measurement noise diagonals configured
// for a tracker (q_pos, q_vel, r_meas).
type NoiseModel struct {
	QPos float64
	QVel float64
	RMeas float64
}

// NewState initializes a track's Kalman state from a first measurement,
// zero velocity, and a large initial covariance.
func NewState(x, y, initialUncertainty float64) *State {
	xv := mat.NewVecDense(4, []float64{x, y, 0, 0})
	p := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		p.Set(i, i, initialUncertainty)
	}
	return &State{X: xv, P: p}
}

// transition returns F(dt), the constant-velocity state transition matrix.
// This is the only place dt enters the dynamics.
func transition(dt float64) *mat.Dense {
	f := mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	return f
}

// processNoise returns Q, the process noise covariance for the given dt and
// noise model. Noise is modeled as independent per position/velocity
// component, scaled by dt so longer coasts accumulate more uncertainty.
func processNoise(dt float64, n NoiseModel) *mat.Dense {
	q := mat.NewDense(4, 4, nil)
	q.Set(0, 0, n.QPos*dt)
	q.Set(1, 1, n.QPos*dt)
	q.Set(2, 2, n.QVel*dt)
	q.Set(3, 3, n.QVel*dt)
	return q
}

// measurementNoise returns R, the 2x2 measurement noise covariance.
func measurementNoise(n NoiseModel) *mat.Dense {
	r := mat.NewDense(2, 2, nil)
	r.Set(0, 0, n.RMeas)
	r.Set(1, 1, n.RMeas)
	return r
}

// observationMatrix returns H, which extracts [x,y] from the 4-vector state.
func observationMatrix() *mat.Dense {
	return mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})
}

// Predict advances s in place by dt: x <- F(dt)x, P <- F P F^T + Q.
// dt must be strictly positive; callers are responsible for rejecting
// non-positive dt before calling Predict.
func (s *State) Predict(dt float64, noise NoiseModel) {
	f := transition(dt)

	var xNew mat.VecDense
	xNew.MulVec(f, s.X)
	s.X = &xNew

	var fp mat.Dense
	fp.Mul(f, s.P)

	var fpft mat.Dense
	fpft.Mul(&fp, f.T())

	q := processNoise(dt, noise)
	var pNew mat.Dense
	pNew.Add(&fpft, q)
	s.P = &pNew
}

// Innovation returns S = H P H^T + R, the innovation covariance used both
// for the Mahalanobis gate and the Kalman gain.
func (s *State) Innovation(noise NoiseModel) *mat.Dense {
	h := observationMatrix()
	var hp mat.Dense
	hp.Mul(h, s.P)
	var hpht mat.Dense
	hpht.Mul(&hp, h.T())

	r := measurementNoise(noise)
	var result mat.Dense
	result.Add(&hpht, r)
	return &result
}

// PredictedPosition returns the [x,y] component of the state vector.
func (s *State) PredictedPosition() (x, y float64) {
	return s.X.AtVec(0), s.X.AtVec(1)
}

// MahalanobisDistance returns the squared Mahalanobis distance between the
// predicted position and a measurement z=[x,y], given innovation
// covariance S. Returns +Inf if S is singular, so a singular covariance is
// always treated as unassociable rather than panicking.
func (s *State) MahalanobisDistance(zx, zy float64, innovation *mat.Dense) float64 {
	px, py := s.PredictedPosition()
	residual := mat.NewVecDense(2, []float64{zx - px, zy - py})

	var sInv mat.Dense
	if err := sInv.Inverse(innovation); err != nil {
		return math.Inf(1)
	}

	var tmp mat.VecDense
	tmp.MulVec(&sInv, residual)

	return mat.Dot(residual, &tmp)
}

// Update applies the standard Kalman measurement update using residual
// (z - Hx) for a matched detection.
func (s *State) Update(zx, zy float64, noise NoiseModel) {
	h := observationMatrix()
	px, py := s.PredictedPosition()
	y := mat.NewVecDense(2, []float64{zx - px, zy - py})

	innovation := s.Innovation(noise)
	var sInv mat.Dense
	if err := sInv.Inverse(innovation); err != nil {
		// Singular innovation covariance: skip the update rather than
		// corrupt the state. Should not happen with a positive-definite R.
		return
	}

	var pht mat.Dense
	pht.Mul(s.P, h.T())

	var k mat.Dense
	k.Mul(&pht, &sInv)

	var ky mat.VecDense
	ky.MulVec(&k, y)

	var xNew mat.VecDense
	xNew.AddVec(s.X, &ky)
	s.X = &xNew

	var kh mat.Dense
	kh.Mul(&k, h)

	identity := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		identity.Set(i, i, 1)
	}
	var imkh mat.Dense
	imkh.Sub(identity, &kh)

	var pNew mat.Dense
	pNew.Mul(&imkh, s.P)
	s.P = &pNew
}
