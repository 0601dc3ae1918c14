// Package estimator implements state-estimating controllers built on
// unscented Kalman filtering. Both variants treat the raw state the
// driver hands them as a noisy measurement, track a filtered belief
// through the discretized linear model, and publish the belief as
// diagnostic data. Neither applies any force: they observe a free or
// externally forced run.
package estimator

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/kalman"
	"github.com/Aaronj1n/pendsim/linear"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/utils/matutils"
)

const (
	// jointWindow is the number of trailing observations whose spread
	// sets the measurement noise
	jointWindow = 10

	// jointDecay shrinks the prior covariance before every predict,
	// keeping the filter responsive to recent measurements
	jointDecay = 0.2

	jointAlpha = 0.001
	jointBeta  = 2.0
	jointKappa = 0.0
)

// Joint tracks the full four-dimensional state with a single unscented
// Kalman filter. Once enough observations accumulate, the measurement
// noise is re-estimated every tick from the per-dimension variance of a
// trailing window.
type Joint struct {
	filter  *kalman.UKF
	history *controller.History
	tick    int
}

// NewJoint returns a Joint estimator for pend with timestep dt
func NewJoint(pend *pendulum.Pendulum, dt float64) (*Joint, error) {
	system, err := discretize(pend, dt)
	if err != nil {
		return nil, err
	}

	n := pend.StateDim()
	points, err := kalman.NewSigmaPoints(n, jointAlpha, jointBeta, jointKappa)
	if err != nil {
		return nil, err
	}

	fx := func(x *mat.VecDense, dt float64) *mat.VecDense {
		next := mat.NewVecDense(n, nil)
		next.MulVec(system.A, x)
		return next
	}
	hx := func(x *mat.VecDense) *mat.VecDense {
		return mat.VecDenseCopyOf(x)
	}

	filter, err := kalman.New(n, n, dt, fx, hx, points)
	if err != nil {
		return nil, err
	}

	return &Joint{
		filter:  filter,
		history: controller.NewHistory(jointWindow),
	}, nil
}

// Policy implements controller.Controller
func (j *Joint) Policy(state *mat.VecDense, t, dt float64,
	setpoint *mat.VecDense) (float64, controller.Data, error) {
	j.history.Append(state)

	if j.tick >= jointWindow {
		variance := matutils.ColVariance(
			j.history.WindowMatrix(j.tick, jointWindow))
		noise := mat.NewSymDense(variance.Len(), nil)
		for i := 0; i < variance.Len(); i++ {
			noise.SetSym(i, i, variance.AtVec(i))
		}
		j.filter.SetMeasurementNoise(noise)
	}

	j.filter.ScaleCovariance(jointDecay)
	if err := j.filter.Predict(); err != nil {
		return 0, nil, err
	}
	if err := j.filter.Update(state); err != nil {
		return 0, nil, err
	}
	j.tick++

	data := controller.FromVec("est", controller.StateLabels,
		j.filter.State())
	return 0, data, nil
}

// Estimate returns the filter's current state belief
func (j *Joint) Estimate() *mat.VecDense { return j.filter.State() }

// discretize linearizes pend about upright and applies the zero-order
// hold for timestep dt
func discretize(pend *pendulum.Pendulum, dt float64) (*linear.Discrete, error) {
	a, b := pend.Linearize()
	system, err := linear.NewSystem(a, b)
	if err != nil {
		return nil, err
	}
	return system.Discretize(dt)
}
