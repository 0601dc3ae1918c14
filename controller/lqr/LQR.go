// Package lqr implements receding-horizon linear-quadratic regulation
// of the pendulum: a plain LQR feedback controller, an energy-shaping
// swing-up law, and a variant that augments the linear model's angle
// prediction with a Gaussian-process residual learned online.
package lqr

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/linear"
	"github.com/Aaronj1n/pendsim/pendulum"
)

// LQR drives the plant toward the setpoint passed each tick with a
// finite-horizon linear-quadratic regulator about the upright
// equilibrium.
//
// The full backward Riccati pass runs again on every tick and only the
// leading gain of the resulting schedule is applied, so the controller
// always acts on the first step of a fresh horizon-length plan.
type LQR struct {
	horizon int
	system  *linear.Discrete
	weights linear.CostWeights
}

// New returns an LQR controller for pend, discretizing its upright
// linearization with timestep dt. qDiag holds the diagonal state costs
// and r the scalar control cost; horizon is the length of the planning
// window solved each tick.
func New(pend *pendulum.Pendulum, dt float64, horizon int, qDiag []float64,
	r float64) (*LQR, error) {
	system, err := discretize(pend, dt)
	if err != nil {
		return nil, err
	}
	if horizon < 1 {
		return nil, fmt.Errorf("lqr: horizon must be at least 1, got %d",
			horizon)
	}
	if len(qDiag) != pend.StateDim() {
		return nil, fmt.Errorf("lqr: need %d state costs, got %d",
			pend.StateDim(), len(qDiag))
	}

	return &LQR{
		horizon: horizon,
		system:  system,
		weights: linear.NewCostWeights(qDiag, r),
	}, nil
}

// Policy implements controller.Controller
func (l *LQR) Policy(state *mat.VecDense, t, dt float64,
	setpoint *mat.VecDense) (float64, controller.Data, error) {
	gains, err := linear.GainSchedule(l.system, l.weights, l.horizon)
	if err != nil {
		return 0, nil, err
	}

	var diff, u mat.VecDense
	diff.SubVec(state, setpoint)
	u.MulVec(gains[0], &diff)

	return u.AtVec(0), controller.Zeros("zeros", controller.StateLabels), nil
}

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
