package lqr

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/gp"
	"github.com/Aaronj1n/pendsim/linear"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/utils/floatutils"
)

const (
	// switchAngle is the wrapped angle beyond which GPR hands control
	// from the LQR gains to the swing-up law
	switchAngle = math.Pi / 4

	// swingUpGain is the energy-pumping gain of the built-in swing-up
	swingUpGain = 50.0

	gpNoise    = 1e-6
	gpRestarts = 10
)

// GPR is the LQR variant backed by a Gaussian-process residual model.
//
// Near upright it applies receding-horizon LQR feedback, farther out
// the energy-shaping swing-up law. Alongside the force it predicts the
// next pole angle two ways: with the discretized linear model alone,
// and corrected by a Gaussian process trained each tick on a trailing
// window of (state, action) history to capture what the linear model
// misses. The corrected prediction and its uncertainty are exposed as
// diagnostics only; they do not alter the applied force.
type GPR struct {
	horizon int
	window  int
	pend    *pendulum.Pendulum
	system  *linear.Discrete
	weights linear.CostWeights
	history *controller.History
	tick    int
	rng     *rand.Rand
}

// NewGPR returns a GPR controller for pend. horizon is the LQR planning
// window, window the number of trailing history entries the residual
// model trains on, qDiag and r the quadratic costs, and seed drives the
// per-tick hyperparameter restarts.
func NewGPR(pend *pendulum.Pendulum, dt float64, horizon, window int,
	qDiag []float64, r float64, seed uint64) (*GPR, error) {
	system, err := discretize(pend, dt)
	if err != nil {
		return nil, err
	}
	if horizon < 1 {
		return nil, fmt.Errorf("lqr: horizon must be at least 1, got %d",
			horizon)
	}
	if window < 1 {
		return nil, fmt.Errorf("lqr: history window must be at least 1, "+
			"got %d", window)
	}
	if len(qDiag) != pend.StateDim() {
		return nil, fmt.Errorf("lqr: need %d state costs, got %d",
			pend.StateDim(), len(qDiag))
	}

	return &GPR{
		horizon: horizon,
		window:  window,
		pend:    pend,
		system:  system,
		weights: linear.NewCostWeights(qDiag, r),
		history: controller.NewHistory(window),
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Policy implements controller.Controller
func (g *GPR) Policy(state *mat.VecDense, t, dt float64,
	setpoint *mat.VecDense) (float64, controller.Data, error) {
	wrapped := floatutils.WrapPi(state.AtVec(2))

	var action float64
	if math.Abs(wrapped) < switchAngle {
		gains, err := linear.GainSchedule(g.system, g.weights, g.horizon)
		if err != nil {
			return 0, nil, err
		}

		var diff, u mat.VecDense
		diff.SubVec(setpoint, state)
		u.MulVec(gains[0], &diff)
		action = -u.AtVec(0)
	} else {
		action = SwingUp(g.pend, state, swingUpGain)
	}

	var mu, sigma float64
	if g.tick > 2 {
		var err error
		mu, sigma, err = g.correction(state, action)
		if err != nil {
			return 0, nil, err
		}
	}

	lpred := g.system.Predict(state, action).AtVec(2)
	data := controller.Data{
		controller.Key{Category: "mu", Label: "t"}:     mu,
		controller.Key{Category: "sigma", Label: "t"}:  sigma,
		controller.Key{Category: "lpred", Label: "t"}:  lpred,
		controller.Key{Category: "nlpred", Label: "t"}: lpred + mu,
	}

	g.tick++
	entry := mat.NewVecDense(pendulum.StateDim+1, nil)
	for i := 0; i < pendulum.StateDim; i++ {
		entry.SetVec(i, state.AtVec(i))
	}
	entry.SetVec(pendulum.StateDim, action)
	g.history.Append(entry)

	return action, data, nil
}

// correction fits the residual model on the current history window and
// predicts the one-step angle residual at (state, action)
func (g *GPR) correction(state *mat.VecDense, action float64) (mu,
	sigma float64, err error) {
	entries := g.history.Window(g.tick, g.window)
	features := g.history.WindowMatrix(g.tick, g.window)

	// each target is the angle observed now minus the angle the linear
	// model predicted from that history entry
	theta := state.AtVec(2)
	targets := mat.NewVecDense(len(entries), nil)
	for i, entry := range entries {
		past := mat.NewVecDense(pendulum.StateDim,
			entry.RawVector().Data[:pendulum.StateDim])
		predicted := g.system.Predict(past, entry.AtVec(pendulum.StateDim))
		targets.SetVec(i, theta-predicted.AtVec(2))
	}

	scaler := gp.FitStandardizer(features)
	model, err := gp.Fit(scaler.Transform(features), targets,
		gp.DefaultKernel(), gpNoise, gpRestarts, g.rng.Uint64())
	if err != nil {
		return 0, 0, err
	}

	point := mat.NewVecDense(pendulum.StateDim+1, nil)
	for i := 0; i < pendulum.StateDim; i++ {
		point.SetVec(i, state.AtVec(i))
	}
	point.SetVec(pendulum.StateDim, action)

	mu, sigma = model.Predict(scaler.TransformVec(point))
	return mu, sigma, nil
}
