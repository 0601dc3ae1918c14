// Package classic implements the classical comparison controllers: PID
// feedback on the pole angle, bang-bang switching, and a do-nothing
// baseline
package classic

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/utils/floatutils"
)

// PID drives the pole angle to upright with proportional-integral-
// derivative feedback. The error is the wrapped negated angle, so the
// controller pushes toward the nearest upright position; the setpoint
// argument is ignored.
type PID struct {
	kp, ki, kd float64
	integrator float64
	prev       float64
}

// NewPID returns a PID controller with the given proportional,
// integral, and derivative gains
func NewPID(kp, ki, kd float64) *PID {
	return &PID{kp: kp, ki: ki, kd: kd}
}

// Policy implements controller.Controller
func (p *PID) Policy(state *mat.VecDense, t, dt float64,
	setpoint *mat.VecDense) (float64, controller.Data, error) {
	err := floatutils.WrapPi(-state.AtVec(2))
	errd := (err - p.prev) / dt

	// the integrator accumulates the raw per-tick error
	p.integrator += err
	p.prev = err

	action := p.kp*err + p.ki*p.integrator + p.kd*errd
	return action, controller.Zeros("zeros", controller.StateLabels), nil
}
