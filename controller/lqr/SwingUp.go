package lqr

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/utils/floatutils"
)

// SwingUp computes the energy-shaping swing-up force for a state far
// from upright. The pole's mechanical energy relative to the upright
// equilibrium is normalized by its span 2·m·g·l,
//
//	β = m·g·l·(cos θ − 1) / (2·m·g·l)
//
// and the force −gain·β·sign(θ̇·cos θ) pumps energy into the swing
// until the pole can reach the top. A pure function of the
// instantaneous state: at rest at the bottom the output vanishes.
func SwingUp(pend *pendulum.Pendulum, state *mat.VecDense, gain float64) float64 {
	theta, thetaDot := state.AtVec(2), state.AtVec(3)
	m, g, l := pend.PoleMass(), pend.Gravity(), pend.Length()

	norm := 2 * m * g * l
	energy := m * g * l * (math.Cos(theta) - 1)
	beta := energy / norm

	return -gain * beta * floatutils.Sign(thetaDot*math.Cos(theta))
}
