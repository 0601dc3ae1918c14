// Package pendulum implements the cart-mounted inverted pendulum plant
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// Gravity is the default gravitational acceleration
	Gravity float64 = 9.81

	// Default physical parameters
	DefaultCartMass float64 = 1.0 // kg
	DefaultPoleMass float64 = 0.1 // kg
	DefaultLength   float64 = 1.0 // m

	// StateDim is the dimension of the plant state vector
	// (cart position, cart velocity, pole angle, pole angular velocity)
	StateDim int = 4
)

// Pendulum implements a frictionless pendulum mounted on a cart which
// moves horizontally. An external horizontal force on the cart is the
// single input. The pole angle is measured from the upright position,
// so that the state (0, 0, 0, 0) is the unstable upright equilibrium
// and an angle of π is the hanging rest position. Angles are not
// wrapped by the plant; a pole that winds around accumulates angle.
//
// The state features are continuous and consist of the cart's x
// position and velocity, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
type Pendulum struct {
	cartMass  float64
	poleMass  float64
	length    float64
	gravity   float64
	initState *mat.VecDense
}

// New constructs a new Pendulum plant with cart mass cartMass, pole
// point mass poleMass, pole length length, and initial state initState.
// Standard gravity is assumed.
func New(cartMass, poleMass, length float64,
	initState *mat.VecDense) (*Pendulum, error) {
	if cartMass <= 0 || poleMass <= 0 {
		return nil, fmt.Errorf("pendulum: masses must be positive, got "+
			"cart %v and pole %v", cartMass, poleMass)
	}
	if length <= 0 {
		return nil, fmt.Errorf("pendulum: length must be positive, got %v",
			length)
	}
	if initState == nil {
		initState = mat.NewVecDense(StateDim, nil)
	}
	if initState.Len() != StateDim {
		return nil, fmt.Errorf("pendulum: initial state must have %d "+
			"dimensions, got %d", StateDim, initState.Len())
	}

	pend := Pendulum{cartMass, poleMass, length, Gravity,
		mat.VecDenseCopyOf(initState)}
	return &pend, nil
}

// Default constructs a Pendulum with the default physical parameters
// and initial state initState
func Default(initState *mat.VecDense) (*Pendulum, error) {
	return New(DefaultCartMass, DefaultPoleMass, DefaultLength, initState)
}

// CartMass returns the mass of the cart in kg
func (p *Pendulum) CartMass() float64 { return p.cartMass }

// PoleMass returns the point mass at the end of the pole in kg
func (p *Pendulum) PoleMass() float64 { return p.poleMass }

// Length returns the length of the pole in m
func (p *Pendulum) Length() float64 { return p.length }

// Gravity returns the gravitational acceleration in m/s²
func (p *Pendulum) Gravity() float64 { return p.gravity }

// StateDim returns the dimension of the plant state vector
func (p *Pendulum) StateDim() int { return StateDim }

// InitialState returns a copy of the state the plant starts in
func (p *Pendulum) InitialState() *mat.VecDense {
	return mat.VecDenseCopyOf(p.initState)
}

// Derivatives evaluates the nonlinear equations of motion, returning
// the time derivative of the state under the horizontal force force
func (p *Pendulum) Derivatives(state *mat.VecDense,
	force float64) *mat.VecDense {
	validateState(state)

	xd, th, thd := state.AtVec(1), state.AtVec(2), state.AtVec(3)
	M, m, l, g := p.cartMass, p.poleMass, p.length, p.gravity

	sinTheta := math.Sin(th)
	cosTheta := math.Cos(th)

	// Both accelerations share the denominator M + m·sin²θ
	denom := M + m*sinTheta*sinTheta

	xAcc := (force + m*l*thd*thd*sinTheta - m*g*sinTheta*cosTheta) / denom
	thAcc := (-force*cosTheta - m*l*thd*thd*sinTheta*cosTheta +
		(M+m)*g*sinTheta) / (l * denom)

	return mat.NewVecDense(StateDim, []float64{xd, xAcc, thd, thAcc})
}

// Step advances the state by one timestep of length dt under constant
// horizontal force force, integrating the nonlinear dynamics with a
// fourth-order Runge-Kutta scheme, and returns the next state
func (p *Pendulum) Step(dt float64, state *mat.VecDense,
	force float64) *mat.VecDense {
	validateState(state)

	k1 := p.Derivatives(state, force)
	k2 := p.Derivatives(eulerStep(state, k1, dt/2), force)
	k3 := p.Derivatives(eulerStep(state, k2, dt/2), force)
	k4 := p.Derivatives(eulerStep(state, k3, dt), force)

	next := mat.NewVecDense(StateDim, nil)
	for i := 0; i < StateDim; i++ {
		increment := (k1.AtVec(i) + 2*k2.AtVec(i) + 2*k3.AtVec(i) +
			k4.AtVec(i)) / 6.0
		next.SetVec(i, state.AtVec(i)+dt*increment)
	}
	return next
}

// Linearize returns the continuous-time state-space pair (A, B) of the
// plant linearized about the upright equilibrium, such that near
// (0, 0, 0, 0) the dynamics are approximately ẋ = A·x + B·u
func (p *Pendulum) Linearize() (*mat.Dense, *mat.Dense) {
	M, m, l, g := p.cartMass, p.poleMass, p.length, p.gravity

	a := mat.NewDense(StateDim, StateDim, []float64{
		0, 1, 0, 0,
		0, 0, -m * g / M, 0,
		0, 0, 0, 1,
		0, 0, (M + m) * g / (M * l), 0,
	})
	b := mat.NewDense(StateDim, 1, []float64{
		0,
		1 / M,
		0,
		-1 / (M * l),
	})
	return a, b
}

// Energy computes the mechanical energy of the plant in a given state,
// returning the kinetic, potential, and total energy. Potential energy
// is measured relative to the hanging rest position, so it is maximal
// (2·m·g·l) upright and zero at the bottom.
func (p *Pendulum) Energy(state *mat.VecDense) (kinetic, potential,
	total float64) {
	validateState(state)

	xd, th, thd := state.AtVec(1), state.AtVec(2), state.AtVec(3)
	M, m, l, g := p.cartMass, p.poleMass, p.length, p.gravity

	kinetic = 0.5*M*xd*xd +
		0.5*m*(xd*xd+2*xd*l*thd*math.Cos(th)+l*l*thd*thd)
	potential = m * g * l * (1 + math.Cos(th))
	return kinetic, potential, kinetic + potential
}

func (p *Pendulum) String() string {
	msg := "Pendulum  |  Cart Mass: %v  |  Pole Mass: %v  |  Length: %v"
	return fmt.Sprintf(msg, p.cartMass, p.poleMass, p.length)
}

// eulerStep returns state + scale * derivative without modifying its
// arguments
func eulerStep(state, derivative *mat.VecDense, scale float64) *mat.VecDense {
	next := mat.NewVecDense(StateDim, nil)
	next.AddScaledVec(state, scale, derivative)
	return next
}

// validateState ensures that a state vector has the dimensions of the
// plant state
func validateState(state *mat.VecDense) {
	if state.Len() != StateDim {
		panic(fmt.Sprintf("state must have %d dimensions, got %d",
			StateDim, state.Len()))
	}
}
