// Package linear provides state-space models and the finite-horizon
// LQR machinery built on them: zero-order-hold discretization of
// continuous systems and the backward Riccati recursion producing
// time-varying feedback gain sequences.
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// System is a continuous-time linear state-space model ẋ = A·x + B·u
type System struct {
	A *mat.Dense // n×n state matrix
	B *mat.Dense // n×m input matrix
}

// NewSystem returns a new System, validating that the dimensions of
// the state and input matrices agree
func NewSystem(a, b *mat.Dense) (*System, error) {
	ar, ac := a.Dims()
	if ar != ac {
		return nil, fmt.Errorf("newSystem: state matrix must be square, "+
			"got (%d x %d)", ar, ac)
	}

	br, _ := b.Dims()
	if br != ar {
		return nil, fmt.Errorf("newSystem: input matrix must have %d rows "+
			"to match the state matrix, got %d", ar, br)
	}

	return &System{a, b}, nil
}

// Discrete is a discrete-time state transition pair x⁺ = A·x + B·u
// obtained by discretizing a continuous System at a fixed timestep
type Discrete struct {
	A  *mat.Dense
	B  *mat.Dense
	Dt float64
}

// Discretize converts the continuous system to a discrete-time
// transition pair under a zero-order hold on the input, by
// exponentiating the augmented block matrix
//
//	[ A B ]
//	[ 0 0 ] · dt
//
// and reading (A_d, B_d) out of its top rows. This form never inverts
// A, so it remains valid for singular state matrices.
func (s *System) Discretize(dt float64) (*Discrete, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("discretize: timestep must be positive, "+
			"got %v", dt)
	}

	n, _ := s.A.Dims()
	_, m := s.B.Dims()

	aug := mat.NewDense(n+m, n+m, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			aug.Set(i, j, s.A.At(i, j)*dt)
		}
		for j := 0; j < m; j++ {
			aug.Set(i, n+j, s.B.At(i, j)*dt)
		}
	}

	var exp mat.Dense
	exp.Exp(aug)

	ad := mat.DenseCopyOf(exp.Slice(0, n, 0, n))
	bd := mat.DenseCopyOf(exp.Slice(0, n, n, n+m))

	return &Discrete{ad, bd, dt}, nil
}

// Dims returns the state and input dimensions of the transition pair
func (d *Discrete) Dims() (n, m int) {
	n, _ = d.A.Dims()
	_, m = d.B.Dims()
	return n, m
}

// Predict returns the one-step prediction A·x + B·u of the next state
// under the discrete model
func (d *Discrete) Predict(state *mat.VecDense, action float64) *mat.VecDense {
	n, _ := d.Dims()

	next := mat.NewVecDense(n, nil)
	next.MulVec(d.A, state)
	for i := 0; i < n; i++ {
		next.SetVec(i, next.AtVec(i)+d.B.At(i, 0)*action)
	}
	return next
}
