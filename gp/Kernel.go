// Package gp implements Gaussian-process regression on a small training
// window. A model is fit from scratch on every call: hyperparameters
// are chosen by maximizing the log marginal likelihood from a number of
// randomly restarted searches, then the posterior is conditioned on the
// window once with the winning kernel.
package gp

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/Aaronj1n/pendsim/utils/floatutils"
)

// RBFConstant is a radial basis function kernel scaled by a constant
// factor,
//
//	k(a, b) = Constant · exp(−‖a−b‖² / (2·LengthScale²))
//
// The bounds restrict where hyperparameter optimization may move each
// parameter.
type RBFConstant struct {
	LengthScale       float64
	Constant          float64
	LengthScaleBounds r1.Interval
	ConstantBounds    r1.Interval
}

// DefaultKernel returns the kernel configuration used by the residual
// corrector: a wide starting length scale with a unit constant factor
func DefaultKernel() RBFConstant {
	return RBFConstant{
		LengthScale:       4.0,
		Constant:          1.0,
		LengthScaleBounds: r1.Interval{Min: 0.5, Max: 50.0},
		ConstantBounds:    r1.Interval{Min: 1e-5, Max: 1e5},
	}
}

// Eval computes the kernel between two feature vectors of equal length
func (k RBFConstant) Eval(a, b *mat.VecDense) float64 {
	return k.eval(a.RawVector().Data, b.RawVector().Data)
}

func (k RBFConstant) eval(a, b []float64) float64 {
	var dist2 float64
	for i := range a {
		diff := a[i] - b[i]
		dist2 += diff * diff
	}
	return k.Constant * math.Exp(-dist2/(2*k.LengthScale*k.LengthScale))
}

// Matrix computes the kernel matrix of the rows of x
func (k RBFConstant) Matrix(x *mat.Dense) *mat.SymDense {
	n, _ := x.Dims()
	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			gram.SetSym(i, j, k.eval(x.RawRowView(i), x.RawRowView(j)))
		}
	}
	return gram
}

// Vector computes the kernel between every row of x and the single
// point z
func (k RBFConstant) Vector(x *mat.Dense, z *mat.VecDense) *mat.VecDense {
	n, _ := x.Dims()
	vec := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		vec.SetVec(i, k.eval(x.RawRowView(i), z.RawVector().Data))
	}
	return vec
}

// theta returns the kernel hyperparameters in log space, the space the
// likelihood search runs in
func (k RBFConstant) theta() []float64 {
	return []float64{math.Log(k.LengthScale), math.Log(k.Constant)}
}

// logBounds returns the hyperparameter bounds in log space
func (k RBFConstant) logBounds() (lo, hi []float64) {
	lo = []float64{
		math.Log(k.LengthScaleBounds.Min),
		math.Log(k.ConstantBounds.Min),
	}
	hi = []float64{
		math.Log(k.LengthScaleBounds.Max),
		math.Log(k.ConstantBounds.Max),
	}
	return lo, hi
}

// withTheta returns a copy of the kernel with hyperparameters taken
// from a log-space vector, projected into the kernel's bounds
func (k RBFConstant) withTheta(theta []float64) RBFConstant {
	next := k
	next.LengthScale = floatutils.ClipInterval(math.Exp(theta[0]),
		k.LengthScaleBounds)
	next.Constant = floatutils.ClipInterval(math.Exp(theta[1]),
		k.ConstantBounds)
	return next
}
