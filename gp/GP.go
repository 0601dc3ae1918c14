package gp

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// Regression is a Gaussian process conditioned on a fixed training set.
// It is immutable once fit: refreshing the model on new data means
// fitting a new Regression.
type Regression struct {
	kernel  RBFConstant
	alpha   float64
	train   *mat.Dense
	chol    mat.Cholesky
	weights *mat.VecDense
	lml     float64
}

// Fit conditions a Gaussian process on the rows of x with targets y.
//
// Hyperparameters start from the given kernel and are tuned by
// minimizing the negative log marginal likelihood with a quasi-Newton
// search, repeated from restarts additional starting points drawn
// log-uniformly within the kernel bounds. A search that fails to
// converge is not an error: whichever evaluated candidate scored the
// best likelihood wins. alpha is added to the kernel matrix diagonal as
// observation noise.
func Fit(x *mat.Dense, y *mat.VecDense, kernel RBFConstant, alpha float64,
	restarts int, seed uint64) (*Regression, error) {
	rows, _ := x.Dims()
	if rows < 1 {
		return nil, fmt.Errorf("gp: fit requires at least one sample")
	}
	if y.Len() != rows {
		return nil, fmt.Errorf("gp: got %d samples but %d targets", rows,
			y.Len())
	}
	if alpha < 0 {
		return nil, fmt.Errorf("gp: noise term must be non-negative, got %v",
			alpha)
	}

	negLML := func(theta []float64) float64 {
		value, _, _ := condition(x, y, kernel.withTheta(theta), alpha)
		return value
	}
	problem := optimize.Problem{
		Func: negLML,
		Grad: func(grad, theta []float64) {
			fd.Gradient(grad, negLML, theta, nil)
		},
	}

	bestTheta := kernel.theta()
	bestValue := negLML(bestTheta)

	lo, hi := kernel.logBounds()
	src := rand.NewSource(seed)
	samplers := make([]distuv.Uniform, len(lo))
	for j := range samplers {
		samplers[j] = distuv.Uniform{Min: lo[j], Max: hi[j], Src: src}
	}

	for attempt := 0; attempt <= restarts; attempt++ {
		start := make([]float64, len(bestTheta))
		if attempt == 0 {
			copy(start, kernel.theta())
		} else {
			for j := range start {
				start[j] = samplers[j].Rand()
			}
		}

		if value := negLML(start); value < bestValue {
			bestValue, bestTheta = value, start
		}

		// Non-convergence of a search is tolerated: any point it
		// reached still stands as a candidate.
		result, _ := optimize.Minimize(problem, start, nil,
			&optimize.LBFGS{})
		if result != nil && result.F < bestValue {
			bestValue, bestTheta = result.F, result.X
		}
	}

	if math.IsInf(bestValue, 1) {
		return nil, fmt.Errorf("gp: no candidate kernel produced a " +
			"positive definite covariance")
	}

	fitted := kernel.withTheta(bestTheta)
	_, chol, weights := condition(x, y, fitted, alpha)

	return &Regression{
		kernel:  fitted,
		alpha:   alpha,
		train:   mat.DenseCopyOf(x),
		chol:    *chol,
		weights: weights,
		lml:     -bestValue,
	}, nil
}

// condition factorizes the kernel matrix of x plus noise and solves for
// the posterior weights, returning the negative log marginal likelihood
// of y. A kernel matrix that cannot be factorized scores +Inf.
func condition(x *mat.Dense, y *mat.VecDense, kernel RBFConstant,
	alpha float64) (float64, *mat.Cholesky, *mat.VecDense) {
	rows, _ := x.Dims()

	gram := kernel.Matrix(x)
	for i := 0; i < rows; i++ {
		gram.SetSym(i, i, gram.At(i, i)+alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return math.Inf(1), nil, nil
	}

	weights := mat.NewVecDense(rows, nil)
	// a poor condition report is tolerated, the jitter term keeps the
	// solution usable
	_ = chol.SolveVecTo(weights, y)

	negLML := 0.5*mat.Dot(y, weights) + 0.5*chol.LogDet() +
		0.5*float64(rows)*math.Log(2*math.Pi)
	return negLML, &chol, weights
}

// Predict returns the posterior mean and standard deviation of the
// process at the point z. Round-off can push the posterior variance
// slightly negative, in which case it is clamped to zero.
func (r *Regression) Predict(z *mat.VecDense) (mean, std float64) {
	kvec := r.kernel.Vector(r.train, z)
	mean = mat.Dot(kvec, r.weights)

	solved := mat.NewVecDense(kvec.Len(), nil)
	_ = r.chol.SolveVecTo(solved, kvec)

	variance := r.kernel.Constant - mat.Dot(kvec, solved)
	if variance < 0 {
		variance = 0
	}
	return mean, math.Sqrt(variance)
}

// Kernel returns the kernel with the hyperparameters the fit selected
func (r *Regression) Kernel() RBFConstant { return r.kernel }

// LogMarginalLikelihood returns the log marginal likelihood of the
// training targets under the fitted kernel
func (r *Regression) LogMarginalLikelihood() float64 { return r.lml }
