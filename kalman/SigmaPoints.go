// Package kalman implements unscented Kalman filtering over gonum
// matrices. A filter propagates a Gaussian belief through arbitrary
// transition and measurement functions by deterministic sampling of
// sigma points in the Van der Merwe scaled formulation, avoiding the
// Jacobians an extended filter would need.
package kalman

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SigmaPoints generates Van der Merwe scaled sigma points and the
// weights to recombine them. For an n-dimensional belief it produces
// 2n+1 points: the mean, and one pair along each column of the
// covariance square root.
//
// The scaling constants control the spread of the points around the
// mean: alpha sets the overall spread (usually small, e.g. 1e-3),
// beta folds in prior knowledge of the distribution (2 is optimal for
// Gaussians), and kappa is a secondary scaling parameter (0 or 3-n
// are common choices).
type SigmaPoints struct {
	n      int
	lambda float64
	wm     []float64
	wc     []float64
}

// NewSigmaPoints returns a SigmaPoints generator for n-dimensional
// beliefs with the given scaling constants
func NewSigmaPoints(n int, alpha, beta, kappa float64) (*SigmaPoints, error) {
	if n < 1 {
		return nil, fmt.Errorf("sigma points: dimension must be positive, "+
			"got %d", n)
	}

	lambda := alpha*alpha*(float64(n)+kappa) - float64(n)
	c := float64(n) + lambda
	if c <= 0 {
		return nil, fmt.Errorf("sigma points: scaling must satisfy "+
			"n + λ > 0, got %v", c)
	}

	wm := make([]float64, 2*n+1)
	wc := make([]float64, 2*n+1)
	wm[0] = lambda / c
	wc[0] = lambda/c + 1 - alpha*alpha + beta
	for i := 1; i <= 2*n; i++ {
		wm[i] = 1 / (2 * c)
		wc[i] = 1 / (2 * c)
	}

	return &SigmaPoints{n, lambda, wm, wc}, nil
}

// Dim returns the dimension of beliefs the generator operates on
func (s *SigmaPoints) Dim() int { return s.n }

// Num returns the number of sigma points generated per belief
func (s *SigmaPoints) Num() int { return 2*s.n + 1 }

// MeanWeights returns the weights recombining sigma points into a mean
func (s *SigmaPoints) MeanWeights() []float64 { return s.wm }

// CovWeights returns the weights recombining sigma point residuals
// into a covariance
func (s *SigmaPoints) CovWeights() []float64 { return s.wc }

// Generate computes the sigma points of the belief (x, p) and returns
// them as the rows of a (2n+1 × n) matrix. The covariance square root
// is taken by Cholesky factorization, so p must be positive definite.
func (s *SigmaPoints) Generate(x *mat.VecDense, p *mat.SymDense) (*mat.Dense, error) {
	if x.Len() != s.n {
		return nil, fmt.Errorf("sigma points: belief mean must have "+
			"dimension %d, got %d", s.n, x.Len())
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(p); !ok {
		return nil, fmt.Errorf("sigma points: covariance is not positive " +
			"definite")
	}
	var u mat.TriDense
	chol.UTo(&u)

	scale := math.Sqrt(float64(s.n) + s.lambda)

	points := mat.NewDense(2*s.n+1, s.n, nil)
	for j := 0; j < s.n; j++ {
		points.Set(0, j, x.AtVec(j))
	}
	for k := 0; k < s.n; k++ {
		for j := 0; j < s.n; j++ {
			offset := scale * u.At(k, j)
			points.Set(k+1, j, x.AtVec(j)+offset)
			points.Set(s.n+k+1, j, x.AtVec(j)-offset)
		}
	}
	return points, nil
}
