// Package matutils implements utility function for working with mat.Matrix
// structs
package matutils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Format formats a matrix for printing
func Format(X mat.Matrix) string {
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	return fmt.Sprintf("%v", fa)
}

// Eye returns the (n x n) identity matrix
func Eye(n int) *mat.Dense {
	eye := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		eye.Set(i, i, 1.0)
	}
	return eye
}

// Diag returns a square matrix with values along its main diagonal and
// zeros elsewhere
func Diag(values []float64) *mat.Dense {
	d := mat.NewDense(len(values), len(values), nil)
	for i, value := range values {
		d.Set(i, i, value)
	}
	return d
}

// PInv computes the Moore-Penrose pseudo-inverse of a matrix through
// its SVD, zeroing singular values below a small relative tolerance.
// Unlike mat.Dense.Inverse, PInv is well-defined for singular and
// non-square inputs.
func PInv(X mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, fmt.Errorf("pinv: could not factorize matrix")
	}

	values := svd.Values(nil)
	rcond := 1e-15 * float64(max(X.Dims())) * values[0]

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Σ⁺: reciprocal of the significant singular values
	sigmaInv := mat.NewDense(len(values), len(values), nil)
	for i, value := range values {
		if value > rcond {
			sigmaInv.Set(i, i, 1.0/value)
		}
	}

	var tmp, pinv mat.Dense
	tmp.Mul(&v, sigmaInv)
	pinv.Mul(&tmp, u.T())
	return &pinv, nil
}

// VecMean computes and returns the mean of a vector's elements
func VecMean(v *mat.VecDense) float64 {
	return stat.Mean(v.RawVector().Data, nil)
}

// ColMean computes and returns the mean of the columns of a matrix
func ColMean(matrix *mat.Dense) *mat.VecDense {
	r, c := matrix.Dims()
	colMeans := make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, matrix)
		colMeans[j] = stat.Mean(col, nil)
	}
	return mat.NewVecDense(c, colMeans)
}

// ColVariance computes and returns the population variance of the
// columns of a matrix
func ColVariance(matrix *mat.Dense) *mat.VecDense {
	r, c := matrix.Dims()
	colVar := make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, matrix)
		mean := stat.Mean(col, nil)

		var sum float64
		for _, value := range col {
			diff := value - mean
			sum += diff * diff
		}
		colVar[j] = sum / float64(r)
	}
	return mat.NewVecDense(c, colVar)
}

// ColStdDev computes and returns the population standard deviation of
// the columns of a matrix
func ColStdDev(matrix *mat.Dense) *mat.VecDense {
	variance := ColVariance(matrix)

	std := mat.NewVecDense(variance.Len(), nil)
	for i := 0; i < variance.Len(); i++ {
		std.SetVec(i, math.Sqrt(variance.AtVec(i)))
	}
	return std
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
