package gp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/utils/matutils"
)

// Standardizer centers features to zero mean and scales them to unit
// variance, column by column. A column with zero spread keeps a unit
// scale so that constant features pass through centered but unscaled.
type Standardizer struct {
	mean  *mat.VecDense
	scale *mat.VecDense
}

// FitStandardizer computes column statistics from the rows of x
func FitStandardizer(x *mat.Dense) *Standardizer {
	mean := matutils.ColMean(x)
	scale := matutils.ColStdDev(x)
	for i := 0; i < scale.Len(); i++ {
		if scale.AtVec(i) == 0 {
			scale.SetVec(i, 1.0)
		}
	}
	return &Standardizer{mean: mean, scale: scale}
}

// Transform returns a standardized copy of x
func (s *Standardizer) Transform(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (x.At(i, j)-s.mean.AtVec(j))/s.scale.AtVec(j))
		}
	}
	return out
}

// TransformVec returns a standardized copy of a single feature vector
func (s *Standardizer) TransformVec(z *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(z.Len(), nil)
	for i := 0; i < z.Len(); i++ {
		out.SetVec(i, (z.AtVec(i)-s.mean.AtVec(i))/s.scale.AtVec(i))
	}
	return out
}
