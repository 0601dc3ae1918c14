package kalman

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearFx returns a transition function applying a fixed matrix
func linearFx(a *mat.Dense) TransitionFunc {
	return func(x *mat.VecDense, dt float64) *mat.VecDense {
		next := mat.NewVecDense(x.Len(), nil)
		next.MulVec(a, x)
		return next
	}
}

func identityHx(x *mat.VecDense) *mat.VecDense {
	return mat.VecDenseCopyOf(x)
}

func TestSigmaPointWeights(t *testing.T) {
	// n=4, alpha=0.001, kappa=0: lambda = 1e-6*4 - 4
	pts, err := NewSigmaPoints(4, 0.001, 2.0, 0)
	require.NoError(t, err)
	require.Equal(t, 9, pts.Num())

	wm := pts.MeanWeights()
	wc := pts.CovWeights()
	assert.InEpsilon(t, -999998.9999712444, wm[0], 1e-9)
	assert.InEpsilon(t, 124999.99999640555, wm[1], 1e-9)
	assert.InEpsilon(t, -999995.9999722444, wc[0], 1e-9)

	var sum float64
	for _, w := range wm {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)

	// n=1, alpha=1e-3, kappa=2: lambda+n = 3e-6
	bank, err := NewSigmaPoints(1, 1e-3, 2.0, 2.0)
	require.NoError(t, err)
	assert.InEpsilon(t, -333332.3333360839, bank.MeanWeights()[0], 1e-9)
	assert.InEpsilon(t, 166666.66666804196, bank.MeanWeights()[1], 1e-9)
}

func TestSigmaPointsSpread(t *testing.T) {
	pts, err := NewSigmaPoints(1, 1e-3, 2.0, 2.0)
	require.NoError(t, err)

	x := mat.NewVecDense(1, []float64{5.0})
	p := mat.NewSymDense(1, []float64{1.0})

	points, err := pts.Generate(x, p)
	require.NoError(t, err)

	// spread = sqrt(n + lambda) = sqrt(3)*1e-3 for unit covariance
	spread := math.Sqrt(3) * 1e-3
	assert.InDelta(t, 5.0, points.At(0, 0), 1e-12)
	assert.InDelta(t, 5.0+spread, points.At(1, 0), 1e-12)
	assert.InDelta(t, 5.0-spread, points.At(2, 0), 1e-12)
}

func TestSigmaPointsRejectNonPD(t *testing.T) {
	pts, err := NewSigmaPoints(2, 0.5, 2.0, 0)
	require.NoError(t, err)

	x := mat.NewVecDense(2, nil)
	notPD := mat.NewSymDense(2, []float64{1, 2, 2, 1})

	_, err = pts.Generate(x, notPD)
	assert.Error(t, err)
}

func TestPredictLinear(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})
	pts, err := NewSigmaPoints(2, 0.5, 2.0, 0)
	require.NoError(t, err)

	kf, err := New(2, 2, 0.1, linearFx(a), identityHx, pts)
	require.NoError(t, err)

	kf.SetState(mat.NewVecDense(2, []float64{1, 2}))
	kf.SetProcessNoise(mat.NewSymDense(2, []float64{0.01, 0, 0, 0.01}))

	require.NoError(t, kf.Predict())

	// The unscented transform is exact for a linear model:
	// x⁻ = A·x, P⁻ = A·P·Aᵗ + Q with P = I
	x := kf.State()
	assert.InDelta(t, 1.2, x.AtVec(0), 1e-9)
	assert.InDelta(t, 2.0, x.AtVec(1), 1e-9)

	p := kf.Covariance()
	assert.InDelta(t, 1.02, p.At(0, 0), 1e-9)
	assert.InDelta(t, 0.1, p.At(0, 1), 1e-9)
	assert.InDelta(t, 1.01, p.At(1, 1), 1e-9)
}

// TestUpdateReusesPropagatedPoints checks the innovation statistics
// against the closed form implied by reusing the points propagated in
// Predict: their spread carries A·P·Aᵗ without the process noise, so
// the gain is (A·P·Aᵗ)/(A·P·Aᵗ + R) even though the prior covariance
// includes Q.
func TestUpdateReusesPropagatedPoints(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{0.97})
	pts, err := NewSigmaPoints(1, 1e-3, 2.0, 2.0)
	require.NoError(t, err)

	kf, err := New(1, 1, 0.01, linearFx(a), identityHx, pts)
	require.NoError(t, err)
	kf.SetState(mat.NewVecDense(1, []float64{1.0}))

	require.NoError(t, kf.Predict())
	assert.InDelta(t, 0.97, kf.State().AtVec(0), 1e-8)
	assert.InDelta(t, 0.97*0.97+1.0, kf.Covariance().At(0, 0), 1e-8)

	noise := mat.NewSymDense(1, []float64{2.0})
	require.NoError(t, kf.UpdateWithNoise(mat.NewVecDense(1,
		[]float64{1.1}), noise))

	spread := 0.97 * 0.97 * 1.0 // A·P·Aᵗ, no Q
	s := spread + 2.0
	gain := spread / s
	wantX := 0.97 + gain*(1.1-0.97)
	wantP := (0.97*0.97 + 1.0) - gain*gain*s

	assert.InDelta(t, wantX, kf.State().AtVec(0), 1e-8)
	assert.InDelta(t, wantP, kf.Covariance().At(0, 0), 1e-8)
}

// TestTinyAlphaMatchesModerateAlpha runs the same linear filtering
// sequence under a moderate and an extreme spread parameter; for a
// linear model the recombined moments must agree.
func TestTinyAlphaMatchesModerateAlpha(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})
	q := mat.NewSymDense(2, []float64{0.01, 0, 0, 0.01})
	z := mat.NewVecDense(2, []float64{1.3, 1.9})
	r := mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5})

	run := func(alpha float64) *mat.VecDense {
		pts, err := NewSigmaPoints(2, alpha, 2.0, 0)
		require.NoError(t, err)
		kf, err := New(2, 2, 0.1, linearFx(a), identityHx, pts)
		require.NoError(t, err)
		kf.SetState(mat.NewVecDense(2, []float64{1, 2}))
		kf.SetProcessNoise(q)
		require.NoError(t, kf.Predict())
		require.NoError(t, kf.UpdateWithNoise(z, r))
		return kf.State()
	}

	moderate := run(0.5)
	tiny := run(0.001)
	assert.InDelta(t, moderate.AtVec(0), tiny.AtVec(0), 1e-6)
	assert.InDelta(t, moderate.AtVec(1), tiny.AtVec(1), 1e-6)
}

func TestUpdateBeforePredictErrors(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{1})
	pts, err := NewSigmaPoints(1, 1e-3, 2.0, 2.0)
	require.NoError(t, err)
	kf, err := New(1, 1, 0.01, linearFx(a), identityHx, pts)
	require.NoError(t, err)

	err = kf.Update(mat.NewVecDense(1, []float64{0.5}))
	assert.Error(t, err)
}

func TestPredictFailsOnNonPDCovariance(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	pts, err := NewSigmaPoints(2, 0.5, 2.0, 0)
	require.NoError(t, err)
	kf, err := New(2, 2, 0.1, linearFx(a), identityHx, pts)
	require.NoError(t, err)

	kf.ScaleCovariance(-1)
	assert.Error(t, kf.Predict())
}

func TestScaleCovariance(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	pts, err := NewSigmaPoints(2, 0.5, 2.0, 0)
	require.NoError(t, err)
	kf, err := New(2, 2, 0.1, linearFx(a), identityHx, pts)
	require.NoError(t, err)

	kf.ScaleCovariance(0.2)
	p := kf.Covariance()
	assert.InDelta(t, 0.2, p.At(0, 0), 1e-15)
	assert.InDelta(t, 0.2, p.At(1, 1), 1e-15)
	assert.InDelta(t, 0.0, p.At(0, 1), 1e-15)
}

func TestNewValidation(t *testing.T) {
	pts, err := NewSigmaPoints(2, 0.5, 2.0, 0)
	require.NoError(t, err)

	_, err = New(0, 1, 0.1, nil, nil, pts)
	assert.Error(t, err)

	a := mat.NewDense(2, 2, nil)
	_, err = New(2, 2, 0.1, linearFx(a), nil, pts)
	assert.Error(t, err)

	// generator dimension must match the filter
	_, err = New(3, 3, 0.1, linearFx(a), identityHx, pts)
	assert.Error(t, err)
}
