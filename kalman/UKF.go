package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TransitionFunc propagates a single sigma point through the process
// model over one timestep
type TransitionFunc func(x *mat.VecDense, dt float64) *mat.VecDense

// MeasurementFunc maps a single sigma point into measurement space
type MeasurementFunc func(x *mat.VecDense) *mat.VecDense

// UKF is an unscented Kalman filter over a dim-dimensional state with
// zDim-dimensional measurements. The belief starts at the zero state
// with identity covariance, and the process and measurement noises
// default to identity; callers overwrite whichever of these their
// model prescribes.
//
// A filtering tick is a call to Predict followed by a call to Update;
// Update reuses the sigma points propagated by the preceding Predict.
type UKF struct {
	points *SigmaPoints
	fx     TransitionFunc
	hx     MeasurementFunc
	dt     float64
	dim    int
	zDim   int

	x *mat.VecDense // state estimate
	p *mat.SymDense // state covariance
	q *mat.SymDense // process noise
	r *mat.SymDense // measurement noise

	sigmasF *mat.Dense // propagated points from the last Predict
}

// New returns a new UKF with the given state and measurement
// dimensions, timestep, process and measurement functions, and sigma
// point generator
func New(dim, zDim int, dt float64, fx TransitionFunc, hx MeasurementFunc,
	points *SigmaPoints) (*UKF, error) {
	if dim < 1 || zDim < 1 {
		return nil, fmt.Errorf("ukf: dimensions must be positive, got "+
			"state %d and measurement %d", dim, zDim)
	}
	if fx == nil || hx == nil {
		return nil, fmt.Errorf("ukf: transition and measurement functions " +
			"must both be set")
	}
	if points == nil {
		return nil, fmt.Errorf("ukf: sigma point generator must be set")
	}
	if points.Dim() != dim {
		return nil, fmt.Errorf("ukf: sigma point generator has dimension "+
			"%d, want %d", points.Dim(), dim)
	}

	return &UKF{
		points: points,
		fx:     fx,
		hx:     hx,
		dt:     dt,
		dim:    dim,
		zDim:   zDim,
		x:      mat.NewVecDense(dim, nil),
		p:      eyeSym(dim),
		q:      eyeSym(dim),
		r:      eyeSym(zDim),
	}, nil
}

// State returns a copy of the current state estimate
func (k *UKF) State() *mat.VecDense {
	return mat.VecDenseCopyOf(k.x)
}

// SetState overwrites the current state estimate
func (k *UKF) SetState(x *mat.VecDense) {
	if x.Len() != k.dim {
		panic(fmt.Sprintf("state must have dimension %d, got %d", k.dim,
			x.Len()))
	}
	k.x = mat.VecDenseCopyOf(x)
}

// Covariance returns a copy of the current belief covariance
func (k *UKF) Covariance() *mat.SymDense {
	cov := mat.NewSymDense(k.dim, nil)
	cov.CopySym(k.p)
	return cov
}

// ScaleCovariance multiplies the belief covariance by a scalar. A
// factor below 1 decays confidence accumulated from earlier ticks.
func (k *UKF) ScaleCovariance(c float64) {
	for i := 0; i < k.dim; i++ {
		for j := i; j < k.dim; j++ {
			k.p.SetSym(i, j, c*k.p.At(i, j))
		}
	}
}

// SetProcessNoise overwrites the process noise covariance Q
func (k *UKF) SetProcessNoise(q *mat.SymDense) {
	if q.Symmetric() != k.dim {
		panic(fmt.Sprintf("process noise must be (%d x %d)", k.dim, k.dim))
	}
	cov := mat.NewSymDense(k.dim, nil)
	cov.CopySym(q)
	k.q = cov
}

// SetMeasurementNoise overwrites the measurement noise covariance R
func (k *UKF) SetMeasurementNoise(r *mat.SymDense) {
	if r.Symmetric() != k.zDim {
		panic(fmt.Sprintf("measurement noise must be (%d x %d)", k.zDim,
			k.zDim))
	}
	cov := mat.NewSymDense(k.zDim, nil)
	cov.CopySym(r)
	k.r = cov
}

// Predict propagates the belief through the process model: sigma
// points of the current belief are pushed through the transition
// function and recombined into the prior mean and covariance, with the
// process noise added
func (k *UKF) Predict() error {
	sigmas, err := k.points.Generate(k.x, k.p)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	propagated := mat.NewDense(k.points.Num(), k.dim, nil)
	row := make([]float64, k.dim)
	for i := 0; i < k.points.Num(); i++ {
		mat.Row(row, i, sigmas)
		next := k.fx(mat.NewVecDense(k.dim, row), k.dt)
		if next.Len() != k.dim {
			return fmt.Errorf("predict: transition returned dimension %d, "+
				"want %d", next.Len(), k.dim)
		}
		for j := 0; j < k.dim; j++ {
			propagated.Set(i, j, next.AtVec(j))
		}
	}

	k.x, k.p = unscentedTransform(propagated, k.points.MeanWeights(),
		k.points.CovWeights(), k.q)
	k.sigmasF = propagated
	return nil
}

// Update corrects the belief with measurement z under the stored
// measurement noise
func (k *UKF) Update(z *mat.VecDense) error {
	return k.UpdateWithNoise(z, k.r)
}

// UpdateWithNoise corrects the belief with measurement z under a
// one-off measurement noise covariance r, leaving the stored noise
// untouched. The sigma points propagated by the preceding Predict are
// mapped into measurement space, the innovation covariance and
// state-measurement cross covariance are formed, and the Kalman gain
// folds the innovation into the belief.
func (k *UKF) UpdateWithNoise(z *mat.VecDense, r *mat.SymDense) error {
	if k.sigmasF == nil {
		return fmt.Errorf("update: called before any predict")
	}
	if z.Len() != k.zDim {
		return fmt.Errorf("update: measurement must have dimension %d, "+
			"got %d", k.zDim, z.Len())
	}

	num := k.points.Num()

	measured := mat.NewDense(num, k.zDim, nil)
	row := make([]float64, k.dim)
	for i := 0; i < num; i++ {
		mat.Row(row, i, k.sigmasF)
		zi := k.hx(mat.NewVecDense(k.dim, row))
		if zi.Len() != k.zDim {
			return fmt.Errorf("update: measurement function returned "+
				"dimension %d, want %d", zi.Len(), k.zDim)
		}
		for j := 0; j < k.zDim; j++ {
			measured.Set(i, j, zi.AtVec(j))
		}
	}

	zPred, s := unscentedTransform(measured, k.points.MeanWeights(),
		k.points.CovWeights(), r)

	// Cross covariance Σ wc·(χ_f − x̄)(χ_h − z̄)ᵗ
	wc := k.points.CovWeights()
	crossCov := mat.NewDense(k.dim, k.zDim, nil)
	fResid := mat.NewVecDense(k.dim, nil)
	hResid := mat.NewVecDense(k.zDim, nil)
	fRow := make([]float64, k.dim)
	hRow := make([]float64, k.zDim)
	for i := 0; i < num; i++ {
		mat.Row(fRow, i, k.sigmasF)
		mat.Row(hRow, i, measured)
		fResid.SubVec(mat.NewVecDense(k.dim, fRow), k.x)
		hResid.SubVec(mat.NewVecDense(k.zDim, hRow), zPred)

		next := mat.NewDense(k.dim, k.zDim, nil)
		next.RankOne(crossCov, wc[i], fResid, hResid)
		crossCov = next
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(s); !ok {
		return fmt.Errorf("update: innovation covariance is not positive " +
			"definite")
	}
	var sInv mat.SymDense
	if err := chol.InverseTo(&sInv); err != nil {
		return fmt.Errorf("update: inverting innovation covariance: %w", err)
	}

	var gain mat.Dense
	gain.Mul(crossCov, &sInv)

	innovation := mat.NewVecDense(k.zDim, nil)
	innovation.SubVec(z, zPred)

	correction := mat.NewVecDense(k.dim, nil)
	correction.MulVec(&gain, innovation)
	k.x.AddVec(k.x, correction)

	// P ← P − K S Kᵗ, formed as −(K·Uᵗ)(K·Uᵗ)ᵗ with S = UᵗU so the
	// subtraction stays exactly symmetric
	var u mat.TriDense
	chol.UTo(&u)
	var ku mat.Dense
	ku.Mul(&gain, u.T())

	var negKSK mat.SymDense
	negKSK.SymOuterK(-1, &ku)

	posterior := mat.NewSymDense(k.dim, nil)
	posterior.AddSym(k.p, &negKSK)
	k.p = posterior

	return nil
}

// unscentedTransform recombines sigma points (rows) into a mean and
// covariance using the given weights, adding noise if non-nil
func unscentedTransform(sigmas *mat.Dense, wm, wc []float64,
	noise *mat.SymDense) (*mat.VecDense, *mat.SymDense) {
	num, dim := sigmas.Dims()

	mean := mat.NewVecDense(dim, nil)
	row := make([]float64, dim)
	for i := 0; i < num; i++ {
		mat.Row(row, i, sigmas)
		mean.AddScaledVec(mean, wm[i], mat.NewVecDense(dim, row))
	}

	cov := mat.NewSymDense(dim, nil)
	resid := mat.NewVecDense(dim, nil)
	for i := 0; i < num; i++ {
		mat.Row(row, i, sigmas)
		resid.SubVec(mat.NewVecDense(dim, row), mean)

		next := mat.NewSymDense(dim, nil)
		next.SymRankOne(cov, wc[i], resid)
		cov = next
	}
	if noise != nil {
		next := mat.NewSymDense(dim, nil)
		next.AddSym(cov, noise)
		cov = next
	}
	return mean, cov
}

// eyeSym returns the (n x n) identity as a SymDense
func eyeSym(n int) *mat.SymDense {
	eye := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		eye.SetSym(i, i, 1.0)
	}
	return eye
}
