package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/kalman"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/utils/matutils"
)

const (
	// bankWindow is the number of trailing observations whose
	// per-dimension variance feeds each filter's measurement noise
	bankWindow = 20

	bankAlpha = 1e-3
	bankBeta  = 2.0
	bankKappa = 2.0
)

// Bank tracks each state dimension with its own scalar unscented
// Kalman filter. Filter i propagates its estimate by folding column i
// of the discrete transition matrix onto the scalar state; the
// measurement noise fed to each update is the trailing-window variance
// of that dimension scaled by a smoothing coefficient.
//
// The filters seed from the first observed state and idle for the
// first two ticks, passing the raw state through while the window
// fills.
type Bank struct {
	filters   []*kalman.UKF
	history   *controller.History
	smoothing float64
	tick      int
}

// NewBank returns a Bank estimator for pend with timestep dt. The
// smoothing coefficient scales every measurement-noise value fed to
// the filters.
func NewBank(pend *pendulum.Pendulum, dt float64,
	smoothing float64) (*Bank, error) {
	if smoothing <= 0 {
		return nil, fmt.Errorf("estimator: smoothing must be positive, "+
			"got %v", smoothing)
	}

	system, err := discretize(pend, dt)
	if err != nil {
		return nil, err
	}

	n := pend.StateDim()
	filters := make([]*kalman.UKF, n)
	for i := 0; i < n; i++ {
		var colSum float64
		for j := 0; j < n; j++ {
			colSum += system.A.At(j, i)
		}

		fx := func(x *mat.VecDense, dt float64) *mat.VecDense {
			return mat.NewVecDense(1, []float64{x.AtVec(0) * colSum})
		}
		hx := func(x *mat.VecDense) *mat.VecDense {
			return mat.VecDenseCopyOf(x)
		}

		points, err := kalman.NewSigmaPoints(1, bankAlpha, bankBeta,
			bankKappa)
		if err != nil {
			return nil, err
		}
		filters[i], err = kalman.New(1, 1, dt, fx, hx, points)
		if err != nil {
			return nil, err
		}
	}

	return &Bank{
		filters:   filters,
		history:   controller.NewHistory(bankWindow),
		smoothing: smoothing,
	}, nil
}

// Policy implements controller.Controller
func (b *Bank) Policy(state *mat.VecDense, t, dt float64,
	setpoint *mat.VecDense) (float64, controller.Data, error) {
	b.history.Append(state)

	if b.tick == 0 {
		for i, filter := range b.filters {
			filter.SetState(mat.NewVecDense(1,
				[]float64{state.AtVec(i)}))
		}
	}

	estimate := mat.VecDenseCopyOf(state)
	if b.tick >= 2 {
		variance := matutils.ColVariance(
			b.history.WindowMatrix(b.tick, bankWindow))
		for i, filter := range b.filters {
			if err := filter.Predict(); err != nil {
				return 0, nil, err
			}

			noise := mat.NewSymDense(1,
				[]float64{variance.AtVec(i) * b.smoothing})
			measurement := mat.NewVecDense(1, []float64{state.AtVec(i)})
			if err := filter.UpdateWithNoise(measurement, noise); err != nil {
				return 0, nil, err
			}
			estimate.SetVec(i, filter.State().AtVec(0))
		}
	}
	b.tick++

	data := controller.FromVec("est", controller.StateLabels, estimate)
	return 0, data, nil
}
