package linear

import (
	"fmt"

	"github.com/Aaronj1n/pendsim/utils/matutils"
	"gonum.org/v1/gonum/mat"
)

// CostWeights holds the quadratic cost matrices of a finite-horizon
// LQR problem: a diagonal positive semi-definite state cost Q and a
// positive definite control cost R. Immutable once constructed.
type CostWeights struct {
	Q *mat.Dense
	R *mat.Dense
}

// NewCostWeights builds CostWeights from the diagonal entries of Q and
// a scalar control cost r
func NewCostWeights(qDiag []float64, r float64) CostWeights {
	return CostWeights{matutils.Diag(qDiag), mat.NewDense(1, 1, []float64{r})}
}

// Riccati runs the backward cost-to-go recursion over a fixed horizon,
// returning the trace P[0..horizon] with boundary P[horizon] = Q:
//
//	P[k-1] = AᵗP[k]A − AᵗP[k]B (R + BᵗP[k]B)⁻¹ BᵗP[k]A
//
// The inverse of (R + BᵗP[k]B) is taken as a pseudo-inverse so that a
// near-singular term degrades gracefully instead of failing the tick.
func Riccati(sys *Discrete, weights CostWeights, horizon int) ([]*mat.Dense, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("riccati: horizon must be at least 1, got %d",
			horizon)
	}
	n, m := sys.Dims()
	if qr, qc := weights.Q.Dims(); qr != n || qc != n {
		return nil, fmt.Errorf("riccati: Q must be (%d x %d), got (%d x %d)",
			n, n, qr, qc)
	}
	if rr, rc := weights.R.Dims(); rr != m || rc != m {
		return nil, fmt.Errorf("riccati: R must be (%d x %d), got (%d x %d)",
			m, m, rr, rc)
	}

	trace := make([]*mat.Dense, horizon+1)
	trace[horizon] = mat.DenseCopyOf(weights.Q)

	for k := horizon; k > 0; k-- {
		p := trace[k]

		var atp, atpa, atpb, btp, btpa, btpb mat.Dense
		atp.Mul(sys.A.T(), p)
		atpa.Mul(&atp, sys.A)
		atpb.Mul(&atp, sys.B)
		btp.Mul(sys.B.T(), p)
		btpa.Mul(&btp, sys.A)
		btpb.Mul(&btp, sys.B)

		var gram mat.Dense
		gram.Add(weights.R, &btpb)
		gramInv, err := matutils.PInv(&gram)
		if err != nil {
			return nil, fmt.Errorf("riccati: step %d: %w", k, err)
		}

		var tmp, correction, next mat.Dense
		tmp.Mul(&atpb, gramInv)
		correction.Mul(&tmp, &btpa)
		next.Sub(&atpa, &correction)

		trace[k-1] = &next
	}
	return trace, nil
}

// Gains derives the feedback gain sequence K[0..horizon-1] from a
// cost-to-go trace, where
//
//	K[i] = −(R + BᵗP[i+1]B)⁻¹ BᵗP[i+1]A
//
// Under a receding horizon only K[0] is ever applied; callers discard
// the rest of the schedule and re-solve on the next tick.
func Gains(sys *Discrete, weights CostWeights, trace []*mat.Dense) ([]*mat.Dense, error) {
	if len(trace) < 2 {
		return nil, fmt.Errorf("gains: cost-to-go trace must have at least "+
			"2 entries, got %d", len(trace))
	}

	gains := make([]*mat.Dense, len(trace)-1)
	for i := range gains {
		p := trace[i+1]

		var btp, btpa, btpb mat.Dense
		btp.Mul(sys.B.T(), p)
		btpa.Mul(&btp, sys.A)
		btpb.Mul(&btp, sys.B)

		var gram mat.Dense
		gram.Add(weights.R, &btpb)
		gramInv, err := matutils.PInv(&gram)
		if err != nil {
			return nil, fmt.Errorf("gains: step %d: %w", i, err)
		}

		var k mat.Dense
		k.Mul(gramInv, &btpa)
		k.Scale(-1, &k)
		gains[i] = &k
	}
	return gains, nil
}

// GainSchedule runs the full backward pass for the given horizon and
// returns the gain sequence it induces
func GainSchedule(sys *Discrete, weights CostWeights, horizon int) ([]*mat.Dense, error) {
	trace, err := Riccati(sys, weights, horizon)
	if err != nil {
		return nil, err
	}
	return Gains(sys, weights, trace)
}
