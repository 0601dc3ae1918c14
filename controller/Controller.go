// Package controller defines the controller interface consumed by the
// simulation driver and the diagnostic data controllers emit
package controller

import (
	"gonum.org/v1/gonum/mat"
)

// StateLabels labels the four plant state dimensions, in order: cart
// position, cart velocity, pole angle, pole angular velocity
var StateLabels = []string{"x", "xd", "t", "td"}

// Key addresses one column of recorded diagnostic data. Columns are
// grouped by category, so a controller can emit, for example, both an
// estimated and a predicted value under the same label.
type Key struct {
	Category string
	Label    string
}

// Data holds the per-tick diagnostic output of a controller keyed by
// (category, label)
type Data map[Key]float64

// Merge copies all entries of other into d, overwriting duplicates
func (d Data) Merge(other Data) {
	for key, value := range other {
		d[key] = value
	}
}

// FromVec labels the elements of a vector and returns them as Data
// under a common category. The vector and label slice must have equal
// length.
func FromVec(category string, labels []string, values *mat.VecDense) Data {
	data := make(Data, len(labels))
	for i, label := range labels {
		data[Key{category, label}] = values.AtVec(i)
	}
	return data
}

// Zeros returns Data holding a zero value for every label under a
// common category
func Zeros(category string, labels []string) Data {
	data := make(Data, len(labels))
	for _, label := range labels {
		data[Key{category, label}] = 0.0
	}
	return data
}

// Controller computes a horizontal force to apply to the cart from the
// current plant state.
//
// Policy is called once per simulation tick with the current state,
// simulation time, timestep length, and the active setpoint. It returns
// the force along with any diagnostic data the controller wants
// recorded for that tick. Controllers are stateful: a Controller
// instance belongs to exactly one simulation run and is never shared.
type Controller interface {
	Policy(state *mat.VecDense, t, dt float64,
		setpoint *mat.VecDense) (float64, Data, error)
}
