package classic

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
)

const (
	// bangBangDeadband is the angle error below which BangBang stays off
	bangBangDeadband = 0.1

	// bangBangThreshold is the angle beyond which BangBang stops
	// pushing rather than accelerate a fall
	bangBangThreshold = math.Pi / 4
)

// BangBang switches a fixed-magnitude force on and off based on the
// pole angle error relative to a fixed angular setpoint
type BangBang struct {
	setpoint  float64
	magnitude float64
}

// NewBangBang returns a BangBang controller pushing with force
// magnitude toward the pole angle setpoint
func NewBangBang(setpoint, magnitude float64) *BangBang {
	return &BangBang{setpoint: setpoint, magnitude: magnitude}
}

// Policy implements controller.Controller
func (b *BangBang) Policy(state *mat.VecDense, t, dt float64,
	setpoint *mat.VecDense) (float64, controller.Data, error) {
	theta := state.AtVec(2)
	err := theta - b.setpoint

	var action float64
	switch {
	case err > bangBangDeadband && theta < bangBangThreshold:
		action = -b.magnitude
	case err < -bangBangDeadband && theta > -bangBangThreshold:
		action = b.magnitude
	}

	return action, controller.Zeros("zeros", controller.StateLabels), nil
}
