package classic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
)

func stateWithAngle(theta float64) *mat.VecDense {
	return mat.NewVecDense(4, []float64{0, 0, theta, 0})
}

var origin = mat.NewVecDense(4, nil)

func TestPIDHandComputed(t *testing.T) {
	pid := NewPID(2.0, 0.5, 1.0)

	// err = −0.1, errd = −1, integrator = −0.1
	action, data, err := pid.Policy(stateWithAngle(0.1), 0, 0.1, origin)
	require.NoError(t, err)
	assert.InDelta(t, -1.25, action, 1e-12)
	assert.Equal(t, 0.0, data[controller.Key{Category: "zeros", Label: "t"}])

	// same state again: errd = 0, integrator = −0.2
	action, _, err = pid.Policy(stateWithAngle(0.1), 0.1, 0.1, origin)
	require.NoError(t, err)
	assert.InDelta(t, -0.3, action, 1e-12)
}

func TestPIDWrapsError(t *testing.T) {
	pid := NewPID(1.0, 0, 0)

	// just past hanging: the wrapped error points the short way around
	action, _, err := pid.Policy(stateWithAngle(math.Pi+0.1), 0, 1.0, origin)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi-0.1, action, 1e-12)

	action, _, err = pid.Policy(stateWithAngle(-math.Pi-0.1), 0, 1.0, origin)
	require.NoError(t, err)
	assert.InDelta(t, -(math.Pi - 0.1), action, 1e-12)
}

func TestBangBangSwitching(t *testing.T) {
	bb := NewBangBang(0, 5.0)

	cases := []struct {
		theta float64
		want  float64
	}{
		{0.2, -5.0},  // push back down
		{-0.2, 5.0},  // push back up
		{0.05, 0.0},  // inside the deadband
		{-0.05, 0.0}, // inside the deadband
		{1.0, 0.0},   // beyond the threshold, stay off
		{-1.0, 0.0},  // beyond the threshold, stay off
		{math.Pi / 4, 0.0}, // exactly at the threshold
		{0.7853, -5.0},     // just past the deadband, under the threshold
	}
	for _, c := range cases {
		action, _, err := bb.Policy(stateWithAngle(c.theta), 0, 0.01, origin)
		require.NoError(t, err)
		assert.Equal(t, c.want, action, "theta = %v", c.theta)
	}
}

func TestNoController(t *testing.T) {
	nc := NewNoController()
	action, data, err := nc.Policy(stateWithAngle(2.0), 0, 0.01, origin)
	require.NoError(t, err)
	assert.Zero(t, action)
	assert.Empty(t, data)
}
