package force

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroAndConstant(t *testing.T) {
	zero := Zero()
	constant := Constant(-2.5)

	for _, tm := range []float64{0, 0.5, 100} {
		assert.Zero(t, zero.Force(tm))
		assert.Equal(t, -2.5, constant.Force(tm))
	}
}

func TestStepBoundaries(t *testing.T) {
	step := Step(1.0, 2.0, 3.0)

	assert.Zero(t, step.Force(0.99))
	assert.Equal(t, 3.0, step.Force(1.0)) // start is inclusive
	assert.Equal(t, 3.0, step.Force(1.5))
	assert.Zero(t, step.Force(2.0)) // stop is exclusive
	assert.Zero(t, step.Force(2.5))
}

func TestImpulseWindow(t *testing.T) {
	impulse := Impulse(1.0, 0.2, 5.0)

	assert.Zero(t, impulse.Force(0.85))
	assert.Equal(t, 5.0, impulse.Force(0.9))
	assert.Equal(t, 5.0, impulse.Force(1.0))
	assert.Equal(t, 5.0, impulse.Force(1.05))
	assert.Zero(t, impulse.Force(1.15))
}

func TestSine(t *testing.T) {
	s := Sine{Amplitude: 2.0, Frequency: 0.5, Phase: math.Pi / 6, Bias: 1.0}
	assert.InEpsilon(t, 2.9318516525781364, s.Force(0.25), 1e-12)

	plain := Sine{Amplitude: 0.5, Frequency: 2.0}
	assert.Zero(t, plain.Force(0))
	assert.InEpsilon(t, 0.47552825814757677, plain.Force(0.1), 1e-12)
}

func TestComposite(t *testing.T) {
	c := Composite{
		Constant(1.0),
		Step(0.5, 1.5, 2.0),
		Zero(),
	}

	assert.Equal(t, 1.0, c.Force(0.0))
	assert.Equal(t, 3.0, c.Force(1.0))
	assert.Equal(t, 1.0, c.Force(2.0))
	assert.Zero(t, Composite{}.Force(1.0))
}

func TestNoiseDeterministic(t *testing.T) {
	first, err := NewNoise(0.0, 1.0, 42)
	require.NoError(t, err)
	second, err := NewNoise(0.0, 1.0, 42)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first.Force(0), second.Force(0))
	}
}

func TestNoiseMoments(t *testing.T) {
	noise, err := NewNoise(1.0, 0.5, 7)
	require.NoError(t, err)

	const n = 10000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		draw := noise.Force(0)
		sum += draw
		sumSq += draw * draw
	}
	mean := sum / n
	variance := sumSq/n - mean*mean

	assert.InDelta(t, 1.0, mean, 0.05)
	assert.InDelta(t, 0.25, variance, 0.05)
}

func TestNoiseValidation(t *testing.T) {
	_, err := NewNoise(0.0, -1.0, 1)
	assert.Error(t, err)
}
