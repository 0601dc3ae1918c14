package floatutils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(2.0, -1.0, 1.0))
	assert.Equal(t, -1.0, Clip(-2.0, -1.0, 1.0))
	assert.Equal(t, 0.5, Clip(0.5, -1.0, 1.0))

	interval := r1.Interval{Min: 0.0, Max: 10.0}
	assert.Equal(t, 10.0, ClipInterval(11.0, interval))
	assert.Equal(t, 0.0, ClipInterval(-3.0, interval))
}

func TestWrapPi(t *testing.T) {
	assert.InDelta(t, 0.0, WrapPi(0.0), 1e-12)
	assert.InDelta(t, 0.0, WrapPi(2*math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi, WrapPi(math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi+0.1, WrapPi(math.Pi+0.1), 1e-12)
	assert.InDelta(t, math.Pi-0.1, WrapPi(-math.Pi-0.1), 1e-12)
	assert.InDelta(t, 0.5, WrapPi(0.5+6*math.Pi), 1e-12)

	// Wrapped angles always land in [-π, π)
	for angle := -20.0; angle < 20.0; angle += 0.173 {
		wrapped := WrapPi(angle)
		assert.GreaterOrEqual(t, wrapped, -math.Pi)
		assert.Less(t, wrapped, math.Pi)
	}
}

func TestSign(t *testing.T) {
	assert.Equal(t, 1.0, Sign(3.2))
	assert.Equal(t, -1.0, Sign(-0.001))
	assert.Equal(t, 0.0, Sign(0.0))
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, -4.0, Min(3.0, -4.0, 0.0))
	assert.Equal(t, 3.0, Max(3.0, -4.0, 0.0))
}
