// Package force provides external disturbance generators for the
// simulation driver. A Generator maps simulation time to a horizontal
// force on the cart, applied on top of the controller's action.
package force

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator produces an external force in N as a function of
// simulation time in s.
type Generator interface {
	Force(t float64) float64
}

// Func adapts an ordinary function to the Generator interface.
type Func func(t float64) float64

// Force calls f(t).
func (f Func) Force(t float64) float64 { return f(t) }

// Zero returns a Generator that never applies a force.
func Zero() Generator {
	return Func(func(float64) float64 { return 0 })
}

// Constant returns a Generator applying the same force at every time.
func Constant(value float64) Generator {
	return Func(func(float64) float64 { return value })
}

// Step returns a Generator applying magnitude on the interval
// [start, stop) and no force elsewhere.
func Step(start, stop, magnitude float64) Generator {
	return Func(func(t float64) float64 {
		if t >= start && t < stop {
			return magnitude
		}
		return 0
	})
}

// Impulse returns a Generator applying magnitude within width/2 of the
// time at, approximating an impulsive bump of finite duration.
func Impulse(at, width, magnitude float64) Generator {
	return Func(func(t float64) float64 {
		if math.Abs(t-at) <= width/2 {
			return magnitude
		}
		return 0
	})
}

// Sine is a sinusoidal disturbance
//
//	amplitude·sin(2π·frequency·t + phase) + bias
//
// with frequency in Hz and phase in rad.
type Sine struct {
	Amplitude float64
	Frequency float64
	Phase     float64
	Bias      float64
}

// Force evaluates the sinusoid at time t.
func (s Sine) Force(t float64) float64 {
	return s.Amplitude*math.Sin(2*math.Pi*s.Frequency*t+s.Phase) + s.Bias
}

// Composite sums the forces of its member generators.
type Composite []Generator

// Force returns the sum of all member forces at time t.
func (c Composite) Force(t float64) float64 {
	total := 0.0
	for _, g := range c {
		total += g.Force(t)
	}
	return total
}

// Noise draws an independent Gaussian force on every call, regardless
// of t. The draw sequence is deterministic for a fixed seed, so a run
// can be replayed exactly.
type Noise struct {
	dist distuv.Normal
}

// NewNoise returns a Gaussian Noise generator with the given mean and
// standard deviation, seeded with seed.
func NewNoise(mean, stddev float64, seed uint64) (*Noise, error) {
	if stddev < 0 {
		return nil, fmt.Errorf("newnoise: standard deviation must be "+
			"non-negative, got %v", stddev)
	}
	return &Noise{
		dist: distuv.Normal{
			Mu:    mean,
			Sigma: stddev,
			Src:   rand.NewSource(seed),
		},
	}, nil
}

// Force returns the next draw from the noise distribution.
func (n *Noise) Force(float64) float64 {
	return n.dist.Rand()
}
