package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func entry(v float64) *mat.VecDense {
	return mat.NewVecDense(2, []float64{v, -v})
}

func TestWindowExcludesFirstEntry(t *testing.T) {
	h := NewHistory(10)
	for tick := 0; tick < 5; tick++ {
		h.Append(entry(float64(tick)))
	}

	// a window wider than the history drops only the tick-0 entry
	window := h.Window(5, 10)
	require.Len(t, window, 4)
	assert.Equal(t, 1.0, window[0].AtVec(0))
	assert.Equal(t, 4.0, window[3].AtVec(0))
}

func TestWindowTrailing(t *testing.T) {
	h := NewHistory(3)
	for tick := 0; tick < 30; tick++ {
		h.Append(entry(float64(tick)))
	}

	// entries for ticks [27, 30), oldest first
	window := h.Window(30, 3)
	require.Len(t, window, 3)
	assert.Equal(t, 27.0, window[0].AtVec(0))
	assert.Equal(t, 28.0, window[1].AtVec(0))
	assert.Equal(t, 29.0, window[2].AtVec(0))

	// window taken before the current tick's entry is appended
	window = h.Window(30, 2)
	require.Len(t, window, 2)
	assert.Equal(t, 28.0, window[0].AtVec(0))
}

func TestWindowEarlyTicks(t *testing.T) {
	h := NewHistory(10)
	assert.Nil(t, h.Window(0, 10))

	h.Append(entry(0))
	assert.Nil(t, h.Window(1, 10), "only the excluded tick-0 entry exists")

	h.Append(entry(1))
	window := h.Window(2, 10)
	require.Len(t, window, 1)
	assert.Equal(t, 1.0, window[0].AtVec(0))
}

func TestWindowMatrix(t *testing.T) {
	h := NewHistory(5)
	for tick := 0; tick < 4; tick++ {
		h.Append(entry(float64(tick)))
	}

	stacked := h.WindowMatrix(4, 5)
	require.NotNil(t, stacked)
	rows, cols := stacked.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 1.0, stacked.At(0, 0))
	assert.Equal(t, -3.0, stacked.At(2, 1))

	assert.Nil(t, h.WindowMatrix(0, 5))
}

func TestAppendCopies(t *testing.T) {
	h := NewHistory(4)
	v := entry(1)
	h.Append(entry(0))
	h.Append(v)
	v.SetVec(0, 99)

	window := h.Window(2, 4)
	require.Len(t, window, 1)
	assert.Equal(t, 1.0, window[0].AtVec(0))
}

func TestDataMerge(t *testing.T) {
	d := Zeros("zeros", StateLabels)
	assert.Len(t, d, 4)
	assert.Equal(t, 0.0, d[Key{"zeros", "x"}])

	d.Merge(FromVec("est", []string{"x", "xd"},
		mat.NewVecDense(2, []float64{1.5, -0.5})))
	assert.Len(t, d, 6)
	assert.Equal(t, 1.5, d[Key{"est", "x"}])
	assert.Equal(t, -0.5, d[Key{"est", "xd"}])
}
