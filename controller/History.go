package controller

import (
	"gonum.org/v1/gonum/mat"
)

// History records one observation vector per simulation tick and serves
// trailing windows of them to controllers. Retention is bounded by the
// window length given at construction; entries older than that are
// overwritten in place.
type History struct {
	entries []*mat.VecDense
	count   int
}

// NewHistory returns a History able to serve trailing windows of up to
// window entries
func NewHistory(window int) *History {
	return &History{entries: make([]*mat.VecDense, window+1)}
}

// Append records the observation for the next tick. The entry is
// copied, so the caller may reuse its storage.
func (h *History) Append(entry *mat.VecDense) {
	h.entries[h.count%len(h.entries)] = mat.VecDenseCopyOf(entry)
	h.count++
}

// Len returns the total number of entries appended so far
func (h *History) Len() int { return h.count }

// Window returns the entries recorded at ticks [max(tick−window, 1),
// tick), oldest first. The tick-0 entry is never part of a window, so
// the result holds fewer than window entries early in a run. Ticks at
// or past the append count are ignored.
func (h *History) Window(tick, window int) []*mat.VecDense {
	lo := tick - window
	if lo < 1 {
		lo = 1
	}
	if oldest := h.count - len(h.entries); lo < oldest {
		lo = oldest
	}
	hi := tick
	if hi > h.count {
		hi = h.count
	}
	if lo >= hi {
		return nil
	}

	window = hi - lo
	out := make([]*mat.VecDense, window)
	for i := 0; i < window; i++ {
		out[i] = h.entries[(lo+i)%len(h.entries)]
	}
	return out
}

// WindowMatrix stacks the entries of Window(tick, window) as the rows
// of a matrix, oldest first, or returns nil for an empty window
func (h *History) WindowMatrix(tick, window int) *mat.Dense {
	entries := h.Window(tick, window)
	if len(entries) == 0 {
		return nil
	}

	stacked := mat.NewDense(len(entries), entries[0].Len(), nil)
	for i, entry := range entries {
		stacked.SetRow(i, entry.RawVector().Data)
	}
	return stacked
}
