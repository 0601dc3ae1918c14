package progressbar

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Manual renders a single-line terminal progress bar driven entirely
// by its caller: every Display call redraws the bar in place. Unlike
// ProgressBar it runs no goroutine, so it suits a loop that already
// owns the terminal between ticks.
type Manual struct {
	width int
	total int
	count int
	out   io.Writer
	start time.Time
}

// NewManual returns a Manual bar width characters wide that reaches
// 100% after total Increment calls. A nil out renders to stdout.
func NewManual(width, total int, out io.Writer) *Manual {
	if out == nil {
		out = os.Stdout
	}
	if width < 1 {
		width = 1
	}
	if total < 1 {
		total = 1
	}
	return &Manual{width: width, total: total, out: out, start: time.Now()}
}

// Increment records one completed unit of work, saturating at total.
func (m *Manual) Increment() {
	if m.count < m.total {
		m.count++
	}
}

// Display redraws the bar on the current terminal line.
func (m *Manual) Display() {
	drawBar(m.out, m.width, m.total, m.count, time.Since(m.start))
}

// Close ends the bar's line. Call it once, after the final Display.
func (m *Manual) Close() {
	fmt.Fprintln(m.out)
}
