// Package progressbar implements a terminal progress bar for tracking
// batches of concurrent simulation runs.
package progressbar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ProgressBar renders a single-line terminal progress bar. Workers
// call Increment as units of work complete; a render goroutine owns
// the counter, so a ProgressBar is safe for concurrent use.
type ProgressBar struct {
	width int
	total int
	out   io.Writer

	increments chan struct{}
	quit       chan struct{}
	done       chan struct{}
}

// New returns a ProgressBar width characters wide that reaches 100%
// after total Increment calls. A nil out renders to stdout.
func New(width, total int, out io.Writer) *ProgressBar {
	if out == nil {
		out = os.Stdout
	}
	if width < 1 {
		width = 1
	}
	if total < 1 {
		total = 1
	}
	return &ProgressBar{
		width:      width,
		total:      total,
		out:        out,
		increments: make(chan struct{}, total),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Display starts rendering the bar, redrawing on every increment and
// every refresh interval until Close is called.
func (bar *ProgressBar) Display(refresh time.Duration) {
	go bar.render(refresh)
}

// Increment records one completed unit of work. It never blocks.
func (bar *ProgressBar) Increment() {
	select {
	case bar.increments <- struct{}{}:
	default:
	}
}

// Close stops rendering, draws the final state, and moves the cursor
// past the bar. Close must be called exactly once, after Display.
func (bar *ProgressBar) Close() {
	close(bar.quit)
	<-bar.done
	fmt.Fprintln(bar.out)
}

func (bar *ProgressBar) render(refresh time.Duration) {
	defer close(bar.done)

	tick := time.NewTicker(refresh)
	defer tick.Stop()

	start := time.Now()
	count := 0
	for {
		select {
		case <-bar.increments:
			if count < bar.total {
				count++
			}

		case <-tick.C:

		case <-bar.quit:
			// Drain pending increments so the final draw is accurate
			for {
				select {
				case <-bar.increments:
					if count < bar.total {
						count++
					}
				default:
					bar.draw(count, time.Since(start))
					return
				}
			}
		}
		bar.draw(count, time.Since(start))
	}
}

func (bar *ProgressBar) draw(count int, elapsed time.Duration) {
	drawBar(bar.out, bar.width, bar.total, count, elapsed)
}

// drawBar redraws a bar in place on the current terminal line.
func drawBar(out io.Writer, width, total, count int, elapsed time.Duration) {
	var b strings.Builder
	b.WriteString("|")

	filled := int(float64(count) / float64(total) * float64(width))
	for i := 0; i < width; i++ {
		if i < filled {
			b.WriteString("█")
		} else {
			b.WriteString(" ")
		}
	}
	fmt.Fprintf(&b, "| [%.2f%% | elapsed: %v]",
		float64(count)/float64(total)*100,
		elapsed.Round(time.Second))

	fmt.Fprintf(out, "\r\033[K%s", b.String())
}
