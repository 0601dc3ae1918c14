package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/record"
	"github.com/Aaronj1n/pendsim/utils/intutils"
	"github.com/Aaronj1n/pendsim/utils/progressbar"
)

// Workers is the number of runs a batch executes concurrently.
const Workers int = 16

// RunMany simulates every pendulum/controller pair over a bounded
// worker pool and returns the recorded tables in pair order. Runs are
// independent: each controller owns its own history and model state,
// so no locking is shared between them. The first run error cancels
// the remaining runs and fails the batch.
func (s *Simulation) RunMany(ctx context.Context,
	pends []*pendulum.Pendulum,
	ctrls []controller.Controller) ([]*record.Table, error) {
	if len(pends) != len(ctrls) {
		return nil, fmt.Errorf("sim: pendulums and controllers must have "+
			"the same length, got %d pendulums and %d controllers",
			len(pends), len(ctrls))
	}
	n := len(pends)
	if n == 0 {
		return nil, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Infof("simulating %d runs", n)
	start := time.Now()

	var bar *progressbar.ProgressBar
	if s.progress {
		bar = progressbar.New(40, n, nil)
		bar.Display(time.Second)
	}

	workers := intutils.Min(Workers, n)

	jobs := make(chan int)
	tables := make([]*record.Table, n)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		firstRun int
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				table, err := s.Run(runCtx, pends[i], ctrls[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr, firstRun = err, i
						cancel()
					}
					mu.Unlock()
				} else {
					tables[i] = table
				}
				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if bar != nil {
		bar.Close()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, fmt.Errorf("sim: run %d: %w", firstRun, firstErr)
	}

	s.logger.Infof("finished %d runs in %v", n,
		time.Since(start).Round(time.Millisecond))
	return tables, nil
}
