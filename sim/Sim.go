// Package sim implements the simulation driver: the per-tick loop
// coupling a plant with a controller, and batch orchestration of many
// independent runs.
//
// Each tick the driver records the current state, asks the setpoint
// schedule and the force generator for the tick's setpoint and
// external disturbance, calls the controller's policy, records the
// setpoint, the controller's diagnostics, the plant energy, the
// external force, and the action, and finally advances the plant under
// the summed external force and action.
package sim

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/force"
	"github.com/Aaronj1n/pendsim/logging"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/record"
	"github.com/Aaronj1n/pendsim/utils/progressbar"
)

// Schedule returns the setpoint in effect at time t.
type Schedule func(t float64) *mat.VecDense

// Fixed returns a Schedule holding one setpoint for the whole run.
func Fixed(setpoint *mat.VecDense) Schedule {
	target := mat.VecDenseCopyOf(setpoint)
	return func(float64) *mat.VecDense { return target }
}

// MidRunShift returns the default schedule: the origin for the first
// half of the run, then the cart commanded to x = −1.
func MidRunShift(tFinal float64) Schedule {
	first := mat.NewVecDense(pendulum.StateDim, nil)
	second := mat.NewVecDense(pendulum.StateDim, []float64{-1, 0, 0, 0})
	return func(t float64) *mat.VecDense {
		if t < tFinal/2 {
			return first
		}
		return second
	}
}

// Simulation drives pendulum/controller pairs from t = 0 to a final
// time at a fixed timestep.
type Simulation struct {
	dt       float64
	tFinal   float64
	force    force.Generator
	schedule Schedule
	logger   *logging.Logger
	progress bool
}

// New returns a Simulation stepping at dt from 0 to tFinal under the
// external force generator gen. A nil gen applies no external force.
// The setpoint schedule defaults to MidRunShift(tFinal).
func New(dt, tFinal float64, gen force.Generator) (*Simulation, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("sim: timestep must be positive, got %v", dt)
	}
	if tFinal < 0 {
		return nil, fmt.Errorf("sim: final time must be non-negative, "+
			"got %v", tFinal)
	}
	if gen == nil {
		gen = force.Zero()
	}

	return &Simulation{
		dt:       dt,
		tFinal:   tFinal,
		force:    gen,
		schedule: MidRunShift(tFinal),
		logger:   logging.Discard(),
	}, nil
}

// Dt returns the simulation timestep in s.
func (s *Simulation) Dt() float64 { return s.dt }

// TFinal returns the final simulation time in s.
func (s *Simulation) TFinal() float64 { return s.tFinal }

// SetSchedule replaces the setpoint schedule. A nil schedule is
// ignored.
func (s *Simulation) SetSchedule(schedule Schedule) {
	if schedule != nil {
		s.schedule = schedule
	}
}

// SetLogger replaces the batch logger. A nil logger is ignored.
func (s *Simulation) SetLogger(logger *logging.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// ShowProgress enables a terminal progress bar during batch runs.
func (s *Simulation) ShowProgress(show bool) { s.progress = show }

// Times returns the tick times of one run: 0, dt, 2·dt, … up to and
// including the last accumulated time not exceeding tFinal.
func (s *Simulation) Times() []float64 {
	var times []float64
	for t := 0.0; t <= s.tFinal; t += s.dt {
		times = append(times, t)
	}
	return times
}

// Run simulates one pendulum under one controller for the full time
// horizon and returns the recorded table. A controller error aborts
// the run. Run honors ctx cancellation between ticks.
func (s *Simulation) Run(ctx context.Context, pend *pendulum.Pendulum,
	ctrl controller.Controller) (*record.Table, error) {
	if pend == nil {
		return nil, fmt.Errorf("sim: run needs a pendulum")
	}
	if ctrl == nil {
		return nil, fmt.Errorf("sim: run needs a controller")
	}

	table := record.NewTable()
	state := pend.InitialState()
	times := s.Times()

	var bar *progressbar.Manual
	if s.progress {
		bar = progressbar.NewManual(40, len(times), nil)
		defer bar.Close()
	}

	for _, t := range times {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		external := s.force.Force(t)
		setpoint := s.schedule(t)

		action, diagnostics, err := ctrl.Policy(state, t, s.dt, setpoint)
		if err != nil {
			return nil, fmt.Errorf("sim: controller failed at t=%v: %w",
				t, err)
		}

		kinetic, potential, total := pend.Energy(state)

		cells := make([]record.Cell, 0, 13+len(diagnostics))
		cells = append(cells, vecCells("state", state)...)
		cells = append(cells, vecCells("setpoint", setpoint)...)
		cells = append(cells, record.Flatten(diagnostics)...)
		cells = append(cells,
			record.Cell{
				Key:   controller.Key{Category: "energy", Label: "kinetic"},
				Value: kinetic,
			},
			record.Cell{
				Key:   controller.Key{Category: "energy", Label: "potential"},
				Value: potential,
			},
			record.Cell{
				Key:   controller.Key{Category: "energy", Label: "total"},
				Value: total,
			},
			record.Cell{
				Key:   controller.Key{Category: "forces", Label: "forces"},
				Value: external,
			},
			record.Cell{
				Key: controller.Key{
					Category: "control action",
					Label:    "control action",
				},
				Value: action,
			},
		)
		table.Append(t, cells)

		state = pend.Step(s.dt, state, external+action)

		if bar != nil {
			bar.Increment()
			bar.Display()
		}
	}
	return table, nil
}

// vecCells expands a state-shaped vector into one cell per label under
// a shared category.
func vecCells(category string, vec *mat.VecDense) []record.Cell {
	cells := make([]record.Cell, len(controller.StateLabels))
	for i, label := range controller.StateLabels {
		cells[i] = record.Cell{
			Key:   controller.Key{Category: category, Label: label},
			Value: vec.AtVec(i),
		}
	}
	return cells
}
