// Package config loads YAML run descriptions and builds the simulation
// objects they name: the plant, the controller variant, the external
// force, the driver, and the batch starting-state distribution.
// Unknown YAML keys keep their defaults, so a minimal file only names
// what differs from the built-in scenario.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gopkg.in/yaml.v3"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/controller/classic"
	"github.com/Aaronj1n/pendsim/controller/estimator"
	"github.com/Aaronj1n/pendsim/controller/lqr"
	"github.com/Aaronj1n/pendsim/force"
	"github.com/Aaronj1n/pendsim/logging"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/sim"
)

// ControllerName identifies a controller variant in a configuration.
type ControllerName string

// Controller variants available for configuration.
const (
	None     ControllerName = "none"
	PID      ControllerName = "pid"
	BangBang ControllerName = "bangbang"
	LQR      ControllerName = "lqr"
	GPR      ControllerName = "gpr"
	Joint    ControllerName = "joint"
	Bank     ControllerName = "bank"
)

// ForceName identifies an external force generator in a configuration.
type ForceName string

// Force generators available for configuration.
const (
	Zero      ForceName = "zero"
	Constant  ForceName = "constant"
	Step      ForceName = "step"
	Impulse   ForceName = "impulse"
	Sine      ForceName = "sine"
	Noise     ForceName = "noise"
	Composite ForceName = "composite"
)

// Config describes one simulation run or batch.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Plant      PlantConfig      `yaml:"plant"`
	Controller ControllerConfig `yaml:"controller"`
	Force      ForceConfig      `yaml:"force"`
	Batch      BatchConfig      `yaml:"batch"`
	Output     OutputConfig     `yaml:"output"`
}

// SimulationConfig describes the driver.
type SimulationConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Progress bool    `yaml:"progress"`
}

// PlantConfig describes the pendulum's physical parameters and initial
// state (x, xd, t, td).
type PlantConfig struct {
	CartMass float64   `yaml:"cartmass"`
	PoleMass float64   `yaml:"polemass"`
	Length   float64   `yaml:"length"`
	Init     []float64 `yaml:"init"`
}

// ControllerConfig selects a controller variant. Only the fields the
// selected variant uses are read.
type ControllerConfig struct {
	Type ControllerName `yaml:"type"`

	// lqr and gpr
	Horizon int       `yaml:"horizon"`
	Window  int       `yaml:"window"`
	QDiag   []float64 `yaml:"qdiag"`
	R       float64   `yaml:"r"`
	Seed    uint64    `yaml:"seed"`

	// bank
	Smoothing float64 `yaml:"smoothing"`

	// pid
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`

	// bangbang
	Setpoint  float64 `yaml:"setpoint"`
	Magnitude float64 `yaml:"magnitude"`
}

// ForceConfig selects an external force generator. Only the fields the
// selected generator uses are read; a composite generator sums its
// components.
type ForceConfig struct {
	Type ForceName `yaml:"type"`

	Value float64 `yaml:"value"`

	Start     float64 `yaml:"start"`
	Stop      float64 `yaml:"stop"`
	At        float64 `yaml:"at"`
	Width     float64 `yaml:"width"`
	Magnitude float64 `yaml:"magnitude"`

	Amplitude float64 `yaml:"amplitude"`
	Frequency float64 `yaml:"frequency"`
	Phase     float64 `yaml:"phase"`
	Bias      float64 `yaml:"bias"`

	Mean   float64 `yaml:"mean"`
	Stddev float64 `yaml:"stddev"`
	Seed   uint64  `yaml:"seed"`

	Components []ForceConfig `yaml:"components"`
}

// BatchConfig describes a multi-run batch. When Starter is set, each
// run draws its own starting state; otherwise every run starts from
// the plant's initial state.
type BatchConfig struct {
	Runs    int            `yaml:"runs"`
	Starter *StarterConfig `yaml:"starter"`
}

// StarterConfig describes element-wise uniform starting-state bounds.
type StarterConfig struct {
	Min  []float64 `yaml:"min"`
	Max  []float64 `yaml:"max"`
	Seed uint64    `yaml:"seed"`
}

// OutputConfig describes where results and logs go. Empty paths
// disable the corresponding output.
type OutputConfig struct {
	CSV      string `yaml:"csv"`
	Plot     string `yaml:"plot"`
	LogLevel string `yaml:"loglevel"`
	LogFile  string `yaml:"logfile"`
}

// DefaultConfig returns the built-in scenario: the default plant
// starting just off the hanging position, driven by the LQR controller
// with no external force for two seconds.
func DefaultConfig() *Config {
	return &Config{
		Simulation: SimulationConfig{Dt: 0.01, Duration: 2.0},
		Plant: PlantConfig{
			CartMass: pendulum.DefaultCartMass,
			PoleMass: pendulum.DefaultPoleMass,
			Length:   pendulum.DefaultLength,
			Init:     []float64{0, 0, math.Pi - 0.05, 0},
		},
		Controller: ControllerConfig{
			Type:      LQR,
			Horizon:   10,
			Window:    8,
			QDiag:     []float64{1, 1, 10, 1},
			R:         0.1,
			Smoothing: 1.0,
		},
		Force:  ForceConfig{Type: Zero},
		Batch:  BatchConfig{Runs: 1},
		Output: OutputConfig{LogLevel: "info"},
	}
}

// Load reads a YAML configuration from path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: could not parse %v: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CreatePendulum builds the plant the Plant block describes.
func (c *Config) CreatePendulum() (*pendulum.Pendulum, error) {
	init, err := stateVec(c.Plant.Init, "plant init")
	if err != nil {
		return nil, err
	}
	return pendulum.New(c.Plant.CartMass, c.Plant.PoleMass, c.Plant.Length,
		init)
}

// CreateController builds a fresh controller instance of the
// configured variant for pend. Each simulation run needs its own
// instance, since controllers own mutable history and model state.
func (c *Config) CreateController(
	pend *pendulum.Pendulum) (controller.Controller, error) {
	cc := c.Controller
	dt := c.Simulation.Dt

	switch ControllerName(strings.ToLower(string(cc.Type))) {
	case "", None:
		return classic.NewNoController(), nil

	case PID:
		return classic.NewPID(cc.Kp, cc.Ki, cc.Kd), nil

	case BangBang:
		return classic.NewBangBang(cc.Setpoint, cc.Magnitude), nil

	case LQR:
		ctrl, err := lqr.New(pend, dt, cc.Horizon, cc.QDiag, cc.R)
		if err != nil {
			return nil, err
		}
		return ctrl, nil

	case GPR:
		ctrl, err := lqr.NewGPR(pend, dt, cc.Horizon, cc.Window, cc.QDiag,
			cc.R, cc.Seed)
		if err != nil {
			return nil, err
		}
		return ctrl, nil

	case Joint:
		ctrl, err := estimator.NewJoint(pend, dt)
		if err != nil {
			return nil, err
		}
		return ctrl, nil

	case Bank:
		ctrl, err := estimator.NewBank(pend, dt, cc.Smoothing)
		if err != nil {
			return nil, err
		}
		return ctrl, nil
	}

	return nil, fmt.Errorf("config: unknown controller type %q (want none, "+
		"pid, bangbang, lqr, gpr, joint, or bank)", cc.Type)
}

// Create builds the force generator the block describes.
func (f *ForceConfig) Create() (force.Generator, error) {
	switch ForceName(strings.ToLower(string(f.Type))) {
	case "", Zero:
		return force.Zero(), nil

	case Constant:
		return force.Constant(f.Value), nil

	case Step:
		return force.Step(f.Start, f.Stop, f.Magnitude), nil

	case Impulse:
		return force.Impulse(f.At, f.Width, f.Magnitude), nil

	case Sine:
		return force.Sine{
			Amplitude: f.Amplitude,
			Frequency: f.Frequency,
			Phase:     f.Phase,
			Bias:      f.Bias,
		}, nil

	case Noise:
		gen, err := force.NewNoise(f.Mean, f.Stddev, f.Seed)
		if err != nil {
			return nil, err
		}
		return gen, nil

	case Composite:
		members := make(force.Composite, len(f.Components))
		for i := range f.Components {
			gen, err := f.Components[i].Create()
			if err != nil {
				return nil, err
			}
			members[i] = gen
		}
		return members, nil
	}

	return nil, fmt.Errorf("config: unknown force type %q (want zero, "+
		"constant, step, impulse, sine, noise, or composite)", f.Type)
}

// CreateSimulation builds the driver with the configured force
// generator.
func (c *Config) CreateSimulation() (*sim.Simulation, error) {
	gen, err := c.Force.Create()
	if err != nil {
		return nil, err
	}

	s, err := sim.New(c.Simulation.Dt, c.Simulation.Duration, gen)
	if err != nil {
		return nil, err
	}
	s.ShowProgress(c.Simulation.Progress)
	return s, nil
}

// CreateStarter builds the batch's random starting-state distribution,
// or nil when the batch starts every run from the plant's initial
// state.
func (c *Config) CreateStarter() (pendulum.Starter, error) {
	sc := c.Batch.Starter
	if sc == nil {
		return nil, nil
	}
	if len(sc.Min) != pendulum.StateDim || len(sc.Max) != pendulum.StateDim {
		return nil, fmt.Errorf("config: starter bounds must have %d values, "+
			"got %d min and %d max", pendulum.StateDim, len(sc.Min),
			len(sc.Max))
	}

	bounds := make([]r1.Interval, pendulum.StateDim)
	for i := range bounds {
		if sc.Max[i] < sc.Min[i] {
			return nil, fmt.Errorf("config: starter bound %d has max %v "+
				"below min %v", i, sc.Max[i], sc.Min[i])
		}
		bounds[i] = r1.Interval{Min: sc.Min[i], Max: sc.Max[i]}
	}
	return pendulum.NewUniformStarter(bounds, sc.Seed), nil
}

// CreateLogger builds the batch logger the Output block describes.
func (c *Config) CreateLogger() (*logging.Logger, error) {
	level, err := logging.ParseLevel(c.Output.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if c.Output.LogFile != "" {
		return logging.NewFile("pendsim", level, logging.FileConfig{
			Filename:   c.Output.LogFile,
			MaxSizeMB:  10,
			MaxBackups: 3,
			Console:    true,
		}), nil
	}
	return logging.New("pendsim", level, nil), nil
}

// stateVec converts a configured state to a vector, treating nil as
// the origin.
func stateVec(values []float64, what string) (*mat.VecDense, error) {
	if values == nil {
		return nil, nil
	}
	if len(values) != pendulum.StateDim {
		return nil, fmt.Errorf("config: %s must have %d values, got %d",
			what, pendulum.StateDim, len(values))
	}
	return mat.NewVecDense(len(values),
		append([]float64(nil), values...)), nil
}
