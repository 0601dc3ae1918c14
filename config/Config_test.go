package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aaronj1n/pendsim/controller/classic"
	"github.com/Aaronj1n/pendsim/controller/estimator"
	"github.com/Aaronj1n/pendsim/controller/lqr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LQR, cfg.Controller.Type)
	assert.Equal(t, 0.01, cfg.Simulation.Dt)
	assert.Equal(t, 2.0, cfg.Simulation.Duration)
	assert.InDelta(t, math.Pi-0.05, cfg.Plant.Init[2], 1e-15)
	assert.Equal(t, []float64{1, 1, 10, 1}, cfg.Controller.QDiag)
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	content := "simulation:\n" +
		"  duration: 1.0\n" +
		"controller:\n" +
		"  type: pid\n" +
		"  kp: 3.5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.0, cfg.Simulation.Duration)
	assert.Equal(t, PID, cfg.Controller.Type)
	assert.Equal(t, 3.5, cfg.Controller.Kp)

	// everything the file omits keeps its default
	assert.Equal(t, 0.01, cfg.Simulation.Dt)
	assert.Equal(t, 10, cfg.Controller.Horizon)
	assert.Equal(t, 0.1, cfg.Controller.R)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [1,"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Controller.Type = Bank
	cfg.Controller.Smoothing = 2.5
	cfg.Batch.Runs = 8
	cfg.Batch.Starter = &StarterConfig{
		Min:  []float64{0, 0, 2.9, 0},
		Max:  []float64{0, 0, 3.3, 0},
		Seed: 11,
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestCreatePendulum(t *testing.T) {
	cfg := DefaultConfig()
	pend, err := cfg.CreatePendulum()
	require.NoError(t, err)
	assert.Equal(t, 1.0, pend.CartMass())
	assert.InDelta(t, math.Pi-0.05, pend.InitialState().AtVec(2), 1e-15)

	cfg.Plant.Init = []float64{1, 2}
	_, err = cfg.CreatePendulum()
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Plant.CartMass = -1
	_, err = cfg.CreatePendulum()
	assert.Error(t, err)
}

func TestCreateController(t *testing.T) {
	cfg := DefaultConfig()
	pend, err := cfg.CreatePendulum()
	require.NoError(t, err)

	for name, want := range map[ControllerName]interface{}{
		None:     classic.NoController{},
		PID:      &classic.PID{},
		BangBang: &classic.BangBang{},
		LQR:      &lqr.LQR{},
		GPR:      &lqr.GPR{},
		Joint:    &estimator.Joint{},
		Bank:     &estimator.Bank{},
	} {
		cfg.Controller.Type = name
		ctrl, err := cfg.CreateController(pend)
		require.NoError(t, err, name)
		assert.IsType(t, want, ctrl, name)
	}

	// names are case-insensitive, and the empty name means none
	cfg.Controller.Type = "LQR"
	ctrl, err := cfg.CreateController(pend)
	require.NoError(t, err)
	assert.IsType(t, &lqr.LQR{}, ctrl)

	cfg.Controller.Type = ""
	ctrl, err = cfg.CreateController(pend)
	require.NoError(t, err)
	assert.IsType(t, classic.NoController{}, ctrl)

	cfg.Controller.Type = "fuzzy"
	_, err = cfg.CreateController(pend)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuzzy")
}

func TestCreateControllerPropagatesValidation(t *testing.T) {
	cfg := DefaultConfig()
	pend, err := cfg.CreatePendulum()
	require.NoError(t, err)

	cfg.Controller.Type = LQR
	cfg.Controller.Horizon = 0
	_, err = cfg.CreateController(pend)
	assert.Error(t, err)
}

func TestCreateForce(t *testing.T) {
	cases := map[string]struct {
		cfg  ForceConfig
		at   float64
		want float64
	}{
		"zero":     {ForceConfig{Type: Zero}, 1.0, 0},
		"default":  {ForceConfig{}, 1.0, 0},
		"constant": {ForceConfig{Type: Constant, Value: 2.0}, 1.0, 2.0},
		"step": {ForceConfig{Type: Step, Start: 0.5, Stop: 1.5,
			Magnitude: 3.0}, 1.0, 3.0},
		"impulse": {ForceConfig{Type: Impulse, At: 1.0, Width: 0.2,
			Magnitude: 5.0}, 1.05, 5.0},
		"sine": {ForceConfig{Type: Sine, Amplitude: 2.0, Bias: 1.0}, 0.0,
			1.0},
		"composite": {ForceConfig{Type: Composite, Components: []ForceConfig{
			{Type: Constant, Value: 1.0},
			{Type: Constant, Value: 2.5},
		}}, 0.0, 3.5},
	}

	for name, tc := range cases {
		gen, err := tc.cfg.Create()
		require.NoError(t, err, name)
		assert.Equal(t, tc.want, gen.Force(tc.at), name)
	}

	unknown := ForceConfig{Type: "wind"}
	_, err := unknown.Create()
	assert.Error(t, err)

	negative := ForceConfig{Type: Noise, Stddev: -1}
	_, err = negative.Create()
	assert.Error(t, err)

	degenerate := ForceConfig{Type: Noise, Mean: 1, Stddev: 0, Seed: 3}
	noisy, err := degenerate.Create()
	require.NoError(t, err)
	assert.Equal(t, 1.0, noisy.Force(0))
}

func TestCreateStarter(t *testing.T) {
	cfg := DefaultConfig()

	starter, err := cfg.CreateStarter()
	require.NoError(t, err)
	assert.Nil(t, starter)

	cfg.Batch.Starter = &StarterConfig{
		Min:  []float64{0, 0, 2.9, 0},
		Max:  []float64{0, 0, 3.3, 0},
		Seed: 11,
	}
	starter, err = cfg.CreateStarter()
	require.NoError(t, err)
	require.NotNil(t, starter)

	for i := 0; i < 20; i++ {
		state := starter.Start()
		assert.Zero(t, state.AtVec(0))
		assert.GreaterOrEqual(t, state.AtVec(2), 2.9)
		assert.LessOrEqual(t, state.AtVec(2), 3.3)
	}

	cfg.Batch.Starter = &StarterConfig{Min: []float64{0}, Max: []float64{1}}
	_, err = cfg.CreateStarter()
	assert.Error(t, err)

	cfg.Batch.Starter = &StarterConfig{
		Min: []float64{0, 0, 1, 0},
		Max: []float64{0, 0, 0, 0},
	}
	_, err = cfg.CreateStarter()
	assert.Error(t, err)
}

func TestCreateSimulation(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.CreateSimulation()
	require.NoError(t, err)
	assert.Equal(t, 0.01, s.Dt())
	assert.Equal(t, 2.0, s.TFinal())

	cfg.Simulation.Dt = -1
	_, err = cfg.CreateSimulation()
	assert.Error(t, err)
}

func TestCreateLogger(t *testing.T) {
	cfg := DefaultConfig()
	logger, err := cfg.CreateLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Output.LogLevel = "loud"
	_, err = cfg.CreateLogger()
	assert.Error(t, err)
}
