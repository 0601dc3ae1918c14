// The pendsim command runs inverted pendulum simulations from YAML
// configurations, with optional CSV, plot, and animation-frame output.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Aaronj1n/pendsim/config"
	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/pendulum"
	"github.com/Aaronj1n/pendsim/record"
	"github.com/Aaronj1n/pendsim/viz"
)

var (
	configFile string
	dt         float64
	duration   float64
	ctrlName   string
	seed       uint64
	csvPath    string
	plotPath   string
	frameDir   string
	frameSkip  int
	runs       int
	progress   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pendsim",
		Short: "inverted pendulum simulation and controller evaluation",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "",
		"config file path (yaml)")
	runCmd.Flags().Float64Var(&dt, "dt", 0.01, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", 2.0, "duration")
	runCmd.Flags().StringVar(&ctrlName, "controller", "lqr",
		"controller (none, pid, bangbang, lqr, gpr, joint, bank)")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "random seed")
	runCmd.Flags().StringVar(&csvPath, "csv", "", "write the run to this csv")
	runCmd.Flags().StringVar(&plotPath, "plot", "",
		"write a plot to this png")
	runCmd.Flags().StringVar(&frameDir, "frames", "",
		"render animation frames into this directory")
	runCmd.Flags().IntVar(&frameSkip, "frame-skip", 5,
		"render every n-th tick")

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "run many simulations in parallel",
		RunE:  runBatch,
	}
	batchCmd.Flags().StringVar(&configFile, "config", "",
		"config file path (yaml)")
	batchCmd.Flags().IntVar(&runs, "runs", 1, "number of runs")
	batchCmd.Flags().StringVar(&ctrlName, "controller", "lqr",
		"controller (none, pid, bangbang, lqr, gpr, joint, bank)")
	batchCmd.Flags().StringVar(&csvPath, "csv", "",
		"write per-run csvs, with the run index before the extension")
	batchCmd.Flags().BoolVar(&progress, "progress", false,
		"show a progress bar")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "pendsim.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, batchCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration file when one is given and lays
// any flags the caller changed on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Simulation.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Simulation.Duration = duration
	}
	if cmd.Flags().Changed("controller") {
		cfg.Controller.Type = config.ControllerName(ctrlName)
	}
	if cmd.Flags().Changed("seed") {
		cfg.Controller.Seed = seed
	}
	if cmd.Flags().Changed("csv") {
		cfg.Output.CSV = csvPath
	}
	if cmd.Flags().Changed("plot") {
		cfg.Output.Plot = plotPath
	}
	if cmd.Flags().Changed("runs") {
		cfg.Batch.Runs = runs
	}
	if cmd.Flags().Changed("progress") {
		cfg.Simulation.Progress = progress
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := cfg.CreateLogger()
	if err != nil {
		return err
	}
	pend, err := cfg.CreatePendulum()
	if err != nil {
		return err
	}
	ctrl, err := cfg.CreateController(pend)
	if err != nil {
		return err
	}
	s, err := cfg.CreateSimulation()
	if err != nil {
		return err
	}
	s.SetLogger(logger)

	fmt.Println(pend)
	fmt.Printf("controller: %s  |  dt: %v  |  duration: %vs\n",
		controllerName(cfg), cfg.Simulation.Dt, cfg.Simulation.Duration)

	start := time.Now()
	tbl, err := s.Run(context.Background(), pend, ctrl)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed %d ticks in %v\n", tbl.Len(), elapsed)

	if cfg.Output.CSV != "" {
		if err := tbl.SaveCSV(cfg.Output.CSV); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", cfg.Output.CSV)
	}
	if cfg.Output.Plot != "" {
		if err := viz.PlotRun(tbl, cfg.Output.Plot); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", cfg.Output.Plot)
	}
	if frameDir != "" {
		renderer, err := viz.NewFrameRenderer(640, 480)
		if err != nil {
			return err
		}
		n, err := renderer.SaveSequence(pend, tbl, frameSkip, frameDir)
		if err != nil {
			return err
		}
		fmt.Printf("wrote %d frames to %s\n", n, frameDir)
	}

	printFinalState(tbl)
	printCharts(tbl)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Batch.Runs < 1 {
		return fmt.Errorf("batch needs at least one run, got %d",
			cfg.Batch.Runs)
	}

	logger, err := cfg.CreateLogger()
	if err != nil {
		return err
	}
	starter, err := cfg.CreateStarter()
	if err != nil {
		return err
	}

	pends := make([]*pendulum.Pendulum, cfg.Batch.Runs)
	ctrls := make([]controller.Controller, cfg.Batch.Runs)
	for i := range pends {
		var pend *pendulum.Pendulum
		if starter != nil {
			pend, err = pendulum.New(cfg.Plant.CartMass, cfg.Plant.PoleMass,
				cfg.Plant.Length, starter.Start())
		} else {
			pend, err = cfg.CreatePendulum()
		}
		if err != nil {
			return err
		}

		ctrl, err := cfg.CreateController(pend)
		if err != nil {
			return err
		}
		pends[i] = pend
		ctrls[i] = ctrl
	}

	s, err := cfg.CreateSimulation()
	if err != nil {
		return err
	}
	s.SetLogger(logger)

	fmt.Printf("running %d simulations with the %s controller\n",
		cfg.Batch.Runs, controllerName(cfg))

	start := time.Now()
	tables, err := s.RunMany(context.Background(), pends, ctrls)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed %d runs in %v\n", len(tables), elapsed)

	if cfg.Output.CSV != "" {
		for i, tbl := range tables {
			if err := tbl.SaveCSV(indexedPath(cfg.Output.CSV, i)); err != nil {
				return err
			}
		}
		fmt.Printf("wrote %d csvs beside %s\n", len(tables), cfg.Output.CSV)
	}

	printSummary(pends, tables)
	return nil
}

// controllerName normalizes the configured controller type for
// display.
func controllerName(cfg *config.Config) string {
	name := strings.ToLower(string(cfg.Controller.Type))
	if name == "" {
		name = "none"
	}
	return name
}

// indexedPath puts the run index before the path's extension, so
// runs.csv becomes runs_3.csv for run 3.
func indexedPath(path string, i int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), i, ext)
}

// printFinalState lists the plant state on the last recorded tick.
func printFinalState(tbl *record.Table) {
	if tbl.Len() == 0 {
		return
	}
	last := tbl.Len() - 1

	fmt.Println("\nfinal state:")
	for _, label := range controller.StateLabels {
		key := controller.Key{Category: "state", Label: label}
		if v, ok := tbl.At(last, key); ok {
			fmt.Printf("  %s: %.6f\n", label, v)
		}
	}
}

// printCharts draws terminal charts of the cart position, pole angle,
// and control force over the run.
func printCharts(tbl *record.Table) {
	charts := []struct {
		key     controller.Key
		caption string
	}{
		{controller.Key{Category: "state", Label: "x"},
			"cart position (m)"},
		{controller.Key{Category: "state", Label: "t"},
			"pole angle (rad)"},
		{controller.Key{Category: "control action", Label: "control action"},
			"control force (N)"},
	}

	for _, c := range charts {
		data := tbl.Column(c.key)
		if data == nil {
			continue
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(c.caption),
		))
	}
}

// printSummary renders a per-run table of starting states, final
// states, and peak control effort.
func printSummary(pends []*pendulum.Pendulum, tables []*record.Table) {
	xKey := controller.Key{Category: "state", Label: "x"}
	tKey := controller.Key{Category: "state", Label: "t"}
	uKey := controller.Key{
		Category: "control action", Label: "control action",
	}

	w := table.NewWriter()
	w.SetOutputMirror(os.Stdout)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{
		"run", "start x", "start theta", "final x", "final theta",
		"max |force|",
	})

	for i, tbl := range tables {
		if tbl.Len() == 0 {
			continue
		}
		init := pends[i].InitialState()
		last := tbl.Len() - 1

		finalX, _ := tbl.At(last, xKey)
		finalT, _ := tbl.At(last, tKey)

		maxU := 0.0
		for _, u := range tbl.Column(uKey) {
			if math.Abs(u) > maxU {
				maxU = math.Abs(u)
			}
		}

		w.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.4f", init.AtVec(0)),
			fmt.Sprintf("%.4f", init.AtVec(2)),
			fmt.Sprintf("%.4f", finalX),
			fmt.Sprintf("%.4f", finalT),
			fmt.Sprintf("%.4f", maxU),
		})
	}
	w.Render()
}
