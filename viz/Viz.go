// Package viz renders recorded simulation runs: time-series plots of
// table columns, and cart-pole frames suitable for assembling into
// animations.
package viz

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/Aaronj1n/pendsim/controller"
	"github.com/Aaronj1n/pendsim/record"
)

// PlotColumns draws the given table columns against time and saves a
// PNG at path. Each column becomes one legend entry labelled
// "category/label".
func PlotColumns(table *record.Table, keys []controller.Key, title,
	path string) error {
	if table == nil || table.Len() == 0 {
		return fmt.Errorf("viz: nothing to plot")
	}
	if len(keys) == 0 {
		return fmt.Errorf("viz: no columns selected")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Legend.Top = true

	times := table.Times()
	for i, key := range keys {
		column := table.Column(key)
		if column == nil {
			return fmt.Errorf("viz: table has no column %s/%s",
				key.Category, key.Label)
		}

		points := make(plotter.XYs, len(times))
		for j := range times {
			points[j].X = times[j]
			points[j].Y = column[j]
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("viz: %w", err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s/%s", key.Category, key.Label), line)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("viz: could not save plot: %w", err)
	}
	return nil
}

// PlotRun saves the standard run summary plot: cart position, pole
// angle, and control action against time.
func PlotRun(table *record.Table, path string) error {
	keys := []controller.Key{
		{Category: "state", Label: "x"},
		{Category: "state", Label: "t"},
		{Category: "control action", Label: "control action"},
	}
	return PlotColumns(table, keys, "pendulum run", path)
}
