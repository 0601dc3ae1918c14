// Package record implements the tabular store the simulation driver
// fills: one row per tick, columns keyed by (category, label) pairs,
// with CSV serialization for downstream analysis.
package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/Aaronj1n/pendsim/controller"
)

// Cell is a single keyed value within a row.
type Cell struct {
	Key   controller.Key
	Value float64
}

// Flatten expands diagnostic data into cells sorted by category then
// label, so rows built from map-valued data are deterministic.
func Flatten(data controller.Data) []Cell {
	keys := make([]controller.Key, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}
		return keys[i].Label < keys[j].Label
	})

	cells := make([]Cell, len(keys))
	for i, key := range keys {
		cells[i] = Cell{Key: key, Value: data[key]}
	}
	return cells
}

// Table accumulates one row per simulation tick. Columns are ordered
// by first appearance. A column opened after the first row is
// back-filled with NaN, and a row missing a known column records NaN
// for it, so every column always has one value per row.
type Table struct {
	times   []float64
	order   []controller.Key
	columns map[controller.Key][]float64
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{columns: make(map[controller.Key][]float64)}
}

// Append adds a row at time t. If a key repeats within cells, the last
// value wins.
func (table *Table) Append(t float64, cells []Cell) {
	n := len(table.times)
	table.times = append(table.times, t)

	for _, cell := range cells {
		column, ok := table.columns[cell.Key]
		if !ok {
			column = make([]float64, n)
			for i := range column {
				column[i] = math.NaN()
			}
			table.order = append(table.order, cell.Key)
		}
		if len(column) == n+1 {
			column[n] = cell.Value
		} else {
			column = append(column, cell.Value)
		}
		table.columns[cell.Key] = column
	}

	for _, key := range table.order {
		if len(table.columns[key]) == n {
			table.columns[key] = append(table.columns[key], math.NaN())
		}
	}
}

// Len returns the number of rows in the table.
func (table *Table) Len() int { return len(table.times) }

// Times returns a copy of the row times.
func (table *Table) Times() []float64 {
	times := make([]float64, len(table.times))
	copy(times, table.times)
	return times
}

// Keys returns the column keys in first-appearance order.
func (table *Table) Keys() []controller.Key {
	keys := make([]controller.Key, len(table.order))
	copy(keys, table.order)
	return keys
}

// Column returns a copy of the column for key, or nil if the table has
// no such column.
func (table *Table) Column(key controller.Key) []float64 {
	column, ok := table.columns[key]
	if !ok {
		return nil
	}
	out := make([]float64, len(column))
	copy(out, column)
	return out
}

// At returns the value at row i of the column for key. The second
// return is false when the table has no such column.
func (table *Table) At(i int, key controller.Key) (float64, bool) {
	column, ok := table.columns[key]
	if !ok {
		return 0, false
	}
	return column[i], true
}

// Row returns row i as diagnostic data.
func (table *Table) Row(i int) controller.Data {
	row := make(controller.Data, len(table.order))
	for _, key := range table.order {
		row[key] = table.columns[key][i]
	}
	return row
}

// WriteCSV serializes the table to w. The header row holds "time"
// followed by one "category/label" entry per column; each data row
// holds the row time followed by the column values.
func (table *Table) WriteCSV(w io.Writer) error {
	out := csv.NewWriter(w)

	header := make([]string, 1+len(table.order))
	header[0] = "time"
	for i, key := range table.order {
		header[i+1] = fmt.Sprintf("%s/%s", key.Category, key.Label)
	}
	if err := out.Write(header); err != nil {
		return fmt.Errorf("writecsv: could not write header: %w", err)
	}

	row := make([]string, 1+len(table.order))
	for i, t := range table.times {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, key := range table.order {
			row[j+1] = strconv.FormatFloat(table.columns[key][i], 'g', -1, 64)
		}
		if err := out.Write(row); err != nil {
			return fmt.Errorf("writecsv: could not write row %d: %w", i, err)
		}
	}

	out.Flush()
	return out.Error()
}

// SaveCSV serializes the table to a file at path, creating or
// truncating it.
func (table *Table) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("savecsv: %w", err)
	}
	defer file.Close()

	if err := table.WriteCSV(file); err != nil {
		return fmt.Errorf("savecsv: %w", err)
	}
	return nil
}
