// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteCSV writes the table with a header row. Missing values are
// written as empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.cols {
			row[j] = c.CellString(i)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a headered CSV into a Table. Column types are
// inferred: a column whose every non-empty cell parses as a float
// becomes a float series, RFC3339 cells become a time series, anything
// else a string series. Empty cells are missing.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("csv has no header row")
	}

	header := records[0]
	rows := records[1:]
	cols := make([]*Series, 0, len(header))

	for j, name := range header {
		cells := make([]string, len(rows))
		missing := make([]bool, len(rows))
		for i, rec := range rows {
			if j >= len(rec) {
				return nil, fmt.Errorf("row %d has %d cells, expected %d", i+1, len(rec), len(header))
			}
			cells[i] = rec[j]
			missing[i] = rec[j] == ""
		}

		s, err := inferSeries(name, cells, missing)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}

	return NewTable(cols...)
}

func inferSeries(name string, cells []string, missing []bool) (*Series, error) {
	allFloat := true
	allTime := true
	seen := false
	for i, cell := range cells {
		if missing[i] {
			continue
		}
		seen = true
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			allFloat = false
		}
		if _, err := time.Parse(time.RFC3339, cell); err != nil {
			allTime = false
		}
	}

	switch {
	case seen && allFloat:
		vals := make([]float64, len(cells))
		for i, cell := range cells {
			if missing[i] {
				continue
			}
			vals[i], _ = strconv.ParseFloat(cell, 64)
		}
		return NewFloatSeries(name, vals, missing)
	case seen && allTime:
		vals := make([]time.Time, len(cells))
		for i, cell := range cells {
			if missing[i] {
				continue
			}
			vals[i], _ = time.Parse(time.RFC3339, cell)
		}
		return NewTimeSeries(name, vals, missing)
	default:
		// All-missing columns fall back to string.
		return NewStringSeries(name, cells, missing)
	}
}
