// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dataset

import (
	"encoding/json"
	"fmt"
	"time"
)

// Table is an ordered set of equal-length Series columns.
type Table struct {
	cols  []*Series
	index map[string]int
}

// NewTable builds a Table from columns. All columns must have the same
// length and unique names; ragged input is rejected.
func NewTable(cols ...*Series) (*Table, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table needs at least one column")
	}
	n := cols[0].Len()
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Len() != n {
			return nil, fmt.Errorf("column %s has %d rows, expected %d", c.Name, c.Len(), n)
		}
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %s", c.Name)
		}
		index[c.Name] = i
	}
	return &Table{cols: cols, index: index}, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the named Series or an explicit error.
func (t *Table) Column(name string) (*Series, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %q in table", name)
	}
	return t.cols[i], nil
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Float64Column returns the compact non-missing values of a float column.
func (t *Table) Float64Column(name string) ([]float64, error) {
	s, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return s.NonMissingFloats()
}

// RowKey joins the rendered cells of the given columns at row i with
// "\x1f". Used to form quasi-identifier equivalence classes.
func (t *Table) RowKey(cols []string, i int) (string, error) {
	key := ""
	for j, name := range cols {
		s, err := t.Column(name)
		if err != nil {
			return "", err
		}
		if j > 0 {
			key += "\x1f"
		}
		key += s.CellString(i)
	}
	return key, nil
}

// jsonColumn is the wire form of a Series.
type jsonColumn struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Values []any  `json:"values"`
}

type jsonTable struct {
	Rows    int          `json:"rows"`
	Columns []jsonColumn `json:"columns"`
}

// MarshalJSON encodes the table column-wise with null for missing cells.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := jsonTable{Rows: t.NumRows()}
	for _, c := range t.cols {
		jc := jsonColumn{Name: c.Name, Type: c.kind.String(), Values: make([]any, c.Len())}
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) {
				jc.Values[i] = nil
				continue
			}
			switch c.kind {
			case KindFloat:
				jc.Values[i] = c.floats[i]
			case KindString:
				jc.Values[i] = c.strings[i]
			default:
				jc.Values[i] = c.times[i].Format(time.RFC3339)
			}
		}
		out.Columns = append(out.Columns, jc)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the column-wise wire form produced by
// MarshalJSON. Numeric JSON values in a "float" column and strings in
// "string"/"time" columns are accepted; null marks missing.
func (t *Table) UnmarshalJSON(data []byte) error {
	var in jsonTable
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Columns) == 0 {
		return fmt.Errorf("table JSON has no columns")
	}

	cols := make([]*Series, 0, len(in.Columns))
	for _, jc := range in.Columns {
		n := len(jc.Values)
		missing := make([]bool, n)
		var s *Series
		var err error
		switch jc.Type {
		case "float":
			vals := make([]float64, n)
			for i, v := range jc.Values {
				switch x := v.(type) {
				case nil:
					missing[i] = true
				case float64:
					vals[i] = x
				default:
					return fmt.Errorf("column %s row %d: expected number, got %T", jc.Name, i, v)
				}
			}
			s, err = NewFloatSeries(jc.Name, vals, missing)
		case "string":
			vals := make([]string, n)
			for i, v := range jc.Values {
				switch x := v.(type) {
				case nil:
					missing[i] = true
				case string:
					vals[i] = x
				default:
					return fmt.Errorf("column %s row %d: expected string, got %T", jc.Name, i, v)
				}
			}
			s, err = NewStringSeries(jc.Name, vals, missing)
		case "time":
			vals := make([]time.Time, n)
			for i, v := range jc.Values {
				switch x := v.(type) {
				case nil:
					missing[i] = true
				case string:
					ts, perr := time.Parse(time.RFC3339, x)
					if perr != nil {
						return fmt.Errorf("column %s row %d: %w", jc.Name, i, perr)
					}
					vals[i] = ts
				default:
					return fmt.Errorf("column %s row %d: expected RFC3339 string, got %T", jc.Name, i, v)
				}
			}
			s, err = NewTimeSeries(jc.Name, vals, missing)
		default:
			return fmt.Errorf("column %s: unknown type %q", jc.Name, jc.Type)
		}
		if err != nil {
			return err
		}
		cols = append(cols, s)
	}

	built, err := NewTable(cols...)
	if err != nil {
		return err
	}
	*t = *built
	return nil
}
