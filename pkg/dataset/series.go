// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dataset provides a column-oriented in-memory table used by the
// generator, quality and benchmark services.
//
// A Table is an ordered set of fixed-type Series columns. Each Series
// holds float64, string or time.Time values plus an optional missing
// mask. Tables round-trip through CSV (missing values as empty cells)
// and JSON (missing values as null) for HTTP payloads.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Kind identifies the element type of a Series.
type Kind int

const (
	KindFloat Kind = iota
	KindString
	KindTime
)

// String returns "float", "string" or "time".
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Series is a fixed-type one-dimensional column with an optional mask
// for missing values. A nil mask means no values are missing.
type Series struct {
	Name string

	kind    Kind
	floats  []float64
	strings []string
	times   []time.Time
	missing []bool
}

// NewFloatSeries returns a float64 Series. The data slice is not copied.
// missing may be nil; otherwise it must match len(data).
func NewFloatSeries(name string, data []float64, missing []bool) (*Series, error) {
	if missing != nil && len(missing) != len(data) {
		return nil, fmt.Errorf("series %s: missing mask length %d != data length %d", name, len(missing), len(data))
	}
	return &Series{Name: name, kind: KindFloat, floats: data, missing: missing}, nil
}

// NewStringSeries returns a string Series. The data slice is not copied.
func NewStringSeries(name string, data []string, missing []bool) (*Series, error) {
	if missing != nil && len(missing) != len(data) {
		return nil, fmt.Errorf("series %s: missing mask length %d != data length %d", name, len(missing), len(data))
	}
	return &Series{Name: name, kind: KindString, strings: data, missing: missing}, nil
}

// NewTimeSeries returns a time.Time Series. The data slice is not copied.
func NewTimeSeries(name string, data []time.Time, missing []bool) (*Series, error) {
	if missing != nil && len(missing) != len(data) {
		return nil, fmt.Errorf("series %s: missing mask length %d != data length %d", name, len(missing), len(data))
	}
	return &Series{Name: name, kind: KindTime, times: data, missing: missing}, nil
}

// Kind returns the element type of the series.
func (s *Series) Kind() Kind { return s.kind }

// Len returns the number of rows, missing or not.
func (s *Series) Len() int {
	switch s.kind {
	case KindFloat:
		return len(s.floats)
	case KindString:
		return len(s.strings)
	default:
		return len(s.times)
	}
}

// IsMissing reports whether the value at row i is missing.
func (s *Series) IsMissing(i int) bool {
	return s.missing != nil && s.missing[i]
}

// CountMissing returns the number of missing rows.
func (s *Series) CountMissing() int {
	n := 0
	for i := range s.missing {
		if s.missing[i] {
			n++
		}
	}
	return n
}

// Floats returns the backing float64 slice and mask. Errors when the
// series is not a float series.
func (s *Series) Floats() ([]float64, []bool, error) {
	if s.kind != KindFloat {
		return nil, nil, fmt.Errorf("series %s is %s, not float", s.Name, s.kind)
	}
	return s.floats, s.missing, nil
}

// Strings returns the backing string slice and mask. Errors when the
// series is not a string series.
func (s *Series) Strings() ([]string, []bool, error) {
	if s.kind != KindString {
		return nil, nil, fmt.Errorf("series %s is %s, not string", s.Name, s.kind)
	}
	return s.strings, s.missing, nil
}

// Times returns the backing time slice and mask. Errors when the
// series is not a time series.
func (s *Series) Times() ([]time.Time, []bool, error) {
	if s.kind != KindTime {
		return nil, nil, fmt.Errorf("series %s is %s, not time", s.Name, s.kind)
	}
	return s.times, s.missing, nil
}

// NonMissingFloats returns a compact copy of the non-missing float
// values, the form the statistics primitives consume.
func (s *Series) NonMissingFloats() ([]float64, error) {
	if s.kind != KindFloat {
		return nil, fmt.Errorf("series %s is %s, not float", s.Name, s.kind)
	}
	out := make([]float64, 0, len(s.floats))
	for i, v := range s.floats {
		if s.IsMissing(i) || math.IsNaN(v) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// CellString renders row i as a string for CSV output and
// quasi-identifier keys. Missing values render as "".
func (s *Series) CellString(i int) string {
	if s.IsMissing(i) {
		return ""
	}
	switch s.kind {
	case KindFloat:
		return strconv.FormatFloat(s.floats[i], 'g', -1, 64)
	case KindString:
		return s.strings[i]
	default:
		return s.times[i].Format(time.RFC3339)
	}
}
