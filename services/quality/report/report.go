// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report computes quality and privacy reports comparing a
// synthetic dataset against the real dataset it imitates.
//
// Fidelity is measured per shared numeric column with two-sample
// Kolmogorov-Smirnov and Wasserstein-1 distances, and across columns
// with correlation matrix fidelity. Privacy is measured with
// k-anonymity over quasi-identifier columns and distance-to-closest-
// record quantiles. Everything is folded into a 0-100 quality score.
package report

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/stats"
)

// ColumnScore is the per-column distribution comparison.
type ColumnScore struct {
	Column      string  `json:"column"`
	KSStatistic float64 `json:"ks_statistic"`
	KSPValue    float64 `json:"ks_p_value"`
	Wasserstein float64 `json:"wasserstein"`
	RealMean    float64 `json:"real_mean"`
	SynthMean   float64 `json:"synthetic_mean"`
}

// PrivacyReport summarizes re-identification risk of the synthetic
// data with respect to the real data.
type PrivacyReport struct {
	KAnonymity     int     `json:"k_anonymity"`
	UniqueRows     int     `json:"unique_rows"`
	UniqueFraction float64 `json:"unique_fraction"`
	DCRMin         float64 `json:"dcr_min"`
	DCRP5          float64 `json:"dcr_p5"`
	DCRMedian      float64 `json:"dcr_median"`
}

// QualityReport is the full comparison result.
type QualityReport struct {
	Columns             []ColumnScore  `json:"columns"`
	SkippedColumns      []string       `json:"skipped_columns,omitempty"`
	CorrelationFidelity float64        `json:"correlation_fidelity"`
	Privacy             *PrivacyReport `json:"privacy,omitempty"`
	Score               float64        `json:"score"`
	RealRows            int            `json:"real_rows"`
	SyntheticRows       int            `json:"synthetic_rows"`
}

// Options controls which parts of the report are computed.
type Options struct {
	// Columns restricts the numeric comparison; empty means every
	// numeric column shared by both tables. Requested columns that are
	// missing from a table or not numeric are skipped and listed in
	// the report rather than failing it.
	Columns []string

	// QuasiIdentifiers are the columns used for k-anonymity. Empty
	// skips the privacy section.
	QuasiIdentifiers []string
}

// Compare builds a QualityReport for synthetic data against real data.
func Compare(real, synthetic *dataset.Table, opts Options) (*QualityReport, error) {
	cols := opts.Columns
	if len(cols) == 0 {
		cols = sharedNumericColumns(real, synthetic)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no shared numeric columns to compare")
	}

	rep := &QualityReport{
		RealRows:      real.NumRows(),
		SyntheticRows: synthetic.NumRows(),
	}

	compared := make([]string, 0, len(cols))
	realCols := make([][]float64, 0, len(cols))
	synthCols := make([][]float64, 0, len(cols))
	for _, name := range cols {
		rv, err := real.Float64Column(name)
		if err != nil {
			rep.SkippedColumns = append(rep.SkippedColumns, name)
			continue
		}
		sv, err := synthetic.Float64Column(name)
		if err != nil {
			rep.SkippedColumns = append(rep.SkippedColumns, name)
			continue
		}
		score, err := ColumnCompare(name, rv, sv)
		if err != nil {
			return nil, err
		}
		rep.Columns = append(rep.Columns, score)
		compared = append(compared, name)
		realCols = append(realCols, rv)
		synthCols = append(synthCols, sv)
	}
	if len(compared) == 0 {
		return nil, fmt.Errorf("no comparable numeric columns, skipped %v", rep.SkippedColumns)
	}

	if len(compared) >= 2 {
		fid, err := correlationFidelity(realCols, synthCols)
		if err != nil {
			return nil, err
		}
		rep.CorrelationFidelity = fid
	} else {
		rep.CorrelationFidelity = 1
	}

	if len(opts.QuasiIdentifiers) > 0 {
		privacy, err := PrivacyAssessment(real, synthetic, opts.QuasiIdentifiers, compared)
		if err != nil {
			return nil, err
		}
		rep.Privacy = privacy
	}

	rep.Score = aggregateScore(rep)
	return rep, nil
}

// ColumnCompare runs the two distribution distances on one column.
func ColumnCompare(name string, real, synthetic []float64) (ColumnScore, error) {
	ks, err := stats.KolmogorovSmirnov(real, synthetic)
	if err != nil {
		return ColumnScore{}, fmt.Errorf("column %s: %w", name, err)
	}
	w, err := stats.Wasserstein1(real, synthetic)
	if err != nil {
		return ColumnScore{}, fmt.Errorf("column %s: %w", name, err)
	}
	return ColumnScore{
		Column:      name,
		KSStatistic: ks.Statistic,
		KSPValue:    ks.PValue,
		Wasserstein: w,
		RealMean:    stat.Mean(real, nil),
		SynthMean:   stat.Mean(synthetic, nil),
	}, nil
}

// correlationFidelity compares the correlation matrices of the two
// tables over the same column set. Columns may have different lengths
// per table after missing-value removal, so each table's matrix is
// computed on rows truncated to its shortest column.
func correlationFidelity(realCols, synthCols [][]float64) (float64, error) {
	realM, err := stats.CorrelationMatrix(truncate(realCols))
	if err != nil {
		return 0, fmt.Errorf("real correlation: %w", err)
	}
	synthM, err := stats.CorrelationMatrix(truncate(synthCols))
	if err != nil {
		return 0, fmt.Errorf("synthetic correlation: %w", err)
	}
	return stats.CorrelationFidelity(realM, synthM)
}

func truncate(cols [][]float64) [][]float64 {
	n := len(cols[0])
	for _, c := range cols {
		if len(c) < n {
			n = len(c)
		}
	}
	out := make([][]float64, len(cols))
	for i, c := range cols {
		out[i] = c[:n]
	}
	return out
}

// PrivacyAssessment computes k-anonymity over the quasi-identifier
// columns of the synthetic table and normalized distance-to-closest-
// record quantiles against the real table.
func PrivacyAssessment(real, synthetic *dataset.Table, quasiIdentifiers, numericCols []string) (*PrivacyReport, error) {
	classes := make(map[string]int)
	for i := 0; i < synthetic.NumRows(); i++ {
		key, err := synthetic.RowKey(quasiIdentifiers, i)
		if err != nil {
			return nil, fmt.Errorf("quasi-identifiers: %w", err)
		}
		classes[key]++
	}
	k := math.MaxInt
	unique := 0
	for _, n := range classes {
		if n < k {
			k = n
		}
		if n == 1 {
			unique++
		}
	}
	if len(classes) == 0 {
		k = 0
	}

	rep := &PrivacyReport{
		KAnonymity: k,
		UniqueRows: unique,
	}
	if synthetic.NumRows() > 0 {
		rep.UniqueFraction = float64(unique) / float64(synthetic.NumRows())
	}

	dcr, err := distanceToClosestRecord(real, synthetic, numericCols)
	if err != nil {
		return nil, err
	}
	if len(dcr) > 0 {
		sort.Float64s(dcr)
		rep.DCRMin = dcr[0]
		rep.DCRP5 = stats.Quantile(dcr, 0.05)
		rep.DCRMedian = stats.Quantile(dcr, 0.5)
	}
	return rep, nil
}

// distanceToClosestRecord returns, for each synthetic row, the
// euclidean distance to the nearest real row over the numeric columns,
// each column scaled by the real data's standard deviation. A DCR near
// zero means the synthetic row is almost a copy of a real one.
func distanceToClosestRecord(real, synthetic *dataset.Table, numericCols []string) ([]float64, error) {
	type column struct {
		real  []float64
		synth []float64
		scale float64
	}
	var cols []column
	for _, name := range numericCols {
		rs, err := real.Column(name)
		if err != nil {
			return nil, err
		}
		ss, err := synthetic.Column(name)
		if err != nil {
			return nil, err
		}
		rv, _, err := rs.Floats()
		if err != nil {
			return nil, err
		}
		sv, _, err := ss.Floats()
		if err != nil {
			return nil, err
		}
		sd := stat.StdDev(rv, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		cols = append(cols, column{real: rv, synth: sv, scale: sd})
	}
	if len(cols) == 0 {
		return nil, nil
	}

	nReal := real.NumRows()
	nSynth := synthetic.NumRows()
	out := make([]float64, 0, nSynth)
	for i := 0; i < nSynth; i++ {
		best := math.Inf(1)
		for j := 0; j < nReal; j++ {
			var d2 float64
			for _, c := range cols {
				diff := (c.synth[i] - c.real[j]) / c.scale
				d2 += diff * diff
			}
			if d2 < best {
				best = d2
			}
		}
		out = append(out, math.Sqrt(best))
	}
	return out, nil
}

// aggregateScore folds the report into a 0-100 quality score.
//
// Distribution fidelity (mean of 1-KS over columns) weighs 60%,
// correlation fidelity 30%, privacy 10%. The privacy term rewards
// k >= 2 and penalizes unique quasi-identifier combinations.
func aggregateScore(rep *QualityReport) float64 {
	var ksSum float64
	for _, c := range rep.Columns {
		ksSum += 1 - c.KSStatistic
	}
	dist := ksSum / float64(len(rep.Columns))

	score := 60*dist + 30*rep.CorrelationFidelity
	if rep.Privacy == nil {
		// No privacy section requested; scale the remaining weight.
		score = score / 0.9
	} else {
		privacy := 1 - rep.Privacy.UniqueFraction
		if rep.Privacy.KAnonymity < 2 {
			privacy *= 0.5
		}
		score += 10 * privacy
	}
	return math.Round(clamp(score, 0, 100)*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sharedNumericColumns returns the float columns present in both
// tables, in the real table's order.
func sharedNumericColumns(real, synthetic *dataset.Table) []string {
	var out []string
	for _, name := range real.Columns() {
		rc, err := real.Column(name)
		if err != nil || rc.Kind() != dataset.KindFloat {
			continue
		}
		if !synthetic.HasColumn(name) {
			continue
		}
		sc, err := synthetic.Column(name)
		if err != nil || sc.Kind() != dataset.KindFloat {
			continue
		}
		out = append(out, name)
	}
	return out
}
