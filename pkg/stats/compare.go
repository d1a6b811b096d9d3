// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// StandardizedMeanDifference returns Cohen's d between two summarized
// groups using the pooled standard deviation sqrt((s1^2+s2^2)/2).
// Returns 0 when both spreads are zero and the means agree, and +Inf
// magnitude when spreads are zero but means differ.
func StandardizedMeanDifference(m1, s1, m2, s2 float64) float64 {
	pooled := math.Sqrt((s1*s1 + s2*s2) / 2)
	diff := m1 - m2
	if pooled == 0 {
		if diff == 0 {
			return 0
		}
		return math.Inf(sign(diff))
	}
	return diff / pooled
}

// TwoProportionZ tests p1 (from n1 trials) against p2 (from n2 trials)
// with the pooled two-proportion z-test. Returns the z statistic and
// two-sided p-value.
func TwoProportionZ(p1 float64, n1 int, p2 float64, n2 int) (z, pValue float64, err error) {
	if n1 <= 0 || n2 <= 0 {
		return 0, 0, fmt.Errorf("two-proportion z: sample sizes must be positive (got %d, %d)", n1, n2)
	}
	if p1 < 0 || p1 > 1 || p2 < 0 || p2 > 1 {
		return 0, 0, fmt.Errorf("two-proportion z: proportions must be in [0,1] (got %v, %v)", p1, p2)
	}

	f1, f2 := float64(n1), float64(n2)
	pooled := (p1*f1 + p2*f2) / (f1 + f2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/f1 + 1/f2))
	if se == 0 {
		if p1 == p2 {
			return 0, 1, nil
		}
		return math.Inf(sign(p1 - p2)), 0, nil
	}

	z = (p1 - p2) / se
	pValue = 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	return z, pValue, nil
}

// ChiSquaredGOF runs a chi-squared goodness-of-fit test of observed
// counts against expected counts. Returns the statistic and p-value
// with len-1 degrees of freedom.
func ChiSquaredGOF(observed, expected []float64) (chi2, pValue float64, err error) {
	if len(observed) != len(expected) {
		return 0, 0, fmt.Errorf("chi-squared: observed has %d cells, expected has %d", len(observed), len(expected))
	}
	if len(observed) < 2 {
		return 0, 0, fmt.Errorf("chi-squared: need at least 2 cells, got %d", len(observed))
	}

	for i, e := range expected {
		if e <= 0 {
			return 0, 0, fmt.Errorf("chi-squared: expected count at cell %d must be positive, got %v", i, e)
		}
		d := observed[i] - e
		chi2 += d * d / e
	}

	df := float64(len(observed) - 1)
	pValue = 1 - distuv.ChiSquared{K: df}.CDF(chi2)
	return chi2, pValue, nil
}

// CorrelationMatrix computes the Pearson correlation matrix of columns,
// given column-major data (columns[j] is the j-th variable). All
// columns must share a length of at least 2.
func CorrelationMatrix(columns [][]float64) (*mat.SymDense, error) {
	d := len(columns)
	if d == 0 {
		return nil, fmt.Errorf("correlation: no columns")
	}
	n := len(columns[0])
	if n < 2 {
		return nil, fmt.Errorf("correlation: need at least 2 rows, got %d", n)
	}
	for j, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("correlation: column %d has %d rows, expected %d", j, len(col), n)
		}
	}

	x := mat.NewDense(n, d, nil)
	for j, col := range columns {
		for i, v := range col {
			x.Set(i, j, v)
		}
	}

	dst := mat.NewSymDense(d, nil)
	stat.CorrelationMatrix(dst, x, nil)
	return dst, nil
}

// CorrelationFidelity maps the Frobenius distance between two
// correlation matrices onto [0,1], where 1 means identical structure.
// The distance is normalized by 2d, the largest Frobenius norm a
// difference of two d x d correlation matrices can reach.
func CorrelationFidelity(a, b *mat.SymDense) (float64, error) {
	if a.SymmetricDim() != b.SymmetricDim() {
		return 0, fmt.Errorf("correlation fidelity: dimension mismatch %d vs %d", a.SymmetricDim(), b.SymmetricDim())
	}
	d := a.SymmetricDim()

	var diff mat.Dense
	diff.Sub(a, b)
	fro := mat.Norm(&diff, 2)

	maxFro := 2 * math.Sqrt(float64(d*d))
	score := 1 - fro/maxFro
	return clamp(score, 0, 1), nil
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}
