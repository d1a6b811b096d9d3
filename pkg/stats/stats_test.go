// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestKolmogorovSmirnov_IdenticalSamples(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	res, err := KolmogorovSmirnov(x, x)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Statistic)
	assert.InDelta(t, 1.0, res.PValue, 1e-9)
}

func TestKolmogorovSmirnov_DisjointSamples(t *testing.T) {
	a := make([]float64, 50)
	b := make([]float64, 50)
	for i := range a {
		a[i] = float64(i)
		b[i] = float64(i) + 1000
	}
	res, err := KolmogorovSmirnov(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Statistic)
	assert.Less(t, res.PValue, 1e-6)
}

func TestKolmogorovSmirnov_SameDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a := make([]float64, 500)
	b := make([]float64, 500)
	for i := range a {
		a[i] = rng.NormFloat64()
		b[i] = rng.NormFloat64()
	}
	res, err := KolmogorovSmirnov(a, b)
	require.NoError(t, err)
	assert.Less(t, res.Statistic, 0.15)
	assert.Greater(t, res.PValue, 0.01)
}

func TestKolmogorovSmirnov_Empty(t *testing.T) {
	_, err := KolmogorovSmirnov(nil, []float64{1})
	require.Error(t, err)
}

func TestWasserstein1_ShiftedUniform(t *testing.T) {
	// Shifting a distribution by c moves its Wasserstein-1 distance by c.
	a := []float64{0, 1, 2, 3, 4}
	b := []float64{5, 6, 7, 8, 9}
	d, err := Wasserstein1(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	d, err = Wasserstein1(a, a)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d)
}

func TestWasserstein1_DifferentSizes(t *testing.T) {
	a := []float64{0, 0, 0, 0}
	b := []float64{1}
	d, err := Wasserstein1(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 1e-9)
}

func TestECDF(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	assert.Equal(t, 0.0, ECDF(data, 0.5))
	assert.Equal(t, 0.25, ECDF(data, 1))
	assert.Equal(t, 0.5, ECDF(data, 2.5))
	assert.Equal(t, 1.0, ECDF(data, 10))
}

func TestSampleMVNormal_MomentsAndCorrelation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	mean := []float64{120, 80}
	cov := [][]float64{
		{100, 60},
		{60, 64},
	}

	samples, err := SampleMVNormal(mean, cov, 20000, rng)
	require.NoError(t, err)
	require.Len(t, samples, 20000)

	col0 := make([]float64, len(samples))
	col1 := make([]float64, len(samples))
	for i, s := range samples {
		col0[i] = s[0]
		col1[i] = s[1]
	}

	assert.InDelta(t, 120, stat.Mean(col0, nil), 0.5)
	assert.InDelta(t, 80, stat.Mean(col1, nil), 0.5)
	assert.InDelta(t, 100, stat.Variance(col0, nil), 5)

	// Target correlation is 60/sqrt(100*64) = 0.75.
	corr := stat.Correlation(col0, col1, nil)
	assert.InDelta(t, 0.75, corr, 0.03)
}

func TestSampleMVNormal_RoundedOffDiagonals(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	// Scaling a correlation by two SDs left to right does not commute
	// in floating point: 0.18*12*10 and 0.18*10*12 differ in the last
	// bit. A covariance assembled that way must still be accepted.
	rho, sd0, sd1 := 0.18, 12.0, 10.0
	cov := [][]float64{
		{sd0 * sd0, rho * sd0 * sd1},
		{rho * sd1 * sd0, sd1 * sd1},
	}

	samples, err := SampleMVNormal([]float64{120, 80}, cov, 100, rng)
	require.NoError(t, err)
	assert.Len(t, samples, 100)
}

func TestSampleMVNormal_BadCovariance(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := SampleMVNormal([]float64{0, 0}, [][]float64{{1, 0}}, 1, rng)
	require.Error(t, err)

	_, err = SampleMVNormal([]float64{0, 0}, [][]float64{{1, 2}, {3, 1}}, 1, rng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symmetric")

	// Not positive definite: correlation above 1.
	_, err = SampleMVNormal([]float64{0, 0}, [][]float64{{1, 2}, {2, 1}}, 1, rng)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive definite")
}

func TestTruncatedNormal_Bounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		v := TruncatedNormal(50, 20, 18, 90, rng)
		assert.GreaterOrEqual(t, v, 18.0)
		assert.LessOrEqual(t, v, 90.0)
	}
}

func TestWeightedChoice(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	counts := make([]int, 3)
	weights := []float64{0.7, 0.2, 0.1}
	for i := 0; i < 10000; i++ {
		idx, err := WeightedChoice(weights, rng)
		require.NoError(t, err)
		counts[idx]++
	}
	assert.InDelta(t, 7000, counts[0], 300)
	assert.InDelta(t, 2000, counts[1], 300)
	assert.InDelta(t, 1000, counts[2], 300)

	_, err := WeightedChoice([]float64{0, 0}, rng)
	require.Error(t, err)
	_, err = WeightedChoice([]float64{1, -1}, rng)
	require.Error(t, err)
}

func TestBootstrap_MeanInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	data := make([]float64, 200)
	for i := range data {
		data[i] = 10 + 2*rng.NormFloat64()
	}

	res, err := Bootstrap(data, 1000, rng, func(x []float64) float64 {
		return stat.Mean(x, nil)
	})
	require.NoError(t, err)
	assert.InDelta(t, 10, res.Mean, 0.5)
	assert.Less(t, res.Lower, res.Mean)
	assert.Greater(t, res.Upper, res.Mean)
	assert.InDelta(t, res.Mean, res.Lower, 1.0)

	_, err = Bootstrap(nil, 100, rng, func(x []float64) float64 { return 0 })
	require.Error(t, err)
	_, err = Bootstrap(data, 0, rng, func(x []float64) float64 { return 0 })
	require.Error(t, err)
}

func TestBootstrap_Deterministic(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	f := func(x []float64) float64 { return stat.Mean(x, nil) }

	r1, err := Bootstrap(data, 50, rand.New(rand.NewSource(9)), f)
	require.NoError(t, err)
	r2, err := Bootstrap(data, 50, rand.New(rand.NewSource(9)), f)
	require.NoError(t, err)
	assert.Equal(t, r1.Samples, r2.Samples)
}

func TestStandardizedMeanDifference(t *testing.T) {
	assert.InDelta(t, 0.0, StandardizedMeanDifference(10, 2, 10, 2), 1e-12)
	assert.InDelta(t, 1.0, StandardizedMeanDifference(12, 2, 10, 2), 1e-12)
	assert.InDelta(t, -1.0, StandardizedMeanDifference(10, 2, 12, 2), 1e-12)
	assert.True(t, math.IsInf(StandardizedMeanDifference(1, 0, 2, 0), -1))
	assert.Equal(t, 0.0, StandardizedMeanDifference(5, 0, 5, 0))
}

func TestTwoProportionZ(t *testing.T) {
	z, p, err := TwoProportionZ(0.5, 100, 0.5, 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, z)
	assert.InDelta(t, 1.0, p, 1e-9)

	z, p, err = TwoProportionZ(0.9, 500, 0.1, 500)
	require.NoError(t, err)
	assert.Greater(t, z, 10.0)
	assert.Less(t, p, 1e-9)

	_, _, err = TwoProportionZ(0.5, 0, 0.5, 10)
	require.Error(t, err)
	_, _, err = TwoProportionZ(1.5, 10, 0.5, 10)
	require.Error(t, err)
}

func TestChiSquaredGOF(t *testing.T) {
	// Perfect agreement.
	chi2, p, err := ChiSquaredGOF([]float64{50, 30, 20}, []float64{50, 30, 20})
	require.NoError(t, err)
	assert.Equal(t, 0.0, chi2)
	assert.InDelta(t, 1.0, p, 1e-9)

	// Gross disagreement.
	chi2, p, err = ChiSquaredGOF([]float64{100, 0}, []float64{50, 50})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, chi2, 1e-9)
	assert.Less(t, p, 1e-9)

	_, _, err = ChiSquaredGOF([]float64{1, 2}, []float64{1})
	require.Error(t, err)
	_, _, err = ChiSquaredGOF([]float64{1, 2}, []float64{1, 0})
	require.Error(t, err)
	_, _, err = ChiSquaredGOF([]float64{1}, []float64{1})
	require.Error(t, err)
}

func TestCorrelationFidelity(t *testing.T) {
	cols := [][]float64{
		{1, 2, 3, 4, 5},
		{2, 4, 6, 8, 10},
	}
	a, err := CorrelationMatrix(cols)
	require.NoError(t, err)

	score, err := CorrelationFidelity(a, a)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	anti, err := CorrelationMatrix([][]float64{
		{1, 2, 3, 4, 5},
		{10, 8, 6, 4, 2},
	})
	require.NoError(t, err)
	score, err = CorrelationFidelity(a, anti)
	require.NoError(t, err)
	assert.Less(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

func TestCorrelationMatrix_Errors(t *testing.T) {
	_, err := CorrelationMatrix(nil)
	require.Error(t, err)
	_, err = CorrelationMatrix([][]float64{{1}})
	require.Error(t, err)
	_, err = CorrelationMatrix([][]float64{{1, 2}, {1, 2, 3}})
	require.Error(t, err)
}
