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
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Relative tolerance for the covariance symmetry check. Matrices built
// from rounded float products can differ across the diagonal in the
// last few bits without being meaningfully asymmetric.
const symmetryTol = 1e-9

// SampleMVNormal draws n samples from a multivariate normal with the
// given mean and covariance using a Cholesky factorization. cov must be
// square, match len(mean), and be symmetric positive definite. Symmetry
// is checked to a small relative tolerance and the two halves are
// averaged before factorization.
//
// The result is row-major: result[i][j] is dimension j of sample i.
func SampleMVNormal(mean []float64, cov [][]float64, n int, rng *rand.Rand) ([][]float64, error) {
	d := len(mean)
	if d == 0 {
		return nil, fmt.Errorf("mvnormal: empty mean vector")
	}
	if len(cov) != d {
		return nil, fmt.Errorf("mvnormal: covariance has %d rows, expected %d", len(cov), d)
	}
	sym := mat.NewSymDense(d, nil)
	for i := 0; i < d; i++ {
		if len(cov[i]) != d {
			return nil, fmt.Errorf("mvnormal: covariance row %d has %d cols, expected %d", i, len(cov[i]), d)
		}
		for j := i; j < d; j++ {
			a, b := cov[i][j], cov[j][i]
			scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
			if math.Abs(a-b) > symmetryTol*scale {
				return nil, fmt.Errorf("mvnormal: covariance not symmetric at (%d,%d)", i, j)
			}
			sym.SetSym(i, j, (a+b)/2)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("mvnormal: covariance is not positive definite")
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	out := make([][]float64, n)
	z := mat.NewVecDense(d, nil)
	x := mat.NewVecDense(d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			z.SetVec(j, rng.NormFloat64())
		}
		x.MulVec(&lower, z)
		row := make([]float64, d)
		for j := 0; j < d; j++ {
			row[j] = mean[j] + x.AtVec(j)
		}
		out[i] = row
	}
	return out, nil
}

// TruncatedNormal draws one sample from N(mean, sd^2) clamped by
// rejection to [lo, hi]. Falls back to clamping after 100 rejections so
// a degenerate range cannot spin forever.
func TruncatedNormal(mean, sd, lo, hi float64, rng *rand.Rand) float64 {
	for i := 0; i < 100; i++ {
		v := mean + sd*rng.NormFloat64()
		if v >= lo && v <= hi {
			return v
		}
	}
	v := mean + sd*rng.NormFloat64()
	return clamp(v, lo, hi)
}

// WeightedChoice picks an index proportionally to weights. Weights must
// be non-negative and sum to a positive value.
func WeightedChoice(weights []float64, rng *rand.Rand) (int, error) {
	var total float64
	for i, w := range weights {
		if w < 0 {
			return 0, fmt.Errorf("weighted choice: negative weight at %d", i)
		}
		total += w
	}
	if total <= 0 {
		return 0, fmt.Errorf("weighted choice: weights sum to %v", total)
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i, nil
		}
	}
	return len(weights) - 1, nil
}

// BootstrapResult summarizes a bootstrap distribution of a statistic.
type BootstrapResult struct {
	Mean    float64   `json:"mean"`
	Lower   float64   `json:"lower_95"`
	Upper   float64   `json:"upper_95"`
	Samples []float64 `json:"-"`
}

// Bootstrap resamples data with replacement iters times, applies statFn
// to each resample, and returns the mean with a 95% percentile interval.
func Bootstrap(data []float64, iters int, rng *rand.Rand, statFn func([]float64) float64) (BootstrapResult, error) {
	if len(data) == 0 {
		return BootstrapResult{}, fmt.Errorf("bootstrap requires non-empty data")
	}
	if iters <= 0 {
		return BootstrapResult{}, fmt.Errorf("bootstrap requires positive iterations, got %d", iters)
	}

	samples := make([]float64, iters)
	resample := make([]float64, len(data))
	for i := 0; i < iters; i++ {
		for j := range resample {
			resample[j] = data[rng.Intn(len(data))]
		}
		samples[i] = statFn(resample)
	}

	sorted := sortedCopy(samples)
	return BootstrapResult{
		Mean:    stat.Mean(samples, nil),
		Lower:   stat.Quantile(0.025, stat.Empirical, sorted, nil),
		Upper:   stat.Quantile(0.975, stat.Empirical, sorted, nil),
		Samples: samples,
	}, nil
}

// Quantile returns the q-th empirical quantile of data (0 <= q <= 1).
func Quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := sortedCopy(data)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
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
