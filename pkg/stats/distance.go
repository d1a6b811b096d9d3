// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package stats provides the statistical primitives shared by the
// generator, quality and benchmark services: distribution distances,
// multivariate-normal and bootstrap sampling, and comparison tests.
//
// All computations are deterministic; sampling functions take a
// caller-supplied *rand.Rand so generation is reproducible per seed.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// KSResult holds a two-sample Kolmogorov-Smirnov comparison.
type KSResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// KolmogorovSmirnov computes the two-sample KS statistic between a and b
// with the asymptotic p-value. Errors on empty inputs.
//
// The p-value uses the Kolmogorov series
// 2*sum_{j>=1} (-1)^(j-1) exp(-2 j^2 lambda^2) with the small-sample
// correction lambda = (sqrt(en) + 0.12 + 0.11/sqrt(en)) * D.
func KolmogorovSmirnov(a, b []float64) (KSResult, error) {
	if len(a) == 0 || len(b) == 0 {
		return KSResult{}, fmt.Errorf("kolmogorov-smirnov requires non-empty samples (got %d, %d)", len(a), len(b))
	}

	as := sortedCopy(a)
	bs := sortedCopy(b)

	// Walk both sorted samples tracking the max CDF gap.
	var d float64
	i, j := 0, 0
	na, nb := float64(len(as)), float64(len(bs))
	for i < len(as) && j < len(bs) {
		va, vb := as[i], bs[j]
		if va <= vb {
			i++
		}
		if vb <= va {
			j++
		}
		gap := math.Abs(float64(i)/na - float64(j)/nb)
		if gap > d {
			d = gap
		}
	}

	en := math.Sqrt(na * nb / (na + nb))
	lambda := (en + 0.12 + 0.11/en) * d

	// The alternating series does not converge for tiny lambda; the
	// survival function there is 1 to within 1e-12.
	if lambda < 0.2 {
		return KSResult{Statistic: d, PValue: 1}, nil
	}

	p := 0.0
	for k := 1; k <= 100; k++ {
		sign := 1.0
		if k%2 == 0 {
			sign = -1.0
		}
		term := sign * math.Exp(-2*lambda*lambda*float64(k*k))
		p += term
		if math.Abs(term) < 1e-12 {
			break
		}
	}
	p *= 2
	p = math.Max(0, math.Min(1, p))

	return KSResult{Statistic: d, PValue: p}, nil
}

// Wasserstein1 computes the first-order Wasserstein distance between the
// empirical distributions of a and b, integrating |F_a - F_b| over the
// merged support. Errors on empty inputs.
func Wasserstein1(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("wasserstein requires non-empty samples (got %d, %d)", len(a), len(b))
	}

	as := sortedCopy(a)
	bs := sortedCopy(b)

	all := make([]float64, 0, len(as)+len(bs))
	all = append(all, as...)
	all = append(all, bs...)
	sort.Float64s(all)

	na, nb := float64(len(as)), float64(len(bs))
	var dist float64
	for k := 0; k < len(all)-1; k++ {
		dx := all[k+1] - all[k]
		if dx == 0 {
			continue
		}
		fa := float64(sort.SearchFloat64s(as, nextAfter(all[k]))) / na
		fb := float64(sort.SearchFloat64s(bs, nextAfter(all[k]))) / nb
		dist += math.Abs(fa-fb) * dx
	}
	return dist, nil
}

// ECDF returns the empirical CDF of data evaluated at x.
func ECDF(data []float64, x float64) float64 {
	if len(data) == 0 {
		return 0
	}
	s := sortedCopy(data)
	return float64(sort.SearchFloat64s(s, nextAfter(x))) / float64(len(s))
}

// nextAfter nudges x up so SearchFloat64s counts values <= x.
func nextAfter(x float64) float64 {
	return math.Nextafter(x, math.Inf(1))
}

func sortedCopy(x []float64) []float64 {
	c := make([]float64, len(x))
	copy(c, x)
	sort.Float64s(c)
	return c
}
