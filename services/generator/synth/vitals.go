// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package synth

import (
	"fmt"
	"math/rand"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/stats"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
)

// measurement noise relative to the baseline SD of each measure.
const visitNoiseFrac = 0.2

// Vitals generates one row per subject per attended visit with all of
// the profile's vitals measures as float columns.
//
// Each subject gets a baseline vector drawn from the profile's
// correlated multivariate normal. Follow-up values drift per study day
// according to the subject's arm, plus independent visit-level noise,
// and are clamped to each measure's physiologic range. Subjects drop
// out at the profile's dropout rate and contribute no rows after their
// last attended visit.
func Vitals(p *profile_engine.Profile, subjects []Subject, rng *rand.Rand) (*dataset.Table, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("vitals: no subjects")
	}
	v := &p.Vitals
	d := len(v.Measures)

	mean := make([]float64, d)
	cov := make([][]float64, d)
	for i, m := range v.Measures {
		mean[i] = m.Mean
		cov[i] = make([]float64, d)
		cov[i][i] = m.SD * m.SD
	}
	// Scale the upper triangle and mirror it. The SD products are not
	// commutative in floating point, so computing both halves
	// independently can break the symmetry the sampler requires.
	for i, m := range v.Measures {
		for j := i + 1; j < d; j++ {
			c := v.Correlation[i][j] * m.SD * v.Measures[j].SD
			cov[i][j] = c
			cov[j][i] = c
		}
	}

	baselines, err := stats.SampleMVNormal(mean, cov, len(subjects), rng)
	if err != nil {
		return nil, fmt.Errorf("vitals: %w", err)
	}

	var (
		ids    []string
		arms   []string
		visits []string
		days   []float64
		values = make([][]float64, d)
	)
	for si, subj := range subjects {
		lastVisit := dropoutVisit(p, rng)
		drift := v.TreatmentDriftPerDay
		if isControlArm(subj.Arm) {
			drift = v.PlaceboDriftPerDay
		}

		for vi, visit := range p.Visits {
			if vi > lastVisit {
				break
			}
			day := actualDay(visit, rng)
			ids = append(ids, subj.ID)
			arms = append(arms, subj.Arm)
			visits = append(visits, visit.Name)
			days = append(days, float64(day))
			for mi, m := range v.Measures {
				val := baselines[si][mi] + drift[m.Name]*float64(day) + m.SD*visitNoiseFrac*rng.NormFloat64()
				values[mi] = append(values[mi], clampTo(val, m.Min, m.Max))
			}
		}
	}

	cols := make([]*dataset.Series, 0, 4+d)
	id, err := dataset.NewStringSeries("USUBJID", ids, nil)
	if err != nil {
		return nil, err
	}
	arm, err := dataset.NewStringSeries("ARM", arms, nil)
	if err != nil {
		return nil, err
	}
	visit, err := dataset.NewStringSeries("VISIT", visits, nil)
	if err != nil {
		return nil, err
	}
	day, err := dataset.NewFloatSeries("VISITDY", days, nil)
	if err != nil {
		return nil, err
	}
	cols = append(cols, id, arm, visit, day)
	for mi, m := range v.Measures {
		s, err := dataset.NewFloatSeries(m.Name, values[mi], nil)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}
	return dataset.NewTable(cols...)
}

// dropoutVisit returns the index of the last visit a subject attends.
// With probability DropoutRate the subject leaves after a uniformly
// chosen non-final visit; everyone attends baseline.
func dropoutVisit(p *profile_engine.Profile, rng *rand.Rand) int {
	last := len(p.Visits) - 1
	if last == 0 || p.DropoutRate <= 0 {
		return last
	}
	if rng.Float64() >= p.DropoutRate {
		return last
	}
	return rng.Intn(last)
}

// actualDay applies the visit's scheduling window as a uniform jitter
// around the nominal study day.
func actualDay(v profile_engine.Visit, rng *rand.Rand) int {
	if v.WindowDays <= 0 {
		return v.Day
	}
	return v.Day + rng.Intn(2*v.WindowDays+1) - v.WindowDays
}

func clampTo(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
