// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
)

// Labs generates one row per subject per visit per analyte in the
// profile's lab panels.
//
// Normal analytes center in the reference range with an SD of a quarter
// of the range, so roughly 95% of in-range draws stay in range.
// Log-normal analytes use the geometric midpoint, which matches
// right-skewed tests like triglycerides or ALT. At each analyte's
// abnormal rate the value is pushed 10% to 50% beyond a randomly chosen
// bound. LBNRIND flags each result L, N or H against the range.
func Labs(p *profile_engine.Profile, subjects []Subject, rng *rand.Rand) (*dataset.Table, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("labs: no subjects")
	}
	if len(p.LabPanels) == 0 {
		return nil, fmt.Errorf("labs: profile %s defines no lab panels", p.Name)
	}

	var (
		ids     []string
		arms    []string
		visits  []string
		tests   []string
		panels  []string
		units   []string
		results []float64
		los     []float64
		his     []float64
		flags   []string
	)
	for _, subj := range subjects {
		lastVisit := dropoutVisit(p, rng)
		for vi, visit := range p.Visits {
			if vi > lastVisit {
				break
			}
			for _, lab := range p.LabPanels {
				val := sampleLab(&lab, rng)
				ids = append(ids, subj.ID)
				arms = append(arms, subj.Arm)
				visits = append(visits, visit.Name)
				tests = append(tests, lab.Name)
				panels = append(panels, lab.Panel)
				units = append(units, lab.Unit)
				results = append(results, val)
				los = append(los, lab.Low)
				his = append(his, lab.High)
				flags = append(flags, rangeFlag(val, lab.Low, lab.High))
			}
		}
	}

	cols := make([]*dataset.Series, 0, 10)
	for _, c := range []struct {
		name string
		vals []string
	}{
		{"USUBJID", ids},
		{"ARM", arms},
		{"VISIT", visits},
		{"LBTEST", tests},
		{"LBPANEL", panels},
		{"LBUNIT", units},
	} {
		s, err := dataset.NewStringSeries(c.name, c.vals, nil)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}
	for _, c := range []struct {
		name string
		vals []float64
	}{
		{"LBORRES", results},
		{"LBORNRLO", los},
		{"LBORNRHI", his},
	} {
		s, err := dataset.NewFloatSeries(c.name, c.vals, nil)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}
	flag, err := dataset.NewStringSeries("LBNRIND", flags, nil)
	if err != nil {
		return nil, err
	}
	cols = append(cols, flag)
	return dataset.NewTable(cols...)
}

func sampleLab(lab *profile_engine.LabAnalyte, rng *rand.Rand) float64 {
	if rng.Float64() < lab.AbnormalRate {
		return sampleAbnormal(lab, rng)
	}
	if lab.LogNormal {
		mu := math.Log(math.Sqrt(lab.Low * lab.High))
		sigma := math.Log(lab.High/lab.Low) / 4
		return math.Exp(mu + sigma*rng.NormFloat64())
	}
	mid := (lab.Low + lab.High) / 2
	sd := (lab.High - lab.Low) / 4
	return mid + sd*rng.NormFloat64()
}

// sampleAbnormal pushes a result 10% to 50% of the range width beyond a
// randomly chosen bound, low values floored at a tenth of the low bound.
func sampleAbnormal(lab *profile_engine.LabAnalyte, rng *rand.Rand) float64 {
	width := lab.High - lab.Low
	excess := width * (0.1 + 0.4*rng.Float64())
	if rng.Float64() < 0.5 {
		v := lab.Low - excess
		if floor := lab.Low * 0.1; v < floor {
			v = floor
		}
		return v
	}
	return lab.High + excess
}

func rangeFlag(v, lo, hi float64) string {
	switch {
	case v < lo:
		return "L"
	case v > hi:
		return "H"
	default:
		return "N"
	}
}
