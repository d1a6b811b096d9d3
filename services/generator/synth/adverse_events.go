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
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
)

// AdverseEvents generates one row per subject per adverse event the
// subject experiences during the study.
//
// Each dictionary term is an independent Bernoulli per subject, with
// incidence chosen by arm. Onset day is uniform over the study span,
// severity is a weighted draw from the term's severity distribution,
// and AESER marks serious events Y or N. The returned table can be
// empty when no subject draws any event.
func AdverseEvents(p *profile_engine.Profile, subjects []Subject, rng *rand.Rand) (*dataset.Table, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("adverse events: no subjects")
	}
	studyDays := p.Visits[len(p.Visits)-1].Day
	if studyDays < 1 {
		studyDays = 1
	}
	terms := profile_engine.SortedTerms(p.AdverseEvents)

	var (
		ids    []string
		arms   []string
		aes    []string
		socs   []string
		sevs   []string
		sers   []string
		onsets []float64
	)
	for _, subj := range subjects {
		control := isControlArm(subj.Arm)
		for _, term := range terms {
			incidence := term.IncidenceTreatment
			if control {
				incidence = term.IncidencePlacebo
			}
			if rng.Float64() >= incidence {
				continue
			}

			severity, err := pick(term.Severity, rng)
			if err != nil {
				return nil, fmt.Errorf("adverse events: term %s: %w", term.Term, err)
			}
			serious := "N"
			if rng.Float64() < term.SeriousProbability {
				serious = "Y"
			}

			ids = append(ids, subj.ID)
			arms = append(arms, subj.Arm)
			aes = append(aes, term.Term)
			socs = append(socs, term.SystemOrganClass)
			sevs = append(sevs, severity)
			sers = append(sers, serious)
			onsets = append(onsets, float64(1+rng.Intn(studyDays)))
		}
	}

	cols := make([]*dataset.Series, 0, 7)
	for _, c := range []struct {
		name string
		vals []string
	}{
		{"USUBJID", ids},
		{"ARM", arms},
		{"AETERM", aes},
		{"AESOC", socs},
		{"AESEV", sevs},
		{"AESER", sers},
	} {
		s, err := dataset.NewStringSeries(c.name, c.vals, nil)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}
	onset, err := dataset.NewFloatSeries("AESTDY", onsets, nil)
	if err != nil {
		return nil, err
	}
	cols = append(cols, onset)
	return dataset.NewTable(cols...)
}
