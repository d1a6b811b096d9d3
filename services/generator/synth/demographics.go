// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package synth generates synthetic subject-level clinical data from a
// clinical profile: demographics, longitudinal vitals, lab results and
// adverse events.
//
// Everything is driven by a caller-supplied *rand.Rand, so a fixed
// seed reproduces a dataset bit for bit, subject IDs included.
package synth

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/stats"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
)

// Subject is one generated trial participant.
type Subject struct {
	ID        string
	Arm       string
	Site      string
	Age       float64
	Sex       string
	Race      string
	Ethnicity string
	Country   string
}

// Demographics generates n subjects from the profile's enrollment
// distributions. Arms are assigned by the profile's arm weights; ages
// are truncated normal; the remaining fields are weighted categorical.
func Demographics(p *profile_engine.Profile, n int, rng *rand.Rand) ([]Subject, error) {
	if n <= 0 {
		return nil, fmt.Errorf("demographics: subject count must be positive, got %d", n)
	}

	d := &p.Demographics
	subjects := make([]Subject, n)
	for i := range subjects {
		site := 1 + rng.Intn(d.Sites)

		// Subject IDs come from the shared rng so a seed reproduces
		// the full dataset, IDs included.
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("demographics: generate subject id: %w", err)
		}

		arm, err := pick(d.Arms, rng)
		if err != nil {
			return nil, fmt.Errorf("demographics: %w", err)
		}
		sex, err := pick(d.Sex, rng)
		if err != nil {
			return nil, fmt.Errorf("demographics: %w", err)
		}
		race, err := pick(d.Race, rng)
		if err != nil {
			return nil, fmt.Errorf("demographics: %w", err)
		}
		ethnicity, err := pick(d.Ethnicity, rng)
		if err != nil {
			return nil, fmt.Errorf("demographics: %w", err)
		}
		country, err := pick(d.Countries, rng)
		if err != nil {
			return nil, fmt.Errorf("demographics: %w", err)
		}

		subjects[i] = Subject{
			ID:        fmt.Sprintf("S%03d-%s", site, id.String()),
			Arm:       arm,
			Site:      fmt.Sprintf("S%03d", site),
			Age:       stats.TruncatedNormal(d.AgeMean, d.AgeSD, d.AgeMin, d.AgeMax, rng),
			Sex:       sex,
			Race:      race,
			Ethnicity: ethnicity,
			Country:   country,
		}
	}
	return subjects, nil
}

// DemographicsTable renders subjects as a DM-style table.
func DemographicsTable(subjects []Subject) (*dataset.Table, error) {
	n := len(subjects)
	ids := make([]string, n)
	arms := make([]string, n)
	sites := make([]string, n)
	ages := make([]float64, n)
	sexes := make([]string, n)
	races := make([]string, n)
	ethnics := make([]string, n)
	countries := make([]string, n)
	for i, s := range subjects {
		ids[i] = s.ID
		arms[i] = s.Arm
		sites[i] = s.Site
		ages[i] = s.Age
		sexes[i] = s.Sex
		races[i] = s.Race
		ethnics[i] = s.Ethnicity
		countries[i] = s.Country
	}

	cols := make([]*dataset.Series, 0, 8)
	for _, c := range []struct {
		name string
		vals []string
	}{
		{"USUBJID", ids},
		{"ARM", arms},
		{"SITEID", sites},
	} {
		s, err := dataset.NewStringSeries(c.name, c.vals, nil)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}
	age, err := dataset.NewFloatSeries("AGE", ages, nil)
	if err != nil {
		return nil, err
	}
	cols = append(cols, age)
	for _, c := range []struct {
		name string
		vals []string
	}{
		{"SEX", sexes},
		{"RACE", races},
		{"ETHNIC", ethnics},
		{"COUNTRY", countries},
	} {
		s, err := dataset.NewStringSeries(c.name, c.vals, nil)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}
	return dataset.NewTable(cols...)
}

func pick(cats []profile_engine.CategoryWeight, rng *rand.Rand) (string, error) {
	idx, err := stats.WeightedChoice(profile_engine.Weights(cats), rng)
	if err != nil {
		return "", err
	}
	return cats[idx].Value, nil
}

// isControlArm reports whether an arm name denotes the comparator arm
// for incidence and drift purposes.
func isControlArm(arm string) bool {
	switch arm {
	case "PLACEBO", "CONTROL":
		return true
	}
	return false
}
