// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package synth

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/validation"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
)

func testProfile(t *testing.T, name string) *profile_engine.Profile {
	t.Helper()
	engine, err := profile_engine.NewEngine()
	require.NoError(t, err)
	p, err := engine.Profile(name)
	require.NoError(t, err)
	return p
}

func TestDemographics(t *testing.T) {
	p := testProfile(t, "hypertension_phase3")
	subjects, err := Demographics(p, 500, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	require.Len(t, subjects, 500)

	arms := map[string]int{}
	for _, s := range subjects {
		require.NoError(t, validation.ValidateSubjectID(s.ID))
		assert.GreaterOrEqual(t, s.Age, p.Demographics.AgeMin)
		assert.LessOrEqual(t, s.Age, p.Demographics.AgeMax)
		arms[s.Arm]++
	}

	// 50/50 randomization, loose binomial bound.
	assert.InDelta(t, 250, arms["TREATMENT"], 60)
	assert.InDelta(t, 250, arms["PLACEBO"], 60)
}

func TestDemographics_Deterministic(t *testing.T) {
	p := testProfile(t, "oncology_phase2")
	a, err := Demographics(p, 50, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := Demographics(p, 50, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDemographics_InvalidCount(t *testing.T) {
	p := testProfile(t, "cdisc_pilot")
	_, err := Demographics(p, 0, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestDemographicsTable(t *testing.T) {
	p := testProfile(t, "cdisc_pilot")
	subjects, err := Demographics(p, 20, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	table, err := DemographicsTable(subjects)
	require.NoError(t, err)
	assert.Equal(t, 20, table.NumRows())
	for _, col := range []string{"USUBJID", "ARM", "SITEID", "AGE", "SEX", "RACE", "ETHNIC", "COUNTRY"} {
		assert.True(t, table.HasColumn(col), "missing column %s", col)
	}
}

func TestVitals(t *testing.T) {
	p := testProfile(t, "hypertension_phase3")
	rng := rand.New(rand.NewSource(11))
	subjects, err := Demographics(p, 200, rng)
	require.NoError(t, err)

	table, err := Vitals(p, subjects, rng)
	require.NoError(t, err)

	maxRows := len(subjects) * len(p.Visits)
	assert.LessOrEqual(t, table.NumRows(), maxRows)
	assert.Greater(t, table.NumRows(), maxRows/2)

	for _, m := range p.Vitals.Measures {
		vals, err := table.Float64Column(m.Name)
		require.NoError(t, err)
		for _, v := range vals {
			assert.GreaterOrEqual(t, v, m.Min)
			assert.LessOrEqual(t, v, m.Max)
		}
	}
}

func TestVitals_EveryProfile(t *testing.T) {
	// Each catalog profile carries its own correlation matrix and SD
	// set; all of them must yield a usable baseline covariance.
	engine, err := profile_engine.NewEngine()
	require.NoError(t, err)
	for _, name := range engine.Names() {
		t.Run(name, func(t *testing.T) {
			p, err := engine.Profile(name)
			require.NoError(t, err)
			rng := rand.New(rand.NewSource(13))
			subjects, err := Demographics(p, 30, rng)
			require.NoError(t, err)

			table, err := Vitals(p, subjects, rng)
			require.NoError(t, err)
			assert.Greater(t, table.NumRows(), 0)
		})
	}
}

func TestVitals_CorrelatedBaseline(t *testing.T) {
	p := testProfile(t, "hypertension_phase3")
	rng := rand.New(rand.NewSource(19))
	subjects, err := Demographics(p, 2000, rng)
	require.NoError(t, err)
	table, err := Vitals(p, subjects, rng)
	require.NoError(t, err)

	// Systolic and diastolic BP are specified at rho 0.62; visit noise
	// dilutes that somewhat across the pooled rows.
	sbp, err := table.Float64Column("systolic_bp")
	require.NoError(t, err)
	dbp, err := table.Float64Column("diastolic_bp")
	require.NoError(t, err)
	rho := stat.Correlation(sbp, dbp, nil)
	assert.InDelta(t, 0.62, rho, 0.12)
}

func TestVitals_TreatmentDrift(t *testing.T) {
	p := testProfile(t, "hypertension_phase3")
	rng := rand.New(rand.NewSource(23))
	subjects, err := Demographics(p, 2000, rng)
	require.NoError(t, err)
	table, err := Vitals(p, subjects, rng)
	require.NoError(t, err)

	visitCol, err := table.Column("VISIT")
	require.NoError(t, err)
	visits, _, err := visitCol.Strings()
	require.NoError(t, err)
	armCol, err := table.Column("ARM")
	require.NoError(t, err)
	arms, _, err := armCol.Strings()
	require.NoError(t, err)
	sbpCol, err := table.Column("systolic_bp")
	require.NoError(t, err)
	sbp, _, err := sbpCol.Floats()
	require.NoError(t, err)

	var treated, placebo []float64
	for i := range visits {
		if visits[i] != "WEEK26" {
			continue
		}
		if arms[i] == "TREATMENT" {
			treated = append(treated, sbp[i])
		} else {
			placebo = append(placebo, sbp[i])
		}
	}
	require.NotEmpty(t, treated)
	require.NotEmpty(t, placebo)

	// Drift separates the arms by about 12.7 mmHg at day 182.
	diff := stat.Mean(placebo, nil) - stat.Mean(treated, nil)
	assert.InDelta(t, 12.7, diff, 3.0)
}

func TestLabs(t *testing.T) {
	p := testProfile(t, "hypertension_phase3")
	rng := rand.New(rand.NewSource(31))
	subjects, err := Demographics(p, 100, rng)
	require.NoError(t, err)

	table, err := Labs(p, subjects, rng)
	require.NoError(t, err)
	assert.Greater(t, table.NumRows(), 0)

	resCol, err := table.Column("LBORRES")
	require.NoError(t, err)
	res, _, err := resCol.Floats()
	require.NoError(t, err)
	loCol, err := table.Column("LBORNRLO")
	require.NoError(t, err)
	lo, _, err := loCol.Floats()
	require.NoError(t, err)
	hiCol, err := table.Column("LBORNRHI")
	require.NoError(t, err)
	hi, _, err := hiCol.Floats()
	require.NoError(t, err)
	flagCol, err := table.Column("LBNRIND")
	require.NoError(t, err)
	flags, _, err := flagCol.Strings()
	require.NoError(t, err)

	abnormal := 0
	for i := range res {
		assert.False(t, math.IsNaN(res[i]))
		assert.Greater(t, res[i], 0.0)
		switch flags[i] {
		case "L":
			assert.Less(t, res[i], lo[i])
			abnormal++
		case "H":
			assert.Greater(t, res[i], hi[i])
			abnormal++
		case "N":
			assert.GreaterOrEqual(t, res[i], lo[i])
			assert.LessOrEqual(t, res[i], hi[i])
		default:
			t.Fatalf("unexpected range flag %q", flags[i])
		}
	}
	// Profile abnormal rates run 4-8%, plus in-range normal tails.
	assert.Greater(t, abnormal, 0)
	assert.Less(t, float64(abnormal)/float64(len(res)), 0.3)
}

func TestAdverseEvents(t *testing.T) {
	p := testProfile(t, "oncology_phase2")
	rng := rand.New(rand.NewSource(41))
	subjects, err := Demographics(p, 1000, rng)
	require.NoError(t, err)

	table, err := AdverseEvents(p, subjects, rng)
	require.NoError(t, err)
	require.Greater(t, table.NumRows(), 0)

	lastDay := float64(p.Visits[len(p.Visits)-1].Day)
	onsets, err := table.Float64Column("AESTDY")
	require.NoError(t, err)
	for _, d := range onsets {
		assert.GreaterOrEqual(t, d, 1.0)
		assert.LessOrEqual(t, d, lastDay)
	}

	sevCol, err := table.Column("AESEV")
	require.NoError(t, err)
	sevs, _, err := sevCol.Strings()
	require.NoError(t, err)
	for _, s := range sevs {
		assert.Contains(t, []string{"MILD", "MODERATE", "SEVERE"}, s)
	}

	serCol, err := table.Column("AESER")
	require.NoError(t, err)
	sers, _, err := serCol.Strings()
	require.NoError(t, err)
	for _, s := range sers {
		assert.Contains(t, []string{"Y", "N"}, s)
	}
}

func TestAdverseEvents_ArmIncidence(t *testing.T) {
	p := testProfile(t, "oncology_phase2")
	rng := rand.New(rand.NewSource(43))
	subjects, err := Demographics(p, 3000, rng)
	require.NoError(t, err)
	table, err := AdverseEvents(p, subjects, rng)
	require.NoError(t, err)

	subjectsByArm := map[string]int{}
	for _, s := range subjects {
		subjectsByArm[s.Arm]++
	}

	termCol, err := table.Column("AETERM")
	require.NoError(t, err)
	terms, _, err := termCol.Strings()
	require.NoError(t, err)
	armCol, err := table.Column("ARM")
	require.NoError(t, err)
	arms, _, err := armCol.Strings()
	require.NoError(t, err)

	// Neutropenia: 24% on treatment vs 3% on control.
	count := map[string]int{}
	for i := range terms {
		if terms[i] == "Neutropenia" {
			count[arms[i]]++
		}
	}
	trtRate := float64(count["TREATMENT"]) / float64(subjectsByArm["TREATMENT"])
	ctlRate := float64(count["CONTROL"]) / float64(subjectsByArm["CONTROL"])
	assert.InDelta(t, 0.24, trtRate, 0.05)
	assert.InDelta(t, 0.03, ctlRate, 0.03)
	assert.Greater(t, trtRate, ctlRate)
}

func TestGenerate(t *testing.T) {
	p := testProfile(t, "hypertension_phase3")

	var mu sync.Mutex
	var seen []Progress
	tables, err := Generate(context.Background(), p, Request{
		Profile:  p.Name,
		Subjects: 100,
		Seed:     99,
	}, func(pr Progress) {
		mu.Lock()
		seen = append(seen, pr)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, tables, len(Domains))
	for _, domain := range Domains {
		require.Contains(t, tables, domain)
	}
	assert.Equal(t, 100, tables[DomainDemographics].NumRows())

	require.Len(t, seen, len(Domains))
	assert.Equal(t, DomainDemographics, seen[0].Domain)
	last := seen[len(seen)-1]
	assert.Equal(t, len(Domains), last.Done)
	assert.Equal(t, len(Domains), last.Total)
}

func TestGenerate_Deterministic(t *testing.T) {
	p := testProfile(t, "cdisc_pilot")
	req := Request{Profile: p.Name, Subjects: 60, Seed: 1234}

	a, err := Generate(context.Background(), p, req, nil)
	require.NoError(t, err)
	b, err := Generate(context.Background(), p, req, nil)
	require.NoError(t, err)

	for _, domain := range Domains {
		aj, err := a[domain].MarshalJSON()
		require.NoError(t, err)
		bj, err := b[domain].MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, string(aj), string(bj), "domain %s differs between runs", domain)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	p := testProfile(t, "hypertension_phase3")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Generate(ctx, p, Request{Profile: p.Name, Subjects: 10, Seed: 5}, nil)
	require.Error(t, err)
}
