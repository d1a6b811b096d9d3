// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package population

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	assert.Equal(t, []string{"dementia", "hypertension", "oncology"}, engine.Names())

	area, err := engine.Area("hypertension")
	require.NoError(t, err)
	assert.InDelta(t, 57.4, area.AgeMean, 0.001)
	assert.Equal(t, 186430, area.Subjects)
}

func TestNewEngineFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"broken yaml": "areas: [",
		"no areas":    "areas: []",
		"bad sum": `
areas:
  - name: x
    subjects: 100
    age_mean: 50
    age_sd: 10
    sex:
      - { value: M, fraction: 0.9 }
      - { value: F, fraction: 0.9 }
    race:
      - { value: WHITE, fraction: 1.0 }
`,
		"zero sd": `
areas:
  - name: x
    subjects: 100
    age_mean: 50
    age_sd: 0
    sex:
      - { value: M, fraction: 0.5 }
      - { value: F, fraction: 0.5 }
    race:
      - { value: WHITE, fraction: 1.0 }
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewEngineFromBytes([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestArea_Unknown(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	_, err = engine.Area("cardiology")
	assert.ErrorContains(t, err, "unknown benchmark area")
}

// demoTable builds a demographics table from parallel slices.
func demoTable(t *testing.T, ages []float64, sexes, races []string) *dataset.Table {
	t.Helper()
	age, err := dataset.NewFloatSeries("AGE", ages, nil)
	require.NoError(t, err)
	sex, err := dataset.NewStringSeries("SEX", sexes, nil)
	require.NoError(t, err)
	race, err := dataset.NewStringSeries("RACE", races, nil)
	require.NoError(t, err)
	table, err := dataset.NewTable(age, sex, race)
	require.NoError(t, err)
	return table
}

// matchingTable mirrors the hypertension benchmark exactly: ages
// alternate one standard deviation around the mean and the sex and
// race counts hit the benchmark fractions to the subject.
func matchingTable(t *testing.T, n int) *dataset.Table {
	t.Helper()
	ages := make([]float64, n)
	sexes := make([]string, n)
	races := make([]string, n)
	for i := range ages {
		if i%2 == 0 {
			ages[i] = 57.4 + 11.8
		} else {
			ages[i] = 57.4 - 11.8
		}
		if i < int(0.545*float64(n)) {
			sexes[i] = "M"
		} else {
			sexes[i] = "F"
		}
		switch {
		case i < int(0.71*float64(n)):
			races[i] = "WHITE"
		case i < int(0.86*float64(n)):
			races[i] = "BLACK OR AFRICAN AMERICAN"
		case i < int(0.95*float64(n)):
			races[i] = "ASIAN"
		default:
			races[i] = "OTHER"
		}
	}
	return demoTable(t, ages, sexes, races)
}

func TestCompare_Matching(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rep, err := engine.Compare("hypertension", matchingTable(t, 2000), nil)
	require.NoError(t, err)

	assert.Equal(t, "hypertension", rep.Area)
	assert.Equal(t, 2000, rep.Subjects)
	assert.Equal(t, VerdictOK, rep.Age.Verdict)
	assert.InDelta(t, 0, rep.Age.SMD, 0.01)
	assert.Equal(t, VerdictOK, rep.Sex.Verdict)
	assert.Equal(t, VerdictOK, rep.Race.Verdict)
	assert.Equal(t, VerdictOK, rep.Verdict)
}

func TestCompare_ShiftedAge(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	n := 2000
	ages := make([]float64, n)
	sexes := make([]string, n)
	races := make([]string, n)
	base := matchingTable(t, n)
	baseAges, err := base.Float64Column("AGE")
	require.NoError(t, err)
	baseSex, err := base.Column("SEX")
	require.NoError(t, err)
	baseRace, err := base.Column("RACE")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		ages[i] = baseAges[i] + 15
		sexes[i] = baseSex.CellString(i)
		races[i] = baseRace.CellString(i)
	}

	rep, err := engine.Compare("hypertension", demoTable(t, ages, sexes, races), nil)
	require.NoError(t, err)
	assert.Equal(t, VerdictFlag, rep.Age.Verdict)
	assert.Greater(t, rep.Age.SMD, 1.0)
	assert.Equal(t, VerdictFlag, rep.Verdict)
}

func TestCompare_SexImbalance(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	table := matchingTable(t, 2000)
	sexes := make([]string, 2000)
	for i := range sexes {
		sexes[i] = "M"
	}
	ages, err := table.Float64Column("AGE")
	require.NoError(t, err)
	race, err := table.Column("RACE")
	require.NoError(t, err)
	races := make([]string, 2000)
	for i := range races {
		races[i] = race.CellString(i)
	}

	rep, err := engine.Compare("hypertension", demoTable(t, ages, sexes, races), nil)
	require.NoError(t, err)
	assert.Equal(t, VerdictFlag, rep.Sex.Verdict)
	assert.Less(t, rep.Sex.PValue, 0.001)
	assert.Equal(t, VerdictFlag, rep.Verdict)
}

func TestCompare_UnknownRaceFoldsToOther(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	table := matchingTable(t, 2000)
	ages, err := table.Float64Column("AGE")
	require.NoError(t, err)
	sex, err := table.Column("SEX")
	require.NoError(t, err)
	race, err := table.Column("RACE")
	require.NoError(t, err)
	sexes := make([]string, 2000)
	races := make([]string, 2000)
	for i := range races {
		sexes[i] = sex.CellString(i)
		races[i] = race.CellString(i)
		if races[i] == "OTHER" {
			races[i] = "NATIVE HAWAIIAN OR OTHER PACIFIC ISLANDER"
		}
	}

	rep, err := engine.Compare("hypertension", demoTable(t, ages, sexes, races), nil)
	require.NoError(t, err)
	assert.Equal(t, VerdictOK, rep.Race.Verdict)
	assert.InDelta(t, 0, rep.Race.ChiSquared, 0.001)
}

// aeTable builds an adverse event table with the given total and
// serious event counts.
func aeTable(t *testing.T, total, serious int) *dataset.Table {
	t.Helper()
	flags := make([]string, total)
	for i := range flags {
		if i < serious {
			flags[i] = "Y"
		} else {
			flags[i] = "N"
		}
	}
	ser, err := dataset.NewStringSeries("AESER", flags, nil)
	require.NoError(t, err)
	table, err := dataset.NewTable(ser)
	require.NoError(t, err)
	return table
}

func TestCompare_AdverseEventsMatching(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	// 2000 subjects at the benchmark rate of 1.9 events/subject, with
	// a serious fraction right at the benchmark's 0.061.
	rep, err := engine.Compare("hypertension", matchingTable(t, 2000), aeTable(t, 3800, 232))
	require.NoError(t, err)

	require.NotNil(t, rep.AdverseEvents)
	assert.InDelta(t, 1.9, rep.AdverseEvents.EventsPerSubject, 0.001)
	assert.InDelta(t, 1.0, rep.AdverseEvents.RateRatio, 0.001)
	assert.Equal(t, VerdictOK, rep.AdverseEvents.Verdict)
	assert.Equal(t, VerdictOK, rep.Verdict)
}

func TestCompare_AdverseEventsExcessRate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	// 5 events per subject against a benchmark of 1.9 is past the
	// factor-of-two flag threshold.
	rep, err := engine.Compare("hypertension", matchingTable(t, 2000), aeTable(t, 10000, 610))
	require.NoError(t, err)

	require.NotNil(t, rep.AdverseEvents)
	assert.Greater(t, rep.AdverseEvents.RateRatio, 2.0)
	assert.Equal(t, VerdictFlag, rep.AdverseEvents.Verdict)
	assert.Equal(t, VerdictFlag, rep.Verdict)
}

func TestCompare_MissingColumns(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	age, err := dataset.NewFloatSeries("AGE", []float64{55, 60}, nil)
	require.NoError(t, err)
	table, err := dataset.NewTable(age)
	require.NoError(t, err)

	_, err = engine.Compare("hypertension", table, nil)
	assert.ErrorContains(t, err, "SEX")
}
