// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package profile_engine

import (
	"fmt"
	"sort"
)

// CatalogFile is the top-level structure of the clinical profile YAML.
type CatalogFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// Profile describes one trial archetype: who is enrolled, when they are
// seen, and how vitals, labs and adverse events behave.
type Profile struct {
	Name          string       `yaml:"name" json:"name"`
	Description   string       `yaml:"description" json:"description"`
	DropoutRate   float64      `yaml:"dropout_rate" json:"dropout_rate"`
	Demographics  Demographics `yaml:"demographics" json:"demographics"`
	Visits        []Visit      `yaml:"visits" json:"visits"`
	Vitals        VitalsSpec   `yaml:"vitals" json:"vitals"`
	LabPanels     []LabAnalyte `yaml:"lab_panels" json:"lab_panels"`
	AdverseEvents []AETerm     `yaml:"adverse_events" json:"adverse_events"`
}

// CategoryWeight is one weighted categorical level.
type CategoryWeight struct {
	Value  string  `yaml:"value" json:"value"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Demographics holds the enrollment distributions for a profile.
type Demographics struct {
	AgeMean   float64          `yaml:"age_mean" json:"age_mean"`
	AgeSD     float64          `yaml:"age_sd" json:"age_sd"`
	AgeMin    float64          `yaml:"age_min" json:"age_min"`
	AgeMax    float64          `yaml:"age_max" json:"age_max"`
	Sites     int              `yaml:"sites" json:"sites"`
	Sex       []CategoryWeight `yaml:"sex" json:"sex"`
	Race      []CategoryWeight `yaml:"race" json:"race"`
	Ethnicity []CategoryWeight `yaml:"ethnicity" json:"ethnicity"`
	Countries []CategoryWeight `yaml:"countries" json:"countries"`
	Arms      []CategoryWeight `yaml:"arms" json:"arms"`
}

// Visit is one scheduled visit relative to randomization day 0.
type Visit struct {
	Name       string `yaml:"name" json:"name"`
	Day        int    `yaml:"day" json:"day"`
	WindowDays int    `yaml:"window_days" json:"window_days"`
}

// VitalMeasure is one vitals parameter with its baseline distribution
// and physiologic clamp range.
type VitalMeasure struct {
	Name string  `yaml:"name" json:"name"`
	Unit string  `yaml:"unit" json:"unit"`
	Mean float64 `yaml:"mean" json:"mean"`
	SD   float64 `yaml:"sd" json:"sd"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

// VitalsSpec couples the vitals measures with their correlation
// structure and per-arm drift over study days.
type VitalsSpec struct {
	Measures             []VitalMeasure     `yaml:"measures" json:"measures"`
	Correlation          [][]float64        `yaml:"correlation" json:"correlation"`
	TreatmentDriftPerDay map[string]float64 `yaml:"treatment_drift_per_day" json:"treatment_drift_per_day"`
	PlaceboDriftPerDay   map[string]float64 `yaml:"placebo_drift_per_day" json:"placebo_drift_per_day"`
}

// LabAnalyte is one lab test with its reference range.
type LabAnalyte struct {
	Name         string  `yaml:"name" json:"name"`
	Panel        string  `yaml:"panel" json:"panel"`
	Unit         string  `yaml:"unit" json:"unit"`
	Low          float64 `yaml:"low" json:"low"`
	High         float64 `yaml:"high" json:"high"`
	LogNormal    bool    `yaml:"log_normal" json:"log_normal"`
	AbnormalRate float64 `yaml:"abnormal_rate" json:"abnormal_rate"`
}

// AETerm is one adverse event dictionary entry with per-arm incidence.
// Incidences are whole-study per-subject probabilities.
type AETerm struct {
	Term               string           `yaml:"term" json:"term"`
	SystemOrganClass   string           `yaml:"system_organ_class" json:"system_organ_class"`
	IncidenceTreatment float64          `yaml:"incidence_treatment" json:"incidence_treatment"`
	IncidencePlacebo   float64          `yaml:"incidence_placebo" json:"incidence_placebo"`
	SeriousProbability float64          `yaml:"serious_probability" json:"serious_probability"`
	Severity           []CategoryWeight `yaml:"severity" json:"severity"`
}

// Validate checks a profile for internal consistency and returns an
// error naming the offending field.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if p.DropoutRate < 0 || p.DropoutRate >= 1 {
		return fmt.Errorf("profile %s: dropout_rate %v out of [0,1)", p.Name, p.DropoutRate)
	}

	d := &p.Demographics
	if d.AgeSD <= 0 {
		return fmt.Errorf("profile %s: age_sd must be positive", p.Name)
	}
	if d.AgeMin >= d.AgeMax {
		return fmt.Errorf("profile %s: age_min %v >= age_max %v", p.Name, d.AgeMin, d.AgeMax)
	}
	if d.Sites <= 0 {
		return fmt.Errorf("profile %s: sites must be positive", p.Name)
	}
	for _, group := range []struct {
		field string
		cats  []CategoryWeight
	}{
		{"sex", d.Sex},
		{"race", d.Race},
		{"ethnicity", d.Ethnicity},
		{"countries", d.Countries},
		{"arms", d.Arms},
	} {
		if err := validateWeights(p.Name, group.field, group.cats); err != nil {
			return err
		}
	}

	if len(p.Visits) == 0 {
		return fmt.Errorf("profile %s: no visits defined", p.Name)
	}
	for i := 1; i < len(p.Visits); i++ {
		if p.Visits[i].Day <= p.Visits[i-1].Day {
			return fmt.Errorf("profile %s: visit %s day %d not after %s day %d",
				p.Name, p.Visits[i].Name, p.Visits[i].Day, p.Visits[i-1].Name, p.Visits[i-1].Day)
		}
	}

	v := &p.Vitals
	if len(v.Measures) == 0 {
		return fmt.Errorf("profile %s: no vitals measures", p.Name)
	}
	for _, m := range v.Measures {
		if m.SD <= 0 {
			return fmt.Errorf("profile %s: vitals measure %s has non-positive sd", p.Name, m.Name)
		}
		if m.Min >= m.Max {
			return fmt.Errorf("profile %s: vitals measure %s has min %v >= max %v", p.Name, m.Name, m.Min, m.Max)
		}
	}
	if len(v.Correlation) != len(v.Measures) {
		return fmt.Errorf("profile %s: correlation has %d rows for %d measures", p.Name, len(v.Correlation), len(v.Measures))
	}
	for i, row := range v.Correlation {
		if len(row) != len(v.Measures) {
			return fmt.Errorf("profile %s: correlation row %d has %d cols for %d measures", p.Name, i, len(row), len(v.Measures))
		}
		if row[i] != 1 {
			return fmt.Errorf("profile %s: correlation diagonal at %d is %v, want 1", p.Name, i, row[i])
		}
		for j := range row {
			if row[j] != v.Correlation[j][i] {
				return fmt.Errorf("profile %s: correlation not symmetric at (%d,%d)", p.Name, i, j)
			}
			if row[j] < -1 || row[j] > 1 {
				return fmt.Errorf("profile %s: correlation (%d,%d) = %v out of [-1,1]", p.Name, i, j, row[j])
			}
		}
	}

	for _, lab := range p.LabPanels {
		if lab.Low >= lab.High {
			return fmt.Errorf("profile %s: lab %s reference range low %v >= high %v", p.Name, lab.Name, lab.Low, lab.High)
		}
		if lab.AbnormalRate < 0 || lab.AbnormalRate >= 1 {
			return fmt.Errorf("profile %s: lab %s abnormal_rate %v out of [0,1)", p.Name, lab.Name, lab.AbnormalRate)
		}
	}

	for _, ae := range p.AdverseEvents {
		if ae.Term == "" {
			return fmt.Errorf("profile %s: adverse event with empty term", p.Name)
		}
		for _, inc := range []float64{ae.IncidenceTreatment, ae.IncidencePlacebo, ae.SeriousProbability} {
			if inc < 0 || inc > 1 {
				return fmt.Errorf("profile %s: adverse event %s has probability %v out of [0,1]", p.Name, ae.Term, inc)
			}
		}
		if err := validateWeights(p.Name, "severity of "+ae.Term, ae.Severity); err != nil {
			return err
		}
	}

	return nil
}

func validateWeights(profile, field string, cats []CategoryWeight) error {
	if len(cats) == 0 {
		return fmt.Errorf("profile %s: %s has no categories", profile, field)
	}
	var total float64
	for _, c := range cats {
		if c.Weight < 0 {
			return fmt.Errorf("profile %s: %s category %q has negative weight", profile, field, c.Value)
		}
		total += c.Weight
	}
	if total <= 0 {
		return fmt.Errorf("profile %s: %s weights sum to %v", profile, field, total)
	}
	return nil
}

// Weights returns the raw weight slice of a category group, aligned
// with its values.
func Weights(cats []CategoryWeight) []float64 {
	w := make([]float64, len(cats))
	for i, c := range cats {
		w[i] = c.Weight
	}
	return w
}

// Values returns the value slice of a category group.
func Values(cats []CategoryWeight) []string {
	v := make([]string, len(cats))
	for i, c := range cats {
		v[i] = c.Value
	}
	return v
}

// MeasureNames returns the vitals measure names in declaration order.
func (v *VitalsSpec) MeasureNames() []string {
	names := make([]string, len(v.Measures))
	for i, m := range v.Measures {
		names[i] = m.Name
	}
	return names
}

// SortedTerms returns the adverse event terms sorted alphabetically,
// which keeps generated AE tables stable across runs.
func SortedTerms(terms []AETerm) []AETerm {
	out := make([]AETerm, len(terms))
	copy(out, terms)
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}
