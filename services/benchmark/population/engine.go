// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package population checks generated demographics against population
// reference figures aggregated per therapeutic area from registry
// data. Age is compared with the standardized mean difference, sex
// with a two-proportion z-test, and the race distribution with a
// chi-squared goodness-of-fit test. Each comparison yields a verdict
// of ok, warn or flag; the overall verdict is the worst of them.
package population

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/benchmark/catalog"
)

// BenchmarkFile is the top-level structure of the benchmark YAML.
type BenchmarkFile struct {
	Areas []AreaBenchmark `yaml:"areas"`
}

// CategoryFraction is one categorical level with its population share.
type CategoryFraction struct {
	Value    string  `yaml:"value" json:"value"`
	Fraction float64 `yaml:"fraction" json:"fraction"`
}

// AreaBenchmark holds the pooled reference figures of one therapeutic
// area.
type AreaBenchmark struct {
	Name              string             `yaml:"name" json:"name"`
	Description       string             `yaml:"description" json:"description"`
	Source            string             `yaml:"source" json:"source"`
	Trials            int                `yaml:"trials" json:"trials"`
	Subjects          int                `yaml:"subjects" json:"subjects"`
	AgeMean           float64            `yaml:"age_mean" json:"age_mean"`
	AgeSD             float64            `yaml:"age_sd" json:"age_sd"`
	DropoutRate       float64            `yaml:"dropout_rate" json:"dropout_rate"`
	AEPerSubject      float64            `yaml:"ae_per_subject" json:"ae_per_subject"`
	SeriousAEFraction float64            `yaml:"serious_ae_fraction" json:"serious_ae_fraction"`
	Sex               []CategoryFraction `yaml:"sex" json:"sex"`
	Race              []CategoryFraction `yaml:"race" json:"race"`
}

// Validate checks an area benchmark for internal consistency.
func (a *AreaBenchmark) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("benchmark area has no name")
	}
	if a.Subjects <= 0 {
		return fmt.Errorf("benchmark %s: subjects must be positive", a.Name)
	}
	if a.AgeSD <= 0 {
		return fmt.Errorf("benchmark %s: age_sd must be positive", a.Name)
	}
	if a.DropoutRate < 0 || a.DropoutRate > 1 {
		return fmt.Errorf("benchmark %s: dropout_rate %v out of [0,1]", a.Name, a.DropoutRate)
	}
	if a.SeriousAEFraction < 0 || a.SeriousAEFraction > 1 {
		return fmt.Errorf("benchmark %s: serious_ae_fraction %v out of [0,1]", a.Name, a.SeriousAEFraction)
	}
	if a.AEPerSubject < 0 {
		return fmt.Errorf("benchmark %s: ae_per_subject must not be negative", a.Name)
	}
	for _, group := range []struct {
		field string
		cats  []CategoryFraction
	}{
		{"sex", a.Sex},
		{"race", a.Race},
	} {
		if len(group.cats) == 0 {
			return fmt.Errorf("benchmark %s: %s has no categories", a.Name, group.field)
		}
		var total float64
		for _, c := range group.cats {
			if c.Fraction < 0 || c.Fraction > 1 {
				return fmt.Errorf("benchmark %s: %s category %q fraction %v out of [0,1]",
					a.Name, group.field, c.Value, c.Fraction)
			}
			total += c.Fraction
		}
		if total < 0.99 || total > 1.01 {
			return fmt.Errorf("benchmark %s: %s fractions sum to %v, want 1", a.Name, group.field, total)
		}
	}
	return nil
}

// Fraction returns the share of the named category, or the OTHER
// bucket when the category is not listed.
func (a *AreaBenchmark) fraction(cats []CategoryFraction, value string) float64 {
	var other float64
	for _, c := range cats {
		if c.Value == value {
			return c.Fraction
		}
		if c.Value == "OTHER" {
			other = c.Fraction
		}
	}
	return other
}

// Engine serves validated area benchmarks by name.
type Engine struct {
	areas map[string]*AreaBenchmark
}

// NewEngine parses and validates the embedded benchmark catalog.
func NewEngine() (*Engine, error) {
	return NewEngineFromBytes(catalog.PopulationBenchmarks)
}

// NewEngineFromBytes builds an Engine from raw benchmark YAML.
func NewEngineFromBytes(data []byte) (*Engine, error) {
	var file BenchmarkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal benchmark catalog: %w", err)
	}
	if len(file.Areas) == 0 {
		return nil, fmt.Errorf("benchmark catalog defines no areas")
	}
	areas := make(map[string]*AreaBenchmark, len(file.Areas))
	for i := range file.Areas {
		a := &file.Areas[i]
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("invalid benchmark catalog: %w", err)
		}
		if _, dup := areas[a.Name]; dup {
			return nil, fmt.Errorf("duplicate benchmark area %q", a.Name)
		}
		areas[a.Name] = a
	}
	return &Engine{areas: areas}, nil
}

// Area returns the named benchmark or an error listing what exists.
func (e *Engine) Area(name string) (*AreaBenchmark, error) {
	a, ok := e.areas[name]
	if !ok {
		return nil, fmt.Errorf("unknown benchmark area %q (available: %s)", name, strings.Join(e.Names(), ", "))
	}
	return a, nil
}

// Names returns the sorted area names.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.areas))
	for name := range e.areas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
