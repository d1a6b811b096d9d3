// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package population

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/stats"
)

// Verdicts for a single check and for the whole comparison.
const (
	VerdictOK   = "ok"
	VerdictWarn = "warn"
	VerdictFlag = "flag"
)

// AgeCheck compares the observed age distribution against the
// benchmark using the standardized mean difference.
type AgeCheck struct {
	ObservedMean  float64 `json:"observed_mean"`
	ObservedSD    float64 `json:"observed_sd"`
	BenchmarkMean float64 `json:"benchmark_mean"`
	BenchmarkSD   float64 `json:"benchmark_sd"`
	SMD           float64 `json:"smd"`
	Verdict       string  `json:"verdict"`
}

// SexCheck compares the observed male fraction against the benchmark
// with a two-proportion z-test.
type SexCheck struct {
	ObservedMale  float64 `json:"observed_male_fraction"`
	BenchmarkMale float64 `json:"benchmark_male_fraction"`
	ZStatistic    float64 `json:"z_statistic"`
	PValue        float64 `json:"p_value"`
	Verdict       string  `json:"verdict"`
}

// RaceCheck compares the observed race counts against the benchmark
// distribution with a chi-squared goodness-of-fit test. Categories the
// benchmark does not list are folded into its OTHER bucket.
type RaceCheck struct {
	Observed   map[string]int     `json:"observed_counts"`
	Benchmark  []CategoryFraction `json:"benchmark_fractions"`
	ChiSquared float64            `json:"chi_squared"`
	PValue     float64            `json:"p_value"`
	Verdict    string             `json:"verdict"`
}

// AECheck compares adverse event burden against the benchmark: the
// event rate per subject as a ratio, and the serious-event fraction
// with a two-proportion z-test.
type AECheck struct {
	EventsPerSubject  float64 `json:"events_per_subject"`
	BenchmarkPerSubj  float64 `json:"benchmark_events_per_subject"`
	RateRatio         float64 `json:"rate_ratio"`
	SeriousFraction   float64 `json:"serious_fraction"`
	BenchmarkSerious  float64 `json:"benchmark_serious_fraction"`
	SeriousZStatistic float64 `json:"serious_z_statistic"`
	SeriousPValue     float64 `json:"serious_p_value"`
	Verdict           string  `json:"verdict"`
}

// Report is the result of comparing generated tables against an area
// benchmark. AdverseEvents is present only when an AE table was given.
type Report struct {
	Area          string    `json:"area"`
	Source        string    `json:"source"`
	Subjects      int       `json:"subjects"`
	Age           AgeCheck  `json:"age"`
	Sex           SexCheck  `json:"sex"`
	Race          RaceCheck `json:"race"`
	AdverseEvents *AECheck  `json:"adverse_events,omitempty"`
	Verdict       string    `json:"verdict"`
}

// SMD thresholds follow the usual small/moderate effect cutoffs.
const (
	smdWarn = 0.1
	smdFlag = 0.25
)

// P-value thresholds for the sex and race tests. With large samples
// even trivial shifts reject, so the flag level is deliberately deep.
const (
	pWarn = 0.05
	pFlag = 0.001
)

// Event rate ratio thresholds. A quarter off the benchmark is noise
// at trial scale, a factor of two is not.
const (
	rateWarnLow  = 0.8
	rateWarnHigh = 1.25
	rateFlagLow  = 0.5
	rateFlagHigh = 2.0
)

// Compare checks generated tables against the named benchmark area.
// The demographics table needs AGE, SEX and RACE columns as produced
// by the demographics generator. adverseEvents is optional; when
// present it needs an AESER column and one row per event.
func (e *Engine) Compare(area string, demographics, adverseEvents *dataset.Table) (*Report, error) {
	bench, err := e.Area(area)
	if err != nil {
		return nil, err
	}
	if demographics == nil || demographics.NumRows() == 0 {
		return nil, fmt.Errorf("demographics table is empty")
	}

	ages, err := demographics.Float64Column("AGE")
	if err != nil {
		return nil, fmt.Errorf("read AGE column: %w", err)
	}
	sexes, err := stringColumn(demographics, "SEX")
	if err != nil {
		return nil, err
	}
	races, err := stringColumn(demographics, "RACE")
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Area:     bench.Name,
		Source:   bench.Source,
		Subjects: len(ages),
	}
	rep.Age = ageCheck(ages, bench)
	rep.Sex, err = sexCheck(sexes, bench)
	if err != nil {
		return nil, err
	}
	rep.Race, err = raceCheck(races, bench)
	if err != nil {
		return nil, err
	}

	verdicts := []string{rep.Age.Verdict, rep.Sex.Verdict, rep.Race.Verdict}
	if adverseEvents != nil {
		ae, err := aeCheck(adverseEvents, len(ages), bench)
		if err != nil {
			return nil, err
		}
		rep.AdverseEvents = ae
		verdicts = append(verdicts, ae.Verdict)
	}
	rep.Verdict = worst(verdicts...)
	return rep, nil
}

func aeCheck(events *dataset.Table, subjects int, bench *AreaBenchmark) (*AECheck, error) {
	serFlags, err := stringColumn(events, "AESER")
	if err != nil {
		return nil, err
	}
	total := len(serFlags)
	var serious int
	for _, f := range serFlags {
		if f == "Y" {
			serious++
		}
	}

	check := &AECheck{
		EventsPerSubject: float64(total) / float64(subjects),
		BenchmarkPerSubj: bench.AEPerSubject,
	}
	if bench.AEPerSubject > 0 {
		check.RateRatio = check.EventsPerSubject / bench.AEPerSubject
	}
	rateVerdict := VerdictFlag
	switch {
	case check.RateRatio >= rateWarnLow && check.RateRatio <= rateWarnHigh:
		rateVerdict = VerdictOK
	case check.RateRatio >= rateFlagLow && check.RateRatio <= rateFlagHigh:
		rateVerdict = VerdictWarn
	}

	seriousVerdict := VerdictOK
	if total > 0 {
		check.SeriousFraction = float64(serious) / float64(total)
		check.BenchmarkSerious = bench.SeriousAEFraction

		// Benchmark event count, reconstructed from its pooled rates.
		benchEvents := int(bench.AEPerSubject * float64(bench.Subjects))
		z, p, err := stats.TwoProportionZ(check.SeriousFraction, total, bench.SeriousAEFraction, benchEvents)
		if err != nil {
			return nil, fmt.Errorf("serious AE proportion test: %w", err)
		}
		check.SeriousZStatistic = z
		check.SeriousPValue = p
		seriousVerdict = pVerdict(p)
	}

	check.Verdict = worst(rateVerdict, seriousVerdict)
	return check, nil
}

func stringColumn(table *dataset.Table, name string) ([]string, error) {
	s, err := table.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, table.NumRows())
	for i := range out {
		out[i] = s.CellString(i)
	}
	return out, nil
}

func ageCheck(ages []float64, bench *AreaBenchmark) AgeCheck {
	mean, sd := stat.MeanStdDev(ages, nil)
	smd := stats.StandardizedMeanDifference(mean, sd, bench.AgeMean, bench.AgeSD)
	check := AgeCheck{
		ObservedMean:  mean,
		ObservedSD:    sd,
		BenchmarkMean: bench.AgeMean,
		BenchmarkSD:   bench.AgeSD,
		SMD:           smd,
	}
	switch {
	case math.Abs(smd) < smdWarn:
		check.Verdict = VerdictOK
	case math.Abs(smd) < smdFlag:
		check.Verdict = VerdictWarn
	default:
		check.Verdict = VerdictFlag
	}
	return check
}

func sexCheck(sexes []string, bench *AreaBenchmark) (SexCheck, error) {
	var male int
	for _, s := range sexes {
		if s == "M" {
			male++
		}
	}
	observed := float64(male) / float64(len(sexes))
	benchMale := bench.fraction(bench.Sex, "M")

	z, p, err := stats.TwoProportionZ(observed, len(sexes), benchMale, bench.Subjects)
	if err != nil {
		return SexCheck{}, fmt.Errorf("sex proportion test: %w", err)
	}
	return SexCheck{
		ObservedMale:  observed,
		BenchmarkMale: benchMale,
		ZStatistic:    z,
		PValue:        p,
		Verdict:       pVerdict(p),
	}, nil
}

func raceCheck(races []string, bench *AreaBenchmark) (RaceCheck, error) {
	counts := make(map[string]int)
	for _, r := range races {
		counts[r]++
	}

	// Build observed and expected vectors over the benchmark's
	// categories, folding unlisted observed values into OTHER.
	known := make(map[string]bool, len(bench.Race))
	for _, c := range bench.Race {
		known[c.Value] = true
	}
	folded := make(map[string]int, len(bench.Race))
	for value, n := range counts {
		if known[value] {
			folded[value] += n
		} else {
			folded["OTHER"] += n
		}
	}

	total := float64(len(races))
	observed := make([]float64, len(bench.Race))
	expected := make([]float64, len(bench.Race))
	for i, c := range bench.Race {
		observed[i] = float64(folded[c.Value])
		expected[i] = c.Fraction * total
	}

	chi2, p, err := stats.ChiSquaredGOF(observed, expected)
	if err != nil {
		return RaceCheck{}, fmt.Errorf("race goodness-of-fit test: %w", err)
	}
	return RaceCheck{
		Observed:   counts,
		Benchmark:  bench.Race,
		ChiSquared: chi2,
		PValue:     p,
		Verdict:    pVerdict(p),
	}, nil
}

func pVerdict(p float64) string {
	switch {
	case p >= pWarn:
		return VerdictOK
	case p >= pFlag:
		return VerdictWarn
	default:
		return VerdictFlag
	}
}

func worst(verdicts ...string) string {
	rank := map[string]int{VerdictOK: 0, VerdictWarn: 1, VerdictFlag: 2}
	out := VerdictOK
	for _, v := range verdicts {
		if rank[v] > rank[out] {
			out = v
		}
	}
	return out
}
