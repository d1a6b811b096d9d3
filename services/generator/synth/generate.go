// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package synth

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
	"golang.org/x/sync/errgroup"
)

// Domain names of the generated tables.
const (
	DomainDemographics  = "demographics"
	DomainVitals        = "vitals"
	DomainLabs          = "labs"
	DomainAdverseEvents = "adverse_events"
)

// Domains lists the generated domains in output order.
var Domains = []string{DomainDemographics, DomainVitals, DomainLabs, DomainAdverseEvents}

// Request describes one dataset generation run.
type Request struct {
	Profile  string `json:"profile" binding:"required" validate:"required"`
	Subjects int    `json:"subjects" binding:"required,gt=0,lte=100000" validate:"required,gt=0,lte=100000"`
	Seed     int64  `json:"seed"`
}

var requestValidate = validator.New()

// Validate checks the request for callers that decode frames
// themselves instead of going through gin binding.
func (r *Request) Validate() error {
	return requestValidate.Struct(r)
}

// Progress reports one completed generation step.
type Progress struct {
	Domain string `json:"domain"`
	Rows   int    `json:"rows"`
	Done   int    `json:"done"`
	Total  int    `json:"total"`
}

// Generate produces all four domains for a request. Demographics runs
// first because the other domains consume its subjects; vitals, labs
// and adverse events then run concurrently on rngs derived from the
// request seed, so a seed yields identical tables regardless of
// scheduling. onProgress, if non-nil, is called once per finished
// domain and must be safe for concurrent use.
func Generate(ctx context.Context, p *profile_engine.Profile, req Request, onProgress func(Progress)) (map[string]*dataset.Table, error) {
	total := len(Domains)
	done := 0
	var mu sync.Mutex
	report := func(domain string, rows int) {
		if onProgress == nil {
			return
		}
		mu.Lock()
		done++
		d := done
		mu.Unlock()
		onProgress(Progress{Domain: domain, Rows: rows, Done: d, Total: total})
	}

	// Every domain gets its own deterministic stream.
	seeds := deriveSeeds(req.Seed, total)

	subjects, err := Demographics(p, req.Subjects, rand.New(rand.NewSource(seeds[0])))
	if err != nil {
		return nil, err
	}
	dm, err := DemographicsTable(subjects)
	if err != nil {
		return nil, err
	}
	report(DomainDemographics, dm.NumRows())

	tables := map[string]*dataset.Table{DomainDemographics: dm}
	var tmu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, domain := range []string{DomainVitals, DomainLabs, DomainAdverseEvents} {
		rng := rand.New(rand.NewSource(seeds[i+1]))
		gen := domainGenerator(domain)
		domain := domain
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := gen(p, subjects, rng)
			if err != nil {
				return fmt.Errorf("generate %s: %w", domain, err)
			}
			tmu.Lock()
			tables[domain] = t
			tmu.Unlock()
			report(domain, t.NumRows())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func domainGenerator(domain string) func(*profile_engine.Profile, []Subject, *rand.Rand) (*dataset.Table, error) {
	switch domain {
	case DomainVitals:
		return Vitals
	case DomainLabs:
		return Labs
	default:
		return AdverseEvents
	}
}

// deriveSeeds expands one seed into n decorrelated stream seeds using a
// splitmix64 step, the standard way to seed parallel generators.
func deriveSeeds(seed int64, n int) []int64 {
	out := make([]int64, n)
	state := uint64(seed)
	for i := range out {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		out[i] = int64(z ^ (z >> 31))
	}
	return out
}
