// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package catalog embeds the population benchmark reference data.
package catalog

import _ "embed"

// PopulationBenchmarks holds the embedded benchmark YAML, aggregated
// per therapeutic area from registry trial summaries.
//
//go:embed aact_benchmarks.yaml
var PopulationBenchmarks []byte
