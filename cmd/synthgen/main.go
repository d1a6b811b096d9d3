// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// synthgen is the command line companion to the generation services.
// It generates datasets to local files, scores synthetic data against
// a reference file and checks demographics against population
// benchmarks, all without a running service.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "synthgen",
	Short: "Generate and evaluate synthetic clinical trial data",
	Long: `synthgen produces synthetic clinical trial datasets from named
clinical profiles and evaluates their statistical quality.

Examples:
  synthgen profiles
  synthgen generate --profile hypertension_phase3 --subjects 500 --out ./data
  synthgen quality --synthetic data/vitals.csv --reference real/vitals.csv
  synthgen benchmark --area hypertension --input data/demographics.csv`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var flagged *flaggedError
		if errors.As(err, &flagged) {
			fmt.Fprintf(os.Stderr, "%v\n", flagged)
			os.Exit(CLIExitFindings)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(CLIExitError)
	}
}
