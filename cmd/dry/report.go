// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/dryhq/dry/internal/errors"
	"github.com/dryhq/dry/internal/output"
	"github.com/dryhq/dry/internal/ui"
	"github.com/dryhq/dry/pkg/config"
	"github.com/dryhq/dry/pkg/orchestrator"
)

// runReport executes the 'report' CLI command: it refreshes the index
// (same as 'dry index'), runs duplicate detection over every persisted
// unit, and prints the resulting report.
//
// Flags:
//   - --threshold: override dryconfig.json's threshold for this run only
func runReport(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	thresholdOverride := fs.Float64("threshold", 0, "Override the configured similarity threshold (0 to use dryconfig.json's)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dry report [options]

Refreshes the index and reports duplicate code pairs above the configured
similarity threshold.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(globals.RepoRoot)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load dryconfig.json",
			err.Error(),
			"Fix the offending field, or remove dryconfig.json to use the defaults",
			err,
		), globals.JSON)
	}
	if *thresholdOverride > 0 {
		cfg.Threshold = *thresholdOverride
	}

	ctx := context.Background()
	o, err := orchestrator.New(ctx, globals.RepoRoot, cfg)
	if err != nil {
		errors.FatalError(errors.NewStoreError(
			"Cannot open the index database",
			err.Error(),
			"Check that .dry/dry.db isn't locked by another dry process",
			err,
		), globals.JSON)
	}
	defer func() { _ = o.Close() }()

	progress := NewProgressConfig(globals)
	bar := NewSpinner(progress, "Detecting duplicates")

	var report *orchestrator.DuplicateReport
	runErr := spinWhile(bar, func() error {
		var err error
		report, err = o.BuildDuplicateReport(ctx)
		return err
	})
	if runErr != nil {
		errors.FatalError(errors.NewStoreError(
			"Duplicate report failed",
			runErr.Error(),
			"Re-run 'dry report' after checking the error above",
			runErr,
		), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(report); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	printReport(report)
}

func printReport(report *orchestrator.DuplicateReport) {
	ui.Header("Duplicate Code Report")
	fmt.Printf("%s %.1f (%s)\n", ui.Label("Score:"), report.Score.Score, report.Grade)
	fmt.Printf("%s %d / %d lines in %d group(s)\n", ui.Label("Duplicate lines:"), report.Score.DuplicateLines, report.Score.TotalLines, report.Score.DuplicateGroups)
	fmt.Println()

	if len(report.Duplicates) == 0 {
		ui.Success("No duplicates found above the configured threshold")
		return
	}

	for _, g := range report.Duplicates {
		fmt.Printf("%s  %s\n", ui.CountText(int(g.Similarity*100))+"%", ui.Label(g.ShortID))
		fmt.Printf("  %s:%d-%d  %s\n", g.Left.FilePath, g.Left.StartLine, g.Left.EndLine, ui.DimText(g.Left.Name))
		fmt.Printf("  %s:%d-%d  %s\n", g.Right.FilePath, g.Right.StartLine, g.Right.EndLine, ui.DimText(g.Right.Name))
		fmt.Println()
	}
}
