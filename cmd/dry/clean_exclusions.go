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

// runCleanExclusions executes the 'clean-exclusions' CLI command: it
// refreshes the index, reruns duplicate detection with the threshold forced
// to zero, and drops any dryconfig.json excludedPairs entry that no longer
// matches an actual pair in the repository.
func runCleanExclusions(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("clean-exclusions", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dry clean-exclusions [options]

Refreshes the index, then drops any excludedPairs entry in dryconfig.json
that no longer matches a pair of units actually present in the repository.

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
	bar := NewSpinner(progress, "Cleaning exclusions")

	var result *orchestrator.ExclusionCleanupResult
	runErr := spinWhile(bar, func() error {
		var err error
		result, err = o.CleanExclusions(ctx)
		return err
	})
	if runErr != nil {
		errors.FatalError(errors.NewStoreError(
			"Exclusion cleanup failed",
			runErr.Error(),
			"Re-run 'dry clean-exclusions' after checking the error above",
			runErr,
		), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	ui.Successf("Kept %d excludedPairs entries, removed %d stale ones", result.Kept, result.Removed)
}
