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

// runIndex executes the 'index' CLI command, incrementally refreshing the
// local unit index: new and changed files are re-extracted and re-embedded,
// deleted files are dropped from the index, and unchanged files are left
// untouched.
func runIndex(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dry index [options]

Refreshes the local unit index for the current repository, incrementally:
only files that are new, changed, or deleted since the last run are
re-extracted and re-embedded. Run 'dry init' first if the repository has
never been indexed.

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
	bar := NewSpinner(progress, "Updating index")

	var result *orchestrator.UpdateResult
	runErr := spinWhile(bar, func() error {
		var err error
		result, err = o.UpdateIndex(ctx)
		return err
	})
	if runErr != nil {
		errors.FatalError(errors.NewStoreError(
			"Index update failed",
			runErr.Error(),
			"Re-run 'dry index' after checking the error above",
			runErr,
		), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	ui.Successf(
		"%d new, %d changed, %d deleted, %d unchanged (%d units embedded)",
		result.New, result.Changed, result.Deleted, result.Unchanged, result.UnitsEmbedded,
	)
}
