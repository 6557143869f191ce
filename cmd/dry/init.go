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
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/dryhq/dry/internal/bootstrap"
	"github.com/dryhq/dry/internal/errors"
	"github.com/dryhq/dry/internal/output"
	"github.com/dryhq/dry/internal/ui"
	"github.com/dryhq/dry/pkg/orchestrator"
)

// runInit executes the 'init' CLI command: it writes a default
// dryconfig.json and then performs the initial full scan, extraction, and
// embedding of the repository. If dryconfig.json already exists and --force
// is not given, it exits with an input error without scanning.
//
// Flags:
//   - --force: overwrite an existing dryconfig.json
//   - --skip-embeddings: build the index without generating embeddings
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing dryconfig.json")
	skipEmbeddings := fs.Bool("skip-embeddings", false, "Build the index without generating embeddings")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dry init [options]

Creates dryconfig.json with defaults and builds the initial unit index for
the repository. Fails if dryconfig.json already exists, unless --force is
given.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	configPath := filepath.Join(globals.RepoRoot, "dryconfig.json")
	if _, err := os.Stat(configPath); err == nil && !*force {
		errors.FatalError(errors.NewInputError(
			"dryconfig.json already exists",
			configPath+" is already present",
			"Pass --force to overwrite it with defaults",
		), globals.JSON)
	}

	info, err := bootstrap.InitRepo(bootstrap.RepoConfig{RepoRoot: globals.RepoRoot, Force: *force}, nil)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot write dryconfig.json",
			err.Error(),
			"Check write permissions for the repository root",
			err,
		), globals.JSON)
	}

	ctx := context.Background()
	o, err := orchestrator.New(ctx, globals.RepoRoot, info.Config)
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
	bar := NewSpinner(progress, "Scanning and embedding")

	var result *orchestrator.InitResult
	runErr := spinWhile(bar, func() error {
		var err error
		result, err = o.Init(ctx, orchestrator.InitOptions{SkipEmbeddings: *skipEmbeddings})
		return err
	})
	if runErr != nil {
		errors.FatalError(errors.NewStoreError(
			"Initial index build failed",
			runErr.Error(),
			"Re-run 'dry init --force' after checking the error above",
			runErr,
		), globals.JSON)
	}

	if globals.JSON {
		if err := output.JSON(result); err != nil {
			errors.FatalError(err, true)
		}
		return
	}

	ui.Successf("Indexed %d files, extracted %d units, embedded %d", result.FilesScanned, result.UnitsExtracted, result.UnitsEmbedded)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  dry report    Detect duplicates in the repository")
}
