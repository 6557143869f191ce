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

// Package main implements the dry CLI for finding and managing semantic
// code duplication in a repository.
//
// Usage:
//
//	dry init                      Create dryconfig.json with defaults
//	dry index                     Build or refresh the local unit index
//	dry [--json] report           Detect duplicates and print a report
//	dry clean-exclusions          Drop excludedPairs entries that no longer match
//	dry reset --yes               Delete the local .dry index (destructive!)
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dryhq/dry/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds flags accepted before the subcommand name.
type GlobalFlags struct {
	RepoRoot string
	JSON     bool
	NoColor  bool
	Quiet    bool
}

func main() {
	var globals GlobalFlags
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.StringVar(&globals.RepoRoot, "repo", "", "Repository root (default: current directory)")
	flag.BoolVar(&globals.JSON, "json", false, "Output machine-readable JSON")
	flag.BoolVar(&globals.NoColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&globals.Quiet, "q", false, "Suppress progress bars and non-essential output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `dry - semantic code duplication detector

Usage:
  dry <command> [options]

Commands:
  init              Create dryconfig.json with defaults
  index             Build or refresh the local unit index
  report            Detect duplicates and print a report
  clean-exclusions  Drop excludedPairs entries that no longer match an actual pair
  reset             Delete the local .dry index (destructive!)

Global Options:
  --repo        Repository root (default: current directory)
  --json        Output machine-readable JSON
  --no-color    Disable colored output
  -q            Suppress progress bars and non-essential output
  --version     Show version and exit

Examples:
  dry init
  dry index
  dry --json report
  dry clean-exclusions
  dry reset --yes

Data Storage:
  Index data is stored locally in .dry/dry.db under the repository root.
  Configuration lives in dryconfig.json at the repository root.

`)
	}

	flag.Parse()
	ui.InitColors(globals.NoColor)

	if *showVersion {
		fmt.Printf("dry version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	root, err := resolveRepoRoot(globals.RepoRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	globals.RepoRoot = root

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, globals)
	case "report":
		runReport(cmdArgs, globals)
	case "clean-exclusions":
		runCleanExclusions(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
