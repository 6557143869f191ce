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
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/dryhq/dry/internal/errors"
	"github.com/dryhq/dry/internal/ui"
)

// runReset executes the 'reset' CLI command, deleting the local .dry
// directory (the unit index and tracked-file database). dryconfig.json is
// left untouched.
func runReset(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: dry reset [options]

Deletes the local .dry directory, clearing all indexed units and tracked
file state. dryconfig.json is left untouched. Run 'dry init' afterwards
to rebuild the index from scratch.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		errors.FatalError(errors.NewInputError(
			"Reset requires confirmation",
			"--yes was not passed",
			"Re-run with --yes to confirm deleting the local index",
		), globals.JSON)
	}

	dryDir := filepath.Join(globals.RepoRoot, ".dry")
	if _, err := os.Stat(dryDir); os.IsNotExist(err) {
		ui.Info("No local index found, nothing to reset")
		return
	}

	if err := os.RemoveAll(dryDir); err != nil {
		errors.FatalError(errors.NewPermissionError(
			"Cannot delete the local index",
			err.Error(),
			"Check permissions on "+dryDir,
			err,
		), globals.JSON)
	}

	ui.Success("Reset complete. Run 'dry init' to rebuild the index")
}
