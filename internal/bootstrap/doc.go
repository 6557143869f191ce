// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bootstrap handles repository initialization for dry.
//
// This internal package creates a repo's dryconfig.json and the local
// .dry/dry.db index, and ensures both are in a usable state before the
// rest of the system touches them.
//
// # Initialization Workflow
//
// A typical workflow for setting up a new repository:
//
//	// Initialize the repo (creates dryconfig.json and .dry/)
//	info, err := bootstrap.InitRepo(bootstrap.RepoConfig{
//	    RepoRoot: "/path/to/repo",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Repo initialized at: %s\n", info.DryDir)
//
//	// Later, open the repo to read its resolved config and index.
//	cfg, db, err := bootstrap.OpenRepo(ctx, bootstrap.RepoConfig{
//	    RepoRoot: "/path/to/repo",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// # Idempotency
//
// InitRepo is idempotent: calling it again on an already-initialized repo
// leaves an existing dryconfig.json untouched and reuses the existing
// .dry/dry.db rather than recreating it.
package bootstrap
