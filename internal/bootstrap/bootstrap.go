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

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dryhq/dry/pkg/config"
	"github.com/dryhq/dry/pkg/store"
)

// RepoConfig holds configuration for initializing or opening a repository.
type RepoConfig struct {
	// RepoRoot is the repository's root directory.
	RepoRoot string

	// Force overwrites an existing dryconfig.json with the documented
	// defaults. Has no effect on OpenRepo.
	Force bool
}

// RepoInfo holds information about an initialized repository.
type RepoInfo struct {
	RepoRoot string
	DryDir   string
	Config   config.DryConfig
}

// InitRepo initializes dry for a repository: it writes dryconfig.json with
// the documented defaults (unless one already exists and Force is false)
// and creates the .dry directory that will hold the unit index.
//
// This function is idempotent: calling it multiple times on an already
// initialized repo is safe and will not discard the existing index or
// configuration unless Force is set.
func InitRepo(cfg RepoConfig, logger *slog.Logger) (*RepoInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RepoRoot == "" {
		return nil, fmt.Errorf("repo_root is required")
	}

	configPath := filepath.Join(cfg.RepoRoot, "dryconfig.json")
	_, statErr := os.Stat(configPath)
	exists := statErr == nil

	logger.Info("bootstrap.repo.init.start", "repo_root", cfg.RepoRoot, "config_exists", exists)

	dryConfig := config.Default()
	if exists && !cfg.Force {
		loaded, err := config.Load(cfg.RepoRoot)
		if err != nil {
			return nil, fmt.Errorf("load existing dryconfig.json: %w", err)
		}
		dryConfig = loaded
	} else {
		if err := config.Save(cfg.RepoRoot, dryConfig); err != nil {
			return nil, fmt.Errorf("write dryconfig.json: %w", err)
		}
	}

	dryDir := filepath.Join(cfg.RepoRoot, ".dry")
	if err := os.MkdirAll(dryDir, 0o755); err != nil {
		return nil, fmt.Errorf("create .dry directory: %w", err)
	}

	logger.Info("bootstrap.repo.init.success", "repo_root", cfg.RepoRoot, "dry_dir", dryDir)

	return &RepoInfo{RepoRoot: cfg.RepoRoot, DryDir: dryDir, Config: dryConfig}, nil
}

// OpenRepo opens an already-initialized repository: it loads dryconfig.json
// (or the documented defaults, if absent) and opens the .dry/dry.db unit
// index. The caller is responsible for closing the returned store.
func OpenRepo(ctx context.Context, cfg RepoConfig, logger *slog.Logger) (config.DryConfig, *store.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RepoRoot == "" {
		return config.DryConfig{}, nil, fmt.Errorf("repo_root is required")
	}

	dryDir := filepath.Join(cfg.RepoRoot, ".dry")
	if _, err := os.Stat(dryDir); os.IsNotExist(err) {
		return config.DryConfig{}, nil, fmt.Errorf("repo not initialized: %s (run 'dry init' first)", cfg.RepoRoot)
	}

	dryConfig, err := config.Load(cfg.RepoRoot)
	if err != nil {
		return config.DryConfig{}, nil, fmt.Errorf("load dryconfig.json: %w", err)
	}

	logger.Debug("bootstrap.repo.open", "repo_root", cfg.RepoRoot)

	db, err := store.Open(ctx, filepath.Join(dryDir, "dry.db"))
	if err != nil {
		return config.DryConfig{}, nil, fmt.Errorf("open store: %w", err)
	}

	return dryConfig, db, nil
}
