// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitRepo_CreatesConfigAndDryDir(t *testing.T) {
	root := t.TempDir()

	info, err := InitRepo(RepoConfig{RepoRoot: root}, nil)
	require.NoError(t, err)
	require.Equal(t, root, info.RepoRoot)
	require.Equal(t, filepath.Join(root, ".dry"), info.DryDir)
	require.Equal(t, 0.88, info.Config.Threshold)

	require.FileExists(t, filepath.Join(root, "dryconfig.json"))
	require.DirExists(t, info.DryDir)
}

func TestInitRepo_IsIdempotentAndPreservesExistingConfig(t *testing.T) {
	root := t.TempDir()

	_, err := InitRepo(RepoConfig{RepoRoot: root}, nil)
	require.NoError(t, err)

	configPath := filepath.Join(root, "dryconfig.json")
	customized := []byte(`{"threshold": 0.5}`)
	require.NoError(t, os.WriteFile(configPath, customized, 0o644))

	info, err := InitRepo(RepoConfig{RepoRoot: root}, nil)
	require.NoError(t, err)
	require.Equal(t, 0.5, info.Config.Threshold)
}

func TestInitRepo_ForceOverwritesExistingConfig(t *testing.T) {
	root := t.TempDir()

	_, err := InitRepo(RepoConfig{RepoRoot: root}, nil)
	require.NoError(t, err)

	configPath := filepath.Join(root, "dryconfig.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"threshold": 0.5}`), 0o644))

	info, err := InitRepo(RepoConfig{RepoRoot: root, Force: true}, nil)
	require.NoError(t, err)
	require.Equal(t, 0.88, info.Config.Threshold)
}

func TestInitRepo_RequiresRepoRoot(t *testing.T) {
	_, err := InitRepo(RepoConfig{}, nil)
	require.Error(t, err)
}

func TestOpenRepo_FailsWhenNotInitialized(t *testing.T) {
	root := t.TempDir()
	_, _, err := OpenRepo(context.Background(), RepoConfig{RepoRoot: root}, nil)
	require.Error(t, err)
}

func TestOpenRepo_LoadsConfigAndOpensStore(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	_, err := InitRepo(RepoConfig{RepoRoot: root}, nil)
	require.NoError(t, err)

	cfg, db, err := OpenRepo(ctx, RepoConfig{RepoRoot: root}, nil)
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { _ = db.Close() })
	require.Equal(t, 0.88, cfg.Threshold)
}
