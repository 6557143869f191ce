// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveRepoRoot_UsesExplicitPath(t *testing.T) {
	root, err := resolveRepoRoot("/tmp")
	require.NoError(t, err)
	require.Equal(t, "/tmp", root)
}

func TestResolveRepoRoot_RelativePathIsMadeAbsolute(t *testing.T) {
	root, err := resolveRepoRoot(".")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(root))
}

func TestResolveRepoRoot_DefaultsToWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	root, err := resolveRepoRoot("")
	require.NoError(t, err)
	require.Equal(t, wd, root)
}
