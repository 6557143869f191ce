// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestIgnore_GitignoreScoping(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/.gitignore", "foo\n")

	ig, err := New(root, nil)
	require.NoError(t, err)

	require.True(t, ig.Matches("sub/foo"), "rule scoped to sub/ must ignore sub/foo")
	require.False(t, ig.Matches("foo"), "rule scoped to sub/ must not ignore repo-root foo")
}

func TestIgnore_Defaults(t *testing.T) {
	root := t.TempDir()
	ig, err := New(root, nil)
	require.NoError(t, err)

	require.True(t, ig.Matches(".git/HEAD"))
	require.True(t, ig.Matches(".dry/dry.db"))
	require.False(t, ig.Matches("src/Main.java"))
}

func TestIgnore_ConfigExcludedPaths(t *testing.T) {
	root := t.TempDir()
	ig, err := New(root, []string{"**/test/**"})
	require.NoError(t, err)

	require.True(t, ig.Matches("src/test/Helper.java"))
	require.False(t, ig.Matches("src/main/Helper.java"))
}

func TestIgnore_NegationOverridesBroaderRule(t *testing.T) {
	root := t.TempDir()
	ig, err := New(root, []string{"*.log", "!keep.log"})
	require.NoError(t, err)

	require.True(t, ig.Matches("debug.log"))
	require.False(t, ig.Matches("keep.log"))
}

func TestIgnore_LeadingDotSlashStripped(t *testing.T) {
	root := t.TempDir()
	ig, err := New(root, []string{"foo.txt"})
	require.NoError(t, err)

	require.True(t, ig.Matches("./foo.txt"))
}
