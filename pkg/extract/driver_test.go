// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type noopIgnore struct{ excluded map[string]bool }

func (n noopIgnore) Matches(relPath string) bool {
	return n.excluded[relPath]
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDriver_ScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Sample.java", sampleClass)
	writeFile(t, root, "README.md", "not code")

	d := NewDriver(NewDefaultRegistry(), noopIgnore{}, DefaultScanConfig())
	results, err := d.Scan(root, root)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Sample.java", results[0].FilePath)
	require.NotEmpty(t, results[0].Checksum)
	require.NotEmpty(t, results[0].Units)
}

func TestDriver_ScanHonorsIgnoreMatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Sample.java", sampleClass)
	writeFile(t, root, "vendor/Vendored.java", sampleClass)

	d := NewDriver(NewDefaultRegistry(), noopIgnore{excluded: map[string]bool{"vendor": true}}, DefaultScanConfig())
	results, err := d.Scan(root, root)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Sample.java", results[0].FilePath)
}

func TestDriver_ScanSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Sample.java", sampleClass)

	d := NewDriver(NewDefaultRegistry(), noopIgnore{}, DefaultScanConfig())
	results, err := d.Scan(root, filepath.Join(root, "Sample.java"))
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestDriver_ScanSingleUnsupportedFileErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "hello")

	d := NewDriver(NewDefaultRegistry(), noopIgnore{}, DefaultScanConfig())
	_, err := d.Scan(root, filepath.Join(root, "notes.txt"))
	require.Error(t, err)
}

func TestDriver_ScanMissingPathReportsNotFound(t *testing.T) {
	root := t.TempDir()
	d := NewDriver(NewDefaultRegistry(), noopIgnore{}, DefaultScanConfig())
	_, err := d.Scan(root, filepath.Join(root, "missing.java"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Path not found")
}

func TestDriver_ScanSkipsFilesOverSoftLimit(t *testing.T) {
	t.Setenv("DRY_MAX_FILE_SIZE_BYTES", "10")

	root := t.TempDir()
	writeFile(t, root, "Sample.java", sampleClass)

	d := NewDriver(NewDefaultRegistry(), noopIgnore{}, DefaultScanConfig())
	results, err := d.Scan(root, root)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestDriver_ScanSingleOversizedFileErrors(t *testing.T) {
	t.Setenv("DRY_MAX_FILE_SIZE_BYTES", "10")

	root := t.TempDir()
	writeFile(t, root, "Sample.java", sampleClass)

	d := NewDriver(NewDefaultRegistry(), noopIgnore{}, DefaultScanConfig())
	_, err := d.Scan(root, filepath.Join(root, "Sample.java"))
	require.Error(t, err)
}
