// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParse_UnknownFieldsIgnored(t *testing.T) {
	cfg, err := Parse([]byte(`{"threshold": 0.9, "somethingElse": true}`))
	require.NoError(t, err)
	require.Equal(t, 0.9, cfg.Threshold)
}

func TestParse_WrongTypeRejected(t *testing.T) {
	_, err := Parse([]byte(`{"threshold": "high"}`))
	require.Error(t, err)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestParse_NormalizesStringArrays(t *testing.T) {
	cfg, err := Parse([]byte(`{"excludedPaths": ["  foo/**  ", "", "bar/**"]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"foo/**", "bar/**"}, cfg.ExcludedPaths)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_ReadsDryConfigJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dryconfig.json"), []byte(`{"minLines": 10}`), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 10, cfg.MinLines)
	require.Equal(t, Default().Threshold, cfg.Threshold)
}

func TestStore_GetCachesResult(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dryconfig.json"), []byte(`{"minLines": 7}`), 0o644))

	s := NewStore()
	cfg1, err := s.Get(root)
	require.NoError(t, err)
	require.Equal(t, 7, cfg1.MinLines)

	// Mutate the file on disk; Get must still return the cached value.
	require.NoError(t, os.WriteFile(filepath.Join(root, "dryconfig.json"), []byte(`{"minLines": 99}`), 0o644))
	cfg2, err := s.Get(root)
	require.NoError(t, err)
	require.Equal(t, 7, cfg2.MinLines)
}

func TestStore_ConcurrentGetDeduplicatesLoad(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dryconfig.json"), []byte(`{"minLines": 4}`), 0o644))

	s := NewStore()
	var wg sync.WaitGroup
	results := make([]DryConfig, 20)
	errs := make([]error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Get(root)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, 4, results[i].MinLines)
	}
}

func TestStore_RefreshReloadsFromDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dryconfig.json"), []byte(`{"minLines": 1}`), 0o644))

	s := NewStore()
	_, err := s.Get(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "dryconfig.json"), []byte(`{"minLines": 2}`), 0o644))
	cfg, err := s.Refresh(root)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.MinLines)
}

func TestStore_SaveConfigPersistsAndUpdatesCache(t *testing.T) {
	root := t.TempDir()
	s := NewStore()
	cfg := Default()
	cfg.Threshold = 0.5

	require.NoError(t, s.SaveConfig(root, cfg))

	reloaded, err := Load(root)
	require.NoError(t, err)
	require.Equal(t, 0.5, reloaded.Threshold)

	cached, err := s.Get(root)
	require.NoError(t, err)
	require.Equal(t, 0.5, cached.Threshold)
}
