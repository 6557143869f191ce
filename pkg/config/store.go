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

package config

import (
	"path/filepath"
	"sync"
)

// Store is a cached mapping from normalized absolute repo path to resolved
// DryConfig. A second concurrent Get for the same repo reuses the in-flight
// load rather than issuing a second one, via a sync.Map of completion
// channels keyed by repo path — mirroring the teacher's mutex-guarded
// singleton pattern for shared per-path state.
type Store struct {
	mu     sync.RWMutex
	cached map[string]DryConfig

	inflight sync.Map // string -> chan struct{}
}

// NewStore returns an empty config store.
func NewStore() *Store {
	return &Store{cached: make(map[string]DryConfig)}
}

func (s *Store) normalize(repoPath string) (string, error) {
	return filepath.Abs(repoPath)
}

// Init loads and caches repoPath's config, applying overrides on top of the
// file/defaults. Overrides with zero-value fields are ignored (use Save
// followed by Get/Refresh if you need to force an exact value).
func (s *Store) Init(repoPath string, overrides *DryConfig) (DryConfig, error) {
	key, err := s.normalize(repoPath)
	if err != nil {
		return DryConfig{}, err
	}

	cfg, err := Load(key)
	if err != nil {
		return DryConfig{}, err
	}
	if overrides != nil {
		applyOverrides(&cfg, overrides)
		normalize(&cfg)
	}

	s.mu.Lock()
	s.cached[key] = cfg
	s.mu.Unlock()
	return cfg, nil
}

// Get returns the cached config for repoPath, loading it if not yet cached.
// Concurrent Get calls for the same repoPath during a cold load block on
// the same in-flight load and observe the same result.
func (s *Store) Get(repoPath string) (DryConfig, error) {
	key, err := s.normalize(repoPath)
	if err != nil {
		return DryConfig{}, err
	}

	s.mu.RLock()
	cfg, ok := s.cached[key]
	s.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	return s.loadOnce(key)
}

// loadOnce ensures exactly one Load happens per key even when called
// concurrently: the first caller creates a "done" channel and performs the
// load; later callers wait on that channel and then read the cache.
func (s *Store) loadOnce(key string) (DryConfig, error) {
	done := make(chan struct{})
	actual, loaded := s.inflight.LoadOrStore(key, done)
	ch := actual.(chan struct{})

	if loaded {
		<-ch
		s.mu.RLock()
		cfg, ok := s.cached[key]
		s.mu.RUnlock()
		if !ok {
			return DryConfig{}, &SchemaError{Err: errLoadFailed}
		}
		return cfg, nil
	}

	defer func() {
		s.inflight.Delete(key)
		close(ch)
	}()

	cfg, err := Load(key)
	if err != nil {
		return DryConfig{}, err
	}

	s.mu.Lock()
	s.cached[key] = cfg
	s.mu.Unlock()
	return cfg, nil
}

// Refresh forces a reload of repoPath's config from disk, replacing the
// cached entry.
func (s *Store) Refresh(repoPath string) (DryConfig, error) {
	key, err := s.normalize(repoPath)
	if err != nil {
		return DryConfig{}, err
	}
	cfg, err := Load(key)
	if err != nil {
		return DryConfig{}, err
	}
	s.mu.Lock()
	s.cached[key] = cfg
	s.mu.Unlock()
	return cfg, nil
}

// SaveConfig writes cfg to repoPath's dryconfig.json and updates the cache.
func (s *Store) SaveConfig(repoPath string, cfg DryConfig) error {
	key, err := s.normalize(repoPath)
	if err != nil {
		return err
	}
	if err := Save(key, cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.cached[key] = cfg
	s.mu.Unlock()
	return nil
}

func applyOverrides(cfg *DryConfig, overrides *DryConfig) {
	if overrides.ExcludedPaths != nil {
		cfg.ExcludedPaths = overrides.ExcludedPaths
	}
	if overrides.ExcludedPairs != nil {
		cfg.ExcludedPairs = overrides.ExcludedPairs
	}
	if overrides.MinLines != 0 {
		cfg.MinLines = overrides.MinLines
	}
	if overrides.MinBlockLines != 0 {
		cfg.MinBlockLines = overrides.MinBlockLines
	}
	if overrides.Threshold != 0 {
		cfg.Threshold = overrides.Threshold
	}
	if overrides.EmbeddingSource != "" {
		cfg.EmbeddingSource = overrides.EmbeddingSource
	}
	if overrides.EmbeddingModel != "" {
		cfg.EmbeddingModel = overrides.EmbeddingModel
	}
	if overrides.ContextLength != 0 {
		cfg.ContextLength = overrides.ContextLength
	}
}

type storeError string

func (e storeError) Error() string { return string(e) }

var errLoadFailed = storeError("config: in-flight load did not populate cache")
