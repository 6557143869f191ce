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

package dupe

import "sync"

// cacheEntry is one remembered pairwise similarity, plus the file paths
// that produced it so invalidate can target it by path.
type cacheEntry struct {
	similarity float64
	leftPath   string
	rightPath  string
}

// SimilarityCache is a process-wide, internally synchronized cache of
// last-computed pairwise similarities, keyed by the two unit IDs (sorted).
// During incremental updates, units are briefly re-extracted without
// embeddings; without this cache a stable duplicate pair would flicker out
// of a report whenever one side is momentarily unembedded. Lazily created
// on first use per spec.md §9's design note; an instance is also safe to
// construct directly for tests that want isolation from the package-wide
// singleton.
type SimilarityCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewSimilarityCache returns an empty cache.
func NewSimilarityCache() *SimilarityCache {
	return &SimilarityCache{entries: make(map[string]cacheEntry)}
}

var (
	sharedCacheOnce sync.Once
	sharedCache     *SimilarityCache
)

// Shared returns the process-wide singleton cache.
func Shared() *SimilarityCache {
	sharedCacheOnce.Do(func() { sharedCache = NewSimilarityCache() })
	return sharedCache
}

func cacheKey(leftID, rightID string) string {
	if leftID > rightID {
		leftID, rightID = rightID, leftID
	}
	return leftID + "\x00" + rightID
}

// Get returns the cached similarity for (leftID, rightID), if present.
func (c *SimilarityCache) Get(leftID, rightID string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey(leftID, rightID)]
	if !ok {
		return 0, false
	}
	return e.similarity, true
}

// Put records the similarity computed for (leftID, rightID), along with the
// file paths of both sides so a later invalidate(paths) call can find it.
func (c *SimilarityCache) Put(leftID, rightID string, similarity float64, leftPath, rightPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(leftID, rightID)] = cacheEntry{similarity: similarity, leftPath: leftPath, rightPath: rightPath}
}

// Invalidate removes every cache entry whose recorded file paths intersect
// paths. Atomic with respect to concurrent Get/Put.
func (c *SimilarityCache) Invalidate(paths []string) {
	if len(paths) == 0 {
		return
	}
	changed := make(map[string]bool, len(paths))
	for _, p := range paths {
		changed[p] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if changed[e.leftPath] || changed[e.rightPath] {
			delete(c.entries, k)
		}
	}
}

// Len reports the number of cached entries (test/debug use).
func (c *SimilarityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
