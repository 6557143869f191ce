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

// Package dupe implements the pairwise duplication engine: weighted
// cosine similarity within each unit type, threshold filtering, exclusion
// filtering, a process-wide similarity cache, and the duplication score.
package dupe

import (
	"crypto/rand"
	"encoding/hex"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dryhq/dry/pkg/extract"
	"github.com/dryhq/dry/pkg/pairkey"
)

// BareUnit carries IndexUnit's fields except Embedding, the shape used for
// the left/right sides of a DuplicateGroup.
type BareUnit struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	FilePath  string           `json:"filePath"`
	StartLine int              `json:"startLine"`
	EndLine   int              `json:"endLine"`
	Code      string           `json:"code"`
	UnitType  extract.UnitType `json:"unitType"`
	ParentID  string           `json:"parentId,omitempty"`
}

func stripEmbedding(u extract.IndexUnit) BareUnit {
	return BareUnit{
		ID: u.ID, Name: u.Name, FilePath: u.FilePath,
		StartLine: u.StartLine, EndLine: u.EndLine, Code: u.Code,
		UnitType: u.UnitType, ParentID: u.ParentID,
	}
}

// DuplicateGroup is one reported duplicate pair.
type DuplicateGroup struct {
	ID              string   `json:"id"`
	Similarity      float64  `json:"similarity"`
	Left            BareUnit `json:"left"`
	Right           BareUnit `json:"right"`
	ShortID         string   `json:"shortId"`
	ExclusionString string   `json:"exclusionString"`
}

// EngineConfig carries the knobs the duplication engine needs from a
// resolved DryConfig, kept narrow so this package doesn't import pkg/config.
type EngineConfig struct {
	Threshold     float64
	ExcludedPairs []string
}

// Run executes the duplication engine over units, returning duplicate
// groups sorted by descending similarity (ties broken by ascending
// canonical pair key for run-to-run stability).
func Run(units []extract.IndexUnit, cfg EngineConfig, cache *SimilarityCache) []DuplicateGroup {
	start := time.Now()
	if cache == nil {
		cache = Shared()
	}
	thresholds := DeriveThresholds(cfg.Threshold)
	idx := NewIndex(units)

	buckets := bucketByType(units)

	var mu sync.Mutex
	var groups []DuplicateGroup

	var wg sync.WaitGroup
	sem := make(chan struct{}, workerCap())
	for unitType, bucket := range buckets {
		unitType, bucket := unitType, bucket
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			found := runBucket(bucket, unitType, thresholds.For(unitType), idx, cache, cfg.ExcludedPairs)
			mu.Lock()
			groups = append(groups, found...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Similarity != groups[j].Similarity {
			return groups[i].Similarity > groups[j].Similarity
		}
		return groups[i].ExclusionString < groups[j].ExclusionString
	})
	recordGroupsFound(len(groups))
	recordDetectDuration(time.Since(start).Seconds())
	return groups
}

func workerCap() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

func bucketByType(units []extract.IndexUnit) map[extract.UnitType][]extract.IndexUnit {
	out := make(map[extract.UnitType][]extract.IndexUnit)
	for _, u := range units {
		out[u.UnitType] = append(out[u.UnitType], u)
	}
	return out
}

func runBucket(bucket []extract.IndexUnit, unitType extract.UnitType, threshold float64, idx *Index, cache *SimilarityCache, excludedPairs []string) []DuplicateGroup {
	var groups []DuplicateGroup
	for i := 0; i < len(bucket); i++ {
		for j := i + 1; j < len(bucket); j++ {
			l, r := &bucket[i], &bucket[j]
			recordPairCompared()

			sim, ok := similarityFor(l, r, idx, cache)
			if !ok || sim < threshold {
				continue
			}

			exclusionString := pairkey.ForPair(*l, *r)
			if isExcluded(unitType, pairkey.For(*l), pairkey.For(*r), excludedPairs) {
				recordPairExcluded()
				continue
			}

			groups = append(groups, DuplicateGroup{
				ID:              l.ID + "::" + r.ID,
				Similarity:      sim,
				Left:            stripEmbedding(*l),
				Right:           stripEmbedding(*r),
				ShortID:         newShortID(),
				ExclusionString: exclusionString,
			})
		}
	}
	return groups
}

// similarityFor computes weighted similarity for l,r, falling back to the
// cache when one or both sides currently lack an embedding (e.g. mid
// incremental update), and always records a fresh computation in the cache.
func similarityFor(l, r *extract.IndexUnit, idx *Index, cache *SimilarityCache) (float64, bool) {
	if l.Embedding == nil || r.Embedding == nil {
		if sim, ok := cache.Get(l.ID, r.ID); ok {
			return sim, true
		}
		return 0, false
	}
	sim := idx.Weighted(l, r)
	cache.Put(l.ID, r.ID, sim, l.FilePath, r.FilePath)
	return sim, true
}

func isExcluded(unitType extract.UnitType, a, b string, excludedPairs []string) bool {
	for _, pattern := range excludedPairs {
		if pairkey.Matches(unitType, a, b, pattern) {
			return true
		}
	}
	return false
}

// newShortID returns an 8-char opaque identifier, unique within a single
// report per spec.md's stated default scope (not persisted across runs).
func newShortID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
