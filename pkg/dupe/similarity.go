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

import (
	"math"

	"github.com/dryhq/dry/pkg/extract"
)

// Weight vectors for the blended similarity formula. They are internal
// tunables, not user-facing config: wClassSelf is a single-term weight
// (<=1); wFnSelf+wFnParentClass and wBlSelf+wBlParentFn+wBlParentClass each
// sum to 1 so sim stays in [0,1] whenever the inputs are unit-norm cosine
// similarities.
const (
	wClassSelf = 1.0

	wFnSelf        = 0.7
	wFnParentClass = 0.3

	wBlSelf        = 0.6
	wBlParentFn    = 0.25
	wBlParentClass = 0.15
)

// Index resolves a unit's parent chain during a single duplication run. It
// is built once per run from the full unit set and never mutates unit
// storage: parentId stays the persisted, authoritative link.
type Index struct {
	byID map[string]*extract.IndexUnit
}

// NewIndex builds a lookup index over units for parent-chain ascension.
func NewIndex(units []extract.IndexUnit) *Index {
	m := make(map[string]*extract.IndexUnit, len(units))
	for i := range units {
		m[units[i].ID] = &units[i]
	}
	return &Index{byID: m}
}

// ancestorOfType walks parentId links from u until it finds an ancestor of
// unitType, or returns nil if none exists.
func (idx *Index) ancestorOfType(u *extract.IndexUnit, unitType extract.UnitType) *extract.IndexUnit {
	cur := u
	for cur != nil {
		if cur.UnitType == unitType {
			return cur
		}
		if cur.ParentID == "" {
			return nil
		}
		cur = idx.byID[cur.ParentID]
	}
	return nil
}

// cosine returns the cosine similarity of two equal-length vectors, or 0 if
// either is empty/nil.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// parentSimilarity ascends both units' parent chains to the nearest
// ancestor of unitType and returns their cosine similarity, or 0 if either
// side lacks such an ancestor or an embedding.
func (idx *Index) parentSimilarity(l, r *extract.IndexUnit, unitType extract.UnitType) float64 {
	lp := idx.ancestorOfType(l, unitType)
	rp := idx.ancestorOfType(r, unitType)
	if lp == nil || rp == nil || lp.Embedding == nil || rp.Embedding == nil {
		return 0
	}
	return cosine(lp.Embedding, rp.Embedding)
}

// Weighted computes the blended similarity between two same-type units per
// spec.md §4.8: CLASS uses only the self term; FUNCTION blends self with
// parent-CLASS similarity; BLOCK blends self with parent-FUNCTION and
// parent-CLASS similarity.
func (idx *Index) Weighted(l, r *extract.IndexUnit) float64 {
	s := cosine(l.Embedding, r.Embedding)

	switch l.UnitType {
	case extract.UnitClass:
		return s * wClassSelf
	case extract.UnitFunction:
		return wFnSelf*s + wFnParentClass*idx.parentSimilarity(l, r, extract.UnitClass)
	case extract.UnitBlock:
		return wBlSelf*s +
			wBlParentFn*idx.parentSimilarity(l, r, extract.UnitFunction) +
			wBlParentClass*idx.parentSimilarity(l, r, extract.UnitClass)
	default:
		return s
	}
}
