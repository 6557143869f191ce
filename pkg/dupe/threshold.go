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

import "github.com/dryhq/dry/pkg/extract"

// blockThresholdOffset and classThresholdOffset shift the user's single
// threshold knob to derive BLOCK and CLASS thresholds from the FUNCTION
// baseline: blocks are flagged at a slightly lower similarity
// (formatting-only duplication is common and still worth surfacing), classes
// only at a higher one (a class match is a much stronger claim than a block match).
const (
	blockThresholdOffset = -0.03
	classThresholdOffset = 0.05
)

// Thresholds holds the derived per-unit-type similarity thresholds for one
// duplication run.
type Thresholds struct {
	Function float64
	Block    float64
	Class    float64
}

// DeriveThresholds computes Thresholds from the function baseline t,
// clamping every derived value to [0, 1].
func DeriveThresholds(t float64) Thresholds {
	return Thresholds{
		Function: clamp01(t),
		Block:    clamp01(t + blockThresholdOffset),
		Class:    clamp01(t + classThresholdOffset),
	}
}

// For returns the threshold for a given unit type.
func (t Thresholds) For(unitType extract.UnitType) float64 {
	switch unitType {
	case extract.UnitClass:
		return t.Class
	case extract.UnitBlock:
		return t.Block
	default:
		return t.Function
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
