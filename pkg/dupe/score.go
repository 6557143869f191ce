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

// Score is the duplication-score summary reported alongside the groups.
type Score struct {
	Score           float64 `json:"score"`
	Grade           string  `json:"grade"`
	TotalLines      int     `json:"totalLines"`
	DuplicateLines  int     `json:"duplicateLines"`
	DuplicateGroups int     `json:"duplicateGroups"`
}

// ComputeScore derives the duplication score from the full unit set (for
// totalLines, across every type) and the surviving duplicate groups.
func ComputeScore(units []extract.IndexUnit, groups []DuplicateGroup) Score {
	totalLines := 0
	for _, u := range units {
		totalLines += u.EndLine - u.StartLine + 1
	}

	if totalLines == 0 || len(groups) == 0 {
		return Score{Score: 0, Grade: "Excellent", TotalLines: totalLines, DuplicateLines: 0, DuplicateGroups: len(groups)}
	}

	var contributions float64
	for _, g := range groups {
		avgLines := float64((g.Left.EndLine-g.Left.StartLine+1)+(g.Right.EndLine-g.Right.StartLine+1)) / 2
		contributions += g.Similarity * avgLines
	}

	score := 100 * contributions / float64(totalLines)
	return Score{
		Score:           score,
		Grade:           grade(score),
		TotalLines:      totalLines,
		DuplicateLines:  roundToInt(contributions),
		DuplicateGroups: len(groups),
	}
}

func grade(score float64) string {
	switch {
	case score < 5:
		return "Excellent"
	case score < 15:
		return "Good"
	case score < 30:
		return "Fair"
	case score < 50:
		return "Poor"
	default:
		return "Critical"
	}
}

func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}
