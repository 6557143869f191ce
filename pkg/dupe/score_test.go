// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package dupe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dryhq/dry/pkg/extract"
)

func TestComputeScore_EmptyRepoIsExcellentZero(t *testing.T) {
	s := ComputeScore(nil, nil)
	require.Equal(t, 0.0, s.Score)
	require.Equal(t, "Excellent", s.Grade)
	require.Equal(t, 0, s.TotalLines)
	require.Equal(t, 0, s.DuplicateLines)
	require.Equal(t, 0, s.DuplicateGroups)
}

func TestComputeScore_NoGroupsIsExcellentZero(t *testing.T) {
	units := []extract.IndexUnit{{ID: "a", StartLine: 0, EndLine: 9}}
	s := ComputeScore(units, nil)
	require.Equal(t, 0.0, s.Score)
	require.Equal(t, "Excellent", s.Grade)
	require.Equal(t, 10, s.TotalLines)
}

func TestComputeScore_GradeBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{4.99, "Excellent"},
		{5, "Good"},
		{14.99, "Good"},
		{15, "Fair"},
		{29.99, "Fair"},
		{30, "Poor"},
		{49.99, "Poor"},
		{50, "Critical"},
		{99, "Critical"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, grade(c.score), "score %v", c.score)
	}
}

func TestComputeScore_ContributionMath(t *testing.T) {
	units := []extract.IndexUnit{
		{ID: "l", StartLine: 0, EndLine: 9},  // 10 lines
		{ID: "r", StartLine: 0, EndLine: 19}, // 20 lines
	}
	groups := []DuplicateGroup{
		{
			Similarity: 0.5,
			Left:       BareUnit{StartLine: 0, EndLine: 9},
			Right:      BareUnit{StartLine: 0, EndLine: 19},
		},
	}
	// totalLines = 30, avgLines = (10+20)/2=15, contribution=0.5*15=7.5
	// score = 100*7.5/30 = 25
	s := ComputeScore(units, groups)
	require.InDelta(t, 25.0, s.Score, 1e-9)
	require.Equal(t, 8, s.DuplicateLines) // round(7.5) == 8
	require.Equal(t, "Fair", s.Grade)
}
