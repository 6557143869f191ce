// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dryhq/dry/pkg/config"
	"github.com/dryhq/dry/pkg/extract"
)

func writeFileAt(t *testing.T, root, rel, content string, mtime time.Time) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(full, mtime, mtime))
}

func newTestOrchestrator(t *testing.T, root string, threshold float64) *Orchestrator {
	t.Helper()
	cfg := config.Default()
	cfg.EmbeddingSource = "mock"
	cfg.EmbeddingModel = "mock"
	cfg.Threshold = threshold

	o, err := New(context.Background(), root, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
var t1 = t0.Add(time.Hour)

func TestInit_ExtractsPersistsAndEmbeds(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "Sample.java", fmtClass("Sample"), t0)

	o := newTestOrchestrator(t, root, 0.88)
	ctx := context.Background()

	result, err := o.Init(ctx, InitOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesScanned)
	require.Greater(t, result.UnitsExtracted, 0)
	require.Equal(t, result.UnitsExtracted, result.UnitsEmbedded)

	units, err := o.db.GetAllUnits(ctx)
	require.NoError(t, err)
	require.Len(t, units, result.UnitsExtracted)
	for _, u := range units {
		require.NotNil(t, u.Embedding)
	}

	files, err := o.db.GetAllFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestInit_SkipEmbeddingsLeavesUnitsUnembedded(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "Sample.java", fmtClass("Sample"), t0)

	o := newTestOrchestrator(t, root, 0.88)
	ctx := context.Background()

	result, err := o.Init(ctx, InitOptions{SkipEmbeddings: true})
	require.NoError(t, err)
	require.Equal(t, 0, result.UnitsEmbedded)

	units, err := o.db.GetAllUnits(ctx)
	require.NoError(t, err)
	for _, u := range units {
		require.Nil(t, u.Embedding)
	}
}

func TestUpdateIndex_ClassifiesNewChangedUnchangedDeleted(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "A.java", fmtClass("A"), t0)
	writeFileAt(t, root, "B.java", fmtClass("B"), t0)

	o := newTestOrchestrator(t, root, 0.88)
	ctx := context.Background()
	_, err := o.Init(ctx, InitOptions{})
	require.NoError(t, err)

	// Touch B.java (new mtime, identical content) and rewrite A.java's
	// content; add a brand-new C.java; leave nothing deleted yet.
	writeFileAt(t, root, "B.java", fmtClass("B"), t1)
	writeFileAt(t, root, "A.java", fmtClassWithExtra("A"), t1)
	writeFileAt(t, root, "C.java", fmtClass("C"), t1)

	result, err := o.UpdateIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.New)      // C.java
	require.Equal(t, 1, result.Changed)  // A.java
	require.Equal(t, 1, result.Unchanged) // B.java (touched only)
	require.Equal(t, 0, result.Deleted)

	// Now delete C.java and update again.
	require.NoError(t, os.Remove(filepath.Join(root, "C.java")))
	result2, err := o.UpdateIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result2.Deleted)

	units, err := o.db.GetUnitsByFilePath(ctx, "C.java")
	require.NoError(t, err)
	require.Empty(t, units)
}

// Testable property #4 (incremental correctness): after init, mutate one
// file and run updateIndex; the set of units for that file equals a fresh
// full scan's output for it, and units for the untouched file are
// byte-identical (including their embeddings).
func TestUpdateIndex_IncrementalCorrectness(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "A.java", fmtClass("A"), t0)
	writeFileAt(t, root, "B.java", fmtClass("B"), t0)

	o := newTestOrchestrator(t, root, 0.88)
	ctx := context.Background()
	_, err := o.Init(ctx, InitOptions{})
	require.NoError(t, err)

	beforeB, err := o.db.GetUnitsByFilePath(ctx, "B.java")
	require.NoError(t, err)
	require.NotEmpty(t, beforeB)

	writeFileAt(t, root, "A.java", fmtClassWithExtra("A"), t1)
	_, err = o.UpdateIndex(ctx)
	require.NoError(t, err)

	afterB, err := o.db.GetUnitsByFilePath(ctx, "B.java")
	require.NoError(t, err)
	require.ElementsMatch(t, beforeB, afterB)

	afterA, err := o.db.GetUnitsByFilePath(ctx, "A.java")
	require.NoError(t, err)

	freshDriver := extract.NewDriver(extract.NewDefaultRegistry(), nil, extract.DefaultScanConfig())
	freshResults, err := freshDriver.Scan(root, filepath.Join(root, "A.java"))
	require.NoError(t, err)
	require.Len(t, freshResults, 1)

	require.ElementsMatch(t, structuralKeys(freshResults[0].Units), structuralKeys(afterA))
}

func structuralKeys(units []extract.IndexUnit) []string {
	keys := make([]string, len(units))
	for i, u := range units {
		keys[i] = u.ID + "|" + u.Code + "|" + u.ParentID
	}
	return keys
}

func TestBuildDuplicateReport_EmitsDuplicateAboveThreshold(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "A.java", fmtClass("A"), t0)
	writeFileAt(t, root, "B.java", fmtClass("B"), t0)

	o := newTestOrchestrator(t, root, 0.3)
	ctx := context.Background()
	_, err := o.Init(ctx, InitOptions{})
	require.NoError(t, err)

	report, err := o.BuildDuplicateReport(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Version)
	require.NotEmpty(t, report.GeneratedAt)
	require.NotEmpty(t, report.Duplicates)

	for i := 1; i < len(report.Duplicates); i++ {
		require.GreaterOrEqual(t, report.Duplicates[i-1].Similarity, report.Duplicates[i].Similarity)
	}
}

func TestBuildDuplicateReport_EmptyRepoIsExcellentZero(t *testing.T) {
	root := t.TempDir()
	o := newTestOrchestrator(t, root, 0.88)
	ctx := context.Background()
	_, err := o.Init(ctx, InitOptions{})
	require.NoError(t, err)

	report, err := o.BuildDuplicateReport(ctx)
	require.NoError(t, err)
	require.Equal(t, "Excellent", report.Grade)
	require.Equal(t, 0.0, report.Score.Score)
	require.Empty(t, report.Duplicates)
}

// Testable property #7 (exclusion idempotence): applying an exclusion twice
// returns kept=1, removed=0 the second time too.
func TestCleanExclusions_KeepsMatchingPatternAndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "A.java", fmtClass("A"), t0)
	writeFileAt(t, root, "B.java", fmtClass("B"), t0)

	o := newTestOrchestrator(t, root, 0.3)
	ctx := context.Background()
	_, err := o.Init(ctx, InitOptions{})
	require.NoError(t, err)

	report, err := o.BuildDuplicateReport(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, report.Duplicates)

	pattern := report.Duplicates[0].ExclusionString
	o.cfg.ExcludedPairs = []string{pattern}

	result, err := o.CleanExclusions(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result.Kept)
	require.Equal(t, 0, result.Removed)

	result2, err := o.CleanExclusions(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, result2.Kept)
	require.Equal(t, 0, result2.Removed)

	saved, err := config.Load(root)
	require.NoError(t, err)
	require.Equal(t, []string{pattern}, saved.ExcludedPairs)
}

func TestCleanExclusions_RemovesPatternMatchingNoActualPair(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, root, "A.java", fmtClass("A"), t0)

	o := newTestOrchestrator(t, root, 0.88)
	ctx := context.Background()
	_, err := o.Init(ctx, InitOptions{})
	require.NoError(t, err)

	o.cfg.ExcludedPairs = []string{"function|Nonexistent.foo(arity:1)|Nonexistent.bar(arity:1)"}
	result, err := o.CleanExclusions(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, result.Kept)
	require.Equal(t, 1, result.Removed)
}

func fmtClass(name string) string {
	return sprintfClass(name, "")
}

func fmtClassWithExtra(name string) string {
	return sprintfClass(name, `

    int getX() {
        return 0;
    }
`)
}

func sprintfClass(name, extra string) string {
	return "\nclass " + name + " {\n    int run(int a, int b) {\n        int total = a + b;\n        return total;\n    }\n" + extra + "}\n"
}
