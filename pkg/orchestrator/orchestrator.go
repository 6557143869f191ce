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

// Package orchestrator drives the pipeline end to end: enumerate files
// (driver + ignore), parse (extractor), persist units, embed, detect
// duplicates, report. It owns every component the rest of this module
// exposes and is the only thing callers (the CLI) need to construct.
package orchestrator

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dryhq/dry/pkg/config"
	"github.com/dryhq/dry/pkg/dupe"
	"github.com/dryhq/dry/pkg/embedclient"
	"github.com/dryhq/dry/pkg/extract"
	"github.com/dryhq/dry/pkg/ignore"
	"github.com/dryhq/dry/pkg/pairkey"
	"github.com/dryhq/dry/pkg/store"
)

// Orchestrator wires together every collaborator needed to run the four
// top-level operations against one repo: the persistent store, the file
// driver (extractor registry + ignore matcher), the embedding generator,
// and the process-wide similarity cache.
type Orchestrator struct {
	repoRoot string
	cfg      config.DryConfig

	db     *store.Store
	driver *extract.Driver
	embed  *embedclient.Generator
	cache  *dupe.SimilarityCache
}

// New wires an Orchestrator for repoRoot using cfg, opening (and creating if
// necessary) the `.dry/dry.db` store. Callers MUST NOT run two Orchestrators
// concurrently against the same repo.
func New(ctx context.Context, repoRoot string, cfg config.DryConfig) (*Orchestrator, error) {
	ig, err := ignore.New(repoRoot, cfg.ExcludedPaths)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build ignore matcher: %w", err)
	}

	dryDir := filepath.Join(repoRoot, ".dry")
	if err := os.MkdirAll(dryDir, 0o755); err != nil {
		return nil, fmt.Errorf("orchestrator: create .dry directory: %w", err)
	}

	db, err := store.Open(ctx, filepath.Join(dryDir, "dry.db"))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: open store: %w", err)
	}

	provider, err := embedclient.New(cfg.EmbeddingSource, cfg.EmbeddingModel)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("orchestrator: build embedding provider: %w", err)
	}

	scanCfg := extract.ScanConfig{MinLines: cfg.MinLines, MinBlockLines: cfg.MinBlockLines}
	driver := extract.NewDriver(extract.NewDefaultRegistry(), ig, scanCfg)

	return &Orchestrator{
		repoRoot: repoRoot,
		cfg:      cfg,
		db:       db,
		driver:   driver,
		embed:    embedclient.NewGenerator(provider),
		cache:    dupe.Shared(),
	}, nil
}

// Close releases the underlying store handle.
func (o *Orchestrator) Close() error {
	return o.db.Close()
}

// InitOptions controls Init.
type InitOptions struct {
	// SkipEmbeddings skips the embedding phase, leaving every unit without a
	// vector (useful for a quick structural-only index build).
	SkipEmbeddings bool
}

// InitResult summarizes one Init run.
type InitResult struct {
	FilesScanned   int `json:"filesScanned"`
	UnitsExtracted int `json:"unitsExtracted"`
	UnitsEmbedded  int `json:"unitsEmbedded"`
}

// Init performs a full build: enumerate every source file under repoRoot
// (honoring the ignore matcher), extract and persist units, record each
// file's tracked state, and (unless skipped) compute embeddings for every
// unit.
func (o *Orchestrator) Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	results, err := o.driver.Scan(o.repoRoot, o.repoRoot)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: scan repo: %w", err)
	}

	var units []extract.IndexUnit
	var files []store.TrackedFile
	for _, r := range results {
		units = append(units, r.Units...)

		modTime, statErr := fileModTime(o.repoRoot, r.FilePath)
		if statErr != nil {
			return nil, fmt.Errorf("orchestrator: stat %s: %w", r.FilePath, statErr)
		}
		files = append(files, store.TrackedFile{FilePath: r.FilePath, Checksum: r.Checksum, Size: r.Size, ModTime: modTime})
	}

	if err := o.db.SaveUnits(ctx, units); err != nil {
		return nil, fmt.Errorf("orchestrator: persist units: %w", err)
	}
	if err := o.db.SaveFiles(ctx, files); err != nil {
		return nil, fmt.Errorf("orchestrator: persist tracked files: %w", err)
	}

	embedded := 0
	if !opts.SkipEmbeddings {
		embedded, err = o.embedAndPersist(ctx, units)
		if err != nil {
			return nil, err
		}
	}

	return &InitResult{FilesScanned: len(results), UnitsExtracted: len(units), UnitsEmbedded: embedded}, nil
}

// UpdateResult summarizes one UpdateIndex run.
type UpdateResult struct {
	New           int `json:"new"`
	Changed       int `json:"changed"`
	Deleted       int `json:"deleted"`
	Unchanged     int `json:"unchanged"`
	UnitsEmbedded int `json:"unitsEmbedded"`
}

// UpdateIndex runs the incremental update flow: classify every currently
// enumerable file as new/changed/unchanged against the tracked-file table
// (via mtime, falling back to a checksum recompute on a mismatch), treat any
// tracked file absent from the enumeration as deleted, remove the stale
// units and tracked-file rows (invalidating the similarity cache for those
// paths), re-extract and persist what's new or changed, and embed only the
// affected units.
func (o *Orchestrator) UpdateIndex(ctx context.Context) (*UpdateResult, error) {
	current, err := o.listSourceFiles()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: enumerate files: %w", err)
	}

	tracked, err := o.db.GetAllFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load tracked files: %w", err)
	}
	trackedByPath := make(map[string]store.TrackedFile, len(tracked))
	for _, f := range tracked {
		trackedByPath[f.FilePath] = f
	}

	seen := make(map[string]bool, len(current))
	var newFiles, changedFiles []fileState
	unchanged := 0

	for _, f := range current {
		seen[f.relPath] = true

		prev, ok := trackedByPath[f.relPath]
		if !ok {
			newFiles = append(newFiles, f)
			continue
		}
		if prev.ModTime == f.modTime {
			unchanged++
			continue
		}

		checksum, checksumErr := checksumFile(f.absPath)
		if checksumErr != nil {
			return nil, fmt.Errorf("orchestrator: checksum %s: %w", f.relPath, checksumErr)
		}
		if checksum == prev.Checksum {
			// The file's mtime moved but its content didn't (e.g. a touch or
			// an unrelated rewrite of identical bytes): refresh the tracked
			// mtime so the next run doesn't pay for this checksum again.
			if saveErr := o.db.SaveFile(ctx, store.TrackedFile{FilePath: f.relPath, Checksum: checksum, Size: prev.Size, ModTime: f.modTime}); saveErr != nil {
				return nil, fmt.Errorf("orchestrator: refresh tracked file %s: %w", f.relPath, saveErr)
			}
			unchanged++
			continue
		}
		changedFiles = append(changedFiles, f)
	}

	var deletedPaths []string
	for path := range trackedByPath {
		if !seen[path] {
			deletedPaths = append(deletedPaths, path)
		}
	}

	var stalePaths []string
	stalePaths = append(stalePaths, deletedPaths...)
	for _, f := range changedFiles {
		stalePaths = append(stalePaths, f.relPath)
	}

	if len(stalePaths) > 0 {
		if err := o.db.RemoveUnitsByFilePaths(ctx, stalePaths); err != nil {
			return nil, fmt.Errorf("orchestrator: remove stale units: %w", err)
		}
		if err := o.db.RemoveFilesByFilePaths(ctx, stalePaths); err != nil {
			return nil, fmt.Errorf("orchestrator: remove stale tracked files: %w", err)
		}
		o.cache.Invalidate(stalePaths)
	}

	toExtract := append(append([]fileState{}, newFiles...), changedFiles...)
	var affected []extract.IndexUnit
	var refreshed []store.TrackedFile
	for _, f := range toExtract {
		results, scanErr := o.driver.Scan(o.repoRoot, f.absPath)
		if scanErr != nil {
			return nil, fmt.Errorf("orchestrator: extract %s: %w", f.relPath, scanErr)
		}
		for _, r := range results {
			affected = append(affected, r.Units...)
			refreshed = append(refreshed, store.TrackedFile{FilePath: r.FilePath, Checksum: r.Checksum, Size: r.Size, ModTime: f.modTime})
		}
	}

	if err := o.db.SaveUnits(ctx, affected); err != nil {
		return nil, fmt.Errorf("orchestrator: persist units: %w", err)
	}
	if err := o.db.SaveFiles(ctx, refreshed); err != nil {
		return nil, fmt.Errorf("orchestrator: persist tracked files: %w", err)
	}

	embedded, err := o.embedAndPersist(ctx, affected)
	if err != nil {
		return nil, err
	}

	return &UpdateResult{
		New:           len(newFiles),
		Changed:       len(changedFiles),
		Deleted:       len(deletedPaths),
		Unchanged:     unchanged,
		UnitsEmbedded: embedded,
	}, nil
}

// DuplicateReport is the core's JSON output: spec.md §6.
type DuplicateReport struct {
	Version     int                  `json:"version"`
	GeneratedAt string               `json:"generatedAt"`
	Threshold   float64              `json:"threshold"`
	Grade       string               `json:"grade"`
	Score       dupe.Score           `json:"score"`
	Duplicates  []dupe.DuplicateGroup `json:"duplicates"`
}

// BuildDuplicateReport runs UpdateIndex, then the duplication engine over
// every tracked unit, and composes the report payload.
func (o *Orchestrator) BuildDuplicateReport(ctx context.Context) (*DuplicateReport, error) {
	if _, err := o.UpdateIndex(ctx); err != nil {
		return nil, err
	}

	units, err := o.db.GetAllUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load units: %w", err)
	}

	groups := dupe.Run(units, dupe.EngineConfig{Threshold: o.cfg.Threshold, ExcludedPairs: o.cfg.ExcludedPairs}, o.cache)
	score := dupe.ComputeScore(units, groups)

	return &DuplicateReport{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Threshold:   o.cfg.Threshold,
		Grade:       score.Grade,
		Score:       score,
		Duplicates:  groups,
	}, nil
}

// ExclusionCleanupResult summarizes one CleanExclusions run.
type ExclusionCleanupResult struct {
	Kept    int `json:"kept"`
	Removed int `json:"removed"`
}

// CleanExclusions runs UpdateIndex, then re-derives every actual duplicate
// pair with thresholds forced to zero (so exclusion filtering itself never
// hides a pair from this check), keeps only the excludedPairs entries that
// still match at least one actual pair, saves the survivors back to
// dryconfig.json, and reports how many were kept versus removed.
func (o *Orchestrator) CleanExclusions(ctx context.Context) (*ExclusionCleanupResult, error) {
	if _, err := o.UpdateIndex(ctx); err != nil {
		return nil, err
	}

	units, err := o.db.GetAllUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load units: %w", err)
	}

	// A baseline of -1 clamps the function, block and class thresholds all to 0.
	actual := dupe.Run(units, dupe.EngineConfig{Threshold: -1}, o.cache)

	kept := make([]string, 0, len(o.cfg.ExcludedPairs))
	removed := 0
	for _, pattern := range o.cfg.ExcludedPairs {
		if matchesAnyGroup(pattern, actual) {
			kept = append(kept, pattern)
		} else {
			removed++
		}
	}

	o.cfg.ExcludedPairs = kept
	if err := config.Save(o.repoRoot, o.cfg); err != nil {
		return nil, fmt.Errorf("orchestrator: save config: %w", err)
	}

	return &ExclusionCleanupResult{Kept: len(kept), Removed: removed}, nil
}

func matchesAnyGroup(pattern string, groups []dupe.DuplicateGroup) bool {
	for _, g := range groups {
		actType, a, b, ok := pairkey.ParsePairKey(g.ExclusionString)
		if !ok {
			continue
		}
		if pairkey.Matches(extract.UnitType(strings.ToUpper(actType)), a, b, pattern) {
			return true
		}
	}
	return false
}

// embedAndPersist attaches embeddings to units (skip-if-already-embedded,
// handled inside the generator) and writes the result back to the store.
// Returns the number of units that ended up with an embedding.
func (o *Orchestrator) embedAndPersist(ctx context.Context, units []extract.IndexUnit) (int, error) {
	if len(units) == 0 {
		return 0, nil
	}

	result, err := o.embed.Embed(ctx, units)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: embed units: %w", err)
	}
	if err := o.db.SaveUnits(ctx, result.Units); err != nil {
		return 0, fmt.Errorf("orchestrator: persist embeddings: %w", err)
	}

	embedded := 0
	for _, u := range result.Units {
		if u.Embedding != nil {
			embedded++
		}
	}
	return embedded, nil
}

// fileState is one enumerated source file: its repo-relative and absolute
// paths, plus the mtime observed at enumeration time.
type fileState struct {
	relPath string
	absPath string
	modTime int64
}

// listSourceFiles walks repoRoot for every file the driver's registry
// supports and the ignore matcher doesn't exclude, without reading or
// checksumming content — UpdateIndex only needs mtimes to classify files.
func (o *Orchestrator) listSourceFiles() ([]fileState, error) {
	var out []fileState
	err := filepath.WalkDir(o.repoRoot, func(path string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}

		rel, relErr := filepath.Rel(o.repoRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if de.IsDir() {
			if o.driver.Ignore != nil && o.driver.Ignore.Matches(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if o.driver.Ignore != nil && o.driver.Ignore.Matches(rel) {
			return nil
		}
		if o.driver.Registry.For(rel) == nil {
			return nil
		}

		info, infoErr := de.Info()
		if infoErr != nil {
			return nil
		}
		out = append(out, fileState{relPath: rel, absPath: path, modTime: info.ModTime().Unix()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func fileModTime(repoRoot, relPath string) (int64, error) {
	info, err := os.Stat(filepath.Join(repoRoot, relPath))
	if err != nil {
		return 0, err
	}
	return info.ModTime().Unix(), nil
}

func checksumFile(absPath string) (string, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:]), nil
}
