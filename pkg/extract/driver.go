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

package extract

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dryhq/dry/internal/contract"
)

// IgnoreMatcher is the subset of pkg/ignore.Ignore the driver needs, kept
// as a narrow interface here so pkg/extract never imports pkg/ignore.
type IgnoreMatcher interface {
	Matches(relPath string) bool
}

// ScanResult is the outcome of scanning one file: its checksum, size, and
// the units the matching extractor emitted.
type ScanResult struct {
	FilePath string
	Checksum string
	Size     int64
	Units    []IndexUnit
}

// Driver enumerates supported source files under a root, applies the
// ignore matcher, computes checksums, and dispatches each file to the
// matching registered extractor, per the unit extraction driver design.
type Driver struct {
	Registry *Registry
	Ignore   IgnoreMatcher
	Config   ScanConfig
	Logger   *slog.Logger
}

// NewDriver returns a Driver wired to registry and ignore, using cfg for
// extraction knobs. A nil Ignore matches nothing (no path is excluded).
func NewDriver(registry *Registry, ignore IgnoreMatcher, cfg ScanConfig) *Driver {
	return &Driver{
		Registry: registry,
		Ignore:   ignore,
		Config:   cfg,
		Logger:   slog.Default(),
	}
}

// Scan accepts either a single file path or a directory, both absolute,
// rooted at repoRoot. On a directory it walks every supported extension
// under the repo, filtering with the ignore matcher and the per-file size
// soft limit (internal/contract.ValidateFileSize); on a single file it
// short-circuits the walk. Unsupported and oversized files throw when
// targeted explicitly and are silently skipped during a recursive scan. A
// missing path is reported as "Path not found".
func (d *Driver) Scan(repoRoot, target string) ([]ScanResult, error) {
	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("Path not found: %s", target)
		}
		return nil, err
	}

	if !info.IsDir() {
		rel, err := filepath.Rel(repoRoot, target)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		res, err := d.scanFile(target, rel)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, fmt.Errorf("extract: unsupported file %s", target)
		}
		return []ScanResult{*res}, nil
	}

	var results []ScanResult
	err = filepath.WalkDir(target, func(path string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			d.Logger.Warn("extract.scan.walk_error", "path", path, "err", walkErr)
			return nil
		}

		rel, relErr := filepath.Rel(repoRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if de.IsDir() {
			if d.Ignore != nil && d.Ignore.Matches(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Ignore != nil && d.Ignore.Matches(rel) {
			return nil
		}

		res, scanErr := d.scanFile(path, rel)
		if scanErr != nil {
			recordFileErrored()
			d.Logger.Warn("extract.scan.file_error", "path", rel, "err", scanErr)
			return nil
		}
		if res == nil {
			recordFileSkipped()
			return nil // unsupported extension, silently skipped
		}
		recordFileScanned()
		recordUnitsEmitted(len(res.Units))
		results = append(results, *res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// scanFile reads, checksums, and (if a supporting extractor is registered)
// parses a single file. Returns nil, nil for an unsupported extension.
func (d *Driver) scanFile(absPath, relPath string) (*ScanResult, error) {
	extractor := d.Registry.For(relPath)
	if extractor == nil {
		return nil, nil
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", relPath, err)
	}
	if check := contract.ValidateFileSize(info.Size()); !check.OK {
		d.Logger.Debug("extract.file.skipped_oversized", "path", relPath, "reason", check.Message)
		return nil, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}

	sum := md5.Sum(content)
	checksum := hex.EncodeToString(sum[:])

	units, err := extractor.ExtractFromText(relPath, content, d.Config)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", relPath, err)
	}

	d.Logger.Debug("extract.file.parsed", "path", relPath, "units", len(units))

	return &ScanResult{
		FilePath: relPath,
		Checksum: checksum,
		Size:     int64(len(content)),
		Units:    units,
	}, nil
}

// NormalizePath returns a repo-relative, POSIX-normalized path with any
// leading "./" stripped, matching the convention every component in this
// module uses for FilePath fields.
func NormalizePath(p string) string {
	p = filepath.ToSlash(p)
	return strings.TrimPrefix(p, "./")
}
