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

// Package ignore builds a single path-exclusion predicate out of built-in
// defaults, every .gitignore discovered under a repo (correctly scoped to
// its containing directory), and a config-supplied list of extra globs.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// DefaultRules are always-ignored directories, applied regardless of config.
var DefaultRules = []string{".git/**", ".dry/**"}

// Ignore is a compiled path-exclusion predicate.
type Ignore struct {
	matcher *gitignore.GitIgnore
}

// Matches reports whether relPath (repo-relative) is ignored. relPath is
// normalized to POSIX separators with any leading "./" stripped before
// matching, per the contract every caller in this module relies on.
func (ig *Ignore) Matches(relPath string) bool {
	if ig == nil || ig.matcher == nil {
		return false
	}
	relPath = normalize(relPath)
	return ig.matcher.MatchesPath(relPath)
}

func normalize(p string) string {
	p = filepath.ToSlash(p)
	return strings.TrimPrefix(p, "./")
}

// New composes DefaultRules, every .gitignore found under repoRoot (each
// rule scoped to its containing directory), and excludedPaths into one
// Ignore. Rules are composed in order of increasing precedence — defaults
// first, then discovered .gitignore rules in directory-discovery order,
// then excludedPaths last — so later rules (including negations) win,
// matching real gitignore semantics within the single compiled matcher.
func New(repoRoot string, excludedPaths []string) (*Ignore, error) {
	var lines []string
	lines = append(lines, DefaultRules...)

	discovered, err := discoverGitignores(repoRoot)
	if err != nil {
		return nil, err
	}
	lines = append(lines, discovered...)

	for _, p := range excludedPaths {
		p = strings.TrimSpace(p)
		if p != "" {
			lines = append(lines, p)
		}
	}

	matcher := gitignore.CompileIgnoreLines(lines...)
	return &Ignore{matcher: matcher}, nil
}

// discoverGitignores walks repoRoot for .gitignore files and returns their
// rule lines rewritten with the containing directory's repo-relative
// prefix, so a rule "foo" in "sub/.gitignore" becomes "sub/foo". Comments
// and blank lines are dropped; negations ("!rule") are rewritten to
// "!dir/rule" preserving the leading "!".
func discoverGitignores(repoRoot string) ([]string, error) {
	var rules []string

	err := filepath.WalkDir(repoRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // permission errors etc: skip, don't fail the whole scan
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != ".gitignore" {
			return nil
		}

		dir, err := filepath.Rel(repoRoot, filepath.Dir(path))
		if err != nil {
			return nil
		}
		dir = filepath.ToSlash(dir)
		if dir == "." {
			dir = ""
		}

		lines, err := readLines(path)
		if err != nil {
			return nil
		}
		for _, line := range lines {
			if scoped, ok := scopeRule(line, dir); ok {
				rules = append(rules, scoped)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// scopeRule rewrites a single .gitignore line with its directory prefix.
// Blank lines and comments are dropped (ok=false).
func scopeRule(line, dir string) (string, bool) {
	trimmed := strings.TrimRight(line, "\r\n")
	stripped := strings.TrimSpace(trimmed)
	if stripped == "" || strings.HasPrefix(stripped, "#") {
		return "", false
	}
	if dir == "" {
		return trimmed, true
	}

	negate := strings.HasPrefix(trimmed, "!")
	body := strings.TrimPrefix(trimmed, "!")
	body = strings.TrimPrefix(body, "/")

	scoped := dir + "/" + body
	if negate {
		scoped = "!" + scoped
	}
	return scoped, true
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
