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

// Package pairkey builds and matches the stable, order-insensitive identity
// string used to record and look up a duplicate-pair exclusion: a three-part
// "type|a|b" key, where a and b are always in lexicographic order so the
// same pair produces the same key regardless of which unit was found first.
package pairkey

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/dryhq/dry/pkg/extract"
)

var whitespaceAndComments = regexp.MustCompile(`//[^\n]*|/\*[\s\S]*?\*/|\s+`)

// For builds the identity component for a single unit: the piece that, once
// paired with another unit's identity (sorted lexicographically) and joined
// with the unit type, becomes a canonical pair key.
//
//   - CLASS units are identified by file path: two classes are "the same
//     pair" across runs only if they live at the same paths.
//   - FUNCTION units are identified by "{qualifiedName}(arity:{N})", so a
//     rename that keeps arity and qualifiedName stable survives re-indexing,
//     but whitespace/formatting changes to the body never affect the key.
//   - BLOCK units are identified by the SHA-1 hex digest of their code with
//     comments and whitespace stripped, so two blocks that differ only in
//     formatting still collapse onto the same identity.
func For(u extract.IndexUnit) string {
	switch u.UnitType {
	case extract.UnitClass:
		return u.FilePath
	case extract.UnitFunction:
		return u.Name + "(arity:" + arity(u.Code) + ")"
	case extract.UnitBlock:
		return blockHash(u.Code)
	default:
		return u.Name
	}
}

// arity counts the comma-separated parameters in the first parenthesized
// group of code, returning it as a decimal string. An empty parameter list
// (just "()") yields "0".
func arity(code string) string {
	open := strings.IndexByte(code, '(')
	if open < 0 {
		return "0"
	}

	depth := 0
	var params strings.Builder
	for i := open; i < len(code); i++ {
		switch code[i] {
		case '(':
			depth++
			if depth == 1 {
				continue
			}
		case ')':
			depth--
			if depth == 0 {
				goto done
			}
		}
		if depth >= 1 {
			params.WriteByte(code[i])
		}
	}
done:
	trimmed := strings.TrimSpace(params.String())
	if trimmed == "" {
		return "0"
	}

	count := 1
	depth = 0
	for _, r := range trimmed {
		switch r {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return itoa(count)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func blockHash(code string) string {
	stripped := whitespaceAndComments.ReplaceAllString(code, "")
	sum := sha1.Sum([]byte(stripped))
	return hex.EncodeToString(sum[:])
}

// Canonical builds the stable "type|a|b" pair key for two units, sorting a
// and b lexicographically so discovery order never changes the key.
func Canonical(unitType extract.UnitType, a, b string) string {
	lowType := strings.ToLower(string(unitType))
	if a > b {
		a, b = b, a
	}
	return lowType + "|" + a + "|" + b
}

// ForPair builds the canonical pair key for two units of the same type. It
// panics if the two units have different types, since a pair key is only
// ever meaningful within one unit type.
func ForPair(u1, u2 extract.IndexUnit) string {
	if u1.UnitType != u2.UnitType {
		panic("pairkey: ForPair called with mismatched unit types")
	}
	return Canonical(u1.UnitType, For(u1), For(u2))
}

// ParsePairKey splits a "type|a|b" string into its canonical (sorted) form.
// It returns ok=false for any string that isn't exactly three pipe-separated
// parts, or whose type isn't one of class/function/block.
func ParsePairKey(s string) (unitType string, a string, b string, ok bool) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return "", "", "", false
	}

	t := strings.ToLower(strings.TrimSpace(parts[0]))
	switch t {
	case "class", "function", "block":
	default:
		return "", "", "", false
	}

	a, b = parts[1], parts[2]
	if a > b {
		a, b = b, a
	}
	return t, a, b, true
}

// Matches reports whether the exclusion pattern (a raw, possibly-glob
// "type|a|b" string as written into a config's excludedPairs) matches the
// actual canonical pair key for two units. CLASS patterns are matched with
// glob semantics against both orderings of the actual file paths; FUNCTION
// and BLOCK patterns require exact equality, also in both orderings, since
// those identities are already normalized and globbing them would risk
// silently matching unrelated pairs.
func Matches(actualType extract.UnitType, actualA, actualB, pattern string) bool {
	patType, patA, patB, ok := ParsePairKey(pattern)
	if !ok {
		return false
	}
	if patType != strings.ToLower(string(actualType)) {
		return false
	}

	if actualA > actualB {
		actualA, actualB = actualB, actualA
	}

	if actualType == extract.UnitClass {
		return (matchesGlob(actualA, patA) && matchesGlob(actualB, patB)) ||
			(matchesGlob(actualA, patB) && matchesGlob(actualB, patA))
	}

	return (actualA == patA && actualB == patB) || (actualA == patB && actualB == patA)
}
