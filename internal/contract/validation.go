// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultSoftLimitBytes is the baseline soft limit on a single source
// file's size during extraction.
const DefaultSoftLimitBytes = 4 << 20 // 4 MiB

// SoftLimitBytes returns the effective per-file soft limit. Controlled via
// env DRY_MAX_FILE_SIZE_BYTES; falls back to DefaultSoftLimitBytes.
func SoftLimitBytes() int64 {
	if v := os.Getenv("DRY_MAX_FILE_SIZE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateFileSize checks a candidate source file's size against the
// configured soft limit, so the extraction driver can skip oversized
// generated or vendored files instead of parsing them.
func ValidateFileSize(size int64) *ValidationResult {
	limit := SoftLimitBytes()
	if size > limit {
		return &ValidationResult{
			OK:      false,
			Message: fmt.Sprintf("file size %d exceeds soft limit %d", size, limit),
		}
	}
	return &ValidationResult{OK: true}
}
