// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package contract provides validation constants and utilities shared by
// the extraction driver.
//
// This internal package enforces a soft limit on the size of any single
// source file the driver will read and parse, to keep one oversized
// generated or vendored file from dominating scan time or memory.
//
// # File Size Limits
//
//	// Default limit is 4 MiB
//	limit := contract.SoftLimitBytes()
//
//	// Validate a file's size before reading its content
//	result := contract.ValidateFileSize(size)
//	if !result.OK {
//	    log.Printf("Skipping oversized file: %s", result.Message)
//	}
//
// # Configuration via Environment
//
// The soft limit can be adjusted via the DRY_MAX_FILE_SIZE_BYTES
// environment variable:
//
//	export DRY_MAX_FILE_SIZE_BYTES=8388608  # 8 MiB
//
// If the environment variable is not set or invalid, the default limit
// of 4 MiB (DefaultSoftLimitBytes) is used.
package contract
