// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateFileSize_WithinLimit(t *testing.T) {
	result := ValidateFileSize(1024)
	require.True(t, result.OK)
	require.Empty(t, result.Message)
}

func TestValidateFileSize_ExceedsLimit(t *testing.T) {
	result := ValidateFileSize(DefaultSoftLimitBytes + 1)
	require.False(t, result.OK)
	require.NotEmpty(t, result.Message)
}

func TestSoftLimitBytes_EnvOverride(t *testing.T) {
	t.Setenv("DRY_MAX_FILE_SIZE_BYTES", "2048")
	require.EqualValues(t, 2048, SoftLimitBytes())
}

func TestSoftLimitBytes_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("DRY_MAX_FILE_SIZE_BYTES", "not-a-number")
	require.EqualValues(t, DefaultSoftLimitBytes, SoftLimitBytes())
}
