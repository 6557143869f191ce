// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSpinner_DisabledReturnsNil(t *testing.T) {
	cfg := ProgressConfig{Enabled: false}
	require.Nil(t, NewSpinner(cfg, "working"))
}

func TestSpinWhile_NilBarRunsFnDirectly(t *testing.T) {
	called := false
	err := spinWhile(nil, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestSpinWhile_PropagatesFnError(t *testing.T) {
	sentinel := errors.New("boom")
	err := spinWhile(nil, func() error { return sentinel })
	require.ErrorIs(t, err, sentinel)
}
