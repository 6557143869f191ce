// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package embedclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	dtesting "github.com/dryhq/dry/internal/testing"
)

func TestOllamaProvider_EmbedAgainstFakeServer(t *testing.T) {
	server := dtesting.NewFakeEmbeddingServer(t, 8)
	provider := NewOllamaProvider(server.URL, "test-model")

	v1, err := provider.Embed(context.Background(), "int sum(int a, int b) { return a+b; }")
	require.NoError(t, err)
	require.Len(t, v1, 8)

	v2, err := provider.Embed(context.Background(), "int sum(int a, int b) { return a+b; }")
	require.NoError(t, err)
	require.Equal(t, v1, v2)
}

func TestOllamaProvider_BatchEmbedAgainstFakeServer(t *testing.T) {
	server := dtesting.NewFakeEmbeddingServer(t, 4)
	provider := NewOllamaProvider(server.URL, "test-model")

	vecs, err := provider.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	for _, v := range vecs {
		require.Len(t, v, 4)
	}
}
