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

package testing

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRepoFiles_CreatesNestedTree(t *testing.T) {
	root := WriteRepoFiles(t, map[string]string{
		"Sample.java":           "class Sample {}",
		"vendor/Vendored.java": "class Vendored {}",
	})

	data, err := os.ReadFile(filepath.Join(root, "Sample.java"))
	require.NoError(t, err)
	require.Equal(t, "class Sample {}", string(data))

	data, err = os.ReadFile(filepath.Join(root, "vendor", "Vendored.java"))
	require.NoError(t, err)
	require.Equal(t, "class Vendored {}", string(data))
}

func TestNewFakeEmbeddingServer_ReturnsDeterministicVectors(t *testing.T) {
	server := NewFakeEmbeddingServer(t, 8)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL+"/api/embed",
		strings.NewReader(`{"model":"test","input":["a","b","a"]}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.Len(t, parsed.Embeddings, 3)
	require.Len(t, parsed.Embeddings[0], 8)
	require.Equal(t, parsed.Embeddings[0], parsed.Embeddings[2], "identical input text embeds identically")
	require.NotEqual(t, parsed.Embeddings[0], parsed.Embeddings[1])
	require.Equal(t, int32(1), server.RequestDump.Load())
}

func TestNewFakeEmbeddingServer_UnknownPathIs404(t *testing.T) {
	server := NewFakeEmbeddingServer(t, 4)

	resp, err := http.Get(server.URL + "/not-a-real-path")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
