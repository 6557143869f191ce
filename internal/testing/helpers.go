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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// WriteRepoFiles materializes files (relative path -> content) under a
// fresh t.TempDir() and returns the repo root. Intended for driver/
// orchestrator tests that need a small file tree to scan.
//
// Example:
//
//	root := testing.WriteRepoFiles(t, map[string]string{
//	    "Sample.java": sampleClass,
//	    "vendor/Vendored.java": sampleClass,
//	})
func WriteRepoFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

// ollamaEmbedRequest mirrors pkg/embedclient's wire request shape, kept as
// a private duplicate here so this package never imports pkg/embedclient.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// FakeEmbeddingServer is an httptest.Server that speaks the Ollama
// /api/embed wire format pkg/embedclient.OllamaProvider expects, returning
// a deterministic fixed-size vector per input string.
type FakeEmbeddingServer struct {
	*httptest.Server
	Dim         int
	RequestDump atomic.Int32
}

// NewFakeEmbeddingServer starts a FakeEmbeddingServer returning dim-sized
// vectors. The server is closed automatically when the test finishes.
func NewFakeEmbeddingServer(t *testing.T, dim int) *FakeEmbeddingServer {
	t.Helper()

	fake := &FakeEmbeddingServer{Dim: dim}
	fake.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.RequestDump.Add(1)

		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}

		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := ollamaEmbedResponse{Embeddings: make([][]float64, len(req.Input))}
		for i, text := range req.Input {
			resp.Embeddings[i] = fakeVector(text, dim)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(fake.Server.Close)
	return fake
}

// fakeVector derives a deterministic, non-zero vector from text so
// identical inputs embed identically without calling a real model.
func fakeVector(text string, dim int) []float64 {
	v := make([]float64, dim)
	for i := range v {
		v[i] = float64((int(hashByte(text, i)) % 100)) / 100.0
	}
	return v
}

func hashByte(text string, salt int) byte {
	var h byte = byte(salt)
	for i := 0; i < len(text); i++ {
		h = h*31 + text[i]
	}
	return h
}
