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

package embedclient

import "context"

// MockProvider generates deterministic embeddings from a text hash, with no
// network calls. Used by tests and by the "mock" embeddingSource config value.
type MockProvider struct {
	Dimension int
}

// NewMockProvider returns a MockProvider producing vectors of the given
// dimension (384 if dimension <= 0, a common small embedding size).
func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 384
	}
	return &MockProvider{Dimension: dimension}
}

func (m *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	hash := fnv64a(text)
	v := make([]float32, m.Dimension)
	for i := range v {
		val := float32((hash+uint64(i)*7919)%10000) / 10000.0
		v[i] = val*2 - 1
	}
	return normalize(v), nil
}

func (m *MockProvider) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func fnv64a(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	var h uint64 = offset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}
