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

// Package embedclient generates dense vectors for extracted code units: a
// small EmbeddingProvider interface with mock/Ollama/OpenAI implementations,
// and a Generator that adds batching, bounded fan-out, and retry on top of
// whichever provider is configured.
package embedclient

import (
	"context"
	"math"
)

// EmbeddingProvider generates a single embedding vector for a piece of text.
// Implementations return an L2-normalized vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed embeds many texts in one call when the underlying API
	// supports array input. Implementations that don't support batching
	// return ErrBatchingUnsupported so callers fall back to bounded fan-out.
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrBatchingUnsupported signals that a provider has no native batch
// endpoint; the caller should embed texts individually instead.
var ErrBatchingUnsupported = errBatchingUnsupported{}

type errBatchingUnsupported struct{}

func (errBatchingUnsupported) Error() string { return "embedclient: provider does not support batching" }

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, f := range v {
		sumSq += float64(f) * float64(f)
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}
