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

import (
	"fmt"
	"os"
	"strings"
)

// New builds the EmbeddingProvider for a dryconfig.json embeddingSource
// value. "mock" and "" build a deterministic MockProvider; an http(s) URL
// is treated as an Ollama-compatible endpoint unless OPENAI_API_KEY is set,
// in which case it's treated as an OpenAI-compatible endpoint.
func New(source, model string) (EmbeddingProvider, error) {
	switch {
	case source == "" || source == "mock":
		return NewMockProvider(0), nil

	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
			return NewOpenAIProvider(apiKey, strings.TrimSuffix(source, "/"), model), nil
		}
		return NewOllamaProvider(strings.TrimSuffix(source, "/"), model), nil

	default:
		return nil, fmt.Errorf("embedclient: unrecognized embeddingSource %q", source)
	}
}
