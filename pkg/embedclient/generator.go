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
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/dryhq/dry/pkg/extract"
)

// maxFanOut bounds concurrent Embed calls against providers with no native
// batch endpoint, so a large repo never opens hundreds of simultaneous
// connections to a local Ollama server.
const maxFanOut = 8

// RetryConfig controls Generator's retry/backoff behavior.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig mirrors the teacher's embedding retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: 200 * time.Millisecond, MaxBackoff: 2 * time.Second, Multiplier: 2.0}
}

// Generator attaches embeddings to IndexUnits, using batching when the
// provider supports it and bounded fan-out otherwise, with retry on
// transient errors.
type Generator struct {
	provider EmbeddingProvider
	retry    RetryConfig
}

// NewGenerator returns a Generator wrapping provider with default retry
// settings.
func NewGenerator(provider EmbeddingProvider) *Generator {
	return &Generator{provider: provider, retry: DefaultRetryConfig()}
}

// WithRetryConfig returns a copy of the Generator using cfg for retries.
func (g *Generator) WithRetryConfig(cfg RetryConfig) *Generator {
	g2 := *g
	g2.retry = cfg
	return &g2
}

// Result summarizes one Embed call over a batch of units.
type Result struct {
	Units      []extract.IndexUnit
	ErrorCount int
}

// Embed attaches an Embedding to every unit in units that doesn't already
// carry one (skip-if-already-embedded). Units that fail every retry are
// returned unmodified and counted in Result.ErrorCount; Embed never returns
// a fatal error for individual embedding failures.
func (g *Generator) Embed(ctx context.Context, units []extract.IndexUnit) (*Result, error) {
	pending := make([]int, 0, len(units))
	for i, u := range units {
		if u.Embedding == nil {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return &Result{Units: units}, nil
	}

	out := make([]extract.IndexUnit, len(units))
	copy(out, units)

	texts := make([]string, len(pending))
	for i, idx := range pending {
		texts[i] = out[idx].Code
	}

	vecs, errCount, err := g.embedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	for i, idx := range pending {
		if vecs[i] != nil {
			out[idx].Embedding = vecs[i]
		}
	}

	recordEmbedBatch(len(pending), errCount)
	return &Result{Units: out, ErrorCount: errCount}, nil
}

// embedTexts embeds every text, preferring one BatchEmbed call and falling
// back to bounded-fan-out individual Embed calls when the provider doesn't
// support batching or the batch call itself fails.
func (g *Generator) embedTexts(ctx context.Context, texts []string) ([][]float32, int, error) {
	if len(texts) == 0 {
		return nil, 0, nil
	}

	if vecs, err := g.retryBatch(ctx, texts); err == nil {
		return vecs, 0, nil
	} else if !errors.Is(err, ErrBatchingUnsupported) {
		// Batch endpoint exists but failed even after retries: fall back to
		// per-text embedding rather than failing the whole run.
	}

	return g.embedFanOut(ctx, texts)
}

func (g *Generator) retryBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, g.retry, attempt); err != nil {
				return nil, err
			}
		}
		vecs, err := g.provider.BatchEmbed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		if errors.Is(err, ErrBatchingUnsupported) {
			return nil, err
		}
		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (g *Generator) embedFanOut(ctx context.Context, texts []string) ([][]float32, int, error) {
	out := make([][]float32, len(texts))
	errCount := 0

	sem := make(chan struct{}, maxFanOut)
	results := make(chan struct {
		idx int
		vec []float32
		err error
	}, len(texts))

	for i, text := range texts {
		sem <- struct{}{}
		go func(i int, text string) {
			defer func() { <-sem }()
			vec, err := g.retryOne(ctx, text)
			results <- struct {
				idx int
				vec []float32
				err error
			}{i, vec, err}
		}(i, text)
	}

	for range texts {
		r := <-results
		if r.err != nil {
			errCount++
			continue
		}
		out[r.idx] = r.vec
	}

	return out, errCount, nil
}

func (g *Generator) retryOne(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, g.retry, attempt); err != nil {
				return nil, err
			}
		}
		vec, err := g.provider.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func sleepBackoff(ctx context.Context, cfg RetryConfig, attempt int) error {
	d := backoffWithJitter(cfg, attempt)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffWithJitter returns exponential backoff with full jitter, capped at
// cfg.MaxBackoff.
func backoffWithJitter(cfg RetryConfig, attempt int) time.Duration {
	exp := float64(cfg.InitialBackoff)
	for i := 0; i < attempt; i++ {
		exp *= cfg.Multiplier
	}
	d := time.Duration(exp)
	if d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	if d <= 0 {
		return cfg.InitialBackoff
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}

// isRetryable classifies an embedding-provider error as transient based on
// message text, since provider-specific error types aren't exposed through
// the EmbeddingProvider interface.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"timeout", "temporarily unavailable", "connection refused", "connection reset", "deadline exceeded", "eof", " 429", " 500", " 502", " 503", " 504"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
