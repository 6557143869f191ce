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

// Package testing provides shared fixture helpers for this module's tests.
//
// # Quick Start
//
// WriteRepoFiles materializes a small file tree under a fresh temp dir, for
// extraction-driver and orchestrator tests:
//
//	root := testing.WriteRepoFiles(t, map[string]string{
//	    "Sample.java": sampleClass,
//	})
//
// NewFakeEmbeddingServer starts an httptest.Server speaking the same
// /api/embed wire format pkg/embedclient.OllamaProvider targets, for tests
// that exercise the real HTTP provider instead of the in-process mock:
//
//	server := testing.NewFakeEmbeddingServer(t, 8)
//	provider := embedclient.NewOllamaProvider(server.URL, "test-model")
package testing
