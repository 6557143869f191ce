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
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsEmbed struct {
	once sync.Once

	unitsEmbedded prometheus.Counter
	unitsFailed   prometheus.Counter
}

var embedMetrics metricsEmbed

func (m *metricsEmbed) init() {
	m.once.Do(func() {
		m.unitsEmbedded = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_embed_units_embedded_total", Help: "Units successfully embedded"})
		m.unitsFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_embed_units_failed_total", Help: "Units that failed embedding after retries"})
		prometheus.MustRegister(m.unitsEmbedded, m.unitsFailed)
	})
}

func recordEmbedBatch(attempted, errCount int) {
	embedMetrics.init()
	embedMetrics.unitsEmbedded.Add(float64(attempted - errCount))
	embedMetrics.unitsFailed.Add(float64(errCount))
}
