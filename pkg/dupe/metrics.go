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

package dupe

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsDupe holds Prometheus metrics for the duplication-detection
// subsystem.
type metricsDupe struct {
	once sync.Once

	pairsCompared  prometheus.Counter
	groupsFound    prometheus.Counter
	pairsExcluded  prometheus.Counter
	detectDuration prometheus.Histogram
}

var dupeMetrics metricsDupe

func (m *metricsDupe) init() {
	m.once.Do(func() {
		m.pairsCompared = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_dupe_pairs_compared_total", Help: "Unit pairs evaluated for similarity"})
		m.groupsFound = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_dupe_groups_found_total", Help: "Duplicate groups reported"})
		m.pairsExcluded = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_dupe_pairs_excluded_total", Help: "Pairs above threshold but excluded by configuration"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.detectDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "dry_dupe_detect_seconds", Help: "Duration of a full detect run across all buckets", Buckets: buckets})

		prometheus.MustRegister(
			m.pairsCompared, m.groupsFound, m.pairsExcluded, m.detectDuration,
		)
	})
}

func recordPairCompared() { dupeMetrics.init(); dupeMetrics.pairsCompared.Inc() }
func recordPairExcluded() { dupeMetrics.init(); dupeMetrics.pairsExcluded.Inc() }
func recordGroupsFound(n int) {
	dupeMetrics.init()
	dupeMetrics.groupsFound.Add(float64(n))
}
func recordDetectDuration(seconds float64) {
	dupeMetrics.init()
	dupeMetrics.detectDuration.Observe(seconds)
}
