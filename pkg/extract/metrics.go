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

package extract

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsExtract holds Prometheus metrics for the extraction subsystem.
type metricsExtract struct {
	once sync.Once

	filesScanned   prometheus.Counter
	filesSkipped   prometheus.Counter
	filesErrored   prometheus.Counter
	unitsEmitted   prometheus.Counter
	unitsSkipped   prometheus.Counter
	scanDuration   prometheus.Histogram
}

var extMetrics metricsExtract

func (m *metricsExtract) init() {
	m.once.Do(func() {
		m.filesScanned = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_extract_files_scanned_total", Help: "Source files scanned"})
		m.filesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_extract_files_skipped_total", Help: "Files skipped (unsupported or oversized)"})
		m.filesErrored = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_extract_files_errored_total", Help: "Files that failed to parse"})
		m.unitsEmitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_extract_units_emitted_total", Help: "IndexUnits emitted"})
		m.unitsSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "dry_extract_units_skipped_total", Help: "Units dropped by triviality/size filters"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.scanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "dry_extract_scan_seconds", Help: "Duration of a full repo scan", Buckets: buckets})

		prometheus.MustRegister(
			m.filesScanned, m.filesSkipped, m.filesErrored,
			m.unitsEmitted, m.unitsSkipped, m.scanDuration,
		)
	})
}

func recordFileScanned() { extMetrics.init(); extMetrics.filesScanned.Inc() }
func recordFileSkipped() { extMetrics.init(); extMetrics.filesSkipped.Inc() }
func recordFileErrored() { extMetrics.init(); extMetrics.filesErrored.Inc() }
func recordUnitsEmitted(n int) {
	extMetrics.init()
	extMetrics.unitsEmitted.Add(float64(n))
}
