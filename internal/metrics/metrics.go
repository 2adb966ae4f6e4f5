// Copyright 2025 go-highway Authors
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

// Package metrics records tuning results as Prometheus gauges. A run writes
// them once as a node-exporter textfile; nothing is served.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajroetker/polytune/tune"
)

const namespace = "polytune"

// Metrics holds the gauges of one run on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	// CPE is the score of each configuration. Labels: split, unroll.
	CPE *prometheus.GaugeVec

	// BestCPE is the lowest score seen so far.
	BestCPE prometheus.Gauge

	// FreqHz is the frequency used to convert seconds to cycles.
	FreqHz prometheus.Gauge

	best tune.Best
}

// New registers the gauges on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		CPE: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpe",
			Help:      "Cycles per element of each evaluator configuration.",
		}, []string{"split", "unroll"}),
		BestCPE: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_cpe",
			Help:      "Lowest cycles per element observed in the run.",
		}),
		FreqHz: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_freq_hz",
			Help:      "CPU frequency used to convert time to cycles.",
		}),
	}
}

// Registry returns the registry the gauges live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Observe records s and updates the best gauge. It fits tune.Tuner.OnScore.
func (m *Metrics) Observe(s tune.Score) {
	m.CPE.WithLabelValues(strconv.Itoa(s.Config.Split), strconv.Itoa(s.Config.Unroll)).Set(s.CPE)
	if m.best.Observe(s) {
		m.BestCPE.Set(s.CPE)
	}
}

// WriteFile writes every gauge to path in the text exposition format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
