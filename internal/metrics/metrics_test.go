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

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/polytune/polygen"
	"github.com/ajroetker/polytune/tune"
)

func TestObserve(t *testing.T) {
	m := New()
	m.Observe(tune.Score{Config: polygen.Config{Split: 1, Unroll: 1}, CPE: 4})
	m.Observe(tune.Score{Config: polygen.Config{Split: 2, Unroll: 4}, CPE: 1.5})
	m.Observe(tune.Score{Config: polygen.Config{Split: 8, Unroll: 8}, CPE: 3})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.CPE.WithLabelValues("1", "1")))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.CPE.WithLabelValues("2", "4")))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.BestCPE), "a worse score must not replace the best")
	assert.Equal(t, 3, testutil.CollectAndCount(m.CPE))
}

func TestExposition(t *testing.T) {
	m := New()
	m.FreqHz.Set(2e9)
	m.Observe(tune.Score{Config: polygen.Config{Split: 3, Unroll: 2}, CPE: 2.25})

	want := `
# HELP polytune_best_cpe Lowest cycles per element observed in the run.
# TYPE polytune_best_cpe gauge
polytune_best_cpe 2.25
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "polytune_best_cpe"))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.FreqHz.Set(3e9)
	m.Observe(tune.Score{Config: polygen.Config{Split: 1, Unroll: 2}, CPE: 7})

	path := filepath.Join(t.TempDir(), "polytune.prom")
	require.NoError(t, m.WriteFile(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `polytune_cpe{split="1",unroll="2"} 7`)
	assert.Contains(t, out, "polytune_cpu_freq_hz 3e+09")
}
