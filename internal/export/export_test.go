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

package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/polytune/polygen"
	"github.com/ajroetker/polytune/tune"
)

var rows = []tune.ExportRow{
	{Degree: 0, Cycles: []float64{1.5, 2}},
	{Degree: 10, Cycles: []float64{30.25, 41}},
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, rows))
	want := "0 1.500000 2.000000\n10 30.250000 41.000000\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "output.txt")
	require.NoError(t, WriteTableFile(path, rows))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0 1.500000 2.000000\n10 30.250000 41.000000\n", string(b))
}

func TestScript(t *testing.T) {
	s := Script("output.txt", "poly.png", []polygen.Config{{Split: 1, Unroll: 1}, {Split: 4, Unroll: 2}})
	assert.Contains(t, s, `set output "poly.png"`)
	assert.Contains(t, s, `plot "output.txt" using 1:2 with linespoints title "(1,1)"`)
	assert.Contains(t, s, `"output.txt" using 1:3 with linespoints title "(4,2)"`)
}

func TestWriteScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen", "plot.gp")
	cfgs := []polygen.Config{{Split: 2, Unroll: 3}}
	require.NoError(t, WriteScript(path, "output.txt", "poly.png", cfgs))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Script("output.txt", "poly.png", cfgs), string(b))
}

func TestPlotterMissingBinary(t *testing.T) {
	p := Plotter{Bin: filepath.Join(t.TempDir(), "no-gnuplot")}
	err := p.Run(context.Background(), "plot.gp")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlot)
}
