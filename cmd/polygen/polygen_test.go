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

package main

import (
	"go/parser"
	"go/token"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/polytune/polygen"
)

func TestParseGrid(t *testing.T) {
	tests := []struct {
		in       string
		s, u     int
		wantFail bool
	}{
		{in: "8x8", s: 8, u: 8},
		{in: "2X3", s: 2, u: 3},
		{in: " 4x1 ", s: 4, u: 1},
		{in: "8", wantFail: true},
		{in: "ax2", wantFail: true},
		{in: "2xb", wantFail: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, u, err := parseGrid(tt.in)
			if tt.wantFail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.s, s)
			assert.Equal(t, tt.u, u)
		})
	}
}

func TestShapesFromFlags(t *testing.T) {
	got, err := shapesFromFlags("2x2", "")
	require.NoError(t, err)
	want := []polygen.Config{{Split: 1, Unroll: 1}, {Split: 1, Unroll: 2}, {Split: 2, Unroll: 1}, {Split: 2, Unroll: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("grid shapes mismatch (-want +got):\n%s", diff)
	}

	got, err = shapesFromFlags("8x8", "3,1,1,4 5,5")
	require.NoError(t, err)
	want = []polygen.Config{{Split: 3, Unroll: 1}, {Split: 1, Unroll: 4}, {Split: 5, Unroll: 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("explicit shapes mismatch (-want +got):\n%s", diff)
	}

	_, err = shapesFromFlags("0x8", "")
	assert.ErrorIs(t, err, polygen.ErrInvalidConfig)
}

func TestGeneratorRun(t *testing.T) {
	dir := t.TempDir()
	g := &Generator{
		OutputDir: dir,
		Package:   "evaluators",
		Prefix:    "horner",
		Configs:   []polygen.Config{{Split: 1, Unroll: 1}, {Split: 3, Unroll: 2}},
	}
	a, err := g.Run()
	require.NoError(t, err)

	fset := token.NewFileSet()
	for _, path := range []string{a.Declarations, a.Definitions} {
		src, err := os.ReadFile(path)
		require.NoError(t, err)
		f, err := parser.ParseFile(fset, path, src, 0)
		require.NoError(t, err)
		assert.Equal(t, "evaluators", f.Name.Name)
	}

	defs, err := os.ReadFile(a.Definitions)
	require.NoError(t, err)
	eval, err := polygen.Interpret(string(defs), "Horner1")
	require.NoError(t, err)
	a3 := []float64{0, 1, 2, 3}
	assert.Equal(t, -2.0, eval(a3, -1, 3))
}

func TestGeneratorRunErrors(t *testing.T) {
	_, err := (&Generator{OutputDir: t.TempDir()}).Run()
	assert.Error(t, err)

	_, err = (&Generator{OutputDir: t.TempDir(), Package: "not a pkg", Configs: []polygen.Config{{Split: 1, Unroll: 1}}}).Run()
	assert.Error(t, err)
}
