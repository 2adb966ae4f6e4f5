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

package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/polytune/polygen"
)

func manifest(t *testing.T, configs ...polygen.Config) *polygen.Manifest {
	t.Helper()
	m := polygen.NewManifest("poly")
	require.NoError(t, m.AppendAll(configs))
	return m
}

func fakeLookup(symbols map[string]plugin.Symbol) symbolLookup {
	return func(name string) (plugin.Symbol, error) {
		sym, ok := symbols[name]
		if !ok {
			return nil, errors.New("plugin: symbol " + name + " not found")
		}
		return sym, nil
	}
}

func constant(v float64) evaluatorFunc {
	return func([]float64, float64, int) float64 { return v }
}

func TestResolve(t *testing.T) {
	m := manifest(t, polygen.Config{Split: 1, Unroll: 1}, polygen.Config{Split: 2, Unroll: 4})
	fns := []evaluatorFunc{constant(1), constant(2)}
	shapes := [][2]int{{1, 1}, {2, 4}}

	evals, err := resolve(fakeLookup(map[string]plugin.Symbol{
		polygen.EvaluatorsSymbol: &fns,
		polygen.ShapesSymbol:     &shapes,
	}), m)
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, 1.0, evals[0](nil, 0, 0))
	assert.Equal(t, 2.0, evals[1](nil, 0, 0))
}

func TestResolveFailures(t *testing.T) {
	m := manifest(t, polygen.Config{Split: 1, Unroll: 1}, polygen.Config{Split: 2, Unroll: 4})
	fns := []evaluatorFunc{constant(1), constant(2)}
	short := []evaluatorFunc{constant(1)}
	shapes := [][2]int{{1, 1}, {2, 4}}
	swapped := [][2]int{{2, 4}, {1, 1}}
	wrongType := []int{1, 2}

	tests := []struct {
		name    string
		symbols map[string]plugin.Symbol
	}{
		{"missingEvaluators", map[string]plugin.Symbol{polygen.ShapesSymbol: &shapes}},
		{"missingShapes", map[string]plugin.Symbol{polygen.EvaluatorsSymbol: &fns}},
		{"wrongType", map[string]plugin.Symbol{polygen.EvaluatorsSymbol: &wrongType, polygen.ShapesSymbol: &shapes}},
		{"lengthMismatch", map[string]plugin.Symbol{polygen.EvaluatorsSymbol: &short, polygen.ShapesSymbol: &shapes}},
		{"orderMismatch", map[string]plugin.Symbol{polygen.EvaluatorsSymbol: &fns, polygen.ShapesSymbol: &swapped}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(fakeLookup(tt.symbols), m)
			assert.ErrorIs(t, err, polygen.ErrLoad)
		})
	}
}

func TestLanguageVersion(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"go1.26.1", "1.26", true},
		{"go1.26", "1.26", true},
		{"go1.27rc1", "1.27", true},
		{"devel go1.27-abcdef", "", false},
		{"go1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := languageVersion(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGoMod(t *testing.T) {
	mod := string(goMod("polytune.local/evaluators/rabc"))
	assert.True(t, strings.HasPrefix(mod, "module polytune.local/evaluators/rabc\n"))
}

func TestBuildFailureIsLoadError(t *testing.T) {
	work := t.TempDir()
	l := &PluginLoader{WorkDir: work, GoBin: "/nonexistent/go"}
	m := manifest(t, polygen.Config{Split: 1, Unroll: 1})
	m.Package = "evaluators"

	_, err := l.Load(context.Background(), m)
	assert.ErrorIs(t, err, polygen.ErrLoad)
	assert.Equal(t, "evaluators", m.Package, "loading must not change the caller's manifest")

	// A failed build keeps its sources for inspection.
	dirs, err := filepath.Glob(filepath.Join(work, "run-*", polygen.DefinitionsFile))
	require.NoError(t, err)
	assert.Len(t, dirs, 1)
}

// TestPluginRoundTrip builds a real plugin. The plugin must be built exactly
// like the test binary (same toolchain, no -race or -cover), so it only runs
// on request.
func TestPluginRoundTrip(t *testing.T) {
	if os.Getenv("POLYTUNE_PLUGIN_TEST") == "" {
		t.Skip("set POLYTUNE_PLUGIN_TEST=1 to build a real plugin")
	}
	configs, err := polygen.Grid(3, 3)
	require.NoError(t, err)
	m := manifest(t, configs...)

	work := t.TempDir()
	l := &PluginLoader{WorkDir: work}
	evals, err := l.Load(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, evals, m.Len())
	assert.Empty(t, m.Package, "loading must not change the caller's manifest")

	left, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, left, "the build directory is removed once the plugin is open")

	for _, degree := range []int{0, 1, 10, 99, 100} {
		a := make([]float64, degree+1)
		for i := range a {
			a[i] = float64(i)
		}
		want := float64(degree) / 2
		if degree%2 == 1 {
			want = -float64(degree+1) / 2
		}
		for i, eval := range evals {
			assert.Equal(t, want, eval(a, -1, degree), "%v at degree %d", configs[i], degree)
		}
	}
}
