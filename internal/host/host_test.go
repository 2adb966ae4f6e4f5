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

package host

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreqOrFallback(t *testing.T) {
	tests := []struct {
		name         string
		read         func() (float64, error)
		want         float64
		wantFallback bool
	}{
		{"reading", func() (float64, error) { return 3.6e9, nil }, 3.6e9, false},
		{"error", func() (float64, error) { return 0, ErrFreqUnavailable }, 2e9, true},
		{"zero", func() (float64, error) { return 0, nil }, 2e9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			log := slog.New(slog.NewTextHandler(&logs, nil))
			got, fellBack := FreqOrFallback(tt.read, 2e9, log)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFallback, fellBack)
			if tt.wantFallback {
				assert.Contains(t, logs.String(), "level=WARN")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestMaxFreqHzMissingSysfs(t *testing.T) {
	p := Probe{SysRoot: filepath.Join(t.TempDir(), "nope")}
	_, err := p.MaxFreqHz()
	assert.True(t, errors.Is(err, ErrFreqUnavailable), "got %v", err)
}

func TestDetectFallsBack(t *testing.T) {
	dir := t.TempDir()
	p := Probe{SysRoot: filepath.Join(dir, "sys"), ProcRoot: filepath.Join(dir, "proc")}
	info := p.Detect(1.5e9, nil)
	assert.Equal(t, 1.5e9, info.FreqHz)
	assert.True(t, info.Fallback)
	assert.Equal(t, runtime.GOARCH+" CPU", info.Model)
	assert.Equal(t, runtime.NumCPU(), info.NumCPU)
}

func TestFeatures(t *testing.T) {
	feats := Features()
	if runtime.GOARCH == "amd64" {
		assert.Contains(t, feats, "sse2")
	}
}

func fakeGovernorTree(t *testing.T, govs ...string) string {
	t.Helper()
	root := t.TempDir()
	for i, gov := range govs {
		dir := filepath.Join(root, "devices/system/cpu", "cpu"+string(rune('0'+i)), "cpufreq")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "scaling_governor"), []byte(gov+"\n"), 0644))
	}
	return root
}

func TestGovernorSetAndRestore(t *testing.T) {
	root := fakeGovernorTree(t, "powersave", "schedutil")
	g := Governor{SysRoot: root}

	restore, err := g.Set(PerformanceGovernor)
	require.NoError(t, err)
	current, err := g.Current()
	require.NoError(t, err)
	require.Len(t, current, 2)
	for _, gov := range current {
		assert.Equal(t, PerformanceGovernor, gov)
	}

	require.NoError(t, restore())
	current, err = g.Current()
	require.NoError(t, err)
	assert.Equal(t, "powersave", current[filepath.Join(root, "devices/system/cpu/cpu0/cpufreq/scaling_governor")])
	assert.Equal(t, "schedutil", current[filepath.Join(root, "devices/system/cpu/cpu1/cpufreq/scaling_governor")])
}

func TestGovernorMissing(t *testing.T) {
	_, err := Governor{SysRoot: t.TempDir()}.Set(PerformanceGovernor)
	assert.Error(t, err)
}
