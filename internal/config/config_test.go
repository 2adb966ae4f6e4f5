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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 10000, c.Trials)
	assert.Equal(t, 1000, c.Sweep.MaxDegree)
	assert.Equal(t, 10, c.Sweep.Step)
	assert.Equal(t, 8, c.Grid.MaxSplit)
	assert.Equal(t, 8, c.Grid.MaxUnroll)
	assert.Equal(t, -1, c.Host.PinCPU)
	assert.True(t, c.Output.Plot)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polytune.yaml")
	content := `
trials: 2000
sweep:
  max_degree: 500
grid:
  max_split: 4
generator:
  loader: interp
host:
  pin_cpu: 2
output:
  metrics: metrics.prom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, 2000, c.Trials)
	assert.Equal(t, 500, c.Sweep.MaxDegree)
	assert.Equal(t, 10, c.Sweep.Step, "unset keys keep their default")
	assert.Equal(t, 4, c.Grid.MaxSplit)
	assert.Equal(t, 8, c.Grid.MaxUnroll)
	assert.Equal(t, LoaderInterp, c.Generator.Loader)
	assert.Equal(t, 2, c.Host.PinCPU)
	assert.Equal(t, "metrics.prom", c.Output.Metrics)
	assert.Equal(t, "output.txt", c.Output.Data)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trials: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"trials", func(c *Config) { c.Trials = 0 }},
		{"fallback", func(c *Config) { c.FallbackHz = -1 }},
		{"step", func(c *Config) { c.Sweep.Step = 0 }},
		{"grid", func(c *Config) { c.Grid.MaxUnroll = 0 }},
		{"loader", func(c *Config) { c.Generator.Loader = "dlopen" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
