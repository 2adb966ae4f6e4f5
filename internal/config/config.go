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

// Package config holds the polytune run configuration. Values come from the
// defaults below, then an optional YAML file, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ajroetker/polytune/bench"
	"github.com/ajroetker/polytune/polygen"
	"github.com/ajroetker/polytune/tune"
)

// Loader names.
const (
	LoaderPlugin = "plugin"
	LoaderInterp = "interp"
)

// DefaultFallbackHz is used when the maximum frequency cannot be read. At
// 1 GHz one cycle is one nanosecond.
const DefaultFallbackHz = 1e9

type Config struct {
	Trials     int           `yaml:"trials"`
	FallbackHz float64       `yaml:"fallback_hz"`
	Sweep      tune.Sweep    `yaml:"sweep"`
	Grid       tune.GridSpec `yaml:"grid"`

	Generator struct {
		Prefix  string `yaml:"prefix"`
		Loader  string `yaml:"loader"`
		WorkDir string `yaml:"work_dir"`
	} `yaml:"generator"`

	Host struct {
		PinCPU      int  `yaml:"pin_cpu"` // -1 disables pinning
		SetGovernor bool `yaml:"set_governor"`
	} `yaml:"host"`

	Output struct {
		Data    string `yaml:"data"`
		Script  string `yaml:"script"`
		Image   string `yaml:"image"`
		Metrics string `yaml:"metrics"`
		Plot    bool   `yaml:"plot"` // Run gnuplot after exporting
	} `yaml:"output"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Trials = bench.DefaultTrials
	c.FallbackHz = DefaultFallbackHz
	c.Sweep = tune.DefaultSweep()
	c.Grid = tune.DefaultGrid()
	c.Generator.Prefix = polygen.DefaultPrefix
	c.Generator.Loader = LoaderPlugin
	c.Generator.WorkDir = "dynamic_gen"
	c.Host.PinCPU = -1
	c.Output.Data = "output.txt"
	c.Output.Script = "dynamic_gen/plot.gp"
	c.Output.Image = "poly.png"
	c.Output.Plot = true
	return c
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration before anything runs.
func (c Config) Validate() error {
	var errs []error
	if c.Trials < 1 {
		errs = append(errs, fmt.Errorf("trials must be positive, got %d", c.Trials))
	}
	if c.FallbackHz <= 0 {
		errs = append(errs, fmt.Errorf("fallback_hz must be positive, got %v", c.FallbackHz))
	}
	if err := c.Sweep.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sweep: %w", err))
	}
	if c.Grid.MaxSplit < 1 || c.Grid.MaxUnroll < 1 {
		errs = append(errs, fmt.Errorf("grid bounds must be positive, got %dx%d", c.Grid.MaxSplit, c.Grid.MaxUnroll))
	}
	switch c.Generator.Loader {
	case LoaderPlugin, LoaderInterp:
	default:
		errs = append(errs, fmt.Errorf("unknown loader %q (want %s or %s)", c.Generator.Loader, LoaderPlugin, LoaderInterp))
	}
	return errors.Join(errs...)
}
