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
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ajroetker/polytune/internal/config"
	"github.com/ajroetker/polytune/polygen"
)

const longHelp = `polytune generates polynomial evaluators with different numbers of
partial sums (split) and unrolled terms per partial sum (unroll), compiles
them, and measures cycles per element (CPE) on this machine.

Modes:
  (no arguments), grid   run every split,unroll shape of the grid and
                         show the best CPE found on the system
  compare <s,u>...       evaluate the CPE of each listed shape (at least 2)
                         and report the best one
  plot <s,u>...          write cycles per degree of each listed shape to a
                         table and plot it with gnuplot
  help                   show this help message

Sample:
  polytune compare 1,1 2,2 3,3`

// errUsage marks malformed command lines. The usage text has already been
// printed when it is returned.
var errUsage = errors.New("invalid arguments")

// options holds flag values. Flags only override the configuration file
// when they are set on the command line.
type options struct {
	configPath string
	logLevel   string
	logJSON    bool

	trials      int
	maxDegree   int
	degreeStep  int
	fallbackHz  float64
	loader      string
	workDir     string
	prefix      string
	pinCPU      int
	setGovernor bool
	metricsFile string

	maxSplit  int
	maxUnroll int

	data    string
	script  string
	image   string
	gnuplot bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	defaults := config.Default()

	root := &cobra.Command{
		Use:           "polytune",
		Short:         "Autotune split and unroll factors of polynomial evaluation",
		Long:          longHelp,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGrid(cmd, opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.BoolVar(&opts.logJSON, "log-json", false, "log as JSON instead of text")
	pf.IntVar(&opts.trials, "trials", defaults.Trials, "timed calls per degree")
	pf.IntVar(&opts.maxDegree, "max-degree", defaults.Sweep.MaxDegree, "exclusive upper bound of the degree sweep")
	pf.IntVar(&opts.degreeStep, "degree-step", defaults.Sweep.Step, "distance between swept degrees")
	pf.Float64Var(&opts.fallbackHz, "fallback-hz", defaults.FallbackHz, "CPU frequency to assume when it cannot be read")
	pf.StringVar(&opts.loader, "loader", defaults.Generator.Loader, "how evaluators are loaded (plugin, interp)")
	pf.StringVar(&opts.workDir, "work-dir", defaults.Generator.WorkDir, "directory for generated sources and plugins")
	pf.StringVar(&opts.prefix, "prefix", defaults.Generator.Prefix, "evaluator function name prefix")
	pf.IntVar(&opts.pinCPU, "pin-cpu", defaults.Host.PinCPU, "pin the benchmark thread to this CPU (-1 disables)")
	pf.BoolVar(&opts.setGovernor, "set-governor", defaults.Host.SetGovernor, "switch to the performance governor for the run")
	pf.StringVar(&opts.metricsFile, "metrics-file", defaults.Output.Metrics, "write Prometheus gauges to this textfile")

	grid := &cobra.Command{
		Use:     "grid",
		Aliases: []string{"default"},
		Short:   "Score every shape of the split x unroll grid",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGrid(cmd, opts)
		},
	}
	for _, c := range []*cobra.Command{root, grid} {
		c.Flags().IntVar(&opts.maxSplit, "max-split", defaults.Grid.MaxSplit, "largest split of the grid")
		c.Flags().IntVar(&opts.maxUnroll, "max-unroll", defaults.Grid.MaxUnroll, "largest unroll of the grid")
	}

	var compareConfigs, plotConfigs []polygen.Config
	compare := &cobra.Command{
		Use:     "compare <split,unroll>...",
		Short:   "Score the listed shapes and report the best",
		Example: "  polytune compare 1,1 2,2 3,3",
		Args:    candidateArgs(2, &compareConfigs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, opts, compareConfigs)
		},
	}

	plot := &cobra.Command{
		Use:     "plot <split,unroll>...",
		Short:   "Export cycles per degree of the listed shapes and plot them",
		Example: "  polytune plot 1,1 4,2",
		Args:    candidateArgs(1, &plotConfigs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlot(cmd, opts, plotConfigs)
		},
	}
	plot.Flags().StringVar(&opts.data, "output", defaults.Output.Data, "data table path")
	plot.Flags().StringVar(&opts.script, "script", defaults.Output.Script, "gnuplot script path")
	plot.Flags().StringVar(&opts.image, "image", defaults.Output.Image, "plot image path")
	plot.Flags().BoolVar(&opts.gnuplot, "gnuplot", defaults.Output.Plot, "run gnuplot on the exported table")

	root.AddCommand(grid, compare, plot)
	return root
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	return usageError(cmd, fmt.Errorf("unexpected argument %q", args[0]))
}

// candidateArgs parses split,unroll candidates into dst and requires at
// least n of them.
func candidateArgs(n int, dst *[]polygen.Config) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		configs, err := polygen.ParseConfigs(args)
		if err != nil {
			return usageError(cmd, err)
		}
		if len(configs) < n {
			return usageError(cmd, fmt.Errorf("%s needs at least %d candidates, got %d", cmd.Name(), n, len(configs)))
		}
		*dst = configs
		return nil
	}
}

// usageError prints err and the usage text of cmd to stderr, keeping stdout
// for results.
func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "%v\n\n%s", err, cmd.UsageString())
	return fmt.Errorf("%w: %w", errUsage, err)
}

// load builds the run configuration: defaults, then the file, then flags
// set on the command line.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return cfg, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("trials") {
		cfg.Trials = o.trials
	}
	if changed("max-degree") {
		cfg.Sweep.MaxDegree = o.maxDegree
	}
	if changed("degree-step") {
		cfg.Sweep.Step = o.degreeStep
	}
	if changed("fallback-hz") {
		cfg.FallbackHz = o.fallbackHz
	}
	if changed("loader") {
		cfg.Generator.Loader = o.loader
	}
	if changed("work-dir") {
		cfg.Generator.WorkDir = o.workDir
	}
	if changed("prefix") {
		cfg.Generator.Prefix = o.prefix
	}
	if changed("pin-cpu") {
		cfg.Host.PinCPU = o.pinCPU
	}
	if changed("set-governor") {
		cfg.Host.SetGovernor = o.setGovernor
	}
	if changed("metrics-file") {
		cfg.Output.Metrics = o.metricsFile
	}
	if changed("max-split") {
		cfg.Grid.MaxSplit = o.maxSplit
	}
	if changed("max-unroll") {
		cfg.Grid.MaxUnroll = o.maxUnroll
	}
	if changed("output") {
		cfg.Output.Data = o.data
	}
	if changed("script") {
		cfg.Output.Script = o.script
	}
	if changed("image") {
		cfg.Output.Image = o.image
	}
	if changed("gnuplot") {
		cfg.Output.Plot = o.gnuplot
	}
	return cfg, cfg.Validate()
}
