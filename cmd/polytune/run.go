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
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ajroetker/polytune/bench"
	"github.com/ajroetker/polytune/internal/config"
	"github.com/ajroetker/polytune/internal/export"
	"github.com/ajroetker/polytune/internal/host"
	"github.com/ajroetker/polytune/internal/metrics"
	"github.com/ajroetker/polytune/internal/toolchain"
	"github.com/ajroetker/polytune/polygen"
	"github.com/ajroetker/polytune/tune"
)

// run is one invocation: its configuration, the host it measures on and the
// tuner wired to both.
type run struct {
	cfg     config.Config
	log     *slog.Logger
	out     io.Writer
	host    host.Info
	metrics *metrics.Metrics
	tuner   *tune.Tuner
	cleanup []func()
}

func newLogger(w io.Writer, level string, json bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if json {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func start(cmd *cobra.Command, o *options) (*run, error) {
	cfg, err := o.load(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd.ErrOrStderr(), o.logLevel, o.logJSON)
	if err != nil {
		return nil, err
	}
	log = log.With("run_id", uuid.NewString())

	r := &run{cfg: cfg, log: log, out: cmd.OutOrStdout(), metrics: metrics.New()}
	r.host = host.Probe{}.Detect(cfg.FallbackHz, log)
	fmt.Fprintf(r.out, "CPU model: %s\n", r.host.Model)
	fmt.Fprintf(r.out, "Freq = %.0f Hz\n", r.host.FreqHz)
	log.Debug("host detected", "cpus", r.host.NumCPU, "features", strings.Join(r.host.Features, ","), "fallback_freq", r.host.Fallback)

	if cfg.Host.SetGovernor {
		restore, err := host.Governor{}.Set(host.PerformanceGovernor)
		if err != nil {
			log.Warn("could not set cpu governor", "governor", host.PerformanceGovernor, "error", err)
		} else {
			r.cleanup = append(r.cleanup, func() {
				if err := restore(); err != nil {
					log.Warn("could not restore cpu governor", "error", err)
				}
			})
		}
	}
	if cfg.Host.PinCPU >= 0 {
		unpin, err := host.PinThread(cfg.Host.PinCPU)
		if err != nil {
			log.Warn("could not pin benchmark thread", "cpu", cfg.Host.PinCPU, "error", err)
		} else {
			r.cleanup = append(r.cleanup, func() {
				if err := unpin(); err != nil {
					log.Warn("could not restore thread affinity", "error", err)
				}
			})
		}
	}

	var loader tune.Loader
	switch cfg.Generator.Loader {
	case config.LoaderInterp:
		log.Warn("evaluators are interpreted; timings do not reflect compiled code")
		loader = tune.InterpLoader{}
	default:
		loader = &toolchain.PluginLoader{WorkDir: cfg.Generator.WorkDir, Logger: log}
	}

	r.metrics.FreqHz.Set(r.host.FreqHz)
	r.tuner = &tune.Tuner{
		Loader: loader,
		Engine: bench.New(r.host.FreqHz, cfg.Trials),
		Sweep:  cfg.Sweep,
		Prefix: cfg.Generator.Prefix,
		Logger: log,
		OnScore: func(s tune.Score) {
			r.metrics.Observe(s)
			fmt.Fprintf(r.out, "Split = %d, Unroll = %d, CPE = %f\n", s.Config.Split, s.Config.Unroll, s.CPE)
		},
	}
	return r, nil
}

// close writes the metrics file and undoes host changes in reverse order.
func (r *run) close() {
	if path := r.cfg.Output.Metrics; path != "" {
		if err := r.metrics.WriteFile(path); err != nil {
			r.log.Warn("could not write metrics", "path", path, "error", err)
		} else {
			r.log.Info("wrote metrics", "path", path)
		}
	}
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		r.cleanup[i]()
	}
}

func (r *run) printBest(rep tune.Report) {
	fmt.Fprintf(r.out, "Best split & unroll: %s\n", rep.Best.Config)
	fmt.Fprintf(r.out, "Lowest CPE = %f\n", rep.Best.CPE)
}

func runGrid(cmd *cobra.Command, o *options) error {
	r, err := start(cmd, o)
	if err != nil {
		return err
	}
	defer r.close()

	rep, err := r.tuner.Grid(cmd.Context(), r.cfg.Grid)
	if err != nil {
		return err
	}
	r.printBest(rep)
	return nil
}

func runCompare(cmd *cobra.Command, o *options, configs []polygen.Config) error {
	r, err := start(cmd, o)
	if err != nil {
		return err
	}
	defer r.close()

	rep, err := r.tuner.Compare(cmd.Context(), configs)
	if err != nil {
		return err
	}
	r.printBest(rep)
	return nil
}

func runPlot(cmd *cobra.Command, o *options, configs []polygen.Config) error {
	r, err := start(cmd, o)
	if err != nil {
		return err
	}
	defer r.close()

	rows, err := r.tuner.Export(cmd.Context(), configs)
	if err != nil {
		return err
	}
	out := r.cfg.Output
	if err := export.WriteTableFile(out.Data, rows); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	fmt.Fprintf(r.out, "Wrote %d degrees x %d candidates to %s\n", len(rows), len(configs), out.Data)

	if err := export.WriteScript(out.Script, out.Data, out.Image, configs); err != nil {
		return fmt.Errorf("write plot script: %w", err)
	}
	if !out.Plot {
		return nil
	}
	if err := (export.Plotter{}).Run(cmd.Context(), out.Script); err != nil {
		return fmt.Errorf("%w (table kept at %s)", err, out.Data)
	}
	fmt.Fprintf(r.out, "Plotted %s\n", out.Image)
	return nil
}
