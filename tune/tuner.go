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

package tune

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/ajroetker/polytune/polygen"
)

// ErrCandidates is returned when a candidate list is too short for the mode.
var ErrCandidates = errors.New("not enough candidates")

// Loader turns a manifest into callables, one per descriptor and in
// manifest order.
type Loader interface {
	Load(ctx context.Context, m *polygen.Manifest) ([]polygen.Evaluator, error)
}

// InterpLoader runs emitted source through polygen's interpreter. It needs
// no compiler; its timings say nothing about compiled code.
type InterpLoader struct{}

// Load interprets every descriptor of m.
func (InterpLoader) Load(_ context.Context, m *polygen.Manifest) ([]polygen.Evaluator, error) {
	evals := make([]polygen.Evaluator, 0, m.Len())
	for _, d := range m.Descriptors() {
		eval, err := polygen.Interpret(d.Source, d.Name)
		if err != nil {
			return nil, err
		}
		evals = append(evals, eval)
	}
	return evals, nil
}

// GridSpec bounds a grid search.
type GridSpec struct {
	MaxSplit  int `yaml:"max_split"`
	MaxUnroll int `yaml:"max_unroll"`
}

// DefaultGrid is the 8x8 grid.
func DefaultGrid() GridSpec {
	return GridSpec{MaxSplit: DefaultMaxSplit, MaxUnroll: DefaultMaxUnroll}
}

// Report is the outcome of Grid or Compare.
type Report struct {
	Scores []Score // In manifest order
	Best   Score
}

// ExportRow is the cycle estimate of every candidate at one degree.
type ExportRow struct {
	Degree int
	Cycles []float64 // In candidate order
}

// Tuner runs searches. Engine is required for Export and for the default
// scorer; Scorer overrides how configurations are reduced to a CPE.
type Tuner struct {
	Loader Loader
	Engine Measurer
	Scorer Scorer
	Sweep  Sweep
	Prefix string // Evaluator name prefix, polygen.DefaultPrefix if empty
	Logger *slog.Logger

	// OnScore, if set, is called after every scored configuration.
	OnScore func(Score)
}

func (t *Tuner) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.Logger
}

func (t *Tuner) scorer() (Scorer, error) {
	if t.Scorer != nil {
		return t.Scorer, nil
	}
	if t.Engine == nil {
		return nil, errors.New("tuner has neither a scorer nor an engine")
	}
	return &CPEScorer{Engine: t.Engine, Sweep: t.Sweep}, nil
}

// Grid scores every configuration of spec and returns the best one.
func (t *Tuner) Grid(ctx context.Context, spec GridSpec) (Report, error) {
	configs, err := polygen.Grid(spec.MaxSplit, spec.MaxUnroll)
	if err != nil {
		return Report{}, err
	}
	return t.run(ctx, configs)
}

// Compare scores an explicit list of at least two candidates.
func (t *Tuner) Compare(ctx context.Context, configs []polygen.Config) (Report, error) {
	if len(configs) < minCompareCandidates {
		return Report{}, fmt.Errorf("%w: compare needs at least %d, got %d", ErrCandidates, minCompareCandidates, len(configs))
	}
	return t.run(ctx, configs)
}

// Export measures every candidate at every degree of the sweep. Rows are in
// degree order and columns in candidate order.
func (t *Tuner) Export(ctx context.Context, configs []polygen.Config) ([]ExportRow, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: export needs at least 1", ErrCandidates)
	}
	if t.Engine == nil {
		return nil, errors.New("export needs an engine")
	}
	if err := t.Sweep.Validate(); err != nil {
		return nil, err
	}
	table, err := t.load(ctx, configs)
	if err != nil {
		return nil, err
	}

	log := t.logger()
	var rows []ExportRow
	for _, degree := range t.Sweep.Degrees() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := ExportRow{Degree: degree, Cycles: make([]float64, table.Len())}
		for i, e := range table.Entries() {
			est, err := t.Engine.Measure(e.Eval, degree)
			if err != nil {
				return nil, fmt.Errorf("split=%d unroll=%d: %w", e.Config.Split, e.Config.Unroll, err)
			}
			row.Cycles[i] = est.Cycles
		}
		log.Debug("measured degree", "degree", degree, "cycles", row.Cycles)
		rows = append(rows, row)
	}
	return rows, nil
}

func (t *Tuner) run(ctx context.Context, configs []polygen.Config) (Report, error) {
	scorer, err := t.scorer()
	if err != nil {
		return Report{}, err
	}
	if t.Scorer == nil {
		if err := t.Sweep.Validate(); err != nil {
			return Report{}, err
		}
	}
	table, err := t.load(ctx, configs)
	if err != nil {
		return Report{}, err
	}

	log := t.logger()
	var (
		best   Best
		scores = make([]Score, 0, table.Len())
	)
	for _, e := range table.Entries() {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		cpe, err := scorer.Score(e.Config, e.Eval)
		if err != nil {
			return Report{}, fmt.Errorf("split=%d unroll=%d: %w", e.Config.Split, e.Config.Unroll, err)
		}
		s := Score{Config: e.Config, CPE: cpe}
		scores = append(scores, s)
		best.Observe(s)
		log.Info("scored configuration", "split", e.Config.Split, "unroll", e.Config.Unroll, "cpe", cpe)
		if t.OnScore != nil {
			t.OnScore(s)
		}
	}

	top, ok := best.Get()
	if !ok {
		return Report{}, fmt.Errorf("%w: nothing was scored", ErrCandidates)
	}
	return Report{Scores: scores, Best: top}, nil
}

// load generates the manifest for configs, loads it and binds the result.
// Generation errors come back unchanged; anything the loader reports is
// wrapped in polygen.ErrLoad.
func (t *Tuner) load(ctx context.Context, configs []polygen.Config) (*polygen.Table, error) {
	if t.Loader == nil {
		return nil, fmt.Errorf("%w: no loader configured", polygen.ErrLoad)
	}
	m := polygen.NewManifest(t.Prefix)
	if err := m.AppendAll(configs); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	t.logger().Debug("generated evaluators", "count", m.Len(),
		"configs", lo.Map(m.Configs(), func(c polygen.Config, _ int) string { return c.String() }))

	evals, err := t.Loader.Load(ctx, m)
	if err != nil {
		if errors.Is(err, polygen.ErrLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", polygen.ErrLoad, err)
	}
	return polygen.Bind(m, evals)
}
