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
	"fmt"
	"math"

	"github.com/ajroetker/polytune/bench"
	"github.com/ajroetker/polytune/polygen"
)

const (
	DefaultMaxDegree  = 1000
	DefaultDegreeStep = 10
	DefaultMaxSplit   = 8
	DefaultMaxUnroll  = 8

	minCompareCandidates = 2
)

// Sweep is the set of degrees every configuration is measured at:
// 0, Step, 2*Step, ... below MaxDegree.
type Sweep struct {
	MaxDegree int `yaml:"max_degree"`
	Step      int `yaml:"degree_step"`
}

// DefaultSweep returns degrees 0..990 in steps of 10.
func DefaultSweep() Sweep {
	return Sweep{MaxDegree: DefaultMaxDegree, Step: DefaultDegreeStep}
}

// Validate reports whether the sweep samples at least one non-zero degree.
func (s Sweep) Validate() error {
	if s.Step < 1 {
		return fmt.Errorf("degree step must be positive, got %d", s.Step)
	}
	if s.MaxDegree <= s.Step {
		return fmt.Errorf("max degree %d leaves no non-zero degree with step %d", s.MaxDegree, s.Step)
	}
	return nil
}

// Degrees lists the sampled degrees in increasing order.
func (s Sweep) Degrees() []int {
	var degrees []int
	for d := 0; d < s.MaxDegree; d += s.Step {
		degrees = append(degrees, d)
	}
	return degrees
}

// CPE averages cycles/degree over the estimates with a non-zero degree.
// Degree 0 is measured for its correctness check only.
func CPE(estimates []bench.Estimate) float64 {
	total, n := 0.0, 0
	for _, e := range estimates {
		if e.Degree == 0 {
			continue
		}
		total += e.Cycles / float64(e.Degree)
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// Measurer produces one cycle estimate. *bench.Engine implements it.
type Measurer interface {
	Measure(eval polygen.Evaluator, degree int) (bench.Estimate, error)
}

// Scorer reduces one configuration to a CPE.
type Scorer interface {
	Score(cfg polygen.Config, eval polygen.Evaluator) (float64, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(cfg polygen.Config, eval polygen.Evaluator) (float64, error)

// Score calls f.
func (f ScorerFunc) Score(cfg polygen.Config, eval polygen.Evaluator) (float64, error) {
	return f(cfg, eval)
}

// CPEScorer measures a configuration across a sweep.
type CPEScorer struct {
	Engine Measurer
	Sweep  Sweep
}

// Estimates measures eval at every degree of the sweep.
func (s *CPEScorer) Estimates(eval polygen.Evaluator) ([]bench.Estimate, error) {
	degrees := s.Sweep.Degrees()
	estimates := make([]bench.Estimate, 0, len(degrees))
	for _, degree := range degrees {
		est, err := s.Engine.Measure(eval, degree)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, est)
	}
	return estimates, nil
}

// Score returns the CPE of eval over the sweep.
func (s *CPEScorer) Score(_ polygen.Config, eval polygen.Evaluator) (float64, error) {
	estimates, err := s.Estimates(eval)
	if err != nil {
		return 0, err
	}
	return CPE(estimates), nil
}

// Score is the CPE of one configuration.
type Score struct {
	Config polygen.Config
	CPE    float64
}

// Best tracks the lowest score seen so far. Only a strictly lower CPE
// replaces the current best, so ties keep the earliest configuration.
type Best struct {
	score Score
	ok    bool
}

// Observe records s and reports whether it became the new best.
func (b *Best) Observe(s Score) bool {
	if math.IsNaN(s.CPE) || (b.ok && s.CPE >= b.score.CPE) {
		return false
	}
	b.score, b.ok = s, true
	return true
}

// Get returns the best score and whether any score was observed.
func (b *Best) Get() (Score, bool) {
	return b.score, b.ok
}
