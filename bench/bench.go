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

// Package bench measures how many CPU cycles one evaluator call takes.
//
// Each measurement times a fixed number of trials of a single call on the
// canonical coefficients a[i] = i at x = -1, checks every result against
// the closed form, converts wall time to cycles with a nominal clock
// frequency and reduces the samples to a trimmed mean.
//
// Estimates depend on real elapsed time. They are comparable within one run
// on one machine, not across machines.
//
// An Engine is not safe for concurrent use, and measurements must not run
// in parallel with each other: contention would end up in the numbers.
package bench

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/ajroetker/polytune/polygen"
)

const (
	// DefaultTrials is the number of timed calls per estimate.
	DefaultTrials = 10000

	// Point is where evaluators are measured. At -1 the canonical
	// coefficients sum to a small integer, so the check is exact.
	Point = -1.0

	// TrimDivisor sets the tails dropped from each side: len/TrimDivisor.
	TrimDivisor = 20
)

var errNoSamples = errors.New("no samples")

// Estimate is the trimmed-mean cycle count of one call at Degree.
type Estimate struct {
	Degree int
	Cycles float64
}

// CorrectnessError reports an evaluator result that disagrees with the
// closed form. It points at a generator defect, so callers abort the run.
type CorrectnessError struct {
	Degree int
	Got    float64
	Want   float64
}

func (e *CorrectnessError) Error() string {
	return fmt.Sprintf("wrong answer at degree %d: %v (should be %v)", e.Degree, e.Got, e.Want)
}

// Engine times evaluator calls.
type Engine struct {
	Trials int     // Timed calls per estimate
	FreqHz float64 // Nominal clock used to turn seconds into cycles

	// Now returns the current time. Tests replace it; nil means time.Now.
	Now func() time.Time

	samples []float64
}

// New returns an engine running trials calls per estimate at freqHz.
func New(freqHz float64, trials int) *Engine {
	return &Engine{Trials: trials, FreqHz: freqHz}
}

// Coefficients returns the canonical test polynomial a[i] = i.
func Coefficients(degree int) []float64 {
	a := make([]float64, degree+1)
	for i := range a {
		a[i] = float64(i)
	}
	return a
}

// Expected returns sum(i * (-1)^i) for i in [0, degree]: degree/2 for even
// degrees and -(degree+1)/2 for odd ones.
func Expected(degree int) float64 {
	if degree%2 == 0 {
		return float64(degree) / 2
	}
	return -float64(degree+1) / 2
}

// Measure returns the cycle estimate of eval at degree. Any wrong result
// stops the measurement with a *CorrectnessError.
func (e *Engine) Measure(eval polygen.Evaluator, degree int) (Estimate, error) {
	if degree < 0 {
		return Estimate{}, fmt.Errorf("negative degree %d", degree)
	}
	if e.Trials < 1 {
		return Estimate{}, fmt.Errorf("trial count must be positive, got %d", e.Trials)
	}
	if e.FreqHz <= 0 {
		return Estimate{}, fmt.Errorf("clock frequency must be positive, got %v Hz", e.FreqHz)
	}
	now := e.Now
	if now == nil {
		now = time.Now
	}

	a := Coefficients(degree)
	want := Expected(degree)
	if cap(e.samples) < e.Trials {
		e.samples = make([]float64, e.Trials)
	}
	samples := e.samples[:e.Trials]

	// Keep collector work out of the timed region.
	runtime.GC()

	for i := range samples {
		t1 := now()
		got := eval(a, Point, degree)
		t2 := now()

		samples[i] = t2.Sub(t1).Seconds() * e.FreqHz

		if got != want {
			return Estimate{}, &CorrectnessError{Degree: degree, Got: got, Want: want}
		}
	}

	cycles, err := trimmedMean(samples)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Degree: degree, Cycles: cycles}, nil
}

// TrimmedMean sorts a copy of samples, drops len/20 values from each end and
// averages the rest.
func TrimmedMean(samples []float64) (float64, error) {
	return trimmedMean(slices.Clone(samples))
}

// trimmedMean is TrimmedMean sorting samples in place.
func trimmedMean(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, errNoSamples
	}
	slices.Sort(samples)
	cut := len(samples) / TrimDivisor
	kept := samples[cut : len(samples)-cut]
	total := 0.0
	for _, s := range kept {
		total += s
	}
	return total / float64(len(kept)), nil
}
