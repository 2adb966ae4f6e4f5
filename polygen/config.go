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

package polygen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidConfig is returned for configurations that cannot be generated.
	ErrInvalidConfig = errors.New("invalid evaluator configuration")

	// ErrLoad is returned when compiled evaluators do not line up with the
	// manifest that produced them.
	ErrLoad = errors.New("evaluator load failed")
)

// Evaluator evaluates the polynomial a[0..degree] at x.
type Evaluator func(a []float64, x float64, degree int) float64

// Config selects one evaluator variant.
type Config struct {
	Split  int `yaml:"split"`  // Independent partial sums
	Unroll int `yaml:"unroll"` // Terms per partial sum per block
}

// Block returns the number of terms consumed per loop iteration.
func (c Config) Block() int {
	return c.Split * c.Unroll
}

// Validate reports whether c can be generated.
func (c Config) Validate() error {
	if c.Split < 1 || c.Unroll < 1 {
		return fmt.Errorf("%w: split=%d unroll=%d (both must be >= 1)", ErrInvalidConfig, c.Split, c.Unroll)
	}
	return nil
}

// String returns the "split,unroll" form accepted by ParseConfig.
func (c Config) String() string {
	return strconv.Itoa(c.Split) + "," + strconv.Itoa(c.Unroll)
}

// ParseConfig parses "split,unroll".
func ParseConfig(s string) (Config, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Config{}, fmt.Errorf("%w: %q is not of the form split,unroll", ErrInvalidConfig, s)
	}
	split, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Config{}, fmt.Errorf("%w: split in %q: %v", ErrInvalidConfig, s, err)
	}
	unroll, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Config{}, fmt.Errorf("%w: unroll in %q: %v", ErrInvalidConfig, s, err)
	}
	cfg := Config{Split: split, Unroll: unroll}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfigs parses a candidate list. Each argument is either one
// "split,unroll" pair or several pairs joined by commas ("1,1,2,2").
func ParseConfigs(args []string) ([]Config, error) {
	var configs []Config
	for _, arg := range args {
		fields := strings.Split(arg, ",")
		if len(fields)%2 != 0 {
			return nil, fmt.Errorf("%w: %q has an odd number of fields", ErrInvalidConfig, arg)
		}
		for i := 0; i < len(fields); i += 2 {
			cfg, err := ParseConfig(fields[i] + "," + fields[i+1])
			if err != nil {
				return nil, err
			}
			configs = append(configs, cfg)
		}
	}
	return configs, nil
}

// Grid returns every configuration with 1 <= split <= maxSplit and
// 1 <= unroll <= maxUnroll, split-major.
func Grid(maxSplit, maxUnroll int) ([]Config, error) {
	if maxSplit < 1 || maxUnroll < 1 {
		return nil, fmt.Errorf("%w: grid bounds %dx%d", ErrInvalidConfig, maxSplit, maxUnroll)
	}
	configs := make([]Config, 0, maxSplit*maxUnroll)
	for split := 1; split <= maxSplit; split++ {
		for unroll := 1; unroll <= maxUnroll; unroll++ {
			configs = append(configs, Config{Split: split, Unroll: unroll})
		}
	}
	return configs, nil
}
