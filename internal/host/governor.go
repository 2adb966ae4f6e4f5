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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/procfs/sysfs"
)

// PerformanceGovernor keeps cores at their highest frequency.
const PerformanceGovernor = "performance"

// Governor reads and sets the cpufreq scaling governor of every CPU. It is
// only used around a run when explicitly requested; the benchmark itself
// never changes power state.
type Governor struct {
	SysRoot string // sysfs mount point, sysfs.DefaultMountPoint if empty
}

func (g Governor) files() ([]string, error) {
	root := g.SysRoot
	if root == "" {
		root = sysfs.DefaultMountPoint
	}
	files, err := filepath.Glob(filepath.Join(root, "devices/system/cpu/cpu[0-9]*/cpufreq/scaling_governor"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scaling_governor files under %s", root)
	}
	sort.Strings(files)
	return files, nil
}

// Current returns the governor of each CPU, keyed by its sysfs file.
func (g Governor) Current() (map[string]string, error) {
	files, err := g.files()
	if err != nil {
		return nil, err
	}
	current := make(map[string]string, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read governor: %w", err)
		}
		current[f] = strings.TrimSpace(string(b))
	}
	return current, nil
}

// Set switches every CPU to name and returns a function that puts back what
// was there before. On a partial failure the CPUs already switched are
// restored before Set returns.
func (g Governor) Set(name string) (restore func() error, err error) {
	prev, err := g.Current()
	if err != nil {
		return nil, err
	}
	restore = func() error {
		var errs []error
		for f, gov := range prev {
			if err := os.WriteFile(f, []byte(gov), 0644); err != nil {
				errs = append(errs, fmt.Errorf("restore %s: %w", f, err))
			}
		}
		return errors.Join(errs...)
	}
	for f := range prev {
		if err := os.WriteFile(f, []byte(name), 0644); err != nil {
			return nil, errors.Join(fmt.Errorf("set governor %s: %w", name, err), restore())
		}
	}
	return restore, nil
}
