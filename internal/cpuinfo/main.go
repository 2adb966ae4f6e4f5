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

// Package main provides a diagnostic tool to print what polytune detects
// about the host it would benchmark on.
package main

import (
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/ajroetker/polytune/internal/host"
)

func main() {
	fmt.Printf("GOOS: %s\n", runtime.GOOS)
	fmt.Printf("GOARCH: %s\n", runtime.GOARCH)
	fmt.Printf("NumCPU: %d\n", runtime.NumCPU())
	fmt.Println()

	p := host.Probe{}
	fmt.Printf("CPU model: %s\n", p.CPUModel())
	if hz, err := p.MaxFreqHz(); err != nil {
		fmt.Printf("Max frequency: unavailable (%v)\n", err)
	} else {
		fmt.Printf("Max frequency: %.0f Hz (%.2f GHz)\n", hz, hz/1e9)
	}
	fmt.Printf("Features: %s\n", strings.Join(host.Features(), " "))
	fmt.Println()

	current, err := host.Governor{}.Current()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Governor: unavailable (%v)\n", err)
		return
	}
	fmt.Println("=== cpufreq scaling governors ===")
	for _, f := range slices.Sorted(maps.Keys(current)) {
		fmt.Printf("  %s: %s\n", f, current[f])
	}
}
