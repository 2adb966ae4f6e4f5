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

// Package host reads what the benchmark needs to know about the machine:
// the nominal clock used to convert time to cycles, the CPU model, its
// vector features, and the frequency governor.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/sysfs"
	"golang.org/x/sys/cpu"
)

// ErrFreqUnavailable is returned when no maximum clock frequency can be read.
var ErrFreqUnavailable = errors.New("cpu frequency unavailable")

// Probe reads host information from sysfs and procfs.
type Probe struct {
	SysRoot  string // sysfs mount point, sysfs.DefaultMountPoint if empty
	ProcRoot string // procfs mount point, procfs.DefaultMountPoint if empty
}

// Info summarizes a probe.
type Info struct {
	Model    string
	NumCPU   int
	Features []string
	FreqHz   float64
	Fallback bool // FreqHz is the fallback, not a reading
}

func (p Probe) sysRoot() string {
	if p.SysRoot == "" {
		return sysfs.DefaultMountPoint
	}
	return p.SysRoot
}

func (p Probe) procRoot() string {
	if p.ProcRoot == "" {
		return procfs.DefaultMountPoint
	}
	return p.ProcRoot
}

// MaxFreqHz returns the highest cpuinfo_max_freq across CPUs, in Hz.
func (p Probe) MaxFreqHz() (float64, error) {
	fs, err := sysfs.NewFS(p.sysRoot())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFreqUnavailable, err)
	}
	stats, err := fs.SystemCpufreq()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFreqUnavailable, err)
	}
	var maxKHz uint64
	for _, s := range stats {
		if s.CpuinfoMaximumFrequency != nil {
			maxKHz = max(maxKHz, *s.CpuinfoMaximumFrequency)
		}
	}
	if maxKHz == 0 {
		return 0, fmt.Errorf("%w: no cpuinfo_max_freq under %s", ErrFreqUnavailable, p.sysRoot())
	}
	return float64(maxKHz) * 1000, nil
}

// CPUModel returns the model name of the first CPU in /proc/cpuinfo.
func (p Probe) CPUModel() string {
	fs, err := procfs.NewFS(p.procRoot())
	if err == nil {
		if infos, err := fs.CPUInfo(); err == nil {
			for _, info := range infos {
				if info.ModelName != "" {
					return strings.TrimSpace(info.ModelName)
				}
			}
		}
	}
	return runtime.GOARCH + " CPU"
}

// Detect gathers Info, using fallbackHz when the frequency cannot be read.
func (p Probe) Detect(fallbackHz float64, log *slog.Logger) Info {
	freq, fellBack := FreqOrFallback(p.MaxFreqHz, fallbackHz, log)
	return Info{
		Model:    p.CPUModel(),
		NumCPU:   runtime.NumCPU(),
		Features: Features(),
		FreqHz:   freq,
		Fallback: fellBack,
	}
}

// FreqOrFallback calls read and returns its result, or fallbackHz with a
// warning when read fails. The second result reports the fallback.
func FreqOrFallback(read func() (float64, error), fallbackHz float64, log *slog.Logger) (float64, bool) {
	hz, err := read()
	if err == nil && hz > 0 {
		return hz, false
	}
	if err == nil {
		err = fmt.Errorf("%w: read %v Hz", ErrFreqUnavailable, hz)
	}
	if log != nil {
		log.Warn("using fallback cpu frequency", "fallback_hz", fallbackHz, "error", err)
	}
	return fallbackHz, true
}

// Features lists the vector and fused multiply-add extensions Go detects.
func Features() []string {
	var feats []string
	add := func(ok bool, name string) {
		if ok {
			feats = append(feats, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE2, "sse2")
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasSSE42, "sse4.2")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasFP, "fp")
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasASIMDHP, "asimdhp")
		add(cpu.ARM64.HasSVE, "sve")
		add(cpu.ARM64.HasSVE2, "sve2")
	}
	return feats
}
