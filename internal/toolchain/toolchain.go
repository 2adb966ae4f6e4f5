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

// Package toolchain compiles a polygen manifest into a Go plugin and loads
// its evaluators.
//
// The manifest is written as a stand-alone main package, built with
// `go build -buildmode=plugin` and opened with the plugin package. Plugins
// need cgo and are only supported on linux, darwin and freebsd; elsewhere
// Load fails with a polygen.ErrLoad error.
package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"plugin"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/ajroetker/polytune/polygen"
)

// PluginLoader builds and opens evaluator plugins.
//
// Each Load builds in its own directory under WorkDir. The directory is
// removed once the plugin is open unless Keep is set; after a failure it is
// left in place so the sources and build output can be inspected.
type PluginLoader struct {
	WorkDir string // Parent of the per-run build directories
	GoBin   string // Go command; the one from GOROOT if empty
	Keep    bool   // Keep build directories after a successful load
	Logger  *slog.Logger
}

type evaluatorFunc = func([]float64, float64, int) float64

// symbolLookup matches (*plugin.Plugin).Lookup.
type symbolLookup func(name string) (plugin.Symbol, error)

func (l *PluginLoader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}

func (l *PluginLoader) goBin() string {
	if l.GoBin != "" {
		return l.GoBin
	}
	// Use the toolchain that built this binary; plugins must match it.
	goBin := filepath.Join(runtime.GOROOT(), "bin", "go")
	if _, err := os.Stat(goBin); err == nil {
		return goBin
	}
	return "go"
}

// Load writes m into a fresh build directory, compiles it and returns the
// evaluators in manifest order.
func (l *PluginLoader) Load(ctx context.Context, m *polygen.Manifest) ([]polygen.Evaluator, error) {
	runID := strings.ReplaceAll(uuid.NewString(), "-", "")
	dir, err := filepath.Abs(filepath.Join(l.WorkDir, "run-"+runID[:12]))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", polygen.ErrLoad, err)
	}
	log := l.logger().With("dir", dir)

	// Plugins must be package main; the caller's manifest is left alone.
	m = m.WithPackage("main")
	if _, err := m.WriteFiles(dir); err != nil {
		return nil, fmt.Errorf("%w: %w", polygen.ErrLoad, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), goMod("polytune.local/evaluators/r"+runID), 0644); err != nil {
		return nil, fmt.Errorf("%w: write go.mod: %w", polygen.ErrLoad, err)
	}
	log.Info("wrote evaluator sources", "count", m.Len())

	so := filepath.Join(dir, "evaluators.so")
	if err := l.build(ctx, dir, so); err != nil {
		return nil, err
	}
	log.Info("built evaluator plugin", "path", so)

	p, err := plugin.Open(so)
	if err != nil {
		return nil, fmt.Errorf("%w: open plugin: %w (sources kept in %s)", polygen.ErrLoad, err, dir)
	}
	evals, err := resolve(p.Lookup, m)
	if err != nil {
		return nil, err
	}

	// The library stays mapped after its file is unlinked.
	if !l.Keep {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("could not remove build directory", "error", err)
		} else {
			log.Debug("removed build directory")
		}
	}
	return evals, nil
}

func (l *PluginLoader) build(ctx context.Context, dir, out string) error {
	cmd := exec.CommandContext(ctx, l.goBin(), "build", "-buildmode=plugin", "-o", out, ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOWORK=off", "CGO_ENABLED=1")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: go build in %s: %w: %s", polygen.ErrLoad, dir, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// resolve fetches the dispatch slices from a loaded plugin and checks them
// against the manifest.
func resolve(lookup symbolLookup, m *polygen.Manifest) ([]polygen.Evaluator, error) {
	sym, err := lookup(polygen.EvaluatorsSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", polygen.ErrLoad, err)
	}
	fns, ok := sym.(*[]evaluatorFunc)
	if !ok {
		return nil, fmt.Errorf("%w: %s has type %T", polygen.ErrLoad, polygen.EvaluatorsSymbol, sym)
	}

	sym, err = lookup(polygen.ShapesSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", polygen.ErrLoad, err)
	}
	shapes, ok := sym.(*[][2]int)
	if !ok {
		return nil, fmt.Errorf("%w: %s has type %T", polygen.ErrLoad, polygen.ShapesSymbol, sym)
	}

	if len(*fns) != m.Len() || len(*shapes) != m.Len() {
		return nil, fmt.Errorf("%w: manifest has %d evaluators, plugin exports %d functions and %d shapes",
			polygen.ErrLoad, m.Len(), len(*fns), len(*shapes))
	}
	evals := make([]polygen.Evaluator, len(*fns))
	for i, d := range m.Descriptors() {
		if got := (*shapes)[i]; got != ([2]int{d.Config.Split, d.Config.Unroll}) {
			return nil, fmt.Errorf("%w: entry %d is split=%d unroll=%d, manifest says %v",
				polygen.ErrLoad, i, got[0], got[1], d.Config)
		}
		evals[i] = (*fns)[i]
	}
	return evals, nil
}

// goMod returns a go.mod for the generated package, pinned to the language
// version of the running toolchain when it can be determined.
func goMod(module string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s\n", module)
	if v, ok := languageVersion(runtime.Version()); ok {
		fmt.Fprintf(&b, "\ngo %s\n", v)
	}
	return []byte(b.String())
}

// languageVersion turns "go1.26.1" into "1.26". Development builds have no
// language version.
func languageVersion(v string) (string, bool) {
	v, ok := strings.CutPrefix(v, "go")
	if !ok {
		return "", false
	}
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return "", false
	}
	minor := parts[1]
	if i := strings.IndexFunc(minor, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		minor = minor[:i]
	}
	if parts[0] == "" || minor == "" {
		return "", false
	}
	return parts[0] + "." + minor, true
}
