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
	"go/token"
	"strconv"
	"strings"

	"github.com/ajroetker/polytune/polygen"
)

// Generator writes the evaluator sources for a fixed list of shapes.
type Generator struct {
	OutputDir string           // Output directory
	Package   string           // Package clause of both files
	Prefix    string           // Evaluator name prefix
	Configs   []polygen.Config // Shapes in emission order
}

// Run generates every shape and writes both files.
func (g *Generator) Run() (polygen.Artifacts, error) {
	if len(g.Configs) == 0 {
		return polygen.Artifacts{}, fmt.Errorf("no shapes to generate")
	}
	if g.Package != "" && !token.IsIdentifier(g.Package) {
		return polygen.Artifacts{}, fmt.Errorf("invalid package name %q", g.Package)
	}
	m := polygen.NewManifest(g.Prefix)
	m.Package = g.Package
	if err := m.AppendAll(g.Configs); err != nil {
		return polygen.Artifacts{}, err
	}
	return m.WriteFiles(g.OutputDir)
}

// shapesFromFlags returns the explicit pairs if any, otherwise the grid.
func shapesFromFlags(grid, pairs string) ([]polygen.Config, error) {
	if strings.TrimSpace(pairs) != "" {
		return polygen.ParseConfigs(strings.Fields(pairs))
	}
	maxSplit, maxUnroll, err := parseGrid(grid)
	if err != nil {
		return nil, err
	}
	return polygen.Grid(maxSplit, maxUnroll)
}

// parseGrid parses "SxU", for example "8x8".
func parseGrid(s string) (maxSplit, maxUnroll int, err error) {
	a, b, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("grid %q is not of the form <split>x<unroll>", s)
	}
	if maxSplit, err = strconv.Atoi(a); err != nil {
		return 0, 0, fmt.Errorf("grid split: %w", err)
	}
	if maxUnroll, err = strconv.Atoi(b); err != nil {
		return 0, 0, fmt.Errorf("grid unroll: %w", err)
	}
	return maxSplit, maxUnroll, nil
}
