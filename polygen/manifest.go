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
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"golang.org/x/tools/imports"
)

const (
	// DeclarationsFile holds the Evaluator type and the dispatch slices.
	DeclarationsFile = "evaluators.go"
	// DefinitionsFile holds one function per descriptor.
	DefinitionsFile = "evaluators_defs.go"

	// EvaluatorsSymbol is the exported slice of evaluators, in manifest order.
	EvaluatorsSymbol = "Evaluators"
	// ShapesSymbol is the exported slice of {split, unroll} pairs parallel to
	// EvaluatorsSymbol.
	ShapesSymbol = "Shapes"
)

// Manifest is the ordered list of generated evaluators. Index i of the
// manifest is index i of the emitted Evaluators slice.
type Manifest struct {
	Package string // Package clause of the emitted files; "main" if empty

	session     Session
	descriptors []Descriptor
}

// NewManifest returns an empty manifest whose evaluators are named
// prefix0, prefix1, ... (title-cased).
func NewManifest(prefix string) *Manifest {
	return &Manifest{session: Session{Prefix: prefix}}
}

// Append generates the evaluator for cfg and records it.
func (m *Manifest) Append(cfg Config) (Descriptor, error) {
	d, err := m.session.Generate(cfg)
	if err != nil {
		return Descriptor{}, err
	}
	m.descriptors = append(m.descriptors, d)
	return d, nil
}

// AppendAll appends every configuration in order, stopping at the first
// invalid one.
func (m *Manifest) AppendAll(configs []Config) error {
	for _, cfg := range configs {
		if _, err := m.Append(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of descriptors.
func (m *Manifest) Len() int {
	return len(m.descriptors)
}

// WithPackage returns a copy of m whose files use package pkg. m is not
// changed.
func (m *Manifest) WithPackage(pkg string) *Manifest {
	c := *m
	c.Package = pkg
	c.descriptors = slices.Clone(m.descriptors)
	return &c
}

// Descriptors returns the descriptors in emission order.
func (m *Manifest) Descriptors() []Descriptor {
	return m.descriptors
}

// Configs returns the configuration of every descriptor in emission order.
func (m *Manifest) Configs() []Config {
	configs := make([]Config, len(m.descriptors))
	for i, d := range m.descriptors {
		configs[i] = d.Config
	}
	return configs
}

func (m *Manifest) pkg() string {
	if m.Package == "" {
		return "main"
	}
	return m.Package
}

// Declarations returns the formatted declarations file.
func (m *Manifest) Declarations() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by polygen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", m.pkg())
	fmt.Fprintf(&buf, "// Evaluator evaluates a[0] + a[1]*x + ... + a[degree]*x^degree.\n")
	fmt.Fprintf(&buf, "type Evaluator = func(a []float64, x float64, degree int) float64\n\n")

	fmt.Fprintf(&buf, "// %s lists every generated evaluator in manifest order.\n", EvaluatorsSymbol)
	fmt.Fprintf(&buf, "var %s = []Evaluator{\n", EvaluatorsSymbol)
	for _, d := range m.descriptors {
		fmt.Fprintf(&buf, "\t%s, // split=%d unroll=%d\n", d.Name, d.Config.Split, d.Config.Unroll)
	}
	fmt.Fprintf(&buf, "}\n\n")

	fmt.Fprintf(&buf, "// %s holds the {split, unroll} pair of each entry in %s.\n", ShapesSymbol, EvaluatorsSymbol)
	fmt.Fprintf(&buf, "var %s = [][2]int{\n", ShapesSymbol)
	for _, d := range m.descriptors {
		fmt.Fprintf(&buf, "\t{%d, %d},\n", d.Config.Split, d.Config.Unroll)
	}
	fmt.Fprintf(&buf, "}\n")

	return format(DeclarationsFile, buf.Bytes())
}

// Definitions returns the formatted definitions file.
func (m *Manifest) Definitions() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by polygen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n", m.pkg())
	for _, d := range m.descriptors {
		buf.WriteString("\n")
		buf.WriteString(d.Source)
	}
	return format(DefinitionsFile, buf.Bytes())
}

// Artifacts are the paths written by WriteFiles.
type Artifacts struct {
	Declarations string
	Definitions  string
}

// WriteFiles writes both source files into dir. Each file is complete and
// closed when WriteFiles returns.
func (m *Manifest) WriteFiles(dir string) (Artifacts, error) {
	decls, err := m.Declarations()
	if err != nil {
		return Artifacts{}, err
	}
	defs, err := m.Definitions()
	if err != nil {
		return Artifacts{}, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create output dir: %w", err)
	}

	a := Artifacts{
		Declarations: filepath.Join(dir, DeclarationsFile),
		Definitions:  filepath.Join(dir, DefinitionsFile),
	}
	if err := os.WriteFile(a.Declarations, decls, 0644); err != nil {
		return Artifacts{}, fmt.Errorf("write declarations: %w", err)
	}
	if err := os.WriteFile(a.Definitions, defs, 0644); err != nil {
		return Artifacts{}, fmt.Errorf("write definitions: %w", err)
	}
	return a, nil
}

func format(filename string, src []byte) ([]byte, error) {
	formatted, err := imports.Process(filename, src, &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true})
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", filename, err)
	}
	return formatted, nil
}
