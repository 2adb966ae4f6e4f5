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
	"go/token"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPrefix names evaluators Poly0, Poly1, ...
const DefaultPrefix = "poly"

// Descriptor identifies one generated evaluator. It is never mutated after
// Session.Generate returns it.
type Descriptor struct {
	Index  int    // Position in the manifest and in the Evaluators slice
	Name   string // Exported Go identifier of the function
	Config Config
	Source string // Go source of the function, without a package clause
}

// Session hands out sequential evaluator ids. A zero Session uses
// DefaultPrefix.
type Session struct {
	Prefix string
	next   int
}

// Next returns the id the next Generate call will use.
func (s *Session) Next() int {
	return s.next
}

// Symbol returns the function name for id.
func (s *Session) Symbol(id int) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return cases.Title(language.English).String(prefix) + strconv.Itoa(id)
}

// Generate emits the evaluator for cfg and advances the id counter. The
// counter is left untouched when cfg is rejected.
func (s *Session) Generate(cfg Config) (Descriptor, error) {
	name := s.Symbol(s.next)
	if !token.IsIdentifier(name) || !token.IsExported(name) {
		return Descriptor{}, fmt.Errorf("%w: prefix %q does not yield an exported identifier", ErrInvalidConfig, s.Prefix)
	}
	src, err := Generate(cfg, name)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{Index: s.next, Name: name, Config: cfg, Source: src}
	s.next++
	return d, nil
}

// Generate returns the source of a function called name that evaluates a
// polynomial using cfg's accumulator layout.
func Generate(cfg Config, name string) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	emitEvaluator(&buf, cfg, name)
	return buf.String(), nil
}

func emitEvaluator(buf *bytes.Buffer, cfg Config, name string) {
	split, unroll := cfg.Split, cfg.Unroll
	block := cfg.Block()

	fmt.Fprintf(buf, "// %s evaluates a[0..degree] at x with %d partial sums of %d terms (split=%d, unroll=%d).\n",
		name, split, unroll, split, unroll)
	fmt.Fprintf(buf, "func %s(a []float64, x float64, degree int) float64 {\n", name)

	// The degree-0 term seeds the first partial sum.
	fmt.Fprintf(buf, "\tresult0 := a[0]\n")
	for k := 1; k < split; k++ {
		fmt.Fprintf(buf, "\tresult%d := 0.0\n", k)
	}

	// xpwr is x^i for the first unconsumed index i.
	fmt.Fprintf(buf, "\txpwr := x\n")
	fmt.Fprintf(buf, "\txPow0 := 1.0\n")
	fmt.Fprintf(buf, "\txPow1 := x\n")
	for k := 2; k <= block; k++ {
		fmt.Fprintf(buf, "\txPow%d := xPow%d * x\n", k, k-1)
	}

	fmt.Fprintf(buf, "\ti := 1\n")
	fmt.Fprintf(buf, "\tfor ; i <= %s; %s {\n", offsetExpr("degree", -(block-1)), stepStmt("i", block))
	for k := 0; k < split; k++ {
		terms := make([]string, unroll)
		for l := range unroll {
			pos := k*unroll + l
			terms[l] = fmt.Sprintf("%s*xPow%d", indexExpr("a", "i", pos), pos)
		}
		fmt.Fprintf(buf, "\t\tresult%d += (%s) * xpwr\n", k, strings.Join(terms, " + "))
	}
	fmt.Fprintf(buf, "\t\txpwr *= xPow%d\n", block)
	fmt.Fprintf(buf, "\t}\n")

	// Leftover terms go into the first partial sum one at a time.
	fmt.Fprintf(buf, "\tfor ; i <= degree; i++ {\n")
	fmt.Fprintf(buf, "\t\tresult0 += a[i] * xpwr\n")
	fmt.Fprintf(buf, "\t\txpwr *= x\n")
	fmt.Fprintf(buf, "\t}\n")

	sums := make([]string, split)
	for k := range split {
		sums[k] = "result" + strconv.Itoa(k)
	}
	fmt.Fprintf(buf, "\treturn %s\n", strings.Join(sums, " + "))
	fmt.Fprintf(buf, "}\n")
}

// offsetExpr renders v+off without a redundant "+ 0".
func offsetExpr(v string, off int) string {
	switch {
	case off == 0:
		return v
	case off < 0:
		return v + "-" + strconv.Itoa(-off)
	default:
		return v + "+" + strconv.Itoa(off)
	}
}

func indexExpr(slice, idx string, off int) string {
	return slice + "[" + offsetExpr(idx, off) + "]"
}

func stepStmt(v string, step int) string {
	if step == 1 {
		return v + "++"
	}
	return v + " += " + strconv.Itoa(step)
}
