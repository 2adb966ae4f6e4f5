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

// Command polygen writes polynomial evaluator sources without benchmarking
// them.
//
// Usage:
//
//	polygen -output gen -grid 8x8
//	polygen -output gen -configs 1,1,2,2,4,2 -pkg evaluators
//
// Or via go:generate:
//
//	//go:generate polygen -output . -pkg $GOPACKAGE -grid 4x4
//
// Two files are produced: evaluators.go with the Evaluators and Shapes
// tables, and evaluators_defs.go with one function per shape.
package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	outputDir = flag.String("output", ".", "Output directory")
	pkgName   = flag.String("pkg", "main", "Package name of the generated files")
	prefix    = flag.String("prefix", "poly", "Evaluator function name prefix")
	grid      = flag.String("grid", "8x8", "Grid bounds as <max split>x<max unroll>")
	configs   = flag.String("configs", "", "Explicit split,unroll pairs, comma-joined (overrides -grid)")
)

func main() {
	flag.Parse()

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected argument %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	shapes, err := shapesFromFlags(*grid, *configs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(2)
	}

	gen := &Generator{
		OutputDir: *outputDir,
		Package:   *pkgName,
		Prefix:    *prefix,
		Configs:   shapes,
	}
	a, err := gen.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully generated %d evaluators: %s, %s\n", len(shapes), a.Declarations, a.Definitions)
}
