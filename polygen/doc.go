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

// Package polygen generates specialized polynomial evaluators.
//
// Every evaluator computes
//
//	a[0] + a[1]*x + a[2]*x^2 + ... + a[degree]*x^degree
//
// and differs from its siblings only in two structural parameters:
//
//   - Split: the number of independent partial sums. Each one is its own
//     dependency chain, so the CPU can keep several multiply-adds in flight.
//   - Unroll: the number of consecutive terms each partial sum consumes per
//     loop iteration before being scaled by the running power of x.
//
// A loop iteration consumes one block of Split*Unroll terms. Partial sum k
// owns the contiguous stripe [k*Unroll, (k+1)*Unroll) of the block. The
// powers x^0..x^(Split*Unroll) are computed once, fully unrolled, and a
// single running factor xpwr carries the exponent of the first term of the
// next block. Terms that do not fill a whole block are folded into the first
// partial sum one at a time.
//
// The generator emits one Go function per configuration instead of a loop
// parameterized at run time: branching on Split/Unroll inside the loop would
// hide exactly the instruction-level parallelism being measured.
//
// # Usage
//
//	m := polygen.NewManifest("poly")
//	for split := 1; split <= 8; split++ {
//	    for unroll := 1; unroll <= 8; unroll++ {
//	        if _, err := m.Append(polygen.Config{Split: split, Unroll: unroll}); err != nil {
//	            return err
//	        }
//	    }
//	}
//	paths, err := m.WriteFiles(dir)
//
// The two written files (declarations and definitions) form a self-contained
// package exposing the Evaluators slice in manifest order. A toolchain turns
// them into callables, and Bind zips those callables back with the manifest.
//
// Interpret executes emitted source directly from its syntax tree. It is slow
// and only meant to check what the generator emits.
package polygen
