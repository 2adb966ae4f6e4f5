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

// Package tune searches for the fastest evaluator layout.
//
// A Tuner generates a manifest of evaluators, asks a Loader to turn it into
// callables, binds them back to their configurations and scores each one.
// The score of a configuration is its CPE: the mean over a degree sweep of
// the measured cycles divided by the degree.
//
// Three searches are available:
//
//   - Grid scores every split in [1, MaxSplit] against every unroll in
//     [1, MaxUnroll].
//   - Compare scores an explicit candidate list.
//   - Export measures an explicit candidate list at every sampled degree
//     without reducing to CPE, for plotting.
//
// Everything runs on the calling goroutine, one configuration after another.
package tune
