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

import "fmt"

// Entry pairs a descriptor with its loaded callable.
type Entry struct {
	Descriptor
	Eval Evaluator
}

// Table maps manifest positions and configurations to loaded evaluators.
type Table struct {
	entries []Entry
	byShape map[Config]int
}

// Bind zips the manifest with evaluators loaded in the same order. The
// lengths must match and no callable may be nil.
func Bind(m *Manifest, evals []Evaluator) (*Table, error) {
	if len(evals) != m.Len() {
		return nil, fmt.Errorf("%w: manifest has %d evaluators, loaded %d", ErrLoad, m.Len(), len(evals))
	}
	t := &Table{
		entries: make([]Entry, len(evals)),
		byShape: make(map[Config]int, len(evals)),
	}
	for i, d := range m.Descriptors() {
		if evals[i] == nil {
			return nil, fmt.Errorf("%w: evaluator %d (%s) is nil", ErrLoad, i, d.Name)
		}
		t.entries[i] = Entry{Descriptor: d, Eval: evals[i]}
		if _, dup := t.byShape[d.Config]; !dup {
			t.byShape[d.Config] = i
		}
	}
	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// At returns entry i.
func (t *Table) At(i int) Entry {
	return t.entries[i]
}

// Entries returns all entries in manifest order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Lookup returns the first evaluator generated for cfg.
func (t *Table) Lookup(cfg Config) (Evaluator, bool) {
	i, ok := t.byShape[cfg]
	if !ok {
		return nil, false
	}
	return t.entries[i].Eval, true
}
