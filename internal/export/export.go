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

// Package export writes the export-mode data table and drives gnuplot over it.
package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ajroetker/polytune/polygen"
	"github.com/ajroetker/polytune/tune"
)

// ErrPlot wraps failures of the plotting tool. The data table is already
// on disk when it is returned.
var ErrPlot = errors.New("plot failed")

// WriteTable writes one line per row: the degree followed by the cycle
// estimate of each candidate, separated by spaces.
func WriteTable(w io.Writer, rows []tune.ExportRow) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		bw.WriteString(strconv.Itoa(row.Degree))
		for _, c := range row.Cycles {
			fmt.Fprintf(bw, " %f", c)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteTableFile writes the table to path and closes it before returning.
func WriteTableFile(path string, rows []tune.ExportRow) (err error) {
	if err := mkdirFor(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteTable(f, rows)
}

// Script renders a gnuplot script that plots every candidate column of
// data against degree into a PNG at image.
func Script(data, image string, configs []polygen.Config) string {
	var b strings.Builder
	b.WriteString("set terminal png size 1024,768\n")
	fmt.Fprintf(&b, "set output %s\n", quote(image))
	b.WriteString("set title \"Polynomial evaluation\"\n")
	b.WriteString("set xlabel \"Degree\"\n")
	b.WriteString("set ylabel \"Cycles\"\n")
	b.WriteString("set key left top\n")
	for i, cfg := range configs {
		if i == 0 {
			b.WriteString("plot ")
		} else {
			b.WriteString(", \\\n     ")
		}
		fmt.Fprintf(&b, "%s using 1:%d with linespoints title \"(%d,%d)\"",
			quote(data), i+2, cfg.Split, cfg.Unroll)
	}
	b.WriteString("\n")
	return b.String()
}

// WriteScript writes the gnuplot script to path.
func WriteScript(path, data, image string, configs []polygen.Config) error {
	if err := mkdirFor(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Script(data, image, configs)), 0644)
}

// Plotter runs gnuplot.
type Plotter struct {
	Bin string // Defaults to "gnuplot" on PATH
}

// Run executes script. Tool output is included in the error.
func (p Plotter) Run(ctx context.Context, script string) error {
	bin := p.Bin
	if bin == "" {
		bin = "gnuplot"
	}
	out, err := exec.CommandContext(ctx, bin, script).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%w: %s: %v", ErrPlot, bin, err)
		}
		return fmt.Errorf("%w: %s: %v\n%s", ErrPlot, bin, err, msg)
	}
	return nil
}

func mkdirFor(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func quote(s string) string {
	return strconv.Quote(filepath.ToSlash(s))
}
