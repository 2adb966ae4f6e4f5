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
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// Program is a generated evaluator parsed back from its source. It executes
// the syntax tree directly, so it checks the text the generator emits rather
// than a model of it.
type Program struct {
	Name string

	params [3]string // coefficients, point, degree
	body   *ast.BlockStmt
	loops  map[*ast.ForStmt]int
}

// Trace reports how many times each for loop body ran, in source order.
// For generated evaluators Iterations[0] is the block loop and
// Iterations[1] the remainder loop.
type Trace struct {
	Iterations []int
}

// Interpret parses the function called name out of src and returns it as an
// Evaluator. src may be a whole file or a single function without a package
// clause.
func Interpret(src, name string) (Evaluator, error) {
	p, err := ParseProgram(src, name)
	if err != nil {
		return nil, err
	}
	return p.Eval, nil
}

// ParseProgram parses the function called name out of src.
func ParseProgram(src, name string) (*Program, error) {
	if !strings.HasPrefix(strings.TrimSpace(stripComments(src)), "package ") {
		src = "package evaluators\n\n" + src
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name+".go", src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	var fn *ast.FuncDecl
	for _, decl := range file.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Name.Name == name && fd.Body != nil {
			fn = fd
			break
		}
	}
	if fn == nil {
		return nil, fmt.Errorf("function %s not found", name)
	}

	p := &Program{Name: name, body: fn.Body, loops: make(map[*ast.ForStmt]int)}
	var params []string
	for _, field := range fn.Type.Params.List {
		for _, n := range field.Names {
			params = append(params, n.Name)
		}
	}
	if len(params) != 3 {
		return nil, fmt.Errorf("%s: want 3 parameters, got %d", name, len(params))
	}
	copy(p.params[:], params)

	if err := checkBody(fn.Body, p.params[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if fs, ok := n.(*ast.ForStmt); ok {
			p.loops[fs] = len(p.loops)
		}
		return true
	})
	return p, nil
}

// Eval runs the program. It panics on an out-of-range coefficient index,
// as the compiled function would.
func (p *Program) Eval(a []float64, x float64, degree int) float64 {
	v, _ := p.Run(a, x, degree)
	return v
}

// Run is Eval plus loop iteration counts.
func (p *Program) Run(a []float64, x float64, degree int) (float64, Trace) {
	env := &interpEnv{
		vars:  map[string]float64{p.params[1]: x, p.params[2]: float64(degree)},
		slice: p.params[0],
		a:     a,
		loops: p.loops,
		iters: make([]int, len(p.loops)),
	}
	v, _ := env.block(p.body)
	return v, Trace{Iterations: env.iters}
}

// checkBody rejects anything the interpreter does not model, so Run never
// silently skips a statement.
func checkBody(body *ast.BlockStmt, slice string) error {
	var err error
	ast.Inspect(body, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case nil, *ast.BlockStmt, *ast.ParenExpr, *ast.Ident:
		case *ast.ForStmt:
			if n.Cond == nil {
				err = fmt.Errorf("for loop without condition")
			}
		case *ast.AssignStmt:
			if len(n.Lhs) != len(n.Rhs) {
				err = fmt.Errorf("unbalanced assignment")
				break
			}
			for _, lhs := range n.Lhs {
				if _, ok := lhs.(*ast.Ident); !ok {
					err = fmt.Errorf("assignment to %T", lhs)
				}
			}
			switch n.Tok {
			case token.DEFINE, token.ASSIGN, token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN:
			default:
				err = fmt.Errorf("unsupported assignment %s", n.Tok)
			}
		case *ast.IncDecStmt:
			if _, ok := n.X.(*ast.Ident); !ok {
				err = fmt.Errorf("%s on %T", n.Tok, n.X)
			}
		case *ast.ReturnStmt:
			if len(n.Results) != 1 {
				err = fmt.Errorf("return with %d results", len(n.Results))
			}
		case *ast.BasicLit:
			if n.Kind != token.INT && n.Kind != token.FLOAT {
				err = fmt.Errorf("unsupported literal %s", n.Value)
			}
		case *ast.BinaryExpr:
			switch n.Op {
			case token.ADD, token.SUB, token.MUL,
				token.LSS, token.LEQ, token.GTR, token.GEQ, token.EQL, token.NEQ:
			default:
				err = fmt.Errorf("unsupported operator %s", n.Op)
			}
		case *ast.UnaryExpr:
			if n.Op != token.SUB && n.Op != token.ADD {
				err = fmt.Errorf("unsupported operator %s", n.Op)
			}
		case *ast.IndexExpr:
			if id, ok := n.X.(*ast.Ident); !ok || id.Name != slice {
				err = fmt.Errorf("indexing anything but %s", slice)
			}
		default:
			err = fmt.Errorf("unsupported %T", n)
		}
		return true
	})
	return err
}

// interpEnv holds variable values during one Run. Integers are carried as
// float64; every index the generator produces is exact in a float64.
type interpEnv struct {
	vars  map[string]float64
	slice string
	a     []float64
	loops map[*ast.ForStmt]int
	iters []int
}

func (env *interpEnv) block(b *ast.BlockStmt) (float64, bool) {
	for _, s := range b.List {
		if v, done := env.stmt(s); done {
			return v, true
		}
	}
	return 0, false
}

func (env *interpEnv) stmt(s ast.Stmt) (float64, bool) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		env.assign(s)
	case *ast.IncDecStmt:
		name := s.X.(*ast.Ident).Name
		if s.Tok == token.INC {
			env.vars[name]++
		} else {
			env.vars[name]--
		}
	case *ast.ForStmt:
		return env.loop(s)
	case *ast.ReturnStmt:
		return env.expr(s.Results[0]), true
	case *ast.BlockStmt:
		return env.block(s)
	}
	return 0, false
}

func (env *interpEnv) assign(s *ast.AssignStmt) {
	vals := make([]float64, len(s.Rhs))
	for i, rhs := range s.Rhs {
		vals[i] = env.expr(rhs)
	}
	for i, lhs := range s.Lhs {
		name := lhs.(*ast.Ident).Name
		switch s.Tok {
		case token.DEFINE, token.ASSIGN:
			env.vars[name] = vals[i]
		case token.ADD_ASSIGN:
			env.vars[name] += vals[i]
		case token.SUB_ASSIGN:
			env.vars[name] -= vals[i]
		case token.MUL_ASSIGN:
			env.vars[name] *= vals[i]
		}
	}
}

func (env *interpEnv) loop(s *ast.ForStmt) (float64, bool) {
	if s.Init != nil {
		env.stmt(s.Init)
	}
	id := env.loops[s]
	for env.expr(s.Cond) != 0 {
		env.iters[id]++
		if v, done := env.block(s.Body); done {
			return v, true
		}
		if s.Post != nil {
			env.stmt(s.Post)
		}
	}
	return 0, false
}

func (env *interpEnv) expr(e ast.Expr) float64 {
	switch e := e.(type) {
	case *ast.BasicLit:
		if e.Kind == token.INT {
			v, _ := strconv.ParseInt(e.Value, 0, 64)
			return float64(v)
		}
		v, _ := strconv.ParseFloat(e.Value, 64)
		return v
	case *ast.Ident:
		return env.vars[e.Name]
	case *ast.ParenExpr:
		return env.expr(e.X)
	case *ast.UnaryExpr:
		if e.Op == token.SUB {
			return -env.expr(e.X)
		}
		return env.expr(e.X)
	case *ast.IndexExpr:
		return env.a[int(env.expr(e.Index))]
	case *ast.BinaryExpr:
		return evalBinary(e.Op, env.expr(e.X), env.expr(e.Y))
	}
	return 0
}

func evalBinary(op token.Token, left, right float64) float64 {
	switch op {
	case token.ADD:
		return left + right
	case token.SUB:
		return left - right
	case token.MUL:
		return left * right
	}
	var ok bool
	switch op {
	case token.LSS:
		ok = left < right
	case token.LEQ:
		ok = left <= right
	case token.GTR:
		ok = left > right
	case token.GEQ:
		ok = left >= right
	case token.EQL:
		ok = left == right
	case token.NEQ:
		ok = left != right
	}
	if ok {
		return 1
	}
	return 0
}

// stripComments drops leading line comments so a file that starts with a
// "Code generated" header is still recognized as having a package clause.
func stripComments(src string) string {
	for {
		s := strings.TrimSpace(src)
		if !strings.HasPrefix(s, "//") {
			return s
		}
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			return ""
		}
		src = s[nl+1:]
	}
}
