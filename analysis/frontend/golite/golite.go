// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package golite is the reference frontend of the engine: it lowers a small imperative
// subset of Go (assignments, if/else, for loops, calls, new, field and pointer accesses,
// returns) into symbolic-expression CFGs. Sources are parsed with go/parser and
// normalized on the decorated syntax tree before lowering: increment/decrement and
// op-assignments become plain assignments. The predeclared nondet() stands for a
// non-deterministic value.
package golite

import (
	"go/parser"
	"go/token"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/dstutil"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/symbolic"
)

// frontend carries the parsing state shared by the lowering of one file.
type frontend struct {
	fset *token.FileSet
	dec  *decorator.Decorator
	// synthesized maps desugared nodes to the location of the node they replaced
	synthesized map[dst.Node]symbolic.Location
}

// ParseFile lowers a Go-subset source file into a program of CFGs. The program's entry
// point is main when present, every function otherwise.
func ParseFile(filename string, src any) (*cfg.Program, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, 0)
	if err != nil {
		return nil, cfg.Validationf("cannot parse %s: %v", filename, err)
	}
	dec := decorator.NewDecorator(fset)
	df, err := dec.DecorateFile(f)
	if err != nil {
		return nil, cfg.Validationf("cannot decorate %s: %v", filename, err)
	}
	fr := &frontend{fset: fset, dec: dec, synthesized: map[dst.Node]symbolic.Location{}}
	fr.desugar(df)

	prog := cfg.NewProgram()
	for _, decl := range df.Decls {
		fn, ok := decl.(*dst.FuncDecl)
		if !ok {
			continue
		}
		g, err := fr.lowerFunc(fn)
		if err != nil {
			return nil, err
		}
		prog.AddGraph(g)
	}
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	if _, ok := prog.Graph("main"); ok {
		prog.SetEntryPoints("main")
	}
	return prog, nil
}

// posOf recovers the source location of a node: through the decorator for parsed nodes,
// through the synthesized map for desugared ones.
func (fr *frontend) posOf(n dst.Node) symbolic.Location {
	if astNode, ok := fr.dec.Map.Ast.Nodes[n]; ok {
		p := fr.fset.Position(astNode.Pos())
		return symbolic.Location{File: p.Filename, Line: p.Line, Col: p.Column}
	}
	if loc, ok := fr.synthesized[n]; ok {
		return loc
	}
	return symbolic.Location{}
}

// desugar normalizes the decorated tree: x++ and x-- become x = x ± 1, and op-assignments
// (x += e) become plain assignments. Synthesized nodes inherit the location of the node
// they replace.
func (fr *frontend) desugar(f *dst.File) {
	dstutil.Apply(f, nil, func(c *dstutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *dst.IncDecStmt:
			op := token.ADD
			if n.Tok == token.DEC {
				op = token.SUB
			}
			repl := &dst.AssignStmt{
				Lhs: []dst.Expr{dst.Clone(n.X).(dst.Expr)},
				Tok: token.ASSIGN,
				Rhs: []dst.Expr{&dst.BinaryExpr{
					X:  dst.Clone(n.X).(dst.Expr),
					Op: op,
					Y:  &dst.BasicLit{Kind: token.INT, Value: "1"},
				}},
			}
			fr.recordSynthesized(repl, fr.posOf(n))
			c.Replace(repl)
		case *dst.AssignStmt:
			if op, ok := opAssignToken(n.Tok); ok && len(n.Lhs) == 1 && len(n.Rhs) == 1 {
				repl := &dst.AssignStmt{
					Lhs: []dst.Expr{dst.Clone(n.Lhs[0]).(dst.Expr)},
					Tok: token.ASSIGN,
					Rhs: []dst.Expr{&dst.BinaryExpr{
						X:  dst.Clone(n.Lhs[0]).(dst.Expr),
						Op: op,
						Y:  dst.Clone(n.Rhs[0]).(dst.Expr),
					}},
				}
				fr.recordSynthesized(repl, fr.posOf(n))
				c.Replace(repl)
			}
		}
		return true
	})
}

// recordSynthesized attaches loc to the node and its whole subtree.
func (fr *frontend) recordSynthesized(n dst.Node, loc symbolic.Location) {
	dst.Inspect(n, func(child dst.Node) bool {
		if child != nil {
			fr.synthesized[child] = loc
		}
		return true
	})
}

func opAssignToken(tok token.Token) (token.Token, bool) {
	switch tok {
	case token.ADD_ASSIGN:
		return token.ADD, true
	case token.SUB_ASSIGN:
		return token.SUB, true
	case token.MUL_ASSIGN:
		return token.MUL, true
	case token.QUO_ASSIGN:
		return token.QUO, true
	case token.REM_ASSIGN:
		return token.REM, true
	}
	return tok, false
}

// typeName renders a type expression into the name the engine's type sets use.
func typeName(e dst.Expr) string {
	switch t := e.(type) {
	case *dst.Ident:
		return t.Name
	case *dst.StarExpr:
		return "*" + typeName(t.X)
	}
	return "any"
}

var binaryOps = map[token.Token]symbolic.BinaryOperator{
	token.ADD:  symbolic.Add,
	token.SUB:  symbolic.Sub,
	token.MUL:  symbolic.Mul,
	token.QUO:  symbolic.Div,
	token.REM:  symbolic.Mod,
	token.EQL:  symbolic.Eq,
	token.NEQ:  symbolic.Ne,
	token.LSS:  symbolic.Lt,
	token.LEQ:  symbolic.Le,
	token.GTR:  symbolic.Gt,
	token.GEQ:  symbolic.Ge,
	token.LAND: symbolic.And,
	token.LOR:  symbolic.Or,
}
