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

package golite

import (
	"fmt"
	"go/token"
	"strconv"

	"github.com/dave/dst"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/symbolic"
)

// lowerer builds one CFG from a function body. Nested calls are hoisted into temporary
// assignments so every call appears as its own statement.
type lowerer struct {
	fr    *frontend
	g     *cfg.Graph
	types map[string]symbolic.TypeSet
	tmp   int
}

// dangling is an edge waiting for its destination statement.
type dangling struct {
	st   *cfg.Statement
	kind cfg.EdgeKind
}

func (fr *frontend) lowerFunc(fn *dst.FuncDecl) (*cfg.Graph, error) {
	desc := cfg.Descriptor{
		Name: fn.Name.Name,
		Loc:  fr.posOf(fn),
	}
	types := map[string]symbolic.TypeSet{}
	if fn.Type.Params != nil {
		for _, field := range fn.Type.Params.List {
			ts := symbolic.Types(typeName(field.Type))
			for _, name := range field.Names {
				v := symbolic.NewVariable(name.Name, ts, fr.posOf(name))
				desc.Formals = append(desc.Formals, v)
				types[name.Name] = ts
			}
		}
	}
	if fn.Type.Results != nil && len(fn.Type.Results.List) > 0 {
		desc.ReturnsValue = true
		desc.ReturnTypes = symbolic.Types(typeName(fn.Type.Results.List[0].Type))
	}

	l := &lowerer{fr: fr, g: cfg.NewGraph(desc), types: types}
	entry, outs, err := l.lowerBlock(fn.Body.List)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		sk := l.g.AddSkip(fr.posOf(fn))
		entry = sk
		outs = []dangling{{st: sk, kind: cfg.EdgeSeq}}
	}
	l.sealOuts(outs, fr.posOf(fn))
	l.g.SetEntry(entry)
	return l.g, nil
}

// sealOuts closes the dangling exits of a body: conditional exits need a join node, so
// branches always carry both their edges.
func (l *lowerer) sealOuts(outs []dangling, loc symbolic.Location) {
	needJoin := false
	for _, o := range outs {
		if o.kind != cfg.EdgeSeq {
			needJoin = true
		}
	}
	if !needJoin {
		return
	}
	exit := l.g.AddSkip(loc)
	l.connect(outs, exit)
}

func (l *lowerer) connect(outs []dangling, to *cfg.Statement) {
	for _, o := range outs {
		l.g.AddEdge(o.st, to, o.kind)
	}
}

func seqOut(st *cfg.Statement) []dangling {
	return []dangling{{st: st, kind: cfg.EdgeSeq}}
}

// lowerBlock lowers a statement list, chaining each statement's exits to the next
// statement's entry. A return ends the chain: following statements are unreachable.
func (l *lowerer) lowerBlock(stmts []dst.Stmt) (*cfg.Statement, []dangling, error) {
	var entry *cfg.Statement
	var outs []dangling
	for _, s := range stmts {
		e, o, err := l.lowerStmt(s)
		if err != nil {
			return nil, nil, err
		}
		if e == nil {
			continue
		}
		if entry == nil {
			entry = e
		} else {
			l.connect(outs, e)
		}
		outs = o
		if len(outs) == 0 {
			break
		}
	}
	return entry, outs, nil
}

//gocyclo:ignore
func (l *lowerer) lowerStmt(s dst.Stmt) (*cfg.Statement, []dangling, error) {
	loc := l.fr.posOf(s)
	switch st := s.(type) {
	case *dst.AssignStmt:
		if len(st.Lhs) != 1 || len(st.Rhs) != 1 {
			return nil, nil, cfg.Validationf("unsupported multi-assignment at %s", loc)
		}
		return l.lowerAssign(st, loc)

	case *dst.ExprStmt:
		if call, ok := st.X.(*dst.CallExpr); ok {
			if name, isPlain := plainCallee(call); isPlain && name != "new" && name != nondetName {
				var hoisted []*cfg.Statement
				args, err := l.lowerExprs(call.Args, &hoisted)
				if err != nil {
					return nil, nil, err
				}
				node := l.g.AddCall(nil, name, args, loc)
				return l.chainHoisted(hoisted, node)
			}
		}
		var hoisted []*cfg.Statement
		e, err := l.lowerExpr(st.X, &hoisted)
		if err != nil {
			return nil, nil, err
		}
		node := l.g.AddEval(e, loc)
		return l.chainHoisted(hoisted, node)

	case *dst.ReturnStmt:
		if len(st.Results) > 1 {
			return nil, nil, cfg.Validationf("unsupported multi-value return at %s", loc)
		}
		var hoisted []*cfg.Statement
		var e symbolic.Expression
		if len(st.Results) == 1 {
			var err error
			e, err = l.lowerExpr(st.Results[0], &hoisted)
			if err != nil {
				return nil, nil, err
			}
		}
		node := l.g.AddReturn(e, loc)
		entry, _, err := l.chainHoisted(hoisted, node)
		return entry, nil, err

	case *dst.IfStmt:
		return l.lowerIf(st, loc)

	case *dst.ForStmt:
		return l.lowerFor(st, loc)

	case *dst.BlockStmt:
		return l.lowerBlock(st.List)

	case *dst.DeclStmt:
		return l.lowerDecl(st, loc)

	case *dst.EmptyStmt:
		node := l.g.AddSkip(loc)
		return node, seqOut(node), nil

	default:
		return nil, nil, cfg.Validationf("unsupported statement %T at %s", s, loc)
	}
}

// chainHoisted wires the hoisted call statements before node, in order.
func (l *lowerer) chainHoisted(hoisted []*cfg.Statement, node *cfg.Statement) (*cfg.Statement, []dangling, error) {
	entry := node
	if len(hoisted) > 0 {
		entry = hoisted[0]
		for i := 0; i+1 < len(hoisted); i++ {
			l.g.AddEdge(hoisted[i], hoisted[i+1], cfg.EdgeSeq)
		}
		l.g.AddEdge(hoisted[len(hoisted)-1], node, cfg.EdgeSeq)
	}
	return entry, seqOut(node), nil
}

func (l *lowerer) lowerAssign(st *dst.AssignStmt, loc symbolic.Location) (*cfg.Statement, []dangling, error) {
	rhs := st.Rhs[0]
	if ident, ok := st.Lhs[0].(*dst.Ident); ok {
		l.types[ident.Name] = l.typeOfExpr(rhs)
	}
	target, err := l.lowerLValue(st.Lhs[0])
	if err != nil {
		return nil, nil, err
	}

	if call, ok := rhs.(*dst.CallExpr); ok {
		if name, isPlain := plainCallee(call); isPlain && name != "new" && name != nondetName {
			var hoisted []*cfg.Statement
			args, err := l.lowerExprs(call.Args, &hoisted)
			if err != nil {
				return nil, nil, err
			}
			node := l.g.AddCall(target, name, args, loc)
			return l.chainHoisted(hoisted, node)
		}
	}

	var hoisted []*cfg.Statement
	e, err := l.lowerExpr(rhs, &hoisted)
	if err != nil {
		return nil, nil, err
	}
	node := l.g.AddAssign(target, e, loc)
	return l.chainHoisted(hoisted, node)
}

func (l *lowerer) lowerIf(st *dst.IfStmt, loc symbolic.Location) (*cfg.Statement, []dangling, error) {
	if st.Init != nil {
		return nil, nil, cfg.Validationf("unsupported if-statement initializer at %s", loc)
	}
	var hoisted []*cfg.Statement
	cond, err := l.lowerExpr(st.Cond, &hoisted)
	if err != nil {
		return nil, nil, err
	}
	branch := l.g.AddBranch(cond, loc)
	entry, _, err := l.chainHoisted(hoisted, branch)
	if err != nil {
		return nil, nil, err
	}

	thenEntry, thenOuts, err := l.lowerBlock(st.Body.List)
	if err != nil {
		return nil, nil, err
	}
	if thenEntry == nil {
		thenEntry = l.g.AddSkip(loc)
		thenOuts = seqOut(thenEntry)
	}
	l.g.AddEdge(branch, thenEntry, cfg.EdgeTrue)

	var outs []dangling
	if st.Else != nil {
		elseEntry, elseOuts, err := l.lowerStmt(st.Else)
		if err != nil {
			return nil, nil, err
		}
		if elseEntry == nil {
			elseEntry = l.g.AddSkip(loc)
			elseOuts = seqOut(elseEntry)
		}
		l.g.AddEdge(branch, elseEntry, cfg.EdgeFalse)
		outs = append(append(outs, thenOuts...), elseOuts...)
	} else {
		outs = append(thenOuts, dangling{st: branch, kind: cfg.EdgeFalse})
	}
	return entry, outs, nil
}

func (l *lowerer) lowerFor(st *dst.ForStmt, loc symbolic.Location) (*cfg.Statement, []dangling, error) {
	var entry *cfg.Statement
	var preOuts []dangling
	if st.Init != nil {
		var err error
		entry, preOuts, err = l.lowerStmt(st.Init)
		if err != nil {
			return nil, nil, err
		}
	}

	var hoisted []*cfg.Statement
	var cond symbolic.Expression
	if st.Cond != nil {
		var err error
		cond, err = l.lowerExpr(st.Cond, &hoisted)
		if err != nil {
			return nil, nil, err
		}
	} else {
		cond = symbolic.BoolConst(true)
	}
	branch := l.g.AddBranch(cond, loc)
	condEntry, _, err := l.chainHoisted(hoisted, branch)
	if err != nil {
		return nil, nil, err
	}
	if entry == nil {
		entry = condEntry
	} else {
		l.connect(preOuts, condEntry)
	}

	bodyEntry, bodyOuts, err := l.lowerBlock(st.Body.List)
	if err != nil {
		return nil, nil, err
	}
	if bodyEntry == nil {
		bodyEntry = l.g.AddSkip(loc)
		bodyOuts = seqOut(bodyEntry)
	}
	l.g.AddEdge(branch, bodyEntry, cfg.EdgeTrue)

	if st.Post != nil {
		postEntry, postOuts, err := l.lowerStmt(st.Post)
		if err != nil {
			return nil, nil, err
		}
		l.connect(bodyOuts, postEntry)
		bodyOuts = postOuts
	}
	l.connect(bodyOuts, condEntry)

	return entry, []dangling{{st: branch, kind: cfg.EdgeFalse}}, nil
}

func (l *lowerer) lowerDecl(st *dst.DeclStmt, loc symbolic.Location) (*cfg.Statement, []dangling, error) {
	gen, ok := st.Decl.(*dst.GenDecl)
	if !ok || gen.Tok != token.VAR {
		return nil, nil, cfg.Validationf("unsupported declaration at %s", loc)
	}
	var entry *cfg.Statement
	var outs []dangling
	for _, spec := range gen.Specs {
		vs, ok := spec.(*dst.ValueSpec)
		if !ok {
			continue
		}
		ts := symbolic.AnyType
		if vs.Type != nil {
			ts = symbolic.Types(typeName(vs.Type))
		}
		for i, name := range vs.Names {
			l.types[name.Name] = ts
			target := symbolic.NewVariable(name.Name, ts, l.fr.posOf(name))
			var rhs symbolic.Expression
			var hoisted []*cfg.Statement
			if i < len(vs.Values) {
				var err error
				rhs, err = l.lowerExpr(vs.Values[i], &hoisted)
				if err != nil {
					return nil, nil, err
				}
			} else {
				rhs = zeroValue(ts)
			}
			node := l.g.AddAssign(target, rhs, loc)
			e, o, err := l.chainHoisted(hoisted, node)
			if err != nil {
				return nil, nil, err
			}
			if entry == nil {
				entry = e
			} else {
				l.connect(outs, e)
			}
			outs = o
		}
	}
	return entry, outs, nil
}

// nondetName is the predeclared non-deterministic value function.
const nondetName = "nondet"

// plainCallee returns the name of a direct call target.
func plainCallee(call *dst.CallExpr) (string, bool) {
	if ident, ok := call.Fun.(*dst.Ident); ok {
		return ident.Name, true
	}
	return "", false
}

func (l *lowerer) freshTmp(ts symbolic.TypeSet, loc symbolic.Location) *symbolic.Variable {
	l.tmp++
	return symbolic.NewVariable(fmt.Sprintf("tmp$%d", l.tmp), ts, loc)
}

func (l *lowerer) lowerExprs(exprs []dst.Expr, hoisted *[]*cfg.Statement) ([]symbolic.Expression, error) {
	var out []symbolic.Expression
	for _, e := range exprs {
		le, err := l.lowerExpr(e, hoisted)
		if err != nil {
			return nil, err
		}
		out = append(out, le)
	}
	return out, nil
}

//gocyclo:ignore
func (l *lowerer) lowerExpr(e dst.Expr, hoisted *[]*cfg.Statement) (symbolic.Expression, error) {
	loc := l.fr.posOf(e)
	switch x := e.(type) {
	case *dst.ParenExpr:
		return l.lowerExpr(x.X, hoisted)

	case *dst.BasicLit:
		switch x.Kind {
		case token.INT:
			v, err := strconv.ParseInt(x.Value, 0, 64)
			if err != nil {
				return nil, cfg.Validationf("bad integer literal %s at %s", x.Value, loc)
			}
			return symbolic.IntConst(v), nil
		case token.STRING:
			s, err := strconv.Unquote(x.Value)
			if err != nil {
				return nil, cfg.Validationf("bad string literal at %s", loc)
			}
			return symbolic.NewConstant(symbolic.Types("string"), s), nil
		}
		return nil, cfg.Validationf("unsupported literal %s at %s", x.Value, loc)

	case *dst.Ident:
		switch x.Name {
		case "true":
			return symbolic.BoolConst(true), nil
		case "false":
			return symbolic.BoolConst(false), nil
		}
		return symbolic.NewVariable(x.Name, l.varTypes(x.Name), loc), nil

	case *dst.BinaryExpr:
		op, ok := binaryOps[x.Op]
		if !ok {
			return nil, cfg.Validationf("unsupported operator %s at %s", x.Op, loc)
		}
		left, err := l.lowerExpr(x.X, hoisted)
		if err != nil {
			return nil, err
		}
		right, err := l.lowerExpr(x.Y, hoisted)
		if err != nil {
			return nil, err
		}
		ts := left.StaticTypes().Union(right.StaticTypes())
		if op.IsComparison() || op == symbolic.And || op == symbolic.Or {
			ts = symbolic.Types("bool")
		}
		return symbolic.NewBinary(op, left, right, ts), nil

	case *dst.UnaryExpr:
		switch x.Op {
		case token.SUB:
			arg, err := l.lowerExpr(x.X, hoisted)
			if err != nil {
				return nil, err
			}
			return symbolic.NewUnary(symbolic.Neg, arg, arg.StaticTypes()), nil
		case token.NOT:
			arg, err := l.lowerExpr(x.X, hoisted)
			if err != nil {
				return nil, err
			}
			return symbolic.NewUnary(symbolic.Not, arg, symbolic.Types("bool")), nil
		case token.AND:
			arg, err := l.lowerExpr(x.X, hoisted)
			if err != nil {
				return nil, err
			}
			return symbolic.NewHeapReference(arg, symbolic.AnyType), nil
		}
		return nil, cfg.Validationf("unsupported unary operator %s at %s", x.Op, loc)

	case *dst.StarExpr:
		inner, err := l.lowerExpr(x.X, hoisted)
		if err != nil {
			return nil, err
		}
		return symbolic.NewHeapDereference(inner, symbolic.AnyType), nil

	case *dst.SelectorExpr:
		recv, err := l.lowerExpr(x.X, hoisted)
		if err != nil {
			return nil, err
		}
		field := symbolic.NewConstant(symbolic.Types("string"), x.Sel.Name)
		return symbolic.NewAccessChild(recv, field, symbolic.AnyType), nil

	case *dst.CallExpr:
		name, isPlain := plainCallee(x)
		if !isPlain {
			return nil, cfg.Validationf("unsupported indirect call at %s", loc)
		}
		switch name {
		case "new":
			if len(x.Args) != 1 {
				return nil, cfg.Validationf("new expects one type argument at %s", loc)
			}
			tn := typeName(x.Args[0])
			alloc := symbolic.NewHeapAllocation(symbolic.Types(tn))
			return symbolic.NewHeapReference(alloc, symbolic.Types("*"+tn)), nil
		case nondetName:
			return symbolic.NewNondet(symbolic.AnyType), nil
		}
		// Hoist the nested call into a temporary assignment.
		args, err := l.lowerExprs(x.Args, hoisted)
		if err != nil {
			return nil, err
		}
		tmp := l.freshTmp(symbolic.AnyType, loc)
		*hoisted = append(*hoisted, l.g.AddCall(tmp, name, args, loc))
		return tmp, nil

	default:
		return nil, cfg.Validationf("unsupported expression %T at %s", e, loc)
	}
}

func (l *lowerer) lowerLValue(e dst.Expr) (symbolic.Expression, error) {
	var hoisted []*cfg.Statement
	target, err := l.lowerExpr(e, &hoisted)
	if err != nil {
		return nil, err
	}
	if len(hoisted) > 0 {
		return nil, cfg.Validationf("calls are not allowed in assignment targets at %s", l.fr.posOf(e))
	}
	return target, nil
}

func (l *lowerer) varTypes(name string) symbolic.TypeSet {
	if ts, ok := l.types[name]; ok {
		return ts
	}
	return symbolic.AnyType
}

func (l *lowerer) typeOfExpr(e dst.Expr) symbolic.TypeSet {
	switch x := e.(type) {
	case *dst.BasicLit:
		switch x.Kind {
		case token.INT:
			return symbolic.Types("int")
		case token.STRING:
			return symbolic.Types("string")
		}
	case *dst.Ident:
		if x.Name == "true" || x.Name == "false" {
			return symbolic.Types("bool")
		}
		return l.varTypes(x.Name)
	case *dst.BinaryExpr:
		if op, ok := binaryOps[x.Op]; ok {
			if op.IsComparison() || op == symbolic.And || op == symbolic.Or {
				return symbolic.Types("bool")
			}
		}
		return l.typeOfExpr(x.X)
	case *dst.UnaryExpr:
		if x.Op == token.NOT {
			return symbolic.Types("bool")
		}
		return l.typeOfExpr(x.X)
	case *dst.CallExpr:
		if name, ok := plainCallee(x); ok && name == "new" && len(x.Args) == 1 {
			return symbolic.Types("*" + typeName(x.Args[0]))
		}
	case *dst.ParenExpr:
		return l.typeOfExpr(x.X)
	}
	return symbolic.AnyType
}

func zeroValue(ts symbolic.TypeSet) symbolic.Expression {
	switch {
	case ts.Has("int"):
		return symbolic.IntConst(0)
	case ts.Has("bool"):
		return symbolic.BoolConst(false)
	default:
		return symbolic.NewNondet(ts)
	}
}
