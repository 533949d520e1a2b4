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

// Package domains provides the value and type abstractions shipped with the engine: signs,
// constant propagation, intervals, reaching definitions and static types. All but reaching
// definitions are non-relational domains built on the BaseValue adapter.
package domains

import (
	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/lattice"
	"github.com/argus-static/argus/analysis/symbolic"
)

// BaseValue is the capability of a single-variable abstraction: a lattice element that
// evaluates constants and operators. The Env adapter lifts it to a full value domain.
type BaseValue[V any] interface {
	lattice.Element[V]

	// EvalConstant abstracts a literal
	EvalConstant(c *symbolic.Constant) V

	// EvalUnary abstracts a unary application on the abstraction of the argument
	EvalUnary(op symbolic.UnaryOperator, arg V) V

	// EvalBinary abstracts a binary application
	EvalBinary(op symbolic.BinaryOperator, left, right V) V

	// EvalTernary abstracts a ternary application
	EvalTernary(op symbolic.TernaryOperator, a, b, c V) V
}

// Refiner is the optional refinement capability: Refine returns the part of the receiver
// compatible with `receiver op bound`. Implementations may return the receiver unchanged;
// a bottom result marks the branch unreachable.
type Refiner[V any] interface {
	Refine(op symbolic.BinaryOperator, bound V) V
}

// Comparer is the optional decision capability for comparisons between abstractions.
type Comparer[V any] interface {
	Compare(op symbolic.BinaryOperator, other V) abstract.Satisfiability
}

// Env lifts a BaseValue into a non-relational value domain: a pointwise environment from
// identifiers to base elements, with expression evaluation, branch refinement and
// replacement application.
type Env[V BaseValue[V]] struct {
	w   V
	env lattice.Environment[V]
}

// NewEnv returns the empty environment over the base lattice of the witness.
func NewEnv[V BaseValue[V]](witness V) Env[V] {
	return Env[V]{w: witness, env: lattice.NewEnvironment(witness)}
}

// Environment exposes the underlying environment.
func (d Env[V]) Environment() lattice.Environment[V] { return d.env }

// GetState returns the abstraction of id.
func (d Env[V]) GetState(id symbolic.Identifier) V { return d.env.GetState(id) }

func (d Env[V]) with(env lattice.Environment[V]) Env[V] {
	return Env[V]{w: d.w, env: env}
}

// Eval evaluates a value-level expression in the environment.
func (d Env[V]) Eval(expr symbolic.Expression) V {
	switch e := expr.(type) {
	case *symbolic.Constant:
		return d.w.EvalConstant(e)
	case *symbolic.Nondet:
		return d.w.Top()
	case symbolic.Identifier:
		return d.env.GetState(e)
	case *symbolic.UnaryExpr:
		return d.w.EvalUnary(e.Op, d.Eval(e.Arg))
	case *symbolic.BinaryExpr:
		return d.w.EvalBinary(e.Op, d.Eval(e.Left), d.Eval(e.Right))
	case *symbolic.TernaryExpr:
		return d.w.EvalTernary(e.Op, d.Eval(e.A), d.Eval(e.B), d.Eval(e.C))
	default:
		return d.w.Top()
	}
}

// Assign implements abstract.Domain.
func (d Env[V]) Assign(id symbolic.Identifier, expr symbolic.Expression, pp symbolic.ProgramPoint) (Env[V], error) {
	return d.with(d.env.Assign(id, d.Eval(expr))), nil
}

// SmallStepSemantics implements abstract.Domain: evaluation does not change the
// environment.
func (d Env[V]) SmallStepSemantics(expr symbolic.Expression, pp symbolic.ProgramPoint) (Env[V], error) {
	return d, nil
}

// Assume implements abstract.Domain: conditions refine the abstractions of the
// identifiers they compare, when the base lattice supports refinement.
func (d Env[V]) Assume(expr symbolic.Expression, src, dst symbolic.ProgramPoint) (Env[V], error) {
	return d.assume(expr), nil
}

func (d Env[V]) assume(expr symbolic.Expression) Env[V] {
	switch e := expr.(type) {
	case *symbolic.Constant:
		if b, ok := e.Value.(bool); ok && !b {
			return d.with(d.env.Bottom())
		}
		return d
	case *symbolic.UnaryExpr:
		if e.Op == symbolic.Not {
			return d.assumeNegation(e.Arg)
		}
		return d
	case *symbolic.BinaryExpr:
		switch {
		case e.Op == symbolic.And:
			return d.assume(e.Left).assume(e.Right)
		case e.Op == symbolic.Or:
			l := d.assume(e.Left)
			r := d.assume(e.Right)
			return d.with(l.env.Lub(r.env))
		case e.Op.IsComparison():
			return d.assumeComparison(e)
		}
	}
	return d
}

func (d Env[V]) assumeNegation(expr symbolic.Expression) Env[V] {
	switch e := expr.(type) {
	case *symbolic.Constant:
		if b, ok := e.Value.(bool); ok && b {
			return d.with(d.env.Bottom())
		}
		return d
	case *symbolic.UnaryExpr:
		if e.Op == symbolic.Not {
			return d.assume(e.Arg)
		}
		return d
	case *symbolic.BinaryExpr:
		if neg, ok := e.Op.Negate(); ok {
			return d.assumeComparison(symbolic.NewBinary(neg, e.Left, e.Right, e.StaticTypes()))
		}
		switch e.Op {
		case symbolic.And:
			// !(a && b) == !a || !b
			l := d.assumeNegation(e.Left)
			r := d.assumeNegation(e.Right)
			return d.with(l.env.Lub(r.env))
		case symbolic.Or:
			return d.assumeNegation(e.Left).assumeNegation(e.Right)
		}
	}
	return d
}

func (d Env[V]) assumeComparison(e *symbolic.BinaryExpr) Env[V] {
	lv := d.Eval(e.Left)
	rv := d.Eval(e.Right)
	if cmp, ok := any(lv).(Comparer[V]); ok {
		if cmp.Compare(e.Op, rv) == abstract.NotSatisfied {
			return d.with(d.env.Bottom())
		}
	}
	out := d.env
	if id, ok := e.Left.(symbolic.Identifier); ok && !id.IsWeak() {
		if ref, can := any(lv).(Refiner[V]); can {
			refined := ref.Refine(e.Op, rv)
			if refined.IsBottom() {
				return d.with(d.env.Bottom())
			}
			out = out.Assign(id, refined)
		}
	}
	if id, ok := e.Right.(symbolic.Identifier); ok && !id.IsWeak() {
		if ref, can := any(rv).(Refiner[V]); can {
			refined := ref.Refine(e.Op.Flip(), lv)
			if refined.IsBottom() {
				return d.with(d.env.Bottom())
			}
			out = out.Assign(id, refined)
		}
	}
	return d.with(out)
}

// Satisfies implements abstract.Domain.
func (d Env[V]) Satisfies(expr symbolic.Expression, pp symbolic.ProgramPoint) abstract.Satisfiability {
	switch e := expr.(type) {
	case *symbolic.Constant:
		if b, ok := e.Value.(bool); ok {
			if b {
				return abstract.Satisfied
			}
			return abstract.NotSatisfied
		}
	case *symbolic.UnaryExpr:
		if e.Op == symbolic.Not {
			return d.Satisfies(e.Arg, pp).Negate()
		}
	case *symbolic.BinaryExpr:
		switch {
		case e.Op == symbolic.And:
			return d.Satisfies(e.Left, pp).And(d.Satisfies(e.Right, pp))
		case e.Op == symbolic.Or:
			return d.Satisfies(e.Left, pp).Or(d.Satisfies(e.Right, pp))
		case e.Op.IsComparison():
			lv := d.Eval(e.Left)
			if cmp, ok := any(lv).(Comparer[V]); ok {
				return cmp.Compare(e.Op, d.Eval(e.Right))
			}
		}
	}
	return abstract.Unknown
}

// ApplyReplacement implements abstract.ValueDomain: targets receive the join of the
// sources' images (joined with their own state when weak), and sources that are not
// targets are forgotten.
func (d Env[V]) ApplyReplacement(r abstract.Replacement) (Env[V], error) {
	joined := d.w.Bottom()
	for _, s := range r.Sources {
		joined = joined.Lub(d.env.GetState(s))
	}
	out := d.env
	targets := map[string]bool{}
	for _, t := range r.Targets {
		targets[t.Name()] = true
		out = out.Assign(t, joined)
	}
	for _, s := range r.Sources {
		if !targets[s.Name()] {
			out = out.Forget(s)
		}
	}
	return d.with(out), nil
}

// PushScope implements abstract.Domain.
func (d Env[V]) PushScope(t symbolic.ScopeToken) (Env[V], error) {
	env, err := d.env.PushScope(t)
	if err != nil {
		return d, err
	}
	return d.with(env), nil
}

// PopScope implements abstract.Domain.
func (d Env[V]) PopScope(t symbolic.ScopeToken) (Env[V], error) {
	env, err := d.env.PopScope(t)
	if err != nil {
		return d, err
	}
	return d.with(env), nil
}

// Forget implements abstract.Domain.
func (d Env[V]) Forget(id symbolic.Identifier) (Env[V], error) {
	return d.with(d.env.Forget(id)), nil
}

// ForgetIf implements abstract.Domain.
func (d Env[V]) ForgetIf(pred func(symbolic.Identifier) bool) (Env[V], error) {
	return d.with(d.env.ForgetIf(pred)), nil
}

// Top implements Element.
func (d Env[V]) Top() Env[V] { return d.with(d.env.Top()) }

// Bottom implements Element.
func (d Env[V]) Bottom() Env[V] { return d.with(d.env.Bottom()) }

// IsTop implements Element.
func (d Env[V]) IsTop() bool { return d.env.IsTop() }

// IsBottom implements Element.
func (d Env[V]) IsBottom() bool { return d.env.IsBottom() }

// LessOrEqual implements Element.
func (d Env[V]) LessOrEqual(other Env[V]) bool { return d.env.LessOrEqual(other.env) }

// Equal implements Element.
func (d Env[V]) Equal(other Env[V]) bool { return d.env.Equal(other.env) }

// Lub implements Element.
func (d Env[V]) Lub(other Env[V]) Env[V] { return d.with(d.env.Lub(other.env)) }

// Glb implements Element.
func (d Env[V]) Glb(other Env[V]) Env[V] { return d.with(d.env.Glb(other.env)) }

// Widening implements Element.
func (d Env[V]) Widening(other Env[V]) Env[V] { return d.with(d.env.Widening(other.env)) }

// Narrowing implements Element.
func (d Env[V]) Narrowing(other Env[V]) Env[V] { return d.with(d.env.Narrowing(other.env)) }

func (d Env[V]) String() string { return d.env.String() }
