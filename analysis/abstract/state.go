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

package abstract

import (
	"github.com/argus-static/argus/analysis/symbolic"
)

// SimpleState is the composite abstract state: the product of a heap, a value and a type
// domain acting as a single lattice and semantic domain. Every transition runs the heap
// first (it may rename identifiers through replacements), then threads the heap's
// rewritten expressions and replacements into the value and type components.
type SimpleState[H HeapDomain[H], V ValueDomain[V], T ValueDomain[T]] struct {
	Heap   H
	Values V
	Types  T
}

// NewSimpleState builds the composite state of the three components.
func NewSimpleState[H HeapDomain[H], V ValueDomain[V], T ValueDomain[T]](h H, v V, t T) SimpleState[H, V, T] {
	return SimpleState[H, V, T]{Heap: h, Values: v, Types: t}
}

// applyReplacements threads the heap's pending substitutions into the value and type
// components.
func (s SimpleState[H, V, T]) applyReplacements(h H, v V, t T) (V, T, error) {
	for _, r := range h.Replacements() {
		if r.IsIdentity() {
			continue
		}
		var err error
		if v, err = v.ApplyReplacement(r); err != nil {
			return v, t, err
		}
		if t, err = t.ApplyReplacement(r); err != nil {
			return v, t, err
		}
	}
	return v, t, nil
}

// Rewrite implements AbstractState by delegating to the heap component.
func (s SimpleState[H, V, T]) Rewrite(expr symbolic.Expression, pp symbolic.ProgramPoint) (symbolic.ExpressionSet, error) {
	return s.Heap.Rewrite(expr, pp)
}

// Assign implements Domain.
func (s SimpleState[H, V, T]) Assign(id symbolic.Identifier, expr symbolic.Expression, pp symbolic.ProgramPoint) (SimpleState[H, V, T], error) {
	h, err := s.Heap.Assign(id, expr, pp)
	if err != nil {
		return s, err
	}
	v, t, err := s.applyReplacements(h, s.Values, s.Types)
	if err != nil {
		return s, err
	}
	rewritten, err := h.Rewrite(expr, pp)
	if err != nil {
		return s, err
	}
	if rewritten.IsEmpty() {
		return s, Semanticf("assignment to %s rewrote to no expression at %s", id, pp)
	}
	accV := v.Bottom()
	accT := t.Bottom()
	for _, ve := range rewritten.Elements() {
		vi, err := v.Assign(id, ve, pp)
		if err != nil {
			return s, err
		}
		accV = accV.Lub(vi)
		ti, err := t.Assign(id, ve, pp)
		if err != nil {
			return s, err
		}
		accT = accT.Lub(ti)
	}
	return SimpleState[H, V, T]{Heap: h, Values: accV, Types: accT}, nil
}

// SmallStepSemantics implements Domain.
func (s SimpleState[H, V, T]) SmallStepSemantics(expr symbolic.Expression, pp symbolic.ProgramPoint) (SimpleState[H, V, T], error) {
	h, err := s.Heap.SmallStepSemantics(expr, pp)
	if err != nil {
		return s, err
	}
	v, t, err := s.applyReplacements(h, s.Values, s.Types)
	if err != nil {
		return s, err
	}
	rewritten, err := h.Rewrite(expr, pp)
	if err != nil {
		return s, err
	}
	accV := v.Bottom()
	accT := t.Bottom()
	for _, ve := range rewritten.Elements() {
		vi, err := v.SmallStepSemantics(ve, pp)
		if err != nil {
			return s, err
		}
		accV = accV.Lub(vi)
		ti, err := t.SmallStepSemantics(ve, pp)
		if err != nil {
			return s, err
		}
		accT = accT.Lub(ti)
	}
	if rewritten.IsEmpty() {
		accV, accT = v, t
	}
	return SimpleState[H, V, T]{Heap: h, Values: accV, Types: accT}, nil
}

// Assume implements Domain.
func (s SimpleState[H, V, T]) Assume(expr symbolic.Expression, src, dst symbolic.ProgramPoint) (SimpleState[H, V, T], error) {
	h, err := s.Heap.Assume(expr, src, dst)
	if err != nil {
		return s, err
	}
	v, t, err := s.applyReplacements(h, s.Values, s.Types)
	if err != nil {
		return s, err
	}
	rewritten, err := h.Rewrite(expr, src)
	if err != nil {
		return s, err
	}
	accV := v.Bottom()
	accT := t.Bottom()
	for _, ve := range rewritten.Elements() {
		vi, err := v.Assume(ve, src, dst)
		if err != nil {
			return s, err
		}
		accV = accV.Lub(vi)
		ti, err := t.Assume(ve, src, dst)
		if err != nil {
			return s, err
		}
		accT = accT.Lub(ti)
	}
	if rewritten.IsEmpty() {
		accV, accT = v, t
	}
	return SimpleState[H, V, T]{Heap: h, Values: accV, Types: accT}, nil
}

// Satisfies implements Domain: the components must agree; alternative rewritings join.
func (s SimpleState[H, V, T]) Satisfies(expr symbolic.Expression, pp symbolic.ProgramPoint) Satisfiability {
	rewritten, err := s.Heap.Rewrite(expr, pp)
	if err != nil {
		return Unknown
	}
	sat := s.Heap.Satisfies(expr, pp)
	first := true
	var valSat Satisfiability
	for _, ve := range rewritten.Elements() {
		cur := s.Values.Satisfies(ve, pp).And(s.Types.Satisfies(ve, pp))
		if first {
			valSat, first = cur, false
		} else {
			valSat = valSat.Join(cur)
		}
	}
	if first {
		return sat
	}
	return sat.And(valSat)
}

// PushScope implements Domain.
func (s SimpleState[H, V, T]) PushScope(tok symbolic.ScopeToken) (SimpleState[H, V, T], error) {
	h, err := s.Heap.PushScope(tok)
	if err != nil {
		return s, err
	}
	v, err := s.Values.PushScope(tok)
	if err != nil {
		return s, err
	}
	t, err := s.Types.PushScope(tok)
	if err != nil {
		return s, err
	}
	return SimpleState[H, V, T]{Heap: h, Values: v, Types: t}, nil
}

// PopScope implements Domain.
func (s SimpleState[H, V, T]) PopScope(tok symbolic.ScopeToken) (SimpleState[H, V, T], error) {
	h, err := s.Heap.PopScope(tok)
	if err != nil {
		return s, err
	}
	v, err := s.Values.PopScope(tok)
	if err != nil {
		return s, err
	}
	t, err := s.Types.PopScope(tok)
	if err != nil {
		return s, err
	}
	return SimpleState[H, V, T]{Heap: h, Values: v, Types: t}, nil
}

// Forget implements Domain.
func (s SimpleState[H, V, T]) Forget(id symbolic.Identifier) (SimpleState[H, V, T], error) {
	h, err := s.Heap.Forget(id)
	if err != nil {
		return s, err
	}
	v, err := s.Values.Forget(id)
	if err != nil {
		return s, err
	}
	t, err := s.Types.Forget(id)
	if err != nil {
		return s, err
	}
	return SimpleState[H, V, T]{Heap: h, Values: v, Types: t}, nil
}

// ForgetIf implements Domain.
func (s SimpleState[H, V, T]) ForgetIf(pred func(symbolic.Identifier) bool) (SimpleState[H, V, T], error) {
	h, err := s.Heap.ForgetIf(pred)
	if err != nil {
		return s, err
	}
	v, err := s.Values.ForgetIf(pred)
	if err != nil {
		return s, err
	}
	t, err := s.Types.ForgetIf(pred)
	if err != nil {
		return s, err
	}
	return SimpleState[H, V, T]{Heap: h, Values: v, Types: t}, nil
}

// Top implements Element.
func (s SimpleState[H, V, T]) Top() SimpleState[H, V, T] {
	return SimpleState[H, V, T]{Heap: s.Heap.Top(), Values: s.Values.Top(), Types: s.Types.Top()}
}

// Bottom implements Element.
func (s SimpleState[H, V, T]) Bottom() SimpleState[H, V, T] {
	return SimpleState[H, V, T]{Heap: s.Heap.Bottom(), Values: s.Values.Bottom(), Types: s.Types.Bottom()}
}

// IsTop implements Element.
func (s SimpleState[H, V, T]) IsTop() bool {
	return s.Heap.IsTop() && s.Values.IsTop() && s.Types.IsTop()
}

// IsBottom implements Element.
func (s SimpleState[H, V, T]) IsBottom() bool {
	return s.Heap.IsBottom() && s.Values.IsBottom() && s.Types.IsBottom()
}

// LessOrEqual implements Element componentwise.
func (s SimpleState[H, V, T]) LessOrEqual(other SimpleState[H, V, T]) bool {
	return s.Heap.LessOrEqual(other.Heap) &&
		s.Values.LessOrEqual(other.Values) &&
		s.Types.LessOrEqual(other.Types)
}

// Equal implements Element.
func (s SimpleState[H, V, T]) Equal(other SimpleState[H, V, T]) bool {
	return s.LessOrEqual(other) && other.LessOrEqual(s)
}

// Lub implements Element componentwise.
func (s SimpleState[H, V, T]) Lub(other SimpleState[H, V, T]) SimpleState[H, V, T] {
	return SimpleState[H, V, T]{
		Heap:   s.Heap.Lub(other.Heap),
		Values: s.Values.Lub(other.Values),
		Types:  s.Types.Lub(other.Types),
	}
}

// Glb implements Element componentwise.
func (s SimpleState[H, V, T]) Glb(other SimpleState[H, V, T]) SimpleState[H, V, T] {
	return SimpleState[H, V, T]{
		Heap:   s.Heap.Glb(other.Heap),
		Values: s.Values.Glb(other.Values),
		Types:  s.Types.Glb(other.Types),
	}
}

// Widening implements Element componentwise.
func (s SimpleState[H, V, T]) Widening(other SimpleState[H, V, T]) SimpleState[H, V, T] {
	return SimpleState[H, V, T]{
		Heap:   s.Heap.Widening(other.Heap),
		Values: s.Values.Widening(other.Values),
		Types:  s.Types.Widening(other.Types),
	}
}

// Narrowing implements Element componentwise.
func (s SimpleState[H, V, T]) Narrowing(other SimpleState[H, V, T]) SimpleState[H, V, T] {
	return SimpleState[H, V, T]{
		Heap:   s.Heap.Narrowing(other.Heap),
		Values: s.Values.Narrowing(other.Values),
		Types:  s.Types.Narrowing(other.Types),
	}
}

func (s SimpleState[H, V, T]) String() string {
	return "heap: " + s.Heap.String() + "\nvalue: " + s.Values.String() + "\ntype: " + s.Types.String()
}
