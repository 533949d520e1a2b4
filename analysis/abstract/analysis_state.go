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

// AnalysisState is the state the fixpoint iterates: an abstract state, the set of
// expressions computed by the last semantic step, and the auxiliary fixpoint-info map.
// Every transition returns a fresh instance and replaces the computed set with the
// expressions the step produced: an assignment leaves {id}, a small step leaves {expr},
// and an assumption preserves the previous set.
type AnalysisState[A AbstractState[A]] struct {
	state    A
	computed symbolic.ExpressionSet
	info     InfoMap
}

// NewAnalysisState wraps the abstract state with no computed expressions and empty info.
func NewAnalysisState[A AbstractState[A]](state A) AnalysisState[A] {
	return AnalysisState[A]{state: state, computed: symbolic.NewExpressionSet()}
}

// State returns the abstract state component.
func (a AnalysisState[A]) State() A { return a.state }

// Computed returns the expressions produced by the last semantic step.
func (a AnalysisState[A]) Computed() symbolic.ExpressionSet { return a.computed }

// Info returns the auxiliary fixpoint information.
func (a AnalysisState[A]) Info() InfoMap { return a.info }

// WithComputed returns the state with the computed set replaced.
func (a AnalysisState[A]) WithComputed(set symbolic.ExpressionSet) AnalysisState[A] {
	return AnalysisState[A]{state: a.state, computed: set, info: a.info}
}

// StoreInfo strongly stores v at key in the auxiliary map.
func (a AnalysisState[A]) StoreInfo(key string, v InfoValue) AnalysisState[A] {
	return AnalysisState[A]{state: a.state, computed: a.computed, info: a.info.Put(key, v)}
}

// WeakStoreInfo joins v with the value already stored at key.
func (a AnalysisState[A]) WeakStoreInfo(key string, v InfoValue) AnalysisState[A] {
	return AnalysisState[A]{state: a.state, computed: a.computed, info: a.info.WeakPut(key, v)}
}

// GetInfo returns the value stored at key.
func (a AnalysisState[A]) GetInfo(key string) (InfoValue, bool) {
	return a.info.Get(key)
}

// Assign models id := expr; the computed set becomes {id}.
func (a AnalysisState[A]) Assign(id symbolic.Identifier, expr symbolic.Expression, pp symbolic.ProgramPoint) (AnalysisState[A], error) {
	st, err := a.state.Assign(id, expr, pp)
	if err != nil {
		return a, err
	}
	return AnalysisState[A]{state: st, computed: symbolic.NewExpressionSet(id), info: a.info}, nil
}

// SmallStepSemantics models the evaluation of expr; the computed set becomes {expr}.
func (a AnalysisState[A]) SmallStepSemantics(expr symbolic.Expression, pp symbolic.ProgramPoint) (AnalysisState[A], error) {
	st, err := a.state.SmallStepSemantics(expr, pp)
	if err != nil {
		return a, err
	}
	return AnalysisState[A]{state: st, computed: symbolic.NewExpressionSet(expr), info: a.info}, nil
}

// Assume refines the state with expr holding on the edge src -> dst; the computed set is
// preserved.
func (a AnalysisState[A]) Assume(expr symbolic.Expression, src, dst symbolic.ProgramPoint) (AnalysisState[A], error) {
	st, err := a.state.Assume(expr, src, dst)
	if err != nil {
		return a, err
	}
	return AnalysisState[A]{state: st, computed: a.computed, info: a.info}, nil
}

// Satisfies reports whether the state satisfies expr.
func (a AnalysisState[A]) Satisfies(expr symbolic.Expression, pp symbolic.ProgramPoint) Satisfiability {
	return a.state.Satisfies(expr, pp)
}

// Rewrite lowers expr under the state's heap.
func (a AnalysisState[A]) Rewrite(expr symbolic.Expression, pp symbolic.ProgramPoint) (symbolic.ExpressionSet, error) {
	return a.state.Rewrite(expr, pp)
}

// PushScope moves state and computed expressions into the given scope.
func (a AnalysisState[A]) PushScope(t symbolic.ScopeToken) (AnalysisState[A], error) {
	st, err := a.state.PushScope(t)
	if err != nil {
		return a, err
	}
	computed, err := a.computed.PushScope(t)
	if err != nil {
		return a, err
	}
	return AnalysisState[A]{state: st, computed: computed, info: a.info}, nil
}

// PopScope undoes a PushScope with the same token.
func (a AnalysisState[A]) PopScope(t symbolic.ScopeToken) (AnalysisState[A], error) {
	st, err := a.state.PopScope(t)
	if err != nil {
		return a, err
	}
	computed, err := a.computed.PopScope(t)
	if err != nil {
		return a, err
	}
	return AnalysisState[A]{state: st, computed: computed, info: a.info}, nil
}

// Forget removes all knowledge about id.
func (a AnalysisState[A]) Forget(id symbolic.Identifier) (AnalysisState[A], error) {
	st, err := a.state.Forget(id)
	if err != nil {
		return a, err
	}
	return AnalysisState[A]{state: st, computed: a.computed, info: a.info}, nil
}

// ForgetIf removes all knowledge about identifiers satisfying pred.
func (a AnalysisState[A]) ForgetIf(pred func(symbolic.Identifier) bool) (AnalysisState[A], error) {
	st, err := a.state.ForgetIf(pred)
	if err != nil {
		return a, err
	}
	return AnalysisState[A]{state: st, computed: a.computed, info: a.info}, nil
}

// Top implements Element: top state and the any-expression set; info is unused on top.
func (a AnalysisState[A]) Top() AnalysisState[A] {
	return AnalysisState[A]{state: a.state.Top(), computed: symbolic.AnyExpressions}
}

// Bottom implements Element: bottom state, no expressions, empty info.
func (a AnalysisState[A]) Bottom() AnalysisState[A] {
	return AnalysisState[A]{state: a.state.Bottom(), computed: symbolic.NewExpressionSet()}
}

// IsTop implements Element.
func (a AnalysisState[A]) IsTop() bool {
	return a.state.IsTop() && a.computed.IsAny()
}

// IsBottom implements Element.
func (a AnalysisState[A]) IsBottom() bool {
	return a.state.IsBottom() && a.computed.IsEmpty() && a.info.Len() == 0
}

// LessOrEqual implements Element componentwise.
func (a AnalysisState[A]) LessOrEqual(other AnalysisState[A]) bool {
	return a.state.LessOrEqual(other.state) &&
		a.computed.Subset(other.computed) &&
		a.info.LessOrEqual(other.info)
}

// Equal implements Element.
func (a AnalysisState[A]) Equal(other AnalysisState[A]) bool {
	return a.LessOrEqual(other) && other.LessOrEqual(a)
}

// Lub implements Element componentwise.
func (a AnalysisState[A]) Lub(other AnalysisState[A]) AnalysisState[A] {
	return AnalysisState[A]{
		state:    a.state.Lub(other.state),
		computed: a.computed.Union(other.computed),
		info:     a.info.Join(other.info),
	}
}

// Glb implements Element componentwise.
func (a AnalysisState[A]) Glb(other AnalysisState[A]) AnalysisState[A] {
	return AnalysisState[A]{
		state:    a.state.Glb(other.state),
		computed: a.computed.Intersect(other.computed),
		info:     a.info, // auxiliary info has no meet; keep the receiver's
	}
}

// Widening implements Element: the expression and info components live in finite spaces,
// so they join.
func (a AnalysisState[A]) Widening(other AnalysisState[A]) AnalysisState[A] {
	return AnalysisState[A]{
		state:    a.state.Widening(other.state),
		computed: a.computed.Union(other.computed),
		info:     a.info.Join(other.info),
	}
}

// Narrowing implements Element.
func (a AnalysisState[A]) Narrowing(other AnalysisState[A]) AnalysisState[A] {
	return AnalysisState[A]{
		state:    a.state.Narrowing(other.state),
		computed: a.computed.Intersect(other.computed),
		info:     a.info,
	}
}

func (a AnalysisState[A]) String() string {
	s := a.state.String()
	if !a.computed.IsEmpty() {
		s += "\nexpressions: " + a.computed.String()
	}
	if a.info.Len() > 0 {
		s += "\ninfo: " + a.info.String()
	}
	return s
}
