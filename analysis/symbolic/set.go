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

package symbolic

import (
	"sort"
	"strings"
)

// ExpressionSet is an immutable set of expressions keyed by their printed form. The
// distinguished any-set is above every other set; it is the top of the computed-expressions
// component of analysis states.
type ExpressionSet struct {
	isAny bool
	m     map[string]Expression
}

// AnyExpressions is the set of all expressions.
var AnyExpressions = ExpressionSet{isAny: true}

// NewExpressionSet builds a set from the given expressions.
func NewExpressionSet(exprs ...Expression) ExpressionSet {
	m := make(map[string]Expression, len(exprs))
	for _, e := range exprs {
		m[e.String()] = e
	}
	return ExpressionSet{m: m}
}

// IsAny returns true for the set of all expressions.
func (s ExpressionSet) IsAny() bool { return s.isAny }

// Len returns the number of expressions in the set. It is meaningless on the any-set.
func (s ExpressionSet) Len() int { return len(s.m) }

// IsEmpty returns true for the empty set.
func (s ExpressionSet) IsEmpty() bool { return !s.isAny && len(s.m) == 0 }

// Contains returns true when e is in the set.
func (s ExpressionSet) Contains(e Expression) bool {
	if s.isAny {
		return true
	}
	_, ok := s.m[e.String()]
	return ok
}

// Elements returns the expressions sorted by their printed form.
func (s ExpressionSet) Elements() []Expression {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Expression, len(keys))
	for i, k := range keys {
		out[i] = s.m[k]
	}
	return out
}

// Union returns the union of the two sets.
func (s ExpressionSet) Union(other ExpressionSet) ExpressionSet {
	if s.isAny || other.isAny {
		return AnyExpressions
	}
	m := make(map[string]Expression, len(s.m)+len(other.m))
	for k, e := range s.m {
		m[k] = e
	}
	for k, e := range other.m {
		m[k] = e
	}
	return ExpressionSet{m: m}
}

// Intersect returns the intersection of the two sets.
func (s ExpressionSet) Intersect(other ExpressionSet) ExpressionSet {
	if s.isAny {
		return other
	}
	if other.isAny {
		return s
	}
	m := map[string]Expression{}
	for k, e := range s.m {
		if _, ok := other.m[k]; ok {
			m[k] = e
		}
	}
	return ExpressionSet{m: m}
}

// Subset returns true when every expression of s is in other.
func (s ExpressionSet) Subset(other ExpressionSet) bool {
	if other.isAny {
		return true
	}
	if s.isAny {
		return false
	}
	for k := range s.m {
		if _, ok := other.m[k]; !ok {
			return false
		}
	}
	return true
}

// Equal returns true when the two sets contain the same expressions.
func (s ExpressionSet) Equal(other ExpressionSet) bool {
	if s.isAny || other.isAny {
		return s.isAny == other.isAny
	}
	return s.Subset(other) && other.Subset(s)
}

// PushScope pushes the token on every expression of the set.
func (s ExpressionSet) PushScope(t ScopeToken) (ExpressionSet, error) {
	if s.isAny {
		return s, nil
	}
	var out []Expression
	for _, e := range s.Elements() {
		pushed, err := e.PushScope(t)
		if err != nil {
			return ExpressionSet{}, err
		}
		out = append(out, pushed)
	}
	return NewExpressionSet(out...), nil
}

// PopScope pops the token from every expression of the set. Expressions that are not in
// the popped scope are dropped: they named entities local to the scoped code.
func (s ExpressionSet) PopScope(t ScopeToken) (ExpressionSet, error) {
	if s.isAny {
		return s, nil
	}
	var out []Expression
	for _, e := range s.Elements() {
		popped, err := e.PopScope(t)
		if err == nil {
			out = append(out, popped)
		}
	}
	return NewExpressionSet(out...), nil
}

func (s ExpressionSet) String() string {
	if s.isAny {
		return "⊤"
	}
	var parts []string
	for _, e := range s.Elements() {
		parts = append(parts, e.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
