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

package domains

import (
	"github.com/argus-static/argus/analysis/symbolic"
)

// StaticTypes abstracts an expression by the set of types it may have, as declared by the
// frontend. It is the reference type domain of the composite state.
type StaticTypes struct {
	isBot bool
	ts    symbolic.TypeSet
}

// TypesOf builds the abstraction of the given type set.
func TypesOf(ts symbolic.TypeSet) StaticTypes { return StaticTypes{ts: ts} }

// TypeSet returns the tracked types.
func (t StaticTypes) TypeSet() symbolic.TypeSet { return t.ts }

// Top implements Element: any type.
func (StaticTypes) Top() StaticTypes { return StaticTypes{ts: symbolic.AnyType} }

// Bottom implements Element.
func (StaticTypes) Bottom() StaticTypes { return StaticTypes{isBot: true} }

// IsTop implements Element.
func (t StaticTypes) IsTop() bool { return !t.isBot && t.ts.IsAny() }

// IsBottom implements Element.
func (t StaticTypes) IsBottom() bool { return t.isBot }

// LessOrEqual implements Element: type-set inclusion.
func (t StaticTypes) LessOrEqual(other StaticTypes) bool {
	if t.isBot {
		return true
	}
	if other.isBot {
		return false
	}
	return t.ts.Subset(other.ts)
}

// Equal implements Element.
func (t StaticTypes) Equal(other StaticTypes) bool {
	return t.LessOrEqual(other) && other.LessOrEqual(t)
}

// Lub implements Element.
func (t StaticTypes) Lub(other StaticTypes) StaticTypes {
	if t.isBot {
		return other
	}
	if other.isBot {
		return t
	}
	return StaticTypes{ts: t.ts.Union(other.ts)}
}

// Glb implements Element.
func (t StaticTypes) Glb(other StaticTypes) StaticTypes {
	if t.isBot || other.isBot {
		return t.Bottom()
	}
	return StaticTypes{ts: t.ts.Intersect(other.ts)}
}

// Widening implements Element: programs declare finitely many types.
func (t StaticTypes) Widening(other StaticTypes) StaticTypes { return t.Lub(other) }

// Narrowing implements Element.
func (t StaticTypes) Narrowing(other StaticTypes) StaticTypes {
	if t.IsTop() {
		return other
	}
	return t
}

// EvalConstant implements BaseValue.
func (t StaticTypes) EvalConstant(c *symbolic.Constant) StaticTypes {
	return StaticTypes{ts: c.StaticTypes()}
}

// EvalUnary implements BaseValue.
func (t StaticTypes) EvalUnary(op symbolic.UnaryOperator, arg StaticTypes) StaticTypes {
	if op == symbolic.Not {
		return StaticTypes{ts: symbolic.Types("bool")}
	}
	return arg
}

// EvalBinary implements BaseValue.
func (t StaticTypes) EvalBinary(op symbolic.BinaryOperator, l, r StaticTypes) StaticTypes {
	if l.isBot || r.isBot {
		return t.Bottom()
	}
	if op.IsComparison() || op == symbolic.And || op == symbolic.Or {
		return StaticTypes{ts: symbolic.Types("bool")}
	}
	return l.Lub(r)
}

// EvalTernary implements BaseValue.
func (t StaticTypes) EvalTernary(op symbolic.TernaryOperator, _, b, c StaticTypes) StaticTypes {
	if op == symbolic.Select {
		return b.Lub(c)
	}
	return t.Top()
}

func (t StaticTypes) String() string {
	if t.isBot {
		return "⊥"
	}
	return t.ts.String()
}
