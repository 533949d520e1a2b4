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
	"fmt"

	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/symbolic"
)

// ConstProp is the flat constant-propagation lattice over integers:
// bottom < ... -1, 0, 1 ... < top.
type ConstProp struct {
	isTop bool
	isBot bool
	v     int64
}

// Const abstracts a known integer.
func Const(v int64) ConstProp { return ConstProp{v: v} }

// Value returns the tracked constant; the boolean is false on top and bottom.
func (c ConstProp) Value() (int64, bool) {
	return c.v, !c.isTop && !c.isBot
}

// Top implements Element.
func (ConstProp) Top() ConstProp { return ConstProp{isTop: true} }

// Bottom implements Element.
func (ConstProp) Bottom() ConstProp { return ConstProp{isBot: true} }

// IsTop implements Element.
func (c ConstProp) IsTop() bool { return c.isTop }

// IsBottom implements Element.
func (c ConstProp) IsBottom() bool { return c.isBot }

// LessOrEqual implements Element.
func (c ConstProp) LessOrEqual(other ConstProp) bool {
	return c.isBot || other.isTop || (c == other)
}

// Equal implements Element.
func (c ConstProp) Equal(other ConstProp) bool { return c == other }

// Lub implements Element.
func (c ConstProp) Lub(other ConstProp) ConstProp {
	switch {
	case c.isBot:
		return other
	case other.isBot:
		return c
	case c == other:
		return c
	default:
		return c.Top()
	}
}

// Glb implements Element.
func (c ConstProp) Glb(other ConstProp) ConstProp {
	switch {
	case c.isTop:
		return other
	case other.isTop:
		return c
	case c == other:
		return c
	default:
		return c.Bottom()
	}
}

// Widening implements Element: the lattice has height two, the join stabilizes chains.
func (c ConstProp) Widening(other ConstProp) ConstProp { return c.Lub(other) }

// Narrowing implements Element.
func (c ConstProp) Narrowing(other ConstProp) ConstProp {
	if c.isTop {
		return other
	}
	return c
}

// EvalConstant implements BaseValue.
func (c ConstProp) EvalConstant(k *symbolic.Constant) ConstProp {
	if v, ok := asInt(k.Value); ok {
		return Const(v)
	}
	return c.Top()
}

// EvalUnary implements BaseValue.
func (c ConstProp) EvalUnary(op symbolic.UnaryOperator, arg ConstProp) ConstProp {
	if v, ok := arg.Value(); ok && op == symbolic.Neg {
		return Const(-v)
	}
	if arg.isBot {
		return arg
	}
	return c.Top()
}

// EvalBinary implements BaseValue.
func (c ConstProp) EvalBinary(op symbolic.BinaryOperator, l, r ConstProp) ConstProp {
	if l.isBot || r.isBot {
		return c.Bottom()
	}
	lv, lok := l.Value()
	rv, rok := r.Value()
	if !lok || !rok {
		return c.Top()
	}
	switch op {
	case symbolic.Add:
		return Const(lv + rv)
	case symbolic.Sub:
		return Const(lv - rv)
	case symbolic.Mul:
		return Const(lv * rv)
	case symbolic.Div:
		if rv == 0 {
			return c.Bottom()
		}
		return Const(lv / rv)
	case symbolic.Mod:
		if rv == 0 {
			return c.Bottom()
		}
		return Const(lv % rv)
	}
	return c.Top()
}

// EvalTernary implements BaseValue.
func (c ConstProp) EvalTernary(op symbolic.TernaryOperator, _, b, d ConstProp) ConstProp {
	if op == symbolic.Select {
		return b.Lub(d)
	}
	return c.Top()
}

// Refine implements Refiner: only equality pins a constant.
func (c ConstProp) Refine(op symbolic.BinaryOperator, bound ConstProp) ConstProp {
	if op == symbolic.Eq {
		return c.Glb(bound)
	}
	if op == symbolic.Ne {
		if cv, ok := c.Value(); ok {
			if bv, bok := bound.Value(); bok && cv == bv {
				return c.Bottom()
			}
		}
	}
	return c
}

// Compare implements Comparer on known constants.
func (c ConstProp) Compare(op symbolic.BinaryOperator, other ConstProp) abstract.Satisfiability {
	lv, lok := c.Value()
	rv, rok := other.Value()
	if !lok || !rok {
		return abstract.Unknown
	}
	var holds bool
	switch op {
	case symbolic.Eq:
		holds = lv == rv
	case symbolic.Ne:
		holds = lv != rv
	case symbolic.Lt:
		holds = lv < rv
	case symbolic.Le:
		holds = lv <= rv
	case symbolic.Gt:
		holds = lv > rv
	case symbolic.Ge:
		holds = lv >= rv
	default:
		return abstract.Unknown
	}
	if holds {
		return abstract.Satisfied
	}
	return abstract.NotSatisfied
}

func (c ConstProp) String() string {
	switch {
	case c.isTop:
		return "⊤"
	case c.isBot:
		return "⊥"
	default:
		return fmt.Sprint(c.v)
	}
}
