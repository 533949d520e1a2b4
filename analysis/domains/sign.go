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
	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/symbolic"
)

// Sign abstracts integers by their sign. The lattice is the flat diamond
// bottom < {negative, zero, positive} < top.
type Sign struct {
	kind signKind
}

type signKind int

const (
	signBot signKind = iota
	signNeg
	signZero
	signPos
	signTop
)

var (
	// Negative is the abstraction of all integers < 0
	Negative = Sign{kind: signNeg}
	// Zero is the abstraction of 0
	Zero = Sign{kind: signZero}
	// Positive is the abstraction of all integers > 0
	Positive = Sign{kind: signPos}
)

// SignOf abstracts a concrete integer.
func SignOf(v int64) Sign {
	switch {
	case v < 0:
		return Negative
	case v == 0:
		return Zero
	default:
		return Positive
	}
}

// Top implements Element.
func (Sign) Top() Sign { return Sign{kind: signTop} }

// Bottom implements Element.
func (Sign) Bottom() Sign { return Sign{kind: signBot} }

// IsTop implements Element.
func (s Sign) IsTop() bool { return s.kind == signTop }

// IsBottom implements Element.
func (s Sign) IsBottom() bool { return s.kind == signBot }

// LessOrEqual implements Element.
func (s Sign) LessOrEqual(other Sign) bool {
	return s.kind == signBot || other.kind == signTop || s.kind == other.kind
}

// Equal implements Element.
func (s Sign) Equal(other Sign) bool { return s.kind == other.kind }

// Lub implements Element.
func (s Sign) Lub(other Sign) Sign {
	switch {
	case s.kind == signBot:
		return other
	case other.kind == signBot:
		return s
	case s.kind == other.kind:
		return s
	default:
		return s.Top()
	}
}

// Glb implements Element.
func (s Sign) Glb(other Sign) Sign {
	switch {
	case s.kind == signTop:
		return other
	case other.kind == signTop:
		return s
	case s.kind == other.kind:
		return s
	default:
		return s.Bottom()
	}
}

// Widening implements Element: the lattice is finite, the join stabilizes chains.
func (s Sign) Widening(other Sign) Sign { return s.Lub(other) }

// Narrowing implements Element.
func (s Sign) Narrowing(other Sign) Sign {
	if s.kind == signTop {
		return other
	}
	return s
}

// EvalConstant implements BaseValue.
func (s Sign) EvalConstant(c *symbolic.Constant) Sign {
	if v, ok := asInt(c.Value); ok {
		return SignOf(v)
	}
	return s.Top()
}

// EvalUnary implements BaseValue.
func (s Sign) EvalUnary(op symbolic.UnaryOperator, arg Sign) Sign {
	if op != symbolic.Neg {
		return s.Top()
	}
	switch arg.kind {
	case signNeg:
		return Positive
	case signPos:
		return Negative
	default:
		return arg
	}
}

// EvalBinary implements BaseValue.
func (s Sign) EvalBinary(op symbolic.BinaryOperator, l, r Sign) Sign {
	if l.kind == signBot || r.kind == signBot {
		return s.Bottom()
	}
	switch op {
	case symbolic.Add:
		switch {
		case l.kind == signZero:
			return r
		case r.kind == signZero:
			return l
		case l.kind == r.kind:
			return l
		default:
			return s.Top()
		}
	case symbolic.Sub:
		return s.EvalBinary(symbolic.Add, l, s.EvalUnary(symbolic.Neg, r))
	case symbolic.Mul:
		switch {
		case l.kind == signZero || r.kind == signZero:
			return Zero
		case l.kind == signTop || r.kind == signTop:
			return s.Top()
		case l.kind == r.kind:
			return Positive
		default:
			return Negative
		}
	case symbolic.Div:
		switch {
		case r.kind == signZero:
			return s.Bottom() // division by zero has no result
		case l.kind == signZero:
			return Zero
		case l.kind == signTop || r.kind == signTop:
			return s.Top()
		case l.kind == r.kind:
			// integer division truncates towards zero
			return Positive.Lub(Zero)
		default:
			return Negative.Lub(Zero)
		}
	case symbolic.Mod:
		return s.Top()
	}
	return s.Top()
}

// EvalTernary implements BaseValue: Select joins its branches.
func (s Sign) EvalTernary(op symbolic.TernaryOperator, _, b, c Sign) Sign {
	if op == symbolic.Select {
		return b.Lub(c)
	}
	return s.Top()
}

// Refine implements Refiner for comparisons against zero and same-sign bounds.
func (s Sign) Refine(op symbolic.BinaryOperator, bound Sign) Sign {
	switch op {
	case symbolic.Eq:
		return s.Glb(bound)
	case symbolic.Lt:
		if bound.kind == signZero || bound.kind == signNeg {
			return s.Glb(Negative)
		}
	case symbolic.Le:
		if bound.kind == signNeg {
			return s.Glb(Negative)
		}
		if bound.kind == signZero {
			return s.Glb(Negative.Lub(Zero))
		}
	case symbolic.Gt:
		if bound.kind == signZero || bound.kind == signPos {
			return s.Glb(Positive)
		}
	case symbolic.Ge:
		if bound.kind == signPos {
			return s.Glb(Positive)
		}
		if bound.kind == signZero {
			return s.Glb(Positive.Lub(Zero))
		}
	}
	return s
}

// Compare implements Comparer for the decidable sign comparisons.
func (s Sign) Compare(op symbolic.BinaryOperator, other Sign) abstract.Satisfiability {
	if s.kind == signBot || other.kind == signBot || s.kind == signTop || other.kind == signTop {
		return abstract.Unknown
	}
	switch op {
	case symbolic.Eq:
		if s.kind != other.kind {
			return abstract.NotSatisfied
		}
		if s.kind == signZero {
			return abstract.Satisfied
		}
	case symbolic.Ne:
		return s.Compare(symbolic.Eq, other).Negate()
	case symbolic.Lt:
		if s.ordinal() < other.ordinal() {
			return abstract.Satisfied
		}
		if s.ordinal() > other.ordinal() || s.kind == signZero {
			return abstract.NotSatisfied
		}
	case symbolic.Le:
		return s.Compare(symbolic.Gt, other).Negate()
	case symbolic.Gt:
		return other.Compare(symbolic.Lt, s)
	case symbolic.Ge:
		return s.Compare(symbolic.Lt, other).Negate()
	}
	return abstract.Unknown
}

// ordinal orders the definite signs for comparisons.
func (s Sign) ordinal() int {
	switch s.kind {
	case signNeg:
		return -1
	case signZero:
		return 0
	default:
		return 1
	}
}

func (s Sign) String() string {
	switch s.kind {
	case signBot:
		return "⊥"
	case signNeg:
		return "negative"
	case signZero:
		return "zero"
	case signPos:
		return "positive"
	default:
		return "⊤"
	}
}

// asInt extracts an integer from the constant payloads frontends produce.
func asInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}
