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

// ext is an integer extended with the two infinities, used for interval endpoints.
type ext struct {
	inf int // -1: -∞, 0: finite, +1: +∞
	v   int64
}

var (
	negInf = ext{inf: -1}
	posInf = ext{inf: 1}
)

func fin(v int64) ext { return ext{v: v} }

func (e ext) isFinite() bool { return e.inf == 0 }

func (e ext) cmp(o ext) int {
	switch {
	case e.inf != o.inf:
		return e.inf - o.inf
	case e.inf != 0:
		return 0
	case e.v < o.v:
		return -1
	case e.v > o.v:
		return 1
	default:
		return 0
	}
}

func minExt(a, b ext) ext {
	if a.cmp(b) <= 0 {
		return a
	}
	return b
}

func maxExt(a, b ext) ext {
	if a.cmp(b) >= 0 {
		return a
	}
	return b
}

func (e ext) neg() ext {
	if e.inf != 0 {
		return ext{inf: -e.inf}
	}
	return fin(-e.v)
}

func (e ext) add(o ext) ext {
	switch {
	case e.inf != 0:
		return e
	case o.inf != 0:
		return o
	default:
		return fin(e.v + o.v)
	}
}

func (e ext) sign() int {
	if e.inf != 0 {
		return e.inf
	}
	switch {
	case e.v < 0:
		return -1
	case e.v > 0:
		return 1
	default:
		return 0
	}
}

func (e ext) mul(o ext) ext {
	if e.inf != 0 || o.inf != 0 {
		s := e.sign() * o.sign()
		if s == 0 {
			return fin(0)
		}
		return ext{inf: s}
	}
	return fin(e.v * o.v)
}

func (e ext) div(o ext) ext {
	switch {
	case o.inf != 0:
		return fin(0)
	case e.inf != 0:
		s := e.sign() * o.sign()
		return ext{inf: s}
	default:
		return fin(e.v / o.v)
	}
}

func (e ext) String() string {
	switch e.inf {
	case -1:
		return "-∞"
	case 1:
		return "+∞"
	default:
		return fmt.Sprint(e.v)
	}
}

// Interval is the integer interval lattice [lo, hi] with infinite endpoints, widening to
// the infinities and narrowing back from them.
type Interval struct {
	isBot  bool
	lo, hi ext
}

// IntervalOf builds the interval of a single integer.
func IntervalOf(v int64) Interval { return Interval{lo: fin(v), hi: fin(v)} }

// IntervalRange builds [lo, hi].
func IntervalRange(lo, hi int64) Interval { return Interval{lo: fin(lo), hi: fin(hi)} }

func mkInterval(lo, hi ext) Interval {
	if lo.cmp(hi) > 0 {
		return Interval{isBot: true}
	}
	return Interval{lo: lo, hi: hi}
}

// Bounds returns the endpoints; meaningful only on non-bottom intervals.
func (i Interval) Bounds() (lo, hi ext) { return i.lo, i.hi }

// Top implements Element.
func (Interval) Top() Interval { return Interval{lo: negInf, hi: posInf} }

// Bottom implements Element.
func (Interval) Bottom() Interval { return Interval{isBot: true} }

// IsTop implements Element.
func (i Interval) IsTop() bool { return !i.isBot && i.lo.inf == -1 && i.hi.inf == 1 }

// IsBottom implements Element.
func (i Interval) IsBottom() bool { return i.isBot }

// LessOrEqual implements Element: interval inclusion.
func (i Interval) LessOrEqual(other Interval) bool {
	if i.isBot {
		return true
	}
	if other.isBot {
		return false
	}
	return other.lo.cmp(i.lo) <= 0 && i.hi.cmp(other.hi) <= 0
}

// Equal implements Element.
func (i Interval) Equal(other Interval) bool {
	return i.LessOrEqual(other) && other.LessOrEqual(i)
}

// Lub implements Element: the convex hull.
func (i Interval) Lub(other Interval) Interval {
	if i.isBot {
		return other
	}
	if other.isBot {
		return i
	}
	return Interval{lo: minExt(i.lo, other.lo), hi: maxExt(i.hi, other.hi)}
}

// Glb implements Element: the intersection.
func (i Interval) Glb(other Interval) Interval {
	if i.isBot || other.isBot {
		return i.Bottom()
	}
	return mkInterval(maxExt(i.lo, other.lo), minExt(i.hi, other.hi))
}

// Widening implements Element: unstable bounds jump to the infinities.
func (i Interval) Widening(other Interval) Interval {
	if i.isBot {
		return other
	}
	if other.isBot {
		return i
	}
	lo := i.lo
	if other.lo.cmp(i.lo) < 0 {
		lo = negInf
	}
	hi := i.hi
	if other.hi.cmp(i.hi) > 0 {
		hi = posInf
	}
	return Interval{lo: lo, hi: hi}
}

// Narrowing implements Element: infinite bounds recover the other operand's bound.
func (i Interval) Narrowing(other Interval) Interval {
	if i.isBot || other.isBot {
		return i.Bottom()
	}
	lo := i.lo
	if lo.inf == -1 {
		lo = other.lo
	}
	hi := i.hi
	if hi.inf == 1 {
		hi = other.hi
	}
	return mkInterval(lo, hi)
}

// EvalConstant implements BaseValue.
func (i Interval) EvalConstant(c *symbolic.Constant) Interval {
	if v, ok := asInt(c.Value); ok {
		return IntervalOf(v)
	}
	return i.Top()
}

// EvalUnary implements BaseValue.
func (i Interval) EvalUnary(op symbolic.UnaryOperator, arg Interval) Interval {
	if arg.isBot {
		return arg
	}
	if op == symbolic.Neg {
		return Interval{lo: arg.hi.neg(), hi: arg.lo.neg()}
	}
	return i.Top()
}

// EvalBinary implements BaseValue.
func (i Interval) EvalBinary(op symbolic.BinaryOperator, l, r Interval) Interval {
	if l.isBot || r.isBot {
		return i.Bottom()
	}
	switch op {
	case symbolic.Add:
		return Interval{lo: l.lo.add(r.lo), hi: l.hi.add(r.hi)}
	case symbolic.Sub:
		neg := i.EvalUnary(symbolic.Neg, r)
		return i.EvalBinary(symbolic.Add, l, neg)
	case symbolic.Mul:
		return combineEndpoints(l, r, func(a, b ext) ext { return a.mul(b) })
	case symbolic.Div:
		if r.lo.sign() <= 0 && r.hi.sign() >= 0 {
			// the divisor may be zero
			return i.Top()
		}
		return combineEndpoints(l, r, func(a, b ext) ext { return a.div(b) })
	case symbolic.Mod:
		return i.Top()
	}
	return i.Top()
}

func combineEndpoints(l, r Interval, op func(a, b ext) ext) Interval {
	cands := []ext{
		op(l.lo, r.lo), op(l.lo, r.hi), op(l.hi, r.lo), op(l.hi, r.hi),
	}
	lo, hi := cands[0], cands[0]
	for _, c := range cands[1:] {
		lo = minExt(lo, c)
		hi = maxExt(hi, c)
	}
	return Interval{lo: lo, hi: hi}
}

// EvalTernary implements BaseValue.
func (i Interval) EvalTernary(op symbolic.TernaryOperator, _, b, c Interval) Interval {
	if op == symbolic.Select {
		return b.Lub(c)
	}
	return i.Top()
}

// Refine implements Refiner: the receiver shrinks to the part compatible with
// `receiver op bound`.
func (i Interval) Refine(op symbolic.BinaryOperator, bound Interval) Interval {
	if i.isBot || bound.isBot {
		return i.Bottom()
	}
	switch op {
	case symbolic.Eq:
		return i.Glb(bound)
	case symbolic.Ne:
		if lo, hi := bound.lo, bound.hi; lo.cmp(hi) == 0 && lo.isFinite() {
			if i.lo.cmp(lo) == 0 {
				return mkInterval(fin(i.lo.v+1), i.hi)
			}
			if i.hi.cmp(hi) == 0 {
				return mkInterval(i.lo, fin(i.hi.v-1))
			}
		}
		return i
	case symbolic.Lt:
		hi := bound.hi
		if hi.isFinite() {
			hi = fin(hi.v - 1)
		}
		return mkInterval(i.lo, minExt(i.hi, hi))
	case symbolic.Le:
		return mkInterval(i.lo, minExt(i.hi, bound.hi))
	case symbolic.Gt:
		lo := bound.lo
		if lo.isFinite() {
			lo = fin(lo.v + 1)
		}
		return mkInterval(maxExt(i.lo, lo), i.hi)
	case symbolic.Ge:
		return mkInterval(maxExt(i.lo, bound.lo), i.hi)
	}
	return i
}

// Compare implements Comparer on disjoint or ordered intervals.
func (i Interval) Compare(op symbolic.BinaryOperator, other Interval) abstract.Satisfiability {
	if i.isBot || other.isBot {
		return abstract.Unknown
	}
	switch op {
	case symbolic.Lt:
		if i.hi.cmp(other.lo) < 0 {
			return abstract.Satisfied
		}
		if i.lo.cmp(other.hi) >= 0 {
			return abstract.NotSatisfied
		}
	case symbolic.Le:
		if i.hi.cmp(other.lo) <= 0 {
			return abstract.Satisfied
		}
		if i.lo.cmp(other.hi) > 0 {
			return abstract.NotSatisfied
		}
	case symbolic.Gt:
		return other.Compare(symbolic.Lt, i)
	case symbolic.Ge:
		return other.Compare(symbolic.Le, i)
	case symbolic.Eq:
		if i.lo.cmp(i.hi) == 0 && other.lo.cmp(other.hi) == 0 && i.lo.cmp(other.lo) == 0 {
			return abstract.Satisfied
		}
		if i.Glb(other).IsBottom() {
			return abstract.NotSatisfied
		}
	case symbolic.Ne:
		return i.Compare(symbolic.Eq, other).Negate()
	}
	return abstract.Unknown
}

func (i Interval) String() string {
	if i.isBot {
		return "⊥"
	}
	return fmt.Sprintf("[%s, %s]", i.lo, i.hi)
}
