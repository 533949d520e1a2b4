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
	"testing"

	"github.com/argus-static/argus/analysis/lattice"
	"github.com/argus-static/argus/analysis/symbolic"
)

// checkLaws verifies the order-theoretic laws every element must satisfy, quantified
// over the given samples.
func checkLaws[L lattice.Element[L]](t *testing.T, samples []L) {
	t.Helper()
	for _, x := range samples {
		if !x.LessOrEqual(x) {
			t.Errorf("reflexivity violated at %s", x)
		}
		if !x.Bottom().LessOrEqual(x) || !x.LessOrEqual(x.Top()) {
			t.Errorf("bounds violated at %s", x)
		}
		for _, y := range samples {
			if x.LessOrEqual(y) && y.LessOrEqual(x) && !x.Equal(y) {
				t.Errorf("antisymmetry violated at %s, %s", x, y)
			}
			j := x.Lub(y)
			if !x.LessOrEqual(j) || !y.LessOrEqual(j) {
				t.Errorf("lub of %s, %s is not an upper bound: %s", x, y, j)
			}
			m := x.Glb(y)
			if !m.LessOrEqual(x) || !m.LessOrEqual(y) {
				t.Errorf("glb of %s, %s is not a lower bound: %s", x, y, m)
			}
			w := x.Widening(y)
			if !j.LessOrEqual(w) {
				t.Errorf("widening of %s, %s is below the join: %s < %s", x, y, w, j)
			}
			for _, z := range samples {
				if x.LessOrEqual(z) && y.LessOrEqual(z) && !j.LessOrEqual(z) {
					t.Errorf("lub of %s, %s is not least: %s should be below %s", x, y, j, z)
				}
				if z.LessOrEqual(x) && z.LessOrEqual(y) && !z.LessOrEqual(m) {
					t.Errorf("glb of %s, %s is not greatest: %s should be above %s", x, y, z, m)
				}
			}
		}
	}
}

func TestSignLaws(t *testing.T) {
	checkLaws(t, []Sign{
		Sign{}.Bottom(), Negative, Zero, Positive, Sign{}.Top(),
	})
}

func TestConstPropLaws(t *testing.T) {
	checkLaws(t, []ConstProp{
		ConstProp{}.Bottom(), Const(-1), Const(0), Const(1), Const(42), ConstProp{}.Top(),
	})
}

func TestIntervalLaws(t *testing.T) {
	checkLaws(t, []Interval{
		Interval{}.Bottom(),
		IntervalOf(0),
		IntervalOf(5),
		IntervalRange(0, 5),
		IntervalRange(-3, 3),
		{lo: fin(1), hi: posInf},
		{lo: negInf, hi: fin(0)},
		Interval{}.Top(),
	})
}

func TestStaticTypesLaws(t *testing.T) {
	checkLaws(t, []StaticTypes{
		StaticTypes{}.Bottom(),
		TypesOf(symbolic.Types("int")),
		TypesOf(symbolic.Types("bool")),
		TypesOf(symbolic.Types("int", "bool")),
		StaticTypes{}.Top(),
	})
}

// TestIntervalWideningTermination iterates aᵢ₊₁ = aᵢ ∇ xᵢ₊₁ over a strictly ascending
// chain and checks stabilization within a bounded number of steps.
func TestIntervalWideningTermination(t *testing.T) {
	a := IntervalOf(0)
	steps := 0
	for i := int64(1); i < 1000; i++ {
		next := a.Widening(a.Lub(IntervalRange(0, i)))
		steps++
		if next.Equal(a) {
			break
		}
		a = next
	}
	if steps > 10 {
		t.Errorf("widening did not stabilize quickly, took %d steps", steps)
	}
	if _, hi := a.Bounds(); hi.isFinite() {
		t.Errorf("widened upper bound should be +∞, got %s", a)
	}
}

func TestSignEval(t *testing.T) {
	w := Sign{}
	tests := []struct {
		name string
		got  Sign
		want Sign
	}{
		{name: "pos + pos", got: w.EvalBinary(symbolic.Add, Positive, Positive), want: Positive},
		{name: "pos + neg", got: w.EvalBinary(symbolic.Add, Positive, Negative), want: w.Top()},
		{name: "pos * neg", got: w.EvalBinary(symbolic.Mul, Positive, Negative), want: Negative},
		{name: "zero * top", got: w.EvalBinary(symbolic.Mul, Zero, w.Top()), want: Zero},
		{name: "neg negated", got: w.EvalUnary(symbolic.Neg, Negative), want: Positive},
		{name: "constant", got: w.EvalConstant(symbolic.IntConst(-7)), want: Negative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(tt.want) {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}
