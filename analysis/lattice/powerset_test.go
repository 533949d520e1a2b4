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

package lattice

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPowersetOrder(t *testing.T) {
	tests := []struct {
		name string
		a, b Powerset[int]
		leq  bool
	}{
		{name: "empty below any", a: setOf(), b: setOf(1), leq: true},
		{name: "subset", a: setOf(1), b: setOf(1, 2), leq: true},
		{name: "superset", a: setOf(1, 2), b: setOf(1), leq: false},
		{name: "incomparable", a: setOf(1), b: setOf(2), leq: false},
		{name: "anything below top", a: setOf(1, 2, 3), b: Powerset[int]{}.Top(), leq: true},
		{name: "top not below finite", a: Powerset[int]{}.Top(), b: setOf(1, 2, 3), leq: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessOrEqual(tt.b); got != tt.leq {
				t.Errorf("%v ≤ %v = %v, want %v", tt.a, tt.b, got, tt.leq)
			}
		})
	}
}

func TestPowersetLubGlb(t *testing.T) {
	a, b := setOf(1, 2), setOf(2, 3)
	if diff := cmp.Diff([]int{1, 2, 3}, a.Lub(b).Elements()); diff != "" {
		t.Errorf("lub mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, a.Glb(b).Elements()); diff != "" {
		t.Errorf("glb mismatch (-want +got):\n%s", diff)
	}
	// lub is an upper bound and the least one
	j := a.Lub(b)
	if !a.LessOrEqual(j) || !b.LessOrEqual(j) {
		t.Errorf("lub is not an upper bound")
	}
	z := setOf(1, 2, 3, 4)
	if a.LessOrEqual(z) && b.LessOrEqual(z) && !j.LessOrEqual(z) {
		t.Errorf("lub is not the least upper bound")
	}
}

type interval4 struct {
	// tiny ordered lattice for NonRedundant tests: [lo, hi] over 0..3
	lo, hi int
	bot    bool
}

func (i interval4) Top() interval4    { return interval4{lo: 0, hi: 3} }
func (i interval4) Bottom() interval4 { return interval4{bot: true} }
func (i interval4) IsTop() bool       { return !i.bot && i.lo == 0 && i.hi == 3 }
func (i interval4) IsBottom() bool    { return i.bot }
func (i interval4) LessOrEqual(o interval4) bool {
	return i.bot || (!o.bot && o.lo <= i.lo && i.hi <= o.hi)
}
func (i interval4) Equal(o interval4) bool { return i == o }
func (i interval4) Lub(o interval4) interval4 {
	if i.bot {
		return o
	}
	if o.bot {
		return i
	}
	return interval4{lo: min(i.lo, o.lo), hi: max(i.hi, o.hi)}
}
func (i interval4) Glb(o interval4) interval4 {
	if i.bot || o.bot || max(i.lo, o.lo) > min(i.hi, o.hi) {
		return interval4{bot: true}
	}
	return interval4{lo: max(i.lo, o.lo), hi: min(i.hi, o.hi)}
}
func (i interval4) Widening(o interval4) interval4  { return i.Lub(o) }
func (i interval4) Narrowing(o interval4) interval4 { return i }
func (i interval4) String() string {
	if i.bot {
		return "⊥"
	}
	return string(rune('0'+i.lo)) + "-" + string(rune('0'+i.hi))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestNonRedundantDropsSubsumed(t *testing.T) {
	s := NewNonRedundant(
		interval4{lo: 0, hi: 1},
		interval4{lo: 0, hi: 2}, // subsumes [0,1]
		interval4{lo: 3, hi: 3},
		interval4{bot: true}, // dropped outright
	)
	got := s.Elements()
	if len(got) != 2 {
		t.Fatalf("expected 2 non-redundant members, got %v", got)
	}
	if !got[0].Equal(interval4{lo: 0, hi: 2}) || !got[1].Equal(interval4{lo: 3, hi: 3}) {
		t.Errorf("unexpected members %v", got)
	}
}

func TestNonRedundantHoareOrder(t *testing.T) {
	a := NewNonRedundant(interval4{lo: 0, hi: 1})
	b := NewNonRedundant(interval4{lo: 0, hi: 2}, interval4{lo: 3, hi: 3})
	if !a.LessOrEqual(b) {
		t.Errorf("every member of a is below a member of b")
	}
	if b.LessOrEqual(a) {
		t.Errorf("[3,3] has no cover in a")
	}
	j := a.Lub(b)
	if !a.LessOrEqual(j) || !b.LessOrEqual(j) {
		t.Errorf("lub is not an upper bound")
	}
}
