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

package heap

import (
	"testing"

	"github.com/argus-static/argus/analysis/symbolic"
)

type point struct{ loc symbolic.Location }

func (p point) Location() symbolic.Location { return p.loc }
func (p point) String() string              { return p.loc.String() }

func newExpr(typ string) symbolic.Expression {
	alloc := symbolic.NewHeapAllocation(symbolic.Types(typ))
	return symbolic.NewHeapReference(alloc, symbolic.Types("*"+typ))
}

func TestAssignAllocationBindsSite(t *testing.T) {
	p := symbolic.NewVariable("p", symbolic.AnyType, symbolic.Location{})
	pp := point{loc: symbolic.Location{File: "a.go", Line: 3}}

	h, err := New().Assign(p, newExpr("T"), pp)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	sites, ok := h.SitesOf(p)
	if !ok || len(sites) != 1 {
		t.Fatalf("p should point to one site, got %v", sites)
	}
	if sites[0].IsWeak() || sites[0].Loc() != pp.Location() {
		t.Errorf("first allocation should be a strong site at %s, got %s", pp, sites[0])
	}
	if len(h.Replacements()) != 0 {
		t.Errorf("first allocation should produce no replacements, got %v", h.Replacements())
	}
}

func TestReallocationWeakensSite(t *testing.T) {
	p := symbolic.NewVariable("p", symbolic.AnyType, symbolic.Location{})
	pp := point{loc: symbolic.Location{File: "a.go", Line: 3}}

	h, err := New().Assign(p, newExpr("T"), pp)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	h2, err := h.Assign(p, newExpr("T"), pp)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	sites, _ := h2.SitesOf(p)
	if len(sites) != 1 || !sites[0].IsWeak() {
		t.Errorf("re-allocation at the same point should collapse to one weak site, got %v", sites)
	}
	if len(h2.Replacements()) != 1 {
		t.Fatalf("expected a strong-to-weak replacement, got %v", h2.Replacements())
	}
	r := h2.Replacements()[0]
	if len(r.Sources) != 1 || len(r.Targets) != 1 ||
		r.Sources[0].IsWeak() || !r.Targets[0].IsWeak() {
		t.Errorf("replacement should map the strong site to its weak version, got %s", r)
	}
}

func TestAssignIntoSiteEmitsReplacement(t *testing.T) {
	p := symbolic.NewVariable("p", symbolic.AnyType, symbolic.Location{})
	pp := point{loc: symbolic.Location{File: "a.go", Line: 3}}
	h, _ := New().Assign(p, newExpr("T"), pp)

	sites, _ := h.SitesOf(p)
	strong := sites[0]
	h2, err := h.Assign(strong, symbolic.IntConst(1), point{loc: symbolic.Location{File: "a.go", Line: 4}})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(h2.Replacements()) != 1 {
		t.Fatalf("assignment into a strong site should weaken it, got %v", h2.Replacements())
	}
	weakened, _ := h2.SitesOf(p)
	if !weakened[0].IsWeak() {
		t.Errorf("the environment should hold the weakened site, got %v", weakened)
	}
}

func TestValueAssignLeavesHeapUnchanged(t *testing.T) {
	x := symbolic.NewVariable("x", symbolic.Types("int"), symbolic.Location{})
	pp := point{loc: symbolic.Location{File: "a.go", Line: 1}}
	h, err := New().Assign(x, symbolic.IntConst(3), pp)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, ok := h.SitesOf(x); ok {
		t.Errorf("a pure value assignment must not bind heap sites")
	}
	if !h.Equal(New()) {
		t.Errorf("heap should be unchanged, got %s", h)
	}
}

func TestHeapJoinCollapsesStrength(t *testing.T) {
	p := symbolic.NewVariable("p", symbolic.AnyType, symbolic.Location{})
	loc := symbolic.Location{File: "a.go", Line: 3}
	strong := symbolic.NewAllocationSite(symbolic.Types("T"), loc, false)
	weak := strong.ToWeak()

	a := PointBased{env: New().env.Assign(p, NewSiteSet(strong))}
	b := PointBased{env: New().env.Assign(p, NewSiteSet(weak))}
	j := a.Lub(b)
	sites, _ := j.SitesOf(p)
	if len(sites) != 1 || !sites[0].IsWeak() {
		t.Errorf("joining strong and weak views of one site should be weak, got %v", sites)
	}
	if !a.LessOrEqual(j) || !b.LessOrEqual(j) {
		t.Errorf("join is not an upper bound")
	}
}
