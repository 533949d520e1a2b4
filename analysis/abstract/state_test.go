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

package abstract_test

import (
	"testing"

	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/domains"
	"github.com/argus-static/argus/analysis/heap"
	"github.com/argus-static/argus/analysis/symbolic"
)

type point struct{ loc symbolic.Location }

func (p point) Location() symbolic.Location { return p.loc }
func (p point) String() string              { return p.loc.String() }

type testState = abstract.SimpleState[heap.PointBased, domains.Env[domains.Interval], domains.Env[domains.StaticTypes]]

func newState() testState {
	return abstract.NewSimpleState(heap.New(), domains.NewEnv(domains.Interval{}), domains.NewEnv(domains.StaticTypes{}))
}

func intVar(name string) *symbolic.Variable {
	return symbolic.NewVariable(name, symbolic.Types("int"), symbolic.Location{})
}

func TestCompositeAssignThreadsAllComponents(t *testing.T) {
	x := intVar("x")
	pp := point{loc: symbolic.Location{File: "a.go", Line: 1}}
	s, err := newState().Assign(x, symbolic.IntConst(3), pp)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got := s.Values.GetState(x); !got.Equal(domains.IntervalOf(3)) {
		t.Errorf("value component = %s, want [3, 3]", got)
	}
	if got := s.Types.GetState(x); !got.TypeSet().Has("int") {
		t.Errorf("type component = %s, want int", got)
	}
}

func TestCompositeHeapReplacementReachesValues(t *testing.T) {
	p := intVar("p")
	loc := symbolic.Location{File: "a.go", Line: 3}
	pp := point{loc: loc}
	alloc := symbolic.NewHeapReference(symbolic.NewHeapAllocation(symbolic.Types("T")), symbolic.Types("*T"))

	s, err := newState().Assign(p, alloc, pp)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	// write through the site, then re-allocate: the site weakens and the value domain
	// must keep the field summary under the (same-named) weak site
	sites, _ := s.Heap.SitesOf(p)
	s, err = s.Assign(sites[0].ToWeak(), symbolic.IntConst(1), pp)
	if err != nil {
		t.Fatalf("Assign into site: %v", err)
	}
	s, err = s.Assign(p, alloc, pp)
	if err != nil {
		t.Fatalf("re-Assign: %v", err)
	}
	weakSites, _ := s.Heap.SitesOf(p)
	if len(weakSites) != 1 || !weakSites[0].IsWeak() {
		t.Fatalf("expected one weak site, got %v", weakSites)
	}
	if got := s.Values.GetState(weakSites[0]); !got.Equal(domains.IntervalOf(1)) {
		t.Errorf("site summary lost across weakening: %s", got)
	}
}

func TestSmallStepIdempotentOnConstants(t *testing.T) {
	pp := point{loc: symbolic.Location{File: "a.go", Line: 1}}
	s := abstract.NewAnalysisState(newState())
	once, err := s.SmallStepSemantics(symbolic.IntConst(7), pp)
	if err != nil {
		t.Fatalf("SmallStepSemantics: %v", err)
	}
	twice, err := once.SmallStepSemantics(symbolic.IntConst(7), pp)
	if err != nil {
		t.Fatalf("SmallStepSemantics: %v", err)
	}
	if !once.Equal(twice) {
		t.Errorf("small-stepping a constant twice should be idempotent")
	}
	if !once.Computed().Contains(symbolic.IntConst(7)) || once.Computed().Len() != 1 {
		t.Errorf("computed set should be {7}, got %s", once.Computed())
	}
}

func TestAnalysisStateComputedTracking(t *testing.T) {
	x := intVar("x")
	pp := point{loc: symbolic.Location{File: "a.go", Line: 1}}
	s := abstract.NewAnalysisState(newState())

	assigned, err := s.Assign(x, symbolic.IntConst(1), pp)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.Computed().Len() != 1 || !assigned.Computed().Contains(x) {
		t.Errorf("assignment should compute {x}, got %s", assigned.Computed())
	}

	cond := symbolic.NewBinary(symbolic.Lt, x, symbolic.IntConst(10), symbolic.Types("bool"))
	assumed, err := assigned.Assume(cond, pp, pp)
	if err != nil {
		t.Fatalf("Assume: %v", err)
	}
	if !assumed.Computed().Equal(assigned.Computed()) {
		t.Errorf("assume should preserve the computed set")
	}
}

func TestAnalysisStateBottomInvariant(t *testing.T) {
	s := abstract.NewAnalysisState(newState())
	bot := s.Bottom()
	if !bot.IsBottom() {
		t.Errorf("bottom should satisfy IsBottom")
	}
	if !bot.Computed().IsEmpty() {
		t.Errorf("bottom must carry no computed expressions")
	}
	top := s.Top()
	if !top.IsTop() || !top.Computed().IsAny() {
		t.Errorf("top must carry the any-expression set")
	}
	if !bot.LessOrEqual(s) || !s.LessOrEqual(top) {
		t.Errorf("bottom ≤ s ≤ top violated")
	}
}

func TestInfoMapStores(t *testing.T) {
	s := abstract.NewAnalysisState(newState())
	v1 := abstract.WrapInfo(domains.IntervalOf(1))
	v2 := abstract.WrapInfo(domains.IntervalOf(5))

	s = s.StoreInfo("k", v1)
	s = s.WeakStoreInfo("k", v2)
	got, ok := s.GetInfo("k")
	if !ok {
		t.Fatalf("key should be present")
	}
	iv := got.(abstract.InfoLattice[domains.Interval]).Value
	if !iv.Equal(domains.IntervalRange(1, 5)) {
		t.Errorf("weak store should join, got %s", iv)
	}

	s = s.StoreInfo("k", v1)
	got, _ = s.GetInfo("k")
	if !got.(abstract.InfoLattice[domains.Interval]).Value.Equal(domains.IntervalOf(1)) {
		t.Errorf("strong store should replace")
	}

	// bottom is a valid stored value and is preserved
	s = s.StoreInfo("b", abstract.WrapInfo(domains.Interval{}.Bottom()))
	if _, ok := s.GetInfo("b"); !ok {
		t.Errorf("bottom values must be preserved in the info map")
	}
}
