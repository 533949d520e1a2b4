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

import "testing"

// fakeHeap is a heap context backed by plain maps.
type fakeHeap struct {
	sites     map[string][]*AllocationSite
	allocated map[Location]bool
}

func (f fakeHeap) SitesOf(id Identifier) ([]*AllocationSite, bool) {
	s, ok := f.sites[id.Name()]
	return s, ok
}

func (f fakeHeap) IsAllocated(loc Location) bool { return f.allocated[loc] }

// point is a trivial program point.
type point struct{ loc Location }

func (p point) Location() Location { return p.loc }
func (p point) String() string     { return p.loc.String() }

func TestRewriteAllocation(t *testing.T) {
	loc := Location{File: "a.go", Line: 5}
	rw := Rewriter{Heap: fakeHeap{allocated: map[Location]bool{}}}
	got, err := rw.Rewrite(NewHeapAllocation(Types("T")), point{loc: loc})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected one allocation site, got %s", got)
	}
	site := got.Elements()[0].(*AllocationSite)
	if site.Loc() != loc || site.IsWeak() {
		t.Errorf("fresh site should be strong at the program point, got %s", site)
	}

	// second allocation at the same point is weak
	rw = Rewriter{Heap: fakeHeap{allocated: map[Location]bool{loc: true}}}
	got, _ = rw.Rewrite(NewHeapAllocation(Types("T")), point{loc: loc})
	if !got.Elements()[0].(*AllocationSite).IsWeak() {
		t.Errorf("re-allocated site should be weak")
	}
}

func TestRewriteVariableExpansion(t *testing.T) {
	loc := Location{File: "a.go", Line: 5}
	site := NewAllocationSite(Types("T"), loc, false)
	p := NewVariable("p", AnyType, Location{})
	heap := fakeHeap{sites: map[string][]*AllocationSite{"p": {site}}}
	rw := Rewriter{Heap: heap}

	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{name: "bare variable expands to pointers", expr: p, want: "&pp@a.go:5"},
		{name: "dereference of tracked variable", expr: NewHeapDereference(p, AnyType), want: "&pp@a.go:5"},
		{name: "reference of allocation", expr: NewHeapReference(NewHeapAllocation(Types("T")), AnyType), want: "&pp@a.go:7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rw.Rewrite(tt.expr, point{loc: Location{File: "a.go", Line: 7}})
			if err != nil {
				t.Fatalf("Rewrite: %v", err)
			}
			if got.Len() != 1 || got.Elements()[0].String() != tt.want {
				t.Errorf("rewrite(%s) = %s, want {%s}", tt.expr, got, tt.want)
			}
		})
	}
}

func TestRewriteAccessChildWeakens(t *testing.T) {
	loc := Location{File: "a.go", Line: 5}
	site := NewAllocationSite(Types("T"), loc, false)
	p := NewVariable("p", AnyType, Location{})
	rw := Rewriter{Heap: fakeHeap{sites: map[string][]*AllocationSite{"p": {site}}}}

	access := NewAccessChild(p, NewConstant(Types("string"), "f"), AnyType)
	got, err := rw.Rewrite(access, point{loc: Location{File: "a.go", Line: 6}})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected one identifier, got %s", got)
	}
	out, ok := got.Elements()[0].(*AllocationSite)
	if !ok || !out.IsWeak() || out.Loc() != loc {
		t.Errorf("field access should yield the weakened receiver site, got %s", got)
	}
}

func TestRewriteRecombinesOperands(t *testing.T) {
	locA := Location{File: "a.go", Line: 1}
	locB := Location{File: "a.go", Line: 2}
	p := NewVariable("p", AnyType, Location{})
	heap := fakeHeap{sites: map[string][]*AllocationSite{
		"p": {NewAllocationSite(Types("T"), locA, false), NewAllocationSite(Types("T"), locB, true)},
	}}
	rw := Rewriter{Heap: heap}
	sum := NewBinary(Add, p, IntConst(1), Types("int"))
	got, err := rw.Rewrite(sum, point{loc: Location{File: "a.go", Line: 9}})
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("two pointed-to sites should produce two recombined expressions, got %s", got)
	}
}
