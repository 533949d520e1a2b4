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

package graphutil

import (
	"sort"
	"testing"
)

func TestStronglyConnectedComponents(t *testing.T) {
	// a -> b -> c -> b, a -> d
	succ := map[string][]string{
		"a": {"b", "d"},
		"b": {"c"},
		"c": {"b"},
		"d": nil,
	}
	sccs := StronglyConnectedComponents([]string{"a", "b", "c", "d"},
		func(n string) []string { return succ[n] })

	var sizes []int
	for _, scc := range sccs {
		sizes = append(sizes, len(scc))
	}
	sort.Ints(sizes)
	if len(sccs) != 3 || sizes[0] != 1 || sizes[1] != 1 || sizes[2] != 2 {
		t.Fatalf("unexpected components %v", sccs)
	}

	// successors appear before their callers in the toposort
	pos := map[string]int{}
	for i, scc := range sccs {
		for _, n := range scc {
			pos[n] = i
		}
	}
	if pos["a"] < pos["b"] || pos["a"] < pos["d"] {
		t.Errorf("components should be toposorted leaves first: %v", sccs)
	}
}

func TestInSameComponent(t *testing.T) {
	succ := map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"c": {"c"},
		"d": {"a"},
	}
	members := InSameComponent([]string{"a", "b", "c", "d"},
		func(n string) []string { return succ[n] })

	if len(members["a"]) != 2 || len(members["b"]) != 2 {
		t.Errorf("a and b are mutually recursive: %v", members)
	}
	if len(members["c"]) != 1 {
		t.Errorf("a self loop is recursive: %v", members)
	}
	if _, ok := members["d"]; ok {
		t.Errorf("d is not recursive: %v", members)
	}
}

func TestFindAllElementaryCycles(t *testing.T) {
	labels := map[int64]string{0: "a", 1: "b", 2: "c"}
	edges := map[int64]map[int64]bool{
		0: {1: true},
		1: {0: true, 2: true},
		2: {2: true},
	}
	cg := NewCGraph(labels, edges)
	cycles := FindAllElementaryCycles(cg)
	if len(cycles) != 2 {
		t.Fatalf("expected the a-b cycle and the c self loop, got %v", cycles)
	}
}

func TestCGraphGonumInterface(t *testing.T) {
	labels := map[int64]string{0: "a", 1: "b"}
	edges := map[int64]map[int64]bool{0: {1: true}, 1: {}}
	cg := NewCGraph(labels, edges)

	if cg.Node(0) == nil || cg.Node(7) != nil {
		t.Errorf("Node lookup wrong")
	}
	if cg.Edge(0, 1) == nil || cg.Edge(1, 0) != nil {
		t.Errorf("Edge lookup wrong")
	}
	if !cg.HasEdgeBetween(1, 0) {
		t.Errorf("HasEdgeBetween is undirected")
	}
	nodes := cg.Nodes()
	count := 0
	for nodes.Next() {
		count++
	}
	if count != 2 || nodes.Len() != 2 {
		t.Errorf("node iterator wrong: %d", count)
	}
}

func TestTreeAncestors(t *testing.T) {
	root := NewTree("root")
	child := root.AddChild("a")
	leaf := child.AddChild("b")
	chain := leaf.Ancestors(-1)
	if len(chain) != 3 || chain[0].Label != "root" || chain[2].Label != "b" {
		t.Errorf("ancestors chain wrong: %v", chain)
	}
	if got := leaf.Ancestors(2); len(got) != 2 || got[0].Label != "a" {
		t.Errorf("bounded ancestors wrong")
	}
}
