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

package interproc

import (
	"testing"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/symbolic"
)

// buildProgram builds a program where each function performs the listed calls.
func buildProgram(calls map[string][]string, order []string) *cfg.Program {
	prog := cfg.NewProgram()
	for _, name := range order {
		g := cfg.NewGraph(cfg.Descriptor{Name: name})
		loc := symbolic.Location{File: name + ".go", Line: 1}
		first := g.AddSkip(loc)
		prev := first
		for i, callee := range calls[name] {
			st := g.AddCall(nil, callee, nil, symbolic.Location{File: name + ".go", Line: 2 + i})
			g.AddEdge(prev, st, cfg.EdgeSeq)
			prev = st
		}
		g.SetEntry(first)
		prog.AddGraph(g)
	}
	return prog
}

func TestCallGraphComponents(t *testing.T) {
	prog := buildProgram(map[string][]string{
		"main": {"f", "g"},
		"f":    {"g"},
		"g":    {"f"},
		"solo": nil,
		"self": {"self"},
	}, []string{"main", "f", "g", "solo", "self"})

	cg := BuildCallGraph(prog, nil)
	tests := []struct {
		name      string
		recursive bool
	}{
		{name: "main", recursive: false},
		{name: "f", recursive: true},
		{name: "g", recursive: true},
		{name: "solo", recursive: false},
		{name: "self", recursive: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := len(cg.Component(tt.name)) > 0
			if got != tt.recursive {
				t.Errorf("Component(%s) recursive = %v, want %v", tt.name, got, tt.recursive)
			}
		})
	}
	if comp := cg.Component("f"); len(comp) != 2 {
		t.Errorf("f and g should share a component, got %v", comp)
	}
}

func TestCallGraphResolve(t *testing.T) {
	prog := buildProgram(map[string][]string{
		"main": {"f", "missing"},
		"f":    nil,
	}, []string{"main", "f"})
	cg := BuildCallGraph(prog, nil)
	g, _ := prog.Graph("main")

	var resolved, open *cfg.Statement
	for _, st := range g.Nodes() {
		if st.Kind() != cfg.KindCall {
			continue
		}
		if st.Call.Callee == "f" {
			resolved = st
		} else {
			open = st
		}
	}

	callees, err := cg.Resolve(resolved)
	if err != nil || len(callees) != 1 || callees[0].Descriptor().Name != "f" {
		t.Errorf("Resolve(f) = %v, %v", callees, err)
	}
	callees, err = cg.Resolve(open)
	if err != nil || len(callees) != 0 {
		t.Errorf("open calls resolve to the empty set, got %v, %v", callees, err)
	}
}

func TestCallGraphCycles(t *testing.T) {
	prog := buildProgram(map[string][]string{
		"f": {"g"},
		"g": {"f"},
	}, []string{"f", "g"})
	cg := BuildCallGraph(prog, nil)
	cycles := cg.ElementaryCycles()
	if len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Errorf("expected one two-node cycle, got %v", cycles)
	}
}
