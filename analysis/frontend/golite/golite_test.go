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

package golite

import (
	"testing"

	"github.com/argus-static/argus/analysis/cfg"
)

func parse(t *testing.T, src string) *cfg.Program {
	t.Helper()
	prog, err := ParseFile("test.go", "package main"+src)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return prog
}

func kinds(g *cfg.Graph) []cfg.Kind {
	var out []cfg.Kind
	for _, st := range g.Nodes() {
		out = append(out, st.Kind())
	}
	return out
}

func TestLowerStraightLine(t *testing.T) {
	prog := parse(t, `
func main() {
	x := 3
	y := x + 4
}`)
	g, ok := prog.Graph("main")
	if !ok {
		t.Fatal("main not lowered")
	}
	got := kinds(g)
	if len(got) != 2 || got[0] != cfg.KindAssign || got[1] != cfg.KindAssign {
		t.Errorf("kinds = %v", got)
	}
	if g.Node(0).Location().Line != 3 {
		t.Errorf("first assign should be on line 3, got %d", g.Node(0).Location().Line)
	}
}

func TestLowerIfElse(t *testing.T) {
	prog := parse(t, `
func main() {
	x := 1
	if x < 2 {
		x = 2
	} else {
		x = 3
	}
	x = 4
}`)
	g, _ := prog.Graph("main")

	var branch *cfg.Statement
	for _, st := range g.Nodes() {
		if st.Kind() == cfg.KindBranch {
			branch = st
		}
	}
	if branch == nil {
		t.Fatal("no branch lowered")
	}
	var hasTrue, hasFalse bool
	for _, e := range g.Out(branch.ID()) {
		hasTrue = hasTrue || e.Kind == cfg.EdgeTrue
		hasFalse = hasFalse || e.Kind == cfg.EdgeFalse
	}
	if !hasTrue || !hasFalse {
		t.Errorf("branch must carry a true and a false edge")
	}

	// the join statement x = 4 has two predecessors
	var join *cfg.Statement
	for _, st := range g.Nodes() {
		if st.Kind() == cfg.KindAssign && st.Location().Line == 9 {
			join = st
		}
	}
	if join == nil || len(g.In(join.ID())) != 2 {
		t.Errorf("both arms should flow into the join")
	}
}

func TestLowerForLoop(t *testing.T) {
	prog := parse(t, `
func main() {
	x := 0
	for x < 10 {
		x = x + 1
	}
}`)
	g, _ := prog.Graph("main")
	var branch, body *cfg.Statement
	for _, st := range g.Nodes() {
		switch {
		case st.Kind() == cfg.KindBranch:
			branch = st
		case st.Kind() == cfg.KindAssign && st.Location().Line == 5:
			body = st
		}
	}
	if branch == nil || body == nil {
		t.Fatal("loop shape not lowered")
	}
	backEdge := false
	for _, e := range g.Out(body.ID()) {
		if e.Dst == branch.ID() {
			backEdge = true
		}
	}
	if !backEdge {
		t.Errorf("loop body must flow back to the condition")
	}
}

func TestDesugarIncDec(t *testing.T) {
	prog := parse(t, `
func main() {
	x := 0
	x++
	x -= 2
}`)
	g, _ := prog.Graph("main")
	got := kinds(g)
	for _, k := range got {
		if k != cfg.KindAssign {
			t.Fatalf("desugared program should contain only assignments, got %v", got)
		}
	}
	if g.Node(1).Location().Line != 4 {
		t.Errorf("desugared x++ should keep its source line, got %d", g.Node(1).Location().Line)
	}
	if g.Node(1).String() != "x = (x + 1)" {
		t.Errorf("x++ should lower to x = (x + 1), got %q", g.Node(1))
	}
}

func TestHoistNestedCalls(t *testing.T) {
	prog := parse(t, `
func f(x int) int {
	return x
}

func main() {
	y := f(1) + f(2)
}`)
	g, _ := prog.Graph("main")
	calls := 0
	for _, st := range g.Nodes() {
		if st.Kind() == cfg.KindCall {
			calls++
			if st.Target == nil {
				t.Errorf("hoisted calls must bind a temporary")
			}
		}
	}
	if calls != 2 {
		t.Errorf("both nested calls should be hoisted, got %d", calls)
	}
}

func TestEntryPoints(t *testing.T) {
	prog := parse(t, `
func helper() {
	x := 1
}

func main() {
	helper()
}`)
	entries := prog.EntryPoints()
	if len(entries) != 1 || entries[0] != "main" {
		t.Errorf("main should be the only entry point, got %v", entries)
	}
}

func TestValidationOfUnsupported(t *testing.T) {
	_, err := ParseFile("test.go", `package main
func main() {
	go main()
}`)
	if err == nil {
		t.Errorf("unsupported statements should fail validation")
	}
}
