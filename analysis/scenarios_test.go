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

package analysis_test

import (
	"testing"

	"github.com/argus-static/argus/analysis"
	"github.com/argus-static/argus/analysis/abstract"
	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/checks"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/analysis/domains"
	"github.com/argus-static/argus/analysis/frontend/golite"
	"github.com/argus-static/argus/analysis/symbolic"
)

func parseProgram(t *testing.T, src string) *cfg.Program {
	t.Helper()
	prog, err := golite.ParseFile("test.go", src)
	if err != nil {
		t.Fatalf("frontend: %v", err)
	}
	return prog
}

func quietConfig() *config.Config {
	conf := config.NewDefault()
	conf.LogLevel = int(config.ErrLevel)
	return conf
}

func intVar(name string) *symbolic.Variable {
	return symbolic.NewVariable(name, symbolic.Types("int"), symbolic.Location{})
}

// findAssign returns the statement assigning to the named variable.
func findAssign(t *testing.T, g *cfg.Graph, name string) *cfg.Statement {
	t.Helper()
	for _, st := range g.Nodes() {
		if st.Kind() != cfg.KindAssign && st.Kind() != cfg.KindCall {
			continue
		}
		if v, ok := st.Target.(*symbolic.Variable); ok && v.BaseName() == name {
			return st
		}
	}
	t.Fatalf("no assignment to %s", name)
	return nil
}

// TestConstantPropagationStraightLine checks x = 3; y = x + 4; z = y * 2 under constant
// propagation.
func TestConstantPropagationStraightLine(t *testing.T) {
	prog := parseProgram(t, `package main
func main() {
	x := 3
	y := x + 4
	z := y * 2
}`)
	_, analyzer, err := analysis.RunWith(quietConfig(), prog,
		domains.NewEnv(domains.ConstProp{}), nil, nil, nil)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}

	results := analyzer.ResultsOf("main")
	if len(results) != 1 {
		t.Fatalf("expected one analyzed CFG, got %d", len(results))
	}
	exit, err := results[0].Result.ExitState()
	if err != nil {
		t.Fatalf("ExitState: %v", err)
	}

	tests := []struct {
		name string
		want int64
	}{
		{name: "x", want: 3},
		{name: "y", want: 7},
		{name: "z", want: 14},
	}
	for _, tt := range tests {
		got := exit.State().Values.GetState(intVar(tt.name))
		if v, ok := got.Value(); !ok || v != tt.want {
			t.Errorf("%s = %s, want %d", tt.name, got, tt.want)
		}
	}
}

// TestSignLoop checks x = 1; while (x < 1000) x = x + 1 under the sign domain with
// widening threshold 3.
func TestSignLoop(t *testing.T) {
	prog := parseProgram(t, `package main
func main() {
	x := 1
	for x < 1000 {
		x = x + 1
	}
}`)
	conf := quietConfig()
	conf.WideningThreshold = 3
	_, analyzer, err := analysis.RunWith(conf, prog, domains.NewEnv(domains.Sign{}), nil, nil, nil)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	exit, err := analyzer.ResultsOf("main")[0].Result.ExitState()
	if err != nil {
		t.Fatalf("ExitState: %v", err)
	}
	if got := exit.State().Values.GetState(intVar("x")); !got.Equal(domains.Positive) {
		t.Errorf("x at exit = %s, want positive", got)
	}
}

// TestReachingDefinitions checks x = 1; if (*) x = 2; else x = 3; y = x: the read of x
// sees the definitions of both arms.
func TestReachingDefinitions(t *testing.T) {
	prog := parseProgram(t, `package main
func main() {
	x := 1
	if nondet() {
		x = 2
	} else {
		x = 3
	}
	y := x
}`)
	_, analyzer, err := analysis.RunWith(quietConfig(), prog, domains.NewReachDefs(), nil, nil, nil)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	result := analyzer.ResultsOf("main")[0].Result
	read := findAssign(t, result.Graph(), "y")
	pre, err := result.PreStateOf(read)
	if err != nil {
		t.Fatalf("PreStateOf: %v", err)
	}
	defs := pre.State().Values.Definitions(intVar("x"))
	if len(defs) != 2 || defs[0].Line != 5 || defs[1].Line != 7 {
		t.Errorf("reaching definitions of x = %v, want lines 5 and 7", defs)
	}

	post, err := result.PostStateOf(read)
	if err != nil {
		t.Fatalf("PostStateOf: %v", err)
	}
	if got := post.State().Values.Definitions(intVar("y")); len(got) != 1 || got[0].Line != 9 {
		t.Errorf("definition of y = %v, want line 9", got)
	}
}

// TestHeapAllocationInLoop checks while (*) { p = new T; p.f = 1 }: one weak allocation
// site, bound in the heap environment and summarized weakly in the value domain.
func TestHeapAllocationInLoop(t *testing.T) {
	prog := parseProgram(t, `package main
func main() {
	for nondet() {
		p := new(T)
		p.f = 1
	}
}`)
	_, analyzer, err := analysis.RunWith(quietConfig(), prog,
		domains.NewEnv(domains.Interval{}), nil, nil, nil)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	exit, err := analyzer.ResultsOf("main")[0].Result.ExitState()
	if err != nil {
		t.Fatalf("ExitState: %v", err)
	}

	p := symbolic.NewVariable("p", symbolic.Types("*T"), symbolic.Location{})
	sites, ok := exit.State().Heap.SitesOf(p)
	if !ok || len(sites) != 1 {
		t.Fatalf("p should point to exactly one site, got %v", sites)
	}
	if !sites[0].IsWeak() {
		t.Errorf("the looped allocation site must be weak, got %s", sites[0])
	}
	if got := exit.State().Values.GetState(sites[0]); !got.Equal(domains.IntervalOf(1)) {
		t.Errorf("field summary = %s, want [1, 1]", got)
	}
}

// TestInterproceduralContexts checks two call sites of f(x) = x + 1 under k=1 call-site
// sensitivity: two summaries, and each caller sees its own result.
func TestInterproceduralContexts(t *testing.T) {
	prog := parseProgram(t, `package main
func f(x int) int {
	return x + 1
}

func main() {
	a := f(10)
	b := f(20)
}`)
	_, analyzer, err := analysis.RunWith(quietConfig(), prog,
		domains.NewEnv(domains.ConstProp{}), nil, nil, nil)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}

	if summaries := analyzer.ResultsOf("f"); len(summaries) != 2 {
		t.Fatalf("k=1 should key one summary per call site, got %d", len(summaries))
	}
	exit, err := analyzer.ResultsOf("main")[0].Result.ExitState()
	if err != nil {
		t.Fatalf("ExitState: %v", err)
	}
	if v, ok := exit.State().Values.GetState(intVar("a")).Value(); !ok || v != 11 {
		t.Errorf("a = %s, want 11", exit.State().Values.GetState(intVar("a")))
	}
	if v, ok := exit.State().Values.GetState(intVar("b")).Value(); !ok || v != 21 {
		t.Errorf("b = %s, want 21", exit.State().Values.GetState(intVar("b")))
	}
}

// TestRecursionStabilizes checks the factorial-like recursion under intervals: the
// analysis terminates and the recursive summary widens its upper bound to +∞.
func TestRecursionStabilizes(t *testing.T) {
	prog := parseProgram(t, `package main
func fact(n int) int {
	if n <= 0 {
		return 1
	}
	return n * fact(n-1)
}

func main() {
	r := fact(5)
}`)
	_, analyzer, err := analysis.RunWith(quietConfig(), prog,
		domains.NewEnv(domains.Interval{}), nil, nil, nil)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}

	if summaries := analyzer.ResultsOf("fact"); len(summaries) != 2 {
		t.Errorf("expected summaries for the root and the recursive site, got %d", len(summaries))
	}
	if len(analyzer.Recursions()) == 0 {
		t.Errorf("the recursion should have been detected and recorded")
	}

	exit, err := analyzer.ResultsOf("main")[0].Result.ExitState()
	if err != nil {
		t.Fatalf("ExitState: %v", err)
	}
	r := exit.State().Values.GetState(intVar("r"))
	if r.IsBottom() {
		t.Fatalf("r should not be bottom")
	}
	if _, hi := r.Bounds(); hi.String() != "+∞" {
		t.Errorf("the recursive summary should widen above, got %s", r)
	}
}

// countingCheck is a semantic check flagging every constant assignment it sees.
type countingCheck struct{}

func (countingCheck) Name() string { return "flag-constants" }

func (countingCheck) Visit(tool *checks.Tool, g *cfg.Graph, st *cfg.Statement,
	states []abstract.AnalysisState[analysis.ConstantState]) {
	if st.Kind() != cfg.KindAssign {
		return
	}
	for _, s := range states {
		if v, ok := st.Target.(*symbolic.Variable); ok {
			if c, known := s.State().Values.GetState(v).Value(); known {
				tool.Warn(st.Location(), "%s is always %d", v.BaseName(), c)
				return
			}
		}
	}
}

func TestSemanticChecksEmitWarnings(t *testing.T) {
	prog := parseProgram(t, `package main
func main() {
	x := 3
	y := x + 4
}`)
	report, _, err := analysis.RunWith(quietConfig(), prog, domains.NewEnv(domains.ConstProp{}),
		nil, []checks.SemanticCheck[analysis.ConstantState]{countingCheck{}}, nil)
	if err != nil {
		t.Fatalf("RunWith: %v", err)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected one warning per constant assignment, got %v", report.Warnings)
	}
	if report.Warnings[0].Loc.Line != 3 || report.Warnings[1].Loc.Line != 4 {
		t.Errorf("warning locations wrong: %v", report.Warnings)
	}
}
