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

package fixpoint

import (
	"errors"
	"testing"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/analysis/domains"
	"github.com/argus-static/argus/analysis/symbolic"
)

// incTrans interprets every assign statement as "add one" over a single interval and
// branch edges as the identity. It is enough to drive the engine through loops.
type incTrans struct{}

func (incTrans) StatementSemantics(st *cfg.Statement, pre domains.Interval) (domains.Interval, error) {
	if st.Kind() == cfg.KindAssign {
		return domains.Interval{}.EvalBinary(symbolic.Add, pre, domains.IntervalOf(1)), nil
	}
	return pre, nil
}

func (incTrans) EdgeSemantics(e cfg.Edge, src domains.Interval) (domains.Interval, error) {
	return src, nil
}

// straightLine builds skip -> assign -> assign.
func straightLine() *cfg.Graph {
	g := cfg.NewGraph(cfg.Descriptor{Name: "straight"})
	loc := symbolic.Location{File: "t.go", Line: 1}
	x := symbolic.NewVariable("x", symbolic.Types("int"), loc)
	n0 := g.AddSkip(loc)
	n1 := g.AddAssign(x, symbolic.IntConst(0), loc)
	n2 := g.AddAssign(x, symbolic.IntConst(0), loc)
	g.AddEdge(n0, n1, cfg.EdgeSeq)
	g.AddEdge(n1, n2, cfg.EdgeSeq)
	g.SetEntry(n0)
	return g
}

// loop builds branch -> assign -> branch (back edge) with a false exit to a skip.
func loop() *cfg.Graph {
	g := cfg.NewGraph(cfg.Descriptor{Name: "loop"})
	loc := symbolic.Location{File: "t.go", Line: 2}
	x := symbolic.NewVariable("x", symbolic.Types("int"), loc)
	branch := g.AddBranch(symbolic.BoolConst(true), loc)
	body := g.AddAssign(x, symbolic.IntConst(0), loc)
	exit := g.AddSkip(loc)
	g.AddEdge(branch, body, cfg.EdgeTrue)
	g.AddEdge(body, branch, cfg.EdgeSeq)
	g.AddEdge(branch, exit, cfg.EdgeFalse)
	g.SetEntry(branch)
	return g
}

func engineConf() Config {
	return Config{
		WideningThreshold: 3,
		NarrowingSteps:    1,
		WorkingSet:        config.WorkingSetDedupFIFO,
	}
}

func TestStraightLineFixpoint(t *testing.T) {
	g := straightLine()
	eng := &Engine[domains.Interval]{Graph: g, Trans: incTrans{}, Conf: engineConf()}
	res, err := eng.Fixpoint(domains.IntervalOf(0))
	if err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}
	exit, err := res.ExitState()
	if err != nil {
		t.Fatalf("ExitState: %v", err)
	}
	if !exit.Equal(domains.IntervalOf(2)) {
		t.Errorf("exit = %s, want [2, 2]", exit)
	}
}

// TestFixpointMonotonicity reruns the fixpoint with a larger entry state and checks the
// exits grew pointwise.
func TestFixpointMonotonicity(t *testing.T) {
	g := straightLine()
	eng := &Engine[domains.Interval]{Graph: g, Trans: incTrans{}, Conf: engineConf()}
	small, err := eng.Fixpoint(domains.IntervalOf(0))
	if err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}
	big, err := eng.Fixpoint(domains.IntervalRange(0, 10))
	if err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}
	for _, st := range g.Nodes() {
		s, _ := small.PostStateOf(st)
		b, _ := big.PostStateOf(st)
		if !s.LessOrEqual(b) {
			t.Errorf("monotonicity violated at node %d: %s > %s", st.ID(), s, b)
		}
	}
}

func TestLoopWideningTerminates(t *testing.T) {
	g := loop()
	eng := &Engine[domains.Interval]{Graph: g, Trans: incTrans{}, Conf: engineConf()}
	res, err := eng.Fixpoint(domains.IntervalOf(0))
	if err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}
	body := g.Node(1)
	post, err := res.PostStateOf(body)
	if err != nil {
		t.Fatalf("PostStateOf: %v", err)
	}
	if _, hi := post.Bounds(); hi.String() != "+∞" {
		t.Errorf("loop body should widen to +∞, got %s", post)
	}
}

func TestOptimizedUnwindingMatches(t *testing.T) {
	g := straightLine()
	plain, err := (&Engine[domains.Interval]{Graph: g, Trans: incTrans{}, Conf: engineConf()}).
		Fixpoint(domains.IntervalOf(0))
	if err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}
	conf := engineConf()
	conf.Optimize = true
	opt, err := (&Engine[domains.Interval]{Graph: g, Trans: incTrans{}, Conf: conf}).
		Fixpoint(domains.IntervalOf(0))
	if err != nil {
		t.Fatalf("Fixpoint: %v", err)
	}
	for _, st := range g.Nodes() {
		want, _ := plain.PostStateOf(st)
		got, err := opt.PostStateOf(st)
		if err != nil {
			t.Fatalf("unwinding node %d: %v", st.ID(), err)
		}
		if !got.Equal(want) {
			t.Errorf("unwound state of node %d = %s, want %s", st.ID(), got, want)
		}
	}
}

func TestCancellation(t *testing.T) {
	g := loop()
	cancel := &Cancellation{}
	cancel.Cancel()
	conf := engineConf()
	conf.Cancel = cancel
	_, err := (&Engine[domains.Interval]{Graph: g, Trans: incTrans{}, Conf: conf}).
		Fixpoint(domains.IntervalOf(0))
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}
