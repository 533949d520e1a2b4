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

package cfg

import (
	"fmt"

	"golang.org/x/tools/container/intsets"

	"github.com/argus-static/argus/analysis/symbolic"
)

// Descriptor is the signature of a CFG: its name, formal parameters and whether it
// returns a value.
type Descriptor struct {
	Name         string
	Formals      []*symbolic.Variable
	ReturnsValue bool
	ReturnTypes  symbolic.TypeSet
	Loc          symbolic.Location
}

// ReturnVariable is the meta variable carrying the return value of the CFG across the
// call boundary.
func (d Descriptor) ReturnVariable() *symbolic.Variable {
	return symbolic.NewMetaVariable("ret$"+d.Name, d.ReturnTypes)
}

func (d Descriptor) String() string {
	var formals []string
	for _, f := range d.Formals {
		formals = append(formals, f.BaseName())
	}
	s := d.Name + "("
	for i, f := range formals {
		if i > 0 {
			s += ", "
		}
		s += f
	}
	return s + ")"
}

// Graph is the control-flow graph of one code member. Nodes are arena-allocated and
// addressed by ids; edge slices keep insertion order, which the fixpoint relies on for
// deterministic scheduling. A graph is mutable until Finalize and immutable afterwards.
type Graph struct {
	desc      Descriptor
	nodes     []*Statement
	out       [][]Edge
	in        [][]Edge
	entries   []int
	finalized bool
	numBlocks int
}

// NewGraph returns an empty graph with the given descriptor.
func NewGraph(desc Descriptor) *Graph {
	return &Graph{desc: desc}
}

// Descriptor returns the graph's descriptor.
func (g *Graph) Descriptor() Descriptor { return g.desc }

// Finalized reports whether Finalize has run.
func (g *Graph) Finalized() bool { return g.finalized }

// Size returns the number of statements.
func (g *Graph) Size() int { return len(g.nodes) }

// NumBlocks returns the number of basic blocks computed by Finalize.
func (g *Graph) NumBlocks() int { return g.numBlocks }

// Node returns the statement with the given id.
func (g *Graph) Node(id int) *Statement {
	if id < 0 || id >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns the statements in id order. The result must not be mutated.
func (g *Graph) Nodes() []*Statement { return g.nodes }

// Out returns the outgoing edges of id in insertion order.
func (g *Graph) Out(id int) []Edge { return g.out[id] }

// In returns the incoming edges of id in insertion order.
func (g *Graph) In(id int) []Edge { return g.in[id] }

// Entries returns the entry node ids.
func (g *Graph) Entries() []int { return g.entries }

// Exits returns the ids of the exit statements: returns, and nodes without successors.
func (g *Graph) Exits() []int {
	var exits []int
	for _, n := range g.nodes {
		if n.kind == KindReturn || len(g.out[n.id]) == 0 {
			exits = append(exits, n.id)
		}
	}
	return exits
}

func (g *Graph) add(st *Statement) *Statement {
	if g.finalized {
		panic("cfg: adding a node to a finalized graph")
	}
	st.id = len(g.nodes)
	st.block = -1
	g.nodes = append(g.nodes, st)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return st
}

// AddSkip appends a no-op statement.
func (g *Graph) AddSkip(loc symbolic.Location) *Statement {
	return g.add(&Statement{kind: KindSkip, loc: loc, Expr: symbolic.Skip{}})
}

// AddAssign appends target = expr.
func (g *Graph) AddAssign(target, expr symbolic.Expression, loc symbolic.Location) *Statement {
	return g.add(&Statement{kind: KindAssign, Target: target, Expr: expr, loc: loc})
}

// AddEval appends the evaluation of expr.
func (g *Graph) AddEval(expr symbolic.Expression, loc symbolic.Location) *Statement {
	return g.add(&Statement{kind: KindEval, Expr: expr, loc: loc})
}

// AddBranch appends a branch on cond; its outgoing edges must be one true and one false
// edge.
func (g *Graph) AddBranch(cond symbolic.Expression, loc symbolic.Location) *Statement {
	return g.add(&Statement{kind: KindBranch, Expr: cond, loc: loc})
}

// AddReturn appends a return of expr (nil for a bare return).
func (g *Graph) AddReturn(expr symbolic.Expression, loc symbolic.Location) *Statement {
	return g.add(&Statement{kind: KindReturn, Expr: expr, loc: loc})
}

// AddCall appends a call statement, optionally binding its result to target.
func (g *Graph) AddCall(target symbolic.Expression, callee string, args []symbolic.Expression, loc symbolic.Location) *Statement {
	return g.add(&Statement{
		kind:   KindCall,
		Target: target,
		Call:   &CallSite{Callee: callee, Args: args},
		loc:    loc,
	})
}

// AddEdge connects two statements.
func (g *Graph) AddEdge(src, dst *Statement, kind EdgeKind) {
	if g.finalized {
		panic("cfg: adding an edge to a finalized graph")
	}
	e := Edge{Src: src.id, Dst: dst.id, Kind: kind}
	g.out[src.id] = append(g.out[src.id], e)
	g.in[dst.id] = append(g.in[dst.id], e)
}

// SetEntry marks the entry statements of the graph.
func (g *Graph) SetEntry(sts ...*Statement) {
	g.entries = nil
	for _, st := range sts {
		g.entries = append(g.entries, st.id)
	}
}

// Finalize computes basic blocks and freezes the graph. A statement is a block leader
// when it is an entry, has several or conditional predecessors, or follows a branch.
// Finalize is idempotent and must complete before the fixpoint starts.
func (g *Graph) Finalize() {
	if g.finalized {
		return
	}
	var leaders intsets.Sparse
	for _, e := range g.entries {
		leaders.Insert(e)
	}
	for _, n := range g.nodes {
		in := g.in[n.id]
		if len(in) > 1 {
			leaders.Insert(n.id)
		}
		for _, e := range in {
			if e.Kind != EdgeSeq || g.nodes[e.Src].kind == KindBranch {
				leaders.Insert(n.id)
			}
		}
	}
	block := -1
	for _, n := range g.nodes {
		if leaders.Has(n.id) || block < 0 {
			block++
		}
		n.block = block
	}
	g.numBlocks = block + 1
	g.finalized = true
}

// BlockHead returns true when the statement is the first of its basic block.
func (g *Graph) BlockHead(st *Statement) bool {
	if st.id == 0 {
		return true
	}
	return g.nodes[st.id-1].block != st.block
}

func (g *Graph) String() string {
	return fmt.Sprintf("cfg %s (%d nodes)", g.desc, len(g.nodes))
}
