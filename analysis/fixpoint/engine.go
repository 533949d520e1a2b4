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
	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/lattice"
)

// Transitions provides the abstract semantics the engine iterates: the effect of a
// statement on a state, and the effect of traversing an edge (true/false edges assume the
// source's branch condition).
type Transitions[S lattice.Element[S]] interface {
	// StatementSemantics returns the state after executing st from pre
	StatementSemantics(st *cfg.Statement, pre S) (S, error)

	// EdgeSemantics transforms the state flowing along e
	EdgeSemantics(e cfg.Edge, src S) (S, error)
}

// Config are the iteration parameters of a CFG fixpoint.
type Config struct {
	// WideningThreshold is the number of visits of a node before joins become widenings
	WideningThreshold int

	// NarrowingSteps bounds the descending passes; 0 disables the descending phase
	NarrowingSteps int

	// WorkingSet selects the scheduling discipline (config.WorkingSet* values)
	WorkingSet string

	// Optimize keeps only block-head and exit states in the result, rebuilding the
	// others on demand
	Optimize bool

	// Cancel is checked between working-set pops; may be nil
	Cancel *Cancellation
}

// Engine runs the monotone fixpoint of Trans over Graph.
type Engine[S lattice.Element[S]] struct {
	Graph *cfg.Graph
	Trans Transitions[S]
	Conf  Config
}

// Fixpoint iterates to a post-fixpoint from the given entry state: an ascending phase
// with widening after the threshold, then at most NarrowingSteps descending passes. The
// returned error is the setup error of an unknown working-set kind, ErrCancelled, or a
// *FixpointError wrapping the failing node; lattice invariant panics are recovered into
// fixpoint errors.
func (e *Engine[S]) Fixpoint(entry S) (res *Result[S], err error) {
	g := e.Graph
	if !g.Finalized() {
		g.Finalize()
	}
	defer func() {
		if r := recover(); r != nil {
			if lerr, ok := r.(*lattice.LatticeError); ok {
				err = &FixpointError{Node: g.Node(0), Err: lerr}
				res = nil
				return
			}
			panic(r)
		}
	}()

	n := g.Size()
	bot := entry.Bottom()
	pre := make([]S, n)
	post := make([]S, n)
	for i := 0; i < n; i++ {
		pre[i] = bot
		post[i] = bot
	}
	visits := make([]int, n)
	isEntry := map[int]bool{}
	for _, id := range g.Entries() {
		isEntry[id] = true
	}

	ws, werr := NewWorkingSet[int](e.Conf.WorkingSet)
	if werr != nil {
		return nil, werr
	}
	for _, id := range g.Entries() {
		ws.Push(id)
	}

	for ws.Len() > 0 {
		if e.Conf.Cancel.Cancelled() {
			return nil, ErrCancelled
		}
		id, perr := ws.Pop()
		if perr != nil {
			return nil, perr
		}
		st := g.Node(id)

		s, serr := e.joinPredecessors(id, post, isEntry[id], entry)
		if serr != nil {
			return nil, serr
		}
		pre[id] = s

		newPost, terr := e.Trans.StatementSemantics(st, s)
		if terr != nil {
			return nil, &FixpointError{Node: st, Err: terr}
		}
		if newPost.LessOrEqual(post[id]) {
			continue
		}
		visits[id]++
		joined := post[id].Lub(newPost)
		if visits[id] >= e.Conf.WideningThreshold {
			post[id] = post[id].Widening(joined)
		} else {
			post[id] = joined
		}
		for _, out := range g.Out(id) {
			ws.Push(out.Dst)
		}
	}

	// Descending phase: refine the post-fixpoint with narrowing, bounded by the
	// configured number of passes.
	for step := 0; step < e.Conf.NarrowingSteps; step++ {
		if e.Conf.Cancel.Cancelled() {
			return nil, ErrCancelled
		}
		changed := false
		for id := 0; id < n; id++ {
			st := g.Node(id)
			s, serr := e.joinPredecessors(id, post, isEntry[id], entry)
			if serr != nil {
				return nil, serr
			}
			pre[id] = s
			newPost, terr := e.Trans.StatementSemantics(st, s)
			if terr != nil {
				return nil, &FixpointError{Node: st, Err: terr}
			}
			refined := post[id].Narrowing(newPost)
			if !refined.Equal(post[id]) {
				post[id] = refined
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	result := &Result[S]{
		graph:     g,
		trans:     e.Trans,
		pre:       pre,
		post:      post,
		available: make([]bool, n),
		bottom:    bot,
	}
	for i := 0; i < n; i++ {
		result.available[i] = true
	}
	if e.Conf.Optimize {
		result.dropNonHeads()
	}
	return result, nil
}

// joinPredecessors computes the pre-state of a node: the join over its incoming edges of
// the edge-transformed predecessor post-states, seeded with the entry state on entry
// nodes. Edges are visited in CFG insertion order.
func (e *Engine[S]) joinPredecessors(id int, post []S, entryNode bool, entry S) (S, error) {
	s := entry.Bottom()
	if entryNode {
		s = entry
	}
	for _, edge := range e.Graph.In(id) {
		t, err := e.Trans.EdgeSemantics(edge, post[edge.Src])
		if err != nil {
			return s, &FixpointError{Node: e.Graph.Node(id), Err: err}
		}
		s = s.Lub(t)
	}
	return s, nil
}
