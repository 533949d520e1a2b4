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
	"fmt"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/lattice"
)

// Result holds the per-statement states of a completed CFG fixpoint. Under the optimized
// mode only block-head and exit states are kept; the remaining states are rebuilt on
// demand by replaying statement semantics inside the block.
type Result[S lattice.Element[S]] struct {
	graph     *cfg.Graph
	trans     Transitions[S]
	pre       []S
	post      []S
	available []bool
	bottom    S
}

// Graph returns the analyzed CFG.
func (r *Result[S]) Graph() *cfg.Graph { return r.graph }

// dropNonHeads forgets the states of statements that are neither block heads nor exits.
func (r *Result[S]) dropNonHeads() {
	exits := map[int]bool{}
	for _, id := range r.graph.Exits() {
		exits[id] = true
	}
	for _, st := range r.graph.Nodes() {
		if r.graph.BlockHead(st) || exits[st.ID()] {
			continue
		}
		r.pre[st.ID()] = r.bottom
		r.post[st.ID()] = r.bottom
		r.available[st.ID()] = false
	}
}

// PreStateOf returns the state before the statement.
func (r *Result[S]) PreStateOf(st *cfg.Statement) (S, error) {
	if r.available[st.ID()] {
		return r.pre[st.ID()], nil
	}
	return r.unwind(st, false)
}

// PostStateOf returns the state after the statement.
func (r *Result[S]) PostStateOf(st *cfg.Statement) (S, error) {
	if r.available[st.ID()] {
		return r.post[st.ID()], nil
	}
	return r.unwind(st, true)
}

// unwind rebuilds the state at st by replaying the semantics of its basic block from the
// block head.
func (r *Result[S]) unwind(st *cfg.Statement, after bool) (S, error) {
	head := st.ID()
	for head > 0 && !r.graph.BlockHead(r.graph.Node(head)) {
		head--
	}
	if !r.available[head] {
		return r.bottom, fmt.Errorf("no stored state for block head %d", head)
	}
	s := r.pre[head]
	for id := head; id <= st.ID(); id++ {
		if id == st.ID() && !after {
			return s, nil
		}
		next, err := r.trans.StatementSemantics(r.graph.Node(id), s)
		if err != nil {
			return r.bottom, err
		}
		s = next
	}
	return s, nil
}

// ExitState returns the join of the post-states of the exit statements.
func (r *Result[S]) ExitState() (S, error) {
	s := r.bottom
	for _, id := range r.graph.Exits() {
		post, err := r.PostStateOf(r.graph.Node(id))
		if err != nil {
			return r.bottom, err
		}
		s = s.Lub(post)
	}
	return s, nil
}

// ForEach calls f on every statement with its pre and post states, in id order,
// unwinding optimized results as needed.
func (r *Result[S]) ForEach(f func(st *cfg.Statement, pre, post S) error) error {
	for _, st := range r.graph.Nodes() {
		pre, err := r.PreStateOf(st)
		if err != nil {
			return err
		}
		post, err := r.PostStateOf(st)
		if err != nil {
			return err
		}
		if err := f(st, pre, post); err != nil {
			return err
		}
	}
	return nil
}
