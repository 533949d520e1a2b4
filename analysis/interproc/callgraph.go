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
	"fmt"

	"github.com/argus-static/argus/analysis/cfg"
	"github.com/argus-static/argus/analysis/config"
	"github.com/argus-static/argus/internal/funcutil"
	"github.com/argus-static/argus/internal/graphutil"
)

// CallGraphError reports a failed call resolution.
type CallGraphError struct {
	Site *cfg.Statement
	Msg  string
}

func (e *CallGraphError) Error() string {
	return fmt.Sprintf("call graph: %s (at %s)", e.Msg, e.Site.Location())
}

// CallGraph resolves call sites to callee CFGs. A resolution may be empty for open
// calls; the driver's open-call policy decides what they return.
type CallGraph struct {
	prog  *cfg.Program
	succs map[string][]string // callee names per caller, deduplicated, insertion order
	comps map[string][]string // recursion component per member name
}

// BuildCallGraph scans every call statement of the program and builds the name-keyed
// call graph, computing its recursive components.
func BuildCallGraph(prog *cfg.Program, log *config.LogGroup) *CallGraph {
	succs := map[string][]string{}
	for _, g := range prog.Graphs() {
		caller := g.Descriptor().Name
		for _, st := range g.Nodes() {
			if st.Kind() != cfg.KindCall {
				continue
			}
			if _, ok := prog.Graph(st.Call.Callee); !ok {
				continue // open call, resolved by policy
			}
			if !funcutil.Contains(succs[caller], st.Call.Callee) {
				succs[caller] = append(succs[caller], st.Call.Callee)
			}
		}
	}
	cg := &CallGraph{
		prog:  prog,
		succs: succs,
		comps: graphutil.InSameComponent(prog.Names(), func(n string) []string { return succs[n] }),
	}
	if log != nil {
		for _, cycle := range cg.ElementaryCycles() {
			log.Debugf("recursive call chain: %v", cycle)
		}
	}
	return cg
}

// Resolve returns the callee CFGs of a call site; the set is empty for open calls.
func (c *CallGraph) Resolve(site *cfg.Statement) ([]*cfg.Graph, error) {
	if site.Call == nil {
		return nil, &CallGraphError{Site: site, Msg: "statement is not a call"}
	}
	if g, ok := c.prog.Graph(site.Call.Callee); ok {
		return []*cfg.Graph{g}, nil
	}
	return nil, nil
}

// Callees returns the resolved callees of the named CFG.
func (c *CallGraph) Callees(name string) []string { return c.succs[name] }

// Component returns the recursion component of the named CFG; empty when it does not
// participate in recursion.
func (c *CallGraph) Component(name string) []string { return c.comps[name] }

// CGraph adapts the call graph to the shared graph libraries for rendering and cycle
// enumeration. Node ids are the indices in the program's CFG order.
func (c *CallGraph) CGraph() graphutil.CGraph {
	names := c.prog.Names()
	index := map[string]int64{}
	labels := map[int64]string{}
	for i, n := range names {
		index[n] = int64(i)
		labels[int64(i)] = n
	}
	edges := map[int64]map[int64]bool{}
	for i, n := range names {
		edges[int64(i)] = map[int64]bool{}
		for _, callee := range c.succs[n] {
			edges[int64(i)][index[callee]] = true
		}
	}
	return graphutil.NewCGraph(labels, edges)
}

// ElementaryCycles returns the elementary cycles of the call graph as name lists.
func (c *CallGraph) ElementaryCycles() [][]string {
	names := c.prog.Names()
	var cycles [][]string
	for _, cycle := range graphutil.FindAllElementaryCycles(c.CGraph()) {
		cycles = append(cycles, funcutil.Map(cycle, func(id int64) string { return names[id] }))
	}
	return cycles
}
