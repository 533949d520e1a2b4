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

// Package graphutil implements the graph algorithms used by the interprocedural driver:
// strongly connected components, elementary cycles and adapters to existing graph libraries.
package graphutil

import (
	"sort"

	"gonum.org/v1/gonum/graph"
)

// CGraph is an abstraction over the analyzer call graph that works with existing graph
// libraries. It implements the methods to satisfy yourbasic's graph.Iterator and Gonum's
// graph.Graph.
type CGraph struct {
	// The order of the graph
	order int

	// Labels maps node IDs to a printable label (the function name in the call graph)
	Labels map[int64]string

	// Keys are all the node IDs, in increasing order
	Keys []int64

	// Edges is an adjacency matrix: Edges[x][y] means there is a directed edge from x to y
	Edges map[int64]map[int64]bool
}

// NewCGraph builds a CGraph from node labels and an adjacency relation. Only edges whose
// endpoints both appear in labels are kept.
func NewCGraph(labels map[int64]string, edges map[int64]map[int64]bool) CGraph {
	keys := make([]int64, 0, len(labels))
	adj := make(map[int64]map[int64]bool, len(labels))
	for id := range labels {
		keys = append(keys, id)
		adj[id] = map[int64]bool{}
		for dst := range edges[id] {
			if _, ok := labels[dst]; ok {
				adj[id][dst] = true
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return CGraph{
		order:  len(labels),
		Labels: labels,
		Keys:   keys,
		Edges:  adj,
	}
}

// Subgraph returns a new graph that is the original graph with only the nodes in include.
// Only the edges that have both the origin and destination nodes in the include nodes are
// kept in the resulting graph. The subgraph's order and Labels are the same as in the
// original, so node indices stay consistent across subgraphs.
func Subgraph(original CGraph, include []int64) CGraph {
	keep := make(map[int64]bool, len(include))
	keys := make([]int64, len(include))
	for j, i := range include {
		keys[j] = i
		keep[i] = true
	}

	edges := make(map[int64]map[int64]bool, len(include))
	for _, i := range include {
		edges[i] = map[int64]bool{}
		for e := range original.Edges[i] {
			if keep[e] {
				edges[i][e] = true
			}
		}
	}

	return CGraph{
		order:  original.Order(),
		Labels: original.Labels,
		Keys:   keys,
		Edges:  edges,
	}
}

// Order implements the graph.Iterator interface for the CGraph
func (c CGraph) Order() int {
	return c.order
}

// Visit implements the graph.Iterator interface for the CGraph
func (c CGraph) Visit(v int, do func(w int, c int64) (skip bool)) (aborted bool) {
	if _, ok := c.Labels[int64(v)]; !ok {
		return false
	}
	for w := range c.Edges[int64(v)] {
		if do(int(w), 1) {
			return true
		}
	}
	return false
}

// *************** Gonum Graph interface implementation **********************

// Node implements the Graph interface
func (c CGraph) Node(v int64) graph.Node {
	if _, ok := c.Labels[v]; !ok {
		return nil
	}
	return CNode{id: v, label: c.Labels[v]}
}

// Nodes returns the set of nodes in the graph
func (c CGraph) Nodes() graph.Nodes {
	nodes := make(map[int64]CNode, len(c.Keys))
	ids := make([]int64, len(c.Keys))
	for i, k := range c.Keys {
		ids[i] = k
		nodes[k] = CNode{id: k, label: c.Labels[k]}
	}
	return &NodeSet{nodes: nodes, ids: ids, cur: -1}
}

// From returns the set of nodes reachable from the id through one edge
func (c CGraph) From(id int64) graph.Nodes {
	var ids []int64
	nodes := map[int64]CNode{}
	for out := range c.Edges[id] {
		ids = append(ids, out)
		nodes[out] = CNode{id: out, label: c.Labels[out]}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &NodeSet{nodes: nodes, ids: ids, cur: -1}
}

// HasEdgeBetween returns a boolean indicating whether an edge exists between the two node
// identifiers, in either direction
func (c CGraph) HasEdgeBetween(xid, yid int64) bool {
	return c.Edges[xid][yid] || c.Edges[yid][xid]
}

// Edge returns the edge between the two identifiers (nil if none exists)
func (c CGraph) Edge(uid, vid int64) graph.Edge {
	if c.Edges[uid][vid] {
		return CEdge{
			from: CNode{id: uid, label: c.Labels[uid]},
			to:   CNode{id: vid, label: c.Labels[vid]},
		}
	}
	return nil
}

// *************** Nodes implementation **********************

// CNode is a call-graph node carrying its label. It implements gonum's graph.Node and
// dot.Node so call graphs can be marshaled to DOT directly.
type CNode struct {
	id    int64
	label string
}

// ID returns the id of the node
func (n CNode) ID() int64 {
	return n.id
}

// DOTID returns the label used when the graph is marshaled to DOT
func (n CNode) DOTID() string {
	return n.label
}

func (n CNode) String() string {
	return n.label
}

// NodeSet implements the graph.Nodes interface, an iterator over a set of nodes
type NodeSet struct {
	// nodes is the set of nodes in the iterator
	nodes map[int64]CNode

	// ids is the set of node ids in the iterator
	// invariant: len(ids) = len(nodes)
	ids []int64

	// cur is the current index of the iterator; -1 before the first call to Next
	cur int
}

// Next moves the current node to the next, and returns true if such a node exists.
// Otherwise, returns false and the current node has not changed.
func (ns *NodeSet) Next() bool {
	if ns.cur < len(ns.ids)-1 {
		ns.cur++
		return true
	}
	return false
}

// Len returns the length of the node set
func (ns *NodeSet) Len() int {
	return len(ns.ids)
}

// Reset resets the iterator to its initial position
func (ns *NodeSet) Reset() {
	ns.cur = -1
}

// Node returns the current node in the set
func (ns *NodeSet) Node() graph.Node {
	if ns.cur < 0 || ns.cur >= len(ns.ids) {
		return nil
	}
	return ns.nodes[ns.ids[ns.cur]]
}

// *************** Edge implementation **********************

// CEdge implements the graph.Edge interface
type CEdge struct {
	from CNode
	to   CNode
}

// From returns the origin of the edge
func (e CEdge) From() graph.Node {
	return e.from
}

// To returns the destination of the edge
func (e CEdge) To() graph.Node {
	return e.to
}

// ReversedEdge returns a new value representing the reversed edge
func (e CEdge) ReversedEdge() graph.Edge {
	return CEdge{from: e.to, to: e.from}
}
